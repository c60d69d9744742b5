package session

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"golang.org/x/oauth2"
)

// Profile holds the provider-supplied identity of the authenticated user.
type Profile struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture,omitempty"`
}

// Record is a server-side session. It is created when the authorization
// flow starts (State set, Token and Profile nil) and completed by the
// OAuth callback. The browser only ever holds the opaque ID.
type Record struct {
	ID         string
	State      string
	Token      *oauth2.Token
	Profile    *Profile
	CreatedAt  time.Time
	LastAccess time.Time
}

// Authenticated reports whether the record carries a usable token set.
func (r *Record) Authenticated() bool {
	return r != nil && r.Token != nil && r.Token.AccessToken != ""
}

// ConsumeState compares the provider-returned state against the stored one
// and clears it on match, so a captured code+state pair cannot be replayed.
func (r *Record) ConsumeState(state string) bool {
	if r.State == "" || state == "" || r.State != state {
		return false
	}
	r.State = ""
	return true
}

// NewID returns a fresh session identifier: 128 bits from crypto/rand,
// hex encoded. Session IDs are credentials and must be unguessable.
func NewID() string {
	return randomHex(16)
}

// NewState returns a fresh CSRF state value with the same entropy as
// session identifiers.
func NewState() string {
	return randomHex(16)
}

func randomHex(n int) string {
	buf := make([]byte, n)
	// crypto/rand.Read never fails on supported platforms
	if _, err := rand.Read(buf); err != nil {
		panic("session: crypto/rand unavailable: " + err.Error())
	}
	return hex.EncodeToString(buf)
}
