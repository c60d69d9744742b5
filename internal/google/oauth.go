package google

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	googleauth "golang.org/x/oauth2/google"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"github.com/teemow/gmailweb/internal/session"
)

// ErrNoRefreshToken is returned when a refresh is requested for a token
// set that has no refresh token.
var ErrNoRefreshToken = errors.New("no refresh token available")

// Authenticator wraps the OAuth2 configuration for the Google identity
// provider.
type Authenticator struct {
	conf *oauth2.Config
}

// NewAuthenticator builds the OAuth2 configuration for the given client
// credentials and callback URL.
func NewAuthenticator(clientID, clientSecret, redirectURL string) *Authenticator {
	return &Authenticator{
		conf: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     googleauth.Endpoint,
			RedirectURL:  redirectURL,
			Scopes:       OAuthScopes,
		},
	}
}

// Config exposes the underlying oauth2 configuration for API clients.
func (a *Authenticator) Config() *oauth2.Config {
	return a.conf
}

// ConsentURL returns the provider consent URL with the CSRF state embedded.
// Offline access and a forced consent prompt make Google return a refresh
// token on every authorization, not only the first one.
func (a *Authenticator) ConsentURL(state string) string {
	return a.conf.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.ApprovalForce,
	)
}

// Exchange trades an authorization code for a token set.
func (a *Authenticator) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	tok, err := a.conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange auth code: %w", err)
	}
	return tok, nil
}

// FetchProfile retrieves the authenticated user's profile via the OpenID
// userinfo endpoint using the freshly minted token.
func (a *Authenticator) FetchProfile(ctx context.Context, tok *oauth2.Token) (*session.Profile, error) {
	svc, err := oauth2api.NewService(ctx, option.WithTokenSource(a.conf.TokenSource(ctx, tok)))
	if err != nil {
		return nil, fmt.Errorf("failed to create userinfo service: %w", err)
	}

	info, err := svc.Userinfo.Get().Do()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user profile: %w", err)
	}

	return &session.Profile{
		Email:   info.Email,
		Name:    info.Name,
		Picture: info.Picture,
	}, nil
}

// Refresh mints a new access token from the stored refresh token and merges
// it into a copy of the stored token set. Google omits the refresh token on
// refresh responses, so the stored one is carried forward.
func (a *Authenticator) Refresh(ctx context.Context, tok *oauth2.Token) (*oauth2.Token, error) {
	if tok == nil || tok.RefreshToken == "" {
		return nil, ErrNoRefreshToken
	}

	// Force the token source to refresh by presenting an expired copy.
	stale := *tok
	stale.AccessToken = ""
	stale.Expiry = time.Unix(1, 0)

	fresh, err := a.conf.TokenSource(ctx, &stale).Token()
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}

	if fresh.RefreshToken == "" {
		fresh.RefreshToken = tok.RefreshToken
	}
	return fresh, nil
}
