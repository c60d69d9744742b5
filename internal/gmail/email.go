package gmail

import (
	"encoding/base64"
	"fmt"
	"mime"
	"strings"
)

// Defaults applied when the caller omits subject or body.
const (
	DefaultSubject = "Test Email from Gmail OAuth App"
	DefaultBody    = "This is a test email sent from the Gmail OAuth demo application."
)

// EmailMessage represents a plain-text email to be sent. The sender fields
// always come from the authenticated profile, never from caller input, so
// a request body cannot spoof the From address.
type EmailMessage struct {
	FromName    string
	FromAddress string
	To          string
	Subject     string
	Body        string
}

// ApplyDefaults fills in the default subject and body when omitted.
func (m *EmailMessage) ApplyDefaults() {
	if m.Subject == "" {
		m.Subject = DefaultSubject
	}
	if m.Body == "" {
		m.Body = DefaultBody
	}
}

// EncodeRaw builds the message in RFC 2822 format and encodes it the way
// the Gmail API expects raw payloads: base64url without padding.
func (m *EmailMessage) EncodeRaw() (string, error) {
	if m.To == "" {
		return "", fmt.Errorf("at least one recipient is required")
	}
	if m.FromAddress == "" {
		return "", fmt.Errorf("sender address is required")
	}

	var emailBuilder strings.Builder

	// Add From header with the authenticated user's display name
	emailBuilder.WriteString("From: ")
	if m.FromName != "" {
		emailBuilder.WriteString(encodeRFC2047(m.FromName))
		emailBuilder.WriteString(" <")
		emailBuilder.WriteString(m.FromAddress)
		emailBuilder.WriteString(">")
	} else {
		emailBuilder.WriteString(m.FromAddress)
	}
	emailBuilder.WriteString("\r\n")

	// Add To header
	emailBuilder.WriteString("To: ")
	emailBuilder.WriteString(m.To)
	emailBuilder.WriteString("\r\n")

	// Add Subject (encode for non-ASCII characters like umlauts)
	emailBuilder.WriteString("Subject: ")
	emailBuilder.WriteString(encodeRFC2047(m.Subject))
	emailBuilder.WriteString("\r\n")

	emailBuilder.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	emailBuilder.WriteString("MIME-Version: 1.0\r\n")
	emailBuilder.WriteString("\r\n")

	emailBuilder.WriteString(m.Body)

	return base64.RawURLEncoding.EncodeToString([]byte(emailBuilder.String())), nil
}

// encodeRFC2047 encodes a string for use in email headers according to RFC 2047
// This is necessary for non-ASCII characters (like German umlauts) in subjects
func encodeRFC2047(s string) string {
	// Check if the string contains only ASCII characters
	needsEncoding := false
	for _, r := range s {
		if r > 127 {
			needsEncoding = true
			break
		}
	}

	// If it's all ASCII, return as-is
	if !needsEncoding {
		return s
	}

	// Use Go's mime package which implements RFC 2047 encoding
	return mime.BEncoding.Encode("UTF-8", s)
}
