package google

import gmail "google.golang.org/api/gmail/v1"

// OAuthScopes are the Google OAuth scopes the application requests.
//
// The scopes provide access to:
//   - Gmail: read, send, label management
//   - OpenID Connect userinfo (email and profile for the dashboard)
var OAuthScopes = []string{
	// Gmail scopes
	gmail.GmailReadonlyScope,
	gmail.GmailSendScope,
	gmail.GmailLabelsScope,

	// Userinfo scopes (required for the authenticated profile)
	"https://www.googleapis.com/auth/userinfo.profile",
	"https://www.googleapis.com/auth/userinfo.email",
}
