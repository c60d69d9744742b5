// Package google handles the OAuth 2.0 authorization-code flow against
// Google's identity provider: consent URL construction, code exchange,
// userinfo profile fetch and explicit token refresh.
package google
