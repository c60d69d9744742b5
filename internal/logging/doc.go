// Package logging provides slog helpers for consistent structured logging
// across the gmailweb application.
//
// It defines the common attribute keys used by every package and small
// attribute-constructor helpers so call sites stay short and attribute
// names stay uniform. It also anonymizes PII (emails, session identifiers)
// before it reaches the logs.
package logging
