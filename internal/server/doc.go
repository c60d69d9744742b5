// Package server implements the HTTP surface of the gmailweb application:
// the OAuth authorization-code flow endpoints, the authenticated Gmail
// views and JSON API, health probes and the dedicated metrics server.
//
// All authoritative state lives server-side in a session.Store; the
// browser only carries an opaque session identifier in an HttpOnly
// cookie.
package server
