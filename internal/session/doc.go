// Package session implements server-side session records for the OAuth
// authorization-code flow: an unguessable session identifier bound to a
// browser cookie, the CSRF state round-tripped through Google, and the
// token set plus user profile populated once the flow completes.
//
// Storage is behind the Store interface so the in-memory default can be
// swapped for a persistent backend without touching handler logic.
package session
