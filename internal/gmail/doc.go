// Package gmail wraps the Gmail API for the web application: listing
// recent messages and labels, fetching a single message with decoded
// bodies, and sending plain-text mail as the authenticated user.
//
// A Client is constructed per request from the session's stored token set.
// The underlying oauth2 transport refreshes the access token silently when
// it is about to lapse; CurrentToken exposes the token actually in use so
// handlers can write any refreshed value back to the session store.
package gmail
