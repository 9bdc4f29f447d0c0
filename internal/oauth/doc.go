// Package oauth implements the authorization-code relay and credential
// storage for delegated Gmail access.
//
// The relay decouples the browser redirect from the caller: a session is
// created when a flow starts, the redirect handler delivers the
// authorization code into the session, and the caller polls until it can
// claim the code. Each code is handed out at most once and sessions expire
// after a fixed TTL.
//
// Credentials obtained from code exchange are cached in memory and
// persisted per identity as owner-readable JSON files. Expired
// credentials are refreshed transparently when a refresh token is
// available, and discarded otherwise.
package oauth
