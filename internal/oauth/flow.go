package oauth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"levermcp/internal/config"
	"levermcp/pkg/logging"
)

// ErrNotConfigured indicates the OAuth client credentials are missing.
var ErrNotConfigured = errors.New("OAuth is not configured: set GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET")

// Poll statuses returned to relay callers.
const (
	PollPending = "pending"
	PollExpired = "expired"
	PollSuccess = "success"
	PollError   = "error"
)

// FlowStart describes a freshly started relay flow: where to send the
// user and where to poll for the result.
type FlowStart struct {
	AuthURL         string
	SessionID       string
	PollingEndpoint string
	StatusEndpoint  string
}

// PollResult is the outcome of one poll attempt.
type PollResult struct {
	Status  string `json:"status"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// Flow drives the authorization-code relay: it starts sessions, redirects
// to the upstream provider, accepts the callback, and exchanges codes for
// credentials.
type Flow struct {
	cfg      config.OAuthConfig
	baseURL  string
	oauthCfg *oauth2.Config
	registry *SessionRegistry
	store    *CredentialStore
}

// NewFlow wires the relay against the Google endpoints and installs the
// refresh callback on the credential store.
func NewFlow(cfg config.OAuthConfig, baseURL string, registry *SessionRegistry, store *CredentialStore) *Flow {
	authEndpoint := cfg.AuthEndpoint
	if authEndpoint == "" {
		authEndpoint = config.GoogleAuthEndpoint
	}
	tokenEndpoint := cfg.TokenEndpoint
	if tokenEndpoint == "" {
		tokenEndpoint = config.GoogleTokenEndpoint
	}

	f := &Flow{
		cfg:     cfg,
		baseURL: strings.TrimRight(baseURL, "/"),
		oauthCfg: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       config.GmailScopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  authEndpoint,
				TokenURL: tokenEndpoint,
			},
		},
		registry: registry,
		store:    store,
	}
	if store != nil {
		store.SetRefreshFunc(f.Refresh)
	}
	return f
}

// Configured reports whether client credentials are present.
func (f *Flow) Configured() bool {
	return f.cfg.IsConfigured()
}

// Begin starts a relay session and returns the URL the user must open.
// The URL points at this server's /authorize endpoint, which normalizes
// scopes before redirecting upstream.
func (f *Flow) Begin(identity string) (*FlowStart, error) {
	if !f.Configured() {
		return nil, ErrNotConfigured
	}

	sessionID := f.registry.Create()
	state := BrowserAgentStatePrefix + sessionID

	q := url.Values{}
	q.Set("response_type", "code")
	q.Set("scope", strings.Join(config.GmailScopes, " "))
	q.Set("state", state)

	logging.Info("OAuth", "Started relay flow for %s with session %s", identity, logging.TruncateSessionID(sessionID))

	return &FlowStart{
		AuthURL:         f.baseURL + "/authorize?" + q.Encode(),
		SessionID:       sessionID,
		PollingEndpoint: f.baseURL + "/oauth/poll/" + sessionID,
		StatusEndpoint:  f.baseURL + "/oauth/status/" + sessionID,
	}, nil
}

// AuthorizeRedirectURL builds the upstream Google authorization URL for
// the /authorize endpoint. The caller's state is passed through so the
// callback can route relay sessions; offline access and a consent prompt
// are forced so a refresh token is always issued.
func (f *Flow) AuthorizeRedirectURL(state string) (string, error) {
	if !f.Configured() {
		return "", ErrNotConfigured
	}
	return f.oauthCfg.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
		oauth2.SetAuthURLParam("include_granted_scopes", "false"),
	), nil
}

// HandleCallback routes an authorization code arriving at the redirect
// endpoint. Relay-flow codes (state carries the session prefix) are
// delivered to the registry; any other state belongs to a direct flow and
// is not recorded. Returns the session ID for relay flows, "" otherwise.
func (f *Flow) HandleCallback(state, code string) string {
	if !strings.HasPrefix(state, BrowserAgentStatePrefix) {
		logging.Debug("OAuth", "Callback without relay state, not recording")
		return ""
	}
	sessionID := strings.TrimPrefix(state, BrowserAgentStatePrefix)
	f.registry.Deliver(sessionID, code, state)
	return sessionID
}

// Poll attempts to claim the authorization code for a session. Unknown
// sessions report pending, since a poller usually races the browser
// redirect rather than holding a genuinely bad identifier.
func (f *Flow) Poll(sessionID string) PollResult {
	if sessionID == "" {
		return PollResult{Status: PollError, Message: "session_id is required"}
	}

	res := f.registry.Claim(sessionID)
	switch res.Status {
	case SessionClaimed:
		return PollResult{Status: PollSuccess, Code: res.Code}
	case SessionExpired:
		return PollResult{Status: PollExpired, Message: "Session expired. Please restart the OAuth flow."}
	default:
		return PollResult{Status: PollPending, Message: "Waiting for user to complete authorization in the browser."}
	}
}

// Status reports a session's state without consuming it.
func (f *Flow) Status(sessionID string) SessionStatus {
	return f.registry.Status(sessionID)
}

// ExchangeCode swaps an authorization code for a credential and stores it
// under the given identity.
func (f *Flow) ExchangeCode(ctx context.Context, code, identity string) (*Credential, error) {
	if !f.Configured() {
		return nil, ErrNotConfigured
	}

	tok, err := f.oauthCfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("authorization code exchange failed: %w", err)
	}

	cred := credentialFromToken(tok)
	if f.store != nil {
		f.store.Save(identity, cred)
	}
	logging.Info("OAuth", "Exchanged authorization code for %s", identity)
	return cred, nil
}

// Refresh obtains a new credential from a refresh token.
func (f *Flow) Refresh(ctx context.Context, refreshToken string) (*Credential, error) {
	if !f.Configured() {
		return nil, ErrNotConfigured
	}

	src := f.oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return nil, fmt.Errorf("token refresh failed: %w", err)
	}
	return credentialFromToken(tok), nil
}

func credentialFromToken(tok *oauth2.Token) *Credential {
	scope, _ := tok.Extra("scope").(string)
	return &Credential{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		Scope:        scope,
		Expiry:       tok.Expiry,
		CreatedAt:    time.Now(),
	}
}
