// Package server hosts the HTTP surface: the OAuth relay endpoints, the
// discovery metadata, email previews and the MCP transport.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"levermcp/internal/config"
	"levermcp/internal/email"
	"levermcp/internal/oauth"
	"levermcp/pkg/logging"
)

// Server is the HTTP server hosting the relay endpoints and, depending on
// configuration, the MCP transport.
type Server struct {
	cfg        config.Config
	flow       *oauth.Flow
	mcp        *mcpserver.MCPServer
	httpServer *http.Server
}

// New creates the HTTP server. mcp may be nil when the MCP transport runs
// over stdio; the relay endpoints are served either way.
func New(cfg config.Config, flow *oauth.Flow, mcp *mcpserver.MCPServer) *Server {
	s := &Server{cfg: cfg, flow: flow, mcp: mcp}
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           s.CreateMux(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// CreateMux builds the route table.
func (s *Server) CreateMux() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /authorize", s.handleAuthorize)
	mux.HandleFunc("GET /oauth/callback", s.handleCallback)
	mux.HandleFunc("GET /oauth/poll/{session}", s.handlePoll)
	mux.HandleFunc("GET /oauth/status/{session}", s.handleStatus)
	mux.HandleFunc("POST /token", s.handleToken)
	mux.HandleFunc("GET /.well-known/oauth-authorization-server", s.handleAuthServerMetadata)
	mux.HandleFunc("GET /.well-known/oauth-protected-resource", s.handleProtectedResourceMetadata)
	mux.HandleFunc("GET /preview/email/{theme}", s.handlePreview)
	mux.HandleFunc("GET /health", s.handleHealth)

	if s.mcp != nil {
		switch s.cfg.Server.Transport {
		case config.TransportSSE:
			sse := mcpserver.NewSSEServer(
				s.mcp,
				mcpserver.WithBaseURL(s.cfg.Server.BaseURL),
				mcpserver.WithSSEEndpoint("/sse"),
				mcpserver.WithMessageEndpoint("/message"),
				mcpserver.WithKeepAlive(true),
			)
			mux.Handle("/sse", sse)
			mux.Handle("/message", sse)
		default:
			streamable := mcpserver.NewStreamableHTTPServer(s.mcp)
			mux.Handle("/mcp", streamable)
		}
	}

	return mux
}

// Start serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logging.Info("HTTP", "Listening on %s (transport %s)", s.httpServer.Addr, s.cfg.Server.Transport)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn("HTTP", "Failed to encode response: %v", err)
	}
}

// handleAuthorize redirects the browser to Google with the normalized
// scope set, passing the caller's state through.
func (s *Server) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	redirect, err := s.flow.AuthorizeRedirectURL(state)
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error":             "oauth_not_configured",
			"error_description": err.Error(),
		})
		return
	}
	logging.Debug("HTTP", "Authorize redirect for state %s", logging.TruncateSessionID(state))
	http.Redirect(w, r, redirect, http.StatusFound)
}

// handleCallback receives the redirect from Google. Relay-flow codes are
// stored for polling; the user just sees a success page either way.
func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	code := q.Get("code")
	state := q.Get("state")

	if errParam := q.Get("error"); errParam != "" {
		desc := q.Get("error_description")
		if desc == "" {
			desc = "OAuth authorization failed"
		}
		logging.Warn("OAuth", "Callback received error: %s - %s", errParam, desc)
		renderErrorPage(w, fmt.Sprintf("%s: %s", errParam, desc))
		return
	}
	if code == "" {
		logging.Warn("OAuth", "Callback missing authorization code")
		renderErrorPage(w, "No authorization code received.")
		return
	}

	sessionID := s.flow.HandleCallback(state, code)
	renderSuccessPage(w, sessionID != "")
}

// handlePoll lets a relay caller claim the authorization code. Expired
// sessions answer 410 Gone; everything else is 200.
func (s *Server) handlePoll(w http.ResponseWriter, r *http.Request) {
	res := s.flow.Poll(r.PathValue("session"))
	status := http.StatusOK
	if res.Status == oauth.PollExpired {
		status = http.StatusGone
	}
	writeJSON(w, status, res)
}

// handleStatus reports the session state without consuming the code.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session")

	switch s.flow.Status(sessionID) {
	case oauth.SessionReady:
		writeJSON(w, http.StatusOK, map[string]string{
			"status":     "ready",
			"message":    "Authorization code is ready",
			"session_id": sessionID,
		})
	case oauth.SessionExpired:
		writeJSON(w, http.StatusGone, map[string]string{
			"status":  "expired",
			"message": "Session expired. Please restart the OAuth flow.",
		})
	default:
		writeJSON(w, http.StatusOK, map[string]string{
			"status":     "pending",
			"message":    "Waiting for user authorization...",
			"session_id": sessionID,
		})
	}
}

// handleToken exchanges an authorization code for tokens. Scopes are
// normalized: Google may grant extras (openid, email, profile) depending
// on account policy, and strict clients reject the mismatch.
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error":             "invalid_request",
			"error_description": "Malformed form body",
		})
		return
	}
	code := r.Form.Get("code")
	if code == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error":             "invalid_request",
			"error_description": "Missing authorization code",
		})
		return
	}

	identity := r.Form.Get("user_id")
	if identity == "" {
		identity = "default"
	}
	cred, err := s.flow.ExchangeCode(r.Context(), code, identity)
	if err != nil {
		logging.Warn("OAuth", "Token exchange failed: %v", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error":             "invalid_grant",
			"error_description": err.Error(),
		})
		return
	}

	resp := map[string]interface{}{
		"access_token": cred.AccessToken,
		"token_type":   cred.TokenType,
	}
	if cred.RefreshToken != "" {
		resp["refresh_token"] = cred.RefreshToken
	}
	if secs := cred.ExpiresInSeconds(); secs > 0 {
		resp["expires_in"] = secs
	}

	scope, original, normalized := normalizeScope(cred.Scope)
	if scope != "" {
		resp["scope"] = scope
	}
	if normalized {
		resp["_original_scope"] = original
	}

	writeJSON(w, http.StatusOK, resp)
}

// normalizeScope trims granted scopes down to the requested Gmail set when
// the provider added extras. The token itself keeps all granted scopes.
func normalizeScope(granted string) (scope, original string, normalized bool) {
	if granted == "" {
		return "", "", false
	}
	requested := make(map[string]bool, len(config.GmailScopes))
	for _, sc := range config.GmailScopes {
		requested[sc] = true
	}
	for _, sc := range strings.Fields(granted) {
		if !requested[sc] {
			logging.Warn("OAuth", "Provider granted extra scope %s, normalizing", sc)
			return strings.Join(config.GmailScopes, " "), granted, true
		}
	}
	return granted, "", false
}

func (s *Server) handleAuthServerMetadata(w http.ResponseWriter, r *http.Request) {
	base := strings.TrimRight(s.cfg.Server.BaseURL, "/")
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"issuer":                                base + "/",
		"authorization_endpoint":                base + "/authorize",
		"token_endpoint":                        base + "/token",
		"response_types_supported":              []string{"code"},
		"grant_types_supported":                 []string{"authorization_code", "refresh_token"},
		"token_endpoint_auth_methods_supported": []string{"client_secret_post"},
		"code_challenge_methods_supported":      []string{"S256"},
	})
}

func (s *Server) handleProtectedResourceMetadata(w http.ResponseWriter, r *http.Request) {
	base := strings.TrimRight(s.cfg.Server.BaseURL, "/")
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"resource":                 base,
		"authorization_servers":    []string{base},
		"bearer_methods_supported": []string{"header"},
	})
}

// handlePreview renders a theme's HTML body in the browser.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	tmpl, _ := email.Lookup(r.PathValue("theme"))
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(tmpl.Body))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":           "healthy",
		"oauth_configured": s.flow.Configured(),
		"base_url":         s.cfg.Server.BaseURL,
	})
}
