package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"levermcp/internal/config"
	"levermcp/internal/oauth"
)

type testHarness struct {
	mux  *http.ServeMux
	flow *oauth.Flow
}

func newHarness(t *testing.T, configured bool) *testHarness {
	t.Helper()

	registry := oauth.NewSessionRegistry()
	t.Cleanup(registry.Stop)
	store := oauth.NewCredentialStore(t.TempDir())

	var oc config.OAuthConfig
	if configured {
		oc = config.OAuthConfig{
			ClientID:     "client-id",
			ClientSecret: "client-secret",
			RedirectURL:  "http://localhost:8000/oauth/callback",
		}
	}

	cfg := config.Default()
	cfg.Server.BaseURL = "http://localhost:8000"
	cfg.OAuth = oc

	flow := oauth.NewFlow(oc, cfg.Server.BaseURL, registry, store)
	srv := New(cfg, flow, nil)
	return &testHarness{mux: srv.CreateMux(), flow: flow}
}

func (h *testHarness) get(path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	h := newHarness(t, true)
	rec := h.get("/health")

	require.Equal(t, http.StatusOK, rec.Code)
	out := decodeJSON(t, rec)
	assert.Equal(t, "healthy", out["status"])
	assert.Equal(t, true, out["oauth_configured"])
}

func TestAuthorize_RedirectsToGoogle(t *testing.T) {
	h := newHarness(t, true)
	rec := h.get("/authorize?state=browser_agent_abc")

	require.Equal(t, http.StatusFound, rec.Code)
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "accounts.google.com", loc.Host)
	q := loc.Query()
	assert.Equal(t, "browser_agent_abc", q.Get("state"))
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.Equal(t, "consent", q.Get("prompt"))
	assert.Contains(t, q.Get("scope"), "gmail.send")
}

func TestAuthorize_Unconfigured(t *testing.T) {
	h := newHarness(t, false)
	rec := h.get("/authorize")

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "oauth_not_configured", decodeJSON(t, rec)["error"])
}

func TestCallback_ErrorParam(t *testing.T) {
	h := newHarness(t, true)
	rec := h.get("/oauth/callback?error=access_denied&error_description=User+denied")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Authorization Failed")
	assert.Contains(t, rec.Body.String(), "access_denied")
}

func TestCallback_MissingCode(t *testing.T) {
	h := newHarness(t, true)
	rec := h.get("/oauth/callback?state=browser_agent_abc")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "No authorization code received")
}

func TestCallbackThenPoll(t *testing.T) {
	h := newHarness(t, true)

	start, err := h.flow.Begin("default")
	require.NoError(t, err)

	// Poll before redirect: pending.
	rec := h.get("/oauth/poll/" + start.SessionID)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pending", decodeJSON(t, rec)["status"])

	// Browser completes the redirect.
	rec = h.get("/oauth/callback?code=code-789&state=" + oauth.BrowserAgentStatePrefix + start.SessionID)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Authorization Successful")
	// The code never appears on the page.
	assert.NotContains(t, rec.Body.String(), "code-789")

	// Status reports ready without consuming.
	rec = h.get("/oauth/status/" + start.SessionID)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", decodeJSON(t, rec)["status"])

	// Claim the code.
	rec = h.get("/oauth/poll/" + start.SessionID)
	require.Equal(t, http.StatusOK, rec.Code)
	out := decodeJSON(t, rec)
	assert.Equal(t, "success", out["status"])
	assert.Equal(t, "code-789", out["code"])

	// A second claim sees a fresh-looking pending session.
	rec = h.get("/oauth/poll/" + start.SessionID)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pending", decodeJSON(t, rec)["status"])
}

func TestToken_MissingCode(t *testing.T) {
	h := newHarness(t, true)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/token", strings.NewReader(""))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	h.mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_request", decodeJSON(t, rec)["error"])
}

func TestToken_ExchangeAndScopeNormalization(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"access_token": "tok-1",
			"refresh_token": "ref-1",
			"token_type": "Bearer",
			"expires_in": 3600,
			"scope": "https://www.googleapis.com/auth/gmail.send https://www.googleapis.com/auth/gmail.compose openid email"
		}`))
	}))
	defer upstream.Close()

	registry := oauth.NewSessionRegistry()
	t.Cleanup(registry.Stop)
	store := oauth.NewCredentialStore(t.TempDir())

	oc := config.OAuthConfig{
		ClientID:      "client-id",
		ClientSecret:  "client-secret",
		RedirectURL:   "http://localhost:8000/oauth/callback",
		TokenEndpoint: upstream.URL,
	}
	cfg := config.Default()
	cfg.Server.BaseURL = "http://localhost:8000"
	cfg.OAuth = oc

	flow := oauth.NewFlow(oc, cfg.Server.BaseURL, registry, store)
	mux := New(cfg, flow, nil).CreateMux()

	form := url.Values{"code": {"auth-code"}}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	out := decodeJSON(t, rec)
	assert.Equal(t, "tok-1", out["access_token"])
	assert.Equal(t, "ref-1", out["refresh_token"])

	// Extra provider scopes are normalized away, with the original kept.
	assert.Equal(t, "https://www.googleapis.com/auth/gmail.send https://www.googleapis.com/auth/gmail.compose", out["scope"])
	assert.Contains(t, out["_original_scope"], "openid")
}

func TestWellKnownMetadata(t *testing.T) {
	h := newHarness(t, true)

	rec := h.get("/.well-known/oauth-authorization-server")
	require.Equal(t, http.StatusOK, rec.Code)
	out := decodeJSON(t, rec)
	assert.Equal(t, "http://localhost:8000/authorize", out["authorization_endpoint"])
	assert.Equal(t, "http://localhost:8000/token", out["token_endpoint"])

	rec = h.get("/.well-known/oauth-protected-resource")
	require.Equal(t, http.StatusOK, rec.Code)
	out = decodeJSON(t, rec)
	assert.Equal(t, "http://localhost:8000", out["resource"])
}

func TestPreview(t *testing.T) {
	h := newHarness(t, true)

	rec := h.get("/preview/email/pirate")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "Ahoy")

	// Unknown themes fall back to the default template.
	rec = h.get("/preview/email/disco")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Happy Birthday")
}
