package gmail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"levermcp/internal/email"
)

func TestClient_Send(t *testing.T) {
	var gotAuth string
	var gotRaw string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/gmail/v1/users/me/messages/send", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")

		var req struct {
			Raw string `json:"raw"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotRaw = req.Raw

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": "msg-abc123"}`))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	msg := email.Message{To: "friend@example.com", Subject: "Hi", HTMLBody: "<p>Hello</p>"}

	id, err := client.Send(context.Background(), "access-token", msg)
	require.NoError(t, err)
	assert.Equal(t, "msg-abc123", id)
	assert.Equal(t, "Bearer access-token", gotAuth)

	decoded, err := base64.URLEncoding.DecodeString(gotRaw)
	require.NoError(t, err)
	assert.Contains(t, string(decoded), "To: friend@example.com")
}

func TestClient_SendWithoutToken(t *testing.T) {
	client := NewClient()
	_, err := client.Send(context.Background(), "", email.Message{To: "a@b.c"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not authenticated")
}

func TestClient_SendAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": {"code": 401, "message": "Invalid Credentials"}}`))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	_, err := client.Send(context.Background(), "stale-token", email.Message{To: "a@b.c"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
	assert.Contains(t, err.Error(), "Invalid Credentials")
}
