package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, "streamable-http", cfg.Server.Transport)
	assert.Equal(t, DefaultLeverBaseURL, cfg.Lever.BaseURL)
	assert.False(t, cfg.OAuth.IsConfigured())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 8000, cfg.Server.Port)
}

func TestLoad_FileOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: 0.0.0.0
  port: 9090
  baseURL: https://mcp.example.com
oauth:
  clientID: file-client
  clientSecret: file-secret
lever:
  apiKey: lever-key
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "https://mcp.example.com", cfg.Server.BaseURL)
	assert.True(t, cfg.OAuth.IsConfigured())
	assert.Equal(t, "lever-key", cfg.Lever.APIKey)
	// Redirect URL is derived from the base URL when not set explicitly.
	assert.Equal(t, "https://mcp.example.com/oauth/callback", cfg.OAuth.RedirectURL)
}

func TestLoad_EnvWinsOverFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
oauth:
  clientID: file-client
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Setenv("GOOGLE_CLIENT_ID", "env-client")
	t.Setenv("GOOGLE_CLIENT_SECRET", "env-secret")
	t.Setenv("MCP_SERVER_BASE_URL", "https://env.example.com/")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "env-client", cfg.OAuth.ClientID)
	assert.Equal(t, "env-secret", cfg.OAuth.ClientSecret)
	// Trailing slash on the base URL is normalized away.
	assert.Equal(t, "https://env.example.com", cfg.Server.BaseURL)
	assert.Equal(t, "https://env.example.com/oauth/callback", cfg.OAuth.RedirectURL)
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [not a mapping"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestIsConfigured(t *testing.T) {
	cfg := OAuthConfig{ClientID: "id"}
	assert.False(t, cfg.IsConfigured())

	cfg.ClientSecret = "secret"
	assert.True(t, cfg.IsConfigured())
}
