package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// GmailScopes are the OAuth scopes requested for sending mail. Google may
// grant additional scopes (openid, email, profile) beyond these; callers
// must not reject tokens on a scope mismatch.
var GmailScopes = []string{
	"https://www.googleapis.com/auth/gmail.send",
	"https://www.googleapis.com/auth/gmail.compose",
}

// Google OAuth 2.0 endpoints used for the authorization-code grant.
const (
	GoogleAuthEndpoint  = "https://accounts.google.com/o/oauth2/auth"
	GoogleTokenEndpoint = "https://oauth2.googleapis.com/token"
)

// DefaultLeverBaseURL is the Lever ATS v1 API endpoint.
const DefaultLeverBaseURL = "https://api.lever.co/v1"

// OAuthConfig holds the upstream OAuth client configuration.
type OAuthConfig struct {
	// ClientID is the Google OAuth client identifier.
	ClientID string `yaml:"clientID"`

	// ClientSecret is the Google OAuth client secret.
	ClientSecret string `yaml:"clientSecret"`

	// RedirectURL is where Google sends the browser after consent.
	// Defaults to <baseURL>/oauth/callback.
	RedirectURL string `yaml:"redirectURL"`

	// TokenStoragePath is the directory for persisted credential records.
	// Persistence failures are tolerated (read-only deployments run in
	// pure on-behalf-of mode).
	TokenStoragePath string `yaml:"tokenStoragePath"`

	// AuthEndpoint and TokenEndpoint override the Google endpoints,
	// mainly for tests. Empty means the Google defaults.
	AuthEndpoint  string `yaml:"authEndpoint"`
	TokenEndpoint string `yaml:"tokenEndpoint"`
}

// IsConfigured reports whether the OAuth client credentials are present.
// Without them the authorization flow cannot be started.
func (c OAuthConfig) IsConfigured() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// LeverConfig holds the Lever ATS API configuration.
type LeverConfig struct {
	// APIKey authenticates against the Lever API (basic auth username).
	APIKey string `yaml:"apiKey"`

	// BaseURL overrides the Lever API endpoint, mainly for tests.
	BaseURL string `yaml:"baseURL"`
}

// MCP transport names.
const (
	TransportStreamableHTTP = "streamable-http"
	TransportSSE            = "sse"
	TransportStdio          = "stdio"
)

// ServerConfig holds the listener configuration.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	// BaseURL is the externally reachable URL of this server. It is
	// embedded in authorization URLs, polling endpoints and metadata
	// documents, so it must match what the browser and agent can reach.
	BaseURL string `yaml:"baseURL"`

	// Transport selects the MCP transport: streamable-http (default),
	// sse, or stdio.
	Transport string `yaml:"transport"`
}

// Config is the top-level levermcp configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	OAuth  OAuthConfig  `yaml:"oauth"`
	Lever  LeverConfig  `yaml:"lever"`
}

// Default returns the built-in configuration before file and environment
// overrides are applied.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:      "localhost",
			Port:      8000,
			Transport: TransportStreamableHTTP,
		},
		Lever: LeverConfig{
			BaseURL: DefaultLeverBaseURL,
		},
		OAuth: OAuthConfig{
			TokenStoragePath: ".oauth_tokens",
		},
	}
}

// Load builds the effective configuration: defaults, then the YAML file at
// path (skipped when path is empty or missing), then environment variables.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, fmt.Errorf("failed to read config file %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	cfg.applyDerived()
	return cfg, nil
}

// applyEnv overlays environment variables on the loaded configuration.
// Environment always wins over the file, matching deployment practice
// where secrets arrive through the environment.
func (c *Config) applyEnv() {
	if v := os.Getenv("GOOGLE_CLIENT_ID"); v != "" {
		c.OAuth.ClientID = v
	}
	if v := os.Getenv("GOOGLE_CLIENT_SECRET"); v != "" {
		c.OAuth.ClientSecret = v
	}
	if v := os.Getenv("OAUTH_CALLBACK_URL"); v != "" {
		c.OAuth.RedirectURL = v
	}
	if v := os.Getenv("TOKEN_STORAGE_PATH"); v != "" {
		c.OAuth.TokenStoragePath = v
	}
	if v := os.Getenv("LEVER_API_KEY"); v != "" {
		c.Lever.APIKey = v
	}
	if v := os.Getenv("LEVER_API_BASE_URL"); v != "" {
		c.Lever.BaseURL = v
	}
	if v := os.Getenv("MCP_SERVER_BASE_URL"); v != "" {
		c.Server.BaseURL = v
	}
}

// applyDerived fills values computed from other settings.
func (c *Config) applyDerived() {
	if c.Server.BaseURL == "" {
		c.Server.BaseURL = fmt.Sprintf("http://%s:%d", c.Server.Host, c.Server.Port)
	}
	c.Server.BaseURL = strings.TrimSuffix(c.Server.BaseURL, "/")

	if c.OAuth.RedirectURL == "" {
		c.OAuth.RedirectURL = c.Server.BaseURL + "/oauth/callback"
	}
	if c.Lever.BaseURL == "" {
		c.Lever.BaseURL = DefaultLeverBaseURL
	}
}
