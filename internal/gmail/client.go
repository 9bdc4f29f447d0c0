// Package gmail is a minimal client for the Gmail send API.
package gmail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"levermcp/internal/email"
	"levermcp/pkg/logging"
)

const defaultBaseURL = "https://gmail.googleapis.com"

// Client sends email on behalf of the token owner via the Gmail API.
// The zero value is not usable; use NewClient.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the Gmail API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a Gmail client with a 30 second request timeout.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type sendRequest struct {
	Raw string `json:"raw"`
}

type sendResponse struct {
	ID string `json:"id"`
}

// Send delivers the message as the bearer's user and returns the Gmail
// message ID.
func (c *Client) Send(ctx context.Context, bearer string, msg email.Message) (string, error) {
	if bearer == "" {
		return "", fmt.Errorf("not authenticated: an access token is required to send email")
	}

	payload, err := json.Marshal(sendRequest{Raw: msg.EncodeRaw()})
	if err != nil {
		return "", fmt.Errorf("failed to encode send request: %w", err)
	}

	url := c.baseURL + "/gmail/v1/users/me/messages/send"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create send request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gmail request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read gmail response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("gmail API returned status %d: %s", resp.StatusCode, string(body))
	}

	var sent sendResponse
	if err := json.Unmarshal(body, &sent); err != nil {
		return "", fmt.Errorf("failed to decode gmail response: %w", err)
	}

	logging.Info("Gmail", "Email sent to %s, message ID %s", msg.To, sent.ID)
	return sent.ID, nil
}
