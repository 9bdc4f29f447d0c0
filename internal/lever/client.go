// Package lever is a client for the Lever recruiting API.
//
// Lever authenticates with HTTP basic auth: the API key is the username
// and the password is empty.
package lever

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"levermcp/internal/config"
	"levermcp/pkg/logging"
)

// Client talks to the Lever v1 API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// RequisitionRequest is the payload for creating a job requisition.
type RequisitionRequest struct {
	Name     string `json:"name"`
	Location string `json:"location"`
	Team     string `json:"team"`
}

// NewClient creates a Lever client from configuration. Returns an error
// when no API key is configured.
func NewClient(cfg config.LeverConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("LEVER_API_KEY is not set")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = config.DefaultLeverBaseURL
	}
	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// SetHTTPClient overrides the HTTP client, mainly for tests.
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	c.httpClient = httpClient
}

// ListCandidates returns one page of candidates. The offset is Lever's
// opaque pagination cursor; pass "" for the first page.
func (c *Client) ListCandidates(ctx context.Context, limit int, offset string) (json.RawMessage, error) {
	if limit <= 0 {
		limit = 10
	}
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	if offset != "" {
		q.Set("offset", offset)
	}
	return c.do(ctx, http.MethodGet, "/candidates?"+q.Encode(), nil)
}

// GetCandidate fetches a single candidate by ID.
func (c *Client) GetCandidate(ctx context.Context, candidateID string) (json.RawMessage, error) {
	if candidateID == "" {
		return nil, fmt.Errorf("candidate ID is required")
	}
	return c.do(ctx, http.MethodGet, "/candidates/"+url.PathEscape(candidateID), nil)
}

// CreateRequisition opens a new job requisition.
func (c *Client) CreateRequisition(ctx context.Context, req RequisitionRequest) (json.RawMessage, error) {
	logging.Info("Lever", "Creating requisition %q in %s for team %s", req.Name, req.Location, req.Team)
	return c.do(ctx, http.MethodPost, "/requisitions", req)
}

func (c *Client) do(ctx context.Context, method, path string, payload interface{}) (json.RawMessage, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(c.apiKey, "")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("lever request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read lever response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("lever API returned status %d: %s", resp.StatusCode, string(respBody))
	}
	return json.RawMessage(respBody), nil
}
