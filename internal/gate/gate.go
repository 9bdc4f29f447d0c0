// Package gate decides how a delegated email send is authorized before it
// executes.
//
// Three paths exist, tried in this order: a caller-supplied access token
// is used directly, a stored credential for the identity is used next,
// and otherwise the caller receives an authorization-required descriptor
// pointing at the relay flow. A failed send never falls back to another
// path; surfacing the provider's error keeps a revoked token visible
// instead of silently starting a new consent round.
package gate

import (
	"context"
	"fmt"

	"levermcp/internal/email"
	"levermcp/internal/oauth"
	"levermcp/pkg/logging"
)

// Max poll duration advertised to callers, matching the relay session TTL.
const maxPollDurationSeconds = 600

// DefaultIdentity is used when the caller does not name one.
const DefaultIdentity = "default"

// Sender delivers an encoded email with a bearer token.
type Sender interface {
	Send(ctx context.Context, bearer string, msg email.Message) (string, error)
}

// Authorizer starts relay flows.
type Authorizer interface {
	Begin(identity string) (*oauth.FlowStart, error)
}

// CredentialSource yields stored credentials per identity.
type CredentialSource interface {
	Load(ctx context.Context, identity string) *oauth.Credential
}

// Request is one delegated send.
type Request struct {
	To      string
	Theme   string
	Subject string
	CC      string
	BCC     string

	// AccessToken, when set, is used directly (on-behalf-of flow).
	AccessToken string

	// Identity selects the stored credential; empty means DefaultIdentity.
	Identity string
}

// Retry tells the caller how to repeat the send once authorized.
type Retry struct {
	Tool      string            `json:"tool"`
	Arguments map[string]string `json:"arguments"`
}

// Result is the gate's answer. Status is "sent", "error" or
// "authorization_required"; the remaining fields are populated per
// status.
type Result struct {
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
	MessageID string `json:"message_id,omitempty"`

	Theme   string `json:"theme,omitempty"`
	To      string `json:"to,omitempty"`
	Subject string `json:"subject,omitempty"`
	CC      string `json:"cc,omitempty"`
	BCC     string `json:"bcc,omitempty"`

	AuthURL                string `json:"auth_url,omitempty"`
	SessionID              string `json:"session_id,omitempty"`
	PollingEndpoint        string `json:"polling_endpoint,omitempty"`
	StatusEndpoint         string `json:"status_endpoint,omitempty"`
	PollIntervalSeconds    int    `json:"poll_interval_seconds,omitempty"`
	MaxPollDurationSeconds int    `json:"max_poll_duration_seconds,omitempty"`

	PreviewURL      string   `json:"preview_url,omitempty"`
	GmailPayload    *Payload `json:"gmail_api_payload,omitempty"`
	AvailableThemes []string `json:"available_themes,omitempty"`
	Retry           *Retry   `json:"retry,omitempty"`
}

// Payload is the ready-to-send Gmail API body for callers with their own
// Gmail access.
type Payload struct {
	Raw string `json:"raw"`
}

// Gate authorizes and executes delegated sends.
type Gate struct {
	sender  Sender
	flow    Authorizer
	store   CredentialSource
	baseURL string
}

// New creates a gate. baseURL is this server's public base URL, used for
// preview links.
func New(sender Sender, flow Authorizer, store CredentialSource, baseURL string) *Gate {
	return &Gate{sender: sender, flow: flow, store: store, baseURL: baseURL}
}

// Execute runs one delegated send end to end.
func (g *Gate) Execute(ctx context.Context, req Request) Result {
	identity := req.Identity
	if identity == "" {
		identity = DefaultIdentity
	}

	tmpl, _ := email.Lookup(req.Theme)
	subject := req.Subject
	if subject == "" {
		subject = tmpl.Subject
	}
	msg := email.Message{
		To:       req.To,
		Subject:  subject,
		HTMLBody: tmpl.Body,
		CC:       req.CC,
		BCC:      req.BCC,
	}

	if req.AccessToken != "" {
		logging.Info("Gate", "Sending with caller-supplied token for %s", identity)
		return g.send(ctx, req.AccessToken, msg, req.Theme)
	}

	if cred := g.store.Load(ctx, identity); cred != nil {
		logging.Info("Gate", "Sending with stored credential for %s", identity)
		return g.send(ctx, cred.AccessToken, msg, req.Theme)
	}

	logging.Info("Gate", "No credential for %s, starting authorization", identity)
	return g.authorizationRequired(req, identity, msg, subject)
}

func (g *Gate) send(ctx context.Context, bearer string, msg email.Message, theme string) Result {
	id, err := g.sender.Send(ctx, bearer, msg)
	if err != nil {
		logging.Warn("Gate", "Send failed: %v", err)
		return Result{
			Status:  "error",
			Message: fmt.Sprintf("Failed to send email: %v", err),
		}
	}
	return Result{
		Status:    "sent",
		Message:   "Email sent successfully via Gmail API",
		MessageID: id,
		Theme:     theme,
		To:        msg.To,
		Subject:   msg.Subject,
		CC:        msg.CC,
		BCC:       msg.BCC,
	}
}

func (g *Gate) authorizationRequired(req Request, identity string, msg email.Message, subject string) Result {
	start, err := g.flow.Begin(identity)
	if err != nil {
		return Result{
			Status:  "error",
			Message: err.Error(),
		}
	}

	retryArgs := map[string]string{
		"to":           req.To,
		"theme":        req.Theme,
		"subject":      subject,
		"access_token": "<from_token_exchange>",
		"user_id":      identity,
	}
	if req.CC != "" {
		retryArgs["cc"] = req.CC
	}
	if req.BCC != "" {
		retryArgs["bcc"] = req.BCC
	}

	return Result{
		Status:  "authorization_required",
		Message: "OAuth authorization needed to send email. Please authorize Gmail access.",
		Theme:   req.Theme,
		To:      req.To,
		Subject: subject,

		AuthURL:                start.AuthURL,
		SessionID:              start.SessionID,
		PollingEndpoint:        start.PollingEndpoint,
		StatusEndpoint:         start.StatusEndpoint,
		PollIntervalSeconds:    oauth.RecommendedPollIntervalSeconds,
		MaxPollDurationSeconds: maxPollDurationSeconds,

		PreviewURL:      fmt.Sprintf("%s/preview/email/%s?to=%s", g.baseURL, tmplName(req.Theme), req.To),
		GmailPayload:    &Payload{Raw: msg.EncodeRaw()},
		AvailableThemes: email.Themes(),
		Retry: &Retry{
			Tool:      "send_email",
			Arguments: retryArgs,
		},
	}
}

func tmplName(theme string) string {
	if _, ok := email.Lookup(theme); ok {
		return theme
	}
	return email.DefaultTheme
}
