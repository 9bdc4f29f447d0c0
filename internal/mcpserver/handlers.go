package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"levermcp/internal/email"
	"levermcp/internal/gate"
	"levermcp/internal/lever"
	"levermcp/internal/oauth"
	"levermcp/pkg/logging"
)

// jsonResult renders a response structure as indented JSON tool output.
func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to format response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// statusError is the JSON error shape shared by the OAuth and email tools.
func statusError(format string, args ...interface{}) (*mcp.CallToolResult, error) {
	return jsonResult(map[string]string{
		"status":  "error",
		"message": fmt.Sprintf(format, args...),
	})
}

func (s *Server) handleListCandidates(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.lever == nil {
		return mcp.NewToolResultError("Configuration error: LEVER_API_KEY is not set"), nil
	}

	limit := request.GetInt("limit", 10)
	offset := request.GetString("offset", "")

	logging.Info("MCP", "Listing candidates (limit=%d)", limit)
	raw, err := s.lever.ListCandidates(ctx, limit, offset)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error listing candidates: %v", err)), nil
	}
	return mcp.NewToolResultText(string(raw)), nil
}

func (s *Server) handleGetCandidate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.lever == nil {
		return mcp.NewToolResultError("Configuration error: LEVER_API_KEY is not set"), nil
	}

	candidateID, err := request.RequireString("candidate_id")
	if err != nil {
		return mcp.NewToolResultError("candidate_id argument is required"), nil
	}

	raw, err := s.lever.GetCandidate(ctx, candidateID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error getting candidate: %v", err)), nil
	}
	return mcp.NewToolResultText(string(raw)), nil
}

func (s *Server) handleCreateRequisition(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.lever == nil {
		return mcp.NewToolResultError("Configuration error: LEVER_API_KEY is not set"), nil
	}

	title, err := request.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError("title argument is required"), nil
	}
	location, err := request.RequireString("location")
	if err != nil {
		return mcp.NewToolResultError("location argument is required"), nil
	}
	team, err := request.RequireString("team")
	if err != nil {
		return mcp.NewToolResultError("team argument is required"), nil
	}

	raw, err := s.lever.CreateRequisition(ctx, lever.RequisitionRequest{
		Name:     title,
		Location: location,
		Team:     team,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error creating requisition: %v", err)), nil
	}
	return mcp.NewToolResultText(string(raw)), nil
}

func (s *Server) handleSendEmail(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	to, err := request.RequireString("to")
	if err != nil {
		return mcp.NewToolResultError("to argument is required"), nil
	}

	req := gate.Request{
		To:          to,
		Theme:       request.GetString("theme", email.DefaultTheme),
		Subject:     request.GetString("subject", ""),
		CC:          request.GetString("cc", ""),
		BCC:         request.GetString("bcc", ""),
		AccessToken: request.GetString("access_token", ""),
		Identity:    request.GetString("user_id", gate.DefaultIdentity),
	}

	logging.Info("MCP", "send_email to=%s theme=%s has_token=%t", to, req.Theme, req.AccessToken != "")
	return jsonResult(s.gate.Execute(ctx, req))
}

func (s *Server) handleGenerateEmailContent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	to, err := request.RequireString("to")
	if err != nil {
		return mcp.NewToolResultError("to argument is required"), nil
	}

	theme := request.GetString("theme", email.DefaultTheme)
	tmpl, known := email.Lookup(theme)
	if !known {
		theme = email.DefaultTheme
	}

	subject := request.GetString("subject", "")
	if subject == "" {
		subject = tmpl.Subject
	}
	cc := request.GetString("cc", "")
	bcc := request.GetString("bcc", "")

	msg := email.Message{
		To:       to,
		Subject:  subject,
		HTMLBody: tmpl.Body,
		CC:       cc,
		BCC:      bcc,
	}
	previewURL := fmt.Sprintf("%s/preview/email/%s?to=%s", s.baseURL, strings.ToLower(theme), url.QueryEscape(to))

	return jsonResult(map[string]interface{}{
		"status":  "content_generated",
		"message": "Use gmail_payload.raw when sending via the Gmail API, or set content_type=text/html when using the body field directly. Preview at: " + previewURL,
		"theme":   theme,
		"gmail_payload": map[string]string{
			"raw": msg.EncodeRaw(),
		},
		"body":             tmpl.Body,
		"content_type":     "text/html",
		"mime_type":        "text/html; charset=utf-8",
		"to":               to,
		"subject":          subject,
		"cc":               cc,
		"bcc":              bcc,
		"preview_url":      previewURL,
		"available_themes": email.Themes(),
	})
}

func (s *Server) handleGetOAuthURL(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID := request.GetString("user_id", gate.DefaultIdentity)

	start, err := s.flow.Begin(userID)
	if err != nil {
		return statusError("%v", err)
	}

	return jsonResult(map[string]interface{}{
		"status":             "success",
		"auth_url":           start.AuthURL,
		"session_id":         start.SessionID,
		"discovery_endpoint": s.baseURL + "/.well-known/oauth-authorization-server",
		"polling_endpoint":   start.PollingEndpoint,
		"status_endpoint":    start.StatusEndpoint,
		"instructions": []string{
			"1. User should visit the auth_url in their browser",
			"2. They will be redirected to Google for authorization",
			"3. After granting permissions, the code is stored for polling",
			"4. Poll the polling_endpoint until you get the authorization code",
			"5. Call exchange_oauth_code with the retrieved code",
		},
		"poll_interval_seconds":     oauth.RecommendedPollIntervalSeconds,
		"max_poll_duration_seconds": int(oauth.SessionTTL.Seconds()),
		"user_id":                   userID,
	})
}

func (s *Server) handleGetBrowserAgentOAuthURL(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID := request.GetString("user_id", gate.DefaultIdentity)

	start, err := s.flow.Begin(userID)
	if err != nil {
		return statusError("%v", err)
	}

	return jsonResult(map[string]interface{}{
		"status":           "success",
		"auth_url":         start.AuthURL,
		"session_id":       start.SessionID,
		"polling_endpoint": start.PollingEndpoint,
		"status_endpoint":  start.StatusEndpoint,
		"agent_instructions": map[string]string{
			"step_1": "Present auth_url to the user as a clickable link",
			"step_2": "User clicks the link and completes OAuth in the same browser tab",
			"step_3": "Poll the status_endpoint every 2 seconds (max 10 minutes)",
			"step_4": "When status is 'ready', call the polling_endpoint to get the code",
			"step_5": "Call exchange_oauth_code with the retrieved code",
		},
		"poll_interval_seconds":     oauth.RecommendedPollIntervalSeconds,
		"max_poll_duration_seconds": int(oauth.SessionTTL.Seconds()),
		"user_message":              "Please click this link to authorize Gmail access: " + start.AuthURL,
		"user_id":                   userID,
	})
}

func (s *Server) handlePollOAuthCode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return statusError("session_id is required")
	}

	res := s.flow.Poll(sessionID)
	out := map[string]interface{}{
		"status": res.Status,
	}
	switch res.Status {
	case oauth.PollSuccess:
		out["code"] = res.Code
		out["message"] = "Authorization code retrieved successfully"
		out["next_step"] = "Call exchange_oauth_code with this code"
	case oauth.PollPending:
		out["message"] = res.Message
		out["action"] = "continue_polling"
		out["session_id"] = sessionID
	case oauth.PollExpired:
		out["message"] = res.Message
		out["action"] = "restart_oauth"
	default:
		out["message"] = res.Message
	}
	return jsonResult(out)
}

func (s *Server) handleExchangeOAuthCode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code, err := request.RequireString("code")
	if err != nil {
		return statusError("code is required")
	}
	userID := request.GetString("user_id", gate.DefaultIdentity)

	cred, err := s.flow.ExchangeCode(ctx, code, userID)
	if err != nil {
		return statusError("%v", err)
	}

	out := map[string]interface{}{
		"status":       "success",
		"message":      "Token obtained successfully",
		"user_id":      userID,
		"access_token": cred.AccessToken,
		"token_type":   cred.TokenType,
		"next_steps": []string{
			"Use the access_token in your next send_email call",
			"Example: send_email(to='user@example.com', theme='birthday', access_token='<access_token>')",
		},
	}
	if cred.RefreshToken != "" {
		out["refresh_token"] = cred.RefreshToken
	}
	if cred.Scope != "" {
		out["scope"] = cred.Scope
	}
	if secs := cred.ExpiresInSeconds(); secs > 0 {
		out["expires_in"] = secs
	}
	return jsonResult(out)
}

func (s *Server) handleCheckOAuthStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID := request.GetString("user_id", gate.DefaultIdentity)

	authenticated := s.store.Load(ctx, userID) != nil
	message := "Not authenticated. Use get_oauth_url to start authentication."
	if authenticated {
		message = "Ready to send emails"
	}

	return jsonResult(map[string]interface{}{
		"status":           "success",
		"user_id":          userID,
		"oauth_configured": s.flow.Configured(),
		"authenticated":    authenticated,
		"message":          message,
	})
}
