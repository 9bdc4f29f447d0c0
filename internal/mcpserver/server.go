// Package mcpserver exposes recruiting and delegated email operations as
// MCP tools.
package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"levermcp/internal/gate"
	"levermcp/internal/lever"
	"levermcp/internal/oauth"
)

// Server wires the Lever client, the delegated email gate and the OAuth
// relay into a single MCP tool surface.
//
// Exposed tools: list_candidates, get_candidate, create_requisition,
// send_email, generate_email_content, get_oauth_url,
// get_browser_agent_oauth_url, poll_oauth_code, exchange_oauth_code and
// check_oauth_status.
type Server struct {
	mcpServer *server.MCPServer
	flow      *oauth.Flow
	store     *oauth.CredentialStore
	gate      *gate.Gate

	// lever is nil when no API key is configured; the recruiting tools
	// then report a configuration error instead of failing at startup.
	lever *lever.Client

	baseURL string
}

// NewServer creates the MCP server and registers all tools.
func NewServer(version string, flow *oauth.Flow, store *oauth.CredentialStore, g *gate.Gate, leverClient *lever.Client, baseURL string) *Server {
	mcpServer := server.NewMCPServer(
		"lever-mcp",
		version,
		server.WithToolCapabilities(false),
	)

	s := &Server{
		mcpServer: mcpServer,
		flow:      flow,
		store:     store,
		gate:      g,
		lever:     leverClient,
		baseURL:   baseURL,
	}
	s.registerTools()
	return s
}

// MCPServer returns the underlying server for transport mounting.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio runs the server over stdin/stdout and blocks until the
// connection closes.
func (s *Server) ServeStdio(ctx context.Context) error {
	return server.ServeStdio(s.mcpServer)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	// Lever recruiting tools
	listCandidatesTool := mcp.NewTool("list_candidates",
		mcp.WithDescription("List candidates from Lever with pagination"),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of candidates to return (default 10)"),
		),
		mcp.WithString("offset",
			mcp.Description("Pagination cursor from a previous response"),
		),
	)
	s.mcpServer.AddTool(listCandidatesTool, s.handleListCandidates)

	getCandidateTool := mcp.NewTool("get_candidate",
		mcp.WithDescription("Get a single Lever candidate by ID"),
		mcp.WithString("candidate_id",
			mcp.Required(),
			mcp.Description("Lever candidate ID"),
		),
	)
	s.mcpServer.AddTool(getCandidateTool, s.handleGetCandidate)

	createRequisitionTool := mcp.NewTool("create_requisition",
		mcp.WithDescription("Create a job requisition in Lever"),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Requisition title"),
		),
		mcp.WithString("location",
			mcp.Required(),
			mcp.Description("Requisition location"),
		),
		mcp.WithString("team",
			mcp.Required(),
			mcp.Description("Team the requisition belongs to"),
		),
	)
	s.mcpServer.AddTool(createRequisitionTool, s.handleCreateRequisition)

	// Email tools
	sendEmailTool := mcp.NewTool("send_email",
		mcp.WithDescription("Send a themed HTML email via the Gmail API. "+
			"Provide access_token for the on-behalf-of flow; without a token "+
			"a stored credential is used, and if none exists the response "+
			"describes the OAuth authorization flow to complete first."),
		mcp.WithString("to",
			mcp.Required(),
			mcp.Description("Recipient email address"),
		),
		mcp.WithString("theme",
			mcp.Description("Email theme (birthday, pirate, space, medieval, superhero, tropical)"),
		),
		mcp.WithString("subject",
			mcp.Description("Custom subject (theme default if omitted)"),
		),
		mcp.WithString("cc",
			mcp.Description("CC recipients, comma separated"),
		),
		mcp.WithString("bcc",
			mcp.Description("BCC recipients, comma separated"),
		),
		mcp.WithString("access_token",
			mcp.Description("OAuth access token for the on-behalf-of flow"),
		),
		mcp.WithString("user_id",
			mcp.Description("Identity for credential storage (default \"default\")"),
		),
	)
	s.mcpServer.AddTool(sendEmailTool, s.handleSendEmail)

	generateEmailContentTool := mcp.NewTool("generate_email_content",
		mcp.WithDescription("Generate themed Gmail-ready email content without sending it. "+
			"Use this when you already have Gmail access; the gmail_payload.raw "+
			"field is a base64url RFC 2822 message with HTML MIME headers."),
		mcp.WithString("to",
			mcp.Required(),
			mcp.Description("Recipient email address"),
		),
		mcp.WithString("theme",
			mcp.Description("Email theme (birthday, pirate, space, medieval, superhero, tropical)"),
		),
		mcp.WithString("subject",
			mcp.Description("Custom subject (theme default if omitted)"),
		),
		mcp.WithString("cc",
			mcp.Description("CC recipients, comma separated"),
		),
		mcp.WithString("bcc",
			mcp.Description("BCC recipients, comma separated"),
		),
	)
	s.mcpServer.AddTool(generateEmailContentTool, s.handleGenerateEmailContent)

	// OAuth relay tools
	getOAuthURLTool := mcp.NewTool("get_oauth_url",
		mcp.WithDescription("Get the OAuth authorization URL for Gmail access. "+
			"The URL points at this server's /authorize endpoint, which "+
			"normalizes scopes before redirecting to Google."),
		mcp.WithString("user_id",
			mcp.Description("Identity for credential storage (default \"default\")"),
		),
	)
	s.mcpServer.AddTool(getOAuthURLTool, s.handleGetOAuthURL)

	browserAgentOAuthURLTool := mcp.NewTool("get_browser_agent_oauth_url",
		mcp.WithDescription("Get an OAuth authorization URL for browser-based agents "+
			"that cannot open popups. The user clicks the link and the agent "+
			"polls for the authorization code."),
		mcp.WithString("user_id",
			mcp.Description("Identity for credential storage (default \"default\")"),
		),
	)
	s.mcpServer.AddTool(browserAgentOAuthURLTool, s.handleGetBrowserAgentOAuthURL)

	pollOAuthCodeTool := mcp.NewTool("poll_oauth_code",
		mcp.WithDescription("Poll for the authorization code of a relay session. "+
			"Returns pending until the user completes authorization; the code "+
			"is handed out exactly once."),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Session ID from get_oauth_url or get_browser_agent_oauth_url"),
		),
		mcp.WithNumber("attempt",
			mcp.Description("Optional attempt counter to keep repeated poll calls distinct"),
		),
	)
	s.mcpServer.AddTool(pollOAuthCodeTool, s.handlePollOAuthCode)

	exchangeOAuthCodeTool := mcp.NewTool("exchange_oauth_code",
		mcp.WithDescription("Exchange an OAuth authorization code for an access token. "+
			"Use the returned access_token in subsequent send_email calls."),
		mcp.WithString("code",
			mcp.Required(),
			mcp.Description("Authorization code from the OAuth callback or polling"),
		),
		mcp.WithString("user_id",
			mcp.Description("Identity for credential storage (default \"default\")"),
		),
	)
	s.mcpServer.AddTool(exchangeOAuthCodeTool, s.handleExchangeOAuthCode)

	checkOAuthStatusTool := mcp.NewTool("check_oauth_status",
		mcp.WithDescription("Check whether OAuth is configured and a credential is stored for an identity"),
		mcp.WithString("user_id",
			mcp.Description("Identity to check (default \"default\")"),
		),
	)
	s.mcpServer.AddTool(checkOAuthStatusTool, s.handleCheckOAuthStatus)
}
