package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"levermcp/internal/config"
	"levermcp/internal/gate"
	"levermcp/internal/gmail"
	"levermcp/internal/lever"
	"levermcp/internal/mcpserver"
	"levermcp/internal/oauth"
	"levermcp/internal/server"
	"levermcp/pkg/logging"
)

var (
	serveHost       string
	servePort       int
	serveTransport  string
	serveConfigPath string
	serveDebug      bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server and OAuth relay endpoints",
	Long: `Starts the HTTP server hosting the OAuth relay endpoints (authorize,
callback, polling, token exchange, discovery metadata, email previews)
and the MCP tool surface.

The MCP transport is selected with --transport:
  streamable-http  mount the MCP endpoint at /mcp (default)
  sse              mount SSE at /sse with messages at /message
  stdio            serve MCP over stdin/stdout; the HTTP relay endpoints
                   still run, since the browser flow depends on them

Configuration is loaded from an optional YAML file, then overridden by
environment variables (GOOGLE_CLIENT_ID, GOOGLE_CLIENT_SECRET,
LEVER_API_KEY, MCP_SERVER_BASE_URL, ...). A .env file in the working
directory is loaded first if present.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	// Values from .env never override variables already set in the
	// environment.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	cfg, err := config.Load(serveConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cmd.Flags().Changed("host") {
		cfg.Server.Host = serveHost
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = servePort
	}
	if cmd.Flags().Changed("transport") {
		cfg.Server.Transport = serveTransport
	}

	level := logging.LevelInfo
	if serveDebug {
		level = logging.LevelDebug
	}
	// Stdio transport uses stdout for the protocol, so logs go to stderr
	// either way.
	logging.InitForCLI(level, os.Stderr)

	if !cfg.OAuth.IsConfigured() {
		logging.Warn("Bootstrap", "OAuth not configured, email sending will require caller-supplied tokens")
		logging.Warn("Bootstrap", "Set GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET to enable the authorization flow")
	}

	registry := oauth.NewSessionRegistry()
	defer registry.Stop()
	store := oauth.NewCredentialStore(cfg.OAuth.TokenStoragePath)
	flow := oauth.NewFlow(cfg.OAuth, cfg.Server.BaseURL, registry, store)

	var leverClient *lever.Client
	if cfg.Lever.APIKey != "" {
		leverClient, err = lever.NewClient(cfg.Lever)
		if err != nil {
			return fmt.Errorf("failed to create lever client: %w", err)
		}
	} else {
		logging.Warn("Bootstrap", "LEVER_API_KEY not set, recruiting tools will report a configuration error")
	}

	gmailClient := gmail.NewClient()
	emailGate := gate.New(gmailClient, flow, store, cfg.Server.BaseURL)
	mcpSrv := mcpserver.NewServer(rootCmd.Version, flow, store, emailGate, leverClient, cfg.Server.BaseURL)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	if cfg.Server.Transport == config.TransportStdio {
		// HTTP hosts only the relay endpoints; MCP runs over stdio.
		httpSrv := server.New(cfg, flow, nil)
		g.Go(func() error { return httpSrv.Start(ctx) })
		g.Go(func() error { return mcpSrv.ServeStdio(ctx) })
	} else {
		httpSrv := server.New(cfg, flow, mcpSrv.MCPServer())
		g.Go(func() error { return httpSrv.Start(ctx) })
	}

	logging.Info("Bootstrap", "levermcp started with base URL %s", cfg.Server.BaseURL)
	return g.Wait()
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveHost, "host", "localhost", "Listen address for the HTTP server")
	serveCmd.Flags().IntVar(&servePort, "port", 8000, "Listen port for the HTTP server")
	serveCmd.Flags().StringVar(&serveTransport, "transport", config.TransportStreamableHTTP, "MCP transport: streamable-http, sse or stdio")
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "Path to a YAML configuration file")
	serveCmd.Flags().BoolVar(&serveDebug, "debug", false, "Enable debug logging")
}
