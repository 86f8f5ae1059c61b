// Oblique Strategies MCP Server - A Model Context Protocol server for Oblique Strategies
// Draws, searches and lists lateral-thinking prompts from a shipped corpus of editions
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/olgasafonova/oblique-strategies-mcp-server/internal/config"
	"github.com/olgasafonova/oblique-strategies-mcp-server/internal/strategies"
	"github.com/olgasafonova/oblique-strategies-mcp-server/tools"
	"github.com/olgasafonova/oblique-strategies-mcp-server/tracing"
)

// recoverPanic wraps a function with panic recovery and logs instead of crashing
func recoverPanic(logger *slog.Logger, operation string) {
	if r := recover(); r != nil {
		logger.Error("Panic recovered",
			"operation", operation,
			"panic", r,
			"stack", string(debug.Stack()))
	}
}

const (
	ServerName    = "oblique-strategies-mcp-server"
	ServerVersion = "1.0.0"
)

const serverInstructions = `Oblique Strategies MCP Server draws lateral-thinking prompts from several editions of the cards.

Available tools:
- get_strategy: Draw one strategy at random (optional edition)
- search_strategies: Case-insensitive text search across one or all editions
- list_editions: List editions with strategy counts and the default edition

Editions: edition-1, edition-2 (default), edition-3, edition-4, condensed, programmers, do-it.
Unknown edition keys fall back to the default edition.`

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

// rootOptions holds flags shared by every command. Non-empty values override the environment.
type rootOptions struct {
	httpAddr      string
	strategiesDir string
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   ServerName,
		Short: "Serve Oblique Strategies over the Model Context Protocol",
		Long: `Serves Oblique Strategies over MCP on stdio, or over streamable HTTP with --http.

Examples:
  # Serve MCP on stdio
  oblique-strategies-mcp-server

  # Serve MCP on HTTP with /health and /metrics
  oblique-strategies-mcp-server --http :8080

  # Use strategy files from a directory instead of the built-in corpus
  oblique-strategies-mcp-server --strategies-dir ./strategies`,
		Version:       ServerVersion,
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			return a.serve(cmd.Context())
		},
	}

	root.PersistentFlags().StringVar(&opts.httpAddr, "http", "", "serve MCP over HTTP on this address instead of stdio (env MCP_HTTP_ADDR)")
	root.PersistentFlags().StringVar(&opts.strategiesDir, "strategies-dir", "", "read edition files from this directory instead of the built-in corpus (env STRATEGIES_DIR)")
	root.SetOut(out)

	root.AddCommand(newRandomCmd(opts), newSearchCmd(opts), newEditionsCmd(opts))
	return root
}

func newRandomCmd(opts *rootOptions) *cobra.Command {
	var edition string
	cmd := &cobra.Command{
		Use:   "random",
		Short: "Draw one strategy at random",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), a.store.GetRandom(cmd.Context(), edition))
		},
	}
	cmd.Flags().StringVar(&edition, "edition", "", "edition key (default edition-2)")
	return cmd
}

func newSearchCmd(opts *rootOptions) *cobra.Command {
	var edition string
	cmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Search strategies by case-insensitive substring",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), a.store.Search(cmd.Context(), args[0], edition))
		},
	}
	cmd.Flags().StringVar(&edition, "edition", "", "limit the search to one edition (default all)")
	return cmd
}

func newEditionsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "editions",
		Short: "List editions with their strategy counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), a.store.ListEditions(cmd.Context()))
		},
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// app bundles the resolved configuration with the store it serves.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *strategies.Store
}

func newApp(cmd *cobra.Command, opts *rootOptions) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if opts.httpAddr != "" {
		cfg.HTTPAddr = opts.httpAddr
	}
	if opts.strategiesDir != "" {
		cfg.StrategiesDir = opts.strategiesDir
	}

	// Logs go to stderr; stdout is used for MCP protocol and command output
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	store, err := newStore(cfg, logger)
	if err != nil {
		return nil, err
	}

	return &app{cfg: cfg, logger: logger, store: store}, nil
}

// newStore reads from cfg.StrategiesDir when set, otherwise from the embedded corpus.
func newStore(cfg *config.Config, logger *slog.Logger) (*strategies.Store, error) {
	if cfg.StrategiesDir == "" {
		return strategies.NewDefaultStore(strategies.WithLogger(logger)), nil
	}

	info, err := os.Stat(cfg.StrategiesDir)
	if err != nil {
		return nil, fmt.Errorf("strategies directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("strategies directory %s is not a directory", cfg.StrategiesDir)
	}

	return strategies.NewStore(os.DirFS(cfg.StrategiesDir),
		strategies.WithLogger(logger),
		strategies.WithRootLabel(cfg.StrategiesDir),
	), nil
}

func (a *app) newMCPServer() *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    ServerName,
		Version: ServerVersion,
	}, &mcp.ServerOptions{
		Logger:       a.logger,
		Instructions: serverInstructions,
	})
	tools.NewHandlerRegistry(a.store, a.logger).RegisterAll(server)
	return server
}

// serve runs the MCP server until the context is cancelled or a signal arrives.
func (a *app) serve(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	tracingConfig := tracing.DefaultConfig()
	tracingConfig.ServiceVersion = ServerVersion
	shutdownTracing, err := tracing.Setup(ctx, tracingConfig)
	if err != nil {
		a.logger.Warn("Tracing disabled", "error", err)
		shutdownTracing = func(context.Context) error { return nil }
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			a.logger.Warn("Tracing shutdown failed", "error", err)
		}
	}()

	server := a.newMCPServer()

	source := "embedded"
	if a.cfg.StrategiesDir != "" {
		source = a.cfg.StrategiesDir
	}

	if a.cfg.HTTPEnabled() {
		return a.serveHTTP(ctx, server)
	}

	a.logger.Info("Starting Oblique Strategies MCP Server",
		"name", ServerName,
		"version", ServerVersion,
		"transport", "stdio",
		"source", source,
	)

	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func (a *app) serveHTTP(ctx context.Context, server *mcp.Server) error {
	mcpHandler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, nil)

	secured := NewSecurityMiddleware(mcpHandler, a.logger, SecurityConfig{
		RateLimit:   a.cfg.RateLimit,
		MaxBodySize: a.cfg.MaxBodySize,
	})
	defer secured.Close()

	mux := http.NewServeMux()
	mux.Handle("/mcp", secured)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", a.healthHandler)

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		defer recoverPanic(a.logger, "http server")
		errCh <- srv.ListenAndServe()
	}()

	a.logger.Info("Starting Oblique Strategies MCP Server",
		"name", ServerName,
		"version", ServerVersion,
		"transport", "http",
		"addr", a.cfg.HTTPAddr,
		"rate_limit", a.cfg.RateLimit,
	)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		a.logger.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// HealthStatus is the /health response body.
type HealthStatus struct {
	Status         string `json:"status"`
	Name           string `json:"name"`
	Version        string `json:"version"`
	Editions       int    `json:"editions"`
	CachedEditions int64  `json:"cachedEditions"`
}

func (a *app) healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(HealthStatus{
		Status:         "ok",
		Name:           ServerName,
		Version:        ServerVersion,
		Editions:       len(a.store.Registry().Keys()),
		CachedEditions: a.store.CachedEditions(),
	})
}
