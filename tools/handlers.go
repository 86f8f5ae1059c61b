package tools

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/olgasafonova/oblique-strategies-mcp-server/internal/strategies"
	"github.com/olgasafonova/oblique-strategies-mcp-server/metrics"
	"github.com/olgasafonova/oblique-strategies-mcp-server/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// HandlerRegistry provides type-safe tool registration by mapping
// tool specs to the store methods that implement them.
type HandlerRegistry struct {
	store  *strategies.Store
	logger *slog.Logger
}

// NewHandlerRegistry creates a new handler registry.
func NewHandlerRegistry(store *strategies.Store, logger *slog.Logger) *HandlerRegistry {
	return &HandlerRegistry{
		store:  store,
		logger: logger,
	}
}

// RegisterAll registers all tools with the MCP server.
func (h *HandlerRegistry) RegisterAll(server *mcp.Server) {
	registered := 0
	for _, spec := range AllTools {
		if h.registerByName(server, spec) {
			registered++
		}
	}
	h.logger.Info("Registered all tools", "count", registered)
}

// registerByName dispatches to the correct typed registration function.
func (h *HandlerRegistry) registerByName(server *mcp.Server, spec ToolSpec) bool {
	tool := h.buildTool(spec)

	switch spec.Method {
	case "GetStrategy":
		register(h, server, tool, spec, h.store.GetStrategyMCP)
	case "SearchStrategies":
		register(h, server, tool, spec, h.store.SearchStrategiesMCP)
	case "ListEditions":
		register(h, server, tool, spec, h.store.ListEditionsMCP)
	default:
		h.logger.Error("Unknown method, tool not registered", "method", spec.Method, "tool", spec.Name)
		return false
	}
	return true
}

// buildTool creates an mcp.Tool from a ToolSpec.
func (h *HandlerRegistry) buildTool(spec ToolSpec) *mcp.Tool {
	annotations := &mcp.ToolAnnotations{
		Title:          spec.Title,
		ReadOnlyHint:   spec.ReadOnly,
		IdempotentHint: spec.Idempotent,
	}
	if spec.Destructive {
		annotations.DestructiveHint = ptr(true)
	}
	// The corpus ships with the server, so tools are closed-world unless a spec says otherwise.
	annotations.OpenWorldHint = ptr(spec.OpenWorld)

	return &mcp.Tool{
		Name:        spec.Name,
		Description: spec.Description,
		Annotations: annotations,
	}
}

// register is a generic helper that registers a tool with the MCP server.
// It wraps the store method with panic recovery, metrics, tracing, and logging.
func register[Args, Result any](
	h *HandlerRegistry,
	server *mcp.Server,
	tool *mcp.Tool,
	spec ToolSpec,
	method func(context.Context, Args) (Result, error),
) {
	mcp.AddTool(server, tool, func(ctx context.Context, req *mcp.CallToolRequest, args Args) (res *mcp.CallToolResult, out Result, err error) {
		defer h.recoverPanic(spec.Name, &err)

		ctx, span := tracing.StartSpan(ctx, "mcp.tool."+spec.Name)
		defer span.End()

		tracing.AddToolAttributes(span, spec.Name, spec.Category)
		span.SetAttributes(attribute.Bool("mcp.tool.readonly", spec.ReadOnly))

		metrics.RequestInFlight.WithLabelValues(spec.Name).Inc()
		defer metrics.RequestInFlight.WithLabelValues(spec.Name).Dec()

		start := time.Now()
		result, err := method(ctx, args)
		duration := time.Since(start).Seconds()

		span.SetAttributes(attribute.Float64("mcp.tool.duration_seconds", duration))

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			metrics.RecordRequest(spec.Name, duration, false)
			var zero Result
			return nil, zero, fmt.Errorf("%s failed: %w", spec.Name, err)
		}

		success := resultSucceeded(result)
		if success {
			span.SetStatus(codes.Ok, "")
		} else {
			span.SetStatus(codes.Error, "result carries an error")
		}
		metrics.RecordRequest(spec.Name, duration, success)
		h.logExecution(spec, args, result)
		return nil, result, nil
	})
}

// resultSucceeded reports whether a result encodes success. Random picks carry
// their failures in the result rather than as an error.
func resultSucceeded(result any) bool {
	if r, ok := result.(strategies.RandomResult); ok {
		return r.OK()
	}
	return true
}

// recoverPanic recovers from panics in tool handlers and turns them into a tool error.
func (h *HandlerRegistry) recoverPanic(toolName string, errp *error) {
	if rec := recover(); rec != nil {
		metrics.PanicsRecovered.WithLabelValues(toolName).Inc()
		h.logger.Error("Panic recovered",
			"tool", toolName,
			"panic", rec,
			"stack", string(debug.Stack()))
		if errp != nil {
			*errp = fmt.Errorf("%s failed: internal error: %v", toolName, rec)
		}
	}
}

// logExecution logs tool execution details.
func (h *HandlerRegistry) logExecution(spec ToolSpec, args, result any) {
	attrs := []any{"tool", spec.Name, "category", spec.Category}

	switch a := args.(type) {
	case strategies.GetStrategyArgs:
		attrs = append(attrs, "edition", a.Edition)
	case strategies.SearchStrategiesArgs:
		attrs = append(attrs, "query", a.Query, "edition", a.Edition)
	case strategies.ListEditionsArgs:
		// No args to log
	}

	switch r := result.(type) {
	case strategies.RandomResult:
		attrs = append(attrs, "total_in_edition", r.TotalInEdition)
		if r.Error != "" {
			attrs = append(attrs, "error", r.Error)
		}
	case strategies.SearchResult:
		attrs = append(attrs, "matches", r.Count, "editions_searched", len(r.SearchedEditions))
	case strategies.ListResult:
		attrs = append(attrs, "editions", len(r.Editions), "default_edition", r.DefaultEdition)
	}

	h.logger.Info("Tool executed", attrs...)
}
