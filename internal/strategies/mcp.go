package strategies

import (
	"context"
)

// MCP Tool wrapper methods
// These methods adapt the store queries to the Args/Result shape used by the tool registry.
// Store failures are encoded in the results, so the returned error is always nil.

// GetStrategyMCP is the MCP wrapper for GetRandom
func (s *Store) GetStrategyMCP(ctx context.Context, args GetStrategyArgs) (RandomResult, error) {
	return s.GetRandom(ctx, args.Edition), nil
}

// SearchStrategiesMCP is the MCP wrapper for Search
func (s *Store) SearchStrategiesMCP(ctx context.Context, args SearchStrategiesArgs) (SearchResult, error) {
	return s.Search(ctx, args.Query, args.Edition), nil
}

// ListEditionsMCP is the MCP wrapper for ListEditions
func (s *Store) ListEditionsMCP(ctx context.Context, _ ListEditionsArgs) (ListResult, error) {
	return s.ListEditions(ctx), nil
}
