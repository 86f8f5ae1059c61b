package strategies

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math/rand/v2"
	"path"
	"strings"
	"sync"
	"unicode/utf8"

	apierrors "github.com/olgasafonova/oblique-strategies-mcp-server/internal/errors"
	"github.com/olgasafonova/oblique-strategies-mcp-server/internal/infra"
	"github.com/olgasafonova/oblique-strategies-mcp-server/internal/strategies/corpus"
	"github.com/olgasafonova/oblique-strategies-mcp-server/metrics"
	"github.com/olgasafonova/oblique-strategies-mcp-server/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Store loads editions from a corpus root on first use and answers random,
// search and listing queries over them. A Store is safe for concurrent use.
//
// Cached edition slices are shared between callers and must not be modified.
type Store struct {
	registry *Registry
	root     fs.FS
	label    string
	cache    *infra.LoadCache[[]string]
	logger   *slog.Logger

	rngMu sync.Mutex
	rng   *rand.Rand
}

// StoreOption configures the Store
type StoreOption func(*Store)

// WithRegistry sets the edition registry
func WithRegistry(r *Registry) StoreOption {
	return func(s *Store) {
		s.registry = r
	}
}

// WithLogger sets a custom logger
func WithLogger(l *slog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = l
	}
}

// WithRand sets the random source used by GetRandom
func WithRand(r *rand.Rand) StoreOption {
	return func(s *Store) {
		s.rng = r
	}
}

// WithRootLabel sets the prefix used when reporting source locations in errors,
// typically the directory the root fs.FS was opened from.
func WithRootLabel(label string) StoreOption {
	return func(s *Store) {
		s.label = label
	}
}

// NewStore creates a store reading edition sources from root.
func NewStore(root fs.FS, opts ...StoreOption) *Store {
	s := &Store{
		registry: DefaultRegistry(),
		root:     root,
		cache:    infra.NewLoadCache[[]string](),
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// NewDefaultStore creates a store over the embedded corpus.
func NewDefaultStore(opts ...StoreOption) *Store {
	return NewStore(corpus.FS(), append([]StoreOption{WithRootLabel("embedded")}, opts...)...)
}

// Registry returns the store's edition registry.
func (s *Store) Registry() *Registry {
	return s.registry
}

// CachedEditions returns the number of editions loaded so far.
func (s *Store) CachedEditions() int64 {
	return s.cache.Size()
}

// Load returns the strategies of an edition, reading its source on first use.
// Unknown keys resolve to the default edition. Repeated calls for the same
// effective edition return the same slice.
func (s *Store) Load(ctx context.Context, edition string) ([]string, error) {
	ed := s.registry.Resolve(edition)

	_, span := tracing.StartSpan(ctx, "strategies.load")
	defer span.End()
	tracing.AddEditionAttributes(span, edition, ed.Key)

	lines, hit, err := s.cache.GetOrLoad(ed.Key, func() ([]string, error) {
		return s.read(ed)
	})
	span.SetAttributes(attribute.Bool("strategies.cache_hit", hit))
	if err != nil {
		tracing.RecordError(span, err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return lines, nil
}

// read parses an edition's source. Missing sources yield a NotFoundError.
func (s *Store) read(ed Edition) ([]string, error) {
	data, err := fs.ReadFile(s.root, ed.Source)
	if err != nil {
		metrics.RecordEditionLoad(ed.Key, false)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apierrors.NewNotFoundError(ed.Key, s.location(ed))
		}
		return nil, fmt.Errorf("failed to read %s: %w", s.location(ed), err)
	}
	if !utf8.Valid(data) {
		metrics.RecordEditionLoad(ed.Key, false)
		return nil, fmt.Errorf("failed to decode %s: not valid UTF-8", s.location(ed))
	}
	metrics.RecordEditionLoad(ed.Key, true)

	lines := parseLines(string(data))
	s.logger.Debug("Edition loaded",
		"edition", ed.Key,
		"source", s.location(ed),
		"strategies", len(lines),
	)
	return lines, nil
}

func (s *Store) location(ed Edition) string {
	if s.label == "" {
		return ed.Source
	}
	return path.Join(s.label, ed.Source)
}

// parseLines returns the trimmed non-blank lines of text in source order.
func parseLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	return lines
}

// GetRandom picks one strategy uniformly at random. An empty edition means the
// default; unknown editions fall back to the default. Failures are reported in
// the result, echoing the requested edition key.
func (s *Store) GetRandom(ctx context.Context, edition string) RandomResult {
	if edition == "" {
		edition = s.registry.DefaultKey()
	}

	lines, err := s.Load(ctx, edition)
	if err != nil {
		if apierrors.IsNotFound(err) {
			return RandomResult{Error: err.Error(), Edition: edition}
		}
		return RandomResult{Error: "An error occurred: " + err.Error(), Edition: edition}
	}
	if len(lines) == 0 {
		return RandomResult{
			Error:   "No strategies found in edition: " + edition,
			Edition: edition,
		}
	}

	return RandomResult{
		Strategy:       lines[s.intN(len(lines))],
		Edition:        edition,
		TotalInEdition: len(lines),
	}
}

func (s *Store) intN(n int) int {
	if s.rng == nil {
		return rand.IntN(n)
	}
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.IntN(n)
}

// Search returns every strategy containing query, compared case-insensitively.
// Matches are ordered by edition scope, then by position within the edition.
// Editions that fail to load are skipped.
func (s *Store) Search(ctx context.Context, query, edition string) SearchResult {
	scope := s.searchScope(edition)
	needle := strings.ToLower(query)

	matches := make([]Match, 0)
	for _, key := range scope {
		lines, err := s.Load(ctx, key)
		if err != nil {
			s.skip("search", key, err)
			continue
		}
		for _, line := range lines {
			if strings.Contains(strings.ToLower(line), needle) {
				matches = append(matches, Match{Strategy: line, Edition: key})
			}
		}
	}
	metrics.SearchMatches.Observe(float64(len(matches)))

	return SearchResult{
		Query:            query,
		Matches:          matches,
		Count:            len(matches),
		SearchedEditions: scope,
	}
}

// searchScope narrows to edition only when it is registered. Unknown keys widen
// the search to every edition instead of falling back to the default.
func (s *Store) searchScope(edition string) []string {
	if edition != "" && s.registry.Has(edition) {
		return []string{edition}
	}
	return s.registry.Keys()
}

// ListEditions reports every edition whose source exists, in registry order.
// Editions that exist but fail to load are listed with a zero count.
func (s *Store) ListEditions(ctx context.Context) ListResult {
	defaultKey := s.registry.DefaultKey()
	editions := make([]EditionInfo, 0, len(s.registry.editions))

	for _, ed := range s.registry.editions {
		if _, err := fs.Stat(s.root, ed.Source); err != nil {
			continue
		}

		count := 0
		if lines, err := s.Load(ctx, ed.Key); err != nil {
			s.skip("list", ed.Key, err)
		} else {
			count = len(lines)
		}

		editions = append(editions, EditionInfo{
			Key:           ed.Key,
			Filename:      ed.Source,
			StrategyCount: count,
			IsDefault:     ed.Key == defaultKey,
		})
	}

	return ListResult{
		Editions:       editions,
		DefaultEdition: defaultKey,
	}
}

func (s *Store) skip(operation, edition string, err error) {
	metrics.RecordSkippedEdition(operation, edition)
	s.logger.Debug("Edition skipped",
		"operation", operation,
		"edition", edition,
		"error", err,
	)
}
