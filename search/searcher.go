package search

import (
	"context"
	"log/slog"
	"strings"

	"github.com/corvusec/threatbase/ai"
	"github.com/corvusec/threatbase/core"
	"github.com/corvusec/threatbase/storage"
)

// Searcher provides similarity search over stored indicators. With an
// embedder it ranks by cosine similarity of the query embedding; without one
// (or when embedding the query fails) it degrades to a substring scan.
type Searcher struct {
	indicators storage.IndicatorRepository
	embedder   ai.Embedder
	logger     *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithEmbedder sets the embedder used for semantic ranking. A nil embedder
// is valid and keeps the searcher in substring-fallback mode.
func WithEmbedder(embedder ai.Embedder) Option {
	return func(s *Searcher) error {
		s.embedder = embedder
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(indicators storage.IndicatorRepository, opts ...Option) (*Searcher, error) {
	if indicators == nil {
		return nil, ErrIndicatorRepositoryRequired
	}

	s := &Searcher{
		indicators: indicators,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// FindSimilar searches for indicators similar to the query. Returns up to
// maxHits matches, each carrying a populated Similarity: cosine similarity on
// the semantic path, a fixed 0.5 on the fallback path.
func (s *Searcher) FindSimilar(ctx context.Context, query string, maxHits int) ([]*core.IndicatorMatch, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	if s.embedder == nil {
		s.logger.Debug("no embedder configured, using substring fallback", "query", query)
		return s.indicators.SearchText(ctx, query, maxHits)
	}

	embedding, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		s.logger.Warn("error generating embedding for query, falling back to substring search",
			"query", query, "err", err)
		return s.indicators.SearchText(ctx, query, maxHits)
	}
	if len(embedding) == 0 {
		return s.indicators.SearchText(ctx, query, maxHits)
	}

	matches, err := s.indicators.FindSimilar(ctx, embedding, maxHits)
	if err != nil {
		s.logger.Error("error querying for similar indicators", "err", err)
		return nil, err
	}

	s.logger.Debug("similarity search complete", "query", query, "hits", len(matches))
	return matches, nil
}
