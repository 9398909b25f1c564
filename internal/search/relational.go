package search

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/portola-labs/podsearch/internal/index"
)

// Relational looks documents up by exact field matching. The contract takes
// one query string and applies the same literal to all three field positions
// of the underlying OR lookup.
type Relational struct {
	store  Store
	logger *zap.Logger
}

// NewRelational constructs the exact-match strategy.
func NewRelational(store Store, logger *zap.Logger) (*Relational, error) {
	if store == nil {
		return nil, errMissingStore
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Relational{store: store, logger: logger}, nil
}

// Find returns documents whose title, description or transcript exactly
// matches the query. Results carry no ranking guarantee.
func (s *Relational) Find(ctx context.Context, query string) ([]index.Document, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrBlankQuery
	}

	documents, err := s.store.QueryExact(ctx, query, query, query)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("relational search executed",
		zap.String("query", query),
		zap.Int("results", len(documents)))
	return documents, nil
}
