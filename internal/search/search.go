// Package search exposes one lookup contract with two interchangeable
// retrieval strategies: exact positional matching and boosted fuzzy
// full-text matching. The caller picks a strategy at wiring time.
package search

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/portola-labs/podsearch/internal/index"
)

// Strategy names accepted by ForStrategy.
const (
	StrategyRelational = "relational"
	StrategyFullText   = "fulltext"
)

var (
	// ErrBlankQuery indicates a query that is empty after trimming. This is
	// a contract violation, not an empty result set; callers must not
	// suppress it.
	ErrBlankQuery = errors.New("search: query must not be blank")
	// ErrUnknownStrategy indicates an unrecognized strategy name.
	ErrUnknownStrategy = errors.New("search: unknown strategy")

	errMissingStore = errors.New("search: index store is required")
)

// Finder answers a free-text query with matching documents.
type Finder interface {
	Find(ctx context.Context, query string) ([]index.Document, error)
}

// Store is the slice of the index store the strategies consume.
type Store interface {
	QueryExact(ctx context.Context, title, description, transcript string) ([]index.Document, error)
	QueryFullText(ctx context.Context, spec index.BooleanQuery) ([]index.Document, error)
}

// ForStrategy resolves a strategy name to a concrete Finder.
func ForStrategy(strategy string, store Store, logger *zap.Logger) (Finder, error) {
	switch strategy {
	case StrategyRelational:
		return NewRelational(store, logger)
	case StrategyFullText:
		return NewFullText(store, logger)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}
}
