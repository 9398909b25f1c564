package search

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/portola-labs/podsearch/internal/index"
)

const (
	titleBoost       = 2.0
	descriptionBoost = 2.0

	// transcriptShouldBoost must stay below the title/description boost
	// margin: an exact transcript hit nudges a document up the ranking but
	// never past one that matched a boosted field.
	transcriptShouldBoost = 0.2

	maxResults = 1000
)

// FullText ranks documents with a fuzzy multi-field query. Title and
// description matches weigh double transcript matches; ordering is the
// engine's relevance score, descending.
type FullText struct {
	store  Store
	logger *zap.Logger
}

// NewFullText constructs the ranked fuzzy strategy.
func NewFullText(store Store, logger *zap.Logger) (*FullText, error) {
	if store == nil {
		return nil, errMissingStore
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FullText{store: store, logger: logger}, nil
}

// Find returns up to 1000 documents matching the query in any of the three
// text fields, with engine-chosen edit-distance tolerance.
func (s *FullText) Find(ctx context.Context, query string) ([]index.Document, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrBlankQuery
	}

	spec := index.BooleanQuery{
		Term: query,
		Must: []index.FieldClause{
			{Field: "title", Boost: titleBoost},
			{Field: "description", Boost: descriptionBoost},
			{Field: "transcript"},
		},
		AutoFuzziness: true,
		MaxResults:    maxResults,
	}
	if strings.TrimSpace(query) != "" {
		spec.Should = []index.FieldClause{{Field: "transcript", Boost: transcriptShouldBoost}}
	}

	documents, err := s.store.QueryFullText(ctx, spec)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("fulltext search executed",
		zap.String("query", query),
		zap.Int("results", len(documents)))
	return documents, nil
}
