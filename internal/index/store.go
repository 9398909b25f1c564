package index

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
	"go.uber.org/zap"
)

var (
	// ErrEmptyDocumentID indicates an upsert with a blank document id.
	ErrEmptyDocumentID = errors.New("index: document id must not be empty")
	// ErrStoreClosed indicates an operation against a closed store.
	ErrStoreClosed = errors.New("index: store is closed")
)

const (
	fieldTitle       = "title"
	fieldDescription = "description"
	fieldTranscript  = "transcript"

	// exactQueryLimit bounds unranked exact-match lookups.
	exactQueryLimit = 1000
)

// FieldClause names a document field together with its relevance boost.
type FieldClause struct {
	Field string
	Boost float64
}

// BooleanQuery declaratively encodes a ranked full-text lookup: a required
// multi-field clause with per-field boosts and optional fuzziness, optional
// should clauses that raise the score of exact matches without being
// required, and a cap on the number of hits returned.
type BooleanQuery struct {
	Term          string
	Must          []FieldClause
	AutoFuzziness bool
	Should        []FieldClause
	MaxResults    int
}

// Store persists and queries Documents in a Bleve index.
type Store struct {
	index  bleve.Index
	logger *zap.Logger
}

// Open opens the index at path, creating it with the document mapping when it
// does not exist yet.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("index: path is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	idx, err := bleve.Open(path)
	if err == nil {
		logger.Info("search index opened", zap.String("path", path))
		return &Store{index: idx, logger: logger}, nil
	}
	if !errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
		return nil, fmt.Errorf("index: open %s: %w", path, err)
	}

	idx, err = bleve.New(path, buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("index: create %s: %w", path, err)
	}
	logger.Info("search index created", zap.String("path", path))
	return &Store{index: idx, logger: logger}, nil
}

// OpenInMemory returns a store backed by a memory-only index.
func OpenInMemory(logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("index: create in-memory index: %w", err)
	}
	return &Store{index: idx, logger: logger}, nil
}

// buildIndexMapping maps the three text fields through the english analyzer
// and stores the projection timestamp as a datetime.
func buildIndexMapping() mapping.IndexMapping {
	englishText := bleve.NewTextFieldMapping()
	englishText.Analyzer = en.AnalyzerName

	createdAt := bleve.NewDateTimeFieldMapping()

	document := bleve.NewDocumentMapping()
	document.AddFieldMappingsAt(fieldTitle, englishText)
	document.AddFieldMappingsAt(fieldDescription, englishText)
	document.AddFieldMappingsAt(fieldTranscript, englishText)
	document.AddFieldMappingsAt("created_at", createdAt)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = document
	return indexMapping
}

// Close releases the underlying index. Further calls fail with ErrStoreClosed.
func (s *Store) Close() error {
	if s.index == nil {
		return nil
	}
	err := s.index.Close()
	s.index = nil
	return err
}

// Count returns the number of indexed documents.
func (s *Store) Count() (uint64, error) {
	if s.index == nil {
		return 0, ErrStoreClosed
	}
	return s.index.DocCount()
}

// Upsert writes the document under its id, replacing any previous version.
func (s *Store) Upsert(ctx context.Context, document Document) error {
	if s.index == nil {
		return ErrStoreClosed
	}
	if document.ID == "" {
		return ErrEmptyDocumentID
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	if err := s.index.Index(document.ID, document); err != nil {
		return fmt.Errorf("index: upsert document %q: %w", document.ID, err)
	}
	return nil
}

// QueryExact runs a logical OR of per-field exact phrase matches against
// title, description and transcript. Matching semantics beyond the OR shape
// are the engine's own; results are not relevance-ordered by contract.
func (s *Store) QueryExact(ctx context.Context, title, description, transcript string) ([]Document, error) {
	if s.index == nil {
		return nil, ErrStoreClosed
	}

	titleMatch := bleve.NewMatchPhraseQuery(title)
	titleMatch.SetField(fieldTitle)
	descriptionMatch := bleve.NewMatchPhraseQuery(description)
	descriptionMatch.SetField(fieldDescription)
	transcriptMatch := bleve.NewMatchPhraseQuery(transcript)
	transcriptMatch.SetField(fieldTranscript)

	either := bleve.NewDisjunctionQuery(titleMatch, descriptionMatch, transcriptMatch)
	request := bleve.NewSearchRequestOptions(either, exactQueryLimit, 0, false)
	request.Fields = []string{"*"}

	return s.run(ctx, request)
}

// QueryFullText executes the boolean query and returns hits in the engine's
// relevance order, capped at spec.MaxResults.
func (s *Store) QueryFullText(ctx context.Context, spec BooleanQuery) ([]Document, error) {
	if s.index == nil {
		return nil, ErrStoreClosed
	}

	boolean := bleve.NewBooleanQuery()

	fuzziness := 0
	if spec.AutoFuzziness {
		fuzziness = autoFuzziness(spec.Term)
	}

	fieldMatches := make([]query.Query, 0, len(spec.Must))
	for _, clause := range spec.Must {
		match := bleve.NewMatchQuery(spec.Term)
		match.SetField(clause.Field)
		if clause.Boost > 0 {
			match.SetBoost(clause.Boost)
		}
		if fuzziness > 0 {
			match.SetFuzziness(fuzziness)
		}
		fieldMatches = append(fieldMatches, match)
	}
	boolean.AddMust(bleve.NewDisjunctionQuery(fieldMatches...))

	for _, clause := range spec.Should {
		should := bleve.NewMatchQuery(spec.Term)
		should.SetField(clause.Field)
		if clause.Boost > 0 {
			should.SetBoost(clause.Boost)
		}
		boolean.AddShould(should)
	}

	limit := spec.MaxResults
	if limit <= 0 {
		limit = exactQueryLimit
	}
	request := bleve.NewSearchRequestOptions(boolean, limit, 0, false)
	request.Fields = []string{"*"}

	return s.run(ctx, request)
}

func (s *Store) run(ctx context.Context, request *bleve.SearchRequest) ([]Document, error) {
	result, err := s.index.SearchInContext(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}

	documents := make([]Document, 0, len(result.Hits))
	for _, hit := range result.Hits {
		document := documentFromFields(hit.Fields)
		document.ID = hit.ID
		documents = append(documents, document)
	}
	s.logger.Debug("index query executed",
		zap.Uint64("total_hits", result.Total),
		zap.Int("returned", len(documents)))
	return documents, nil
}

// autoFuzziness mirrors the engine-chosen edit distance of Elasticsearch's
// AUTO mode, keyed off the shortest term so short tokens are not over-fuzzed:
// terms under 3 characters match exactly, 3-5 allow one edit, longer allow two.
func autoFuzziness(term string) int {
	shortest := -1
	for _, token := range strings.Fields(term) {
		length := len([]rune(token))
		if shortest < 0 || length < shortest {
			shortest = length
		}
	}
	switch {
	case shortest < 3:
		return 0
	case shortest <= 5:
		return 1
	default:
		return 2
	}
}

func documentFromFields(fields map[string]interface{}) Document {
	return Document{
		Title:       stringField(fields, fieldTitle),
		Description: stringField(fields, fieldDescription),
		Transcript:  stringField(fields, fieldTranscript),
		CreatedAt:   timeField(fields, "created_at"),
	}
}

func stringField(fields map[string]interface{}, key string) string {
	if value, ok := fields[key].(string); ok {
		return value
	}
	return ""
}

func timeField(fields map[string]interface{}, key string) time.Time {
	switch value := fields[key].(type) {
	case time.Time:
		return value
	case string:
		parsed, err := time.Parse(time.RFC3339, value)
		if err != nil {
			return time.Time{}
		}
		return parsed
	default:
		return time.Time{}
	}
}
