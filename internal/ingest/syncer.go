package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/portola-labs/podsearch/internal/display"
	"github.com/portola-labs/podsearch/internal/episodes"
	"github.com/portola-labs/podsearch/internal/index"
)

var (
	errMissingSource = errors.New("record source is required")
	errMissingIndex  = errors.New("document store is required")
)

const (
	opSyncerNew = "ingest.syncer.new"
	opSync      = "ingest.sync"

	debugTextWidth = 120
)

// SyncError carries an operation code alongside the underlying cause.
type SyncError struct {
	code string
	err  error
}

func (e *SyncError) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *SyncError) Unwrap() error {
	return e.err
}

// Code returns the dotted operation code.
func (e *SyncError) Code() string {
	return e.code
}

func newSyncError(operation, reason string, cause error) error {
	return &SyncError{code: fmt.Sprintf("%s.%s", operation, reason), err: cause}
}

// RecordSource lists the episode records eligible for indexing.
type RecordSource interface {
	ListComplete(ctx context.Context) ([]episodes.Record, error)
}

// DocumentStore is the slice of the index store ingestion writes through.
type DocumentStore interface {
	Count() (uint64, error)
	Upsert(ctx context.Context, document index.Document) error
}

// SyncerConfig wires the syncer's collaborators.
type SyncerConfig struct {
	Source RecordSource
	Index  DocumentStore
	Clock  func() time.Time
	Logger *zap.Logger
}

// Syncer reconciles the search index against the relational source. The
// reconciliation is count-only: when the document count equals the complete
// record count the pass is a no-op, so content edits to an already-synced
// episode are never re-indexed.
type Syncer struct {
	source RecordSource
	index  DocumentStore
	clock  func() time.Time
	logger *zap.Logger
}

// NewSyncer validates the configuration and constructs a Syncer.
func NewSyncer(cfg SyncerConfig) (*Syncer, error) {
	if cfg.Source == nil {
		return nil, newSyncError(opSyncerNew, "missing_source", errMissingSource)
	}
	if cfg.Index == nil {
		return nil, newSyncError(opSyncerNew, "missing_index", errMissingIndex)
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Syncer{
		source: cfg.Source,
		index:  cfg.Index,
		clock:  clock,
		logger: logger,
	}, nil
}

// Sync runs one ingestion pass: list every complete record, and when the
// index count disagrees with the record count, project and upsert all of
// them in id order. The record listing is read once and reused for both the
// comparison and the ingestion. The first failed upsert aborts the remainder
// of the pass; documents already written stay written.
func (s *Syncer) Sync(ctx context.Context) error {
	records, err := s.source.ListComplete(ctx)
	if err != nil {
		return newSyncError(opSync, "list_records", err)
	}

	indexed, err := s.index.Count()
	if err != nil {
		return newSyncError(opSync, "count_documents", err)
	}

	if indexed == uint64(len(records)) {
		s.logger.Info("all records already ingested",
			zap.Uint64("documents", indexed),
			zap.Int("records", len(records)))
		return nil
	}

	for _, record := range records {
		document := Project(record, s.clock())
		s.logger.Debug("ingesting record",
			zap.String("document_id", document.ID),
			zap.String("title", display.Abbreviate(document.Title, debugTextWidth)),
			zap.String("description", display.Abbreviate(document.Description, debugTextWidth)),
			zap.String("transcript", display.Abbreviate(document.Transcript, debugTextWidth)))
		if err := s.index.Upsert(ctx, document); err != nil {
			return newSyncError(opSync, "upsert_document", err)
		}
	}

	s.logger.Info("ingestion pass completed", zap.Int("records", len(records)))
	return nil
}
