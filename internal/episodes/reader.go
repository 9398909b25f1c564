package episodes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/portola-labs/podsearch/internal/display"
)

var errMissingDatabase = errors.New("episodes: database handle is required")

const transcriptSeparator = " "

// Reader lists episodes that are ready for indexing. It is read-only and
// performs no retries; storage errors propagate to the caller.
type Reader struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewReader constructs a Reader over the given database handle.
func NewReader(db *gorm.DB, logger *zap.Logger) (*Reader, error) {
	if db == nil {
		return nil, errMissingDatabase
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reader{db: db, logger: logger}, nil
}

// ListComplete returns every episode flagged complete, ordered by id
// ascending. Each record carries the episode's transcript: segment texts
// joined with a single space in ascending sequence order, or the empty string
// when the episode has no segments. A NULL description is coalesced to "".
func (r *Reader) ListComplete(ctx context.Context) ([]Record, error) {
	var rows []Episode
	err := r.db.WithContext(ctx).
		Where("complete = ?", true).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("episodes: list complete episodes: %w", err)
	}

	transcripts, err := r.transcriptsFor(ctx, rows)
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, Record{
			ID:          row.ID,
			Title:       row.Title,
			Description: display.DefaultText(row.Description),
			Transcript:  transcripts[row.ID],
		})
	}

	r.logger.Debug("listed complete episodes", zap.Int("count", len(records)))
	return records, nil
}

// transcriptsFor aggregates segment text per episode. Segments are fetched in
// (episode_id, sequence_number) order so the concatenation is deterministic.
func (r *Reader) transcriptsFor(ctx context.Context, rows []Episode) (map[int64]string, error) {
	transcripts := make(map[int64]string, len(rows))
	if len(rows) == 0 {
		return transcripts, nil
	}

	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}

	var segments []TranscriptSegment
	err := r.db.WithContext(ctx).
		Where("episode_id IN ?", ids).
		Order("episode_id ASC, sequence_number ASC").
		Find(&segments).Error
	if err != nil {
		return nil, fmt.Errorf("episodes: list transcript segments: %w", err)
	}

	parts := make(map[int64][]string, len(rows))
	for _, segment := range segments {
		parts[segment.EpisodeID] = append(parts[segment.EpisodeID], segment.Text)
	}
	for episodeID, texts := range parts {
		transcripts[episodeID] = strings.Join(texts, transcriptSeparator)
	}
	return transcripts, nil
}
