package ingest

import (
	"strconv"
	"time"

	"github.com/portola-labs/podsearch/internal/episodes"
	"github.com/portola-labs/podsearch/internal/index"
)

// Project maps an episode record to its indexed document. The document id is
// the decimal string form of the episode id; createdAt is the ingestion
// timestamp, not anything sourced from the record.
func Project(record episodes.Record, createdAt time.Time) index.Document {
	return index.Document{
		ID:          strconv.FormatInt(record.ID, 10),
		Title:       record.Title,
		Description: record.Description,
		Transcript:  record.Transcript,
		CreatedAt:   createdAt,
	}
}
