package episodes

// Episode models a podcast episode row. Episodes are produced and mutated by
// the publishing pipeline; this service only ever reads them.
type Episode struct {
	ID          int64   `gorm:"column:id;primaryKey;autoIncrement"`
	Title       string  `gorm:"column:title;size:512;not null;default:''"`
	Description *string `gorm:"column:description;type:text"`
	Complete    bool    `gorm:"column:complete;not null;default:false;index:idx_episodes_complete"`
}

// TableName provides the explicit table binding for GORM.
func (Episode) TableName() string {
	return "podcast_episodes"
}

// TranscriptSegment is one ordered chunk of an episode transcript. Segments
// arrive out of order from the transcription pipeline; SequenceNumber defines
// their position within the episode.
type TranscriptSegment struct {
	ID             int64  `gorm:"column:id;primaryKey;autoIncrement"`
	EpisodeID      int64  `gorm:"column:episode_id;not null;index:idx_segments_episode_seq,priority:1"`
	SequenceNumber int64  `gorm:"column:sequence_number;not null;index:idx_segments_episode_seq,priority:2"`
	Text           string `gorm:"column:text;type:text;not null;default:''"`
}

// TableName provides the explicit table binding for GORM.
func (TranscriptSegment) TableName() string {
	return "podcast_episode_segments"
}

// Record is the denormalized read model handed to ingestion: one complete
// episode with its transcript segments already stitched together.
type Record struct {
	ID          int64
	Title       string
	Description string
	Transcript  string
}
