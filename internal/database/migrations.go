package database

import (
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/portola-labs/podsearch/internal/episodes"
)

const migrationPruneOrphanedSegments = "2026-07-18_prune_orphaned_segments"

type migrationRecord struct {
	Name             string `gorm:"column:name;primaryKey;size:190;not null"`
	AppliedAtSeconds int64  `gorm:"column:applied_at_s;not null"`
}

func (migrationRecord) TableName() string {
	return "db_migrations"
}

type migrationDefinition struct {
	name  string
	apply func(*gorm.DB) error
}

func applyMigrations(db *gorm.DB, logger *zap.Logger) error {
	migrations := []migrationDefinition{
		{name: migrationPruneOrphanedSegments, apply: pruneOrphanedSegments},
	}

	for _, migration := range migrations {
		var record migrationRecord
		err := db.Where("name = ?", migration.name).Take(&record).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := migration.apply(db); err != nil {
			return err
		}
		appliedAt := time.Now().UTC().Unix()
		if err := db.Create(&migrationRecord{Name: migration.name, AppliedAtSeconds: appliedAt}).Error; err != nil {
			return err
		}
		if logger != nil {
			logger.Info("database migration applied", zap.String("migration", migration.name))
		}
	}
	return nil
}

// pruneOrphanedSegments drops transcript segments whose episode row no longer
// exists. Earlier ingestion tooling deleted episodes without cascading.
func pruneOrphanedSegments(db *gorm.DB) error {
	return db.
		Where("episode_id NOT IN (?)", db.Model(&episodes.Episode{}).Select("id")).
		Delete(&episodes.TranscriptSegment{}).Error
}
