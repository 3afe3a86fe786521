package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/fpda/academy-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(types.AllModels()...); err != nil {
		return err
	}
	return ensureIndexes(db)
}

// ensureIndexes adds indexes that gorm tags cannot express. The statements
// are valid on both postgres and sqlite.
func ensureIndexes(db *gorm.DB) error {
	stmts := []string{
		`CREATE INDEX IF NOT EXISTS idx_courses_published_created ON courses(is_published, created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_lesson_progress_user_completed ON lesson_progress(user_id, completed);`,
		`CREATE INDEX IF NOT EXISTS idx_payment_events_status_updated ON payment_events(status, updated_at);`,
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("ensure index: %w", err)
		}
	}
	return nil
}
