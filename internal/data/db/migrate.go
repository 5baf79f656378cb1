package db

import (
	"gorm.io/gorm"

	"github.com/yungbote/interview-backend/internal/domain/interview"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		// =========================
		// Sessions + transcript
		// =========================
		&interview.Session{},
		&interview.Turn{},

		// =========================
		// Long-term skill model
		// =========================
		&interview.TopicMastery{},

		// =========================
		// Study material
		// =========================
		&interview.KnowledgeArticle{},
	)
}
