package interview

import (
	"time"

	"github.com/google/uuid"
)

// TopicMastery is the smoothed long-term skill estimate of one owner on one
// canonical topic. TopicKey is the case-folded topic and, with OwnerID,
// the upsert key.
type TopicMastery struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID       string    `gorm:"column:owner_id;not null;index:idx_topic_mastery_owner_topic,unique,priority:1" json:"owner_id"`
	TopicKey      string    `gorm:"column:topic_key;not null;index:idx_topic_mastery_owner_topic,unique,priority:2" json:"-"`
	Topic         string    `gorm:"column:topic;not null" json:"topic"`
	Category      string    `gorm:"column:category;not null;default:''" json:"category"`
	MasteryLevel  int       `gorm:"column:mastery_level;not null;default:0" json:"mastery_level"`
	SessionsCount int       `gorm:"column:sessions_count;not null;default:0" json:"sessions_count"`
	LastPracticed time.Time `gorm:"column:last_practiced;not null" json:"last_practiced"`
	CreatedAt     time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time `gorm:"not null" json:"updated_at"`
}

func (TopicMastery) TableName() string { return "topic_mastery" }
