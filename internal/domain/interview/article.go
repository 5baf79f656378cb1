package interview

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ArticleQuestion is a typical interview question with a hint for answering.
type ArticleQuestion struct {
	Question string `json:"question"`
	Hint     string `json:"hint"`
}

// KnowledgeArticle is a generated study sheet for one topic of a track. It
// is shared by every owner; (Track, TopicKey) is unique.
type KnowledgeArticle struct {
	ID              uuid.UUID                            `gorm:"type:uuid;primaryKey" json:"id"`
	Track           string                               `gorm:"column:track;not null;index:idx_knowledge_articles_track_topic,unique,priority:1" json:"track"`
	TopicKey        string                               `gorm:"column:topic_key;not null;index:idx_knowledge_articles_track_topic,unique,priority:2" json:"-"`
	Topic           string                               `gorm:"column:topic;not null" json:"topic"`
	Category        string                               `gorm:"column:category;not null;default:''" json:"category"`
	Title           string                               `gorm:"column:title;not null" json:"title"`
	Content         string                               `gorm:"column:content;type:text;not null;default:''" json:"content,omitempty"`
	Difficulty      string                               `gorm:"column:difficulty;not null;default:'mid'" json:"difficulty"`
	KeyPoints       datatypes.JSONSlice[string]          `gorm:"column:key_points" json:"key_points,omitempty"`
	CommonQuestions datatypes.JSONSlice[ArticleQuestion] `gorm:"column:common_questions" json:"common_questions,omitempty"`
	PromptVersion   int                                  `gorm:"column:prompt_version;not null;default:1" json:"-"`
	CreatedAt       time.Time                            `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time                            `gorm:"not null" json:"updated_at"`
}

func (KnowledgeArticle) TableName() string { return "knowledge_articles" }
