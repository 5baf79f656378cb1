package interview

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleCandidate   = "candidate"
	RoleInterviewer = "interviewer"
	RoleSystem      = "system"
)

// Turn is one append-only transcript entry. Seq is assigned per session and
// defines transcript order.
type Turn struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	SessionID    string    `gorm:"column:session_id;not null;index:idx_interview_turn_session_seq,unique,priority:1" json:"session_id"`
	Seq          int64     `gorm:"column:seq;not null;index:idx_interview_turn_session_seq,unique,priority:2" json:"seq"`
	Role         string    `gorm:"column:role;not null" json:"role"`
	Content      string    `gorm:"column:content;type:text;not null;default:''" json:"content"`
	CodeSnapshot *string   `gorm:"column:code_snapshot;type:text" json:"code_snapshot,omitempty"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
}

func (Turn) TableName() string { return "interview_turn" }
