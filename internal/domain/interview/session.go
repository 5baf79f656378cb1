package interview

import (
	"encoding/json"
	"math"
	"strings"
	"time"

	"gorm.io/datatypes"
)

const (
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusAbandoned = "abandoned"
)

// ScoreUnknown marks a TopicScore whose source carried no score.
const ScoreUnknown = -1

// TopicScore is one entry of a report's topics_evaluated list.
type TopicScore struct {
	Topic    string `json:"topic"`
	Category string `json:"category"`
	Score    int    `json:"score"`
}

// UnmarshalJSON accepts both {"topic","category","score"} objects and bare
// topic strings. Missing scores decode as ScoreUnknown.
func (t *TopicScore) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err == nil {
		*t = TopicScore{Topic: strings.TrimSpace(name), Score: ScoreUnknown}
		return nil
	}
	var raw struct {
		Topic    string   `json:"topic"`
		Category string   `json:"category"`
		Score    *float64 `json:"score"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*t = TopicScore{Topic: strings.TrimSpace(raw.Topic), Category: strings.TrimSpace(raw.Category), Score: ScoreUnknown}
	if raw.Score != nil {
		t.Score = int(math.Round(*raw.Score))
	}
	return nil
}

// Resolve fills the defaults used when a topic entry is incomplete: the
// "General" category and the session's overall score.
func (t TopicScore) Resolve(overall int) TopicScore {
	if t.Category == "" {
		t.Category = "General"
	}
	if t.Score == ScoreUnknown {
		t.Score = overall
	}
	return t
}

// Session is a single mock interview. The ID is generated by the client
// before the first turn, so it is an opaque string rather than a uuid.
type Session struct {
	ID         string `gorm:"column:id;primaryKey" json:"id"`
	OwnerID    string `gorm:"column:owner_id;not null;index:idx_interview_session_owner_started,priority:1" json:"owner_id"`
	Track      string `gorm:"column:track;not null;default:''" json:"track"`
	Type       string `gorm:"column:type;not null;default:''" json:"type"`
	Difficulty string `gorm:"column:difficulty;not null;default:''" json:"difficulty"`
	Language   string `gorm:"column:language;not null;default:''" json:"language"`
	Status     string `gorm:"column:status;not null;default:'active';index" json:"status"`

	// Report fields. Written together by the single finalize update.
	Score           *int                            `gorm:"column:score" json:"score"`
	Strengths       datatypes.JSONSlice[string]     `gorm:"column:strengths" json:"strengths"`
	Improvements    datatypes.JSONSlice[string]     `gorm:"column:improvements" json:"improvements"`
	Summary         string                          `gorm:"column:summary;type:text;not null;default:''" json:"summary"`
	TopicsEvaluated datatypes.JSONSlice[TopicScore] `gorm:"column:topics_evaluated" json:"topics_evaluated"`
	DurationSeconds *int                            `gorm:"column:duration_seconds" json:"duration_seconds"`

	StartedAt   time.Time  `gorm:"column:started_at;not null;index:idx_interview_session_owner_started,priority:2" json:"started_at"`
	CompletedAt *time.Time `gorm:"column:completed_at" json:"completed_at"`
	CreatedAt   time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"not null" json:"updated_at"`
}

func (Session) TableName() string { return "interview_session" }

// Report bundles the report fields of a completed session.
type Report struct {
	Score           int          `json:"score"`
	Strengths       []string     `json:"strengths"`
	Improvements    []string     `json:"improvements"`
	Summary         string       `json:"summary"`
	TopicsEvaluated []TopicScore `json:"topics_evaluated"`
}

// StoredReport returns the persisted report, or nil while the session is
// not completed.
func (s *Session) StoredReport() *Report {
	if s == nil || s.Status != StatusCompleted || s.Score == nil {
		return nil
	}
	return &Report{
		Score:           *s.Score,
		Strengths:       nonNil([]string(s.Strengths)),
		Improvements:    nonNil([]string(s.Improvements)),
		Summary:         s.Summary,
		TopicsEvaluated: nonNil([]TopicScore(s.TopicsEvaluated)),
	}
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
