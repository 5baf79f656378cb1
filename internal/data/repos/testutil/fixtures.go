package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/interview-backend/internal/domain/interview"
)

func SeedSession(tb testing.TB, ctx context.Context, tx *gorm.DB, ownerID string, startedAt time.Time) *types.Session {
	tb.Helper()
	s := &types.Session{
		ID:         "s-" + uuid.NewString()[:8],
		OwnerID:    ownerID,
		Track:      "frontend",
		Type:       "theory",
		Difficulty: "mid",
		Language:   "en",
		Status:     types.StatusActive,
		StartedAt:  startedAt,
		CreatedAt:  startedAt,
		UpdatedAt:  startedAt,
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed session: %v", err)
	}
	return s
}

// SeedCompletedSession inserts a finished session carrying the given report.
func SeedCompletedSession(tb testing.TB, ctx context.Context, tx *gorm.DB, ownerID, interviewType string, startedAt time.Time, score int, topics []types.TopicScore) *types.Session {
	tb.Helper()
	done := startedAt.Add(20 * time.Minute)
	s := &types.Session{
		ID:              "s-" + uuid.NewString()[:8],
		OwnerID:         ownerID,
		Track:           "frontend",
		Type:            interviewType,
		Difficulty:      "mid",
		Status:          types.StatusCompleted,
		Score:           &score,
		Strengths:       datatypes.JSONSlice[string]{"clear communication"},
		Improvements:    datatypes.JSONSlice[string]{"edge cases"},
		Summary:         "ok",
		TopicsEvaluated: datatypes.JSONSlice[types.TopicScore](topics),
		StartedAt:       startedAt,
		CompletedAt:     &done,
		CreatedAt:       startedAt,
		UpdatedAt:       done,
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed completed session: %v", err)
	}
	return s
}
