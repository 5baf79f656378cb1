package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/yungbote/interview-backend/internal/platform/apierr"
)

var (
	// ErrGenerationTimeout is returned when an interviewer turn exceeds its
	// time budget. Tokens already relayed stay with the client.
	ErrGenerationTimeout = errors.New("generation timed out")

	// ErrSessionClosed is returned when a completed or abandoned session is
	// asked to take another turn, or an abandoned one to finalize.
	ErrSessionClosed = errors.New("session closed")
)

// PersistQueue accepts best-effort writes that must not block the caller.
// Jobs with the same key run in submission order.
type PersistQueue interface {
	Submit(key, kind string, fn func(ctx context.Context) error) bool
}

// Job kinds, used as log and metric labels.
const (
	jobAppendTurn = "append_turn"
	jobMastery    = "apply_mastery"
	jobBarrier    = "await_queued"
)

// awaitQueued waits up to limit for the jobs already queued under key. It
// reports false when the queue refused the marker or the wait ran out.
func awaitQueued(ctx context.Context, q PersistQueue, key string, limit time.Duration) bool {
	done := make(chan struct{})
	if !q.Submit(key, jobBarrier, func(context.Context) error {
		close(done)
		return nil
	}) {
		return false
	}
	timer := time.NewTimer(limit)
	defer timer.Stop()
	select {
	case <-done:
		return true
	case <-timer.C:
	case <-ctx.Done():
	}
	return false
}

type Timeouts struct {
	Turn        time.Duration
	Report      time.Duration
	Suggestions time.Duration
	KeyCheck    time.Duration
	Article     time.Duration
	// Drain bounds how long finalize waits for queued turns.
	Drain time.Duration
}

func (t Timeouts) withDefaults() Timeouts {
	if t.Turn <= 0 {
		t.Turn = 30 * time.Second
	}
	if t.Report <= 0 {
		t.Report = 60 * time.Second
	}
	if t.Suggestions <= 0 {
		t.Suggestions = 30 * time.Second
	}
	if t.KeyCheck <= 0 {
		t.KeyCheck = 15 * time.Second
	}
	if t.Article <= 0 {
		t.Article = 90 * time.Second
	}
	if t.Drain <= 0 {
		t.Drain = 2 * time.Second
	}
	return t
}

// SessionConfig is the interview setup chosen by the candidate.
type SessionConfig struct {
	Track      string `json:"track"`
	Type       string `json:"type"`
	Difficulty string `json:"difficulty"`
	Language   string `json:"language"`
}

func (c SessionConfig) trimmed() SessionConfig {
	return SessionConfig{
		Track:      strings.TrimSpace(c.Track),
		Type:       strings.TrimSpace(c.Type),
		Difficulty: strings.TrimSpace(c.Difficulty),
		Language:   strings.TrimSpace(c.Language),
	}
}

func (c SessionConfig) languageOrDefault() string {
	if c.Language == "" {
		return "English"
	}
	return c.Language
}

func requireIDs(ownerID, sessionID string) error {
	if strings.TrimSpace(ownerID) == "" {
		return apierr.Validation("owner id required")
	}
	if strings.TrimSpace(sessionID) == "" {
		return apierr.Validation("session id required")
	}
	return nil
}
