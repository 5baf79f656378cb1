package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/interview-backend/internal/data/repos"
	types "github.com/yungbote/interview-backend/internal/domain/interview"
	"github.com/yungbote/interview-backend/internal/inference/engine"
	"github.com/yungbote/interview-backend/internal/inference/router"
	"github.com/yungbote/interview-backend/internal/interview"
	"github.com/yungbote/interview-backend/internal/platform/apierr"
	"github.com/yungbote/interview-backend/internal/platform/cache"
	"github.com/yungbote/interview-backend/internal/platform/ctxutil"
	"github.com/yungbote/interview-backend/internal/platform/dbctx"
	"github.com/yungbote/interview-backend/internal/platform/logger"
	"github.com/yungbote/interview-backend/internal/prompts"
)

const (
	recentSessionsLimit = 10
	suggestionsTTL      = 6 * time.Hour
)

type StatsSummary struct {
	TotalSessions  int                   `json:"total_sessions"`
	AvgScore       *int                  `json:"avg_score"`
	BestScore      *int                  `json:"best_score"`
	RecentSessions []*types.Session      `json:"recent_sessions"`
	ByType         map[string]int        `json:"by_type"`
	DailyActivity  []interview.DayBucket `json:"daily_activity"`
}

type Suggestion struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Action      string `json:"action,omitempty"`
	ActionLabel string `json:"action_label,omitempty"`
	Priority    string `json:"priority"`
}

type StatsService interface {
	// Summary aggregates the owner's completed sessions, restricted to
	// track when it is non-empty.
	Summary(dbc dbctx.Context, ownerID, track string) (*StatsSummary, error)
	Suggestions(dbc dbctx.Context, ownerID string) ([]Suggestion, error)
}

type statsService struct {
	db       *gorm.DB
	log      *logger.Logger
	sessions repos.SessionRepo
	route    router.Route
	cache    cache.Cache
	timeout  time.Duration
	now      func() time.Time
}

func NewStatsService(db *gorm.DB, baseLog *logger.Logger, repoSet repos.Set, route router.Route, c cache.Cache, timeouts Timeouts) StatsService {
	return &statsService{
		db:       db,
		log:      baseLog.With("service", "StatsService"),
		sessions: repoSet.Session,
		route:    route,
		cache:    c,
		timeout:  timeouts.withDefaults().Suggestions,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *statsService) Summary(dbc dbctx.Context, ownerID, track string) (*StatsSummary, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, apierr.Validation("owner id required")
	}
	all, err := s.sessions.ListCompletedByOwner(dbc, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list completed sessions: %w", err)
	}
	track = strings.TrimSpace(track)
	sessions := all[:0:0]
	for _, sess := range all {
		if track == "" || sess.Track == track {
			sessions = append(sessions, sess)
		}
	}
	return summarize(sessions, s.now()), nil
}

func summarize(sessions []*types.Session, now time.Time) *StatsSummary {
	out := &StatsSummary{
		TotalSessions:  len(sessions),
		RecentSessions: []*types.Session{},
		ByType:         map[string]int{},
		DailyActivity:  interview.DailyActivity(sessions, now),
	}
	total, scored, best := 0, 0, 0
	for _, sess := range sessions {
		if sess.Type != "" {
			out.ByType[sess.Type]++
		}
		if sess.Score == nil {
			continue
		}
		total += *sess.Score
		if scored == 0 || *sess.Score > best {
			best = *sess.Score
		}
		scored++
	}
	if scored > 0 {
		avg := int(math.Round(float64(total) / float64(scored)))
		out.AvgScore = &avg
		out.BestScore = &best
	}

	recent := make([]*types.Session, len(sessions))
	copy(recent, sessions)
	sort.SliceStable(recent, func(i, j int) bool { return recent[i].StartedAt.After(recent[j].StartedAt) })
	if len(recent) > recentSessionsLimit {
		recent = recent[:recentSessionsLimit]
	}
	out.RecentSessions = recent
	return out
}

func starterSuggestions() []Suggestion {
	return []Suggestion{{
		Title:       "Start your first interview",
		Description: "Complete a mock interview to receive personalized suggestions.",
		Action:      "/interview",
		ActionLabel: "Start",
		Priority:    "high",
	}}
}

func fallbackSuggestions() []Suggestion {
	return []Suggestion{{
		Title:       "Keep practicing",
		Description: "Regular practice is the fastest way to improve. Try a new interview type.",
		Action:      "/interview",
		ActionLabel: "Practice",
		Priority:    "medium",
	}}
}

// Suggestions asks the backend for coaching actions. Results are cached per
// owner until the completed-session count changes or the entry expires.
func (s *statsService) Suggestions(dbc dbctx.Context, ownerID string) ([]Suggestion, error) {
	summary, err := s.Summary(dbc, ownerID, "")
	if err != nil {
		return nil, err
	}
	if summary.TotalSessions == 0 {
		return starterSuggestions(), nil
	}

	ctx := dbc.Context()
	key := "suggestions:" + ownerID + ":" + strconv.Itoa(summary.TotalSessions)
	if s.cache != nil {
		if raw, ok, err := s.cache.Get(ctx, key); err != nil {
			s.log.Warn("suggestions cache read failed", "error", err)
		} else if ok {
			var cached []Suggestion
			if err := json.Unmarshal([]byte(raw), &cached); err == nil && len(cached) > 0 {
				return cached, nil
			}
		}
	}

	out, err := s.generateSuggestions(ctx, summary)
	if err != nil {
		s.log.Warn("suggestions generation failed, using fallback", append(ctxutil.LogFields(ctx), "error", err)...)
		return fallbackSuggestions(), nil
	}
	if s.cache != nil {
		if b, err := json.Marshal(out); err == nil {
			if err := s.cache.Set(ctx, key, string(b), suggestionsTTL); err != nil {
				s.log.Warn("suggestions cache write failed", "error", err)
			}
		}
	}
	return out, nil
}

func (s *statsService) generateSuggestions(ctx context.Context, summary *StatsSummary) ([]Suggestion, error) {
	p, err := prompts.Build(prompts.PromptSuggestions, prompts.Input{
		TotalSessions: summary.TotalSessions,
		AvgScore:      intOrNA(summary.AvgScore),
		BestScore:     intOrNA(summary.BestScore),
		ByTypeCSV:     byTypeCSV(summary.ByType),
	})
	if err != nil {
		return nil, err
	}
	genCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	text, err := s.route.Engine.GenerateText(genCtx, s.route.Model, []engine.Message{
		{Role: engine.RoleSystem, Content: p.System},
		{Role: engine.RoleUser, Content: p.User},
	}, engine.GenerateOptions{Temperature: 0.5})
	if err != nil {
		return nil, err
	}
	return parseSuggestions(text)
}

func parseSuggestions(text string) ([]Suggestion, error) {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON array in suggestions")
	}
	var raw []Suggestion
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("decode suggestions: %w", err)
	}
	out := make([]Suggestion, 0, len(raw))
	for _, sg := range raw {
		sg.Title = strings.TrimSpace(sg.Title)
		if sg.Title == "" {
			continue
		}
		switch sg.Priority {
		case "high", "medium", "low":
		default:
			sg.Priority = "medium"
		}
		if sg.Action == "" {
			sg.Action = "/interview"
		}
		out = append(out, sg)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("empty suggestions")
	}
	return out, nil
}

func intOrNA(v *int) string {
	if v == nil {
		return "n/a"
	}
	return strconv.Itoa(*v)
}

func byTypeCSV(m map[string]int) string {
	if len(m) == 0 {
		return "none"
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s (%d)", k, m[k]))
	}
	return strings.Join(parts, ", ")
}
