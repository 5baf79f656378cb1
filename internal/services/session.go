package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yungbote/interview-backend/internal/data/repos"
	types "github.com/yungbote/interview-backend/internal/domain/interview"
	"github.com/yungbote/interview-backend/internal/inference/engine"
	"github.com/yungbote/interview-backend/internal/inference/router"
	"github.com/yungbote/interview-backend/internal/interview"
	"github.com/yungbote/interview-backend/internal/observability"
	"github.com/yungbote/interview-backend/internal/platform/apierr"
	"github.com/yungbote/interview-backend/internal/platform/ctxutil"
	"github.com/yungbote/interview-backend/internal/platform/dbctx"
	"github.com/yungbote/interview-backend/internal/platform/logger"
	"github.com/yungbote/interview-backend/internal/prompts"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// SessionView is a session together with its ordered transcript.
type SessionView struct {
	Session  *types.Session `json:"session"`
	Messages []*types.Turn  `json:"messages"`
	Report   *types.Report  `json:"report,omitempty"`
}

type FinalizeRequest struct {
	OwnerID    string
	SessionID  string
	Config     SessionConfig
	Transcript []interview.Turn
	// DurationSeconds overrides the duration derived from started_at.
	DurationSeconds *int
}

type FinalizeResult struct {
	Report types.Report
	// Stored is true when the session was already completed and its
	// persisted report was returned unchanged.
	Stored bool
	// Fallback is true when the safe default replaced the model's report.
	Fallback bool
}

type SessionService interface {
	Create(dbc dbctx.Context, ownerID, sessionID string, cfg SessionConfig) (*types.Session, error)
	AppendTurn(dbc dbctx.Context, ownerID, sessionID string, cfg SessionConfig, role string, turn interview.Turn) error
	Resume(dbc dbctx.Context, ownerID, sessionID string) (*SessionView, error)
	Finalize(dbc dbctx.Context, req FinalizeRequest) (*FinalizeResult, error)
	Abandon(dbc dbctx.Context, ownerID, sessionID string) (*types.Session, error)
	List(dbc dbctx.Context, ownerID string, f repos.SessionFilter) ([]*types.Session, error)
}

type sessionService struct {
	db       *gorm.DB
	log      *logger.Logger
	sessions repos.SessionRepo
	turns    repos.TurnRepo
	mastery  MasteryService
	route    router.Route
	catalog  *interview.Catalog
	persist  PersistQueue
	timeouts Timeouts
	now      func() time.Time
}

func NewSessionService(
	db *gorm.DB,
	baseLog *logger.Logger,
	repoSet repos.Set,
	mastery MasteryService,
	route router.Route,
	catalog *interview.Catalog,
	persist PersistQueue,
	timeouts Timeouts,
) SessionService {
	return &sessionService{
		db:       db,
		log:      baseLog.With("service", "SessionService"),
		sessions: repoSet.Session,
		turns:    repoSet.Turn,
		mastery:  mastery,
		route:    route,
		catalog:  catalog,
		persist:  persist,
		timeouts: timeouts.withDefaults(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Create inserts an active session. Calling it again with the same id is a
// no-op that returns the existing row.
func (s *sessionService) Create(dbc dbctx.Context, ownerID, sessionID string, cfg SessionConfig) (*types.Session, error) {
	if err := requireIDs(ownerID, sessionID); err != nil {
		return nil, err
	}
	cfg = cfg.trimmed()
	row := &types.Session{
		ID:         strings.TrimSpace(sessionID),
		OwnerID:    ownerID,
		Track:      cfg.Track,
		Type:       cfg.Type,
		Difficulty: cfg.Difficulty,
		Language:   cfg.Language,
		Status:     types.StatusActive,
		StartedAt:  s.now(),
	}
	created, err := s.sessions.Create(dbc, row)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	if created {
		return row, nil
	}
	existing, err := s.sessions.GetByID(dbc, row.ID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if existing == nil || existing.OwnerID != ownerID {
		return nil, apierr.Conflict("session_id_taken", fmt.Errorf("session %s belongs to another owner", row.ID))
	}
	return existing, nil
}

// AppendTurn stores one transcript turn, creating the session first when
// this is its first turn.
func (s *sessionService) AppendTurn(dbc dbctx.Context, ownerID, sessionID string, cfg SessionConfig, role string, turn interview.Turn) error {
	if strings.TrimSpace(turn.Content) == "" {
		return apierr.Validation("turn content required")
	}
	sess, err := s.Create(dbc, ownerID, sessionID, cfg)
	if err != nil {
		return err
	}
	if sess.Status != types.StatusActive {
		return apierr.Conflict("session_closed", ErrSessionClosed)
	}
	row := &types.Turn{
		SessionID: strings.TrimSpace(sessionID),
		Role:      role,
		Content:   turn.Content,
	}
	if turn.Code != "" {
		code := turn.Code
		row.CodeSnapshot = &code
	}
	if err := s.turns.Append(dbc, row); err != nil {
		return fmt.Errorf("append turn: %w", err)
	}
	return nil
}

// Resume reads the session and its transcript concurrently.
func (s *sessionService) Resume(dbc dbctx.Context, ownerID, sessionID string) (*SessionView, error) {
	if err := requireIDs(ownerID, sessionID); err != nil {
		return nil, err
	}

	var (
		sess  *types.Session
		turns []*types.Turn
	)
	g, gctx := errgroup.WithContext(dbc.Context())
	// Concurrent reads cannot share one transaction connection.
	readCtx := dbctx.Context{Ctx: gctx}
	if dbc.Tx != nil {
		readCtx.Tx = dbc.Tx
		g.SetLimit(1)
	}
	g.Go(func() error {
		var err error
		sess, err = s.sessions.GetByID(readCtx, sessionID)
		return err
	})
	g.Go(func() error {
		var err error
		turns, err = s.turns.ListBySession(readCtx, sessionID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("resume session: %w", err)
	}
	if sess == nil || sess.OwnerID != ownerID {
		return nil, apierr.NotFound("session")
	}
	return &SessionView{Session: sess, Messages: turns, Report: sess.StoredReport()}, nil
}

func (s *sessionService) Finalize(dbc dbctx.Context, req FinalizeRequest) (*FinalizeResult, error) {
	if err := requireIDs(req.OwnerID, req.SessionID); err != nil {
		return nil, err
	}
	ctx, span := observability.StartSpan(dbc.Context(), "interview.finalize",
		attribute.String("track", req.Config.Track),
		attribute.Int("client_turns", len(req.Transcript)),
	)
	defer span.End()
	dbc = dbctx.Context{Ctx: ctx, Tx: dbc.Tx}

	sess, err := s.sessions.GetByID(dbc, req.SessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if sess != nil {
		if sess.OwnerID != req.OwnerID {
			return nil, apierr.NotFound("session")
		}
		switch sess.Status {
		case types.StatusCompleted:
			if stored := sess.StoredReport(); stored != nil {
				observability.Current().IncReport("stored")
				return &FinalizeResult{Report: *stored, Stored: true}, nil
			}
		case types.StatusAbandoned:
			return nil, apierr.Conflict("session_closed", ErrSessionClosed)
		}
	}

	transcript := req.Transcript
	if interview.TranscriptText(transcript) == "" && sess != nil {
		rows, err := s.turns.ListBySession(dbc, req.SessionID)
		if err != nil {
			return nil, fmt.Errorf("load transcript: %w", err)
		}
		transcript = interview.FromStored(rows)
	}
	text := interview.TranscriptText(transcript)
	if text == "" {
		return nil, apierr.Validation("transcript is empty")
	}

	cfg := req.Config.trimmed()
	if sess != nil {
		cfg = SessionConfig{Track: sess.Track, Type: sess.Type, Difficulty: sess.Difficulty, Language: sess.Language}
	}

	report, fallback := s.generateReport(ctx, cfg, text)
	if fallback {
		observability.Current().IncReport("fallback")
	} else {
		observability.Current().IncReport("generated")
	}

	duration := req.DurationSeconds
	if duration == nil && sess != nil {
		d := int(s.now().Sub(sess.StartedAt).Seconds())
		if d < 0 {
			d = 0
		}
		duration = &d
	}

	// Turns relayed just before finalize are still in the queue; let them
	// land before the session closes to appends.
	if !awaitQueued(ctx, s.persist, req.SessionID, s.timeouts.Drain) {
		s.log.Warn("pending turns not drained before finalize", append(ctxutil.LogFields(ctx), "session_id", req.SessionID)...)
	}

	if _, err := s.Create(dbc, req.OwnerID, req.SessionID, cfg); err != nil {
		return nil, err
	}
	completed, err := s.sessions.Complete(dbc, req.SessionID, report, duration, s.now())
	if err != nil {
		return nil, fmt.Errorf("complete session: %w", err)
	}
	if !completed {
		// Another finalize or an abandon won the race.
		cur, err := s.reload(dbc, req.SessionID)
		if err != nil {
			return nil, err
		}
		if cur.Status != types.StatusCompleted {
			return nil, apierr.Conflict("session_closed", ErrSessionClosed)
		}
		if stored := cur.StoredReport(); stored != nil {
			return &FinalizeResult{Report: *stored, Stored: true}, nil
		}
		return &FinalizeResult{Report: report, Fallback: fallback}, nil
	}

	s.submitMastery(req.OwnerID, req.SessionID, report)
	return &FinalizeResult{Report: report, Fallback: fallback}, nil
}

// generateReport never fails: backend and parse errors yield the safe
// default report.
func (s *sessionService) generateReport(ctx context.Context, cfg SessionConfig, transcript string) (types.Report, bool) {
	p, err := prompts.Build(prompts.PromptReport, prompts.Input{
		Transcript:   transcript,
		TopicCatalog: s.catalog.PromptList(cfg.Track),
		Difficulty:   cfg.Difficulty,
		Language:     cfg.languageOrDefault(),
	})
	if err != nil {
		s.log.Warn("report prompt build failed", "error", err)
		return interview.SafeDefaultReport(), true
	}

	genCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeouts.Report)
	defer cancel()

	out, err := s.route.Engine.GenerateText(genCtx, s.route.Model, []engine.Message{
		{Role: engine.RoleSystem, Content: p.System},
		{Role: engine.RoleUser, Content: p.User},
	}, engine.GenerateOptions{Temperature: 0.2, JSON: true})
	if err != nil {
		s.log.Warn("report generation failed, using safe default", append(ctxutil.LogFields(ctx), "error", err)...)
		return interview.SafeDefaultReport(), true
	}
	report, err := interview.ExtractReport(out)
	if err != nil {
		s.log.Warn("report extraction failed, using safe default", append(ctxutil.LogFields(ctx), "error", err)...)
		return interview.SafeDefaultReport(), true
	}
	return report, false
}

// submitMastery queues the topic score updates. It runs only for the call
// that flipped the session to completed, so a repeated finalize never
// counts a session twice.
func (s *sessionService) submitMastery(ownerID, sessionID string, report types.Report) {
	if len(report.TopicsEvaluated) == 0 {
		return
	}
	ok := s.persist.Submit(sessionID, jobMastery, func(ctx context.Context) error {
		dbc := dbctx.Context{Ctx: ctx}
		for _, ts := range report.TopicsEvaluated {
			ts = ts.Resolve(report.Score)
			if _, err := s.mastery.Upsert(dbc, ownerID, ts.Topic, ts.Category, ts.Score); err != nil {
				s.log.Warn("mastery upsert failed", "session_id", sessionID, "topic", ts.Topic, "error", err)
			}
		}
		return nil
	})
	if !ok {
		s.log.Warn("mastery update not queued", "session_id", sessionID, "topics", len(report.TopicsEvaluated))
	}
}

func (s *sessionService) Abandon(dbc dbctx.Context, ownerID, sessionID string) (*types.Session, error) {
	if err := requireIDs(ownerID, sessionID); err != nil {
		return nil, err
	}
	sess, err := s.sessions.GetByID(dbc, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if sess == nil || sess.OwnerID != ownerID {
		return nil, apierr.NotFound("session")
	}
	switch sess.Status {
	case types.StatusAbandoned:
		return sess, nil
	case types.StatusCompleted:
		return nil, apierr.Conflict("session_completed", fmt.Errorf("session %s is already completed", sessionID))
	}

	// A lost race with finalize leaves the row as the winner wrote it.
	if _, err := s.sessions.TransitionStatus(dbc, sessionID, types.StatusActive, types.StatusAbandoned); err != nil {
		return nil, fmt.Errorf("abandon session: %w", err)
	}
	return s.reload(dbc, sessionID)
}

func (s *sessionService) reload(dbc dbctx.Context, sessionID string) (*types.Session, error) {
	sess, err := s.sessions.GetByID(dbc, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if sess == nil {
		return nil, apierr.NotFound("session")
	}
	return sess, nil
}

func (s *sessionService) List(dbc dbctx.Context, ownerID string, f repos.SessionFilter) ([]*types.Session, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, apierr.Validation("owner id required")
	}
	switch f.Status {
	case "", types.StatusActive, types.StatusCompleted, types.StatusAbandoned:
	default:
		return nil, apierr.Validation("unknown status %q", f.Status)
	}
	if f.Limit <= 0 {
		f.Limit = defaultListLimit
	}
	if f.Limit > maxListLimit {
		f.Limit = maxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	out, err := s.sessions.ListByOwner(dbc, ownerID, f)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return out, nil
}
