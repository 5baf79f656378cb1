package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

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

const interviewerTemperature = 0.7

// RelayRequest is one client request for the next interviewer turn. Turns
// is the client's transcript ending with the candidate's newest message.
type RelayRequest struct {
	OwnerID       string
	SessionID     string
	Config        SessionConfig
	Turns         []interview.Turn
	Code          string
	CoveredTopics []string
}

// Relay streams interviewer turns from the generative backend to a client
// and hands both sides of the exchange to the persist queue.
type Relay interface {
	// Stream forwards deltas to emit in order. An emit error marks the
	// client as gone: forwarding stops but the generation keeps filling the
	// buffer so the turn can still be persisted.
	Stream(ctx context.Context, req RelayRequest, emit func(delta string) error) error
}

type relay struct {
	log      *logger.Logger
	sessions SessionService
	sessRepo repos.SessionRepo
	turns    repos.TurnRepo
	route    router.Route
	catalog  *interview.Catalog
	persist  PersistQueue
	timeout  time.Duration
}

func NewRelay(
	baseLog *logger.Logger,
	repoSet repos.Set,
	sessions SessionService,
	route router.Route,
	catalog *interview.Catalog,
	persist PersistQueue,
	timeouts Timeouts,
) Relay {
	return &relay{
		log:      baseLog.With("service", "Relay"),
		sessions: sessions,
		sessRepo: repoSet.Session,
		turns:    repoSet.Turn,
		route:    route,
		catalog:  catalog,
		persist:  persist,
		timeout:  timeouts.withDefaults().Turn,
	}
}

func (r *relay) Stream(ctx context.Context, req RelayRequest, emit func(delta string) error) (err error) {
	if err := requireIDs(req.OwnerID, req.SessionID); err != nil {
		return err
	}
	if emit == nil {
		return fmt.Errorf("relay: emit is required")
	}
	if last, ok := lastContentTurn(req.Turns); ok && last.Role == types.RoleInterviewer {
		return apierr.Validation("last turn must be the candidate's")
	}

	ctx, span := observability.StartSpan(ctx, "interview.relay",
		attribute.String("track", req.Config.Track),
		attribute.Int("client_turns", len(req.Turns)),
	)
	defer span.End()

	start := time.Now()
	outcome := "ok"
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.SetAttributes(attribute.String("outcome", outcome))
		observability.Current().ObserveTurn(outcome, time.Since(start))
	}()

	transcript, err := r.transcriptFor(ctx, req)
	if err != nil {
		outcome = "error"
		return err
	}
	history, live := interview.PrepareContext(transcript)

	// A request without a candidate turn opens the session; the scripted
	// opening is only prompt context and is not stored.
	if candidate, ok := newestCandidateTurn(req.Turns); ok {
		if req.Code != "" {
			candidate.Code = req.Code
		}
		r.submitTurn(req, types.RoleCandidate, candidate)
	}

	messages, err := r.buildMessages(req, history, live)
	if err != nil {
		outcome = "error"
		return err
	}

	buf, clientGone, genErr := r.generate(ctx, messages, emit)
	if strings.TrimSpace(buf) != "" {
		r.submitTurn(req, types.RoleInterviewer, interview.Turn{Role: types.RoleInterviewer, Content: buf})
	}

	switch {
	case errors.Is(genErr, ErrGenerationTimeout):
		outcome = "timeout"
		r.log.Warn("interviewer turn timed out", append(ctxutil.LogFields(ctx), "session_id", req.SessionID, "buffered_bytes", len(buf))...)
		return genErr
	case genErr != nil:
		outcome = "error"
		r.log.Warn("interviewer turn failed", append(ctxutil.LogFields(ctx), "session_id", req.SessionID, "error", genErr)...)
		return genErr
	case clientGone:
		outcome = "client_gone"
	}
	return nil
}

// transcriptFor prefers the client's transcript. A client that resumes with
// only its newest message gets the stored transcript prepended. A stored
// session must belong to the caller and still be active either way.
func (r *relay) transcriptFor(ctx context.Context, req RelayRequest) ([]interview.Turn, error) {
	dbc := dbctx.Context{Ctx: ctx}
	sess, err := r.sessRepo.GetByID(dbc, req.SessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if sess == nil {
		return req.Turns, nil
	}
	if sess.OwnerID != req.OwnerID {
		return nil, apierr.NotFound("session")
	}
	if sess.Status != types.StatusActive {
		return nil, apierr.Conflict("session_closed", ErrSessionClosed)
	}
	if len(req.Turns) > 1 {
		return req.Turns, nil
	}
	rows, err := r.turns.ListBySession(dbc, req.SessionID)
	if err != nil {
		return nil, fmt.Errorf("load transcript: %w", err)
	}
	stored := interview.FromStored(rows)
	return append(stored, req.Turns...), nil
}

func (r *relay) buildMessages(req RelayRequest, history []interview.Turn, live interview.Turn) ([]engine.Message, error) {
	role := "Software Engineer"
	if t, ok := r.catalog.Track(req.Config.Track); ok && t.Role != "" {
		role = t.Role
	}
	code := req.Code
	if code == "" {
		code = live.Code
	}
	p, err := prompts.Build(prompts.PromptInterviewer, prompts.Input{
		Role:             role,
		InterviewType:    req.Config.Type,
		Difficulty:       req.Config.Difficulty,
		Language:         req.Config.languageOrDefault(),
		CurrentCode:      code,
		CoveredTopicsCSV: strings.Join(req.CoveredTopics, ", "),
	})
	if err != nil {
		return nil, fmt.Errorf("build interviewer prompt: %w", err)
	}

	out := make([]engine.Message, 0, len(history)+2)
	out = append(out, engine.Message{Role: engine.RoleSystem, Content: p.System})
	for _, t := range history {
		role := engine.RoleUser
		if t.Role == types.RoleInterviewer {
			role = engine.RoleAssistant
		}
		out = append(out, engine.Message{Role: role, Content: t.Content})
	}
	out = append(out, engine.Message{Role: engine.RoleUser, Content: live.Content})
	return out, nil
}

// generate runs one StreamText call under the turn budget. The call is
// detached from ctx so a disconnect only stops forwarding. It returns as
// soon as the budget is spent, even when the backend is still blocked.
func (r *relay) generate(ctx context.Context, messages []engine.Message, emit func(string) error) (string, bool, error) {
	genCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()

	deltas := make(chan string, 64)
	done := make(chan error, 1)
	go func() {
		defer close(deltas)
		_, err := r.route.Engine.StreamText(genCtx, r.route.Model, messages,
			engine.GenerateOptions{Temperature: interviewerTemperature},
			func(delta string) {
				if delta == "" {
					return
				}
				select {
				case deltas <- delta:
				case <-genCtx.Done():
				}
			})
		done <- err
	}()

	var (
		buf        strings.Builder
		clientGone bool
		timedOut   bool
	)
loop:
	for {
		select {
		case d, ok := <-deltas:
			if !ok {
				break loop
			}
			buf.WriteString(d)
			if clientGone {
				continue
			}
			if err := emit(d); err != nil || ctx.Err() != nil {
				clientGone = true
			}
		case <-genCtx.Done():
			timedOut = true
			break loop
		}
	}

	if timedOut {
		// The producer may ignore cancellation; return with what has
		// arrived and leave it to exit on its own.
		cancel()
		if drainQueued(deltas, &buf) {
			if err := <-done; err == nil {
				return buf.String(), clientGone, nil
			}
		}
		return buf.String(), clientGone, ErrGenerationTimeout
	}

	err := <-done
	if err != nil && errors.Is(genCtx.Err(), context.DeadlineExceeded) {
		return buf.String(), clientGone, ErrGenerationTimeout
	}
	if err != nil {
		return buf.String(), clientGone, fmt.Errorf("stream interviewer turn: %w", err)
	}
	return buf.String(), clientGone, nil
}

// drainQueued moves already queued deltas into buf without blocking. It
// reports whether the producer had closed the channel.
func drainQueued(deltas <-chan string, buf *strings.Builder) bool {
	for {
		select {
		case d, ok := <-deltas:
			if !ok {
				return true
			}
			buf.WriteString(d)
		default:
			return false
		}
	}
}

func (r *relay) submitTurn(req RelayRequest, role string, turn interview.Turn) {
	if strings.TrimSpace(turn.Content) == "" {
		return
	}
	ok := r.persist.Submit(req.SessionID, jobAppendTurn, func(ctx context.Context) error {
		return r.sessions.AppendTurn(dbctx.Context{Ctx: ctx}, req.OwnerID, req.SessionID, req.Config, role, turn)
	})
	if !ok {
		r.log.Warn("turn not queued for persistence", "session_id", req.SessionID, "role", role)
	}
}

func lastContentTurn(turns []interview.Turn) (interview.Turn, bool) {
	for i := len(turns) - 1; i >= 0; i-- {
		t := turns[i]
		if t.Role != types.RoleSystem && strings.TrimSpace(t.Content) != "" {
			return t, true
		}
	}
	return interview.Turn{}, false
}

// newestCandidateTurn is the turn that triggered this request.
func newestCandidateTurn(turns []interview.Turn) (interview.Turn, bool) {
	if t, ok := lastContentTurn(turns); ok && t.Role != types.RoleInterviewer {
		t.Role = types.RoleCandidate
		return t, true
	}
	return interview.Turn{}, false
}
