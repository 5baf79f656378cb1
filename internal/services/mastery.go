package services

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/interview-backend/internal/data/repos"
	types "github.com/yungbote/interview-backend/internal/domain/interview"
	"github.com/yungbote/interview-backend/internal/interview"
	"github.com/yungbote/interview-backend/internal/observability"
	"github.com/yungbote/interview-backend/internal/platform/apierr"
	"github.com/yungbote/interview-backend/internal/platform/dbctx"
	"github.com/yungbote/interview-backend/internal/platform/logger"
)

const defaultCategory = "General"

// MasteryView is an owner's mastery table. Reconstructed is set when no
// stored records existed and the values were replayed from history.
type MasteryView struct {
	Topics        []interview.MasteryEstimate `json:"topics"`
	Reconstructed bool                        `json:"reconstructed"`
}

type MasteryService interface {
	Normalize(topic string) string
	Upsert(dbc dbctx.Context, ownerID, topic, category string, score int) (*types.TopicMastery, error)
	List(dbc dbctx.Context, ownerID string) (*MasteryView, error)
	Reconstruct(dbc dbctx.Context, ownerID string) ([]interview.MasteryEstimate, error)
}

type masteryService struct {
	db       *gorm.DB
	log      *logger.Logger
	mastery  repos.TopicMasteryRepo
	sessions repos.SessionRepo
	catalog  *interview.Catalog
	now      func() time.Time
}

func NewMasteryService(db *gorm.DB, baseLog *logger.Logger, repoSet repos.Set, catalog *interview.Catalog) MasteryService {
	return &masteryService{
		db:       db,
		log:      baseLog.With("service", "MasteryService"),
		mastery:  repoSet.TopicMastery,
		sessions: repoSet.Session,
		catalog:  catalog,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *masteryService) Normalize(topic string) string {
	return s.catalog.Normalize(topic)
}

// Upsert folds one observed score into the owner's estimate for the
// canonical form of topic.
func (s *masteryService) Upsert(dbc dbctx.Context, ownerID, topic, category string, score int) (*types.TopicMastery, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, apierr.Validation("owner id required")
	}
	canonical := s.Normalize(topic)
	if canonical == "" {
		return nil, apierr.Validation("topic required")
	}
	category = strings.TrimSpace(category)
	if category == "" {
		category = defaultCategory
	}

	row, err := s.mastery.ApplyScore(dbc, &types.TopicMastery{
		OwnerID:  ownerID,
		TopicKey: interview.TopicKey(canonical),
		Topic:    canonical,
		Category: category,
	}, score, s.now())
	if err != nil {
		observability.Current().IncMasteryUpdate("error")
		return nil, fmt.Errorf("apply mastery score: %w", err)
	}
	observability.Current().IncMasteryUpdate("ok")
	return row, nil
}

func (s *masteryService) List(dbc dbctx.Context, ownerID string) (*MasteryView, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, apierr.Validation("owner id required")
	}
	rows, err := s.mastery.ListByOwner(dbc, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list mastery: %w", err)
	}
	if len(rows) > 0 {
		out := make([]interview.MasteryEstimate, 0, len(rows))
		for _, r := range rows {
			out = append(out, interview.MasteryEstimate{
				Topic:         r.Topic,
				Category:      r.Category,
				MasteryLevel:  r.MasteryLevel,
				SessionsCount: r.SessionsCount,
				LastPracticed: r.LastPracticed,
			})
		}
		interview.SortMastery(out)
		return &MasteryView{Topics: out}, nil
	}

	rebuilt, err := s.Reconstruct(dbc, ownerID)
	if err != nil {
		return nil, err
	}
	return &MasteryView{Topics: rebuilt, Reconstructed: len(rebuilt) > 0}, nil
}

// Reconstruct replays completed sessions without writing anything.
func (s *masteryService) Reconstruct(dbc dbctx.Context, ownerID string) ([]interview.MasteryEstimate, error) {
	sessions, err := s.sessions.ListCompletedByOwner(dbc, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list completed sessions: %w", err)
	}
	out := interview.ReconstructMastery(sessions, s.Normalize)
	if out == nil {
		out = []interview.MasteryEstimate{}
	}
	return out, nil
}
