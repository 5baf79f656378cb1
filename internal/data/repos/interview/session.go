package interview

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/interview-backend/internal/domain/interview"
	"github.com/yungbote/interview-backend/internal/platform/dbctx"
	"github.com/yungbote/interview-backend/internal/platform/logger"
)

type SessionFilter struct {
	Status string
	Limit  int
	Offset int
}

type SessionRepo interface {
	// Create inserts row unless a session with the same id exists. It reports
	// whether a row was written.
	Create(dbc dbctx.Context, row *types.Session) (bool, error)
	GetByID(dbc dbctx.Context, id string) (*types.Session, error)
	ListByOwner(dbc dbctx.Context, ownerID string, f SessionFilter) ([]*types.Session, error)
	ListCompletedByOwner(dbc dbctx.Context, ownerID string) ([]*types.Session, error)
	// Complete writes the report and flips an active session to completed in
	// one statement. It reports false when the session was not active.
	Complete(dbc dbctx.Context, id string, report types.Report, durationSeconds *int, at time.Time) (bool, error)
	TransitionStatus(dbc dbctx.Context, id string, from, to string) (bool, error)
}

type sessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSessionRepo(db *gorm.DB, baseLog *logger.Logger) SessionRepo {
	return &sessionRepo{db: db, log: baseLog.With("repo", "SessionRepo")}
}

func (r *sessionRepo) Create(dbc dbctx.Context, row *types.Session) (bool, error) {
	if row == nil || strings.TrimSpace(row.ID) == "" || strings.TrimSpace(row.OwnerID) == "" {
		return false, fmt.Errorf("invalid session")
	}
	now := time.Now().UTC()
	if row.StartedAt.IsZero() {
		row.StartedAt = now
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = now
	}
	row.UpdatedAt = now
	if row.Status == "" {
		row.Status = types.StatusActive
	}
	res := dbc.DB(r.db).WithContext(dbc.Context()).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *sessionRepo) GetByID(dbc dbctx.Context, id string) (*types.Session, error) {
	if strings.TrimSpace(id) == "" {
		return nil, nil
	}
	var out types.Session
	err := dbc.DB(r.db).WithContext(dbc.Context()).
		Where("id = ?", id).
		First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *sessionRepo) ListByOwner(dbc dbctx.Context, ownerID string, f SessionFilter) ([]*types.Session, error) {
	out := []*types.Session{}
	if ownerID == "" {
		return out, nil
	}
	q := dbc.DB(r.db).WithContext(dbc.Context()).
		Where("owner_id = ?", ownerID)
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}
	if err := q.Order("started_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *sessionRepo) ListCompletedByOwner(dbc dbctx.Context, ownerID string) ([]*types.Session, error) {
	out := []*types.Session{}
	if ownerID == "" {
		return out, nil
	}
	if err := dbc.DB(r.db).WithContext(dbc.Context()).
		Where("owner_id = ? AND status = ?", ownerID, types.StatusCompleted).
		Order("started_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *sessionRepo) Complete(dbc dbctx.Context, id string, report types.Report, durationSeconds *int, at time.Time) (bool, error) {
	if id == "" {
		return false, fmt.Errorf("missing session id")
	}
	score := report.Score
	res := dbc.DB(r.db).WithContext(dbc.Context()).
		Model(&types.Session{}).
		Where("id = ? AND status = ?", id, types.StatusActive).
		Updates(map[string]interface{}{
			"status":           types.StatusCompleted,
			"score":            score,
			"strengths":        datatypes.JSONSlice[string](report.Strengths),
			"improvements":     datatypes.JSONSlice[string](report.Improvements),
			"summary":          report.Summary,
			"topics_evaluated": datatypes.JSONSlice[types.TopicScore](report.TopicsEvaluated),
			"duration_seconds": durationSeconds,
			"completed_at":     at,
			"updated_at":       at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *sessionRepo) TransitionStatus(dbc dbctx.Context, id string, from, to string) (bool, error) {
	if id == "" {
		return false, fmt.Errorf("missing session id")
	}
	res := dbc.DB(r.db).WithContext(dbc.Context()).
		Model(&types.Session{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
