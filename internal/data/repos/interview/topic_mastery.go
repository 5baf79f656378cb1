package interview

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/interview-backend/internal/domain/interview"
	ivcore "github.com/yungbote/interview-backend/internal/interview"
	"github.com/yungbote/interview-backend/internal/platform/dbctx"
	"github.com/yungbote/interview-backend/internal/platform/logger"
)

type TopicMasteryRepo interface {
	// ApplyScore folds one observed score into the owner's record for
	// row.TopicKey in a single statement. A missing record is created with
	// the clamped score; an existing one is blended 70/30 toward the score.
	ApplyScore(dbc dbctx.Context, row *types.TopicMastery, score int, at time.Time) (*types.TopicMastery, error)
	GetByKey(dbc dbctx.Context, ownerID, topicKey string) (*types.TopicMastery, error)
	ListByOwner(dbc dbctx.Context, ownerID string) ([]*types.TopicMastery, error)
}

type topicMasteryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTopicMasteryRepo(db *gorm.DB, baseLog *logger.Logger) TopicMasteryRepo {
	return &topicMasteryRepo{db: db, log: baseLog.With("repo", "TopicMasteryRepo")}
}

// blendSQL is clamp(round(0.7*current + 0.3*score), 0, 100) evaluated
// against the conflicting row. It takes the score three times.
const blendSQL = "CASE" +
	" WHEN ROUND(0.7 * topic_mastery.mastery_level + 0.3 * ?) > 100 THEN 100" +
	" WHEN ROUND(0.7 * topic_mastery.mastery_level + 0.3 * ?) < 0 THEN 0" +
	" ELSE CAST(ROUND(0.7 * topic_mastery.mastery_level + 0.3 * ?) AS INTEGER) END"

func (r *topicMasteryRepo) ApplyScore(dbc dbctx.Context, row *types.TopicMastery, score int, at time.Time) (*types.TopicMastery, error) {
	if row == nil || row.OwnerID == "" || row.TopicKey == "" {
		return nil, fmt.Errorf("invalid topic mastery")
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	row.MasteryLevel = ivcore.Clamp(score)
	row.SessionsCount = 1
	row.LastPracticed = at
	row.CreatedAt = at
	row.UpdatedAt = at

	// Bound as an integer so the blend stays NUMERIC and ROUND goes half
	// away from zero on Postgres as on SQLite.
	s := int64(score)
	err := dbc.DB(r.db).WithContext(dbc.Context()).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "owner_id"},
				{Name: "topic_key"},
			},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"mastery_level":  gorm.Expr(blendSQL, s, s, s),
				"sessions_count": gorm.Expr("topic_mastery.sessions_count + 1"),
				"last_practiced": at,
				"updated_at":     at,
			}),
		}).
		Create(row).Error
	if err != nil {
		return nil, err
	}
	return r.GetByKey(dbc, row.OwnerID, row.TopicKey)
}

func (r *topicMasteryRepo) GetByKey(dbc dbctx.Context, ownerID, topicKey string) (*types.TopicMastery, error) {
	var out types.TopicMastery
	err := dbc.DB(r.db).WithContext(dbc.Context()).
		Where("owner_id = ? AND topic_key = ?", ownerID, topicKey).
		First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *topicMasteryRepo) ListByOwner(dbc dbctx.Context, ownerID string) ([]*types.TopicMastery, error) {
	out := []*types.TopicMastery{}
	if ownerID == "" {
		return out, nil
	}
	if err := dbc.DB(r.db).WithContext(dbc.Context()).
		Where("owner_id = ?", ownerID).
		Order("category ASC").
		Order("topic ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
