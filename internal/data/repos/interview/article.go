package interview

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/interview-backend/internal/domain/interview"
	"github.com/yungbote/interview-backend/internal/platform/dbctx"
	"github.com/yungbote/interview-backend/internal/platform/logger"
)

// articleListColumns leaves out the article body and lists.
var articleListColumns = []string{"id", "track", "topic_key", "topic", "category", "title", "difficulty", "created_at", "updated_at"}

type ArticleRepo interface {
	// Create inserts row unless the track already has an article for
	// row.TopicKey. It reports whether a row was written.
	Create(dbc dbctx.Context, row *types.KnowledgeArticle) (bool, error)
	GetByTopic(dbc dbctx.Context, track, topicKey string) (*types.KnowledgeArticle, error)
	// ListByTrack returns article headers ordered by category and topic. An
	// empty track lists every track.
	ListByTrack(dbc dbctx.Context, track string) ([]*types.KnowledgeArticle, error)
}

type articleRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewArticleRepo(db *gorm.DB, baseLog *logger.Logger) ArticleRepo {
	return &articleRepo{db: db, log: baseLog.With("repo", "ArticleRepo")}
}

func (r *articleRepo) Create(dbc dbctx.Context, row *types.KnowledgeArticle) (bool, error) {
	if row == nil || row.Track == "" || row.TopicKey == "" {
		return false, fmt.Errorf("invalid knowledge article")
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	now := time.Now().UTC()
	if row.CreatedAt.IsZero() {
		row.CreatedAt = now
	}
	row.UpdatedAt = now
	res := dbc.DB(r.db).WithContext(dbc.Context()).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "track"}, {Name: "topic_key"}},
			DoNothing: true,
		}).
		Create(row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *articleRepo) GetByTopic(dbc dbctx.Context, track, topicKey string) (*types.KnowledgeArticle, error) {
	if track == "" || topicKey == "" {
		return nil, nil
	}
	var out types.KnowledgeArticle
	err := dbc.DB(r.db).WithContext(dbc.Context()).
		Where("track = ? AND topic_key = ?", track, topicKey).
		First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *articleRepo) ListByTrack(dbc dbctx.Context, track string) ([]*types.KnowledgeArticle, error) {
	out := []*types.KnowledgeArticle{}
	q := dbc.DB(r.db).WithContext(dbc.Context()).Select(articleListColumns)
	if track != "" {
		q = q.Where("track = ?", track)
	}
	if err := q.Order("category ASC").Order("topic ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
