package interview

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/interview-backend/internal/domain/interview"
	"github.com/yungbote/interview-backend/internal/platform/dbctx"
	"github.com/yungbote/interview-backend/internal/platform/logger"
)

type TurnRepo interface {
	// Append assigns the next seq for the session and inserts row.
	Append(dbc dbctx.Context, row *types.Turn) error
	ListBySession(dbc dbctx.Context, sessionID string) ([]*types.Turn, error)
}

type turnRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTurnRepo(db *gorm.DB, baseLog *logger.Logger) TurnRepo {
	return &turnRepo{db: db, log: baseLog.With("repo", "TurnRepo")}
}

func (r *turnRepo) Append(dbc dbctx.Context, row *types.Turn) error {
	if row == nil || row.SessionID == "" || row.Role == "" {
		return fmt.Errorf("invalid turn")
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	return dbc.DB(r.db).WithContext(dbc.Context()).Transaction(func(tx *gorm.DB) error {
		var maxSeq int64
		if err := tx.Model(&types.Turn{}).
			Where("session_id = ?", row.SessionID).
			Select("COALESCE(MAX(seq), 0)").
			Scan(&maxSeq).Error; err != nil {
			return err
		}
		row.Seq = maxSeq + 1
		return tx.Create(row).Error
	})
}

func (r *turnRepo) ListBySession(dbc dbctx.Context, sessionID string) ([]*types.Turn, error) {
	out := []*types.Turn{}
	if sessionID == "" {
		return out, nil
	}
	if err := dbc.DB(r.db).WithContext(dbc.Context()).
		Where("session_id = ?", sessionID).
		Order("seq ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
