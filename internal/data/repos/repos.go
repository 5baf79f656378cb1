package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/interview-backend/internal/data/repos/interview"
	"github.com/yungbote/interview-backend/internal/platform/logger"
)

type SessionRepo = interview.SessionRepo
type TurnRepo = interview.TurnRepo
type TopicMasteryRepo = interview.TopicMasteryRepo
type ArticleRepo = interview.ArticleRepo

type SessionFilter = interview.SessionFilter

// Set is every repository the services layer depends on.
type Set struct {
	Session      SessionRepo
	Turn         TurnRepo
	TopicMastery TopicMasteryRepo
	Article      ArticleRepo
}

func New(db *gorm.DB, log *logger.Logger) Set {
	return Set{
		Session:      interview.NewSessionRepo(db, log),
		Turn:         interview.NewTurnRepo(db, log),
		TopicMastery: interview.NewTopicMasteryRepo(db, log),
		Article:      interview.NewArticleRepo(db, log),
	}
}
