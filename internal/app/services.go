package app

import (
	"github.com/yungbote/interview-backend/internal/data/repos"
	"github.com/yungbote/interview-backend/internal/jobs/persist"
	"github.com/yungbote/interview-backend/internal/platform/logger"
	"github.com/yungbote/interview-backend/internal/services"
)

type Services struct {
	Sessions services.SessionService
	Relay    services.Relay
	Mastery  services.MasteryService
	Stats    services.StatsService
	Keys     services.KeyService
	Articles services.ArticleService
}

func wireServices(log *logger.Logger, cfg Config, clients Clients, reposet repos.Set, queue *persist.Queue) Services {
	log.Info("Wiring services...")
	db := clients.DB.DB()
	timeouts := services.Timeouts{
		Turn:        cfg.Interview.TurnTimeout.Duration,
		Report:      cfg.Interview.ReportTimeout.Duration,
		Suggestions: cfg.Interview.SuggestionsTimeout.Duration,
		KeyCheck:    cfg.Interview.KeyCheckTimeout.Duration,
		Article:     cfg.Interview.ArticleTimeout.Duration,
	}

	mastery := services.NewMasteryService(db, log, reposet, clients.Catalog)
	sessions := services.NewSessionService(db, log, reposet, mastery, clients.Engine, clients.Catalog, queue, timeouts)
	return Services{
		Sessions: sessions,
		Relay:    services.NewRelay(log, reposet, sessions, clients.Engine, clients.Catalog, queue, timeouts),
		Mastery:  mastery,
		Stats:    services.NewStatsService(db, log, reposet, clients.Engine, clients.Cache, timeouts),
		Keys:     services.NewKeyService(log, clients.Engine, timeouts),
		Articles: services.NewArticleService(db, log, reposet, clients.Engine, clients.Catalog, timeouts),
	}
}
