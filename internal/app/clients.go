package app

import (
	"fmt"
	"strings"

	"github.com/yungbote/interview-backend/internal/data/db"
	"github.com/yungbote/interview-backend/internal/inference/router"
	"github.com/yungbote/interview-backend/internal/interview"
	"github.com/yungbote/interview-backend/internal/platform/cache"
	"github.com/yungbote/interview-backend/internal/platform/logger"
)

type Clients struct {
	DB      *db.Service
	Cache   cache.Cache
	Engine  router.Route
	Catalog *interview.Catalog
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	// Datastore
	store, err := db.New(cfg.DB, log)
	if err != nil {
		return Clients{}, fmt.Errorf("init db: %w", err)
	}
	if err := store.AutoMigrate(); err != nil {
		_ = store.Close()
		return Clients{}, fmt.Errorf("db automigrate: %w", err)
	}

	// Cache: Redis when configured, in-process otherwise.
	var c cache.Cache
	if strings.TrimSpace(cfg.Redis.Addr) != "" {
		c, err = cache.NewRedis(log, cfg.Redis.Addr, cfg.Redis.Prefix)
		if err != nil {
			_ = store.Close()
			return Clients{}, fmt.Errorf("init redis cache: %w", err)
		}
	} else {
		log.Info("REDIS_ADDR not set, using in-memory cache")
		c = cache.NewMemory()
	}

	// Generative backend
	route, err := router.New(cfg.Engine, log)
	if err != nil {
		_ = c.Close()
		_ = store.Close()
		return Clients{}, fmt.Errorf("init engine: %w", err)
	}

	// Topic catalog
	catalog := interview.DefaultCatalog()
	if p := strings.TrimSpace(cfg.Interview.CatalogPath); p != "" {
		catalog, err = interview.LoadCatalog(p)
		if err != nil {
			_ = c.Close()
			_ = store.Close()
			return Clients{}, fmt.Errorf("load topic catalog: %w", err)
		}
	}

	return Clients{DB: store, Cache: c, Engine: route, Catalog: catalog}, nil
}

func (c Clients) Close() {
	if c.Cache != nil {
		_ = c.Cache.Close()
	}
	if c.DB != nil {
		_ = c.DB.Close()
	}
}
