package main

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/garprun/garprun/internal/app"
	"github.com/garprun/garprun/internal/config"
	"github.com/garprun/garprun/internal/data/cache"
	httpapi "github.com/garprun/garprun/internal/interfaces/http"
	"github.com/garprun/garprun/internal/persistence"
	"github.com/garprun/garprun/internal/persistence/postgres"
	"github.com/garprun/garprun/internal/providers"
)

// stack bundles the wired infrastructure for one command invocation.
type stack struct {
	cfg     *config.Config
	fmp     *providers.FMPClient
	cache   cache.Cache
	runs    persistence.RunsRepo
	closers []func()
}

func (s *stack) Close() {
	for _, closer := range s.closers {
		closer()
	}
}

// buildStack wires providers, cache and persistence from the config file.
// The API key may come from the environment when the file omits it.
func buildStack(configPath string) (*stack, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	apiKey := cfg.Provider.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("FMP_API_KEY")
	}

	transport := providers.NewTransport(
		cfg.Provider.RequestTimeout,
		cfg.Provider.RateLimitRPS,
		cfg.Provider.RateLimitBurst,
		"fmp",
	)

	s := &stack{
		cfg: cfg,
		fmp: providers.NewFMPClient(cfg.Provider.BaseURL, apiKey, transport),
	}

	if cfg.Cache.Enabled {
		if cfg.Cache.RedisAddr != "" {
			redisCache := cache.NewRedisCache(cfg.Cache.RedisAddr, cfg.Cache.RedisDB)
			s.cache = redisCache
			s.closers = append(s.closers, func() { redisCache.Close() })
			log.Debug().Str("addr", cfg.Cache.RedisAddr).Msg("Using Redis cache")
		} else {
			ttlCache := cache.NewTTLCache(cfg.Cache.MaxEntries)
			s.cache = ttlCache
			s.closers = append(s.closers, ttlCache.Close)
		}
	}

	if cfg.Database.DSN != "" {
		db, err := postgres.Open(cfg.Database.DSN)
		if err != nil {
			return nil, err
		}
		migrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := postgres.Migrate(migrateCtx, db); err != nil {
			db.Close()
			return nil, err
		}
		s.runs = postgres.NewRunsRepo(db, cfg.Database.QueryTimeout)
		s.closers = append(s.closers, func() { db.Close() })
	}

	return s, nil
}

// hubSink forwards orchestrator progress events to websocket clients.
type hubSink struct {
	hub *httpapi.Hub
}

func (h hubSink) Publish(event app.ProgressEvent) {
	h.hub.Publish(httpapi.ProgressEvent{
		RunID:     event.RunID,
		Stage:     event.Stage,
		Symbol:    event.Symbol,
		Completed: event.Completed,
		Total:     event.Total,
		Message:   event.Message,
	})
}
