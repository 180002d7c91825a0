package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	semconv "go.opentelemetry.io/otel/semconv/v1.12.0"

	"github.com/gridplay/boxgame/internal/config"
	"github.com/gridplay/boxgame/internal/domain/entry"
	"github.com/gridplay/boxgame/internal/domain/game"
	"github.com/gridplay/boxgame/internal/domain/projection"
	"github.com/gridplay/boxgame/internal/infrastructure/projections"
	"github.com/gridplay/boxgame/internal/infrastructure/repository/memory"
	"github.com/gridplay/boxgame/internal/infrastructure/repository/postgres"
	"github.com/gridplay/boxgame/internal/interfaces/httpapi"
	idgen "github.com/gridplay/boxgame/internal/platform/id"
	"github.com/gridplay/boxgame/internal/platform/logging"
	"github.com/gridplay/boxgame/internal/platform/randsrc"
	"github.com/gridplay/boxgame/internal/platform/resilience"
	"github.com/gridplay/boxgame/internal/usecase"
)

func NewHTTPServer(cfg config.Config, logger *logging.Logger) (*http.Server, error) {
	if logger == nil {
		logger = logging.Default()
	}

	store, err := newGameStore(cfg, logger)
	if err != nil {
		return nil, err
	}

	source := newProjectionSource(cfg, logger)

	rand := newRandSource(cfg)
	pool := usecase.NewBoxPoolGenerator(source, rand)
	idGenerator := idgen.NewRandomGenerator()

	entrySvc := usecase.NewEntryService(store, pool, idGenerator, logger)
	gameSvc := usecase.NewGameService(store, pool, rand, idGenerator, logger)
	replaySvc := usecase.NewReplayService(store, cfg.VerifyWorkers, logger)

	handler := httpapi.NewHandler(entrySvc, gameSvc, replaySvc, logger)
	router := httpapi.NewRouter(handler, logger, cfg.CORSAllowedOrigins, cfg.InternalJobToken)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	if server.Addr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	return server, nil
}

func newGameStore(cfg config.Config, logger *logging.Logger) (game.Store, error) {
	if cfg.DBURL == "" {
		logger.Warn("DB_URL is empty, using in-memory store")
		return memory.NewStore(), nil
	}

	dbURL := normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary)
	db, err := otelsqlx.Connect("postgres", dbURL,
		otelsql.WithAttributes(semconv.DBSystemPostgreSQL),
		otelsql.WithDBName(dbNameFromURL(cfg.DBURL)),
	)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	return postgres.NewStore(db), nil
}

func newProjectionSource(cfg config.Config, logger *logging.Logger) projection.Source {
	if cfg.ProjectionsBaseURL == "" {
		logger.Warn("PROJECTIONS_BASE_URL is empty, using in-memory projection source")
		return memory.NewProjectionSource()
	}

	client := projections.NewClient(projections.ClientConfig{
		BaseURL:    cfg.ProjectionsBaseURL,
		Token:      cfg.ProjectionsToken,
		Timeout:    cfg.ProjectionsTimeout,
		MaxRetries: cfg.ProjectionsMaxRetries,
		CacheTTL:   cfg.ProjectionsCacheTTL,
		Logger:     logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.ProjectionsCircuitEnabled,
			FailureThreshold: cfg.ProjectionsCircuitFailureCount,
			OpenTimeout:      cfg.ProjectionsCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.ProjectionsCircuitHalfOpenMaxReq,
		},
	})

	if cfg.ProjectionsWarmupWeek > 0 {
		positions := make([]string, 0, len(entry.AllPositions))
		for position := range entry.AllPositions {
			positions = append(positions, string(position))
		}
		go func() {
			if err := client.WarmUp(context.Background(), positions, cfg.ProjectionsWarmupWeek); err != nil {
				logger.Warn("projections warmup incomplete", "week", cfg.ProjectionsWarmupWeek, "error", err)
			}
		}()
	}

	return client
}

func newRandSource(cfg config.Config) randsrc.Source {
	if cfg.GameRandSeed != 0 {
		return randsrc.NewSeeded(cfg.GameRandSeed)
	}
	return randsrc.New()
}
