package app

import (
	"context"
	"net/http"

	crerr "github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/draftkit/nba-drafter/internal/config"
	"github.com/draftkit/nba-drafter/internal/domain/roster"
	"github.com/draftkit/nba-drafter/internal/infrastructure/repository/postgres"
	"github.com/draftkit/nba-drafter/internal/infrastructure/rotowire"
	"github.com/draftkit/nba-drafter/internal/platform/cache"
	"github.com/draftkit/nba-drafter/internal/platform/logging"
	"github.com/draftkit/nba-drafter/internal/platform/resilience"
	"github.com/draftkit/nba-drafter/internal/usecase"
)

// Container wires the row store, the lineup feed and the drafter services
// for the CLI commands.
type Container struct {
	cfg    config.Config
	logger *logging.Logger
	db     *sqlx.DB

	Teams       *postgres.TeamRepository
	Players     *postgres.PlayerRepository
	Games       *postgres.GameRepository
	Stats       *postgres.StatsRepository
	FeatureRows *postgres.FeatureRepository

	History  *usecase.HistoryService
	Features *usecase.FeatureService
	Cache    *usecase.CacheService
	Lineups  *usecase.LineupService
	Feed     usecase.LineupFeed
}

func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*Container, error) {
	if logger == nil {
		logger = logging.Default()
	}

	db, err := sqlx.ConnectContext(ctx, "postgres", normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary))
	if err != nil {
		return nil, crerr.Wrapf(err, "connect to database %q", dbNameFromURL(cfg.DBURL))
	}

	teamRepo := postgres.NewTeamRepository(db)
	playerRepo := postgres.NewPlayerRepository(db)
	gameRepo := postgres.NewGameRepository(db)
	statsRepo := postgres.NewStatsRepository(db)
	featureRepo := postgres.NewFeatureRepository(db)

	featureCfg := usecase.FeatureConfig{
		WindowSize:    cfg.WindowSize,
		MinAvgSeconds: cfg.MinAvgSeconds,
		MinGames:      cfg.MinGames,
		WorkerReserve: cfg.WorkerReserve,
	}

	var store *cache.Store
	if cfg.CacheEnabled {
		store = cache.NewStore(cfg.CacheTTL)
	}

	history := usecase.NewHistoryService(statsRepo, gameRepo, logger)
	features := usecase.NewFeatureService(featureCfg, history, statsRepo, featureRepo, playerRepo, teamRepo, store, logger)
	cacheSvc := usecase.NewCacheService(featureCfg, history, statsRepo, playerRepo, featureRepo, logger)
	lineups := usecase.NewLineupService(usecase.LineupConfig{
		PoolSize: cfg.LineupPoolSize,
		Rules: roster.Rules{
			Size:               roster.DefaultRules().Size,
			BudgetCap:          cfg.SalaryBudget,
			MinSpend:           cfg.MinSalarySpend,
			MinProjectedPoints: cfg.MinLineupPoints,
		},
		KeepLimit:     cfg.LineupKeepLimit,
		MinDifference: cfg.LineupMinDifference,
		LineupCount:   cfg.LineupCount,
		WorkerReserve: cfg.WorkerReserve,
	}, logger)

	feed := rotowire.NewClient(rotowire.ClientConfig{
		HTTPClient: &http.Client{Timeout: cfg.RotowireTimeout},
		BaseURL:    cfg.RotowireBaseURL,
		Token:      cfg.RotowireToken,
		Timeout:    cfg.RotowireTimeout,
		MaxRetries: cfg.RotowireMaxRetries,
		CacheTTL:   cfg.RotowireCacheTTL,
		Logger:     logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.RotowireCircuitEnabled,
			FailureThreshold: cfg.RotowireCircuitFailureCount,
			OpenTimeout:      cfg.RotowireCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.RotowireCircuitHalfOpenMaxReq,
		},
	})

	return &Container{
		cfg:         cfg,
		logger:      logger,
		db:          db,
		Teams:       teamRepo,
		Players:     playerRepo,
		Games:       gameRepo,
		Stats:       statsRepo,
		FeatureRows: featureRepo,
		History:     history,
		Features:    features,
		Cache:       cacheSvc,
		Lineups:     lineups,
		Feed:        feed,
	}, nil
}

// Predictions builds the candidate scorer around the given model. The
// model is supplied by the caller because training happens per run.
func (c *Container) Predictions(predictor usecase.Predictor) *usecase.PredictionService {
	return usecase.NewPredictionService(
		usecase.PredictionConfig{
			AvgPointsFloor: c.cfg.AvgPointsFloor,
			WindowSize:     c.cfg.WindowSize,
		},
		c.Features,
		c.History,
		c.Players,
		c.Teams,
		c.Feed,
		predictor,
		c.logger,
	)
}

func (c *Container) Close() error {
	return c.db.Close()
}
