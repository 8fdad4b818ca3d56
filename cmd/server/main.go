package main // Entry point package

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/stadium-ops/internal/config"
	"github.com/iliyamo/stadium-ops/internal/database"
	"github.com/iliyamo/stadium-ops/internal/handler"
	"github.com/iliyamo/stadium-ops/internal/logging"
	"github.com/iliyamo/stadium-ops/internal/repository"
	"github.com/iliyamo/stadium-ops/internal/router"
	"github.com/iliyamo/stadium-ops/internal/scoring"
	"github.com/iliyamo/stadium-ops/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	rlCfg, err := config.LoadRateLimitConfig()
	if err != nil {
		logger.Fatal("rate limit config", zap.Error(err))
	}
	cacheCfg, err := config.LoadCacheConfig()
	if err != nil {
		logger.Fatal("cache config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, db, err := openStore(ctx, cfg)
	if err != nil {
		logger.Fatal("store", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}
	if db != nil {
		defer db.Close()
	}

	rdb := config.NewRedisClient(cfg.Redis)
	if rdb == nil {
		logger.Warn("redis unavailable; rate limiting and caching disabled", zap.String("addr", cfg.Redis.Address()))
	} else {
		defer rdb.Close()
	}

	var pub service.ActivityPublisher = service.NopPublisher{}
	if cfg.RabbitMQURL != "" {
		amqpPub := service.NewAMQPPublisher(cfg.RabbitMQURL, cfg.ActivityQueue, logger)
		defer amqpPub.Close()
		pub = amqpPub
	}

	rnd := scoring.NewRandSource()
	ai := scoring.NewHeuristic(rnd)
	tickets := service.NewTicketService(repos.Tickets, ai, pub, logger)
	dash := service.NewDashboard(repos,
		service.NewSimulator(repos.Zones, repos.Meters, rnd),
		service.RandomHealth{Min: cfg.SystemHealthMin, Max: cfg.SystemHealthMax, Rand: rnd})
	reports := &service.Reports{Zones: repos.Zones, Meters: repos.Meters, Crowd: ai, Forecast: ai}
	seeder := service.NewSeeder(repos, tickets, pub, logger)

	e := router.New(router.Deps{
		Cfg:       cfg,
		API:       handler.NewAPI(repos, dash, tickets, reports, seeder, logger),
		Auth:      handler.NewAuthHandler(cfg, repos.Users, repos.Sessions, logger),
		Sessions:  repos.Sessions,
		Redis:     rdb,
		RateLimit: rlCfg,
		Cache:     cacheCfg,
		Log:       logger,
	})

	addr := ":" + cfg.Port
	go func() {
		logger.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env), zap.String("store", cfg.StoreDriver))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}

// openStore returns the repositories for the configured driver.  The *sql.DB
// is nil for the memory driver.
func openStore(ctx context.Context, cfg config.Config) (repository.Repositories, *sql.DB, error) {
	if cfg.StoreDriver == config.StoreMemory {
		return repository.NewMemoryRepositories(), nil, nil
	}
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return repository.Repositories{}, nil, err
	}
	if cfg.DBAutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return repository.Repositories{}, nil, err
		}
	}
	return repository.NewMySQLRepositories(db), db, nil
}
