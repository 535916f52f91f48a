// File: cmd/app/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"course-progression/internal/config"
	"course-progression/internal/infra/api"
	"course-progression/internal/infra/api/apiv1"
	pg "course-progression/internal/infra/db/postgres"
	"course-progression/internal/infra/logging"
	"course-progression/internal/infra/metrics"
	red "course-progression/internal/infra/redis"
	"course-progression/internal/infra/sched"
	"course-progression/internal/usecase"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Set with -ldflags "-X main.version=... -X main.commit=...".
var (
	version = "dev"
	commit  = "none"
)

func main() {
	// ---- Config ----
	cfg, err := config.LoadConfig()
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("load config")
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("[DEV MODE] Enabled: PII is logged unredacted")
	}
	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()
	if cfg.Database.Migrate {
		if err := pg.Migrate(ctx, pool); err != nil {
			logger.Fatal().Err(err).Msg("migrate")
		}
		logger.Info().Msg("schema applied")
	}

	// ---- Redis ----
	var cache red.RedisClient
	if cfg.Redis.URL == "" {
		logger.Warn().Msg("redis.url not set; catalog cache disabled")
		cache = red.NewNoopClient()
	} else {
		rc, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis")
		}
		cache = rc
	}
	defer cache.Close()

	// ---- Repositories ----
	txManager := pg.NewTxManager(pool)
	userRepo := pg.NewUserRepo(pool)
	keyRepo := pg.NewRegistrationKeyRepo(pool)
	enrollRepo := pg.NewEnrollmentRepo(pool)
	progRepo := pg.NewProgressRepo(pool)
	quizRepo := pg.NewQuizRepo(pool)
	courseRepo := pg.NewCourseRepoCacheDecorator(pg.NewCourseRepo(pool), cache, cfg.Redis.TTL)
	episodeRepo := pg.NewEpisodeRepoCacheDecorator(pg.NewEpisodeRepo(pool), cache, cfg.Redis.TTL)

	// ---- Use cases ----
	accessUC := usecase.NewAccessUseCase(courseRepo, enrollRepo, keyRepo, userRepo, logger)
	keyUC := usecase.NewKeyUseCase(keyRepo, userRepo, enrollRepo, txManager, logger, cfg.Runtime.Dev)
	progressUC := usecase.NewProgressUseCase(episodeRepo, progRepo, quizRepo, enrollRepo, accessUC, txManager, logger)
	quizUC := usecase.NewQuizUseCase(episodeRepo, progRepo, quizRepo, accessUC, logger)
	statsUC := usecase.NewStatsUseCase(keyRepo, enrollRepo, logger)

	// ---- HTTP ----
	auth := apiv1.NewAuthManager(cfg.Auth.JWTSecret, cfg.Auth.SecureCookie, cfg.Auth.TokenTTL)
	apiSrv := apiv1.NewServer(keyUC, accessUC, progressUC, quizUC, auth, cfg.Admin.APIKey, logger)
	router := apiv1.NewRouter(apiSrv, logger, cfg.HTTP.RequestTimeout)
	server := api.NewServer(cfg.HTTP, router, logger)

	// ---- Stats job ----
	statsJob := sched.NewStatsJob(cfg.Scheduler.StatsCron, statsUC, func() (int32, int32, int32) {
		s := pool.Stat()
		return s.TotalConns(), s.IdleConns(), s.AcquiredConns()
	}, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	g.Go(func() error {
		err := statsJob.Run(gctx)
		if gctx.Err() != nil {
			return nil
		}
		return err
	})

	// ---- Graceful shutdown ----
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutdown requested")
		sctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(sctx)
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("server stopped with error")
		os.Exit(1)
	}
	logger.Info().Msg("bye")
}
