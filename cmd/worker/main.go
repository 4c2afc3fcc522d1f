package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ChandrashakerVarma/LMS-sub000/internal/app"
	"github.com/ChandrashakerVarma/LMS-sub000/internal/authz"
	"github.com/ChandrashakerVarma/LMS-sub000/internal/bootstrap"
	jobmetrics "github.com/ChandrashakerVarma/LMS-sub000/internal/jobs"
	"github.com/ChandrashakerVarma/LMS-sub000/internal/platform/cache"
	"github.com/ChandrashakerVarma/LMS-sub000/internal/platform/db"
	"github.com/ChandrashakerVarma/LMS-sub000/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)
	if cfg.RedisAddr == "" {
		logger.Error("worker requires REDIS_ADDR")
		os.Exit(1)
	}

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	// The worker holds no authorization state of its own; its cache exists
	// only to forward reseed invalidations to the API instances.
	authzCache := authz.NewAuthzCache(cfg.CacheConfig(), logger)
	authzCache.SetBroadcaster(authz.NewRedisBus(redisClient, authz.DefaultChannel, logger))

	seeder := bootstrap.NewSeeder(bootstrap.NewPgStore(pool), authzCache, bootstrap.ModeIdempotent, logger)
	authzJobs := jobs.NewAuthzJobs(seeder, seeder, jobmetrics.NewMetrics(nil), logger)

	var cron []jobs.CronRegistration
	if cfg.DriftCheckSpec != "" {
		cron = append(cron, jobs.CronRegistration{Spec: cfg.DriftCheckSpec, Task: jobs.NewDriftCheckTask()})
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: cache.AsynqOpt(cfg.RedisAddr),
		Logger:    logger,
		Handlers:  authzJobs.Handlers(),
		Cron:      cron,
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("starting worker", slog.String("drift_check", cfg.DriftCheckSpec))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
