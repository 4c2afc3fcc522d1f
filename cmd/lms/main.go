package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ChandrashakerVarma/LMS-sub000/internal/app"
	"github.com/ChandrashakerVarma/LMS-sub000/internal/auth"
	"github.com/ChandrashakerVarma/LMS-sub000/internal/authz"
	authzhttp "github.com/ChandrashakerVarma/LMS-sub000/internal/authz/http"
	"github.com/ChandrashakerVarma/LMS-sub000/internal/bootstrap"
	"github.com/ChandrashakerVarma/LMS-sub000/internal/menus"
	menushttp "github.com/ChandrashakerVarma/LMS-sub000/internal/menus/http"
	"github.com/ChandrashakerVarma/LMS-sub000/internal/observability"
	"github.com/ChandrashakerVarma/LMS-sub000/internal/platform/cache"
	"github.com/ChandrashakerVarma/LMS-sub000/internal/platform/db"
	"github.com/ChandrashakerVarma/LMS-sub000/internal/rights"
	rightshttp "github.com/ChandrashakerVarma/LMS-sub000/internal/rights/http"
	"github.com/ChandrashakerVarma/LMS-sub000/internal/roles"
	roleshttp "github.com/ChandrashakerVarma/LMS-sub000/internal/roles/http"
	"github.com/ChandrashakerVarma/LMS-sub000/internal/shared"
	"github.com/ChandrashakerVarma/LMS-sub000/internal/users"
	usershttp "github.com/ChandrashakerVarma/LMS-sub000/internal/users/http"
	"github.com/ChandrashakerVarma/LMS-sub000/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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
	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("lms", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *app.Config, logger *slog.Logger) error {
	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		return err
	}
	defer dbpool.Close()

	redisClient, err := cache.Optional(ctx, cfg.RedisAddr)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	} else {
		logger.Warn("REDIS_ADDR not set; cache invalidations stay local to this instance")
	}

	metrics := observability.NewMetrics()
	authzMetrics := authz.NewMetrics(metrics.Registerer())
	authzCache := authz.NewAuthzCache(cfg.CacheConfig(), logger)
	authzCache.SetMetrics(authzMetrics)
	if redisClient != nil {
		bus := authz.NewRedisBus(redisClient, authz.DefaultChannel, logger)
		authzCache.SetBroadcaster(bus)
		if err := bus.Listen(ctx, authzCache); err != nil {
			return fmt.Errorf("subscribe invalidations: %w", err)
		}
		logger.Info("authz invalidation bus ready", slog.String("instance", bus.InstanceID()))
	}

	seeder := bootstrap.NewSeeder(bootstrap.NewPgStore(dbpool), authzCache, cfg.Mode(), logger)
	report, err := seeder.Run(ctx)
	if err != nil {
		if errors.Is(err, bootstrap.ErrDrift) {
			return fmt.Errorf("refusing to start: stored catalog %q differs from compiled %q: %w",
				report.StoredHash, report.CompiledHash, err)
		}
		return fmt.Errorf("bootstrap: %w", err)
	}
	if !report.Healthy() {
		logger.Warn("core menus missing after bootstrap", slog.Any("missing_menus", report.MissingMenus))
	}

	auditLogger := shared.NewAuditLogger(dbpool)

	menusService := menus.NewService(menus.NewRepository(dbpool), authzCache, logger)
	rightsService := rights.NewService(rights.NewRepository(dbpool), authzCache, auditLogger, logger)
	rolesService := roles.NewService(roles.NewRepository(dbpool), authzCache, auditLogger, logger)
	usersRepo := users.NewRepository(dbpool)
	usersService := users.NewService(usersRepo, authzCache, auditLogger, logger)

	gate := authz.NewGate(authzCache, rightsService, authzMetrics, logger)
	registry := authz.NewRegistry(gate)
	projector := authz.NewProjector(authzCache, menusService, gate)

	tokens, err := auth.NewTokenManager(cfg.TokenSecret, cfg.TokenAlgorithm, cfg.TokenTTL)
	if err != nil {
		return err
	}
	resolver := auth.NewResolver(tokens, usersRepo, authzCache)

	var inspector jobs.QueueInspector
	if redisClient != nil {
		asynqInspector := asynq.NewInspector(cache.AsynqOpt(cfg.RedisAddr))
		defer func() {
			if err := asynqInspector.Close(); err != nil {
				logger.Warn("inspector close", slog.Any("error", err))
			}
		}()
		inspector = asynqInspector
	}

	router := app.NewRouter(app.RouterParams{
		Logger:        logger,
		Config:        cfg,
		Registry:      registry,
		Resolver:      resolver,
		Metrics:       metrics,
		MenusHandler:  menushttp.NewHandler(logger, menusService, projector),
		RolesHandler:  roleshttp.NewHandler(logger, rolesService),
		RightsHandler: rightshttp.NewHandler(logger, rightsService, gate),
		UsersHandler:  usershttp.NewHandler(logger, usersService),
		AuthzHandler:  authzhttp.NewHandler(registry),
		JobHandler:    jobs.NewHandler(inspector, logger),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.Int("routes", len(registry.Routes())))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
	return nil
}
