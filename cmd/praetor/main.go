package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/praetor-auth/praetor/internal/access"
	"github.com/praetor-auth/praetor/internal/app"
	"github.com/praetor-auth/praetor/internal/auth"
	"github.com/praetor-auth/praetor/internal/guard"
	"github.com/praetor-auth/praetor/internal/observability"
	"github.com/praetor-auth/praetor/internal/platform/cache"
	"github.com/praetor-auth/praetor/internal/platform/db"
	"github.com/praetor-auth/praetor/internal/roles"
	"github.com/praetor-auth/praetor/internal/session"
	"github.com/praetor-auth/praetor/internal/shared"
	"github.com/praetor-auth/praetor/internal/users"
	"github.com/praetor-auth/praetor/jobs"
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

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
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

	jobsClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	auditLogger := shared.NewAuditLogger(pool)
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo, logger)

	sessionStore := session.NewRedisStore(redisClient, cfg.SessionTTL)
	sessions := session.NewManager(authService, sessionStore, session.Options{
		RestoreAttempts: cfg.RestoreAttempts,
		RestoreInterval: cfg.RestoreInterval,
		ForcedSignOutHook: func(uid, reason string) {
			if _, err := jobsClient.EnqueueForcedSignOut(context.Background(), uid, reason); err != nil {
				logger.Warn("enqueue forced sign-out cleanup", slog.Any("error", err))
			}
		},
		Logger: logger,
	})

	// Hand the persisted identity to the provider before the restore poll so
	// a restart can recover the session without fresh credentials.
	if _, ident, err := sessionStore.Load(ctx); err != nil {
		logger.Warn("load persisted session", slog.Any("error", err))
	} else if ident != nil {
		authService.AdoptRestored(ident)
	}
	sessions.Restore(ctx)

	metrics := observability.NewMetrics()
	engine := access.NewEngine(sessions, logger)
	engine.SetObserver(func(d access.Decision) {
		metrics.RecordDecision(d.Allow, string(d.Reason))
	})

	chain := guard.NewChain(logger,
		guard.GuestGuard{Sessions: sessions},
		guard.AuthGuard{Sessions: sessions},
		guard.AccessGuard{Engine: engine},
	)
	registry := guard.NewRegistry(chain, sessions)
	app.RegisterGuardRoutes(registry)

	revalidator := guard.NewRevalidator(registry, nil, logger)
	go revalidator.Watch(ctx, sessions)

	authHandler := auth.NewHandler(logger, authService, sessions, csrfManager, auditLogger, cfg.SessionTTL)
	authHandler.SetMetrics(metrics)

	usersRepo := users.NewRepository(pool)
	usersService := users.NewService(usersRepo, sessions)
	usersHandler := users.NewHandler(logger, usersService)

	rolesService := roles.NewService()
	rolesHandler := roles.NewHandler(logger, rolesService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobsHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:       logger,
		Config:       cfg,
		Sessions:     sessions,
		Guards:       registry,
		CSRFManager:  csrfManager,
		AuthHandler:  authHandler,
		UsersHandler: usersHandler,
		RolesHandler: rolesHandler,
		JobsHandler:  jobsHandler,
		Metrics:      metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		logger.Error("server exit", slog.Any("error", err))
		os.Exit(1)
	}
}
