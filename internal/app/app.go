package app

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

	"habitcraft/internal/config"
	"habitcraft/internal/database"
	"habitcraft/internal/event"
	"habitcraft/internal/handler"
	"habitcraft/internal/middleware"
	"habitcraft/internal/repository"
	"habitcraft/internal/router"
	"habitcraft/internal/service"
)

const version = "1.0.0"

type App struct {
	server       *http.Server
	db           *database.DB
	cleanupFuncs []func()
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	slog.Info("connecting to PostgreSQL")
	db, err := database.New(context.Background(), cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.EnsureSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure database schema: %w", err)
	}

	pool := db.Pool
	userRepo := repository.NewUserRepository(pool)
	tokenRepo := repository.NewTokenRepository(pool)
	slog.Info("database ready")

	bus := event.NewBus(event.LogSink{}, 256)

	issuer := service.NewTokenIssuer(cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)
	authService := service.NewAuthService(issuer, userRepo, tokenRepo, bus)

	var resolver middleware.IdentityResolver = middleware.NewTokenResolver(issuer)
	if cfg.LegacyHeaderAuth {
		slog.Warn("legacy header authentication enabled; do not use outside development")
		resolver = middleware.HeaderResolver{}
	}
	authMiddleware := middleware.NewAuthMiddleware(resolver)

	cookies := handler.NewCookieWriter(cfg.JWTAccessTTL, cfg.JWTRefreshTTL, cfg.IsProduction())
	authHandler := handler.NewAuthHandler(authService, cookies)
	userHandler := handler.NewUserHandler(authService, cookies)
	healthHandler := handler.NewHealthHandler(db, version)

	appRouter := router.New(cfg, authMiddleware, router.Handlers{
		Auth:   authHandler,
		User:   userHandler,
		Health: healthHandler,
	})

	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	go authService.StartCleanupTicker(cleanupCtx, cfg.TokenCleanupEvery)

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      appRouter,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  cfg.ServerIdleTimeout,
	}

	return &App{
		server: server,
		db:     db,
		cleanupFuncs: []func(){
			cleanupCancel,
			bus.Close,
			db.Close,
		},
	}, nil
}

func (a *App) Run() error {
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if serveErr := a.server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			slog.Error("server failed", "error", serveErr)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	for _, cleanup := range a.cleanupFuncs {
		cleanup()
	}

	slog.Info("server stopped")
	return nil
}
