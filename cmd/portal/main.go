package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"campusportal/portal/internal/api"
	"campusportal/portal/internal/captcha"
	"campusportal/portal/internal/config"
	internalhttp "campusportal/portal/internal/http"
	"campusportal/portal/internal/jobs"
	"campusportal/portal/internal/login"
	"campusportal/portal/internal/session"
)

func main() {
	cfg := config.Load()

	logger, err := newLogger(cfg)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore := openSessionStore(ctx, cfg, logger)
	defer closeStore()

	sessions := session.NewManager(store, logger.Named("session"))
	if restored := sessions.Restore(ctx); restored != nil {
		logger.Info("resumed session", zap.String("role", restored.Role().String()))
	}

	backend := api.New(cfg.APIBaseURL, cfg.APITimeout, logger.Named("api"))
	authn := login.New(backend, captcha.NewClient(backend), sessions, cfg.InstitutionDomain, logger.Named("auth"))

	monitor := jobs.StartConnectivityMonitor(ctx, cfg, backend, logger.Named("connectivity"))
	defer monitor.Stop()

	server := internalhttp.NewServer(cfg, logger.Named("http"), sessions, authn, backend, monitor)
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("portal listening", zap.String("addr", cfg.HTTPAddr), zap.String("backend", cfg.APIBaseURL))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown error", zap.Error(err))
	}
}

func openSessionStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (session.Store, func()) {
	switch cfg.SessionBackend {
	case "redis":
		if cfg.RedisAddr == "" {
			logger.Fatal("SESSION_BACKEND=redis requires REDIS_ADDR")
		}
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := client.Ping(pingCtx).Err(); err != nil {
			cancel()
			logger.Fatal("redis ping failed", zap.Error(err))
		}
		cancel()
		return session.NewRedisStore(client), func() {
			if err := client.Close(); err != nil {
				logger.Warn("redis close error", zap.Error(err))
			}
		}
	case "sqlite", "":
		if err := cfg.EnsureSessionDir(); err != nil {
			logger.Fatal("session directory", zap.Error(err))
		}
		store, err := session.OpenSQLite(ctx, cfg.SessionDBPath)
		if err != nil {
			logger.Fatal("session db open failed", zap.Error(err), zap.String("path", cfg.SessionDBPath))
		}
		return store, func() {
			if err := store.Close(); err != nil {
				logger.Warn("session db close error", zap.Error(err))
			}
		}
	default:
		logger.Fatal("unknown session backend", zap.String("backend", cfg.SessionBackend))
		return nil, nil
	}
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.Debug {
		zcfg = zap.NewDevelopmentConfig()
	}
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}
	if cfg.Debug && level > zapcore.DebugLevel {
		level = zapcore.DebugLevel
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	return zcfg.Build()
}
