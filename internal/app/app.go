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

	"user-management-api/internal/config"
	"user-management-api/internal/database"
	"user-management-api/internal/i18n"
	"user-management-api/internal/kvstore"
	"user-management-api/internal/mailer"
	"user-management-api/internal/repository"
	"user-management-api/internal/router"
)

type App struct {
	server       *http.Server
	cleanupFuncs []func()
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := i18n.SetLanguage(cfg.DefaultLanguage); err != nil {
		return nil, fmt.Errorf("failed to load translations: %w", err)
	}

	slog.Info("connecting to PostgreSQL")
	db, err := database.Connect(ctx, database.Options{
		URL:      cfg.DatabaseURL,
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure database schema: %w", err)
	}

	slog.Info("connecting to Redis")
	kv, err := kvstore.Connect(ctx, kvstore.Options{
		Addr:        cfg.RedisAddr,
		Password:    cfg.RedisPassword,
		DB:          cfg.RedisDB,
		DialTimeout: cfg.RedisDialTimeout,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	sender, err := mailer.New(mailer.Options{
		Host:          cfg.MailHost,
		Port:          cfg.MailPort,
		Username:      cfg.MailUsername,
		Password:      cfg.MailPassword,
		FromName:      cfg.MailFromName,
		Encryption:    cfg.MailEncryption,
		RatePerSecond: cfg.MailRatePerSecond,
	})
	if err != nil {
		_ = kv.Close()
		db.Close()
		return nil, fmt.Errorf("failed to initialize mailer: %w", err)
	}

	handler, users, err := BuildHandler(Deps{
		Config: cfg,
		Users:  repository.NewUserRepository(db.Pool),
		KV:     kv,
		Mailer: sender,
		Checks: map[string]router.HealthCheck{
			"postgres": db.Ping,
			"redis":    kv.Ping,
		},
	})
	if err != nil {
		_ = kv.Close()
		db.Close()
		return nil, fmt.Errorf("failed to build routes: %w", err)
	}

	if cfg.AdminEmail != "" {
		if err := users.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword, cfg.AdminName); err != nil {
			_ = kv.Close()
			db.Close()
			return nil, fmt.Errorf("failed to bootstrap admin: %w", err)
		}
	}

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ServerReadHeaderTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	return &App{
		server: server,
		cleanupFuncs: []func(){
			func() {
				if err := kv.Close(); err != nil {
					slog.Warn("redis close failed", "error", err)
				}
			},
			func() {
				db.Close()
			},
		},
	}, nil
}

func (a *App) Run() error {
	serveErr := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-stop:
		slog.Info("shutdown requested", "signal", sig.String())
	case err := <-serveErr:
		runErr = fmt.Errorf("server failed: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil && runErr == nil {
		runErr = fmt.Errorf("graceful shutdown failed: %w", err)
	}

	for _, cleanup := range a.cleanupFuncs {
		cleanup()
	}

	slog.Info("server stopped")
	return runErr
}
