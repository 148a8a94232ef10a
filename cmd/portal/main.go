package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/civicyouth/portal/config"
	HTTPAdapter "github.com/civicyouth/portal/internal/adapter/http"
	"github.com/civicyouth/portal/internal/adapter/http/ratelimit"
	sqlitestore "github.com/civicyouth/portal/internal/adapter/storage/sqlite"
	"github.com/civicyouth/portal/internal/infrastructure/logger"
	"github.com/civicyouth/portal/internal/metrics"
	"github.com/civicyouth/portal/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Error.Printf("failed to load config: %v", err)
		os.Exit(1)
	}
	logger.SetOutput(os.Stdout, cfg.Debug)

	logger.Info.Printf("starting portal on port %d, domain=%s", cfg.Port, cfg.Domain)

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		logger.Error.Printf("failed to create data directory: %v", err)
		os.Exit(1)
	}

	store, err := sqlitestore.NewStore(cfg.DataDir)
	if err != nil {
		logger.Error.Printf("failed to create store: %v", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	m := metrics.New()

	limiter := ratelimit.NewLoginRateLimiter(
		ratelimit.WithOnDenied(func(identifier string) {
			logger.Debug.Printf("login denied for %s", logger.MaskEmail(identifier))
		}),
		ratelimit.WithOnLockout(func(identifier string, resetTime time.Time) {
			m.IncLockout()
			logger.Warn.Printf("login attempts exhausted for %s, locked until %s", logger.MaskEmail(identifier), resetTime.Format(time.RFC3339))
		}),
	)
	m.TrackIdentifiers(limiter.Len)

	limiterCtx, limiterCancel := context.WithCancel(context.Background())
	defer limiterCancel()
	limiter.Start(limiterCtx)

	authSvc := service.NewAuthService(store, limiter, cfg.AuthSecret)
	contentSvc := service.NewContentService(store)

	if cfg.AdminEmail != "" {
		created, err := authSvc.EnsureAdmin(context.Background(), cfg.AdminEmail, cfg.AdminPassword)
		if err != nil {
			logger.Error.Printf("failed to seed admin account: %v", err)
			os.Exit(1)
		}
		if created {
			logger.Info.Printf("admin account created for %s", logger.MaskEmail(service.NormalizeEmail(cfg.AdminEmail)))
		}
	} else if hasUser, err := store.HasUser(context.Background()); err == nil && !hasUser {
		logger.Warn.Printf("no accounts exist; set ADMIN_EMAIL and ADMIN_PASSWORD to create one")
	}

	server := HTTPAdapter.NewServer(authSvc, contentSvc, m, cfg.AuthSecret, cfg.BehindProxy)

	addr := fmt.Sprintf(":%d", cfg.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	var opsServer *http.Server
	if cfg.MetricsPort != 0 {
		opsServer = &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.MetricsPort),
			Handler:           HTTPAdapter.NewOpsHandler(m.Handler(), store.Ping),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      10 * time.Second,
		}
		go func() {
			logger.Info.Printf("ops server listening on %s", opsServer.Addr)
			if err := opsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error.Printf("ops server failed: %v", err)
			}
		}()
	}

	// Graceful shutdown
	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info.Printf("received %s, shutting down", sig)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error.Printf("http shutdown error: %v", err)
		}
		if opsServer != nil {
			if err := opsServer.Shutdown(shutdownCtx); err != nil {
				logger.Error.Printf("ops shutdown error: %v", err)
			}
		}

		// stops the limiter sweep
		limiterCancel()

		logger.Info.Printf("shutdown complete")
	}()

	logger.Info.Printf("server listening on %s", addr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error.Printf("server failed: %v", err)
		os.Exit(1)
	}
	<-shutdownDone
}
