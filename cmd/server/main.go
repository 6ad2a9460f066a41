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

	"github.com/joho/godotenv"

	h "github.com/ytfetch/ytfetch/internal/api/http"
	cfgpkg "github.com/ytfetch/ytfetch/internal/config"
	"github.com/ytfetch/ytfetch/internal/cookies"
	"github.com/ytfetch/ytfetch/internal/downloader"
	"github.com/ytfetch/ytfetch/internal/ratelimit"
	"github.com/ytfetch/ytfetch/internal/resolver"
	"github.com/ytfetch/ytfetch/internal/session"
	svc "github.com/ytfetch/ytfetch/internal/service"
	"github.com/ytfetch/ytfetch/internal/storage"
	"github.com/ytfetch/ytfetch/internal/ytdlp"
)

func main() {
	// .env is optional; environment variables win either way.
	_ = godotenv.Load()

	cfg, err := cfgpkg.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	cfgpkg.SetupLogger(cfg)
	slog.Info("configuration loaded successfully", "environment", cfg.Environment)

	cookieStore, err := cookies.NewStore(cfg.CookiesDir)
	if err != nil {
		slog.Error("failed to initialize cookie store", "error", err)
		os.Exit(1)
	}

	artifacts, err := storage.NewArtifactStore(cfg.TempDir)
	if err != nil {
		slog.Error("failed to initialize artifact store", "error", err)
		os.Exit(1)
	}

	backend := ytdlp.NewClient(cfg.YtdlpPath)
	backend.Timeout = cfg.DownloadTimeout

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := backend.CheckInstalled(startupCtx); err != nil {
		startupCancel()
		slog.Error("extraction backend unavailable", "path", cfg.YtdlpPath, "error", err)
		os.Exit(1)
	}
	startupCancel()

	limiter := ratelimit.New(cfg.MinRequestInterval)
	sessions := session.NewStore(cfg.SessionTTL)

	res := resolver.New(backend, limiter, cookieStore, cfg)
	exec := downloader.New(backend, limiter, cookieStore, artifacts, cfg)
	downloadService := svc.New(res, exec, sessions, artifacts, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	artifacts.StartSweeper(ctx, cfg.SweepInterval, cfg.SweepMaxAge)
	sessions.StartJanitor(ctx, cfg.SessionTTL)

	router := h.NewRouter(
		h.NewDownloadHandler(downloadService, cookieStore, slog.Default()),
		h.NewStatusHandler(limiter, cookieStore, sessions, slog.Default()),
	)
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPTimeout,
		WriteTimeout: cfg.HTTPTimeout,
		IdleTimeout:  cfg.HTTPTimeout,
	}

	go func() {
		slog.Info("server starting", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown failed", "error", err)
	} else {
		slog.Info("server stopped gracefully")
	}
}
