// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/olegiv/blogicum/internal/cache"
	"github.com/olegiv/blogicum/internal/config"
	"github.com/olegiv/blogicum/internal/logging"
	"github.com/olegiv/blogicum/internal/middleware"
	"github.com/olegiv/blogicum/internal/render"
	"github.com/olegiv/blogicum/internal/scheduler"
	"github.com/olegiv/blogicum/internal/service"
	"github.com/olegiv/blogicum/internal/session"
	"github.com/olegiv/blogicum/internal/store"
	"github.com/olegiv/blogicum/internal/version"
	"github.com/olegiv/blogicum/web"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "blogicum - a small blogging platform\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BLOG_SESSION_SECRET    Session encryption key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BLOG_DB_DRIVER         sqlite|mysql (default: sqlite)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BLOG_DB_PATH           SQLite database path (default: ./data/blogicum.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BLOG_DB_DSN            MySQL DSN when BLOG_DB_DRIVER=mysql\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BLOG_SERVER_PORT       Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BLOG_ENV               Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BLOG_TIME_ZONE         Zone for publication dates (default: UTC)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BLOG_REDIS_URL         Redis URL for the sidebar cache (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BLOG_DO_SEED           Create default categories and locations (default: false)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  BLOG_TRUST_PROXY       Read client IPs from X-Forwarded-For (default: false)\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if *showVersion {
		_, _ = fmt.Printf("blogicum %s (commit: %s, built: %s)\n", appVersion, appGitCommit, appBuildTime)
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env files if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	versionInfo := &version.Info{
		Version:   appVersion,
		GitCommit: appGitCommit,
		BuildTime: appBuildTime,
	}

	logger, logCloser, err := logging.New(logging.Options{
		Level:      cfg.SlogLevel(),
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
	})
	if err != nil {
		return fmt.Errorf("setting up logging: %w", err)
	}
	defer func() { _ = logCloser.Close() }()
	slog.SetDefault(logger)

	var dataDir string
	if !cfg.UseMySQL() {
		dataDir = filepath.Dir(cfg.DBPath)
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return fmt.Errorf("creating data directory: %w", err)
		}
	}

	slog.Info("initializing database", "driver", cfg.DBDriver)
	db, err := store.Open(cfg.DBDriver, cfg.DBSource(), store.DefaultDBConfig(cfg.DBDriver))
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}()

	slog.Info("running database migrations")
	if err := store.Migrate(db, cfg.DBDriver); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	if cfg.DoSeed {
		if err := store.Seed(context.Background(), db, logger); err != nil {
			return fmt.Errorf("seeding database: %w", err)
		}
	}

	sessionManager := session.New(db, session.Options{
		UseMySQL: cfg.UseMySQL(),
		IsDev:    cfg.IsDevelopment(),
	})

	sidebarCache := cache.New(cache.Config{
		RedisURL:   cfg.RedisURL,
		Prefix:     cfg.CachePrefix,
		DefaultTTL: time.Duration(cfg.CacheTTL) * time.Second,
		MaxSize:    cfg.CacheMaxSize,
	}, logger)
	defer func() { _ = sidebarCache.Close() }()

	sidebar := service.NewSidebarService(db, sidebarCache, time.Duration(cfg.CacheTTL)*time.Second, logger)
	if err := sidebar.Reset(context.Background()); err != nil {
		slog.Warn("failed to reset sidebar cache", "error", err)
	}

	sched := scheduler.New(db, cfg.DBDriver, sidebar, logger)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	templatesFS, err := fs.Sub(web.Templates, "templates")
	if err != nil {
		return fmt.Errorf("getting templates fs: %w", err)
	}
	renderer, err := render.New(render.Config{
		TemplatesFS:    templatesFS,
		SessionManager: sessionManager,
		Sidebar:        sidebar,
		Location:       cfg.Location(),
	})
	if err != nil {
		return fmt.Errorf("initializing renderer: %w", err)
	}

	loginProtection := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())
	defer loginProtection.Close()

	r := newRouter(routerDeps{
		cfg:             cfg,
		db:              db,
		dataDir:         dataDir,
		sessionManager:  sessionManager,
		renderer:        renderer,
		sidebar:         sidebar,
		jobs:            sched,
		cacheStats:      sidebar,
		loginProtection: loginProtection,
		version:         versionInfo,
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env, "version", versionInfo.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
