// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package main is the entry point for the LinkSaver API server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"linksaver/internal/cache"
	"linksaver/internal/config"
	"linksaver/internal/database"
	"linksaver/internal/handlers"
	"linksaver/internal/metadata"
	"linksaver/internal/middleware"
	"linksaver/internal/router"
	"linksaver/internal/store"
	"linksaver/internal/token"
)

func main() {
	// Load configuration from environment variables (and .env).
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"log_level", cfg.LogLevel,
	)

	// Connect to PostgreSQL.
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run pending migrations.
	if err := database.Migrate(db.DB); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed development data (no-op if data already exists).
	if cfg.IsDev() {
		if err := database.Seed(db); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	// Connect to Valkey. Optional: without it the category list is not
	// cached and logout cannot revoke tokens.
	var lists *cache.ListCache
	valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
	if err != nil {
		slog.Warn("valkey unavailable, running without list cache and token revocation", "error", err)
	} else {
		defer valkeyClient.Close()
		lists = cache.NewListCache(valkeyClient, cache.DefaultListTTL)
		// Cached bodies may predate a migration.
		lists.InvalidateAll(context.Background())
	}

	tokens := token.NewManager(cfg.JWTSecret, cfg.TokenTTL, valkeyClient)

	// Initialize data stores.
	userStore := store.NewUserStore(db)
	categoryStore := store.NewCategoryStore(db)
	linkStore := store.NewLinkStore(db)

	// Metadata extraction: page scraping first, then the AI fallback when
	// an API key is configured.
	extractors := []metadata.Extractor{metadata.NewHTMLExtractor(cfg.MetadataTimeout)}
	if cfg.AIEnabled() {
		extractors = append(extractors, metadata.NewAIExtractor(metadata.AIConfig{
			APIKey:  cfg.AIAPIKey,
			Model:   cfg.AIModel,
			BaseURL: cfg.AIBaseURL,
			Timeout: cfg.MetadataTimeout,
		}))
	}
	slog.Info("metadata extractors initialized", "count", len(extractors), "ai", cfg.AIEnabled())
	chain := metadata.NewChain(extractors...)

	authLimiter := middleware.NewRateLimiter(cfg.AuthRateLimit, time.Minute,
		middleware.WithValkey(valkeyClient),
		middleware.WithTrustedProxies(cfg.TrustedProxies),
	)
	defer authLimiter.Stop()

	r := router.New(tokens, authLimiter, router.Handlers{
		Auth:       handlers.NewAuth(userStore, tokens),
		Links:      handlers.NewLinks(linkStore, lists),
		Categories: handlers.NewCategories(categoryStore, lists),
		Tools:      handlers.NewTools(chain),
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	// Give active requests up to 30 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}
