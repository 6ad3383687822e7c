package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/avelar/feedlight/internal/api"
	"github.com/avelar/feedlight/internal/cache"
	"github.com/avelar/feedlight/internal/config"
	"github.com/avelar/feedlight/internal/feed"
	"github.com/avelar/feedlight/internal/source"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	src, err := openSource(cfg, logger)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer src.Close()

	coord := feed.New(src, openCache(cfg, logger), logger, feed.Config{
		PageSize:          cfg.Feed.PageSize,
		CategoryBatchSize: cfg.Feed.CategoryBatchSize,
		MinLoadDuration:   cfg.Feed.MinLoadDuration,
		SearchPoolLimit:   cfg.Feed.SearchPoolLimit,
	})
	defer coord.Close()

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	api.RegisterRoutes(router, api.NewHandler(coord, src, src, logger))

	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server exited with error", "error", err)
		}
	}()

	logger.Info("server started", "addr", cfg.Server.Addr)

	sig := <-sigCh
	logger.Info("received signal, shutting down", "signal", sig.String())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("error shutting down http server", "error", err)
	}

	return nil
}

// fullSource is the combined contract both bundled backends satisfy.
type fullSource interface {
	source.Source
	source.EngagementRecorder
}

// openSource picks Postgres when a DSN is configured, otherwise the embedded
// SQLite database.
func openSource(cfg config.Config, logger *slog.Logger) (fullSource, error) {
	if cfg.Database.DSN != "" {
		logger.Info("using postgres source")
		return source.NewPostgresSource(cfg.Database.DSN)
	}
	logger.Info("using sqlite source",
		"path", cfg.Database.SQLitePath, "driver", source.SQLiteBuildMode)
	return source.NewSQLiteSource(cfg.Database.SQLitePath)
}

// openCache picks the shared Redis cache when an address is configured,
// otherwise a process-local bounded LRU.
func openCache(cfg config.Config, logger *slog.Logger) cache.Cache {
	if cfg.Redis.Addr == "" {
		return cache.NewLRU(cfg.Feed.CacheSize)
	}

	logger.Info("using redis fast-phase cache", "addr", cfg.Redis.Addr)
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	return cache.NewRedis(rdb, cfg.Redis.TTL)
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
