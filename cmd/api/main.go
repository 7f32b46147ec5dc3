package main

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"net/http"
	"os"
	"time"

	"psy-assess/internal/catalog"
	"psy-assess/internal/config"
	"psy-assess/internal/db"
	apihttp "psy-assess/internal/http"
	"psy-assess/internal/repository"
	"psy-assess/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid config", zap.Error(err))
	}

	// Un directorio de catálogos configurado tiene prioridad sobre los embebidos.
	sources := []fs.FS{}
	if cfg.CatalogDir != "" {
		sources = append(sources, os.DirFS(cfg.CatalogDir))
	}
	sources = append(sources, catalog.Embedded())
	loader := catalog.NewMemoLoader(catalog.NewFSLoader(logger, sources...))

	if _, err := loader.Load(ctx, cfg.DefaultCatalog); err != nil {
		logger.Fatal("catalog load", zap.String("catalog", cfg.DefaultCatalog), zap.Error(err))
	}

	var (
		pgStore    service.SnapshotStore
		resultRepo repository.ResultRepository
	)
	pool, err := db.NewPool(ctx, cfg)
	switch {
	case errors.Is(err, db.ErrNotConfigured):
		logger.Warn("database not configured, results will not be stored")
	case err != nil:
		logger.Fatal("db connect", zap.Error(err))
	default:
		defer pool.Close()
		if err := db.Ping(ctx, pool); err != nil {
			logger.Fatal("db ping", zap.Error(err))
		}
		if err := db.EnsureSchema(ctx, pool); err != nil {
			logger.Fatal("db schema", zap.Error(err))
		}
		pgStore = service.NewPgSnapshotStore(repository.NewPgSnapshotRepository(pool))
		resultRepo = repository.NewPgResultRepository(pool)
	}

	var (
		redisStore service.SnapshotStore
		limiter    service.StartLimiter
	)
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		} else {
			redisStore = service.NewRedisSnapshotStore(redisClient, cfg.SnapshotTTL())
			limiter = service.NewRedisStartLimiter(logger, redisClient, cfg.StartRateWindow(), cfg.StartRateLimit)
		}
		cancel()
	}
	if limiter == nil {
		limiter = service.NewMemoryStartLimiter(cfg.StartRateWindow(), cfg.StartRateLimit)
	}

	var store service.SnapshotStore
	if redisStore == nil && pgStore == nil {
		logger.Warn("no persistent snapshot store, runs live in memory only")
		store = service.NewMemorySnapshotStore(cfg.SnapshotTTL())
	} else {
		store = service.NewTieredSnapshotStore(redisStore, pgStore)
	}

	assessSvc := service.NewAssessmentService(logger, loader, service.AssessmentOptions{
		CatalogName: cfg.DefaultCatalog,
		Store:       store,
		Results:     resultRepo,
		Limiter:     limiter,
	})

	tokens := service.NewRunTokenService(cfg.RunTokenSecret, cfg.RunTokenTTL())

	assessHandler := apihttp.NewAssessmentHandler(logger, assessSvc, tokens)
	router := apihttp.NewRouter(logger, assessHandler, apihttp.RunTokenMiddleware(tokens))

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort), zap.String("catalog", cfg.DefaultCatalog))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
