package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"casedesk_backend/internal/audit"
	"casedesk_backend/internal/hierarchy"
	hierrepo "casedesk_backend/internal/hierarchy/repository"
	apphttp "casedesk_backend/internal/http"
	"casedesk_backend/internal/refcache"
	"casedesk_backend/platform/config"
	"casedesk_backend/platform/db"
	"casedesk_backend/platform/logger"
	"casedesk_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	modernPool := mustPool(ctx, log, "modern", cfg.GetModernDatabaseURL())
	defer modernPool.Close()

	legacyPool := mustPool(ctx, log, "legacy", cfg.GetLegacyDatabaseURL())
	defer legacyPool.Close()

	// Shared validator instance for dependency injection
	val := validator.New()

	// Reference cache: in-process always, Redis second level when configured
	// so multiple instances share one upstream fetch.
	refOpts := []refcache.Option{}
	if cfg.IsRedisEnabled() {
		redisOpts, err := redis.ParseURL(cfg.GetRedisURL())
		if err != nil {
			log.Error("failed to parse REDIS_URL", "error", err)
			panic("failed to parse REDIS_URL: " + err.Error())
		}
		rdb := redis.NewClient(redisOpts)
		defer func() { _ = rdb.Close() }()
		refOpts = append(refOpts, refcache.WithRedis(rdb))
		log.Info("redis reference cache enabled")
	}
	refs := refcache.New(hierrepo.NewReferenceRepository(modernPool), log, refOpts...)

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	hierarchyModule := hierarchy.NewModule(modernPool, legacyPool, refs, val, log)

	// The audit module reuses the hierarchy lead lookup so both contexts
	// agree on which lead a number resolves to.
	auditModule := audit.NewModule(modernPool, legacyPool, hierarchyModule.Service(), refs, val, log)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config: cfg,
		Env:    cfg.Env,
		Logger: log,
		Health: []apphttp.HealthChecker{modernPool, legacyPool},
		Modules: []apphttp.Module{
			hierarchyModule,
			auditModule,
		},
	}

	engine := app.BuildRouter()

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = shutdownCtx
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// mustPool connects to one schema family with retries, panicking when the
// database stays unreachable.
func mustPool(ctx context.Context, log *logger.Logger, name, url string) *pgxpool.Pool {
	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, name+" database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, url)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "family", name, "error", err)
		panic("failed to connect to " + name + " database: " + err.Error())
	}
	log.Info("database connection established", "family", name)
	return pool
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return fmt.Errorf("%s: %w", name, lastErr)
}
