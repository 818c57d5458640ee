package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/crosslist/backend/internal/application/imagepipe"
	"github.com/crosslist/backend/internal/application/registration"
	"github.com/crosslist/backend/internal/domain/integration"
	"github.com/crosslist/backend/internal/infrastructure/categorymap"
	"github.com/crosslist/backend/internal/infrastructure/config"
	"github.com/crosslist/backend/internal/infrastructure/logger"
	"github.com/crosslist/backend/internal/infrastructure/marketplace"
	"github.com/crosslist/backend/internal/infrastructure/ratelimit"
	"github.com/crosslist/backend/internal/infrastructure/retry"
	"github.com/crosslist/backend/internal/infrastructure/storage"
	"github.com/crosslist/backend/internal/interfaces/http/handler"
	"github.com/crosslist/backend/internal/interfaces/http/middleware"
	"github.com/crosslist/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting crosslist backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Redis backs the shared rate limit windows and the category mapping
	// table. When it is unreachable the limiters fall back to in-process
	// stores and the mapper falls back to the static table, so startup
	// proceeds either way.
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	redisUp := rdb.Ping(pingCtx).Err() == nil
	pingCancel()
	if redisUp {
		log.Info("Redis connected", zap.String("addr", cfg.Redis.Addr()))
	} else {
		log.Warn("Redis unreachable, limiters and category mapping run in-process",
			zap.String("addr", cfg.Redis.Addr()))
	}

	limitCfg := ratelimit.Config{
		MaxRequests: cfg.RateLimit.MaxRequests,
		Window:      cfg.RateLimit.Window,
	}
	var platformLimiter *ratelimit.FixedWindowLimiter
	var httpLimiter *ratelimit.SlidingLogLimiter
	if redisUp {
		platformLimiter = ratelimit.NewFixedWindowLimiter(ratelimit.NewRedisCounterStore(rdb), limitCfg, log)
		httpLimiter = ratelimit.NewSlidingLogLimiter(ratelimit.NewRedisLogStore(rdb), ratelimit.Config{
			MaxRequests: cfg.HTTP.RateLimitRequests,
			Window:      cfg.HTTP.RateLimitWindow,
		}, log)
	} else {
		platformLimiter = ratelimit.NewFixedWindowLimiter(nil, limitCfg, log)
		httpLimiter = ratelimit.NewSlidingLogLimiter(nil, ratelimit.Config{
			MaxRequests: cfg.HTTP.RateLimitRequests,
			Window:      cfg.HTTP.RateLimitWindow,
		}, log)
	}

	// Object storage for processed images
	var imageStore imagepipe.ObjectStorageService
	if cfg.Storage.Endpoint != "" {
		s3Store, err := storage.NewS3ObjectStorage(&cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to initialize object storage", zap.Error(err))
		}
		bucketCtx, bucketCancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := s3Store.EnsureBucket(bucketCtx); err != nil {
			log.Fatal("Failed to ensure storage bucket", zap.Error(err))
		}
		bucketCancel()
		imageStore = s3Store
		log.Info("Object storage ready", zap.String("bucket", cfg.Storage.Bucket))
	} else {
		imageStore = storage.NewMemoryObjectStorage()
		log.Warn("No storage endpoint configured, using in-memory object storage")
	}

	pipeline := imagepipe.NewPipeline(imagepipe.Config{
		MaxFileSize:       cfg.Images.MaxFileSize,
		ConcurrentUploads: cfg.Images.ConcurrentUploads,
		MaxWidth:          cfg.Images.MaxWidth,
		MaxHeight:         cfg.Images.MaxHeight,
		ThumbnailSize:     cfg.Images.ThumbnailSize,
		JPEGQuality:       cfg.Images.JPEGQuality,
		DownloadTimeout:   cfg.Images.DownloadTimeout,
	}, imageStore, imagepipe.WithLogger(log))

	// One retrying client shared by every adapter
	retrier := marketplace.NewRetrier(retry.Options{
		MaxRetries:        cfg.Retry.MaxRetries,
		InitialDelay:      cfg.Retry.InitialDelay,
		BackoffMultiplier: cfg.Retry.BackoffMultiplier,
		MaxDelay:          cfg.Retry.MaxDelay,
		Timeout:           cfg.Retry.Timeout,
	}, retry.WithLogger(log))

	registry, err := buildRegistry(cfg, platformLimiter, retrier, log)
	if err != nil {
		log.Fatal("Failed to configure platform adapters", zap.Error(err))
	}
	if len(registry.Adapters()) == 0 {
		log.Warn("No platform adapters enabled, registrations will be rejected")
	}

	var mapper integration.CategoryMapper
	if redisUp {
		mapper = categorymap.NewRedisCategoryMapper(rdb)
	} else {
		mapper = categorymap.NewStaticCategoryMapper()
	}

	tracker := registration.NewTracker(
		registration.WithRetention(cfg.Jobs.Retention),
		registration.WithTrackerLogger(log),
	)
	sweepCtx, sweepCancel := context.WithCancel(context.Background())
	defer sweepCancel()
	tracker.StartSweeper(sweepCtx, cfg.Jobs.SweepInterval)

	orchestrator := registration.NewOrchestrator(registry, mapper, tracker,
		registration.WithImagePipeline(pipeline),
		registration.WithOrchestratorLogger(log),
	)
	puller := registration.NewOrderPuller(registry, log)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine, err := router.New(cfg.HTTP, router.Dependencies{
		Logger:       log,
		Registration: handler.NewRegistrationHandler(orchestrator, log),
		Jobs:         handler.NewJobHandler(tracker),
		Orders:       handler.NewOrderHandler(puller, log),
		Health:       handler.NewHealthHandler(registry),
		RateLimiter:  httpLimiter,
	})
	if err != nil {
		log.Fatal("Failed to build router", zap.Error(err))
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}
	tracker.Stop()
	if err := rdb.Close(); err != nil {
		log.Error("Error closing redis client", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// buildRegistry wires one adapter per enabled platform.
func buildRegistry(cfg *config.Config, limiter *ratelimit.FixedWindowLimiter, retrier *retry.Client, log *zap.Logger) (*marketplace.Registry, error) {
	registry := marketplace.NewRegistry()

	if cfg.Platforms.Coupang.Enabled {
		adapter, err := marketplace.NewCoupangAdapter(&marketplace.CoupangConfig{
			AccessKey: cfg.Platforms.Coupang.AccessKey,
			SecretKey: cfg.Platforms.Coupang.SecretKey,
			VendorID:  cfg.Platforms.Coupang.VendorID,
			IsSandbox: cfg.Platforms.Coupang.Sandbox,
		}, limiter, retrier, log)
		if err != nil {
			return nil, err
		}
		registry.Register(adapter)
		log.Info("Platform adapter enabled", zap.String("platform", "COUPANG"))
	}

	if cfg.Platforms.Eleven.Enabled {
		adapter, err := marketplace.NewElevenAdapter(&marketplace.ElevenConfig{
			APIKey:    cfg.Platforms.Eleven.APIKey,
			SellerID:  cfg.Platforms.Eleven.SellerID,
			IsSandbox: cfg.Platforms.Eleven.Sandbox,
		}, limiter, retrier, log)
		if err != nil {
			return nil, err
		}
		registry.Register(adapter)
		log.Info("Platform adapter enabled", zap.String("platform", "ELEVEN"))
	}

	if cfg.Platforms.SmartStore.Enabled {
		adapter, err := marketplace.NewSmartStoreAdapter(&marketplace.SmartStoreConfig{
			ClientID:     cfg.Platforms.SmartStore.ClientID,
			ClientSecret: cfg.Platforms.SmartStore.ClientSecret,
			ChannelID:    cfg.Platforms.SmartStore.ChannelID,
			IsSandbox:    cfg.Platforms.SmartStore.Sandbox,
		}, limiter, retrier, log)
		if err != nil {
			return nil, err
		}
		registry.Register(adapter)
		log.Info("Platform adapter enabled", zap.String("platform", "SMARTSTORE"))
	}

	return registry, nil
}
