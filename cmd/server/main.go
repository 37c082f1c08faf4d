package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	redis "github.com/redis/go-redis/v9"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"

	"storymatrix/internal/config"
	"storymatrix/internal/database"
	"storymatrix/internal/handler"
	"storymatrix/internal/logger"
	"storymatrix/internal/messaging"
	"storymatrix/internal/middleware"
	"storymatrix/internal/repository"
	"storymatrix/internal/service"
	"storymatrix/internal/store"
)

const (
	maxRetries = 50
	retryDelay = 3 * time.Second
)

func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".env")
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// --- Logger ---
	log, err := logger.New(logger.Config{
		Level:    cfg.LogLevel,
		Encoding: cfg.LogEncoding,
	})
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	zap.ReplaceGlobals(log)
	zap.L().Info("Logger initialized", zap.String("logLevel", cfg.LogLevel), zap.String("env", cfg.Env))

	// --- State store ---
	stateStore, err := setupStateStore(cfg, log)
	if err != nil {
		zap.L().Fatal("Failed to set up state store", zap.String("backend", cfg.StateBackend), zap.Error(err))
	}
	defer func() {
		if err := stateStore.Close(); err != nil {
			zap.L().Error("Error closing state store", zap.Error(err))
		}
	}()
	zap.L().Info("State store ready", zap.String("backend", cfg.StateBackend))

	// --- Change events ---
	var publisher messaging.ChangePublisher = messaging.NoopPublisher{}
	if cfg.RabbitMQURL != "" {
		mqConn, err := messaging.Connect(cfg.RabbitMQURL, maxRetries, retryDelay, log)
		if err != nil {
			zap.L().Fatal("Failed to connect to RabbitMQ", zap.Error(err))
		}
		defer mqConn.Close()

		rabbitPublisher, err := messaging.NewRabbitMQChangePublisher(mqConn, log)
		if err != nil {
			zap.L().Fatal("Failed to create change publisher", zap.Error(err))
		}
		publisher = rabbitPublisher
		zap.L().Info("Gallery changes will be published", zap.String("exchange", messaging.ChangeExchange))
	} else {
		zap.L().Info("RABBITMQ_URL not set, gallery changes are not published")
	}
	defer func() { _ = publisher.Close() }()

	// --- Dependency Injection ---
	galleryRepo := repository.NewGalleryStateRepository(stateStore, log)
	galleryService := service.NewGalleryService(store.New(), galleryRepo, publisher, log)

	loadCtx, loadCancel := context.WithTimeout(context.Background(), 30*time.Second)
	err = galleryService.Load(loadCtx, cfg.SeedSamples)
	loadCancel()
	if err != nil {
		zap.L().Fatal("Failed to load gallery", zap.Error(err))
	}
	zap.L().Info("Gallery loaded",
		zap.Int("moments", len(galleryService.ListMoments(""))),
		zap.Int("stories", len(galleryService.ListStories())),
	)

	editorService := service.NewEditorService(galleryService, handler.DragListeners{}, log)
	playbackService := service.NewPlaybackService(galleryService, log)

	galleryHandler := handler.NewGalleryHandler(galleryService, editorService, playbackService, handler.Options{
		RateLimitPerSecond: cfg.RateLimitPerSecond,
		MaxBodyBytes:       cfg.MaxBodyBytes,
	}, log)

	// --- HTTP Server Setup (Gin) ---
	gin.SetMode(gin.ReleaseMode)
	if cfg.Env == "development" {
		gin.SetMode(gin.DebugMode)
	}

	corsConfig := cors.DefaultConfig()
	if origins := cfg.GetAllowedOrigins(); len(origins) > 0 {
		corsConfig.AllowOrigins = origins
	} else {
		corsConfig.AllowOrigins = []string{"http://localhost:3000"}
		zap.L().Info("CORS_ALLOWED_ORIGINS not set, allowing default", zap.String("origin", "http://localhost:3000"))
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "HEAD"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", middleware.RequestIDHeader}
	corsConfig.ExposeHeaders = []string{"Content-Disposition", middleware.RequestIDHeader}
	corsConfig.MaxAge = 12 * time.Hour

	healthHandler := func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := stateStore.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "playbacks": playbackService.Active()})
	}

	// Префикс для метрик (gin_requests_total и т.д.), /metrics добавляется здесь же
	p := ginprometheus.NewPrometheus("gin")
	router := handler.NewRouter(galleryHandler, p, healthHandler,
		middleware.GinZapLogger(log),
		gin.Recovery(),
		cors.New(corsConfig),
	)

	// --- Start HTTP Server ---
	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	go func() {
		zap.L().Info("Starting HTTP server", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zap.L().Fatal("HTTP Server listen error", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zap.L().Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("HTTP Server forced to shutdown", zap.Error(err))
	}
	editorService.Close()

	zap.L().Info("Server exiting")
}

// setupStateStore открывает хранилище, выбранное STATE_BACKEND.
func setupStateStore(cfg *config.Config, log *zap.Logger) (repository.StateStore, error) {
	switch cfg.StateBackend {
	case config.BackendRedis:
		client, err := setupRedis(cfg)
		if err != nil {
			return nil, err
		}
		return repository.NewRedisStateStore(client, log), nil
	case config.BackendPostgres:
		pool, err := setupPostgres(cfg, log)
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(pool, log); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to apply migrations: %w", err)
		}
		return repository.NewPgStateStore(pool, log), nil
	default:
		db, err := database.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := database.EnsureSQLiteSchema(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		zap.L().Info("SQLite database opened", zap.String("path", cfg.SQLitePath))
		return repository.NewSQLiteStateStore(db, log), nil
	}
}

// setupPostgres подключается к PostgreSQL с повторными попытками.
func setupPostgres(cfg *config.Config, log *zap.Logger) (*pgxpool.Pool, error) {
	zap.L().Info("Attempting to connect to PostgreSQL", zap.Int("max_retries", maxRetries), zap.Duration("retry_delay", retryDelay))

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		attempt := i + 1
		pool, err := database.NewPgPool(context.Background(), cfg.Postgres(), log)
		if err == nil {
			zap.L().Info("Successfully connected and pinged PostgreSQL", zap.Int("attempt", attempt))
			return pool, nil
		}
		lastErr = err
		zap.L().Warn("Postgres connection failed, retrying...",
			zap.Int("attempt", attempt),
			zap.Int("max_retries", maxRetries),
			zap.Error(err),
		)
		if i < maxRetries-1 {
			time.Sleep(retryDelay)
		}
	}
	return nil, fmt.Errorf("failed to connect to postgres after %d attempts: %w", maxRetries, lastErr)
}

// setupRedis подключается к Redis с повторными попытками.
func setupRedis(cfg *config.Config) (*redis.Client, error) {
	opts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
	zap.L().Info("Attempting to connect and ping Redis", zap.String("address", opts.Addr), zap.Int("db", opts.DB))

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		attempt := i + 1
		client := redis.NewClient(opts)

		pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := client.Ping(pingCtx).Err()
		pingCancel()
		if err == nil {
			zap.L().Info("Successfully connected and pinged Redis", zap.Int("attempt", attempt))
			return client, nil
		}

		_ = client.Close()
		lastErr = fmt.Errorf("unable to ping redis (attempt %d/%d): %w", attempt, maxRetries, err)
		zap.L().Warn("Redis ping failed, retrying...",
			zap.Int("attempt", attempt),
			zap.Int("max_retries", maxRetries),
			zap.Error(err),
		)
		if i < maxRetries-1 {
			time.Sleep(retryDelay)
		}
	}
	return nil, fmt.Errorf("failed to connect to redis after %d attempts: %w", maxRetries, lastErr)
}
