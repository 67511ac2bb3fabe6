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

	"adventure-server/internal/config"
	"adventure-server/internal/handler"
	appLogger "adventure-server/internal/logger"
	appMiddleware "adventure-server/internal/middleware"
	"adventure-server/internal/service"
	"adventure-server/internal/session"

	rateli "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"
)

const serviceName = "adventure-server"

func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".env")
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// --- Logger Setup ---
	logger, err := appLogger.New(appLogger.Config{
		Service:    serviceName,
		Env:        cfg.Env,
		Level:      cfg.LogLevel,
		Encoding:   cfg.LogEncoding,
		OutputPath: cfg.LogOutput,
	})
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	zap.ReplaceGlobals(logger)
	zap.L().Info("Logger initialized successfully", zap.String("logLevel", cfg.LogLevel))
	zap.L().Info("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("ai_client", cfg.AIClientType),
		zap.String("ai_model", cfg.AIModel),
		zap.String("session_store", cfg.SessionStore),
	)

	// Сигнал отменяет и ожидание зависимостей на старте, и работу сервера
	appCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Session Store ---
	var store session.Store
	var redisClient *redis.Client
	if cfg.SessionStore == "redis" {
		redisClient, err = connectRedis(appCtx, cfg, logger)
		if errors.Is(err, context.Canceled) {
			zap.L().Info("Startup interrupted while waiting for Redis")
			return
		}
		if err != nil {
			zap.L().Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		store = session.NewRedisStore(redisClient, cfg.SessionTTL, logger.Named("RedisSessionStore"))
	} else {
		memStore := session.NewMemoryStore(cfg.SessionTTL, logger.Named("MemorySessionStore"))
		go memStore.RunJanitor(appCtx, time.Minute)
		store = memStore
	}

	// --- Dependency Injection ---
	aiClient, err := service.NewAIClient(cfg, logger)
	if err != nil {
		zap.L().Fatal("Failed to create AI client", zap.Error(err))
	}
	counter := service.NewTokenCounter(cfg.AIModel, logger)
	narrator := service.NewStoryGenerator(aiClient, counter, cfg, logger)

	mediaClient, err := service.NewOpenAIMediaClient(cfg, logger)
	if err != nil {
		zap.L().Fatal("Failed to create media client", zap.Error(err))
	}
	// Выключенные медиа передаем как nil интерфейс, а не nil указатель
	var illustrator service.Illustrator
	if cfg.ImageEnabled {
		illustrator = mediaClient
	}
	var voice service.VoiceNarrator
	if cfg.VoiceEnabled {
		voice = mediaClient
	}

	storySvc := service.NewStoryService(store, narrator, mediaClient, illustrator, voice, cfg.StoryTurnLimit, logger)
	storyHandler := handler.NewStoryHandler(storySvc, cfg.UploadMaxBytes, logger)

	// --- Rate Limiter ---
	var rateLimitMiddleware gin.HandlerFunc
	if cfg.RateLimitPerMinute > 0 {
		rateLimitMiddleware = setupRateLimiter(cfg, redisClient)
		zap.L().Info("Rate limiter middleware initialized", zap.Uint("per_minute", cfg.RateLimitPerMinute))
	}

	// --- HTTP Server Setup (Gin) ---
	gin.SetMode(gin.ReleaseMode)
	if cfg.Env == "development" {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.Use(appMiddleware.GinZapLogger(logger))
	router.Use(gin.Recovery())

	p := ginprometheus.NewPrometheus("gin")

	corsConfig := cors.DefaultConfig()
	allowedOrigins := cfg.GetAllowedOrigins()
	if len(allowedOrigins) > 0 {
		corsConfig.AllowOrigins = allowedOrigins
	} else {
		corsConfig.AllowOrigins = []string{"http://localhost:3000"}
		zap.L().Info("CORSAllowedOrigins not set, allowing default", zap.String("origin", "http://localhost:3000"))
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "X-Request-ID"}
	corsConfig.AllowCredentials = true
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Health Check Endpoint
	healthHandler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
	router.GET("/health", healthHandler)
	router.HEAD("/health", healthHandler)

	// Register Application Routes
	storyHandler.RegisterRoutes(router, rateLimitMiddleware)

	// Сгенерированные картинки и озвучка, затем статика клиента
	router.Static(service.GeneratedURLPrefix, cfg.GeneratedDir)
	router.NoRoute(gin.WrapH(http.FileServer(http.Dir(cfg.StaticDir))))

	// Prometheus middleware ПОСЛЕ регистрации роутов
	p.Use(router)

	// --- Start HTTP Server ---
	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * cfg.AITimeout,
		IdleTimeout:  60 * time.Second,
	}

	zap.L().Info("Starting HTTP server", zap.String("port", cfg.ServerPort))

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zap.L().Fatal("HTTP Server listen error", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	<-appCtx.Done()
	stop()
	zap.L().Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("HTTP Server forced to shutdown", zap.Error(err))
	}

	zap.L().Info("Server exiting")
}

// setupRateLimiter создает лимитер по IP. При наличии Redis счетчики
// общие для всех реплик, иначе хранятся в памяти процесса.
func setupRateLimiter(cfg *config.Config, redisClient *redis.Client) gin.HandlerFunc {
	var store rateli.Store
	if redisClient != nil {
		store = rateli.RedisStore(&rateli.RedisOptions{
			RedisClient: redisClient,
			Rate:        time.Minute,
			Limit:       cfg.RateLimitPerMinute,
		})
	} else {
		store = rateli.InMemoryStore(&rateli.InMemoryOptions{
			Rate:  time.Minute,
			Limit: cfg.RateLimitPerMinute,
		})
	}

	return rateli.RateLimiter(store, &rateli.Options{
		ErrorHandler: func(c *gin.Context, info rateli.Info) {
			zap.L().Warn("Rate limit exceeded",
				zap.String("clientIP", c.ClientIP()),
				zap.Time("resetTime", info.ResetTime),
				zap.String("path", c.Request.URL.Path),
			)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, handler.ErrorResponse{
				Code:    "RATE_LIMITED",
				Message: "Too many requests. Try again in " + time.Until(info.ResetTime).Round(time.Second).String(),
			})
		},
		KeyFunc: func(c *gin.Context) string {
			return c.ClientIP()
		},
	})
}

// connectRedis подключается к Redis, повторяя ping до cfg.RedisConnectRetries
// раз с паузой cfg.RedisRetryDelay. Отмена ctx (SIGINT/SIGTERM на старте)
// прерывает ожидание сразу.
func connectRedis(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*redis.Client, error) {
	opts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
	retries := max(cfg.RedisConnectRetries, 1)
	log := logger.With(zap.String("address", opts.Addr), zap.Int("db", opts.DB))
	log.Info("Connecting to Redis", zap.Int("max_attempts", retries), zap.Duration("retry_delay", cfg.RedisRetryDelay))

	var lastErr error
	for attempt := 1; attempt <= retries; attempt++ {
		client := redis.NewClient(opts)
		pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
		err := client.Ping(pingCtx).Err()
		pingCancel()
		if err == nil {
			log.Info("Connected to Redis", zap.Int("attempt", attempt))
			return client, nil
		}
		_ = client.Close()
		lastErr = err

		if ctx.Err() != nil {
			return nil, fmt.Errorf("redis connect aborted after %d attempts: %w", attempt, ctx.Err())
		}
		if attempt == retries {
			break
		}
		log.Warn("Redis ping failed, retrying", zap.Int("attempt", attempt), zap.Error(err))

		timer := time.NewTimer(cfg.RedisRetryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("redis connect aborted after %d attempts: %w", attempt, ctx.Err())
		case <-timer.C:
		}
	}
	return nil, fmt.Errorf("failed to connect to redis after %d attempts: %w", retries, lastErr)
}
