package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storyrunner/internal/authutils"
	"storyrunner/internal/config"
	"storyrunner/internal/database"
	"storyrunner/internal/generation"
	"storyrunner/internal/handler"
	"storyrunner/internal/logger"
	"storyrunner/internal/messaging"
	"storyrunner/internal/middleware"
	"storyrunner/internal/service"
	"storyrunner/migrations"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"
)

func main() {
	// .env is optional; real deployments use the environment and secrets.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{Level: cfg.LogLevel, Encoding: "json"})
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	zap.ReplaceGlobals(log)
	log.Info("Configuration loaded", zap.String("logLevel", cfg.LogLevel))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- PostgreSQL ---
	pool, err := database.NewPgxPool(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer pool.Close()

	if err := database.RunMigrations(migrations.FS, cfg.GetDSN(), log); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}

	// --- Redis ---
	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	log.Info("Connected to Redis", zap.String("addr", cfg.RedisAddr))

	// --- RabbitMQ ---
	mqConn, err := connectRabbitMQ(cfg.RabbitMQURL, log)
	if err != nil {
		log.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
	}
	defer mqConn.Close()
	log.Info("Connected to RabbitMQ")

	publisher, err := messaging.NewRabbitMQPublisher(mqConn, cfg.EventsQueueName, log)
	if err != nil {
		log.Fatal("Failed to create event publisher", zap.Error(err))
	}

	// --- Repositories ---
	txRunner := database.NewPoolTxRunner(pool, log)
	userRepo := database.NewPgUserRepository(log)
	storyRepo := database.NewPgStoryRepository(log)
	sessionRepo := database.NewPgSessionRepository(log)
	chapterRepo := database.NewPgChapterRepository(log)
	walletRepo := database.NewPgWalletRepository(log)
	statsRepo := database.NewPgStoryStatsRepository(log)
	settingsRepo := database.NewRedisSettingsCache(
		database.NewPgSettingsRepository(log), redisClient, cfg.SettingsCacheTTL, log)

	// --- Services ---
	jwtManager, err := authutils.NewJWTManager(cfg.JWTSecret, cfg.AccessTokenTTL, log)
	if err != nil {
		log.Fatal("Failed to create JWT manager", zap.Error(err))
	}
	generator := generation.NewClient(cfg, log)

	authService := service.NewAuthService(pool, txRunner, userRepo, walletRepo, jwtManager, publisher, cfg.SignupGrantCredits, log)
	walletService := service.NewWalletService(pool, txRunner, userRepo, walletRepo, publisher, log)
	storyService := service.NewStoryService(pool, storyRepo, statsRepo, log)
	settingsService := service.NewSettingsService(pool, settingsRepo, log)
	sessionService := service.NewSessionService(pool, txRunner,
		sessionRepo, chapterRepo, storyRepo, settingsRepo, walletRepo,
		generator, publisher, cfg, log)

	// --- Analytics consumer ---
	analyticsConsumer := messaging.NewAnalyticsConsumer(mqConn, cfg.EventsQueueName, statsRepo, pool, log)
	go func() {
		if err := analyticsConsumer.StartConsuming(ctx); err != nil {
			log.Error("Analytics consumer stopped with error", zap.Error(err))
		}
	}()

	// --- HTTP ---
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.RedirectTrailingSlash = true
	router.Use(middleware.ZapLogging(log))
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(middleware.RateLimit(redisClient, cfg.RateLimitPerMinute, log))

	h := handler.NewHandler(authService, sessionService, storyService, settingsService, walletService, jwtManager, log)
	h.RegisterRoutes(router)

	p := ginprometheus.NewPrometheus("gin")
	p.Use(router)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // chapter generation can be slow
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("Starting HTTP server", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server listen error", zap.Error(err))
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	cancel() // stops the analytics consumer

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced to shutdown", zap.Error(err))
	}
	log.Info("Server exiting")
}

// connectRabbitMQ dials with retries so the server survives the broker coming
// up after it in compose environments.
func connectRabbitMQ(url string, log *zap.Logger) (*amqp.Connection, error) {
	var conn *amqp.Connection
	var err error
	const maxRetries = 5
	const retryDelay = 5 * time.Second
	for attempt := 1; attempt <= maxRetries; attempt++ {
		conn, err = amqp.Dial(url)
		if err == nil {
			return conn, nil
		}
		log.Warn("Failed to connect to RabbitMQ",
			zap.Int("attempt", attempt),
			zap.Int("maxAttempts", maxRetries),
			zap.Duration("retryDelay", retryDelay),
			zap.Error(err))
		time.Sleep(retryDelay)
	}
	return nil, err
}
