package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/Eugenia148/ISAC2025/internal/api"
	"github.com/Eugenia148/ISAC2025/internal/api/handlers"
	"github.com/Eugenia148/ISAC2025/internal/api/middleware"
	"github.com/Eugenia148/ISAC2025/internal/artifacts"
	"github.com/Eugenia148/ISAC2025/internal/config"
	"github.com/Eugenia148/ISAC2025/internal/ingest"
	"github.com/Eugenia148/ISAC2025/internal/jobs"
	"github.com/Eugenia148/ISAC2025/internal/profile"
	"github.com/Eugenia148/ISAC2025/internal/ws"
	"github.com/Eugenia148/ISAC2025/pkg/cache"
	"github.com/Eugenia148/ISAC2025/pkg/database"
	"github.com/Eugenia148/ISAC2025/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Setup logging
	logger.InitLogger(cfg.LogLevel, cfg.IsDevelopment())
	log := logger.GetLogger()

	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Load the artifact sets up front so the first request does not pay
	// the cold-read cost.
	store := artifacts.NewStore(cfg.ArtifactsDir, log)
	store.Warm()

	// Stats mirror is optional; identity fields degrade to artifact
	// metadata without it.
	var statsStore *ingest.Store
	if cfg.DatabaseURL != "" {
		db, err := database.NewConnection(cfg.DatabaseURL, cfg.IsDevelopment())
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()
		statsStore = ingest.NewStore(db, log)
	} else {
		log.Info("DATABASE_URL not set, running without the stats mirror")
	}

	// Redis cache is optional; the circuit breaker handles outages after
	// startup.
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to parse Redis URL: %v", err)
		}
		redisClient = redis.NewClient(opt)
		defer redisClient.Close()

		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			log.WithError(err).Warn("Redis unreachable at startup, continuing with cache degraded")
		}
		cancel()
	} else {
		log.Info("REDIS_URL not set, running without the payload cache")
	}
	profileCache := cache.NewProfileCache(redisClient, cfg.ParsedCacheTTL(), log)

	// Core service and build plumbing
	svc := profile.NewService(store, statsStore, cfg.HybridThreshold, log)

	hub := ws.NewHub(log)
	go hub.Run()

	runner := jobs.NewRunner(cfg.InputsDir, store, profileCache, hub, log)
	scheduler := jobs.NewScheduler(runner, log)
	if err := scheduler.Start(cfg.ReloadCron); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}
	defer scheduler.Stop()

	// Setup Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.ErrorLogger(log))
	router.Use(middleware.CORS(cfg.CORSOrigins))

	// Health endpoints stay outside the rate limit so probes never 429.
	healthHandler := handlers.NewHealthHandler(store, statsStore, profileCache, hub)
	router.GET("/health", healthHandler.GetHealth)
	router.GET("/ready", healthHandler.GetReady)

	// Versioned API under /api/v1
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	apiV1 := router.Group("/api/v1")
	apiV1.Use(rateLimiter.Middleware())
	api.SetupRoutes(apiV1, svc, profileCache, runner, cfg, log)

	// Build progress feed at root level, not under /api/v1
	router.GET("/ws/builds", hub.HandleWebSocket)

	// Setup server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Infof("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("Server forced to shutdown: %v", err)
	}

	log.Info("Server exited")
}
