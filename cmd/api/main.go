// main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Marga-Ghale/ora-taskflow-backend/internal/api"
	"github.com/Marga-Ghale/ora-taskflow-backend/internal/api/handlers"
	"github.com/Marga-Ghale/ora-taskflow-backend/internal/cache"
	"github.com/Marga-Ghale/ora-taskflow-backend/internal/config"
	"github.com/Marga-Ghale/ora-taskflow-backend/internal/cron"
	"github.com/Marga-Ghale/ora-taskflow-backend/internal/db"
	"github.com/Marga-Ghale/ora-taskflow-backend/internal/logging"
	"github.com/Marga-Ghale/ora-taskflow-backend/internal/models"
	"github.com/Marga-Ghale/ora-taskflow-backend/internal/notification"
	"github.com/Marga-Ghale/ora-taskflow-backend/internal/repository"
	"github.com/Marga-Ghale/ora-taskflow-backend/internal/seed"
	"github.com/Marga-Ghale/ora-taskflow-backend/internal/service"
	"github.com/Marga-Ghale/ora-taskflow-backend/internal/socket"
	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	// ============================================
	// Load environment variables
	// ============================================
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using environment variables")
	}

	// ============================================
	// Load configuration
	// ============================================
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("❌ Invalid configuration: %v", err)
	}
	logging.Setup(cfg.Environment, cfg.LogLevel)

	// ============================================
	// Error reporting (optional)
	// ============================================
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.SentryDSN,
			Environment: cfg.Environment,
		}); err != nil {
			logrus.Warnf("⚠️ Sentry init failed: %v", err)
		} else {
			defer sentry.Flush(2 * time.Second)
			logrus.Info("🛰️ Sentry enabled")
		}
	}

	// ============================================
	// Set Gin mode
	// ============================================
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := models.RegisterValidators(); err != nil {
		logrus.Fatalf("❌ Validator setup failed: %v", err)
	}

	// ============================================
	// Run Database Migrations FIRST
	// ============================================
	logrus.Info("🔄 Running database migrations...")
	if err := db.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		logrus.Fatalf("❌ Migration failed: %v", err)
	}
	logrus.Info("✅ Database migrations completed")

	// ============================================
	// Initialize PostgreSQL (pgxpool + sqlx)
	// ============================================
	pg, err := db.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		logrus.Fatalf("❌ Failed to connect to PostgreSQL: %v", err)
	}
	defer pg.Close()

	// ============================================
	// Initialize Repositories
	// ============================================
	repos := repository.NewRepositories(pg.Pool, pg.SQLX)
	logrus.Info("📦 Repositories initialized")

	// ============================================
	// Initialize Redis (optional)
	// ============================================
	var (
		redisDB     *db.RedisDB
		redisActors *cache.ActorCache
		actorCache  service.ActorCache
	)
	if cfg.RedisURL != "" {
		redisDB, err = db.NewRedisDB(cfg.RedisURL)
		if err != nil {
			logrus.Warnf("⚠️ Failed to connect to Redis: %v (continuing without cache)", err)
		} else {
			defer redisDB.Close()
			redisActors = cache.NewActorCache(redisDB, cfg.ActorCacheDuration())
			actorCache = redisActors
			logrus.Info("⚡ Redis cache enabled")
		}
	}

	// ============================================
	// Initialize WebSocket Hub
	// ============================================
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	hub := socket.NewHub()
	go hub.Run(ctx)
	broadcaster := socket.NewBroadcaster(hub)
	logrus.Info("🔌 WebSocket hub initialized")

	// ============================================
	// Initialize Notification Service
	// ============================================
	notificationSvc := notification.NewService(repos.NotificationRepo)
	notificationSvc.SetEmitter(broadcaster)

	// ============================================
	// Initialize All Services
	// ============================================
	services := service.NewServices(&service.ServiceDeps{
		Config:     cfg,
		Repos:      repos,
		Notifier:   notificationSvc,
		ActorCache: actorCache,
	})
	logrus.Info("✨ All services initialized")

	// ============================================
	// Seed SuperAdmins
	// ============================================
	if _, err := seed.EnsureSuperAdmins(ctx, repos.UserRepo, cfg.SuperAdmins); err != nil {
		logrus.Fatalf("❌ SuperAdmin seed failed: %v", err)
	}
	// Seeded role changes must not be hidden by actors cached before a restart.
	if redisActors != nil {
		if err := redisActors.Flush(ctx); err != nil {
			logrus.Warnf("⚠️ Failed to flush actor cache: %v", err)
		}
	}

	// ============================================
	// Initialize Cron Scheduler
	// ============================================
	cronScheduler := cron.NewScheduler(cron.Repos{
		Notifications: repos.NotificationRepo,
		RefreshTokens: repos.UserRepo,
		TimeLogs:      repos.TimeLogRepo,
	}, cfg.NotificationRetentionDays)
	cronScheduler.Start()
	defer cronScheduler.Stop()

	// ============================================
	// Create Gin Router
	// ============================================
	wsHandler := socket.NewHandler(hub, services.Auth, cfg.FrontendURL)
	r := api.NewRouter(api.RouterDeps{
		Config:    cfg,
		Handlers:  handlers.NewHandlers(services, broadcaster),
		Auth:      services.Auth,
		WebSocket: wsHandler.HandleWebSocket,
		Health: func() gin.H {
			return gin.H{
				"database":   databaseStatus(pg),
				"cache":      getCacheStatus(redisDB),
				"websocket":  "active",
				"ws_clients": hub.GetConnectedClientsCount(),
			}
		},
	})

	// Create server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server
	go func() {
		logrus.Infof("🚀 Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}
	stop()

	logrus.Info("Server exited")
}

func databaseStatus(pg *db.PostgresDB) string {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := pg.Ping(ctx); err != nil {
		return "unreachable"
	}
	return "connected"
}

func getCacheStatus(redisDB *db.RedisDB) string {
	if redisDB != nil {
		return "connected"
	}
	return "disabled"
}
