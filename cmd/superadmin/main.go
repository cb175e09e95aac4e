// Command superadmin creates or promotes the SuperAdmin accounts listed in
// SUPERADMIN{1,2,3}_NAME, _EMAIL and _PASSWORD.
package main

import (
	"context"
	"time"

	"github.com/Marga-Ghale/ora-taskflow-backend/internal/config"
	"github.com/Marga-Ghale/ora-taskflow-backend/internal/db"
	"github.com/Marga-Ghale/ora-taskflow-backend/internal/logging"
	"github.com/Marga-Ghale/ora-taskflow-backend/internal/repository"
	"github.com/Marga-Ghale/ora-taskflow-backend/internal/seed"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("❌ Invalid configuration: %v", err)
	}
	logging.Setup(cfg.Environment, cfg.LogLevel)

	if len(cfg.SuperAdmins) == 0 {
		logrus.Fatal("❌ No SuperAdmin configured. Set SUPERADMIN1_EMAIL and SUPERADMIN1_PASSWORD")
	}

	if err := db.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		logrus.Fatalf("❌ Migration failed: %v", err)
	}

	pg, err := db.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		logrus.Fatalf("❌ Failed to connect to PostgreSQL: %v", err)
	}
	defer pg.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	created, err := seed.EnsureSuperAdmins(ctx, repository.NewUserRepository(pg.Pool), cfg.SuperAdmins)
	if err != nil {
		logrus.Fatalf("❌ %v", err)
	}
	logrus.WithFields(logrus.Fields{
		"configured": len(cfg.SuperAdmins),
		"created":    created,
	}).Info("✅ SuperAdmin accounts ready")
}
