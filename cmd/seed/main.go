package main

import (
	"context"
	"log"
	"os"

	"rrnagar-backend/internal/config"
	"rrnagar-backend/internal/database"
	"rrnagar-backend/internal/logger"
	"rrnagar-backend/internal/seed"

	"go.uber.org/zap"
)

func main() {
	config.LoadDotEnv()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zlog, err := logger.Init(cfg.LogMode, cfg.LogFile)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer zlog.Sync()

	db, err := database.Open(cfg)
	if err != nil {
		zap.S().Fatalf("database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		zap.S().Fatalf("migrate: %v", err)
	}

	_, err = seed.Run(context.Background(), db, seed.Options{
		SupplierEmail:    envOr("SEED_SUPPLIER_EMAIL", "supplier@rrnagar.com"),
		SupplierPassword: os.Getenv("SEED_SUPPLIER_PASSWORD"),
		AdminName:        envOr("SEED_ADMIN_NAME", "Admin"),
		AdminEmail:       os.Getenv("SEED_ADMIN_EMAIL"),
		AdminPassword:    os.Getenv("SEED_ADMIN_PASSWORD"),
	})
	if err != nil {
		zap.S().Fatalf("seed: %v", err)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
