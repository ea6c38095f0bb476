package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rrnagar-backend/internal/catalog"
	"rrnagar-backend/internal/config"
	"rrnagar-backend/internal/database"
	"rrnagar-backend/internal/logger"
	"rrnagar-backend/internal/server"
	"rrnagar-backend/internal/sessions"
	"rrnagar-backend/internal/store"
	"rrnagar-backend/internal/translate"

	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

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

	for _, w := range cfg.Warnings() {
		zap.S().Warn(w)
	}

	db, err := database.Open(cfg)
	if err != nil {
		zap.S().Fatalf("database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		zap.S().Fatalf("migrate: %v", err)
	}

	sessionStore, sessionStorage, err := sessions.New(cfg, db)
	if err != nil {
		zap.S().Fatalf("sessions: %v", err)
	}

	translator := translate.New(cfg.TranslateURL, cfg.TranslateAPIKey, cfg.TranslateTimeout)
	enricher, err := catalog.NewEnricher(cfg.EnrichWorkers, translator, store.NewProducts(db), cfg.TranslateTarget)
	if err != nil {
		zap.S().Fatalf("enricher: %v", err)
	}

	app := server.New(server.Deps{
		Config:     cfg,
		DB:         db,
		Sessions:   sessionStore,
		Translator: translator,
		Enricher:   enricher,
	})

	go func() {
		addr := ":" + cfg.HTTPPort
		zap.S().Infof("listening on %s (env=%s, sessions=%s)", addr, cfg.Env, cfg.SessionStore)
		if err := app.Listen(addr); err != nil {
			zap.S().Fatalf("server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zap.S().Info("shutting down")

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		zap.S().Warnf("http shutdown: %v", err)
	}
	if err := enricher.Close(shutdownTimeout); err != nil {
		zap.S().Warnf("translation tasks still running: %v", err)
	}
	if sessionStorage != nil {
		if err := sessionStorage.Close(); err != nil {
			zap.S().Warnf("session storage close: %v", err)
		}
	}
}
