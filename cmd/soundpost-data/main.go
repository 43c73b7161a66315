package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"soundpost-data/internal/config"
	"soundpost-data/internal/database"
	httpapi "soundpost-data/internal/http"
	"soundpost-data/internal/logger"
	"soundpost-data/internal/mqtt"
	"soundpost-data/internal/repository"
	"soundpost-data/internal/schema"
	"soundpost-data/internal/service"
)

func main() {
	cfg := config.Load()

	zlog, err := logger.New(cfg.Log.Level, cfg.Log.Format, "soundpost-data")
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		zlog.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	applied, err := database.ApplyMigrations(db, cfg.Database.MigrationsDir)
	if err != nil {
		zlog.Fatal("Failed to apply migrations", zap.Error(err))
	}
	zlog.Info("Migrations applied", zap.Strings("files", applied))

	devicesRepo := repository.NewPostgresDevicesRepository(db)
	eventsRepo := repository.NewPostgresEventsRepository(db)
	errorsRepo := repository.NewPostgresErrorsRepository(db)
	statsRepo := repository.NewPostgresStatsRepository(db)

	classifier, err := schema.NewClassifier()
	if err != nil {
		zlog.Fatal("Failed to compile payload schemas", zap.Error(err))
	}

	ingestSvc := service.NewIngestService(devicesRepo, eventsRepo, errorsRepo, classifier, zlog)

	router := httpapi.NewRouter(zlog)
	router.RegisterAPIRoutes(
		httpapi.NewIngestHandler(ingestSvc, zlog, cfg.Ingest.MaxBodyBytes, !cfg.IsProduction()),
		httpapi.NewDeviceHandler(devicesRepo, zlog),
		httpapi.NewEventHandler(eventsRepo, zlog),
		httpapi.NewStatsHandler(statsRepo, zlog),
		httpapi.NewErrorsHandler(errorsRepo, zlog),
		httpapi.DeviceAuth(ingestSvc, zlog),
	)

	srv := service.NewServer(cfg.HTTP.Addr, httpapi.RequestLog(zlog, router), zlog)

	var bridge *mqtt.Bridge
	if cfg.MQTT.Enabled {
		bridge = mqtt.NewBridge(&cfg.MQTT, ingestSvc, zlog)
		if err := bridge.Start(); err != nil {
			zlog.Fatal("Failed to start MQTT bridge", zap.Error(err))
		}
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		zlog.Info("Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errCh:
		zlog.Error("HTTP server exited", zap.Error(err))
	}

	if bridge != nil {
		bridge.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		zlog.Warn("Graceful shutdown incomplete", zap.Error(err))
	}
}
