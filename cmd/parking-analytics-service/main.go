package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"parking-analytics-service/internal/config"
	"parking-analytics-service/internal/db"
	httphandler "parking-analytics-service/internal/http"
	"parking-analytics-service/internal/live"
	"parking-analytics-service/internal/logger"
	"parking-analytics-service/internal/repository"
	"parking-analytics-service/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.Environment)

	database, err := db.New(cfg, appLogger)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to connect database")
	}

	analysisRepo := repository.NewAnalysisRepository(database, cfg.Analysis.Strategy)
	metadataRepo := repository.NewMetadataRepository(database)
	statusRepo := repository.NewStatusRepository(database)
	adminRepo := repository.NewAdminRepository(database)

	analysisService := service.NewAnalysisService(analysisRepo, cfg.Analysis.QueryTimeout, appLogger)
	metadataService := service.NewMetadataService(metadataRepo, appLogger)
	statusService := service.NewStatusService(statusRepo, appLogger)
	adminService := service.NewAdminService(adminRepo, appLogger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := live.NewHub(cfg.Live.PingInterval, appLogger)
	go hub.Run(ctx)

	listener, err := live.NewListener(cfg.DB.DSN, cfg.Live.Channel, hub, appLogger)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to start event listener")
	}
	go listener.Run(ctx)

	handler := httphandler.NewHandler(analysisService, metadataService, statusService, adminService, hub, appLogger)
	router := httphandler.NewRouter(handler, cfg.Environment)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	appLogger.Info().
		Str("addr", addr).
		Str("strategy", string(cfg.Analysis.Strategy)).
		Msg("starting parking analytics service")

	if err := router.Run(addr); err != nil {
		appLogger.Error().Err(err).Msg("failed to start server")
		os.Exit(1)
	}
}
