package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Kalaith/nightmare-shift-sub000/internal/config"
	"github.com/Kalaith/nightmare-shift-sub000/internal/handlers"
	"github.com/Kalaith/nightmare-shift-sub000/internal/logger"
	"github.com/Kalaith/nightmare-shift-sub000/internal/middleware"
	"github.com/Kalaith/nightmare-shift-sub000/internal/services/events"
	"github.com/Kalaith/nightmare-shift-sub000/internal/shift"
	"github.com/Kalaith/nightmare-shift-sub000/internal/storage"
	"github.com/Kalaith/nightmare-shift-sub000/pkg/rng"
	"github.com/Kalaith/nightmare-shift-sub000/pkg/weather"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Nightmare Shift API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"data_dir", cfg.DataDir,
		"strict_conditions", cfg.StrictConditions)

	store, err := storage.NewRedisStorage(cfg.RedisURL, cfg.DataDir, cfg.SessionTTL, log)
	if err != nil {
		log.Error("Failed to create storage", "error", err)
		os.Exit(1)
	}

	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()
	if err := store.WaitForConnection(storageCtx, 30, 2*time.Second); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}

	guidelines, err := store.ListGuidelines(storageCtx)
	if err != nil {
		log.Error("Failed to load guidelines", "error", err)
		os.Exit(1)
	}
	passengers, err := store.ListPassengers(storageCtx)
	if err != nil {
		log.Error("Failed to load passengers", "error", err)
		os.Exit(1)
	}
	log.Info("Content loaded", "guidelines", len(guidelines), "passengers", len(passengers))

	src := rng.New(cfg.RNGSeed)
	broadcaster := events.NewBroadcaster(store.Client(), log)
	service := shift.NewService(store, broadcaster, src, weather.NewGenerator(int64(cfg.RNGSeed)), shift.Options{
		GuidelinesPerShift: cfg.GuidelinesPerShift,
		StrictConditions:   cfg.StrictConditions,
	}, log)

	mux := http.NewServeMux()
	mux.Handle("/health", handlers.NewHealthHandler(store, log))

	guidelinesHandler := handlers.NewGuidelinesHandler(service, log)
	mux.Handle("/v1/guidelines", guidelinesHandler)
	mux.Handle("/v1/guidelines/", guidelinesHandler)

	shiftHandler := handlers.NewShiftHandler(service, log)
	mux.Handle("/v1/shifts", shiftHandler)
	mux.Handle("/v1/shifts/", shiftHandler)

	mux.Handle("/v1/events/shifts/", handlers.NewEventsHandler(store.Client(), log))

	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     middleware.Logger(log, mux),
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: the SSE stream stays open for the whole shift.
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}
	if err := store.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}

	log.Info("Server exited")
}
