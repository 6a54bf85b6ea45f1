package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jwebster45206/adventure-engine/internal/config"
	"github.com/jwebster45206/adventure-engine/internal/engine"
	"github.com/jwebster45206/adventure-engine/internal/handlers"
	"github.com/jwebster45206/adventure-engine/internal/logger"
	"github.com/jwebster45206/adventure-engine/internal/middleware"
	"github.com/jwebster45206/adventure-engine/internal/services"
	"github.com/jwebster45206/adventure-engine/internal/storage"
	"github.com/jwebster45206/adventure-engine/pkg/dice"
)

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg)

	log.Info("Starting Adventure Engine API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"oracle_provider", cfg.OracleProvider,
		"model_name", cfg.ModelName)

	if err := cfg.Validate(); err != nil {
		log.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	var oracle services.Oracle
	switch cfg.OracleProvider {
	case "anthropic":
		oracle = services.NewAnthropicOracle(cfg.AnthropicAPIKey, cfg.ModelName, log)
		log.Info("Using Anthropic oracle provider")
	case "ollama":
		ollama := services.NewOllamaOracle(cfg.OllamaURL, cfg.ModelName, log)
		modelCtx, modelCancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer modelCancel()
		if err := ollama.EnsureModel(modelCtx); err != nil {
			log.Error("Failed to initialize oracle model", "error", err, "model", cfg.ModelName)
			os.Exit(1)
		}
		oracle = ollama
		log.Info("Using Ollama oracle provider")
	default:
		// Validate rejects unknown providers before this point.
		log.Error("Invalid oracle provider", "provider", cfg.OracleProvider)
		os.Exit(1)
	}

	store := storage.NewRedisStore(cfg.RedisURL, cfg.DataDir, log)
	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()

	if err := store.Ping(storageCtx); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}
	log.Info("Storage connection established successfully")

	eng := engine.New(store, store, oracle, dice.NewRandomRoller(), log)

	mux := http.NewServeMux()

	healthHandler := handlers.NewHealthHandler(store, log)
	mux.Handle("/health", healthHandler)

	adventureHandler := handlers.NewAdventureHandler(store, eng, log)
	mux.Handle("/v1/adventures", adventureHandler)
	mux.Handle("/v1/adventures/", adventureHandler)

	turnHandler := handlers.NewTurnHandler(store, eng, log)
	mux.Handle("/v1/turns/", turnHandler)

	handler := middleware.Logger(log, mux)
	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// WriteTimeout stays unset: oracle-backed endpoints can run long
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	if err := store.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("Server exited")
}
