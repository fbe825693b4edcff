package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Phoomss/ChaiCharoen-Catering/internal/config"
	"github.com/Phoomss/ChaiCharoen-Catering/internal/connect"
	"github.com/Phoomss/ChaiCharoen-Catering/internal/container"
	"github.com/Phoomss/ChaiCharoen-Catering/internal/models"
	"github.com/Phoomss/ChaiCharoen-Catering/internal/routes"
)

func main() {
	// Load environment variables
	_ = godotenv.Load(".env.local")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup logger
	logger := setupLogger(cfg)
	logger.Info("Starting ChaiCharoen API server", "environment", cfg.Environment)

	cld, err := connect.CloudinaryCredentials()
	if err != nil {
		// Slip upload degrades; bookings still work without it.
		logger.Warn("Cloudinary unavailable, slip upload disabled", "error", err)
		cld = nil
	}

	// Initialize database connections
	mongoClient, err := connect.MongoDBConnect()
	if err != nil {
		logger.Error("Failed to connect to MongoDB", "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to MongoDB successfully")

	// Unique indexes back the booking-code and date-slot guarantees, so
	// refuse to serve without them.
	indexCtx, cancelIdx := context.WithTimeout(context.Background(), 30*time.Second)
	if err := models.MongodbNewRepo(mongoClient).EnsureIndexes(indexCtx); err != nil {
		cancelIdx()
		logger.Error("Failed to ensure indexes", "error", err)
		os.Exit(1)
	}
	cancelIdx()

	redisClient := connect.RedisConnect(cfg.RedisAddr)
	if redisClient == nil && cfg.RedisAddr != "" {
		logger.Warn("Redis unavailable, rate limiting disabled")
	}

	// Initialize dependency container
	appContainer := container.NewContainer(cfg, logger, cld, mongoClient, redisClient)

	// Setup routes
	router := routes.SetupRoutes(appContainer)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	// Give outstanding requests 30 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown server
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	// Close database connections
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if err := connect.MongoDBDisconnect(); err != nil {
		logger.Error("Error disconnecting from MongoDB", "error", err)
	}

	logger.Info("Server exited")
}

func setupLogger(cfg *config.Config) *slog.Logger {
	var handler slog.Handler

	if cfg.IsProduction() {
		// JSON logging for production
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	} else {
		// Human-readable logging for development
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	}

	return slog.New(handler)
}
