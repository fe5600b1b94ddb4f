package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/userhub/backend/config"
	"github.com/userhub/backend/internal/database"
	"github.com/userhub/backend/internal/server"
	"github.com/userhub/backend/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize database
	db, err := database.New(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Initialize Redis
	redisClient, err := database.NewRedisClient(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	// Initialize blob storage for profile pictures
	s3cfg, err := config.NewS3Config(context.Background())
	if err != nil {
		log.Fatalf("Failed to initialize S3: %v", err)
	}

	// Initialize the image host client
	uploader, err := service.NewCloudinaryService(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize image uploads: %v", err)
	}

	// Create the server
	srv := server.NewServer(cfg, db, redisClient, s3cfg, uploader)

	// Channel to listen for errors coming from the server
	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start(cfg.ServerHost, cfg.ServerPort)
	}()

	// Block until we receive a signal or error
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil {
			log.Fatalf("Server error: %v", err)
		}
	case sig := <-quit:
		log.Printf("Received signal: %v", sig)
	}

	// Gracefully shutdown the server
	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown error: %v", err)
	}
	log.Println("Server stopped")
}
