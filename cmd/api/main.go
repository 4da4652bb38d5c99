package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/forkful/backend/config"
	"github.com/forkful/backend/internal/api"
	"github.com/forkful/backend/internal/database"
	"github.com/forkful/backend/internal/middleware"
	"github.com/forkful/backend/internal/router"
	"github.com/forkful/backend/internal/server"
	"github.com/forkful/backend/internal/service"
)

func main() {
	// Load .env if present; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	redisClient, err := database.NewRedisClient(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	if redisClient == nil {
		log.Println("Redis not configured, AI rate limiting disabled")
	}

	s3Config, err := config.NewS3Config(context.Background())
	if err != nil {
		log.Fatalf("Failed to configure S3: %v", err)
	}
	if s3Config == nil {
		log.Println("S3 not configured, generated images will be stored inline")
	}

	if !cfg.AIConfigured() {
		log.Println("GEMINI_API_KEY not set, AI generation routes will return 503")
	}

	authService := service.NewAuthService(db, cfg.JWTSecret)
	geminiService := service.NewGeminiService(cfg)
	imageService := service.NewImageService(s3Config)
	recipeService := service.NewRecipeService(db, geminiService, imageService)

	var aiLimiter *middleware.RateLimiter
	if redisClient != nil {
		aiLimiter = middleware.NewGenerationRateLimiter(redisClient)
	}

	authHandler := api.NewAuthHandler(authService)
	recipeHandler := api.NewRecipeHandler(recipeService, authService, aiLimiter)

	engine := router.Setup(db, authHandler, recipeHandler, cfg.AllowedOrigins)
	srv := server.New(engine, cfg.ServerHost, cfg.ServerPort)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

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

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown error: %v", err)
	}
	log.Println("Server stopped")
}
