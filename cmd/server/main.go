package main

import (
	"fmt"
	"log"

	"unionvote/internal/config"
	"unionvote/internal/router"
	"unionvote/internal/services"
	"unionvote/internal/storage"
	"unionvote/internal/storage/memory"
	"unionvote/internal/storage/postgres"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env when present; real deployments set env vars directly.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading configuration from environment")
	}

	cfg := config.Load()

	var store storage.Storage
	switch cfg.StorageType {
	case "postgres":
		pg, err := postgres.New(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to initialize storage: %v", err)
		}
		store = pg
	case "memory":
		store = memory.New()
		log.Println("Using in-memory storage, data will not survive restarts")
	default:
		log.Fatalf("Unknown STORAGE %q (want memory or postgres)", cfg.StorageType)
	}

	rooms := services.NewRoomService(cfg.RoomAPIURL, cfg.RoomAPIKey, cfg.RoomDomain)

	r := gin.Default()
	router.RegisterRoutes(r, store, rooms, cfg)

	log.Printf("Server starting on port %d", cfg.Port)
	if err := r.Run(fmt.Sprintf(":%d", cfg.Port)); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
