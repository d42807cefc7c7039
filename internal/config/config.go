package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port        int
	StorageType string // "memory" or "postgres"
	DatabaseURL string
	JWTSecret   string

	// Video room provider. Empty RoomAPIURL switches the room service
	// into local mode, which fabricates room URLs under RoomDomain.
	RoomAPIURL string
	RoomAPIKey string
	RoomDomain string
}

func Load() Config {
	port := 8080
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			port = p
		}
	}

	storageType := os.Getenv("STORAGE")
	if storageType == "" {
		storageType = "memory"
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "secret_key_change_me"
	}

	roomDomain := os.Getenv("ROOM_DOMAIN")
	if roomDomain == "" {
		roomDomain = "https://rooms.unionvote.local"
	}

	return Config{
		Port:        port,
		StorageType: storageType,
		DatabaseURL: os.Getenv("DATABASE_URL"),
		JWTSecret:   secret,
		RoomAPIURL:  os.Getenv("ROOM_API_URL"),
		RoomAPIKey:  os.Getenv("ROOM_API_KEY"),
		RoomDomain:  roomDomain,
	}
}
