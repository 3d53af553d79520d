package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds all environment-driven settings for the server process.
type Config struct {
	Port      string
	MongoURI  string
	DBName    string
	JWTSecret string
	ClientURL string

	// RedisAddr, when set, switches the unread tracker to the Redis
	// backend so counters survive a gateway restart.
	RedisAddr     string
	RedisPassword string
}

// LoadConfig reads configuration from the environment, falling back to a
// local .env file when present.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, relying on environment variables")
	}

	return &Config{
		Port:          getEnv("PORT", "5000"),
		MongoURI:      getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		DBName:        getEnv("DB_NAME", "chat_server"),
		JWTSecret:     getEnv("JWT_SECRET", ""),
		ClientURL:     getEnv("CLIENT_URL", "http://localhost:5173"),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
