package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	Port            string
	MongoDBURI      string
	MongoDBPassword string
	JWTSecret       string
	Environment     string
	LogLevel        string
	BookingDailyCap int
	RabbitMQURL     string
	RedisAddr       string
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:            getEnvWithDefault("PORT", "8080"),
		MongoDBURI:      os.Getenv("MONGODB_URI"),
		MongoDBPassword: os.Getenv("MONGODB_PASSWORD"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		Environment:     getEnvWithDefault("ENVIRONMENT", "development"),
		LogLevel:        getEnvWithDefault("LOG_LEVEL", "info"),
		BookingDailyCap: getEnvIntWithDefault("BOOKING_DAILY_CAP", 2),
		RabbitMQURL:     os.Getenv("RABBITMQ_URL"),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
	}

	// Validate required fields
	if cfg.MongoDBURI == "" {
		return nil, fmt.Errorf("MONGODB_URI is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.BookingDailyCap < 1 {
		return nil, fmt.Errorf("BOOKING_DAILY_CAP must be at least 1")
	}

	return cfg, nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
