package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port                    string
	MongoDBConnectionString string
	MongoDBDatabaseName     string
	RabbitMQHostName        string
	RabbitMQExchange        string
	RabbitMQQueueName       string
	RedisAddr               string
	JWTSecret               string
	RateLimitPerMinute      int
	Timezone                string
	LowStockThreshold       int
}

func LoadConfig() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: .env file not found, using environment variables only")
	}

	config := &Config{
		Port:                    os.Getenv("PORT"),
		MongoDBConnectionString: os.Getenv("MONGODB_CONNECTION_STRING"),
		MongoDBDatabaseName:     os.Getenv("MONGODB_DATABASE_NAME"),
		RabbitMQHostName:        os.Getenv("RABBITMQ_HOSTNAME"),
		RabbitMQExchange:        os.Getenv("RABBITMQ_EXCHANGE"),
		RabbitMQQueueName:       os.Getenv("RABBITMQ_QUEUENAME"),
		RedisAddr:               os.Getenv("REDIS_ADDR"),
		JWTSecret:               os.Getenv("JWT_SECRET"),
		RateLimitPerMinute:      intFromEnv("RATE_LIMIT_PER_MINUTE", 50),
		Timezone:                os.Getenv("TIMEZONE"),
		LowStockThreshold:       intFromEnv("LOW_STOCK_THRESHOLD", 10),
	}

	// Set default values if environment variables are not set
	if config.Port == "" {
		config.Port = "8080"
	}
	if config.MongoDBConnectionString == "" {
		config.MongoDBConnectionString = "mongodb://localhost:27017/?replicaSet=rs0"
	}
	if config.MongoDBDatabaseName == "" {
		config.MongoDBDatabaseName = "mapoo-store"
	}
	if config.RabbitMQExchange == "" {
		config.RabbitMQExchange = "store_events"
	}
	if config.RabbitMQQueueName == "" {
		config.RabbitMQQueueName = "store_events_queue"
	}
	if config.Timezone == "" {
		config.Timezone = "Asia/Bangkok"
	}
	if config.JWTSecret == "" {
		log.Println("Warning: JWT_SECRET is not set, protected routes will reject every token")
	}

	return config, nil
}

func intFromEnv(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		log.Printf("Warning: invalid %s=%q, using %d", key, raw, fallback)
		return fallback
	}
	return v
}
