package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

type MongoConfig struct {
	URI                    string
	Database               string
	MaxPoolSize            uint64
	MinPoolSize            uint64
	MaxConnIdleTime        time.Duration
	ConnectTimeout         time.Duration
	ServerSelectionTimeout time.Duration
}

func DefaultMongoConfig() *MongoConfig {
	return &MongoConfig{
		URI:                    "mongodb://localhost:27017",
		Database:               "library_management_system",
		MaxPoolSize:            100,
		MinPoolSize:            25,
		MaxConnIdleTime:        30 * time.Second,
		ConnectTimeout:         5 * time.Second,
		ServerSelectionTimeout: 5 * time.Second,
	}
}

func LoadMongoConfig() *MongoConfig {
	godotenv.Load(".env")
	config := DefaultMongoConfig()

	if uri := os.Getenv("MONGODB_URI"); uri != "" {
		config.URI = uri
	}
	if database := os.Getenv("MONGODB_DATABASE"); database != "" {
		config.Database = database
	}
	if size, err := strconv.ParseUint(os.Getenv("MONGODB_MAX_POOL_SIZE"), 10, 64); err == nil {
		config.MaxPoolSize = size
	}
	if size, err := strconv.ParseUint(os.Getenv("MONGODB_MIN_POOL_SIZE"), 10, 64); err == nil {
		config.MinPoolSize = size
	}

	return config
}

type ServiceConfig struct {
	Port      string
	Store     string
	LogLevel  string
	LogFormat string
}

func LoadServiceConfig() *ServiceConfig {
	godotenv.Load(".env")
	config := &ServiceConfig{
		Port:      "50052",
		Store:     StoreMongo,
		LogLevel:  "info",
		LogFormat: "text",
	}

	if port := os.Getenv("BOOK_SERVICE_PORT"); port != "" {
		config.Port = port
	}
	if store := os.Getenv("BOOK_STORE"); store != "" {
		config.Store = store
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.LogLevel = level
	}
	if format := os.Getenv("LOG_FORMAT"); format != "" {
		config.LogFormat = format
	}

	return config
}
