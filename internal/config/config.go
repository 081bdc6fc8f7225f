package config

import (
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	AWKTablePath    string
	RequestsDir     string
	OutputDir       string
	LogLevel        string
	BindAddr        string
	UsersBackend    string
	UsersDBPath     string
	UsersDSN        string
	MongoURI        string
	MongoDatabase   string
	MongoCollection string
}

// Load reads MDGEN_* variables. A .env file in the working directory fills in
// variables that are not already set in the environment.
func Load() *Config {
	// godotenv never overrides variables already set; a missing file is fine.
	_ = godotenv.Load(".env")

	return &Config{
		AWKTablePath:    getEnv("MDGEN_AWK_TABLE", ""),
		RequestsDir:     getEnv("MDGEN_REQUESTS_DIR", "./requests"),
		OutputDir:       getEnv("MDGEN_OUTPUT_DIR", "./output"),
		LogLevel:        getEnv("MDGEN_LOG_LEVEL", "info"),
		BindAddr:        getEnv("MDGEN_BIND_ADDR", ":8080"),
		UsersBackend:    getEnv("MDGEN_USERS_BACKEND", "sqlite"),
		UsersDBPath:     getEnv("MDGEN_USERS_DB", "./mdgen-users.sqlite"),
		UsersDSN:        getEnv("MDGEN_DB", ""),
		MongoURI:        getEnv("MDGEN_MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:   getEnv("MDGEN_MONGO_DB", "mock_data_generator"),
		MongoCollection: getEnv("MDGEN_MONGO_COLLECTION", "users"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
