package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Store backends accepted in STORE_BACKEND.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Config holds the application's configuration values.
type Config struct {
	HostIP         string        // Host IP for the server
	RESTPort       int           // Port for the REST API
	GinMode        string        // Mode for the Gin framework (e.g., release, debug, test)
	LogLevel       string        // Minimum log level (debug, info, warn, error)
	StoreBackend   string        // Where presence and the waiting pool live: memory or redis
	RedisAddr      string        // Redis address, used by the redis backend
	RedisPassword  string        // Redis password
	RedisDB        int           // Redis logical database
	RedisPrefix    string        // Prefix for every redis key
	StaleThreshold time.Duration // Inactivity after which a client is evicted
	SweepPeriod    time.Duration // Interval between stale-entry sweeps
}

// Envs holds the application's configuration loaded from environment variables.
var Envs = initConfig()

// initConfig initializes and returns the application configuration.
// It loads environment variables from a .env file.
func initConfig() Config {
	// Load .env file if available
	if err := godotenv.Load(); err != nil {
		log.Printf("[APP] [INFO] .env file not found or could not be loaded: %v", err)
	}

	return Config{
		HostIP:         getEnvWithDefault("HOST_IP", "0.0.0.0"),
		RESTPort:       getEnvAsIntWithDefault("PORT", 3000),
		GinMode:        getEnvWithDefault("GIN_MODE", "release"),
		LogLevel:       getEnvWithDefault("LOG_LEVEL", "info"),
		StoreBackend:   getEnvWithDefault("STORE_BACKEND", StoreMemory),
		RedisAddr:      getEnvWithDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  getEnvWithDefault("REDIS_PASSWORD", ""),
		RedisDB:        getEnvAsIntWithDefault("REDIS_DB", 0),
		RedisPrefix:    getEnvWithDefault("REDIS_PREFIX", "rendezvous"),
		StaleThreshold: getEnvAsDurationWithDefault("STALE_THRESHOLD", 30*time.Second),
		SweepPeriod:    getEnvAsDurationWithDefault("SWEEP_PERIOD", 60*time.Second),
	}
}

// getEnvAsIntWithDefault retrieves an integer environment variable, falling back to defaultValue when unset.
// A value that cannot be parsed is fatal.
func getEnvAsIntWithDefault(key string, defaultValue int) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Fatalf("[APP] [FATAL] Environment variable %s must be an integer: %v", key, err)
	}
	return value
}

// getEnvAsDurationWithDefault retrieves a duration ("30s", "2m") environment variable.
// A value that cannot be parsed or is not positive is fatal.
func getEnvAsDurationWithDefault(key string, defaultValue time.Duration) time.Duration {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Fatalf("[APP] [FATAL] Environment variable %s must be a duration: %v", key, err)
	}
	if value <= 0 {
		log.Fatalf("[APP] [FATAL] Environment variable %s must be positive, got %s", key, value)
	}
	return value
}

// getEnvWithDefault retrieves the value of an environment variable or returns a default value if not set.
func getEnvWithDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
