// Package config provides configuration management for the notebook service.
// It handles loading and validation of configuration values from environment variables,
// with support for required variables, default values, and collective error reporting:
// every problem is reported at once instead of failing on the first one.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store backends understood by STORE_BACKEND.
const (
	StoreBackendPostgres = "postgres"
	StoreBackendMemory   = "memory"
)

// PoolConfig represents configuration for the database connection pool.
type PoolConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	MaxSize     int
	AutoMigrate bool
}

// AuthConfig holds authentication-related configuration.
type AuthConfig struct {
	JWTSecret           string        // Secret key for signing JWTs
	AccessTokenDuration time.Duration // Lifetime of an access token
	TokenHeader         string        // Request header that carries the bearer token
	BcryptCost          int           // Work factor for password hashes
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Port           string // Port for the HTTP server
	AllowedOrigins []string
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level  string
	Format string // "json" or "text"
}

// AppConfig is the top-level configuration structure for the application.
type AppConfig struct {
	StoreBackend string
	DB           *PoolConfig
	Auth         *AuthConfig
	Server       *ServerConfig
	Log          *LogConfig
}

// Helper function to get a required environment variable.
// Appends an error to the errors slice if the variable is not set or blank.
func getRequiredEnv(key string, errors *[]string) string {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		*errors = append(*errors, fmt.Sprintf("missing required environment variable: %s", key))
		return ""
	}
	return value
}

// Helper function to get an optional environment variable with a default string value.
func getOptionalEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

// Helper function to get an optional environment variable parsed as an int.
// Uses defaultValue if not set or if parsing fails. Appends an error if parsing fails.
func getOptionalEnvInt(key string, defaultValue int, errors *[]string) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists || valueStr == "" {
		return defaultValue
	}
	valueInt, err := strconv.Atoi(valueStr)
	if err != nil {
		*errors = append(*errors, fmt.Sprintf("invalid value for %s: expected integer, got '%s': %v", key, valueStr, err))
		return defaultValue
	}
	return valueInt
}

// Helper function to get an optional environment variable parsed as a bool.
func getOptionalEnvBool(key string, defaultValue bool, errors *[]string) bool {
	valueStr, exists := os.LookupEnv(key)
	if !exists || valueStr == "" {
		return defaultValue
	}
	v, err := strconv.ParseBool(valueStr)
	if err != nil {
		*errors = append(*errors, fmt.Sprintf("invalid value for %s: expected boolean, got '%s': %v", key, valueStr, err))
		return defaultValue
	}
	return v
}

// Helper function to get an optional environment variable parsed as time.Duration.
// `time.ParseDuration` expects a string like "15m", "1h30s".
func getOptionalEnvDuration(key string, defaultValue time.Duration, errors *[]string) time.Duration {
	valueStr, exists := os.LookupEnv(key)
	if !exists || valueStr == "" {
		return defaultValue
	}
	valueDuration, err := time.ParseDuration(valueStr)
	if err != nil {
		*errors = append(*errors, fmt.Sprintf("invalid value for %s: expected duration string, got '%s': %v", key, valueStr, err))
		return defaultValue
	}
	if valueDuration <= 0 {
		*errors = append(*errors, fmt.Sprintf("invalid value for %s: duration must be positive, got '%s'", key, valueStr))
		return defaultValue
	}
	return valueDuration
}

// clampPoolSize keeps the pool size between 2 and 100.
func clampPoolSize(size int, errors *[]string) int {
	if size < 2 {
		*errors = append(*errors, fmt.Sprintf("pool size for DB_POOL_SIZE (%d) is less than minimum 2", size))
		return 2
	}
	if size > 100 {
		*errors = append(*errors, fmt.Sprintf("pool size for DB_POOL_SIZE (%d) is greater than maximum 100", size))
		return 100
	}
	return size
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// LoadConfig creates and returns an AppConfig by reading and validating environment variables.
// It collects all errors encountered during loading and returns a single error if any exist.
// A missing JWT_SECRET is always one of them: the service must never run with
// an empty or default signing key.
func LoadConfig() (*AppConfig, error) {
	var errors []string

	storeBackend := strings.ToLower(getOptionalEnv("STORE_BACKEND", StoreBackendPostgres))
	switch storeBackend {
	case StoreBackendPostgres, StoreBackendMemory:
	default:
		errors = append(errors, fmt.Sprintf("invalid value for STORE_BACKEND: expected %q or %q, got '%s'", StoreBackendPostgres, StoreBackendMemory, storeBackend))
	}

	// Database Configuration, only required when the postgres store is used.
	var dbPool *PoolConfig
	if storeBackend == StoreBackendPostgres {
		dbPool = &PoolConfig{
			User:        getRequiredEnv("DB_USER", &errors),
			Password:    getRequiredEnv("DB_PASSWORD", &errors),
			DBName:      getRequiredEnv("DB_NAME", &errors),
			Host:        getOptionalEnv("DB_HOST", "localhost"),
			Port:        getOptionalEnvInt("DB_PORT", 5432, &errors),
			MaxSize:     clampPoolSize(getOptionalEnvInt("DB_POOL_SIZE", 10, &errors), &errors),
			AutoMigrate: getOptionalEnvBool("DB_AUTO_MIGRATE", true, &errors),
		}
	}

	// Auth Configuration
	bcryptCost := getOptionalEnvInt("BCRYPT_COST", 10, &errors)
	if bcryptCost < 4 || bcryptCost > 31 {
		errors = append(errors, fmt.Sprintf("invalid value for BCRYPT_COST: must be between 4 and 31, got %d", bcryptCost))
	}
	authConfig := &AuthConfig{
		JWTSecret:           getRequiredEnv("JWT_SECRET", &errors),
		AccessTokenDuration: getOptionalEnvDuration("JWT_ACCESS_TOKEN_DURATION", time.Hour, &errors),
		TokenHeader:         getOptionalEnv("AUTH_HEADER", "Authorization"),
		BcryptCost:          bcryptCost,
	}

	// Server Configuration
	serverConfig := &ServerConfig{
		Port:           getOptionalEnv("PORT", "5000"),
		AllowedOrigins: splitList(getOptionalEnv("CORS_ALLOWED_ORIGINS", "*")),
	}

	logConfig := &LogConfig{
		Level:  getOptionalEnv("LOG_LEVEL", "info"),
		Format: strings.ToLower(getOptionalEnv("LOG_FORMAT", "json")),
	}
	if logConfig.Format != "json" && logConfig.Format != "text" {
		errors = append(errors, fmt.Sprintf("invalid value for LOG_FORMAT: expected json or text, got '%s'", logConfig.Format))
	}

	if len(errors) > 0 {
		return nil, fmt.Errorf("configuration errors:\n- %s", strings.Join(errors, "\n- "))
	}

	return &AppConfig{
		StoreBackend: storeBackend,
		DB:           dbPool,
		Auth:         authConfig,
		Server:       serverConfig,
		Log:          logConfig,
	}, nil
}
