package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds process configuration read from the environment
type Config struct {
	MongoURI string
	MongoDB  string
	RedisURI string
	Port     string

	JWTSecret  string
	TokenTTL   time.Duration
	SignupYear int

	// CatalogDir, when set, holds *.yaml question sets that replace the embedded ones
	CatalogDir string

	SaveWorkers int
	SaveTimeout time.Duration
	SessionTTL  time.Duration

	LogLevel  string
	LogFormat string // json or console

	CORSAllowedOrigins []string
	CORSAllowedMethods []string
	CORSAllowedHeaders []string
}

// Load reads the configuration, falling back to development defaults
func Load() *Config {
	return &Config{
		MongoURI: getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:  getEnv("MONGO_DB", "taxnavo"),
		RedisURI: getEnv("REDIS_URI", "localhost:6379"),
		Port:     getEnv("PORT", "8080"),

		JWTSecret:  getEnv("JWT_SECRET", "dev-secret-change-me"),
		TokenTTL:   getDuration("TOKEN_TTL", 24*time.Hour),
		SignupYear: getInt("SIGNUP_YEAR", 2025),

		CatalogDir: os.Getenv("CATALOG_DIR"),

		SaveWorkers: getInt("SAVE_WORKERS", 4),
		SaveTimeout: getDuration("SAVE_TIMEOUT", 5*time.Second),
		SessionTTL:  getDuration("SESSION_TTL", 30*time.Minute),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		CORSAllowedOrigins: getList("CORS_ALLOWED_ORIGINS", "*"),
		CORSAllowedMethods: getList("CORS_ALLOWED_METHODS", "GET,POST,PUT,DELETE,OPTIONS"),
		CORSAllowedHeaders: getList("CORS_ALLOWED_HEADERS", "Content-Type,Authorization"),
	}
}

// RedisOptions turns REDIS_URI into client options. A redis://, rediss:// or
// unix:// URL keeps its password and DB number; a bare host:port is used as
// the address.
func (c *Config) RedisOptions() (*redis.Options, error) {
	if !strings.Contains(c.RedisURI, "://") {
		return &redis.Options{Addr: c.RedisURI}, nil
	}
	opts, err := redis.ParseURL(c.RedisURI)
	if err != nil {
		return nil, fmt.Errorf("REDIS_URI: %w", err)
	}
	return opts, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getInt(key string, defaultVal int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

func getDuration(key string, defaultVal time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil && d > 0 {
		return d
	}
	return defaultVal
}

func getList(key, defaultVal string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, defaultVal), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
