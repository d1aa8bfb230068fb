package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Upstream  UpstreamConfig
	Redis     RedisConfig
	CORS      CORSConfig
	Log       LogConfig
	Sessions  SessionConfig
	Occupancy OccupancyConfig
	Imports   ImportConfig
	Exports   ExportConfig
}

// UpstreamConfig points the gateway at the external exam scheduler API.
type UpstreamConfig struct {
	BaseURL       string
	Timeout       time.Duration
	StreamTimeout time.Duration
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SessionConfig governs timetable editing sessions.
type SessionConfig struct {
	TTL             time.Duration
	CleanupInterval time.Duration
}

// OccupancyConfig tunes room occupancy caching.
type OccupancyConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

// ImportConfig tunes the bulk import worker pool.
type ImportConfig struct {
	Workers     int
	MaxRetries  int
	RunTTL      time.Duration
	MaxFileSize int64
}

// ExportConfig gates the export endpoints.
type ExportConfig struct {
	Enabled bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Upstream = UpstreamConfig{
		BaseURL:       strings.TrimRight(v.GetString("UPSTREAM_BASE_URL"), "/"),
		Timeout:       parseDuration(v.GetString("UPSTREAM_TIMEOUT"), 15*time.Second),
		StreamTimeout: parseDuration(v.GetString("UPSTREAM_STREAM_TIMEOUT"), 10*time.Minute),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Sessions = SessionConfig{
		TTL:             parseDuration(v.GetString("SESSION_TTL"), 2*time.Hour),
		CleanupInterval: parseDuration(v.GetString("SESSION_CLEANUP_INTERVAL"), 10*time.Minute),
	}

	cfg.Occupancy = OccupancyConfig{
		CacheEnabled: v.GetBool("ENABLE_OCCUPANCY_CACHE"),
		CacheTTL:     parseDuration(v.GetString("OCCUPANCY_CACHE_TTL"), 5*time.Minute),
	}

	maxImportSize := v.GetInt64("IMPORTS_MAX_FILE_SIZE")
	if maxImportSize <= 0 {
		maxImportSize = 20 * 1024 * 1024
	}
	cfg.Imports = ImportConfig{
		Workers:     v.GetInt("IMPORTS_WORKERS"),
		MaxRetries:  v.GetInt("IMPORTS_MAX_RETRIES"),
		RunTTL:      parseDuration(v.GetString("IMPORTS_RUN_TTL"), 24*time.Hour),
		MaxFileSize: maxImportSize,
	}

	cfg.Exports = ExportConfig{
		Enabled: v.GetBool("ENABLE_EXPORTS"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8081)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("UPSTREAM_BASE_URL", "http://localhost:8000")
	v.SetDefault("UPSTREAM_TIMEOUT", "15s")
	v.SetDefault("UPSTREAM_STREAM_TIMEOUT", "10m")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SESSION_TTL", "2h")
	v.SetDefault("SESSION_CLEANUP_INTERVAL", "10m")

	v.SetDefault("ENABLE_OCCUPANCY_CACHE", false)
	v.SetDefault("OCCUPANCY_CACHE_TTL", "5m")

	v.SetDefault("IMPORTS_WORKERS", 1)
	v.SetDefault("IMPORTS_MAX_RETRIES", 1)
	v.SetDefault("IMPORTS_RUN_TTL", "24h")
	v.SetDefault("IMPORTS_MAX_FILE_SIZE", 20*1024*1024)

	v.SetDefault("ENABLE_EXPORTS", true)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
