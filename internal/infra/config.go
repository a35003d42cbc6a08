package infra

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"

	StrategyRemote = "remote"
	StrategyTest   = "test"

	DefaultMaxUploadBytes = 10 * 1024 * 1024
)

// DefaultAllowedContentTypes is the upload MIME allow-list.
var DefaultAllowedContentTypes = []string{"image/jpeg", "image/jpg", "image/png", "image/webp"}

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv         string
	Port           string
	DatabaseDriver string
	DatabaseURL    string
	JWTSecret      string

	StorageRoot         string
	MaxUploadBytes      int64
	AllowedContentTypes []string

	GenerationRateLimit  int
	GenerationRateWindow time.Duration
	GenerationStrategy   string

	OpenAIAPIKey     string
	OpenAIBaseURL    string
	OpenAIImageModel string
	OpenAITimeout    time.Duration

	PromptCacheSize int
	PromptCacheTTL  time.Duration

	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOBucket    string
	MinIOUseSSL    bool

	HTTPReadTimeout    time.Duration
	HTTPWriteTimeout   time.Duration
	HTTPIdleTimeout    time.Duration
	RateLimitPerMin    int
	CORSAllowedOrigins []string
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	appEnv := getEnv("APP_ENV", "development")
	defaultStrategy := StrategyTest
	if appEnv == "production" {
		defaultStrategy = StrategyRemote
	}

	cfg := &Config{
		AppEnv:               appEnv,
		Port:                 getEnv("PORT", "8080"),
		DatabaseDriver:       strings.ToLower(getEnv("DATABASE_DRIVER", DriverPostgres)),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		JWTSecret:            os.Getenv("JWT_SECRET"),
		StorageRoot:          getEnv("STORAGE_ROOT", "./storage"),
		MaxUploadBytes:       int64(getEnvInt("MAX_UPLOAD_BYTES", DefaultMaxUploadBytes)),
		AllowedContentTypes:  getEnvList("ALLOWED_CONTENT_TYPES", DefaultAllowedContentTypes),
		GenerationRateLimit:  getEnvInt("GENERATION_RATE_LIMIT", 50),
		GenerationRateWindow: getEnvDuration("GENERATION_RATE_WINDOW", 24*time.Hour),
		GenerationStrategy:   strings.ToLower(getEnv("IMAGE_GENERATION_STRATEGY", defaultStrategy)),
		OpenAIAPIKey:         strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIBaseURL:        getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIImageModel:     getEnv("OPENAI_IMAGE_MODEL", "gpt-image-1"),
		OpenAITimeout:        time.Second * time.Duration(getEnvInt("OPENAI_TIMEOUT_SECONDS", 120)),
		PromptCacheSize:      getEnvInt("PROMPT_CACHE_SIZE", 256),
		PromptCacheTTL:       time.Second * time.Duration(getEnvInt("PROMPT_CACHE_TTL_SECONDS", 30)),
		MinIOEndpoint:        os.Getenv("MINIO_ENDPOINT"),
		MinIOAccessKey:       os.Getenv("MINIO_ACCESS_KEY"),
		MinIOSecretKey:       os.Getenv("MINIO_SECRET_KEY"),
		MinIOBucket:          getEnv("MINIO_BUCKET", "voenix-public"),
		MinIOUseSSL:          getEnv("MINIO_USE_SSL", "false") == "true",
		HTTPReadTimeout:      time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:     time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 180)),
		HTTPIdleTimeout:      time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:      getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		CORSAllowedOrigins:   getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	switch cfg.DatabaseDriver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("DATABASE_DRIVER must be %q or %q", DriverPostgres, DriverSQLite)
	}
	switch cfg.GenerationStrategy {
	case StrategyRemote, StrategyTest:
	default:
		return nil, fmt.Errorf("IMAGE_GENERATION_STRATEGY must be %q or %q", StrategyRemote, StrategyTest)
	}
	if cfg.MaxUploadBytes <= 0 {
		return nil, fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}
	if cfg.GenerationRateLimit <= 0 || cfg.GenerationRateWindow <= 0 {
		return nil, fmt.Errorf("GENERATION_RATE_LIMIT and GENERATION_RATE_WINDOW must be positive")
	}
	if !filepath.IsAbs(cfg.StorageRoot) {
		if abs, err := filepath.Abs(cfg.StorageRoot); err == nil {
			cfg.StorageRoot = abs
		}
	}

	return cfg, nil
}

// MinIOEnabled reports whether the public image mirror is configured.
func (c *Config) MinIOEnabled() bool {
	return strings.TrimSpace(c.MinIOEndpoint) != ""
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	raw, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return append([]string(nil), fallback...)
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
