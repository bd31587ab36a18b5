package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Cache     CacheConfig     `mapstructure:"cache"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Matching  MatchingConfig  `mapstructure:"matching"`
	Optimizer OptimizerConfig `mapstructure:"optimizer"`
	Share     ShareConfig     `mapstructure:"share"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// CatalogConfig holds configuration of the upstream supermarket catalog
type CatalogConfig struct {
	URL             string        `mapstructure:"url"`
	Timeout         time.Duration `mapstructure:"timeout"`
	TTL             time.Duration `mapstructure:"ttl"`
	RequestsPerHour int           `mapstructure:"requests_per_hour"`
	UserAgent       string        `mapstructure:"user_agent"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type       string `mapstructure:"type"` // "memory", "file" or "sqlite"
	Dir        string `mapstructure:"dir"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

// RateLimitConfig holds per-client rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per second
	Burst int `mapstructure:"burst"`
}

// MatchingConfig holds product matching configuration
type MatchingConfig struct {
	PurchasedMarker    string `mapstructure:"purchased_marker"`
	TieThreshold       int    `mapstructure:"tie_threshold"`
	EnableDebugLogging bool   `mapstructure:"enable_debug_logging"`
}

// OptimizerConfig holds basket optimization defaults and limits
type OptimizerConfig struct {
	DefaultStrategy  string `mapstructure:"default_strategy"`
	DefaultMaxVisits int    `mapstructure:"default_max_visits"`
	MaxVisitsLimit   int    `mapstructure:"max_visits_limit"`
}

// ShareConfig holds share link configuration
type ShareConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/basketlens/")

	// Environment variable settings
	v.SetEnvPrefix("BASKETLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using environment variables and defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"*"})

	// Catalog defaults
	v.SetDefault("catalog.url", "https://www.checkjebon.nl/data/supermarkets.json")
	v.SetDefault("catalog.timeout", "30s")
	v.SetDefault("catalog.ttl", "1h")
	v.SetDefault("catalog.requests_per_hour", 60)
	v.SetDefault("catalog.user_agent", "BasketLens/1.0")

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.dir", ".")
	v.SetDefault("cache.sqlite_path", "basketlens.sqlite")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 10)
	v.SetDefault("ratelimit.burst", 20)

	// Matching defaults
	v.SetDefault("matching.purchased_marker", "x")
	v.SetDefault("matching.tie_threshold", 3)
	v.SetDefault("matching.enable_debug_logging", false)

	// Optimizer defaults
	v.SetDefault("optimizer.default_strategy", "exhaustive")
	v.SetDefault("optimizer.default_max_visits", 2)
	v.SetDefault("optimizer.max_visits_limit", 5)

	v.SetDefault("share.base_url", "https://www.checkjebon.nl/")

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "logs/basketlens.log")
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Catalog.URL == "" {
		return fmt.Errorf("catalog URL is required (set BASKETLENS_CATALOG_URL)")
	}

	if config.Catalog.TTL <= 0 {
		return fmt.Errorf("catalog TTL must be positive, got: %s", config.Catalog.TTL)
	}

	switch config.Cache.Type {
	case "memory":
	case "file":
		if config.Cache.Dir == "" {
			return fmt.Errorf("cache directory is required when cache type is 'file'")
		}
	case "sqlite":
		if config.Cache.SQLitePath == "" {
			return fmt.Errorf("sqlite path is required when cache type is 'sqlite'")
		}
	default:
		return fmt.Errorf("cache type must be 'memory', 'file' or 'sqlite', got: %s", config.Cache.Type)
	}

	if config.Optimizer.DefaultStrategy != "exhaustive" && config.Optimizer.DefaultStrategy != "greedy" {
		return fmt.Errorf("default strategy must be 'exhaustive' or 'greedy', got: %s", config.Optimizer.DefaultStrategy)
	}

	if config.Optimizer.MaxVisitsLimit < 1 {
		return fmt.Errorf("max visits limit must be at least 1, got: %d", config.Optimizer.MaxVisitsLimit)
	}

	if config.Optimizer.DefaultMaxVisits < 1 || config.Optimizer.DefaultMaxVisits > config.Optimizer.MaxVisitsLimit {
		return fmt.Errorf("default max visits must be between 1 and %d, got: %d",
			config.Optimizer.MaxVisitsLimit, config.Optimizer.DefaultMaxVisits)
	}

	return nil
}

// loadEnvFile loads KEY=VALUE pairs from a .env file in the working directory.
// Existing environment variables are never overridden.
func loadEnvFile() error {
	file, err := os.Open(".env")
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return err
		}
	}
	return scanner.Err()
}
