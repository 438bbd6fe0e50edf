// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Lookback bounds accepted by the analysis endpoint and the core analyzer.
const (
	MinLookbackDays = 30
	MaxLookbackDays = 1095
)

// Config holds application configuration
type Config struct {
	DataDir     string // Directory holding the price cache database (always absolute)
	LogLevel    string
	Port        int
	DevMode     bool
	CORSOrigins []string

	// Price provider
	YahooBaseURL       string
	YahooRateLimit     int           // requests per second
	ExternalAPITimeout time.Duration // per-request timeout towards the provider
	FetchConcurrency   int           // parallel ticker downloads per analysis

	// Price cache
	PriceCacheTTL     time.Duration
	CacheWarmEnabled  bool
	CacheWarmSchedule string // cron expression with seconds field

	// Analysis defaults
	MinHoldingUSD       float64
	DefaultLookbackDays int
	FrontierPoints      int
}

// Load reads configuration from the environment, after loading an optional .env file
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	absDataDir, err := filepath.Abs(getEnv("DATA_DIR", "./data"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:             absDataDir,
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		Port:                getEnvAsInt("GO_PORT", 8001),
		DevMode:             getEnvAsBool("DEV_MODE", false),
		CORSOrigins:         getEnvAsList("CORS_ORIGINS", []string{"*"}),
		YahooBaseURL:        getEnv("YAHOO_BASE_URL", "https://query1.finance.yahoo.com"),
		YahooRateLimit:      getEnvAsInt("YAHOO_RATE_LIMIT", 5),
		ExternalAPITimeout:  time.Duration(getEnvAsInt("EXTERNAL_API_TIMEOUT", 30)) * time.Second,
		FetchConcurrency:    getEnvAsInt("PRICE_FETCH_CONCURRENCY", 4),
		PriceCacheTTL:       time.Duration(getEnvAsInt("PRICE_CACHE_TTL", 300)) * time.Second,
		CacheWarmEnabled:    getEnvAsBool("CACHE_WARM_ENABLED", true),
		CacheWarmSchedule:   getEnv("CACHE_WARM_SCHEDULE", "0 0 1 * * *"),
		MinHoldingUSD:       getEnvAsFloat("MIN_HOLDING_USD", 10),
		DefaultLookbackDays: getEnvAsInt("DEFAULT_LOOKBACK_DAYS", 365),
		FrontierPoints:      getEnvAsInt("FRONTIER_POINTS", 20),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// HistoryDBPath is the location of the raw price cache database
func (c *Config) HistoryDBPath() string {
	return filepath.Join(c.DataDir, "history.db")
}

// Validate checks that numeric settings are within usable ranges
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid GO_PORT %d", c.Port)
	}
	if c.YahooRateLimit <= 0 {
		return fmt.Errorf("YAHOO_RATE_LIMIT must be positive, got %d", c.YahooRateLimit)
	}
	if c.ExternalAPITimeout <= 0 {
		return fmt.Errorf("EXTERNAL_API_TIMEOUT must be positive")
	}
	if c.FetchConcurrency <= 0 {
		return fmt.Errorf("PRICE_FETCH_CONCURRENCY must be positive, got %d", c.FetchConcurrency)
	}
	if c.PriceCacheTTL < 0 {
		return fmt.Errorf("PRICE_CACHE_TTL must not be negative")
	}
	if c.MinHoldingUSD < 0 {
		return fmt.Errorf("MIN_HOLDING_USD must not be negative, got %v", c.MinHoldingUSD)
	}
	if c.DefaultLookbackDays < MinLookbackDays || c.DefaultLookbackDays > MaxLookbackDays {
		return fmt.Errorf("DEFAULT_LOOKBACK_DAYS must be between %d and %d, got %d",
			MinLookbackDays, MaxLookbackDays, c.DefaultLookbackDays)
	}
	if c.FrontierPoints < 2 {
		return fmt.Errorf("FRONTIER_POINTS must be at least 2, got %d", c.FrontierPoints)
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}
