package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all configuration for the drive-thru service.
type Config struct {
	// Service settings
	ServiceName     string        `env:"SERVICE_NAME" envDefault:"drivethru-api"`
	Environment     string        `env:"ENVIRONMENT" envDefault:"development"`
	HTTPPort        int           `env:"DRIVETHRU_API_PORT" envDefault:"8190"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// OpenTelemetry
	EnableTracing bool   `env:"OTEL_ENABLED" envDefault:"false"`
	OTLPEndpoint  string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`

	// Transcript logging
	TranscriptPIILevel string `env:"TRANSCRIPT_PII_LEVEL" envDefault:"hashed"`

	// Language model (OpenAI compatible chat completions)
	LLMBaseURL     string        `env:"LLM_API_URL" envDefault:"http://localhost:8080"`
	LLMAPIKey      string        `env:"LLM_API_KEY"`
	LLMModel       string        `env:"LLM_MODEL" envDefault:"gpt-4o-mini"`
	LLMTimeout     time.Duration `env:"LLM_TIMEOUT" envDefault:"20s"`
	LLMRetryCount  int           `env:"LLM_RETRY_COUNT" envDefault:"1"`
	LLMTemperature float32       `env:"LLM_TEMPERATURE" envDefault:"0.1"`

	// Order / session store
	OrderStoreDriver string        `env:"ORDER_STORE_DRIVER" envDefault:"memory"` // memory | redis
	RedisURL         string        `env:"REDIS_URL"`
	OrderTTL         time.Duration `env:"ORDER_TTL" envDefault:"30m"`
	OrderLockTTL     time.Duration `env:"ORDER_LOCK_TTL" envDefault:"5s"`

	// Session lifecycle
	SessionIdleTTL      time.Duration `env:"SESSION_IDLE_TTL" envDefault:"30m"`
	SessionReapInterval time.Duration `env:"SESSION_REAP_INTERVAL" envDefault:"1m"`

	// Archive database (optional)
	DatabaseURL    string        `env:"DRIVETHRU_DATABASE_URL"`
	DBMaxIdleConns int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	DBMaxOpenConns int           `env:"DB_MAX_OPEN_CONNS" envDefault:"15"`
	DBConnLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`

	// Menu catalog
	CatalogSource    string        `env:"CATALOG_SOURCE" envDefault:"yaml"` // yaml | database
	MenuSeedFile     string        `env:"MENU_SEED_FILE" envDefault:"config/menu.yaml"`
	CatalogCacheSize int           `env:"CATALOG_CACHE_SIZE" envDefault:"64"`
	CatalogCacheTTL  time.Duration `env:"CATALOG_CACHE_TTL" envDefault:"5m"`

	// Context resolution
	ContextSuccessBand        float64 `env:"CONTEXT_SUCCESS_BAND" envDefault:"0.8"`
	ContextClarifyBand        float64 `env:"CONTEXT_CLARIFY_BAND" envDefault:"0.3"`
	ContextShouldUseThreshold float64 `env:"CONTEXT_SHOULD_USE_THRESHOLD" envDefault:"0.8"`

	// Menu resolution
	MenuMinScore   float64 `env:"MENU_MIN_SCORE" envDefault:"60"`
	MenuSeparation float64 `env:"MENU_SEPARATION" envDefault:"15"`

	// Order limits and pricing
	MaxItemQuantity int     `env:"MAX_ITEM_QUANTITY" envDefault:"20"`
	MaxTotalItems   int     `env:"MAX_TOTAL_ITEMS" envDefault:"50"`
	MaxUniqueItems  int     `env:"MAX_UNIQUE_ITEMS" envDefault:"15"`
	TaxRate         float64 `env:"TAX_RATE" envDefault:"0"`
}

// Load parses environment variables into Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch c.OrderStoreDriver {
	case "memory":
	case "redis":
		if strings.TrimSpace(c.RedisURL) == "" {
			return fmt.Errorf("REDIS_URL is required when ORDER_STORE_DRIVER is redis")
		}
	default:
		return fmt.Errorf("unsupported ORDER_STORE_DRIVER %q", c.OrderStoreDriver)
	}

	switch c.CatalogSource {
	case "yaml":
		if strings.TrimSpace(c.MenuSeedFile) == "" {
			return fmt.Errorf("MENU_SEED_FILE is required when CATALOG_SOURCE is yaml")
		}
	case "database":
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return fmt.Errorf("DRIVETHRU_DATABASE_URL is required when CATALOG_SOURCE is database")
		}
	default:
		return fmt.Errorf("unsupported CATALOG_SOURCE %q", c.CatalogSource)
	}

	if c.ContextClarifyBand < 0 || c.ContextSuccessBand > 1 || c.ContextClarifyBand >= c.ContextSuccessBand {
		return fmt.Errorf("context bands must satisfy 0 <= CONTEXT_CLARIFY_BAND < CONTEXT_SUCCESS_BAND <= 1")
	}
	if c.ContextShouldUseThreshold < 0 || c.ContextShouldUseThreshold > 1 {
		return fmt.Errorf("CONTEXT_SHOULD_USE_THRESHOLD must be within [0, 1]")
	}
	if c.MaxItemQuantity <= 0 || c.MaxTotalItems <= 0 || c.MaxUniqueItems <= 0 {
		return fmt.Errorf("order limits must be positive")
	}
	if c.TaxRate < 0 {
		return fmt.Errorf("TAX_RATE must not be negative")
	}
	if c.CatalogCacheSize <= 0 {
		c.CatalogCacheSize = 64
	}
	return nil
}

// Addr returns the HTTP server address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// ArchiveEnabled reports whether confirmed orders are written to Postgres.
func (c *Config) ArchiveEnabled() bool {
	return strings.TrimSpace(c.DatabaseURL) != ""
}
