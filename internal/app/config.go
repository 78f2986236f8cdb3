package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Storage backends.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

const defaultAddr = "0.0.0.0:8080"

// Config holds the console server configuration, loadable from environment
// variables (CONSOLE_ prefix), flags or YAML files.
type Config struct {
	Addr         string   `default:"0.0.0.0:8080" usage:"API server listen address"`
	Storage      string   `default:"memory" usage:"Catalog storage backend: memory or postgres"`
	DatabaseURL  string   `usage:"PostgreSQL connection URL (CONSOLE_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	SeedFile     string   `default:"db/seed/catalog.json" usage:"Catalog JSON (or .json.gz) loaded by the memory backend" flag:"seed-file"`
	APIKeyPepper string   `usage:"HMAC pepper for API key hashing" flag:"api-key-pepper"`
	OperatorKeys []string `usage:"Operator API keys accepted by the memory backend" flag:"operator-keys"`
	RateLimit    RateLimitConfig
	CORS         CORSConfig
	Graceful     GracefulConfig
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads and validates configuration.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "CONSOLE",
		Files:     []string{"config.yaml", "/etc/vending-console/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks backend-specific requirements.
func (c *Config) Validate() error {
	if c.RateLimit.Max <= 0 || c.RateLimit.Window <= 0 {
		return errors.New("rate limit max and window must be positive")
	}
	switch c.Storage {
	case StorageMemory:
		if c.SeedFile == "" {
			return errors.New("seed file is required for memory storage")
		}
		if len(c.OperatorKeys) == 0 {
			return errors.New("at least one operator key is required for memory storage: set CONSOLE_OPERATOR_KEYS")
		}
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return errors.New("database URL is required: set CONSOLE_DATABASE_URL or DATABASE_URL")
		}
	default:
		return errors.Errorf("unknown storage %q", c.Storage)
	}
	return nil
}

// applyPlatformDefaults maps DATABASE_URL and PORT, as set by hosting
// platforms, onto the CONSOLE_-prefixed settings.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		c.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}
