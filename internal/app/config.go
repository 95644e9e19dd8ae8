package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/marketbarrio/internal/domain/pricing"
)

const defaultAddr = "0.0.0.0:8080"

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverPostgres = "postgres"
)

// Config holds the complete application configuration, loadable from
// environment variables (MB_ prefix), flags, or YAML config files.
type Config struct {
	Addr      string `default:"0.0.0.0:8080" usage:"API server listen address"`
	Catalog   CatalogConfig
	Store     StoreConfig
	Pricing   PricingConfig
	Session   SessionConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Graceful  GracefulConfig
}

// CatalogConfig selects the product catalog source.
type CatalogConfig struct {
	Path string `default:"" usage:"Catalog JSON file, optionally gzipped; the embedded catalog is used when empty"`
}

// StoreConfig selects where carts and orders are persisted.
type StoreConfig struct {
	Driver      string `default:"file" usage:"Storage driver: memory, file or postgres"`
	Dir         string `default:"data" usage:"Directory of the file driver"`
	DatabaseURL string `usage:"PostgreSQL connection URL (MB_STORE_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
}

// PricingConfig controls the delivery fee.
type PricingConfig struct {
	FreeThreshold string `default:"35" usage:"Subtotal from which delivery is free"`
	FlatFee       string `default:"6"  usage:"Delivery fee below the threshold"`
}

// Policy parses the configured amounts.
func (c PricingConfig) Policy() (pricing.Policy, error) {
	threshold, err := decimal.NewFromString(c.FreeThreshold)
	if err != nil {
		return pricing.Policy{}, errors.Wrap(err, "parse free threshold")
	}
	fee, err := decimal.NewFromString(c.FlatFee)
	if err != nil {
		return pricing.Policy{}, errors.Wrap(err, "parse flat fee")
	}
	if threshold.IsNegative() || fee.IsNegative() {
		return pricing.Policy{}, errors.New("pricing amounts must not be negative")
	}
	return pricing.Policy{FreeThreshold: threshold, FlatFee: fee}, nil
}

// SessionConfig controls shopper sessions.
type SessionConfig struct {
	CookieName   string        `default:"mb_session" usage:"Session cookie name"`
	CookieSecure bool          `default:"false" usage:"Mark the session cookie Secure"`
	CookieMaxAge time.Duration `default:"720h" usage:"Session cookie lifetime"`
	TTL          time.Duration `default:"30m" usage:"Idle time before a session is dropped from memory"`
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max            int           `default:"100" usage:"Max requests per window"`
	Window         time.Duration `default:"1m"  usage:"Rate limit window duration"`
	TrustForwarded bool          `default:"false" usage:"Key clients by X-Forwarded-For; enable only behind a trusted proxy" flag:"ratelimit-trust-forwarded"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"true" usage:"Allow credentials, needed for the session cookie" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables and YAML config
// files, then applies platform defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "MB",
		Files:     []string{"config.yaml", "/etc/marketbarrio/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyPlatformDefaults maps the conventional DATABASE_URL and PORT
// variables onto the MB_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.Store.DatabaseURL == "" {
		c.Store.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}

func (c *Config) validate() error {
	switch c.Store.Driver {
	case DriverMemory, DriverFile:
	case DriverPostgres:
		if c.Store.DatabaseURL == "" {
			return errors.New("database URL is required for the postgres driver: set MB_STORE_DATABASE_URL or DATABASE_URL")
		}
	default:
		return errors.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if _, err := c.Pricing.Policy(); err != nil {
		return errors.Wrap(err, "pricing")
	}
	return nil
}
