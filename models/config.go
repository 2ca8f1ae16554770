package models

import (
	"os"
	"slices"
	"strconv"
	"time"

	"houseplants/storage"

	"github.com/rohanthewiz/serr"
	"gopkg.in/yaml.v3"
)

// ============================================================================
// Application Configuration
//
// Settings come from an optional YAML file and are then overridden by
// HOUSEPLANTS_* environment variables, so deployments can keep secrets out
// of the file.
// ============================================================================

// Config holds everything main needs to wire the application.
type Config struct {
	Address       string        `yaml:"address"`        // HOUSEPLANTS_ADDRESS
	LogLevel      string        `yaml:"log_level"`      // HOUSEPLANTS_LOG_LEVEL
	StoreDriver   string        `yaml:"store_driver"`   // HOUSEPLANTS_STORE_DRIVER
	StoreDSN      string        `yaml:"store_dsn"`      // HOUSEPLANTS_STORE_DSN
	StoreQuota    int           `yaml:"store_quota"`    // HOUSEPLANTS_STORE_QUOTA, bytes
	ClientSecret  string        `yaml:"client_secret"`  // HOUSEPLANTS_CLIENT_SECRET
	Debounce      time.Duration `yaml:"debounce"`       // HOUSEPLANTS_DEBOUNCE
	SearchLatency time.Duration `yaml:"search_latency"` // HOUSEPLANTS_SEARCH_LATENCY
}

// Defaults
const (
	defaultAddress       = ":8000"
	defaultLogLevel      = "info"
	defaultStoreDriver   = storage.DriverDuckDB
	defaultStoreDSN      = "./data/history.ddb"
	defaultDebounce      = 300 * time.Millisecond
	defaultSearchLatency = time.Second

	// developmentClientSecret is only acceptable outside production
	developmentClientSecret = "development-only-secret-do-not-use-in-production"

	// MinSecretLength is the minimum acceptable length for the client secret
	MinSecretLength = 32
)

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() *Config {
	return &Config{
		Address:       defaultAddress,
		LogLevel:      defaultLogLevel,
		StoreDriver:   defaultStoreDriver,
		StoreDSN:      defaultStoreDSN,
		StoreQuota:    storage.DefaultQuota,
		ClientSecret:  developmentClientSecret,
		Debounce:      defaultDebounce,
		SearchLatency: defaultSearchLatency,
	}
}

// LoadConfig reads path (when non-empty and present) and then applies
// environment overrides. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, serr.Wrap(err, "invalid config file "+path)
			}
		case os.IsNotExist(err):
			// fall through to env and defaults
		default:
			return nil, serr.Wrap(err, "failed to read config file "+path)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("HOUSEPLANTS_ADDRESS"); v != "" {
		c.Address = v
	}
	if v := os.Getenv("HOUSEPLANTS_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("HOUSEPLANTS_STORE_DRIVER"); v != "" {
		c.StoreDriver = v
	}
	if v := os.Getenv("HOUSEPLANTS_STORE_DSN"); v != "" {
		c.StoreDSN = v
	}
	if v := os.Getenv("HOUSEPLANTS_CLIENT_SECRET"); v != "" {
		c.ClientSecret = v
	}

	if v := os.Getenv("HOUSEPLANTS_STORE_QUOTA"); v != "" {
		quota, err := strconv.Atoi(v)
		if err != nil {
			return serr.Wrap(err, "invalid HOUSEPLANTS_STORE_QUOTA value, expected bytes")
		}
		c.StoreQuota = quota
	}
	if v := os.Getenv("HOUSEPLANTS_DEBOUNCE"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return serr.Wrap(err, "invalid HOUSEPLANTS_DEBOUNCE value, expected duration like '300ms'")
		}
		c.Debounce = d
	}
	if v := os.Getenv("HOUSEPLANTS_SEARCH_LATENCY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return serr.Wrap(err, "invalid HOUSEPLANTS_SEARCH_LATENCY value, expected duration like '1s'")
		}
		c.SearchLatency = d
	}
	return nil
}

// Validate fails fast on settings that would only surface at first use.
func (c *Config) Validate() error {
	if !slices.Contains(storage.Drivers, c.StoreDriver) {
		return serr.New("unknown store driver " + c.StoreDriver)
	}
	if c.StoreDriver != storage.DriverMemory && c.StoreDSN == "" {
		return serr.New("HOUSEPLANTS_STORE_DSN is required for driver " + c.StoreDriver)
	}
	if len(c.ClientSecret) < MinSecretLength {
		return serr.New("client secret must be at least 32 characters")
	}
	if c.Debounce <= 0 {
		return serr.New("debounce delay must be positive")
	}
	if c.SearchLatency < 0 {
		return serr.New("search latency must not be negative")
	}
	return nil
}

// StoreOptions translates the config into storage.Open options.
func (c *Config) StoreOptions() storage.Options {
	return storage.Options{Driver: c.StoreDriver, DSN: c.StoreDSN, Quota: c.StoreQuota}
}
