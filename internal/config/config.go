// Package config merges config file, environment variables, and defaults
// into typed application configuration.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the full server configuration.
type Config struct {
	ListenAddr string

	// Storage selects the backing stores: "memory" or "postgres".
	// When AnalyticsDSN is set, trades go to ClickHouse instead of the
	// primary backend.
	Storage      string
	PostgresDSN  string
	AnalyticsDSN string

	// Metadata resolution
	CoinEndpoints []string // priority-ordered coin-info base URLs
	IPFSGateway   string

	// Price feed
	PriceEndpoint string
	PriceFallback float64
	PriceInterval time.Duration

	// Live view
	RefreshInterval time.Duration

	LogLevel string
	LogFile  string
}

// Load merges an optional config file with RADAR_-prefixed environment
// variables and defaults. cfgFile may be empty, in which case config.yaml
// in the working directory is used when present.
func Load(cfgFile string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("RADAR")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("listen-addr", ":8080")
	v.SetDefault("storage", "memory")
	v.SetDefault("coin-endpoints", []string{"https://frontend-api.pump.fun"})
	v.SetDefault("ipfs-gateway", "https://ipfs.io/ipfs/")
	v.SetDefault("price-fallback", 150.0)
	v.SetDefault("price-interval", 30*time.Second)
	v.SetDefault("refresh-interval", 5*time.Second)
	v.SetDefault("log-level", "info")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		ListenAddr:      v.GetString("listen-addr"),
		Storage:         v.GetString("storage"),
		PostgresDSN:     v.GetString("postgres-dsn"),
		AnalyticsDSN:    v.GetString("analytics-dsn"),
		CoinEndpoints:   v.GetStringSlice("coin-endpoints"),
		IPFSGateway:     v.GetString("ipfs-gateway"),
		PriceEndpoint:   v.GetString("price-endpoint"),
		PriceFallback:   v.GetFloat64("price-fallback"),
		PriceInterval:   v.GetDuration("price-interval"),
		RefreshInterval: v.GetDuration("refresh-interval"),
		LogLevel:        v.GetString("log-level"),
		LogFile:         v.GetString("log-file"),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Storage {
	case "memory":
	case "postgres":
		if c.PostgresDSN == "" {
			return fmt.Errorf("postgres storage selected but postgres-dsn is empty")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage)
	}
	if len(c.CoinEndpoints) == 0 {
		return fmt.Errorf("at least one coin endpoint is required")
	}
	if c.PriceFallback <= 0 {
		return fmt.Errorf("price-fallback must be positive")
	}
	return nil
}
