package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// ResolverConfig holds the external-source settings for the product
// resolution pipeline.
type ResolverConfig struct {
	Catalog    CatalogConfig    `toml:"catalog"`
	Generative GenerativeConfig `toml:"generative"`
	Notify     NotifyConfig     `toml:"notify"`
}

// CatalogConfig points at the external food database.
type CatalogConfig struct {
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// GenerativeConfig configures the text-completion fallback.
type GenerativeConfig struct {
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"api_key"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// NotifyConfig tunes the expiry sweep.
type NotifyConfig struct {
	WithinDays  int    `toml:"within_days"`
	SweepCron   string `toml:"sweep_cron"`
	Concurrency int    `toml:"concurrency"`
}

// LoadResolverConfig reads a TOML config file. Missing sections keep
// zero values; callers apply their own defaults.
func LoadResolverConfig(filename string) (*ResolverConfig, error) {
	config := &ResolverConfig{}
	_, err := toml.DecodeFile(filename, config)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}
	return config, nil
}
