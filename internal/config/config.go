// Package config provides configuration management.
package config

import (
	"encoding/json"
	"os"

	"customs-cost/internal/logging"
)

// Config is the main application configuration.
type Config struct {
	// Version is the configuration version.
	Version string `json:"version"`

	// Logging contains logging configuration.
	Logging logging.Config `json:"logging"`

	// Server contains HTTP server configuration.
	Server ServerConfig `json:"server"`

	// Queue contains work-queue configuration.
	Queue QueueConfig `json:"queue"`

	// Database contains persistence configuration.
	Database DatabaseConfig `json:"database"`

	// Classifier contains external classifier configuration.
	Classifier ClassifierConfig `json:"classifier"`

	// Product contains marketplace card source configuration.
	Product ProductConfig `json:"product"`

	// Rates contains exchange-rate configuration.
	Rates RatesConfig `json:"rates"`

	// White contains white-channel fee configuration.
	White WhiteConfig `json:"white"`

	// Cargo contains cargo-channel fee configuration.
	Cargo CargoConfig `json:"cargo"`

	// Batch contains batch-sizing configuration.
	Batch BatchConfig `json:"batch"`

	// Screening contains express-screening configuration.
	Screening ScreeningConfig `json:"screening"`

	// RulesPath is the path to the red-zone rule table; empty uses the embedded table.
	RulesPath string `json:"rules_path,omitempty"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	// Addr is the listen address.
	Addr string `json:"addr"`
}

// QueueConfig contains Redis queue settings.
type QueueConfig struct {
	// RedisURL is the Redis connection URL.
	RedisURL string `json:"redis_url"`

	// QueueKey is the list key work items are pushed to.
	QueueKey string `json:"queue_key"`

	// ResultTTLSeconds is how long results are kept in Redis.
	ResultTTLSeconds int `json:"result_ttl_seconds"`
}

// DatabaseConfig contains persistence settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection URL; empty disables history persistence.
	URL string `json:"url,omitempty"`
}

// ClassifierConfig contains external classifier settings.
type ClassifierConfig struct {
	// BaseURL is the classifier service endpoint.
	BaseURL string `json:"base_url"`

	// TimeoutSeconds bounds each classifier call.
	TimeoutSeconds int `json:"timeout_seconds"`

	// MaxRetries bounds silent retries of a failed call.
	MaxRetries int `json:"max_retries"`
}

// ProductConfig contains marketplace card source settings.
type ProductConfig struct {
	// BaseURL is the marketplace card endpoint; empty disables article lookups.
	BaseURL string `json:"base_url,omitempty"`

	// TimeoutSeconds bounds each card fetch.
	TimeoutSeconds int `json:"timeout_seconds"`
}

// RatesConfig contains exchange-rate settings.
type RatesConfig struct {
	// SourceURL is the central-bank daily rates endpoint.
	SourceURL string `json:"source_url"`

	// FallbackUSDRUB is used when the source is unavailable.
	FallbackUSDRUB float64 `json:"fallback_usd_rub"`

	// FallbackUSDCNY is used when the source is unavailable.
	FallbackUSDCNY float64 `json:"fallback_usd_cny"`

	// FallbackEURRUB is used when the source is unavailable.
	FallbackEURRUB float64 `json:"fallback_eur_rub"`

	// MarginWhite is the multiplier applied to bank rates for the white channel.
	MarginWhite float64 `json:"margin_white"`

	// MarginCargo is the multiplier applied to bank rates for the cargo channel.
	MarginCargo float64 `json:"margin_cargo"`

	// CacheTTLSeconds is how long fetched bank rates are cached.
	CacheTTLSeconds int `json:"cache_ttl_seconds"`
}

// WhiteConfig contains white-channel fee settings.
type WhiteConfig struct {
	// BasePriceUSD is the flat channel logistics fee.
	BasePriceUSD float64 `json:"base_price_usd"`

	// DocsRUB is the fixed documents fee.
	DocsRUB float64 `json:"docs_rub"`

	// BrokerRUB is the fixed broker fee.
	BrokerRUB float64 `json:"broker_rub"`

	// VATReferenceUSD is the fixed reference logistics value for the VAT basis.
	VATReferenceUSD float64 `json:"vat_reference_usd"`
}

// CargoConfig contains cargo-channel fee settings.
type CargoConfig struct {
	// PackagingUSD is the fixed packaging fee.
	PackagingUSD float64 `json:"packaging_usd"`
}

// BatchConfig contains batch-sizing settings.
type BatchConfig struct {
	// WeightCapKg is the batch weight cap.
	WeightCapKg float64 `json:"weight_cap_kg"`

	// VolumeCapM3 is the batch volume cap.
	VolumeCapM3 float64 `json:"volume_cap_m3"`
}

// ScreeningConfig contains express-screening settings.
type ScreeningConfig struct {
	// SpecificValueThresholdUSDPerKg splits the low and high cost tiers.
	SpecificValueThresholdUSDPerKg float64 `json:"specific_value_threshold_usd_per_kg"`
}

// Default returns a default configuration.
func Default() *Config {
	return &Config{
		Version: "1.0",
		Logging: logging.DefaultConfig(),
		Server: ServerConfig{
			Addr: ":8444",
		},
		Queue: QueueConfig{
			RedisURL:         "redis://localhost:6379/0",
			QueueKey:         "calculations:queue",
			ResultTTLSeconds: 86400,
		},
		Classifier: ClassifierConfig{
			TimeoutSeconds: 30,
			MaxRetries:     2,
		},
		Product: ProductConfig{
			TimeoutSeconds: 15,
		},
		Rates: RatesConfig{
			SourceURL:       "https://www.cbr-xml-daily.ru/daily_json.js",
			FallbackUSDRUB:  100.0,
			FallbackUSDCNY:  7.2,
			FallbackEURRUB:  110.0,
			MarginWhite:     1.02,
			MarginCargo:     1.04,
			CacheTTLSeconds: 3600,
		},
		White: WhiteConfig{
			BasePriceUSD:    1850,
			DocsRUB:         15000,
			BrokerRUB:       25000,
			VATReferenceUSD: 900,
		},
		Cargo: CargoConfig{
			PackagingUSD: 120,
		},
		Batch: BatchConfig{
			WeightCapKg: 1000,
			VolumeCapM3: 4.6,
		},
		Screening: ScreeningConfig{
			SpecificValueThresholdUSDPerKg: 20,
		},
	}
}

// Load loads configuration from a file, falling back to defaults for a
// missing file. Environment variables override connection URLs.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, err
			}
		} else if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Queue.RedisURL = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("CLASSIFIER_URL"); v != "" {
		cfg.Classifier.BaseURL = v
	}
	if v := os.Getenv("PRODUCT_URL"); v != "" {
		cfg.Product.BaseURL = v
	}

	return cfg, nil
}

// JSON returns the indented JSON rendering of the configuration.
func (c *Config) JSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

// Save saves configuration to a file.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

var globalConfig = Default()

// Get returns the global configuration.
func Get() *Config {
	return globalConfig
}

// Set sets the global configuration.
func Set(config *Config) {
	globalConfig = config
}
