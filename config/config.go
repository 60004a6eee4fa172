package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	APIURL      string
	HTTPTimeout time.Duration
	LogLevel    string
	Provider    ProviderConfig
	Poll        PollConfig
	Currencies  CurrencyConfig
}

// ProviderConfig selects the Lightning wallet used to pay and invoice
type ProviderConfig struct {
	Kind   string
	URL    string
	APIKey string
	Memo   string
}

// PollConfig bounds order status polling
type PollConfig struct {
	MaxDuration time.Duration
}

// CurrencyConfig controls the currency listing
type CurrencyConfig struct {
	CacheTTL time.Duration
	Fallback []string
}

var globalConfig *Config

// Load reads configuration from environment variables and config file
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName(".lnswap")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME")
	v.AddConfigPath(".")

	// Set default values
	v.SetDefault("api_url", "http://localhost:8080/api")
	v.SetDefault("http_timeout", 30*time.Second)
	v.SetDefault("log.level", "warn")
	v.SetDefault("provider.kind", "none")
	v.SetDefault("provider.memo", "lnswap")
	v.SetDefault("poll.max_duration", 0)
	v.SetDefault("currencies.cache_ttl", 5*time.Minute)
	v.SetDefault("currencies.fallback", []string{"USDCETH"})

	// LNSWAP_PROVIDER_API_KEY maps to provider.api_key
	v.SetEnvPrefix("LNSWAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{
		APIURL:      strings.TrimSuffix(v.GetString("api_url"), "/"),
		HTTPTimeout: v.GetDuration("http_timeout"),
		LogLevel:    v.GetString("log.level"),
		Provider: ProviderConfig{
			Kind:   v.GetString("provider.kind"),
			URL:    v.GetString("provider.url"),
			APIKey: v.GetString("provider.api_key"),
			Memo:   v.GetString("provider.memo"),
		},
		Poll: PollConfig{
			MaxDuration: v.GetDuration("poll.max_duration"),
		},
		Currencies: CurrencyConfig{
			CacheTTL: v.GetDuration("currencies.cache_ttl"),
			Fallback: fallbackCodes(v.GetStringSlice("currencies.fallback")),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	globalConfig = cfg
	return cfg, nil
}

// Validate checks the values Load cannot default
func (c *Config) Validate() error {
	if c.APIURL == "" {
		return fmt.Errorf("API URL not set. Please set LNSWAP_API_URL or api_url in .lnswap.yaml")
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http_timeout must be positive, got %s", c.HTTPTimeout)
	}
	if c.Poll.MaxDuration < 0 {
		return fmt.Errorf("poll.max_duration must not be negative, got %s", c.Poll.MaxDuration)
	}
	if c.Currencies.CacheTTL < 0 {
		return fmt.Errorf("currencies.cache_ttl must not be negative, got %s", c.Currencies.CacheTTL)
	}
	return nil
}

// Get returns the global configuration
func Get() *Config {
	if globalConfig == nil {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
			os.Exit(1)
		}
		return cfg
	}
	return globalConfig
}

// fallbackCodes accepts both a YAML list and a comma separated env value
func fallbackCodes(raw []string) []string {
	var codes []string
	for _, item := range raw {
		for _, code := range strings.Split(item, ",") {
			if code = strings.ToUpper(strings.TrimSpace(code)); code != "" {
				codes = append(codes, code)
			}
		}
	}
	return codes
}
