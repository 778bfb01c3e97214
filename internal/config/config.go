package config

import (
	"bytes"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

var currencyCode = regexp.MustCompile(`^[A-Z]{3}$`)

// Config is the typed run configuration, loaded and validated once at start.
type Config struct {
	APIHost                string   `yaml:"api_host" json:"api_host"`
	APIPort                int      `yaml:"api_port" json:"api_port"`
	RetryAttempts          int      `yaml:"retry_attempts" json:"retry_attempts"`
	RetryBackoffMs         int      `yaml:"retry_backoff_ms" json:"retry_backoff_ms"`
	AllowedCurrencies      []string `yaml:"allowed_currencies" json:"allowed_currencies"`
	BusinessDateWindowDays int      `yaml:"business_date_window_days" json:"business_date_window_days"`
	ReportDecimalPlaces    int      `yaml:"report_decimal_places" json:"report_decimal_places"`
}

// Load reads and validates a YAML config file. Unknown keys are an error.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every required option once so the rest of the pipeline can
// trust the values without rechecking.
func (c Config) Validate() error {
	if c.APIHost == "" {
		return fmt.Errorf("config: api_host must be set")
	}
	if c.APIPort <= 0 || c.APIPort > 65535 {
		return fmt.Errorf("config: api_port out of range: %d", c.APIPort)
	}
	if c.RetryAttempts <= 0 {
		return fmt.Errorf("config: retry_attempts must be positive, got %d", c.RetryAttempts)
	}
	if c.RetryBackoffMs < 0 {
		return fmt.Errorf("config: retry_backoff_ms must be non-negative, got %d", c.RetryBackoffMs)
	}
	if len(c.AllowedCurrencies) == 0 {
		return fmt.Errorf("config: allowed_currencies must not be empty")
	}
	for _, cur := range c.AllowedCurrencies {
		if !currencyCode.MatchString(cur) {
			return fmt.Errorf("config: invalid currency code %q", cur)
		}
	}
	if c.BusinessDateWindowDays < 0 {
		return fmt.Errorf("config: business_date_window_days must be non-negative, got %d", c.BusinessDateWindowDays)
	}
	if c.ReportDecimalPlaces < 0 {
		return fmt.Errorf("config: report_decimal_places must be non-negative, got %d", c.ReportDecimalPlaces)
	}
	return nil
}

// CurrencyAllowed reports membership in the allowed-currency set.
func (c Config) CurrencyAllowed(code string) bool {
	for _, cur := range c.AllowedCurrencies {
		if cur == code {
			return true
		}
	}
	return false
}

// APIBaseURL returns the downstream endpoint root.
func (c Config) APIBaseURL() string {
	return fmt.Sprintf("http://%s:%d", c.APIHost, c.APIPort)
}
