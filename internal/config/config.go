// Package config defines process configuration and its loading layers.
package config

import (
	"fmt"
	"runtime"
)

// Output formats accepted by OutputFormat.
const (
	FormatTable = "table"
	FormatJSON  = "json"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address for serve mode, e.g. ":9080".
	Addr string `koanf:"addr"`

	// InputFile is the CSV read by the report and split commands.
	InputFile string `koanf:"input_file"`

	// Profession is the substring matched against vacancy names.
	Profession string `koanf:"profession"`

	// OutputFormat selects the report renderer: table or json.
	OutputFormat string `koanf:"output_format"`

	// WorkerCount sets the number of normalization workers; 1 runs inline.
	WorkerCount int `koanf:"worker_count"`

	// QueueSize bounds the job queue feeding the workers.
	QueueSize int `koanf:"queue_size"`

	// TopCities is the length of the ranked city views.
	TopCities int `koanf:"top_cities"`

	// MinCityShare prunes cities whose vacancy share is below it.
	MinCityShare float64 `koanf:"min_city_share"`

	// MaxReports caps the in-memory report store in serve mode.
	MaxReports int `koanf:"max_reports"`

	// MaxUploadBytes caps POST /reports bodies.
	MaxUploadBytes int64 `koanf:"max_upload_bytes"`

	// SplitDir is where the split command writes per-year files.
	SplitDir string `koanf:"split_dir"`

	// CurrencyRates replaces the built-in exchange table when non-empty.
	CurrencyRates map[string]float64 `koanf:"currency_rates"`
}

// New creates a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:       "info",
		Addr:           ":9080",
		OutputFormat:   FormatTable,
		WorkerCount:    runtime.NumCPU(),
		QueueSize:      10_000,
		TopCities:      10,
		MinCityShare:   0.01,
		MaxReports:     1_000,
		MaxUploadBytes: 64 << 20,
		SplitDir:       "CSV",
	}
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.OutputFormat != FormatTable && c.OutputFormat != FormatJSON:
		return fmt.Errorf("%w: output_format must be %s or %s, got %q", ErrInvalidConfig, FormatTable, FormatJSON, c.OutputFormat)
	case c.TopCities < 1:
		return fmt.Errorf("%w: top_cities must be at least 1", ErrInvalidConfig)
	case c.MinCityShare < 0 || c.MinCityShare > 1:
		return fmt.Errorf("%w: min_city_share must be within [0,1]", ErrInvalidConfig)
	case c.QueueSize < 1:
		return fmt.Errorf("%w: queue_size must be at least 1", ErrInvalidConfig)
	case c.MaxReports < 1:
		return fmt.Errorf("%w: max_reports must be at least 1", ErrInvalidConfig)
	case c.MaxUploadBytes < 1:
		return fmt.Errorf("%w: max_upload_bytes must be at least 1", ErrInvalidConfig)
	}
	for code, rate := range c.CurrencyRates {
		if rate <= 0 {
			return fmt.Errorf("%w: currency_rates[%s] must be positive", ErrInvalidConfig, code)
		}
	}
	return nil
}
