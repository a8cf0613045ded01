// Package config provides configuration management for the harvester.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds all configuration for the harvester.
type Config struct {
	// Entrez contains NCBI E-utilities client settings.
	Entrez EntrezConfig `mapstructure:"entrez"`
	// Storage contains blob store settings.
	Storage StorageConfig `mapstructure:"storage"`
	// Harvest contains batch processing settings.
	Harvest HarvestConfig `mapstructure:"harvest"`
	// Logging contains structured logging settings.
	Logging LoggingConfig `mapstructure:"logging"`
	// Metrics contains Prometheus metrics exposure settings.
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// EntrezConfig holds NCBI E-utilities client configuration.
type EntrezConfig struct {
	// BaseURL is the base URL for the E-utilities API.
	BaseURL string `mapstructure:"base_url" validate:"required,url"`
	// PMCBaseURL is the base URL for PMC article pages.
	PMCBaseURL string `mapstructure:"pmc_base_url" validate:"required,url"`
	// Tool identifies the calling application to NCBI.
	Tool string `mapstructure:"tool" validate:"required"`
	// Email is the contact address NCBI asks callers to supply.
	Email string `mapstructure:"email" validate:"required,email"`
	// APIKey is the NCBI API key for higher rate limits. Loaded exclusively
	// from the HARVEST_ENTREZ_API_KEY environment variable.
	APIKey string `mapstructure:"-"`
	// Timeout is the per-request timeout.
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0"`
	// RequestInterval is the minimum spacing between metadata requests.
	RequestInterval time.Duration `mapstructure:"request_interval" validate:"gt=0"`
	// PDFRequestInterval is the minimum spacing between PDF retrievals.
	PDFRequestInterval time.Duration `mapstructure:"pdf_request_interval" validate:"gt=0"`
	// MaxResults is the default maximum results per search.
	MaxResults int `mapstructure:"max_results" validate:"gt=0,lte=10000"`
}

// StorageConfig holds blob store configuration.
type StorageConfig struct {
	// BasePath is the root directory for persisted blobs.
	BasePath string `mapstructure:"base_path" validate:"required"`
}

// HarvestConfig holds batch processing configuration.
type HarvestConfig struct {
	// DownloadPDFs enables best-effort PDF retrieval per article.
	DownloadPDFs bool `mapstructure:"download_pdfs"`
	// FetchSummaries enables best-effort summary retrieval per article.
	FetchSummaries bool `mapstructure:"fetch_summaries"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level (trace, debug, info, warn, error, fatal, panic).
	Level string `mapstructure:"level"`
	// Format is the log format (json, console).
	Format string `mapstructure:"format"`
	// Output is the log output destination (stdout, stderr).
	Output string `mapstructure:"output"`
	// AddSource adds source file and line to log output.
	AddSource bool `mapstructure:"add_source"`
	// TimeFormat is the timestamp format.
	TimeFormat string `mapstructure:"time_format"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	// Enabled enables the metrics HTTP listener.
	Enabled bool `mapstructure:"enabled"`
	// Port is the metrics server port.
	Port int `mapstructure:"port" validate:"gt=0,lte=65535"`
	// Path is the HTTP path for the metrics endpoint.
	Path string `mapstructure:"path"`
}

// Load reads configuration from defaults, an optional config file, and
// environment variables, in increasing order of precedence.
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Read from environment variables
	v.SetEnvPrefix("HARVEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file if present
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/pubmed-harvester")

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK, we'll use env vars and defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Load secrets exclusively from environment variables.
	// These fields use mapstructure:"-" to prevent loading from config files.
	loadSecrets(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadSecrets populates secret fields exclusively from environment variables.
func loadSecrets(cfg *Config) {
	cfg.Entrez.APIKey = os.Getenv("HARVEST_ENTREZ_API_KEY")
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Entrez defaults
	v.SetDefault("entrez.base_url", "https://eutils.ncbi.nlm.nih.gov/entrez/eutils")
	v.SetDefault("entrez.pmc_base_url", "https://www.ncbi.nlm.nih.gov/pmc/articles")
	v.SetDefault("entrez.tool", "pubmed-harvester")
	v.SetDefault("entrez.email", "")
	v.SetDefault("entrez.timeout", "30s")
	v.SetDefault("entrez.request_interval", "340ms")
	v.SetDefault("entrez.pdf_request_interval", "10ms")
	v.SetDefault("entrez.max_results", 100)
	// API key is loaded exclusively from HARVEST_ENTREZ_API_KEY (see loadSecrets).

	// Storage defaults
	v.SetDefault("storage.base_path", "data")

	// Harvest defaults
	v.SetDefault("harvest.download_pdfs", true)
	v.SetDefault("harvest.fetch_summaries", true)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	// Metrics defaults
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.port", 9091)
	v.SetDefault("metrics.path", "/metrics")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return fmt.Errorf("invalid field %s: failed %q validation", fe.Namespace(), fe.Tag())
		}
		return err
	}

	if _, err := url.Parse(c.Entrez.BaseURL); err != nil {
		return fmt.Errorf("invalid entrez base URL: %w", err)
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	return nil
}
