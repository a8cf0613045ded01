package config

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	clearEnvVars(t)

	// Email is required by NCBI etiquette and has no default.
	t.Setenv("HARVEST_ENTREZ_EMAIL", "dev@example.com")

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	// Entrez defaults
	assert.Equal(t, "https://eutils.ncbi.nlm.nih.gov/entrez/eutils", cfg.Entrez.BaseURL)
	assert.Equal(t, "https://www.ncbi.nlm.nih.gov/pmc/articles", cfg.Entrez.PMCBaseURL)
	assert.Equal(t, "pubmed-harvester", cfg.Entrez.Tool)
	assert.Equal(t, 30*time.Second, cfg.Entrez.Timeout)
	assert.Equal(t, 340*time.Millisecond, cfg.Entrez.RequestInterval)
	assert.Equal(t, 10*time.Millisecond, cfg.Entrez.PDFRequestInterval)
	assert.Equal(t, 100, cfg.Entrez.MaxResults)
	assert.Empty(t, cfg.Entrez.APIKey)

	// Storage defaults
	assert.Equal(t, "data", cfg.Storage.BasePath)

	// Harvest defaults
	assert.True(t, cfg.Harvest.DownloadPDFs)
	assert.True(t, cfg.Harvest.FetchSummaries)

	// Logging defaults
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)

	// Metrics defaults
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, 9091, cfg.Metrics.Port)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
}

func TestLoad_EnvironmentOverride(t *testing.T) {
	clearEnvVars(t)

	t.Setenv("HARVEST_ENTREZ_EMAIL", "dev@example.com")
	t.Setenv("HARVEST_ENTREZ_TOOL", "custom-tool")
	t.Setenv("HARVEST_ENTREZ_REQUEST_INTERVAL", "500ms")
	t.Setenv("HARVEST_ENTREZ_MAX_RESULTS", "250")
	t.Setenv("HARVEST_STORAGE_BASE_PATH", "/var/lib/harvester")
	t.Setenv("HARVEST_LOGGING_LEVEL", "debug")
	t.Setenv("HARVEST_HARVEST_DOWNLOAD_PDFS", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "custom-tool", cfg.Entrez.Tool)
	assert.Equal(t, 500*time.Millisecond, cfg.Entrez.RequestInterval)
	assert.Equal(t, 250, cfg.Entrez.MaxResults)
	assert.Equal(t, "/var/lib/harvester", cfg.Storage.BasePath)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.False(t, cfg.Harvest.DownloadPDFs)
}

func TestLoad_APIKeyFromEnvOnly(t *testing.T) {
	clearEnvVars(t)

	t.Setenv("HARVEST_ENTREZ_EMAIL", "dev@example.com")
	t.Setenv("HARVEST_ENTREZ_API_KEY", "ncbi-key-test")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "ncbi-key-test", cfg.Entrez.APIKey)
}

func TestLoad_MissingEmail(t *testing.T) {
	clearEnvVars(t)

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Email")
}

func TestValidate(t *testing.T) {
	t.Run("accepts a valid config", func(t *testing.T) {
		cfg := validConfig()
		assert.NoError(t, cfg.Validate())
	})

	t.Run("rejects a malformed email", func(t *testing.T) {
		cfg := validConfig()
		cfg.Entrez.Email = "not-an-email"
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects a non-positive interval", func(t *testing.T) {
		cfg := validConfig()
		cfg.Entrez.RequestInterval = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects max results over the API limit", func(t *testing.T) {
		cfg := validConfig()
		cfg.Entrez.MaxResults = 20000
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects an empty storage path", func(t *testing.T) {
		cfg := validConfig()
		cfg.Storage.BasePath = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects an unknown log level", func(t *testing.T) {
		cfg := validConfig()
		cfg.Logging.Level = "verbose"
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects an out-of-range metrics port", func(t *testing.T) {
		cfg := validConfig()
		cfg.Metrics.Port = 70000
		assert.Error(t, cfg.Validate())
	})

	t.Run("accepts warn as a log level", func(t *testing.T) {
		cfg := validConfig()
		cfg.Logging.Level = "WARN"
		assert.NoError(t, cfg.Validate())
	})
}

// clearEnvVars removes all HARVEST_ prefixed environment variables
func clearEnvVars(t *testing.T) {
	t.Helper()
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, "HARVEST_") {
			key := env[:strings.Index(env, "=")]
			os.Unsetenv(key)
		}
	}
}

// validConfig returns a valid configuration for testing
func validConfig() *Config {
	return &Config{
		Entrez: EntrezConfig{
			BaseURL:            "https://eutils.ncbi.nlm.nih.gov/entrez/eutils",
			PMCBaseURL:         "https://www.ncbi.nlm.nih.gov/pmc/articles",
			Tool:               "pubmed-harvester",
			Email:              "dev@example.com",
			Timeout:            30 * time.Second,
			RequestInterval:    340 * time.Millisecond,
			PDFRequestInterval: 10 * time.Millisecond,
			MaxResults:         100,
		},
		Storage: StorageConfig{
			BasePath: "data",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9091,
			Path:    "/metrics",
		},
	}
}
