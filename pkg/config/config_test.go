package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Output.BaseDirectory != "dataset/raw" {
		t.Errorf("Expected default output directory to be dataset/raw, got %s", config.Output.BaseDirectory)
	}

	if config.Proxy.Timeout != 5*time.Second {
		t.Errorf("Expected default proxy timeout to be 5s, got %v", config.Proxy.Timeout)
	}

	assert.Len(t, config.Proxy.TestURLs, 3)
	assert.Equal(t, 5, config.Proxy.BatchSize)
	assert.Equal(t, 10, config.Proxy.MaxRounds)
	assert.Equal(t, 30, config.Search.MaxScrolls)
	assert.Equal(t, 3, config.Scrape.MaxAttempts)
	assert.Equal(t, 20, config.Scrape.AbortAfterSkips)
	assert.Equal(t, 10, config.Scrape.RefreshAfterSkips)

	job, ok := config.Job("angus")
	require.True(t, ok)
	assert.Equal(t, "Angus", job.Class)
	assert.Equal(t, 1000, job.Target)
	assert.Len(t, job.Terms, 11)

	require.NoError(t, config.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("BREEDSCRAPER_OUTPUT_DIR", "/tmp/test-dataset")
	t.Setenv("BREEDSCRAPER_PROXIES", "1.2.3.4:8080, socks5://5.6.7.8:1080,")
	t.Setenv("BREEDSCRAPER_HEADLESS", "false")
	t.Setenv("BREEDSCRAPER_MAX_ATTEMPTS", "7")
	t.Setenv("BREEDSCRAPER_REQUESTS_PER_MINUTE", "30")
	t.Setenv("BREEDSCRAPER_LOG_LEVEL", "debug")

	config := DefaultConfig()
	err := config.LoadFromEnv()
	if err != nil {
		t.Fatalf("Failed to load from environment: %v", err)
	}

	assert.Equal(t, "/tmp/test-dataset", config.Output.BaseDirectory)
	assert.Equal(t, []string{"1.2.3.4:8080", "socks5://5.6.7.8:1080"}, config.Proxy.Candidates)
	assert.False(t, config.Browser.Headless)
	assert.Equal(t, 7, config.Scrape.MaxAttempts)
	assert.Equal(t, 30, config.Download.RequestsPerMinute)
	assert.Equal(t, "debug", config.Logging.Level)
}

func TestLoadFromEnvInvalidNumber(t *testing.T) {
	t.Setenv("BREEDSCRAPER_MAX_ATTEMPTS", "many")

	config := DefaultConfig()
	assert.Error(t, config.LoadFromEnv())
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
output:
  base_directory: /tmp/yaml-dataset
scrape:
  max_attempts: 5
jobs:
  - class: Holstein
    target: 50
    terms:
      - Holstein cow
      - Holstein dairy cow
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write test config file: %v", err)
	}

	config := DefaultConfig()
	if err := config.LoadFromFile(configPath); err != nil {
		t.Fatalf("Failed to load from file: %v", err)
	}

	assert.Equal(t, "/tmp/yaml-dataset", config.Output.BaseDirectory)
	assert.Equal(t, 5, config.Scrape.MaxAttempts)
	// Untouched sections keep their defaults
	assert.Equal(t, 30, config.Search.MaxScrolls)

	require.Len(t, config.Jobs, 1)
	assert.Equal(t, []string{"Holstein"}, config.Classes())
	assert.Equal(t, 50, config.Jobs[0].Target)
}

func TestLoadFromFileMissing(t *testing.T) {
	config := DefaultConfig()
	err := config.LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "zero proxy timeout",
			modify:  func(c *Config) { c.Proxy.Timeout = 0 },
			wantErr: true,
		},
		{
			name:    "no test urls",
			modify:  func(c *Config) { c.Proxy.TestURLs = nil },
			wantErr: true,
		},
		{
			name:    "template without placeholder",
			modify:  func(c *Config) { c.Search.URLTemplate = "https://duckduckgo.com/" },
			wantErr: true,
		},
		{
			name:    "inverted term delay",
			modify:  func(c *Config) { c.Scrape.TermDelayMin = 10 * time.Second; c.Scrape.TermDelayMax = time.Second },
			wantErr: true,
		},
		{
			name:    "negative download retries",
			modify:  func(c *Config) { c.Download.Retries = -1 },
			wantErr: true,
		},
		{
			name:    "empty output directory",
			modify:  func(c *Config) { c.Output.BaseDirectory = "" },
			wantErr: true,
		},
		{
			name:    "invalid log level",
			modify:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: true,
		},
		{
			name:    "job without terms",
			modify:  func(c *Config) { c.Jobs[0].Terms = nil },
			wantErr: true,
		},
		{
			name:    "job without target",
			modify:  func(c *Config) { c.Jobs[0].Target = 0 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.modify(config)

			err := config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMergeCommandLineFlags(t *testing.T) {
	config := DefaultConfig()

	config.MergeCommandLineFlags(map[string]interface{}{
		"output":       "/tmp/flag-dataset",
		"log-level":    "warn",
		"proxy-file":   "proxies.txt",
		"max-attempts": 4,
		"target":       25,
	})

	assert.Equal(t, "/tmp/flag-dataset", config.Output.BaseDirectory)
	assert.Equal(t, "warn", config.Logging.Level)
	assert.Equal(t, "proxies.txt", config.Proxy.CandidatesFile)
	assert.Equal(t, 4, config.Scrape.MaxAttempts)
	assert.Equal(t, 25, config.Jobs[0].Target)
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	original := DefaultConfig()
	original.Output.BaseDirectory = "/tmp/saved"
	require.NoError(t, original.Save(path))

	loaded := DefaultConfig()
	require.NoError(t, loaded.LoadFromFile(path))
	assert.Equal(t, "/tmp/saved", loaded.Output.BaseDirectory)
	assert.Equal(t, original.Jobs, loaded.Jobs)
}
