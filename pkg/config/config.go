package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the breed image scraper
type Config struct {
	// Proxy pool and verification settings
	Proxy ProxyConfig `yaml:"proxy" json:"proxy"`

	// Headless browser settings
	Browser BrowserConfig `yaml:"browser" json:"browser"`

	// Search engine endpoint and DOM selectors
	Search SearchConfig `yaml:"search" json:"search"`

	// Pipeline limits and thresholds
	Scrape ScrapeConfig `yaml:"scrape" json:"scrape"`

	// Image fetch settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`

	// Classes to collect and the search terms for each
	Jobs []JobConfig `yaml:"jobs" json:"jobs"`
}

// ProxyConfig holds the candidate pool and verification parameters
type ProxyConfig struct {
	Candidates     []string      `yaml:"candidates" json:"candidates"`
	CandidatesFile string        `yaml:"candidates_file" json:"candidates_file"`
	TestURLs       []string      `yaml:"test_urls" json:"test_urls"`
	Timeout        time.Duration `yaml:"timeout" json:"timeout"`
	BatchSize      int           `yaml:"batch_size" json:"batch_size"`
	Concurrency    int           `yaml:"concurrency" json:"concurrency"`
	MaxRounds      int           `yaml:"max_rounds" json:"max_rounds"`
}

// BrowserConfig holds headless browser settings
type BrowserConfig struct {
	Bin             string        `yaml:"bin" json:"bin"`
	Headless        bool          `yaml:"headless" json:"headless"`
	PageLoadTimeout time.Duration `yaml:"page_load_timeout" json:"page_load_timeout"`
	UserAgents      []string      `yaml:"user_agents" json:"user_agents"`
}

// SearchConfig holds the search endpoint and the selectors used to drive it
type SearchConfig struct {
	URLTemplate   string        `yaml:"url_template" json:"url_template"`
	ThumbnailSel  string        `yaml:"thumbnail_selector" json:"thumbnail_selector"`
	ShowMoreSel   string        `yaml:"show_more_selector" json:"show_more_selector"`
	FullResSel    string        `yaml:"full_res_selector" json:"full_res_selector"`
	CloseModalSel string        `yaml:"close_modal_selector" json:"close_modal_selector"`
	MaxScrolls    int           `yaml:"max_scrolls" json:"max_scrolls"`
	ScrollPause   time.Duration `yaml:"scroll_pause" json:"scroll_pause"`
	ShowMorePause time.Duration `yaml:"show_more_pause" json:"show_more_pause"`
	SettleDelay   time.Duration `yaml:"settle_delay" json:"settle_delay"`
}

// ScrapeConfig holds the pipeline's bounded loops and thresholds
type ScrapeConfig struct {
	MaxAttempts       int           `yaml:"max_attempts" json:"max_attempts"`
	AttemptDelay      time.Duration `yaml:"attempt_delay" json:"attempt_delay"`
	BatchSize         int           `yaml:"batch_size" json:"batch_size"`
	RefreshAfterSkips int           `yaml:"refresh_after_skips" json:"refresh_after_skips"`
	RefreshScrolls    int           `yaml:"refresh_scrolls" json:"refresh_scrolls"`
	AbortAfterSkips   int           `yaml:"abort_after_skips" json:"abort_after_skips"`
	BatchSkipLimit    int           `yaml:"batch_skip_limit" json:"batch_skip_limit"`
	FullResTimeout    time.Duration `yaml:"full_res_timeout" json:"full_res_timeout"`
	RevealPause       time.Duration `yaml:"reveal_pause" json:"reveal_pause"`
	RequireRGB        bool          `yaml:"require_rgb" json:"require_rgb"`
	TermDelayMin      time.Duration `yaml:"term_delay_min" json:"term_delay_min"`
	TermDelayMax      time.Duration `yaml:"term_delay_max" json:"term_delay_max"`
}

// DownloadConfig holds image fetch settings
type DownloadConfig struct {
	Timeout           time.Duration `yaml:"timeout" json:"timeout"`
	RequestsPerMinute int           `yaml:"requests_per_minute" json:"requests_per_minute"`
	MaxFileSize       int64         `yaml:"max_file_size" json:"max_file_size"`
	SeedWorkers       int           `yaml:"seed_workers" json:"seed_workers"`
	// Retries is the number of extra fetches after a retryable failure
	Retries    int           `yaml:"retries" json:"retries"`
	RetryDelay time.Duration `yaml:"retry_delay" json:"retry_delay"`
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	BaseDirectory string `yaml:"base_directory" json:"base_directory"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// JobConfig lists the search terms collected into one class directory
type JobConfig struct {
	Class  string   `yaml:"class" json:"class"`
	Terms  []string `yaml:"terms" json:"terms"`
	Target int      `yaml:"target" json:"target"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Proxy: ProxyConfig{
			TestURLs: []string{
				"https://www.bing.com",
				"https://www.yahoo.com",
				"https://duckduckgo.com",
			},
			Timeout:     5 * time.Second,
			BatchSize:   5,
			Concurrency: 5,
			MaxRounds:   10,
		},
		Browser: BrowserConfig{
			Headless:        true,
			PageLoadTimeout: 30 * time.Second,
		},
		Search: SearchConfig{
			URLTemplate:   "https://duckduckgo.com/?q={query}&iax=images&ia=images",
			ThumbnailSel:  "img.tile--img__img",
			ShowMoreSel:   "input[type='button'][value='Show more results']",
			FullResSel:    ".detail__media__img-highres",
			CloseModalSel: "button.module__close",
			MaxScrolls:    30,
			ScrollPause:   time.Second,
			ShowMorePause: 2 * time.Second,
			SettleDelay:   2 * time.Second,
		},
		Scrape: ScrapeConfig{
			MaxAttempts:       3,
			AttemptDelay:      time.Second,
			BatchSize:         200,
			RefreshAfterSkips: 10,
			RefreshScrolls:    5,
			AbortAfterSkips:   20,
			BatchSkipLimit:    20,
			FullResTimeout:    5 * time.Second,
			RevealPause:       time.Second,
			RequireRGB:        true,
			TermDelayMin:      5 * time.Second,
			TermDelayMax:      10 * time.Second,
		},
		Download: DownloadConfig{
			Timeout:           10 * time.Second,
			RequestsPerMinute: 120,
			MaxFileSize:       0, // 0 means no limit
			SeedWorkers:       4,
			Retries:           2,
			RetryDelay:        2 * time.Second,
		},
		Output: OutputConfig{
			BaseDirectory: "dataset/raw",
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
		Jobs: []JobConfig{
			{
				Class:  "Angus",
				Target: 1000,
				Terms: []string{
					"my beautifull Angus cow HD",
					"Solid black Angus cow grazing hd",
					"Close-up of Angus cow face",
					"Angus cow in field",
					"Full body Angus cow portrait",
					"Angus cow in beef farm",
					"Angus cow standing in grassland",
					"Angus cow with calf",
					"Angus cow in summer",
					"Angus cow side view",
					"High-resolution Angus cow image",
				},
			},
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if outputDir := os.Getenv("BREEDSCRAPER_OUTPUT_DIR"); outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}

	if file := os.Getenv("BREEDSCRAPER_PROXY_FILE"); file != "" {
		c.Proxy.CandidatesFile = file
	}
	if proxies := os.Getenv("BREEDSCRAPER_PROXIES"); proxies != "" {
		c.Proxy.Candidates = splitList(proxies)
	}

	if bin := os.Getenv("BREEDSCRAPER_BROWSER_BIN"); bin != "" {
		c.Browser.Bin = bin
	}
	if headless := os.Getenv("BREEDSCRAPER_HEADLESS"); headless != "" {
		c.Browser.Headless = strings.ToLower(headless) == "true"
	}

	if attempts := os.Getenv("BREEDSCRAPER_MAX_ATTEMPTS"); attempts != "" {
		val, err := strconv.Atoi(attempts)
		if err != nil {
			return fmt.Errorf("invalid BREEDSCRAPER_MAX_ATTEMPTS: %w", err)
		}
		if val > 0 {
			c.Scrape.MaxAttempts = val
		}
	}

	if rpm := os.Getenv("BREEDSCRAPER_REQUESTS_PER_MINUTE"); rpm != "" {
		val, err := strconv.Atoi(rpm)
		if err != nil {
			return fmt.Errorf("invalid BREEDSCRAPER_REQUESTS_PER_MINUTE: %w", err)
		}
		if val > 0 {
			c.Download.RequestsPerMinute = val
		}
	}

	if logLevel := os.Getenv("BREEDSCRAPER_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFile := os.Getenv("BREEDSCRAPER_LOG_FILE"); logFile != "" {
		c.Logging.File = logFile
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	locations := []string{
		".breedscraper.yaml",
		".breedscraper.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "breedscraper", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "breedscraper", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".breedscraper.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Proxy.Timeout <= 0 {
		errs = append(errs, errors.New("proxy timeout must be positive"))
	}
	if len(c.Proxy.TestURLs) == 0 {
		errs = append(errs, errors.New("at least one proxy test URL is required"))
	}
	if c.Proxy.BatchSize <= 0 {
		errs = append(errs, errors.New("proxy batch size must be positive"))
	}
	if c.Proxy.Concurrency <= 0 {
		errs = append(errs, errors.New("proxy concurrency must be positive"))
	}
	if c.Proxy.MaxRounds <= 0 {
		errs = append(errs, errors.New("proxy max rounds must be positive"))
	}

	if c.Browser.PageLoadTimeout <= 0 {
		errs = append(errs, errors.New("page load timeout must be positive"))
	}

	if !strings.Contains(c.Search.URLTemplate, "{query}") {
		errs = append(errs, errors.New("search url template must contain {query}"))
	}
	if c.Search.ThumbnailSel == "" || c.Search.FullResSel == "" {
		errs = append(errs, errors.New("thumbnail and full-resolution selectors are required"))
	}
	if c.Search.MaxScrolls <= 0 {
		errs = append(errs, errors.New("max scrolls must be positive"))
	}

	if c.Scrape.MaxAttempts <= 0 {
		errs = append(errs, errors.New("max attempts must be positive"))
	}
	if c.Scrape.BatchSize <= 0 {
		errs = append(errs, errors.New("thumbnail batch size must be positive"))
	}
	if c.Scrape.AbortAfterSkips <= 0 {
		errs = append(errs, errors.New("abort-after-skips must be positive"))
	}
	if c.Scrape.RefreshAfterSkips <= 0 {
		errs = append(errs, errors.New("refresh-after-skips must be positive"))
	}
	if c.Scrape.TermDelayMax < c.Scrape.TermDelayMin {
		errs = append(errs, errors.New("term delay max must not be below term delay min"))
	}

	if c.Download.Timeout <= 0 {
		errs = append(errs, errors.New("download timeout must be positive"))
	}
	if c.Download.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}
	if c.Download.SeedWorkers <= 0 {
		errs = append(errs, errors.New("seed workers must be positive"))
	}
	if c.Download.Retries < 0 || c.Download.RetryDelay < 0 {
		errs = append(errs, errors.New("download retries and retry delay must not be negative"))
	}

	if c.Output.BaseDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	for i, job := range c.Jobs {
		if strings.TrimSpace(job.Class) == "" {
			errs = append(errs, fmt.Errorf("job %d: class is required", i))
		}
		if len(job.Terms) == 0 {
			errs = append(errs, fmt.Errorf("job %d (%s): at least one search term is required", i, job.Class))
		}
		if job.Target <= 0 {
			errs = append(errs, fmt.Errorf("job %d (%s): target must be positive", i, job.Class))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if outputDir, ok := flags["output"].(string); ok && outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
	if proxyFile, ok := flags["proxy-file"].(string); ok && proxyFile != "" {
		c.Proxy.CandidatesFile = proxyFile
	}
	if attempts, ok := flags["max-attempts"].(int); ok && attempts > 0 {
		c.Scrape.MaxAttempts = attempts
	}
	if target, ok := flags["target"].(int); ok && target > 0 {
		for i := range c.Jobs {
			c.Jobs[i].Target = target
		}
	}
}

// Job returns the job table entry for a class, matched case-insensitively
func (c *Config) Job(class string) (JobConfig, bool) {
	for _, job := range c.Jobs {
		if strings.EqualFold(job.Class, class) {
			return job, true
		}
	}
	return JobConfig{}, false
}

// Classes returns the configured class names in table order
func (c *Config) Classes() []string {
	classes := make([]string, 0, len(c.Jobs))
	for _, job := range c.Jobs {
		classes = append(classes, job.Class)
	}
	return classes
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".breedscraper.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
