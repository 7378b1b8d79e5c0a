package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"breedscraper/pkg/config"
	"breedscraper/pkg/logger"
	"breedscraper/pkg/ui"

	"github.com/spf13/cobra"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	noColor    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "breedscraper",
	Short: "Build labeled cattle-breed image datasets from web image search",
	Long: `breedscraper collects images of cattle breeds from a web image search engine
into one folder per class, skipping near-duplicates by perceptual hash.

Features:
  - Headless browser with automation signals hidden
  - Rotating HTTP/SOCKS5 proxies verified before use
  - Perceptual-hash deduplication against images already on disk
  - Housekeeping: count, prune, color-mode and exact-duplicate checks

Missing class names and counts are asked for on standard input.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor {
			ui.SetColor(false)
		}
		if cmd.Name() != "version" && cmd.Name() != "help" {
			ui.PrintBanner()
		}
	},
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./.breedscraper.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.SetVersionTemplate(`breedscraper {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// loadConfig loads configuration with the global flags plus extra merged
// in, and initializes the global logger from it
func loadConfig(extra map[string]interface{}) (*config.Config, logger.Logger, error) {
	flags := make(map[string]interface{}, len(extra)+1)
	for k, v := range extra {
		flags[k] = v
	}
	if logLevel != "" {
		flags["log-level"] = logLevel
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, nil, err
	}
	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, logger.GetLogger(), nil
}

var (
	promptIn   io.Reader = os.Stdin
	promptOut  io.Writer = os.Stdout
	promptOnce sync.Once
	prompt     *ui.Prompter
)

// prompter returns the process-wide prompter. Its buffered reader must be
// shared, or a second prompt loses input the first one read ahead.
func prompter() *ui.Prompter {
	promptOnce.Do(func() {
		prompt = ui.NewPrompter(promptIn, promptOut)
	})
	return prompt
}

// classArg returns args[0] or asks for a class on stdin
func classArg(cfg *config.Config, args []string) (string, error) {
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		return strings.TrimSpace(args[0]), nil
	}
	return prompter().Class(cfg.Classes())
}

func classDir(cfg *config.Config, class string) string {
	return filepath.Join(cfg.Output.BaseDirectory, class)
}
