package main

import (
	"fmt"
	"os"

	"breedscraper/pkg/config"
	"breedscraper/pkg/proxy"
	"breedscraper/pkg/ui"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage breedscraper configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (BREEDSCRAPER_*)
  - .env files
  - Configuration file
  - Default values (lowest priority)`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration to a file",
	Long: `Write the default configuration, including the default job table, to
.breedscraper.yaml or to the path given with --config.`,
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Show the configuration after merging every source. Proxy credentials are
masked.`,
	RunE: runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configFile
	if path == "" {
		path = ".breedscraper.yaml"
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("configuration file already exists: %s", path)
	}

	if err := config.DefaultConfig().Save(path); err != nil {
		return err
	}

	ui.PrintSuccess("Configuration file created: " + path)
	fmt.Fprintln(ui.Out, "\nNext steps:")
	fmt.Fprintln(ui.Out, "1. Add proxy candidates and the classes you want under jobs")
	fmt.Fprintln(ui.Out, "2. Run 'breedscraper config validate' to check the configuration")
	fmt.Fprintln(ui.Out, "3. Start collecting with 'breedscraper scrape <class>'")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		return err
	}

	display := *cfg
	display.Proxy.Candidates = make([]string, len(cfg.Proxy.Candidates))
	for i, p := range cfg.Proxy.Candidates {
		display.Proxy.Candidates[i] = maskProxy(p)
	}

	data, err := yaml.Marshal(&display)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Fprintln(ui.Out)
	fmt.Fprint(ui.Out, string(data))
	return nil
}

// maskProxy hides the password of a proxy URL
func maskProxy(p string) string {
	u, err := proxy.URL(p)
	if err != nil || u.User == nil {
		return p
	}
	return u.Redacted()
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		ui.PrintError("Configuration validation failed", err)
		return err
	}

	var warnings []string
	candidates, err := proxy.LoadCandidates(cfg.Proxy.Candidates, cfg.Proxy.CandidatesFile)
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		warnings = append(warnings, "no proxy candidates configured; retries will run without a proxy")
	}
	for _, c := range candidates {
		if _, err := proxy.URL(c); err != nil {
			warnings = append(warnings, err.Error())
		}
	}
	if len(cfg.Jobs) == 0 {
		warnings = append(warnings, "no jobs configured")
	}

	if len(warnings) > 0 {
		ui.PrintWarning("Configuration warnings:")
		for _, w := range warnings {
			fmt.Fprintf(ui.Out, "  - %s\n", w)
		}
		fmt.Fprintln(ui.Out)
	}

	ui.PrintSuccess("Configuration is valid")

	fmt.Fprintln(ui.Out, "\nConfiguration summary:")
	fmt.Fprintf(ui.Out, "  Output directory: %s\n", cfg.Output.BaseDirectory)
	fmt.Fprintf(ui.Out, "  Proxy candidates: %d\n", len(candidates))
	fmt.Fprintf(ui.Out, "  Attempts per term: %d\n", cfg.Scrape.MaxAttempts)
	fmt.Fprintf(ui.Out, "  Rate limit: %d requests/minute\n", cfg.Download.RequestsPerMinute)
	fmt.Fprintf(ui.Out, "  Fetch retries: %d (from %s)\n", cfg.Download.Retries, cfg.Download.RetryDelay)
	for _, job := range cfg.Jobs {
		fmt.Fprintf(ui.Out, "  Class %s: %d terms, target %d\n", job.Class, len(job.Terms), job.Target)
	}
	return nil
}
