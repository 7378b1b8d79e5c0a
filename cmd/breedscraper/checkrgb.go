package main

import (
	"fmt"

	"breedscraper/pkg/housekeeping"
	"breedscraper/pkg/ui"

	"github.com/spf13/cobra"
)

var checkRGBCmd = &cobra.Command{
	Use:   "check-rgb [class]",
	Short: "List images in a class folder that are not RGB",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig(nil)
		if err != nil {
			return err
		}
		class, err := classArg(cfg, args)
		if err != nil {
			return err
		}

		dir := classDir(cfg, class)
		report, err := housekeeping.NonRGB(dir)
		if err != nil {
			ui.PrintError("Cannot read class folder", err)
			return nil
		}

		for _, f := range report.NonRGB {
			fmt.Fprintf(ui.Out, "Non-RGB image found: %s (Mode: %s)\n", f.Name, ui.Yellow(string(f.Mode)))
		}
		for _, name := range report.Unreadable {
			ui.PrintWarning("Error processing " + name)
		}

		if len(report.NonRGB) > 0 {
			ui.PrintWarning(fmt.Sprintf("\nFound %d non-RGB images in %s", len(report.NonRGB), dir))
		} else {
			ui.PrintSuccess(fmt.Sprintf("\nAll %d images in %s are in RGB format", report.Checked, dir))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkRGBCmd)
}
