package main

import (
	"fmt"

	"breedscraper/pkg/housekeeping"
	"breedscraper/pkg/ui"

	"github.com/spf13/cobra"
)

var countCmd = &cobra.Command{
	Use:   "count [class]",
	Short: "Count the images in a class folder",
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

		n, err := housekeeping.Count(classDir(cfg, class))
		if err != nil {
			ui.PrintError("Cannot read class folder", err)
			return nil
		}
		ui.PrintSuccess(fmt.Sprintf("There are %d images in the %s folder.", n, class))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(countCmd)
}
