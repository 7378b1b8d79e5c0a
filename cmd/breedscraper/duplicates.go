package main

import (
	"fmt"

	"breedscraper/pkg/housekeeping"
	"breedscraper/pkg/ui"

	"github.com/spf13/cobra"
)

var duplicatesCmd = &cobra.Command{
	Use:   "duplicates [class]",
	Short: "List byte-identical files in a class folder",
	Long: `List files whose contents are byte-identical to another file in the class
folder or its subfolders. Nothing is deleted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig(nil)
		if err != nil {
			return err
		}
		class, err := classArg(cfg, args)
		if err != nil {
			return err
		}

		dups, err := housekeeping.ExactDuplicates(cmd.Context(), classDir(cfg, class), cfg.Download.SeedWorkers, log)
		if err != nil {
			ui.PrintError("Duplicate scan failed", err)
			return nil
		}

		for _, d := range dups {
			fmt.Fprintf(ui.Out, "Duplicate found: %s %s\n", d.Path, ui.Dim("(same as "+d.Original+")"))
		}
		ui.PrintInfo(fmt.Sprintf("Total duplicates found in %s", class), fmt.Sprintf("%d", len(dups)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(duplicatesCmd)
}
