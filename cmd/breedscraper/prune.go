package main

import (
	"fmt"
	"strconv"

	"breedscraper/pkg/housekeeping"
	"breedscraper/pkg/ui"

	"github.com/spf13/cobra"
)

var pruneCmd = &cobra.Command{
	Use:   "prune [class] [n]",
	Short: "Delete n randomly chosen images from a class folder",
	Long: `Delete n randomly chosen images from a class folder, for example to balance
class sizes. Nothing is deleted when the folder holds fewer than n images.`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig(nil)
		if err != nil {
			return err
		}
		class, err := classArg(cfg, args)
		if err != nil {
			return err
		}

		var n int
		if len(args) > 1 {
			n, err = strconv.Atoi(args[1])
			if err != nil || n < 0 {
				return fmt.Errorf("%q is not a valid count", args[1])
			}
		} else {
			n, err = prompter().Int("Enter the number of images to delete")
			if err != nil {
				return err
			}
		}

		dir := classDir(cfg, class)
		deleted, err := housekeeping.DeleteRandom(dir, n, nil)
		for _, name := range deleted {
			fmt.Fprintf(ui.Out, "%s %s\n", ui.Dim("Deleted:"), name)
		}
		if err != nil {
			log.WithError(err).WithField("dir", dir).Warn("Prune incomplete")
			ui.PrintError("Prune failed", err)
			return nil
		}
		ui.PrintSuccess(fmt.Sprintf("\nSuccessfully deleted %d images from %s", len(deleted), dir))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pruneCmd)
}
