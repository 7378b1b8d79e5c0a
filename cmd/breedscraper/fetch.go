package main

import (
	"errors"

	"breedscraper/pkg/proxy"
	"breedscraper/pkg/storage"
	"breedscraper/pkg/ui"

	"github.com/spf13/cobra"
)

var (
	fetchTerm  string
	fetchIndex int
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <url> [class]",
	Short: "Download a single image into a class folder",
	Long: `Download one image URL into a class folder as JPEG. The image is rejected
when it is not RGB or when an image with the same perceptual hash is already
in the folder.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig(nil)
		if err != nil {
			return err
		}
		class, err := classArg(cfg, args[1:])
		if err != nil {
			return err
		}
		term := fetchTerm
		if term == "" {
			term = class
		}

		candidates, err := proxy.LoadCandidates(cfg.Proxy.Candidates, cfg.Proxy.CandidatesFile)
		if err != nil {
			return err
		}

		path, err := newPipeline(cfg, candidates, log).DownloadOne(cmd.Context(), args[0], classDir(cfg, class), term, fetchIndex)
		switch {
		case errors.Is(err, storage.ErrDuplicate):
			ui.PrintWarning("Skipped: duplicate image")
		case err != nil:
			ui.PrintError("Download failed", err)
		default:
			ui.PrintInfo("Saved", path)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringVar(&fetchTerm, "term", "", "search term used in the file name (default: class)")
	fetchCmd.Flags().IntVar(&fetchIndex, "index", 1, "index used in the file name")
}
