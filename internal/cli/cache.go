package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cperrin88/agdaup/pkg/cache"
)

// NewCacheCmd creates the cache command with subcommands.
func NewCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the download and build cache",
	}

	cmd.AddCommand(
		newCacheCleanCmd(),
		newCacheInfoCmd(),
	)

	return cmd
}

func newCacheCleanCmd() *cobra.Command {
	var opts cache.CleanOptions

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove cached downloads and build trees",
		Long:  "Remove cached downloads and build trees. Without flags both are removed.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			result, err := cache.NewManager(cfg.Settings.CacheDir).Clean(opts)
			if err != nil {
				return fmt.Errorf("failed to clean cache: %w", err)
			}
			if result.TotalFreed == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No files were removed from the cache.")
				return nil
			}
			success(cmd.OutOrStdout(), "Freed %s", cache.FormatBytes(result.TotalFreed))
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.Downloads, "downloads", false, "Clean downloaded archives")
	cmd.Flags().BoolVar(&opts.Build, "build", false, "Clean extraction and build directories")

	return cmd
}

func newCacheInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show cache usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			info, err := cache.NewManager(cfg.Settings.CacheDir).GetInfo()
			if err != nil {
				return fmt.Errorf("failed to get cache info: %w", err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), `Cache Information:
  Directory:  %s
  Total Size: %s
  Downloads:  %s (%d files)
  Build:      %s (%d files)
`,
				info.Directory,
				cache.FormatBytes(info.TotalSize),
				cache.FormatBytes(info.DownloadsSize),
				info.DownloadsFiles,
				cache.FormatBytes(info.BuildSize),
				info.BuildFiles,
			)
			return nil
		},
	}
}
