package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/posterhue/internal/util/imagecache"
)

// cacheCmd groups artwork cache commands.
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the downloaded artwork cache",
}

// cacheInfoCmd represents the cache info command.
var cacheInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show cache location and size",
	Args:  cobra.NoArgs,
	RunE:  runCacheInfo,
}

// cacheClearCmd represents the cache clear command.
var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached artwork",
	Args:  cobra.NoArgs,
	RunE:  runCacheClear,
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheInfoCmd, cacheClearCmd)
}

func runCacheInfo(cmd *cobra.Command, _ []string) error {
	cache, err := imagecache.New(cfg.CacheDir)
	if err != nil {
		return err
	}

	stats, err := cache.Stats()
	if err != nil {
		return err
	}

	table := NewTable([]string{"Field", "Value"})
	table.AddRow([]string{"Directory", cache.Dir()})
	table.AddRow([]string{"Images", humanize.Comma(int64(stats.Entries))})
	table.AddRow([]string{"Size", humanize.IBytes(uint64(stats.Bytes))}) // #nosec G115 - sizes are non-negative
	if stats.Entries > 0 {
		table.AddRow([]string{"Oldest", humanize.Time(stats.Oldest)})
		table.AddRow([]string{"Newest", humanize.Time(stats.Newest)})
	}

	_, err = fmt.Fprint(cmd.OutOrStdout(), table.Render())
	return err
}

func runCacheClear(cmd *cobra.Command, _ []string) error {
	cache, err := imagecache.New(cfg.CacheDir)
	if err != nil {
		return err
	}

	removed, err := cache.Clear()
	if err != nil {
		return err
	}
	if !globalOpts.quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %s cached %s\n",
			humanize.Comma(int64(removed)), pluralImage(removed))
	}
	return nil
}

func pluralImage(n int) string {
	if n == 1 {
		return "image"
	}
	return "images"
}
