package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/hshchk/pkg/hshchk/cache"
	"github.com/jamesainslie/hshchk/pkg/hshchk/config"
	"github.com/jamesainslie/hshchk/pkg/hshchk/engine"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the digest cache",
	Long: `Commands for managing the digest cache.

With --cache, create runs store each file's digest keyed by its size and
modification time and reuse it on the next run. The cache lives in the XDG
cache directory (typically ~/.cache/hshchk/digests).`,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear [directory]",
	Short: "Clear cached digests",
	Long:  `Removes the cached digests of one directory tree, or of all trees when no directory is given.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCacheClear,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache statistics",
	RunE:  runCacheStats,
}

var cachePathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show cache location",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := cachePath()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cachePathCmd)
	rootCmd.AddCommand(cacheCmd)
}

func cachePath() (string, error) {
	cfg, err := config.Load(viper.GetViper(), cfgFile)
	if err != nil {
		return "", usageError(err)
	}
	return cfg.CachePath(), nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	path, err := cachePath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Fprintln(cmd.OutOrStdout(), "Cache is already empty.")
		return nil
	}

	c, err := cache.Open(path)
	if err != nil {
		return err
	}
	defer c.Close()

	if len(args) == 0 {
		if err := c.ClearAll(); err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Cache cleared.")
		return nil
	}

	root, err := engine.CanonicalRoot(args[0])
	if err != nil {
		return usageError(err)
	}
	if err := c.Clear(root); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Cache cleared for %s.\n", root)
	return nil
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	path, err := cachePath()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		fmt.Fprintln(out, "Cache: empty (no cache directory)")
		fmt.Fprintf(out, "Cache location: %s\n", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat cache: %w", err)
	}

	var size int64
	_ = filepath.WalkDir(path, func(_ string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if fi, err := d.Info(); err == nil {
			size += fi.Size()
		}
		return nil
	})

	c, err := cache.Open(path)
	if err != nil {
		return err
	}
	defer c.Close()

	stats, err := c.Stats()
	if err != nil {
		return fmt.Errorf("failed to read cache: %w", err)
	}

	fmt.Fprintf(out, "Cache location: %s\n", path)
	fmt.Fprintf(out, "Cache size: %s\n", humanize.IBytes(uint64(size)))
	fmt.Fprintf(out, "Cached files: %s\n", humanize.Comma(int64(stats.Entries)))
	fmt.Fprintf(out, "Directory trees: %d\n", stats.Roots)
	fmt.Fprintf(out, "Last modified: %s\n", humanize.Time(info.ModTime()))
	return nil
}
