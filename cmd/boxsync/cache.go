package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/boxsync/pkg/boxsync/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the registry cache",
	Long: `Commands for managing the local registry cache.

The cache stores fetched box manifests so repeated syncs against the same
version skip the network. Cache data lives in the XDG cache directory
(typically ~/.cache/boxsync/registry).`,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear all cached manifests",
	Long:  `Removes every cached manifest for the configured registry. The next sync will fetch fresh data.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCache()
		if err != nil {
			return err
		}
		defer c.Close()

		if err := c.Clear(viper.GetString("registry.url")); err != nil {
			return fmt.Errorf("clearing cache: %w", err)
		}

		fmt.Println("Cache cleared.")
		return nil
	},
}

var cacheInvalidateCmd = &cobra.Command{
	Use:   "invalidate <box>",
	Short: "Drop cached manifests for one box",
	Long:  `Removes every cached version of the named box, forcing the next sync to refetch it.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCache()
		if err != nil {
			return err
		}
		defer c.Close()

		if err := c.Invalidate(viper.GetString("registry.url"), args[0]); err != nil {
			return fmt.Errorf("invalidating %q: %w", args[0], err)
		}

		fmt.Printf("Dropped cached versions of %s.\n", args[0])
		return nil
	},
}

var cachePathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show cache location",
	Long:  `Prints the path to the registry cache directory.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(cachePath())
	},
}

func cachePath() string {
	if path := viper.GetString("registry.cache_path"); path != "" {
		return path
	}
	return cache.DefaultPath()
}

func openCache() (*cache.Cache, error) {
	path := cachePath()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("cache is empty (%s)", path)
	}

	ttl := time.Duration(viper.GetInt("registry.cache_ttl_minutes")) * time.Minute
	c, err := cache.Open(path, ttl)
	if err != nil {
		return nil, fmt.Errorf("opening cache at %s: %w", path, err)
	}
	return c, nil
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheInvalidateCmd)
	cacheCmd.AddCommand(cachePathCmd)
	rootCmd.AddCommand(cacheCmd)
}
