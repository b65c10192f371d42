package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/boxsync/pkg/boxsync/logging"
	"github.com/jamesainslie/boxsync/pkg/boxsync/manifest"
)

var statusCmd = &cobra.Command{
	Use:   "status [path]",
	Short: "Show the sync state of a box directory",
	Long: `Status reads the local manifest and reports the box identity, its
recorded sync state, and whether a sync is due. With --remote the registry
is consulted to recompute the state against the current remote manifest.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().Bool("remote", false, "recompute state against the registry")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	dir, err := boxDir(args)
	if err != nil {
		return err
	}

	store := manifest.NewStore(manifest.StoreConfig{})
	entry, err := store.Load(dir)
	if manifest.IsCorruption(err) {
		printError("manifest corrupted: %v", err)
		printInfo("Run `boxsync recover %s` to attempt recovery.", dir)
		return err
	}
	if err != nil {
		if hint := manifestHint(err); hint != "" {
			printInfo(hint)
		}
		return err
	}
	if entry == nil {
		printInfo("%s is not a tracked box directory", dir)
		return nil
	}

	m, meta := entry.Manifest, entry.Metadata
	state := meta.SyncState

	if remote, _ := cmd.Flags().GetBool("remote"); remote {
		remoteManifest, _, err := newRegistryClient().FetchManifest(cmd.Context(), meta.SourceBoxRef, "")
		if err != nil {
			return fmt.Errorf("fetching remote manifest: %w", err)
		}
		state, err = manifest.DetermineSyncState(entry, remoteManifest)
		if err != nil {
			return err
		}
		// Cache the verdict so NeedsSync reflects it without --remote.
		if err := store.SetSyncState(dir, state); err != nil {
			logging.Get("cli").Warn("could not record recomputed state", "dir", dir, "error", err)
		}
	}

	printInfo("Box:        %s", m.Name)
	printInfo("Version:    %s", m.Version)
	printInfo("Author:     %s", m.Author)
	printInfo("State:      %s", state)
	if !meta.LastSyncAt.IsZero() {
		printInfo("Last sync:  %s (%d syncs)", meta.LastSyncAt.Format("2006-01-02 15:04"), meta.SyncCount)
	}
	if meta.SourceRegistry != "" {
		printInfo("Registry:   %s (%s)", meta.SourceRegistry, meta.SourceBoxRef)
	}

	needs, err := store.NeedsSync(dir, viper.GetInt("sync.max_days_without_sync"))
	if err != nil {
		return err
	}
	if needs {
		printInfo("\nSync recommended: run `boxsync sync %s`", dir)
	}
	return nil
}
