package main

import (
	"github.com/spf13/cobra"

	"github.com/jamesainslie/boxsync/pkg/boxsync/manifest"
)

var recoverCmd = &cobra.Command{
	Use:   "recover [path]",
	Short: "Recover a corrupted or missing manifest",
	Long: `Recover restores a valid manifest pair through an ordered fallback
chain: an explicitly supplied backup directory, then the newest sibling
backup directory, then reconstruction of a minimal manifest from the
directory name.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRecover,
}

func init() {
	recoverCmd.Flags().String("backup", "", "backup directory to restore from first")
	rootCmd.AddCommand(recoverCmd)
}

func runRecover(cmd *cobra.Command, args []string) error {
	dir, err := boxDir(args)
	if err != nil {
		return err
	}
	backupDir, _ := cmd.Flags().GetString("backup")

	store := manifest.NewStore(manifest.StoreConfig{})
	result, err := store.Recover(dir, backupDir)

	for _, attempt := range result.Attempts {
		printInfo("  %s: %s", attempt.Method, attempt.Err)
	}
	if err != nil {
		printError("recovery failed after %d attempt(s)", len(result.Attempts))
		return err
	}

	printInfo("Recovered manifest for %s via %s.", dir, result.Method)
	printInfo("Box: %s %s", result.Entry.Manifest.Name, result.Entry.Manifest.Version)
	if result.Method == manifest.RecoveryReconstructed {
		printInfo("The manifest was reconstructed; review it and re-sync to restore full metadata.")
	}
	return nil
}
