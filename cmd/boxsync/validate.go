package main

import (
	"github.com/spf13/cobra"

	"github.com/jamesainslie/boxsync/pkg/boxsync/manifest"
)

var validateCmd = &cobra.Command{
	Use:   "validate [path]",
	Short: "Check manifest integrity for a box directory",
	Long: `Validate checks the manifest pair on disk: both files present and
parseable, the schema valid, and the stored checksum matching the manifest
content. It reports every issue found and whether recovery is possible.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	dir, err := boxDir(args)
	if err != nil {
		return err
	}

	store := manifest.NewStore(manifest.StoreConfig{})
	report, err := store.ValidateIntegrity(dir)
	if err != nil {
		return err
	}

	if report.Valid {
		printInfo("Manifest for %s is valid.", dir)
		return nil
	}

	printInfo("Manifest for %s has %d issue(s):", dir, len(report.Issues))
	for _, issue := range report.Issues {
		printInfo("  [%s] %s", issue.Kind, issue.Detail)
	}
	if report.CanRecover {
		printInfo("\nRecovery may be possible: run `boxsync recover %s`", dir)
	} else {
		printInfo("\nNo manifest data present; recovery would reconstruct from the directory name.")
	}
	return nil
}
