package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/boxsync/pkg/boxsync/compare"
	"github.com/jamesainslie/boxsync/pkg/boxsync/diff"
	"github.com/jamesainslie/boxsync/pkg/boxsync/manifest"
	"github.com/jamesainslie/boxsync/pkg/boxsync/snapshot"
)

var diffCmd = &cobra.Command{
	Use:   "diff [path]",
	Short: "Show content differences against the registry version",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDiff,
}

func init() {
	diffCmd.Flags().String("version", "", "box version to diff against (default: latest)")
	diffCmd.Flags().Bool("names-only", false, "list changed paths without content hunks")
	rootCmd.AddCommand(diffCmd)
}

func runDiff(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	dir, err := boxDir(args)
	if err != nil {
		return err
	}

	store := manifest.NewStore(manifest.StoreConfig{})
	entry, err := store.Load(dir)
	if err != nil {
		return err
	}
	if entry == nil {
		return fmt.Errorf("%s is not a tracked box directory", dir)
	}

	version, _ := cmd.Flags().GetString("version")
	client := newRegistryClient()
	remoteManifest, _, err := client.FetchManifest(ctx, entry.Metadata.SourceBoxRef, version)
	if err != nil {
		return err
	}
	remoteSnap, err := client.FetchSnapshot(ctx, entry.Metadata.SourceBoxRef, remoteManifest.Version)
	if err != nil {
		return err
	}

	localSnap, err := snapshot.Scan(ctx, dir, snapshot.Options{
		Exclude:        append(viper.GetStringSlice("sync.exclude"), entry.Manifest.Exclude...),
		MaxContentSize: viper.GetInt64("sync.max_content_bytes"),
		HiddenStateDir: manifest.DefaultDirName,
	})
	if err != nil {
		return err
	}

	comparison, err := compare.New(store).Compare(ctx, localSnap, remoteSnap, compare.Options{
		Workers: viper.GetInt("sync.workers"),
	})
	if err != nil {
		return err
	}

	namesOnly, _ := cmd.Flags().GetBool("names-only")
	for i := range comparison.Files {
		fc := &comparison.Files[i]
		if fc.Status == compare.StatusUnchanged {
			continue
		}
		printInfo("%s %s", statusMarker(fc.Status), fc.Path)

		if namesOnly || fc.Status != compare.StatusModified {
			continue
		}
		if fc.OldFile == nil || fc.NewFile == nil || !fc.OldFile.HasContent() || !fc.NewFile.HasContent() {
			continue
		}

		result := diff.Compute(fc.OldFile.Content, fc.NewFile.Content)
		if result.IsBinary {
			printInfo("  (binary content differs)")
			continue
		}
		printHunks(result)
	}
	return nil
}

func statusMarker(status compare.FileStatus) string {
	switch status {
	case compare.StatusAdded:
		return "A"
	case compare.StatusDeleted:
		return "D"
	case compare.StatusModified:
		return "M"
	default:
		return " "
	}
}

func printHunks(result *diff.Result) {
	for _, hunk := range result.Hunks {
		printInfo("  @@ -%d +%d @@", hunk.OldStart, hunk.NewStart)
		for _, line := range hunk.Lines {
			switch line.Kind {
			case diff.LineAdded:
				printInfo("  +%s", line.Text)
			case diff.LineDeleted:
				printInfo("  -%s", line.Text)
			default:
				printInfo("   %s", line.Text)
			}
		}
	}
}
