package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/boxsync/pkg/boxsync/analyze"
	"github.com/jamesainslie/boxsync/pkg/boxsync/compare"
	"github.com/jamesainslie/boxsync/pkg/boxsync/fileops"
	"github.com/jamesainslie/boxsync/pkg/boxsync/manifest"
	"github.com/jamesainslie/boxsync/pkg/boxsync/resolve"
	"github.com/jamesainslie/boxsync/pkg/boxsync/snapshot"
)

var syncCmd = &cobra.Command{
	Use:   "sync [path]",
	Short: "Sync a box directory with its registry version",
	Long: `Sync fetches the box's current registry version, compares it with the
local directory, classifies every change by risk, and applies the resolution
policy. Low-risk changes apply automatically at the configured level; the
rest are held for review or decided interactively with --interactive.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSync,
}

func init() {
	syncCmd.Flags().String("box", "", "box reference (default: the tracked source ref)")
	syncCmd.Flags().String("version", "", "box version to sync to (default: latest)")
	syncCmd.Flags().BoolP("interactive", "i", false, "decide each conflict interactively")
	syncCmd.Flags().BoolP("dry-run", "d", false, "show what would change without applying")
	syncCmd.Flags().String("auto-resolve", "", "auto-resolve level: none, safe, moderate, aggressive")
	syncCmd.Flags().Bool("no-backups", false, "disable backup copies on replacement")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	dir, err := boxDir(args)
	if err != nil {
		return err
	}

	store := manifest.NewStore(manifest.StoreConfig{})
	entry, err := store.Load(dir)
	if manifest.IsCorruption(err) {
		printError("manifest corrupted: %v", err)
		printInfo("Run `boxsync recover %s` before syncing.", dir)
		return err
	}
	if err != nil {
		if hint := manifestHint(err); hint != "" {
			printInfo(hint)
		}
		return err
	}

	boxRef, _ := cmd.Flags().GetString("box")
	if boxRef == "" && entry != nil {
		boxRef = entry.Metadata.SourceBoxRef
	}
	if boxRef == "" {
		return fmt.Errorf("directory is not tracked; pass --box to install a box here")
	}
	version, _ := cmd.Flags().GetString("version")

	client := newRegistryClient()
	remoteManifest, remoteChecksum, err := client.FetchManifest(ctx, boxRef, version)
	if err != nil {
		return fmt.Errorf("fetching manifest for %q: %w", boxRef, err)
	}
	remoteSnap, err := client.FetchSnapshot(ctx, boxRef, remoteManifest.Version)
	if err != nil {
		return fmt.Errorf("fetching snapshot for %q: %w", boxRef, err)
	}

	exclude := viper.GetStringSlice("sync.exclude")
	if entry != nil {
		exclude = append(exclude, entry.Manifest.Exclude...)
	}

	localSnap, err := snapshot.Scan(ctx, dir, snapshot.Options{
		Exclude:        exclude,
		MaxContentSize: viper.GetInt64("sync.max_content_bytes"),
		HiddenStateDir: manifest.DefaultDirName,
	})
	if err != nil {
		return fmt.Errorf("scanning %s: %w", dir, err)
	}
	if entry == nil && len(localSnap.Files) == 0 {
		localSnap = nil // first-time install into an empty directory
	}

	comparator := compare.New(store)
	comparison, err := comparator.Compare(ctx, localSnap, remoteSnap, compare.Options{
		ManifestDir: dir,
		Workers:     viper.GetInt("sync.workers"),
	})
	if err != nil {
		return err
	}

	report := analyze.New().Analyze(comparison)
	printSummary(comparison, report)

	if comparison.Summary.Added == 0 && comparison.Summary.Modified == 0 &&
		comparison.Summary.Deleted == 0 && (comparison.Manifest == nil || len(comparison.Manifest.Conflicts) == 0) {
		printInfo("Already up to date.")
		return nil
	}

	interactive, _ := cmd.Flags().GetBool("interactive")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	noBackups, _ := cmd.Flags().GetBool("no-backups")
	level, _ := cmd.Flags().GetString("auto-resolve")
	if level == "" {
		level = viper.GetString("resolve.auto_resolve_level")
	}
	backupDir := viper.GetString("resolve.backup_dir")
	if backupDir == "" {
		backupDir = filepath.Join(dir, manifest.DefaultDirName, "backups")
	}

	resolver := resolve.New(resolve.Options{
		AutoResolveLevel: resolve.AutoResolveLevel(level),
		CreateBackups:    !noBackups,
		InteractiveMode:  interactive,
		DryRun:           dryRun,
		BackupDir:        backupDir,
	})

	session := resolver.BuildSession(report, comparison)
	if interactive {
		resolver.ResolveInteractively(session, promptForAction)
	}

	staging, err := materializeSnapshot(remoteSnap)
	if err != nil {
		return fmt.Errorf("staging remote content: %w", err)
	}
	defer os.RemoveAll(staging)

	ops := fileops.New(staging, dir, fileops.WithTrash(viper.GetBool("resolve.use_trash")))
	results := resolver.Apply(ctx, session, ops)

	applied, failed := printResults(results)
	if held := session.TotalConflicts - session.ResolvedConflicts; held > 0 {
		printInfo("\n%d conflicts held for review; rerun with --interactive to decide them.", held)
	}
	if dryRun {
		printInfo("\nDry run: no files were changed.")
		return nil
	}
	if applied == 0 {
		printInfo("\nNo changes applied.")
		return nil
	}

	// Record the new sync point. A store failure here does not undo the
	// applied files; the next sync recomputes state from disk.
	_, err = store.Store(dir, remoteManifest, manifest.StoreOptions{
		SourceRegistry: viper.GetString("registry.url"),
		SourceRef:      boxRef,
		RemoteChecksum: remoteChecksum,
		IsUpdate:       entry != nil,
	})
	if err != nil {
		printError("files applied but manifest not recorded: %v", err)
		if hint := manifestHint(err); hint != "" {
			printInfo(hint)
		}
	}

	printInfo("\nSynced %s to %s (%d applied, %d failed).", boxRef, remoteManifest.Version, applied, failed)
	return nil
}

// printSummary renders the comparison and risk verdict.
func printSummary(comparison *compare.DirectoryComparison, report *analyze.Report) {
	s := comparison.Summary
	printInfo("Changes: %d added, %d modified, %d deleted, %d unchanged",
		s.Added, s.Modified, s.Deleted, s.Unchanged)
	printInfo("Overall risk: %s", report.OverallRisk)

	for _, f := range analyze.FilesRequiringReview(report) {
		printInfo("  review: %s", f.Impact.Description)
	}
	if comparison.Manifest != nil {
		for _, c := range comparison.Manifest.Conflicts {
			printInfo("  manifest: %s", c.Description)
		}
	}
}

// printResults renders apply results and returns applied/failed counts.
func printResults(results []resolve.ApplyResult) (applied, failed int) {
	for _, res := range results {
		switch {
		case !res.Success:
			failed++
			printError("%s: %s", res.Path, res.Message)
		case res.Held:
			printInfo("  %s: %s", res.Path, res.Message)
		case res.Action == resolve.ActionUseNew || res.Action == resolve.ActionBackupAndReplace:
			applied++
			printInfo("  %s: %s", res.Path, res.Message)
		default:
			printInfo("  %s: %s", res.Path, res.Message)
		}
	}
	return applied, failed
}

// promptForAction asks the user to decide one plan.
func promptForAction(plan *resolve.Plan) (resolve.Action, error) {
	actions := []resolve.Action{
		resolve.ActionKeepExisting,
		resolve.ActionUseNew,
		resolve.ActionBackupAndReplace,
		resolve.ActionSkip,
	}
	labels := make([]string, len(actions))
	for i, a := range actions {
		labels[i] = string(a)
	}

	prompt := promptui.Select{
		Label: fmt.Sprintf("%s [%s] %s", plan.Path, plan.Priority, plan.Reason),
		Items: labels,
	}
	idx, _, err := prompt.Run()
	if err != nil {
		return "", err
	}
	return actions[idx], nil
}
