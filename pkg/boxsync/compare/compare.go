package compare

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/jamesainslie/boxsync/pkg/boxsync/logging"
	"github.com/jamesainslie/boxsync/pkg/boxsync/manifest"
	"github.com/jamesainslie/boxsync/pkg/boxsync/types"
)

// DefaultManifestFileName is where a box snapshot carries its manifest.
const DefaultManifestFileName = "manifest.json"

// Severity bands for modified-file conflicts.
const (
	lowSeverityThreshold    = 0.8
	mediumSeverityThreshold = 0.5
)

// Options configures a directory comparison.
type Options struct {
	// ManifestDir, when set, enables manifest-level conflict detection
	// against the manifest stored at that directory.
	ManifestDir string

	// ManifestFileName is the manifest path within the new snapshot.
	// Empty uses DefaultManifestFileName.
	ManifestFileName string

	// Workers bounds the per-file comparison parallelism.
	// Zero uses GOMAXPROCS.
	Workers int
}

// Comparator compares directory snapshots. It holds no state between calls
// beyond its manifest store handle.
type Comparator struct {
	store *manifest.Store
	log   *logging.Logger
}

// New creates a Comparator using the given manifest store for
// manifest-level conflict detection.
func New(store *manifest.Store) *Comparator {
	return &Comparator{store: store, log: logging.Get("compare")}
}

// Compare classifies every path present in either snapshot. A nil old
// snapshot marks first-time box creation: every file is added and no
// conflicts are produced. Per-file comparisons are independent and run in
// parallel; the summary and conflict list are assembled only after all
// per-file results are in.
func (c *Comparator) Compare(ctx context.Context, oldSnap *types.DirectorySnapshot, newSnap *types.DirectorySnapshot, opts Options) (*DirectoryComparison, error) {
	if newSnap == nil {
		return nil, fmt.Errorf("new snapshot is required")
	}

	result := &DirectoryComparison{}

	if oldSnap == nil {
		for i := range newSnap.Files {
			rec := &newSnap.Files[i]
			result.Files = append(result.Files, FileComparison{
				Path:    rec.RelPath,
				Status:  StatusAdded,
				NewFile: rec,
			})
		}
		result.Summary = Summary{
			Added:    len(newSnap.Files),
			TotalNew: len(newSnap.Files),
		}
	} else {
		paths := unionPaths(oldSnap, newSnap)
		comparisons := make([]FileComparison, len(paths))

		workers := opts.Workers
		if workers <= 0 {
			workers = runtime.GOMAXPROCS(0)
		}

		var wg sync.WaitGroup
		jobs := make(chan int)
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range jobs {
					path := paths[i]
					comparisons[i] = compareFile(path, oldSnap.File(path), newSnap.File(path))
				}
			}()
		}
		for i := range paths {
			if ctx.Err() != nil {
				break
			}
			jobs <- i
		}
		close(jobs)
		wg.Wait()
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// Aggregate only after the join: counts and conflicts depend on
		// every per-file result.
		result.Files = comparisons
		for i := range comparisons {
			fc := &comparisons[i]
			switch fc.Status {
			case StatusAdded:
				result.Summary.Added++
			case StatusDeleted:
				result.Summary.Deleted++
			case StatusModified:
				result.Summary.Modified++
				result.Conflicts = append(result.Conflicts, ConflictInfo{
					Path:       fc.Path,
					Similarity: fc.Similarity,
					Severity:   SeverityForSimilarity(fc.Similarity),
					Description: fmt.Sprintf("%s modified (%.0f%% similar)",
						fc.Path, fc.Similarity*100),
				})
			case StatusUnchanged:
				result.Summary.Unchanged++
			}
		}
		result.Summary.TotalOld = len(oldSnap.Files)
		result.Summary.TotalNew = len(newSnap.Files)
	}

	if opts.ManifestDir != "" {
		ms, err := c.compareManifest(newSnap, opts)
		if err != nil {
			return nil, err
		}
		result.Manifest = ms
	}

	c.log.Debug("directories compared",
		"added", result.Summary.Added,
		"deleted", result.Summary.Deleted,
		"modified", result.Summary.Modified,
		"unchanged", result.Summary.Unchanged)

	return result, nil
}

// compareFile classifies a single path present in either snapshot.
func compareFile(path string, oldRec, newRec *types.FileRecord) FileComparison {
	switch {
	case oldRec == nil:
		return FileComparison{Path: path, Status: StatusAdded, NewFile: newRec}
	case newRec == nil:
		return FileComparison{Path: path, Status: StatusDeleted, OldFile: oldRec}
	}

	changes := FileChanges{
		SizeChange:       newRec.Size - oldRec.Size,
		ExtensionChanged: oldRec.Ext != newRec.Ext,
	}
	if oldRec.HasContent() && newRec.HasContent() {
		changes.ContentChanged = !bytes.Equal(oldRec.Content, newRec.Content)
	} else {
		// Without content, a size delta is the only content signal.
		changes.ContentChanged = changes.SizeChange != 0
	}

	if !changes.ContentChanged && changes.SizeChange == 0 && !changes.ExtensionChanged {
		return FileComparison{Path: path, Status: StatusUnchanged, OldFile: oldRec, NewFile: newRec}
	}

	var similarity float64
	if oldRec.HasContent() && newRec.HasContent() {
		similarity = Similarity(oldRec.Content, newRec.Content)
	} else {
		similarity = sizeSimilarity(oldRec.Size, newRec.Size)
	}

	return FileComparison{
		Path:       path,
		Status:     StatusModified,
		OldFile:    oldRec,
		NewFile:    newRec,
		Similarity: similarity,
		Changes:    &changes,
	}
}

// SeverityForSimilarity maps a similarity score to a conflict severity.
func SeverityForSimilarity(similarity float64) manifest.Severity {
	switch {
	case similarity >= lowSeverityThreshold:
		return manifest.SeverityLow
	case similarity >= mediumSeverityThreshold:
		return manifest.SeverityMedium
	default:
		return manifest.SeverityHigh
	}
}

// compareManifest parses the manifest carried by the new snapshot and
// diffs it against the manifest stored at the configured directory.
func (c *Comparator) compareManifest(newSnap *types.DirectorySnapshot, opts Options) (*ManifestSummary, error) {
	name := opts.ManifestFileName
	if name == "" {
		name = DefaultManifestFileName
	}

	rec := newSnap.File(name)
	if rec == nil || !rec.HasContent() {
		return nil, nil
	}

	summary := &ManifestSummary{Status: ManifestStatusModified}

	var remote manifest.Manifest
	if err := json.Unmarshal(rec.Content, &remote); err != nil {
		summary.Conflicts = append(summary.Conflicts, ManifestConflictInfo{
			Type:        ConflictManifestCorrupted,
			Severity:    manifest.SeverityHigh,
			Description: fmt.Sprintf("incoming manifest unparseable: %v", err),
		})
		summary.RequiresReview = true
		return summary, nil
	}

	var local *manifest.Manifest
	entry, err := c.store.Load(opts.ManifestDir)
	switch {
	case manifest.IsCorruption(err):
		summary.Conflicts = append(summary.Conflicts, ManifestConflictInfo{
			Type:        ConflictManifestCorrupted,
			Severity:    manifest.SeverityHigh,
			Description: fmt.Sprintf("local manifest corrupted: %v", err),
		})
	case err != nil:
		return nil, err
	case entry != nil:
		local = entry.Manifest
	}

	if local == nil {
		summary.Status = ManifestStatusNew
		summary.Conflicts = append(summary.Conflicts, ManifestConflictInfo{
			Type:        ConflictManifestMissing,
			Severity:    manifest.SeverityLow,
			Description: "no local manifest; incoming manifest will be adopted",
		})
	} else {
		cmp := manifest.Compare(local, &remote)
		for _, d := range cmp.Differences {
			conflictType := ConflictManifestMetadata
			if d.Field == "version" {
				conflictType = ConflictManifestVersion
			}
			summary.Conflicts = append(summary.Conflicts, ManifestConflictInfo{
				Type:          conflictType,
				ManifestField: d.Field,
				Severity:      d.Impact,
				Description:   fmt.Sprintf("manifest field %q differs", d.Field),
			})
		}
	}

	for _, conflict := range summary.Conflicts {
		if conflict.Severity == manifest.SeverityHigh || conflict.Severity == manifest.SeverityCritical {
			summary.RequiresReview = true
			break
		}
	}

	return summary, nil
}

// IsSafeUpdate reports whether the change set is safe to apply without
// review: additions alone are always safe, any modification is not.
func IsSafeUpdate(comparison *DirectoryComparison) bool {
	return comparison.Summary.Modified == 0
}

// GetChangeStats condenses the comparison into totals and a risk level.
// Risk escalates to high when any modified file has low similarity or the
// manifest comparison requires review.
func GetChangeStats(comparison *DirectoryComparison) ChangeStats {
	stats := ChangeStats{
		TotalChanges: comparison.Summary.Added + comparison.Summary.Modified + comparison.Summary.Deleted,
		RiskLevel:    "low",
	}

	if comparison.Summary.Modified > 0 {
		stats.RiskLevel = "medium"
	}

	for _, conflict := range comparison.Conflicts {
		if conflict.Similarity < mediumSeverityThreshold {
			stats.RiskLevel = "high"
			break
		}
	}
	if comparison.Manifest != nil && comparison.Manifest.RequiresReview {
		stats.RiskLevel = "high"
	}

	stats.RequiresReview = stats.RiskLevel == "high"
	return stats
}

// unionPaths returns the sorted union of both snapshots' paths.
func unionPaths(oldSnap, newSnap *types.DirectorySnapshot) []string {
	seen := make(map[string]bool, len(oldSnap.Files)+len(newSnap.Files))
	var paths []string
	for i := range oldSnap.Files {
		p := oldSnap.Files[i].RelPath
		if !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
	}
	for i := range newSnap.Files {
		p := newSnap.Files[i].RelPath
		if !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	return paths
}
