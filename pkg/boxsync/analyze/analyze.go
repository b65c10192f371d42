package analyze

import (
	"fmt"

	"github.com/jamesainslie/boxsync/pkg/boxsync/compare"
	"github.com/jamesainslie/boxsync/pkg/boxsync/diff"
	"github.com/jamesainslie/boxsync/pkg/boxsync/logging"
	"github.com/jamesainslie/boxsync/pkg/boxsync/types"
)

// Thresholds for risk factors and the overall verdict.
const (
	// largeSizeChangeBytes is the absolute size delta beyond which a
	// change is a large-size-change risk.
	largeSizeChangeBytes = 10000

	// majorChangeSimilarity is the similarity below which a modification
	// counts as a major content change.
	majorChangeSimilarity = 0.5

	// breakingSimilarity is the similarity below which a modification is
	// assumed breaking outright.
	breakingSimilarity = 0.3

	// Overall-risk escalation thresholds.
	maxMediumFiles    = 2
	maxModifiedFiles  = 5
	maxAddedFilesCalm = 10
)

// Analyzer classifies changed files by risk. It owns no state; analyses
// are derived purely from the comparison passed in.
type Analyzer struct {
	log *logging.Logger
}

// New creates an Analyzer.
func New() *Analyzer {
	return &Analyzer{log: logging.Get("analyze")}
}

// Analyze builds a FileChangeAnalysis for every non-unchanged file in the
// comparison and computes the overall risk verdict for the change set.
func (a *Analyzer) Analyze(comparison *compare.DirectoryComparison) *Report {
	report := &Report{}

	for i := range comparison.Files {
		fc := &comparison.Files[i]
		if fc.Status == compare.StatusUnchanged {
			continue
		}
		report.Files = append(report.Files, a.analyzeFile(fc))
	}

	report.OverallRisk, report.LowConfidence = overallRisk(report.Files, comparison.Summary)
	report.CanAutoApply = report.OverallRisk == RiskLow && !report.LowConfidence

	a.log.Debug("change set analyzed",
		"files", len(report.Files),
		"risk", report.OverallRisk,
		"auto_apply", report.CanAutoApply)

	return report
}

// analyzeFile classifies a single changed file.
func (a *Analyzer) analyzeFile(fc *compare.FileComparison) FileChangeAnalysis {
	analysis := FileChangeAnalysis{
		Path:       fc.Path,
		ChangeType: fc.Status,
		Size:       sizeAnalysis(fc),
	}

	var diffResult *diff.Result
	if fc.OldFile != nil && fc.NewFile != nil && fc.OldFile.HasContent() && fc.NewFile.HasContent() {
		diffResult = diff.Compute(fc.OldFile.Content, fc.NewFile.Content)
		analysis.Content.LinesAdded = diffResult.LinesAdded
		analysis.Content.LinesDeleted = diffResult.LinesDeleted
	}
	analysis.Content.Similarity = fc.Similarity

	analysis.RiskFactors = riskFactors(fc, diffResult, analysis.Size)
	analysis.Content.HasBreakingChanges = hasBreakingChanges(fc, diffResult)
	analysis.Impact = buildImpact(fc, analysis.RiskFactors)

	return analysis
}

// riskFactors collects every applicable risk factor for a change.
func riskFactors(fc *compare.FileComparison, diffResult *diff.Result, size SizeAnalysis) []RiskFactor {
	var factors []RiskFactor

	if isCriticalFile(fc.Path) {
		factors = append(factors, RiskCriticalSystemFile)
	}
	if isConfigFile(fc.Path) {
		factors = append(factors, RiskConfigurationFile)
	}
	if isExecutable(fileExt(fc)) {
		factors = append(factors, RiskExecutableFile)
	}
	if size.Change > largeSizeChangeBytes || size.Change < -largeSizeChangeBytes {
		factors = append(factors, RiskLargeSizeChange)
	}
	if fc.Status == compare.StatusModified && fc.Similarity < majorChangeSimilarity {
		factors = append(factors, RiskMajorContentChange)
	}
	if fc.Changes != nil && fc.Changes.ExtensionChanged {
		factors = append(factors, RiskExtensionChange)
	}
	if isBinaryChange(fc, diffResult) {
		factors = append(factors, RiskBinaryFile)
	}
	if fc.Status == compare.StatusDeleted {
		factors = append(factors, RiskFileDeletion)
	}

	return factors
}

// buildImpact derives the impact level from the risk factors:
// critical-system-file matches, deletions, and major content changes are
// critical; configuration, large size, and extension changes are high;
// binary and executable changes are medium; the rest is low.
func buildImpact(fc *compare.FileComparison, factors []RiskFactor) Impact {
	has := func(f RiskFactor) bool {
		for _, rf := range factors {
			if rf == f {
				return true
			}
		}
		return false
	}

	impact := Impact{
		Level:         ImpactLow,
		AffectedFiles: []string{fc.Path},
	}

	switch {
	case has(RiskCriticalSystemFile) || has(RiskFileDeletion) || has(RiskMajorContentChange):
		impact.Level = ImpactCritical
	case has(RiskConfigurationFile) || has(RiskLargeSizeChange) || has(RiskExtensionChange):
		impact.Level = ImpactHigh
	case has(RiskBinaryFile) || has(RiskExecutableFile):
		impact.Level = ImpactMedium
	}

	impact.Description = describeChange(fc, impact.Level)
	impact.Recommendations = recommendations(factors)
	return impact
}

// describeChange produces the human-readable change summary.
func describeChange(fc *compare.FileComparison, level ImpactLevel) string {
	switch fc.Status {
	case compare.StatusAdded:
		return fmt.Sprintf("%s added (%s)", fc.Path, types.FormatSize(fileSize(fc.NewFile)))
	case compare.StatusDeleted:
		return fmt.Sprintf("%s deleted (%s)", fc.Path, types.FormatSize(fileSize(fc.OldFile)))
	default:
		return fmt.Sprintf("%s modified, %.0f%% similar (%s impact)",
			fc.Path, fc.Similarity*100, level)
	}
}

// recommendations maps risk factors to follow-up suggestions.
func recommendations(factors []RiskFactor) []string {
	var recs []string
	for _, f := range factors {
		switch f {
		case RiskCriticalSystemFile:
			recs = append(recs, "review dependency and build changes before applying")
		case RiskConfigurationFile:
			recs = append(recs, "verify configuration values against your environment")
		case RiskExecutableFile:
			recs = append(recs, "inspect the script before it is next executed")
		case RiskMajorContentChange:
			recs = append(recs, "review the full diff; most of the file changed")
		case RiskFileDeletion:
			recs = append(recs, "confirm nothing references the deleted file")
		case RiskExtensionChange:
			recs = append(recs, "update references to the renamed file type")
		}
	}
	return recs
}

// hasBreakingChanges applies the breaking-change heuristic: deletions and
// extension changes always break; very low similarity breaks; for source
// files, a deleted line that declared an exported symbol breaks.
func hasBreakingChanges(fc *compare.FileComparison, diffResult *diff.Result) bool {
	if fc.Status == compare.StatusDeleted {
		return true
	}
	if fc.Changes != nil && fc.Changes.ExtensionChanged {
		return true
	}
	if fc.Status == compare.StatusModified && fc.Similarity < breakingSimilarity {
		return true
	}

	if diffResult == nil || diffResult.IsBinary || !isSourceCode(fileExt(fc)) {
		return false
	}
	for _, hunk := range diffResult.Hunks {
		for _, line := range hunk.Lines {
			if line.Kind == diff.LineDeleted && declaresExportedSymbol(line.Text) {
				return true
			}
		}
	}
	return false
}

// overallRisk computes the change set verdict:
// any critical file: critical; any high file or any deletion: high; more
// than two medium files or more than five modifications: medium; more than
// ten additions: medium with low confidence; otherwise low.
func overallRisk(files []FileChangeAnalysis, summary compare.Summary) (RiskLevel, bool) {
	var mediumCount int
	for i := range files {
		switch files[i].Impact.Level {
		case ImpactCritical:
			return RiskCritical, false
		case ImpactMedium:
			mediumCount++
		}
	}
	for i := range files {
		if files[i].Impact.Level == ImpactHigh || files[i].ChangeType == compare.StatusDeleted {
			return RiskHigh, false
		}
	}
	if mediumCount > maxMediumFiles || summary.Modified > maxModifiedFiles {
		return RiskMedium, false
	}
	if summary.Added > maxAddedFilesCalm {
		return RiskMedium, true
	}
	return RiskLow, false
}

// FilesRequiringReview filters the report down to analyses a human should
// look at: high or critical impact, or breaking changes.
func FilesRequiringReview(report *Report) []FileChangeAnalysis {
	var out []FileChangeAnalysis
	for _, f := range report.Files {
		if f.Impact.Level == ImpactCritical || f.Impact.Level == ImpactHigh || f.Content.HasBreakingChanges {
			out = append(out, f)
		}
	}
	return out
}

// SafeFiles filters the report down to analyses safe to apply without
// review: low impact, no breaking changes, not a critical system file.
func SafeFiles(report *Report) []FileChangeAnalysis {
	var out []FileChangeAnalysis
	for _, f := range report.Files {
		if f.Impact.Level != ImpactLow || f.Content.HasBreakingChanges {
			continue
		}
		if isCriticalFile(f.Path) {
			continue
		}
		out = append(out, f)
	}
	return out
}

// sizeAnalysis computes the before/after sizes and delta for a change.
func sizeAnalysis(fc *compare.FileComparison) SizeAnalysis {
	before := fileSize(fc.OldFile)
	after := fileSize(fc.NewFile)
	s := SizeAnalysis{
		Before: before,
		After:  after,
		Change: after - before,
	}
	if before > 0 {
		s.ChangePercent = float64(s.Change) / float64(before) * 100
	} else if after > 0 {
		s.ChangePercent = 100
	}
	return s
}

func fileSize(rec *types.FileRecord) int64 {
	if rec == nil {
		return 0
	}
	return rec.Size
}

func fileExt(fc *compare.FileComparison) string {
	if fc.NewFile != nil {
		return fc.NewFile.Ext
	}
	if fc.OldFile != nil {
		return fc.OldFile.Ext
	}
	return ""
}

// isBinaryChange reports whether either side of the change is binary
// content.
func isBinaryChange(fc *compare.FileComparison, diffResult *diff.Result) bool {
	if diffResult != nil {
		return diffResult.IsBinary
	}
	if fc.OldFile != nil && fc.OldFile.HasContent() && diff.IsBinary(fc.OldFile.Content) {
		return true
	}
	if fc.NewFile != nil && fc.NewFile.HasContent() && diff.IsBinary(fc.NewFile.Content) {
		return true
	}
	return false
}
