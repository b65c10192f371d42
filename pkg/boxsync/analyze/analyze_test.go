package analyze

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/boxsync/pkg/boxsync/compare"
	"github.com/jamesainslie/boxsync/pkg/boxsync/types"
)

func modified(path, oldContent, newContent string) compare.FileComparison {
	oldRec := types.FileRecord{
		RelPath: path, Size: int64(len(oldContent)), Ext: types.Ext(path), Content: []byte(oldContent),
	}
	newRec := types.FileRecord{
		RelPath: path, Size: int64(len(newContent)), Ext: types.Ext(path), Content: []byte(newContent),
	}
	return compare.FileComparison{
		Path:       path,
		Status:     compare.StatusModified,
		OldFile:    &oldRec,
		NewFile:    &newRec,
		Similarity: compare.Similarity([]byte(oldContent), []byte(newContent)),
		Changes: &compare.FileChanges{
			SizeChange:     int64(len(newContent)) - int64(len(oldContent)),
			ContentChanged: oldContent != newContent,
		},
	}
}

func added(path, content string) compare.FileComparison {
	rec := types.FileRecord{
		RelPath: path, Size: int64(len(content)), Ext: types.Ext(path), Content: []byte(content),
	}
	return compare.FileComparison{Path: path, Status: compare.StatusAdded, NewFile: &rec}
}

func deleted(path, content string) compare.FileComparison {
	rec := types.FileRecord{
		RelPath: path, Size: int64(len(content)), Ext: types.Ext(path), Content: []byte(content),
	}
	return compare.FileComparison{Path: path, Status: compare.StatusDeleted, OldFile: &rec}
}

func analyzeFiles(files ...compare.FileComparison) *Report {
	comparison := &compare.DirectoryComparison{Files: files}
	for _, f := range files {
		switch f.Status {
		case compare.StatusAdded:
			comparison.Summary.Added++
		case compare.StatusDeleted:
			comparison.Summary.Deleted++
		case compare.StatusModified:
			comparison.Summary.Modified++
		case compare.StatusUnchanged:
			comparison.Summary.Unchanged++
		}
	}
	return New().Analyze(comparison)
}

func TestAnalyze_SkipsUnchangedFiles(t *testing.T) {
	rec := types.FileRecord{RelPath: "same.txt", Size: 4}
	report := analyzeFiles(compare.FileComparison{
		Path: "same.txt", Status: compare.StatusUnchanged, OldFile: &rec, NewFile: &rec,
	})
	assert.Empty(t, report.Files)
	assert.Equal(t, RiskLow, report.OverallRisk)
	assert.True(t, report.CanAutoApply)
}

func TestAnalyze_CriticalSystemFile(t *testing.T) {
	report := analyzeFiles(modified("package.json", "{\"a\":1}\n", "{\"a\":2}\n"))

	require.Len(t, report.Files, 1)
	f := report.Files[0]
	assert.Contains(t, f.RiskFactors, RiskCriticalSystemFile)
	assert.Equal(t, ImpactCritical, f.Impact.Level)
	assert.Equal(t, RiskCritical, report.OverallRisk)
	assert.False(t, report.CanAutoApply)
}

func TestAnalyze_DeletionIsCritical(t *testing.T) {
	report := analyzeFiles(deleted("src/util.ts", "export const x = 1\n"))

	require.Len(t, report.Files, 1)
	f := report.Files[0]
	assert.Contains(t, f.RiskFactors, RiskFileDeletion)
	assert.Equal(t, ImpactCritical, f.Impact.Level)
	assert.True(t, f.Content.HasBreakingChanges)
}

func TestAnalyze_ConfigFileIsHigh(t *testing.T) {
	report := analyzeFiles(modified("settings.ini", "k=1\nx=2\ny=3\nz=4\nw=5\n", "k=2\nx=2\ny=3\nz=4\nw=5\n"))

	require.Len(t, report.Files, 1)
	f := report.Files[0]
	assert.Contains(t, f.RiskFactors, RiskConfigurationFile)
	assert.Equal(t, ImpactHigh, f.Impact.Level)
	assert.Equal(t, RiskHigh, report.OverallRisk)
}

func TestAnalyze_ExecutableIsMedium(t *testing.T) {
	report := analyzeFiles(modified("deploy.sh", strings.Repeat("step\n", 10), strings.Repeat("step\n", 9)+"new\n"))

	require.Len(t, report.Files, 1)
	f := report.Files[0]
	assert.Contains(t, f.RiskFactors, RiskExecutableFile)
	assert.Equal(t, ImpactMedium, f.Impact.Level)
}

func TestAnalyze_LargeSizeChange(t *testing.T) {
	small := "x\n"
	big := strings.Repeat("padding line for a large change\n", 400)
	report := analyzeFiles(modified("notes.txt", small, big))

	require.Len(t, report.Files, 1)
	assert.Contains(t, report.Files[0].RiskFactors, RiskLargeSizeChange)
}

func TestAnalyze_MajorContentChange(t *testing.T) {
	oldContent := "a\nb\nc\nd\ne\nf\ng\nh\ni\nj\n"
	newContent := "1\n2\n3\n4\n5\n6\n7\n8\n9\n10\n"
	report := analyzeFiles(modified("readme.md", oldContent, newContent))

	require.Len(t, report.Files, 1)
	f := report.Files[0]
	assert.Contains(t, f.RiskFactors, RiskMajorContentChange)
	assert.Equal(t, ImpactCritical, f.Impact.Level)
	assert.True(t, f.Content.HasBreakingChanges)
}

func TestAnalyze_RemovedExportedSymbolBreaks(t *testing.T) {
	oldContent := "export function run() {}\nconst a = 1\nconst b = 2\nconst c = 3\nconst d = 4\nconst e = 5\n"
	newContent := "const a = 1\nconst b = 2\nconst c = 3\nconst d = 4\nconst e = 5\nconst f = 6\n"
	report := analyzeFiles(modified("src/api.ts", oldContent, newContent))

	require.Len(t, report.Files, 1)
	assert.True(t, report.Files[0].Content.HasBreakingChanges)
}

func TestAnalyze_LineCountsFromDiff(t *testing.T) {
	report := analyzeFiles(modified("doc.txt", "a\nb\nc\nd\ne\n", "a\nB\nc\nd\ne\nf\n"))

	require.Len(t, report.Files, 1)
	f := report.Files[0]
	assert.Equal(t, 2, f.Content.LinesAdded)
	assert.Equal(t, 1, f.Content.LinesDeleted)
}

func TestAnalyze_OverallRiskLadder(t *testing.T) {
	t.Run("many modifications escalate to medium", func(t *testing.T) {
		files := make([]compare.FileComparison, 0, 6)
		for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
			files = append(files, modified(name+".txt",
				"1\n2\n3\n4\n5\n6\n7\n8\n9\n10\n",
				"1\n2\n3\n4\n5\n6\n7\n8\n9\nX\n"))
		}
		report := analyzeFiles(files...)
		assert.Equal(t, RiskMedium, report.OverallRisk)
		assert.False(t, report.LowConfidence)
	})

	t.Run("mass additions are medium with low confidence", func(t *testing.T) {
		files := make([]compare.FileComparison, 0, 11)
		for i := 0; i < 11; i++ {
			files = append(files, added(string(rune('a'+i))+".txt", "content\n"))
		}
		report := analyzeFiles(files...)
		assert.Equal(t, RiskMedium, report.OverallRisk)
		assert.True(t, report.LowConfidence)
		assert.False(t, report.CanAutoApply)
	})

	t.Run("few low-impact changes are low", func(t *testing.T) {
		report := analyzeFiles(
			added("a.txt", "new\n"),
			modified("b.txt", "1\n2\n3\n4\n5\n6\n7\n8\n9\n10\n", "1\n2\n3\n4\n5\n6\n7\n8\n9\nX\n"),
		)
		assert.Equal(t, RiskLow, report.OverallRisk)
		assert.True(t, report.CanAutoApply)
	})
}

func TestFilesRequiringReview(t *testing.T) {
	report := analyzeFiles(
		modified("package.json", "{\"a\":1}\n", "{\"a\":2}\n"),
		added("safe.txt", "hello\n"),
	)

	review := FilesRequiringReview(report)
	require.Len(t, review, 1)
	assert.Equal(t, "package.json", review[0].Path)
}

func TestSafeFiles(t *testing.T) {
	report := analyzeFiles(
		added("safe.txt", "hello\n"),
		added("go.mod", "module x\n"),
		deleted("gone.txt", "bye\n"),
	)

	safe := SafeFiles(report)
	require.Len(t, safe, 1)
	assert.Equal(t, "safe.txt", safe[0].Path)
}

func TestPatterns(t *testing.T) {
	assert.True(t, isCriticalFile("frontend/package.json"))
	assert.True(t, isCriticalFile(".env.local"))
	assert.True(t, isCriticalFile("go.sum"))
	assert.False(t, isCriticalFile("src/index.ts"))

	assert.True(t, isConfigFile("app.yaml"))
	assert.True(t, isConfigFile("vite.config.ts"))
	assert.False(t, isConfigFile("main.go"))

	assert.True(t, isExecutable(".sh"))
	assert.False(t, isExecutable(".txt"))

	assert.True(t, declaresExportedSymbol("export const api = {}"))
	assert.True(t, declaresExportedSymbol("func PublicThing() {}"))
	assert.False(t, declaresExportedSymbol("  private helper"))
}
