package diff

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsBinary(t *testing.T) {
	assert.False(t, IsBinary([]byte("plain text\nwith lines\n")))
	assert.True(t, IsBinary([]byte{0x89, 'P', 'N', 'G', 0x00, 0x1a}))
	assert.False(t, IsBinary([]byte{}))
}

func TestCompute_Identical(t *testing.T) {
	content := []byte("line one\nline two\n")

	result := Compute(content, content)
	assert.False(t, result.IsBinary)
	assert.Empty(t, result.Hunks)
	assert.Zero(t, result.LinesAdded)
	assert.Zero(t, result.LinesDeleted)
}

func TestCompute_Binary(t *testing.T) {
	result := Compute([]byte{0x00, 0x01}, []byte("text"))
	assert.True(t, result.IsBinary)
	assert.Empty(t, result.Hunks)
}

func TestCompute_LineCounts(t *testing.T) {
	oldContent := []byte("a\nb\nc\n")
	newContent := []byte("a\nB\nc\nd\n")

	result := Compute(oldContent, newContent)
	assert.Equal(t, 2, result.LinesAdded)   // B and d
	assert.Equal(t, 1, result.LinesDeleted) // b
}

func TestCompute_HunkPositions(t *testing.T) {
	var oldLines, newLines []string
	for i := 0; i < 20; i++ {
		line := string(rune('a' + i))
		oldLines = append(oldLines, line)
		newLines = append(newLines, line)
	}
	newLines[10] = "CHANGED"

	oldContent := []byte(strings.Join(oldLines, "\n") + "\n")
	newContent := []byte(strings.Join(newLines, "\n") + "\n")

	result := Compute(oldContent, newContent)
	require.Len(t, result.Hunks, 1)

	hunk := result.Hunks[0]
	// Three context lines before the change at line 11.
	assert.Equal(t, 8, hunk.OldStart)
	assert.Equal(t, 8, hunk.NewStart)

	var kinds []LineKind
	for _, l := range hunk.Lines {
		kinds = append(kinds, l.Kind)
	}
	assert.Contains(t, kinds, LineAdded)
	assert.Contains(t, kinds, LineDeleted)
}

func TestCompute_DistantChangesSplitIntoHunks(t *testing.T) {
	var oldLines []string
	for i := 0; i < 40; i++ {
		oldLines = append(oldLines, string(rune('a'+i%26)))
	}
	newLines := append([]string(nil), oldLines...)
	newLines[2] = "FIRST"
	newLines[35] = "SECOND"

	oldContent := []byte(strings.Join(oldLines, "\n") + "\n")
	newContent := []byte(strings.Join(newLines, "\n") + "\n")

	result := Compute(oldContent, newContent)
	assert.Len(t, result.Hunks, 2)
}

func TestCompute_AdjacentChangesMergeIntoOneHunk(t *testing.T) {
	oldContent := []byte("a\nb\nc\nd\ne\nf\ng\nh\n")
	newContent := []byte("a\nB\nc\nD\ne\nf\ng\nh\n")

	result := Compute(oldContent, newContent)
	assert.Len(t, result.Hunks, 1)
}

func TestCompute_EmptyToContent(t *testing.T) {
	result := Compute([]byte{}, []byte("new line\n"))
	assert.Equal(t, 1, result.LinesAdded)
	assert.Zero(t, result.LinesDeleted)
	require.Len(t, result.Hunks, 1)
}
