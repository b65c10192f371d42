package compare

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jamesainslie/boxsync/pkg/boxsync/manifest"
)

func TestSimilarity_Identical(t *testing.T) {
	content := []byte("a\nb\nc\n")
	assert.Equal(t, 1.0, Similarity(content, content))
}

func TestSimilarity_BothEmpty(t *testing.T) {
	assert.Equal(t, 1.0, Similarity(nil, nil))
}

func TestSimilarity_OneEmpty(t *testing.T) {
	assert.Equal(t, 0.0, Similarity([]byte("content\n"), nil))
	assert.Equal(t, 0.0, Similarity(nil, []byte("content\n")))
}

func TestSimilarity_Disjoint(t *testing.T) {
	assert.Equal(t, 0.0, Similarity([]byte("a\nb\n"), []byte("x\ny\n")))
}

func TestSimilarity_PartialOverlap(t *testing.T) {
	// 9 of 10 lines shared: one-line edit stays in the low-severity band.
	oldContent := []byte("1\n2\n3\n4\n5\n6\n7\n8\n9\n10\n")
	newContent := []byte("1\n2\n3\n4\n5\n6\n7\n8\n9\nX\n")

	score := Similarity(oldContent, newContent)
	assert.InDelta(t, 0.9, score, 1e-9)
}

func TestSimilarity_UsesLargerSideAsDenominator(t *testing.T) {
	oldContent := []byte("a\nb\n")
	newContent := []byte("a\nb\nc\nd\n")

	// 2 shared over max(2, 4).
	assert.InDelta(t, 0.5, Similarity(oldContent, newContent), 1e-9)
}

func TestSimilarity_CountsDuplicateLinesAsMultiset(t *testing.T) {
	oldContent := []byte("x\nx\nx\n")
	newContent := []byte("x\ny\ny\n")

	// Only one of the three x lines matches.
	assert.InDelta(t, 1.0/3.0, Similarity(oldContent, newContent), 1e-9)
}

func TestSizeSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, sizeSimilarity(0, 0))
	assert.Equal(t, 0.0, sizeSimilarity(0, 100))
	assert.InDelta(t, 0.5, sizeSimilarity(50, 100), 1e-9)
	assert.InDelta(t, 0.5, sizeSimilarity(100, 50), 1e-9)
}

func TestSeverityForSimilarity_Bands(t *testing.T) {
	assert.Equal(t, manifest.SeverityLow, SeverityForSimilarity(1.0))
	assert.Equal(t, manifest.SeverityLow, SeverityForSimilarity(0.8))
	assert.Equal(t, manifest.SeverityMedium, SeverityForSimilarity(0.79))
	assert.Equal(t, manifest.SeverityMedium, SeverityForSimilarity(0.5))
	assert.Equal(t, manifest.SeverityHigh, SeverityForSimilarity(0.49))
	assert.Equal(t, manifest.SeverityHigh, SeverityForSimilarity(0.0))
}
