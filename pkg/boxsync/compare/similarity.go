package compare

import "strings"

// Similarity computes a [0,1] content-overlap score between two versions of
// a file: the number of lines they share (as a multiset) over the line
// count of the larger version. Identical content scores 1.0, disjoint
// content scores near 0, and the score rises monotonically with the
// fraction of unchanged lines, so a one-line edit in a file of any real
// size stays at or above 0.8.
func Similarity(oldContent, newContent []byte) float64 {
	if len(oldContent) == 0 && len(newContent) == 0 {
		return 1.0
	}
	if len(oldContent) == 0 || len(newContent) == 0 {
		return 0.0
	}

	oldLines := splitLines(string(oldContent))
	newLines := splitLines(string(newContent))

	counts := make(map[string]int, len(oldLines))
	for _, line := range oldLines {
		counts[line]++
	}

	shared := 0
	for _, line := range newLines {
		if counts[line] > 0 {
			counts[line]--
			shared++
		}
	}

	longer := len(oldLines)
	if len(newLines) > longer {
		longer = len(newLines)
	}
	if longer == 0 {
		return 1.0
	}
	return float64(shared) / float64(longer)
}

// sizeSimilarity approximates similarity from sizes alone, used when file
// content was not loaded (binary or oversized files).
func sizeSimilarity(oldSize, newSize int64) float64 {
	if oldSize == 0 && newSize == 0 {
		return 1.0
	}
	smaller, larger := oldSize, newSize
	if smaller > larger {
		smaller, larger = larger, smaller
	}
	if larger == 0 {
		return 0.0
	}
	return float64(smaller) / float64(larger)
}

func splitLines(text string) []string {
	lines := strings.Split(text, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
