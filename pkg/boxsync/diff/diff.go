// Package diff computes line-level diffs between two text blobs. It is a
// leaf: it knows nothing about directories or manifests, and exists to feed
// line counts and human-readable hunks to the change analyzer.
package diff

import (
	"bytes"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// contextWidth is the number of unchanged lines kept around each change
// when grouping lines into hunks.
const contextWidth = 3

// binarySniffLen is how many leading bytes are inspected for a NUL byte
// when deciding whether content is binary.
const binarySniffLen = 8000

// LineKind tags a diff line.
type LineKind string

// Line kinds.
const (
	LineContext LineKind = "context"
	LineAdded   LineKind = "added"
	LineDeleted LineKind = "deleted"
)

// Line is one tagged line within a hunk.
type Line struct {
	Kind LineKind `json:"kind"`
	Text string   `json:"text"`
}

// Hunk is a contiguous run of tagged lines with its position in both
// versions (1-based line numbers).
type Hunk struct {
	OldStart int    `json:"old_start"`
	NewStart int    `json:"new_start"`
	Lines    []Line `json:"lines"`
}

// Result is the outcome of diffing two blobs. For binary inputs IsBinary
// is set and no hunks are produced.
type Result struct {
	IsBinary     bool   `json:"is_binary"`
	Hunks        []Hunk `json:"hunks"`
	LinesAdded   int    `json:"lines_added"`
	LinesDeleted int    `json:"lines_deleted"`
}

// IsBinary reports whether data looks like binary content, using the
// classic NUL-byte heuristic over the leading bytes.
func IsBinary(data []byte) bool {
	n := len(data)
	if n > binarySniffLen {
		n = binarySniffLen
	}
	return bytes.IndexByte(data[:n], 0) >= 0
}

// Compute diffs oldContent against newContent. If either side is binary it
// returns {IsBinary: true} without attempting a line diff. Otherwise the
// hunks are sufficient to reconstruct the new content from the old.
func Compute(oldContent, newContent []byte) *Result {
	if IsBinary(oldContent) || IsBinary(newContent) {
		return &Result{IsBinary: true, Hunks: []Hunk{}}
	}

	lines := tagLines(string(oldContent), string(newContent))

	result := &Result{Hunks: groupHunks(lines)}
	for _, l := range lines {
		switch l.kind {
		case LineAdded:
			result.LinesAdded++
		case LineDeleted:
			result.LinesDeleted++
		}
	}
	return result
}

// taggedLine is a diff line with its position in both versions.
type taggedLine struct {
	kind    LineKind
	text    string
	oldLine int // 1-based, 0 for added lines
	newLine int // 1-based, 0 for deleted lines
}

// tagLines runs a line-mode diff and flattens it into one tagged line per
// source or destination line.
func tagLines(oldText, newText string) []taggedLine {
	dmp := diffmatchpatch.New()
	oldChars, newChars, lineArray := dmp.DiffLinesToChars(oldText, newText)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(oldChars, newChars, false), lineArray)

	var tagged []taggedLine
	oldLine, newLine := 1, 1
	for _, d := range diffs {
		for _, text := range splitLines(d.Text) {
			switch d.Type {
			case diffmatchpatch.DiffEqual:
				tagged = append(tagged, taggedLine{LineContext, text, oldLine, newLine})
				oldLine++
				newLine++
			case diffmatchpatch.DiffDelete:
				tagged = append(tagged, taggedLine{LineDeleted, text, oldLine, 0})
				oldLine++
			case diffmatchpatch.DiffInsert:
				tagged = append(tagged, taggedLine{LineAdded, text, 0, newLine})
				newLine++
			}
		}
	}
	return tagged
}

// splitLines splits diff text into lines, dropping the empty trailer a
// final newline produces.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// groupHunks collapses the flat tagged lines into hunks, keeping
// contextWidth unchanged lines around each change and merging runs whose
// context would overlap.
func groupHunks(lines []taggedLine) []Hunk {
	hunks := []Hunk{}
	if len(lines) == 0 {
		return hunks
	}

	// Indices of changed lines.
	var changes []int
	for i, l := range lines {
		if l.kind != LineContext {
			changes = append(changes, i)
		}
	}
	if len(changes) == 0 {
		return hunks
	}

	start := changes[0] - contextWidth
	if start < 0 {
		start = 0
	}
	end := changes[0] + contextWidth

	flush := func(start, end int) {
		if end >= len(lines) {
			end = len(lines) - 1
		}
		hunk := Hunk{}
		for i := start; i <= end; i++ {
			l := lines[i]
			if len(hunk.Lines) == 0 {
				hunk.OldStart = firstLineNumber(lines, i, true)
				hunk.NewStart = firstLineNumber(lines, i, false)
			}
			hunk.Lines = append(hunk.Lines, Line{Kind: l.kind, Text: l.text})
		}
		hunks = append(hunks, hunk)
	}

	for _, idx := range changes[1:] {
		if idx-contextWidth <= end+1 {
			end = idx + contextWidth
			continue
		}
		flush(start, end)
		start = idx - contextWidth
		end = idx + contextWidth
	}
	flush(start, end)

	return hunks
}

// firstLineNumber returns the old- or new-side line number at index i,
// scanning forward past lines absent on that side.
func firstLineNumber(lines []taggedLine, i int, old bool) int {
	for ; i < len(lines); i++ {
		if old && lines[i].oldLine > 0 {
			return lines[i].oldLine
		}
		if !old && lines[i].newLine > 0 {
			return lines[i].newLine
		}
	}
	return 0
}
