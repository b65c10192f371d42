package snapshot

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

// Matcher holds a list of exclude patterns compiled once, so matching stays
// cheap on large trees.
type Matcher struct {
	globs    []glob.Glob
	patterns []string
}

// CompileExcludes compiles the glob patterns into a Matcher. Patterns match
// against slash-separated paths relative to the snapshot root; a bare name
// like "node_modules" matches that name at any depth.
func CompileExcludes(patterns []string) (*Matcher, error) {
	m := &Matcher{patterns: patterns}
	for _, p := range patterns {
		expanded := p
		if !strings.ContainsAny(p, "/*?[{") {
			// Bare names exclude the entry anywhere in the tree.
			expanded = "{" + p + ",**/" + p + "," + p + "/**,**/" + p + "/**}"
		}
		g, err := glob.Compile(expanded, '/')
		if err != nil {
			return nil, fmt.Errorf("compiling exclude pattern %q: %w", p, err)
		}
		m.globs = append(m.globs, g)
	}
	return m, nil
}

// Match reports whether the relative path matches any exclude pattern.
func (m *Matcher) Match(relPath string) bool {
	if m == nil {
		return false
	}
	for _, g := range m.globs {
		if g.Match(relPath) {
			return true
		}
	}
	return false
}

// Patterns returns the original pattern list.
func (m *Matcher) Patterns() []string {
	if m == nil {
		return nil
	}
	return m.patterns
}
