package analyze

import (
	"path"
	"regexp"

	"github.com/gobwas/glob"
)

// criticalFilePatterns match files whose modification can break a project
// outright: dependency manifests, lockfiles, container and environment
// definitions.
var criticalFilePatterns = compileAll([]string{
	"package.json",
	"package-lock.json",
	"yarn.lock",
	"pnpm-lock.yaml",
	"Dockerfile",
	".env*",
	"Cargo.toml",
	"Cargo.lock",
	"go.mod",
	"go.sum",
	"pom.xml",
	"build.gradle",
	"requirements.txt",
	"Gemfile",
	"Gemfile.lock",
	"composer.json",
})

// configFilePatterns match configuration files by name or extension.
var configFilePatterns = compileAll([]string{
	"*.config.*",
	"*.conf",
	"*.ini",
	"*.properties",
	"*.toml",
	"*.yml",
	"*.yaml",
	"*.json",
	"*.xml",
})

// executableExtensions are extensions of directly runnable files.
var executableExtensions = map[string]bool{
	".sh":  true,
	".bat": true,
	".cmd": true,
	".exe": true,
	".bin": true,
	".run": true,
}

// sourceCodeExtensions are extensions the breaking-change heuristic
// inspects for removed exported symbols.
var sourceCodeExtensions = map[string]bool{
	".ts": true, ".tsx": true, ".js": true, ".jsx": true, ".mjs": true,
	".go": true, ".py": true, ".rb": true, ".rs": true, ".java": true,
	".c": true, ".cc": true, ".cpp": true, ".h": true, ".hpp": true,
	".cs": true, ".kt": true, ".swift": true,
}

// removedSymbolPatterns match deleted diff lines that declared an exported
// symbol; their removal is treated as a breaking change.
var removedSymbolPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\s*export\s`),
	regexp.MustCompile(`^\s*(function|class|interface)\s+\w+`),
	regexp.MustCompile(`^func\s+[A-Z]\w*`),
	regexp.MustCompile(`^\s*(public|module\.exports)\b`),
}

func compileAll(patterns []string) []glob.Glob {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		globs = append(globs, glob.MustCompile(p))
	}
	return globs
}

// isCriticalFile reports whether the path names a critical system file.
func isCriticalFile(relPath string) bool {
	return matchesBase(relPath, criticalFilePatterns)
}

// isConfigFile reports whether the path names a configuration file.
func isConfigFile(relPath string) bool {
	return matchesBase(relPath, configFilePatterns)
}

// isExecutable reports whether the path has a runnable extension.
func isExecutable(ext string) bool {
	return executableExtensions[ext]
}

// isSourceCode reports whether the extension belongs to a recognized
// source-code language.
func isSourceCode(ext string) bool {
	return sourceCodeExtensions[ext]
}

func matchesBase(relPath string, globs []glob.Glob) bool {
	base := path.Base(relPath)
	for _, g := range globs {
		if g.Match(base) {
			return true
		}
	}
	return false
}

// declaresExportedSymbol reports whether a deleted line declared an
// exported symbol.
func declaresExportedSymbol(line string) bool {
	for _, re := range removedSymbolPatterns {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}
