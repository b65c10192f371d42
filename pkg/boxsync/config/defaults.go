// Package config provides configuration management for boxsync.
package config

// Default configuration values for boxsync.
const (
	// DefaultRegistryURL is the registry queried when none is configured.
	DefaultRegistryURL = "https://boxes.example.com"

	// DefaultAutoResolveLevel is the auto-resolution aggressiveness.
	DefaultAutoResolveLevel = "safe"

	// DefaultMaxContentBytes is the per-file content loading cap for
	// comparisons.
	DefaultMaxContentBytes int64 = 1 << 20

	// DefaultMaxDaysWithoutSync is the staleness threshold for NeedsSync.
	DefaultMaxDaysWithoutSync = 7

	// DefaultCacheTTLMinutes is how long registry lookups stay cached.
	DefaultCacheTTLMinutes = 15

	// DefaultCompareWorkers is the per-file comparison worker count.
	DefaultCompareWorkers = 8
)

// DefaultExclusions are patterns skipped during directory scans.
var DefaultExclusions = []string{
	"node_modules",
	".git",
	"dist",
	"build",
	"*.log",
}
