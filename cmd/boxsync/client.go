package main

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/jamesainslie/boxsync/pkg/boxsync/cache"
	"github.com/jamesainslie/boxsync/pkg/boxsync/logging"
	"github.com/jamesainslie/boxsync/pkg/boxsync/registry"
	"github.com/jamesainslie/boxsync/pkg/boxsync/types"
)

// newRegistryClient builds the registry client from configuration. The
// cache is best-effort: when it cannot be opened the client runs
// uncached.
func newRegistryClient() *registry.HTTPClient {
	var opts []registry.Option

	cachePath := viper.GetString("registry.cache_path")
	if cachePath == "" {
		cachePath = cache.DefaultPath()
	}
	ttl := time.Duration(viper.GetInt("registry.cache_ttl_minutes")) * time.Minute

	if c, err := cache.Open(cachePath, ttl); err == nil {
		opts = append(opts, registry.WithCache(c))
	} else {
		logging.Get("cli").Warn("registry cache unavailable", "path", cachePath, "error", err)
	}

	return registry.NewHTTPClient(viper.GetString("registry.url"), opts...)
}

// materializeSnapshot writes a snapshot's files into a staging directory
// so file operations can copy from real paths. The caller removes the
// directory when done.
func materializeSnapshot(snap *types.DirectorySnapshot) (string, error) {
	staging, err := os.MkdirTemp("", "boxsync-staging-*")
	if err != nil {
		return "", err
	}

	for i := range snap.Files {
		rec := &snap.Files[i]
		if !rec.HasContent() {
			continue
		}
		dst := filepath.Join(staging, filepath.FromSlash(rec.RelPath))
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			os.RemoveAll(staging)
			return "", err
		}
		if err := os.WriteFile(dst, rec.Content, 0o644); err != nil {
			os.RemoveAll(staging)
			return "", err
		}
	}
	return staging, nil
}
