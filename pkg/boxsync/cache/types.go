// Package cache stores registry lookups locally so repeated syncs do not
// refetch manifests that have not changed. Entries are keyed by registry,
// box name, and version and expire after a configurable TTL.
package cache

import (
	"bytes"
	"encoding/gob"
	"time"

	"github.com/jamesainslie/boxsync/pkg/boxsync/manifest"
)

// CacheVersion is incremented when the cache format changes.
const CacheVersion = 1

// KeySeparator separates the key parts (registry, box, version).
const KeySeparator = '\x00'

// Entry is one cached registry lookup.
type Entry struct {
	// Manifest is the fetched box manifest.
	Manifest manifest.Manifest

	// Checksum is the manifest checksum reported by the registry.
	Checksum string

	// FetchedAt is when the entry was stored.
	FetchedAt time.Time
}

// Encode serializes the entry using gob.
func (e *Entry) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(e); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode deserializes bytes into the entry using gob.
func (e *Entry) Decode(data []byte) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(e)
}

// MakeKey creates a cache key from registry, box, and version.
// Format: <registry>\x00<box>\x00<version>
func MakeKey(registry, box, version string) []byte {
	sep := string(KeySeparator)
	return []byte(registry + sep + box + sep + version)
}

// MakeKeyPrefix returns the prefix covering every version of a box, or
// every box of a registry when box is empty.
func MakeKeyPrefix(registry, box string) []byte {
	sep := string(KeySeparator)
	if box == "" {
		return []byte(registry + sep)
	}
	return []byte(registry + sep + box + sep)
}
