// Package manifest persists and reconciles box manifests. A manifest is the
// declared identity of a box; the store keeps it on disk next to a local-only
// metadata envelope recording what was last synchronized, guarded by a
// content checksum so corruption is detected rather than silently repaired.
package manifest

import (
	"encoding/json"
	"time"
)

// MetadataVersion is the current metadata envelope format version.
const MetadataVersion = 1

// Manifest is the declared identity of a box. It is an immutable value
// object: updates replace it wholesale, never patch it in place.
type Manifest struct {
	// Name identifies the box.
	Name string `json:"name" validate:"required"`

	// Description is a human-readable summary of the box.
	Description string `json:"description" validate:"required"`

	// Author is the box author or maintainer.
	Author string `json:"author" validate:"required"`

	// Version is the declared box version.
	Version string `json:"version" validate:"required"`

	// DefaultTarget is the default directory the box is copied into.
	DefaultTarget string `json:"default_target,omitempty"`

	// RemotePath is the box's path within its registry.
	RemotePath string `json:"remote_path,omitempty"`

	// Tags are free-form labels.
	Tags []string `json:"tags,omitempty"`

	// Exclude lists glob patterns for files never copied or compared.
	Exclude []string `json:"exclude,omitempty"`

	// PostInstall lists commands suggested after the box is copied.
	PostInstall []string `json:"post_install,omitempty"`
}

// SyncState classifies the relationship between a local and a remote
// manifest version.
type SyncState string

// Sync states, derived rather than authoritative: the stored value is only
// a cache and is always recomputable given a remote manifest.
const (
	StateSynced      SyncState = "synced"
	StateLocalNewer  SyncState = "local_newer"
	StateRemoteNewer SyncState = "remote_newer"
	StateDiverged    SyncState = "diverged"
	StateUnknown     SyncState = "unknown"
)

// Metadata is the local-only synchronization envelope stored alongside a
// manifest. Checksum must always equal the recomputed hash of the co-located
// manifest; any mismatch is corruption.
//
// Unknown fields from future metadata versions round-trip losslessly through
// the Unknown map instead of being dropped.
type Metadata struct {
	// Checksum is the content hash of the co-located manifest.
	Checksum string `json:"checksum"`

	// CreatedAt is when the manifest was first stored for this directory.
	CreatedAt time.Time `json:"created_at"`

	// LastModifiedAt is when the manifest was last written.
	LastModifiedAt time.Time `json:"last_modified_at"`

	// LastSyncAt is when the box was last synchronized.
	LastSyncAt time.Time `json:"last_sync_at"`

	// LastSyncedVersion is the manifest version at last sync.
	LastSyncedVersion string `json:"last_synced_version"`

	// LastRemoteChecksum is the last known remote manifest hash at sync
	// time, empty when never recorded.
	LastRemoteChecksum string `json:"last_remote_checksum,omitempty"`

	// SourceRegistry is the registry the box was fetched from.
	SourceRegistry string `json:"source_registry,omitempty"`

	// SourceBoxRef is the box reference within the source registry.
	SourceBoxRef string `json:"source_box_ref,omitempty"`

	// SyncState is the cached reconciliation state.
	SyncState SyncState `json:"sync_state"`

	// SyncCount increments on every successful store.
	SyncCount int64 `json:"sync_count"`

	// MetadataVersion is the envelope format version.
	MetadataVersion int `json:"metadata_version"`

	// Unknown preserves fields written by newer metadata versions.
	Unknown map[string]json.RawMessage `json:"-"`
}

// metadataKnownKeys lists the JSON keys owned by the current envelope
// version. Anything else round-trips through Unknown.
var metadataKnownKeys = map[string]bool{
	"checksum":             true,
	"created_at":           true,
	"last_modified_at":     true,
	"last_sync_at":         true,
	"last_synced_version":  true,
	"last_remote_checksum": true,
	"source_registry":      true,
	"source_box_ref":       true,
	"sync_state":           true,
	"sync_count":           true,
	"metadata_version":     true,
}

// metadataAlias avoids recursing into the custom (un)marshalers.
type metadataAlias Metadata

// UnmarshalJSON decodes the known envelope fields and preserves any
// unrecognized keys in Unknown.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	var alias metadataAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for key := range raw {
		if metadataKnownKeys[key] {
			delete(raw, key)
		}
	}
	if len(raw) > 0 {
		alias.Unknown = raw
	}

	*m = Metadata(alias)
	return nil
}

// MarshalJSON encodes the known envelope fields merged with any preserved
// unknown keys.
func (m Metadata) MarshalJSON() ([]byte, error) {
	known, err := json.Marshal(metadataAlias(m))
	if err != nil {
		return nil, err
	}
	if len(m.Unknown) == 0 {
		return known, nil
	}

	var merged map[string]json.RawMessage
	if err := json.Unmarshal(known, &merged); err != nil {
		return nil, err
	}
	for key, value := range m.Unknown {
		if !metadataKnownKeys[key] {
			merged[key] = value
		}
	}
	return json.Marshal(merged)
}

// LocalManifestEntry pairs a manifest with its metadata envelope, the unit
// read and written together.
type LocalManifestEntry struct {
	Manifest *Manifest `json:"manifest"`
	Metadata *Metadata `json:"metadata"`
}
