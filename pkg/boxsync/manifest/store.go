package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jamesainslie/boxsync/pkg/boxsync/logging"
)

// Default file layout for the manifest pair. Both files live under a hidden
// subdirectory of the box directory so they stay colocated and out of the
// user's way.
const (
	DefaultDirName      = ".boxsync"
	DefaultManifestFile = "manifest.json"
	DefaultMetadataFile = "metadata.json"
)

// StoreConfig carries the file-layout constants for a Store. Zero values
// fall back to the defaults above; the struct exists so callers can relocate
// the manifest pair (tests, alternate layouts) without package-level state.
type StoreConfig struct {
	// DirName is the hidden subdirectory holding the manifest pair.
	DirName string

	// ManifestFile is the manifest file name within DirName.
	ManifestFile string

	// MetadataFile is the metadata file name within DirName.
	MetadataFile string
}

func (c StoreConfig) withDefaults() StoreConfig {
	if c.DirName == "" {
		c.DirName = DefaultDirName
	}
	if c.ManifestFile == "" {
		c.ManifestFile = DefaultManifestFile
	}
	if c.MetadataFile == "" {
		c.MetadataFile = DefaultMetadataFile
	}
	return c
}

// StoreOptions carries the per-call context for Store.
type StoreOptions struct {
	// SourceRegistry records where the box was fetched from.
	SourceRegistry string

	// SourceRef records the box reference within the registry.
	SourceRef string

	// RemoteChecksum records the remote manifest hash at sync time,
	// when known.
	RemoteChecksum string

	// IsUpdate marks this store as a re-sync of an existing entry,
	// preserving its creation timestamp and sync counter.
	IsUpdate bool
}

// Store owns the manifest+metadata file pair for box directories. It is the
// only writer of those files; a mutex serializes the read-modify-write of
// the metadata envelope within this process.
type Store struct {
	cfg      StoreConfig
	validate *validator.Validate
	log      *logging.Logger
	mu       sync.Mutex
}

// NewStore creates a Store with the given file-layout configuration.
func NewStore(cfg StoreConfig) *Store {
	return &Store{
		cfg:      cfg.withDefaults(),
		validate: validator.New(),
		log:      logging.Get("manifest"),
	}
}

// Dir returns the hidden subdirectory holding the manifest pair for dir.
func (s *Store) Dir(dir string) string {
	return filepath.Join(dir, s.cfg.DirName)
}

// ManifestPath returns the manifest file path for dir.
func (s *Store) ManifestPath(dir string) string {
	return filepath.Join(s.Dir(dir), s.cfg.ManifestFile)
}

// MetadataPath returns the metadata file path for dir.
func (s *Store) MetadataPath(dir string) string {
	return filepath.Join(s.Dir(dir), s.cfg.MetadataFile)
}

// Validate checks the manifest schema: the four identity fields must be
// non-empty, list fields must not contain empty elements.
func (s *Store) Validate(m *Manifest) error {
	if m == nil {
		return NewValidationError("", "manifest is nil")
	}
	if err := s.validate.Struct(m); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			field := verrs[0].Field()
			return NewValidationError(field, fmt.Sprintf("%s is required", field))
		}
		return NewValidationError("", err.Error())
	}
	for field, list := range map[string][]string{
		"tags":         m.Tags,
		"exclude":      m.Exclude,
		"post_install": m.PostInstall,
	} {
		for _, item := range list {
			if item == "" {
				return NewValidationError(field, "list entries must be non-empty")
			}
		}
	}
	return nil
}

// Store validates the manifest, then writes the manifest and its metadata
// envelope as two co-located files for dir, overwriting any prior pair.
// On update the prior creation timestamp is preserved and the sync counter
// incremented; otherwise the counter starts at 1.
func (s *Store) Store(dir string, m *Manifest, opts StoreOptions) (*LocalManifestEntry, error) {
	if err := s.Validate(m); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.Dir(dir), 0o755); err != nil {
		return nil, NewPermissionError(s.Dir(dir), err)
	}

	checksum, err := Checksum(m)
	if err != nil {
		return nil, &Error{Code: CodeInternal, Path: dir, Msg: "computing checksum", Err: err}
	}

	var prior *Metadata
	if opts.IsUpdate {
		if existing, err := s.readMetadata(dir); err == nil {
			prior = existing
		}
	}

	now := time.Now().UTC()
	meta := &Metadata{
		Checksum:           checksum,
		CreatedAt:          now,
		LastModifiedAt:     now,
		LastSyncAt:         now,
		LastSyncedVersion:  m.Version,
		LastRemoteChecksum: opts.RemoteChecksum,
		SourceRegistry:     opts.SourceRegistry,
		SourceBoxRef:       opts.SourceRef,
		SyncState:          StateSynced,
		SyncCount:          1,
		MetadataVersion:    MetadataVersion,
	}
	if prior != nil {
		meta.CreatedAt = prior.CreatedAt
		meta.SyncCount = prior.SyncCount + 1
		meta.Unknown = prior.Unknown
		if meta.SourceRegistry == "" {
			meta.SourceRegistry = prior.SourceRegistry
		}
		if meta.SourceBoxRef == "" {
			meta.SourceBoxRef = prior.SourceBoxRef
		}
	}

	// Each file lands atomically, but the pair does not: a crash between
	// the two renames leaves the new manifest beside stale metadata. Load
	// refuses that torn pair as a checksum mismatch and Recover restores
	// a consistent one, so the window is detected, never silent.
	if err := writeJSON(s.ManifestPath(dir), m); err != nil {
		return nil, err
	}
	if err := writeJSON(s.MetadataPath(dir), meta); err != nil {
		return nil, err
	}

	s.log.Debug("manifest stored", "dir", dir, "box", m.Name, "sync_count", meta.SyncCount)

	return &LocalManifestEntry{Manifest: m, Metadata: meta}, nil
}

// Load reads the manifest pair for dir. It returns (nil, nil) when either
// file is absent, and a CorruptionError when a file is unparseable or the
// stored checksum does not match the recomputed manifest hash. It never
// returns a partially valid entry.
func (s *Store) Load(dir string) (*LocalManifestEntry, error) {
	manifestPath := s.ManifestPath(dir)
	metadataPath := s.MetadataPath(dir)

	manifestData, err := os.ReadFile(manifestPath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, NewPermissionError(manifestPath, err)
	}

	metadataData, err := os.ReadFile(metadataPath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, NewPermissionError(metadataPath, err)
	}

	var m Manifest
	if err := json.Unmarshal(manifestData, &m); err != nil {
		return nil, NewCorruptionError(manifestPath, fmt.Sprintf("unparseable manifest: %v", err))
	}

	var meta Metadata
	if err := json.Unmarshal(metadataData, &meta); err != nil {
		return nil, NewCorruptionError(metadataPath, fmt.Sprintf("unparseable metadata: %v", err))
	}

	checksum, err := Checksum(&m)
	if err != nil {
		return nil, &Error{Code: CodeInternal, Path: dir, Msg: "computing checksum", Err: err}
	}
	if checksum != meta.Checksum {
		return nil, NewCorruptionError(manifestPath,
			fmt.Sprintf("checksum mismatch: stored %s, computed %s", meta.Checksum, checksum))
	}

	return &LocalManifestEntry{Manifest: &m, Metadata: &meta}, nil
}

// readMetadata reads just the metadata envelope, used to carry counters
// across updates. Errors are not corruption here; a fresh envelope is built
// when the prior one cannot be read.
func (s *Store) readMetadata(dir string) (*Metadata, error) {
	data, err := os.ReadFile(s.MetadataPath(dir))
	if err != nil {
		return nil, err
	}
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// writeJSON writes v as indented JSON atomically using a temp file and
// rename, so a crashed write never leaves a partially written file.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return &Error{Code: CodeInternal, Path: path, Msg: "marshaling", Err: err}
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return NewPermissionError(path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return NewPermissionError(path, err)
	}
	return nil
}
