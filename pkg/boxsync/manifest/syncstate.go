package manifest

import "time"

// DefaultMaxDaysWithoutSync is how long a box may go unsynced before
// NeedsSync flags it regardless of state.
const DefaultMaxDaysWithoutSync = 7

// DetermineSyncState classifies the relationship between a local entry and
// a remote manifest:
//
//  1. no local entry: unknown
//  2. identical manifest hashes: synced
//  3. last remote checksum known: changed sides decide
//     (both: diverged, local only: local_newer, remote only: remote_newer)
//  4. otherwise versions against last synced version, same logic
//  5. otherwise local modified after last sync: local_newer
//  6. otherwise: unknown
func DetermineSyncState(entry *LocalManifestEntry, remote *Manifest) (SyncState, error) {
	if entry == nil || entry.Manifest == nil {
		return StateUnknown, nil
	}

	localChecksum, err := Checksum(entry.Manifest)
	if err != nil {
		return StateUnknown, &Error{Code: CodeInternal, Msg: "hashing local manifest", Err: err}
	}
	remoteChecksum, err := Checksum(remote)
	if err != nil {
		return StateUnknown, &Error{Code: CodeInternal, Msg: "hashing remote manifest", Err: err}
	}

	if localChecksum == remoteChecksum {
		return StateSynced, nil
	}

	meta := entry.Metadata
	if meta == nil {
		return StateUnknown, nil
	}

	if meta.LastRemoteChecksum != "" {
		localChanged := localChecksum != meta.LastRemoteChecksum
		remoteChanged := remoteChecksum != meta.LastRemoteChecksum
		if state, ok := classifyChanges(localChanged, remoteChanged); ok {
			return state, nil
		}
	} else if meta.LastSyncedVersion != "" {
		localChanged := entry.Manifest.Version != meta.LastSyncedVersion
		remoteChanged := remote.Version != meta.LastSyncedVersion
		if state, ok := classifyChanges(localChanged, remoteChanged); ok {
			return state, nil
		}
	} else if meta.LastModifiedAt.After(meta.LastSyncAt) {
		return StateLocalNewer, nil
	}

	return StateUnknown, nil
}

// classifyChanges maps which sides changed to a sync state. Neither side
// having changed is unclassifiable here (the hashes already differ), so the
// caller falls through.
func classifyChanges(localChanged, remoteChanged bool) (SyncState, bool) {
	switch {
	case localChanged && remoteChanged:
		return StateDiverged, true
	case localChanged:
		return StateLocalNewer, true
	case remoteChanged:
		return StateRemoteNewer, true
	default:
		return StateUnknown, false
	}
}

// SetSyncState persists a recomputed sync state into the metadata
// envelope so NeedsSync sees it on later runs. The manifest and its
// stored checksum are untouched.
func (s *Store) SetSyncState(dir string, state SyncState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	meta, err := s.readMetadata(dir)
	if err != nil {
		return NewIOError(s.MetadataPath(dir), err)
	}
	meta.SyncState = state
	return writeJSON(s.MetadataPath(dir), meta)
}

// NeedsSync reports whether the box at dir should be synchronized: its
// cached state is remote_newer, diverged, or unknown, or it has gone more
// than maxDays without a sync. A directory without a local manifest never
// needs sync (there is nothing to sync from).
func (s *Store) NeedsSync(dir string, maxDays int) (bool, error) {
	if maxDays <= 0 {
		maxDays = DefaultMaxDaysWithoutSync
	}

	entry, err := s.Load(dir)
	if err != nil {
		return false, err
	}
	if entry == nil {
		return false, nil
	}

	switch entry.Metadata.SyncState {
	case StateRemoteNewer, StateDiverged, StateUnknown:
		return true, nil
	}

	if !entry.Metadata.LastSyncAt.IsZero() {
		age := time.Since(entry.Metadata.LastSyncAt)
		if age > time.Duration(maxDays)*24*time.Hour {
			return true, nil
		}
	}

	return false, nil
}
