package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// IssueKind identifies a category of integrity problem.
type IssueKind string

// Integrity issue kinds.
const (
	IssueManifestMissing     IssueKind = "manifest_missing"
	IssueMetadataMissing     IssueKind = "metadata_missing"
	IssueManifestUnparseable IssueKind = "manifest_unparseable"
	IssueMetadataUnparseable IssueKind = "metadata_unparseable"
	IssueSchemaInvalid       IssueKind = "schema_invalid"
	IssueChecksumMismatch    IssueKind = "checksum_mismatch"
)

// IntegrityIssue is one structured finding from ValidateIntegrity.
type IntegrityIssue struct {
	// Kind categorizes the issue.
	Kind IssueKind `json:"kind"`

	// Path is the file the issue was found in.
	Path string `json:"path"`

	// Detail describes the issue.
	Detail string `json:"detail"`
}

// IntegrityReport aggregates the findings for one box directory.
type IntegrityReport struct {
	// Valid is true when no issues were found.
	Valid bool `json:"valid"`

	// Issues lists the problems found.
	Issues []IntegrityIssue `json:"issues"`

	// CanRecover is true unless both files are entirely absent.
	CanRecover bool `json:"can_recover"`
}

// ValidateIntegrity inspects the manifest pair for dir and reports missing
// files, parse failures, schema violations, and checksum mismatches without
// attempting any repair.
func (s *Store) ValidateIntegrity(dir string) (*IntegrityReport, error) {
	report := &IntegrityReport{}

	manifestPath := s.ManifestPath(dir)
	metadataPath := s.MetadataPath(dir)

	manifestData, manifestErr := os.ReadFile(manifestPath)
	metadataData, metadataErr := os.ReadFile(metadataPath)

	manifestMissing := os.IsNotExist(manifestErr)
	metadataMissing := os.IsNotExist(metadataErr)
	if manifestErr != nil && !manifestMissing {
		return nil, NewPermissionError(manifestPath, manifestErr)
	}
	if metadataErr != nil && !metadataMissing {
		return nil, NewPermissionError(metadataPath, metadataErr)
	}

	if manifestMissing {
		report.Issues = append(report.Issues, IntegrityIssue{
			Kind: IssueManifestMissing, Path: manifestPath, Detail: "manifest file absent",
		})
	}
	if metadataMissing {
		report.Issues = append(report.Issues, IntegrityIssue{
			Kind: IssueMetadataMissing, Path: metadataPath, Detail: "metadata file absent",
		})
	}
	report.CanRecover = !(manifestMissing && metadataMissing)

	var m *Manifest
	if !manifestMissing {
		var parsed Manifest
		if err := json.Unmarshal(manifestData, &parsed); err != nil {
			report.Issues = append(report.Issues, IntegrityIssue{
				Kind: IssueManifestUnparseable, Path: manifestPath, Detail: err.Error(),
			})
		} else {
			m = &parsed
			if err := s.Validate(m); err != nil {
				report.Issues = append(report.Issues, IntegrityIssue{
					Kind: IssueSchemaInvalid, Path: manifestPath, Detail: err.Error(),
				})
			}
		}
	}

	var meta *Metadata
	if !metadataMissing {
		var parsed Metadata
		if err := json.Unmarshal(metadataData, &parsed); err != nil {
			report.Issues = append(report.Issues, IntegrityIssue{
				Kind: IssueMetadataUnparseable, Path: metadataPath, Detail: err.Error(),
			})
		} else {
			meta = &parsed
		}
	}

	if m != nil && meta != nil {
		checksum, err := Checksum(m)
		if err != nil {
			return nil, &Error{Code: CodeInternal, Path: dir, Msg: "computing checksum", Err: err}
		}
		if checksum != meta.Checksum {
			report.Issues = append(report.Issues, IntegrityIssue{
				Kind: IssueChecksumMismatch,
				Path: manifestPath,
				Detail: fmt.Sprintf("stored checksum %s does not match computed %s",
					meta.Checksum, checksum),
			})
		}
	}

	report.Valid = len(report.Issues) == 0
	return report, nil
}

// Recovery method names recorded in RecoveryResult.
const (
	RecoveryExplicitBackup = "explicit_backup"
	RecoverySiblingBackup  = "sibling_backup"
	RecoveryReconstructed  = "reconstructed"
)

// RecoveryAttempt records one recovery method and why it failed.
type RecoveryAttempt struct {
	Method string `json:"method"`
	Err    string `json:"error"`
}

// RecoveryResult reports the outcome of a recovery chain.
type RecoveryResult struct {
	// Recovered is true when a method succeeded.
	Recovered bool `json:"recovered"`

	// Method is the successful method name.
	Method string `json:"method,omitempty"`

	// Entry is the recovered entry.
	Entry *LocalManifestEntry `json:"entry,omitempty"`

	// Attempts lists the methods tried and their errors.
	Attempts []RecoveryAttempt `json:"attempts"`
}

// genericNamePattern rejects directory basenames too meaningless to
// fabricate a manifest identity from.
var genericNamePattern = regexp.MustCompile(`^(temp|tmp|test|dir|folder)`)

// allDigitsPattern matches purely numeric basenames.
var allDigitsPattern = regexp.MustCompile(`^[0-9]+$`)

// Recover attempts to restore a valid manifest pair for dir through an
// ordered fallback chain: an explicitly supplied backup directory, then the
// most recently modified sibling backup directory, then reconstruction of a
// minimal manifest from the directory basename. Reconstruction refuses
// generic names (too short, purely numeric, or temp/test-like prefixes)
// rather than fabricate a false identity. When every method fails the
// result lists each attempt and its error.
func (s *Store) Recover(dir, backupDir string) (*RecoveryResult, error) {
	result := &RecoveryResult{}

	if backupDir != "" {
		entry, err := s.restoreFrom(dir, backupDir)
		if err == nil {
			result.Recovered = true
			result.Method = RecoveryExplicitBackup
			result.Entry = entry
			s.log.Info("manifest recovered", "dir", dir, "method", result.Method)
			return result, nil
		}
		result.Attempts = append(result.Attempts, RecoveryAttempt{
			Method: RecoveryExplicitBackup, Err: err.Error(),
		})
	}

	if entry, err := s.restoreFromSibling(dir, result); err == nil && entry != nil {
		result.Recovered = true
		result.Method = RecoverySiblingBackup
		result.Entry = entry
		s.log.Info("manifest recovered", "dir", dir, "method", result.Method)
		return result, nil
	}

	entry, err := s.reconstruct(dir)
	if err == nil {
		result.Recovered = true
		result.Method = RecoveryReconstructed
		result.Entry = entry
		s.log.Info("manifest recovered", "dir", dir, "method", result.Method)
		return result, nil
	}
	result.Attempts = append(result.Attempts, RecoveryAttempt{
		Method: RecoveryReconstructed, Err: err.Error(),
	})

	return result, &Error{
		Code: CodeRecovery,
		Path: dir,
		Msg:  fmt.Sprintf("all %d recovery methods failed", len(result.Attempts)),
	}
}

// restoreFrom validates the manifest pair under backupDir and re-stores it
// for dir, preserving the backup's metadata envelope.
func (s *Store) restoreFrom(dir, backupDir string) (*LocalManifestEntry, error) {
	entry, err := s.Load(backupDir)
	if err != nil {
		return nil, fmt.Errorf("backup %s: %w", backupDir, err)
	}
	if entry == nil {
		return nil, fmt.Errorf("backup %s: no manifest pair present", backupDir)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.Dir(dir), 0o755); err != nil {
		return nil, NewPermissionError(s.Dir(dir), err)
	}
	if err := writeJSON(s.ManifestPath(dir), entry.Manifest); err != nil {
		return nil, err
	}
	if err := writeJSON(s.MetadataPath(dir), entry.Metadata); err != nil {
		return nil, err
	}
	return entry, nil
}

// restoreFromSibling searches dir's parent for sibling directories named
// "<base>.backup-*" and restores the most recently modified valid one.
func (s *Store) restoreFromSibling(dir string, result *RecoveryResult) (*LocalManifestEntry, error) {
	parent := filepath.Dir(dir)
	base := filepath.Base(dir)
	prefix := base + ".backup-"

	entries, err := os.ReadDir(parent)
	if err != nil {
		result.Attempts = append(result.Attempts, RecoveryAttempt{
			Method: RecoverySiblingBackup, Err: fmt.Sprintf("reading %s: %v", parent, err),
		})
		return nil, err
	}

	type candidate struct {
		path    string
		modTime int64
	}
	var candidates []candidate
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), prefix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		candidates = append(candidates, candidate{
			path:    filepath.Join(parent, e.Name()),
			modTime: info.ModTime().UnixNano(),
		})
	}

	if len(candidates) == 0 {
		err := fmt.Errorf("no %s* sibling directories under %s", prefix, parent)
		result.Attempts = append(result.Attempts, RecoveryAttempt{
			Method: RecoverySiblingBackup, Err: err.Error(),
		})
		return nil, err
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].modTime > candidates[j].modTime
	})

	for _, c := range candidates {
		entry, err := s.restoreFrom(dir, c.path)
		if err == nil {
			return entry, nil
		}
		result.Attempts = append(result.Attempts, RecoveryAttempt{
			Method: RecoverySiblingBackup, Err: err.Error(),
		})
	}

	return nil, fmt.Errorf("no valid sibling backup for %s", dir)
}

// reconstruct builds a minimal manifest from the directory basename,
// refusing names too generic to be a real box identity.
func (s *Store) reconstruct(dir string) (*LocalManifestEntry, error) {
	base := filepath.Base(filepath.Clean(dir))
	lower := strings.ToLower(base)

	switch {
	case len(base) < 3:
		return nil, fmt.Errorf("directory name %q too short to reconstruct an identity", base)
	case allDigitsPattern.MatchString(base):
		return nil, fmt.Errorf("directory name %q is purely numeric", base)
	case genericNamePattern.MatchString(lower):
		return nil, fmt.Errorf("directory name %q is a generic placeholder", base)
	}

	m := &Manifest{
		Name:        base,
		Description: fmt.Sprintf("Recovered manifest for %s", base),
		Author:      "unknown",
		Version:     "0.0.0",
	}
	return s.Store(dir, m, StoreOptions{})
}
