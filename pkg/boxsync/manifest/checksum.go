package manifest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Checksum computes the SHA-256 hash of the manifest's canonical JSON form.
// The manifest is round-tripped through a generic map so keys serialize in
// sorted order, making the hash invariant to field order in any serialized
// input while still changing when any field value changes.
func Checksum(m *Manifest) (string, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("marshaling manifest: %w", err)
	}

	// encoding/json sorts map keys, which gives us the canonical form.
	var generic map[string]any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return "", fmt.Errorf("canonicalizing manifest: %w", err)
	}
	canonical, err := json.Marshal(generic)
	if err != nil {
		return "", fmt.Errorf("marshaling canonical manifest: %w", err)
	}

	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
