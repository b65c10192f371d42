package manifest

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecksum_Deterministic(t *testing.T) {
	m := testManifest()

	first, err := Checksum(m)
	require.NoError(t, err)
	second, err := Checksum(m)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first, 64) // sha256 hex
}

func TestChecksum_KeyOrderInvariant(t *testing.T) {
	// The same manifest serialized with different key orders must hash
	// identically.
	a := []byte(`{"name":"box","description":"d","author":"a","version":"1.0.0"}`)
	b := []byte(`{"version":"1.0.0","author":"a","name":"box","description":"d"}`)

	var ma, mb Manifest
	require.NoError(t, json.Unmarshal(a, &ma))
	require.NoError(t, json.Unmarshal(b, &mb))

	ha, err := Checksum(&ma)
	require.NoError(t, err)
	hb, err := Checksum(&mb)
	require.NoError(t, err)

	assert.Equal(t, ha, hb)
}

func TestChecksum_SensitiveToContent(t *testing.T) {
	m := testManifest()
	base, err := Checksum(m)
	require.NoError(t, err)

	changed := testManifest()
	changed.Version = "9.9.9"
	other, err := Checksum(changed)
	require.NoError(t, err)

	assert.NotEqual(t, base, other)
}
