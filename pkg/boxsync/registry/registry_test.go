package registry

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/boxsync/pkg/boxsync/cache"
	"github.com/jamesainslie/boxsync/pkg/boxsync/manifest"
)

func manifestFor(version string) manifest.Manifest {
	return manifest.Manifest{
		Name:        "react-app",
		Version:     version,
		Description: "React application box",
	}
}

func TestFetchManifest(t *testing.T) {
	var gotPath, gotVersion string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotVersion = r.URL.Query().Get("version")
		json.NewEncoder(w).Encode(manifestResponse{
			Manifest: manifestFor("1.2.0"),
			Checksum: "deadbeef",
		})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL)
	m, checksum, err := c.FetchManifest(context.Background(), "react-app", "1.2.0")
	require.NoError(t, err)

	assert.Equal(t, "/v1/boxes/react-app/manifest", gotPath)
	assert.Equal(t, "1.2.0", gotVersion)
	assert.Equal(t, "react-app", m.Name)
	assert.Equal(t, "1.2.0", m.Version)
	assert.Equal(t, "deadbeef", checksum)
}

func TestFetchManifest_LatestOmitsVersion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.False(t, r.URL.Query().Has("version"))
		json.NewEncoder(w).Encode(manifestResponse{Manifest: manifestFor("2.0.0")})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL)
	m, _, err := c.FetchManifest(context.Background(), "react-app", "")
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", m.Version)
}

func TestFetchManifest_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL)
	_, _, err := c.FetchManifest(context.Background(), "missing-box", "1.0.0")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFetchManifest_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL)
	_, _, err := c.FetchManifest(context.Background(), "react-app", "1.0.0")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestFetchManifest_SecondLookupServedFromCache(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits++
		json.NewEncoder(w).Encode(manifestResponse{
			Manifest: manifestFor("1.2.0"),
			Checksum: "deadbeef",
		})
	}))
	defer srv.Close()

	reg, err := cache.Open(t.TempDir(), time.Hour)
	require.NoError(t, err)
	defer reg.Close()

	c := NewHTTPClient(srv.URL, WithCache(reg))

	m1, sum1, err := c.FetchManifest(context.Background(), "react-app", "1.2.0")
	require.NoError(t, err)
	m2, sum2, err := c.FetchManifest(context.Background(), "react-app", "1.2.0")
	require.NoError(t, err)

	assert.Equal(t, 1, hits)
	assert.Equal(t, m1.Version, m2.Version)
	assert.Equal(t, sum1, sum2)
}

func TestFetchManifest_LatestNeverServedFromCache(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits++
		json.NewEncoder(w).Encode(manifestResponse{Manifest: manifestFor("1.2.0")})
	}))
	defer srv.Close()

	reg, err := cache.Open(t.TempDir(), time.Hour)
	require.NoError(t, err)
	defer reg.Close()

	c := NewHTTPClient(srv.URL, WithCache(reg))

	_, _, err = c.FetchManifest(context.Background(), "react-app", "")
	require.NoError(t, err)
	_, _, err = c.FetchManifest(context.Background(), "react-app", "")
	require.NoError(t, err)

	assert.Equal(t, 2, hits)
}

func TestFetchSnapshot(t *testing.T) {
	modified := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/boxes/react-app/snapshot", r.URL.Path)
		json.NewEncoder(w).Encode(snapshotResponse{Files: []snapshotFile{
			{Path: "src/index.tsx", Size: 14, Content: []byte("export App;\n"), LastModified: modified},
			{Path: "README.md", Size: 6, Content: []byte("hello\n"), LastModified: modified},
		}})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL)
	snap, err := c.FetchSnapshot(context.Background(), "react-app", "1.2.0")
	require.NoError(t, err)

	assert.Equal(t, []string{"README.md", "src/index.tsx"}, snap.Paths())

	rec := snap.File("src/index.tsx")
	require.NotNil(t, rec)
	assert.Equal(t, ".tsx", rec.Ext)
	assert.Equal(t, "export App;\n", string(rec.Content))
	assert.True(t, rec.LastModified.Equal(modified))
}

func TestFetchSnapshot_Cancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(snapshotResponse{})
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewHTTPClient(srv.URL)
	_, err := c.FetchSnapshot(ctx, "react-app", "1.2.0")
	assert.Error(t, err)
}
