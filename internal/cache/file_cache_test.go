package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapID struct {
	Name string `json:"name"`
}

func TestFileCacheRoundTrip(t *testing.T) {
	fc := NewFileCache[mapID](t.TempDir(), 0)
	key := fc.GenerateKey("projects/p", `{"result":"0"}`)

	_, ok := fc.Get(key)
	assert.False(t, ok)

	require.NoError(t, fc.Set(key, mapID{Name: "projects/p/maps/abc"}))
	got, ok := fc.Get(key)
	require.True(t, ok)
	assert.Equal(t, "projects/p/maps/abc", got.Name)
}

func TestFileCacheKeyIsStable(t *testing.T) {
	fc := NewFileCache[mapID](t.TempDir(), 0)
	assert.Equal(t, fc.GenerateKey("a", 1), fc.GenerateKey("a", 1))
	assert.NotEqual(t, fc.GenerateKey("a", 1), fc.GenerateKey("a", 2))
}

func TestFileCacheExpires(t *testing.T) {
	fc := NewFileCache[mapID](t.TempDir(), time.Hour)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	fc.now = func() time.Time { return now }

	require.NoError(t, fc.Set("k", mapID{Name: "n"}))
	_, ok := fc.Get("k")
	assert.True(t, ok)

	now = now.Add(2 * time.Hour)
	_, ok = fc.Get("k")
	assert.False(t, ok)
}

func TestFileCacheRejectsCorruptEntry(t *testing.T) {
	dir := t.TempDir()
	fc := NewFileCache[mapID](dir, 0)
	require.NoError(t, fc.Set("k", mapID{Name: "n"}))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "k.json"),
		[]byte(`{"data":{"name":"tampered"},"checksum":"0"}`), 0644))
	_, ok := fc.Get("k")
	assert.False(t, ok)
}
