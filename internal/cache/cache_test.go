package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type owner struct {
	Name string `json:"name"`
}

func TestKey(t *testing.T) {
	a := Key("owner", "Joe's Bakery", "Springfield")
	b := Key("owner", " JOE'S BAKERY", "springfield ")
	c := Key("owner", "Joe's Bakery", "Shelbyville")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Contains(t, a, "mapleads:v1:owner:")
}

func TestMemoryOnly_JSON(t *testing.T) {
	c := New(time.Minute, "")
	_, isMemory := c.(*memoryTier)
	require.True(t, isMemory)

	require.NoError(t, SetJSON(c, "k", owner{Name: "Jane Doe (Owner)"}, 0))

	var got owner
	require.True(t, GetJSON(c, "k", &got))
	assert.Equal(t, "Jane Doe (Owner)", got.Name)
	assert.False(t, GetJSON(c, "missing", &got))
}

func TestGetJSON_UndecodableIsMiss(t *testing.T) {
	c := New(time.Minute, "")
	require.NoError(t, c.Set("k", []byte("{not json"), 0))

	var got owner
	assert.False(t, GetJSON(c, "k", &got))
}

func TestTiered_PromotesFromDisk(t *testing.T) {
	dir := t.TempDir()
	key := Key("owner", "Joe's Bakery", "Springfield")

	require.NoError(t, New(time.Minute, dir).Set(key, []byte("Jane Doe (Owner)"), 0))

	// A fresh process only has the disk layer
	second := New(time.Minute, dir).(*tiered)
	assert.Equal(t, 0, second.memory.Len())

	val, ok := second.Get(key)
	require.True(t, ok)
	assert.Equal(t, "Jane Doe (Owner)", string(val))
	assert.Equal(t, 1, second.memory.Len())
}

func TestDiskTier_Expiry(t *testing.T) {
	d := newDiskTier(t.TempDir(), time.Hour)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	d.now = func() time.Time { return now }

	require.NoError(t, d.Set("k", []byte("v"), 0))
	_, ok := d.Get("k")
	require.True(t, ok)

	now = now.Add(2 * time.Hour)
	_, ok = d.Get("k")
	assert.False(t, ok)

	_, err := os.Stat(d.path("k"))
	assert.True(t, os.IsNotExist(err), "expired entry should be removed")
}

func TestDiskTier_NoTTLNeverExpires(t *testing.T) {
	d := newDiskTier(t.TempDir(), 0)
	require.NoError(t, d.Set("k", []byte("v"), 0))

	d.now = func() time.Time { return time.Now().Add(100 * 365 * 24 * time.Hour) }
	val, ok := d.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", string(val))
}

func TestDiskTier_IgnoresForeignFiles(t *testing.T) {
	d := newDiskTier(t.TempDir(), time.Hour)
	path := d.path("k")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(`{"key":"other","data":"dg=="}`), 0o644))

	_, ok := d.Get("k")
	assert.False(t, ok)
}
