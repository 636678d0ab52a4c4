package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/ppiankov/mapleads/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	records := []model.Record{{BusinessName: "Joe's Bakery", MapsURL: "https://maps.test/place/joe"}}

	require.NoError(t, writeRecords(path, records))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got []model.Record
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, records, got)
}

func TestWriteRecords_EmptyIsArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, writeRecords(path, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))
}

func TestCollectExclusions(t *testing.T) {
	file := filepath.Join(t.TempDir(), "exclude.txt")
	require.NoError(t, os.WriteFile(file, []byte("# competitors\nFlora Shop\n\nBloom & Co\n"), 0o644))

	prevEx, prevFile := exclude, excludeFile
	exclude, excludeFile = []string{"Joe's Bakery, LLC"}, file
	t.Cleanup(func() { exclude, excludeFile = prevEx, prevFile })

	names, err := collectExclusions()
	require.NoError(t, err)
	assert.Equal(t, []string{"Joe's Bakery, LLC", "Flora Shop", "Bloom & Co"}, names)
}

func TestBuildSpec(t *testing.T) {
	prevOwners, prevVerify, prevCountry := owners, verifyEmails, country
	owners, verifyEmails, country = true, true, "us"
	t.Cleanup(func() { owners, verifyEmails, country = prevOwners, prevVerify, prevCountry })

	spec, err := buildSpec("bakery", "Springfield", 5, []string{"flora shop"})
	require.NoError(t, err)
	assert.Equal(t, "US", spec.CountryCode)
	assert.True(t, spec.EnrichOwners)
	assert.True(t, spec.VerifyEmails)
	assert.True(t, spec.Excludes("Flora Shop"))

	_, err = buildSpec("  ", "Springfield", 5, nil)
	assert.Error(t, err)
}
