package database

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pwannenmacher/campus-fest/migrations"
)

func TestLoadMigrations_OrdersByVersion(t *testing.T) {
	fsys := fstest.MapFS{
		"002_add_scores.up.sql":       {Data: []byte("CREATE TABLE scores();")},
		"001_initial_schema.up.sql":   {Data: []byte("CREATE TABLE programs();")},
		"001_initial_schema.down.sql": {Data: []byte("DROP TABLE programs;")},
		"README.md":                   {Data: []byte("ignored")},
	}

	got, err := LoadMigrations(fsys)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "001", got[0].Version)
	assert.Equal(t, "initial schema", got[0].Title)
	assert.Equal(t, "002", got[1].Version)
	assert.Len(t, got[0].Checksum, 64)
}

func TestLoadMigrations_DuplicateVersion(t *testing.T) {
	fsys := fstest.MapFS{
		"001_a.up.sql": {Data: []byte("SELECT 1;")},
		"001_b.up.sql": {Data: []byte("SELECT 2;")},
	}

	_, err := LoadMigrations(fsys)
	assert.ErrorContains(t, err, "duplicate migration version 001")
}

func TestValidateChecksums(t *testing.T) {
	migs := []Migration{
		{Version: "001", Title: "initial", Checksum: "aaa"},
		{Version: "002", Title: "scores", Checksum: "bbb"},
	}

	assert.NoError(t, validateChecksums(migs, map[string]string{"001": "aaa"}))
	assert.NoError(t, validateChecksums(migs, map[string]string{"001": ""}))

	err := validateChecksums(migs, map[string]string{"001": "aaa", "002": "changed"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "002 (scores)")
}

func TestEmbeddedMigrationsParse(t *testing.T) {
	got, err := LoadMigrations(migrations.FS)
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, "001", got[0].Version)
}
