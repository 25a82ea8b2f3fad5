package migration

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/claimswift/backend/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"add payments table":  "add_payments_table",
		"Add-Claim-Index":     "add_claim_index",
		"ADD__AUDIT__TRIGGER": "add_audit_trigger",
		"   spaces   ":        "spaces",
		"special!@#$chars":    "specialchars",
		"_leading":            "leading",
		"ü-only":              "only",
		"":                    "",
	}
	for in, want := range tests {
		assert.Equal(t, want, slugify(in), "slugify(%q)", in)
	}
}

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("-- x"), 0o644))
	}
}

func TestCreateMigration(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "000001_create_claims.up.sql", "000001_create_claims.down.sql", "000007_late.up.sql", "README.md")

	mf, err := CreateMigration(dir, "add payout index", "Speeds up reconciliation")
	require.NoError(t, err)
	assert.Equal(t, "000008", mf.Version)
	assert.Equal(t, filepath.Join(dir, "000008_add_payout_index.up.sql"), mf.UpPath)
	assert.Equal(t, filepath.Join(dir, "000008_add_payout_index.down.sql"), mf.DownPath)

	up, err := os.ReadFile(mf.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "-- Migration: add payout index")
	assert.Contains(t, string(up), "-- Description: Speeds up reconciliation")

	down, err := os.ReadFile(mf.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "-- Rollback: add payout index")
	assert.NotContains(t, string(down), "Description")
}

func TestCreateMigration_Errors(t *testing.T) {
	t.Run("no usable characters", func(t *testing.T) {
		_, err := CreateMigration(t.TempDir(), "!!!", "")
		assert.ErrorContains(t, err, "no usable characters")
	})

	t.Run("creates directory", func(t *testing.T) {
		nested := filepath.Join(t.TempDir(), "nested", "migrations")
		mf, err := CreateMigration(nested, "first", "")
		require.NoError(t, err)
		assert.Equal(t, "000001", mf.Version)
	})

	t.Run("existing down file is kept", func(t *testing.T) {
		dir := t.TempDir()
		touch(t, dir, "000001_first.down.sql")
		_, err := CreateMigration(dir, "first", "")
		require.Error(t, err)
		_, statErr := os.Stat(filepath.Join(dir, "000001_first.up.sql"))
		assert.True(t, os.IsNotExist(statErr), "up file is removed when the pair cannot be written")
	})
}

func TestListMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"000010_add_reserve.up.sql":          {},
		"000002_create_assessments.up.sql":   {},
		"000002_create_assessments.down.sql": {},
		"000001_create_claims.up.sql":        {},
		"000001_create_claims.down.sql":      {},
		"000003_notes.up.txt":                {},
		"notes.txt":                          {},
	}

	got, err := ListMigrations(fsys)
	require.NoError(t, err)
	assert.Equal(t, []Entry{
		{Version: 1, Name: "000001_create_claims"},
		{Version: 2, Name: "000002_create_assessments"},
		{Version: 10, Name: "000010_add_reserve"},
	}, got)

	missing, err := ListMigrations(os.DirFS(filepath.Join(t.TempDir(), "absent")))
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	ups, err := ListMigrations(migrations.FS)
	require.NoError(t, err)
	require.NotEmpty(t, ups)

	for i, e := range ups {
		assert.EqualValues(t, i+1, e.Version, "versions are contiguous")
		_, err := migrations.FS.Open(e.Name + ".down.sql")
		assert.NoError(t, err, "%s has a rollback", e.Name)
	}
}
