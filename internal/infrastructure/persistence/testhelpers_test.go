package persistence

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB creates an in-memory SQLite database with every table.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Open(sqlite.Open(":memory:"), nil)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// each :memory: connection is a separate database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, AutoMigrate(db))
	return db
}
