// Package dbtest opens throwaway in-memory databases for tests.
package dbtest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/dulcehogar/internal/config"
	"github.com/Skotchmaster/dulcehogar/internal/db"
)

func Open(t testing.TB) *gorm.DB {
	t.Helper()

	ctx := context.Background()
	gdb, err := db.Open(ctx, config.DatabaseConfig{
		Driver:     config.DriverSQLite,
		SQLitePath: "file::memory:",
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(ctx, gdb))

	t.Cleanup(func() {
		_ = db.Close(gdb)
	})
	return gdb
}
