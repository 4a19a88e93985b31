package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrations(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	testDB := SetupTestDB(t)
	defer testDB.Cleanup(t)

	t.Run("all tables exist", func(t *testing.T) {
		tables, err := testDB.ListTables(t.Context())
		require.NoError(t, err)

		for _, name := range []string{"users", "transactions", "daily_trades"} {
			assert.Contains(t, tables, name)
		}
	})

	t.Run("money columns are numeric(12,2)", func(t *testing.T) {
		columns := []struct {
			table  string
			column string
		}{
			{"transactions", "amount"},
			{"daily_trades", "profit"},
			{"daily_trades", "loss"},
		}

		for _, c := range columns {
			var dataType string
			var precision, scale int
			err := testDB.GetRawConn().QueryRow(`
				SELECT data_type, numeric_precision, numeric_scale
				FROM information_schema.columns
				WHERE table_name = $1 AND column_name = $2
			`, c.table, c.column).Scan(&dataType, &precision, &scale)

			require.NoError(t, err, "column %s.%s should exist", c.table, c.column)
			assert.Equal(t, "numeric", dataType)
			assert.Equal(t, 12, precision)
			assert.Equal(t, 2, scale)
		}
	})

	t.Run("daily_trades has unique constraint on user and date", func(t *testing.T) {
		var exists bool
		err := testDB.GetRawConn().QueryRow(`
			SELECT EXISTS (
				SELECT FROM information_schema.table_constraints
				WHERE table_name = 'daily_trades'
				AND constraint_name = 'uix_user_date'
				AND constraint_type = 'UNIQUE'
			)
		`).Scan(&exists)

		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("migrate is idempotent", func(t *testing.T) {
		assert.NoError(t, Migrate(testDB.ConnectionString()))
	})

	t.Run("down then up restores schema", func(t *testing.T) {
		require.NoError(t, MigrateDown(testDB.ConnectionString()))

		tables, err := testDB.ListTables(t.Context())
		require.NoError(t, err)
		assert.NotContains(t, tables, "users")

		require.NoError(t, Migrate(testDB.ConnectionString()))

		tables, err = testDB.ListTables(t.Context())
		require.NoError(t, err)
		assert.Contains(t, tables, "users")
	})
}
