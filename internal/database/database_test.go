package database

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wso2/psd2-consent-management/internal/config"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func openSQLite(t *testing.T) *DB {
	t.Helper()
	db, err := Initialize(&config.DatabaseConfig{
		Type: config.DatabaseTypeSQLite,
		Path: ":memory:",
	}, newTestLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestDriverName(t *testing.T) {
	tests := []struct {
		dbType  string
		want    string
		wantErr bool
	}{
		{config.DatabaseTypeMySQL, "mysql", false},
		{"", "mysql", false},
		{config.DatabaseTypePostgres, "postgres", false},
		{config.DatabaseTypeSQLite, "sqlite", false},
		{"oracle", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.dbType, func(t *testing.T) {
			got, err := driverName(tt.dbType)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMigrate_SQLite(t *testing.T) {
	db := openSQLite(t)
	assert.Equal(t, "sqlite", db.Dialect())

	require.NoError(t, db.Migrate())
	// second run is a no-op
	require.NoError(t, db.Migrate())

	for _, table := range []string{"FS_CONSENT", "FS_PAYMENT", "FS_AUTHORISATION", "FS_CONSENT_ACTION"} {
		var count int
		err := db.Get(&count, "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", table)
		require.NoError(t, err)
		assert.Equal(t, 1, count, table)
	}
}

func TestWithTransaction(t *testing.T) {
	db := openSQLite(t)
	require.NoError(t, db.Migrate())
	ctx := context.Background()

	insert := `INSERT INTO FS_CONSENT_ACTION (ACTION_ID, REQUESTED_CONSENT_ID, ACTION_STATUS, TPP_ID, REQUEST_DATE, CREATED_TIME)
		VALUES (?, 'CONSENT-1', 'SUCCESS', 'tpp', '2026-01-01', 1)`

	t.Run("commits on success", func(t *testing.T) {
		err := db.WithTransaction(ctx, func(tx *Transaction) error {
			_, err := tx.ExecContext(ctx, insert, "ACTION-1")
			return err
		})
		require.NoError(t, err)

		var count int
		require.NoError(t, db.Get(&count, "SELECT COUNT(*) FROM FS_CONSENT_ACTION WHERE ACTION_ID = 'ACTION-1'"))
		assert.Equal(t, 1, count)
	})

	t.Run("rolls back on error", func(t *testing.T) {
		err := db.WithTransaction(ctx, func(tx *Transaction) error {
			if _, err := tx.ExecContext(ctx, insert, "ACTION-2"); err != nil {
				return err
			}
			return assert.AnError
		})
		require.ErrorIs(t, err, assert.AnError)

		var count int
		require.NoError(t, db.Get(&count, "SELECT COUNT(*) FROM FS_CONSENT_ACTION WHERE ACTION_ID = 'ACTION-2'"))
		assert.Equal(t, 0, count)
	})
}

func TestHealthCheck(t *testing.T) {
	db := openSQLite(t)
	assert.NoError(t, db.HealthCheck(context.Background()))

	empty := &DB{logger: newTestLogger()}
	assert.Error(t, empty.HealthCheck(context.Background()))
}
