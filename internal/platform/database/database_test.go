package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_SQLiteInMemory(t *testing.T) {
	db, err := Open(context.Background(), Config{
		Driver:       DriverSQLite,
		DSN:          "file:" + t.Name() + "?mode=memory&cache=shared",
		MaxOpenConns: 10,
	}, nil)
	require.NoError(t, err)

	t.Cleanup(func() { _ = Close(db) })

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)

	var one int
	require.NoError(t, db.Raw("SELECT 1").Scan(&one).Error)
	assert.Equal(t, 1, one)
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	tests := []string{"memory", "oracle", ""}

	for _, driver := range tests {
		t.Run(driver, func(t *testing.T) {
			_, err := Open(context.Background(), Config{Driver: driver, DSN: "x"}, nil)

			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUnsupportedDriver)
		})
	}
}

func TestOpen_CancelledWhileRetrying(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Open(ctx, Config{
		Driver:         DriverPostgres,
		DSN:            "host=127.0.0.1 port=1 user=quotes dbname=quotes sslmode=disable connect_timeout=1",
		ConnectRetries: 3,
	}, nil)

	require.Error(t, err)
}
