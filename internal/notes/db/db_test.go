package db

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notechan/internal/notes/config"
	"notechan/pkg/logger"
)

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

func TestOpenUnknownDriver(t *testing.T) {
	require.NoError(t, logger.InitGlobalLoggerWithLevel(logger.Development, "info"))

	_, err := Open(context.Background(), &config.Config{Storage: config.StorageConfig{Driver: "sqlite"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrUnknownDriver)
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	closed := false

	t.Run("ping ok", func(t *testing.T) {
		store := &Store{driver: config.DriverMongo, pinger: fakePinger{}, closeFn: func(context.Context) { closed = true }}

		assert.Equal(t, config.DriverMongo, store.Driver())
		assert.NoError(t, store.Ping(ctx))

		store.Close(ctx)
		assert.True(t, closed)
	})

	t.Run("ping failure is wrapped", func(t *testing.T) {
		down := errors.New("connection refused")
		store := &Store{pinger: fakePinger{err: down}}

		err := store.Ping(ctx)
		require.Error(t, err)
		assert.ErrorIs(t, err, down)
		assert.Contains(t, err.Error(), ErrDBCheckConnection)
	})
}

func TestMigrateBadSource(t *testing.T) {
	require.NoError(t, logger.InitGlobalLoggerWithLevel(logger.Development, "info"))

	cfg := &config.PostgresConfig{
		Host:           "127.0.0.1",
		Port:           1,
		User:           "postgres",
		Password:       "postgres",
		Database:       "notes",
		MigrationsPath: t.TempDir() + "/missing",
	}

	err := Migrate(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrDBMigrations)
}
