package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notechan/internal/notes/adapters/services"
	"notechan/pkg/logger"
)

const testSecret = "cli-test-secret"

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	require.NoError(t, logger.InitGlobalLoggerWithLevel(logger.Development, "error"))

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestTokenCommand(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", testSecret)

	out, err := execute(t, "token", "user-42", "--ttl", "5m")
	require.NoError(t, err)

	userID, err := services.NewJWT(testSecret).ValidateAccessToken(context.Background(), strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "user-42", userID)
}

func TestTokenCommandRequiresUser(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", testSecret)

	_, err := execute(t, "token")
	assert.Error(t, err)
}

func TestMigrateRejectsMongo(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", testSecret)
	t.Setenv("NOTES_STORAGE_DRIVER", "mongo")

	_, err := execute(t, "migrate", "up")
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrMigrateNotPostgres)
}

func TestMigrateDownRejectsBadSteps(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", testSecret)
	t.Setenv("NOTES_STORAGE_DRIVER", "postgres")

	_, err := execute(t, "migrate", "down", "--steps", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrInvalidSteps)
}

func TestSweepDisabled(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", testSecret)
	t.Setenv("NOTES_SWEEPER_ENABLED", "false")

	_, err := execute(t, "sweep")
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrSweepDisabled)
}

func TestInvalidConfigFails(t *testing.T) {
	t.Setenv("NOTES_STORAGE_DRIVER", "sqlite")

	_, err := execute(t, "token", "user-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrLoadConfig)
}
