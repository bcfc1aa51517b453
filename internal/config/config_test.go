package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, "reversible", cfg.Auth.PasswordMode)
	assert.Equal(t, 12*time.Hour, cfg.Auth.TokenTTL)
	assert.False(t, cfg.DualWrite.Journal)
	assert.Equal(t, 100, cfg.Worker.BatchSize)
}

func TestLoad_FileThenEnvironment(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte("postgres:\n  dsn: postgres://file\ndualwrite:\n  journal: true\nworker:\n  poll_interval: 1s\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o644))
	t.Setenv("SOS_POSTGRES_DSN", "postgres://env")
	t.Setenv("SOS_AUTH_PASSWORD_MODE", "bcrypt")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "postgres://env", cfg.Postgres.DSN)
	assert.Equal(t, "bcrypt", cfg.Auth.PasswordMode)
	assert.True(t, cfg.DualWrite.Journal)
	assert.Equal(t, time.Second, cfg.Worker.PollInterval)
}

func TestValidate(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres.dsn")
	assert.Contains(t, err.Error(), "crypto.master_key")

	cfg.Postgres.DSN = "postgres://x"
	cfg.Crypto.MasterKey = "k"
	cfg.Auth.PasswordMode = "plain"
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "password_mode")
}
