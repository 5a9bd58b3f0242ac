package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8000", cfg.Server.Addr)
	assert.Equal(t, "admin", cfg.Auth.BootstrapAdmin)
	assert.Equal(t, "7197", cfg.Auth.BootstrapPin)
	assert.Equal(t, 24, cfg.Auth.TokenTTLHours)
	assert.Equal(t, "file", cfg.Storage.Backend)
	assert.Equal(t, "data.json", cfg.Storage.Path)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("LINKVAULT_SERVER_ADDR", "127.0.0.1:9000")
	t.Setenv("LINKVAULT_STORAGE_BACKEND", "sqlite")
	t.Setenv("LINKVAULT_STORAGE_PATH", "data/linkvault.db")
	t.Setenv("LINKVAULT_AUTH_TOKENTTLHOURS", "1")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.Equal(t, "data/linkvault.db", cfg.Storage.Path)
	assert.Equal(t, 1, cfg.Auth.TokenTTLHours)
}
