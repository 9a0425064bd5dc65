package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserConfig_ActiveProfile(t *testing.T) {
	cfg := &UserConfig{
		CurrentProfile: "default",
		Profiles: map[string]Profile{
			"default": {Host: "http://localhost:8080", Identity: "alice", Output: "table"},
			"staging": {Host: "https://staging.example.com", Identity: "alice-staging", Output: "json"},
		},
	}

	assert.Equal(t, "http://localhost:8080", cfg.ActiveProfile("").Host)
	assert.Equal(t, "https://staging.example.com", cfg.ActiveProfile("staging").Host)
	assert.Equal(t, Profile{}, cfg.ActiveProfile("nonexistent"))
}

func TestLoadSaveUserConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg := &UserConfig{
		CurrentProfile: "default",
		Profiles: map[string]Profile{
			"default": {Host: "http://localhost:8080", Identity: "alice@example.com", Output: "json"},
		},
	}
	require.NoError(t, SaveUserConfig(cfg))

	loaded, err := LoadUserConfig()
	require.NoError(t, err)
	assert.Equal(t, "default", loaded.CurrentProfile)
	assert.Equal(t, "alice@example.com", loaded.Profiles["default"].Identity)
	assert.Equal(t, "json", loaded.Profiles["default"].Output)

	// File permissions stay private.
	info, err := os.Stat(filepath.Join(ConfigDir(), "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestLoadUserConfig_Missing(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	_, err := LoadUserConfig()
	require.Error(t, err)
}
