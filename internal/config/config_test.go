package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 500, cfg.Store.MaxComponents)
	assert.Equal(t, 200, cfg.Store.MaxHintsPerComponent)
	assert.Equal(t, 5000, cfg.Store.MaxTotalHints)
	assert.True(t, cfg.Guard.SecretGuardEnabled)
	assert.Equal(t, 8765, cfg.Server.Port)
}

func TestLoad_MaxHintsEnvOverridesMaxComponents(t *testing.T) {
	t.Setenv("NUDGE_MAX_HINTS", "42")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 42, cfg.Store.MaxComponents)
}

func TestLoad_SecretGuardEnvEnablesOnLiteralOne(t *testing.T) {
	t.Setenv("NUDGE_SECRET_GUARD", "1")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.True(t, cfg.Guard.SecretGuardEnabled)
}

func TestLoad_SecretGuardEnvDisablesOnAnyOtherValue(t *testing.T) {
	t.Setenv("NUDGE_SECRET_GUARD", "0")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.False(t, cfg.Guard.SecretGuardEnabled)
}

func TestLoad_SecretGuardDefaultsEnabledWhenUnset(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.True(t, cfg.Guard.SecretGuardEnabled)
}

func TestValidate_RejectsNonPositiveLimits(t *testing.T) {
	cfg := &Config{
		Store:  StoreConfig{MaxComponents: 0, MaxHintsPerComponent: 1, MaxTotalHints: 1},
		Server: ServerConfig{Port: 8765, MaxPortAttempts: 1},
	}
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsOutOfRangePort(t *testing.T) {
	cfg := &Config{
		Store:  StoreConfig{MaxComponents: 1, MaxHintsPerComponent: 1, MaxTotalHints: 1},
		Server: ServerConfig{Port: 70000, MaxPortAttempts: 1},
	}
	assert.Error(t, cfg.Validate())
}

func TestLoad_ReadsYAMLFile(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "nudge-*.yaml")
	require.NoError(t, err)
	_, err = f.WriteString("server:\n  port: 9999\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	cfg, err := Load(f.Name())
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Server.Port)
}
