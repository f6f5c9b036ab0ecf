package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/eaglebank/api/internal/config"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "eagle.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "jwtSecret: test-secret\n")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, "10-10-10", cfg.SortCode)
	require.Equal(t, "GBP", cfg.Currency)
	require.Equal(t, config.AllocationSequential, cfg.AllocationStrategy)
	require.Equal(t, "10000.00", cfg.MaxTransactionAmount)
	require.Equal(t, 24, cfg.TokenTTLHours)
}

func TestLoadMissingFileUsesEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("PORT", "9090")

	cfg, err := config.Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	require.Equal(t, "env-secret", cfg.JWTSecret)
	require.Equal(t, "9090", cfg.Port)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "jwtSecret: file-secret\nport: \"8080\"\n")
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("ALLOCATION_STRATEGY", "random")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, "env-secret", cfg.JWTSecret)
	require.Equal(t, config.AllocationRandom, cfg.AllocationStrategy)
	require.Equal(t, "8080", cfg.Port)
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	path := writeConfig(t, "port: \"8080\"\n")

	_, err := config.Load(path)
	require.Error(t, err)
}

func TestLoadRejectsUnknownStrategy(t *testing.T) {
	path := writeConfig(t, "jwtSecret: test-secret\nallocationStrategy: round-robin\n")

	_, err := config.Load(path)
	require.Error(t, err)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := writeConfig(t, "jwtSecret: [unclosed\n")

	_, err := config.Load(path)
	require.Error(t, err)
}
