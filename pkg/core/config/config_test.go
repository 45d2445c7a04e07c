package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
	assert.Equal(t, ":5000", cfg.Addr())
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "valuation.yaml")
	yamlData := `
server:
  port: 8080
  cors_origin: "https://example.test"
logging:
  level: debug
  format: console
sensitivity:
  parallelism: 2
`
	require.NoError(t, os.WriteFile(path, []byte(yamlData), 0644))

	t.Run("File values", func(t *testing.T) {
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, "https://example.test", cfg.Server.CORSOrigin)
		assert.Equal(t, "debug", cfg.Logging.Level)
		assert.Equal(t, "console", cfg.Logging.Format)
		assert.Equal(t, 2, cfg.Sensitivity.Parallelism)
		// Unset keys keep their defaults
		assert.Equal(t, 10, cfg.Server.ReadTimeoutSeconds)
	})

	t.Run("Env overrides file", func(t *testing.T) {
		t.Setenv("PORT", "9000")
		t.Setenv("GRID_PARALLELISM", "1")
		t.Setenv("LOG_LEVEL", "WARN")
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 9000, cfg.Server.Port)
		assert.Equal(t, 1, cfg.Sensitivity.Parallelism)
		assert.Equal(t, "warn", cfg.Logging.Level)
	})

	t.Run("Bad env int ignored", func(t *testing.T) {
		t.Setenv("PORT", "eighty")
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 8080, cfg.Server.Port)
	})
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()

	malformed := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(malformed, []byte("server: [unclosed"), 0644))
	_, err := Load(malformed)
	assert.Error(t, err)

	badFormat := filepath.Join(dir, "format.yaml")
	require.NoError(t, os.WriteFile(badFormat, []byte("logging:\n  format: xml\n"), 0644))
	_, err = Load(badFormat)
	assert.Error(t, err)

	t.Setenv("PORT", "70000")
	_, err = Load("")
	assert.Error(t, err)
}

func TestLoadDotEnv_MissingFileIsFine(t *testing.T) {
	assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), ".env")))
}

func TestLoadDotEnv_SetsVariables(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("GRID_PARALLELISM=3\n"), 0644))
	t.Setenv("GRID_PARALLELISM", "")
	os.Unsetenv("GRID_PARALLELISM")

	require.NoError(t, LoadDotEnv(path))
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Sensitivity.Parallelism)
}
