package hazmat

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func TestDefaultConfigIsValid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestLoadConfigOverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	data := []byte("rsa:\n  default_key_size: 3072\nlog:\n  level: debug\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hazmat.yaml"), data, 0o600))

	cfg, err := LoadConfig("hazmat.yaml")
	require.NoError(t, err)
	assert.Equal(t, 3072, cfg.RSA.DefaultKeySize)
	assert.Equal(t, 65537, cfg.RSA.DefaultPublicExponent)
	assert.Equal(t, "text", cfg.Log.Format)

	lvl, err := cfg.Log.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)
}

func TestLoadConfigRejectsEscapingPath(t *testing.T) {
	chdir(t, t.TempDir())
	_, err := LoadConfig("../outside.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "escapes working directory")
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"even exponent", func(c *Config) { c.RSA.DefaultPublicExponent = 4 }},
		{"exponent one", func(c *Config) { c.RSA.DefaultPublicExponent = 1 }},
		{"zero key size", func(c *Config) { c.RSA.DefaultKeySize = 0 }},
		{"default below floor", func(c *Config) { c.RSA.MinKeySize = 4096 }},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
