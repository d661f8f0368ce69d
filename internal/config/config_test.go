package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "arpsim.ini")
	content := `
mode = random
hostcount = 7
seed = 42
spoofchance = 0.5
autoblock = false
speedms = 100
httplisten = 127.0.0.1:9999
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(path))

	assert.Equal(t, ModeRandom, cfg.Mode)
	assert.Equal(t, 7, cfg.HostCount)
	assert.Equal(t, int64(42), cfg.Seed)
	assert.Equal(t, 0.5, cfg.SpoofChance)
	assert.False(t, cfg.AutoBlock)
	assert.Equal(t, 100, cfg.SpeedMS)
	assert.Equal(t, "127.0.0.1:9999", cfg.HTTPListen)
	// keys absent from the file keep their defaults
	assert.Equal(t, 4, cfg.SpoofEvery)
	assert.Equal(t, "scenarios", cfg.ScenarioDir)
}

func TestLoadFromFileMissingIsNonFatal(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.LoadFromFile(filepath.Join(t.TempDir(), "nope.ini"))
	assert.Error(t, err)
	// defaults survive a missing file
	assert.Equal(t, ModeBasic, cfg.Mode)
}

func TestLoadFromEnvOverrides(t *testing.T) {
	t.Setenv("MODE", "random")
	t.Setenv("HOSTCOUNT", "9")
	t.Setenv("SPOOFCHANCE", "0.25")
	t.Setenv("AUTOBLOCK", "false")

	cfg := DefaultConfig()
	cfg.LoadFromEnv()

	assert.Equal(t, ModeRandom, cfg.Mode)
	assert.Equal(t, 9, cfg.HostCount)
	assert.Equal(t, 0.25, cfg.SpoofChance)
	assert.False(t, cfg.AutoBlock)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"unknown mode", func(c *Config) { c.Mode = "chaotic" }, "mode"},
		{"zero hosts", func(c *Config) { c.HostCount = 0 }, "host_count"},
		{"too many hosts", func(c *Config) { c.HostCount = 255 }, "host_count"},
		{"negative probability", func(c *Config) { c.SpoofChance = -0.1 }, "spoof_probability"},
		{"probability above one", func(c *Config) { c.SpoofChance = 1.5 }, "spoof_probability"},
		{"negative spoof cadence", func(c *Config) { c.SpoofEvery = -1 }, "spoof_every"},
		{"negative speed", func(c *Config) { c.SpeedMS = -5 }, "speed_ms"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}
