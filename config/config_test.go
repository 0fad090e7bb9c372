package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoadParsesFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".animationledrc.toml")
	body := "target = \"esp8266\"\noutput = \"blink.bin\"\ndebug = true\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "esp8266", cfg.Target)
	require.Equal(t, "blink.bin", cfg.Output)
	require.True(t, cfg.Debug)
}

func TestLoadRejectsMalformedToml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("target = ["), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}
