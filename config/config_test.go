package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "nasm", cfg.Toolchain.Assembler)
	assert.Equal(t, "cc", cfg.Toolchain.Linker)
}

func TestLoadFromMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, "nasm", cfg.Toolchain.Assembler, "expected default assembler")
}

func TestLoadFromOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lispc.toml")
	contents := `
[toolchain]
assembler = "yasm"

[debug]
enabled = true
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, "yasm", cfg.Toolchain.Assembler)
	assert.True(t, cfg.Debug.Enabled)
	assert.Equal(t, "cc", cfg.Toolchain.Linker, "unset field should keep its default")
}

func TestLoadFromRejectsMalformedToml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lispc.toml")
	require.NoError(t, os.WriteFile(path, []byte("not valid toml [[["), 0644))

	_, err := LoadFrom(path)
	assert.Error(t, err, "expected an error for malformed TOML")
}
