// Package config loads the toolchain settings the cmd/lispc driver
// uses to assemble and link its generated NASM output: paths to nasm
// and the linker, and the default output directory.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

// Config holds the external toolchain this compiler shells out to
// once it has produced a .s file.
type Config struct {
	Toolchain struct {
		Assembler     string `toml:"assembler"`
		AssemblerArgs string `toml:"assembler_args"`
		Linker        string `toml:"linker"`
		RuntimeObject string `toml:"runtime_object"`
	} `toml:"toolchain"`

	Output struct {
		Directory  string `toml:"directory"`
		KeepAsm    bool   `toml:"keep_asm"`
		DefaultRun bool   `toml:"default_run"`
	} `toml:"output"`

	Debug struct {
		Enabled bool `toml:"enabled"`
	} `toml:"debug"`
}

// DefaultConfig returns a Config with sane out-of-the-box values: nasm
// in elf64 mode, cc as the linker driver (so it pulls in libc
// transitively), and output written alongside the source file.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Toolchain.Assembler = "nasm"
	cfg.Toolchain.AssemblerArgs = "-f elf64"
	cfg.Toolchain.Linker = "cc"
	cfg.Toolchain.RuntimeObject = "runtime.o"

	cfg.Output.Directory = ""
	cfg.Output.KeepAsm = true
	cfg.Output.DefaultRun = false

	cfg.Debug.Enabled = false

	return cfg
}

// ConfigPath returns the platform-specific path to this compiler's
// config file, creating its containing directory if necessary.
func ConfigPath() string {
	var dir string

	switch runtime.GOOS {
	case "windows":
		dir = os.Getenv("APPDATA")
		if dir == "" {
			dir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		dir = filepath.Join(dir, "lispc")

	case "darwin", "linux":
		home, err := os.UserHomeDir()
		if err != nil {
			return "lispc.toml"
		}
		dir = filepath.Join(home, ".config", "lispc")

	default:
		return "lispc.toml"
	}

	if err := os.MkdirAll(dir, 0750); err != nil {
		return "lispc.toml"
	}
	return filepath.Join(dir, "config.toml")
}

// Load reads configuration from the default config path, falling
// back to DefaultConfig if no file is present there.
func Load() (*Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads configuration from path, returning defaults for any
// field the file does not set and DefaultConfig outright if the file
// does not exist.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return cfg, nil
}
