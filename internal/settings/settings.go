// Package settings holds the daemon's ambient configuration: CLI-flag
// defaults persisted across invocations plus the handful of toggles that
// have no natural home in the hotkey DSL itself (chime on/off, in
// particular).
package settings

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Settings is the top-level daemon configuration. Most fields mirror a
// daemon CLI flag, and a flag explicitly passed on the command line wins
// over whatever is loaded here; SocketPath and Chime have no flag.
type Settings struct {
	AbortKeysym string `toml:"abort_keysym"`
	TimeoutSec  int    `toml:"timeout_sec"`
	RedirFile   string `toml:"redir_file"`
	StatusFifo  string `toml:"status_fifo"`
	SocketPath  string `toml:"socket_path"`
	Chime       bool   `toml:"chime"`
}

// Default returns the documented daemon defaults, spec.md §6.
func Default() *Settings {
	return &Settings{
		AbortKeysym: "Escape",
		TimeoutSec:  3,
		RedirFile:   "",
		StatusFifo:  "",
		SocketPath:  "",
		Chime:       false,
	}
}

// DefaultPath returns ~/.config/rhkd/settings.toml, the daemon's own
// secondary settings file — distinct from rhkdrc, which is pure DSL and is
// resolved separately by ConfigPath.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "rhkd", "settings.toml")
}

// Load reads settings from path, returning Default() unmodified if the file
// does not exist.
func Load(path string) (*Settings, error) {
	cfg := Default()

	_, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to path as TOML, creating parent directories as needed.
// The write goes through a temp file and rename so a crash mid-write never
// corrupts an existing settings file.
func Save(path string, cfg *Settings) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".rhkd-settings-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if err := toml.NewEncoder(tmp).Encode(cfg); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, path)
}

// ConfigPath resolves the rhkdrc DSL file per spec.md §6's discovery order:
// an explicit --config-path flag first, then rhkd's own XDG location, then
// sxhkd's (for drop-in compatibility with existing configs), then each
// again under $HOME/.config. Returns "" if none of the candidates exist.
func ConfigPath(flagPath string) string {
	if flagPath != "" {
		return flagPath
	}

	var candidates []string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		candidates = append(candidates,
			filepath.Join(xdg, "rhkd", "rhkdrc"),
			filepath.Join(xdg, "sxhkd", "sxhkdrc"),
		)
	}
	if home := os.Getenv("HOME"); home != "" {
		candidates = append(candidates,
			filepath.Join(home, ".config", "rhkd", "rhkdrc"),
			filepath.Join(home, ".config", "sxhkd", "sxhkdrc"),
		)
	}

	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}
