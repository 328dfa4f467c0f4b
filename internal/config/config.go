// Package config loads gitdeck's TOML configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/thiagokokada/gitdeck/internal/git/backend"
)

const maxWorkers = 64

type Config struct {
	Backend     backend.Kind  `toml:"backend"`
	Workers     int           `toml:"workers"`
	LogPageSize int           `toml:"log_page_size"`
	ReflogLimit int           `toml:"reflog_limit"`
	LogLevel    string        `toml:"log_level"`
	Watch       WatchConfig   `toml:"watch"`
	Session     SessionConfig `toml:"session"`
}

type WatchConfig struct {
	Enabled  bool          `toml:"enabled"`
	Debounce time.Duration `toml:"debounce"`
}

type SessionConfig struct {
	Path    string `toml:"path"`
	Restore bool   `toml:"restore"`
}

// Default returns the configuration used when no file exists. Zero Workers
// means one worker per CPU, capped at 8.
func Default() Config {
	return Config{
		Backend:     backend.KindCLI,
		LogPageSize: 200,
		ReflogLimit: 100,
		LogLevel:    "info",
		Watch:       WatchConfig{Enabled: true, Debounce: 300 * time.Millisecond},
		Session:     SessionConfig{Path: "~/.config/gitdeck/session.toml", Restore: true},
	}
}

// DefaultPath returns ~/.config/gitdeck/config.toml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(home, ".config", "gitdeck", "config.toml")
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, &cfg)
	if errors.Is(err, fs.ErrNotExist) {
		return finish(Default())
	}
	if err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	for _, key := range md.Undecoded() {
		slog.Warn("unknown config key", slog.String("path", path), slog.String("key", key.String()))
	}
	return finish(cfg)
}

func finish(cfg Config) (Config, error) {
	cfg.Session.Path = ExpandHome(cfg.Session.Path)
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	var errs []error
	if _, err := backend.FactoryFor(c.Backend); err != nil {
		errs = append(errs, err)
	}
	if c.Workers < 0 || c.Workers > maxWorkers {
		errs = append(errs, fmt.Errorf("workers must be between 0 and %d, got %d", maxWorkers, c.Workers))
	}
	if c.LogPageSize <= 0 {
		errs = append(errs, fmt.Errorf("log_page_size must be positive, got %d", c.LogPageSize))
	}
	if c.ReflogLimit <= 0 {
		errs = append(errs, fmt.Errorf("reflog_limit must be positive, got %d", c.ReflogLimit))
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	if c.Watch.Debounce < 0 {
		errs = append(errs, fmt.Errorf("watch.debounce must not be negative, got %s", c.Watch.Debounce))
	}
	if c.Session.Path == "" {
		errs = append(errs, errors.New("session.path must be set"))
	}
	return errors.Join(errs...)
}

// SlogLevel maps log_level to a slog level.
func (c Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log_level: %w", err)
	}
	return level, nil
}

// ExpandHome replaces a leading ~/ with the user's home directory.
func ExpandHome(path string) string {
	rest, ok := strings.CutPrefix(path, "~/")
	if !ok {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, rest)
}
