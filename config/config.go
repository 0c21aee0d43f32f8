// Package config handles kestrel.toml player configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// FileName is the name Load and FindAndLoad look for.
const FileName = "kestrel.toml"

// Config represents a kestrel.toml file.
type Config struct {
	Player        Player        `toml:"player"`
	Scripts       Scripts       `toml:"scripts"`
	GC            GC            `toml:"gc"`
	Sandbox       Sandbox       `toml:"sandbox"`
	Cache         Cache         `toml:"cache"`
	SharedObjects SharedObjects `toml:"shared-objects"`
	Log           Log           `toml:"log"`

	// Dir is the directory containing the kestrel.toml file (set at load
	// time). Relative paths in the file are resolved against it.
	Dir string `toml:"-"`
}

// Player holds the defaults used before a movie says otherwise.
type Player struct {
	Version    int     `toml:"version"`
	FrameRate  float64 `toml:"frame-rate"`
	Background string  `toml:"background"`
}

// Scripts configures script execution limits.
type Scripts struct {
	Disabled       bool `toml:"disabled"`
	RecursionLimit int  `toml:"recursion-limit"`
	MaxTimers      int  `toml:"max-timers"`
}

// GC configures the resource collector.
type GC struct {
	Threshold int `toml:"threshold"`
}

// Sandbox restricts which URLs movies may load.
type Sandbox struct {
	LocalOnly  bool     `toml:"local-only"`
	LocalRoots []string `toml:"local-roots"`
	Whitelist  []string `toml:"whitelist"`
	Blacklist  []string `toml:"blacklist"`
}

// Cache configures the fetched-body cache.
type Cache struct {
	TTL        time.Duration `toml:"ttl"`
	MaxEntries int           `toml:"max-entries"`
}

// SharedObjects configures local shared object storage.
type SharedObjects struct {
	Path string `toml:"path"`
}

// Log configures logging.
type Log struct {
	Verbosity      int    `toml:"verbosity"`
	File           string `toml:"file"`
	ASCodingErrors bool   `toml:"ascoding-errors"`
}

// Default returns the configuration used when no kestrel.toml exists.
func Default() *Config {
	return &Config{
		Player: Player{
			Version:    10,
			FrameRate:  12,
			Background: "#ffffff",
		},
		Scripts: Scripts{
			RecursionLimit: 256,
			MaxTimers:      255,
		},
		GC:            GC{Threshold: 50},
		Cache:         Cache{TTL: 5 * time.Minute, MaxEntries: 64},
		SharedObjects: SharedObjects{Path: "lso.db"},
		Log:           Log{Verbosity: 1, ASCodingErrors: true},
	}
}

// Load parses a kestrel.toml file from the given directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, FileName))
}

// LoadFile parses the file at path. Settings the file leaves out keep
// their Default values.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	c := Default()
	if err := toml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	c.Dir, err = filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", path, err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// ErrNotFound is returned by FindAndLoad when neither the start
// directory nor any parent holds a kestrel.toml.
var ErrNotFound = errors.New("no " + FileName + " found")

// FindAndLoad loads the nearest kestrel.toml in startDir or one of its
// parents.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", startDir, err)
	}
	for prev := ""; dir != prev; prev, dir = dir, filepath.Dir(dir) {
		info, err := os.Stat(filepath.Join(dir, FileName))
		if err == nil && !info.IsDir() {
			return Load(dir)
		}
	}
	return nil, fmt.Errorf("%w in %s or its parents", ErrNotFound, startDir)
}

// Validate rejects settings the player cannot run with.
func (c *Config) Validate() error {
	if c.Player.Version < 1 {
		return fmt.Errorf("player.version must be positive, got %d", c.Player.Version)
	}
	if c.Player.FrameRate < 0 {
		return fmt.Errorf("player.frame-rate must not be negative, got %g", c.Player.FrameRate)
	}
	if _, err := c.BackgroundColor(); err != nil {
		return err
	}
	if c.Scripts.RecursionLimit < 0 || c.Scripts.MaxTimers < 0 {
		return fmt.Errorf("scripts limits must not be negative")
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl must not be negative, got %s", c.Cache.TTL)
	}
	return nil
}

// BackgroundColor parses player.background, written as "#rrggbb".
func (c *Config) BackgroundColor() (uint32, error) {
	s := strings.TrimPrefix(c.Player.Background, "#")
	if len(s) != 6 {
		return 0, fmt.Errorf("player.background %q is not #rrggbb", c.Player.Background)
	}
	rgb, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("player.background %q: %w", c.Player.Background, err)
	}
	return uint32(rgb), nil
}

// SharedObjectsPath returns the shared object database path, resolved
// against the config directory.
func (c *Config) SharedObjectsPath() string {
	return c.resolve(c.SharedObjects.Path)
}

// LocalRootPaths returns the sandbox local roots as absolute paths.
func (c *Config) LocalRootPaths() []string {
	var paths []string
	for _, r := range c.Sandbox.LocalRoots {
		paths = append(paths, c.resolve(r))
	}
	return paths
}

// LogFilePath returns the log file path, or "" for stderr.
func (c *Config) LogFilePath() string {
	if c.Log.File == "" {
		return ""
	}
	return c.resolve(c.Log.File)
}

func (c *Config) resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || c.Dir == "" {
		return p
	}
	return filepath.Join(c.Dir, p)
}
