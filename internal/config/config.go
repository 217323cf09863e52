// Package config loads the YAML configuration for the yuletide binary.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ayusman/yuletide/internal/capture"
	"github.com/ayusman/yuletide/internal/detector"
	"github.com/ayusman/yuletide/internal/particle"
)

const (
	DefaultAddr            = ":8080"
	DefaultDataDir         = "~/.yuletide"
	DefaultWindowWidth     = 960
	DefaultWindowHeight    = 720
	DefaultMotionThreshold = 1.0
	DatabaseName           = "yuletide.db"
)

type Config struct {
	Camera    capture.Config  `yaml:"camera"`
	Detector  detector.Config `yaml:"detector"`
	Particles ParticlesConfig `yaml:"particles"`
	Motion    MotionConfig    `yaml:"motion"`
	Server    ServerConfig    `yaml:"server"`
	Window    WindowConfig    `yaml:"window"`
	DataDir   string          `yaml:"data_dir"`
	PluginDir string          `yaml:"plugin_dir"`
}

type ParticlesConfig struct {
	// Seed drives target generation. Zero picks a time-based seed.
	Seed   uint64          `yaml:"seed"`
	Counts particle.Counts `yaml:"counts"`
}

// MotionConfig controls the optional frame-difference gate in front of inference.
type MotionConfig struct {
	Enabled   bool    `yaml:"enabled"`
	Threshold float64 `yaml:"threshold"` // percent of changed pixels
}

type ServerConfig struct {
	Addr      string `yaml:"addr"`
	StaticDir string `yaml:"static_dir"`
}

type WindowConfig struct {
	Enabled bool `yaml:"enabled"`
	Width   int  `yaml:"width"`
	Height  int  `yaml:"height"`
}

func DefaultConfig() *Config {
	return &Config{
		Camera:   capture.DefaultConfig(),
		Detector: detector.DefaultConfig(),
		Particles: ParticlesConfig{
			Counts: particle.DefaultCounts(),
		},
		Motion: MotionConfig{
			Threshold: DefaultMotionThreshold,
		},
		Server: ServerConfig{
			Addr: DefaultAddr,
		},
		Window: WindowConfig{
			Enabled: true,
			Width:   DefaultWindowWidth,
			Height:  DefaultWindowHeight,
		},
		DataDir: DefaultDataDir,
	}
}

// Load reads path and overlays it on the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0644)
}

// Validate rejects values that cannot work at runtime.
func (c *Config) Validate() error {
	if c.Camera.Width <= 0 || c.Camera.Height <= 0 {
		return fmt.Errorf("camera size must be positive, got %dx%d", c.Camera.Width, c.Camera.Height)
	}
	if c.Camera.FPS <= 0 {
		return fmt.Errorf("camera fps must be positive, got %d", c.Camera.FPS)
	}
	if c.Detector.MaxHands < 1 {
		return fmt.Errorf("detector max_hands must be at least 1, got %d", c.Detector.MaxHands)
	}
	if c.Motion.Threshold < 0 || c.Motion.Threshold > 100 {
		return fmt.Errorf("motion threshold must be a percentage, got %v", c.Motion.Threshold)
	}
	if c.Window.Enabled && (c.Window.Width <= 0 || c.Window.Height <= 0) {
		return fmt.Errorf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height)
	}
	return nil
}

// DataPath returns DataDir with a leading ~ expanded.
func (c *Config) DataPath() (string, error) {
	return expandHome(c.DataDir)
}

// DatabasePath returns the SQLite file inside the data directory.
func (c *Config) DatabasePath() (string, error) {
	dir, err := c.DataPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DatabaseName), nil
}

// PluginPath returns PluginDir, defaulting to the plugins directory under DataDir.
func (c *Config) PluginPath() (string, error) {
	if c.PluginDir != "" {
		return expandHome(c.PluginDir)
	}
	dir, err := c.DataPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "plugins"), nil
}

// DefaultPath is ~/.yuletide/config.yaml.
func DefaultPath() (string, error) {
	dir, err := expandHome(DefaultDataDir)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
