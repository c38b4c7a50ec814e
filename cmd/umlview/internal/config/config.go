// Package config reads the umlview configuration file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/alexballas/umlview/render"
)

// Config represents umlview.yaml
type Config struct {
	// Renderer is auto, local or server
	Renderer string `yaml:"renderer"`
	// Server is the PlantUML server URL. Empty uses the last remembered
	// one, then render.DefaultServerURL.
	Server string `yaml:"server,omitempty"`
	Java     string `yaml:"java,omitempty"`
	Jar      string `yaml:"jar,omitempty"`
	// Format is the plantuml output used by the local renderer, svg or png
	Format string  `yaml:"format,omitempty"`
	Scale  float64 `yaml:"scale,omitempty"`

	Workers  int    `yaml:"workers,omitempty"`
	CacheDir string `yaml:"cacheDir,omitempty"`
	NoCache  bool   `yaml:"noCache,omitempty"`

	Viewer ViewerConfig `yaml:"viewer"`
	Watch  bool         `yaml:"watch"`
}

// ViewerConfig holds the panel options.
type ViewerConfig struct {
	ZoomWithModifier bool    `yaml:"zoomWithModifier"`
	ShowZoomLevel    bool    `yaml:"showZoomLevel"`
	MinZoom          float64 `yaml:"minZoom,omitempty"`
	MaxZoom          float64 `yaml:"maxZoom,omitempty"`
	// Interpolation is linear or nearest
	Interpolation string `yaml:"interpolation,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Renderer: string(render.ModeAuto),
		Format:   "svg",
		Scale:    render.DefaultScale,
		Workers:  2,
		CacheDir: render.DefaultCacheDir(),
		Viewer: ViewerConfig{
			ShowZoomLevel: true,
			MinZoom:       0.1,
			MaxZoom:       3,
			Interpolation: "linear",
		},
	}
}

// DefaultPath is the config file in the user configuration directory.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "umlview", "umlview.yaml")
}

// Load reads path on top of the defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the values that cannot be corrected silently.
func (c *Config) Validate() error {
	if _, err := render.ParseMode(c.Renderer); err != nil {
		return err
	}
	switch c.Format {
	case "", "svg", "png":
	default:
		return fmt.Errorf("unknown format %q (want svg or png)", c.Format)
	}
	switch c.Viewer.Interpolation {
	case "", "linear", "nearest":
	default:
		return fmt.Errorf("unknown interpolation %q (want linear or nearest)", c.Viewer.Interpolation)
	}
	if c.Viewer.MinZoom < 0 || (c.Viewer.MaxZoom > 0 && c.Viewer.MaxZoom < c.Viewer.MinZoom) {
		return fmt.Errorf("zoom range [%g, %g] is empty", c.Viewer.MinZoom, c.Viewer.MaxZoom)
	}
	return nil
}

// RenderOptions maps the config to renderer selection options.
func (c *Config) RenderOptions() render.Options {
	mode, _ := render.ParseMode(c.Renderer)
	return render.Options{
		Mode:      mode,
		Java:      c.Java,
		Jar:       c.Jar,
		ServerURL: c.Server,
		Format:    c.Format,
		Scale:     c.Scale,
	}
}

// Save writes c to path, creating the directory if needed.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
