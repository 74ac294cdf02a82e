package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/l3aro/cfgview/internal/log"
	"github.com/l3aro/cfgview/pkg/interact"
	"github.com/l3aro/cfgview/pkg/layout"
	"github.com/l3aro/cfgview/pkg/svg"
	"github.com/l3aro/cfgview/pkg/view"
)

// ViewportConfig sizes the drawing surface and the table panel when no browser
// reports them (static rendering, terminal output).
type ViewportConfig struct {
	Width       float64 `yaml:"width" env:"CFGVIEW_VIEWPORT_WIDTH"`
	Height      float64 `yaml:"height" env:"CFGVIEW_VIEWPORT_HEIGHT"`
	PanelWidth  float64 `yaml:"panel_width"`
	PanelHeight float64 `yaml:"panel_height"`
}

// LayoutConfig tunes the initial layout and box geometry.
type LayoutConfig struct {
	Padding    float64 `yaml:"padding"`
	TopMargin  float64 `yaml:"top_margin"`
	Spread     float64 `yaml:"spread"`
	LevelGap   float64 `yaml:"level_gap"`
	EdgeSpread float64 `yaml:"edge_spread"`
}

// TableConfig controls the paired source/bytecode table.
type TableConfig struct {
	NeutralColor string `yaml:"neutral_color"`
	Highlight    bool   `yaml:"highlight" env:"CFGVIEW_TABLE_HIGHLIGHT"`
}

// ServerConfig controls `cfgview serve`.
type ServerConfig struct {
	Addr  string `yaml:"addr" env:"CFGVIEW_SERVER_ADDR"`
	Watch bool   `yaml:"watch" env:"CFGVIEW_SERVER_WATCH"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level string `yaml:"level" env:"CFGVIEW_LOG_LEVEL"`
	JSON  bool   `yaml:"json" env:"CFGVIEW_LOG_JSON"`
	File  string `yaml:"file" env:"CFGVIEW_LOG_FILE"`
}

// Config holds all configuration for cfgview
type Config struct {
	Viewport ViewportConfig       `yaml:"viewport"`
	Layout   LayoutConfig         `yaml:"layout"`
	Metrics  svg.Metrics          `yaml:"metrics"`
	Table    TableConfig          `yaml:"table"`
	Zoom     interact.ZoomOptions `yaml:"zoom"`
	Server   ServerConfig         `yaml:"server"`

	// StrictLines rejects payloads where two blocks claim the same source line.
	StrictLines bool `yaml:"strict_lines" env:"CFGVIEW_STRICT_LINES"`

	Log LogConfig `yaml:"log"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	opts := layout.DefaultOptions()
	return &Config{
		Viewport: ViewportConfig{
			Width:       1000,
			Height:      800,
			PanelWidth:  640,
			PanelHeight: 480,
		},
		Layout: LayoutConfig{
			Padding:    opts.Padding,
			TopMargin:  opts.TopMargin,
			Spread:     opts.Spread,
			LevelGap:   opts.LevelGap,
			EdgeSpread: opts.EdgeSpread,
		},
		Metrics: svg.DefaultMetrics(),
		Table: TableConfig{
			NeutralColor: "#c5cfd4",
			Highlight:    true,
		},
		Zoom: interact.DefaultZoom(),
		Server: ServerConfig{
			Addr: "127.0.0.1:8765",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// GlobalConfigFilePath returns the global config file path (~/.cfgview/config.yaml)
func GlobalConfigFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".cfgview/config.yaml"
	}
	return filepath.Join(home, ".cfgview", "config.yaml")
}

// ProjectConfigFilePath returns the project-level config file path (./.cfgview/config.yaml)
func ProjectConfigFilePath() string {
	return ".cfgview/config.yaml"
}

// Load reads configuration with the following priority (highest to lowest):
// 1. Environment variables
// 2. Project-level config (./.cfgview/config.yaml)
// 3. Global config (~/.cfgview/config.yaml)
// 4. Defaults
func Load() (*Config, error) {
	cfg := DefaultConfig()

	for _, path := range []string{GlobalConfigFilePath(), ProjectConfigFilePath()} {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile reads configuration from a specific YAML file path
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	if data, err := os.ReadFile(path); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to the specified YAML file path.
// It creates parent directories if they don't exist.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to the config
func applyEnvOverrides(cfg *Config) error {
	floats := []struct {
		key string
		dst *float64
	}{
		{"CFGVIEW_VIEWPORT_WIDTH", &cfg.Viewport.Width},
		{"CFGVIEW_VIEWPORT_HEIGHT", &cfg.Viewport.Height},
	}
	for _, f := range floats {
		if v := os.Getenv(f.key); v != "" {
			n, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("invalid %s %q: %w", f.key, v, err)
			}
			*f.dst = n
		}
	}

	bools := []struct {
		key string
		dst *bool
	}{
		{"CFGVIEW_TABLE_HIGHLIGHT", &cfg.Table.Highlight},
		{"CFGVIEW_SERVER_WATCH", &cfg.Server.Watch},
		{"CFGVIEW_STRICT_LINES", &cfg.StrictLines},
		{"CFGVIEW_LOG_JSON", &cfg.Log.JSON},
	}
	for _, b := range bools {
		if v := os.Getenv(b.key); v != "" {
			*b.dst = parseBool(v)
		}
	}

	if v := os.Getenv("CFGVIEW_SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("CFGVIEW_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("CFGVIEW_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
	return nil
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "true", "1", "yes", "on":
		return true
	default:
		return false
	}
}

// Validate checks that the configuration has valid required fields
func (c *Config) Validate() error {
	if c.Viewport.Width <= 0 || c.Viewport.Height <= 0 {
		return fmt.Errorf("viewport width and height must be positive")
	}
	if c.Viewport.PanelWidth < 0 || c.Viewport.PanelHeight < 0 {
		return fmt.Errorf("viewport panel size must be non-negative")
	}
	if c.Layout.Spread <= 0 || c.Layout.Spread > 1 {
		return fmt.Errorf("layout.spread must be in (0, 1]")
	}
	if c.Layout.Padding < 0 || c.Layout.TopMargin < 0 || c.Layout.EdgeSpread < 0 {
		return fmt.Errorf("layout padding, top_margin and edge_spread must be non-negative")
	}
	if c.Layout.LevelGap <= 0 {
		return fmt.Errorf("layout.level_gap must be positive")
	}
	if c.Metrics.CharWidth <= 0 || c.Metrics.LineHeight <= 0 {
		return fmt.Errorf("metrics char_width and line_height must be positive")
	}
	if c.Zoom.Min <= 0 || c.Zoom.Max < c.Zoom.Min {
		return fmt.Errorf("zoom.min must be positive and not above zoom.max")
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// ViewOptions converts the configuration into view construction options.
func (c *Config) ViewOptions() view.Options {
	opts := view.DefaultOptions()
	opts.Width = c.Viewport.Width
	opts.Height = c.Viewport.Height
	opts.PanelWidth = c.Viewport.PanelWidth
	opts.PanelHeight = c.Viewport.PanelHeight
	opts.Layout.Padding = c.Layout.Padding
	opts.Layout.TopMargin = c.Layout.TopMargin
	opts.Layout.Spread = c.Layout.Spread
	opts.Layout.LevelGap = c.Layout.LevelGap
	opts.Layout.EdgeSpread = c.Layout.EdgeSpread
	opts.Metrics = c.Metrics
	opts.Zoom = c.Zoom
	opts.NeutralColor = c.Table.NeutralColor
	opts.Highlight = c.Table.Highlight
	opts.StrictLines = c.StrictLines
	return opts
}

// NewLogger builds the logger described by the log section.
func (c *Config) NewLogger() *log.DefaultLogger {
	level, _ := log.ParseLevel(c.Log.Level)
	return log.New(log.LoggerConfig{
		Level:      level,
		JSONOutput: c.Log.JSON,
		File:       c.Log.File,
		MaxBackups: 3,
	})
}
