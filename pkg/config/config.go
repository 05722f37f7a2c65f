// Package config handles loading and saving vizsync configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config:  ~/.config/vizsync/config.yaml
//   - Data:    ~/.local/share/vizsync/ (default dataset directory)
//
// Values are layered: built-in defaults, then the YAML file, then VIZSYNC_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/vizsync/pkg/hierarchy"
	"github.com/vanderheijden86/vizsync/pkg/loader"
	"github.com/vanderheijden86/vizsync/pkg/selection"
	"github.com/vanderheijden86/vizsync/pkg/timeline"
)

const appName = "vizsync"

// Datasets locates the input files. Relative paths are resolved against Dir.
type Datasets struct {
	Dir      string `yaml:"dir,omitempty"`
	Tree     string `yaml:"tree,omitempty"`
	Timeline string `yaml:"timeline,omitempty"`
	Geo      string `yaml:"geo,omitempty"`
	Genotype string `yaml:"genotype,omitempty"`
}

// SunburstConfig sizes the radial view.
type SunburstConfig struct {
	Width         int     `yaml:"width,omitempty"`
	Height        int     `yaml:"height,omitempty"`
	RadiusFactor  float64 `yaml:"radius_factor,omitempty"`
	ArcMinAngle   float64 `yaml:"arc_min_angle,omitempty"`
	LabelMinAngle float64 `yaml:"label_min_angle,omitempty"`
}

// TreemapConfig sizes the rectangular view.
type TreemapConfig struct {
	Width    int `yaml:"width,omitempty"`
	Height   int `yaml:"height,omitempty"`
	MaxDepth int `yaml:"max_depth,omitempty"`
}

// TransitionConfig controls zoom animation.
type TransitionConfig struct {
	Duration time.Duration `yaml:"duration"`
	Easing   string        `yaml:"easing,omitempty"` // cubic or linear
}

// TimelineConfig controls playback and the series drawn.
type TimelineConfig struct {
	Period time.Duration       `yaml:"period"`
	Series []loader.SeriesSpec `yaml:"series,omitempty"`
}

// SelectionConfig names the broadcast topic.
type SelectionConfig struct {
	Topic string `yaml:"topic,omitempty"`
}

// NetworkConfig shapes the force-directed graphs.
type NetworkConfig struct {
	TopN        int     `yaml:"top_n,omitempty"`
	MaxDistance float64 `yaml:"max_distance,omitempty"`
}

// UIConfig holds dashboard preferences.
type UIConfig struct {
	DefaultView string `yaml:"default_view,omitempty"` // sunburst or treemap
}

// Config is the top-level configuration for vizsync.
type Config struct {
	Datasets   Datasets         `yaml:"datasets,omitempty"`
	Sunburst   SunburstConfig   `yaml:"sunburst,omitempty"`
	Treemap    TreemapConfig    `yaml:"treemap,omitempty"`
	Transition TransitionConfig `yaml:"transition,omitempty"`
	Timeline   TimelineConfig   `yaml:"timeline,omitempty"`
	Selection  SelectionConfig  `yaml:"selection,omitempty"`
	Network    NetworkConfig    `yaml:"network,omitempty"`
	UI         UIConfig         `yaml:"ui,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Sunburst: SunburstConfig{
			Width:         932,
			Height:        932,
			RadiusFactor:  0.95,
			ArcMinAngle:   hierarchy.DefaultArcMinAngle,
			LabelMinAngle: hierarchy.DefaultLabelMinAngle,
		},
		Treemap: TreemapConfig{
			Width:    954,
			Height:   924,
			MaxDepth: hierarchy.DefaultTreemapDepth,
		},
		Transition: TransitionConfig{
			Duration: hierarchy.DefaultDuration,
			Easing:   "cubic",
		},
		Timeline: TimelineConfig{
			Period: timeline.DefaultPeriod,
			Series: append([]loader.SeriesSpec(nil), loader.DefaultSeries...),
		},
		Selection: SelectionConfig{Topic: selection.DefaultTopic},
		Network:   NetworkConfig{TopN: 10},
		UI:        UIConfig{DefaultView: "sunburst"},
	}
}

// ConfigDir returns the XDG config directory for vizsync.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appName)
}

// DataDir returns the XDG data directory for vizsync, where datasets are
// looked up when no directory is configured.
func DataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "share", appName)
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig, with environment overrides, if the file doesn't
// exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		cfg := DefaultConfig()
		err := cfg.applyEnv()
		return cfg, err
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path, then applies environment
// overrides. A missing file is not an error.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return DefaultConfig(), fmt.Errorf("parsing config: %w", err)
		}
		if len(cfg.Timeline.Series) == 0 {
			cfg.Timeline.Series = append([]loader.SeriesSpec(nil), loader.DefaultSeries...)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	cfg.Datasets.Dir = expandHome(cfg.Datasets.Dir)
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// overrides are the environment variables layered over the file. Nil means
// unset.
type overrides struct {
	DataDir      *string        `env:"VIZSYNC_DATA_DIR"`
	Transition   *time.Duration `env:"VIZSYNC_TRANSITION"`
	PlayPeriod   *time.Duration `env:"VIZSYNC_PLAY_PERIOD"`
	TreemapDepth *int           `env:"VIZSYNC_TREEMAP_DEPTH"`
}

func (c *Config) applyEnv() error {
	var o overrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	if o.DataDir != nil {
		c.Datasets.Dir = *o.DataDir
	}
	if o.Transition != nil {
		c.Transition.Duration = *o.Transition
	}
	if o.PlayPeriod != nil {
		c.Timeline.Period = *o.PlayPeriod
	}
	if o.TreemapDepth != nil {
		c.Treemap.MaxDepth = *o.TreemapDepth
	}
	return nil
}

// Validate rejects values no view can work with.
func (c Config) Validate() error {
	var errs []error
	if c.Sunburst.Width < 0 || c.Sunburst.Height < 0 || c.Treemap.Width < 0 || c.Treemap.Height < 0 {
		errs = append(errs, errors.New("view sizes must not be negative"))
	}
	if c.Sunburst.RadiusFactor < 0 || c.Sunburst.RadiusFactor > 1 {
		errs = append(errs, fmt.Errorf("sunburst.radius_factor %v outside [0,1]", c.Sunburst.RadiusFactor))
	}
	if c.Sunburst.ArcMinAngle < 0 || c.Sunburst.LabelMinAngle < 0 {
		errs = append(errs, errors.New("visibility thresholds must not be negative"))
	}
	if c.Treemap.MaxDepth < 0 {
		errs = append(errs, fmt.Errorf("treemap.max_depth %d is negative", c.Treemap.MaxDepth))
	}
	if c.Transition.Duration < 0 {
		errs = append(errs, fmt.Errorf("transition.duration %v is negative", c.Transition.Duration))
	}
	if c.Timeline.Period <= 0 {
		errs = append(errs, fmt.Errorf("timeline.period %v must be positive", c.Timeline.Period))
	}
	switch c.Transition.Easing {
	case "", "cubic", "linear":
	default:
		errs = append(errs, fmt.Errorf("transition.easing %q (want cubic or linear)", c.Transition.Easing))
	}
	switch c.UI.DefaultView {
	case "", "sunburst", "treemap":
	default:
		errs = append(errs, fmt.Errorf("ui.default_view %q (want sunburst or treemap)", c.UI.DefaultView))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// Easing returns the configured easing function.
func (c Config) Easing() hierarchy.EaseFunc {
	if c.Transition.Easing == "linear" {
		return hierarchy.EaseLinear
	}
	return hierarchy.EaseCubicInOut
}

// ViewOptions returns the hierarchy options for a view in mode m.
func (c Config) ViewOptions(m hierarchy.Mode) []hierarchy.Option {
	opts := []hierarchy.Option{
		hierarchy.WithMode(m),
		hierarchy.WithDuration(c.Transition.Duration),
		hierarchy.WithEasing(c.Easing()),
		hierarchy.WithThresholds(c.Sunburst.ArcMinAngle, c.Sunburst.LabelMinAngle),
	}
	if m == hierarchy.Treemap {
		opts = append(opts, hierarchy.WithMaxDepth(c.Treemap.MaxDepth))
	}
	return opts
}

// Paths returns the dataset paths with ~ expanded and relative paths joined
// to the dataset directory. Unset datasets stay empty.
func (d Datasets) Paths() loader.Paths {
	resolve := func(p string) string {
		p = expandHome(strings.TrimSpace(p))
		if p == "" || filepath.IsAbs(p) || d.Dir == "" {
			return p
		}
		return filepath.Join(expandHome(d.Dir), p)
	}
	return loader.Paths{
		Tree:     resolve(d.Tree),
		Timeline: resolve(d.Timeline),
		Geo:      resolve(d.Geo),
		Genotype: resolve(d.Genotype),
	}
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
