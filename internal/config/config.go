// Package config loads studio settings from a config file, a .env file and
// STUDIO_ environment variables.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"
)

// EnvPrefix is the prefix for environment overrides: batch.workers is
// STUDIO_BATCH_WORKERS.
const EnvPrefix = "STUDIO"

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("config: invalid value")

// Config holds all studio settings.
type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Batch    BatchConfig    `mapstructure:"batch"`
	Cleanup  CleanupConfig  `mapstructure:"cleanup"`
	Seamless SeamlessConfig `mapstructure:"seamless"`
	Sprite   SpriteConfig   `mapstructure:"sprite"`
	Jobs     JobsConfig     `mapstructure:"jobs"`
	Prompts  PromptsConfig  `mapstructure:"prompts"`
	Launcher LauncherConfig `mapstructure:"launcher"`

	// Source is the config file that was read, empty when none was found.
	Source string `mapstructure:"-"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// BatchConfig holds folder batch defaults.
type BatchConfig struct {
	Workers    int    `mapstructure:"workers"`
	Suffix     string `mapstructure:"suffix"`
	Extension  string `mapstructure:"extension"`
	Recursive  bool   `mapstructure:"recursive"`
	Overwrite  bool   `mapstructure:"overwrite"`
	IgnoreFile string `mapstructure:"ignore_file"`
}

// CleanupConfig selects the default preset and declares custom ones.
type CleanupConfig struct {
	Preset  string                   `mapstructure:"preset"`
	Presets map[string]CleanupPreset `mapstructure:"presets"`
}

// CleanupPreset is a user preset. Nil fields inherit from Extends.
type CleanupPreset struct {
	Extends        string   `mapstructure:"extends"`
	Matte          *string  `mapstructure:"matte"`
	Unmatte        *bool    `mapstructure:"unmatte"`
	SmoothRadius   *float64 `mapstructure:"smooth_radius"`
	FeatherRadius  *float64 `mapstructure:"feather_radius"`
	Contrast       *float64 `mapstructure:"contrast"`
	EdgeShift      *int     `mapstructure:"edge_shift"`
	FringeBand     *int     `mapstructure:"fringe_band"`
	FringeStrength *float64 `mapstructure:"fringe_strength"`
	AlphaThreshold *float64 `mapstructure:"alpha_threshold"`
}

// SeamlessConfig holds tileability thresholds.
type SeamlessConfig struct {
	Threshold   float64 `mapstructure:"threshold"`
	MaxContrast float64 `mapstructure:"max_contrast"`
	Band        int     `mapstructure:"band"`
}

// SpriteConfig holds the default sheet grid.
type SpriteConfig struct {
	Rows      int     `mapstructure:"rows"`
	Cols      int     `mapstructure:"cols"`
	Padding   int     `mapstructure:"padding"`
	Margin    int     `mapstructure:"margin"`
	Trim      bool    `mapstructure:"trim"`
	SkipEmpty bool    `mapstructure:"skip_empty"`
	Scale     float64 `mapstructure:"scale"`
}

// JobsConfig locates the job board.
type JobsConfig struct {
	Root  string   `mapstructure:"root"`
	Roles []string `mapstructure:"roles"`
}

// PromptsConfig locates the template library.
type PromptsConfig struct {
	Dir string `mapstructure:"dir"`
}

// LauncherConfig holds named launch presets.
type LauncherConfig struct {
	Presets map[string]LauncherPreset `mapstructure:"presets"`
}

// LauncherPreset describes one external program. Env entries are KEY=VALUE
// strings; a list keeps the key case, which viper lower-cases in maps.
type LauncherPreset struct {
	Command string   `mapstructure:"command"`
	Args    []string `mapstructure:"args"`
	Dir     string   `mapstructure:"dir"`
	Env     []string `mapstructure:"env"`
}

// DefaultRoles is the role set used when jobs.roles is not configured.
var DefaultRoles = []string{"writer", "artist", "editor", "researcher", "prompter"}

// LoadOptions tells Load where to look.
type LoadOptions struct {
	// ConfigFile is an explicit config path. Missing explicit files are an
	// error; without one, $STUDIO_CONFIG and the search path are tried.
	ConfigFile string

	// EnvFile is a .env file loaded before the environment is read. A
	// missing file is ignored.
	EnvFile string
}

// Load reads configuration. Precedence, highest first: STUDIO_ environment
// variables, the config file, built-in defaults.
func Load(opts LoadOptions) (*Config, error) {
	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: load env file %s: %w", opts.EnvFile, err)
		}
	}

	v := viper.New()
	setDefaults(v)

	path := opts.ConfigFile
	if path == "" {
		path = os.Getenv(EnvPrefix + "_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("studio")
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Join(configHome(), "studio"))
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	c.Source = v.ConfigFileUsed()
	if len(c.Jobs.Roles) == 0 {
		c.Jobs.Roles = append([]string(nil), DefaultRoles...)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var c Config
	// Defaults always decode.
	_ = v.Unmarshal(&c)
	return &c
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("batch.workers", 0)
	v.SetDefault("batch.suffix", "_clean")
	v.SetDefault("batch.extension", ".png")
	v.SetDefault("batch.recursive", false)
	v.SetDefault("batch.overwrite", false)
	v.SetDefault("batch.ignore_file", ".studioignore")

	v.SetDefault("cleanup.preset", "soft")
	v.SetDefault("cleanup.presets", map[string]any{})

	v.SetDefault("seamless.threshold", 0.95)
	v.SetDefault("seamless.max_contrast", 2.0)
	v.SetDefault("seamless.band", 1)

	v.SetDefault("sprite.rows", 1)
	v.SetDefault("sprite.cols", 1)
	v.SetDefault("sprite.padding", 0)
	v.SetDefault("sprite.margin", 0)
	v.SetDefault("sprite.trim", false)
	v.SetDefault("sprite.skip_empty", true)
	v.SetDefault("sprite.scale", 1.0)

	v.SetDefault("jobs.root", "jobs")
	v.SetDefault("jobs.roles", DefaultRoles)

	v.SetDefault("prompts.dir", "prompts")

	v.SetDefault("launcher.presets", map[string]any{})
}

// configHome is $XDG_CONFIG_HOME, falling back to ~/.config.
func configHome() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return dir
	}
	return filepath.Join(os.Getenv("HOME"), ".config")
}

// DefaultPath is where `studio config init` writes when no path is given.
func DefaultPath() string {
	return filepath.Join(configHome(), "studio", "studio.yaml")
}

// Validate checks value ranges that would otherwise fail deep inside a tool.
func (c *Config) Validate() error {
	switch {
	case c.Batch.Workers < 0:
		return fmt.Errorf("%w: batch.workers must be >= 0, got %d", ErrInvalid, c.Batch.Workers)
	case c.Batch.Extension != "" && !strings.HasPrefix(c.Batch.Extension, "."):
		return fmt.Errorf("%w: batch.extension must start with '.', got %q", ErrInvalid, c.Batch.Extension)
	case c.Seamless.Threshold < 0 || c.Seamless.Threshold > 1:
		return fmt.Errorf("%w: seamless.threshold must be in [0,1], got %g", ErrInvalid, c.Seamless.Threshold)
	case c.Seamless.MaxContrast <= 0:
		return fmt.Errorf("%w: seamless.max_contrast must be > 0, got %g", ErrInvalid, c.Seamless.MaxContrast)
	case c.Seamless.Band < 1:
		return fmt.Errorf("%w: seamless.band must be >= 1, got %d", ErrInvalid, c.Seamless.Band)
	case c.Sprite.Rows < 1 || c.Sprite.Cols < 1:
		return fmt.Errorf("%w: sprite grid must be at least 1x1, got %dx%d", ErrInvalid, c.Sprite.Cols, c.Sprite.Rows)
	case c.Sprite.Scale <= 0:
		return fmt.Errorf("%w: sprite.scale must be > 0, got %g", ErrInvalid, c.Sprite.Scale)
	}
	for name, p := range c.Launcher.Presets {
		if p.Command == "" {
			return fmt.Errorf("%w: launcher preset %q has no command", ErrInvalid, name)
		}
	}
	return nil
}

// Save writes cfg to path. The encoding follows the extension (.yaml,
// .json, .toml).
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: mkdir: %w", err)
	}
	if err := toViper(cfg).WriteConfigAs(path); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// Encode writes cfg to w as "yaml" or "json".
func Encode(w io.Writer, cfg *Config, format string) error {
	settings := toViper(cfg).AllSettings()
	switch strings.ToLower(format) {
	case "", "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(settings); err != nil {
			return fmt.Errorf("config: encode yaml: %w", err)
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(settings); err != nil {
			return fmt.Errorf("config: encode json: %w", err)
		}
		return nil
	}
	return fmt.Errorf("%w: output format %q", ErrInvalid, format)
}

func toViper(cfg *Config) *viper.Viper {
	v := viper.New()
	v.Set("log.level", cfg.Log.Level)
	v.Set("log.format", cfg.Log.Format)

	v.Set("batch.workers", cfg.Batch.Workers)
	v.Set("batch.suffix", cfg.Batch.Suffix)
	v.Set("batch.extension", cfg.Batch.Extension)
	v.Set("batch.recursive", cfg.Batch.Recursive)
	v.Set("batch.overwrite", cfg.Batch.Overwrite)
	v.Set("batch.ignore_file", cfg.Batch.IgnoreFile)

	v.Set("cleanup.preset", cfg.Cleanup.Preset)
	presets := make(map[string]any, len(cfg.Cleanup.Presets))
	for name, p := range cfg.Cleanup.Presets {
		presets[name] = p.settings()
	}
	v.Set("cleanup.presets", presets)

	v.Set("seamless.threshold", cfg.Seamless.Threshold)
	v.Set("seamless.max_contrast", cfg.Seamless.MaxContrast)
	v.Set("seamless.band", cfg.Seamless.Band)

	v.Set("sprite.rows", cfg.Sprite.Rows)
	v.Set("sprite.cols", cfg.Sprite.Cols)
	v.Set("sprite.padding", cfg.Sprite.Padding)
	v.Set("sprite.margin", cfg.Sprite.Margin)
	v.Set("sprite.trim", cfg.Sprite.Trim)
	v.Set("sprite.skip_empty", cfg.Sprite.SkipEmpty)
	v.Set("sprite.scale", cfg.Sprite.Scale)

	v.Set("jobs.root", cfg.Jobs.Root)
	v.Set("jobs.roles", cfg.Jobs.Roles)

	v.Set("prompts.dir", cfg.Prompts.Dir)

	launch := make(map[string]any, len(cfg.Launcher.Presets))
	for name, p := range cfg.Launcher.Presets {
		launch[name] = map[string]any{
			"command": p.Command,
			"args":    p.Args,
			"dir":     p.Dir,
			"env":     p.Env,
		}
	}
	v.Set("launcher.presets", launch)
	return v
}

// settings flattens the preset into config keys, omitting nil fields.
func (p CleanupPreset) settings() map[string]any {
	m := map[string]any{}
	if p.Extends != "" {
		m["extends"] = p.Extends
	}
	if p.Matte != nil {
		m["matte"] = *p.Matte
	}
	if p.Unmatte != nil {
		m["unmatte"] = *p.Unmatte
	}
	if p.SmoothRadius != nil {
		m["smooth_radius"] = *p.SmoothRadius
	}
	if p.FeatherRadius != nil {
		m["feather_radius"] = *p.FeatherRadius
	}
	if p.Contrast != nil {
		m["contrast"] = *p.Contrast
	}
	if p.EdgeShift != nil {
		m["edge_shift"] = *p.EdgeShift
	}
	if p.FringeBand != nil {
		m["fringe_band"] = *p.FringeBand
	}
	if p.FringeStrength != nil {
		m["fringe_strength"] = *p.FringeStrength
	}
	if p.AlphaThreshold != nil {
		m["alpha_threshold"] = *p.AlphaThreshold
	}
	return m
}
