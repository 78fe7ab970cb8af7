// Package config loads styledom settings from defaults, an optional YAML
// file and STYLEDOM_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// STYLEDOM_LAYOUT_VIEWPORT_WIDTH.
const EnvPrefix = "STYLEDOM"

type Config struct {
	Logger Logger `mapstructure:"logger" yaml:"logger"`
	Layout Layout `mapstructure:"layout" yaml:"layout"`
	Text   Text   `mapstructure:"text" yaml:"text"`
	Debug  Debug  `mapstructure:"debug" yaml:"debug"`
	Frame  Frame  `mapstructure:"frame" yaml:"frame"`
}

// Logger configures the zap logger and the optional rotated log file.
type Logger struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	// LogFile enables a JSON file sink when set.
	LogFile    string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize    int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge     int    `mapstructure:"max_age" yaml:"max_age"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

type Layout struct {
	ViewportWidth   float64 `mapstructure:"viewport_width" yaml:"viewport_width"`
	ViewportHeight  float64 `mapstructure:"viewport_height" yaml:"viewport_height"`
	DefaultFontSize float64 `mapstructure:"default_font_size" yaml:"default_font_size"`
	// PageHeight > 0 fragments layouts into pages.
	PageHeight    float64 `mapstructure:"page_height" yaml:"page_height"`
	Columns       int     `mapstructure:"columns" yaml:"columns"`
	ColumnGap     float64 `mapstructure:"column_gap" yaml:"column_gap"`
	WidowsOrphans bool    `mapstructure:"widows_orphans" yaml:"widows_orphans"`
}

type Text struct {
	Hyphenate bool   `mapstructure:"hyphenate" yaml:"hyphenate"`
	Language  string `mapstructure:"language" yaml:"language"`
	// ShaperKind is "simple" or "harfbuzz".
	ShaperKind string `mapstructure:"shaper" yaml:"shaper"`
	// LastResortAdvance is the advance, in em, used when no font is found.
	LastResortAdvance float64 `mapstructure:"last_resort_advance" yaml:"last_resort_advance"`
	CacheSize         int     `mapstructure:"cache_size" yaml:"cache_size"`
	// FontDir and FontFamily register Family-Regular.ttf and friends from
	// a directory in addition to the built in Go fonts.
	FontDir    string `mapstructure:"font_dir" yaml:"font_dir"`
	FontFamily string `mapstructure:"font_family" yaml:"font_family"`
}

type Debug struct {
	// Overlay keeps the debug message ledger visible in tools.
	Overlay bool `mapstructure:"overlay" yaml:"overlay"`
	// MaxMessages bounds the debug message ledger of a window.
	MaxMessages int `mapstructure:"max_messages" yaml:"max_messages"`
}

// Frame paces the frame loop.
type Frame struct {
	// RatePerSecond limits frames per second; zero disables pacing.
	RatePerSecond float64 `mapstructure:"rate_per_second" yaml:"rate_per_second"`
	Burst         int     `mapstructure:"burst" yaml:"burst"`
}

var (
	ErrInvalidViewport = errors.New("config: viewport must be positive")
	ErrInvalidShaper   = errors.New("config: unknown shaper")
)

// SetDefaults registers the default of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", false)

	v.SetDefault("layout.viewport_width", 800.0)
	v.SetDefault("layout.viewport_height", 600.0)
	v.SetDefault("layout.default_font_size", 16.0)
	v.SetDefault("layout.page_height", 0.0)
	v.SetDefault("layout.columns", 1)
	v.SetDefault("layout.column_gap", 16.0)
	v.SetDefault("layout.widows_orphans", true)

	v.SetDefault("text.hyphenate", true)
	v.SetDefault("text.language", "en")
	v.SetDefault("text.shaper", "simple")
	v.SetDefault("text.last_resort_advance", 0.5)
	v.SetDefault("text.cache_size", 4096)
	v.SetDefault("text.font_dir", "")
	v.SetDefault("text.font_family", "")

	v.SetDefault("debug.overlay", false)
	v.SetDefault("debug.max_messages", 256)

	v.SetDefault("frame.rate_per_second", 60.0)
	v.SetDefault("frame.burst", 1)
}

// Default returns the defaults without reading files or the environment.
func Default() *Config {
	v := viper.New()
	SetDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("unmarshal default config: %v", err))
	}
	return &cfg
}

// New builds a viper instance with defaults and environment overrides.
// path may be empty.
func New(path string) *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	if path != "" {
		v.SetConfigFile(path)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the YAML file at path, if any, and the environment.
func Load(path string) (*Config, error) {
	v := New(path)
	if path != "" {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	return FromViper(v)
}

// FromViper decodes and validates the settings held by v.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Layout.ViewportWidth <= 0 || c.Layout.ViewportHeight <= 0 {
		return fmt.Errorf("%w: %gx%g", ErrInvalidViewport, c.Layout.ViewportWidth, c.Layout.ViewportHeight)
	}
	switch c.Text.ShaperKind {
	case "simple", "harfbuzz":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidShaper, c.Text.ShaperKind)
	}
	if c.Layout.Columns < 1 {
		c.Layout.Columns = 1
	}
	if c.Layout.DefaultFontSize <= 0 {
		c.Layout.DefaultFontSize = 16
	}
	return nil
}
