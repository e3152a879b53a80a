// Package config loads and validates the experiment configuration file.
//
// The file is YAML, read through viper. It names the experiment, the
// database, the imaging channels, the per-cell measurements whose values are
// stored as cell signals, and the signal graphs a viewer draws.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig marks a configuration file that is missing, unreadable,
// or fails validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config keys read outside the struct decode.
const (
	KeyLogLevel     = "log_level"
	KeyDatabasePath = "database.path"
)

const defaultLogLevel = "info"

// Experiment holds the experiment metadata.
type Experiment struct {
	Name        string `mapstructure:"experiment_name" yaml:"experiment_name"`
	Description string `mapstructure:"description" yaml:"description,omitempty"`
}

// Database locates the track database. A relative path is relative to the
// configuration file.
type Database struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// SignalChannel is one imaging channel.
type SignalChannel struct {
	Name           string    `mapstructure:"name" yaml:"name"`
	Path           string    `mapstructure:"path" yaml:"path"`
	LUT            string    `mapstructure:"lut" yaml:"lut,omitempty"`
	ContrastLimits []float64 `mapstructure:"contrast_limits" yaml:"contrast_limits,omitempty"`
}

// CellMeasurement is one measurement computed per cell. Keys not named here
// are collected into Kwargs, merged with an explicit kwargs map.
type CellMeasurement struct {
	Function string         `mapstructure:"function" yaml:"function"`
	Source   string         `mapstructure:"source" yaml:"source"`
	Name     string         `mapstructure:"name" yaml:"name,omitempty"`
	Channels []string       `mapstructure:"channels" yaml:"channels,omitempty"`
	Kwargs   map[string]any `mapstructure:",remain" yaml:"kwargs,omitempty"`
}

// BaseName is Name, or Function when Name is empty.
func (m CellMeasurement) BaseName() string {
	if m.Name != "" {
		return m.Name
	}
	return m.Function
}

// SignalNames returns the stored signal names the measurement produces: one
// per channel prefixed with the channel name, or the base name alone.
func (m CellMeasurement) SignalNames() []string {
	if len(m.Channels) == 0 {
		return []string{m.BaseName()}
	}
	out := make([]string, len(m.Channels))
	for i, ch := range m.Channels {
		out[i] = ch + "_" + m.BaseName()
	}
	return out
}

// Graph is one signal plot.
type Graph struct {
	Name    string   `mapstructure:"name" yaml:"name"`
	Signals []string `mapstructure:"signals" yaml:"signals"`
	Colors  []string `mapstructure:"colors" yaml:"colors"`
}

// Config is a decoded experiment configuration.
type Config struct {
	Experiment       Experiment        `mapstructure:"experiment_settings" yaml:"experiment_settings"`
	Database         Database          `mapstructure:"database" yaml:"database"`
	SignalChannels   []SignalChannel   `mapstructure:"signal_channels" yaml:"signal_channels"`
	CellMeasurements []CellMeasurement `mapstructure:"cell_measurements" yaml:"cell_measurements"`
	Graphs           []Graph           `mapstructure:"graphs" yaml:"graphs,omitempty"`
	CellTags         map[string]string `mapstructure:"cell_tags" yaml:"cell_tags,omitempty"`
	LogLevel         string            `mapstructure:"log_level" yaml:"log_level,omitempty"`

	file string
}

// Load reads the configuration file at path. It does not validate; call
// Validate on the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault(KeyLogLevel, defaultLogLevel)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading %s: %w: %w", path, ErrInvalidConfig, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding %s: %w: %w", path, ErrInvalidConfig, err)
	}
	for i := range cfg.CellMeasurements {
		cfg.CellMeasurements[i].Kwargs = flattenKwargs(cfg.CellMeasurements[i].Kwargs)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	cfg.file = abs
	return &cfg, nil
}

// File returns the absolute path the configuration was loaded from.
func (c *Config) File() string { return c.file }

// Dir returns the directory of the configuration file, or "" when the
// configuration was not loaded from a file.
func (c *Config) Dir() string {
	if c.file == "" {
		return ""
	}
	return filepath.Dir(c.file)
}

// MeasurementNames returns the signal names of every measurement in order.
func (c *Config) MeasurementNames() []string {
	var out []string
	for _, m := range c.CellMeasurements {
		out = append(out, m.SignalNames()...)
	}
	return out
}

// Validate checks the structure of the configuration. Every problem found is
// reported; each wraps ErrInvalidConfig.
func (c *Config) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...)))
	}

	if c.Experiment.Name == "" {
		fail("experiment_settings.experiment_name is required")
	}
	if c.Database.Path == "" {
		fail("database.path is required")
	}

	channels := map[string]bool{}
	for i, ch := range c.SignalChannels {
		if ch.Name == "" {
			fail("signal_channels[%d].name is required", i)
		}
		if channels[ch.Name] {
			fail("signal channel %q is defined twice", ch.Name)
		}
		channels[ch.Name] = true
		if len(ch.ContrastLimits) != 0 && len(ch.ContrastLimits) != 2 {
			fail("signal channel %q: contrast_limits needs [min, max]", ch.Name)
		}
	}

	for i, m := range c.CellMeasurements {
		if m.Function == "" || m.Source == "" {
			fail("cell_measurements[%d] needs function and source", i)
		}
		for _, ch := range m.Channels {
			if !channels[ch] {
				fail("measurement %q uses unknown channel %q", m.BaseName(), ch)
			}
		}
	}

	names := c.MeasurementNames()
	if dups := duplicates(names); len(dups) > 0 {
		fail("Measurement names are not unique. Duplicates found: %v", dups)
	}

	known := make(map[string]bool, len(names))
	for _, n := range names {
		known[n] = true
	}
	for _, g := range c.Graphs {
		for _, s := range g.Signals {
			if !known[s] {
				fail("Graph '%s' requests an unknown signal: '%s'.", g.Name, s)
			}
		}
		if len(g.Colors) != len(g.Signals) {
			fail("Graph '%s' has %d signals but %d colors.", g.Name, len(g.Signals), len(g.Colors))
		}
	}

	return errors.Join(errs...)
}

// Default returns the configuration written by init.
func Default(experiment, databasePath string) *Config {
	return &Config{
		Experiment: Experiment{Name: experiment},
		Database:   Database{Path: databasePath},
		SignalChannels: []SignalChannel{
			{Name: "ch0", Path: "signal.zarr", LUT: "gray"},
		},
		CellMeasurements: []CellMeasurement{
			{Function: "area", Source: "regionprops"},
		},
		Graphs: []Graph{
			{Name: "Area", Signals: []string{"area"}, Colors: []string{"white"}},
		},
		CellTags: map[string]string{"mitosis": "m"},
		LogLevel: defaultLogLevel,
	}
}

// WriteIfMissing writes c as YAML to path unless the file exists. It
// reports whether the file was written.
func (c *Config) WriteIfMissing(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("stat config file: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, err
	}
	return true, nil
}

func flattenKwargs(in map[string]any) map[string]any {
	out := map[string]any{}
	for k, v := range in {
		if k != "kwargs" {
			out[k] = v
		}
	}
	if nested, ok := in["kwargs"].(map[string]any); ok {
		for k, v := range nested {
			out[k] = v
		}
	}
	return out
}

func duplicates(names []string) []string {
	seen := map[string]int{}
	for _, n := range names {
		seen[n]++
	}
	var out []string
	for n, count := range seen {
		if count > 1 {
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}
