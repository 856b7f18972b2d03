// Package config holds covgate configuration. It is read from a YAML file and
// can be overridden by analyzer flags.
//
//	markers:
//	  - func: '"example.com/cover".Hit'
//	    kind: counter
//	report:
//	  skipped: true
//	  counters: false
//	log:
//	  level: debug
//	  format: json
package config

import (
	"encoding"
	"fmt"
	"maps"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sirkon/covgate/internal/logging"
)

// RuntimePackage is the package whose functions are recognized as coverage markers by default.
const RuntimePackage = "github.com/sirkon/covgate/covrt"

// Config is covgate configuration.
type Config struct {
	Markers []MarkerSpec `yaml:"markers"`
	Report  Report       `yaml:"report"`
	Log     Log          `yaml:"log"`
}

// MarkerSpec registers a function whose calls are coverage markers.
// The only argument of such a call must be a constant ID.
type MarkerSpec struct {
	Func Reference  `yaml:"func"`
	Kind MarkerKind `yaml:"kind"`
}

// Report selects what the analyzer reports as diagnostics.
type Report struct {
	Skipped  bool `yaml:"skipped"`
	Counters bool `yaml:"counters"`
}

// Log configures the logger.
type Log struct {
	Level  logging.Level  `yaml:"level"`
	Format logging.Format `yaml:"format"`
}

// Default returns configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Log: Log{
			Level:  logging.LevelWarn,
			Format: logging.FormatText,
		},
	}
}

// Load reads configuration from the YAML file at path on top of defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}

	return cfg, nil
}

// Parse reads configuration from YAML data on top of defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}

	for i, m := range cfg.Markers {
		if m.Func.IsZero() {
			return nil, fmt.Errorf("marker #%d: func is required", i)
		}
		if m.Kind == MarkerKindInvalid {
			return nil, fmt.Errorf("marker %s: kind is required", m.Func)
		}
	}

	return cfg, nil
}

// KnownMarkers returns marker functions: predefined ones merged with configured.
func (c *Config) KnownMarkers() map[Reference]MarkerKind {
	predefined := map[Reference]MarkerKind{
		{Package: RuntimePackage, Name: "Counter"}:    MarkerKindCounter,
		{Package: RuntimePackage, Name: "Expression"}: MarkerKindExpression,
	}

	custom := make(map[Reference]MarkerKind, len(c.Markers))
	for _, m := range c.Markers {
		custom[m.Func] = m.Kind
	}

	// Configured markers take precedence over predefined ones.
	known := maps.Clone(predefined)
	maps.Insert(known, maps.All(custom))

	return known
}

// MarkerKind describes what a marker call stands for.
type MarkerKind int

const (
	MarkerKindInvalid MarkerKind = iota

	// MarkerKindCounter is a counter increment, the argument is the counter ID.
	MarkerKindCounter

	// MarkerKindExpression is an expression use, the argument is the expression ID.
	MarkerKindExpression
)

var markerKindValueMap = map[MarkerKind]string{
	MarkerKindCounter:    "counter",
	MarkerKindExpression: "expression",
}

func (k MarkerKind) String() string {
	v, ok := markerKindValueMap[k]
	if !ok {
		return fmt.Sprintf("invalid(%d)", k)
	}

	return v
}

var _ encoding.TextUnmarshaler = (*MarkerKind)(nil)

// UnmarshalText for setting values with configs, CLI, etc.
func (k *MarkerKind) UnmarshalText(rawtext []byte) error {
	text := string(rawtext)
	for key, v := range markerKindValueMap {
		if v == text {
			*k = key
			return nil
		}
	}

	return fmt.Errorf("unknown marker kind %q", text)
}
