// Package config loads the settings of the quill toolchain from YAML.
package config

import (
	"bytes"
	"io"
	"os"
	"runtime"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/quill-lang/quill/internal/types"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the root of a quill.yaml file.
type Config struct {
	Script   ScriptConfig   `yaml:"script"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Log      LogConfig      `yaml:"log"`
}

// ScriptConfig describes how the main body of a script is compiled.
type ScriptConfig struct {
	// ReturnType is the declared return type of the main body.
	ReturnType string `yaml:"return_type"`
	// AutoReturn lets the main body fall off its end without a return.
	AutoReturn bool `yaml:"auto_return"`
}

type AnalysisConfig struct {
	// Workers bounds the number of units analyzed concurrently.
	Workers           int `yaml:"workers"`
	CoercionCacheSize int `yaml:"coercion_cache_size"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "console" or "json"
}

const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

func DefaultConfig() *Config {
	return &Config{
		Script: ScriptConfig{
			ReturnType: "def",
			AutoReturn: true,
		},
		Analysis: AnalysisConfig{
			Workers:           runtime.GOMAXPROCS(0),
			CoercionCacheSize: types.DefaultCoercionCacheSize,
		},
		Log: LogConfig{
			Level:  zerolog.InfoLevel.String(),
			Format: FormatConsole,
		},
	}
}

// Load reads the config file at path. Keys absent from the file keep their
// defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "could not read config")
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

// Parse decodes YAML on top of the defaults and validates the result.
// Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrap(err, "could not decode config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every field of the config.
func (c *Config) Validate() error {
	if c.Script.ReturnType == "" {
		return errors.Wrap(ErrInvalidConfig, "script.return_type must not be empty")
	}
	if c.Analysis.Workers < 1 {
		return errors.Wrapf(ErrInvalidConfig, "analysis.workers must be positive, got %d", c.Analysis.Workers)
	}
	if c.Analysis.CoercionCacheSize < 1 {
		return errors.Wrapf(ErrInvalidConfig, "analysis.coercion_cache_size must be positive, got %d", c.Analysis.CoercionCacheSize)
	}
	if _, err := c.Log.ZerologLevel(); err != nil {
		return err
	}
	switch c.Log.Format {
	case FormatConsole, FormatJSON:
	default:
		return errors.Wrapf(ErrInvalidConfig, "log.format must be %q or %q, got %q", FormatConsole, FormatJSON, c.Log.Format)
	}
	return nil
}

// ZerologLevel parses the configured level.
func (l LogConfig) ZerologLevel() (zerolog.Level, error) {
	level, err := zerolog.ParseLevel(l.Level)
	if err != nil {
		return zerolog.NoLevel, errors.Wrapf(ErrInvalidConfig, "log.level %q", l.Level)
	}
	return level, nil
}

// Logger builds the root logger the config describes, writing to w.
func (l LogConfig) Logger(w io.Writer) (zerolog.Logger, error) {
	level, err := l.ZerologLevel()
	if err != nil {
		return zerolog.Nop(), err
	}
	if l.Format == FormatConsole {
		w = zerolog.ConsoleWriter{Out: w, NoColor: true}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger(), nil
}

// Resolve returns the type named by ReturnType.
func (s ScriptConfig) Resolve(lookup *types.Lookup) (*types.Type, error) {
	t, ok := lookup.Type(s.ReturnType)
	if !ok {
		return nil, errors.Wrapf(ErrInvalidConfig, "script.return_type %q is not a type", s.ReturnType)
	}
	return t, nil
}
