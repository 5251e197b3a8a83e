package config

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dshills/rewrite/internal/config/loader"
	"github.com/dshills/rewrite/internal/engine"
	"github.com/dshills/rewrite/internal/engine/buffer"
	"github.com/dshills/rewrite/internal/logging"
	"github.com/pelletier/go-toml/v2"
	"github.com/sirupsen/logrus"
)

// EnvPrefix is the prefix of environment variables that override settings.
const EnvPrefix = "REWRITE_"

// Config holds the settings of the rewrite tool.
type Config struct {
	Log    LogConfig    `toml:"log"`
	Engine EngineConfig `toml:"engine"`
	Script ScriptConfig `toml:"script"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `toml:"level"`  // trace, debug, info, warn, error
	Format string `toml:"format"` // text or json
}

// EngineConfig configures the edit engine.
type EngineConfig struct {
	MaxHistory           int    `toml:"max_history"`
	ReadOnly             bool   `toml:"read_only"`
	LineEnding           string `toml:"line_ending"` // lf, crlf, cr; empty detects from content
	NormalizeLineEndings bool   `toml:"normalize_line_endings"`
	TabWidth             int    `toml:"tab_width"`
}

// ScriptConfig configures the Lua script runner.
type ScriptConfig struct {
	Timeout       string `toml:"timeout"`   // Go duration; 0 disables
	MaxEdits      int    `toml:"max_edits"` // 0 means unlimited
	CallStackSize int    `toml:"call_stack_size"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: string(logging.FormatText),
		},
		Engine: EngineConfig{
			MaxHistory: engine.DefaultMaxUndoEntries,
			TabWidth:   engine.DefaultTabWidth,
		},
		Script: ScriptConfig{
			Timeout:       "5s",
			MaxEdits:      100_000,
			CallStackSize: 256,
		},
	}
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithFS sets the file system configuration files are read from.
func WithFS(fs loader.FileSystem) LoaderOption {
	return func(l *Loader) {
		l.fs = fs
	}
}

// WithEnviron sets the environment source. Pass nil to ignore the
// environment.
func WithEnviron(environ func() []string) LoaderOption {
	return func(l *Loader) {
		l.environ = environ
		l.useEnv = environ != nil
	}
}

// Loader builds a Config from defaults, a file and the environment.
type Loader struct {
	fs      loader.FileSystem
	environ func() []string
	useEnv  bool
}

// NewLoader creates a loader reading from the OS.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{fs: loader.DefaultFS(), useEnv: true}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load is shorthand for NewLoader().Load(path).
func Load(path string) (*Config, error) {
	return NewLoader().Load(path)
}

// Load returns the default configuration overridden by the file at path
// and then by REWRITE_* environment variables. An empty path skips the
// file. The result is validated.
func (l *Loader) Load(path string) (*Config, error) {
	merged := make(map[string]any)

	if path != "" {
		src, err := loader.ForPath(l.fs, path)
		if err != nil {
			return nil, err
		}
		file, err := src.Load()
		if err != nil {
			return nil, err
		}
		merged = loader.DeepMerge(merged, file)
	}

	if l.useEnv {
		env := loader.NewEnvLoader(EnvPrefix)
		if l.environ != nil {
			env.WithEnviron(l.environ)
		}
		vars, err := env.Load()
		if err != nil {
			return nil, err
		}
		merged = loader.DeepMerge(merged, vars)
	}

	cfg := Default()
	if err := decode(merged, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decode applies the settings in m on top of cfg. Keys that do not name a
// setting are reported as validation errors.
func decode(m map[string]any, cfg *Config) error {
	if len(m) == 0 {
		return nil
	}
	data, err := toml.Marshal(m)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}

	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	err = dec.Decode(cfg)
	if err == nil {
		return nil
	}

	var strict *toml.StrictMissingError
	if errors.As(err, &strict) {
		errs := make([]error, 0, len(strict.Errors))
		for i := range strict.Errors {
			errs = append(errs, &ValidationError{
				Path:    strings.Join(strict.Errors[i].Key(), "."),
				Message: "unknown setting",
				Code:    ErrCodeUnknownSetting,
			})
		}
		return errors.Join(errs...)
	}

	var derr *toml.DecodeError
	if errors.As(err, &derr) {
		return &ValidationError{
			Path:    strings.Join(derr.Key(), "."),
			Message: derr.Error(),
			Code:    ErrCodeTypeMismatch,
		}
	}
	return &ValidationError{Path: "config", Message: err.Error(), Code: ErrCodeTypeMismatch}
}

// Validate checks every setting and returns all failures joined.
func (c *Config) Validate() error {
	var errs []error
	add := func(path, msg string, value any, code ValidationErrorCode) {
		errs = append(errs, &ValidationError{Path: path, Message: msg, Value: value, Code: code})
	}

	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		add("log.level", "unknown level", c.Log.Level, ErrCodeInvalidEnum)
	}
	switch logging.Format(c.Log.Format) {
	case logging.FormatText, logging.FormatJSON:
	default:
		add("log.format", "must be text or json", c.Log.Format, ErrCodeInvalidEnum)
	}

	if c.Engine.MaxHistory < 0 {
		add("engine.max_history", "must not be negative", c.Engine.MaxHistory, ErrCodeOutOfRange)
	}
	switch strings.ToLower(c.Engine.LineEnding) {
	case "", "lf", "crlf", "cr":
	default:
		add("engine.line_ending", "must be lf, crlf or cr", c.Engine.LineEnding, ErrCodeInvalidEnum)
	}
	if c.Engine.TabWidth < 1 || c.Engine.TabWidth > 16 {
		add("engine.tab_width", "must be between 1 and 16", c.Engine.TabWidth, ErrCodeOutOfRange)
	}

	if d, err := time.ParseDuration(c.Script.Timeout); err != nil {
		add("script.timeout", "invalid duration", c.Script.Timeout, ErrCodeTypeMismatch)
	} else if d < 0 {
		add("script.timeout", "must not be negative", c.Script.Timeout, ErrCodeOutOfRange)
	}
	if c.Script.MaxEdits < 0 {
		add("script.max_edits", "must not be negative", c.Script.MaxEdits, ErrCodeOutOfRange)
	}
	if c.Script.CallStackSize < 0 {
		add("script.call_stack_size", "must not be negative", c.Script.CallStackSize, ErrCodeOutOfRange)
	}

	return errors.Join(errs...)
}

// Logging returns the logging configuration.
func (c *Config) Logging() logging.Config {
	return logging.Config{
		Level:  c.Log.Level,
		Format: logging.Format(c.Log.Format),
	}
}

// EngineOptions converts the engine settings to engine options. content is
// used to detect the line ending when none is configured.
func (c *Config) EngineOptions(content string) []engine.Option {
	le := buffer.DetectLineEnding(content)
	if c.Engine.LineEnding != "" {
		le = buffer.ParseLineEnding(c.Engine.LineEnding)
	}

	opts := []engine.Option{
		engine.WithContent(content),
		engine.WithLineEnding(le),
		engine.WithTabWidth(c.Engine.TabWidth),
		engine.WithMaxUndoEntries(c.Engine.MaxHistory),
	}
	if c.Engine.NormalizeLineEndings {
		opts = append(opts, engine.WithNormalizedLineEndings())
	}
	if c.Engine.ReadOnly {
		opts = append(opts, engine.WithReadOnly())
	}
	return opts
}

// ScriptTimeout returns the script timeout. Validate guarantees it parses.
func (c *Config) ScriptTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Script.Timeout)
	return d
}
