package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/dshills/rewrite/internal/engine"
	"github.com/dshills/rewrite/internal/engine/buffer"
	"github.com/dshills/rewrite/internal/logging"
	"github.com/google/go-cmp/cmp"
)

func noEnv() []string { return nil }

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestLoadNoFile(t *testing.T) {
	cfg, err := NewLoader(WithEnviron(noEnv)).Load("")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("expected defaults (-want +got):\n%s", diff)
	}
}

func TestLoadTOML(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "rewrite.toml")
	content := `
[log]
level = "debug"

[engine]
tab_width = 2
line_ending = "crlf"

[script]
timeout = "250ms"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := NewLoader(WithEnviron(noEnv)).Load(path)
	if err != nil {
		t.Fatal(err)
	}

	want := Default()
	want.Log.Level = "debug"
	want.Engine.TabWidth = 2
	want.Engine.LineEnding = "crlf"
	want.Script.Timeout = "250ms"
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
	if cfg.ScriptTimeout() != 250*time.Millisecond {
		t.Errorf("ScriptTimeout = %v, want 250ms", cfg.ScriptTimeout())
	}
}

func TestLoadYAMLWithEnv(t *testing.T) {
	memfs := fstest.MapFS{
		"rewrite.yml": {Data: []byte("log:\n  format: json\nengine:\n  tab_width: 8\n  read_only: true\n")},
	}
	env := func() []string {
		return []string{
			"REWRITE_ENGINE_TAB_WIDTH=3",
			"REWRITE_SCRIPT_MAX_EDITS=10",
			"HOME=/root",
		}
	}

	cfg, err := NewLoader(WithFS(memfs), WithEnviron(env)).Load("rewrite.yml")
	if err != nil {
		t.Fatal(err)
	}

	want := Default()
	want.Log.Format = "json"
	want.Engine.TabWidth = 3
	want.Engine.ReadOnly = true
	want.Script.MaxEdits = 10
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadErrors(t *testing.T) {
	memfs := fstest.MapFS{
		"unknown.toml":   {Data: []byte("[engine]\ntab_size = 2\n")},
		"invalid.toml":   {Data: []byte("[engine]\ntab_width = 40\nline_ending = \"lfcr\"\n")},
		"broken.toml":    {Data: []byte("[engine\n")},
		"wrongtype.yaml": {Data: []byte("engine:\n  tab_width: wide\n")},
	}
	l := NewLoader(WithFS(memfs), WithEnviron(noEnv))

	t.Run("unknown setting", func(t *testing.T) {
		_, err := l.Load("unknown.toml")
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if verr.Code != ErrCodeUnknownSetting || verr.Path != "engine.tab_size" {
			t.Errorf("unexpected error %+v", verr)
		}
	})

	t.Run("invalid values", func(t *testing.T) {
		_, err := l.Load("invalid.toml")
		if !errors.Is(err, ErrValidationFailed) {
			t.Fatalf("expected validation failure, got %v", err)
		}
		joined, ok := err.(interface{ Unwrap() []error })
		if !ok || len(joined.Unwrap()) != 2 {
			t.Errorf("expected two joined errors, got %v", err)
		}
	})

	t.Run("parse error", func(t *testing.T) {
		if _, err := l.Load("broken.toml"); err == nil || errors.Is(err, ErrValidationFailed) {
			t.Errorf("expected parse error, got %v", err)
		}
	})

	t.Run("wrong type", func(t *testing.T) {
		_, err := l.Load("wrongtype.yaml")
		var verr *ValidationError
		if !errors.As(err, &verr) || verr.Code != ErrCodeTypeMismatch {
			t.Errorf("expected type mismatch, got %v", err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := l.Load("missing.toml"); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("expected not exist, got %v", err)
		}
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		path   string
		code   ValidationErrorCode
	}{
		{"level", func(c *Config) { c.Log.Level = "loud" }, "log.level", ErrCodeInvalidEnum},
		{"format", func(c *Config) { c.Log.Format = "xml" }, "log.format", ErrCodeInvalidEnum},
		{"history", func(c *Config) { c.Engine.MaxHistory = -1 }, "engine.max_history", ErrCodeOutOfRange},
		{"tab width", func(c *Config) { c.Engine.TabWidth = 0 }, "engine.tab_width", ErrCodeOutOfRange},
		{"timeout", func(c *Config) { c.Script.Timeout = "soon" }, "script.timeout", ErrCodeTypeMismatch},
		{"negative timeout", func(c *Config) { c.Script.Timeout = "-1s" }, "script.timeout", ErrCodeOutOfRange},
		{"edits", func(c *Config) { c.Script.MaxEdits = -5 }, "script.max_edits", ErrCodeOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)

			var verr *ValidationError
			if err := cfg.Validate(); !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Path != tt.path || verr.Code != tt.code {
				t.Errorf("got %s/%v, want %s/%v", verr.Path, verr.Code, tt.path, tt.code)
			}
		})
	}
}

func TestEngineOptions(t *testing.T) {
	cfg := Default()
	cfg.Engine.TabWidth = 2
	cfg.Engine.ReadOnly = true

	e := engine.New(cfg.EngineOptions("a\r\nb")...)
	if e.LineEnding() != buffer.LineEndingCRLF {
		t.Errorf("expected detected crlf, got %v", e.LineEnding())
	}
	if e.TabWidth() != 2 || !e.IsReadOnly() {
		t.Error("expected tab width 2 and read-only engine")
	}

	cfg.Engine.LineEnding = "lf"
	cfg.Engine.NormalizeLineEndings = true
	e = engine.New(cfg.EngineOptions("a\r\nb")...)
	if e.Text() != "a\nb" {
		t.Errorf("expected normalized text, got %q", e.Text())
	}
}

func TestLogging(t *testing.T) {
	cfg := Default()
	cfg.Log.Format = "json"
	got := cfg.Logging()
	if got.Format != logging.FormatJSON || got.Level != "info" {
		t.Errorf("unexpected logging config %+v", got)
	}
}
