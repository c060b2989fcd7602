// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/avorty/spito-lsp/internal/issue"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if cfg.LogLevel != LogLevelInfo {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, LogLevelInfo)
	}
	if !slices.Equal(cfg.LanguageIDs, []string{"lua"}) {
		t.Errorf("LanguageIDs = %v, want [lua]", cfg.LanguageIDs)
	}
	if cfg.Watch.Debounce != 0 {
		t.Errorf("Watch.Debounce = %v, want 0", cfg.Watch.Debounce)
	}
	if cfg.Discovery.MaxParallelReads != 0 {
		t.Errorf("Discovery.MaxParallelReads = %d, want 0", cfg.Discovery.MaxParallelReads)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestLoad_ReturnsDefaultsWhenNoConfigFile(t *testing.T) {
	t.Parallel()

	cfg, path, err := loadWithOptions(context.Background(), LoadOptions{ConfigDirPath: t.TempDir()})
	if err != nil {
		t.Fatalf("loadWithOptions() error: %v", err)
	}
	if path != "" {
		t.Errorf("resolved path = %q, want empty", path)
	}
	if cfg.LogLevel != LogLevelInfo || !slices.Equal(cfg.LanguageIDs, []string{"lua"}) {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoad_FromConfigDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	want := writeConfig(t, dir, `
log_level: "debug"
language_ids: ["lua", "teal"]
watch: {
	debounce: "250ms"
	ignore: ["build/**"]
}
discovery: max_parallel_reads: 4
`)

	cfg, path, err := loadWithOptions(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("loadWithOptions() error: %v", err)
	}
	if path != want {
		t.Errorf("resolved path = %q, want %q", path, want)
	}
	if cfg.LogLevel != LogLevelDebug {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
	if !slices.Equal(cfg.LanguageIDs, []string{"lua", "teal"}) {
		t.Errorf("LanguageIDs = %v", cfg.LanguageIDs)
	}
	if cfg.Watch.Debounce != 250*time.Millisecond {
		t.Errorf("Watch.Debounce = %v", cfg.Watch.Debounce)
	}
	if !slices.Equal(cfg.Watch.Ignore, []string{"build/**"}) {
		t.Errorf("Watch.Ignore = %v", cfg.Watch.Ignore)
	}
	if cfg.Discovery.MaxParallelReads != 4 {
		t.Errorf("Discovery.MaxParallelReads = %d", cfg.Discovery.MaxParallelReads)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeConfig(t, dir, `log_level: "warn"`+"\n")

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.LogLevel != LogLevelWarn {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
	if !slices.Equal(cfg.LanguageIDs, []string{"lua"}) {
		t.Errorf("LanguageIDs should keep default, got %v", cfg.LanguageIDs)
	}
}

func TestLoad_CustomPath(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, t.TempDir(), `language_ids: ["luau"]`+"\n")
	cfg, resolved, err := loadWithOptions(context.Background(), LoadOptions{
		ConfigFilePath: path,
		ConfigDirPath:  t.TempDir(),
	})
	if err != nil {
		t.Fatalf("loadWithOptions() error: %v", err)
	}
	if resolved != path {
		t.Errorf("resolved = %q, want %q", resolved, path)
	}
	if !slices.Equal(cfg.LanguageIDs, []string{"luau"}) {
		t.Errorf("LanguageIDs = %v", cfg.LanguageIDs)
	}
}

func TestLoad_CustomPath_NotFound_ReturnsError(t *testing.T) {
	t.Parallel()

	missing := filepath.Join(t.TempDir(), "nope.cue")
	_, err := NewProvider().Load(context.Background(), LoadOptions{ConfigFilePath: missing})
	if err == nil {
		t.Fatal("expected error for missing config file")
	}

	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		t.Fatalf("expected *issue.ActionableError, got %T", err)
	}
	if ae.Resource != missing {
		t.Errorf("Resource = %q, want %q", ae.Resource, missing)
	}
	if len(ae.Suggestions) == 0 {
		t.Error("expected suggestions")
	}
}

func TestLoad_SchemaViolations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		wantSub string
	}{
		{name: "unknown log level", content: `log_level: "verbose"`, wantSub: "log_level"},
		{name: "unknown field", content: `colour: "red"`, wantSub: "colour"},
		{name: "bad debounce", content: `watch: debounce: "soon"`, wantSub: "watch.debounce"},
		{name: "negative reads", content: `discovery: max_parallel_reads: -1`, wantSub: "max_parallel_reads"},
		{name: "wrong type", content: `language_ids: "lua"`, wantSub: "language_ids"},
		{name: "syntax error", content: `log_level: [`, wantSub: "config.cue"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			writeConfig(t, dir, tt.content+"\n")
			_, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: dir})
			if err == nil {
				t.Fatal("expected schema error")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q should mention %q", err, tt.wantSub)
			}
		})
	}
}

func TestLoad_InvalidIgnorePattern(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeConfig(t, dir, `watch: ignore: ["[broken"]`+"\n")

	_, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: dir})
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("error = %v, want ErrInvalidConfig", err)
	}
}

func TestLoad_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewProvider().Load(ctx, LoadOptions{ConfigDirPath: t.TempDir()}); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

//nolint:paralleltest // t.Setenv is incompatible with t.Parallel
func TestLoad_EnvironmentOverrides(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `log_level: "warn"`+"\n")

	t.Setenv("SPITO_LSP_LOG_LEVEL", "error")
	t.Setenv("SPITO_LSP_WATCH_DEBOUNCE", "1s")
	t.Setenv("SPITO_LSP_DISCOVERY_MAX_PARALLEL_READS", "2")

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.LogLevel != LogLevelError {
		t.Errorf("LogLevel = %q, want env override", cfg.LogLevel)
	}
	if cfg.Watch.Debounce != time.Second {
		t.Errorf("Watch.Debounce = %v", cfg.Watch.Debounce)
	}
	if cfg.Discovery.MaxParallelReads != 2 {
		t.Errorf("Discovery.MaxParallelReads = %d", cfg.Discovery.MaxParallelReads)
	}
}

//nolint:paralleltest // t.Setenv is incompatible with t.Parallel
func TestLoad_EnvironmentOverrideValidated(t *testing.T) {
	t.Setenv("SPITO_LSP_LOG_LEVEL", "loud")

	_, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: t.TempDir()})
	if !errors.Is(err, ErrInvalidLogLevel) {
		t.Fatalf("error = %v, want ErrInvalidLogLevel", err)
	}
}

func TestProviderPath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	p := NewProvider()

	if got, err := p.Path(LoadOptions{ConfigDirPath: dir}); err != nil || got != "" {
		t.Errorf("Path() without file = %q, %v", got, err)
	}

	want := writeConfig(t, dir, "{}\n")
	if got, err := p.Path(LoadOptions{ConfigDirPath: dir}); err != nil || got != want {
		t.Errorf("Path() = %q, %v; want %q", got, err, want)
	}

	if got, _ := p.Path(LoadOptions{ConfigFilePath: "/x/y.cue", ConfigDirPath: dir}); got != "/x/y.cue" {
		t.Errorf("explicit file should win, got %q", got)
	}
}

func TestDefaultPath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	got, err := DefaultPath(LoadOptions{ConfigDirPath: dir, ConfigFilePath: "/ignored.cue"})
	if err != nil {
		t.Fatalf("DefaultPath() error: %v", err)
	}
	if want := filepath.Join(dir, "config.cue"); got != want {
		t.Errorf("DefaultPath() = %q, want %q", got, want)
	}
}

func TestConfigDir(t *testing.T) {
	t.Parallel()

	dir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() error: %v", err)
	}
	if filepath.Base(dir) != AppName {
		t.Errorf("ConfigDir() = %q, want it to end in %q", dir, AppName)
	}
}

func TestGenerateCUE_RoundTrip(t *testing.T) {
	t.Parallel()

	in := DefaultConfig()
	in.LogLevel = LogLevelDebug
	in.LanguageIDs = []string{"lua", "teal"}
	in.Watch.Debounce = 300 * time.Millisecond
	in.Watch.Ignore = []string{"dist/**"}
	in.Discovery.MaxParallelReads = 8

	dir := t.TempDir()
	writeConfig(t, dir, GenerateCUE(in))

	out, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("generated config failed to load: %v", err)
	}
	if out.LogLevel != in.LogLevel ||
		!slices.Equal(out.LanguageIDs, in.LanguageIDs) ||
		out.Watch.Debounce != in.Watch.Debounce ||
		!slices.Equal(out.Watch.Ignore, in.Watch.Ignore) ||
		out.Discovery.MaxParallelReads != in.Discovery.MaxParallelReads {
		t.Errorf("round trip mismatch:\n in: %+v\nout: %+v", in, out)
	}
}
