// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/avorty/spito-lsp/internal/pathmatch"
)

const (
	// LogLevelDebug logs protocol traffic and refresh details.
	LogLevelDebug LogLevel = "debug"
	// LogLevelInfo logs refreshes and lifecycle events.
	LogLevelInfo LogLevel = "info"
	// LogLevelWarn logs recoverable problems only.
	LogLevelWarn LogLevel = "warn"
	// LogLevelError logs failures only.
	LogLevelError LogLevel = "error"
)

var (
	// ErrInvalidLogLevel is returned when a LogLevel value is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// LogLevel is the minimum severity written to the log.
	LogLevel string

	// InvalidLogLevelError is returned when a LogLevel value is not recognized.
	// It wraps ErrInvalidLogLevel for errors.Is() compatibility.
	InvalidLogLevelError struct {
		Value LogLevel
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors from all sub-components.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the server configuration.
	Config struct {
		// LogLevel is the minimum level written to stderr.
		LogLevel LogLevel `json:"log_level" mapstructure:"log_level"`
		// LanguageIDs are the document language ids completion is served for.
		LanguageIDs []string `json:"language_ids" mapstructure:"language_ids"`
		// Watch configures the configuration file watcher.
		Watch WatchConfig `json:"watch" mapstructure:"watch"`
		// Discovery configures configuration file loading.
		Discovery DiscoveryConfig `json:"discovery" mapstructure:"discovery"`
	}

	// WatchConfig configures the change watcher.
	WatchConfig struct {
		// Debounce coalesces bursts of changes. Zero refreshes on every event.
		Debounce time.Duration `json:"debounce" mapstructure:"debounce"`
		// Ignore lists extra doublestar globs excluded from discovery and watching.
		Ignore []string `json:"ignore" mapstructure:"ignore"`
	}

	// DiscoveryConfig configures the configuration loader.
	DiscoveryConfig struct {
		// MaxParallelReads bounds concurrent file reads. Zero uses GOMAXPROCS.
		MaxParallelReads int `json:"max_parallel_reads" mapstructure:"max_parallel_reads"`
	}
)

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:    LogLevelInfo,
		LanguageIDs: []string{"lua"},
		Watch: WatchConfig{
			Debounce: 0,
			Ignore:   []string{},
		},
		Discovery: DiscoveryConfig{
			MaxParallelReads: 0,
		},
	}
}

// String returns the level name.
func (l LogLevel) String() string { return string(l) }

// Validate returns an error if the level is not one of the defined levels.
func (l LogLevel) Validate() error {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return nil
	default:
		return &InvalidLogLevelError{Value: l}
	}
}

// Error implements the error interface for InvalidLogLevelError.
func (e *InvalidLogLevelError) Error() string {
	return fmt.Sprintf("invalid log level %q (valid: debug, info, warn, error)", e.Value)
}

// Unwrap returns ErrInvalidLogLevel for errors.Is() compatibility.
func (e *InvalidLogLevelError) Unwrap() error { return ErrInvalidLogLevel }

// Validate checks every field that CUE cannot, or that environment
// overrides may have bypassed.
func (c *Config) Validate() error {
	var errs []error
	if err := c.LogLevel.Validate(); err != nil {
		errs = append(errs, err)
	}
	for i, id := range c.LanguageIDs {
		if strings.TrimSpace(id) == "" {
			errs = append(errs, fmt.Errorf("language_ids[%d]: must not be empty", i))
		}
	}
	if c.Watch.Debounce < 0 {
		errs = append(errs, fmt.Errorf("watch.debounce: must not be negative, got %s", c.Watch.Debounce))
	}
	if err := pathmatch.Validate(c.Watch.Ignore, "ignore"); err != nil {
		errs = append(errs, fmt.Errorf("watch.ignore: %w", err))
	}
	if c.Discovery.MaxParallelReads < 0 {
		errs = append(errs, fmt.Errorf("discovery.max_parallel_reads: must not be negative, got %d", c.Discovery.MaxParallelReads))
	}
	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	if len(e.FieldErrors) == 1 {
		return fmt.Sprintf("invalid config: %v", e.FieldErrors[0])
	}
	return fmt.Sprintf("invalid config: %d field error(s): %v", len(e.FieldErrors), errors.Join(e.FieldErrors...))
}

// Unwrap returns ErrInvalidConfig followed by the field errors, so errors.Is
// matches both the category and the specific field failure.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

// ServesLanguage reports whether completion is offered for languageID.
func (c *Config) ServesLanguage(languageID string) bool {
	for _, id := range c.LanguageIDs {
		if strings.EqualFold(id, languageID) {
			return true
		}
	}
	return false
}
