package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "publish.concurrency")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// ValidPublishModes returns the list of valid publish modes
func ValidPublishModes() []string {
	return []string{"command", "registry", "dry-run"}
}

// ValidViewModes returns the list of valid display modes
func ValidViewModes() []string {
	return []string{"window", "all"}
}

// ValidFilters returns the list of valid display filters
func ValidFilters() []string {
	return []string{"all", "active", "failed"}
}

// Validate checks the Config for invalid values and returns all validation
// errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validatePublish()...)
	errors = append(errors, c.validateRegistry()...)
	errors = append(errors, c.validateLogging()...)
	errors = append(errors, c.validateUI()...)

	return errors
}

// validatePublish validates the PublishConfig
func (c *Config) validatePublish() []ValidationError {
	var errors []ValidationError

	if c.Publish.Concurrency < 1 {
		errors = append(errors, ValidationError{
			Field:   "publish.concurrency",
			Value:   c.Publish.Concurrency,
			Message: "must be at least 1",
		})
	}
	if !slices.Contains(ValidPublishModes(), c.Publish.Mode) {
		errors = append(errors, ValidationError{
			Field:   "publish.mode",
			Value:   c.Publish.Mode,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidPublishModes(), ", ")),
		})
	}
	if c.Publish.Mode == "command" && strings.TrimSpace(c.Publish.Command) == "" {
		errors = append(errors, ValidationError{
			Field:   "publish.command",
			Value:   c.Publish.Command,
			Message: "must be set in command mode",
		})
	}
	if c.Publish.MaxRetries < 0 {
		errors = append(errors, ValidationError{
			Field:   "publish.max_retries",
			Value:   c.Publish.MaxRetries,
			Message: "must be non-negative",
		})
	}
	if c.Publish.RetryBaseDelayMs < 0 {
		errors = append(errors, ValidationError{
			Field:   "publish.retry_base_delay_ms",
			Value:   c.Publish.RetryBaseDelayMs,
			Message: "must be non-negative",
		})
	}

	return errors
}

// validateRegistry validates the RegistryConfig
func (c *Config) validateRegistry() []ValidationError {
	var errors []ValidationError

	if c.Publish.Mode == "registry" && c.Registry.URL == "" {
		errors = append(errors, ValidationError{
			Field:   "registry.url",
			Value:   c.Registry.URL,
			Message: "must be set in registry mode",
		})
	}
	if c.Registry.URL != "" {
		if u, err := url.Parse(c.Registry.URL); err != nil || u.Scheme == "" || u.Host == "" {
			errors = append(errors, ValidationError{
				Field:   "registry.url",
				Value:   c.Registry.URL,
				Message: "must be an absolute URL",
			})
		}
	}
	if c.Registry.TimeoutSeconds < 1 {
		errors = append(errors, ValidationError{
			Field:   "registry.timeout_seconds",
			Value:   c.Registry.TimeoutSeconds,
			Message: "must be at least 1",
		})
	}

	return errors
}

// validateLogging validates the LoggingConfig
func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if !slices.Contains(ValidLogLevels(), c.Logging.Level) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}
	if c.Logging.MaxSizeMB < 1 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_size_mb",
			Value:   c.Logging.MaxSizeMB,
			Message: "must be at least 1",
		})
	}
	if c.Logging.MaxBackups < 0 {
		errors = append(errors, ValidationError{
			Field:   "logging.max_backups",
			Value:   c.Logging.MaxBackups,
			Message: "must be non-negative",
		})
	}

	return errors
}

// validateUI validates the UIConfig
func (c *Config) validateUI() []ValidationError {
	var errors []ValidationError

	if !slices.Contains(ValidViewModes(), c.UI.ViewMode) {
		errors = append(errors, ValidationError{
			Field:   "ui.view_mode",
			Value:   c.UI.ViewMode,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidViewModes(), ", ")),
		})
	}
	if !slices.Contains(ValidFilters(), c.UI.Filter) {
		errors = append(errors, ValidationError{
			Field:   "ui.filter",
			Value:   c.UI.Filter,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidFilters(), ", ")),
		})
	}
	if c.UI.WindowSize < 1 {
		errors = append(errors, ValidationError{
			Field:   "ui.window_size",
			Value:   c.UI.WindowSize,
			Message: "must be at least 1",
		})
	}

	return errors
}
