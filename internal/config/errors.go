package config

import (
	"errors"
	"fmt"
)

// ErrInvalidConfiguration indicates a configuration value outside its
// accepted range.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// ParseError is returned when a config file exists but cannot be parsed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return "failed to parse config file " + e.Path + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ConfigError describes a single invalid option.
type ConfigError struct {
	Parameter string
	Value     any
	Err       error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error for %s = %v: %v", e.Parameter, e.Value, e.Err)
}

// Unwrap exposes both the specific reason and ErrInvalidConfiguration.
func (e *ConfigError) Unwrap() []error {
	return []error{ErrInvalidConfiguration, e.Err}
}

// NewConfigError returns a ConfigError for parameter.
func NewConfigError(parameter string, value any, err error) *ConfigError {
	return &ConfigError{Parameter: parameter, Value: value, Err: err}
}
