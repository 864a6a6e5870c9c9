package cache

import "fmt"

// ConfigError reports a cache configuration that violates a geometry or
// policy invariant. No cache is constructed when it is returned.
type ConfigError struct {
	Field  string
	Value  string
	Reason string
}

func configError(field, value, reason string) *ConfigError {
	return &ConfigError{Field: field, Value: value, Reason: reason}
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid cache config: %s=%s %s", e.Field, e.Value, e.Reason)
}
