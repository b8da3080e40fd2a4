package gateway

import (
	"errors"
	"fmt"
)

// ConfigErrorKind classifies configuration failures.
type ConfigErrorKind string

const (
	ConfigMissingFile       ConfigErrorKind = "missing_file"
	ConfigMalformed         ConfigErrorKind = "malformed"
	ConfigDanglingReference ConfigErrorKind = "dangling_reference"
	ConfigMissingCredential ConfigErrorKind = "missing_credential"
)

// ConfigError is fatal at load or update time and is surfaced to the caller
// of that operation. It never occurs inside a chat call, which only ever
// sees a complete, validated configuration snapshot.
type ConfigError struct {
	Kind    ConfigErrorKind
	Message string
	Cause   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("gateway: config: %s: %s", e.Kind, e.Message)
}

func (e *ConfigError) Unwrap() error { return e.Cause }

// AsConfigError unwraps err into a *ConfigError.
func AsConfigError(err error) (*ConfigError, bool) {
	var e *ConfigError
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
