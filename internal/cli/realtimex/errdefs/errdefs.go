// Package errdefs defines the error kinds surfaced by the provisioning
// flow. Callers match them with errors.As; contextual wrapping on top of
// these uses github.com/pixie-sh/errors-go like the rest of the CLI.
package errdefs

import "fmt"

// ConfigurationError reports a missing or invalid configuration field.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("configuration error: missing required field %q", e.Field)
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

// MissingField returns a ConfigurationError for an absent mandatory field.
func MissingField(field string) *ConfigurationError {
	return &ConfigurationError{Field: field}
}

// InvalidField returns a ConfigurationError for a present but invalid field.
func InvalidField(field, reason string) *ConfigurationError {
	return &ConfigurationError{Field: field, Reason: reason}
}

// PrerequisiteError reports a required binary that was not found on PATH
// (including the bundled binary directories).
type PrerequisiteError struct {
	Binary string
	Hint   string
}

func (e *PrerequisiteError) Error() string {
	if e.Hint == "" {
		return fmt.Sprintf("prerequisite missing: %s", e.Binary)
	}
	return fmt.Sprintf("prerequisite missing: %s (install: %s)", e.Binary, e.Hint)
}

// ProvisioningError reports a failed external toolchain step. The exit
// code of the subprocess is propagated verbatim; no retry is attempted.
type ProvisioningError struct {
	Step     string
	ExitCode int
	Err      error
}

func (e *ProvisioningError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provisioning failed at %s: %v", e.Step, e.Err)
	}
	return fmt.Sprintf("provisioning failed at %s: exit code %d", e.Step, e.ExitCode)
}

func (e *ProvisioningError) Unwrap() error { return e.Err }

// AlreadyExistsError reports a site or schema that is already provisioned
// when no force-reinstall was requested.
type AlreadyExistsError struct {
	Resource string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s already exists (use force reinstall to recreate)", e.Resource)
}
