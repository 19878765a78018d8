// Package oplc is the root of the algebraic-modeling front-end: the
// project configuration, the language profile, and the sentinel errors
// shared by the CLI driver.
package oplc

import "errors"

var (
	// ErrConfigValidation is returned when oplc.yaml fails validation.
	ErrConfigValidation = errors.New("configuration validation failed")
	// ErrUnknownProfile indicates a profile name that is neither
	// "strict" nor "permissive".
	ErrUnknownProfile = errors.New("unknown language profile")
	// ErrUnknownReportFormat indicates a report format that is neither
	// "text" nor "yaml".
	ErrUnknownReportFormat = errors.New("unknown report format")
)
