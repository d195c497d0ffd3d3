package telemetry

import "codeberg.org/mutker/thermosense/internal/errors"

const (
	// Configuration Errors
	ErrInvalidConfig  = errors.ErrorCode("telemetry_invalid_config")
	ErrInvalidBaseURL = errors.ErrorCode("telemetry_invalid_base_url")

	// Decoding Errors
	ErrMissingField = errors.ErrorCode("telemetry_missing_field")
)
