package providers

import "codeberg.org/mutker/thermosense/internal/errors"

const (
	ErrUnknownProvider = errors.ErrorCode("weather_unknown_provider")
	ErrMissingAPIKey   = errors.ErrorCode("weather_missing_api_key")
)
