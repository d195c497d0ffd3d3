package advisory

import "codeberg.org/mutker/thermosense/internal/errors"

const (
	ErrInvalidReading = errors.ErrorCode("advisory_invalid_reading")
)
