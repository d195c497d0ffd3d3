package errors

// Common error codes
const (
	// System errors
	ErrInternal        ErrorCode = "internal_error"
	ErrInvalidArgument ErrorCode = "invalid_argument"
	ErrAlreadyRunning  ErrorCode = "already_running"

	// Source errors. Every adapter failure maps to one of these and is
	// treated as "no update this cycle" by the orchestrator.
	ErrSourceUnavailable ErrorCode = "source_unavailable"
	ErrPermissionDenied  ErrorCode = "permission_denied"
	ErrMalformedResponse ErrorCode = "malformed_response"

	// Configuration errors
	ErrInvalidConfig   ErrorCode = "invalid_configuration"
	ErrReadConfig      ErrorCode = "read_config_failed"
	ErrBindFlags       ErrorCode = "bind_flags_failed"
	ErrInvalidInterval ErrorCode = "invalid_interval"
	ErrInvalidLogLevel ErrorCode = "invalid_log_level"

	// Lifecycle errors
	ErrInitFailed     ErrorCode = "initialization_failed"
	ErrShutdownFailed ErrorCode = "shutdown_failed"
	ErrTimeout        ErrorCode = "operation_timeout"
)

// Common error messages
var errorMessages = map[ErrorCode]string{
	ErrInternal:          "Internal error occurred",
	ErrInvalidArgument:   "Invalid argument provided",
	ErrAlreadyRunning:    "Another instance is already running",
	ErrSourceUnavailable: "Data source unavailable",
	ErrPermissionDenied:  "Permission denied",
	ErrMalformedResponse: "Malformed response from data source",
	ErrInvalidConfig:     "Invalid configuration",
	ErrReadConfig:        "Failed to read configuration",
	ErrBindFlags:         "Failed to bind flags",
	ErrInvalidInterval:   "Invalid interval value",
	ErrInvalidLogLevel:   "Invalid log level",
	ErrInitFailed:        "Initialization failed",
	ErrShutdownFailed:    "Shutdown failed",
	ErrTimeout:           "Operation timed out",
}

// GetErrorMessage returns the message for a given error code
func GetErrorMessage(code ErrorCode) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}

	return string(code)
}
