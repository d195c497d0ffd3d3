package orchestrator

import "codeberg.org/mutker/thermosense/internal/errors"

const (
	ErrMissingDependency = errors.ErrorCode("orchestrator_missing_dependency")
	ErrStopped           = errors.ErrorCode("orchestrator_stopped")
	ErrAlreadyStarted    = errors.ErrAlreadyRunning
	ErrSchedulerFailed   = errors.ErrInitFailed
)
