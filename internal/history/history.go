// Package history keeps the advisory points of the running session in an
// in-memory SQLite database, capped at a configured number of points.
package history

import (
	"context"

	"codeberg.org/mutker/thermosense/internal/errors"
	"codeberg.org/mutker/thermosense/internal/logger"
)

type service struct {
	repo Repository
}

type noopRecorder struct{}

// NewService returns a Recorder for cfg. A size of zero disables history.
func NewService(cfg Config, log logger.Logger) (Recorder, error) {
	errFactory := errors.New()

	if err := cfg.Validate(); err != nil {
		return nil, errFactory.Wrap(ErrInvalidConfig, err)
	}
	if log == nil {
		log = logger.Nop()
	}

	if !cfg.Enabled() {
		log.Debug().Msg("History disabled, using no-op recorder")
		return noopRecorder{}, nil
	}

	repo, err := NewRepository(cfg, log)
	if err != nil {
		return nil, err
	}

	return &service{repo: repo}, nil
}

func (s *service) Record(ctx context.Context, point Point) error {
	errFactory := errors.New()

	select {
	case <-ctx.Done():
		return errFactory.Wrap(ErrOperationTimeout, ctx.Err())
	default:
	}

	if err := s.repo.Insert(point); err != nil {
		return errFactory.Wrap(ErrRecordFailed, err)
	}

	return nil
}

// Recent returns up to n of the newest points, oldest first.
func (s *service) Recent(ctx context.Context, n int) ([]Point, error) {
	errFactory := errors.New()

	if n <= 0 {
		return nil, nil
	}

	select {
	case <-ctx.Done():
		return nil, errFactory.Wrap(ErrOperationTimeout, ctx.Err())
	default:
	}

	return s.repo.Select(n)
}

func (s *service) Close() error {
	if err := s.repo.Close(); err != nil {
		return errors.New().Wrap(ErrStorageClose, err)
	}

	return nil
}

func (noopRecorder) Record(context.Context, Point) error {
	return nil
}

func (noopRecorder) Recent(context.Context, int) ([]Point, error) {
	return nil, nil
}

func (noopRecorder) Close() error {
	return nil
}
