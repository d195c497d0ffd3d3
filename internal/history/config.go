package history

import "codeberg.org/mutker/thermosense/internal/errors"

// memoryDSN keeps the history in process memory. The pool is limited to a
// single connection because every new :memory: connection is a new database.
const memoryDSN = ":memory:"

type Config struct {
	Size int
}

func (c Config) Validate() error {
	errFactory := errors.New()

	if c.Size < 0 {
		return errFactory.WithData(ErrInvalidSize, c.Size)
	}

	return nil
}

// Enabled reports whether points are kept at all.
func (c Config) Enabled() bool {
	return c.Size > 0
}
