// Package pid guards headless mode against a second running instance.
package pid

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"codeberg.org/mutker/thermosense/internal/errors"
)

const defaultName = "thermosense.pid"

type File struct {
	path string
}

// Default returns the PID file in the system temp directory.
func Default() File {
	return At(filepath.Join(os.TempDir(), defaultName))
}

func At(path string) File {
	return File{path: path}
}

func (f File) Path() string {
	return f.path
}

// Write records the current process ID. It fails with ErrAlreadyRunning
// when the file names a live process; a stale file is replaced.
func (f File) Write() error {
	errFactory := errors.New()

	if owner, ok := f.owner(); ok && owner != os.Getpid() {
		process, err := os.FindProcess(owner)
		if err == nil && alive(process) {
			return errFactory.WithData(errors.ErrAlreadyRunning, owner)
		}
	}

	if err := os.WriteFile(f.path, []byte(strconv.Itoa(os.Getpid())), 0o600); err != nil {
		return errFactory.Wrap(errors.ErrInternal, err)
	}

	return nil
}

// Remove deletes the PID file if present.
func (f File) Remove() error {
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return errors.New().Wrap(errors.ErrInternal, err)
	}

	return nil
}

func (f File) owner() (int, bool) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return 0, false
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, false
	}

	return pid, true
}

// alive reports whether process exists. EPERM means it exists but belongs
// to another user.
func alive(process *os.Process) bool {
	err := process.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}
