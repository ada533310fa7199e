package pid

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"codeberg.org/mutker/hellobakery/internal/errors"
)

const (
	lockFile = "hellobakery.pid"
	lockPerm = 0o600
)

// Lock is held by one bake run per output directory.
type Lock struct {
	path string
}

// Acquire creates the lock file in dir and writes the current process ID to
// it. A lock left behind by a process that is no longer running is taken
// over.
func Acquire(dir string) (*Lock, error) {
	errFactory := errors.New()
	path := filepath.Join(dir, lockFile)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errFactory.Wrap(ErrLockFailed, err)
	}

	for attempt := 0; attempt < 2; attempt++ {
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, lockPerm)
		if err == nil {
			_, werr := f.WriteString(strconv.Itoa(os.Getpid()))
			cerr := f.Close()
			if werr != nil || cerr != nil {
				os.Remove(path)
				return nil, errFactory.Wrap(ErrLockFailed, errors.Join(werr, cerr))
			}
			return &Lock{path: path}, nil
		}
		if !os.IsExist(err) {
			return nil, errFactory.Wrap(ErrLockFailed, err)
		}

		holder, err := readHolder(path)
		if err != nil {
			return nil, err
		}
		if running(holder) {
			return nil, errFactory.WithData(ErrLocked, holder)
		}

		// Stale lock, remove it and retry once.
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return nil, errFactory.Wrap(ErrLockFailed, err)
		}
	}

	return nil, errFactory.New(ErrLocked)
}

// Release removes the lock file. Releasing twice is a no-op.
func (l *Lock) Release() error {
	if l == nil || l.path == "" {
		return nil
	}

	path := l.path
	l.path = ""

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.New().Wrap(ErrLockFailed, err)
	}

	return nil
}

func readHolder(path string) (int, error) {
	errFactory := errors.New()

	data, err := os.ReadFile(path)
	if err != nil {
		return 0, errFactory.Wrap(ErrLockFailed, err)
	}

	holder, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, errFactory.Wrap(ErrStaleHolder, err)
	}

	return holder, nil
}

func running(pid int) bool {
	if pid <= 0 {
		return false
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	return process.Signal(syscall.Signal(0)) == nil
}
