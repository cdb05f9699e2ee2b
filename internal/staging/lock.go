package staging

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// LockFileName is the advisory lock guarding a work directory.
const LockFileName = "bytesub.lock"

// ErrLocked reports that another process already owns the work directory.
var ErrLocked = errors.New("another bytesub instance is using the work directory")

// Lock holds exclusive ownership of a work directory. The fixed download and
// normalized audio paths are only safe with a single owner.
type Lock struct {
	lock *flock.Flock
}

// Acquire takes the work directory lock without blocking.
func Acquire(workDir string) (*Lock, error) {
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}
	l := flock.New(LockPath(workDir))
	ok, err := l.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}
	return &Lock{lock: l}, nil
}

// LockPath returns the lock file location for workDir.
func LockPath(workDir string) string {
	return filepath.Join(workDir, LockFileName)
}

// Held reports whether some process currently holds the lock for workDir.
func Held(workDir string) (bool, error) {
	if _, err := os.Stat(LockPath(workDir)); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	probe := flock.New(LockPath(workDir))
	ok, err := probe.TryLock()
	if err != nil {
		return false, err
	}
	if ok {
		_ = probe.Unlock()
		return false, nil
	}
	return true, nil
}

// Release drops the lock.
func (l *Lock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}
