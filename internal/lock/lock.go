// Package lock keeps a single dashboard instance per project root.
package lock

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gofrs/flock"

	"github.com/harshul/stackdash/internal/errors"
)

// FileName is the lock file created in the project root.
const FileName = ".stackdash.lock"

// Lock is an advisory file lock held for the lifetime of a dashboard.
type Lock struct {
	path string
	fl   *flock.Flock
}

// Path returns the lock file path for root.
func Path(root string) string {
	return filepath.Join(root, FileName)
}

// Acquire takes the lock for root without blocking. It fails with a LOCK
// error when another process holds it.
func Acquire(root string) (*Lock, error) {
	path := Path(root)
	fl := flock.New(path)

	ok, err := fl.TryLock()
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrLock,
			"Cannot create lock file "+path,
			"Check write permissions on the project directory or pass --no-lock")
	}
	if !ok {
		return nil, errors.New(errors.ErrLock,
			"Another stackdash instance is already running for this project",
			"Close the other dashboard, or pass --no-lock to skip this check")
	}

	// Record the holder for humans inspecting the file.
	_ = os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())+"\n"), 0o644)

	return &Lock{path: path, fl: fl}, nil
}

// Release unlocks and removes the lock file.
func (l *Lock) Release() error {
	if l == nil || l.fl == nil {
		return nil
	}
	err := l.fl.Unlock()
	l.fl = nil
	_ = os.Remove(l.path)
	if err != nil {
		return fmt.Errorf("release lock %s: %w", l.path, err)
	}
	return nil
}
