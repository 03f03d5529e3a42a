package session

import (
	"errors"
	"fmt"

	"github.com/gofrs/flock"

	"clipstudio/internal/config"
)

// ErrLocked indicates another clipstudio process holds the editing lock.
var ErrLocked = errors.New("another clipstudio instance is already editing")

// Lock enforces a single live editing session per data directory.
type Lock struct {
	path string
	lock *flock.Flock
}

// NewLock builds the lock for the configured data directory.
func NewLock(cfg *config.Config) *Lock {
	path := cfg.LockPath()
	return &Lock{path: path, lock: flock.New(path)}
}

// Acquire takes the lock without blocking.
func (l *Lock) Acquire() error {
	ok, err := l.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire session lock: %w", err)
	}
	if !ok {
		return ErrLocked
	}
	return nil
}

// Release lets the lock go. Safe to call when not held.
func (l *Lock) Release() error {
	return l.lock.Unlock()
}

// Path returns the lock file path.
func (l *Lock) Path() string { return l.path }
