package daemon

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	log "github.com/go-pkgz/lgr"
)

// ErrLockHeld returned if another consumer already runs for the queue
var ErrLockHeld = errors.New("lock held")

// ErrBadQueueName returned for queue names not usable as lock file name
var ErrBadQueueName = errors.New("bad queue name")

// Lock is an advisory file lock keyed by queue name, one consumer per queue per host.
// The file holds pid of the owner.
type Lock struct {
	path string
	err  error // set for bad queue name, lock can't be acquired
}

// NewLock makes lock for queue in dir, not acquired yet
func NewLock(dir, queue string) *Lock {
	if err := CheckQueueName(queue); err != nil {
		return &Lock{err: err}
	}
	return &Lock{path: filepath.Join(dir, queue)}
}

// CheckQueueName rejects empty names, names with path separators and dot names
func CheckQueueName(queue string) error {
	if strings.TrimSpace(queue) == "" || queue == "." || queue == ".." || strings.ContainsAny(queue, `/\`) {
		return fmt.Errorf("%q: %w", queue, ErrBadQueueName)
	}
	return nil
}

// Path returns location of the lock file
func (l *Lock) Path() string { return l.path }

// Acquire creates lock file, fails with ErrLockHeld if it already exists
func (l *Lock) Acquire() error {
	if l.err != nil {
		return l.err
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0o750); err != nil {
		return fmt.Errorf("can't make lock dir: %w", err)
	}
	fh, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644) //nolint:gosec // lock readable by stop command
	if errors.Is(err, os.ErrExist) {
		return fmt.Errorf("%s: %w", l.path, ErrLockHeld)
	}
	if err != nil {
		return fmt.Errorf("can't create lock %s: %w", l.path, err)
	}
	if _, err := fh.WriteString(strconv.Itoa(os.Getpid())); err != nil {
		_ = fh.Close()
		_ = os.Remove(l.path)
		return fmt.Errorf("can't write lock %s: %w", l.path, err)
	}
	log.Printf("[DEBUG] lock %s acquired", l.path)
	return fh.Close()
}

// Release removes lock file. Missing file is not an error.
func (l *Lock) Release() error {
	if l.err != nil {
		return nil
	}
	if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("can't release lock %s: %w", l.path, err)
	}
	log.Printf("[DEBUG] lock %s released", l.path)
	return nil
}

// Held checks if lock file exists
func (l *Lock) Held() bool {
	if l.err != nil {
		return false
	}
	_, err := os.Stat(l.path)
	return err == nil
}

// PID returns pid of the lock owner
func (l *Lock) PID() (int, error) {
	if l.err != nil {
		return 0, l.err
	}
	data, err := os.ReadFile(l.path)
	if err != nil {
		return 0, fmt.Errorf("can't read lock %s: %w", l.path, err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("no pid in lock %s: %w", l.path, err)
	}
	return pid, nil
}
