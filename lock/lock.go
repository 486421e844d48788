// Package lock serialises the sync and prune runs against a worksheet with an advisory file lock.
package lock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"
)

var ErrLocked = errors.New("locked by another process")

type Lock struct {
	file *os.File
}

// Acquire takes an exclusive, non-blocking flock(2) on the file, creating it if necessary. The lock is
// released by Release or when the process exits.
func Acquire(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0770); err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0660)
	if err != nil {
		return nil, err
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()

		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, fmt.Errorf("%v: %w", path, ErrLocked)
		}

		return nil, err
	}

	if err := f.Truncate(0); err == nil {
		fmt.Fprintf(f, "%d\n", os.Getpid())
	}

	return &Lock{file: f}, nil
}

// Wait retries Acquire with exponential back-off until the lock is acquired or the context is done. A
// context that expires while the lock is still held elsewhere returns an ErrLocked error.
func Wait(ctx context.Context, path string) (*Lock, error) {
	delay := 100 * time.Millisecond

	for {
		l, err := Acquire(path)
		if err == nil || !errors.Is(err, ErrLocked) {
			return l, err
		}

		select {
		case <-ctx.Done():
			return nil, err

		case <-time.After(delay):
			if delay *= 2; delay > 5*time.Second {
				delay = 5 * time.Second
			}
		}
	}
}

func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}

	defer func() {
		l.file = nil
	}()

	if err := unix.Flock(int(l.file.Fd()), unix.LOCK_UN); err != nil {
		l.file.Close()
		return err
	}

	return l.file.Close()
}
