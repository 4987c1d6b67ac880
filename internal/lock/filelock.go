// Package lock holds an advisory exclusive lock on a note file for the span
// of one read-modify-write cycle.
package lock

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

var (
	// ErrReleased is returned when a released lock is used
	ErrReleased = errors.New("lock already released")

	// ErrBusy is returned by TryUpdate while another descriptor holds the lock
	ErrBusy = errors.New("file is locked by another process")
)

// FileLock is an exclusive flock on an existing file. Reads and writes go
// through the locked descriptor.
type FileLock struct {
	file     *os.File
	released bool
	mu       sync.Mutex
}

// Acquire opens path for read/write and blocks until an exclusive lock is held.
// The file must already exist; notes are never created here.
func Acquire(path string) (*FileLock, error) {
	return acquire(path, unix.LOCK_EX)
}

// TryAcquire is Acquire without blocking. Returns nil, nil if another
// descriptor holds the lock.
func TryAcquire(path string) (*FileLock, error) {
	fl, err := acquire(path, unix.LOCK_EX|unix.LOCK_NB)
	if errors.Is(err, unix.EWOULDBLOCK) {
		return nil, nil
	}
	return fl, err
}

func acquire(path string, how int) (*FileLock, error) {
	file, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}

	if err := unix.Flock(int(file.Fd()), how); err != nil {
		file.Close()
		return nil, fmt.Errorf("flock %s: %w", path, err)
	}

	return &FileLock{file: file}, nil
}

// ReadAll returns the full contents of the locked file
func (l *FileLock) ReadAll() ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.released {
		return nil, ErrReleased
	}
	if _, err := l.file.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	return io.ReadAll(l.file)
}

// Replace truncates the locked file and writes data in full
func (l *FileLock) Replace(data []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.released {
		return ErrReleased
	}
	if err := l.file.Truncate(0); err != nil {
		return err
	}
	if _, err := l.file.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if _, err := l.file.Write(data); err != nil {
		return err
	}
	return l.file.Sync()
}

// Release releases the lock and closes the file
func (l *FileLock) Release() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.released {
		return nil
	}

	l.released = true

	if err := unix.Flock(int(l.file.Fd()), unix.LOCK_UN); err != nil {
		l.file.Close()
		return err
	}

	return l.file.Close()
}

// Update runs one locked read-modify-write cycle on path. fn receives the
// current contents and returns the replacement; if fn fails nothing is written.
func Update(path string, fn func(content string) (string, error)) error {
	fl, err := Acquire(path)
	if err != nil {
		return err
	}
	defer fl.Release()

	return rewrite(fl, path, fn)
}

// TryUpdate is Update without waiting: it fails with ErrBusy when another
// descriptor already holds the lock.
func TryUpdate(path string, fn func(content string) (string, error)) error {
	fl, err := TryAcquire(path)
	if err != nil {
		return err
	}
	if fl == nil {
		return fmt.Errorf("%s: %w", path, ErrBusy)
	}
	defer fl.Release()

	return rewrite(fl, path, fn)
}

func rewrite(fl *FileLock, path string, fn func(content string) (string, error)) error {
	data, err := fl.ReadAll()
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	updated, err := fn(string(data))
	if err != nil {
		return err
	}

	if err := fl.Replace([]byte(updated)); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
