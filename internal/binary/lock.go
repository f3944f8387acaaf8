package binary

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	// StaleLockThreshold is the age after which a cache lock is assumed
	// abandoned by a crashed run.
	StaleLockThreshold = 10 * time.Minute

	lockFileName = "exinstall.lock"
)

// ErrCacheLocked is returned when another installer run holds the tool cache.
var ErrCacheLocked = errors.New("tool cache is locked: another installer may be running")

// cacheLock is an exclusive lock file inside the tool cache directory.
type cacheLock struct {
	path string
	file *os.File
}

// acquireCacheLock creates dir/exinstall.lock with O_EXCL. A lock older than
// StaleLockThreshold is removed and acquisition retried once.
func acquireCacheLock(ctx context.Context, dir string) (*cacheLock, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lockPath := filepath.Join(dir, lockFileName)

	file, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0600)
	if err != nil {
		if !os.IsExist(err) {
			return nil, fmt.Errorf("create lock file: %w", err)
		}
		if stale, _ := isLockStale(lockPath); !stale {
			return nil, ErrCacheLocked
		}
		os.Remove(lockPath)
		file, err = os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0600)
		if err != nil {
			return nil, ErrCacheLocked
		}
	}

	lockData := fmt.Sprintf("pid=%d\ntimestamp=%s\n", os.Getpid(), time.Now().UTC().Format(time.RFC3339))
	if _, err := file.WriteString(lockData); err != nil {
		file.Close()
		os.Remove(lockPath)
		return nil, fmt.Errorf("write lock data: %w", err)
	}

	return &cacheLock{path: lockPath, file: file}, nil
}

// release closes and removes the lock file.
func (l *cacheLock) release() error {
	if l.file != nil {
		l.file.Close()
		l.file = nil
	}
	if l.path != "" {
		if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove lock file: %w", err)
		}
	}
	return nil
}

func isLockStale(lockPath string) (bool, error) {
	info, err := os.Stat(lockPath)
	if err != nil {
		return false, err
	}
	return time.Since(info.ModTime()) > StaleLockThreshold, nil
}
