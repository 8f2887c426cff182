package namecache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// lockRetryDelay is how often a blocked LoadLocked retries the lock.
const lockRetryDelay = 100 * time.Millisecond

// LockPath returns the path of the lock file guarding a cache file.
func LockPath(path string) string {
	return path + ".lock"
}

// LoadLocked takes an exclusive lock on the cache file and loads it.
// It waits for the lock until ctx is done. Only one batch per cache
// file may be in flight at a time, across processes.
// Caller must call unlock() if err == nil.
func LoadLocked(ctx context.Context, path string) (*Store, func(), error) {
	// The lock file lives next to the cache, which may not exist yet
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	lock := flock.New(LockPath(path))

	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to acquire cache lock: %w", err)
	}
	if !locked {
		return nil, nil, fmt.Errorf("failed to acquire cache lock: %s is held by another process", LockPath(path))
	}

	// Unlock errors are safe to ignore; the OS drops the lock on exit anyway
	unlock := func() { _ = lock.Unlock() }

	return Load(path), unlock, nil
}
