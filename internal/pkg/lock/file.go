// Package lock provides exclusive access to a monthly workbook across
// concurrent runs of the job.
package lock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/cmlabs-hris/hours-report/internal/domain/monthly"
	"github.com/gofrs/flock"
)

const defaultRetryDelay = 100 * time.Millisecond

// FileLocker takes an OS-level lock on "<key>.lock". The key is expected to be
// the workbook path.
type FileLocker struct {
	timeout    time.Duration
	retryDelay time.Duration
}

func NewFileLocker(timeout time.Duration) *FileLocker {
	return &FileLocker{timeout: timeout, retryDelay: defaultRetryDelay}
}

type fileLock struct {
	fl *flock.Flock
}

func (l *FileLocker) Acquire(ctx context.Context, key string) (monthly.Lock, error) {
	path := key + ".lock"
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	fl := flock.New(path)
	locked, err := fl.TryLockContext(ctx, l.retryDelay)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s", monthly.ErrSheetLocked, path)
		}
		return nil, fmt.Errorf("failed to lock %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", monthly.ErrSheetLocked, path)
	}

	slog.Debug("Workbook lock acquired", "stage", "reconcile", "lock", path)
	return &fileLock{fl: fl}, nil
}

func (l *fileLock) Release(ctx context.Context) error {
	if err := l.fl.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock %s: %w", l.fl.Path(), err)
	}
	return nil
}
