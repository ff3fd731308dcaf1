package lock

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hours-report/internal/domain/monthly"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresLocker uses a session advisory lock, for deployments where the
// workbook directory is shared between hosts.
type PostgresLocker struct {
	pool       *pgxpool.Pool
	timeout    time.Duration
	retryDelay time.Duration
}

func NewPostgresLocker(pool *pgxpool.Pool, timeout time.Duration) *PostgresLocker {
	return &PostgresLocker{pool: pool, timeout: timeout, retryDelay: 250 * time.Millisecond}
}

type advisoryLock struct {
	conn *pgxpool.Conn
	id   int64
}

// AdvisoryKey maps a lock key to the bigint id Postgres expects.
func AdvisoryKey(key string) int64 {
	h := fnv.New64a()
	h.Write([]byte(key))
	return int64(h.Sum64())
}

func (l *PostgresLocker) Acquire(ctx context.Context, key string) (monthly.Lock, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire database connection for lock: %w", err)
	}

	id := AdvisoryKey(key)
	for {
		var locked bool
		err := conn.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", id).Scan(&locked)
		if err != nil {
			conn.Release()
			if errors.Is(err, context.DeadlineExceeded) {
				return nil, fmt.Errorf("%w: %s", monthly.ErrSheetLocked, key)
			}
			return nil, fmt.Errorf("failed to take advisory lock: %w", err)
		}
		if locked {
			slog.Debug("Advisory lock acquired", "stage", "reconcile", "key", key, "id", id)
			return &advisoryLock{conn: conn, id: id}, nil
		}

		select {
		case <-ctx.Done():
			conn.Release()
			return nil, fmt.Errorf("%w: %s", monthly.ErrSheetLocked, key)
		case <-time.After(l.retryDelay):
		}
	}
}

func (l *advisoryLock) Release(ctx context.Context) error {
	defer l.conn.Release()
	if _, err := l.conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", l.id); err != nil {
		return fmt.Errorf("failed to release advisory lock: %w", err)
	}
	return nil
}
