package lock

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/cmlabs-hris/hours-report/internal/domain/monthly"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileLocker_Exclusive(t *testing.T) {
	ctx := context.Background()
	key := filepath.Join(t.TempDir(), "2024", "2024-03.xlsx")

	first := NewFileLocker(time.Second)
	held, err := first.Acquire(ctx, key)
	require.NoError(t, err)

	second := NewFileLocker(150 * time.Millisecond)
	second.retryDelay = 20 * time.Millisecond
	_, err = second.Acquire(ctx, key)
	assert.ErrorIs(t, err, monthly.ErrSheetLocked)

	require.NoError(t, held.Release(ctx))

	again, err := second.Acquire(ctx, key)
	require.NoError(t, err)
	require.NoError(t, again.Release(ctx))
}

func TestAdvisoryKey_Stable(t *testing.T) {
	a := AdvisoryKey("/data/2024/03-Março/2024-03.xlsx")
	b := AdvisoryKey("/data/2024/03-Março/2024-03.xlsx")
	c := AdvisoryKey("/data/2024/04-Abril/2024-04.xlsx")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}
