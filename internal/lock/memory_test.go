package lock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryLocker_AcquireAndRelease(t *testing.T) {
	ctx := context.Background()
	locker := NewMemoryLocker()
	defer locker.Stop()

	key := Keys.Session("alice")

	acquired, err := locker.Acquire(ctx, key, time.Minute)
	require.NoError(t, err)
	require.True(t, acquired)

	// Held locks cannot be taken again.
	acquired, err = locker.Acquire(ctx, key, time.Minute)
	require.NoError(t, err)
	require.False(t, acquired)

	// Other keys are independent.
	acquired, err = locker.Acquire(ctx, Keys.Session("bob"), time.Minute)
	require.NoError(t, err)
	require.True(t, acquired)

	released, err := locker.Release(ctx, key)
	require.NoError(t, err)
	require.True(t, released)

	acquired, err = locker.Acquire(ctx, key, time.Minute)
	require.NoError(t, err)
	require.True(t, acquired)
}

func TestMemoryLocker_ExpiredLockIsReclaimable(t *testing.T) {
	ctx := context.Background()
	locker := NewMemoryLocker()
	defer locker.Stop()

	key := Keys.Session("alice")

	acquired, err := locker.Acquire(ctx, key, time.Millisecond)
	require.NoError(t, err)
	require.True(t, acquired)

	time.Sleep(5 * time.Millisecond)

	acquired, err = locker.Acquire(ctx, key, time.Minute)
	require.NoError(t, err)
	require.True(t, acquired)
}

func TestMemoryLocker_AcquireWithRetry(t *testing.T) {
	ctx := context.Background()
	locker := NewMemoryLocker()
	defer locker.Stop()

	key := Keys.Session("alice")

	acquired, err := locker.Acquire(ctx, key, 20*time.Millisecond)
	require.NoError(t, err)
	require.True(t, acquired)

	// The retry loop outlasts the holder's TTL and wins the lock.
	acquired, err = locker.AcquireWithRetry(ctx, key, time.Minute, 10, 10*time.Millisecond)
	require.NoError(t, err)
	require.True(t, acquired)
}

func TestMemoryLocker_ReleaseUnheldLock(t *testing.T) {
	ctx := context.Background()
	locker := NewMemoryLocker()
	defer locker.Stop()

	released, err := locker.Release(ctx, Keys.Session("nobody"))
	require.NoError(t, err)
	require.False(t, released)
}

func TestNoOpLocker(t *testing.T) {
	ctx := context.Background()
	locker := NewNoOpLocker()

	acquired, err := locker.Acquire(ctx, "any", time.Minute)
	require.NoError(t, err)
	require.True(t, acquired)

	released, err := locker.Release(ctx, "any")
	require.NoError(t, err)
	require.True(t, released)
}
