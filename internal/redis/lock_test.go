package redisclient

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocker(t *testing.T) (Locker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisSlotLocker(client, time.Minute), mr
}

func TestWithSlotLockRunsAndReleases(t *testing.T) {
	locker, mr := newTestLocker(t)
	slotID := uuid.New()

	ran := false
	err := locker.WithSlotLock(context.Background(), slotID, func(ctx context.Context) error {
		ran = true
		assert.True(t, mr.Exists("lock:slot:"+slotID.String()))
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
	assert.False(t, mr.Exists("lock:slot:"+slotID.String()), "lock must be released")
}

func TestWithSlotLockContention(t *testing.T) {
	locker, _ := newTestLocker(t)
	slotID := uuid.New()

	err := locker.WithSlotLock(context.Background(), slotID, func(ctx context.Context) error {
		// Re-entering while held must fail, not deadlock.
		inner := locker.WithSlotLock(context.Background(), slotID, func(context.Context) error {
			t.Fatal("critical section entered twice")
			return nil
		})
		assert.ErrorIs(t, inner, ErrLockNotAcquired)
		return nil
	})
	require.NoError(t, err)
}

func TestWithSlotLockIndependentSlots(t *testing.T) {
	locker, _ := newTestLocker(t)

	err := locker.WithSlotLock(context.Background(), uuid.New(), func(ctx context.Context) error {
		return locker.WithSlotLock(ctx, uuid.New(), func(context.Context) error {
			return nil
		})
	})
	require.NoError(t, err)
}

func TestWithSlotLockPropagatesError(t *testing.T) {
	locker, mr := newTestLocker(t)
	slotID := uuid.New()

	wantErr := context.DeadlineExceeded
	err := locker.WithSlotLock(context.Background(), slotID, func(context.Context) error {
		return wantErr
	})
	assert.ErrorIs(t, err, wantErr)
	assert.False(t, mr.Exists("lock:slot:"+slotID.String()), "lock released even on error")
}
