package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalRunLock(t *testing.T) {
	ctx := context.Background()
	lock := NewLocalRunLockRepository()

	ok, err := lock.Acquire(ctx, "run-a", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = lock.Acquire(ctx, "run-b", time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, lock.Release(ctx, "run-b"))
	ok, _ = lock.Acquire(ctx, "run-b", time.Hour)
	assert.False(t, ok, "release by a non-owner must not free the lock")

	require.NoError(t, lock.Release(ctx, "run-a"))
	ok, _ = lock.Acquire(ctx, "run-b", time.Hour)
	assert.True(t, ok)
}

func TestLocalRunLockExpires(t *testing.T) {
	ctx := context.Background()
	lock := NewLocalRunLockRepository()

	ok, _ := lock.Acquire(ctx, "run-a", time.Millisecond)
	require.True(t, ok)
	time.Sleep(5 * time.Millisecond)

	ok, _ = lock.Acquire(ctx, "run-b", time.Hour)
	assert.True(t, ok)
}
