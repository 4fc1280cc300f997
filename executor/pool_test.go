package executor

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolAcquireAndRelease(t *testing.T) {
	a, b := &fakeExecutor{}, &fakeExecutor{}
	pool := NewPool(SessionPerStatement, []Executor{a, b})

	lease, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	require.NotNil(t, lease.Executor)
	lease.Release()
	lease.Release() // double release is a safe no-op

	lease2, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	lease2.Release()
}

func TestPoolAcquireBlocksUntilAvailable(t *testing.T) {
	a := &fakeExecutor{}
	pool := NewPool(SessionPerStatement, []Executor{a})

	first, err := pool.Acquire(context.Background())
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		second, err := pool.Acquire(context.Background())
		require.NoError(t, err)
		second.Release()
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("second Acquire should not complete before release")
	case <-time.After(50 * time.Millisecond):
	}

	first.Release()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second Acquire did not complete after release")
	}
}

func TestPoolAcquireRespectsContextCancellation(t *testing.T) {
	pool := NewPool(SessionPerStatement, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := pool.Acquire(ctx)
	require.Error(t, err)
}

func TestPoolCloseDisposesExecutorsAndUnblocksWaiters(t *testing.T) {
	a := &fakeExecutor{}
	pool := NewPool(SessionPerStatement, []Executor{a})

	err := pool.Close(context.Background())
	require.NoError(t, err)
	assert.True(t, a.disposed)

	_, err = pool.Acquire(context.Background())
	require.Error(t, err)
}

func TestPoolMode(t *testing.T) {
	pool := NewPool(Sticky, nil)
	assert.Equal(t, Sticky, pool.Mode())
}

func TestPoolWarmProbesEveryExecutor(t *testing.T) {
	a, b, c := &fakeExecutor{}, &fakeExecutor{}, &fakeExecutor{}
	pool := NewPool(SessionPerStatement, []Executor{a, b, c})

	var probed atomic.Int64
	err := pool.Warm(context.Background(), 2, func(ctx context.Context, ex Executor) error {
		probed.Add(1)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), probed.Load())
}
