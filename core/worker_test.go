package core

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestWorkerPool_ProcessesAllSubmittedTasks(t *testing.T) {
	pool := NewWorkerPool(context.Background(), 4, 32, zap.NewNop().Sugar())
	pool.Start()
	defer pool.Stop()

	var counter int64
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			atomic.AddInt64(&counter, 1)
		})
		require.NoError(t, err)
	}
	wg.Wait()
	assert.Equal(t, int64(20), atomic.LoadInt64(&counter))
}

func TestWorkerPool_SubmitBeforeStartFails(t *testing.T) {
	pool := NewWorkerPool(context.Background(), 2, 4, zap.NewNop().Sugar())
	err := pool.Submit(func() {})
	assert.ErrorIs(t, err, ErrWorkerPoolNotRunning)
}

func TestWorkerPool_RecoversFromPanickingTask(t *testing.T) {
	pool := NewWorkerPool(context.Background(), 1, 4, zap.NewNop().Sugar())
	pool.Start()
	defer pool.Stop()

	var wg sync.WaitGroup
	wg.Add(2)
	require.NoError(t, pool.Submit(func() {
		defer wg.Done()
		panic("boom")
	}))

	done := make(chan struct{})
	require.NoError(t, pool.Submit(func() {
		defer wg.Done()
		close(done)
	}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("pool did not survive a panicking task")
	}
	wg.Wait()
}

func TestWorkerPool_StopIsIdempotent(t *testing.T) {
	pool := NewWorkerPool(context.Background(), 2, 4, zap.NewNop().Sugar())
	pool.Start()
	pool.Stop()
	pool.Stop()

	err := pool.Submit(func() {})
	assert.Error(t, err)
}
