package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_SubmitAndWait(t *testing.T) {
	p := New(2)
	defer p.Close()

	future, err := p.Submit(context.Background(), func(ctx context.Context) (any, error) {
		return 42, nil
	})
	require.NoError(t, err)

	result, err := future.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, result)
}

func TestPool_SubmitPropagatesJobError(t *testing.T) {
	p := New(1)
	defer p.Close()

	wantErr := errors.New("boom")
	future, err := p.Submit(context.Background(), func(ctx context.Context) (any, error) {
		return nil, wantErr
	})
	require.NoError(t, err)

	_, err = future.Wait(context.Background())
	assert.ErrorIs(t, err, wantErr)
}

func TestPool_RunsJobsConcurrentlyUpToSize(t *testing.T) {
	p := New(4)
	defer p.Close()

	var running int32
	var maxSeen int32
	release := make(chan struct{})

	futures := make([]*Future, 4)
	for i := 0; i < 4; i++ {
		f, err := p.Submit(context.Background(), func(ctx context.Context) (any, error) {
			n := atomic.AddInt32(&running, 1)
			for {
				old := atomic.LoadInt32(&maxSeen)
				if n <= old || atomic.CompareAndSwapInt32(&maxSeen, old, n) {
					break
				}
			}
			<-release
			atomic.AddInt32(&running, -1)
			return nil, nil
		})
		require.NoError(t, err)
		futures[i] = f
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	for _, f := range futures {
		_, err := f.Wait(context.Background())
		require.NoError(t, err)
	}

	assert.Equal(t, int32(4), atomic.LoadInt32(&maxSeen))
}

func TestPool_Submit_AfterCloseReturnsErrPoolClosed(t *testing.T) {
	p := New(1)
	p.Close()

	_, err := p.Submit(context.Background(), func(ctx context.Context) (any, error) {
		return nil, nil
	})
	assert.ErrorIs(t, err, ErrPoolClosed)
}

func TestFuture_Wait_ContextCancelledBeforeJobCompletes(t *testing.T) {
	p := New(1)
	defer p.Close()

	block := make(chan struct{})
	future, err := p.Submit(context.Background(), func(ctx context.Context) (any, error) {
		<-block
		return nil, nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = future.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	close(block)
}

func TestPool_Run_JobCancelledBeforeDequeueIsSkipped(t *testing.T) {
	p := New(1)
	defer p.Close()

	jobCtx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	future, err := p.Submit(jobCtx, func(ctx context.Context) (any, error) {
		called = true
		return nil, nil
	})
	require.NoError(t, err)

	_, err = future.Wait(context.Background())
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called, "job body must not run once its context is already cancelled")
}
