package build

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/kerf/pkg/engine"
)

func TestPoolDispatch(t *testing.T) {
	pool := NewWorkerPool(&fakeEval{}, 2)
	task, err := pool.Dispatch(context.Background(), engine.Request{Source: "(cube)"})
	require.NoError(t, err)
	out := <-task.Result()
	assert.NoError(t, out.Err)
	assert.Len(t, out.Objects, 1)
	pool.Close()

	_, err = pool.Dispatch(context.Background(), engine.Request{})
	var de *DispatchError
	require.True(t, errors.As(err, &de))
	assert.Contains(t, de.Error(), "closed")
}

func TestPoolCapacity(t *testing.T) {
	started, release := make(chan struct{}, 2), make(chan struct{})
	pool := NewWorkerPool(&fakeEval{eval: blocking(started, release, false)}, 2)

	for i := 0; i < 2; i++ {
		_, err := pool.Dispatch(context.Background(), engine.Request{})
		require.NoError(t, err)
	}
	_, err := pool.Dispatch(context.Background(), engine.Request{})
	var de *DispatchError
	assert.True(t, errors.As(err, &de))

	close(release)
	pool.Close()
}

func TestTaskTerminate(t *testing.T) {
	started, release := make(chan struct{}, 1), make(chan struct{})
	defer close(release)
	pool := NewWorkerPool(&fakeEval{eval: blocking(started, release, true)}, 1)
	task, err := pool.Dispatch(context.Background(), engine.Request{})
	require.NoError(t, err)
	<-started

	task.Terminate()
	out := <-task.Result()
	assert.ErrorIs(t, out.Err, context.Canceled)
	pool.Close()
}

func TestTerminateFreesWorker(t *testing.T) {
	started, release := make(chan struct{}, 2), make(chan struct{})
	pool := NewWorkerPool(&fakeEval{eval: blocking(started, release, false)}, 1)
	defer pool.Close()
	defer close(release)

	stuck, err := pool.Dispatch(context.Background(), engine.Request{})
	require.NoError(t, err)
	<-started
	stuck.Terminate()
	stuck.Terminate()

	_, err = pool.Dispatch(context.Background(), engine.Request{})
	require.NoError(t, err, "terminated task still holds its worker")
	<-started

	// a repeated Terminate gives back one worker, not two
	_, err = pool.Dispatch(context.Background(), engine.Request{})
	var de *DispatchError
	assert.True(t, errors.As(err, &de))
}
