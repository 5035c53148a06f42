package build

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/kerf/pkg/engine"
	"github.com/chazu/kerf/pkg/geom"
	"github.com/chazu/kerf/pkg/selector"
)

// fakeEval scans and evaluates without an interpreter. eval is called for
// every Evaluate; by default it returns one cube.
type fakeEval struct {
	mu      sync.Mutex
	defs    []engine.ParamDef
	scanErr error
	eval    func(ctx context.Context, req engine.Request) (geom.Sequence, error)
	calls   atomic.Int32
	reqs    []engine.Request
}

func (f *fakeEval) Scan(string, ...string) ([]engine.ParamDef, error) {
	return f.defs, f.scanErr
}

func (f *fakeEval) Evaluate(ctx context.Context, req engine.Request) (geom.Sequence, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	fn := f.eval
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, req)
	}
	c, err := geom.Cube(v3.Vec{X: 1, Y: 1, Z: 1}, false)
	if err != nil {
		return nil, err
	}
	return geom.Sequence{c}, nil
}

func (f *fakeEval) lastRequest() engine.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reqs[len(f.reqs)-1]
}

// blocking returns an eval func that signals started and then waits for
// release. With honorCtx it also returns on cancellation.
func blocking(started chan<- struct{}, release <-chan struct{}, honorCtx bool) func(context.Context, engine.Request) (geom.Sequence, error) {
	return func(ctx context.Context, _ engine.Request) (geom.Sequence, error) {
		started <- struct{}{}
		if honorCtx {
			select {
			case <-release:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		} else {
			<-release
		}
		return geom.Sequence{geom.EmptySolid()}, nil
	}
}

func collect(c *Controller) <-chan Event {
	ch := make(chan Event, 16)
	c.OnResult(func(e Event) { ch <- e })
	return ch
}

func next(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func TestSyncBuildSucceeds(t *testing.T) {
	ev := &fakeEval{}
	c := NewController(ev, WithAsync(false))
	events := collect(c)

	assert.Equal(t, Idle, c.State())
	assert.Equal(t, StatusIdle, c.Status())

	require.NoError(t, c.Submit("(cube)"))
	e := next(t, events)
	assert.Equal(t, Succeeded, e.State)
	assert.Equal(t, StatusReady, e.Status)
	assert.Equal(t, uint64(1), e.Generation)
	assert.Len(t, e.Objects, 1)
	assert.Empty(t, e.Report())

	assert.Equal(t, Succeeded, c.State())
	assert.Len(t, c.Objects(), 1)
	assert.Equal(t, "(cube)", c.Script())
}

func TestAsyncBuildSucceeds(t *testing.T) {
	ev := &fakeEval{}
	c := NewController(ev)
	defer c.Close()
	events := collect(c)

	require.NoError(t, c.Submit("(cube)"))
	e := next(t, events)
	assert.Equal(t, Succeeded, e.State)
	assert.Equal(t, int32(1), ev.calls.Load())
}

func TestScriptErrorLeavesStateUntouched(t *testing.T) {
	ev := &fakeEval{}
	c := NewController(ev, WithAsync(false))
	events := collect(c)

	ev.scanErr = &engine.ScriptError{Line: 2, Message: "bad param"}
	err := c.Submit("(param)")
	var se *engine.ScriptError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, Idle, c.State())
	assert.Equal(t, int32(0), ev.calls.Load())
	assert.Empty(t, events)

	// after a success the terminal state is kept as well
	ev.scanErr = nil
	require.NoError(t, c.Submit("(cube)"))
	next(t, events)
	ev.scanErr = errors.New("plain failure")
	err = c.Submit("(oops")
	require.True(t, errors.As(err, &se), "scan errors are reported as script errors")
	assert.Equal(t, Succeeded, c.State())
	assert.Equal(t, "(cube)", c.Script())
	assert.Equal(t, uint64(1), c.Generation())
}

func TestCancelDiscardsLateResult(t *testing.T) {
	started, release := make(chan struct{}, 1), make(chan struct{})
	ev := &fakeEval{eval: blocking(started, release, false)}
	c := NewController(ev, WithSync(false))
	events := collect(c)

	require.NoError(t, c.Submit("(cube)"))
	<-started
	assert.Equal(t, Running, c.State())
	assert.Equal(t, StatusRendering, c.Status())

	require.True(t, c.Cancel())
	e := next(t, events)
	assert.Equal(t, Failed, e.State)
	assert.Equal(t, StatusAborted, e.Status)
	assert.ErrorIs(t, e.Err, ErrCancelled)

	// the terminated unit reports anyway; its result is ignored
	close(release)
	c.Close()
	assert.Never(t, func() bool { return len(events) > 0 }, 100*time.Millisecond, 10*time.Millisecond)
	assert.Equal(t, Failed, c.State())
	assert.Equal(t, StatusAborted, c.Status())
	assert.False(t, c.Cancel(), "nothing left to cancel")
}

func TestSubmitCancelsRunningBuild(t *testing.T) {
	started, release := make(chan struct{}, 1), make(chan struct{})
	// the first evaluation ignores cancellation and keeps running
	ev := &fakeEval{eval: blocking(started, release, false)}
	c := NewController(ev, WithSync(false))
	defer c.Close()
	defer close(release)
	events := collect(c)

	require.NoError(t, c.Submit("(first)"))
	<-started

	ev.mu.Lock()
	ev.eval = nil
	ev.mu.Unlock()
	require.NoError(t, c.Submit("(second)"))

	first := next(t, events)
	assert.Equal(t, uint64(1), first.Generation)
	assert.Equal(t, StatusAborted, first.Status)

	second := next(t, events)
	assert.Equal(t, uint64(2), second.Generation)
	assert.Equal(t, Succeeded, second.State)
	assert.NoError(t, second.Err)
}

func TestEventsFollowCompletionOrder(t *testing.T) {
	sel := selector.New()
	entered, proceed := make(chan struct{}), make(chan struct{})
	var calls atomic.Int32
	var ranges []selector.Range
	sel.OnChange(func(r selector.Range, _ geom.Sequence) {
		ranges = append(ranges, r)
		if calls.Add(1) == 1 {
			close(entered)
			<-proceed
		}
	})

	ev := &fakeEval{eval: func(_ context.Context, req engine.Request) (geom.Sequence, error) {
		if req.Source == "(one)" {
			return geom.Sequence{geom.EmptySolid()}, nil
		}
		return geom.Sequence{geom.EmptySolid(), geom.EmptySolid()}, nil
	}}
	c := NewController(ev, WithSync(false), WithPool(NewWorkerPool(ev, 2)), WithSelector(sel))
	defer c.Close()
	events := collect(c)

	require.NoError(t, c.Submit("(one)"))
	<-entered

	// the second build finishes while the first is still being delivered
	require.NoError(t, c.Submit("(two)"))
	require.Eventually(t, func() bool {
		return c.Generation() == 2 && c.State() == Succeeded
	}, 2*time.Second, 5*time.Millisecond)
	assert.Empty(t, events)
	close(proceed)

	first := next(t, events)
	assert.Equal(t, uint64(1), first.Generation)
	second := next(t, events)
	assert.Equal(t, uint64(2), second.Generation)

	assert.Equal(t, 2, sel.Len())
	assert.Equal(t, []selector.Range{{Start: 0, End: 0}, {Start: 0, End: 1}}, ranges)
}

func TestDispatchFailure(t *testing.T) {
	started, release := make(chan struct{}, 1), make(chan struct{})
	busy := &fakeEval{eval: blocking(started, release, false)}
	pool := NewWorkerPool(busy, 1)
	_, err := pool.Dispatch(context.Background(), engine.Request{})
	require.NoError(t, err)
	<-started
	defer func() {
		close(release)
		pool.Close()
	}()

	t.Run("falls back to sync", func(t *testing.T) {
		ev := &fakeEval{}
		c := NewController(ev, WithPool(pool))
		events := collect(c)
		require.NoError(t, c.Submit("(cube)"))
		e := next(t, events)
		assert.Equal(t, Succeeded, e.State)
		assert.Equal(t, int32(1), ev.calls.Load())
	})

	t.Run("fails without sync", func(t *testing.T) {
		ev := &fakeEval{}
		c := NewController(ev, WithPool(pool), WithSync(false))
		events := collect(c)
		require.NoError(t, c.Submit("(cube)"))
		e := next(t, events)
		assert.Equal(t, Failed, e.State)
		assert.Equal(t, StatusError, e.Status)
		var de *DispatchError
		assert.True(t, errors.As(e.Err, &de))
		assert.Equal(t, int32(0), ev.calls.Load())
	})
}

func TestNoStrategy(t *testing.T) {
	c := NewController(&fakeEval{}, WithAsync(false), WithSync(false))
	events := collect(c)
	require.NoError(t, c.Submit("(cube)"))
	e := next(t, events)
	var de *DispatchError
	assert.True(t, errors.As(e.Err, &de))
}

func TestEvaluationErrorReport(t *testing.T) {
	ev := &fakeEval{eval: func(context.Context, engine.Request) (geom.Sequence, error) {
		return nil, &engine.EvaluationError{Line: 3, Message: "boom", Trace: "goroutine 1"}
	}}
	c := NewController(ev, WithAsync(false))
	events := collect(c)
	require.NoError(t, c.Submit("(boom)"))

	e := next(t, events)
	assert.Equal(t, Failed, e.State)
	assert.Equal(t, StatusError, e.Status)
	assert.Nil(t, e.Objects)
	assert.Equal(t, "line 3: boom\nStack trace:\ngoroutine 1", e.Report())
	assert.Equal(t, e.Err, c.Err())
}

func TestParams(t *testing.T) {
	ev := &fakeEval{defs: []engine.ParamDef{
		{Name: "width", Type: engine.ParamFloat, Initial: 1.0},
		{Name: "label", Type: engine.ParamText, Initial: "a"},
	}}
	c := NewController(ev, WithAsync(false), WithLibraries("(def lib 1)"))
	events := collect(c)

	assert.Error(t, c.Rebuild(), "nothing submitted yet")

	require.NoError(t, c.Submit("(cube)"))
	next(t, events)
	assert.Equal(t, map[string]any{"width": 1.0, "label": "a"}, ev.lastRequest().Params)
	assert.Equal(t, []string{"(def lib 1)"}, ev.lastRequest().Libraries)
	assert.Len(t, c.ParamDefinitions(), 2)

	require.NoError(t, c.SetParam("width", "2.5"))
	var pe *engine.ParamError
	assert.True(t, errors.As(c.SetParam("width", "wide"), &pe))

	require.NoError(t, c.Rebuild())
	e := next(t, events)
	assert.Equal(t, uint64(2), e.Generation)
	assert.Equal(t, 2.5, ev.lastRequest().Params["width"])
	assert.Equal(t, map[string]any{"width": 2.5}, c.Params())
}

func TestInvalidOverrideFailsBuild(t *testing.T) {
	ev := &fakeEval{}
	c := NewController(ev, WithAsync(false))
	events := collect(c)

	// set before the parameter is known, so it is not checked yet
	require.NoError(t, c.SetParam("n", "many"))
	ev.defs = []engine.ParamDef{{Name: "n", Type: engine.ParamInt, Initial: 1}}
	require.NoError(t, c.Submit("(cube)"))

	e := next(t, events)
	assert.Equal(t, Failed, e.State)
	var pe *engine.ParamError
	assert.True(t, errors.As(e.Err, &pe))
	assert.Equal(t, int32(0), ev.calls.Load())
}

func TestTimeout(t *testing.T) {
	started, release := make(chan struct{}, 1), make(chan struct{})
	defer close(release)
	ev := &fakeEval{eval: blocking(started, release, true)}
	c := NewController(ev, WithSync(false))
	stop := WithTimeout(c, 20*time.Millisecond)
	defer stop()
	events := collect(c)

	require.NoError(t, c.Submit("(slow)"))
	e := next(t, events)
	assert.Equal(t, StatusAborted, e.Status)
	assert.ErrorIs(t, e.Err, ErrTimeout)
	assert.ErrorIs(t, e.Err, ErrCancelled)
}

func TestSelectorResetOnSuccess(t *testing.T) {
	sel := selector.New()
	var ranges []selector.Range
	sel.OnChange(func(r selector.Range, _ geom.Sequence) { ranges = append(ranges, r) })

	ev := &fakeEval{eval: func(context.Context, engine.Request) (geom.Sequence, error) {
		return geom.Sequence{geom.EmptySolid(), geom.EmptySolid(), geom.EmptySolid()}, nil
	}}
	c := NewController(ev, WithAsync(false), WithSelector(sel))
	events := collect(c)
	require.NoError(t, c.Submit("(cube)"))
	next(t, events)

	assert.Equal(t, []selector.Range{{Start: 0, End: 2}}, ranges)
}
