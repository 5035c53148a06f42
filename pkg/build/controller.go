// Package build drives script builds: it scans parameters, evaluates the
// script on a background worker or synchronously, and reports exactly one
// terminal result per accepted submit.
package build

import (
	"context"
	"errors"
	"maps"
	"os"
	"slices"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/chazu/kerf/pkg/engine"
	"github.com/chazu/kerf/pkg/geom"
	"github.com/chazu/kerf/pkg/selector"
)

// State is the lifecycle state of a Controller.
type State int

const (
	Idle State = iota
	Running
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Status texts reported per state.
const (
	StatusIdle      = "Idle"
	StatusRendering = "Rendering"
	StatusReady     = "Ready."
	StatusError     = "Error."
	StatusAborted   = "Aborted."
)

// Evaluator scans and evaluates scripts. *engine.Engine implements it.
type Evaluator interface {
	Scan(source string, libraries ...string) ([]engine.ParamDef, error)
	Evaluate(ctx context.Context, req engine.Request) (geom.Sequence, error)
}

// Event is a terminal build result.
type Event struct {
	Generation uint64
	State      State
	Status     string
	Objects    geom.Sequence
	Err        error
}

// Report returns the error text, followed by the stack trace when the
// evaluation captured one. It is empty for successful builds.
func (e Event) Report() string {
	if e.Err == nil {
		return ""
	}
	text := e.Err.Error()
	var ee *engine.EvaluationError
	if errors.As(e.Err, &ee) && ee.Trace != "" {
		text += "\nStack trace:\n" + ee.Trace
	}
	return text
}

// Controller runs one build at a time. Submitting while a build runs
// cancels it first. Results carry the generation of their submit and are
// accepted only while that generation is current and still running.
type Controller struct {
	ev        Evaluator
	pool      *WorkerPool
	useAsync  bool
	useSync   bool
	libraries []string
	filename  string
	selector  *selector.Selector
	logger    *log.Logger

	mu        sync.Mutex
	state     State
	status    string
	gen       uint64
	cancel    context.CancelFunc
	task      *Task
	script    string
	hasScript bool
	defs      []engine.ParamDef
	values    map[string]any
	objects   geom.Sequence
	err       error

	observers      []func(Event)
	startObservers []func(gen uint64)

	// terminal events in the order their generations finished
	pending  []delivery
	draining bool
}

type delivery struct {
	ev    Event
	reset bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithAsync enables dispatch to a background worker pool.
func WithAsync(on bool) Option { return func(c *Controller) { c.useAsync = on } }

// WithSync enables synchronous evaluation, directly or as a fallback when
// dispatch fails.
func WithSync(on bool) Option { return func(c *Controller) { c.useSync = on } }

// WithPool sets the worker pool used for asynchronous builds.
func WithPool(p *WorkerPool) Option { return func(c *Controller) { c.pool = p } }

// WithLibraries sets library sources evaluated before every script.
func WithLibraries(libs ...string) Option {
	return func(c *Controller) { c.libraries = slices.Clone(libs) }
}

// WithFilename names the script in requests and logs.
func WithFilename(name string) Option { return func(c *Controller) { c.filename = name } }

// WithSelector resets sel with the objects of every successful build.
func WithSelector(sel *selector.Selector) Option { return func(c *Controller) { c.selector = sel } }

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option { return func(c *Controller) { c.logger = l } }

// NewController creates a controller. Asynchronous and synchronous
// evaluation are both enabled by default; the default pool has one worker.
func NewController(ev Evaluator, opts ...Option) *Controller {
	c := &Controller{
		ev:       ev,
		useAsync: true,
		useSync:  true,
		filename: "script.zy",
		status:   StatusIdle,
		values:   map[string]any{},
	}
	for _, o := range opts {
		o(c)
	}
	if c.useAsync && c.pool == nil {
		c.pool = NewWorkerPool(ev, 1)
	}
	if c.logger == nil {
		c.logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "build"})
	}
	return c
}

// OnResult registers fn for terminal events. Events arrive one at a time in
// the order their builds finished, on a goroutine that finished a build.
// fn must not block.
func (c *Controller) OnResult(fn func(Event)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, fn)
}

// onStart registers fn to run when a generation starts running.
func (c *Controller) onStart(fn func(gen uint64)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.startObservers = append(c.startObservers, fn)
}

// Submit cancels any running build, scans script for parameters and starts
// a new build. A *engine.ScriptError from the scan is returned and leaves
// the state unchanged; no build starts.
func (c *Controller) Submit(script string) error {
	c.Cancel()

	defs, err := c.ev.Scan(script, c.libraries...)
	if err != nil {
		var se *engine.ScriptError
		if !errors.As(err, &se) {
			err = &engine.ScriptError{Message: err.Error()}
		}
		c.logger.Warn("parameter scan failed", "err", err)
		return err
	}

	c.mu.Lock()
	c.script = script
	c.hasScript = true
	c.defs = defs
	c.mu.Unlock()
	c.start()
	return nil
}

// Rebuild starts a new build of the current script with the current
// parameter values.
func (c *Controller) Rebuild() error {
	c.mu.Lock()
	ok := c.hasScript
	c.mu.Unlock()
	if !ok {
		return errors.New("no script submitted")
	}
	c.Cancel()
	c.start()
	return nil
}

// SetParam overrides the value of a parameter for subsequent builds. The
// value is checked against the last scanned definition when there is one.
func (c *Controller) SetParam(name string, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := slices.IndexFunc(c.defs, func(d engine.ParamDef) bool { return d.Name == name }); i >= 0 {
		v, err := c.defs[i].Coerce(value)
		if err != nil {
			return err
		}
		value = v
	}
	c.values[name] = value
	return nil
}

// ParamDefinitions returns the definitions found by the last scan.
func (c *Controller) ParamDefinitions() []engine.ParamDef {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.defs)
}

// Cancel aborts the running build. It reports whether a build was running.
func (c *Controller) Cancel() bool {
	c.mu.Lock()
	gen := c.gen
	c.mu.Unlock()
	return c.abort(gen, ErrCancelled)
}

// abort fails generation gen with cause if it is still running.
func (c *Controller) abort(gen uint64, cause error) bool {
	c.mu.Lock()
	if gen != c.gen || c.state != Running {
		c.mu.Unlock()
		return false
	}
	c.cancel()
	if c.task != nil {
		c.task.Terminate()
	}
	ev := c.finishLocked(Failed, StatusAborted, nil, cause)
	c.pending = append(c.pending, delivery{ev: ev})
	c.mu.Unlock()

	c.logger.Info("build aborted", "generation", gen, "reason", cause)
	c.drain()
	return true
}

func (c *Controller) start() {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	values, err := engine.ResolveParams(c.defs, c.values)
	if err != nil {
		// parameter values are checked before the build runs
		c.state = Running
		c.cancel = func() {}
		c.mu.Unlock()
		c.complete(gen, nil, err)
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.state = Running
	c.status = StatusRendering
	c.cancel = cancel
	c.task = nil
	req := engine.Request{
		Source:    c.script,
		Filename:  c.filename,
		Params:    values,
		Libraries: slices.Clone(c.libraries),
	}
	starts := slices.Clone(c.startObservers)
	c.mu.Unlock()

	c.logger.Debug("build started", "generation", gen, "params", len(values))
	for _, fn := range starts {
		fn(gen)
	}

	switch {
	case c.useAsync:
		task, err := c.pool.Dispatch(ctx, req)
		if err == nil {
			c.mu.Lock()
			current := gen == c.gen && c.state == Running
			if current {
				c.task = task
			}
			c.mu.Unlock()
			if !current {
				// aborted before the task was recorded
				task.Terminate()
			}
			go func() {
				out := <-task.Result()
				c.complete(gen, out.Objects, out.Err)
			}()
			return
		}
		if !c.useSync {
			c.complete(gen, nil, err)
			return
		}
		c.logger.Warn("falling back to synchronous build", "err", err)
	case !c.useSync:
		c.complete(gen, nil, &DispatchError{Reason: "no execution strategy enabled"})
		return
	}

	seq, err := c.ev.Evaluate(ctx, req)
	c.complete(gen, seq, err)
}

// complete accepts a result for gen if it is still the running generation.
func (c *Controller) complete(gen uint64, seq geom.Sequence, err error) {
	c.mu.Lock()
	if gen != c.gen || c.state != Running {
		c.mu.Unlock()
		c.logger.Debug("discarding stale result", "generation", gen)
		return
	}
	c.cancel()
	var ev Event
	if err != nil {
		ev = c.finishLocked(Failed, StatusError, nil, err)
	} else {
		if seq == nil {
			seq = geom.Sequence{}
		}
		ev = c.finishLocked(Succeeded, StatusReady, seq, nil)
	}
	c.pending = append(c.pending, delivery{ev: ev, reset: err == nil})
	c.mu.Unlock()

	if err != nil {
		c.logger.Error("build failed", "generation", gen, "err", err)
	} else {
		c.logger.Info("build finished", "generation", gen, "objects", len(seq))
	}
	c.drain()
}

// drain delivers pending events outside mu. Only one goroutine drains at a
// time, so the selector and observers see generations in the order they
// finished even when a newer build completes during a callback.
func (c *Controller) drain() {
	c.mu.Lock()
	if c.draining {
		c.mu.Unlock()
		return
	}
	c.draining = true
	for len(c.pending) > 0 {
		d := c.pending[0]
		c.pending = c.pending[1:]
		obs := slices.Clone(c.observers)
		sel := c.selector
		c.mu.Unlock()

		if d.reset && sel != nil {
			sel.Reset(d.ev.Objects)
		}
		notify(obs, d.ev)
		c.mu.Lock()
	}
	c.draining = false
	c.mu.Unlock()
}

// finishLocked moves to a terminal state. mu must be held.
func (c *Controller) finishLocked(state State, status string, seq geom.Sequence, err error) Event {
	c.state = state
	c.status = status
	c.objects = seq
	c.err = err
	c.cancel = nil
	c.task = nil
	return Event{Generation: c.gen, State: state, Status: status, Objects: seq, Err: err}
}

func notify(obs []func(Event), ev Event) {
	for _, fn := range obs {
		fn(ev)
	}
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Status returns the status text of the current state.
func (c *Controller) Status() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Generation returns the generation of the latest build.
func (c *Controller) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// Objects returns the objects of the last successful build, or nil if the
// last build did not succeed.
func (c *Controller) Objects() geom.Sequence {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.objects
}

// Err returns the error of the last failed build.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Script returns the last successfully scanned script.
func (c *Controller) Script() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.script
}

// Params returns a copy of the parameter overrides.
func (c *Controller) Params() map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return maps.Clone(c.values)
}

// Close aborts any running build and shuts the worker pool down.
func (c *Controller) Close() {
	c.Cancel()
	if c.pool != nil {
		c.pool.Close()
	}
}
