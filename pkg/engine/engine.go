// Package engine evaluates kerf scripts. It wraps zygomys in a sandboxed
// environment, exposes the geometry DSL as builtins and realizes the
// resulting operation trees into a geom.Sequence.
package engine

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/kerf/pkg/geom"
	"github.com/chazu/kerf/pkg/kernel"
	"github.com/chazu/kerf/pkg/kernel/sdfx"
	"github.com/chazu/kerf/pkg/realize"
)

// ScanTimeout is the hard limit for a parameter scan.
const ScanTimeout = 5 * time.Second

// ScriptError is raised by the parameter scan: the script does not parse
// or declares a malformed parameter. Evaluation never starts.
type ScriptError struct {
	Line    int
	Message string
}

func (e *ScriptError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// EvaluationError is raised while evaluating a script. Trace holds a Go
// stack trace when the interpreter panicked.
type EvaluationError struct {
	Line    int
	Message string
	Trace   string
}

func (e *EvaluationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// Request is an immutable evaluation snapshot.
type Request struct {
	Source   string
	Filename string
	// Params holds resolved parameter values by name.
	Params map[string]any
	// Libraries are sources evaluated before Source, in order.
	Libraries []string
}

// Engine evaluates scripts. It is safe for concurrent use; every call
// runs in a fresh sandbox.
type Engine struct {
	kernel      kernel.Kernel
	logger      *log.Logger
	scanTimeout time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithKernel sets the geometry kernel used for booleans.
func WithKernel(k kernel.Kernel) Option {
	return func(e *Engine) { e.kernel = k }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithScanTimeout overrides ScanTimeout.
func WithScanTimeout(d time.Duration) Option {
	return func(e *Engine) { e.scanTimeout = d }
}

// NewEngine creates an Engine backed by the sdfx kernel unless another
// kernel is given.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{scanTimeout: ScanTimeout}
	for _, o := range opts {
		o(e)
	}
	if e.kernel == nil {
		e.kernel = sdfx.New(0)
	}
	if e.logger == nil {
		e.logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "engine"})
	}
	return e
}

// Kernel returns the geometry kernel the engine realizes with.
func (e *Engine) Kernel() kernel.Kernel { return e.kernel }

type outcome[T any] struct {
	val T
	err error
}

// Scan collects the parameter definitions of source in declaration order.
// Libraries are loaded first so scripts can compute definitions with
// library helpers. Parse failures and malformed definitions are returned
// as *ScriptError; other runtime failures end the scan without error and
// are left for Evaluate to report.
func (e *Engine) Scan(source string, libraries ...string) ([]ParamDef, error) {
	full, offset := assemble(source, libraries)
	ch := make(chan outcome[[]ParamDef], 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- outcome[[]ParamDef]{err: &ScriptError{Message: fmt.Sprintf("panic during scan: %v", r)}}
			}
		}()
		defs, err := e.scan(full, offset)
		ch <- outcome[[]ParamDef]{val: defs, err: err}
	}()

	timer := time.NewTimer(e.scanTimeout)
	defer timer.Stop()
	select {
	case res := <-ch:
		return res.val, res.err
	case <-timer.C:
		// the sandbox goroutine is abandoned and exits when Run returns
		return nil, &ScriptError{Message: fmt.Sprintf("parameter scan timed out after %s", e.scanTimeout)}
	}
}

func (e *Engine) scan(full string, offset int) ([]ParamDef, error) {
	if strings.TrimSpace(full) == "" {
		return nil, nil
	}
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	s := &session{ctx: context.Background(), scanning: true}
	registerBuiltins(env, s)

	if err := env.LoadString(preprocessSource(full)); err != nil {
		line, msg := parseZygomysError(err)
		line, msg = adjustLine(line, offset, msg)
		return nil, &ScriptError{Line: line, Message: msg}
	}
	_, err := env.Run()
	if s.paramErr != nil {
		line := 0
		if err != nil {
			line, _ = parseZygomysError(err)
		}
		line, msg := adjustLine(line, offset, s.paramErr.Error())
		return nil, &ScriptError{Line: line, Message: msg}
	}
	if err != nil {
		e.logger.Debug("scan stopped early", "err", err)
	}
	return s.defs, nil
}

// Evaluate runs req and realizes its result. Objects passed to emit form
// the sequence when there are any; otherwise the value of the last top-level
// form does. Cancelling ctx makes Evaluate return ctx.Err() promptly; the
// interpreter itself stops at the script's next function call.
func (e *Engine) Evaluate(ctx context.Context, req Request) (geom.Sequence, error) {
	full, offset := assemble(req.Source, req.Libraries)
	ch := make(chan outcome[geom.Sequence], 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				if in, ok := r.(interrupt); ok {
					ch <- outcome[geom.Sequence]{err: in.err}
					return
				}
				ch <- outcome[geom.Sequence]{err: &EvaluationError{
					Message: fmt.Sprintf("panic during evaluation: %v", r),
					Trace:   string(debug.Stack()),
				}}
			}
		}()
		seq, err := e.evaluate(ctx, full, offset, req.Params)
		ch <- outcome[geom.Sequence]{val: seq, err: err}
	}()

	select {
	case res := <-ch:
		if res.err == nil {
			e.logger.Debug("evaluated", "file", req.Filename, "objects", len(res.val))
		}
		return res.val, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// interrupt unwinds a running interpreter whose context is done. Pre-call
// hooks cannot return errors.
type interrupt struct{ err error }

func (e *Engine) evaluate(ctx context.Context, full string, offset int, params map[string]any) (geom.Sequence, error) {
	if strings.TrimSpace(full) == "" {
		return geom.Sequence{}, nil
	}
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	s := &session{ctx: ctx, values: params}
	registerBuiltins(env, s)
	env.AddPreHook(func(*zygo.Zlisp, string, []zygo.Sexp) {
		if err := ctx.Err(); err != nil {
			panic(interrupt{err})
		}
	})

	if err := env.LoadString(preprocessSource(full)); err != nil {
		return nil, evaluationError(err, offset)
	}
	last, err := env.Run()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, evaluationError(err, offset)
	}

	ops := s.emitted
	if len(ops) == 0 {
		if op, err := toOperand(last); err == nil && op != nil {
			ops = append(ops, op)
		}
	}
	seq, err := realize.All(ctx, e.kernel, ops)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &EvaluationError{Message: err.Error()}
	}
	return seq, nil
}

// assemble prepends library sources to the script and returns the number
// of lines they occupy.
func assemble(source string, libraries []string) (string, int) {
	if len(libraries) == 0 {
		return source, 0
	}
	var b strings.Builder
	offset := 0
	for _, lib := range libraries {
		b.WriteString(lib)
		if !strings.HasSuffix(lib, "\n") {
			b.WriteByte('\n')
		}
		offset += strings.Count(lib, "\n")
		if !strings.HasSuffix(lib, "\n") {
			offset++
		}
	}
	b.WriteString(source)
	return b.String(), offset
}

// adjustLine maps a line of the assembled source back to the script.
// Lines inside libraries are reported without a line number.
func adjustLine(line, offset int, msg string) (int, string) {
	if offset == 0 || line == 0 {
		return line, msg
	}
	if line <= offset {
		return 0, "in library: " + msg
	}
	return line - offset, msg
}

func evaluationError(err error, offset int) *EvaluationError {
	line, msg := parseZygomysError(err)
	line, msg = adjustLine(line, offset, msg)
	return &EvaluationError{Line: line, Message: msg}
}

// linePattern matches zygomys messages of the form "Error on line N: ...".
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches "line N: ...".
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError extracts a line number and message from a zygomys
// error. The line is 0 when none is present.
func parseZygomysError(err error) (int, string) {
	msg := err.Error()
	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return line, strings.TrimSpace(m[2])
		}
	}
	return 0, strings.TrimSpace(msg)
}
