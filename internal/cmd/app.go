// Package cmd provides CLI command implementations.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"github.com/chazu/kerf/internal/config"
	"github.com/chazu/kerf/internal/output"
	"github.com/chazu/kerf/pkg/build"
	"github.com/chazu/kerf/pkg/engine"
	"github.com/chazu/kerf/pkg/export"
	"github.com/chazu/kerf/pkg/geom"
	"github.com/chazu/kerf/pkg/kernel/sdfx"
	"github.com/chazu/kerf/pkg/selector"
)

// App wires the engine, build controller, selector and exporter for one
// CLI invocation.
type App struct {
	cfg        *config.Config
	libraries  []string
	engine     *engine.Engine
	controller *build.Controller
	selector   *selector.Selector
	exporter   *export.Exporter
	events     chan build.Event
	stop       func()
	logger     *log.Logger
}

// NewApp creates an App from cfg. Library files are read eagerly.
func NewApp(cfg *config.Config) (*App, error) {
	libs := make([]string, 0, len(cfg.Build.Libraries))
	for _, p := range cfg.Build.Libraries {
		src, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("reading library: %w", err)
		}
		libs = append(libs, string(src))
	}

	k := sdfx.New(cfg.Render.MeshCells)
	eng := engine.NewEngine(engine.WithKernel(k), engine.WithLogger(output.Component("engine")))
	sel := selector.New()

	opts := []build.Option{
		build.WithAsync(cfg.Build.Async),
		build.WithSync(cfg.Build.Sync),
		build.WithLibraries(libs...),
		build.WithSelector(sel),
		build.WithLogger(output.Component("build")),
	}
	if cfg.Build.Async {
		opts = append(opts, build.WithPool(build.NewWorkerPool(eng, cfg.Build.Workers)))
	}

	producer := cfg.Export.Producer
	if producer == "" {
		producer = "kerf " + Version
	}

	a := &App{
		cfg:        cfg,
		libraries:  libs,
		engine:     eng,
		controller: build.NewController(eng, opts...),
		selector:   sel,
		exporter: export.New(k,
			export.WithProducer(producer),
			export.WithLogger(output.Component("export"))),
		events: make(chan build.Event, 8),
		stop:   func() {},
		logger: output.Component("kerf"),
	}
	a.controller.OnResult(func(ev build.Event) { a.events <- ev })
	if cfg.Build.Timeout > 0 {
		a.stop = build.WithTimeout(a.controller, cfg.Build.Timeout)
	}
	return a, nil
}

// Run sets the parameter overrides, submits script and waits for the
// terminal event of that build. Cancelling ctx aborts the build.
func (a *App) Run(ctx context.Context, script string, params map[string]any) (build.Event, error) {
	for name, v := range params {
		if err := a.controller.SetParam(name, v); err != nil {
			return build.Event{}, err
		}
	}
	if err := a.controller.Submit(script); err != nil {
		return build.Event{}, err
	}
	a.warnUnknown(params)

	gen := a.controller.Generation()
	for {
		select {
		case ev := <-a.events:
			if ev.Generation == gen {
				return ev, nil
			}
		case <-ctx.Done():
			a.controller.Cancel()
			ctx = context.Background()
		}
	}
}

func (a *App) warnUnknown(params map[string]any) {
	known := map[string]bool{}
	for _, d := range a.controller.ParamDefinitions() {
		known[d.Name] = true
	}
	for name := range params {
		if !known[name] {
			a.logger.Warn("script has no such parameter", "name", name)
		}
	}
}

// Scan returns the parameter definitions of script without building it.
func (a *App) Scan(script string) ([]engine.ParamDef, error) {
	return a.engine.Scan(script, a.libraries...)
}

// Select narrows the selection of the last build. It has no effect when
// the build produced no objects.
func (a *App) Select(start, end int) {
	a.selector.SetRange(start, end)
}

// Selection returns the selected objects of the last build.
func (a *App) Selection() geom.Sequence {
	return a.selector.Slice()
}

// Exporter returns the exporter, bound to the submitted script source.
func (a *App) Exporter() *export.Exporter {
	return a.exporter.WithSource(a.controller.Script())
}

// Close releases the worker pool and the timeout watch.
func (a *App) Close() {
	a.stop()
	a.controller.Close()
}
