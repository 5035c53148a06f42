package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/chazu/kerf/internal/output"
	"github.com/chazu/kerf/pkg/build"
	"github.com/chazu/kerf/pkg/geom"
)

// NewBuildCmd creates the build command.
func NewBuildCmd() *cobra.Command {
	var flags buildFlags
	c := &cobra.Command{
		Use:   "build SCRIPT",
		Short: "Evaluate a script and report the objects it produces",
		Long: `Evaluate a script and report the objects it produces.

SCRIPT is a file path, or - to read from stdin. Parameter values come from
--params and --set; unset parameters use their initial values.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, ev, err := runBuild(cmd, args[0], &flags)
			if err != nil {
				return err
			}
			defer app.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, output.FormatStatus(ev))
			for i, obj := range ev.Objects {
				fmt.Fprintf(out, "  %d  %s\n", i, describeObject(obj))
			}
			return nil
		},
	}
	flags.register(c)
	return c
}

// runBuild builds the script and returns the App for further use. A failed
// build is reported and returned as an ExitError.
func runBuild(cmd *cobra.Command, path string, flags *buildFlags) (*App, build.Event, error) {
	app, err := NewApp(kerfConfig)
	if err != nil {
		return nil, build.Event{}, &ExitError{Code: ExitConfigError, Err: err}
	}
	ev, err := app.buildScript(cmd, path, flags)
	if err != nil {
		app.Close()
		return nil, ev, err
	}
	return app, ev, nil
}

func (a *App) buildScript(cmd *cobra.Command, path string, flags *buildFlags) (build.Event, error) {
	script, err := readScript(cmd, path)
	if err != nil {
		return build.Event{}, err
	}
	vals, err := flags.values()
	if err != nil {
		return build.Event{}, err
	}

	ctx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt)
	defer stop()
	ev, err := a.Run(ctx, script, vals)
	if err != nil {
		return build.Event{}, classify(err)
	}
	if ev.State != build.Succeeded {
		printReport(cmd.ErrOrStderr(), ev)
		ee := classify(ev.Err)
		ee.Printed = true
		return ev, ee
	}
	return ev, nil
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func printReport(w io.Writer, ev build.Event) {
	fmt.Fprintln(w, output.StatusStyle(ev.Status).Render(ev.Status))
	fmt.Fprintln(w, ev.Report())
}

func describeObject(obj geom.Object) string {
	b := obj.Bounds()
	extent := "empty"
	if !b.Empty {
		extent = fmt.Sprintf("[%g %g %g] .. [%g %g %g]", b.Min.X, b.Min.Y, b.Min.Z, b.Max.X, b.Max.Y, b.Max.Z)
	}
	return geom.Match(obj,
		func(s *geom.Solid) string {
			return fmt.Sprintf("solid    %d polygons  %s", len(s.Polygons), output.StyleDim.Render(extent))
		},
		func(p *geom.Profile) string {
			return fmt.Sprintf("profile  %d contours  %s", len(p.Contours), output.StyleDim.Render(extent))
		},
	)
}
