package cmd

import (
	"fmt"

	"github.com/ohler55/ojg"
	"github.com/ohler55/ojg/oj"
	"github.com/spf13/cobra"

	"github.com/chazu/kerf/internal/output"
	"github.com/chazu/kerf/pkg/build"
	"github.com/chazu/kerf/pkg/geom"
	"github.com/chazu/kerf/pkg/kernel"
)

// meshViewer keeps the last solid shown as a triangle mesh document for a
// renderer: flat vertex, normal and index arrays.
type meshViewer struct {
	doc map[string]any
}

func (v *meshViewer) Show(s *geom.Solid) {
	m := kernel.ToMesh(s)
	v.doc = map[string]any{
		"vertices":  floats(m.Vertices),
		"normals":   floats(m.Normals),
		"indices":   ints(m.Indices),
		"triangles": int64(m.TriangleCount()),
	}
}

func floats(fs []float32) []any {
	out := make([]any, len(fs))
	for i, f := range fs {
		out[i] = float64(f)
	}
	return out
}

func ints(is []uint32) []any {
	out := make([]any, len(is))
	for i, n := range is {
		out[i] = int64(n)
	}
	return out
}

// NewViewCmd creates the view command.
func NewViewCmd() *cobra.Command {
	var flags buildFlags
	c := &cobra.Command{
		Use:   "view SCRIPT",
		Short: "Print the selected objects as one mesh for a viewer",
		Long: `Print the selected objects as one triangle mesh in JSON.

Profiles are extruded to a thin solid. This is the document a 3-D viewer
consumes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, end, ok, err := parseRange(flags.rng)
			if err != nil {
				return err
			}
			app, err := NewApp(kerfConfig)
			if err != nil {
				return &ExitError{Code: ExitConfigError, Err: err}
			}
			defer app.Close()
			v := &meshViewer{}
			build.ConnectViewer(app.selector, app.exporter, v, output.Component("view"))

			if _, err := app.buildScript(cmd, args[0], &flags); err != nil {
				return err
			}
			if ok {
				app.Select(start, end)
			}
			if v.doc == nil {
				return fmt.Errorf("nothing to view")
			}
			fmt.Fprintln(cmd.OutOrStdout(), oj.JSON(v.doc, &ojg.Options{Sort: true}))
			return nil
		},
	}
	flags.register(c)
	flags.registerRange(c)
	return c
}
