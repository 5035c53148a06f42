package cmd

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/chazu/kerf/internal/output"
	"github.com/chazu/kerf/pkg/format"
)

// NewFormatsCmd creates the formats command.
func NewFormatsCmd() *cobra.Command {
	var flags buildFlags
	c := &cobra.Command{
		Use:   "formats [SCRIPT]",
		Short: "List export formats",
		Long: `List export formats.

With a SCRIPT, only the formats that can hold the built (and selected)
objects are listed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			descs := format.All()
			if len(args) == 1 {
				app, _, err := runBuild(cmd, args[0], &flags)
				if err != nil {
					return err
				}
				defer app.Close()
				start, end, ok, err := parseRange(flags.rng)
				if err != nil {
					return err
				}
				if ok {
					app.Select(start, end)
				}
				ids := app.Exporter().SupportedFormats(app.Selection())
				descs = slices.DeleteFunc(descs, func(d format.Descriptor) bool {
					return !slices.Contains(ids, d.ID)
				})
			}

			out := cmd.OutOrStdout()
			for _, d := range descs {
				fmt.Fprintf(out, "%-7s %-22s %s\n", output.StyleNoun.Render(string(d.ID)), d.DisplayName, output.StyleDim.Render(kinds(d)))
			}
			return nil
		},
	}
	flags.register(c)
	flags.registerRange(c)
	return c
}

func kinds(d format.Descriptor) string {
	switch {
	case d.AcceptsSolid && d.AcceptsProfile:
		return "solids, profiles"
	case d.AcceptsSolid:
		return "solids"
	default:
		return "profiles"
	}
}
