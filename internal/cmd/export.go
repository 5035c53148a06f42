package cmd

import (
	"fmt"
	"io"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/chazu/kerf/internal/output"
	"github.com/chazu/kerf/pkg/export"
	"github.com/chazu/kerf/pkg/format"
	"github.com/chazu/kerf/pkg/sink"
)

// NewExportCmd creates the export command.
func NewExportCmd() *cobra.Command {
	var (
		flags    buildFlags
		formatID string
		outDir   string
		toStdout bool
	)
	c := &cobra.Command{
		Use:   "export SCRIPT",
		Short: "Build a script and export the selected objects",
		Long: `Build a script and export the selected objects.

The export is written to a fresh directory under --out (default: output.dir
from the configuration), or to stdout with --stdout. When the directory
cannot be written the export goes to stdout instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			res, err := app.Exporter().Export(app.Selection(), format.ID(formatID))
			if err != nil {
				return err
			}
			if toStdout {
				return stream(cmd.OutOrStdout(), res)
			}

			dir := outDir
			if dir == "" {
				dir = kerfConfig.Output.Dir
			}
			logger := output.Component("sink")
			s := sink.NewFS(osfs.New(dir), sink.WithLogger(logger))
			h, err := s.Write(res.Data, res.Filename, res.Format.MIMEType)
			if err != nil {
				logger.Warn("cannot write export, sending it to stdout", "dir", dir, "err", err)
				return stream(cmd.OutOrStdout(), res)
			}
			fmt.Fprintln(cmd.OutOrStdout(), output.FormatWritten(h.Path, h.Size))
			return nil
		},
	}
	flags.register(c)
	flags.registerRange(c)
	c.Flags().StringVarP(&formatID, "format", "f", string(format.STLBinary), "Export format id (see kerf formats)")
	c.Flags().StringVarP(&outDir, "out", "o", "", "Output directory")
	c.Flags().BoolVar(&toStdout, "stdout", false, "Write the export to stdout")
	return c
}

// stream copies res to w through an ephemeral memory handle that is revoked
// once written.
func stream(w io.Writer, res *export.Result) error {
	mem := sink.NewMemory()
	h, err := mem.Write(res.Data, res.Filename, res.Format.MIMEType)
	if err != nil {
		return err
	}
	defer mem.Revoke(h.ID)

	data, _, err := mem.Open(h.ID)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
