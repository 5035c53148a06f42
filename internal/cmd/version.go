package cmd

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X".
var Version = "dev"

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "kerf version %s\n", Version)
			fmt.Fprintf(out, "  Go:        %s\n", runtime.Version())
			if info, ok := debug.ReadBuildInfo(); ok {
				for _, dep := range info.Deps {
					if dep.Path == "github.com/glycerine/zygomys" {
						fmt.Fprintf(out, "  zygomys:   %s\n", dep.Version)
					}
				}
			}
			return nil
		},
	}
}
