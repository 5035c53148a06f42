package cmd

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewParamsCmd creates the params command.
func NewParamsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "params SCRIPT",
		Short: "List the parameters a script declares",
		Long: `List the parameters a script declares as YAML.

The script is scanned, not built; geometry errors are ignored.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			script, err := readScript(cmd, args[0])
			if err != nil {
				return err
			}
			app, err := NewApp(kerfConfig)
			if err != nil {
				return &ExitError{Code: ExitConfigError, Err: err}
			}
			defer app.Close()

			defs, err := app.Scan(script)
			if err != nil {
				return classify(err)
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(map[string]any{"params": defs}); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}
