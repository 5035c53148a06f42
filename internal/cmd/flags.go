package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// buildFlags are shared by commands that run a build.
type buildFlags struct {
	paramsFile string
	set        []string
	rng        string
}

func (f *buildFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.paramsFile, "params", "p", "", "YAML file with parameter values")
	cmd.Flags().StringArrayVar(&f.set, "set", nil, "Set a parameter value (name=value, repeatable)")
}

func (f *buildFlags) registerRange(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.rng, "range", "r", "", "Objects to select: N or START:END (default all)")
}

// values merges the parameter file with --set flags; --set wins.
func (f *buildFlags) values() (map[string]any, error) {
	vals := map[string]any{}
	if f.paramsFile != "" {
		data, err := os.ReadFile(f.paramsFile)
		if err != nil {
			return nil, fmt.Errorf("reading parameter file: %w", err)
		}
		if err := yaml.Unmarshal(data, &vals); err != nil {
			return nil, fmt.Errorf("parsing parameter file: %w", err)
		}
		if vals == nil {
			vals = map[string]any{}
		}
	}
	for _, kv := range f.set {
		name, v, ok := strings.Cut(kv, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --set %q: want name=value", kv)
		}
		vals[name] = v
	}
	return vals, nil
}

// parseRange parses "N" or "START:END". An empty string reports ok=false.
func parseRange(s string) (start, end int, ok bool, err error) {
	if s == "" {
		return 0, 0, false, nil
	}
	a, b, found := strings.Cut(s, ":")
	if start, err = strconv.Atoi(strings.TrimSpace(a)); err != nil {
		return 0, 0, false, fmt.Errorf("invalid range %q", s)
	}
	end = start
	if found {
		if end, err = strconv.Atoi(strings.TrimSpace(b)); err != nil {
			return 0, 0, false, fmt.Errorf("invalid range %q", s)
		}
	}
	return start, end, true, nil
}

// readScript reads a script file, or stdin for "-".
func readScript(cmd *cobra.Command, path string) (string, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("reading script: %w", err)
	}
	return string(data), nil
}
