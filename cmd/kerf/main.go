// Package main is the entry point for the kerf CLI.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/chazu/kerf/internal/cmd"
)

func main() {
	rootCmd := cmd.NewRootCmd()

	if err := rootCmd.Execute(); err != nil {
		var exitErr *cmd.ExitError
		if errors.As(err, &exitErr) {
			if !exitErr.Printed {
				fmt.Fprintln(os.Stderr, err)
			}
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cmd.ExitGeneralError)
	}
}
