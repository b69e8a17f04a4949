package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/sdejongh/ddiff/internal/cli"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.Version, cli.Commit, cli.BuildDate = version, commit, date

	rootCmd := cli.NewTorchCommand()
	rootCmd.Version = cli.VersionString()

	// Add global flags
	cli.AddGlobalFlags(rootCmd)
	rootCmd.AddCommand(cli.NewApplyCommand())
	rootCmd.AddCommand(cli.NewVersionCommand())

	rootCmd.SetArgs(cli.NormalizeArgs(os.Args[1:]))
	if err := rootCmd.Execute(); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			if exitErr.Err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", exitErr.Err)
			}
			os.Exit(exitErr.Code)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(-1)
	}
}
