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
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cli.Version, cli.Commit, cli.BuildDate = version, commit, date

	rootCmd := cli.NewDiffCommand()
	rootCmd.Version = cli.VersionString()

	// Add global flags
	cli.AddGlobalFlags(rootCmd)

	// Add commands
	rootCmd.AddCommand(cli.NewConfigCommand())
	rootCmd.AddCommand(cli.NewVersionCommand())

	rootCmd.SetArgs(cli.NormalizeArgs(args))
	return exitCode(rootCmd.Execute())
}

// exitCode prints err and maps it to the process exit code
func exitCode(err error) int {
	if err == nil {
		return 0
	}

	var exitErr *cli.ExitError
	if errors.As(err, &exitErr) {
		if exitErr.Err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", exitErr.Err)
		}
		return exitErr.Code
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return -1
}
