package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// VersionString is the one-line form used by --version
func VersionString() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			if short {
				_, err := fmt.Fprintln(w, Version)
				return err
			}

			_, err := fmt.Fprintf(w, "%s %s\n  commit %s, built %s\n  %s %s/%s\n",
				cmd.Root().Name(), Version, Commit, BuildDate,
				runtime.Version(), runtime.GOOS, runtime.GOARCH)
			return err
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "print only the version number")

	return cmd
}
