package cli

import (
	"github.com/spf13/cobra"
)

// GlobalFlags holds the persistent flags shared by ddiff and torch
type GlobalFlags struct {
	ConfigFile string
	Verbose    bool
	Quiet      bool
}

var globalFlags GlobalFlags

// AddGlobalFlags registers --config, -v and -q on the root command
func AddGlobalFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVar(&globalFlags.ConfigFile, "config", "", "config file (default $HOME/.config/ddiff/config.yaml)")
	flags.BoolVarP(&globalFlags.Verbose, "verbose", "v", false, "print a run summary and log at debug level")
	flags.BoolVarP(&globalFlags.Quiet, "quiet", "q", false, "print nothing, report through the exit code only")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")
}

// GetGlobalFlags returns the global flags
func GetGlobalFlags() *GlobalFlags {
	return &globalFlags
}

// logLevel returns explicit when set, debug in verbose mode, and fallback otherwise
func (g *GlobalFlags) logLevel(explicit, fallback string) string {
	switch {
	case explicit != "":
		return explicit
	case g.Verbose:
		return "debug"
	default:
		return fallback
	}
}
