package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sdejongh/ddiff/pkg/config"
)

// NewConfigCommand creates the config command
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long:  `View or create the ddiff configuration file.`,
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigInitCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Block Size: %d\n", cfg.Diff.BlockSize)
			fmt.Fprintf(w, "Workers: %d\n", cfg.Diff.Workers)
			fmt.Fprintf(w, "Text Diff: %s\n", cfg.Diff.TextDiff)
			if cfg.Diff.TextDiff == config.TextDiffExternal {
				fmt.Fprintf(w, "Text Diff Command: %v\n", cfg.Diff.TextDiffCommand)
			}
			if len(cfg.MSI.PatchCommand) > 0 {
				fmt.Fprintf(w, "Patch Command: %v\n", cfg.MSI.PatchCommand)
			} else {
				fmt.Fprintf(w, "Patch Command: (none)\n")
			}
			fmt.Fprintf(w, "Output Format: %s\n", cfg.Output.Format)
			fmt.Fprintf(w, "Log Format: %s\n", cfg.Logging.Format)
			fmt.Fprintf(w, "Log Level: %s\n", cfg.Logging.Level)

			return nil
		},
	}
}

func newConfigInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := globalFlags.ConfigFile
			if path == "" {
				var err error
				path, err = config.DefaultConfigPath()
				if err != nil {
					return err
				}
			}

			cfg := config.Default()
			if err := config.SaveToFile(cfg, path); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Configuration file created at: %s\n", path)
			return nil
		},
	}
}
