package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sdejongh/ddiff/internal/platform"
	"github.com/sdejongh/ddiff/pkg/config"
	"github.com/sdejongh/ddiff/pkg/logging"
	"github.com/sdejongh/ddiff/pkg/msi"
	"github.com/sdejongh/ddiff/pkg/torch"
)

// TorchFlags holds torch command flags
type TorchFlags struct {
	Output   string
	Type     string
	Suppress string
	Validate string
	Format   string
	Verify   bool
	LogFile  string
	LogLevel string
}

var torchFlags TorchFlags

// openDatabase is replaced in tests
var openDatabase = msi.Open

// NewTorchCommand creates the root torch command
func NewTorchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "torch <target.msi> <updated.msi>",
		Short: "Build a transform between two Windows Installer databases",
		Long: `torch records every table, column, row and cell change that turns the
target database into the updated one, together with the validation and
error suppression flags of the transform.`,
		Args:          usageArgs(2),
		RunE:          runTorch,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Flags().StringVarP(&torchFlags.Output, "output", "o", "", "transform file to write (required)")
	cmd.MarkFlagRequired("output")
	cmd.Flags().StringVarP(&torchFlags.Type, "type", "t", "", "transform type: language, instance, patch")
	cmd.Flags().StringVar(&torchFlags.Suppress, "serr", "", "error conditions to suppress: a-f")
	cmd.Flags().StringVar(&torchFlags.Validate, "val", "", "validation conditions: g, l, r-z")
	cmd.Flags().StringVar(&torchFlags.Format, "format", "", "output format: json, yaml, sqlite (default from extension)")
	cmd.Flags().BoolVar(&torchFlags.Verify, "verify", false, "check that the transform turns target into updated")
	cmd.Flags().StringVar(&torchFlags.LogFile, "log-file", "", "write logs to file, - for stderr (enables logging)")
	cmd.Flags().StringVar(&torchFlags.LogLevel, "log-level", "", "log level: debug, info, warn, error")

	return cmd
}

func runTorch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	flags, err := torchFlagSet()
	if err != nil {
		return &ExitError{Code: -1, Err: err}
	}

	format, err := torchFormat(torchFlags.Format, torchFlags.Output)
	if err != nil {
		return &ExitError{Code: -1, Err: err}
	}

	logger, err := createLogger(torchLogging(torchFlags.LogFile, torchFlags.LogLevel), cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Close()

	targetPath, updatedPath := platform.NormalizePath(args[0]), platform.NormalizePath(args[1])
	target, err := openDatabase(targetPath)
	if err != nil {
		return fmt.Errorf("failed to open target database: %w", err)
	}
	updated, err := openDatabase(updatedPath)
	if err != nil {
		return fmt.Errorf("failed to open updated database: %w", err)
	}

	transform, err := torch.Build(target, updated, flags)
	if err != nil {
		return fmt.Errorf("failed to build transform: %w", err)
	}
	logger.Info(ctx, "transform built", logging.Fields{
		"target":   targetPath,
		"updated":  updatedPath,
		"changes":  len(transform.Changes),
		"suppress": flags.Suppress.String(),
		"validate": flags.Validate.String(),
	})

	if torchFlags.Verify {
		if err := torch.Verify(target, updated, transform); err != nil {
			return fmt.Errorf("transform verification failed: %w", err)
		}
		logger.Debug(ctx, "transform verified", nil)
	}

	if err := torch.WriteFile(ctx, torchFlags.Output, transform, format); err != nil {
		return err
	}

	if !globalFlags.Quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "%d changes written to %s\n", len(transform.Changes), torchFlags.Output)
		if globalFlags.Verbose {
			for _, c := range transform.Changes {
				fmt.Fprintln(cmd.OutOrStdout(), c.Describe())
			}
		}
	}
	return nil
}

// torchFlagSet combines the preset with the explicit letters
func torchFlagSet() (torch.Flags, error) {
	var flags torch.Flags
	if torchFlags.Type != "" {
		preset, err := torch.Preset(torchFlags.Type)
		if err != nil {
			return flags, err
		}
		flags = preset
	}

	suppress, err := torch.ParseSuppress(torchFlags.Suppress)
	if err != nil {
		return flags, err
	}
	validate, err := torch.ParseValidation(torchFlags.Validate)
	if err != nil {
		return flags, err
	}

	flags.Suppress |= suppress
	flags.Validate |= validate
	return flags, nil
}

// torchFormat picks the explicit format or infers it from the output extension
func torchFormat(name, path string) (torch.Format, error) {
	if name != "" {
		return torch.ParseFormat(name)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return torch.FormatYAML, nil
	case ".db", ".sqlite":
		return torch.FormatSQLite, nil
	default:
		return torch.FormatJSON, nil
	}
}

func torchLogging(file, level string) config.LoggingConfig {
	cfg := config.Default().Logging
	if file != "" {
		cfg.Enabled = true
		cfg.File = file
	}
	cfg.Level = globalFlags.logLevel(level, cfg.Level)
	return cfg
}
