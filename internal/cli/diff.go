package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/sdejongh/ddiff/internal/platform"
	"github.com/sdejongh/ddiff/pkg/config"
	"github.com/sdejongh/ddiff/pkg/diff"
	"github.com/sdejongh/ddiff/pkg/logging"
	"github.com/sdejongh/ddiff/pkg/models"
	"github.com/sdejongh/ddiff/pkg/msi"
	"github.com/sdejongh/ddiff/pkg/output"
	"github.com/sdejongh/ddiff/pkg/storage"
	"github.com/sdejongh/ddiff/pkg/textdiff"
)

// DiffFlags holds diff command flags
type DiffFlags struct {
	Output      string
	PatchTarget string
	Format      string
	Workers     int
	BlockSize   int
	TextDiff    string
	Progress    bool
	TempDir     string
	// Logging flags
	LogFile   string
	LogFormat string
	LogLevel  string
}

var diffFlags DiffFlags

// NewDiffCommand creates the root ddiff command
func NewDiffCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ddiff <input1> <input2>",
		Short: "Structural diff of files, directories, cabinets and Windows Installer packages",
		Long: `ddiff compares two inputs with the most specific engine available:
directories, cabinets, MSI databases and patches, versioned binaries,
text files, or plain bytes. Containers are walked recursively.

Exit code is 0 when the inputs are identical, 1 when they differ and
-1 when they cannot be compared.`,
		Args:          usageArgs(2),
		RunE:          runDiff,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Flags().StringVarP(&diffFlags.Output, "output", "o", "", "write the report to a file (UTF-8)")
	cmd.Flags().StringVarP(&diffFlags.PatchTarget, "patchtarget", "p", "", "database to apply patch inputs to")
	cmd.Flags().StringVar(&diffFlags.Format, "format", "", "report format: human, json")
	cmd.Flags().IntVar(&diffFlags.Workers, "workers", 0, "matched items diffed concurrently per container")
	cmd.Flags().IntVar(&diffFlags.BlockSize, "block-size", 0, "byte comparison block size")
	cmd.Flags().StringVar(&diffFlags.TextDiff, "text-diff", "", "text diff strategy: builtin, external")
	cmd.Flags().BoolVar(&diffFlags.Progress, "progress", false, "show a progress counter on stderr")
	cmd.Flags().StringVar(&diffFlags.TempDir, "temp-dir", "", "directory for extracted files")

	// Logging flags
	cmd.Flags().StringVar(&diffFlags.LogFile, "log-file", "", "write logs to file, - for stderr (enables logging)")
	cmd.Flags().StringVar(&diffFlags.LogFormat, "log-format", "", "log format: text, json")
	cmd.Flags().StringVar(&diffFlags.LogLevel, "log-level", "", "log level: debug, info, warn, error")

	return cmd
}

// usageArgs requires exactly n positional arguments and prints usage otherwise
func usageArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) == n {
			return nil
		}
		cmd.Usage()
		return &ExitError{Code: -1, Err: fmt.Errorf("expected %d arguments, got %d", n, len(args))}
	}
}

func runDiff(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Override config with command-line flags
	applyFlagsToConfig(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return &ExitError{Code: -1, Err: fmt.Errorf("invalid options: %w", err)}
	}

	formatter, err := output.NewFormatter(cfg.Output.Format)
	if err != nil {
		return err
	}
	if human, ok := formatter.(*output.HumanFormatter); ok {
		human.ShowSummary = globalFlags.Verbose
	}

	// Create logger
	logger, err := createLogger(cfg.Logging, cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Close()

	temp, err := storage.NewTempScope(cfg.TempDir, logger)
	if err != nil {
		return err
	}
	defer temp.Close()

	env, err := createEnv(cfg, temp, logger)
	if err != nil {
		return err
	}

	var progress *output.Progress
	if cfg.Output.Progress {
		progress = output.NewProgress(cmd.ErrOrStderr())
	}
	if progress != nil {
		env.Progress = progress.Increment
		progress.Start()
	}

	a, b := platform.NormalizePath(args[0]), platform.NormalizePath(args[1])
	result, err := diff.Run(ctx, env, a, b)
	progress.Finish()

	if err != nil && !errors.Is(err, diff.ErrNoEngine) {
		return &ExitError{Code: models.StatusFailed.ExitCode(), Err: fmt.Errorf("diff failed: %w", err)}
	}

	switch {
	case result.Status == models.StatusUnsupported:
		if err := formatter.Format(cmd.OutOrStdout(), result); err != nil {
			return err
		}
	case diffFlags.Output != "":
		if err := output.WriteReport(diffFlags.Output, result, cfg.Output.Format); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	case !cfg.Output.Quiet:
		if err := formatter.Format(cmd.OutOrStdout(), result); err != nil {
			return err
		}
	}

	if code := result.Status.ExitCode(); code != 0 {
		return &ExitError{Code: code}
	}
	return nil
}

// createEnv assembles the shared diff environment from configuration
func createEnv(cfg *config.Config, temp *storage.TempScope, logger logging.Logger) (*diff.Env, error) {
	differ, err := textdiff.New(cfg.Diff.TextDiff, cfg.Diff.TextDiffCommand)
	if err != nil {
		return nil, err
	}

	env := diff.NewEnv(temp, logger, diff.Options{
		PatchTarget: platform.NormalizePath(diffFlags.PatchTarget),
		BlockSize:   cfg.Diff.BlockSize,
		Workers:     cfg.Diff.Workers,
	})
	env.Text = differ
	env.Patcher = msi.NewPatcher(cfg.MSI.PatchCommand)

	return env, nil
}

// loadConfig loads configuration from file or returns default
func loadConfig() (*config.Config, error) {
	if globalFlags.ConfigFile != "" {
		return config.LoadFromFile(globalFlags.ConfigFile)
	}
	return config.LoadDefault()
}

// applyFlagsToConfig overrides config values with command-line flags
func applyFlagsToConfig(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()

	if diffFlags.Format != "" {
		cfg.Output.Format = diffFlags.Format
	}
	if flags.Changed("workers") {
		cfg.Diff.Workers = diffFlags.Workers
	}
	if flags.Changed("block-size") {
		cfg.Diff.BlockSize = diffFlags.BlockSize
	}
	if diffFlags.TextDiff != "" {
		cfg.Diff.TextDiff = diffFlags.TextDiff
	}
	if diffFlags.Progress {
		cfg.Output.Progress = true
	}
	if diffFlags.TempDir != "" {
		cfg.TempDir = diffFlags.TempDir
	}

	// Logging
	if diffFlags.LogFile != "" {
		cfg.Logging.Enabled = true
		cfg.Logging.File = diffFlags.LogFile
	}
	if diffFlags.LogFormat != "" {
		cfg.Logging.Format = diffFlags.LogFormat
	}
	cfg.Logging.Level = globalFlags.logLevel(diffFlags.LogLevel, cfg.Logging.Level)

	// Quiet keeps only the exit code
	if globalFlags.Quiet {
		cfg.Output.Progress = false
		cfg.Output.Quiet = true
	}
}

// createLogger builds the configured logger. The file "-" logs to stderr.
func createLogger(cfg config.LoggingConfig, stderr io.Writer) (logging.Logger, error) {
	// If logging is off or no file is set, return null logger
	if !cfg.Enabled || cfg.File == "" {
		return logging.NewNullLogger(), nil
	}
	if cfg.File == "-" {
		return logging.NewStreamLogger(stderr, logging.ParseFormat(cfg.Format), logging.ParseLevel(cfg.Level)), nil
	}

	return logging.NewFileLogger(logging.FileLoggerConfig{
		Path:       cfg.File,
		Format:     logging.ParseFormat(cfg.Format),
		Level:      logging.ParseLevel(cfg.Level),
		MaxSizeMB:  cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
	})
}
