package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sdejongh/ddiff/internal/platform"
	"github.com/sdejongh/ddiff/pkg/logging"
	"github.com/sdejongh/ddiff/pkg/torch"
)

// ApplyFlags holds torch apply flags
type ApplyFlags struct {
	Format   string
	Expect   string
	LogFile  string
	LogLevel string
}

var applyFlags ApplyFlags

// NewApplyCommand creates the torch apply command
func NewApplyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apply <database.msi> <transform>",
		Short: "Validate and apply a transform to a copy of a database",
		Long: `Apply reads a transform written by torch, checks its validation conditions
against the database and applies every change to an in-memory copy,
honoring the transform's error suppression flags. The database file is not
modified.

With --expect, the result is compared with the expected database and any
remaining difference is printed; the exit code is then 1.`,
		Args:          usageArgs(2),
		RunE:          runApply,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Flags().StringVar(&applyFlags.Format, "format", "", "transform format: json, yaml, sqlite (default from extension)")
	cmd.Flags().StringVar(&applyFlags.Expect, "expect", "", "database the applied result must match")
	cmd.Flags().StringVar(&applyFlags.LogFile, "log-file", "", "write logs to file, - for stderr (enables logging)")
	cmd.Flags().StringVar(&applyFlags.LogLevel, "log-level", "", "log level: debug, info, warn, error")

	return cmd
}

func runApply(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	dbPath, transformPath := platform.NormalizePath(args[0]), platform.NormalizePath(args[1])
	format, err := torchFormat(applyFlags.Format, transformPath)
	if err != nil {
		return &ExitError{Code: -1, Err: err}
	}

	logger, err := createLogger(torchLogging(applyFlags.LogFile, applyFlags.LogLevel), cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Close()

	transform, err := torch.ReadFile(ctx, transformPath, format)
	if err != nil {
		return &ExitError{Code: -1, Err: err}
	}
	db, err := openDatabase(dbPath)
	if err != nil {
		return &ExitError{Code: -1, Err: fmt.Errorf("failed to open database: %w", err)}
	}

	result := db.Clone()
	if err := torch.Apply(result, transform); err != nil {
		logger.Warn(ctx, "transform rejected", logging.Fields{
			"database":  dbPath,
			"transform": transformPath,
			"error":     err.Error(),
		})
		return &ExitError{Code: -1, Err: err}
	}
	logger.Info(ctx, "transform applied", logging.Fields{
		"database":  dbPath,
		"transform": transformPath,
		"changes":   len(transform.Changes),
		"validate":  transform.Flags.Validate.String(),
	})

	out := cmd.OutOrStdout()
	if applyFlags.Expect == "" {
		if !globalFlags.Quiet {
			fmt.Fprintf(out, "%d changes applied to %s\n", len(transform.Changes), dbPath)
		}
		return nil
	}

	expected, err := openDatabase(platform.NormalizePath(applyFlags.Expect))
	if err != nil {
		return &ExitError{Code: -1, Err: fmt.Errorf("failed to open expected database: %w", err)}
	}
	rest, err := torch.Build(result, expected, torch.Flags{})
	if err != nil {
		return &ExitError{Code: -1, Err: err}
	}
	if rest.Empty() {
		if !globalFlags.Quiet {
			fmt.Fprintf(out, "%d changes applied to %s, result matches %s\n", len(transform.Changes), dbPath, applyFlags.Expect)
		}
		return nil
	}

	if !globalFlags.Quiet {
		if rest.BaseCodepage != rest.Codepage {
			fmt.Fprintf(out, "Codepage {%d}->{%d}\n", rest.BaseCodepage, rest.Codepage)
		}
		for _, c := range rest.Changes {
			fmt.Fprintln(out, c.Describe())
		}
	}
	return &ExitError{Code: 1}
}
