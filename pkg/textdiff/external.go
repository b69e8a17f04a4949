package textdiff

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// External runs a diff program and captures its standard output.
// The placeholders {a} and {b} in the command are replaced by the paths;
// without placeholders the paths are appended.
type External struct {
	command []string
}

// NewExternal creates a differ backed by an external program
func NewExternal(command []string) *External {
	return &External{command: append([]string(nil), command...)}
}

// Name returns the differ name
func (e *External) Name() string {
	return "external"
}

// Diff runs the program and returns its non-empty output lines
func (e *External) Diff(ctx context.Context, pathA, pathB string) ([]string, error) {
	args := expand(e.command, pathA, pathB)

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrToolUnavailable, err)
	}

	if err := cmd.Wait(); err != nil {
		// diff exits 1 when the inputs differ
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) || exitErr.ExitCode() > 1 {
			return nil, fmt.Errorf("%s failed: %w", args[0], err)
		}
	}

	var lines []string
	scanner := bufio.NewScanner(&stdout)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, nil
}

func expand(command []string, pathA, pathB string) []string {
	args := make([]string, 0, len(command)+2)
	substituted := false
	for _, arg := range command {
		if strings.Contains(arg, "{a}") || strings.Contains(arg, "{b}") {
			substituted = true
		}
		arg = strings.ReplaceAll(arg, "{a}", pathA)
		arg = strings.ReplaceAll(arg, "{b}", pathB)
		args = append(args, arg)
	}
	if !substituted {
		args = append(args, pathA, pathB)
	}
	return args
}
