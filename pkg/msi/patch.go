package msi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// ErrPatchUnsupported is returned when no patch application method is configured
var ErrPatchUnsupported = errors.New("patch application is not supported on this host")

// Patcher applies a patch package to a copy of its target database in place
type Patcher interface {
	Apply(ctx context.Context, dbPath, patchPath string) error
}

// NewPatcher returns a CommandPatcher for a non-empty command, otherwise an UnsupportedPatcher
func NewPatcher(command []string) Patcher {
	if len(command) == 0 {
		return UnsupportedPatcher{}
	}
	return &CommandPatcher{Command: append([]string(nil), command...)}
}

// UnsupportedPatcher always fails with ErrPatchUnsupported
type UnsupportedPatcher struct{}

// Apply implements Patcher
func (UnsupportedPatcher) Apply(ctx context.Context, dbPath, patchPath string) error {
	return ErrPatchUnsupported
}

// CommandPatcher runs an external program. The placeholders {target} and
// {patch} are replaced by the database and patch paths.
type CommandPatcher struct {
	Command []string
}

// Apply implements Patcher
func (p *CommandPatcher) Apply(ctx context.Context, dbPath, patchPath string) error {
	args := make([]string, len(p.Command))
	for i, arg := range p.Command {
		arg = strings.ReplaceAll(arg, "{target}", dbPath)
		args[i] = strings.ReplaceAll(arg, "{patch}", patchPath)
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%s: %w: %s", args[0], err, msg)
		}
		return fmt.Errorf("%s: %w", args[0], err)
	}
	return nil
}
