// Package textdiff produces line-oriented differences between two text files.
package textdiff

import (
	"context"
	"errors"
	"fmt"
)

// ErrToolUnavailable is returned when an external diff program cannot be started
var ErrToolUnavailable = errors.New("text diff tool unavailable")

// Differ compares two text files and returns the difference lines.
// An empty result means the files are identical.
type Differ interface {
	Diff(ctx context.Context, pathA, pathB string) ([]string, error)
	Name() string
}

// New returns the differ for the named strategy
func New(kind string, command []string) (Differ, error) {
	switch kind {
	case "", "builtin":
		return NewBuiltin(), nil
	case "external":
		if len(command) == 0 {
			return nil, fmt.Errorf("external text diff needs a command")
		}
		return NewExternal(command), nil
	default:
		return nil, fmt.Errorf("unknown text diff strategy: %s", kind)
	}
}
