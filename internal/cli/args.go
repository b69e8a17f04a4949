package cli

import (
	"fmt"
	"strings"
)

// argAliases maps the slash and single-dash spellings accepted for
// compatibility to their long flag names
var argAliases = map[string]string{
	"/o":           "--output",
	"/output":      "--output",
	"-output":      "--output",
	"/p":           "--patchtarget",
	"/patchtarget": "--patchtarget",
	"-patchtarget": "--patchtarget",
	"/?":           "--help",
	"-?":           "--help",
}

// NormalizeArgs rewrites option spellings so cobra can parse them.
// Matching is case-insensitive and stops at "--".
func NormalizeArgs(args []string) []string {
	out := make([]string, 0, len(args))
	for i, arg := range args {
		if arg == "--" {
			return append(out, args[i:]...)
		}

		lower := strings.ToLower(arg)
		if long, ok := argAliases[lower]; ok {
			out = append(out, long)
			continue
		}

		// -O and -P are accepted as well as their lower-case shorthands
		if lower == "-o" || lower == "-p" {
			out = append(out, lower)
			continue
		}

		out = append(out, arg)
	}
	return out
}

// ExitError carries a process exit code out of a command
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}
