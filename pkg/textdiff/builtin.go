package textdiff

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// NoNewline follows a rendered line that had no terminator
const NoNewline = `\ No newline at end of file`

// Builtin renders line differences in the classic normal diff format
// ("2c2", "< old", "---", "> new")
type Builtin struct{}

// NewBuiltin creates the built-in differ
func NewBuiltin() *Builtin {
	return &Builtin{}
}

// Name returns the differ name
func (b *Builtin) Name() string {
	return "builtin"
}

// Diff compares two files line by line
func (b *Builtin) Diff(ctx context.Context, pathA, pathB string) ([]string, error) {
	linesA, err := readLines(pathA)
	if err != nil {
		return nil, err
	}
	linesB, err := readLines(pathB)
	if err != nil {
		return nil, err
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	return NormalDiff(linesA, linesB), nil
}

// NormalDiff renders the edit script between a and b. Lines are compared
// with their terminators, so "\r\n" differs from "\n" and a missing final
// newline is reported.
func NormalDiff(a, b []string) []string {
	var out []string
	matcher := difflib.NewMatcher(a, b)
	for _, op := range matcher.GetOpCodes() {
		switch op.Tag {
		case 'e':
			continue
		case 'r':
			out = append(out, fmt.Sprintf("%sc%s", lineRange(op.I1, op.I2), lineRange(op.J1, op.J2)))
			out = appendPrefixed(out, "< ", a[op.I1:op.I2])
			out = append(out, "---")
			out = appendPrefixed(out, "> ", b[op.J1:op.J2])
		case 'd':
			out = append(out, fmt.Sprintf("%sd%d", lineRange(op.I1, op.I2), op.J1))
			out = appendPrefixed(out, "< ", a[op.I1:op.I2])
		case 'i':
			out = append(out, fmt.Sprintf("%da%s", op.I1, lineRange(op.J1, op.J2)))
			out = appendPrefixed(out, "> ", b[op.J1:op.J2])
		}
	}
	return out
}

// lineRange formats a half-open zero-based range as one-based line numbers
func lineRange(lo, hi int) string {
	if hi-lo == 1 {
		return fmt.Sprintf("%d", lo+1)
	}
	return fmt.Sprintf("%d,%d", lo+1, hi)
}

func appendPrefixed(out []string, prefix string, lines []string) []string {
	for _, l := range lines {
		text, terminated := strings.CutSuffix(l, "\n")
		out = append(out, prefix+text)
		if !terminated {
			out = append(out, NoNewline)
		}
	}
	return out
}

// readLines splits a file after each '\n', keeping the terminators
func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var lines []string
	r := bufio.NewReader(f)
	for {
		line, err := r.ReadString('\n')
		if line != "" {
			lines = append(lines, line)
		}
		if errors.Is(err, io.EOF) {
			return lines, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	}
}
