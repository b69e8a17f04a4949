package diff

import (
	"fmt"
	"strings"
)

const indent = "    "

// Report accumulates indented diff output. Each nesting level adds four spaces.
type Report struct {
	prefix string
	lines  []string
}

// NewReport creates a top-level report
func NewReport() *Report {
	return &Report{}
}

// Nested returns an empty report one level deeper
func (r *Report) Nested() *Report {
	return &Report{prefix: r.prefix + indent}
}

// Fork returns an empty report at the same level
func (r *Report) Fork() *Report {
	return &Report{prefix: r.prefix}
}

// Line adds one line
func (r *Report) Line(s string) {
	r.lines = append(r.lines, r.prefix+s)
}

// Printf adds one formatted line
func (r *Report) Printf(format string, args ...interface{}) {
	r.Line(fmt.Sprintf(format, args...))
}

// Append adds the lines of another report, which carry their own indentation
func (r *Report) Append(o *Report) {
	r.lines = append(r.lines, o.lines...)
}

// Lines returns the accumulated lines
func (r *Report) Lines() []string {
	return append([]string(nil), r.lines...)
}

// Empty reports whether nothing was written
func (r *Report) Empty() bool {
	return len(r.lines) == 0
}

// String returns the report with one line per row
func (r *Report) String() string {
	if len(r.lines) == 0 {
		return ""
	}
	return strings.Join(r.lines, "\n") + "\n"
}
