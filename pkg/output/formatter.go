package output

import (
	"fmt"
	"io"

	"github.com/sdejongh/ddiff/pkg/models"
)

// Formatter defines the interface for rendering a diff result
// Implementations include human-readable and JSON formatters
type Formatter interface {
	// Format writes the result to w
	Format(w io.Writer, result *models.DiffResult) error

	// Name returns the formatter name
	Name() string
}

// NewFormatter returns the formatter registered under name
func NewFormatter(name string) (Formatter, error) {
	switch name {
	case "", "human":
		return NewHumanFormatter(), nil
	case "json":
		return NewJSONFormatter(), nil
	default:
		return nil, fmt.Errorf("unknown output format %q", name)
	}
}
