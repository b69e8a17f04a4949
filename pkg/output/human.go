package output

import (
	"fmt"
	"io"
	"time"

	"github.com/sdejongh/ddiff/pkg/models"
)

// HumanFormatter writes the plain indented report
type HumanFormatter struct {
	// ShowSummary appends run statistics after the report
	ShowSummary bool
}

// NewHumanFormatter creates a new human-readable formatter
func NewHumanFormatter() *HumanFormatter {
	return &HumanFormatter{}
}

// Format writes the report lines, one per line
func (f *HumanFormatter) Format(w io.Writer, result *models.DiffResult) error {
	if result.Status == models.StatusUnsupported {
		_, err := fmt.Fprintf(w, "Don't know how to diff %s and %s.\n", result.Input1, result.Input2)
		return err
	}

	for _, line := range result.Lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	}

	if !f.ShowSummary {
		return nil
	}

	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Compared %d items in %s", result.Stats.ItemsCompared, formatDuration(result.Duration))
	if result.Engine != "" {
		fmt.Fprintf(w, " (%s)", result.Engine)
	}
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "  Only in %s: %d\n", result.Input1, result.Stats.LeftOnly)
	fmt.Fprintf(w, "  Only in %s: %d\n", result.Input2, result.Stats.RightOnly)
	if result.Stats.Unsupported > 0 {
		fmt.Fprintf(w, "  Unsupported:  %d\n", result.Stats.Unsupported)
	}
	fmt.Fprintf(w, "Status: %s\n", result.Status)
	if result.Error != "" {
		fmt.Fprintf(w, "Error: %s\n", result.Error)
	}

	return nil
}

// Name returns the formatter name
func (f *HumanFormatter) Name() string {
	return "human"
}

// formatDuration formats duration in human-readable format
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
