package output

import (
	"bufio"
	"fmt"
	"os"

	"github.com/sdejongh/ddiff/pkg/models"
)

// WriteReport writes the result to a file using the named format.
// The file is always created, so an identical run leaves an empty human report.
func WriteReport(path string, result *models.DiffResult, format string) error {
	formatter, err := NewFormatter(format)
	if err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}

	w := bufio.NewWriter(file)
	if err := formatter.Format(w, result); err != nil {
		file.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		file.Close()
		return fmt.Errorf("failed to write report file: %w", err)
	}
	return file.Close()
}
