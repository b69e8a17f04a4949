package output

import (
	"io"
	"os"
	"time"

	"github.com/cheggaaa/pb/v3"
	"golang.org/x/term"
)

// progressTemplate shows the running count and the item being compared
const progressTemplate = `{{counters . "%s / %s" "%[1]s compared"}} {{string . "item"}}`

// Progress displays a live counter of compared items.
// A nil *Progress is valid and does nothing.
type Progress struct {
	bar *pb.ProgressBar
}

// IsTerminal reports whether w is an interactive terminal
func IsTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}

// NewProgress creates a progress counter writing to w.
// It returns nil when w is not a terminal.
func NewProgress(w io.Writer) *Progress {
	if !IsTerminal(w) {
		return nil
	}
	return newProgress(w)
}

func newProgress(w io.Writer) *Progress {
	bar := pb.ProgressBarTemplate(progressTemplate).New(0)
	bar.SetWriter(w)
	bar.SetRefreshRate(200 * time.Millisecond)
	bar.Set(pb.CleanOnFinish, true)
	return &Progress{bar: bar}
}

// Start begins rendering
func (p *Progress) Start() {
	if p == nil {
		return
	}
	p.bar.Start()
}

// Increment records one compared item. It is safe for concurrent use.
func (p *Progress) Increment(name string) {
	if p == nil {
		return
	}
	p.bar.Set("item", name)
	p.bar.Increment()
}

// Count returns the number of items recorded so far
func (p *Progress) Count() int64 {
	if p == nil {
		return 0
	}
	return p.bar.Current()
}

// Finish stops rendering and clears the line
func (p *Progress) Finish() {
	if p == nil {
		return
	}
	p.bar.Finish()
}
