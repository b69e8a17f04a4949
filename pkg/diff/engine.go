// Package diff selects and runs diff engines over arbitrary inputs.
//
// Every engine scores how confident it is that it can diff a pair of
// inputs; the registry picks the highest score. Container engines
// (directories, cabinets, installer databases) align their children by
// name and ask the registry again for every matched pair.
package diff

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/sdejongh/ddiff/pkg/compare"
	"github.com/sdejongh/ddiff/pkg/logging"
	"github.com/sdejongh/ddiff/pkg/models"
	"github.com/sdejongh/ddiff/pkg/msi"
	"github.com/sdejongh/ddiff/pkg/storage"
	"github.com/sdejongh/ddiff/pkg/textdiff"
)

// ErrNoEngine is returned when no registered engine can diff the inputs
var ErrNoEngine = errors.New("no engine can diff these inputs")

// Engine diffs one kind of input
type Engine interface {
	// Name identifies the engine in logs and results
	Name() string

	// Score returns a confidence in [0,1] that the engine can diff a and b.
	// Zero means it cannot. Scoring must not modify the inputs.
	Score(env *Env, a, b string) float64

	// Diff writes the differences between a and b to r and reports
	// whether any were found
	Diff(ctx context.Context, env *Env, a, b string, r *Report) (bool, error)
}

// Options tune a diff run
type Options struct {
	PatchTarget string // baseline database for patch inputs
	BlockSize   int    // byte comparison block size
	Workers     int    // matched pairs diffed concurrently per container
}

// ProgressFunc is called once per compared pair. It must be safe for concurrent use.
type ProgressFunc func(name string)

// Env carries everything a diff run shares down the recursion
type Env struct {
	Registry *Registry
	Temp     *storage.TempScope
	Logger   logging.Logger
	Text     textdiff.Differ
	Patcher  msi.Patcher
	Options  Options
	Progress ProgressFunc

	// OpenDatabase loads installer databases; msi.Open when nil
	OpenDatabase func(path string) (*msi.Database, error)

	blocks     *compare.BlockComparator
	blocksOnce sync.Once
	stats      counters
}

// NewEnv creates an environment with the default registry, the built-in
// text differ and no patch support
func NewEnv(temp *storage.TempScope, logger logging.Logger, opts Options) *Env {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Env{
		Registry: DefaultRegistry(),
		Temp:     temp,
		Logger:   logger,
		Text:     textdiff.NewBuiltin(),
		Patcher:  msi.UnsupportedPatcher{},
		Options:  opts,
		blocks:   compare.NewBlockComparator(opts.BlockSize),
	}
}

// Blocks returns the byte comparator shared by the run
func (e *Env) Blocks() *compare.BlockComparator {
	e.blocksOnce.Do(func() {
		if e.blocks == nil {
			e.blocks = compare.NewBlockComparator(e.Options.BlockSize)
		}
	})
	return e.blocks
}

// Stats returns the counters accumulated so far
func (e *Env) Stats() models.Statistics {
	return models.Statistics{
		ItemsCompared: int(e.stats.compared.Load()),
		LeftOnly:      int(e.stats.leftOnly.Load()),
		RightOnly:     int(e.stats.rightOnly.Load()),
		Unsupported:   int(e.stats.unsupported.Load()),
	}
}

func (e *Env) openDatabase(path string) (*msi.Database, error) {
	if e.OpenDatabase != nil {
		return e.OpenDatabase(path)
	}
	return msi.Open(path)
}

func (e *Env) compared(name string) {
	e.stats.compared.Add(1)
	if e.Progress != nil {
		e.Progress(name)
	}
}

type counters struct {
	compared    atomic.Int64
	leftOnly    atomic.Int64
	rightOnly   atomic.Int64
	unsupported atomic.Int64
}
