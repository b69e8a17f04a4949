package diff

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/sdejongh/ddiff/pkg/compare"
	"github.com/sdejongh/ddiff/pkg/logging"
)

// materializer turns a container member into a path an engine can read.
// Temporary paths are removed by the caller once the pair is diffed.
type materializer func(ctx context.Context, item *compare.Item) (path string, temp bool, err error)

// pathMember is the materializer for members that already live on disk
func pathMember(ctx context.Context, item *compare.Item) (string, bool, error) {
	return item.Value.(string), false, nil
}

type pairResult struct {
	differs bool
	report  *Report
}

// mergeCompare aligns two member lists by case-insensitive name and diffs
// every matched pair. One-sided members are written as "< name" and
// "> name"; a differing pair is written as its name followed by its
// nested report.
func mergeCompare(ctx context.Context, env *Env, r *Report, left, right []compare.Item, openLeft, openRight materializer) (bool, error) {
	pairs := compare.Align(left, right)
	results := make([]pairResult, len(pairs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(env.Options.Workers, 1))
	for i, p := range pairs {
		if !p.Matched() {
			continue
		}
		g.Go(func() error {
			nested := r.Nested()
			differs, err := diffPair(gctx, env, p, openLeft, openRight, nested)
			if err != nil {
				return fmt.Errorf("%s: %w", p.Name(), err)
			}
			results[i] = pairResult{differs: differs, report: nested}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return false, err
	}

	differs := false
	for i, p := range pairs {
		switch {
		case p.Right == nil:
			r.Printf("< %s", p.Name())
			env.stats.leftOnly.Add(1)
			differs = true
		case p.Left == nil:
			r.Printf("> %s", p.Name())
			env.stats.rightOnly.Add(1)
			differs = true
		case results[i].differs:
			r.Line(p.Name())
			r.Append(results[i].report)
			differs = true
		}
	}
	return differs, nil
}

func diffPair(ctx context.Context, env *Env, p compare.Pair, openLeft, openRight materializer, r *Report) (bool, error) {
	pathA, tempA, err := openLeft(ctx, p.Left)
	if err != nil {
		return false, err
	}
	if tempA {
		defer env.Temp.Remove(ctx, pathA)
	}

	pathB, tempB, err := openRight(ctx, p.Right)
	if err != nil {
		return false, err
	}
	if tempB {
		defer env.Temp.Remove(ctx, pathB)
	}

	env.compared(p.Name())
	engine := env.Registry.Select(env, pathA, pathB)
	if engine == nil {
		env.stats.unsupported.Add(1)
		env.Logger.Debug(ctx, "no engine for member", logging.Fields{"name": p.Name()})
		r.Line("Don't know how to diff.")
		return true, nil
	}
	return engine.Diff(ctx, env, pathA, pathB, r)
}
