package diff

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/sdejongh/ddiff/pkg/compare"
	"github.com/sdejongh/ddiff/pkg/storage"
)

// Directory walks two directory trees, files first then subdirectories
type Directory struct{}

// Name implements Engine
func (Directory) Name() string { return "Directory" }

// Score implements Engine
func (Directory) Score(env *Env, a, b string) float64 {
	if storage.KindOf(a) == storage.KindDir && storage.KindOf(b) == storage.KindDir {
		return 0.70
	}
	return 0
}

// ancestorsKey carries the resolved directories above the one being walked
type ancestorsKey struct{}

type ancestors struct {
	left, right []string
}

// Diff implements Engine
func (Directory) Diff(ctx context.Context, env *Env, a, b string, r *Report) (bool, error) {
	realA, err := filepath.EvalSymlinks(a)
	if err != nil {
		return false, fmt.Errorf("failed to resolve %s: %w", a, err)
	}
	realB, err := filepath.EvalSymlinks(b)
	if err != nil {
		return false, fmt.Errorf("failed to resolve %s: %w", b, err)
	}

	// a symlink back to an enclosing directory is not walked again
	above, _ := ctx.Value(ancestorsKey{}).(ancestors)
	loopA, loopB := slices.Contains(above.left, realA), slices.Contains(above.right, realB)
	switch {
	case loopA && loopB:
		return false, nil
	case loopA || loopB:
		r.Line("Recursive directory loop.")
		return true, nil
	}
	ctx = context.WithValue(ctx, ancestorsKey{}, ancestors{
		left:  append(slices.Clip(above.left), realA),
		right: append(slices.Clip(above.right), realB),
	})

	filesA, dirsA, err := listLocal(ctx, a)
	if err != nil {
		return false, err
	}
	filesB, dirsB, err := listLocal(ctx, b)
	if err != nil {
		return false, err
	}

	filesDiffer, err := mergeCompare(ctx, env, r, filesA, filesB, pathMember, pathMember)
	if err != nil {
		return false, err
	}
	dirsDiffer, err := mergeCompare(ctx, env, r, dirsA, dirsB, pathMember, pathMember)
	if err != nil {
		return false, err
	}
	return filesDiffer || dirsDiffer, nil
}

func listLocal(ctx context.Context, path string) (files, dirs []compare.Item, err error) {
	backend, err := storage.NewLocal(path)
	if err != nil {
		return nil, nil, err
	}
	defer backend.Close()

	files, dirs, err = listDir(ctx, backend)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list %s: %w", path, err)
	}
	return files, dirs, nil
}

// listDir splits the children of the backend root into files and
// subdirectories. Subdirectory names end with a path separator.
func listDir(ctx context.Context, backend storage.Backend) (files, dirs []compare.Item, err error) {
	entries, err := backend.ReadDir(ctx, "")
	if err != nil {
		return nil, nil, err
	}
	for _, e := range entries {
		if e.IsDir {
			dirs = append(dirs, compare.Item{Name: e.Name + string(os.PathSeparator), Value: e.Path})
		} else {
			files = append(files, compare.Item{Name: e.Name, Value: e.Path})
		}
	}
	return files, dirs, nil
}
