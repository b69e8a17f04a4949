package diff

import (
	"context"
	"fmt"
	"os"

	"github.com/sdejongh/ddiff/pkg/logging"
)

// MsiPatch diffs patch packages by applying them to a baseline database
// and diffing the results
type MsiPatch struct{}

// Name implements Engine
func (MsiPatch) Name() string { return "MsiPatch" }

// Score implements Engine
func (MsiPatch) Score(env *Env, a, b string) float64 {
	if !bothFiles(a, b) {
		return 0
	}
	target := ""
	if env != nil {
		target = env.Options.PatchTarget
	}

	patchA, patchB := hasExt(a, patchExts), hasExt(b, patchExts)
	switch {
	case patchA && patchB && target != "":
		return 0.80
	case target == "" && (patchA && hasExt(b, databaseExts) || patchB && hasExt(a, databaseExts)):
		return 0.75
	default:
		return 0
	}
}

// Diff implements Engine
func (MsiPatch) Diff(ctx context.Context, env *Env, a, b string, r *Report) (bool, error) {
	dbA, err := applyPatch(ctx, env, a, b)
	if err != nil {
		return false, err
	}
	defer cleanupPatched(ctx, env, a, dbA)

	dbB, err := applyPatch(ctx, env, b, a)
	if err != nil {
		return false, err
	}
	defer cleanupPatched(ctx, env, b, dbB)

	differs, err := MsiDatabase{}.Diff(ctx, env, dbA, dbB, r)
	if err != nil {
		return false, err
	}

	if hasExt(a, patchExts) && hasExt(b, patchExts) {
		patchA, err := env.openDatabase(a)
		if err != nil {
			return false, err
		}
		patchB, err := env.openDatabase(b)
		if err != nil {
			return false, err
		}
		streamsDiffer, err := diffStreams(ctx, env, patchA, patchB, r)
		if err != nil {
			return false, err
		}
		differs = differs || streamsDiffer
	}
	return differs, nil
}

// applyPatch returns the database to diff for input. Patches are applied to
// a writable copy of the baseline: the patch target, else the other input.
func applyPatch(ctx context.Context, env *Env, input, other string) (string, error) {
	if !hasExt(input, patchExts) {
		return input, nil
	}

	baseline := env.Options.PatchTarget
	if baseline == "" {
		baseline = other
	}

	db, err := env.Temp.CopyFile(baseline)
	if err != nil {
		return "", fmt.Errorf("failed to copy patch baseline: %w", err)
	}
	if err := os.Chmod(db, 0600); err != nil {
		env.Temp.Remove(ctx, db)
		return "", fmt.Errorf("failed to make %s writable: %w", db, err)
	}

	env.Logger.Debug(ctx, "applying patch", logging.Fields{
		"patch":    input,
		"baseline": baseline,
	})
	if err := env.Patcher.Apply(ctx, db, input); err != nil {
		env.Temp.Remove(ctx, db)
		return "", fmt.Errorf("failed to apply %s to %s: %w", input, baseline, err)
	}
	return db, nil
}

func cleanupPatched(ctx context.Context, env *Env, input, db string) {
	if db != input {
		env.Temp.Remove(ctx, db)
	}
}
