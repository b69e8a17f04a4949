package diff

import (
	"context"
	"errors"
	"fmt"

	"github.com/sdejongh/ddiff/pkg/compare"
	"github.com/sdejongh/ddiff/pkg/fileversion"
	"github.com/sdejongh/ddiff/pkg/logging"
	"github.com/sdejongh/ddiff/pkg/storage"
	"github.com/sdejongh/ddiff/pkg/textdiff"
)

const textHeadSize = 256

func bothFiles(a, b string) bool {
	return storage.KindOf(a) == storage.KindFile && storage.KindOf(b) == storage.KindFile
}

// ByteFile compares any two regular files byte for byte
type ByteFile struct{}

// Name implements Engine
func (ByteFile) Name() string { return "ByteFile" }

// Score implements Engine
func (ByteFile) Score(env *Env, a, b string) float64 {
	if bothFiles(a, b) {
		return 0.10
	}
	return 0
}

// Diff implements Engine
func (ByteFile) Diff(ctx context.Context, env *Env, a, b string, r *Report) (bool, error) {
	return diffBytes(ctx, env, a, b, r)
}

func diffBytes(ctx context.Context, env *Env, a, b string, r *Report) (bool, error) {
	cmp, err := env.Blocks().Compare(ctx, a, b)
	if err != nil {
		return false, err
	}
	if !cmp.Differs() {
		return false, nil
	}
	env.Logger.Debug(ctx, "contents differ", logging.Fields{"a": a, "b": b, "reason": cmp.Reason})
	if cmp.Result == compare.DifferentSize {
		r.Printf("File size: %d -> %d", cmp.SizeA, cmp.SizeB)
	} else {
		r.Line("Files differ.")
	}
	return true, nil
}

// VersionedFile compares executables by their version resource first
type VersionedFile struct{}

// Name implements Engine
func (VersionedFile) Name() string { return "VersionedFile" }

// Score implements Engine
func (VersionedFile) Score(env *Env, a, b string) float64 {
	if bothFiles(a, b) && (fileversion.HasVersion(a) || fileversion.HasVersion(b)) {
		return 0.20
	}
	return 0
}

// Diff implements Engine
func (VersionedFile) Diff(ctx context.Context, env *Env, a, b string, r *Report) (bool, error) {
	va, vb := fileversion.Read(a), fileversion.Read(b)
	if va != vb {
		r.Printf("File version: %s -> %s", va, vb)
		return true, nil
	}

	bits := r.Fork()
	differs, err := diffBytes(ctx, env, a, b, bits)
	if err != nil {
		return false, err
	}
	if differs {
		r.Line("File versions match but bits differ.")
		r.Append(bits)
	}
	return differs, nil
}

// TextFile runs a line diff over files that look like 7-bit text
type TextFile struct{}

// Name implements Engine
func (TextFile) Name() string { return "TextFile" }

// Score implements Engine
func (TextFile) Score(env *Env, a, b string) float64 {
	if !bothFiles(a, b) || !isText(a) || !isText(b) {
		return 0
	}
	return 0.70
}

func isText(path string) bool {
	head, err := storage.ReadHead(path, textHeadSize)
	if err != nil {
		return false
	}
	for _, c := range head {
		if c >= 0x80 {
			return false
		}
	}
	return true
}

// Diff implements Engine
func (TextFile) Diff(ctx context.Context, env *Env, a, b string, r *Report) (bool, error) {
	lines, err := env.Text.Diff(ctx, a, b)
	if errors.Is(err, textdiff.ErrToolUnavailable) {
		env.Logger.Debug(ctx, "text diff tool unavailable, comparing bytes", logging.Fields{
			"differ": env.Text.Name(),
			"error":  err.Error(),
		})
		return diffBytes(ctx, env, a, b, r)
	}
	if err != nil {
		return false, fmt.Errorf("failed to diff %s and %s: %w", a, b, err)
	}

	differs := false
	for _, line := range lines {
		if line == "" {
			continue
		}
		r.Line(line)
		differs = true
	}
	return differs, nil
}
