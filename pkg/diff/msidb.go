package diff

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sdejongh/ddiff/pkg/compare"
	"github.com/sdejongh/ddiff/pkg/msi"
	"github.com/sdejongh/ddiff/pkg/storage"
	"github.com/sdejongh/ddiff/pkg/torch"
)

var (
	databaseExts = []string{".msi", ".msm", ".pcp"}
	patchExts    = []string{".msp"}
)

func hasExt(path string, exts []string) bool {
	ext := filepath.Ext(path)
	for _, e := range exts {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}

// MsiDatabase diffs installer databases: summary information, tables and streams
type MsiDatabase struct{}

// Name implements Engine
func (MsiDatabase) Name() string { return "MsiDatabase" }

// Score implements Engine
func (MsiDatabase) Score(env *Env, a, b string) float64 {
	if !bothFiles(a, b) {
		return 0
	}
	switch {
	case hasExt(a, databaseExts) || hasExt(b, databaseExts):
		return 0.70
	case hasExt(a, patchExts) || hasExt(b, patchExts):
		return 0.60
	default:
		return 0
	}
}

// Diff implements Engine
func (MsiDatabase) Diff(ctx context.Context, env *Env, a, b string, r *Report) (bool, error) {
	dbA, err := env.openDatabase(a)
	if err != nil {
		return false, err
	}
	dbB, err := env.openDatabase(b)
	if err != nil {
		return false, err
	}

	differs := diffSummary(dbA.Summary, dbB.Summary, r)

	tablesDiffer, err := diffTables(dbA, dbB, r)
	if err != nil {
		return false, err
	}

	streamsDiffer, err := diffStreams(ctx, env, dbA, dbB, r)
	if err != nil {
		return false, err
	}
	return differs || tablesDiffer || streamsDiffer, nil
}

func diffSummary(a, b msi.SummaryInfo, r *Report) bool {
	differs := false
	fieldsB := b.Fields()
	for i, f := range a.Fields() {
		if f.Value != fieldsB[i].Value {
			r.Printf("%s.%s {%s}->{%s}", msi.SummaryStream, f.Name, f.Value, fieldsB[i].Value)
			differs = true
		}
	}
	return differs
}

// diffTables renders the transform between the two databases
func diffTables(a, b *msi.Database, r *Report) (bool, error) {
	t, err := torch.Build(a, b, torch.Flags{})
	if err != nil {
		return false, fmt.Errorf("failed to compare tables: %w", err)
	}
	if t.BaseCodepage != t.Codepage {
		r.Printf("Codepage {%d}->{%d}", t.BaseCodepage, t.Codepage)
	}
	for _, c := range t.Changes {
		r.Line(c.Describe())
	}
	return !t.Empty(), nil
}

// diffStreams merge-compares the stored streams, summary information excluded
func diffStreams(ctx context.Context, env *Env, a, b *msi.Database, r *Report) (bool, error) {
	return mergeCompare(ctx, env, r,
		streamItems(a), streamItems(b),
		streamMember(env.Temp), streamMember(env.Temp))
}

func streamItems(db *msi.Database) []compare.Item {
	var items []compare.Item
	for _, name := range db.StreamNames() {
		if name == msi.SummaryStream {
			continue
		}
		data, _ := db.Stream(name)
		items = append(items, compare.Item{Name: name, Value: data})
	}
	return items
}

func streamMember(temp *storage.TempScope) materializer {
	return func(ctx context.Context, item *compare.Item) (string, bool, error) {
		path, err := temp.CreateFile(item.Name, bytes.NewReader(item.Value.([]byte)))
		if err != nil {
			return "", false, err
		}
		return path, true, nil
	}
}
