package diff

import (
	"context"
	"fmt"
	"io"

	"github.com/sdejongh/ddiff/pkg/cab"
	"github.com/sdejongh/ddiff/pkg/compare"
	"github.com/sdejongh/ddiff/pkg/storage"
)

// Cabinet diffs the members of two cabinet archives
type Cabinet struct{}

// Name implements Engine
func (Cabinet) Name() string { return "Cabinet" }

// Score implements Engine
func (Cabinet) Score(env *Env, a, b string) float64 {
	if bothFiles(a, b) && (cab.IsCabinetFile(a) || cab.IsCabinetFile(b)) {
		return 0.80
	}
	return 0
}

// Diff implements Engine
func (Cabinet) Diff(ctx context.Context, env *Env, a, b string, r *Report) (bool, error) {
	cabA, err := cab.Open(a)
	if err != nil {
		return false, fmt.Errorf("failed to open cabinet %s: %w", a, err)
	}
	defer cabA.Close()

	cabB, err := cab.Open(b)
	if err != nil {
		return false, fmt.Errorf("failed to open cabinet %s: %w", b, err)
	}
	defer cabB.Close()

	return mergeCompare(ctx, env, r,
		cabinetItems(cabA), cabinetItems(cabB),
		cabinetMember(env.Temp, cabA), cabinetMember(env.Temp, cabB))
}

func cabinetItems(c *cab.Cabinet) []compare.Item {
	items := make([]compare.Item, len(c.Files))
	for i, f := range c.Files {
		items[i] = compare.Item{Name: f.Name, Value: f}
	}
	return items
}

// cabinetMember extracts a member into the temp scope
func cabinetMember(temp *storage.TempScope, c *cab.Cabinet) materializer {
	return func(ctx context.Context, item *compare.Item) (string, bool, error) {
		f := item.Value.(*cab.File)

		pr, pw := io.Pipe()
		go func() {
			pw.CloseWithError(c.Extract(f, pw))
		}()
		path, err := temp.CreateFile(f.Name, pr)
		pr.Close()
		if err != nil {
			return "", false, err
		}
		return path, true, nil
	}
}
