package torch

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	goversion "github.com/hashicorp/go-version"

	"github.com/sdejongh/ddiff/pkg/msi"
)

var (
	// ErrValidation is returned when a database fails a transform validation condition
	ErrValidation = errors.New("transform validation failed")
	// ErrConflict is returned for an unsuppressed error condition
	ErrConflict = errors.New("transform conflict")
)

// Apply applies t to db in place. Validation conditions are checked first;
// unsuppressed error conditions abort the apply.
func Apply(db *msi.Database, t *Transform) error {
	if err := Validate(db, t); err != nil {
		return err
	}
	return apply(db, t)
}

func apply(db *msi.Database, t *Transform) error {
	suppressed := func(c ErrorCondition) bool { return t.Flags.Suppress&c != 0 }

	if t.Codepage != t.BaseCodepage {
		if db.Codepage != t.BaseCodepage && !suppressed(SuppressChangeCodepage) {
			return fmt.Errorf("%w: database codepage %d, transform base codepage %d", ErrConflict, db.Codepage, t.BaseCodepage)
		}
		db.Codepage = t.Codepage
	}

	for _, c := range t.Changes {
		switch {
		case c.Column == OpCreate:
			if db.Table(c.Table) != nil {
				if !suppressed(SuppressAddExistingTable) {
					return fmt.Errorf("%w: table %s already exists", ErrConflict, c.Table)
				}
				continue
			}
			db.AddTable(msi.NewTable(c.Table))

		case c.Column == OpDrop:
			if db.Table(c.Table) == nil {
				if !suppressed(SuppressDeleteMissingTable) {
					return fmt.Errorf("%w: table %s does not exist", ErrConflict, c.Table)
				}
				continue
			}
			db.DropTable(c.Table)

		case c.IsDDL():
			if err := applyColumn(db, c); err != nil {
				return err
			}

		case c.Column == OpInsert:
			table := db.Table(c.Table)
			if table == nil {
				return fmt.Errorf("insert into missing table %s", c.Table)
			}
			if table.FindRow(c.Keys) >= 0 {
				if !suppressed(SuppressAddExistingRow) {
					return fmt.Errorf("%w: row %s%s already exists", ErrConflict, c.Table, c.RowLabel())
				}
				continue
			}
			row, err := newRow(table, c.Keys)
			if err != nil {
				return err
			}
			table.Rows = append(table.Rows, row)

		case c.Column == OpDelete:
			table := db.Table(c.Table)
			idx := -1
			if table != nil {
				idx = table.FindRow(c.Keys)
			}
			if idx < 0 {
				if !suppressed(SuppressDeleteMissingRow) {
					return fmt.Errorf("%w: row %s%s does not exist", ErrConflict, c.Table, c.RowLabel())
				}
				continue
			}
			table.Rows = append(table.Rows[:idx], table.Rows[idx+1:]...)

		default:
			if err := applyCell(db, c, suppressed(SuppressUpdateMissingRow)); err != nil {
				return err
			}
		}
	}
	return nil
}

// applyColumn adds a column to a table, or redefines an existing one
func applyColumn(db *msi.Database, c Change) error {
	table := db.Table(c.Table)
	if table == nil {
		return fmt.Errorf("column %s added to missing table %s", c.Column, c.Table)
	}
	def, err := strconv.Atoi(c.Data)
	if err != nil {
		return fmt.Errorf("column %s.%s: invalid definition %q", c.Table, c.Column, c.Data)
	}
	col := msi.Column{Name: c.Column, Type: msi.ColumnType(def)}
	if i, ok := table.ColumnIndex(c.Column); ok {
		table.Columns[i] = col
		return nil
	}
	table.Columns = append(table.Columns, col)
	for i := range table.Rows {
		table.Rows[i] = append(table.Rows[i], msi.NullValue())
	}
	return nil
}

func newRow(table *msi.Table, keys []string) (msi.Row, error) {
	row := make(msi.Row, len(table.Columns))
	for i := range row {
		row[i] = msi.NullValue()
	}
	cols := table.KeyColumns()
	if len(cols) != len(keys) {
		return nil, fmt.Errorf("table %s: %d key values for %d key columns", table.Name, len(keys), len(cols))
	}
	for i, col := range cols {
		v, err := msi.ParseValue(table.Columns[col].Type, keys[i])
		if err != nil {
			return nil, fmt.Errorf("table %s key %s: %w", table.Name, table.Columns[col].Name, err)
		}
		row[col] = v
	}
	return row, nil
}

func applyCell(db *msi.Database, c Change, suppressMissing bool) error {
	table := db.Table(c.Table)
	idx := -1
	if table != nil {
		idx = table.FindRow(c.Keys)
	}
	if idx < 0 {
		if !suppressMissing {
			return fmt.Errorf("%w: update of missing row %s%s", ErrConflict, c.Table, c.RowLabel())
		}
		return nil
	}
	col, ok := table.ColumnIndex(c.Column)
	if !ok {
		return fmt.Errorf("table %s has no column %s", c.Table, c.Column)
	}

	v, err := c.Value(table.Columns[col].Type)
	if err != nil {
		return fmt.Errorf("%s.%s%s: %w", c.Table, c.Column, c.RowLabel(), err)
	}
	table.Rows[idx][col] = v
	return nil
}

// Validate checks the validation conditions of t against db
func Validate(db *msi.Database, t *Transform) error {
	v := t.Flags.Validate
	if v == 0 {
		return nil
	}
	got := productOf(db)

	if v&ValidateProduct != 0 && !strings.EqualFold(got.Code, t.Base.Code) {
		return fmt.Errorf("%w: product code %s, want %s", ErrValidation, got.Code, t.Base.Code)
	}
	if v&ValidateUpgradeCode != 0 && !strings.EqualFold(got.UpgradeCode, t.Base.UpgradeCode) {
		return fmt.Errorf("%w: upgrade code %s, want %s", ErrValidation, got.UpgradeCode, t.Base.UpgradeCode)
	}
	if v&ValidateLanguage != 0 && got.Language != t.Base.Language {
		return fmt.Errorf("%w: language %s, want %s", ErrValidation, got.Language, t.Base.Language)
	}
	if v&versionPredicates != 0 {
		if err := validateVersion(got.Version, t.Base.Version, v); err != nil {
			return err
		}
	}
	return nil
}

func validateVersion(installed, base string, v Validation) error {
	depth := 3
	switch {
	case v&ValidateMajorVersion != 0:
		depth = 1
	case v&ValidateMinorVersion != 0:
		depth = 2
	}

	have, err := truncateVersion(installed, depth)
	if err != nil {
		return fmt.Errorf("%w: product version: %v", ErrValidation, err)
	}
	want, err := truncateVersion(base, depth)
	if err != nil {
		return fmt.Errorf("%w: base version: %v", ErrValidation, err)
	}

	cmp := have.Compare(want)
	var ok bool
	switch {
	case v&ValidateNewLessBase != 0:
		ok = cmp < 0
	case v&ValidateNewLessEqualBase != 0:
		ok = cmp <= 0
	case v&ValidateNewEqualBase != 0:
		ok = cmp == 0
	case v&ValidateNewGreaterEqualBase != 0:
		ok = cmp >= 0
	case v&ValidateNewGreaterBase != 0:
		ok = cmp > 0
	}
	if !ok {
		return fmt.Errorf("%w: product version %s does not satisfy %s against %s", ErrValidation, installed, v&versionPredicates, base)
	}
	return nil
}

func truncateVersion(s string, depth int) (*goversion.Version, error) {
	v, err := goversion.NewVersion(s)
	if err != nil {
		return nil, err
	}
	segs := v.Segments()
	if len(segs) > depth {
		segs = segs[:depth]
	}
	parts := make([]string, len(segs))
	for i, seg := range segs {
		parts[i] = strconv.Itoa(seg)
	}
	return goversion.NewVersion(strings.Join(parts, "."))
}

// Verify applies t to a copy of target without validation and checks that
// nothing remains to change against updated
func Verify(target, updated *msi.Database, t *Transform) error {
	clone := target.Clone()
	if err := apply(clone, t); err != nil {
		return fmt.Errorf("failed to apply transform: %w", err)
	}
	rest, err := Build(clone, updated, Flags{})
	if err != nil {
		return err
	}
	if !rest.Empty() {
		return fmt.Errorf("transform leaves %d changes unapplied", len(rest.Changes))
	}
	return nil
}
