// Package torch builds and applies transforms: the row level changeset
// between two installer databases.
package torch

import (
	"encoding/base64"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/sdejongh/ddiff/pkg/msi"
)

// Markers stored in the Column field of table and row operations
const (
	OpInsert = "INSERT"
	OpDelete = "DELETE"
	OpCreate = "CREATE"
	OpDrop   = "DROP"
)

// Change is one row of a transform view
type Change struct {
	Table   string   `json:"table" yaml:"table"`
	Column  string   `json:"column" yaml:"column"`
	Keys    []string `json:"keys,omitempty" yaml:"keys,omitempty"`
	Data    string   `json:"data,omitempty" yaml:"data,omitempty"`
	Current string   `json:"current,omitempty" yaml:"current,omitempty"`
	Number  int      `json:"number" yaml:"number"`
	// Binary holds the base64 stream data of binary cells; Data only shows a placeholder
	Binary string `json:"binary,omitempty" yaml:"binary,omitempty"`

	NewValue msi.Value `json:"-" yaml:"-"`
}

// cellChange records the new value v of column col in the row with keys
func cellChange(t *msi.Table, col int, keys []string, prev, v msi.Value) Change {
	c := Change{
		Table:    t.Name,
		Column:   t.Columns[col].Name,
		Keys:     keys,
		Data:     v.String(),
		Current:  prev.String(),
		Number:   col + 1,
		NewValue: v,
	}
	if v.Kind == msi.KindBinary {
		c.Binary = base64.StdEncoding.EncodeToString(v.Data)
	}
	return c
}

// Value returns the new cell value for a column of type t. Changes read
// back from a file carry no NewValue and are decoded from Data or Binary.
func (c Change) Value(t msi.ColumnType) (msi.Value, error) {
	if !c.NewValue.IsNull() {
		return c.NewValue, nil
	}
	if t.IsBinary() && c.Data != "" {
		data, err := base64.StdEncoding.DecodeString(c.Binary)
		if err != nil {
			return msi.Value{}, fmt.Errorf("invalid binary data: %w", err)
		}
		return msi.BinaryValue(data), nil
	}
	return msi.ParseValue(t, c.Data)
}

// IsDDL reports whether the change alters a table definition
func (c Change) IsDDL() bool { return c.Keys == nil }

// IsOperation reports whether the change is a table or row insert, delete, create or drop
func (c Change) IsOperation() bool {
	switch c.Column {
	case OpInsert, OpDelete, OpCreate, OpDrop:
		return true
	}
	return false
}

// RowLabel returns "[k1,k2]" for row changes and "<DDL>" for definition changes
func (c Change) RowLabel() string {
	if c.IsDDL() {
		return "<DDL>"
	}
	return "[" + strings.Join(c.Keys, ",") + "]"
}

// Describe renders the change as a single report line
func (c Change) Describe() string {
	var detail string
	switch {
	case c.IsOperation():
	case c.IsDDL():
		def, _ := strconv.Atoi(c.Data)
		detail = fmt.Sprintf("[%s]: %s", c.Current, DecodeColDef(def))
	default:
		detail = fmt.Sprintf("{%s}->{%s}", c.Current, c.Data)
	}
	return fmt.Sprintf("%-25s %s %s", c.Table+" "+c.Column, c.RowLabel(), detail)
}

// Product identifies the product a database installs
type Product struct {
	Code        string `json:"product_code,omitempty" yaml:"product_code,omitempty"`
	UpgradeCode string `json:"upgrade_code,omitempty" yaml:"upgrade_code,omitempty"`
	Language    string `json:"language,omitempty" yaml:"language,omitempty"`
	Version     string `json:"version,omitempty" yaml:"version,omitempty"`
}

func productOf(db *msi.Database) Product {
	return Product{
		Code:        db.Property("ProductCode"),
		UpgradeCode: db.Property("UpgradeCode"),
		Language:    db.Property("ProductLanguage"),
		Version:     db.Property("ProductVersion"),
	}
}

// Transform is the changeset turning a target database into an updated one
type Transform struct {
	Flags        Flags    `json:"flags" yaml:"flags"`
	BaseCodepage int      `json:"base_codepage" yaml:"base_codepage"`
	Codepage     int      `json:"codepage" yaml:"codepage"`
	Base         Product  `json:"base" yaml:"base"`
	Updated      Product  `json:"updated" yaml:"updated"`
	Changes      []Change `json:"changes" yaml:"changes"`
}

// Empty reports whether the transform changes nothing
func (t *Transform) Empty() bool {
	return len(t.Changes) == 0 && t.BaseCodepage == t.Codepage
}

// Build compares target against updated and returns the transform between them
func Build(target, updated *msi.Database, flags Flags) (*Transform, error) {
	if target == nil || updated == nil {
		return nil, fmt.Errorf("both databases are required")
	}
	t := &Transform{
		Flags:        flags,
		BaseCodepage: target.Codepage,
		Codepage:     updated.Codepage,
		Base:         productOf(target),
		Updated:      productOf(updated),
	}

	for _, name := range unionNames(target.TableNames(), updated.TableNames()) {
		before, after := target.Table(name), updated.Table(name)
		switch {
		case before == nil:
			t.Changes = append(t.Changes, createTable(after)...)
		case after == nil:
			t.Changes = append(t.Changes, Change{Table: name, Column: OpDrop})
		default:
			t.Changes = append(t.Changes, diffTable(before, after)...)
		}
	}

	sortChanges(t.Changes)
	return t, nil
}

func unionNames(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var out []string
	for _, n := range append(append([]string(nil), a...), b...) {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}

func columnDDL(table string, number int, col msi.Column) Change {
	return Change{
		Table:   table,
		Column:  col.Name,
		Data:    strconv.Itoa(int(col.Type)),
		Current: strconv.Itoa(number),
		Number:  number,
	}
}

func createTable(t *msi.Table) []Change {
	changes := []Change{{Table: t.Name, Column: OpCreate}}
	for i, col := range t.Columns {
		changes = append(changes, columnDDL(t.Name, i+1, col))
	}
	for _, r := range t.Rows {
		changes = append(changes, insertRow(t, r)...)
	}
	return changes
}

func insertRow(t *msi.Table, r msi.Row) []Change {
	keys := t.RowKey(r)
	changes := []Change{{Table: t.Name, Column: OpInsert, Keys: keys}}
	isKey := make(map[int]bool)
	for _, k := range t.KeyColumns() {
		isKey[k] = true
	}
	for i := range t.Columns {
		if isKey[i] || r[i].IsNull() {
			continue
		}
		changes = append(changes, cellChange(t, i, keys, msi.NullValue(), r[i]))
	}
	return changes
}

func rowIndex(t *msi.Table) map[string]msi.Row {
	idx := make(map[string]msi.Row, len(t.Rows))
	for _, r := range t.Rows {
		idx[keyString(t.RowKey(r))] = r
	}
	return idx
}

func keyString(keys []string) string {
	return strings.Join(keys, "\x00")
}

// rebuildTable drops a table and recreates it with every row of t
func rebuildTable(t *msi.Table) []Change {
	return append([]Change{{Table: t.Name, Column: OpDrop}}, createTable(t)...)
}

// dropsColumns reports whether after lacks a column of before. Column
// definition changes cannot remove a column, so such tables are rebuilt.
func dropsColumns(before, after *msi.Table) bool {
	for _, c := range before.Columns {
		if _, ok := after.ColumnIndex(c.Name); !ok {
			return true
		}
	}
	return false
}

func diffTable(before, after *msi.Table) []Change {
	if dropsColumns(before, after) {
		return rebuildTable(after)
	}

	var changes []Change

	// columns are matched by name; the updated table decides numbering
	oldCol := make(map[string]int, len(before.Columns))
	for i, c := range before.Columns {
		oldCol[c.Name] = i
	}
	for i, c := range after.Columns {
		j, ok := oldCol[c.Name]
		if !ok || before.Columns[j].Type != c.Type {
			changes = append(changes, columnDDL(after.Name, i+1, c))
		}
	}

	oldRows := rowIndex(before)
	newRows := rowIndex(after)
	for _, r := range after.Rows {
		keys := after.RowKey(r)
		old, ok := oldRows[keyString(keys)]
		if !ok {
			changes = append(changes, insertRow(after, r)...)
			continue
		}
		for i, c := range after.Columns {
			prev := msi.NullValue()
			if j, ok := oldCol[c.Name]; ok {
				prev = old[j]
			}
			if prev.Equal(r[i]) {
				continue
			}
			changes = append(changes, cellChange(after, i, keys, prev, r[i]))
		}
	}
	for _, r := range before.Rows {
		keys := before.RowKey(r)
		if _, ok := newRows[keyString(keys)]; !ok {
			changes = append(changes, Change{Table: before.Name, Column: OpDelete, Keys: keys})
		}
	}
	return changes
}

func sortChanges(changes []Change) {
	sort.SliceStable(changes, func(i, j int) bool {
		a, b := changes[i], changes[j]
		if a.Table != b.Table {
			return a.Table < b.Table
		}
		if a.IsDDL() != b.IsDDL() {
			return a.IsDDL()
		}
		if ka, kb := keyString(a.Keys), keyString(b.Keys); ka != kb {
			return ka < kb
		}
		return a.Number < b.Number
	})
}

// DecodeColDef renders a column definition the way the installer SQL dialect spells it
func DecodeColDef(def int) string {
	t := msi.ColumnType(def)
	var s string
	switch t & msi.TypeCategory {
	case msi.TypeLong:
		s = "LONG"
	case msi.TypeShort:
		s = "SHORT"
	case msi.TypeObject:
		s = "OBJECT"
	default:
		s = fmt.Sprintf("CHAR[%d]", t.Size())
	}
	if !t.IsNullable() {
		s += " NOT NULL"
	}
	if t.IsKey() {
		s += " PRIMARY KEY"
	}
	return s
}
