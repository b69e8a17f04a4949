package msi

import (
	"fmt"
	"strconv"
	"strings"
)

// ColumnType holds the column definition bits stored in _Columns
type ColumnType uint16

const (
	TypeSizeMask    ColumnType = 0x00FF
	TypeValid       ColumnType = 0x0100
	TypeLocalizable ColumnType = 0x0200
	TypeLong        ColumnType = 0x0000
	TypeShort       ColumnType = 0x0400
	TypeObject      ColumnType = 0x0800
	TypeString      ColumnType = 0x0C00
	TypeCategory    ColumnType = 0x0C00
	TypeNullable    ColumnType = 0x1000
	TypeKey         ColumnType = 0x2000
)

// StringType returns the definition of a string column of the given size (0 = unlimited)
func StringType(size int) ColumnType {
	return TypeValid | TypeString | ColumnType(size)&TypeSizeMask
}

// IntType returns the definition of a 2 or 4 byte integer column
func IntType(width int) ColumnType {
	if width <= 2 {
		return TypeValid | TypeShort | 2
	}
	return TypeValid | TypeLong | 4
}

// BinaryType returns the definition of a stream column
func BinaryType() ColumnType {
	return TypeValid | TypeObject
}

// AsKey marks the column as part of the primary key
func (t ColumnType) AsKey() ColumnType { return t | TypeKey }

// AsNullable marks the column as nullable
func (t ColumnType) AsNullable() ColumnType { return t | TypeNullable }

// IsBinary reports whether the column holds stream references
func (t ColumnType) IsBinary() bool {
	return t&^TypeNullable == TypeValid|TypeObject
}

// IsString reports whether the column holds string pool references
func (t ColumnType) IsString() bool {
	return t&TypeObject != 0 && !t.IsBinary()
}

// IsInteger reports whether the column holds integers
func (t ColumnType) IsInteger() bool {
	return t&TypeObject == 0
}

// IsKey reports whether the column is part of the primary key
func (t ColumnType) IsKey() bool { return t&TypeKey != 0 }

// IsNullable reports whether the column accepts nulls
func (t ColumnType) IsNullable() bool { return t&TypeNullable != 0 }

// Size returns the declared size (string length or integer width)
func (t ColumnType) Size() int { return int(t & TypeSizeMask) }

// storedWidth returns the bytes one cell of the column takes in a table stream
func (t ColumnType) storedWidth(stringRefSize int) int {
	switch {
	case t.IsBinary():
		return 2
	case t.IsString():
		return stringRefSize
	case t.Size() <= 2:
		return 2
	default:
		return 4
	}
}

// Column describes one column of a table
type Column struct {
	Name string
	Type ColumnType
}

// Kind identifies what a Value holds
type Kind int

const (
	KindNull Kind = iota
	KindInt
	KindString
	KindBinary
)

// Value is one table cell
type Value struct {
	Kind Kind
	Int  int32
	Str  string
	Data []byte
}

// NullValue returns a null cell
func NullValue() Value { return Value{Kind: KindNull} }

// IntValue returns an integer cell
func IntValue(i int32) Value { return Value{Kind: KindInt, Int: i} }

// StringValue returns a string cell; the empty string is null
func StringValue(s string) Value {
	if s == "" {
		return NullValue()
	}
	return Value{Kind: KindString, Str: s}
}

// BinaryValue returns a stream cell
func BinaryValue(data []byte) Value {
	return Value{Kind: KindBinary, Data: data}
}

// IsNull reports whether the cell is null
func (v Value) IsNull() bool { return v.Kind == KindNull }

// String formats the cell the way transform views display it
func (v Value) String() string {
	switch v.Kind {
	case KindInt:
		return strconv.FormatInt(int64(v.Int), 10)
	case KindString:
		return v.Str
	case KindBinary:
		return "[Binary Data]"
	default:
		return ""
	}
}

// Equal compares two cells, including stream contents
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindInt:
		return v.Int == o.Int
	case KindString:
		return v.Str == o.Str
	case KindBinary:
		return string(v.Data) == string(o.Data)
	default:
		return true
	}
}

// ParseValue converts display text back into a cell of the given column type
func ParseValue(t ColumnType, s string) (Value, error) {
	if s == "" {
		return NullValue(), nil
	}
	switch {
	case t.IsInteger():
		i, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return Value{}, fmt.Errorf("invalid integer %q: %w", s, err)
		}
		return IntValue(int32(i)), nil
	case t.IsBinary():
		return BinaryValue([]byte(s)), nil
	default:
		return StringValue(s), nil
	}
}

// Row is one table record, one Value per column
type Row []Value

// Table is a decoded database table
type Table struct {
	Name    string
	Columns []Column
	Rows    []Row
}

// NewTable creates an empty table
func NewTable(name string, columns ...Column) *Table {
	return &Table{Name: name, Columns: columns}
}

// AddRow appends a row, checking its width
func (t *Table) AddRow(values ...Value) error {
	if len(values) != len(t.Columns) {
		return fmt.Errorf("%s: row has %d values, table has %d columns", t.Name, len(values), len(t.Columns))
	}
	t.Rows = append(t.Rows, Row(values))
	return nil
}

// ColumnIndex returns the position of the named column
func (t *Table) ColumnIndex(name string) (int, bool) {
	for i, c := range t.Columns {
		if c.Name == name {
			return i, true
		}
	}
	return -1, false
}

// KeyColumns returns the positions of the primary key columns.
// Tables without declared keys are keyed on every column.
func (t *Table) KeyColumns() []int {
	var keys []int
	for i, c := range t.Columns {
		if c.Type.IsKey() {
			keys = append(keys, i)
		}
	}
	if len(keys) == 0 {
		for i := range t.Columns {
			keys = append(keys, i)
		}
	}
	return keys
}

// RowKey returns the primary key values of a row
func (t *Table) RowKey(r Row) []string {
	cols := t.KeyColumns()
	key := make([]string, len(cols))
	for i, c := range cols {
		key[i] = r[c].String()
	}
	return key
}

// FindRow returns the index of the row with the given key, or -1
func (t *Table) FindRow(key []string) int {
	want := strings.Join(key, "\t")
	for i, r := range t.Rows {
		if strings.Join(t.RowKey(r), "\t") == want {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the table
func (t *Table) Clone() *Table {
	c := &Table{
		Name:    t.Name,
		Columns: append([]Column(nil), t.Columns...),
		Rows:    make([]Row, len(t.Rows)),
	}
	for i, r := range t.Rows {
		c.Rows[i] = append(Row(nil), r...)
	}
	return c
}
