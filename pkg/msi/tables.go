package msi

import (
	"fmt"
	"sort"
	"strings"
)

const (
	tablesTable  = "_Tables"
	columnsTable = "_Columns"
	poolStream   = "_StringPool"
	dataStream   = "_StringData"
)

// rawDatabase holds undecoded streams keyed by decoded name
type rawDatabase struct {
	tables  map[string][]byte
	streams map[string][]byte
}

func newRawDatabase() *rawDatabase {
	return &rawDatabase{
		tables:  make(map[string][]byte),
		streams: make(map[string][]byte),
	}
}

// columnDef is one _Columns row
type columnDef struct {
	table  string
	number int
	column Column
}

var catalogColumns = map[string][]Column{
	tablesTable: {
		{Name: "Name", Type: StringType(64).AsKey()},
	},
	columnsTable: {
		{Name: "Table", Type: StringType(64).AsKey()},
		{Name: "Number", Type: IntType(2).AsKey()},
		{Name: "Name", Type: StringType(64)},
		{Name: "Type", Type: IntType(2)},
	},
}

// load decodes the catalog and every user table of a raw database
func load(raw *rawDatabase) (*Database, error) {
	pool, err := parseStringPool(raw.tables[poolStream], raw.tables[dataStream])
	if err != nil {
		return nil, err
	}

	names, err := decodeColumns(raw.tables[tablesTable], catalogColumns[tablesTable], pool)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", tablesTable, err)
	}
	colRows, err := decodeColumns(raw.tables[columnsTable], catalogColumns[columnsTable], pool)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", columnsTable, err)
	}

	defs := make(map[string][]columnDef)
	for _, r := range colRows {
		def := columnDef{
			table:  r[0].String(),
			number: int(r[1].Int),
			column: Column{Name: r[2].String(), Type: ColumnType(uint16(r[3].Int))},
		}
		defs[def.table] = append(defs[def.table], def)
	}

	db := NewDatabase()
	db.Codepage = pool.codepage
	for name, data := range raw.streams {
		db.SetStream(name, data)
	}

	for _, r := range names {
		name := r[0].String()
		cols := defs[name]
		sort.Slice(cols, func(i, j int) bool { return cols[i].number < cols[j].number })
		t := &Table{Name: name}
		for _, c := range cols {
			t.Columns = append(t.Columns, c.column)
		}
		rows, err := decodeColumns(raw.tables[name], t.Columns, pool)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		t.Rows = rows
		resolveStreams(db, t)
		db.AddTable(t)
	}
	return db, nil
}

// decodeColumns reads a column-major table stream
func decodeColumns(data []byte, cols []Column, pool *stringPool) ([]Row, error) {
	rowSize := 0
	for _, c := range cols {
		rowSize += c.Type.storedWidth(pool.refSize)
	}
	if rowSize == 0 || len(data) == 0 {
		return nil, nil
	}
	if len(data)%rowSize != 0 {
		return nil, fmt.Errorf("stream size %d is not a multiple of row size %d", len(data), rowSize)
	}
	count := len(data) / rowSize

	rows := make([]Row, count)
	for r := range rows {
		rows[r] = make(Row, len(cols))
	}
	ofs := 0
	for c, col := range cols {
		width := col.Type.storedWidth(pool.refSize)
		for r := 0; r < count; r++ {
			raw := readUint(data[ofs*count+r*width:], width)
			v, err := decodeCell(col.Type, raw, width, pool)
			if err != nil {
				return nil, fmt.Errorf("row %d column %s: %w", r+1, col.Name, err)
			}
			rows[r][c] = v
		}
		ofs += width
	}
	return rows, nil
}

func decodeCell(t ColumnType, raw uint32, width int, pool *stringPool) (Value, error) {
	if raw == 0 {
		return NullValue(), nil
	}
	switch {
	case t.IsBinary():
		// resolved against the stream list once the key is known
		return BinaryValue(nil), nil
	case t.IsString():
		s, err := pool.lookup(raw)
		if err != nil {
			return Value{}, err
		}
		return StringValue(s), nil
	case width == 2:
		return IntValue(int32(raw) - 0x8000), nil
	default:
		return IntValue(int32(raw - 0x80000000)), nil
	}
}

func readUint(b []byte, width int) uint32 {
	var v uint32
	for i := 0; i < width; i++ {
		v |= uint32(b[i]) << (8 * i)
	}
	return v
}

// resolveStreams fills binary cells from the streams named Table.key1.key2
func resolveStreams(db *Database, t *Table) {
	for c, col := range t.Columns {
		if !col.Type.IsBinary() {
			continue
		}
		for _, r := range t.Rows {
			if r[c].IsNull() {
				continue
			}
			name := binaryStreamName(t, r)
			if data, ok := db.Stream(name); ok {
				r[c] = BinaryValue(data)
			}
		}
	}
}

func binaryStreamName(t *Table, r Row) string {
	return t.Name + "." + strings.Join(t.RowKey(r), ".")
}
