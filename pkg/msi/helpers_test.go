package msi

import (
	"encoding/binary"
	"sort"
	"testing"
)

// testEncoder serializes in-memory tables into raw streams
type testEncoder struct {
	t        *testing.T
	codepage int
	ids      map[string]uint32
	strs     []string
}

func newTestEncoder(t *testing.T, codepage int) *testEncoder {
	return &testEncoder{t: t, codepage: codepage, ids: make(map[string]uint32)}
}

func (e *testEncoder) intern(s string) uint32 {
	if s == "" {
		return 0
	}
	if id, ok := e.ids[s]; ok {
		return id
	}
	e.strs = append(e.strs, s)
	id := uint32(len(e.strs))
	e.ids[s] = id
	return id
}

func (e *testEncoder) cell(t ColumnType, v Value) uint32 {
	if v.IsNull() {
		return 0
	}
	switch {
	case t.IsBinary():
		return 1
	case t.IsString():
		return e.intern(v.Str)
	case t.Size() <= 2:
		return uint32(v.Int + 0x8000)
	default:
		return uint32(v.Int) ^ 0x80000000
	}
}

func (e *testEncoder) encodeTable(cols []Column, rows []Row) []byte {
	widths := make([]int, len(cols))
	rowSize := 0
	for i, c := range cols {
		widths[i] = c.Type.storedWidth(2)
		rowSize += widths[i]
	}
	out := make([]byte, rowSize*len(rows))
	ofs := 0
	for c, col := range cols {
		for r, row := range rows {
			v := e.cell(col.Type, row[c])
			pos := ofs*len(rows) + r*widths[c]
			for b := 0; b < widths[c]; b++ {
				out[pos+b] = byte(v >> (8 * b))
			}
		}
		ofs += widths[c]
	}
	return out
}

// encode builds a raw database holding the tables and streams of db
func (e *testEncoder) encode(db *Database) *rawDatabase {
	raw := newRawDatabase()
	for name, data := range db.streams {
		raw.streams[name] = data
	}

	var tableRows, columnRows []Row
	for _, name := range db.TableNames() {
		t := db.Table(name)
		tableRows = append(tableRows, Row{StringValue(name)})
		for i, c := range t.Columns {
			columnRows = append(columnRows, Row{
				StringValue(name),
				IntValue(int32(i + 1)),
				StringValue(c.Name),
				IntValue(int32(c.Type)),
			})
			if c.Type.IsBinary() {
				for _, r := range t.Rows {
					if r[i].Kind == KindBinary {
						raw.streams[binaryStreamName(t, r)] = r[i].Data
					}
				}
			}
		}
		raw.tables[name] = e.encodeTable(t.Columns, t.Rows)
	}
	sort.SliceStable(columnRows, func(i, j int) bool { return columnRows[i][0].Str < columnRows[j][0].Str })
	raw.tables[tablesTable] = e.encodeTable(catalogColumns[tablesTable], tableRows)
	raw.tables[columnsTable] = e.encodeTable(catalogColumns[columnsTable], columnRows)
	raw.tables[poolStream], raw.tables[dataStream] = e.pool()
	return raw
}

func (e *testEncoder) pool() ([]byte, []byte) {
	codec, err := newStringCodec(e.codepage)
	if err != nil {
		e.t.Fatalf("codec: %v", err)
	}
	pool := make([]byte, 4, 4+4*len(e.strs))
	binary.LittleEndian.PutUint16(pool[0:], uint16(e.codepage))
	binary.LittleEndian.PutUint16(pool[2:], uint16(e.codepage>>16))
	var data []byte
	for _, s := range e.strs {
		b, err := codec.encode(s)
		if err != nil {
			e.t.Fatalf("encode %q: %v", s, err)
		}
		pool = binary.LittleEndian.AppendUint16(pool, uint16(len(b)))
		pool = binary.LittleEndian.AppendUint16(pool, 1)
		data = append(data, b...)
	}
	return pool, data
}

// sampleDatabase returns a small product database
func sampleDatabase(t *testing.T) *Database {
	t.Helper()
	db := NewDatabase()

	prop := NewTable("Property",
		Column{Name: "Property", Type: StringType(72).AsKey()},
		Column{Name: "Value", Type: StringType(0) | TypeLocalizable},
	)
	for _, kv := range [][2]string{
		{"ProductCode", "{11111111-1111-1111-1111-111111111111}"},
		{"ProductVersion", "1.0.0"},
		{"ProductLanguage", "1033"},
	} {
		if err := prop.AddRow(StringValue(kv[0]), StringValue(kv[1])); err != nil {
			t.Fatalf("AddRow: %v", err)
		}
	}
	db.AddTable(prop)

	file := NewTable("File",
		Column{Name: "File", Type: StringType(72).AsKey()},
		Column{Name: "FileSize", Type: IntType(4)},
		Column{Name: "Sequence", Type: IntType(2).AsNullable()},
	)
	if err := file.AddRow(StringValue("a.txt"), IntValue(70000), IntValue(1)); err != nil {
		t.Fatalf("AddRow: %v", err)
	}
	if err := file.AddRow(StringValue("b.txt"), IntValue(-5), NullValue()); err != nil {
		t.Fatalf("AddRow: %v", err)
	}
	db.AddTable(file)

	bin := NewTable("Binary",
		Column{Name: "Name", Type: StringType(72).AsKey()},
		Column{Name: "Data", Type: BinaryType()},
	)
	if err := bin.AddRow(StringValue("Logo"), BinaryValue([]byte("PNGDATA"))); err != nil {
		t.Fatalf("AddRow: %v", err)
	}
	db.AddTable(bin)
	return db
}
