package torch

import (
	"bytes"
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdejongh/ddiff/pkg/msi"
)

func propertyTable(t *testing.T, kv ...string) *msi.Table {
	t.Helper()
	table := msi.NewTable("Property",
		msi.Column{Name: "Property", Type: msi.StringType(72).AsKey()},
		msi.Column{Name: "Value", Type: msi.StringType(0)},
	)
	for i := 0; i+1 < len(kv); i += 2 {
		require.NoError(t, table.AddRow(msi.StringValue(kv[i]), msi.StringValue(kv[i+1])))
	}
	return table
}

func baseDatabase(t *testing.T) *msi.Database {
	t.Helper()
	db := msi.NewDatabase()
	db.Codepage = 1252
	db.AddTable(propertyTable(t,
		"ProductCode", "{AAAAAAAA-0000-0000-0000-000000000001}",
		"UpgradeCode", "{BBBBBBBB-0000-0000-0000-000000000001}",
		"ProductLanguage", "1033",
		"ProductVersion", "1.2.3",
	))

	file := msi.NewTable("File",
		msi.Column{Name: "File", Type: msi.StringType(72).AsKey()},
		msi.Column{Name: "FileSize", Type: msi.IntType(4)},
	)
	require.NoError(t, file.AddRow(msi.StringValue("a.txt"), msi.IntValue(10)))
	require.NoError(t, file.AddRow(msi.StringValue("b.txt"), msi.IntValue(20)))
	db.AddTable(file)

	db.AddTable(msi.NewTable("Obsolete", msi.Column{Name: "Id", Type: msi.IntType(2).AsKey()}))
	return db
}

func updatedDatabase(t *testing.T) *msi.Database {
	t.Helper()
	db := baseDatabase(t).Clone()

	file := db.Table("File")
	file.Rows[0][1] = msi.IntValue(11)
	file.Rows = file.Rows[:1]
	require.NoError(t, file.AddRow(msi.StringValue("c.txt"), msi.IntValue(30)))

	db.DropTable("Obsolete")
	bin := msi.NewTable("Binary",
		msi.Column{Name: "Name", Type: msi.StringType(72).AsKey()},
		msi.Column{Name: "Data", Type: msi.BinaryType()},
	)
	require.NoError(t, bin.AddRow(msi.StringValue("Logo"), msi.BinaryValue([]byte{1, 2, 3})))
	db.AddTable(bin)
	return db
}

func describe(changes []Change) []string {
	out := make([]string, len(changes))
	for i, c := range changes {
		out[i] = c.Describe()
	}
	return out
}

func TestBuild(t *testing.T) {
	tr, err := Build(baseDatabase(t), updatedDatabase(t), Flags{})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Binary CREATE             <DDL> ",
		"Binary Name               <DDL> [1]: CHAR[72] NOT NULL PRIMARY KEY",
		"Binary Data               <DDL> [2]: OBJECT NOT NULL",
		"Binary INSERT             [Logo] ",
		"Binary Data               [Logo] {}->{[Binary Data]}",
		"File FileSize             [a.txt] {10}->{11}",
		"File DELETE               [b.txt] ",
		"File INSERT               [c.txt] ",
		"File FileSize             [c.txt] {}->{30}",
		"Obsolete DROP             <DDL> ",
	}, describe(tr.Changes))
	assert.Equal(t, "1.2.3", tr.Base.Version)
	assert.False(t, tr.Empty())
}

func TestBuildIdentical(t *testing.T) {
	tr, err := Build(baseDatabase(t), baseDatabase(t), Flags{})
	require.NoError(t, err)
	assert.True(t, tr.Empty())
}

func TestBuildAddedColumn(t *testing.T) {
	before := baseDatabase(t)
	after := before.Clone()
	file := after.Table("File")
	file.Columns = append(file.Columns, msi.Column{Name: "Version", Type: msi.StringType(72).AsNullable()})
	for i := range file.Rows {
		file.Rows[i] = append(file.Rows[i], msi.NullValue())
	}
	file.Rows[1][2] = msi.StringValue("2.0")

	tr, err := Build(before, after, Flags{})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"File Version              <DDL> [3]: CHAR[72]",
		"File Version              [b.txt] {}->{2.0}",
	}, describe(tr.Changes))

	require.NoError(t, Verify(before, after, tr))
}

func TestBuildDroppedColumn(t *testing.T) {
	before := msi.NewDatabase()
	wide := msi.NewTable("T",
		msi.Column{Name: "Id", Type: msi.IntType(2).AsKey()},
		msi.Column{Name: "Extra", Type: msi.StringType(0).AsNullable()},
	)
	require.NoError(t, wide.AddRow(msi.IntValue(1), msi.StringValue("x")))
	before.AddTable(wide)

	after := msi.NewDatabase()
	narrow := msi.NewTable("T", msi.Column{Name: "Id", Type: msi.IntType(2).AsKey()})
	require.NoError(t, narrow.AddRow(msi.IntValue(1)))
	after.AddTable(narrow)

	tr, err := Build(before, after, Flags{})
	require.NoError(t, err)
	assert.False(t, tr.Empty())
	assert.Equal(t, []string{
		"T DROP                    <DDL> ",
		"T CREATE                  <DDL> ",
		"T Id                      <DDL> [1]: SHORT NOT NULL PRIMARY KEY",
		"T INSERT                  [1] ",
	}, describe(tr.Changes))

	require.NoError(t, Verify(before, after, tr))
}

func TestDecodeColDef(t *testing.T) {
	tests := []struct {
		def  int
		want string
	}{
		{0x0104, "LONG NOT NULL"},
		{0x1104, "LONG"},
		{0x2502, "SHORT NOT NULL PRIMARY KEY"},
		{0x1900, "OBJECT"},
		{0x0D48, "CHAR[72] NOT NULL"},
		{0x3D00, "CHAR[0] PRIMARY KEY"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, DecodeColDef(tt.def))
		})
	}
}

func TestApplyAndVerify(t *testing.T) {
	base, updated := baseDatabase(t), updatedDatabase(t)
	tr, err := Build(base, updated, Flags{})
	require.NoError(t, err)

	require.NoError(t, Verify(base, updated, tr))

	db := base.Clone()
	require.NoError(t, Apply(db, tr))
	assert.Nil(t, db.Table("Obsolete"))
	require.NotNil(t, db.Table("Binary"))
	assert.Equal(t, []byte{1, 2, 3}, db.Table("Binary").Rows[0][1].Data)
	assert.Len(t, db.Table("File").Rows, 2)

	// the original target is untouched by Verify
	assert.NotNil(t, base.Table("Obsolete"))
}

func TestApplyConflicts(t *testing.T) {
	base, updated := baseDatabase(t), updatedDatabase(t)
	tr, err := Build(base, updated, Flags{})
	require.NoError(t, err)

	// applying twice hits existing tables and missing rows
	db := base.Clone()
	require.NoError(t, Apply(db, tr))
	err = Apply(db, tr)
	require.ErrorIs(t, err, ErrConflict)

	all, err := ParseSuppress("abcde")
	require.NoError(t, err)
	tr.Flags.Suppress = all
	require.NoError(t, Apply(db, tr))
}

func TestApplyCodepage(t *testing.T) {
	base := baseDatabase(t)
	updated := base.Clone()
	updated.Codepage = 1251

	tr, err := Build(base, updated, Flags{})
	require.NoError(t, err)
	assert.False(t, tr.Empty())

	other := base.Clone()
	other.Codepage = 932
	require.ErrorIs(t, Apply(other, tr), ErrConflict)

	tr.Flags.Suppress = SuppressChangeCodepage
	require.NoError(t, Apply(other, tr))
	assert.Equal(t, 1251, other.Codepage)
}

func TestValidate(t *testing.T) {
	base := baseDatabase(t)
	tr, err := Build(base, updatedDatabase(t), Flags{})
	require.NoError(t, err)

	other := func(name, value string) *msi.Database {
		db := base.Clone()
		table := db.Table("Property")
		idx := table.FindRow([]string{name})
		require.GreaterOrEqual(t, idx, 0)
		table.Rows[idx][1] = msi.StringValue(value)
		return db
	}

	tests := []struct {
		name    string
		val     string
		db      *msi.Database
		wantErr bool
	}{
		{"product code matches", "r", base, false},
		{"product code differs", "r", other("ProductCode", "{00000000-0000-0000-0000-000000000000}"), true},
		{"product code ignores case", "r", other("ProductCode", "{aaaaaaaa-0000-0000-0000-000000000001}"), false},
		{"upgrade code differs", "g", other("UpgradeCode", "{X}"), true},
		{"language differs", "l", other("ProductLanguage", "1036"), true},
		{"version equal", "ux", base, false},
		{"newer version fails equal", "ux", other("ProductVersion", "1.2.4"), true},
		{"newer version passes greater-equal", "uz", other("ProductVersion", "1.2.4"), false},
		{"older version fails greater-equal", "uz", other("ProductVersion", "1.2.2"), true},
		{"major depth ignores minor", "sx", other("ProductVersion", "1.9.9"), false},
		{"minor depth sees minor", "tx", other("ProductVersion", "1.9.9"), true},
		{"less than", "uv", other("ProductVersion", "1.0.0"), false},
		{"greater than", "uy", other("ProductVersion", "1.0.0"), true},
		{"invalid version", "ux", other("ProductVersion", "not-a-version"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := ParseValidation(tt.val)
			require.NoError(t, err)
			tr.Flags.Validate = v
			err = Validate(tt.db, tr)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrValidation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFlags(t *testing.T) {
	s, err := ParseSuppress("ABf")
	require.NoError(t, err)
	assert.Equal(t, SuppressAddExistingRow|SuppressDeleteMissingRow|SuppressChangeCodepage, s)
	assert.Equal(t, "abf", s.String())

	_, err = ParseSuppress("q")
	assert.Error(t, err)
	_, err = ParseValidation("a")
	assert.Error(t, err)

	v, err := ParseValidation("zgr")
	require.NoError(t, err)
	assert.Equal(t, "grz", v.String())

	patch, err := Preset("patch")
	require.NoError(t, err)
	assert.Equal(t, "abcde", patch.Suppress.String())
	assert.Equal(t, "gruz", patch.Validate.String())

	lang, err := Preset("Language")
	require.NoError(t, err)
	assert.Equal(t, "f", lang.Suppress.String())
	assert.Equal(t, "r", lang.Validate.String())

	inst, err := Preset("instance")
	require.NoError(t, err)
	assert.Equal(t, "gr", inst.Validate.String())

	_, err = Preset("bogus")
	assert.Error(t, err)
}

func TestWriteReadRoundTrip(t *testing.T) {
	base, updated := baseDatabase(t), updatedDatabase(t)
	tr, err := Build(base, updated, Flags{Suppress: SuppressAddExistingRow, Validate: ValidateProduct})
	require.NoError(t, err)

	for _, format := range []Format{FormatJSON, FormatYAML, FormatSQLite} {
		t.Run(string(format), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "transform."+string(format))
			require.NoError(t, WriteFile(context.Background(), path, tr, format))

			got, err := ReadFile(context.Background(), path, format)
			require.NoError(t, err)
			assert.Equal(t, tr.Flags, got.Flags)
			assert.Equal(t, tr.Base, got.Base)
			assert.Equal(t, tr.Updated, got.Updated)
			assert.Equal(t, describe(tr.Changes), describe(got.Changes))

			db := base.Clone()
			require.NoError(t, Apply(db, got))
			assert.Equal(t, int32(11), db.Table("File").Rows[0][1].Int)
			assert.Equal(t, []byte{1, 2, 3}, db.Table("Binary").Rows[0][1].Data)

			rest, err := Build(db, updated, Flags{})
			require.NoError(t, err)
			assert.True(t, rest.Empty(), "remaining changes: %v", describe(rest.Changes))
		})
	}
}

func TestBinaryCellRoundTrip(t *testing.T) {
	before := updatedDatabase(t)
	after := before.Clone()
	after.Table("Binary").Rows[0][1] = msi.BinaryValue([]byte{9, 9, 9})

	tr, err := Build(before, after, Flags{})
	require.NoError(t, err)
	require.Len(t, tr.Changes, 1)
	assert.Equal(t, "CQkJ", tr.Changes[0].Binary)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, tr, FormatYAML))
	got, err := Read(&buf, FormatYAML)
	require.NoError(t, err)

	db := before.Clone()
	require.NoError(t, Apply(db, got))
	cell := db.Table("Binary").Rows[0][1]
	assert.Equal(t, msi.KindBinary, cell.Kind)
	assert.Equal(t, []byte{9, 9, 9}, cell.Data)
}

func TestReadFileMissing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.db")
	_, err := ReadFile(context.Background(), missing, FormatSQLite)
	assert.Error(t, err)
	assert.NoFileExists(t, missing)

	_, err = ReadFile(context.Background(), missing, FormatJSON)
	assert.Error(t, err)
}

func TestWriteSQLite(t *testing.T) {
	tr, err := Build(baseDatabase(t), updatedDatabase(t), Flags{})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out.db")
	require.NoError(t, WriteFile(context.Background(), path, tr, FormatSQLite))

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM changes").Scan(&count))
	assert.Equal(t, len(tr.Changes), count)

	var version string
	require.NoError(t, db.QueryRow("SELECT value FROM transform WHERE name = 'base_version'").Scan(&version))
	assert.Equal(t, "1.2.3", version)

	var ddl int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM changes WHERE row_key IS NULL").Scan(&ddl))
	assert.Equal(t, 4, ddl)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("YML")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)
	_, err = ParseFormat("xml")
	assert.Error(t, err)
}
