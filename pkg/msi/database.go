// Package msi gives read access to Windows Installer databases and patches.
//
// Databases are loaded completely into memory: tables are decoded from the
// compound file streams, binary cells are resolved to their stream contents
// and the summary information property set is flattened to strings.
// A Database can also be built in memory, which is how transforms are
// applied and verified.
package msi

import (
	"errors"
	"fmt"
	"io"
	"sort"
)

// SummaryStream is the name of the summary information stream
const SummaryStream = "SummaryInformation"

var (
	// ErrNoSuchTable is returned when a table lookup fails
	ErrNoSuchTable = errors.New("no such table")
	// ErrNoSuchStream is returned when a stream lookup fails
	ErrNoSuchStream = errors.New("no such stream")
)

// Database is an in-memory Windows Installer database
type Database struct {
	Path     string
	Codepage int
	Summary  SummaryInfo

	tables  map[string]*Table
	streams map[string][]byte
}

// NewDatabase creates an empty database
func NewDatabase() *Database {
	return &Database{
		tables:  make(map[string]*Table),
		streams: make(map[string][]byte),
	}
}

// AddTable adds or replaces a table
func (d *Database) AddTable(t *Table) {
	d.tables[t.Name] = t
}

// DropTable removes a table
func (d *Database) DropTable(name string) {
	delete(d.tables, name)
}

// Table returns the named table or nil
func (d *Database) Table(name string) *Table {
	return d.tables[name]
}

// TableNames returns all table names in ordinal order
func (d *Database) TableNames() []string {
	names := make([]string, 0, len(d.tables))
	for name := range d.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetStream adds or replaces a stream
func (d *Database) SetStream(name string, data []byte) {
	d.streams[name] = data
}

// Stream returns the contents of a stream
func (d *Database) Stream(name string) ([]byte, bool) {
	data, ok := d.streams[name]
	return data, ok
}

// StreamNames returns all stream names in ordinal order
func (d *Database) StreamNames() []string {
	names := make([]string, 0, len(d.streams))
	for name := range d.streams {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ExtractStream writes the contents of a stream to w
func (d *Database) ExtractStream(name string, w io.Writer) error {
	data, ok := d.streams[name]
	if !ok {
		return fmt.Errorf("%s: %w", name, ErrNoSuchStream)
	}
	_, err := w.Write(data)
	return err
}

// Property returns a value from the Property table, or "" when absent
func (d *Database) Property(name string) string {
	t := d.tables["Property"]
	if t == nil || len(t.Columns) < 2 {
		return ""
	}
	for _, row := range t.Rows {
		if row[0].String() == name {
			return row[1].String()
		}
	}
	return ""
}

// Clone returns a deep copy of the database
func (d *Database) Clone() *Database {
	c := &Database{
		Path:     d.Path,
		Codepage: d.Codepage,
		Summary:  d.Summary,
		tables:   make(map[string]*Table, len(d.tables)),
		streams:  make(map[string][]byte, len(d.streams)),
	}
	for name, t := range d.tables {
		c.tables[name] = t.Clone()
	}
	for name, data := range d.streams {
		c.streams[name] = append([]byte(nil), data...)
	}
	return c
}

// SummaryInfo holds the summary information properties as display strings
type SummaryInfo struct {
	Title          string
	Subject        string
	Author         string
	Keywords       string
	Comments       string
	Template       string
	LastSavedBy    string
	RevisionNumber string
	CreatingApp    string
	LastPrintTime  string
	CreateTime     string
	LastSaveTime   string
	CodePage       string
	PageCount      string
	WordCount      string
	CharacterCount string
	Security       string
}

// SummaryField is one named summary information property
type SummaryField struct {
	Name  string
	Value string
}

// Fields returns the properties in report order
func (s SummaryInfo) Fields() []SummaryField {
	return []SummaryField{
		{"Title", s.Title},
		{"Subject", s.Subject},
		{"Author", s.Author},
		{"Keywords", s.Keywords},
		{"Comments", s.Comments},
		{"Template", s.Template},
		{"LastSavedBy", s.LastSavedBy},
		{"RevisionNumber", s.RevisionNumber},
		{"CreatingApp", s.CreatingApp},
		{"LastPrintTime", s.LastPrintTime},
		{"CreateTime", s.CreateTime},
		{"LastSaveTime", s.LastSaveTime},
		{"CodePage", s.CodePage},
		{"PageCount", s.PageCount},
		{"WordCount", s.WordCount},
		{"CharacterCount", s.CharacterCount},
		{"Security", s.Security},
	}
}
