package msi

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/richardlehane/mscfb"
	"github.com/richardlehane/msoleps"
)

// Open reads the database or patch at path into memory
func Open(path string) (*Database, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	db, err := NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	db.Path = path
	return db, nil
}

// NewReader reads a database from a compound file
func NewReader(ra io.ReaderAt) (*Database, error) {
	doc, err := mscfb.New(ra)
	if err != nil {
		return nil, err
	}

	raw := newRawDatabase()
	var summary []byte
	for _, entry := range doc.File {
		// root entry and anything below a storage (embedded transforms)
		if len(entry.Path) != 0 || entry.FileInfo().IsDir() {
			continue
		}
		data, err := io.ReadAll(entry)
		if err != nil {
			return nil, fmt.Errorf("stream %s: %w", entry.Name, err)
		}
		if msoleps.IsMSOLEPS(entry.Initial) && entry.Name == SummaryStream {
			summary = data
			raw.streams[SummaryStream] = data
			continue
		}
		name, isTable := decodeStreamName(entry.Name)
		if isTable {
			raw.tables[name] = data
		} else {
			raw.streams[name] = data
		}
	}

	db, err := load(raw)
	if err != nil {
		return nil, err
	}
	if summary != nil {
		if db.Summary, err = parseSummary(summary); err != nil {
			return nil, fmt.Errorf("summary information: %w", err)
		}
	}
	return db, nil
}

// parseSummary flattens the summary information property set
func parseSummary(data []byte) (SummaryInfo, error) {
	props, err := msoleps.NewFrom(bytes.NewReader(data))
	if err != nil {
		return SummaryInfo{}, err
	}
	var s SummaryInfo
	fields := map[string]*string{
		"Title":        &s.Title,
		"Subject":      &s.Subject,
		"Author":       &s.Author,
		"Keywords":     &s.Keywords,
		"Comments":     &s.Comments,
		"Template":     &s.Template,
		"LastAuthor":   &s.LastSavedBy,
		"RevNumber":    &s.RevisionNumber,
		"AppName":      &s.CreatingApp,
		"LastPrinted":  &s.LastPrintTime,
		"CreateTime":   &s.CreateTime,
		"LastSaveTime": &s.LastSaveTime,
		"CodePage":     &s.CodePage,
		"PageCount":    &s.PageCount,
		"WordCount":    &s.WordCount,
		"CharCount":    &s.CharacterCount,
		"DocSecurity":  &s.Security,
	}
	for _, p := range props.Property {
		if dst, ok := fields[p.Name]; ok {
			*dst = strings.TrimRight(p.String(), "\x00")
		}
	}
	return s, nil
}
