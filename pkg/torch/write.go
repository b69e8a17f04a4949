package torch

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
	_ "modernc.org/sqlite"
)

// Format selects the transform serialization
type Format string

const (
	FormatJSON   Format = "json"
	FormatYAML   Format = "yaml"
	FormatSQLite Format = "sqlite"
)

// ParseFormat converts a format name, accepting "yml" for YAML
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json", "":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "sqlite", "db":
		return FormatSQLite, nil
	default:
		return "", fmt.Errorf("unknown transform format %q (want json, yaml or sqlite)", s)
	}
}

// Write serializes t as JSON or YAML
func Write(w io.Writer, t *Transform, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(t)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(t); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("format %s cannot be streamed", format)
	}
}

// Read parses a JSON or YAML transform
func Read(r io.Reader, format Format) (*Transform, error) {
	var t Transform
	switch format {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&t); err != nil {
			return nil, fmt.Errorf("failed to parse transform: %w", err)
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&t); err != nil {
			return nil, fmt.Errorf("failed to parse transform: %w", err)
		}
	default:
		return nil, fmt.Errorf("format %s cannot be read", format)
	}
	return &t, nil
}

// ReadFile reads a transform written by WriteFile
func ReadFile(ctx context.Context, path string, format Format) (*Transform, error) {
	if format == FormatSQLite {
		return readSQLite(ctx, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f, format)
}

// WriteFile writes t to path in the given format
func WriteFile(ctx context.Context, path string, t *Transform, format Format) error {
	if format == FormatSQLite {
		return writeSQLite(ctx, path, t)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := Write(f, t, format); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS transform (
	name TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS changes (
	seq INTEGER PRIMARY KEY,
	table_name TEXT NOT NULL,
	column_name TEXT NOT NULL,
	row_key TEXT,
	data TEXT,
	current_value TEXT,
	binary_data TEXT,
	number INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_changes_table ON changes(table_name);
`

func writeSQLite(ctx context.Context, path string, t *Transform) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open sqlite database: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("initialize schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	meta := [][2]string{
		{"suppress", t.Flags.Suppress.String()},
		{"validate", t.Flags.Validate.String()},
		{"base_codepage", strconv.Itoa(t.BaseCodepage)},
		{"codepage", strconv.Itoa(t.Codepage)},
		{"base_product_code", t.Base.Code},
		{"base_upgrade_code", t.Base.UpgradeCode},
		{"base_language", t.Base.Language},
		{"base_version", t.Base.Version},
		{"updated_product_code", t.Updated.Code},
		{"updated_upgrade_code", t.Updated.UpgradeCode},
		{"updated_language", t.Updated.Language},
		{"updated_version", t.Updated.Version},
	}
	for _, kv := range meta {
		if _, err := tx.ExecContext(ctx, "INSERT INTO transform (name, value) VALUES (?, ?)", kv[0], kv[1]); err != nil {
			return fmt.Errorf("insert metadata: %w", err)
		}
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO changes (seq, table_name, column_name, row_key, data, current_value, binary_data, number) VALUES (?, ?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, c := range t.Changes {
		var rowKey sql.NullString
		if !c.IsDDL() {
			rowKey = sql.NullString{String: strings.Join(c.Keys, "\t"), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, i+1, c.Table, c.Column, rowKey, c.Data, c.Current, c.Binary, c.Number); err != nil {
			return fmt.Errorf("insert change: %w", err)
		}
	}
	return tx.Commit()
}

func readSQLite(ctx context.Context, path string) (*Transform, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	defer db.Close()

	meta := make(map[string]string)
	rows, err := db.QueryContext(ctx, "SELECT name, value FROM transform")
	if err != nil {
		return nil, fmt.Errorf("query metadata: %w", err)
	}
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan metadata: %w", err)
		}
		meta[name] = value
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query metadata: %w", err)
	}

	t := &Transform{
		Base: Product{
			Code:        meta["base_product_code"],
			UpgradeCode: meta["base_upgrade_code"],
			Language:    meta["base_language"],
			Version:     meta["base_version"],
		},
		Updated: Product{
			Code:        meta["updated_product_code"],
			UpgradeCode: meta["updated_upgrade_code"],
			Language:    meta["updated_language"],
			Version:     meta["updated_version"],
		},
	}
	if t.Flags.Suppress, err = ParseSuppress(meta["suppress"]); err != nil {
		return nil, err
	}
	if t.Flags.Validate, err = ParseValidation(meta["validate"]); err != nil {
		return nil, err
	}
	if t.BaseCodepage, err = strconv.Atoi(meta["base_codepage"]); err != nil {
		return nil, fmt.Errorf("invalid base codepage %q", meta["base_codepage"])
	}
	if t.Codepage, err = strconv.Atoi(meta["codepage"]); err != nil {
		return nil, fmt.Errorf("invalid codepage %q", meta["codepage"])
	}

	rows, err = db.QueryContext(ctx,
		"SELECT table_name, column_name, row_key, data, current_value, binary_data, number FROM changes ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("query changes: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var c Change
		var rowKey, data, current, bin sql.NullString
		if err := rows.Scan(&c.Table, &c.Column, &rowKey, &data, &current, &bin, &c.Number); err != nil {
			return nil, fmt.Errorf("scan change: %w", err)
		}
		if rowKey.Valid {
			c.Keys = strings.Split(rowKey.String, "\t")
		}
		c.Data, c.Current, c.Binary = data.String, current.String, bin.String
		t.Changes = append(t.Changes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query changes: %w", err)
	}
	return t, nil
}
