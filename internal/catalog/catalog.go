// Package catalog records the source tables queries may read from, in
// a local sqlite database, so resolution can check references without
// talking to a warehouse.
package catalog

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/veilwork/grimoire/internal/settings"
)

//go:embed schema.sql
var schemaSQL string

// Catalog is a sqlite-backed store of source tables and their columns.
// Use Snapshot to get an in-memory view for query resolution.
type Catalog struct {
	db *sql.DB
}

// SourceTable is one external table with its column names in position
// order. An empty column list means the table is known but its shape
// is not.
type SourceTable struct {
	Name     string
	Database string
	Schema   string
	Columns  []string
}

// Open creates or opens the catalog database at path. Safe to call
// repeatedly: the schema is applied with IF NOT EXISTS.
//
// sqlite supports one writer at a time, so the pool is capped at a
// single connection.
func Open(path string) (*Catalog, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect catalog: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply catalog schema: %w", err)
	}

	return &Catalog{db: db}, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	return nil
}

// Close closes the underlying database.
func (c *Catalog) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// ImportSources upserts the given tables in one transaction. Column
// lists replace whatever was recorded before, so re-importing a
// property document converges instead of accumulating stale columns.
func (c *Catalog) ImportSources(ctx context.Context, tables []SourceTable) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("import sources: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	for _, table := range tables {
		if table.Name == "" {
			return fmt.Errorf("import sources: table with empty name")
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO sources (name, "database", "schema")
			VALUES (?, ?, ?)
			ON CONFLICT(name) DO UPDATE SET
				"database" = excluded."database",
				"schema" = excluded."schema"
		`, table.Name, table.Database, table.Schema)
		if err != nil {
			return fmt.Errorf("upsert source %q: %w", table.Name, err)
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM source_columns WHERE source = ?`, table.Name); err != nil {
			return fmt.Errorf("clear columns of %q: %w", table.Name, err)
		}
		for i, col := range table.Columns {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO source_columns (source, name, position)
				VALUES (?, ?, ?)
			`, table.Name, col, i)
			if err != nil {
				return fmt.Errorf("insert column %s.%s: %w", table.Name, col, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}
	return nil
}

// FromProperties lifts the sources of a property document into
// importable tables, preserving declared column order.
func FromProperties(props *settings.Properties) []SourceTable {
	tables := make([]SourceTable, 0, len(props.Sources))
	for _, src := range props.Sources {
		table := SourceTable{
			Name:     src.Name,
			Database: src.Database,
			Schema:   src.Schema,
		}
		for _, col := range src.Columns {
			table.Columns = append(table.Columns, col.Name)
		}
		tables = append(tables, table)
	}
	return tables
}

// HasSource reports whether name is a recorded source table.
func (c *Catalog) HasSource(ctx context.Context, name string) (bool, error) {
	var n int
	err := c.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sources WHERE name = ?`, name).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("query source %q: %w", name, err)
	}
	return n > 0, nil
}

// SourceColumns returns the recorded column names of a source in
// position order. ok is false when the source itself is unknown; a
// known source with no recorded columns returns an empty slice.
func (c *Catalog) SourceColumns(ctx context.Context, name string) ([]string, bool, error) {
	known, err := c.HasSource(ctx, name)
	if err != nil || !known {
		return nil, false, err
	}

	rows, err := c.db.QueryContext(ctx, `
		SELECT name FROM source_columns
		WHERE source = ?
		ORDER BY position ASC
	`, name)
	if err != nil {
		return nil, false, fmt.Errorf("query columns of %q: %w", name, err)
	}
	defer rows.Close()

	cols := []string{}
	for rows.Next() {
		var col string
		if err := rows.Scan(&col); err != nil {
			return nil, false, fmt.Errorf("scan column of %q: %w", name, err)
		}
		cols = append(cols, col)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate columns of %q: %w", name, err)
	}
	return cols, true, nil
}

// Sources returns every recorded table ordered by name, columns in
// position order. Returns an empty slice, not nil, when the catalog is
// empty.
func (c *Catalog) Sources(ctx context.Context) ([]SourceTable, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT s.name, s."database", s."schema", c.name
		FROM sources s
		LEFT JOIN source_columns c ON c.source = s.name
		ORDER BY s.name ASC, c.position ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sources: %w", err)
	}
	defer rows.Close()

	tables := []SourceTable{}
	for rows.Next() {
		var name, database, schema string
		var col sql.NullString
		if err := rows.Scan(&name, &database, &schema, &col); err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		if len(tables) == 0 || tables[len(tables)-1].Name != name {
			tables = append(tables, SourceTable{Name: name, Database: database, Schema: schema})
		}
		if col.Valid {
			last := &tables[len(tables)-1]
			last.Columns = append(last.Columns, col.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sources: %w", err)
	}
	return tables, nil
}

// Snapshot loads the whole catalog into memory. The returned View
// keeps working after Close.
func (c *Catalog) Snapshot(ctx context.Context) (*View, error) {
	tables, err := c.Sources(ctx)
	if err != nil {
		return nil, err
	}
	return NewView(tables), nil
}
