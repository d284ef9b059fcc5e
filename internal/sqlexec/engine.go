// Copyright (c) 2025 The sqlagent Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package sqlexec

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	_ "github.com/marcboeker/go-duckdb/v2"
	_ "github.com/microsoft/go-mssqldb"

	"sqlagent/cli/internal/dsn"
)

// profile holds the per-dialect catalog queries of a database/sql engine.
type profile struct {
	driver  string
	dialect string
	// tables lists base tables, one name per row.
	tables string
	// columns lists column_name, data_type, is_nullable for the table bound to the single placeholder.
	columns string
}

var profiles = map[dsn.Dialect]profile{
	dsn.DialectMSSQL: {
		driver:  "sqlserver",
		dialect: "sqlserver",
		tables: `SELECT TABLE_NAME FROM INFORMATION_SCHEMA.TABLES
			WHERE TABLE_TYPE = 'BASE TABLE' ORDER BY TABLE_NAME`,
		columns: `SELECT COLUMN_NAME, DATA_TYPE, IS_NULLABLE FROM INFORMATION_SCHEMA.COLUMNS
			WHERE TABLE_NAME = @p1 ORDER BY ORDINAL_POSITION`,
	},
	dsn.DialectDuckDB: {
		driver:  "duckdb",
		dialect: "duckdb",
		tables: `SELECT table_name FROM information_schema.tables
			WHERE table_type = 'BASE TABLE' AND table_schema = 'main' ORDER BY table_name`,
		columns: `SELECT column_name, data_type, is_nullable FROM information_schema.columns
			WHERE table_name = ? ORDER BY ordinal_position`,
	},
}

// Engine implements the langchaingo sqldatabase engine contract over database/sql.
type Engine struct {
	db      *sql.DB
	profile profile
}

// OpenEngine opens and pings a database/sql engine for a dialect the agent
// toolkit has no built-in engine for.
func OpenEngine(ctx context.Context, dialect dsn.Dialect, driverDSN string) (*Engine, error) {
	p, ok := profiles[dialect]
	if !ok {
		return nil, fmt.Errorf("no database/sql engine for dialect %q", dialect)
	}
	db, err := sql.Open(p.driver, driverDSN)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return newEngine(db, p), nil
}

func newEngine(db *sql.DB, p profile) *Engine {
	return &Engine{db: db, profile: p}
}

func (e *Engine) Dialect() string { return e.profile.dialect }

// Query executes query and returns every row rendered as text.
func (e *Engine) Query(ctx context.Context, query string, args ...any) ([]string, [][]string, error) {
	rows, err := e.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	var results [][]string
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		row := make([]string, len(cols))
		for i, v := range vals {
			row[i] = formatValue(v)
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return cols, results, nil
}

// TableNames lists the base tables of the connected database.
func (e *Engine) TableNames(ctx context.Context) ([]string, error) {
	_, rows, err := e.Query(ctx, e.profile.tables)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(rows))
	for _, r := range rows {
		if len(r) > 0 {
			names = append(names, r[0])
		}
	}
	return names, nil
}

// TableInfo renders a CREATE TABLE statement for table from information_schema.
func (e *Engine) TableInfo(ctx context.Context, table string) (string, error) {
	_, rows, err := e.Query(ctx, e.profile.columns, table)
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", fmt.Errorf("table %q not found", table)
	}

	defs := make([]string, 0, len(rows))
	for _, r := range rows {
		if len(r) < 3 {
			continue
		}
		def := fmt.Sprintf("  %s %s", r[0], strings.ToUpper(r[1]))
		if strings.EqualFold(r[2], "NO") {
			def += " NOT NULL"
		}
		defs = append(defs, def)
	}
	return fmt.Sprintf("CREATE TABLE %s (\n%s\n)", table, strings.Join(defs, ",\n")), nil
}

func (e *Engine) Close() error { return e.db.Close() }

// formatValue converts a scanned driver value to the text shown to the model.
func formatValue(val any) string {
	switch v := val.(type) {
	case nil:
		return "NULL"
	case []byte:
		// SQL Server returns uniqueidentifier as 16 raw bytes.
		if len(v) == 16 && !printable(v) {
			return formatUUID([16]byte(v))
		}
		return string(v)
	case [16]byte:
		return formatUUID(v)
	case time.Time:
		return v.Format(time.RFC3339Nano)
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

func printable(b []byte) bool {
	if !utf8.Valid(b) {
		return false
	}
	for _, r := range string(b) {
		if !unicode.IsPrint(r) && !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

func formatUUID(v [16]byte) string {
	return fmt.Sprintf("%02x%02x%02x%02x-%02x%02x-%02x%02x-%02x%02x-%02x%02x%02x%02x%02x%02x",
		v[0], v[1], v[2], v[3], v[4], v[5], v[6], v[7],
		v[8], v[9], v[10], v[11], v[12], v[13], v[14], v[15])
}
