// Package sqlexec connects the agent to the configured database.
// It opens a langchaingo SQL database for every supported dialect, formats query
// results for the model, and exposes the SQL toolkit the agent calls.
//
// Key features include:
//   - Dialect dispatch to the langchaingo engines (PostgreSQL, MySQL, SQLite)
//   - A database/sql engine for SQL Server and DuckDB
//   - JSON result formatting with proper type handling
//   - Failed statements reported as observations instead of errors
//   - Foreign key and check constraint inspection for PostgreSQL
package sqlexec

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tmc/langchaingo/tools/sqldatabase"
	lcmysql "github.com/tmc/langchaingo/tools/sqldatabase/mysql"
	"github.com/tmc/langchaingo/tools/sqldatabase/postgresql"
	"github.com/tmc/langchaingo/tools/sqldatabase/sqlite3"

	"sqlagent/cli/internal/dsn"
	apperrors "sqlagent/cli/internal/errors"
)

// Database is the surface the agent tools need from a connection.
type Database interface {
	// Dialect names the SQL dialect, e.g. "postgresql" or "sqlserver".
	Dialect() string
	// TableNames lists the tables visible to the agent.
	TableNames() []string
	// TableInfo describes the given tables, or every table when tables is empty.
	TableInfo(ctx context.Context, tables []string) (string, error)
	// Query runs a statement and returns its rows.
	Query(ctx context.Context, query string) (Result, error)
	Close() error
}

// Result represents a normalized SQL result for JSON marshaling.
type Result struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// JSON renders r as the observation returned to the model.
func (r Result) JSON() string {
	if r.Columns == nil {
		r.Columns = []string{}
	}
	if r.Rows == nil {
		r.Rows = [][]string{}
	}
	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Sprintf("%v", r.Rows)
	}
	return string(b)
}

// DB is a Database backed by a langchaingo SQLDatabase.
type DB struct {
	sd *sqldatabase.SQLDatabase
}

// NewDB wraps an engine. Sample rows are appended to table descriptions unless
// the dialect cannot express LIMIT.
func NewDB(engine sqldatabase.Engine, dialect dsn.Dialect) (*DB, error) {
	sd, err := sqldatabase.NewSQLDatabase(engine, nil)
	if err != nil {
		return nil, err
	}
	if dialect == dsn.DialectMSSQL {
		sd.SampleRowsNumber = 0
	}
	return &DB{sd: sd}, nil
}

// Open connects to the database described by desc.
func Open(ctx context.Context, desc dsn.ConnectionDescriptor) (*DB, error) {
	var (
		sd  *sqldatabase.SQLDatabase
		err error
	)

	switch desc.Dialect {
	case dsn.DialectPostgres:
		sd, err = sqldatabase.NewSQLDatabaseWithDSN(postgresql.EngineName, desc.DriverDSN(), nil)
	case dsn.DialectMySQL:
		sd, err = sqldatabase.NewSQLDatabaseWithDSN(lcmysql.EngineName, desc.DriverDSN(), nil)
	case dsn.DialectSQLite:
		sd, err = sqldatabase.NewSQLDatabaseWithDSN(sqlite3.EngineName, desc.DriverDSN(), nil)
	case dsn.DialectMSSQL, dsn.DialectDuckDB:
		engine, oerr := OpenEngine(ctx, desc.Dialect, desc.DriverDSN())
		if oerr != nil {
			return nil, apperrors.Wrap(apperrors.DatabaseConnectivity, "failed to connect to database", oerr)
		}
		db, nerr := NewDB(engine, desc.Dialect)
		if nerr != nil {
			_ = engine.Close()
			return nil, apperrors.Wrap(apperrors.DatabaseConnectivity, "failed to read database tables", nerr)
		}
		return db, nil
	default:
		return nil, dsn.NewConfigError("DB_TYPE", fmt.Sprintf("unsupported database type %q", desc.Dialect),
			"Use one of: postgres, mysql, mssql, sqlite, duckdb")
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.DatabaseConnectivity, "failed to connect to database", err)
	}
	return &DB{sd: sd}, nil
}

// Dialect returns the engine's dialect name.
func (d *DB) Dialect() string { return d.sd.Engine.Dialect() }

// TableNames lists the tables found when the connection was opened.
func (d *DB) TableNames() []string { return d.sd.TableNames() }

// TableInfo returns CREATE TABLE statements, with sample rows where supported.
func (d *DB) TableInfo(ctx context.Context, tables []string) (string, error) {
	return d.sd.TableInfo(ctx, tables)
}

// Query runs query and collects every row.
func (d *DB) Query(ctx context.Context, query string) (Result, error) {
	cols, rows, err := d.sd.Engine.Query(ctx, query)
	if err != nil {
		return Result{}, err
	}
	return Result{Columns: cols, Rows: rows}, nil
}

// Ping runs a trivial statement to prove the connection works.
func (d *DB) Ping(ctx context.Context) error {
	_, err := d.Query(ctx, "SELECT 1")
	return err
}

func (d *DB) Close() error { return d.sd.Engine.Close() }
