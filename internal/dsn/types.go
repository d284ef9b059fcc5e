// Copyright (c) 2025 The sqlagent Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package dsn

import (
	"fmt"

	apperrors "sqlagent/cli/internal/errors"
)

// Dialect represents the type of database
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectMySQL    Dialect = "mysql"
	DialectMSSQL    Dialect = "mssql"
	DialectSQLite   Dialect = "sqlite"
	DialectDuckDB   Dialect = "duckdb"
)

// DefaultPort returns the port used when DB_PORT is unset.
// File-backed dialects have no port.
func (d Dialect) DefaultPort() string {
	switch d {
	case DialectPostgres:
		return "5432"
	case DialectMySQL:
		return "3306"
	case DialectMSSQL:
		return "1433"
	}
	return ""
}

// FileBacked reports whether DB_NAME is a file path rather than a server-side database.
func (d Dialect) FileBacked() bool {
	return d == DialectSQLite || d == DialectDuckDB
}

// ConnectionDescriptor holds everything needed to reach the database.
// It is built once per process from the environment and never mutated.
type ConnectionDescriptor struct {
	Dialect  Dialect
	User     string
	Password string
	Host     string
	Port     string
	Database string
}

// ConfigError represents a bad or missing configuration value.
type ConfigError struct {
	Field  string
	Reason string
	Hint   string
}

func (e *ConfigError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("invalid database configuration: %s\nHint: %s", e.Reason, e.Hint)
	}
	return fmt.Sprintf("invalid database configuration: %s", e.Reason)
}

// ErrorKind marks configuration errors as fatal before the loop starts.
func (e *ConfigError) ErrorKind() apperrors.Kind { return apperrors.ConfigurationError }

// NewConfigError creates a new ConfigError
func NewConfigError(field, reason, hint string) *ConfigError {
	return &ConfigError{
		Field:  field,
		Reason: reason,
		Hint:   hint,
	}
}
