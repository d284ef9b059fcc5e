// Copyright (c) 2025 The sqlagent Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package dsn

import (
	"fmt"
	"regexp"
	"strings"
)

// Environment variables read by Resolve.
const (
	EnvType     = "DB_TYPE"
	EnvUser     = "DB_USER"
	EnvPassword = "DB_PASSWORD"
	EnvHost     = "DB_HOST"
	EnvPort     = "DB_PORT"
	EnvName     = "DB_NAME"
)

var portRegex = regexp.MustCompile(`^\d+$`)

// ParseDialect maps a DB_TYPE value (case-insensitive, aliases allowed) to a Dialect.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "postgres", "postgresql":
		return DialectPostgres, nil
	case "mysql":
		return DialectMySQL, nil
	case "mssql", "sqlserver":
		return DialectMSSQL, nil
	case "sqlite", "sqlite3":
		return DialectSQLite, nil
	case "duckdb":
		return DialectDuckDB, nil
	}
	return "", NewConfigError(EnvType, fmt.Sprintf("unsupported DB_TYPE: %s", s), "use postgres, mysql, mssql, sqlite or duckdb")
}

// Resolve builds a ConnectionDescriptor from environment variables.
// getenv is usually os.Getenv; it is a parameter so callers control the source.
func Resolve(getenv func(string) string) (ConnectionDescriptor, error) {
	get := func(key string) string { return strings.TrimSpace(getenv(key)) }

	dialect, err := ParseDialect(get(EnvType))
	if err != nil {
		return ConnectionDescriptor{}, err
	}

	desc := ConnectionDescriptor{
		Dialect:  dialect,
		User:     get(EnvUser),
		Password: getenv(EnvPassword), // passwords may legitimately carry surrounding spaces
		Host:     get(EnvHost),
		Port:     get(EnvPort),
		Database: get(EnvName),
	}

	if dialect.FileBacked() {
		// DB_NAME is the full path to the database file.
		if desc.Database == "" {
			return ConnectionDescriptor{}, NewConfigError(EnvName, "missing database path", "set DB_NAME to the "+string(dialect)+" database file")
		}
		desc.User, desc.Password, desc.Host, desc.Port = "", "", "", ""
		return desc, nil
	}

	if desc.Host == "" {
		desc.Host = "localhost"
	}
	if desc.Port == "" {
		desc.Port = dialect.DefaultPort()
	}

	if desc.User == "" {
		return ConnectionDescriptor{}, NewConfigError(EnvUser, "missing username", "set DB_USER")
	}
	if desc.Password == "" {
		return ConnectionDescriptor{}, NewConfigError(EnvPassword, "missing password", "set DB_PASSWORD")
	}
	if desc.Database == "" {
		return ConnectionDescriptor{}, NewConfigError(EnvName, "missing database name", "set DB_NAME")
	}
	if !portRegex.MatchString(desc.Port) {
		return ConnectionDescriptor{}, NewConfigError(EnvPort, fmt.Sprintf("invalid port number: %s", desc.Port), "port must be numeric")
	}

	return desc, nil
}
