// Copyright (c) 2025 The sqlagent Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package dsn

import (
	"fmt"
	"net"
	"net/url"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5"
)

// URI returns the canonical connection URI for the descriptor.
// User and password are URL-escaped, so a password containing '@', ':' or '/'
// survives a parse round-trip unchanged.
func (d ConnectionDescriptor) URI() string {
	switch d.Dialect {
	case DialectSQLite, DialectDuckDB:
		return string(d.Dialect) + ":///" + d.Database
	}

	u := url.URL{
		User: url.UserPassword(d.User, d.Password),
		Host: net.JoinHostPort(d.Host, d.Port),
	}
	switch d.Dialect {
	case DialectPostgres:
		u.Scheme = "postgresql"
		u.Path = "/" + d.Database
	case DialectMySQL:
		u.Scheme = "mysql"
		u.Path = "/" + d.Database
	case DialectMSSQL:
		u.Scheme = "sqlserver"
		u.RawQuery = url.Values{"database": {d.Database}}.Encode()
	}
	return u.String()
}

// DriverDSN returns the connection string in the form the Go driver for the dialect expects.
func (d ConnectionDescriptor) DriverDSN() string {
	switch d.Dialect {
	case DialectMySQL:
		cfg := mysql.NewConfig()
		cfg.User = d.User
		cfg.Passwd = d.Password
		cfg.Net = "tcp"
		cfg.Addr = net.JoinHostPort(d.Host, d.Port)
		cfg.DBName = d.Database
		cfg.ParseTime = true
		return cfg.FormatDSN()
	case DialectSQLite, DialectDuckDB:
		return d.Database
	}
	return d.URI()
}

// Validate checks that the driver for the dialect accepts the generated connection string.
func Validate(d ConnectionDescriptor) error {
	switch d.Dialect {
	case DialectPostgres:
		if _, err := pgx.ParseConfig(d.DriverDSN()); err != nil {
			return NewConfigError("", fmt.Sprintf("postgres connection string rejected: %v", err), "check DB_HOST, DB_PORT and DB_NAME")
		}
	case DialectMySQL:
		if _, err := mysql.ParseDSN(d.DriverDSN()); err != nil {
			return NewConfigError("", fmt.Sprintf("mysql connection string rejected: %v", err), "check DB_HOST, DB_PORT and DB_NAME")
		}
	case DialectMSSQL:
		if _, err := url.Parse(d.DriverDSN()); err != nil {
			return NewConfigError("", fmt.Sprintf("sqlserver connection string rejected: %v", err), "check DB_HOST, DB_PORT and DB_NAME")
		}
	case DialectSQLite, DialectDuckDB:
		if d.Database == "" {
			return NewConfigError(EnvName, "missing database path", "set DB_NAME")
		}
	default:
		return NewConfigError(EnvType, fmt.Sprintf("unsupported dialect: %s", d.Dialect), "")
	}
	return nil
}
