// Copyright (c) 2025 The sqlagent Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package dsn

import (
	"errors"
	"testing"

	apperrors "sqlagent/cli/internal/errors"
)

func envFrom(m map[string]string) func(string) string {
	return func(key string) string { return m[key] }
}

func TestParseDialect(t *testing.T) {
	tests := []struct {
		name        string
		in          string
		want        Dialect
		expectError bool
	}{
		{name: "empty defaults to postgres", in: "", want: DialectPostgres},
		{name: "postgres", in: "postgres", want: DialectPostgres},
		{name: "postgresql alias", in: "postgresql", want: DialectPostgres},
		{name: "uppercase", in: "MYSQL", want: DialectMySQL},
		{name: "mssql", in: "mssql", want: DialectMSSQL},
		{name: "sqlserver alias", in: "sqlserver", want: DialectMSSQL},
		{name: "sqlite", in: "sqlite", want: DialectSQLite},
		{name: "duckdb", in: "duckdb", want: DialectDuckDB},
		{name: "unsupported", in: "unsupported", expectError: true},
		{name: "oracle", in: "oracle", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDialect(tt.in)
			if tt.expectError {
				if err == nil {
					t.Errorf("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseDialect(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	base := map[string]string{
		EnvUser:     "app",
		EnvPassword: "secret",
		EnvName:     "bike_store",
	}
	with := func(extra map[string]string) map[string]string {
		m := map[string]string{}
		for k, v := range base {
			m[k] = v
		}
		for k, v := range extra {
			m[k] = v
		}
		return m
	}

	tests := []struct {
		name        string
		env         map[string]string
		wantDialect Dialect
		wantHost    string
		wantPort    string
		wantDB      string
		expectError bool
	}{
		{
			name:        "DB_TYPE unset defaults to postgres on 5432",
			env:         base,
			wantDialect: DialectPostgres,
			wantHost:    "localhost",
			wantPort:    "5432",
			wantDB:      "bike_store",
		},
		{
			name:        "mysql default port",
			env:         with(map[string]string{EnvType: "mysql"}),
			wantDialect: DialectMySQL,
			wantHost:    "localhost",
			wantPort:    "3306",
			wantDB:      "bike_store",
		},
		{
			name:        "mssql default port",
			env:         with(map[string]string{EnvType: "mssql"}),
			wantDialect: DialectMSSQL,
			wantHost:    "localhost",
			wantPort:    "1433",
			wantDB:      "bike_store",
		},
		{
			name:        "explicit host and port",
			env:         with(map[string]string{EnvHost: "db.internal", EnvPort: "6543"}),
			wantDialect: DialectPostgres,
			wantHost:    "db.internal",
			wantPort:    "6543",
			wantDB:      "bike_store",
		},
		{
			name:        "sqlite only needs a path",
			env:         map[string]string{EnvType: "sqlite", EnvName: "/tmp/bikes.db"},
			wantDialect: DialectSQLite,
			wantDB:      "/tmp/bikes.db",
		},
		{
			name:        "unsupported dialect",
			env:         with(map[string]string{EnvType: "unsupported"}),
			expectError: true,
		},
		{
			name:        "missing user",
			env:         map[string]string{EnvPassword: "x", EnvName: "db"},
			expectError: true,
		},
		{
			name:        "missing password",
			env:         map[string]string{EnvUser: "x", EnvName: "db"},
			expectError: true,
		},
		{
			name:        "missing database",
			env:         map[string]string{EnvUser: "x", EnvPassword: "y"},
			expectError: true,
		},
		{
			name:        "sqlite without path",
			env:         map[string]string{EnvType: "sqlite"},
			expectError: true,
		},
		{
			name:        "non numeric port",
			env:         with(map[string]string{EnvPort: "abc"}),
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			desc, err := Resolve(envFrom(tt.env))

			if tt.expectError {
				if err == nil {
					t.Fatalf("expected error but got none")
				}
				var cfgErr *ConfigError
				if !errors.As(err, &cfgErr) {
					t.Fatalf("error type = %T, want *ConfigError", err)
				}
				if k, _ := apperrors.KindOf(err); k != apperrors.ConfigurationError {
					t.Errorf("kind = %q, want %q", k, apperrors.ConfigurationError)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if desc.Dialect != tt.wantDialect {
				t.Errorf("dialect = %q, want %q", desc.Dialect, tt.wantDialect)
			}
			if desc.Host != tt.wantHost {
				t.Errorf("host = %q, want %q", desc.Host, tt.wantHost)
			}
			if desc.Port != tt.wantPort {
				t.Errorf("port = %q, want %q", desc.Port, tt.wantPort)
			}
			if desc.Database != tt.wantDB {
				t.Errorf("database = %q, want %q", desc.Database, tt.wantDB)
			}
		})
	}
}
