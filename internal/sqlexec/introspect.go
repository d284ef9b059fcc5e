// Copyright (c) 2025 The sqlagent Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package sqlexec

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"sqlagent/cli/internal/dsn"
)

// Introspector builds the dynamic schema description: CREATE TABLE statements
// for every table, followed by a constraints section when an inspector is set.
type Introspector struct {
	DB          Database
	Constraints *SchemaInspector
	// OnConstraintError is called when the constraints section cannot be built.
	// The description is still returned without it.
	OnConstraintError func(error)
}

// Introspect implements schema.Introspector.
func (in *Introspector) Introspect(ctx context.Context) (string, error) {
	info, err := in.DB.TableInfo(ctx, nil)
	if err != nil {
		return "", err
	}
	info = strings.TrimRight(info, "\n ")

	if in.Constraints == nil {
		return info, nil
	}
	section, err := in.Constraints.Describe(ctx, in.DB.TableNames())
	if err != nil {
		if in.OnConstraintError != nil {
			in.OnConstraintError(err)
		}
		return info, nil
	}
	if section == "" {
		return info, nil
	}
	return info + "\n\n" + strings.TrimRight(section, "\n"), nil
}

// OpenConstraintInspector connects a pgx pool for constraint inspection.
// It returns a nil inspector for dialects other than PostgreSQL.
func OpenConstraintInspector(ctx context.Context, desc dsn.ConnectionDescriptor) (*SchemaInspector, func(), error) {
	if desc.Dialect != dsn.DialectPostgres {
		return nil, func() {}, nil
	}
	pool, err := pgxpool.New(ctx, desc.DriverDSN())
	if err != nil {
		return nil, func() {}, err
	}
	return NewSchemaInspector(pool), pool.Close, nil
}
