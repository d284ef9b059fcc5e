// Copyright (c) 2025 The sqlagent Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package sqlexec

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
)

// ForeignKey is one column reference to another table.
type ForeignKey struct {
	Column    string
	RefTable  string
	RefColumn string
}

// SchemaInfo holds the constraints of one table that help the model write joins
// and filters.
type SchemaInfo struct {
	// TableName is the fully qualified or unqualified table name
	TableName string
	// PrimaryKeyCols lists primary key column names in order
	PrimaryKeyCols []string
	// ForeignKeys lists outgoing references ordered by column
	ForeignKeys []ForeignKey
	// EnumValues maps column names to their allowed values (extracted from check constraints)
	EnumValues map[string][]string
}

// pgQuerier is satisfied by *pgxpool.Pool and *pgx.Conn.
type pgQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// SchemaInspector reads PostgreSQL constraints from information_schema.
// Results are cached per table for the life of the inspector.
type SchemaInspector struct {
	pool  pgQuerier
	cache map[string]*SchemaInfo
	mu    sync.RWMutex
}

// NewSchemaInspector creates a new SchemaInspector over a pgx pool or connection.
func NewSchemaInspector(pool pgQuerier) *SchemaInspector {
	return &SchemaInspector{
		pool:  pool,
		cache: make(map[string]*SchemaInfo),
	}
}

// GetSchemaInfo retrieves or caches constraint information for a table.
// The tableName can be either "table" or "schema.table".
func (si *SchemaInspector) GetSchemaInfo(ctx context.Context, tableName string) (*SchemaInfo, error) {
	si.mu.RLock()
	if info, exists := si.cache[tableName]; exists {
		si.mu.RUnlock()
		return info, nil
	}
	si.mu.RUnlock()

	schema, table := parseTableName(tableName)
	info := &SchemaInfo{
		TableName:  tableName,
		EnumValues: make(map[string][]string),
	}

	if err := si.loadPrimaryKeys(ctx, schema, table, info); err != nil {
		return nil, err
	}
	if err := si.loadForeignKeys(ctx, schema, table, info); err != nil {
		return nil, err
	}
	// Check constraints are a hint only.
	_ = si.loadCheckConstraints(ctx, schema, table, info)

	si.mu.Lock()
	si.cache[tableName] = info
	si.mu.Unlock()

	return info, nil
}

// Describe renders the constraints of tables as a prompt section.
// Tables without keys or allowed values are left out.
func (si *SchemaInspector) Describe(ctx context.Context, tables []string) (string, error) {
	var b strings.Builder
	for _, t := range tables {
		info, err := si.GetSchemaInfo(ctx, t)
		if err != nil {
			return "", fmt.Errorf("inspect %s: %w", t, err)
		}
		b.WriteString(info.render())
	}
	if b.Len() == 0 {
		return "", nil
	}
	return "Constraints:\n" + b.String(), nil
}

func (info *SchemaInfo) render() string {
	if len(info.PrimaryKeyCols) == 0 && len(info.ForeignKeys) == 0 && len(info.EnumValues) == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "- %s\n", info.TableName)
	if len(info.PrimaryKeyCols) > 0 {
		fmt.Fprintf(&b, "  primary key: %s\n", strings.Join(info.PrimaryKeyCols, ", "))
	}
	for _, fk := range info.ForeignKeys {
		fmt.Fprintf(&b, "  %s references %s.%s\n", fk.Column, fk.RefTable, fk.RefColumn)
	}

	cols := make([]string, 0, len(info.EnumValues))
	for c := range info.EnumValues {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	for _, c := range cols {
		fmt.Fprintf(&b, "  %s allowed values: %s\n", c, strings.Join(info.EnumValues[c], ", "))
	}
	return b.String()
}

// ClearCache clears all cached schema information.
func (si *SchemaInspector) ClearCache() {
	si.mu.Lock()
	defer si.mu.Unlock()
	si.cache = make(map[string]*SchemaInfo)
}

// parseTableName splits a table name into schema and table components.
// If no schema is specified, it defaults to "public".
func parseTableName(tableName string) (schema string, table string) {
	parts := strings.Split(tableName, ".")
	if len(parts) == 2 {
		return parts[0], parts[1]
	}
	return "public", tableName
}

func (si *SchemaInspector) loadPrimaryKeys(ctx context.Context, schema, table string, info *SchemaInfo) error {
	pkQuery := `
		SELECT kc.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kc
			ON tc.constraint_name = kc.constraint_name AND tc.table_schema = kc.table_schema
		WHERE tc.table_schema = $1 AND tc.table_name = $2 AND tc.constraint_type = 'PRIMARY KEY'
		ORDER BY kc.ordinal_position`

	rows, err := si.pool.Query(ctx, pkQuery, schema, table)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var colName string
		if err := rows.Scan(&colName); err == nil {
			info.PrimaryKeyCols = append(info.PrimaryKeyCols, colName)
		}
	}
	return rows.Err()
}

func (si *SchemaInspector) loadForeignKeys(ctx context.Context, schema, table string, info *SchemaInfo) error {
	fkQuery := `
		SELECT kcu.column_name, ccu.table_name, ccu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema
		JOIN information_schema.constraint_column_usage ccu
			ON tc.constraint_name = ccu.constraint_name AND tc.table_schema = ccu.table_schema
		WHERE tc.table_schema = $1 AND tc.table_name = $2 AND tc.constraint_type = 'FOREIGN KEY'
		ORDER BY kcu.column_name`

	rows, err := si.pool.Query(ctx, fkQuery, schema, table)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var fk ForeignKey
		if err := rows.Scan(&fk.Column, &fk.RefTable, &fk.RefColumn); err == nil {
			info.ForeignKeys = append(info.ForeignKeys, fk)
		}
	}
	return rows.Err()
}

func (si *SchemaInspector) loadCheckConstraints(ctx context.Context, schema, table string, info *SchemaInfo) error {
	checkQuery := `
		SELECT ccu.column_name, cc.check_clause
		FROM information_schema.check_constraints cc
		JOIN information_schema.constraint_column_usage ccu
			ON cc.constraint_name = ccu.constraint_name AND cc.constraint_schema = ccu.constraint_schema
		WHERE cc.constraint_schema = $1 AND ccu.table_name = $2`

	rows, err := si.pool.Query(ctx, checkQuery, schema, table)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var colName, checkClause string
		if err := rows.Scan(&colName, &checkClause); err == nil {
			if enumValues := extractEnumValues(checkClause); len(enumValues) > 0 {
				info.EnumValues[colName] = enumValues
			}
		}
	}
	return rows.Err()
}

var (
	inListRegex   = regexp.MustCompile(`(?i)\bIN\s*\(\s*([^)]+)\)`)
	anyArrayRegex = regexp.MustCompile(`(?i)=\s*ANY\s*\(\s*\(?\s*ARRAY\s*\[([^\]]+)\]`)
)

// extractEnumValues extracts allowed values from a check constraint clause.
// It supports patterns like:
//   - "status IN ('queued','running','done','failed')"
//   - "status = ANY (ARRAY['queued'::text, 'running'::text, ...])"
func extractEnumValues(checkClause string) []string {
	if match := anyArrayRegex.FindStringSubmatch(checkClause); len(match) > 1 {
		return parseEnumValueList(match[1])
	}
	if match := inListRegex.FindStringSubmatch(checkClause); len(match) > 1 {
		return parseEnumValueList(match[1])
	}
	return nil
}

// parseEnumValueList parses a comma-separated list of enum values.
// It handles both single and double quotes and trims whitespace.
func parseEnumValueList(valueList string) []string {
	values := strings.Split(valueList, ",")
	var result []string
	for _, val := range values {
		val = strings.TrimSpace(val)
		// Remove type casts like ::text
		if idx := strings.Index(val, "::"); idx >= 0 {
			val = val[:idx]
		}
		val = strings.Trim(val, "'\"")
		if val != "" {
			result = append(result, val)
		}
	}
	return result
}
