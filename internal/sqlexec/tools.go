// Copyright (c) 2025 The sqlagent Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package sqlexec

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/tools"

	apperrors "sqlagent/cli/internal/errors"
	"sqlagent/cli/internal/trace"
)

// Tool names the agent sees.
const (
	QueryToolName        = trace.SQLQueryTool
	SchemaToolName       = "sql_db_schema"
	ListTablesToolName   = "sql_db_list_tables"
	QueryCheckerToolName = "sql_db_query_checker"
)

// Toolkit returns the SQL tools bound to db. The query checker is included only
// when llm is non-nil.
func Toolkit(db Database, llm llms.Model) []tools.Tool {
	kit := []tools.Tool{
		QueryTool{DB: db},
		SchemaTool{DB: db},
		ListTablesTool{DB: db},
	}
	if llm != nil {
		kit = append(kit, QueryCheckerTool{LLM: llm, Dialect: db.Dialect()})
	}
	return kit
}

// QueryTool executes a statement and returns its rows as JSON.
// A statement the database rejects becomes an "Error: ..." observation so the
// agent can rewrite it. A lost connection is returned as an error and ends the turn.
type QueryTool struct {
	DB Database
}

func (QueryTool) Name() string { return QueryToolName }

func (QueryTool) Description() string {
	return "Input to this tool is a detailed and correct SQL query, output is a result from the database. " +
		"If the query is not correct, an error message will be returned. " +
		"If an error is returned, rewrite the query, check the query, and try again. " +
		"If you encounter an issue with Unknown column 'xxxx' in 'field list', use " +
		SchemaToolName + " to query the correct table fields."
}

func (t QueryTool) Call(ctx context.Context, input string) (string, error) {
	query := strings.TrimSpace(trace.ParseToolInput(input).QueryText())
	if query == "" {
		return "Error: empty query", nil
	}

	res, err := t.DB.Query(ctx, query)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if apperrors.IsConnectivity(err) {
			return "", apperrors.Wrap(apperrors.DatabaseConnectivity, "lost connection to the database", err)
		}
		return "Error: " + err.Error(), nil
	}
	return res.JSON(), nil
}

// SchemaTool describes the requested tables.
type SchemaTool struct {
	DB Database
}

func (SchemaTool) Name() string { return SchemaToolName }

func (SchemaTool) Description() string {
	return "Input to this tool is a comma-separated list of tables, output is the schema and sample rows for those tables. " +
		"Be sure that the tables actually exist by calling " + ListTablesToolName + " first! " +
		"Example Input: table1, table2, table3"
}

func (t SchemaTool) Call(ctx context.Context, input string) (string, error) {
	requested := splitTableList(trace.ParseToolInput(input).QueryText())
	if len(requested) == 0 {
		return "Error: no table names given", nil
	}

	known := make(map[string]struct{})
	for _, name := range t.DB.TableNames() {
		known[name] = struct{}{}
	}
	var missing []string
	for _, name := range requested {
		if _, ok := known[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Sprintf("Error: table_names {%s} not found in database", strings.Join(missing, ", ")), nil
	}

	info, err := t.DB.TableInfo(ctx, requested)
	if err != nil {
		if apperrors.IsConnectivity(err) {
			return "", apperrors.Wrap(apperrors.DatabaseConnectivity, "lost connection to the database", err)
		}
		return "Error: " + err.Error(), nil
	}
	return info, nil
}

// splitTableList accepts "a, b", "a,b" and quoted names.
func splitTableList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		name := strings.Trim(strings.TrimSpace(part), "`\"'")
		if name != "" {
			out = append(out, name)
		}
	}
	return out
}

// ListTablesTool lists the tables in the database.
type ListTablesTool struct {
	DB Database
}

func (ListTablesTool) Name() string { return ListTablesToolName }

func (ListTablesTool) Description() string {
	return "Input is an empty string, output is a comma-separated list of tables in the database."
}

func (t ListTablesTool) Call(context.Context, string) (string, error) {
	return strings.Join(t.DB.TableNames(), ", "), nil
}

const queryCheckerPrompt = `%s
Double check the %s query above for common mistakes, including:
- Using NOT IN with NULL values
- Using UNION when UNION ALL should have been used
- Using BETWEEN for exclusive ranges
- Data type mismatch in predicates
- Properly quoting identifiers
- Using the correct number of arguments for functions
- Casting to the correct data type
- Using the proper columns for joins

If there are any of the above mistakes, rewrite the query. If there are no mistakes, just reproduce the original query.

Output the final SQL query only.

SQL Query: `

// QueryCheckerTool asks the model to review a query before it is executed.
type QueryCheckerTool struct {
	LLM     llms.Model
	Dialect string
}

func (QueryCheckerTool) Name() string { return QueryCheckerToolName }

func (QueryCheckerTool) Description() string {
	return "Use this tool to double check if your query is correct before executing it. " +
		"Always use this tool before executing a query with " + QueryToolName + "!"
}

func (t QueryCheckerTool) Call(ctx context.Context, input string) (string, error) {
	query := strings.TrimSpace(trace.ParseToolInput(input).QueryText())
	out, err := llms.GenerateFromSinglePrompt(ctx, t.LLM, fmt.Sprintf(queryCheckerPrompt, query, t.Dialect))
	if err != nil {
		return "", fmt.Errorf("query checker: %w", err)
	}
	return strings.TrimSpace(out), nil
}
