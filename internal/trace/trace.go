// Package trace models the step trace an agent produces for one turn and extracts
// the last SQL statement that ran without error.
//
// A turn's trace is an ordered list of tool invocations and the observations they
// returned. The agent runtime reports tool input either as a JSON object or as plain
// text; ToolInput keeps the two shapes apart so each has its own extraction rule.
package trace

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	// SQLQueryTool is the name of the tool that executes SQL against the database.
	SQLQueryTool = "sql_db_query"
	// NoSuccessfulQuery is returned when no SQL execution in the trace succeeded.
	NoSuccessfulQuery = "No successful SQL Query generated"
	// errorMarker flags a failed observation. The match is literal and case-sensitive.
	errorMarker = "Error"
)

// ToolInput is the argument a tool was invoked with: Structured or Raw.
type ToolInput interface {
	// QueryText returns the SQL text carried by the input.
	QueryText() string
	isToolInput()
}

// Structured is a tool input given as a mapping, e.g. {"query": "SELECT 1"}.
type Structured struct {
	Fields map[string]any
}

// QueryText returns the "query" entry when present, otherwise the mapping's string form.
func (s Structured) QueryText() string {
	if q, ok := s.Fields["query"]; ok {
		if str, ok := q.(string); ok {
			return str
		}
		return fmt.Sprint(q)
	}
	b, err := json.Marshal(s.Fields)
	if err != nil {
		return fmt.Sprint(s.Fields)
	}
	return string(b)
}

func (Structured) isToolInput() {}

// Raw is a tool input given as plain text.
type Raw struct {
	Text string
}

// QueryText returns the text unchanged.
func (r Raw) QueryText() string { return r.Text }

func (Raw) isToolInput() {}

// ParseToolInput decodes a JSON object into Structured. Anything else, including
// JSON scalars and arrays, is Raw.
func ParseToolInput(s string) ToolInput {
	trimmed := strings.TrimSpace(s)
	if strings.HasPrefix(trimmed, "{") {
		var fields map[string]any
		if err := json.Unmarshal([]byte(trimmed), &fields); err == nil && fields != nil {
			return Structured{Fields: fields}
		}
	}
	return Raw{Text: s}
}

// Invocation is one tool call made by the agent.
type Invocation struct {
	Tool  string
	Input ToolInput
}

// Step pairs an invocation with the observation the tool returned.
type Step struct {
	Invocation  Invocation
	Observation string
}

// Failed reports whether the observation signals a failed execution.
func (s Step) Failed() bool {
	return strings.Contains(s.Observation, errorMarker)
}

// Trace is the ordered record of every step of one agent turn.
type Trace []Step

// LastSuccessfulQuery scans the trace front to back and returns the query text of the
// last SQL execution whose observation does not contain "Error".
func LastSuccessfulQuery(t Trace) (string, bool) {
	var (
		query string
		found bool
	)
	for _, step := range t {
		if step.Invocation.Tool != SQLQueryTool {
			continue
		}
		if step.Failed() {
			continue
		}
		if step.Invocation.Input == nil {
			query, found = "", true
			continue
		}
		query, found = step.Invocation.Input.QueryText(), true
	}
	return query, found
}

// ExtractSuccessfulQuery returns the last successful SQL query of the turn,
// or NoSuccessfulQuery when there is none.
func ExtractSuccessfulQuery(t Trace) string {
	if q, ok := LastSuccessfulQuery(t); ok {
		return q
	}
	return NoSuccessfulQuery
}
