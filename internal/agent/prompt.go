package agent

import (
	"fmt"
	"strings"
)

// DefaultTopK is the row limit the model is told to apply when the question names none.
const DefaultTopK = 10

// SystemMessage builds the system instruction for one agent.
// The result is a prompt template: the schema text is escaped and the
// conversation so far is substituted for {{.history}} on every turn.
func SystemMessage(schemaText, dialect string, topK int) string {
	if topK <= 0 {
		topK = DefaultTopK
	}
	role := "You are an expert Database Agent."
	if d := strings.TrimSpace(dialect); d != "" {
		role = fmt.Sprintf("You are an expert %s Database Agent.", d)
	}

	var b strings.Builder
	b.WriteString(role)
	b.WriteString("\n\n")
	b.WriteString(escapeTemplate(strings.TrimSpace(schemaText)))
	b.WriteString("\n\nCRITICAL RULES:\n")
	fmt.Fprintf(&b, `1. You MUST use the EXACT table names and column names from the schema above.
2. DO NOT hallucinate tables or columns.
3. If you need a column that isn't in a table, check the Foreign Keys to join with the related table.
4. Start by listing tables if you are unsure, but TRUST the schema above first.
5. Always LIMIT results to %d unless specified otherwise.
6. Double check your query logic before executing.
7. If a query fails, rewrite it using the correct column names from the schema.
`, topK)
	b.WriteString("\nConversation so far:\n{{.history}}\n")
	return b.String()
}

// escapeTemplate keeps literal braces in schema text from being parsed as template actions.
func escapeTemplate(s string) string {
	return strings.ReplaceAll(s, "{{", `{{"{{"}}`)
}
