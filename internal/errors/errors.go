// Package errors defines typed errors with categories for user-friendly reporting.
// It provides a structured approach to error handling with machine-readable error kinds
// and human-friendly messages, so the interactive loop can decide how to present a
// failed turn without inspecting driver- or provider-specific error types.
//
// The package supports wrapping underlying errors while maintaining error kind information.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind is a machine-readable error category.
type Kind string

const (
	// ConfigurationError indicates bad or missing environment values. Fatal before the loop starts.
	ConfigurationError Kind = "configuration_error"
	// ProviderAuth indicates a missing or rejected LLM API key.
	ProviderAuth Kind = "provider_auth"
	// DatabaseConnectivity indicates a network or authentication failure talking to the database.
	DatabaseConnectivity Kind = "database_connectivity"
	// ToolExecution indicates a single SQL statement failed inside the agent.
	// It is carried as an "Error: ..." observation and never raised to the loop.
	ToolExecution Kind = "tool_execution"
	// AgentFailed covers every other failure of an agent turn.
	AgentFailed Kind = "agent_failed"
)

// E wraps an error with kind and human-friendly message.
type E struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *E) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying cause.
func (e *E) Unwrap() error { return e.Err }

// ErrorKind reports the category of e.
func (e *E) ErrorKind() Kind { return e.Kind }

func Wrap(kind Kind, msg string, err error) *E { return &E{Kind: kind, Message: msg, Err: err} }
func New(kind Kind, msg string) *E             { return &E{Kind: kind, Message: msg} }

// kinded is implemented by error types that know their own category.
type kinded interface {
	ErrorKind() Kind
}

// KindOf returns the kind of the first categorized error in err's chain.
// The second result is false when no error in the chain carries a kind.
func KindOf(err error) (Kind, bool) {
	var k kinded
	if stderrors.As(err, &k) {
		return k.ErrorKind(), true
	}
	return "", false
}
