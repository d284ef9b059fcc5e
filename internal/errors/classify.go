package errors

import (
	"context"
	"database/sql/driver"
	stderrors "errors"
	"net"
	"regexp"
	"strings"
	"syscall"
)

// Classify returns the kind for err. Categorized errors keep their own kind; untyped
// errors coming back from the agent runtime are sorted by inspecting the error chain and,
// as a last resort, the provider's error text.
func Classify(err error) Kind {
	if err == nil {
		return ""
	}
	if k, ok := KindOf(err); ok {
		return k
	}
	if isAuthError(err) {
		return ProviderAuth
	}
	return AgentFailed
}

// IsConnectivity reports whether err looks like a broken database or network link
// rather than a failed statement.
func IsConnectivity(err error) bool {
	if err == nil {
		return false
	}
	if stderrors.Is(err, driver.ErrBadConn) {
		return true
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var dnsErr *net.DNSError
	if stderrors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	if stderrors.As(err, &opErr) {
		return true
	}
	if stderrors.Is(err, syscall.ECONNREFUSED) || stderrors.Is(err, syscall.ECONNRESET) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, needle := range []string{
		"connection refused",
		"connection reset",
		"broken pipe",
		"no such host",
		"i/o timeout",
		"failed to connect",
		"bad connection",
		"database is closed",
		"sql: database is closed",
	} {
		if strings.Contains(msg, needle) {
			return true
		}
	}
	return false
}

// authStatus matches HTTP 401/403 as the openai client and OpenAI-compatible
// proxies report them, not the digits appearing anywhere in a message.
var authStatus = regexp.MustCompile(`(?i)status code:?\s*(401|403)\b|\b(401|403)\s+(unauthorized|forbidden)\b`)

// isAuthError checks for provider responses rejecting the API key.
func isAuthError(err error) bool {
	msg := err.Error()
	if authStatus.MatchString(msg) {
		return true
	}
	lower := strings.ToLower(msg)
	for _, needle := range []string{
		"unauthorized",
		"invalid api key",
		"invalid_api_key",
		"incorrect api key",
		"missing api key",
		"invalid authentication",
		"authentication_error",
		"no auth credentials",
	} {
		if strings.Contains(lower, needle) {
			return true
		}
	}
	return false
}
