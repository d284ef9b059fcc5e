// Copyright (c) 2025 The sqlagent Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"

	apperrors "sqlagent/cli/internal/errors"
)

// FailureType represents the category of a fatal failure
type FailureType int

const (
	FailureUnknown FailureType = iota
	FailureConfig
	FailureDatabase
	FailureAuth
	FailureTimeout
	FailureRateLimit
	FailureUnavailable
)

// ParseFailure categorizes an error that stops a command
func ParseFailure(err error) FailureType {
	if err == nil {
		return FailureUnknown
	}
	switch apperrors.Classify(err) {
	case apperrors.ConfigurationError:
		return FailureConfig
	case apperrors.DatabaseConnectivity:
		return FailureDatabase
	case apperrors.ProviderAuth:
		return FailureAuth
	}

	lower := strings.ToLower(err.Error())
	if strings.Contains(lower, "429") || strings.Contains(lower, "rate limit") {
		return FailureRateLimit
	}
	if strings.Contains(lower, "deadline") || strings.Contains(lower, "timeout") {
		return FailureTimeout
	}
	if strings.Contains(lower, "503") || strings.Contains(lower, "502") || strings.Contains(lower, "unavailable") {
		return FailureUnavailable
	}
	if apperrors.IsConnectivity(err) {
		return FailureDatabase
	}
	return FailureUnknown
}

// FormatFailure formats a fatal error in a user-friendly way
func FormatFailure(title string, err error) string {
	kind := ParseFailure(err)

	var builder strings.Builder
	builder.WriteString(pterm.NewStyle(pterm.FgRed, pterm.Bold).Sprint(title))
	builder.WriteString("\n\n")

	switch kind {
	case FailureConfig:
		builder.WriteString("The database settings are incomplete or invalid.\n")
		builder.WriteString("Check:\n")
		builder.WriteString("  • DB_TYPE is one of postgres, mysql, mssql, sqlite, duckdb\n")
		builder.WriteString("  • DB_USER, DB_PASSWORD and DB_NAME are set for server databases\n")
		builder.WriteString("  • DB_NAME points to the database file for sqlite and duckdb\n")

	case FailureDatabase:
		builder.WriteString("The database could not be reached.\n")
		builder.WriteString("This usually happens when:\n")
		builder.WriteString("  • The database server is not running\n")
		builder.WriteString("  • DB_HOST or DB_PORT is wrong\n")
		builder.WriteString("  • The credentials were rejected\n")

	case FailureAuth:
		builder.WriteString("The LLM provider rejected the API key.\n")
		builder.WriteString("To fix this:\n")
		builder.WriteString("  • Set GROQ_API_KEY or OPENROUTER_API_KEY\n")
		builder.WriteString("  • Or run 'sqlagent login' to store a key in the keychain\n")

	case FailureRateLimit:
		builder.WriteString("The LLM provider is rate limiting requests.\n")
		builder.WriteString("Wait a moment or switch LLM_MODEL to a less busy model.\n")

	case FailureTimeout:
		builder.WriteString("The request timed out.\n")
		builder.WriteString("This could be due to a slow network or a long-running query.\n")

	case FailureUnavailable:
		builder.WriteString("The LLM provider is currently unavailable.\n")
		builder.WriteString("Try again later or set LLM_PROVIDER to the other provider.\n")

	default:
		builder.WriteString("The command could not complete.\n")
	}

	builder.WriteString("\n")
	if kind == FailureAuth {
		builder.WriteString(pterm.NewStyle(pterm.FgYellow).Sprint("→ Please run 'sqlagent login' and try again"))
	} else if kind == FailureDatabase || kind == FailureConfig {
		builder.WriteString(pterm.NewStyle(pterm.FgYellow).Sprint("→ Run 'sqlagent dbinfo' to review the connection settings"))
	} else {
		builder.WriteString(pterm.NewStyle(pterm.FgYellow).Sprint("→ Please try again"))
	}
	builder.WriteString("\n")

	if err != nil {
		builder.WriteString("\n")
		builder.WriteString(pterm.NewStyle(pterm.FgGray).Sprint("Technical details: " + Mask(err.Error())))
	}
	return builder.String()
}

// PresentFailure displays a formatted fatal error
func PresentFailure(title string, err error) {
	fmt.Println()
	fmt.Println(FormatFailure(title, err))
	fmt.Println()
}
