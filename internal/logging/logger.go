// Copyright (c) 2025 The sqlagent Authors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"io"
	"os"
	"strings"

	"github.com/pterm/pterm"
)

// NewLogger returns the diagnostics logger. Verbose enables debug output;
// otherwise only warnings and errors are printed.
func NewLogger(verbose bool) *pterm.Logger {
	return newLogger(os.Stderr, verbose)
}

func newLogger(w io.Writer, verbose bool) *pterm.Logger {
	level := pterm.LogLevelWarn
	if verbose {
		level = pterm.LogLevelDebug
	}
	return pterm.DefaultLogger.WithLevel(level).WithWriter(w)
}

// VerboseFromEnv reads SQLAGENT_VERBOSE. Any of 1, true, yes, on enables it.
func VerboseFromEnv(getenv func(string) string) bool {
	switch strings.ToLower(strings.TrimSpace(getenv("SQLAGENT_VERBOSE"))) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
