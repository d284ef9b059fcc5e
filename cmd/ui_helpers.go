package cmd

import (
	"os"

	"atomicgo.dev/cursor"
	"github.com/pterm/pterm"
	"golang.org/x/term"
)

// runWithSpinner runs fn while a spinner with text is shown on stdout.
// The spinner is skipped when stdout is not a terminal or verbose logging
// would interleave with it.
func runWithSpinner(text string, verbose bool, fn func()) {
	if verbose || !term.IsTerminal(int(os.Stdout.Fd())) {
		fn()
		return
	}

	cursor.Hide()
	defer cursor.Show()

	sp, err := pterm.DefaultSpinner.WithRemoveWhenDone(true).Start(text)
	if err != nil {
		fn()
		return
	}
	defer func() { _ = sp.Stop() }()
	fn()
}

// spinnerWait adapts runWithSpinner to repl.Loop.Wait.
func spinnerWait(text string, verbose bool) func(run func()) {
	return func(run func()) {
		runWithSpinner(text, verbose, run)
	}
}
