// Package terminal provides utilities for terminal operations such as clearing text.
package terminal

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

const defaultWidth = 80

// Width returns the width of the terminal attached to f, or 80 when unknown.
func Width(f *os.File) int {
	if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
		return width
	}
	return defaultWidth
}

// LinesFor returns how many terminal rows textLength characters occupy at width.
func LinesFor(textLength, width int) int {
	if width <= 0 {
		width = defaultWidth
	}
	lines := (textLength + width - 1) / width
	if lines < 1 {
		return 1
	}
	return lines
}

// ClearSequence returns the ANSI sequence that erases the last n rows, ending
// with the cursor at the start of the topmost one.
func ClearSequence(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteString("\r\x1b[2K")
		if i < n-1 {
			b.WriteString("\x1b[1A")
		}
	}
	return b.String()
}

// ClearPreviousLines erases a prompt of textLength characters the user just
// answered on stdout. The row the cursor moved to after Enter is cleared too.
func ClearPreviousLines(textLength int) {
	clearLines(os.Stdout, LinesFor(textLength, Width(os.Stdout))+1)
}

func clearLines(w io.Writer, n int) {
	fmt.Fprint(w, ClearSequence(n))
}
