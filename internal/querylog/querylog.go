// Package querylog appends answered questions to a flat, human-readable history file.
package querylog

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// DefaultPath is the log file used when none is configured.
const DefaultPath = "query_history.txt"

// TimestampLayout renders microsecond local timestamps, e.g. 2025-01-02 15:04:05.123456.
const TimestampLayout = "2006-01-02 15:04:05.000000"

var separator = strings.Repeat("-", 50)

// Record is one answered question.
type Record struct {
	Timestamp time.Time
	Question  string
	SQL       string
	Answer    string
}

// Writer appends records to the file at Path. The file is opened per record in
// append mode and never read back, rotated or synced.
type Writer struct {
	Path string
	// Now stamps records that carry no timestamp. Defaults to time.Now.
	Now func() time.Time

	mu sync.Mutex
}

// NewWriter returns a Writer for path, falling back to DefaultPath.
func NewWriter(path string) *Writer {
	if strings.TrimSpace(path) == "" {
		path = DefaultPath
	}
	return &Writer{Path: path, Now: time.Now}
}

// Append writes rec as four labelled lines followed by a dashed separator.
func (w *Writer) Append(rec Record) error {
	if rec.Timestamp.IsZero() {
		now := time.Now
		if w.Now != nil {
			now = w.Now
		}
		rec.Timestamp = now()
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := os.OpenFile(w.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open query log: %w", err)
	}

	_, werr := f.WriteString(Format(rec))
	cerr := f.Close()
	if werr != nil {
		return fmt.Errorf("write query log: %w", werr)
	}
	if cerr != nil {
		return fmt.Errorf("close query log: %w", cerr)
	}
	return nil
}

// Format renders rec exactly as it is appended to the file.
func Format(rec Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Timestamp: %s\n", rec.Timestamp.Format(TimestampLayout))
	fmt.Fprintf(&b, "Question: %s\n", rec.Question)
	fmt.Fprintf(&b, "SQL Query: %s\n", rec.SQL)
	fmt.Fprintf(&b, "Answer: %s\n", rec.Answer)
	b.WriteString(separator)
	b.WriteString("\n")
	return b.String()
}
