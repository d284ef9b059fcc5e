package terminal

import (
	"strings"
	"testing"
)

func TestLinesFor(t *testing.T) {
	tests := []struct {
		name          string
		length, width int
		want          int
	}{
		{name: "empty", length: 0, width: 80, want: 1},
		{name: "fits", length: 79, width: 80, want: 1},
		{name: "exact", length: 80, width: 80, want: 1},
		{name: "wraps", length: 81, width: 80, want: 2},
		{name: "narrow", length: 100, width: 30, want: 4},
		{name: "unknown width", length: 160, width: 0, want: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := LinesFor(tt.length, tt.width); got != tt.want {
				t.Errorf("LinesFor(%d, %d) = %d, want %d", tt.length, tt.width, got, tt.want)
			}
		})
	}
}

func TestClearLines(t *testing.T) {
	var b strings.Builder
	clearLines(&b, 3)

	got := b.String()
	if n := strings.Count(got, "\x1b[2K"); n != 3 {
		t.Errorf("cleared %d rows, want 3", n)
	}
	if n := strings.Count(got, "\x1b[1A"); n != 2 {
		t.Errorf("moved up %d rows, want 2", n)
	}
	if !strings.HasSuffix(got, "\r\x1b[2K") {
		t.Errorf("sequence should end on a cleared row: %q", got)
	}
}
