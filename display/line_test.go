package display

import (
	"testing"
)

func TestFitLine(t *testing.T) {
	tests := []struct {
		text  string
		width int
		opts  LineOptions
		want  string
	}{
		{"abc", 5, 0, "abc"},
		{"abc", 5, BlankPadding, "abc  "},
		{"abcdefgh", 5, 0, "abcde"},
		{"abcdefgh", 5, EllipsisIfNotFit, "ab..."},
		{"abcdefgh", 3, EllipsisIfNotFit, "abc"},
		{"äöü", 4, BlankPadding, "äöü "},
		{"", 2, BlankPadding, "  "},
		{"abc", 0, BlankPadding, ""},
	}
	for _, tt := range tests {
		got := FitLine(tt.text, tt.width, tt.opts)
		if got != tt.want {
			t.Errorf("FitLine(%q, %d, %d) = %q, want %q", tt.text, tt.width, tt.opts, got, tt.want)
		}
	}
}

func TestFitLineCells(t *testing.T) {
	// 'Ä' is written as "Ae", '…' as "..."
	cells := func(r rune) int {
		switch r {
		case 'Ä':
			return 2
		case '…':
			return 3
		}
		return 1
	}
	tests := []struct {
		text  string
		width int
		opts  LineOptions
		want  string
	}{
		{"Äpfel", 8, BlankPadding, "Äpfel  "},
		{"Äpfel", 6, BlankPadding, "Äpfel"},
		{"ÄÄÄÄ", 5, 0, "ÄÄ "},
		{"Ärger Öl Über Äpfel…", 20, BlankPadding | EllipsisIfNotFit, "Ärger Öl Über ..."},
		{"ab…", 4, 0, "ab  "},
	}
	for _, tt := range tests {
		got := FitLineCells(tt.text, tt.width, tt.opts, cells)
		if got != tt.want {
			t.Errorf("FitLineCells(%q, %d, %d) = %q, want %q", tt.text, tt.width, tt.opts, got, tt.want)
		}
		if n := textCells(got, cells); tt.opts&BlankPadding != 0 && n != tt.width {
			t.Errorf("FitLineCells(%q) takes %d cells, want %d", tt.text, n, tt.width)
		}
	}
}

func TestParse(t *testing.T) {
	if m, err := ParseCursorMode("block"); err != nil || m != CursorBlock {
		t.Error("block", m, err)
	}
	if _, err := ParseCursorMode("blink"); err != ErrInvalidArgument {
		t.Error("blink", err)
	}
	if d, err := ParseDirection("right"); err != nil || d != Right {
		t.Error("right", d, err)
	}
	if w, err := ParseWritingDirection("rtl"); err != nil || w != RightToLeft {
		t.Error("rtl", w, err)
	}
	if _, err := ParseWritingDirection("up"); err != ErrInvalidArgument {
		t.Error("up", err)
	}
}
