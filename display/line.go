package display

import (
	"strings"
)

// LineOptions controls how FitLine adapts a text to the width of a row.
type LineOptions uint8

const (
	// BlankPadding fills the rest of the row with spaces, so old content is
	// overwritten.
	BlankPadding LineOptions = 1 << iota
	// EllipsisIfNotFit replaces the end of a too long text with "...".
	EllipsisIfNotFit
)

const ellipsis = "..."

// CellCounter is implemented by displays on which a character can take more
// than one cell, e.g. because it is written as a transliteration.
type CellCounter interface {
	Cells(r rune) int
}

func oneCell(rune) int {
	return 1
}

// Cells returns the number of cells r takes on d.
func Cells(d CharacterDisplay, r rune) int {
	if c, ok := d.(CellCounter); ok {
		return c.Cells(r)
	}
	return 1
}

// TextCells returns the number of cells text takes on d.
func TextCells(d CharacterDisplay, text string) int {
	return textCells(text, func(r rune) int { return Cells(d, r) })
}

func textCells(text string, cells func(rune) int) int {
	n := 0
	for _, r := range text {
		n += cells(r)
	}
	return n
}

// FitLine cuts or pads text to exactly width characters (padding only if
// requested). Every rune counts as one cell.
func FitLine(text string, width int, opts LineOptions) string {
	return FitLineCells(text, width, opts, oneCell)
}

// FitLineCells is FitLine for characters taking cells(r) cells. A rune is
// never split, a cut text is filled up with spaces to the full width.
func FitLineCells(text string, width int, opts LineOptions, cells func(rune) int) string {
	if width <= 0 {
		return ""
	}
	n := textCells(text, cells)
	if n <= width {
		if opts&BlankPadding != 0 {
			return text + strings.Repeat(" ", width-n)
		}
		return text
	}
	limit, suffix := width, ""
	if opts&EllipsisIfNotFit != 0 && width > len(ellipsis) {
		limit, suffix = width-len(ellipsis), ellipsis
	}
	var b strings.Builder
	used := 0
	for _, r := range text {
		c := cells(r)
		if used+c > limit {
			break
		}
		b.WriteRune(r)
		used += c
	}
	b.WriteString(strings.Repeat(" ", limit-used))
	b.WriteString(suffix)
	return b.String()
}

// PrintLine writes text at the start of the given row. The text is fitted to
// the cells of the row as d counts them.
func PrintLine(d CharacterDisplay, row uint8, text string, opts LineOptions) error {
	cols, _ := d.Size()
	if err := d.SetCursor(0, row); err != nil {
		return err
	}
	fitted := FitLineCells(text, int(cols), opts, func(r rune) int { return Cells(d, r) })
	return d.WriteText(fitted)
}
