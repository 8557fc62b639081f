package display

import (
	"errors"
)

// Errors returned by CharacterDisplay implementations. Transport errors are
// wrapped by the drivers, use errors.Is to test for these.
var (
	ErrNotSupported    = errors.New("operation not supported by display")
	ErrOutOfRange      = errors.New("position out of range")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrClosed          = errors.New("display closed")
)

// CursorMode is the visual style of the cursor.
type CursorMode uint8

const (
	CursorOff   CursorMode = iota // no cursor
	CursorLine                    // underline
	CursorBlock                   // blinking block
)

func (m CursorMode) String() string {
	switch m {
	case CursorOff:
		return "off"
	case CursorLine:
		return "line"
	case CursorBlock:
		return "block"
	}
	return "unknown"
}

// Direction is used for scrolling the display content.
type Direction uint8

const (
	Up Direction = iota
	Down
	Left
	Right
)

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	}
	return "unknown"
}

// WritingDirection selects how the cursor advances after a character is written.
type WritingDirection uint8

const (
	LeftToRight WritingDirection = iota
	RightToLeft
)

func (w WritingDirection) String() string {
	switch w {
	case LeftToRight:
		return "ltr"
	case RightToLeft:
		return "rtl"
	}
	return "unknown"
}

// CharacterDisplay is the interface for LCD character displays with a fixed
// number of columns and rows. There is a cursor which can be placed anywhere on
// the display, text is written starting at the cursor position.
//
// Every method returns nil on success. The optional methods return an error
// wrapping ErrNotSupported if the display can't do what was asked.
type CharacterDisplay interface {
	// Size returns the number of columns and rows.
	Size() (cols, rows uint8)

	// Reset brings the display into its initial state: screen empty, cursor at
	// 0,0, display not shifted, cursor off, writing left to right, auto scroll
	// off. The backlight is not touched.
	Reset() error
	// Clear empties the screen and moves the cursor to 0,0.
	Clear() error
	// CursorReset moves the cursor to 0,0 without touching the content. Like
	// SetCursor it addresses the display memory: after Scroll or auto scroll
	// the position is shifted on the screen together with the content.
	CursorReset() error
	// SetCursor moves the cursor. Returns ErrOutOfRange if x or y is outside of
	// the display, the cursor stays where it was in that case. x and y are
	// memory positions, they match the visible cells only while the display
	// is not shifted.
	SetCursor(x, y uint8) error
	// WriteChar writes one character code at the cursor position. Line breaks
	// are not interpreted, use SetCursor to change lines.
	WriteChar(c byte) error
	// WriteText writes the text as if WriteChar was called for every character.
	WriteText(text string) error

	SetEnabled(enabled bool) error
	SetCursorMode(mode CursorMode) error
	SetBacklightEnabled(enabled bool) error
	SetWritingDirection(dir WritingDirection) error
	SetAutoScrollEnabled(enabled bool) error
	// Scroll shifts the visible content one step. Not all directions may be
	// supported.
	Scroll(dir Direction) error
}

// ParseCursorMode is the inverse of CursorMode.String.
func ParseCursorMode(s string) (CursorMode, error) {
	for _, m := range []CursorMode{CursorOff, CursorLine, CursorBlock} {
		if m.String() == s {
			return m, nil
		}
	}
	return CursorOff, ErrInvalidArgument
}

// ParseDirection is the inverse of Direction.String.
func ParseDirection(s string) (Direction, error) {
	for _, d := range []Direction{Up, Down, Left, Right} {
		if d.String() == s {
			return d, nil
		}
	}
	return Up, ErrInvalidArgument
}

// ParseWritingDirection is the inverse of WritingDirection.String.
func ParseWritingDirection(s string) (WritingDirection, error) {
	switch s {
	case "ltr":
		return LeftToRight, nil
	case "rtl":
		return RightToLeft, nil
	}
	return LeftToRight, ErrInvalidArgument
}
