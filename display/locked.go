package display

import (
	"sync"
)

// Sequencer runs several calls on a display without calls of other goroutines
// in between.
type Sequencer interface {
	Do(fn func(d CharacterDisplay) error) error
}

// Locked makes a display safe for concurrent use.
type Locked struct {
	mu sync.Mutex
	d  CharacterDisplay
}

var (
	_ CharacterDisplay = &Locked{}
	_ Sequencer        = &Locked{}
	_ CellCounter      = &Locked{}
)

func NewLocked(d CharacterDisplay) *Locked {
	return &Locked{d: d}
}

func (l *Locked) Do(fn func(d CharacterDisplay) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return fn(l.d)
}

func (l *Locked) Size() (cols, rows uint8) {
	return l.d.Size()
}

func (l *Locked) Cells(r rune) int {
	return Cells(l.d, r)
}

func (l *Locked) Reset() error {
	return l.Do(CharacterDisplay.Reset)
}

func (l *Locked) Clear() error {
	return l.Do(CharacterDisplay.Clear)
}

func (l *Locked) CursorReset() error {
	return l.Do(CharacterDisplay.CursorReset)
}

func (l *Locked) SetCursor(x, y uint8) error {
	return l.Do(func(d CharacterDisplay) error { return d.SetCursor(x, y) })
}

func (l *Locked) WriteChar(c byte) error {
	return l.Do(func(d CharacterDisplay) error { return d.WriteChar(c) })
}

func (l *Locked) WriteText(text string) error {
	return l.Do(func(d CharacterDisplay) error { return d.WriteText(text) })
}

func (l *Locked) SetEnabled(enabled bool) error {
	return l.Do(func(d CharacterDisplay) error { return d.SetEnabled(enabled) })
}

func (l *Locked) SetCursorMode(mode CursorMode) error {
	return l.Do(func(d CharacterDisplay) error { return d.SetCursorMode(mode) })
}

func (l *Locked) SetBacklightEnabled(enabled bool) error {
	return l.Do(func(d CharacterDisplay) error { return d.SetBacklightEnabled(enabled) })
}

func (l *Locked) SetWritingDirection(dir WritingDirection) error {
	return l.Do(func(d CharacterDisplay) error { return d.SetWritingDirection(dir) })
}

func (l *Locked) SetAutoScrollEnabled(enabled bool) error {
	return l.Do(func(d CharacterDisplay) error { return d.SetAutoScrollEnabled(enabled) })
}

func (l *Locked) Scroll(dir Direction) error {
	return l.Do(func(d CharacterDisplay) error { return d.Scroll(dir) })
}
