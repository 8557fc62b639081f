// Package telemetry counts the operations of a character display and reports
// them to InfluxDB.
package telemetry

import (
	"errors"
	"sort"
	"sync"

	"github.com/aluedtke7/chardisplay/display"
)

// Counters of one operation.
type Counters struct {
	Calls        int64
	Errors       int64
	NotSupported int64
}

// Snapshot is a copy of all counters of a display.
type Snapshot struct {
	Name string
	Ops  map[string]Counters
	// only set if the display reconnects, see lcd.LCD
	Reconnects int64
}

// Totals sums up the counters of all operations.
func (s Snapshot) Totals() Counters {
	var t Counters
	for _, c := range s.Ops {
		t.Calls += c.Calls
		t.Errors += c.Errors
		t.NotSupported += c.NotSupported
	}
	return t
}

// OpNames returns the names of the recorded operations, sorted.
func (s Snapshot) OpNames() []string {
	names := make([]string, 0, len(s.Ops))
	for n := range s.Ops {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

type reconnector interface {
	Reconnects() int
}

// Display wraps a display.CharacterDisplay and counts every call.
type Display struct {
	d    display.CharacterDisplay
	name string
	mu   sync.Mutex
	ops  map[string]*Counters
}

var _ display.CharacterDisplay = &Display{}

// Instrument returns d with counters. name identifies the display in the
// reported data.
func Instrument(d display.CharacterDisplay, name string) *Display {
	return &Display{d: d, name: name, ops: make(map[string]*Counters)}
}

func (t *Display) record(op string, err error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	c := t.ops[op]
	if c == nil {
		c = &Counters{}
		t.ops[op] = c
	}
	c.Calls++
	switch {
	case err == nil:
	case errors.Is(err, display.ErrNotSupported):
		c.NotSupported++
	default:
		c.Errors++
	}
	return err
}

func (t *Display) Snapshot() Snapshot {
	t.mu.Lock()
	s := Snapshot{Name: t.name, Ops: make(map[string]Counters, len(t.ops))}
	for n, c := range t.ops {
		s.Ops[n] = *c
	}
	t.mu.Unlock()
	if r, ok := t.d.(reconnector); ok {
		s.Reconnects = int64(r.Reconnects())
	}
	return s
}

// Unwrap returns the instrumented display.
func (t *Display) Unwrap() display.CharacterDisplay {
	return t.d
}

func (t *Display) Size() (cols, rows uint8) {
	return t.d.Size()
}

// Cells is not counted, it doesn't reach the display.
func (t *Display) Cells(r rune) int {
	return display.Cells(t.d, r)
}

func (t *Display) Reset() error {
	return t.record("reset", t.d.Reset())
}

func (t *Display) Clear() error {
	return t.record("clear", t.d.Clear())
}

func (t *Display) CursorReset() error {
	return t.record("cursor_reset", t.d.CursorReset())
}

func (t *Display) SetCursor(x, y uint8) error {
	return t.record("set_cursor", t.d.SetCursor(x, y))
}

func (t *Display) WriteChar(c byte) error {
	return t.record("write_char", t.d.WriteChar(c))
}

func (t *Display) WriteText(text string) error {
	return t.record("write_text", t.d.WriteText(text))
}

func (t *Display) SetEnabled(enabled bool) error {
	return t.record("set_enabled", t.d.SetEnabled(enabled))
}

func (t *Display) SetCursorMode(mode display.CursorMode) error {
	return t.record("set_cursor_mode", t.d.SetCursorMode(mode))
}

func (t *Display) SetBacklightEnabled(enabled bool) error {
	return t.record("set_backlight", t.d.SetBacklightEnabled(enabled))
}

func (t *Display) SetWritingDirection(dir display.WritingDirection) error {
	return t.record("set_writing_direction", t.d.SetWritingDirection(dir))
}

func (t *Display) SetAutoScrollEnabled(enabled bool) error {
	return t.record("set_auto_scroll", t.d.SetAutoScrollEnabled(enabled))
}

func (t *Display) Scroll(dir display.Direction) error {
	return t.record("scroll", t.d.Scroll(dir))
}
