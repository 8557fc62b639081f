// Package displaytest contains a conformance test for implementations of
// display.CharacterDisplay. Drivers call Run from their own tests with a
// factory for fresh displays.
package displaytest

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/aluedtke7/chardisplay/display"
)

// Inspector gives the test access to the state of a display.
type Inspector interface {
	Lines() []string
	Cursor() (x, y uint8, ok bool)
	CursorMode() display.CursorMode
	WritingDirection() display.WritingDirection
	AutoScroll() bool
	Enabled() bool
	Backlight() bool
}

// CodeInspector is implemented by inspectors which can return the raw
// character codes of a row. The conformance test then compares codes instead
// of the decoded text.
type CodeInspector interface {
	Codes(y uint8) []byte
}

// Target is a display under test together with its inspector.
type Target struct {
	Display   display.CharacterDisplay
	Inspector Inspector
}

// Run runs all conformance tests. newTarget is called for every sub test and
// must return a display which is not reset yet.
func Run(t *testing.T, newTarget func(t *testing.T) Target) {
	tests := []struct {
		name string
		fn   func(t *testing.T, newTarget func(t *testing.T) Target)
	}{
		{"Reset", testReset},
		{"ResetKeepsBacklight", testResetKeepsBacklight},
		{"Clear", testClear},
		{"CursorReset", testCursorReset},
		{"SetCursor", testSetCursor},
		{"SetCursorOutOfRange", testSetCursorOutOfRange},
		{"WriteTextEqualsWriteChar", testWriteTextEqualsWriteChar},
		{"WriteCharNoLineBreak", testWriteCharNoLineBreak},
		{"Enabled", testEnabled},
		{"CursorMode", testCursorMode},
		{"Backlight", testBacklight},
		{"WritingDirection", testWritingDirection},
		{"AutoScroll", testAutoScroll},
		{"Scroll", testScroll},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, newTarget)
		})
	}
}

func must(t *testing.T, what string, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: %v", what, err)
	}
}

// optional accepts ErrNotSupported, returns true if the operation was done.
func optional(t *testing.T, what string, err error) bool {
	t.Helper()
	if err == nil {
		return true
	}
	if !errors.Is(err, display.ErrNotSupported) {
		t.Fatalf("%s: %v", what, err)
	}
	return false
}

func reset(t *testing.T, newTarget func(t *testing.T) Target) Target {
	t.Helper()
	tg := newTarget(t)
	must(t, "Reset", tg.Display.Reset())
	return tg
}

func blank(d display.CharacterDisplay) string {
	cols, _ := d.Size()
	return strings.Repeat(" ", int(cols))
}

func expectBlank(t *testing.T, tg Target) {
	t.Helper()
	b := blank(tg.Display)
	for y, l := range tg.Inspector.Lines() {
		if l != b {
			t.Errorf("row %d = %q, want blank", y, l)
		}
	}
}

func expectCursor(t *testing.T, tg Target, x, y uint8) {
	t.Helper()
	cx, cy, ok := tg.Inspector.Cursor()
	if !ok || cx != x || cy != y {
		t.Errorf("cursor = %d,%d (visible %t), want %d,%d", cx, cy, ok, x, y)
	}
}

func testReset(t *testing.T, newTarget func(t *testing.T) Target) {
	tg := reset(t, newTarget)
	d := tg.Display
	must(t, "WriteText", d.WriteText("dirty"))
	optional(t, "SetCursorMode", d.SetCursorMode(display.CursorBlock))
	optional(t, "SetAutoScrollEnabled", d.SetAutoScrollEnabled(true))
	optional(t, "Scroll", d.Scroll(display.Left))
	optional(t, "SetWritingDirection", d.SetWritingDirection(display.RightToLeft))
	optional(t, "SetEnabled", d.SetEnabled(false))

	must(t, "Reset", d.Reset())
	expectBlank(t, tg)
	expectCursor(t, tg, 0, 0)
	in := tg.Inspector
	if m := in.CursorMode(); m != display.CursorOff {
		t.Errorf("cursor mode = %s, want off", m)
	}
	if w := in.WritingDirection(); w != display.LeftToRight {
		t.Errorf("writing direction = %s, want ltr", w)
	}
	if in.AutoScroll() {
		t.Error("auto scroll still enabled")
	}
	if !in.Enabled() {
		t.Error("display not enabled")
	}

	// not shifted: the first character shows up in the first cell
	must(t, "WriteChar", d.WriteChar('A'))
	if l := in.Lines()[0]; l[0] != 'A' {
		t.Errorf("row 0 = %q, want 'A' in first cell", l)
	}
}

func testResetKeepsBacklight(t *testing.T, newTarget func(t *testing.T) Target) {
	tg := newTarget(t)
	for _, on := range []bool{true, false} {
		if !optional(t, "SetBacklightEnabled", tg.Display.SetBacklightEnabled(on)) {
			t.Skip("backlight not supported")
		}
		must(t, "Reset", tg.Display.Reset())
		if tg.Inspector.Backlight() != on {
			t.Errorf("backlight changed by reset, want %t", on)
		}
	}
}

func testClear(t *testing.T, newTarget func(t *testing.T) Target) {
	tg := reset(t, newTarget)
	d := tg.Display
	_, rows := d.Size()
	must(t, "SetCursor", d.SetCursor(1, rows-1))
	must(t, "WriteText", d.WriteText("text"))
	rtl := optional(t, "SetWritingDirection", d.SetWritingDirection(display.RightToLeft))
	must(t, "Clear", d.Clear())
	expectBlank(t, tg)
	expectCursor(t, tg, 0, 0)
	if rtl && tg.Inspector.WritingDirection() != display.RightToLeft {
		t.Error("writing direction lost by clear")
	}
}

func testCursorReset(t *testing.T, newTarget func(t *testing.T) Target) {
	tg := reset(t, newTarget)
	must(t, "WriteText", tg.Display.WriteText("ab"))
	must(t, "CursorReset", tg.Display.CursorReset())
	expectCursor(t, tg, 0, 0)
	if l := tg.Inspector.Lines()[0]; !strings.HasPrefix(l, "ab") {
		t.Errorf("row 0 = %q, content lost", l)
	}
}

func testSetCursor(t *testing.T, newTarget func(t *testing.T) Target) {
	tg := reset(t, newTarget)
	cols, rows := tg.Display.Size()
	for y := uint8(0); y < rows; y++ {
		for _, x := range []uint8{0, cols / 2, cols - 1} {
			must(t, "SetCursor", tg.Display.SetCursor(x, y))
			expectCursor(t, tg, x, y)
			must(t, "SetCursor", tg.Display.SetCursor(x, y))
			expectCursor(t, tg, x, y)
		}
	}
}

func testSetCursorOutOfRange(t *testing.T, newTarget func(t *testing.T) Target) {
	tg := reset(t, newTarget)
	cols, rows := tg.Display.Size()
	must(t, "SetCursor", tg.Display.SetCursor(1, 0))
	for _, p := range [][2]uint8{{cols, 0}, {0, rows}, {255, 255}} {
		err := tg.Display.SetCursor(p[0], p[1])
		if !errors.Is(err, display.ErrOutOfRange) {
			t.Errorf("SetCursor(%d, %d) = %v, want ErrOutOfRange", p[0], p[1], err)
		}
		expectCursor(t, tg, 1, 0)
	}
}

func rowCodes(tg Target) [][]byte {
	ci, ok := tg.Inspector.(CodeInspector)
	if !ok {
		return nil
	}
	_, rows := tg.Display.Size()
	codes := make([][]byte, rows)
	for y := uint8(0); y < rows; y++ {
		codes[y] = ci.Codes(y)
	}
	return codes
}

func testWriteTextEqualsWriteChar(t *testing.T, newTarget func(t *testing.T) Target) {
	// control characters and '~' are written as they are
	for _, text := range []string{"Hello, 42!", "a\nb~\x01", "\t\x00\x07\\"} {
		a := reset(t, newTarget)
		b := reset(t, newTarget)
		must(t, "WriteText", a.Display.WriteText(text))
		for i := 0; i < len(text); i++ {
			must(t, "WriteChar", b.Display.WriteChar(text[i]))
		}
		la, lb := a.Inspector.Lines(), b.Inspector.Lines()
		if strings.Join(la, "\n") != strings.Join(lb, "\n") {
			t.Errorf("%q: WriteText shows %q, WriteChar shows %q", text, la, lb)
		}
		if ca, cb := rowCodes(a), rowCodes(b); fmt.Sprint(ca) != fmt.Sprint(cb) {
			t.Errorf("%q: WriteText wrote %x, WriteChar wrote %x", text, ca, cb)
		}
		ax, ay, _ := a.Inspector.Cursor()
		expectCursor(t, b, ax, ay)
	}
}

func testWriteCharNoLineBreak(t *testing.T, newTarget func(t *testing.T) Target) {
	tg := reset(t, newTarget)
	must(t, "WriteChar", tg.Display.WriteChar('\n'))
	expectCursor(t, tg, 1, 0)
}

func testEnabled(t *testing.T, newTarget func(t *testing.T) Target) {
	tg := reset(t, newTarget)
	for _, on := range []bool{false, true} {
		if optional(t, "SetEnabled", tg.Display.SetEnabled(on)) && tg.Inspector.Enabled() != on {
			t.Errorf("enabled = %t, want %t", !on, on)
		}
	}
}

func testCursorMode(t *testing.T, newTarget func(t *testing.T) Target) {
	tg := reset(t, newTarget)
	for _, m := range []display.CursorMode{display.CursorLine, display.CursorBlock, display.CursorOff} {
		if optional(t, "SetCursorMode", tg.Display.SetCursorMode(m)) && tg.Inspector.CursorMode() != m {
			t.Errorf("cursor mode = %s, want %s", tg.Inspector.CursorMode(), m)
		}
	}
}

func testBacklight(t *testing.T, newTarget func(t *testing.T) Target) {
	tg := reset(t, newTarget)
	for _, on := range []bool{true, false, true} {
		if optional(t, "SetBacklightEnabled", tg.Display.SetBacklightEnabled(on)) && tg.Inspector.Backlight() != on {
			t.Errorf("backlight = %t, want %t", !on, on)
		}
	}
}

func testWritingDirection(t *testing.T, newTarget func(t *testing.T) Target) {
	tg := reset(t, newTarget)
	d := tg.Display
	if !optional(t, "SetWritingDirection", d.SetWritingDirection(display.RightToLeft)) {
		return
	}
	if tg.Inspector.WritingDirection() != display.RightToLeft {
		t.Fatal("writing direction not changed")
	}
	must(t, "SetCursor", d.SetCursor(5, 0))
	must(t, "WriteText", d.WriteText("ab"))
	expectCursor(t, tg, 3, 0)
	if l := tg.Inspector.Lines()[0]; l[4:6] != "ba" {
		t.Errorf("row 0 = %q, want \"ba\" in cells 4 and 5", l)
	}
	must(t, "SetWritingDirection", d.SetWritingDirection(display.LeftToRight))
	if tg.Inspector.WritingDirection() != display.LeftToRight {
		t.Error("writing direction not changed back")
	}
}

func testAutoScroll(t *testing.T, newTarget func(t *testing.T) Target) {
	tg := reset(t, newTarget)
	d := tg.Display
	if !optional(t, "SetAutoScrollEnabled", d.SetAutoScrollEnabled(true)) {
		return
	}
	if !tg.Inspector.AutoScroll() {
		t.Fatal("auto scroll not enabled")
	}
	must(t, "WriteText", d.WriteText("AB"))
	// the content moves, the cursor stays
	expectCursor(t, tg, 0, 0)
	must(t, "SetAutoScrollEnabled", d.SetAutoScrollEnabled(false))
	if tg.Inspector.AutoScroll() {
		t.Error("auto scroll not disabled")
	}
}

func testScroll(t *testing.T, newTarget func(t *testing.T) Target) {
	for _, dir := range []display.Direction{display.Left, display.Right, display.Up, display.Down} {
		tg := reset(t, newTarget)
		must(t, "WriteText", tg.Display.WriteText("AB"))
		before := tg.Inspector.Lines()
		if !optional(t, "Scroll "+dir.String(), tg.Display.Scroll(dir)) {
			continue
		}
		after := tg.Inspector.Lines()
		switch dir {
		case display.Left:
			if after[0][0] != 'B' {
				t.Errorf("scroll left: row 0 = %q", after[0])
			}
		case display.Right:
			if after[0][1] != 'A' {
				t.Errorf("scroll right: row 0 = %q", after[0])
			}
		default:
			if strings.Join(before, "\n") == strings.Join(after, "\n") {
				t.Errorf("scroll %s succeeded without effect", dir)
			}
		}
	}
}
