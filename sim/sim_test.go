package sim

import (
	"errors"
	"testing"

	"github.com/aluedtke7/chardisplay/display"
	"github.com/aluedtke7/chardisplay/hd44780"
)

func TestInitialState(t *testing.T) {
	c := New(16, 2)
	if c.Enabled() || c.Backlight() || c.AutoScroll() {
		t.Error("display should start disabled without backlight")
	}
	if c.WritingDirection() != display.LeftToRight {
		t.Error("writing direction", c.WritingDirection())
	}
	if c.function != hd44780.Lines2 {
		t.Errorf("function = %#x", c.function)
	}
}

func TestInvalidInstructions(t *testing.T) {
	c := New(16, 2)
	if err := c.Command(hd44780.SetDDRAMAddr | 0x30); !errors.Is(err, display.ErrOutOfRange) {
		t.Error("DDRAM 0x30", err)
	}
	if err := c.Command(hd44780.SetCGRAMAddr); !errors.Is(err, display.ErrNotSupported) {
		t.Error("CGRAM", err)
	}
	if err := c.Command(0); !errors.Is(err, display.ErrInvalidArgument) {
		t.Error("0x00", err)
	}
}

func TestCursorShift(t *testing.T) {
	c := New(16, 2)
	_ = c.Command(hd44780.CursorShift | hd44780.ShiftRight)
	_ = c.Command(hd44780.CursorShift | hd44780.ShiftRight)
	_ = c.Command(hd44780.CursorShift)
	if c.Address() != 1 {
		t.Error("address", c.Address())
	}
}

func TestCursorNotVisible(t *testing.T) {
	c := New(16, 2)
	_ = c.Command(hd44780.SetDDRAMAddr | 0x20)
	if _, _, ok := c.Cursor(); ok {
		t.Error("cursor at 0x20 should not be visible on a 16x2 display")
	}
}

func TestOneLineMemory(t *testing.T) {
	c := New(8, 1)
	_ = c.Command(hd44780.SetDDRAMAddr | 0x4f)
	_, _ = c.Write([]byte("xy"))
	if c.Address() != 1 {
		t.Error("address", c.Address())
	}
	if l := c.Lines()[0]; l != "y       " {
		t.Errorf("%q", l)
	}
}

func TestFailNext(t *testing.T) {
	c := New(16, 2)
	boom := errors.New("boom")
	c.FailNext(boom)
	if n, err := c.Write([]byte("a")); n != 0 || err != boom {
		t.Error(n, err)
	}
	if _, err := c.Write([]byte("a")); err != nil {
		t.Error("failure should be consumed", err)
	}
}

func TestString(t *testing.T) {
	c := New(4, 2)
	_ = c.Command(hd44780.DisplayControl | hd44780.DisplayOn)
	_, _ = c.Write([]byte("ab"))
	want := "+----+\n|ab  |\n|    |\n+----+\n"
	if s := c.String(); s != want {
		t.Errorf("got\n%s\nwant\n%s", s, want)
	}
	_ = c.Command(hd44780.DisplayControl)
	want = "+----+\n|    |\n|    |\n+----+\n"
	if s := c.String(); s != want {
		t.Errorf("disabled display shows\n%s", s)
	}
}
