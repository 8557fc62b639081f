// Package sim emulates an HD44780 controller in memory. It is used to run the
// drivers without hardware and to look at what they did.
package sim

import (
	"fmt"
	"strings"
	"sync"

	"github.com/aluedtke7/chardisplay/display"
	"github.com/aluedtke7/chardisplay/hd44780"
)

// Controller is an in-memory HD44780 which satisfies hd44780.Controller.
type Controller struct {
	mu        sync.Mutex
	cols      uint8
	rows      uint8
	lines     int
	ddram     [hd44780.DDRAMSize]byte
	ac        byte
	entry     byte
	control   byte
	function  byte
	shift     int
	backlight bool
	fail      error
	commands  []byte
}

var _ hd44780.Controller = &Controller{}

// New returns a controller in the state after the initialization by
// instruction: display memory blank, display off, increment mode.
func New(cols, rows uint8) *Controller {
	c := &Controller{cols: cols, rows: rows, lines: hd44780.MemoryLines(rows), entry: hd44780.EntryIncrement}
	if c.lines == 2 {
		c.function = hd44780.Lines2
	}
	c.blank()
	return c
}

// NewDisplay returns a driver connected to a new simulated controller.
func NewDisplay(cols, rows uint8) (*hd44780.Driver, *Controller, error) {
	c := New(cols, rows)
	d, err := hd44780.New(c, cols, rows)
	if err != nil {
		return nil, nil, err
	}
	return d, c, nil
}

func (c *Controller) blank() {
	for i := range c.ddram {
		c.ddram[i] = ' '
	}
}

// FailNext makes the next call of Command, Write, BacklightOn or BacklightOff
// return err without doing anything, like a bus without acknowledge.
func (c *Controller) FailNext(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fail = err
}

func (c *Controller) takeFailure() error {
	err := c.fail
	c.fail = nil
	return err
}

func (c *Controller) index(addr byte) int {
	if c.lines == 2 && addr >= hd44780.Line2Addr {
		return hd44780.LineLength + int(addr-hd44780.Line2Addr)
	}
	return int(addr)
}

func (c *Controller) lineLength() int {
	if c.lines == 2 {
		return hd44780.LineLength
	}
	return hd44780.DDRAMSize
}

func (c *Controller) moveShift(delta int) {
	n := c.lineLength()
	c.shift = ((c.shift+delta)%n + n) % n
}

func (c *Controller) Command(cmd byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.takeFailure(); err != nil {
		return err
	}
	c.commands = append(c.commands, cmd)
	switch {
	case cmd&hd44780.SetDDRAMAddr != 0:
		addr := cmd &^ hd44780.SetDDRAMAddr
		if !hd44780.ValidAddr(addr, c.lines) {
			return fmt.Errorf("sim: invalid DDRAM address %#x: %w", addr, display.ErrOutOfRange)
		}
		c.ac = addr
	case cmd&hd44780.SetCGRAMAddr != 0:
		return fmt.Errorf("sim: CGRAM access: %w", display.ErrNotSupported)
	case cmd&hd44780.FunctionSet != 0:
		c.function = cmd & (hd44780.Mode8Bit | hd44780.Lines2 | hd44780.Font5x10)
	case cmd&hd44780.CursorShift != 0:
		right := cmd&hd44780.ShiftRight != 0
		if cmd&hd44780.ShiftDisplay != 0 {
			if right {
				c.moveShift(-1)
			} else {
				c.moveShift(1)
			}
		} else {
			c.ac = hd44780.NextAddr(c.ac, right, c.lines)
		}
	case cmd&hd44780.DisplayControl != 0:
		c.control = cmd & (hd44780.DisplayOn | hd44780.CursorOn | hd44780.BlinkOn)
	case cmd&hd44780.EntryModeSet != 0:
		c.entry = cmd & (hd44780.EntryIncrement | hd44780.EntryShift)
	case cmd&hd44780.ReturnHome != 0:
		c.ac = 0
		c.shift = 0
	case cmd == hd44780.ClearDisplay:
		c.blank()
		c.ac = 0
		c.shift = 0
		c.entry |= hd44780.EntryIncrement
	default:
		return fmt.Errorf("sim: invalid instruction %#x: %w", cmd, display.ErrInvalidArgument)
	}
	return nil
}

func (c *Controller) Write(buf []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.takeFailure(); err != nil {
		return 0, err
	}
	inc := c.entry&hd44780.EntryIncrement != 0
	for _, b := range buf {
		c.ddram[c.index(c.ac)] = b
		c.ac = hd44780.NextAddr(c.ac, inc, c.lines)
		if c.entry&hd44780.EntryShift != 0 {
			if inc {
				c.moveShift(1)
			} else {
				c.moveShift(-1)
			}
		}
	}
	return len(buf), nil
}

func (c *Controller) BacklightOn() error {
	return c.setBacklight(true)
}

func (c *Controller) BacklightOff() error {
	return c.setBacklight(false)
}

func (c *Controller) setBacklight(on bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.takeFailure(); err != nil {
		return err
	}
	c.backlight = on
	return nil
}

// cellAddr returns the DDRAM address shown at column x of row y.
func (c *Controller) cellAddr(x, y uint8) byte {
	base := hd44780.RowAddr(y, c.cols)
	if c.lines == 1 {
		return byte((int(base) + int(x) + c.shift) % hd44780.DDRAMSize)
	}
	line := byte(0)
	if base >= hd44780.Line2Addr {
		line = hd44780.Line2Addr
		base -= hd44780.Line2Addr
	}
	return line + byte((int(base)+int(x)+c.shift)%hd44780.LineLength)
}

// Codes returns the character codes visible in a row.
func (c *Controller) Codes(y uint8) []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.codes(y)
}

func (c *Controller) codes(y uint8) []byte {
	buf := make([]byte, c.cols)
	for x := uint8(0); x < c.cols; x++ {
		buf[x] = c.ddram[c.index(c.cellAddr(x, y))]
	}
	return buf
}

// Lines returns the visible text of all rows.
func (c *Controller) Lines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	lines := make([]string, c.rows)
	for y := uint8(0); y < c.rows; y++ {
		lines[y] = hd44780.DecodeString(c.codes(y))
	}
	return lines
}

// Cursor returns the visible position of the address counter. ok is false if
// the cursor is in a part of the memory that is not shown.
func (c *Controller) Cursor() (x, y uint8, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for y = 0; y < c.rows; y++ {
		for x = 0; x < c.cols; x++ {
			if c.cellAddr(x, y) == c.ac {
				return x, y, true
			}
		}
	}
	return 0, 0, false
}

// Address returns the address counter.
func (c *Controller) Address() byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ac
}

func (c *Controller) CursorMode() display.CursorMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.control&hd44780.BlinkOn != 0:
		return display.CursorBlock
	case c.control&hd44780.CursorOn != 0:
		return display.CursorLine
	}
	return display.CursorOff
}

func (c *Controller) WritingDirection() display.WritingDirection {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entry&hd44780.EntryIncrement != 0 {
		return display.LeftToRight
	}
	return display.RightToLeft
}

func (c *Controller) AutoScroll() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entry&hd44780.EntryShift != 0
}

func (c *Controller) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.control&hd44780.DisplayOn != 0
}

func (c *Controller) Backlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.backlight
}

// Shift returns the display shift, positive values are shifts to the left.
func (c *Controller) Shift() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.shift
}

// Commands returns all instructions received so far.
func (c *Controller) Commands() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]byte(nil), c.commands...)
}

// String renders the visible part of the display in a box. A disabled display
// shows empty rows.
func (c *Controller) String() string {
	lines := c.Lines()
	enabled := c.Enabled()
	border := "+" + strings.Repeat("-", int(c.cols)) + "+\n"
	var b strings.Builder
	b.WriteString(border)
	for _, l := range lines {
		if !enabled {
			l = strings.Repeat(" ", int(c.cols))
		}
		b.WriteString("|" + l + "|\n")
	}
	b.WriteString(border)
	return b.String()
}
