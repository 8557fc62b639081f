package hd44780

import (
	"fmt"
	"time"

	"github.com/aluedtke7/chardisplay/display"
	d2r2log "github.com/d2r2/go-logger"
)

var lg = d2r2log.NewPackageLogger("hd44780", d2r2log.InfoLevel)

// Controller transfers instructions and data to the controller. The Lcd type
// of github.com/d2r2/go-hd44780 satisfies it.
type Controller interface {
	Command(cmd byte) error
	Write(buf []byte) (int, error)
	BacklightOn() error
	BacklightOff() error
}

// time the controller needs for clear and home
var clearDelay = 2 * time.Millisecond

// Driver implements display.CharacterDisplay for HD44780 controllers. It keeps
// a copy of the controller registers, so the state can be replayed after the
// controller was re-initialized.
type Driver struct {
	ctrl      Controller
	cols      uint8
	rows      uint8
	entry     byte
	control   byte
	backlight bool
	addr      byte
	shift     int
}

var (
	_ display.CharacterDisplay = &Driver{}
	_ display.CellCounter      = &Driver{}
)

// New returns a driver for a display with the given geometry. The controller
// must be initialized (function set done), call Reset to get a defined state.
func New(ctrl Controller, cols, rows uint8) (*Driver, error) {
	if !ValidGeometry(cols, rows) {
		return nil, fmt.Errorf("hd44780: unsupported geometry %dx%d: %w", cols, rows, display.ErrInvalidArgument)
	}
	return &Driver{
		ctrl:    ctrl,
		cols:    cols,
		rows:    rows,
		entry:   EntryIncrement,
		control: DisplayOn,
	}, nil
}

func (d *Driver) command(name string, cmd byte) error {
	if err := d.ctrl.Command(cmd); err != nil {
		return fmt.Errorf("hd44780: %s: %w", name, err)
	}
	return nil
}

func (d *Driver) Size() (cols, rows uint8) {
	return d.cols, d.rows
}

func (d *Driver) Reset() error {
	d.entry = EntryIncrement
	d.control = DisplayOn
	if err := d.command("entry mode", EntryModeSet|d.entry); err != nil {
		return err
	}
	if err := d.command("display control", DisplayControl|d.control); err != nil {
		return err
	}
	return d.clear()
}

func (d *Driver) clear() error {
	if err := d.command("clear", ClearDisplay); err != nil {
		return err
	}
	time.Sleep(clearDelay)
	d.addr = 0
	d.shift = 0
	return nil
}

// Clear empties the display. The controller switches to increment mode on
// clear, so the entry mode is set again afterwards.
func (d *Driver) Clear() error {
	if err := d.clear(); err != nil {
		return err
	}
	if d.entry != EntryIncrement {
		return d.command("entry mode", EntryModeSet|d.entry)
	}
	return nil
}

// CursorReset sets the address counter to 0. Unlike the return home
// instruction this keeps a display shift.
func (d *Driver) CursorReset() error {
	if err := d.command("cursor reset", SetDDRAMAddr); err != nil {
		return err
	}
	d.addr = 0
	return nil
}

func (d *Driver) SetCursor(x, y uint8) error {
	if x >= d.cols || y >= d.rows {
		return fmt.Errorf("hd44780: cursor %d,%d on %dx%d display: %w", x, y, d.cols, d.rows, display.ErrOutOfRange)
	}
	addr := RowAddr(y, d.cols) + x
	if err := d.command("set cursor", SetDDRAMAddr|addr); err != nil {
		return err
	}
	d.addr = addr
	return nil
}

// Cells returns how many character codes WriteText writes for r.
func (d *Driver) Cells(r rune) int {
	return Cells(r)
}

func (d *Driver) WriteChar(c byte) error {
	_, err := d.WriteCodes([]byte{c})
	return err
}

func (d *Driver) WriteText(text string) error {
	_, err := d.WriteCodes(EncodeString(text))
	return err
}

// WriteCodes writes character codes without conversion and returns how many
// of them reached the controller.
func (d *Driver) WriteCodes(codes []byte) (int, error) {
	if len(codes) == 0 {
		return 0, nil
	}
	n, err := d.ctrl.Write(codes)
	for i := 0; i < n; i++ {
		d.advance()
	}
	if err != nil {
		return n, fmt.Errorf("hd44780: write: %w", err)
	}
	return n, nil
}

func (d *Driver) advance() {
	inc := d.entry&EntryIncrement != 0
	d.addr = NextAddr(d.addr, inc, MemoryLines(d.rows))
	if d.entry&EntryShift != 0 {
		if inc {
			d.addShift(1)
		} else {
			d.addShift(-1)
		}
	}
}

// addShift keeps the shift count in 0..line length, positive is to the left.
func (d *Driver) addShift(delta int) {
	n := DDRAMSize
	if MemoryLines(d.rows) == 2 {
		n = LineLength
	}
	d.shift = ((d.shift+delta)%n + n) % n
}

func (d *Driver) SetEnabled(enabled bool) error {
	return d.setControl(DisplayOn, enabled)
}

func (d *Driver) setControl(flag byte, on bool) error {
	control := d.control &^ flag
	if on {
		control |= flag
	}
	if err := d.command("display control", DisplayControl|control); err != nil {
		return err
	}
	d.control = control
	return nil
}

func (d *Driver) SetCursorMode(mode display.CursorMode) error {
	control := d.control &^ (CursorOn | BlinkOn)
	switch mode {
	case display.CursorOff:
	case display.CursorLine:
		control |= CursorOn
	case display.CursorBlock:
		control |= BlinkOn
	default:
		return fmt.Errorf("hd44780: cursor mode %d: %w", mode, display.ErrInvalidArgument)
	}
	if err := d.command("display control", DisplayControl|control); err != nil {
		return err
	}
	d.control = control
	return nil
}

func (d *Driver) SetBacklightEnabled(enabled bool) error {
	var err error
	if enabled {
		err = d.ctrl.BacklightOn()
	} else {
		err = d.ctrl.BacklightOff()
	}
	if err != nil {
		return fmt.Errorf("hd44780: backlight: %w", err)
	}
	d.backlight = enabled
	return nil
}

func (d *Driver) SetWritingDirection(dir display.WritingDirection) error {
	switch dir {
	case display.LeftToRight:
		return d.setEntry(EntryIncrement, true)
	case display.RightToLeft:
		return d.setEntry(EntryIncrement, false)
	}
	return fmt.Errorf("hd44780: writing direction %d: %w", dir, display.ErrInvalidArgument)
}

func (d *Driver) SetAutoScrollEnabled(enabled bool) error {
	return d.setEntry(EntryShift, enabled)
}

func (d *Driver) setEntry(flag byte, on bool) error {
	entry := d.entry &^ flag
	if on {
		entry |= flag
	}
	if err := d.command("entry mode", EntryModeSet|entry); err != nil {
		return err
	}
	d.entry = entry
	return nil
}

// Scroll shifts the whole display left or right. The controller can't scroll
// vertically.
func (d *Driver) Scroll(dir display.Direction) error {
	switch dir {
	case display.Left:
		if err := d.command("scroll", CursorShift|ShiftDisplay); err != nil {
			return err
		}
		d.addShift(1)
		return nil
	case display.Right:
		if err := d.command("scroll", CursorShift|ShiftDisplay|ShiftRight); err != nil {
			return err
		}
		d.addShift(-1)
		return nil
	case display.Up, display.Down:
		return fmt.Errorf("hd44780: scroll %s: %w", dir, display.ErrNotSupported)
	}
	return fmt.Errorf("hd44780: scroll direction %d: %w", dir, display.ErrInvalidArgument)
}

// Rebind switches to a new controller and replays the known state onto it:
// entry mode, display control, display shift, cursor position and backlight.
// The content of the display memory is not restored.
func (d *Driver) Rebind(ctrl Controller) error {
	d.ctrl = ctrl
	lg.Debugf("Rebind: entry=%#x control=%#x shift=%d addr=%#x", d.entry, d.control, d.shift, d.addr)
	if err := d.command("entry mode", EntryModeSet|d.entry); err != nil {
		return err
	}
	if err := d.command("display control", DisplayControl|d.control); err != nil {
		return err
	}
	if err := d.command("home", ReturnHome); err != nil {
		return err
	}
	time.Sleep(clearDelay)
	for i := 0; i < d.shift; i++ {
		if err := d.command("scroll", CursorShift|ShiftDisplay); err != nil {
			return err
		}
	}
	if err := d.command("set cursor", SetDDRAMAddr|d.addr); err != nil {
		return err
	}
	return d.SetBacklightEnabled(d.backlight)
}
