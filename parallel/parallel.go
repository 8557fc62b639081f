// Package parallel implements an hd44780.Controller for displays wired
// directly to GPIO pins in 4-bit mode (RS, E, D4..D7, R/W tied to ground).
package parallel

import (
	"errors"
	"fmt"
	"time"

	"github.com/aluedtke7/chardisplay/display"
	"github.com/aluedtke7/chardisplay/hd44780"
	d2r2log "github.com/d2r2/go-logger"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
)

var lg = d2r2log.NewPackageLogger("parallel", d2r2log.InfoLevel)

const (
	powerOnDelay = 50 * time.Millisecond
	pulseWidth   = time.Microsecond
	// longest execution time of an instruction except clear and home
	execDelay  = 50 * time.Microsecond
	clearDelay = 2 * time.Millisecond
)

// Pins used by the display. Backlight is optional.
type Pins struct {
	RS        gpio.PinOut
	E         gpio.PinOut
	D4        gpio.PinOut
	D5        gpio.PinOut
	D6        gpio.PinOut
	D7        gpio.PinOut
	Backlight gpio.PinOut
}

// PinNames are the GPIO names as known by gpioreg, e.g. "GPIO25".
type PinNames struct {
	RS, E, D4, D5, D6, D7, Backlight string
}

// PinsByName looks the pins up in the GPIO registry. host.Init must have been
// called before. An empty backlight name means no backlight pin.
func PinsByName(names PinNames) (Pins, error) {
	var pins Pins
	lookup := []struct {
		name string
		pin  *gpio.PinOut
	}{
		{names.RS, &pins.RS}, {names.E, &pins.E},
		{names.D4, &pins.D4}, {names.D5, &pins.D5}, {names.D6, &pins.D6}, {names.D7, &pins.D7},
		{names.Backlight, &pins.Backlight},
	}
	for _, l := range lookup {
		if l.name == "" {
			continue
		}
		p := gpioreg.ByName(l.name)
		if p == nil {
			return pins, fmt.Errorf("parallel: failed to find %s", l.name)
		}
		*l.pin = p
	}
	return pins, nil
}

// Controller talks to the display over GPIO pins.
type Controller struct {
	pins Pins
	data [4]gpio.PinOut
}

var _ hd44780.Controller = &Controller{}

// New initializes the display by instruction for 4-bit operation and sets the
// number of memory lines for the given rows.
func New(pins Pins, rows uint8) (*Controller, error) {
	if pins.RS == nil || pins.E == nil || pins.D4 == nil || pins.D5 == nil || pins.D6 == nil || pins.D7 == nil {
		return nil, errors.New("parallel: RS, E and D4..D7 are required")
	}
	c := &Controller{pins: pins, data: [4]gpio.PinOut{pins.D4, pins.D5, pins.D6, pins.D7}}
	lg.Debug("Initializing display in 4-bit mode")

	if err := c.pins.RS.Out(gpio.Low); err != nil {
		return nil, err
	}
	if err := c.pins.E.Out(gpio.Low); err != nil {
		return nil, err
	}
	time.Sleep(powerOnDelay)
	// the controller may be in 8-bit mode or in the middle of a 4-bit transfer
	for _, d := range []time.Duration{4100 * time.Microsecond, 100 * time.Microsecond, execDelay} {
		if err := c.write4(0x03); err != nil {
			return nil, err
		}
		time.Sleep(d)
	}
	if err := c.write4(0x02); err != nil {
		return nil, err
	}
	function := hd44780.FunctionSet
	if hd44780.MemoryLines(rows) == 2 {
		function |= hd44780.Lines2
	}
	for _, cmd := range []byte{function, hd44780.DisplayControl, hd44780.ClearDisplay, hd44780.EntryModeSet | hd44780.EntryIncrement} {
		if err := c.Command(cmd); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Controller) write4(nibble byte) error {
	for i, p := range c.data {
		if err := p.Out(gpio.Level(nibble&(1<<uint(i)) != 0)); err != nil {
			return err
		}
	}
	if err := c.pins.E.Out(gpio.High); err != nil {
		return err
	}
	time.Sleep(pulseWidth)
	if err := c.pins.E.Out(gpio.Low); err != nil {
		return err
	}
	time.Sleep(execDelay)
	return nil
}

func (c *Controller) send(b byte, rs gpio.Level) error {
	if err := c.pins.RS.Out(rs); err != nil {
		return err
	}
	if err := c.write4(b >> 4); err != nil {
		return err
	}
	return c.write4(b & 0x0f)
}

func (c *Controller) Command(cmd byte) error {
	if err := c.send(cmd, gpio.Low); err != nil {
		return err
	}
	if cmd == hd44780.ClearDisplay || cmd&^0x01 == hd44780.ReturnHome {
		time.Sleep(clearDelay)
	}
	return nil
}

func (c *Controller) Write(buf []byte) (int, error) {
	for i, b := range buf {
		if err := c.send(b, gpio.High); err != nil {
			return i, err
		}
	}
	return len(buf), nil
}

func (c *Controller) BacklightOn() error {
	return c.backlight(gpio.High)
}

func (c *Controller) BacklightOff() error {
	return c.backlight(gpio.Low)
}

func (c *Controller) backlight(l gpio.Level) error {
	if c.pins.Backlight == nil {
		return fmt.Errorf("parallel: no backlight pin: %w", display.ErrNotSupported)
	}
	return c.pins.Backlight.Out(l)
}
