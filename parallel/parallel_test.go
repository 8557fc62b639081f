package parallel

import (
	"bytes"
	"errors"
	"testing"

	"github.com/aluedtke7/chardisplay/display"
	"github.com/aluedtke7/chardisplay/hd44780"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

// bus reassembles the bytes sent over the pins, sampled at the falling edge
// of E.
type bus struct {
	levels   map[string]gpio.Level
	nibbles  []byte
	commands []byte
	data     []byte
	pending  int
	failOn   string
}

type recPin struct {
	*gpiotest.Pin
	bus *bus
}

func (p *recPin) Out(l gpio.Level) error {
	b := p.bus
	if b.failOn == p.N {
		return errors.New("gpio: write failed")
	}
	if p.N == "E" && b.levels["E"] == gpio.High && l == gpio.Low {
		b.sample()
	}
	b.levels[p.N] = l
	return p.Pin.Out(l)
}

func (b *bus) sample() {
	var n byte
	for i, name := range []string{"D4", "D5", "D6", "D7"} {
		if b.levels[name] {
			n |= 1 << uint(i)
		}
	}
	b.nibbles = append(b.nibbles, n)
	// the four initialization nibbles are single transfers
	if len(b.nibbles) <= 4 {
		return
	}
	b.pending++
	if b.pending < 2 {
		return
	}
	b.pending = 0
	v := b.nibbles[len(b.nibbles)-2]<<4 | n
	if b.levels["RS"] {
		b.data = append(b.data, v)
	} else {
		b.commands = append(b.commands, v)
	}
}

func newBus(backlight bool) (*bus, Pins) {
	b := &bus{levels: map[string]gpio.Level{}}
	pin := func(name string) gpio.PinOut {
		return &recPin{Pin: &gpiotest.Pin{N: name}, bus: b}
	}
	pins := Pins{RS: pin("RS"), E: pin("E"), D4: pin("D4"), D5: pin("D5"), D6: pin("D6"), D7: pin("D7")}
	if backlight {
		pins.Backlight = pin("BL")
	}
	return b, pins
}

func TestInitSequence(t *testing.T) {
	b, pins := newBus(false)
	if _, err := New(pins, 2); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(b.nibbles[:4], []byte{0x03, 0x03, 0x03, 0x02}) {
		t.Errorf("init nibbles = %x", b.nibbles[:4])
	}
	want := []byte{0x28, 0x08, 0x01, 0x06}
	if !bytes.Equal(b.commands, want) {
		t.Errorf("commands = %x, want %x", b.commands, want)
	}
}

func TestOneLineFunctionSet(t *testing.T) {
	b, pins := newBus(false)
	if _, err := New(pins, 1); err != nil {
		t.Fatal(err)
	}
	if b.commands[0] != 0x20 {
		t.Errorf("function set = %#x", b.commands[0])
	}
}

func TestWrite(t *testing.T) {
	b, pins := newBus(false)
	c, err := New(pins, 2)
	if err != nil {
		t.Fatal(err)
	}
	if n, err := c.Write([]byte("Hi!")); n != 3 || err != nil {
		t.Fatal(n, err)
	}
	if string(b.data) != "Hi!" {
		t.Errorf("data = %q", b.data)
	}
	if err = c.Command(hd44780.SetDDRAMAddr | 0x40); err != nil {
		t.Fatal(err)
	}
	if last := b.commands[len(b.commands)-1]; last != 0xc0 {
		t.Errorf("last command = %#x", last)
	}
}

func TestWriteError(t *testing.T) {
	b, pins := newBus(false)
	c, err := New(pins, 2)
	if err != nil {
		t.Fatal(err)
	}
	b.failOn = "RS"
	if n, err := c.Write([]byte("ab")); n != 0 || err == nil {
		t.Error(n, err)
	}
}

func TestBacklight(t *testing.T) {
	b, pins := newBus(true)
	c, _ := New(pins, 2)
	if err := c.BacklightOn(); err != nil || b.levels["BL"] != gpio.High {
		t.Error("backlight on", err)
	}
	if err := c.BacklightOff(); err != nil || b.levels["BL"] != gpio.Low {
		t.Error("backlight off", err)
	}

	_, pins = newBus(false)
	c, _ = New(pins, 2)
	if err := c.BacklightOn(); !errors.Is(err, display.ErrNotSupported) {
		t.Error("no backlight pin", err)
	}
}

func TestMissingPins(t *testing.T) {
	_, pins := newBus(false)
	pins.D7 = nil
	if _, err := New(pins, 2); err == nil {
		t.Error("expected error")
	}
}

func TestPinsByNameUnknown(t *testing.T) {
	if _, err := PinsByName(PinNames{RS: "NO_SUCH_PIN"}); err == nil {
		t.Error("expected error")
	}
}
