// Package lcd drives HD44780 displays connected through a PCF8574 I²C
// backpack. All operations are executed one after the other by a command
// handler goroutine, so a display can be shared between goroutines. When the
// bus fails, the device is opened again and the operation is retried.
package lcd

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aluedtke7/chardisplay/display"
	"github.com/aluedtke7/chardisplay/hd44780"
	device "github.com/d2r2/go-hd44780"
	"github.com/d2r2/go-i2c"
	d2r2log "github.com/d2r2/go-logger"
)

var lg = d2r2log.NewPackageLogger("lcd", d2r2log.InfoLevel)

// Opts configures the display.
type Opts struct {
	// I²C address of the backpack
	Addr uint8
	// I²C bus number, 1 on a Raspberry Pi
	Bus  int
	Cols uint8
	Rows uint8
	// time to wait after the device was created
	InitDelay time.Duration
	// how often a failed operation is retried after reconnecting
	Retries int
	// switch the backlight on in New. The backpack sends the backlight bit
	// with every byte, so the state can't be kept from an earlier session.
	Backlight bool
}

var DefaultOpts = Opts{
	Addr:      0x27,
	Bus:       1,
	Cols:      20,
	Rows:      4,
	InitDelay: 3 * time.Second,
	Retries:   1,
	Backlight: true,
}

// settle time of the bus after opening
var busDelay = 3 * time.Second

type opener func() (hd44780.Controller, io.Closer, error)

// LCD is a display.CharacterDisplay safe for concurrent use.
type LCD struct {
	drv        *hd44780.Driver
	closer     io.Closer
	open       opener
	retries    int
	retryCount int32
	cmdChan    chan command
	quit       chan struct{}
	done       chan struct{}
	closeOnce  sync.Once
}

type command struct {
	name   string
	op     func(d *hd44780.Driver) error
	result chan error
}

var (
	_ display.CharacterDisplay = &LCD{}
	_ display.CellCounter      = &LCD{}
)

func lcdType(opts Opts) device.LcdType {
	if opts.Rows <= 2 && opts.Cols <= 16 {
		return device.LCD_16x2
	}
	return device.LCD_20x4
}

func openI2C(opts Opts) opener {
	return func() (hd44780.Controller, io.Closer, error) {
		bus, err := i2c.NewI2C(opts.Addr, opts.Bus)
		if err != nil {
			return nil, nil, err
		}
		time.Sleep(busDelay)

		dev, err := device.NewLcd(bus, lcdType(opts))
		if err != nil {
			_ = bus.Close()
			return nil, nil, err
		}
		time.Sleep(opts.InitDelay)
		return dev, bus, nil
	}
}

// New initializes the LC-Display: the display is reset and the backlight is
// switched on if opts.Backlight is set. The backpack always runs the controller
// with two memory lines, so single row displays are rejected.
func New(opts Opts) (*LCD, error) {
	lg.Debug("LCD initializing...")
	_ = d2r2log.ChangePackageLogLevel("i2c", d2r2log.WarnLevel)
	return newLCD(opts, openI2C(opts))
}

func newLCD(opts Opts, open opener) (*LCD, error) {
	if opts.Rows < 2 {
		return nil, fmt.Errorf("lcd: %d rows, the backpack needs at least 2: %w", opts.Rows, display.ErrInvalidArgument)
	}
	ctrl, closer, err := open()
	if err != nil {
		lg.Error(err.Error())
		return nil, err
	}
	drv, err := hd44780.New(ctrl, opts.Cols, opts.Rows)
	if err != nil {
		_ = closer.Close()
		return nil, err
	}
	l := &LCD{
		drv:     drv,
		closer:  closer,
		open:    open,
		retries: opts.Retries,
		cmdChan: make(chan command),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go l.commandHandler()

	err = l.Reset()
	if err == nil && opts.Backlight {
		err = l.SetBacklightEnabled(true)
	}
	if err != nil {
		lg.Error(err.Error())
		_ = l.Close()
		return nil, err
	}
	return l, nil
}

// caller errors, a reconnect doesn't help
func retryable(err error) bool {
	return !errors.Is(err, display.ErrOutOfRange) &&
		!errors.Is(err, display.ErrNotSupported) &&
		!errors.Is(err, display.ErrInvalidArgument)
}

func (l *LCD) commandHandler() {
	defer close(l.done)
	for {
		select {
		case <-l.quit:
			return
		case c := <-l.cmdChan:
			err := c.op(l.drv)
			for i := 0; i < l.retries && err != nil && retryable(err); i++ {
				lg.Errorf("%s: %s", c.name, err)
				if rerr := l.retryDevice(); rerr != nil {
					err = fmt.Errorf("lcd: reconnect: %w", rerr)
					continue
				}
				err = c.op(l.drv)
			}
			c.result <- err
		}
	}
}

func (l *LCD) retryDevice() error {
	lg.Info("Start of retryDevice(): ", atomic.LoadInt32(&l.retryCount))
	atomic.AddInt32(&l.retryCount, 1)
	if l.closer != nil {
		_ = l.closer.Close()
		l.closer = nil
	}
	ctrl, closer, err := l.open()
	if err != nil {
		lg.Error(err.Error())
		return err
	}
	l.closer = closer
	if err = l.drv.Rebind(ctrl); err != nil {
		lg.Error(err.Error())
		return err
	}
	lg.Infof("End of retryDevice(): %d", atomic.LoadInt32(&l.retryCount))
	return nil
}

func (l *LCD) exec(name string, op func(d *hd44780.Driver) error) error {
	c := command{name: name, op: op, result: make(chan error, 1)}
	select {
	case l.cmdChan <- c:
	case <-l.quit:
		return fmt.Errorf("lcd: %s: %w", name, display.ErrClosed)
	}
	return <-c.result
}

// Reconnects returns how often the device was opened again.
func (l *LCD) Reconnects() int {
	return int(atomic.LoadInt32(&l.retryCount))
}

// Close stops the command handler and closes the bus. Later calls return
// display.ErrClosed.
func (l *LCD) Close() error {
	var err error
	l.closeOnce.Do(func() {
		close(l.quit)
		<-l.done
		if l.closer != nil {
			err = l.closer.Close()
		}
	})
	return err
}

func (l *LCD) Size() (cols, rows uint8) {
	return l.drv.Size()
}

func (l *LCD) Cells(r rune) int {
	return hd44780.Cells(r)
}

func (l *LCD) Reset() error {
	return l.exec("reset", (*hd44780.Driver).Reset)
}

func (l *LCD) Clear() error {
	return l.exec("clear", (*hd44780.Driver).Clear)
}

func (l *LCD) CursorReset() error {
	return l.exec("cursor reset", (*hd44780.Driver).CursorReset)
}

func (l *LCD) SetCursor(x, y uint8) error {
	return l.exec("set cursor", func(d *hd44780.Driver) error {
		return d.SetCursor(x, y)
	})
}

func (l *LCD) WriteChar(c byte) error {
	return l.writeCodes("write char", []byte{c})
}

func (l *LCD) WriteText(text string) error {
	return l.writeCodes("write text", hd44780.EncodeString(text))
}

// writeCodes continues after the last character that reached the display
// when the write is retried.
func (l *LCD) writeCodes(name string, codes []byte) error {
	return l.exec(name, func(d *hd44780.Driver) error {
		n, err := d.WriteCodes(codes)
		codes = codes[n:]
		return err
	})
}

func (l *LCD) SetEnabled(enabled bool) error {
	return l.exec("set enabled", func(d *hd44780.Driver) error {
		return d.SetEnabled(enabled)
	})
}

func (l *LCD) SetCursorMode(mode display.CursorMode) error {
	return l.exec("set cursor mode", func(d *hd44780.Driver) error {
		return d.SetCursorMode(mode)
	})
}

func (l *LCD) SetBacklightEnabled(enabled bool) error {
	return l.exec("set backlight", func(d *hd44780.Driver) error {
		return d.SetBacklightEnabled(enabled)
	})
}

func (l *LCD) SetWritingDirection(dir display.WritingDirection) error {
	return l.exec("set writing direction", func(d *hd44780.Driver) error {
		return d.SetWritingDirection(dir)
	})
}

func (l *LCD) SetAutoScrollEnabled(enabled bool) error {
	return l.exec("set auto scroll", func(d *hd44780.Driver) error {
		return d.SetAutoScrollEnabled(enabled)
	})
}

func (l *LCD) Scroll(dir display.Direction) error {
	return l.exec("scroll", func(d *hd44780.Driver) error {
		return d.Scroll(dir)
	})
}
