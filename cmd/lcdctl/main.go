// Command lcdctl sends single operations or YAML scripts to a character
// display on an I²C backpack, or to a simulated one.
package main

import (
	"fmt"
	"io"
	"os"
	"time"

	d2r2log "github.com/d2r2/go-logger"
	"github.com/spf13/cobra"

	"github.com/aluedtke7/chardisplay/display"
	"github.com/aluedtke7/chardisplay/lcd"
	"github.com/aluedtke7/chardisplay/sim"
)

type options struct {
	sim       bool
	addr      uint8
	bus       int
	cols      uint8
	rows      uint8
	delay     time.Duration
	backlight bool
}

type session struct {
	d      display.CharacterDisplay
	ctrl   *sim.Controller
	closer io.Closer
}

func (o *options) open() (*session, error) {
	if o.sim {
		d, c, err := sim.NewDisplay(o.cols, o.rows)
		if err != nil {
			return nil, err
		}
		if err = d.Reset(); err != nil {
			return nil, err
		}
		if err = d.SetBacklightEnabled(o.backlight); err != nil {
			return nil, err
		}
		return &session{d: d, ctrl: c}, nil
	}
	opts := lcd.DefaultOpts
	opts.Addr = o.addr
	opts.Bus = o.bus
	opts.Cols = o.cols
	opts.Rows = o.rows
	opts.InitDelay = o.delay
	opts.Backlight = o.backlight
	l, err := lcd.New(opts)
	if err != nil {
		return nil, err
	}
	return &session{d: l, closer: l}, nil
}

// withDisplay opens the display, runs fn and shows the simulated display
// afterwards.
func withDisplay(o *options, fn func(cmd *cobra.Command, d display.CharacterDisplay, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		s, err := o.open()
		if err != nil {
			return err
		}
		if s.closer != nil {
			defer s.closer.Close()
		}
		if err = fn(cmd, s.d, args); err != nil {
			return err
		}
		if s.ctrl != nil {
			fmt.Fprint(cmd.OutOrStdout(), s.ctrl.String())
		}
		return nil
	}
}

func newRootCmd() *cobra.Command {
	o := &options{}
	rootCmd := &cobra.Command{
		Use:           "lcdctl",
		Short:         "Control a HD44780 character display",
		SilenceUsage:  true,
		SilenceErrors: true,
		Long: `Control a HD44780 character display.

Every invocation initializes the display again: the I2C backpack can't be read
back, so the content is cleared and the backlight is set from --backlight
before the command runs. Use "run" with a script for several operations.`,
	}
	f := rootCmd.PersistentFlags()
	f.BoolVar(&o.sim, "sim", false, "use a simulated display and print it")
	f.Uint8Var(&o.addr, "addr", lcd.DefaultOpts.Addr, "I2C address of the backpack")
	f.IntVar(&o.bus, "bus", lcd.DefaultOpts.Bus, "I2C bus number")
	f.Uint8Var(&o.cols, "cols", lcd.DefaultOpts.Cols, "number of columns")
	f.Uint8Var(&o.rows, "rows", lcd.DefaultOpts.Rows, "number of rows")
	f.DurationVar(&o.delay, "delay", time.Second, "delay after initializing the display")
	f.BoolVar(&o.backlight, "backlight", true, "switch the backlight on after initializing")

	addCommands(rootCmd, o)
	return rootCmd
}

func main() {
	defer func() {
		_ = d2r2log.FinalizeLogger()
	}()
	_ = d2r2log.ChangePackageLogLevel("i2c", d2r2log.WarnLevel)
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
