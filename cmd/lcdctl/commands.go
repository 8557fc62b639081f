package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/aluedtke7/chardisplay/display"
	"github.com/aluedtke7/chardisplay/script"
)

func parseOnOff(s string) (bool, error) {
	switch s {
	case "on", "true", "1":
		return true, nil
	case "off", "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("%q is neither on nor off: %w", s, display.ErrInvalidArgument)
}

// switchCommand builds a command taking on/off
func switchCommand(o *options, use, short string, set func(d display.CharacterDisplay, on bool) error) *cobra.Command {
	return &cobra.Command{
		Use:       use + " on|off",
		Short:     short,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"on", "off"},
		RunE: withDisplay(o, func(_ *cobra.Command, d display.CharacterDisplay, args []string) error {
			on, err := parseOnOff(args[0])
			if err != nil {
				return err
			}
			return set(d, on)
		}),
	}
}

func addCommands(root *cobra.Command, o *options) {
	root.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Reset the display (the backlight keeps its state)",
		Args:  cobra.NoArgs,
		RunE: withDisplay(o, func(_ *cobra.Command, d display.CharacterDisplay, _ []string) error {
			return d.Reset()
		}),
	})
	root.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Clear the display",
		Args:  cobra.NoArgs,
		RunE: withDisplay(o, func(_ *cobra.Command, d display.CharacterDisplay, _ []string) error {
			return d.Clear()
		}),
	})

	var x, y uint8
	writeCmd := &cobra.Command{
		Use:   "write TEXT",
		Short: "Write text starting at --x/--y",
		Args:  cobra.ExactArgs(1),
		RunE: withDisplay(o, func(_ *cobra.Command, d display.CharacterDisplay, args []string) error {
			if err := d.SetCursor(x, y); err != nil {
				return err
			}
			return d.WriteText(args[0])
		}),
	}
	writeCmd.Flags().Uint8VarP(&x, "x", "x", 0, "column")
	writeCmd.Flags().Uint8VarP(&y, "y", "y", 0, "row")
	root.AddCommand(writeCmd)

	root.AddCommand(&cobra.Command{
		Use:   "char CODE",
		Short: "Write a single character code (0..255) at the cursor",
		Args:  cobra.ExactArgs(1),
		RunE: withDisplay(o, func(_ *cobra.Command, d display.CharacterDisplay, args []string) error {
			code, err := strconv.ParseUint(args[0], 0, 8)
			if err != nil {
				return fmt.Errorf("character code %q: %w", args[0], display.ErrInvalidArgument)
			}
			return d.WriteChar(byte(code))
		}),
	})

	root.AddCommand(switchCommand(o, "backlight", "Switch the backlight (lasts until the next invocation, see --backlight)", display.CharacterDisplay.SetBacklightEnabled))
	root.AddCommand(switchCommand(o, "enable", "Switch the display output", display.CharacterDisplay.SetEnabled))
	root.AddCommand(switchCommand(o, "autoscroll", "Switch automatic scrolling", display.CharacterDisplay.SetAutoScrollEnabled))

	root.AddCommand(&cobra.Command{
		Use:       "cursor-mode off|line|block",
		Short:     "Set the cursor style",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"off", "line", "block"},
		RunE: withDisplay(o, func(_ *cobra.Command, d display.CharacterDisplay, args []string) error {
			m, err := display.ParseCursorMode(args[0])
			if err != nil {
				return fmt.Errorf("cursor mode %q: %w", args[0], err)
			}
			return d.SetCursorMode(m)
		}),
	})
	root.AddCommand(&cobra.Command{
		Use:       "direction ltr|rtl",
		Short:     "Set the writing direction",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"ltr", "rtl"},
		RunE: withDisplay(o, func(_ *cobra.Command, d display.CharacterDisplay, args []string) error {
			w, err := display.ParseWritingDirection(args[0])
			if err != nil {
				return fmt.Errorf("writing direction %q: %w", args[0], err)
			}
			return d.SetWritingDirection(w)
		}),
	})
	root.AddCommand(&cobra.Command{
		Use:       "scroll left|right|up|down",
		Short:     "Scroll the display content one step",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"left", "right", "up", "down"},
		RunE: withDisplay(o, func(_ *cobra.Command, d display.CharacterDisplay, args []string) error {
			dir, err := display.ParseDirection(args[0])
			if err != nil {
				return fmt.Errorf("direction %q: %w", args[0], err)
			}
			return d.Scroll(dir)
		}),
	})
	root.AddCommand(&cobra.Command{
		Use:   "run FILE",
		Short: "Run a YAML script of display operations",
		Args:  cobra.ExactArgs(1),
		RunE: withDisplay(o, func(cmd *cobra.Command, d display.CharacterDisplay, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			s, err := script.Parse(data)
			if err != nil {
				return err
			}
			return s.Run(cmd.Context(), d)
		}),
	})
}
