// Package script runs sequences of display operations written in YAML:
//
//	steps:
//	  - op: reset
//	  - op: cursor
//	    x: 0
//	    y: 1
//	  - op: write
//	    text: "Hello"
//	  - op: scroll
//	    direction: left
//	    ignoreUnsupported: true
//	  - op: sleep
//	    ms: 250
package script

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aluedtke7/chardisplay/display"
	"gopkg.in/yaml.v3"
)

// Step is one operation of a script.
type Step struct {
	Op                string `yaml:"op"`
	X                 uint8  `yaml:"x,omitempty"`
	Y                 uint8  `yaml:"y,omitempty"`
	Row               uint8  `yaml:"row,omitempty"`
	Code              *int   `yaml:"code,omitempty"`
	Text              string `yaml:"text,omitempty"`
	Enabled           *bool  `yaml:"enabled,omitempty"`
	Mode              string `yaml:"mode,omitempty"`
	Direction         string `yaml:"direction,omitempty"`
	Ms                int    `yaml:"ms,omitempty"`
	IgnoreUnsupported bool   `yaml:"ignoreUnsupported,omitempty"`
}

type action func(ctx context.Context, d display.CharacterDisplay) error

type Script struct {
	Steps   []Step `yaml:"steps"`
	actions []action
}

var ErrUnknownOp = errors.New("unknown operation")

// Parse reads and checks a script.
func Parse(data []byte) (*Script, error) {
	s := &Script{}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("script: %w", err)
	}
	for i, st := range s.Steps {
		a, err := compile(st)
		if err != nil {
			return nil, fmt.Errorf("script: step %d (%s): %w", i+1, st.Op, err)
		}
		s.actions = append(s.actions, a)
	}
	return s, nil
}

func needEnabled(st Step) (bool, error) {
	if st.Enabled == nil {
		return false, fmt.Errorf("missing 'enabled': %w", display.ErrInvalidArgument)
	}
	return *st.Enabled, nil
}

func compile(st Step) (action, error) {
	switch st.Op {
	case "reset":
		return func(_ context.Context, d display.CharacterDisplay) error { return d.Reset() }, nil
	case "clear":
		return func(_ context.Context, d display.CharacterDisplay) error { return d.Clear() }, nil
	case "home":
		return func(_ context.Context, d display.CharacterDisplay) error { return d.CursorReset() }, nil
	case "cursor":
		return func(_ context.Context, d display.CharacterDisplay) error { return d.SetCursor(st.X, st.Y) }, nil
	case "char":
		if st.Code == nil || *st.Code < 0 || *st.Code > 255 {
			return nil, fmt.Errorf("'code' must be 0..255: %w", display.ErrInvalidArgument)
		}
		c := byte(*st.Code)
		return func(_ context.Context, d display.CharacterDisplay) error { return d.WriteChar(c) }, nil
	case "write":
		return func(_ context.Context, d display.CharacterDisplay) error { return d.WriteText(st.Text) }, nil
	case "line":
		return func(_ context.Context, d display.CharacterDisplay) error {
			return display.PrintLine(d, st.Row, st.Text, display.BlankPadding|display.EllipsisIfNotFit)
		}, nil
	case "enable", "backlight", "autoscroll":
		on, err := needEnabled(st)
		if err != nil {
			return nil, err
		}
		return func(_ context.Context, d display.CharacterDisplay) error {
			switch st.Op {
			case "enable":
				return d.SetEnabled(on)
			case "backlight":
				return d.SetBacklightEnabled(on)
			}
			return d.SetAutoScrollEnabled(on)
		}, nil
	case "cursor_mode":
		m, err := display.ParseCursorMode(st.Mode)
		if err != nil {
			return nil, fmt.Errorf("mode %q: %w", st.Mode, err)
		}
		return func(_ context.Context, d display.CharacterDisplay) error { return d.SetCursorMode(m) }, nil
	case "direction":
		w, err := display.ParseWritingDirection(st.Direction)
		if err != nil {
			return nil, fmt.Errorf("direction %q: %w", st.Direction, err)
		}
		return func(_ context.Context, d display.CharacterDisplay) error { return d.SetWritingDirection(w) }, nil
	case "scroll":
		dir, err := display.ParseDirection(st.Direction)
		if err != nil {
			return nil, fmt.Errorf("direction %q: %w", st.Direction, err)
		}
		return func(_ context.Context, d display.CharacterDisplay) error { return d.Scroll(dir) }, nil
	case "sleep":
		if st.Ms < 0 {
			return nil, fmt.Errorf("'ms' must not be negative: %w", display.ErrInvalidArgument)
		}
		wait := time.Duration(st.Ms) * time.Millisecond
		return func(ctx context.Context, _ display.CharacterDisplay) error {
			t := time.NewTimer(wait)
			defer t.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-t.C:
				return nil
			}
		}, nil
	}
	return nil, ErrUnknownOp
}

// Run executes the steps in order and stops at the first error. Steps marked
// with ignoreUnsupported go on if the display doesn't support the operation.
func (s *Script) Run(ctx context.Context, d display.CharacterDisplay) error {
	for i, a := range s.actions {
		if err := ctx.Err(); err != nil {
			return err
		}
		st := s.Steps[i]
		err := a(ctx, d)
		if err == nil || (st.IgnoreUnsupported && errors.Is(err, display.ErrNotSupported)) {
			continue
		}
		return fmt.Errorf("script: step %d (%s): %w", i+1, st.Op, err)
	}
	return nil
}
