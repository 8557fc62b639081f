// Package marquee prints lines on a character display and lets lines which
// are too long scroll through the row like a ticker.
package marquee

import (
	"fmt"
	"sync"
	"time"

	"github.com/aluedtke7/chardisplay/display"
	d2r2log "github.com/d2r2/go-logger"
)

var lg = d2r2log.NewPackageLogger("marquee", d2r2log.InfoLevel)

// gap between the end and the start of a scrolling text
const spacer = "     "

type Marquee struct {
	// mu serializes writes to the display, opMu the calls of PrintLine and
	// Stop, so a row has at most one ticker
	mu      sync.Mutex
	opMu    sync.Mutex
	d       display.CharacterDisplay
	speed   time.Duration
	tickers []*ticker
}

type ticker struct {
	stop chan struct{}
	done chan struct{}
}

// New returns a marquee for d. speed is the time between two scroll steps.
func New(d display.CharacterDisplay, speed time.Duration) *Marquee {
	_, rows := d.Size()
	return &Marquee{d: d, speed: speed, tickers: make([]*ticker, rows)}
}

// printLine writes the row in one sequence if the display supports it, other
// users of a shared display can't move the cursor in between.
func (m *Marquee) printLine(row uint8, text string, opts display.LineOptions) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if seq, ok := m.d.(display.Sequencer); ok {
		return seq.Do(func(d display.CharacterDisplay) error {
			return display.PrintLine(d, row, text, opts)
		})
	}
	return display.PrintLine(m.d, row, text, opts)
}

// stopTicker returns after the goroutine of the row has ended, so nothing
// overwrites the row afterwards. opMu must be held.
func (m *Marquee) stopTicker(row uint8) {
	tk := m.tickers[row]
	m.tickers[row] = nil
	if tk != nil {
		close(tk.stop)
		<-tk.done
	}
}

func (m *Marquee) runTicker(row uint8, text string, tk *ticker) {
	defer close(tk.done)
	t := time.NewTicker(m.speed)
	defer t.Stop()
	s := []rune(text + spacer)
	for {
		select {
		case <-tk.stop:
			return
		case <-t.C:
			s = append(s[1:], s[0])
			if err := m.printLine(row, string(s), display.BlankPadding); err != nil {
				lg.Error(err.Error())
			}
		}
	}
}

// PrintLine shows text in the given row. With scroll set, a text longer than
// the row scrolls until the row is printed or cleared again. Without scroll
// the text is cut with an ellipsis.
func (m *Marquee) PrintLine(row uint8, text string, scroll bool) error {
	cols, rows := m.d.Size()
	if row >= rows {
		return fmt.Errorf("marquee: row %d: %w", row, display.ErrOutOfRange)
	}
	m.opMu.Lock()
	defer m.opMu.Unlock()
	m.stopTicker(row)
	if !scroll || display.TextCells(m.d, text) <= int(cols) {
		return m.printLine(row, text, display.BlankPadding|display.EllipsisIfNotFit)
	}
	if err := m.printLine(row, text, display.BlankPadding); err != nil {
		return err
	}
	tk := &ticker{stop: make(chan struct{}), done: make(chan struct{})}
	m.tickers[row] = tk
	go m.runTicker(row, text, tk)
	return nil
}

// ClearLine stops scrolling and blanks the row.
func (m *Marquee) ClearLine(row uint8) error {
	return m.PrintLine(row, "", false)
}

// Stop ends all scrolling lines. The content stays on the display.
func (m *Marquee) Stop() {
	m.opMu.Lock()
	defer m.opMu.Unlock()
	for row := range m.tickers {
		m.stopTicker(uint8(row))
	}
}
