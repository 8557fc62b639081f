package telemetry

import (
	"testing"
	"time"

	"github.com/aluedtke7/chardisplay/display"
	"github.com/aluedtke7/chardisplay/display/displaytest"
	"github.com/aluedtke7/chardisplay/sim"
)

type fakeReconnector struct {
	display.CharacterDisplay
}

func (fakeReconnector) Reconnects() int {
	return 2
}

func newInstrumented(t *testing.T) (*Display, *sim.Controller) {
	d, c, err := sim.NewDisplay(16, 2)
	if err != nil {
		t.Fatal(err)
	}
	return Instrument(d, "test"), c
}

func TestConformance(t *testing.T) {
	displaytest.Run(t, func(t *testing.T) displaytest.Target {
		d, c := newInstrumented(t)
		return displaytest.Target{Display: d, Inspector: c}
	})
}

func TestCounters(t *testing.T) {
	d, _ := newInstrumented(t)
	_ = d.Reset()
	_ = d.WriteText("hi")
	_ = d.WriteText("ho")
	_ = d.SetCursor(99, 0)
	_ = d.Scroll(display.Up)

	s := d.Snapshot()
	if s.Name != "test" {
		t.Error("name", s.Name)
	}
	if c := s.Ops["write_text"]; c.Calls != 2 || c.Errors != 0 {
		t.Error("write_text", c)
	}
	if c := s.Ops["set_cursor"]; c.Calls != 1 || c.Errors != 1 {
		t.Error("set_cursor", c)
	}
	if c := s.Ops["scroll"]; c.NotSupported != 1 || c.Errors != 0 {
		t.Error("scroll", c)
	}
	if tot := s.Totals(); tot.Calls != 5 || tot.Errors != 1 || tot.NotSupported != 1 {
		t.Error("totals", tot)
	}
	if s.Reconnects != 0 {
		t.Error("reconnects", s.Reconnects)
	}
}

func TestSnapshotReconnects(t *testing.T) {
	d, _, _ := sim.NewDisplay(16, 2)
	td := Instrument(fakeReconnector{d}, "lcd")
	if r := td.Snapshot().Reconnects; r != 2 {
		t.Error("reconnects", r)
	}
}

func TestPoint(t *testing.T) {
	s := Snapshot{
		Name: "hall",
		Ops: map[string]Counters{
			"clear":      {Calls: 1},
			"write_text": {Calls: 4, Errors: 1},
		},
		Reconnects: 1,
	}
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	p := Point(s, ts)
	if p.Name() != Measurement {
		t.Error("name", p.Name())
	}
	if !p.Time().Equal(ts) {
		t.Error("time", p.Time())
	}
	tags := p.TagList()
	if len(tags) != 1 || tags[0].Key != "display" || tags[0].Value != "hall" {
		t.Error("tags", tags)
	}
	want := map[string]int64{
		"calls":             5,
		"errors":            1,
		"not_supported":     0,
		"reconnects":        1,
		"clear_calls":       1,
		"clear_errors":      0,
		"write_text_calls":  4,
		"write_text_errors": 1,
	}
	fields := p.FieldList()
	if len(fields) != len(want) {
		t.Errorf("%d fields, want %d", len(fields), len(want))
	}
	for _, f := range fields {
		if v, ok := f.Value.(int64); !ok || v != want[f.Key] {
			t.Errorf("field %s = %v, want %d", f.Key, f.Value, want[f.Key])
		}
	}
}
