package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aluedtke7/chardisplay/hd44780"
	"github.com/aluedtke7/chardisplay/sim"
)

func setupSim(t *testing.T) *sim.Controller {
	d, c, err := sim.NewDisplay(16, 4)
	if err != nil {
		t.Fatal(err)
	}
	if err = d.Reset(); err != nil {
		t.Fatal(err)
	}
	simCtrl = c
	setupDisplay(d, "test", 100*time.Millisecond)
	t.Cleanup(lines.Stop)
	return c
}

func post(t *testing.T, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	newMux().ServeHTTP(rec, req)
	return rec
}

func TestClamp(t *testing.T) {
	v := 50
	clamp(&v, 100, 10000)
	if v != 100 {
		t.Error("min", v)
	}
	v = 20000
	clamp(&v, 100, 10000)
	if v != 10000 {
		t.Error("max", v)
	}
	v = 500
	clamp(&v, 100, 10000)
	if v != 500 {
		t.Error("in range", v)
	}
}

func TestClampGeometry(t *testing.T) {
	tests := []struct {
		cols, rows, minRows int
		wantCols, wantRows  int
	}{
		{40, 4, 1, 20, 4},
		{24, 3, 1, 20, 3},
		{40, 2, 1, 40, 2},
		{16, 1, 2, 16, 2},
		{16, 1, 1, 16, 1},
		{2, 9, 1, 8, 4},
	}
	for _, tt := range tests {
		cols, rows := tt.cols, tt.rows
		clampGeometry(&cols, &rows, tt.minRows)
		if cols != tt.wantCols || rows != tt.wantRows {
			t.Errorf("clampGeometry(%d, %d, %d) = %dx%d, want %dx%d", tt.cols, tt.rows, tt.minRows, cols, rows, tt.wantCols, tt.wantRows)
		}
		if !hd44780.ValidGeometry(uint8(cols), uint8(rows)) {
			t.Errorf("%dx%d is not a valid geometry", cols, rows)
		}
	}
}

func TestRoundFloat32(t *testing.T) {
	if r := roundFloat32(21.456, 1); r != 21.5 {
		t.Error(r)
	}
}

func TestTextHandler(t *testing.T) {
	c := setupSim(t)
	rec := post(t, "/text", `{"text":"Hello"}`)
	if rec.Code != http.StatusOK {
		t.Fatal(rec.Code, rec.Body.String())
	}
	if l := c.Lines()[ROW_TEXT]; l != "Hello           " {
		t.Errorf("%q", l)
	}
	if rec = post(t, "/text", `{"row":7,"text":"x"}`); rec.Code != http.StatusBadRequest {
		t.Error("row 7", rec.Code)
	}
	if rec = post(t, "/text", `{`); rec.Code != http.StatusBadRequest {
		t.Error("broken json", rec.Code)
	}
}

func TestBacklightHandler(t *testing.T) {
	c := setupSim(t)
	if rec := post(t, "/backlight", `{"enabled":true}`); rec.Code != http.StatusOK {
		t.Fatal(rec.Code)
	}
	if !c.Backlight() {
		t.Error("backlight off")
	}
	if rec := post(t, "/backlight", `{"enabled":false}`); rec.Code != http.StatusOK {
		t.Fatal(rec.Code)
	}
	if c.Backlight() {
		t.Error("backlight on")
	}
}

func TestScriptHandler(t *testing.T) {
	c := setupSim(t)
	rec := post(t, "/script", "steps:\n  - op: clear\n  - op: write\n    text: scripted\n")
	if rec.Code != http.StatusOK {
		t.Fatal(rec.Code, rec.Body.String())
	}
	if l := c.Lines()[0]; !strings.HasPrefix(l, "scripted") {
		t.Errorf("%q", l)
	}
	if rec = post(t, "/script", "steps:\n  - op: explode\n"); rec.Code != http.StatusBadRequest {
		t.Error("unknown op", rec.Code)
	}
	if rec = post(t, "/script", "steps:\n  - op: scroll\n    direction: up\n"); rec.Code != http.StatusNotImplemented {
		t.Error("scroll up", rec.Code)
	}
}

func TestInfoHandler(t *testing.T) {
	setupSim(t)
	_ = post(t, "/text", `{"text":"abc"}`)
	req := httptest.NewRequest(http.MethodGet, "/info", nil)
	rec := httptest.NewRecorder()
	newMux().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatal(rec.Code)
	}
	var inf info
	if err := json.Unmarshal(rec.Body.Bytes(), &inf); err != nil {
		t.Fatal(err)
	}
	if inf.Cols != 16 || inf.Rows != 4 || inf.Text != "abc" || inf.Calls == 0 {
		t.Errorf("%+v", inf)
	}
	if len(inf.Screen) != 4 || inf.Screen[ROW_TEXT] != "abc             " {
		t.Errorf("screen %q", inf.Screen)
	}
	rec = httptest.NewRecorder()
	newMux().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/info", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Error("POST /info", rec.Code)
	}
}
