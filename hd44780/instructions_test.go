package hd44780

import (
	"testing"
)

func TestNextAddr(t *testing.T) {
	tests := []struct {
		addr  byte
		inc   bool
		lines int
		want  byte
	}{
		{0x00, true, 2, 0x01},
		{0x27, true, 2, 0x40},
		{0x67, true, 2, 0x00},
		{0x00, false, 2, 0x67},
		{0x40, false, 2, 0x27},
		{0x41, false, 2, 0x40},
		{0x4f, true, 1, 0x00},
		{0x00, false, 1, 0x4f},
	}
	for _, tt := range tests {
		if got := NextAddr(tt.addr, tt.inc, tt.lines); got != tt.want {
			t.Errorf("NextAddr(%#x, %t, %d) = %#x, want %#x", tt.addr, tt.inc, tt.lines, got, tt.want)
		}
	}
}

func TestRowAddr(t *testing.T) {
	want := []byte{0x00, 0x40, 0x14, 0x54}
	for row, w := range want {
		if got := RowAddr(uint8(row), 20); got != w {
			t.Errorf("RowAddr(%d, 20) = %#x, want %#x", row, got, w)
		}
	}
}

func TestValidAddr(t *testing.T) {
	if !ValidAddr(0x27, 2) || ValidAddr(0x28, 2) || !ValidAddr(0x67, 2) || ValidAddr(0x68, 2) {
		t.Error("2 line addresses")
	}
	if !ValidAddr(0x4f, 1) || ValidAddr(0x50, 1) {
		t.Error("1 line addresses")
	}
}

func TestEncodeString(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"abc", "abc"},
		{"Grüße", "Gr\xf5\xe2e"},
		{"21°C", "21\xdfC"},
		{"Äpfel", "Aepfel"},
		{"Köln…", "K\xefln..."},
		{"日", "?"},
		{"\t", "\t"},
		{"a\nb~\x01", "a\nb~\x01"},
		{"\u0080", "?"},
	}
	for _, tt := range tests {
		if got := string(EncodeString(tt.text)); got != tt.want {
			t.Errorf("EncodeString(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestCells(t *testing.T) {
	for r, want := range map[rune]int{'a': 1, '\n': 1, 'ä': 1, 'Ä': 2, '…': 3, '日': 1} {
		if got := Cells(r); got != want {
			t.Errorf("Cells(%q) = %d, want %d", r, got, want)
		}
	}
}

func TestDecodeString(t *testing.T) {
	if s := DecodeString(EncodeString("ßüö° π")); s != "ßüö° π" {
		t.Error(s)
	}
	if s := DecodeString([]byte{0x05}); s != "?" {
		t.Error(s)
	}
}
