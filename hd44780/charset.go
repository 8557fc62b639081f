package hd44780

import (
	"strings"
)

// Characters of the A00 character ROM outside of ASCII.
var romA00 = map[rune]byte{
	'¥': 0x5c,
	'→': 0x7e,
	'←': 0x7f,
	'°': 0xdf,
	'α': 0xe0,
	'ä': 0xe1,
	'ß': 0xe2,
	'β': 0xe2,
	'ε': 0xe3,
	'µ': 0xe4,
	'μ': 0xe4,
	'σ': 0xe5,
	'ρ': 0xe6,
	'√': 0xe8,
	'¢': 0xec,
	'ñ': 0xee,
	'ö': 0xef,
	'θ': 0xf2,
	'∞': 0xf3,
	'Ω': 0xf4,
	'ü': 0xf5,
	'Σ': 0xf6,
	'π': 0xf7,
	'÷': 0xfd,
	'█': 0xff,
}

// best possible translation for characters the ROM doesn't have
var transliteration = map[rune]string{
	'´': "'", '’': "'", '‘': "'", '“': "\"", '”': "\"",
	'á': "a", 'à': "a", 'â': "a", 'é': "e", 'ê': "e", 'è': "e", 'í': "i",
	'Ä': "Ae", 'Ö': "Oe", 'Ü': "Ue", 'Ó': "O", 'ó': "o", 'õ': "o", 'ø': "o",
	'É': "E", '…': "...", '–': "-", '—': "-",
}

// Unknown is written for runes without a representation.
const Unknown byte = '?'

// EncodeRune returns the character codes for r. ASCII runes, control
// characters included, are passed through unchanged, so text is written like
// the same bytes written one by one with WriteChar.
func EncodeRune(r rune) []byte {
	if r < 0x80 {
		return []byte{byte(r)}
	}
	if c, ok := romA00[r]; ok {
		return []byte{c}
	}
	if s, ok := transliteration[r]; ok {
		return []byte(s)
	}
	return []byte{Unknown}
}

// Cells returns the number of character cells r takes on the display.
func Cells(r rune) int {
	return len(EncodeRune(r))
}

// EncodeString converts a UTF-8 text into character codes of the A00 ROM.
func EncodeString(text string) []byte {
	buf := make([]byte, 0, len(text))
	for _, r := range text {
		buf = append(buf, EncodeRune(r)...)
	}
	return buf
}

// DecodeString converts character codes back into text, used for
// introspection. Codes without a rune are shown as '?'.
func DecodeString(codes []byte) string {
	var b strings.Builder
	for _, c := range codes {
		b.WriteRune(DecodeByte(c))
	}
	return b.String()
}

var reverseA00 = func() map[byte]rune {
	m := make(map[byte]rune, len(romA00))
	for r, c := range romA00 {
		if _, ok := m[c]; !ok || r == 'ß' || r == 'µ' {
			m[c] = r
		}
	}
	return m
}()

// DecodeByte returns the rune shown for a character code.
func DecodeByte(c byte) rune {
	if c >= 0x20 && c <= 0x7d && c != 0x5c {
		return rune(c)
	}
	if r, ok := reverseA00[c]; ok {
		return r
	}
	return rune(Unknown)
}
