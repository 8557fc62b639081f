// Package hd44780 drives HD44780 compatible character LCD controllers on the
// instruction level. The bytes are delivered by a Controller, which hides the
// bus (I²C backpack, parallel GPIO, simulator).
package hd44780

// Instructions of the HD44780 controller.
const (
	ClearDisplay   byte = 0x01
	ReturnHome     byte = 0x02
	EntryModeSet   byte = 0x04
	DisplayControl byte = 0x08
	CursorShift    byte = 0x10
	FunctionSet    byte = 0x20
	SetCGRAMAddr   byte = 0x40
	SetDDRAMAddr   byte = 0x80
)

// Entry mode flags.
const (
	EntryIncrement byte = 0x02 // I/D
	EntryShift     byte = 0x01 // S, shift the display on write
)

// Display control flags.
const (
	DisplayOn byte = 0x04
	CursorOn  byte = 0x02
	BlinkOn   byte = 0x01
)

// Cursor/display shift flags.
const (
	ShiftDisplay byte = 0x08 // S/C, otherwise the cursor is moved
	ShiftRight   byte = 0x04 // R/L
)

// Function set flags.
const (
	Mode8Bit byte = 0x10
	Lines2   byte = 0x08
	Font5x10 byte = 0x04
)

// DDRAM geometry.
const (
	// DDRAMSize is the number of character cells of the display memory.
	DDRAMSize = 80
	// LineLength is the memory length of one line in 2-line mode.
	LineLength = 40
	// Line2Addr is the address of the second memory line in 2-line mode.
	Line2Addr byte = 0x40
)

// RowAddr returns the DDRAM address of the first column of a row. Rows 2 and 3
// of four line displays are continuations of memory lines 0 and 1.
func RowAddr(row, cols uint8) byte {
	switch row {
	case 0:
		return 0x00
	case 1:
		return Line2Addr
	case 2:
		return cols
	default:
		return Line2Addr + cols
	}
}

// MemoryLines returns the number of memory lines the controller is configured
// for.
func MemoryLines(rows uint8) int {
	if rows > 1 {
		return 2
	}
	return 1
}

// ValidGeometry reports if a display with cols x rows fits into the display
// memory. Rows 2 and 3 share the memory lines with rows 0 and 1, so displays
// with more than two rows can have at most half a memory line per row.
func ValidGeometry(cols, rows uint8) bool {
	switch {
	case cols == 0 || rows == 0 || rows > 4:
		return false
	case rows > 2:
		return int(cols) <= LineLength/2
	}
	return int(cols)*MemoryLines(rows) <= DDRAMSize
}

// ValidAddr reports if addr is a DDRAM address in the given line mode.
func ValidAddr(addr byte, lines int) bool {
	if lines == 1 {
		return addr < DDRAMSize
	}
	return addr < LineLength || (addr >= Line2Addr && addr < Line2Addr+LineLength)
}

// NextAddr moves the address counter one step like the controller does after
// a data write.
func NextAddr(addr byte, increment bool, lines int) byte {
	if lines == 1 {
		if increment {
			return (addr + 1) % DDRAMSize
		}
		if addr == 0 {
			return DDRAMSize - 1
		}
		return addr - 1
	}
	if increment {
		switch addr {
		case LineLength - 1:
			return Line2Addr
		case Line2Addr + LineLength - 1:
			return 0
		}
		return addr + 1
	}
	switch addr {
	case 0:
		return Line2Addr + LineLength - 1
	case Line2Addr:
		return LineLength - 1
	}
	return addr - 1
}
