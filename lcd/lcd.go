// Package lcd drives an HD44780-compatible 2x16 character LCD over a
// 4-bit or 8-bit parallel bus. R/W is tied to ground, so the busy flag
// is never read and every operation waits out its datasheet delay.
package lcd

import (
	"time"

	"avrkit/core"
)

// Instructions
const (
	CmdClear       = 0x01
	CmdHome        = 0x02
	CmdEntryMode   = 0x04
	CmdDisplay     = 0x08
	CmdCursorLeft  = 0x10
	CmdCursorRight = 0x14
	CmdShiftLeft   = 0x18
	CmdShiftRight  = 0x1C
	CmdFunctionSet = 0x20
	CmdCGRAM       = 0x40
	CmdDDRAM       = 0x80

	SecondLine   = 0x40
	CharsPerLine = 40
	Columns      = 16
)

// Function set flags
const (
	FuncEightBit = 0x10
	FuncTwoLine  = 0x08
	FuncFont5x10 = 0x04
)

// Datasheet delays.
const (
	WarmUpDelay  = 40 * time.Millisecond
	CommandDelay = 37 * time.Microsecond
	DataDelay    = 40 * time.Microsecond
	ClearDelay   = 1520 * time.Microsecond
	HomeDelay    = 1520 * time.Microsecond
)

// Justify places a short string on its line.
type Justify uint8

const (
	Left Justify = iota
	Center
	Right
)

// Direction is a cursor or display shift direction.
type Direction uint8

const (
	ShiftLeft Direction = iota
	ShiftRight
)

// Config describes the wiring and the init sequence: function set,
// display mode, entry mode, in that order. In 4-bit mode D4-D7 sit on
// the high nibble of Data.
type Config struct {
	Data, Ctrl core.PortRegs
	RS, EN     uint8
	Init       [3]byte
}

// DefaultConfig is a 4-bit two-line display on PORTC with RS on PC2 and
// EN on PC3. The display is on with the cursor hidden, and the cursor
// moves right.
var DefaultConfig = Config{
	Data: core.PC,
	Ctrl: core.PC,
	RS:   1 << 2,
	EN:   1 << 3,
	Init: [3]byte{0x28, 0x0C, 0x06},
}

// LCD is one display.
type LCD struct {
	data, ctrl core.Port
	cfg        Config
	delay      core.Delay

	eightBit, twoLine bool
}

// New returns an LCD. A nil delay sleeps.
func New(rf core.RegisterFile, cfg Config, delay core.Delay) *LCD {
	if delay == nil {
		delay = core.Sleep
	}
	return &LCD{
		data:  core.NewPort(rf, cfg.Data),
		ctrl:  core.NewPort(rf, cfg.Ctrl),
		cfg:   cfg,
		delay: delay,
	}
}

// Init waits out the power-on warm-up, sets up the pins and sends the
// init sequence.
func (l *LCD) Init() {
	l.eightBit = l.cfg.Init[0]&FuncEightBit != 0
	l.twoLine = l.cfg.Init[0]&FuncTwoLine != 0
	l.delay(WarmUpDelay)

	l.ctrl.ConfigureOutput(l.cfg.RS | l.cfg.EN)
	l.ctrl.Low(l.cfg.RS | l.cfg.EN)
	if l.eightBit {
		l.data.SetDirection(0xFF)
		l.data.Write(0x00)
	} else {
		l.data.ConfigureOutput(0xF0)
		l.data.Low(0xF0)
		// still in 8-bit mode: one nibble switches the interface
		l.ctrl.Low(l.cfg.RS)
		l.data.High(0x20)
		l.strobe()
	}
	for _, c := range l.cfg.Init {
		l.delay(CommandDelay)
		l.send(c, false)
	}
	l.delay(CommandDelay)
}

// TwoLine reports whether the display was initialized for two lines.
func (l *LCD) TwoLine() bool {
	return l.twoLine
}

func (l *LCD) strobe() {
	l.ctrl.High(l.cfg.EN)
	l.ctrl.Low(l.cfg.EN)
}

func (l *LCD) send(b byte, data bool) {
	if data {
		l.ctrl.High(l.cfg.RS)
	} else {
		l.ctrl.Low(l.cfg.RS)
	}
	if l.eightBit {
		l.data.Write(b)
		l.strobe()
		return
	}
	for _, nib := range [2]byte{b & 0xF0, b << 4} {
		l.data.Low(0xF0)
		l.data.High(nib)
		l.strobe()
	}
}

// Command sends an instruction and waits the command delay.
func (l *LCD) Command(c byte) {
	l.send(c, false)
	l.delay(CommandDelay)
}

// Clear blanks DDRAM and homes the cursor.
func (l *LCD) Clear() {
	l.send(CmdClear, false)
	l.delay(ClearDelay)
}

// Home moves the cursor to row 0 column 0 and undoes display shifts.
func (l *LCD) Home() {
	l.send(CmdHome, false)
	l.delay(HomeDelay)
}

// Display sets the display, cursor and blink flags.
func (l *LCD) Display(on, cursor, blink bool) {
	c := byte(CmdDisplay)
	if on {
		c |= 0x04
	}
	if cursor {
		c |= 0x02
	}
	if blink {
		c |= 0x01
	}
	l.Command(c)
}

// Entry sets the cursor direction and whether the display follows it.
func (l *LCD) Entry(increment, shift bool) {
	c := byte(CmdEntryMode)
	if increment {
		c |= 0x02
	}
	if shift {
		c |= 0x01
	}
	l.Command(c)
}

// ShiftCursor moves the cursor one column.
func (l *LCD) ShiftCursor(d Direction) {
	if d == ShiftRight {
		l.Command(CmdCursorRight)
	} else {
		l.Command(CmdCursorLeft)
	}
}

// ShiftDisplay scrolls the visible window over the 40-column DDRAM.
func (l *LCD) ShiftDisplay(d Direction) {
	if d == ShiftRight {
		l.Command(CmdShiftRight)
	} else {
		l.Command(CmdShiftLeft)
	}
}

// SetCursor moves the cursor. Any non-zero row is the second line on a
// two-line display; columns wrap at 40.
func (l *LCD) SetCursor(row, col uint8) {
	pos := byte(CmdDDRAM)
	if row != 0 && l.twoLine {
		pos |= SecondLine
	}
	pos |= col % CharsPerLine
	l.Command(pos)
}

// WriteChar writes one character at the cursor.
func (l *LCD) WriteChar(c byte) {
	l.send(c, true)
	l.delay(DataDelay)
}

// WriteCharAt writes one character at row, col.
func (l *LCD) WriteCharAt(c byte, row, col uint8) {
	l.SetCursor(row, col)
	l.WriteChar(c)
}

// WriteString writes s starting on line. Strings shorter than the
// visible width are placed by justify; longer ones start at column 0.
// At most 40 characters go to the second line and 80 to the first,
// which runs on into the second.
func (l *LCD) WriteString(s string, justify Justify, line uint8) {
	l.SetCursor(line, StartColumn(len(s), justify))
	limit := 2 * CharsPerLine
	if line != 0 {
		limit = CharsPerLine
	}
	for i := 0; i < len(s) && i < limit; i++ {
		if s[i] == 0 {
			break
		}
		l.WriteChar(s[i])
	}
}

// StartColumn returns the first column for a string of n characters.
func StartColumn(n int, justify Justify) uint8 {
	if n >= Columns {
		return 0
	}
	switch justify {
	case Center:
		return uint8(Columns/2 - n/2 - n%2)
	case Right:
		return uint8(Columns - n)
	}
	return 0
}
