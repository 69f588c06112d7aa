// Package keypad scans a 4x4 matrix keypad and debounces it with a
// two-state machine driven by a periodic tick.
//
// Layout:
//
//	     col 1   2   3   4
//	row 1    1 | 2 | 3 | A
//	row 2    4 | 5 | 6 | B
//	row 3    7 | 8 | 9 | C
//	row 4    * | 0 | # | D
//
// Columns are driven low one at a time; rows are inputs with pull-ups,
// so a closed switch reads as 0.
package keypad

import "avrkit/core"

// Mode selects the codes returned for each key.
type Mode uint8

const (
	// Char returns ASCII: '0'-'9', 'A'-'D', '*', '#'.
	Char Mode = iota
	// Hex returns 0x0-0xF with '*' as 0xE and '#' as 0xF.
	Hex
)

// "No key" sentinels for each mode.
const (
	NoKeyChar = 0x00
	NoKeyHex  = 0xFF
)

// codes[mode][col][row]
var codes = [2][4][4]byte{
	Char: {
		{'1', '4', '7', '*'},
		{'2', '5', '8', '0'},
		{'3', '6', '9', '#'},
		{'A', 'B', 'C', 'D'},
	},
	Hex: {
		{0x01, 0x04, 0x07, 0x0E},
		{0x02, 0x05, 0x08, 0x00},
		{0x03, 0x06, 0x09, 0x0F},
		{0x0A, 0x0B, 0x0C, 0x0D},
	},
}

// Config wires the keypad to one port.
type Config struct {
	Port core.PortRegs
	Rows [4]uint8 // pin masks, row 1 first
	Cols [4]uint8 // pin masks, column 1 first
	Mode Mode
}

// DefaultConfig puts rows on PA7..PA4 and columns on PA3..PA0.
var DefaultConfig = Config{
	Port: core.PA,
	Rows: [4]uint8{1 << 7, 1 << 6, 1 << 5, 1 << 4},
	Cols: [4]uint8{1 << 3, 1 << 2, 1 << 1, 1 << 0},
	Mode: Hex,
}

// State of the debounce machine.
type State int

const (
	Start          State = core.TaskStart
	WaitKeyIn      State = 0
	WaitKeyRelease State = 1
)

// KeyEvent is the result of a read. NewPress is set only for the first
// read after a press was latched.
type KeyEvent struct {
	Key      byte
	NewPress bool
}

// Keypad holds the scan state of one keypad.
type Keypad struct {
	port core.Port
	cfg  Config

	state    State
	pending  byte // result of the previous tick's scan
	key      byte
	newPress bool

	// Settle, if set, runs between driving a column and reading the
	// rows. The PIN synchronizer needs one cycle on fast parts.
	Settle func()
}

// New returns a keypad in the Start state. Call Init before ticking.
func New(rf core.RegisterFile, cfg Config) *Keypad {
	k := &Keypad{
		port:  core.NewPort(rf, cfg.Port),
		cfg:   cfg,
		state: Start,
	}
	k.pending = k.NoKey()
	k.key = k.NoKey()
	return k
}

// Init makes the columns outputs and the rows pulled-up inputs.
func (k *Keypad) Init() {
	var rows, cols uint8
	for i := range k.cfg.Rows {
		rows |= k.cfg.Rows[i]
		cols |= k.cfg.Cols[i]
	}
	k.port.SetDirection(cols)
	k.port.Write(rows)
}

// Stop floats every pin on the port.
func (k *Keypad) Stop() {
	k.port.Reset()
}

// Mode returns the return-code mode.
func (k *Keypad) Mode() Mode {
	return k.cfg.Mode
}

// NoKey returns the sentinel for the current mode. Any mode other than
// Char scans as Hex and gets the hex sentinel.
func (k *Keypad) NoKey() byte {
	if k.cfg.Mode != Char {
		return NoKeyHex
	}
	return NoKeyChar
}

// Scan returns the first closed key in column-major, row-minor order,
// or the sentinel.
func (k *Keypad) Scan() byte {
	mode := k.cfg.Mode
	if mode > Hex {
		mode = Hex
	}
	for c, col := range k.cfg.Cols {
		k.port.Write(^col)
		if k.Settle != nil {
			k.Settle()
		}
		pins := k.port.Read()
		for r, row := range k.cfg.Rows {
			if pins&row == 0 {
				return codes[mode][c][r]
			}
		}
	}
	return k.NoKey()
}

// State returns the machine's current state.
func (k *Keypad) State() State {
	return k.state
}

// Tick advances the machine one period. Transitions look at the scan
// taken on the previous tick, and every tick ends with a fresh scan, so
// a press is latched one tick after the switch closes.
func (k *Keypad) Tick() State {
	none := k.NoKey()

	switch k.state {
	case WaitKeyIn:
		if k.pending != none {
			k.state = WaitKeyRelease
			k.key = k.pending
			k.newPress = true
			core.RecordEvent(core.EvtKeyPress, 0, uint32(k.key), 0)
		}
	case WaitKeyRelease:
		if k.pending == none {
			k.state = WaitKeyIn
		}
	default:
		k.state = WaitKeyIn
	}

	k.pending = k.Scan()
	return k.state
}

// TickFunc adapts Tick to core.Task. The state argument is ignored; the
// keypad keeps its own.
func (k *Keypad) TickFunc(state int) int {
	if state == core.TaskStart {
		k.state = Start
	}
	return int(k.Tick())
}

// Event consumes the latched press. Every call clears the latch, so a
// second read without a new press returns the sentinel.
func (k *Keypad) Event() KeyEvent {
	if !k.newPress {
		k.key = k.NoKey()
	}
	ev := KeyEvent{Key: k.key, NewPress: k.newPress}
	k.newPress = false
	return ev
}

// LastKey is Event without the flag.
func (k *Keypad) LastKey() byte {
	return k.Event().Key
}
