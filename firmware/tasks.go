package firmware

import (
	"avrkit/core"
	"avrkit/lcd"
	"avrkit/protocol"
)

// Nunchuk task states.
const (
	nunchukInit    = core.TaskStart
	nunchukRequest = 0
	nunchukRead    = 1
)

// tickKeypad advances the debounce machine and forwards a new press to
// the 7-segment display and the host.
func (a *App) tickKeypad(state int) int {
	next := a.keypad.TickFunc(state)
	ev := a.keypad.Event()
	if !ev.NewPress {
		return next
	}
	a.lastKey = ev.Key
	a.dirty = true
	if k, ok := hexDigit(ev.Key); ok {
		a.seg.ShowHex(k, false)
	} else {
		a.seg.Show(a.seg.Encoder().Letter(ev.Key, false))
	}
	a.send(protocol.KeyEvent{Key: ev.Key})
	return next
}

// hexDigit maps a key code from either keypad mode onto 0-15.
func hexDigit(k byte) (uint8, bool) {
	switch {
	case k <= 0x0F:
		return k, true
	case k >= '0' && k <= '9':
		return k - '0', true
	case k >= 'A' && k <= 'D':
		return k - 'A' + 0x0A, true
	case k == '*':
		return 0x0E, true
	case k == '#':
		return 0x0F, true
	}
	return 0, false
}

// tickNunchuk wakes the controller, then alternates read requests and
// reads. Any bus failure is reported and the request is retried on the
// next period; the bus itself never retries.
func (a *App) tickNunchuk(state int) int {
	switch state {
	case nunchukInit:
		if err := a.nunchuk.Init(a.nintendo); err != nil {
			a.reportBusError(err)
			return nunchukInit
		}
		return nunchukRequest
	case nunchukRequest:
		if err := a.nunchuk.StartRead(); err != nil {
			a.reportBusError(err)
			return nunchukRequest
		}
		return nunchukRead
	}

	if err := a.nunchuk.Update(); err != nil {
		a.reportBusError(err)
		return nunchukRequest
	}
	a.send(a.nunchukState())
	if err := a.nunchuk.StartRead(); err != nil {
		a.reportBusError(err)
		return nunchukRequest
	}
	return nunchukRead
}

func (a *App) nunchukState() protocol.NunchukState {
	d := a.nunchuk
	m := protocol.NunchukState{
		JoyX:   d.JoyX(),
		JoyY:   d.JoyY(),
		AccelX: d.AccelX(),
		AccelY: d.AccelY(),
		AccelZ: d.AccelZ(),
	}
	if d.ButtonC() {
		m.Buttons |= protocol.ButtonC
	}
	if d.ButtonZ() {
		m.Buttons |= protocol.ButtonZ
	}
	return m
}

// tickRange pings once per period. A missing echo leaves the last
// reading in place.
func (a *App) tickRange(state int) int {
	mm, err := a.finder.Distance(a.board.Range.SpeedOfSound, a.prescaler, rangeUnitMM)
	if err != nil {
		return state
	}
	a.lastRange = mm
	a.haveRange = true
	a.dirty = true
	a.send(protocol.Range{MM: uint32(mm)})
	return state
}

// tickDisplay redraws the status line when something changed:
// "K:<key> R:<range><unit>".
func (a *App) tickDisplay(state int) int {
	if !a.dirty {
		return state
	}
	a.dirty = false
	a.lcd.WriteString(a.statusLine(), lcd.Left, 1)
	return state
}

func (a *App) statusLine() string {
	s := "K:"
	if a.lastKey == a.keypad.NoKey() {
		s += "-"
	} else if k, ok := hexDigit(a.lastKey); ok {
		s += string("0123456789ABCDEF"[k])
	} else {
		s += string(rune(a.lastKey))
	}
	s += " R:"
	if !a.haveRange {
		s += "-"
	} else {
		s += core.Utoa(uint32(a.unit.FromMillimeters(a.lastRange))) + a.unit.String()
	}
	for len(s) < lcd.Columns {
		s += " "
	}
	return s
}
