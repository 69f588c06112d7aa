package timer

import "avrkit/core"

// Mode8 is the waveform generation mode of Timer0 and Timer2.
type Mode8 uint8

const (
	Normal8 Mode8 = iota
	PhaseCorrectPWM8
	CTC8
	FastPWM8
)

// TCCR0/TCCR2 bits. Both timers share the layout.
const (
	WGMx0 = 1 << 6
	WGMx1 = 1 << 3
	COMx0 = 1 << 4
	COMx1 = 1 << 5
	FOCx  = 1 << 7
)

var mode8Bits = [...]uint8{
	Normal8:          0,
	PhaseCorrectPWM8: WGMx0,
	CTC8:             WGMx1,
	FastPWM8:         WGMx0 | WGMx1,
}

// Interrupt8 selects one of an 8-bit timer's interrupts.
type Interrupt8 uint8

const (
	CompareInterrupt8 Interrupt8 = iota
	OverflowInterrupt8
)

// Timer8 is Timer0 or Timer2.
type Timer8 struct {
	rf   core.RegisterFile
	regs Registers

	tccr, tcnt, ocr core.Reg
	ocie, toie      uint8
	ocf, tov        uint8
	out             Pin
	timer2          bool
}

// NewTimer0 returns Timer0.
func NewTimer0(rf core.RegisterFile, regs Registers) *Timer8 {
	return &Timer8{
		rf: rf, regs: regs,
		tccr: regs.TCCR0, tcnt: regs.TCNT0, ocr: regs.OCR0,
		ocie: OCIE0, toie: TOIE0,
		ocf: OCF0, tov: TOV0,
		out: regs.OC0,
	}
}

// NewTimer2 returns Timer2.
func NewTimer2(rf core.RegisterFile, regs Registers) *Timer8 {
	return &Timer8{
		rf: rf, regs: regs,
		tccr: regs.TCCR2, tcnt: regs.TCNT2, ocr: regs.OCR2,
		ocie: OCIE2, toie: TOIE2,
		ocf: OCF2, tov: TOV2,
		out:    regs.OC2,
		timer2: true,
	}
}

// ConfigureOutputPin makes the OC pin an output, driven low.
func (t *Timer8) ConfigureOutputPin() {
	configureOutput(t.rf, t.out)
}

// ConfigureCounterPin makes T0 a plain input for external clocking.
// Timer2 has no T pin; it uses the async oscillator instead.
func (t *Timer8) ConfigureCounterPin() {
	if t.timer2 {
		return
	}
	configureInput(t.rf, t.regs.T0)
}

// SetMode selects the waveform mode and compare output action. Unknown
// modes fall back to normal.
func (t *Timer8) SetMode(mode Mode8, com CompareMode) {
	var bits uint8
	if int(mode) < len(mode8Bits) {
		bits = mode8Bits[mode]
	}
	bits |= com.comBits(4)
	core.ModifyBits(t.rf, t.tccr, WGMx0|WGMx1|COMx0|COMx1, bits)
}

// SetPrescaler selects the clock, which starts the timer.
func (t *Timer8) SetPrescaler(p Prescaler) {
	core.ModifyBits(t.rf, t.tccr, csMask, p.Bits())
}

// Stop clears the clock select without resetting the count.
func (t *Timer8) Stop() {
	core.ClearBits(t.rf, t.tccr, csMask)
}

// SetCompare sets the output compare value.
func (t *Timer8) SetCompare(v uint8) {
	t.rf.Set(t.ocr, v)
}

// ForceCompare strobes the OC pin as on a match, without setting the flag.
func (t *Timer8) ForceCompare() {
	core.SetBits(t.rf, t.tccr, FOCx)
}

// Counter reads TCNT with interrupts masked.
func (t *Timer8) Counter() uint8 {
	return read8(t.rf, t.tcnt)
}

// SetCounter writes TCNT with interrupts masked.
func (t *Timer8) SetCounter(v uint8) {
	write8(t.rf, t.tcnt, v)
}

// EnableInterrupt sets or clears one interrupt enable.
func (t *Timer8) EnableInterrupt(i Interrupt8, on bool) {
	var mask uint8
	switch i {
	case CompareInterrupt8:
		mask = t.ocie
	case OverflowInterrupt8:
		mask = t.toie
	default:
		return
	}
	if on {
		core.SetBits(t.rf, t.regs.TIMSK, mask)
	} else {
		core.ClearBits(t.rf, t.regs.TIMSK, mask)
	}
}

// CompareMatched reports the output compare flag.
func (t *Timer8) CompareMatched() bool {
	return t.rf.Get(t.regs.TIFR)&t.ocf != 0
}

// Overflowed reports the overflow flag.
func (t *Timer8) Overflowed() bool {
	return t.rf.Get(t.regs.TIFR)&t.tov != 0
}

// ClearFlags clears the compare and overflow flags by writing ones.
func (t *Timer8) ClearFlags() {
	t.rf.Set(t.regs.TIFR, t.ocf|t.tov)
}

// ResetPrescaler restarts this timer's prescaler. Timer0 shares it with
// Timer1.
func (t *Timer8) ResetPrescaler() {
	if t.timer2 {
		core.SetBits(t.rf, t.regs.SFIOR, PSR2)
		return
	}
	ResetPrescalers(t.rf, t.regs)
}

// EnableExternalClock clocks Timer2 from the TOSC crystal. No effect on
// Timer0.
func (t *Timer8) EnableExternalClock(on bool) {
	if !t.timer2 {
		return
	}
	if on {
		core.SetBits(t.rf, t.regs.ASSR, AS2)
	} else {
		core.ClearBits(t.rf, t.regs.ASSR, AS2)
	}
}
