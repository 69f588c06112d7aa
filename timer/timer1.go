package timer

import "avrkit/core"

// Mode1 is a Timer1 waveform generation mode.
type Mode1 uint8

const (
	Normal1 Mode1 = iota
	CTCOCR1
	CTCICR1
	FastPWM8Bit
	FastPWM9Bit
	FastPWM10Bit
	FastPWMOCR
	FastPWMICR
	PhaseCorrectPWM8Bit
	PhaseCorrectPWM9Bit
	PhaseCorrectPWM10Bit
	PhaseCorrectPWMOCR
	PhaseCorrectPWMICR
	PhaseFreqCorrectPWMOCR
	PhaseFreqCorrectPWMICR
)

// TCCR1A bits
const (
	WGM10  = 1 << 0
	WGM11  = 1 << 1
	FOC1B  = 1 << 2
	FOC1A  = 1 << 3
	COM1B0 = 1 << 4
	COM1B1 = 1 << 5
	COM1A0 = 1 << 6
	COM1A1 = 1 << 7
)

// TCCR1B bits
const (
	WGM12 = 1 << 3
	WGM13 = 1 << 4
	ICES1 = 1 << 6
	ICNC1 = 1 << 7
)

// mode1Bits[mode] = {TCCR1A WGM bits, TCCR1B WGM bits}
var mode1Bits = [...][2]uint8{
	Normal1:                {0, 0},
	CTCOCR1:                {0, WGM12},
	CTCICR1:                {0, WGM12 | WGM13},
	FastPWM8Bit:            {WGM10, WGM12},
	FastPWM9Bit:            {WGM11, WGM12},
	FastPWM10Bit:           {WGM10 | WGM11, WGM12},
	FastPWMOCR:             {WGM11, WGM12 | WGM13},
	FastPWMICR:             {WGM10 | WGM11, WGM12 | WGM13},
	PhaseCorrectPWM8Bit:    {WGM10, 0},
	PhaseCorrectPWM9Bit:    {WGM11, 0},
	PhaseCorrectPWM10Bit:   {WGM10 | WGM11, 0},
	PhaseCorrectPWMOCR:     {WGM10 | WGM11, WGM13},
	PhaseCorrectPWMICR:     {WGM11, WGM13},
	PhaseFreqCorrectPWMOCR: {WGM10, WGM13},
	PhaseFreqCorrectPWMICR: {0, WGM13},
}

// Channel names one of the two compare units.
type Channel byte

const (
	ChannelA Channel = 'A'
	ChannelB Channel = 'B'
)

// Edge selects the input capture trigger.
type Edge uint8

const (
	Rising Edge = iota
	Falling
)

// Interrupt1 selects one of Timer1's interrupts.
type Interrupt1 uint8

const (
	CaptureInterrupt Interrupt1 = iota
	CompareAInterrupt
	CompareBInterrupt
	OverflowInterrupt1
)

var interrupt1Bits = [...]uint8{TICIE1, OCIE1A, OCIE1B, TOIE1}

// Timer1 is the 16-bit timer with input capture.
type Timer1 struct {
	rf   core.RegisterFile
	regs Registers
}

// NewTimer1 returns Timer1.
func NewTimer1(rf core.RegisterFile, regs Registers) *Timer1 {
	return &Timer1{rf: rf, regs: regs}
}

// ConfigureOutputPin makes OC1A or OC1B an output, driven low.
func (t *Timer1) ConfigureOutputPin(ch Channel) {
	switch ch {
	case ChannelA:
		configureOutput(t.rf, t.regs.OC1A)
	case ChannelB:
		configureOutput(t.rf, t.regs.OC1B)
	}
}

// ConfigureCapturePin makes ICP1 an input without pull-up.
func (t *Timer1) ConfigureCapturePin() {
	configureInput(t.rf, t.regs.ICP1)
}

// ConfigureCounterPin makes T1 an input for external clocking.
func (t *Timer1) ConfigureCounterPin() {
	configureInput(t.rf, t.regs.T1)
}

// SetMode selects the waveform mode and both compare output actions.
func (t *Timer1) SetMode(mode Mode1, comA, comB CompareMode) {
	var bits [2]uint8
	if int(mode) < len(mode1Bits) {
		bits = mode1Bits[mode]
	}
	a := bits[0] | comA.comBits(6) | comB.comBits(4)
	core.ModifyBits(t.rf, t.regs.TCCR1A, COM1A0|COM1A1|COM1B0|COM1B1|WGM10|WGM11, a)
	core.ModifyBits(t.rf, t.regs.TCCR1B, WGM12|WGM13, bits[1])
}

// SetPrescaler selects the clock, which starts the timer.
func (t *Timer1) SetPrescaler(p Prescaler) {
	core.ModifyBits(t.rf, t.regs.TCCR1B, csMask, p.Bits())
}

// Stop clears the clock select without resetting the count.
func (t *Timer1) Stop() {
	core.ClearBits(t.rf, t.regs.TCCR1B, csMask)
}

// SetCompare sets OCR1A or OCR1B.
func (t *Timer1) SetCompare(ch Channel, v uint16) {
	switch ch {
	case ChannelA:
		core.Write16Atomic(t.rf, t.regs.OCR1AL, t.regs.OCR1AH, v)
	case ChannelB:
		core.Write16Atomic(t.rf, t.regs.OCR1BL, t.regs.OCR1BH, v)
	}
}

// ForceCompare strobes OC1A or OC1B as on a match.
func (t *Timer1) ForceCompare(ch Channel) {
	switch ch {
	case ChannelA:
		core.SetBits(t.rf, t.regs.TCCR1A, FOC1A)
	case ChannelB:
		core.SetBits(t.rf, t.regs.TCCR1A, FOC1B)
	}
}

// Counter reads TCNT1 atomically.
func (t *Timer1) Counter() uint16 {
	return core.Read16Atomic(t.rf, t.regs.TCNT1L, t.regs.TCNT1H)
}

// SetCounter writes TCNT1 atomically.
func (t *Timer1) SetCounter(v uint16) {
	core.Write16Atomic(t.rf, t.regs.TCNT1L, t.regs.TCNT1H, v)
}

// InputCapture reads ICR1 atomically.
func (t *Timer1) InputCapture() uint16 {
	return core.Read16Atomic(t.rf, t.regs.ICR1L, t.regs.ICR1H)
}

// SetEdge selects which ICP1 edge captures. Unknown values mean rising.
func (t *Timer1) SetEdge(e Edge) {
	if e == Falling {
		core.ClearBits(t.rf, t.regs.TCCR1B, ICES1)
		return
	}
	core.SetBits(t.rf, t.regs.TCCR1B, ICES1)
}

// SetNoiseFilter turns the input capture noise canceller on or off.
// It delays capture by four clocks.
func (t *Timer1) SetNoiseFilter(on bool) {
	if on {
		core.SetBits(t.rf, t.regs.TCCR1B, ICNC1)
	} else {
		core.ClearBits(t.rf, t.regs.TCCR1B, ICNC1)
	}
}

// EnableInterrupt sets or clears one interrupt enable.
func (t *Timer1) EnableInterrupt(i Interrupt1, on bool) {
	if int(i) >= len(interrupt1Bits) {
		return
	}
	if on {
		core.SetBits(t.rf, t.regs.TIMSK, interrupt1Bits[i])
	} else {
		core.ClearBits(t.rf, t.regs.TIMSK, interrupt1Bits[i])
	}
}

// Captured reports the input capture flag.
func (t *Timer1) Captured() bool {
	return t.rf.Get(t.regs.TIFR)&ICF1 != 0
}

// ClearCapture clears ICF1 by writing a one to it.
func (t *Timer1) ClearCapture() {
	t.rf.Set(t.regs.TIFR, ICF1)
}

// Flag reports any Timer1 flag bit in TIFR.
func (t *Timer1) Flag(mask uint8) bool {
	return t.rf.Get(t.regs.TIFR)&mask != 0
}

// ClearFlag clears the given TIFR bits.
func (t *Timer1) ClearFlag(mask uint8) {
	t.rf.Set(t.regs.TIFR, mask)
}
