// Package timer configures the ATmega32 timer/counters: the 8-bit
// Timer0 and Timer2 and the 16-bit Timer1.
//
// A timer starts counting as soon as a prescaler is selected and stops
// when the clock select bits are cleared.
package timer

import "avrkit/core"

// Pin is one I/O pin tied to a timer function.
type Pin struct {
	Port core.PortRegs
	Mask uint8
}

// Registers is the timer register and pin layout of one part.
type Registers struct {
	TCCR0, TCNT0, OCR0 core.Reg

	TCCR1A, TCCR1B core.Reg
	TCNT1L, TCNT1H core.Reg
	OCR1AL, OCR1AH core.Reg
	OCR1BL, OCR1BH core.Reg
	ICR1L, ICR1H   core.Reg

	TCCR2, TCNT2, OCR2, ASSR core.Reg

	TIMSK, TIFR, SFIOR core.Reg

	OC0, T0              Pin
	OC1A, OC1B, ICP1, T1 Pin
	OC2                  Pin
}

var ATmega32 = Registers{
	TCCR0: 0x53, TCNT0: 0x52, OCR0: 0x5C,

	TCCR1A: 0x4F, TCCR1B: 0x4E,
	TCNT1L: 0x4C, TCNT1H: 0x4D,
	OCR1AL: 0x4A, OCR1AH: 0x4B,
	OCR1BL: 0x48, OCR1BH: 0x49,
	ICR1L: 0x46, ICR1H: 0x47,

	TCCR2: 0x45, TCNT2: 0x44, OCR2: 0x43, ASSR: 0x42,

	TIMSK: 0x59, TIFR: 0x58, SFIOR: 0x50,

	OC0: Pin{core.PB, 1 << 3},
	T0:  Pin{core.PB, 1 << 0},

	OC1A: Pin{core.PD, 1 << 5},
	OC1B: Pin{core.PD, 1 << 4},
	ICP1: Pin{core.PD, 1 << 6},
	T1:   Pin{core.PB, 1 << 1},

	OC2: Pin{core.PD, 1 << 7},
}

// Clock select bits, common to all three timers.
const (
	CS0    = 1 << 0
	CS1    = 1 << 1
	CS2    = 1 << 2
	csMask = CS0 | CS1 | CS2
)

// TIMSK and TIFR bits.
const (
	TOIE0  = 1 << 0
	OCIE0  = 1 << 1
	TOIE1  = 1 << 2
	OCIE1B = 1 << 3
	OCIE1A = 1 << 4
	TICIE1 = 1 << 5
	TOIE2  = 1 << 6
	OCIE2  = 1 << 7

	TOV0  = 1 << 0
	OCF0  = 1 << 1
	TOV1  = 1 << 2
	OCF1B = 1 << 3
	OCF1A = 1 << 4
	ICF1  = 1 << 5
	TOV2  = 1 << 6
	OCF2  = 1 << 7
)

// SFIOR prescaler resets and the ASSR async clock bit.
const (
	PSR10 = 1 << 0
	PSR2  = 1 << 1
	AS2   = 1 << 3
)

// Prescaler selects the timer clock.
type Prescaler uint8

const (
	// PrescaleNone counts at the CPU clock.
	PrescaleNone Prescaler = iota
	Prescale8
	Prescale64
	Prescale256
	Prescale1024
	// ExternalFalling and ExternalRising count edges on the T pin.
	ExternalFalling
	ExternalRising
)

var prescalerBits = [...]uint8{
	PrescaleNone:    CS0,
	Prescale8:       CS1,
	Prescale64:      CS1 | CS0,
	Prescale256:     CS2,
	Prescale1024:    CS2 | CS0,
	ExternalFalling: CS2 | CS1,
	ExternalRising:  CS2 | CS1 | CS0,
}

var prescalerDivisors = [...]uint32{1, 8, 64, 256, 1024, 0, 0}

// Bits returns the clock select field. Unknown values select the
// undivided clock.
func (p Prescaler) Bits() uint8 {
	if int(p) >= len(prescalerBits) {
		return CS0
	}
	return prescalerBits[p]
}

// Divisor returns the clock division, or 0 for the external clocks.
func (p Prescaler) Divisor() uint32 {
	if int(p) >= len(prescalerDivisors) {
		return 1
	}
	return prescalerDivisors[p]
}

// CompareMode is the action on the OC pin at a compare match.
type CompareMode uint8

const (
	CompareNormal CompareMode = iota // pin disconnected
	CompareToggle
	CompareClear
	CompareSet
)

// comBits returns the two COM bits for the field whose low bit is lo.
func (m CompareMode) comBits(lo uint8) uint8 {
	if m > CompareSet {
		return 0
	}
	return uint8(m) << lo
}

// ResetPrescalers restarts the prescaler shared by Timer0 and Timer1.
func ResetPrescalers(rf core.RegisterFile, regs Registers) {
	core.SetBits(rf, regs.SFIOR, PSR10)
}

func configureOutput(rf core.RegisterFile, p Pin) {
	port := core.NewPort(rf, p.Port)
	port.ConfigureOutput(p.Mask)
	port.Low(p.Mask)
}

func configureInput(rf core.RegisterFile, p Pin) {
	core.NewPort(rf, p.Port).ConfigureInput(p.Mask, false)
}

func read8(rf core.RegisterFile, r core.Reg) uint8 {
	sreg := rf.Get(core.SREG)
	rf.Set(core.SREG, sreg&^core.SREGI)
	v := rf.Get(r)
	rf.Set(core.SREG, sreg)
	return v
}

func write8(rf core.RegisterFile, r core.Reg, v uint8) {
	sreg := rf.Get(core.SREG)
	rf.Set(core.SREG, sreg&^core.SREGI)
	rf.Set(r, v)
	rf.Set(core.SREG, sreg)
}
