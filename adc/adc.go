// Package adc drives the successive-approximation ADC.
package adc

import (
	"time"

	"avrkit/core"
)

// InProgress is returned by Retrieve while a conversion is running.
const InProgress = 0x7FFF

// DefaultTimeout bounds Read. A conversion takes 25 ADC clocks at most,
// about 3.2 ms at the slowest clock of a 1 MHz part.
const DefaultTimeout = 5 * time.Millisecond

// Registers is the ADC register layout of one part.
type Registers struct {
	ADMUX, ADCSRA, ADCH, ADCL core.Reg
	// Trigger holds the three ADTS bits starting at TriggerShift.
	Trigger      core.Reg
	TriggerShift uint8
}

var ATmega32 = Registers{
	ADMUX: 0x27, ADCSRA: 0x26, ADCH: 0x25, ADCL: 0x24,
	Trigger: 0x50, TriggerShift: 5, // SFIOR
}

var ATmega1284 = Registers{
	ADMUX: 0x7C, ADCSRA: 0x7A, ADCH: 0x79, ADCL: 0x78,
	Trigger: 0x7B, TriggerShift: 0, // ADCSRB
}

// ADMUX bits
const (
	REFS1 = 1 << 7
	REFS0 = 1 << 6
	ADLAR = 1 << 5
)

// ADCSRA bits
const (
	ADEN  = 1 << 7
	ADSC  = 1 << 6
	ADATE = 1 << 5
	ADIF  = 1 << 4
	ADIE  = 1 << 3
	ADPS2 = 1 << 2
	ADPS1 = 1 << 1
	ADPS0 = 1 << 0
)

// Resolution selects a right-adjusted 10-bit or left-adjusted 8-bit result.
type Resolution uint8

const (
	TenBit Resolution = iota
	EightBit
)

// Prescaler divides the CPU clock down to the ADC clock.
type Prescaler uint8

const (
	Prescale2 Prescaler = iota
	Prescale4
	Prescale8
	Prescale16
	Prescale32
	Prescale64
	Prescale128
)

var prescalerBits = [...]uint8{
	Prescale2:   0,
	Prescale4:   ADPS1,
	Prescale8:   ADPS0 | ADPS1,
	Prescale16:  ADPS2,
	Prescale32:  ADPS0 | ADPS2,
	Prescale64:  ADPS1 | ADPS2,
	Prescale128: ADPS0 | ADPS1 | ADPS2,
}

// Reference selects the conversion reference voltage.
type Reference uint8

const (
	RefAREF Reference = iota
	RefAVCC
	RefInternal
)

var referenceBits = [...]uint8{
	RefAREF:     0,
	RefAVCC:     REFS0,
	RefInternal: REFS0 | REFS1,
}

// Gain is the differential amplifier gain.
type Gain uint8

const (
	Gain1 Gain = iota
	Gain10
	Gain200
)

// TriggerSource starts a conversion when auto-triggering is on.
type TriggerSource uint8

const (
	FreeRunning TriggerSource = iota
	AnalogComparator
	ExternalInterrupt0
	Timer0Compare
	Timer0Overflow
	Timer1CompareB
	Timer1Overflow
	Timer1Capture
)

// diffRoute is one row of the differential MUX table.
type diffRoute struct {
	mux    uint8
	maxPos uint8 // positive channels above this fall back to 0
	odd    bool  // positive channel is taken mod 2 instead
	ok     bool
}

// diffRoutes[gain][negative channel]
var diffRoutes = [3][3]diffRoute{
	Gain1: {
		1: {mux: 0x10, maxPos: 7, ok: true},
		2: {mux: 0x18, maxPos: 5, ok: true},
	},
	Gain10: {
		0: {mux: 0x08, maxPos: 1, ok: true},
		2: {mux: 0x0C, odd: true, ok: true},
	},
	Gain200: {
		0: {mux: 0x0A, maxPos: 1, ok: true},
		2: {mux: 0x0E, odd: true, ok: true},
	},
}

// diffDefault is used when the negative channel has no route.
var diffDefault = [3]uint8{Gain1: 0x10, Gain10: 0x08, Gain200: 0x08}

// ADC is the converter.
type ADC struct {
	rf      core.RegisterFile
	regs    Registers
	clock   core.Clock
	Timeout time.Duration
}

// New returns an ADC bound to rf.
func New(rf core.RegisterFile, regs Registers, clock core.Clock) *ADC {
	return &ADC{rf: rf, regs: regs, clock: clock, Timeout: DefaultTimeout}
}

// SetPrescaler sets the ADC clock. Unknown values divide by 2.
func (a *ADC) SetPrescaler(p Prescaler) {
	var bits uint8
	if int(p) < len(prescalerBits) {
		bits = prescalerBits[p]
	}
	core.ModifyBits(a.rf, a.regs.ADCSRA, ADPS0|ADPS1|ADPS2, bits)
}

// SetReference selects the reference. Unknown values select AREF.
func (a *ADC) SetReference(r Reference) {
	var bits uint8
	if int(r) < len(referenceBits) {
		bits = referenceBits[r]
	}
	core.ModifyBits(a.rf, a.regs.ADMUX, REFS0|REFS1, bits)
}

// SetChannel selects a single-ended input. Channels 0-7 are the port
// pins, 8 is the bandgap and 9 is ground. Anything else selects 0.
func (a *ADC) SetChannel(ch uint8) {
	var mux uint8
	switch {
	case ch < 8:
		mux = ch
	case ch == 8:
		mux = 0x1E
	case ch == 9:
		mux = 0x1F
	}
	core.ModifyBits(a.rf, a.regs.ADMUX, 0x1F, mux)
}

// SetDifferential selects a differential pair. Pairs the hardware does
// not have fall back to the gain's first pair. The left-adjust bit is
// cleared along with the MUX field.
func (a *ADC) SetDifferential(g Gain, pos, neg uint8) {
	mux := diffDefault[Gain1]
	if int(g) < len(diffRoutes) {
		mux = diffDefault[g]
		if int(neg) < len(diffRoutes[g]) {
			if r := diffRoutes[g][neg]; r.ok {
				switch {
				case r.odd:
					pos %= 2
				case pos > r.maxPos:
					pos = 0
				}
				mux = r.mux | pos
			}
		}
	}
	core.ModifyBits(a.rf, a.regs.ADMUX, 0x3F, mux)
}

// SetAutoTrigger enables or disables auto-triggering and selects the
// source. Unknown sources mean free running.
func (a *ADC) SetAutoTrigger(on bool, src TriggerSource) {
	a.setBit(a.regs.ADCSRA, ADATE, on)
	if src > Timer1Capture {
		src = FreeRunning
	}
	shift := a.regs.TriggerShift
	core.ModifyBits(a.rf, a.regs.Trigger, 0x07<<shift, uint8(src)<<shift)
}

// EnableInterrupt enables the conversion-complete interrupt.
func (a *ADC) EnableInterrupt(on bool) {
	a.setBit(a.regs.ADCSRA, ADIE, on)
}

// Enable powers the converter. The first conversion after enabling
// takes 25 ADC clocks instead of 13.
func (a *ADC) Enable(on bool) {
	a.setBit(a.regs.ADCSRA, ADEN, on)
}

// Start begins a conversion and returns immediately.
func (a *ADC) Start(res Resolution) {
	a.setBit(a.regs.ADMUX, ADLAR, res == EightBit)
	core.SetBits(a.rf, a.regs.ADCSRA, ADSC)
}

// Busy reports whether a conversion is running.
func (a *ADC) Busy() bool {
	return core.BitsSet(a.rf, a.regs.ADCSRA, ADSC)
}

// Retrieve returns the last result, or InProgress while converting.
// res should match the one passed to Start.
func (a *ADC) Retrieve(res Resolution) uint16 {
	if a.Busy() {
		return InProgress
	}
	return a.result(res)
}

// Read converts once and waits for the result.
func (a *ADC) Read(res Resolution) (uint16, error) {
	a.Start(res)
	err := core.Poll(a.clock, a.Timeout, func() bool { return !a.Busy() })
	if err != nil {
		core.RecordEvent(core.EvtTimeout, uint8(a.regs.ADCSRA), uint32(a.Timeout/time.Microsecond), 0)
		return 0, err
	}
	return a.result(res), nil
}

func (a *ADC) result(res Resolution) uint16 {
	if res == EightBit {
		return uint16(a.rf.Get(a.regs.ADCH))
	}
	// ADCL first locks ADCH until it is read
	lo := a.rf.Get(a.regs.ADCL)
	hi := a.rf.Get(a.regs.ADCH)
	return uint16(hi)<<8 | uint16(lo)
}

func (a *ADC) setBit(r core.Reg, mask uint8, on bool) {
	if on {
		core.SetBits(a.rf, r, mask)
	} else {
		core.ClearBits(a.rf, r, mask)
	}
}
