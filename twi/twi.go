// Package twi drives the AVR two-wire serial interface as a bus master.
//
// Every primitive that moves the bus forward must be followed by
// WaitUntilIdle and ConfirmStatus (or the Expect shorthand). The package
// never retries: when a step reports an unexpected status the caller
// gets a *StatusError and decides what to do. The next transaction
// begins with a fresh START, which is how the bus is recovered.
package twi

import (
	"errors"
	"time"

	"avrkit/core"
)

// Registers is the TWI register layout of one part.
type Registers struct {
	TWBR  core.Reg
	TWSR  core.Reg
	TWAR  core.Reg
	TWDR  core.Reg
	TWCR  core.Reg
	TWAMR core.Reg // zero on parts without address masking
}

var (
	ATmega32   = Registers{TWBR: 0x20, TWSR: 0x21, TWAR: 0x22, TWDR: 0x23, TWCR: 0x56}
	ATmega1284 = Registers{TWBR: 0xB8, TWSR: 0xB9, TWAR: 0xBA, TWDR: 0xBB, TWCR: 0xBC, TWAMR: 0xBD}
)

// TWCR bits
const (
	TWINT = 1 << 7
	TWEA  = 1 << 6
	TWSTA = 1 << 5
	TWSTO = 1 << 4
	TWWC  = 1 << 3
	TWEN  = 1 << 2
	TWIE  = 1 << 0
)

// TWSR prescaler bits and the TWAR general call enable.
const (
	TWPS1 = 1 << 1
	TWPS0 = 1 << 0
	TWGCE = 1 << 0
)

// Direction is the R/W bit appended to a slave address.
type Direction uint8

const (
	Write Direction = 0
	Read  Direction = 1
)

// Prescaler divides the bit rate generator clock.
type Prescaler uint8

const (
	PrescaleOne Prescaler = iota
	Prescale4
	Prescale16
	Prescale64
)

var prescalerBits = [...]uint8{
	PrescaleOne: 0,
	Prescale4:   TWPS0,
	Prescale16:  TWPS1,
	Prescale64:  TWPS0 | TWPS1,
}

var prescalerDivisors = [...]uint32{1, 4, 16, 64}

// Divisor returns 1, 4, 16 or 64. Unknown values divide by 1.
func (p Prescaler) Divisor() uint32 {
	if int(p) >= len(prescalerDivisors) {
		return 1
	}
	return prescalerDivisors[p]
}

// DefaultTimeout bounds each wait on TWINT. A byte at 100 kHz takes
// about 90us, so this only trips on a wedged bus.
const DefaultTimeout = 5 * time.Millisecond

var ErrUnexpectedStatus = errors.New("twi: unexpected status")

// StatusError reports the step that saw an unexpected status.
type StatusError struct {
	Step string
	Want Status
	Got  Status
}

func (e *StatusError) Error() string {
	return "twi: " + e.Step + ": want " + e.Want.String() + ", got " + e.Got.String()
}

// Is makes errors.Is(err, ErrUnexpectedStatus) match.
func (e *StatusError) Is(target error) bool {
	return target == ErrUnexpectedStatus
}

// Bus is one TWI peripheral.
type Bus struct {
	rf    core.RegisterFile
	regs  Registers
	clock core.Clock

	// Timeout bounds every wait for TWINT. Zero waits forever.
	Timeout time.Duration
}

// New returns a bus using DefaultTimeout.
func New(rf core.RegisterFile, regs Registers, clock core.Clock) *Bus {
	return &Bus{
		rf:      rf,
		regs:    regs,
		clock:   clock,
		Timeout: DefaultTimeout,
	}
}

// Init sets the bit rate. SCL = F_CPU / (16 + 2*bitRate*prescaler).
// An unknown prescaler leaves the clock undivided.
func (b *Bus) Init(p Prescaler, bitRate uint8) {
	var bits uint8
	if int(p) < len(prescalerBits) {
		bits = prescalerBits[p]
	}
	b.rf.Set(b.regs.TWSR, b.rf.Get(b.regs.TWSR)&StatusMask|bits)
	b.rf.Set(b.regs.TWBR, bitRate)
}

// SCLFrequency computes the bus clock from the current settings.
func (b *Bus) SCLFrequency(cpuHz uint32) uint32 {
	p := Prescaler(b.rf.Get(b.regs.TWSR) & (TWPS1 | TWPS0))
	return cpuHz / (16 + 2*uint32(b.rf.Get(b.regs.TWBR))*p.Divisor())
}

// Disable turns the peripheral off and releases SDA and SCL.
func (b *Bus) Disable() {
	core.ClearBits(b.rf, b.regs.TWCR, TWEN)
}

// SetOwnAddress sets the slave address this node answers to.
func (b *Bus) SetOwnAddress(addr uint8, generalCall bool) {
	v := addr << 1
	if generalCall {
		v |= TWGCE
	}
	b.rf.Set(b.regs.TWAR, v)
}

// MaskOwnAddress ignores the masked address bits when matching.
// It does nothing on parts without TWAMR.
func (b *Bus) MaskOwnAddress(mask uint8) {
	if b.regs.TWAMR == 0 {
		return
	}
	b.rf.Set(b.regs.TWAMR, mask<<1)
}

// SendStart requests a START (or repeated START).
func (b *Bus) SendStart() {
	b.rf.Set(b.regs.TWCR, TWSTA|TWINT|TWEN)
}

// SendStop releases the bus. TWINT is not set after a STOP.
func (b *Bus) SendStop() {
	b.rf.Set(b.regs.TWCR, TWSTO|TWINT|TWEN)
}

// AddressSlave sends SLA+R/W.
func (b *Bus) AddressSlave(addr uint8, dir Direction) {
	b.rf.Set(b.regs.TWDR, addr<<1|uint8(dir&1))
	b.rf.Set(b.regs.TWCR, TWINT|TWEA|TWEN)
}

// TransmitByte sends one data byte.
func (b *Bus) TransmitByte(data uint8) {
	b.rf.Set(b.regs.TWDR, data)
	b.rf.Set(b.regs.TWCR, TWINT|TWEN)
}

// Acknowledge clears TWINT with TWEA set. In master receive this clocks
// in the next byte and ACKs it; in slave mode it keeps the node
// addressable.
func (b *Bus) Acknowledge() {
	b.rf.Set(b.regs.TWCR, TWINT|TWEA|TWEN)
}

// ReceiveAck returns the byte in TWDR and requests the next one with ACK.
func (b *Bus) ReceiveAck() uint8 {
	data := b.rf.Get(b.regs.TWDR)
	b.rf.Set(b.regs.TWCR, TWINT|TWEA|TWEN)
	return data
}

// ReceiveNack returns the byte in TWDR and requests the next one with NACK,
// which tells the slave it is the last.
func (b *Bus) ReceiveNack() uint8 {
	data := b.rf.Get(b.regs.TWDR)
	b.rf.Set(b.regs.TWCR, TWINT|TWEN)
	return data
}

// Data returns TWDR without touching the control register.
func (b *Bus) Data() uint8 {
	return b.rf.Get(b.regs.TWDR)
}

// IsBusy reports whether the current operation is still in progress.
func (b *Bus) IsBusy() bool {
	return b.rf.Get(b.regs.TWCR)&TWINT == 0
}

// WaitUntilIdle polls TWINT until the operation completes.
func (b *Bus) WaitUntilIdle() error {
	err := core.Poll(b.clock, b.Timeout, func() bool { return !b.IsBusy() })
	if err != nil {
		core.RecordEvent(core.EvtTimeout, 0, uint32(b.regs.TWCR), 0)
	}
	return err
}

// Status returns the masked status code.
func (b *Bus) Status() Status {
	return Status(b.rf.Get(b.regs.TWSR) & StatusMask)
}

// ConfirmStatus reports whether the bus is in the expected state.
func (b *Bus) ConfirmStatus(want Status) bool {
	return b.Status() == want
}

// Expect waits for the operation to finish and checks its status.
func (b *Bus) Expect(step string, want Status) error {
	if err := b.WaitUntilIdle(); err != nil {
		return err
	}
	if got := b.Status(); got != want {
		core.RecordEvent(core.EvtBusAbort, uint8(want), uint32(want), uint32(got))
		return &StatusError{Step: step, Want: want, Got: got}
	}
	return nil
}
