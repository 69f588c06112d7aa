// Package spi drives the SPI peripheral as master or slave.
//
// The hardware SS pin only decides master/slave arbitration. Chip select
// for an attached slave goes through a separate select pin driven by
// Begin and End.
package spi

import (
	"errors"
	"time"

	"avrkit/core"
)

// ErrLengthMismatch is returned by Tx when both buffers are given with
// different lengths.
var ErrLengthMismatch = errors.New("spi: tx and rx lengths differ")

// DefaultTimeout bounds each byte. At the slowest clock (f/128 of 1 MHz)
// a byte takes about 1 ms.
const DefaultTimeout = 2 * time.Millisecond

// Registers is the SPI register and pin layout of one part.
type Registers struct {
	SPCR, SPSR, SPDR core.Reg

	Port                core.PortRegs
	SCK, MISO, MOSI, SS uint8
}

var ATmega32 = Registers{
	SPCR: 0x2D, SPSR: 0x2E, SPDR: 0x2F,
	Port: core.PB,
	SCK:  1 << 7, MISO: 1 << 6, MOSI: 1 << 5, SS: 1 << 4,
}

var ATmega1284 = Registers{
	SPCR: 0x4C, SPSR: 0x4D, SPDR: 0x4E,
	Port: core.PB1284,
	SCK:  1 << 7, MISO: 1 << 6, MOSI: 1 << 5, SS: 1 << 4,
}

// SPCR bits
const (
	SPIE = 1 << 7
	SPE  = 1 << 6
	DORD = 1 << 5
	MSTR = 1 << 4
	CPOL = 1 << 3
	CPHA = 1 << 2
	SPR1 = 1 << 1
	SPR0 = 1 << 0
)

// SPSR bits
const (
	SPIF  = 1 << 7
	WCOL  = 1 << 6
	SPI2X = 1 << 0
)

// Prescaler divides the CPU clock down to SCK.
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

// prescalerBits[p] = {SPCR rate bits, SPSR double-speed bit}
var prescalerBits = [...][2]uint8{
	Prescale2:   {0, SPI2X},
	Prescale4:   {0, 0},
	Prescale8:   {SPR0, SPI2X},
	Prescale16:  {SPR0, 0},
	Prescale32:  {SPR1, SPI2X},
	Prescale64:  {SPR1, 0},
	Prescale128: {SPR1 | SPR0, 0},
}

// BitOrder selects which end of each byte goes first.
type BitOrder uint8

const (
	MSBFirst BitOrder = iota
	LSBFirst
)

// Mode is the clock polarity and phase, 0 to 3.
type Mode uint8

var modeBits = [...]uint8{0, CPHA, CPOL, CPOL | CPHA}

// Select is the chip select line for the attached slave.
type Select struct {
	Port core.PortRegs
	Mask uint8
}

// AltSelect is the PC1 select line.
var (
	AltSelect     = Select{Port: core.PC, Mask: 1 << 1}
	AltSelect1284 = Select{Port: core.PC1284, Mask: 1 << 1}
)

// SPI is one SPI unit.
type SPI struct {
	rf      core.RegisterFile
	regs    Registers
	sel     Select
	clock   core.Clock
	Timeout time.Duration
}

// New returns an SPI bound to rf, with sel as the slave select line.
func New(rf core.RegisterFile, regs Registers, sel Select, clock core.Clock) *SPI {
	return &SPI{rf: rf, regs: regs, sel: sel, clock: clock, Timeout: DefaultTimeout}
}

// InitSlave configures the unit to be clocked by another master.
func (s *SPI) InitSlave() {
	core.NewPort(s.rf, s.regs.Port).ConfigureInput(s.regs.MOSI|s.regs.SCK|s.regs.SS, false)
	core.ModifyBits(s.rf, s.regs.SPCR, MSTR, SPE)
}

// InitMaster configures the unit as master. With allowSlaveSwitch the
// SS pin stays an input and a low level on it demotes the unit to slave.
// Both SS and the select line idle high.
func (s *SPI) InitMaster(allowSlaveSwitch bool, p Prescaler) {
	port := core.NewPort(s.rf, s.regs.Port)
	sel := core.NewPort(s.rf, s.sel.Port)
	if allowSlaveSwitch {
		core.ClearBits(s.rf, s.regs.Port.DDR, s.regs.SS)
	} else {
		port.ConfigureOutput(s.regs.SS)
		sel.ConfigureOutput(s.sel.Mask)
	}
	port.ConfigureOutput(s.regs.MOSI | s.regs.SCK)
	core.ClearBits(s.rf, s.regs.Port.DDR, s.regs.MISO)
	port.High(s.regs.SS)
	sel.High(s.sel.Mask)
	core.SetBits(s.rf, s.regs.SPCR, MSTR|SPE)
	s.SetPrescaler(p)
}

// SetPrescaler sets the SCK rate. Unknown values divide by 4.
func (s *SPI) SetPrescaler(p Prescaler) {
	bits := prescalerBits[Prescale4]
	if int(p) < len(prescalerBits) {
		bits = prescalerBits[p]
	}
	core.ModifyBits(s.rf, s.regs.SPCR, SPR1|SPR0, bits[0])
	core.ModifyBits(s.rf, s.regs.SPSR, SPI2X, bits[1])
}

// SetMode sets clock polarity and phase.
func (s *SPI) SetMode(m Mode) {
	core.ModifyBits(s.rf, s.regs.SPCR, CPOL|CPHA, modeBits[m&3])
}

// SetBitOrder selects MSB or LSB first.
func (s *SPI) SetBitOrder(o BitOrder) {
	if o == LSBFirst {
		core.SetBits(s.rf, s.regs.SPCR, DORD)
	} else {
		core.ClearBits(s.rf, s.regs.SPCR, DORD)
	}
}

// EnableInterrupt enables the transfer-complete interrupt.
func (s *SPI) EnableInterrupt(on bool) {
	if on {
		core.SetBits(s.rf, s.regs.SPCR, SPIE)
	} else {
		core.ClearBits(s.rf, s.regs.SPCR, SPIE)
	}
}

// Disable turns the unit off.
func (s *SPI) Disable() {
	core.ClearBits(s.rf, s.regs.SPCR, SPE)
}

// TransferComplete reports SPIF.
func (s *SPI) TransferComplete() bool {
	return core.BitsSet(s.rf, s.regs.SPSR, SPIF)
}

// Collision reports a write to SPDR during a transfer.
func (s *SPI) Collision() bool {
	return core.BitsSet(s.rf, s.regs.SPSR, WCOL)
}

// Begin pulls the select line low.
func (s *SPI) Begin() {
	core.ClearBits(s.rf, s.sel.Port.PORT, s.sel.Mask)
}

// End releases the select line.
func (s *SPI) End() {
	core.SetBits(s.rf, s.sel.Port.PORT, s.sel.Mask)
}

func (s *SPI) wait() error {
	err := core.Poll(s.clock, s.Timeout, s.TransferComplete)
	if err != nil {
		core.RecordEvent(core.EvtTimeout, uint8(s.regs.SPSR), uint32(s.Timeout/time.Microsecond), 0)
	}
	return err
}

// Transfer shifts one byte out and returns the byte shifted in.
func (s *SPI) Transfer(b byte) (byte, error) {
	s.rf.Set(s.regs.SPDR, b)
	if err := s.wait(); err != nil {
		return 0, err
	}
	// reading SPDR after SPSR clears SPIF
	return s.rf.Get(s.regs.SPDR), nil
}

// WriteByte sends one byte and discards the reply.
func (s *SPI) WriteByte(b byte) error {
	_, err := s.Transfer(b)
	return err
}

// WriteUint16 sends v MSB first.
func (s *SPI) WriteUint16(v uint16) error {
	if err := s.WriteByte(byte(v >> 8)); err != nil {
		return err
	}
	return s.WriteByte(byte(v))
}

// WriteUint32 sends v MSB first.
func (s *SPI) WriteUint32(v uint32) error {
	for shift := 24; shift >= 0; shift -= 8 {
		if err := s.WriteByte(byte(v >> uint(shift))); err != nil {
			return err
		}
	}
	return nil
}

// Write sends p in order. It implements io.Writer.
func (s *SPI) Write(p []byte) (int, error) {
	for i, b := range p {
		if err := s.WriteByte(b); err != nil {
			return i, err
		}
	}
	return len(p), nil
}

// WriteString sends str up to the first NUL, if any.
func (s *SPI) WriteString(str string) (int, error) {
	for i := 0; i < len(str); i++ {
		if str[i] == 0 {
			return i, nil
		}
		if err := s.WriteByte(str[i]); err != nil {
			return i, err
		}
	}
	return len(str), nil
}

// Receive waits for a byte clocked in by the master.
func (s *SPI) Receive() (byte, error) {
	if err := s.wait(); err != nil {
		return 0, err
	}
	return s.rf.Get(s.regs.SPDR), nil
}
