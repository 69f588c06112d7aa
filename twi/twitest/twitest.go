// Package twitest simulates a TWI peripheral with one slave device
// attached, for testing code built on twi.Bus.
package twitest

import (
	"avrkit/core"
	"avrkit/twi"
)

type phase uint8

const (
	idle phase = iota
	started
	writing
	reading
)

// Fake answers TWCR writes on a SimRegisters bank the way the hardware
// would, completing every operation immediately.
type Fake struct {
	Regs   *core.SimRegisters
	Layout twi.Registers

	// Address is the 7-bit address the simulated slave answers to.
	Address uint8
	// ReadData is served, in order, to master reads. It wraps around.
	ReadData []byte
	// Writes collects the payload of each completed write transaction.
	Writes [][]byte
	// Stops counts STOP conditions.
	Stops int

	// FailStep, when positive, makes the Nth TWINT-triggered operation
	// (1-based, counted across transactions, STOP included) report
	// FailStatus.
	FailStep   int
	FailStatus twi.Status
	// Stuck leaves TWINT clear after every operation.
	Stuck bool

	Steps   int
	phase   phase
	current []byte
	readPos int
}

// New attaches a fake slave at addr to a fresh register bank.
func New(layout twi.Registers, addr uint8) *Fake {
	f := &Fake{
		Regs:       core.NewSimRegisters(),
		Layout:     layout,
		Address:    addr,
		FailStatus: twi.ArbitrationLost,
	}
	f.Regs.OnWrite = f.onWrite
	return f
}

func (f *Fake) onWrite(r core.Reg, v uint8) {
	if r != f.Layout.TWCR || v&twi.TWINT == 0 {
		return
	}
	f.Steps++

	if v&twi.TWSTO != 0 {
		if f.phase == writing {
			f.finishWrite()
		}
		f.phase = idle
		f.Stops++
		f.setStatus(twi.NoInfo)
		// TWINT stays clear after STOP
		f.Regs.Poke(r, v&^twi.TWINT)
		return
	}

	status := f.step(v)
	if f.FailStep > 0 && f.Steps == f.FailStep {
		status = f.FailStatus
	}
	f.setStatus(status)
	if f.Stuck {
		f.Regs.Poke(r, v&^twi.TWINT)
		return
	}
	f.Regs.Poke(r, v|twi.TWINT)
}

func (f *Fake) step(v uint8) twi.Status {
	if v&twi.TWSTA != 0 {
		if f.phase == writing {
			f.finishWrite()
		}
		repeated := f.phase != idle
		f.phase = started
		if repeated {
			return twi.RepeatedStartSent
		}
		return twi.StartSent
	}

	switch f.phase {
	case started:
		sla := f.Regs.Peek(f.Layout.TWDR)
		read := sla&1 == 1
		if sla>>1 != f.Address {
			f.phase = idle
			if read {
				return twi.AddrReadNack
			}
			return twi.AddrWriteNack
		}
		if read {
			f.phase = reading
			return twi.AddrReadAck
		}
		f.phase = writing
		f.current = nil
		return twi.AddrWriteAck
	case writing:
		f.current = append(f.current, f.Regs.Peek(f.Layout.TWDR))
		return twi.DataSentAck
	case reading:
		var b uint8
		if len(f.ReadData) > 0 {
			b = f.ReadData[f.readPos%len(f.ReadData)]
			f.readPos++
		}
		f.Regs.Poke(f.Layout.TWDR, b)
		if v&twi.TWEA != 0 {
			return twi.DataReceivedAck
		}
		return twi.DataReceivedNack
	}
	return twi.BusError
}

func (f *Fake) finishWrite() {
	f.Writes = append(f.Writes, f.current)
	f.current = nil
}

func (f *Fake) setStatus(s twi.Status) {
	prescale := f.Regs.Peek(f.Layout.TWSR) &^ twi.StatusMask
	f.Regs.Poke(f.Layout.TWSR, uint8(s)|prescale)
}

// Reset forgets collected writes and rewinds ReadData.
func (f *Fake) Reset() {
	f.Writes = nil
	f.Stops = 0
	f.Steps = 0
	f.readPos = 0
	f.phase = idle
}
