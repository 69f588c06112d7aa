package spi

import (
	"bytes"
	"errors"
	"testing"

	"avrkit/core"
)

// loopback answers every byte with its complement after completing the
// transfer, unless stuck.
type loopback struct {
	rf    *core.SimRegisters
	sent  []byte
	stuck bool
}

func newLoopback() (*SPI, *loopback) {
	l := &loopback{rf: core.NewSimRegisters()}
	r := ATmega32
	l.rf.OnWrite = func(reg core.Reg, v uint8) {
		if reg != r.SPDR || l.stuck {
			return
		}
		l.sent = append(l.sent, v)
		l.rf.Poke(r.SPDR, ^v)
		l.rf.Poke(r.SPSR, l.rf.Peek(r.SPSR)|SPIF)
	}
	l.rf.OnRead = func(reg core.Reg, stored uint8) uint8 {
		if reg == r.SPDR {
			l.rf.Poke(r.SPSR, l.rf.Peek(r.SPSR)&^SPIF)
		}
		return stored
	}
	return New(l.rf, ATmega32, AltSelect, &core.FakeClock{Step: 100}), l
}

func TestPrescaler(t *testing.T) {
	tests := []struct {
		p          Prescaler
		spcr, spsr uint8
	}{
		{Prescale2, 0, SPI2X},
		{Prescale4, 0, 0},
		{Prescale8, SPR0, SPI2X},
		{Prescale16, SPR0, 0},
		{Prescale32, SPR1, SPI2X},
		{Prescale64, SPR1, 0},
		{Prescale128, SPR1 | SPR0, 0},
		{Prescaler(11), 0, 0},
	}
	for _, tt := range tests {
		s, l := newLoopback()
		l.rf.Poke(ATmega32.SPCR, SPE|MSTR|SPR1|SPR0)
		l.rf.Poke(ATmega32.SPSR, SPI2X)
		s.SetPrescaler(tt.p)
		if got := l.rf.Peek(ATmega32.SPCR); got != SPE|MSTR|tt.spcr {
			t.Errorf("prescaler %d: SPCR = %08b", tt.p, got)
		}
		if got := l.rf.Peek(ATmega32.SPSR); got != tt.spsr {
			t.Errorf("prescaler %d: SPSR = %08b", tt.p, got)
		}
	}
}

func TestInitMasterATmega1284Pins(t *testing.T) {
	rf := core.NewSimRegisters()
	s := New(rf, ATmega1284, AltSelect1284, &core.FakeClock{Step: 100})
	s.InitMaster(false, Prescale16)

	if got := rf.Peek(core.PB1284.DDR); got != 1<<7|1<<5|1<<4 {
		t.Errorf("DDRB = %08b, want SCK, MOSI, SS out", got)
	}
	if rf.Peek(core.PC1284.DDR) != 1<<1 {
		t.Error("select line not an output on PORTC")
	}
	if len(rf.Writes(core.PB.DDR)) != 0 || len(rf.Writes(core.PB.PORT)) != 0 {
		t.Error("ATmega32 PORTB addresses written on the 1284")
	}
	if got := rf.Peek(ATmega1284.SPCR); got != MSTR|SPE|SPR0 {
		t.Errorf("SPCR = %08b", got)
	}
}

func TestInitMaster(t *testing.T) {
	s, l := newLoopback()
	l.rf.Poke(core.PB.DDR, 1<<6)
	s.InitMaster(false, Prescale16)

	if got := l.rf.Peek(core.PB.DDR); got != 1<<7|1<<5|1<<4 {
		t.Errorf("DDRB = %08b, want SCK, MOSI, SS out and MISO in", got)
	}
	if got := l.rf.Peek(core.PB.PORT); got != 1<<4 {
		t.Errorf("PORTB = %08b, want SS high", got)
	}
	if l.rf.Peek(core.PC.DDR) != 1<<1 || l.rf.Peek(core.PC.PORT) != 1<<1 {
		t.Error("select line not an idle-high output")
	}
	if got := l.rf.Peek(ATmega32.SPCR); got != MSTR|SPE|SPR0 {
		t.Errorf("SPCR = %08b", got)
	}
}

func TestInitMasterAllowSlaveSwitch(t *testing.T) {
	s, l := newLoopback()
	l.rf.Poke(core.PB.DDR, 1<<4)
	s.InitMaster(true, Prescale4)
	if l.rf.Peek(core.PB.DDR)&(1<<4) != 0 {
		t.Error("SS should stay an input")
	}
	if l.rf.Peek(core.PC.DDR) != 0 {
		t.Error("select line direction changed")
	}
}

func TestInitSlave(t *testing.T) {
	s, l := newLoopback()
	l.rf.Poke(core.PB.DDR, 0xFF)
	l.rf.Poke(ATmega32.SPCR, MSTR)
	s.InitSlave()
	if got := l.rf.Peek(core.PB.DDR); got != 0xFF&^(1<<7|1<<5|1<<4) {
		t.Errorf("DDRB = %08b", got)
	}
	if got := l.rf.Peek(ATmega32.SPCR); got != SPE {
		t.Errorf("SPCR = %08b, want SPE only", got)
	}
}

func TestControlBits(t *testing.T) {
	s, l := newLoopback()
	s.SetMode(3)
	s.SetBitOrder(LSBFirst)
	s.EnableInterrupt(true)
	if got := l.rf.Peek(ATmega32.SPCR); got != CPOL|CPHA|DORD|SPIE {
		t.Errorf("SPCR = %08b", got)
	}
	s.SetMode(1)
	s.SetBitOrder(MSBFirst)
	s.EnableInterrupt(false)
	if got := l.rf.Peek(ATmega32.SPCR); got != CPHA {
		t.Errorf("SPCR = %08b, want CPHA", got)
	}
	l.rf.Poke(ATmega32.SPCR, SPE|MSTR)
	s.Disable()
	if got := l.rf.Peek(ATmega32.SPCR); got != MSTR {
		t.Errorf("SPCR after Disable = %08b", got)
	}
}

func TestSelectLine(t *testing.T) {
	s, l := newLoopback()
	s.InitMaster(false, Prescale4)
	s.Begin()
	if l.rf.Peek(core.PC.PORT)&(1<<1) != 0 {
		t.Error("Begin left select high")
	}
	s.End()
	if l.rf.Peek(core.PC.PORT)&(1<<1) == 0 {
		t.Error("End left select low")
	}
}

func TestTransfer(t *testing.T) {
	s, _ := newLoopback()
	got, err := s.Transfer(0x5A)
	if err != nil {
		t.Fatal(err)
	}
	if got != 0xA5 {
		t.Errorf("Transfer = 0x%02X, want 0xA5", got)
	}
	if s.TransferComplete() {
		t.Error("SPIF not cleared by reading SPDR")
	}
}

func TestWriteHelpers(t *testing.T) {
	s, l := newLoopback()
	if err := s.WriteUint16(0x1234); err != nil {
		t.Fatal(err)
	}
	if err := s.WriteUint32(0xA1B2C3D4); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Write([]byte{9, 8}); err != nil {
		t.Fatal(err)
	}
	n, err := s.WriteString("hi\x00there")
	if err != nil || n != 2 {
		t.Fatalf("WriteString = %d, %v", n, err)
	}
	want := []byte{0x12, 0x34, 0xA1, 0xB2, 0xC3, 0xD4, 9, 8, 'h', 'i'}
	if !bytes.Equal(l.sent, want) {
		t.Errorf("sent % X, want % X", l.sent, want)
	}
}

func TestTimeout(t *testing.T) {
	s, l := newLoopback()
	l.stuck = true
	if _, err := s.Transfer(1); !errors.Is(err, core.ErrTimeout) {
		t.Errorf("Transfer err = %v, want timeout", err)
	}
	n, err := s.Write([]byte{1, 2, 3})
	if n != 0 || !errors.Is(err, core.ErrTimeout) {
		t.Errorf("Write = %d, %v", n, err)
	}
	if _, err := s.Receive(); !errors.Is(err, core.ErrTimeout) {
		t.Errorf("Receive err = %v", err)
	}
}

func TestReceive(t *testing.T) {
	s, l := newLoopback()
	l.rf.Poke(ATmega32.SPDR, 0x42)
	l.rf.Poke(ATmega32.SPSR, SPIF)
	got, err := s.Receive()
	if err != nil || got != 0x42 {
		t.Errorf("Receive = 0x%02X, %v", got, err)
	}
}

func TestTx(t *testing.T) {
	s, l := newLoopback()
	r := make([]byte, 3)
	if err := s.Tx([]byte{0x00, 0x0F, 0xF0}, r); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(r, []byte{0xFF, 0xF0, 0x0F}) {
		t.Errorf("r = % X", r)
	}

	l.sent = nil
	r = make([]byte, 2)
	if err := s.Tx(nil, r); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(l.sent, []byte{0, 0}) || !bytes.Equal(r, []byte{0xFF, 0xFF}) {
		t.Errorf("read-only Tx sent % X got % X", l.sent, r)
	}

	if err := s.Tx([]byte{1}, nil); err != nil {
		t.Fatal(err)
	}
	if err := s.Tx([]byte{1, 2}, make([]byte, 1)); !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("err = %v, want length mismatch", err)
	}
}
