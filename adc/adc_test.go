package adc

import (
	"errors"
	"testing"

	"avrkit/core"
)

func newADC() (*ADC, *core.SimRegisters) {
	rf := core.NewSimRegisters()
	return New(rf, ATmega32, &core.FakeClock{Step: 100}), rf
}

func TestPrescaler(t *testing.T) {
	tests := []struct {
		p    Prescaler
		want uint8
	}{
		{Prescale2, 0},
		{Prescale4, 0b010},
		{Prescale8, 0b011},
		{Prescale16, 0b100},
		{Prescale32, 0b101},
		{Prescale64, 0b110},
		{Prescale128, 0b111},
		{Prescaler(99), 0},
	}
	for _, tt := range tests {
		a, rf := newADC()
		rf.Poke(ATmega32.ADCSRA, ADEN|0b111)
		a.SetPrescaler(tt.p)
		if got := rf.Peek(ATmega32.ADCSRA); got != ADEN|tt.want {
			t.Errorf("prescaler %d: ADCSRA = %08b, want %08b", tt.p, got, ADEN|tt.want)
		}
	}
}

func TestReference(t *testing.T) {
	tests := []struct {
		r    Reference
		want uint8
	}{
		{RefAREF, 0},
		{RefAVCC, REFS0},
		{RefInternal, REFS0 | REFS1},
		{Reference(7), 0},
	}
	for _, tt := range tests {
		a, rf := newADC()
		rf.Poke(ATmega32.ADMUX, REFS1|0x03)
		a.SetReference(tt.r)
		if got := rf.Peek(ATmega32.ADMUX); got != tt.want|0x03 {
			t.Errorf("reference %d: ADMUX = %08b, want %08b", tt.r, got, tt.want|0x03)
		}
	}
}

func TestSetChannel(t *testing.T) {
	tests := []struct {
		ch   uint8
		want uint8
	}{
		{0, 0x00},
		{5, 0x05},
		{7, 0x07},
		{8, 0x1E},
		{9, 0x1F},
		{10, 0x00},
		{200, 0x00},
	}
	for _, tt := range tests {
		a, rf := newADC()
		rf.Poke(ATmega32.ADMUX, REFS0|ADLAR|0x1F)
		a.SetChannel(tt.ch)
		if got := rf.Peek(ATmega32.ADMUX); got != REFS0|ADLAR|tt.want {
			t.Errorf("channel %d: ADMUX = 0x%02X, want 0x%02X", tt.ch, got, REFS0|ADLAR|tt.want)
		}
	}
}

func TestSetDifferential(t *testing.T) {
	tests := []struct {
		name     string
		g        Gain
		pos, neg uint8
		want     uint8
	}{
		{"x1 neg1", Gain1, 3, 1, 0x13},
		{"x1 neg1 clamp", Gain1, 8, 1, 0x10},
		{"x1 neg2", Gain1, 5, 2, 0x1D},
		{"x1 neg2 clamp", Gain1, 6, 2, 0x18},
		{"x1 no route", Gain1, 3, 0, 0x10},
		{"x10 neg0", Gain10, 1, 0, 0x09},
		{"x10 neg0 clamp", Gain10, 2, 0, 0x08},
		{"x10 neg2", Gain10, 3, 2, 0x0D},
		{"x10 no route", Gain10, 1, 1, 0x08},
		{"x200 neg0", Gain200, 1, 0, 0x0B},
		{"x200 neg2", Gain200, 2, 2, 0x0E},
		{"x200 neg far", Gain200, 2, 9, 0x08},
		{"unknown gain", Gain(5), 1, 1, 0x10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, rf := newADC()
			rf.Poke(ATmega32.ADMUX, REFS0|ADLAR|0x1F)
			a.SetDifferential(tt.g, tt.pos, tt.neg)
			if got := rf.Peek(ATmega32.ADMUX); got != REFS0|tt.want {
				t.Errorf("ADMUX = 0x%02X, want 0x%02X", got, REFS0|tt.want)
			}
		})
	}
}

func TestAutoTrigger(t *testing.T) {
	a, rf := newADC()
	rf.Poke(ATmega32.Trigger, 0x03) // timer prescaler reset bits share SFIOR
	a.SetAutoTrigger(true, Timer1Overflow)
	if rf.Peek(ATmega32.ADCSRA)&ADATE == 0 {
		t.Error("ADATE not set")
	}
	if got := rf.Peek(ATmega32.Trigger); got != 0b110<<5|0x03 {
		t.Errorf("SFIOR = %08b", got)
	}
	a.SetAutoTrigger(false, TriggerSource(40))
	if rf.Peek(ATmega32.ADCSRA)&ADATE != 0 {
		t.Error("ADATE not cleared")
	}
	if got := rf.Peek(ATmega32.Trigger); got != 0x03 {
		t.Errorf("SFIOR = %08b, want free running", got)
	}

	rf2 := core.NewSimRegisters()
	New(rf2, ATmega1284, &core.FakeClock{}).SetAutoTrigger(true, Timer1Capture)
	if got := rf2.Peek(ATmega1284.Trigger); got != 0x07 {
		t.Errorf("ADCSRB = %08b, want 00000111", got)
	}
}

func TestEnableBits(t *testing.T) {
	a, rf := newADC()
	a.Enable(true)
	a.EnableInterrupt(true)
	if got := rf.Peek(ATmega32.ADCSRA); got != ADEN|ADIE {
		t.Errorf("ADCSRA = %08b", got)
	}
	a.Enable(false)
	a.EnableInterrupt(false)
	if got := rf.Peek(ATmega32.ADCSRA); got != 0 {
		t.Errorf("ADCSRA = %08b", got)
	}
}

// converting makes ADSC read back set for n reads of ADCSRA.
func converting(rf *core.SimRegisters, n int) {
	rf.OnRead = func(r core.Reg, stored uint8) uint8 {
		if r != ATmega32.ADCSRA || stored&ADSC == 0 {
			return stored
		}
		if n > 0 {
			n--
			return stored
		}
		rf.Poke(r, stored&^ADSC)
		return stored &^ ADSC
	}
}

func TestReadTenBit(t *testing.T) {
	a, rf := newADC()
	rf.Poke(ATmega32.ADMUX, ADLAR)
	rf.Poke(ATmega32.ADCL, 0xCD)
	rf.Poke(ATmega32.ADCH, 0x02)
	converting(rf, 3)

	var order []core.Reg
	read := rf.OnRead
	rf.OnRead = func(r core.Reg, stored uint8) uint8 {
		if r == ATmega32.ADCL || r == ATmega32.ADCH {
			order = append(order, r)
		}
		return read(r, stored)
	}

	got, err := a.Read(TenBit)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got != 0x2CD {
		t.Errorf("Read = 0x%03X, want 0x2CD", got)
	}
	if rf.Peek(ATmega32.ADMUX)&ADLAR != 0 {
		t.Error("ADLAR left set for 10-bit read")
	}
	if len(order) != 2 || order[0] != ATmega32.ADCL {
		t.Errorf("data read order = %v, want ADCL first", order)
	}
}

func TestReadEightBit(t *testing.T) {
	a, rf := newADC()
	rf.Poke(ATmega32.ADCH, 0xB3)
	converting(rf, 1)
	got, err := a.Read(EightBit)
	if err != nil || got != 0xB3 {
		t.Fatalf("Read = 0x%X, %v; want 0xB3", got, err)
	}
	if rf.Peek(ATmega32.ADMUX)&ADLAR == 0 {
		t.Error("ADLAR not set for 8-bit read")
	}
}

func TestReadTimeout(t *testing.T) {
	a, rf := newADC()
	converting(rf, 1<<30)
	if _, err := a.Read(TenBit); !errors.Is(err, core.ErrTimeout) {
		t.Fatalf("err = %v, want timeout", err)
	}
}

func TestStartRetrieve(t *testing.T) {
	a, rf := newADC()
	rf.Poke(ATmega32.ADCH, 0x41)
	converting(rf, 1)

	a.Start(EightBit)
	if got := a.Retrieve(EightBit); got != InProgress {
		t.Errorf("Retrieve while busy = 0x%X, want InProgress", got)
	}
	if got := a.Retrieve(EightBit); got != 0x41 {
		t.Errorf("Retrieve = 0x%X, want 0x41", got)
	}
}
