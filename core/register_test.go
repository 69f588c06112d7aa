package core

import "testing"

func TestBitHelpers(t *testing.T) {
	rf := NewSimRegisters()
	const r Reg = 0x40

	SetBits(rf, r, 0x81)
	if got := rf.Peek(r); got != 0x81 {
		t.Fatalf("SetBits: got 0x%02X", got)
	}
	ClearBits(rf, r, 0x01)
	if got := rf.Peek(r); got != 0x80 {
		t.Fatalf("ClearBits: got 0x%02X", got)
	}
	ModifyBits(rf, r, 0xF0, 0x05)
	if got := rf.Peek(r); got != 0x05 {
		t.Fatalf("ModifyBits: got 0x%02X", got)
	}
	if !BitsSet(rf, r, 0x05) || BitsSet(rf, r, 0x06) {
		t.Error("BitsSet mismatch")
	}
	if Bit(7) != 0x80 {
		t.Errorf("Bit(7) = 0x%02X", Bit(7))
	}
}

func TestSimRegistersHooks(t *testing.T) {
	rf := NewSimRegisters()
	const status Reg = 0x21

	rf.OnRead = func(r Reg, stored uint8) uint8 {
		if r == status {
			return stored | 0x08
		}
		return stored
	}
	var seen []uint8
	rf.OnWrite = func(r Reg, v uint8) {
		seen = append(seen, v)
		rf.Poke(status, v&0xF0)
	}

	rf.Set(status, 0x33)
	if got := rf.Get(status); got != 0x38 {
		t.Errorf("Get = 0x%02X, want 0x38", got)
	}
	if rf.Peek(status) != 0x30 {
		t.Errorf("Peek = 0x%02X, want 0x30", rf.Peek(status))
	}
	if len(seen) != 1 || seen[0] != 0x33 {
		t.Errorf("OnWrite saw %v", seen)
	}
	if w := rf.Writes(status); len(w) != 1 || w[0] != 0x33 {
		t.Errorf("Writes = %v", w)
	}

	rf.ResetHistory()
	if len(rf.Writes(status)) != 0 {
		t.Error("history not cleared")
	}
}

func TestPort(t *testing.T) {
	rf := NewSimRegisters()
	p := NewPort(rf, PC)

	p.ConfigureOutput(0x0F)
	p.ConfigureInput(0xF0, true)
	if rf.Peek(PC.DDR) != 0x0F {
		t.Errorf("DDR = 0x%02X", rf.Peek(PC.DDR))
	}
	if rf.Peek(PC.PORT) != 0xF0 {
		t.Errorf("PORT = 0x%02X", rf.Peek(PC.PORT))
	}

	p.High(0x01)
	p.Low(0x10)
	if p.Output() != 0xE1 {
		t.Errorf("Output = 0x%02X", p.Output())
	}

	rf.Poke(PC.PIN, 0x5A)
	if p.Read() != 0x5A {
		t.Errorf("Read = 0x%02X", p.Read())
	}

	p.Reset()
	if rf.Peek(PC.DDR) != 0 || rf.Peek(PC.PORT) != 0 {
		t.Error("Reset left pins configured")
	}
}

func TestAtomic16(t *testing.T) {
	rf := NewSimRegisters()
	const lo, hi Reg = 0x4C, 0x4D
	rf.Poke(SREG, 0x82)

	var order []Reg
	rf.OnRead = func(r Reg, stored uint8) uint8 {
		if r == lo || r == hi {
			order = append(order, r)
			if rf.Peek(SREG)&SREGI != 0 {
				t.Errorf("register 0x%02X accessed with interrupts enabled", r)
			}
		}
		return stored
	}
	rf.OnWrite = func(r Reg, v uint8) {
		if r == lo || r == hi {
			order = append(order, r)
		}
	}

	Write16Atomic(rf, lo, hi, 0xBEEF)
	if len(order) != 2 || order[0] != hi || order[1] != lo {
		t.Errorf("write order = %v, want high then low", order)
	}
	if rf.Peek(SREG) != 0x82 {
		t.Errorf("SREG not restored: 0x%02X", rf.Peek(SREG))
	}

	order = nil
	if v := Read16Atomic(rf, lo, hi); v != 0xBEEF {
		t.Errorf("Read16Atomic = 0x%04X", v)
	}
	if len(order) != 2 || order[0] != lo || order[1] != hi {
		t.Errorf("read order = %v, want low then high", order)
	}
}
