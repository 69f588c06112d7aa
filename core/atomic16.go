package core

// Read16Atomic reads a 16-bit register pair with interrupts masked.
// The low byte is read first so the hardware latches the high byte.
func Read16Atomic(rf RegisterFile, lo, hi Reg) uint16 {
	sreg := rf.Get(SREG)
	rf.Set(SREG, sreg&^SREGI)
	l := rf.Get(lo)
	h := rf.Get(hi)
	rf.Set(SREG, sreg)
	return uint16(h)<<8 | uint16(l)
}

// Write16Atomic writes a 16-bit register pair with interrupts masked.
// The high byte goes first into the shared TEMP register.
func Write16Atomic(rf RegisterFile, lo, hi Reg, v uint16) {
	sreg := rf.Get(SREG)
	rf.Set(SREG, sreg&^SREGI)
	rf.Set(hi, uint8(v>>8))
	rf.Set(lo, uint8(v))
	rf.Set(SREG, sreg)
}
