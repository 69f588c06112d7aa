package core

// Reg is the data-space address of an 8-bit I/O register.
type Reg uint16

// RegisterFile gives drivers byte-level access to peripheral registers.
// On the chip it is backed by memory-mapped I/O; in tests by SimRegisters.
type RegisterFile interface {
	Get(r Reg) uint8
	Set(r Reg, v uint8)
}

// Bit returns a mask with bit n set.
func Bit(n uint8) uint8 {
	return 1 << n
}

// SetBits ORs mask into the register (read-modify-write).
func SetBits(rf RegisterFile, r Reg, mask uint8) {
	rf.Set(r, rf.Get(r)|mask)
}

// ClearBits clears mask in the register (read-modify-write).
func ClearBits(rf RegisterFile, r Reg, mask uint8) {
	rf.Set(r, rf.Get(r)&^mask)
}

// ModifyBits clears clearMask and then sets setMask in one write.
// Used for multi-bit fields such as clock selects and mux channels.
func ModifyBits(rf RegisterFile, r Reg, clearMask, setMask uint8) {
	rf.Set(r, (rf.Get(r)&^clearMask)|setMask)
}

// BitsSet reports whether every bit in mask is set.
func BitsSet(rf RegisterFile, r Reg, mask uint8) bool {
	return rf.Get(r)&mask == mask
}
