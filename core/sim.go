package core

// SimRegisters is an in-memory register bank.
//
// Hooks let tests model peripheral side effects: OnRead can return a
// computed value (a status register, a pin level) and OnWrite can react
// to a control write (kicking off a simulated TWI step). A hook that
// wants the plain stored value simply returns it.
type SimRegisters struct {
	regs    map[Reg]uint8
	history map[Reg][]uint8

	OnRead  func(r Reg, stored uint8) uint8
	OnWrite func(r Reg, v uint8)
}

// NewSimRegisters returns an empty bank; every register reads 0.
func NewSimRegisters() *SimRegisters {
	return &SimRegisters{
		regs:    make(map[Reg]uint8),
		history: make(map[Reg][]uint8),
	}
}

// Get implements RegisterFile.
func (s *SimRegisters) Get(r Reg) uint8 {
	v := s.regs[r]
	if s.OnRead != nil {
		v = s.OnRead(r, v)
	}
	return v
}

// Set implements RegisterFile. The write is recorded before the hook runs,
// so the hook may overwrite the stored value with Poke.
func (s *SimRegisters) Set(r Reg, v uint8) {
	s.regs[r] = v
	s.history[r] = append(s.history[r], v)
	if s.OnWrite != nil {
		s.OnWrite(r, v)
	}
}

// Peek returns the stored value without running OnRead.
func (s *SimRegisters) Peek(r Reg) uint8 {
	return s.regs[r]
}

// Poke stores a value without recording it or running OnWrite.
func (s *SimRegisters) Poke(r Reg, v uint8) {
	s.regs[r] = v
}

// Writes returns every value written to r through Set, oldest first.
func (s *SimRegisters) Writes(r Reg) []uint8 {
	return s.history[r]
}

// ResetHistory forgets recorded writes but keeps register contents.
func (s *SimRegisters) ResetHistory() {
	s.history = make(map[Reg][]uint8)
}
