package core

// Status register. The I bit gates global interrupts.
const (
	SREG  Reg   = 0x5F
	SREGI uint8 = 1 << 7
)

// PortRegs is the DDR/PORT/PIN triple of one 8-bit GPIO port.
type PortRegs struct {
	DDR  Reg
	PORT Reg
	PIN  Reg
}

// ATmega32 GPIO ports.
var (
	PA = PortRegs{DDR: 0x3A, PORT: 0x3B, PIN: 0x39}
	PB = PortRegs{DDR: 0x37, PORT: 0x38, PIN: 0x36}
	PC = PortRegs{DDR: 0x34, PORT: 0x35, PIN: 0x33}
	PD = PortRegs{DDR: 0x31, PORT: 0x32, PIN: 0x30}
)

// ATmega1284 GPIO ports. The ATmega32 addresses are interrupt flag
// registers there (0x35 is TIFR0, 0x3B is PCIFR).
var (
	PA1284 = PortRegs{DDR: 0x21, PORT: 0x22, PIN: 0x20}
	PB1284 = PortRegs{DDR: 0x24, PORT: 0x25, PIN: 0x23}
	PC1284 = PortRegs{DDR: 0x27, PORT: 0x28, PIN: 0x26}
	PD1284 = PortRegs{DDR: 0x2A, PORT: 0x2B, PIN: 0x29}
)

// Port drives one GPIO port through a register file.
type Port struct {
	rf   RegisterFile
	regs PortRegs
}

// NewPort binds a port to a register file.
func NewPort(rf RegisterFile, regs PortRegs) Port {
	return Port{rf: rf, regs: regs}
}

// Regs returns the register triple.
func (p Port) Regs() PortRegs {
	return p.regs
}

// ConfigureOutput makes the masked pins outputs.
func (p Port) ConfigureOutput(mask uint8) {
	SetBits(p.rf, p.regs.DDR, mask)
}

// ConfigureInput makes the masked pins inputs, optionally with pull-ups.
func (p Port) ConfigureInput(mask uint8, pullUp bool) {
	ClearBits(p.rf, p.regs.DDR, mask)
	if pullUp {
		SetBits(p.rf, p.regs.PORT, mask)
	} else {
		ClearBits(p.rf, p.regs.PORT, mask)
	}
}

// SetDirection writes the whole DDR register.
func (p Port) SetDirection(v uint8) {
	p.rf.Set(p.regs.DDR, v)
}

// High drives the masked pins high.
func (p Port) High(mask uint8) {
	SetBits(p.rf, p.regs.PORT, mask)
}

// Low drives the masked pins low.
func (p Port) Low(mask uint8) {
	ClearBits(p.rf, p.regs.PORT, mask)
}

// Write replaces the whole PORT register.
func (p Port) Write(v uint8) {
	p.rf.Set(p.regs.PORT, v)
}

// Output returns the PORT latch.
func (p Port) Output() uint8 {
	return p.rf.Get(p.regs.PORT)
}

// Read samples the input pins.
func (p Port) Read() uint8 {
	return p.rf.Get(p.regs.PIN)
}

// Reset returns every pin to a floating input.
func (p Port) Reset() {
	p.rf.Set(p.regs.PORT, 0)
	p.rf.Set(p.regs.DDR, 0)
}
