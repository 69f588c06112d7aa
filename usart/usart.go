// Package usart drives the USART in asynchronous, synchronous or master
// SPI mode.
//
// Multi-byte writes go out least significant byte first and multi-byte
// reads assemble most significant byte first. Peers must agree on this.
package usart

import (
	"errors"
	"time"

	"avrkit/core"
)

var (
	ErrFrame   = errors.New("usart: frame error")
	ErrOverrun = errors.New("usart: data overrun")
	ErrParity  = errors.New("usart: parity error")
)

// DefaultTimeout bounds each byte. One 8N1 byte at 9600 baud takes
// about 1 ms.
const DefaultTimeout = 20 * time.Millisecond

// Registers is the USART register layout of one part.
type Registers struct {
	UDR, UCSRA, UCSRB, UCSRC core.Reg
	UBRRL, UBRRH             core.Reg

	// URSEL must be set when writing UCSRC on parts where it shares an
	// address with UBRRH. Zero elsewhere.
	URSEL uint8
	// MasterSPI is true when the part supports master SPI mode.
	MasterSPI bool
}

var ATmega32 = Registers{
	UDR: 0x2C, UCSRA: 0x2B, UCSRB: 0x2A, UCSRC: 0x40,
	UBRRL: 0x29, UBRRH: 0x40,
	URSEL: 1 << 7,
}

var ATmega1284 = Registers{
	UDR: 0xC6, UCSRA: 0xC0, UCSRB: 0xC1, UCSRC: 0xC2,
	UBRRL: 0xC4, UBRRH: 0xC5,
	MasterSPI: true,
}

// UCSRA bits
const (
	RXC  = 1 << 7
	TXC  = 1 << 6
	UDRE = 1 << 5
	FE   = 1 << 4
	DOR  = 1 << 3
	UPE  = 1 << 2
	U2X  = 1 << 1
)

// UCSRB bits
const (
	RXCIE = 1 << 7
	TXCIE = 1 << 6
	UDRIE = 1 << 5
	RXEN  = 1 << 4
	TXEN  = 1 << 3
	UCSZ2 = 1 << 2
	RXB8  = 1 << 1
	TXB8  = 1 << 0
)

// UCSRC bits
const (
	UMSEL1 = 1 << 7 // URSEL on ATmega32
	UMSEL0 = 1 << 6
	UPM1   = 1 << 5
	UPM0   = 1 << 4
	USBS   = 1 << 3
	UCSZ1  = 1 << 2
	UCSZ0  = 1 << 1
	UCPOL  = 1 << 0
)

// Mode selects the clocking mode.
type Mode uint8

const (
	Async Mode = iota
	Sync
	MasterSPI
)

var modeBits = [...]uint8{
	Async:     0,
	Sync:      UMSEL0,
	MasterSPI: UMSEL1 | UMSEL0,
}

// Parity selects the parity bit.
type Parity uint8

const (
	ParityNone Parity = iota
	ParityEven
	ParityOdd
)

var parityBits = [...]uint8{
	ParityNone: 0,
	ParityEven: UPM1,
	ParityOdd:  UPM1 | UPM0,
}

// DataBits selects the character size.
type DataBits uint8

const (
	Bits5 DataBits = iota
	Bits6
	Bits7
	Bits8
	Bits9
)

// sizes[b] = {UCSRC size bits, UCSZ2, data mask}
var sizes = [...]struct {
	c, b uint8
	mask uint16
}{
	Bits5: {0, 0, 0x001F},
	Bits6: {UCSZ0, 0, 0x003F},
	Bits7: {UCSZ1, 0, 0x007F},
	Bits8: {UCSZ1 | UCSZ0, 0, 0x00FF},
	Bits9: {UCSZ1 | UCSZ0, UCSZ2, 0x01FF},
}

// Port is one USART.
type Port struct {
	rf      core.RegisterFile
	regs    Registers
	clock   core.Clock
	mask    uint16
	Timeout time.Duration
}

// New returns a Port framed 8N1 until SetFrame is called.
func New(rf core.RegisterFile, regs Registers, clock core.Clock) *Port {
	return &Port{rf: rf, regs: regs, clock: clock, mask: 0x00FF, Timeout: DefaultTimeout}
}

// UBRR returns the baud rate register value for normal-speed async mode,
// rounded to the nearest divisor.
func UBRR(cpuHz, baud uint32) uint16 {
	if baud == 0 {
		return 0
	}
	div := (cpuHz + 8*baud) / (16 * baud)
	if div == 0 {
		return 0
	}
	return uint16(div - 1)
}

// SetFrame replaces the whole frame format. Out-of-range selectors fall
// back to async, no parity and 5 bits. Clock polarity only applies to
// the synchronous modes.
func (p *Port) SetFrame(mode Mode, parity Parity, bits DataBits, twoStop, flipPolarity bool) {
	if mode == MasterSPI && !p.regs.MasterSPI {
		mode = Sync
	}
	c := p.regs.URSEL
	if int(mode) < len(modeBits) {
		c |= modeBits[mode]
	} else {
		mode = Async
	}
	if int(parity) < len(parityBits) {
		c |= parityBits[parity]
	}
	size := sizes[Bits5]
	if int(bits) < len(sizes) {
		size = sizes[bits]
	}
	c |= size.c
	p.mask = size.mask
	if twoStop {
		c |= USBS
	}
	if mode != Async && flipPolarity {
		c |= UCPOL
	}
	p.rf.Set(p.regs.UCSRC, c)
	core.ModifyBits(p.rf, p.regs.UCSRB, UCSZ2, size.b)
}

// Start loads the baud divisor and enables the receiver and transmitter.
func (p *Port) Start(ubrr uint16, rx, tx bool) {
	hi := uint8(ubrr >> 8)
	if p.regs.URSEL != 0 {
		hi &= 0x0F // URSEL clear selects UBRRH
	}
	p.rf.Set(p.regs.UBRRH, hi)
	p.rf.Set(p.regs.UBRRL, uint8(ubrr))

	var en uint8
	if rx {
		en |= RXEN
	}
	if tx {
		en |= TXEN
	}
	core.ModifyBits(p.rf, p.regs.UCSRB, RXEN|TXEN, en)
}

// Stop disables the receiver and transmitter.
func (p *Port) Stop() {
	core.ClearBits(p.rf, p.regs.UCSRB, RXEN|TXEN)
}

// Available reports an unread received byte.
func (p *Port) Available() bool {
	return core.BitsSet(p.rf, p.regs.UCSRA, RXC)
}

func (p *Port) wait(mask uint8) error {
	err := core.Poll(p.clock, p.Timeout, func() bool {
		return core.BitsSet(p.rf, p.regs.UCSRA, mask)
	})
	if err != nil {
		core.RecordEvent(core.EvtTimeout, mask, uint32(p.Timeout/time.Microsecond), 0)
	}
	return err
}

// WriteByte waits for an empty transmit buffer and queues b.
func (p *Port) WriteByte(b byte) error {
	if err := p.wait(UDRE); err != nil {
		return err
	}
	p.rf.Set(p.regs.UDR, b)
	return nil
}

// WriteBits sends one character of the configured size. In 9-bit mode
// bit 8 goes out through TXB8.
func (p *Port) WriteBits(v uint16) error {
	if err := p.wait(UDRE); err != nil {
		return err
	}
	if p.mask&0x0100 != 0 {
		var b8 uint8
		if v&0x0100 != 0 {
			b8 = TXB8
		}
		core.ModifyBits(p.rf, p.regs.UCSRB, TXB8, b8)
	}
	p.rf.Set(p.regs.UDR, uint8(v&p.mask))
	return nil
}

// Write implements io.Writer.
func (p *Port) Write(b []byte) (int, error) {
	for i, c := range b {
		if err := p.WriteByte(c); err != nil {
			return i, err
		}
	}
	return len(b), nil
}

// WriteUint16 sends v least significant byte first.
func (p *Port) WriteUint16(v uint16) error {
	if err := p.WriteByte(byte(v)); err != nil {
		return err
	}
	return p.WriteByte(byte(v >> 8))
}

// WriteUint32 sends v least significant byte first.
func (p *Port) WriteUint32(v uint32) error {
	for i := 0; i < 4; i++ {
		if err := p.WriteByte(byte(v >> (8 * uint(i)))); err != nil {
			return err
		}
	}
	return nil
}

// WriteString sends s followed by a NUL terminator. It stops at an
// embedded NUL.
func (p *Port) WriteString(s string) (int, error) {
	n := 0
	for ; n < len(s) && s[n] != 0; n++ {
		if err := p.WriteByte(s[n]); err != nil {
			return n, err
		}
	}
	return n, p.WriteByte(0)
}

// ReadByte waits for a received byte.
func (p *Port) ReadByte() (byte, error) {
	if err := p.wait(RXC); err != nil {
		return 0, err
	}
	return p.rf.Get(p.regs.UDR), nil
}

// Read implements io.Reader. It waits for the first byte and then takes
// whatever else has already arrived.
func (p *Port) Read(b []byte) (int, error) {
	if len(b) == 0 {
		return 0, nil
	}
	c, err := p.ReadByte()
	if err != nil {
		return 0, err
	}
	b[0] = c
	n := 1
	for n < len(b) && p.Available() {
		b[n] = p.rf.Get(p.regs.UDR)
		n++
	}
	return n, nil
}

// ReadUint16 assembles two bytes most significant first.
func (p *Port) ReadUint16() (uint16, error) {
	var v uint16
	for i := 0; i < 2; i++ {
		c, err := p.ReadByte()
		if err != nil {
			return 0, err
		}
		v = v<<8 | uint16(c)
	}
	return v, nil
}

// ReadUint32 assembles four bytes most significant first.
func (p *Port) ReadUint32() (uint32, error) {
	var v uint32
	for i := 0; i < 4; i++ {
		c, err := p.ReadByte()
		if err != nil {
			return 0, err
		}
		v = v<<8 | uint32(c)
	}
	return v, nil
}

// ReadString reads up to a NUL or limit-1 characters, whichever is first.
func (p *Port) ReadString(limit int) (string, error) {
	if limit <= 1 {
		return "", nil
	}
	buf := make([]byte, 0, limit-1)
	for len(buf) < limit-1 {
		c, err := p.ReadByte()
		if err != nil {
			return string(buf), err
		}
		if c == 0 {
			break
		}
		buf = append(buf, c)
	}
	return string(buf), nil
}

// ReadFrame reads one character with its ninth bit. The status is
// sampled before UDR, which pops the receive buffer.
func (p *Port) ReadFrame() (uint16, error) {
	if err := p.wait(RXC); err != nil {
		return 0, err
	}
	status := p.rf.Get(p.regs.UCSRA)
	hi := p.rf.Get(p.regs.UCSRB)
	lo := p.rf.Get(p.regs.UDR)
	switch {
	case status&FE != 0:
		return 0, ErrFrame
	case status&DOR != 0:
		return 0, ErrOverrun
	case status&UPE != 0:
		return 0, ErrParity
	}
	return uint16(hi>>1&1)<<8 | uint16(lo), nil
}
