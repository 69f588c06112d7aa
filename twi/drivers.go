package twi

import "tinygo.org/x/drivers"

var _ drivers.I2C = (*Bus)(nil)

// Tx implements drivers.I2C: an optional write phase, then an optional
// read phase after a repeated START, then STOP.
func (b *Bus) Tx(addr uint16, w, r []byte) error {
	a := uint8(addr)
	if len(w) > 0 || len(r) == 0 {
		if err := b.start(); err != nil {
			return err
		}
		if err := b.address(a, Write); err != nil {
			return err
		}
		if err := b.writeBytes(w); err != nil {
			return err
		}
	}
	if len(r) > 0 {
		if err := b.start(); err != nil {
			return err
		}
		if err := b.address(a, Read); err != nil {
			return err
		}
		if err := b.readBytes(r); err != nil {
			return err
		}
	}
	b.SendStop()
	return nil
}

// ReadRegister reads len(buf) bytes starting at register reg.
func (b *Bus) ReadRegister(addr uint8, reg uint8, buf []byte) error {
	return b.Tx(uint16(addr), []byte{reg}, buf)
}

// WriteRegister writes buf starting at register reg.
func (b *Bus) WriteRegister(addr uint8, reg uint8, buf []byte) error {
	w := make([]byte, 0, len(buf)+1)
	w = append(w, reg)
	w = append(w, buf...)
	return b.Tx(uint16(addr), w, nil)
}
