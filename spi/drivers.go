package spi

import "tinygo.org/x/drivers"

var _ drivers.SPI = (*SPI)(nil)

// Tx implements drivers.SPI. A nil w sends zeros; a nil r discards what
// comes back. When both are given they must be the same length.
func (s *SPI) Tx(w, r []byte) error {
	n := len(w)
	switch {
	case w == nil:
		n = len(r)
	case r != nil && len(r) != len(w):
		return ErrLengthMismatch
	}
	for i := 0; i < n; i++ {
		var out byte
		if w != nil {
			out = w[i]
		}
		in, err := s.Transfer(out)
		if err != nil {
			return err
		}
		if r != nil {
			r[i] = in
		}
	}
	return nil
}
