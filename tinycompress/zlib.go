// Package tinycompress writes zlib streams made of stored (uncompressed)
// DEFLATE blocks. Any zlib reader can inflate them, and the writer needs
// no tables, so it fits on parts with a couple of kilobytes of RAM.
package tinycompress

import (
	"errors"
	"hash/adler32"
	"io"
)

// MaxBlock is the largest payload of a single stored block.
const MaxBlock = 0xFFFF

// ErrClosed is returned by Write after Close.
var ErrClosed = errors.New("tinycompress: write after close")

var header = [2]byte{0x78, 0x01}

// Writer buffers everything written to it and emits the zlib stream on
// Close. Buffering keeps the block layout independent of how callers
// chunk their writes.
type Writer struct {
	out    io.Writer
	buf    []byte
	closed bool
}

// NewWriter returns a Writer that emits to w. sizeHint preallocates the
// input buffer; pass 0 when the size is unknown.
func NewWriter(w io.Writer, sizeHint int) *Writer {
	return &Writer{out: w, buf: make([]byte, 0, sizeHint)}
}

// Write implements io.Writer.
func (w *Writer) Write(p []byte) (int, error) {
	if w.closed {
		return 0, ErrClosed
	}
	w.buf = append(w.buf, p...)
	return len(p), nil
}

// Close writes the header, the stored blocks and the Adler-32 trailer.
// It does not close the underlying writer.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	_, err := w.out.Write(Compress(w.buf))
	return err
}

// Compress returns p as a complete zlib stream.
func Compress(p []byte) []byte {
	blocks := (len(p) + MaxBlock - 1) / MaxBlock
	if blocks == 0 {
		blocks = 1
	}
	out := make([]byte, 0, len(header)+5*blocks+len(p)+4)
	out = append(out, header[:]...)

	rest := p
	for {
		n := len(rest)
		final := byte(1)
		if n > MaxBlock {
			n = MaxBlock
			final = 0
		}
		out = appendStored(out, rest[:n], final)
		rest = rest[n:]
		if final == 1 {
			break
		}
	}

	sum := adler32.Checksum(p)
	return append(out, byte(sum>>24), byte(sum>>16), byte(sum>>8), byte(sum))
}

// appendStored adds one BTYPE=00 block: a header byte, LEN and NLEN in
// little-endian order, then the raw bytes.
func appendStored(out, block []byte, final byte) []byte {
	n := uint16(len(block))
	out = append(out, final, byte(n), byte(n>>8), byte(^n), byte(^n>>8))
	return append(out, block...)
}
