// Package protocol implements the framed serial link between the firmware
// and the host monitor.
//
// A frame is [len][seq][payload][crc_hi][crc_lo][0x7E]. len counts the
// whole frame, seq carries 0x10 in its high nibble and a running 4-bit
// sequence in the low nibble, and the CRC covers len, seq and payload.
// The payload is a VLQ message ID followed by the message arguments.
package protocol

import "errors"

// Version is reported in the identify dictionary.
const Version = "avrkit-0.1.0"

const (
	FrameMax   = 64
	FrameMin   = headerSize + trailerSize
	PayloadMax = FrameMax - FrameMin

	Sync    = 0x7E
	SeqMask = 0x0F
	SeqDest = 0x10

	headerSize  = 2
	trailerSize = 3
	posLen      = 0
	posSeq      = 1
)

var (
	ErrInvalidVLQ     = errors.New("invalid VLQ encoding")
	ErrBufferTooSmall = errors.New("buffer too small for VLQ")
	ErrFrameTooLong   = errors.New("frame exceeds 64 bytes")
	ErrUnknownMessage = errors.New("unknown message id")
)

// NextSeq advances a sequence byte, wrapping the low nibble.
func NextSeq(seq uint8) uint8 {
	return ((seq + 1) & SeqMask) | SeqDest
}
