package protocol

import "io"

// AppendFrame wraps payload in a frame with the given sequence byte.
// The caller checks that payload fits in PayloadMax.
func AppendFrame(dst []byte, seq uint8, payload []byte) []byte {
	start := len(dst)
	dst = append(dst, byte(len(payload)+FrameMin), seq)
	dst = append(dst, payload...)
	crc := CRC16(dst[start:])
	return append(dst, byte(crc>>8), byte(crc), Sync)
}

// Encoder writes frames with a running sequence number. It uses fixed
// buffers, so sending does not allocate.
type Encoder struct {
	w       io.Writer
	seq     uint8
	frame   [FrameMax]byte
	payload [PayloadMax]byte
}

// NewEncoder returns an encoder whose first frame carries sequence 0x10.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w, seq: SeqDest}
}

// Seq returns the sequence byte of the next frame.
func (e *Encoder) Seq() uint8 {
	return e.seq
}

// Reset restarts the sequence at 0x10.
func (e *Encoder) Reset() {
	e.seq = SeqDest
}

// Frame writes one frame around payload.
func (e *Encoder) Frame(payload []byte) error {
	if len(payload) > PayloadMax {
		return ErrFrameTooLong
	}
	f := AppendFrame(e.frame[:0], e.seq, payload)
	e.seq = NextSeq(e.seq)
	_, err := e.w.Write(f)
	return err
}

// Send encodes m and writes it as one frame.
func (e *Encoder) Send(m Message) error {
	return e.Frame(AppendMessage(e.payload[:0], m))
}

// Frame is one decoded frame.
type Frame struct {
	Seq     uint8
	Payload []byte
}

// Decoder reassembles frames from a byte stream. After a bad length,
// sequence byte, trailer or CRC it drops input up to the next sync
// byte and starts over.
type Decoder struct {
	buf     [FrameMax]byte
	n       int
	synced  bool
	started bool
	expect  uint8

	// Dropped counts bytes discarded while resynchronizing.
	Dropped int
	// Missed counts frames skipped according to the sequence numbers.
	Missed int
}

// NewDecoder returns a decoder that treats the first byte as the start
// of a frame.
func NewDecoder() *Decoder {
	return &Decoder{synced: true}
}

func (d *Decoder) resync() {
	d.Dropped += d.n
	d.n = 0
	d.synced = false
}

// Feed consumes one byte and reports a frame when b completes one.
// Frame.Payload aliases the decoder's buffer and is valid until the
// next call.
func (d *Decoder) Feed(b byte) (Frame, bool) {
	if !d.synced {
		d.Dropped++
		if b == Sync {
			d.synced = true
		}
		return Frame{}, false
	}
	if d.n == 0 && b == Sync {
		return Frame{}, false
	}

	d.buf[d.n] = b
	d.n++
	switch {
	case d.n == posLen+1:
		if b < FrameMin || b > FrameMax {
			d.resync()
		}
		return Frame{}, false
	case d.n == posSeq+1:
		if b&^SeqMask != SeqDest {
			d.resync()
		}
		return Frame{}, false
	case d.n < int(d.buf[posLen]):
		return Frame{}, false
	}

	n := d.n
	d.n = 0
	if d.buf[n-1] != Sync {
		d.Dropped += n
		d.synced = false
		return Frame{}, false
	}
	want := uint16(d.buf[n-3])<<8 | uint16(d.buf[n-2])
	if CRC16(d.buf[:n-trailerSize]) != want {
		// the trailer was a sync byte, so the next frame starts here
		d.Dropped += n
		return Frame{}, false
	}

	seq := d.buf[posSeq]
	if d.started && seq != d.expect {
		d.Missed += int((seq - d.expect) & SeqMask)
	}
	d.started = true
	d.expect = NextSeq(seq)
	return Frame{Seq: seq, Payload: d.buf[headerSize : n-trailerSize]}, true
}

// FeedAll runs Feed over p and calls fn for each complete frame.
func (d *Decoder) FeedAll(p []byte, fn func(Frame)) {
	for _, b := range p {
		if f, ok := d.Feed(b); ok {
			fn(f)
		}
	}
}
