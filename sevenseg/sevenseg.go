// Package sevenseg encodes digits, letters and symbols for a single
// common-cathode 7-segment display.
//
//	 _A_
//	F   B
//	 _G_
//	E   C
//	 _D_  .DP
//
// Glyphs are stored as logical segment sets and mapped onto the port
// bits of the actual wiring.
package sevenseg

import "avrkit/core"

// Glyph is a set of logical segments, A in bit 0 through G in bit 6
// and DP in bit 7.
type Glyph uint8

const (
	SegA Glyph = 1 << iota
	SegB
	SegC
	SegD
	SegE
	SegF
	SegG
	SegDP
)

// Segments maps each segment to its port bit mask.
type Segments struct {
	A, B, C, D, E, F, G, DP uint8
}

// DefaultSegments is the reference wiring.
var DefaultSegments = Segments{
	A: 1 << 2, B: 1 << 3, C: 1 << 5, D: 1 << 6,
	E: 1 << 7, F: 1 << 1, G: 1 << 0, DP: 1 << 4,
}

var hexGlyphs = [16]Glyph{
	SegA | SegB | SegC | SegD | SegE | SegF,        // 0
	SegB | SegC,                                    // 1
	SegA | SegB | SegD | SegE | SegG,               // 2
	SegA | SegB | SegC | SegD | SegG,               // 3
	SegB | SegC | SegF | SegG,                      // 4
	SegA | SegC | SegD | SegF | SegG,               // 5
	SegA | SegC | SegD | SegE | SegF | SegG,        // 6
	SegA | SegB | SegC,                             // 7
	SegA | SegB | SegC | SegD | SegE | SegF | SegG, // 8
	SegA | SegB | SegC | SegD | SegF | SegG,        // 9
	SegA | SegB | SegC | SegE | SegF | SegG,        // A
	SegC | SegD | SegE | SegF | SegG,               // b
	SegA | SegD | SegE | SegF,                      // C
	SegB | SegC | SegD | SegE | SegG,               // d
	SegA | SegD | SegE | SegF | SegG,               // E
	SegA | SegE | SegF | SegG,                      // F
}

// letterGlyphs covers the characters a 7-segment display can show
// legibly. Zero means no glyph.
var letterGlyphs = [128]Glyph{
	'0': hexGlyphs[0], '1': hexGlyphs[1], '2': hexGlyphs[2], '3': hexGlyphs[3],
	'4': hexGlyphs[4], '5': hexGlyphs[5], '6': hexGlyphs[6], '7': hexGlyphs[7],
	'8': hexGlyphs[8], '9': hexGlyphs[9],

	'a': SegC | SegD | SegE | SegG,
	'A': hexGlyphs[0xA],
	'b': hexGlyphs[0xB],
	'B': hexGlyphs[8],
	'c': SegD | SegE | SegG,
	'C': hexGlyphs[0xC],
	'd': hexGlyphs[0xD],
	'D': hexGlyphs[0],
	'E': hexGlyphs[0xE],
	'F': hexGlyphs[0xF],
	'g': hexGlyphs[9],
	'G': hexGlyphs[6],
	'h': SegC | SegE | SegF | SegG,
	'H': SegB | SegC | SegE | SegF | SegG,
	'i': SegE,
	'I': SegE | SegF,
	'J': SegB | SegC | SegD | SegE,
	'l': SegE | SegF,
	'L': SegD | SegE | SegF,
	'n': SegC | SegE | SegG,
	'o': SegC | SegD | SegE | SegG,
	'O': hexGlyphs[0],
	'P': SegA | SegB | SegE | SegF | SegG,
	'r': SegE | SegG,
	'S': hexGlyphs[5],
	'u': SegC | SegD | SegE,
	'U': SegB | SegC | SegD | SegE | SegF,
	'y': SegB | SegC | SegD | SegF | SegG,
}

var symbolGlyphs = map[byte]Glyph{
	'_': SegD,
	'-': SegG,
	'[': SegA | SegD | SegE | SegF,
	']': SegA | SegB | SegC | SegD,
	'|': SegB | SegC,
	'.': SegDP,
}

// Encoder turns glyphs into port values for one wiring.
type Encoder struct {
	pins [8]uint8
}

// NewEncoder returns an Encoder for s.
func NewEncoder(s Segments) Encoder {
	return Encoder{pins: [8]uint8{s.A, s.B, s.C, s.D, s.E, s.F, s.G, s.DP}}
}

// Default encodes for DefaultSegments.
var Default = NewEncoder(DefaultSegments)

// Encode maps g onto port bits, adding the decimal point if dot.
func (e Encoder) Encode(g Glyph, dot bool) uint8 {
	if dot {
		g |= SegDP
	}
	var v uint8
	for i, pin := range e.pins {
		if g&(1<<uint(i)) != 0 {
			v |= pin
		}
	}
	return v
}

// Hex encodes the low nibble of n.
func (e Encoder) Hex(n uint8, dot bool) uint8 {
	return e.Encode(hexGlyphs[n&0x0F], dot)
}

// Letter encodes a digit or letter. Characters without a glyph show
// segment G.
func (e Encoder) Letter(c byte, dot bool) uint8 {
	g := SegG
	if c < 128 && letterGlyphs[c] != 0 {
		g = letterGlyphs[c]
	}
	return e.Encode(g, dot)
}

// Symbol encodes one of _ - [ ] | and '.'. Anything else shows segment A.
func (e Encoder) Symbol(c byte, dot bool) uint8 {
	g, ok := symbolGlyphs[c]
	if !ok {
		g = SegA
	}
	return e.Encode(g, dot)
}

// Hex encodes with the default wiring.
func Hex(n uint8, dot bool) uint8 { return Default.Hex(n, dot) }

// Letter encodes with the default wiring.
func Letter(c byte, dot bool) uint8 { return Default.Letter(c, dot) }

// Symbol encodes with the default wiring.
func Symbol(c byte, dot bool) uint8 { return Default.Symbol(c, dot) }

// Display drives a whole port with encoded values.
type Display struct {
	port core.Port
	enc  Encoder
}

// NewDisplay returns a Display on the given port.
func NewDisplay(rf core.RegisterFile, port core.PortRegs, enc Encoder) *Display {
	return &Display{port: core.NewPort(rf, port), enc: enc}
}

// Init makes the port an output and blanks it.
func (d *Display) Init() {
	d.port.SetDirection(0xFF)
	d.port.Write(0)
}

// Encoder returns the display's encoder.
func (d *Display) Encoder() Encoder {
	return d.enc
}

// Show writes a raw port value.
func (d *Display) Show(v uint8) {
	d.port.Write(v)
}

// ShowHex shows the low nibble of n.
func (d *Display) ShowHex(n uint8, dot bool) {
	d.port.Write(d.enc.Hex(n, dot))
}

// Clear blanks every segment.
func (d *Display) Clear() {
	d.port.Write(0)
}
