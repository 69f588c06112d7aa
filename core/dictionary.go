package core

import (
	"bytes"
	"sync"

	"avrkit/tinycompress"
)

// Dictionary describes the firmware to the host: version, board
// constants and the message table. It is served compressed, in chunks,
// through the identify message.
type Dictionary struct {
	mu        sync.Mutex
	reg       *CommandRegistry
	version   string
	constants []constant
	cached    []byte
}

type constant struct {
	name  string
	value string
}

// NewDictionary returns a dictionary over reg's messages.
func NewDictionary(reg *CommandRegistry, version string) *Dictionary {
	return &Dictionary{reg: reg, version: version}
}

// AddConstant records a board constant such as the CPU clock. Adding a
// name twice replaces its value. Names and values must not contain
// quotes or backslashes.
func (d *Dictionary) AddConstant(name, value string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cached = nil
	for i := range d.constants {
		if d.constants[i].name == name {
			d.constants[i].value = value
			return
		}
	}
	d.constants = append(d.constants, constant{name, value})
}

// JSON renders the uncompressed dictionary:
//
//	{"version":"...","config":{"NAME":"value"},"messages":{"name format":id}}
//
// Constants keep insertion order and messages keep ID order.
func (d *Dictionary) JSON() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.jsonLocked()
}

func (d *Dictionary) jsonLocked() []byte {
	out := make([]byte, 0, 512)
	out = append(out, `{"version":"`...)
	out = append(out, d.version...)
	out = append(out, `","config":{`...)
	for i, c := range d.constants {
		if i > 0 {
			out = append(out, ',')
		}
		out = append(out, '"')
		out = append(out, c.name...)
		out = append(out, `":"`...)
		out = append(out, c.value...)
		out = append(out, '"')
	}
	out = append(out, `},"messages":{`...)
	for id := 0; id < d.reg.Count(); id++ {
		cmd, _ := d.reg.GetCommand(uint16(id))
		if id > 0 {
			out = append(out, ',')
		}
		out = append(out, '"')
		out = append(out, cmd.Name...)
		if cmd.Format != "" {
			out = append(out, ' ')
			out = append(out, cmd.Format...)
		}
		out = append(out, `":`...)
		out = append(out, Itoa(id)...)
	}
	return append(out, "}}"...)
}

// Build compresses the dictionary and caches the result. Call it after
// every message and constant is registered; Chunk builds on demand
// otherwise.
func (d *Dictionary) Build() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.buildLocked()
}

func (d *Dictionary) buildLocked() error {
	raw := d.jsonLocked()
	var buf bytes.Buffer
	w := tinycompress.NewWriter(&buf, len(raw))
	if _, err := w.Write(raw); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	d.cached = buf.Bytes()
	DebugPrintln("[DICT] " + Itoa(len(raw)) + " bytes, " + Itoa(len(d.cached)) + " compressed")
	return nil
}

// Size returns the compressed length.
func (d *Dictionary) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cached == nil && d.buildLocked() != nil {
		return 0
	}
	return len(d.cached)
}

// Chunk copies up to count bytes of the compressed dictionary starting
// at offset into dst and returns the filled slice. Past the end it
// returns an empty slice.
func (d *Dictionary) Chunk(dst []byte, offset uint32, count int) []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cached == nil && d.buildLocked() != nil {
		return dst[:0]
	}
	if offset >= uint32(len(d.cached)) {
		return dst[:0]
	}
	end := offset + uint32(count)
	if end > uint32(len(d.cached)) {
		end = uint32(len(d.cached))
	}
	return append(dst[:0], d.cached[offset:end]...)
}
