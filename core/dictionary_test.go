package core

import (
	"bytes"
	"compress/zlib"
	"encoding/json"
	"io"
	"testing"
)

type dictJSON struct {
	Version  string            `json:"version"`
	Config   map[string]string `json:"config"`
	Messages map[string]int    `json:"messages"`
}

func testDictionary() *Dictionary {
	reg := NewCommandRegistry()
	reg.Register("identify", "offset=%u count=%c", nil)
	reg.Register("key_event", "key=%c", nil)
	reg.Register("nunchuk_calibrate", "", nil)
	d := NewDictionary(reg, "avrkit-test")
	d.AddConstant("CLOCK_FREQ", "8000000")
	d.AddConstant("MCU", "atmega32")
	return d
}

func TestDictionaryJSON(t *testing.T) {
	d := testDictionary()
	d.AddConstant("MCU", "atmega1284")

	var got dictJSON
	if err := json.Unmarshal(d.JSON(), &got); err != nil {
		t.Fatalf("invalid JSON %s: %v", d.JSON(), err)
	}
	if got.Version != "avrkit-test" {
		t.Errorf("version = %q", got.Version)
	}
	if got.Config["CLOCK_FREQ"] != "8000000" || got.Config["MCU"] != "atmega1284" {
		t.Errorf("config = %v", got.Config)
	}
	want := map[string]int{
		"identify offset=%u count=%c": 0,
		"key_event key=%c":            1,
		"nunchuk_calibrate":           2,
	}
	for k, id := range want {
		if got.Messages[k] != id {
			t.Errorf("messages[%q] = %d, want %d", k, got.Messages[k], id)
		}
	}
}

func TestDictionaryChunks(t *testing.T) {
	d := testDictionary()
	if err := d.Build(); err != nil {
		t.Fatalf("Build: %v", err)
	}

	var z []byte
	buf := make([]byte, 0, 40)
	for off := uint32(0); ; {
		c := d.Chunk(buf, off, 40)
		if len(c) == 0 {
			break
		}
		z = append(z, c...)
		off += uint32(len(c))
	}
	if len(z) != d.Size() {
		t.Fatalf("collected %d bytes, Size() = %d", len(z), d.Size())
	}

	r, err := zlib.NewReader(bytes.NewReader(z))
	if err != nil {
		t.Fatalf("zlib: %v", err)
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("inflate: %v", err)
	}
	if !bytes.Equal(raw, d.JSON()) {
		t.Errorf("inflated dictionary differs:\n%s\n%s", raw, d.JSON())
	}

	if c := d.Chunk(buf, uint32(d.Size())+10, 40); len(c) != 0 {
		t.Errorf("chunk past end has %d bytes", len(c))
	}
}

func TestDictionaryRebuildsAfterConstant(t *testing.T) {
	d := testDictionary()
	before := d.Size()
	d.AddConstant("TWI_VOLTAGE", "3v3")
	if after := d.Size(); after <= before {
		t.Errorf("size %d -> %d after adding a constant", before, after)
	}
}
