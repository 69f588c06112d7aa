package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"avrkit/keypad"
	"avrkit/nunchuk"
	"avrkit/rangefinder"
	"avrkit/timer"
)

func TestDefault(t *testing.T) {
	b := Default()
	if err := b.Validate(); err != nil {
		t.Fatalf("default board invalid: %v", err)
	}
	if b.MCU != "atmega32" || b.CPUHz != 8000000 || b.Baud != 38400 {
		t.Errorf("board = %+v", b)
	}
	if !*b.Nintendo {
		t.Error("default Nunchuk should be genuine")
	}
	if *b.Range.Correction != rangefinder.DefaultCorrection {
		t.Errorf("correction = %d", *b.Range.Correction)
	}
	want := Periods{KeypadMS: 100, NunchukMS: 50, RangeMS: 100, DisplayMS: 250}
	if b.Tasks != want {
		t.Errorf("tasks = %+v, want %+v", b.Tasks, want)
	}
}

func TestLoadKeepsExplicitValues(t *testing.T) {
	b, err := Load([]byte(`{
		"mcu": "atmega1284",
		"cpu_hz": 16000000,
		"twi_voltage": "3v3",
		"nintendo": false,
		"keypad_mode": "char",
		"tasks": {"range_ms": 60},
		"range": {"prescaler": 8, "unit": "in", "correction_mm": 0}
	}`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if is1284, _ := b.Is1284(); !is1284 {
		t.Error("mcu not recognized as atmega1284")
	}
	if c, _ := b.NunchukClock(); c != nunchuk.Clock16MHz {
		t.Errorf("clock = %v", c)
	}
	if v, _ := b.NunchukVoltage(); v != nunchuk.Volts3V3 {
		t.Errorf("voltage = %v", v)
	}
	if *b.Nintendo {
		t.Error("explicit false was overwritten")
	}
	if m, _ := b.Keypad(); m != keypad.Char {
		t.Errorf("keypad = %v", m)
	}
	if p, _ := b.RangePrescaler(); p != timer.Prescale8 {
		t.Errorf("prescaler = %v", p)
	}
	if u, _ := b.RangeUnit(); u != rangefinder.Inch {
		t.Errorf("unit = %v", u)
	}
	if *b.Range.Correction != 0 {
		t.Errorf("explicit zero correction became %d", *b.Range.Correction)
	}
	if b.Tasks.KeypadMS != 100 || b.Tasks.RangeMS != 60 {
		t.Errorf("tasks = %+v", b.Tasks)
	}
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name string
		json string
		want error
	}{
		{"mcu", `{"mcu":"attiny85"}`, ErrUnknownMCU},
		{"clock", `{"cpu_hz":12000000}`, nunchuk.ErrUnsupportedClock},
		{"voltage", `{"twi_voltage":"1v8"}`, ErrUnknownVoltage},
		{"keypad", `{"keypad_mode":"dec"}`, ErrUnknownKeypad},
		{"prescaler", `{"range":{"prescaler":32}}`, ErrUnknownPrescale},
		{"unit", `{"range":{"unit":"furlong"}}`, ErrUnknownUnit},
		{"range period", `{"tasks":{"range_ms":20}}`, ErrRangeTooFast},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load([]byte(tt.json)); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
	if _, err := Load([]byte(`{`)); err == nil {
		t.Error("malformed JSON accepted")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.json")
	if err := os.WriteFile(path, []byte(`{"baud":9600}`), 0o644); err != nil {
		t.Fatal(err)
	}
	b, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if b.Baud != 9600 || b.MCU != "atmega32" {
		t.Errorf("board = %+v", b)
	}
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("missing file accepted")
	}
}

func TestPeriod(t *testing.T) {
	if Period(60) != 60000 {
		t.Errorf("Period(60) = %d", Period(60))
	}
}
