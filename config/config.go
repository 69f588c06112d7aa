// Package config describes one board: the part, its clock, how the
// peripherals are wired, and how often the firmware polls them.
//
// Default returns the compiled-in board used by the firmware. Host tools
// load the same structure from JSON with Load.
package config

import (
	"errors"
	"time"

	"avrkit/keypad"
	"avrkit/nunchuk"
	"avrkit/rangefinder"
	"avrkit/timer"
)

var (
	ErrUnknownMCU      = errors.New("config: unknown mcu")
	ErrUnknownVoltage  = errors.New("config: unknown twi_voltage")
	ErrUnknownKeypad   = errors.New("config: unknown keypad_mode")
	ErrUnknownUnit     = errors.New("config: unknown range unit")
	ErrUnknownPrescale = errors.New("config: unknown range prescaler")
	ErrRangeTooFast    = errors.New("config: range period below 60ms")
)

// Board is the full board description.
type Board struct {
	MCU        string  `json:"mcu"`         // atmega32 or atmega1284
	CPUHz      uint32  `json:"cpu_hz"`      // 8, 16 or 20 MHz
	Baud       uint32  `json:"baud"`        // telemetry USART
	TWIVoltage string  `json:"twi_voltage"` // 5v or 3v3
	Nintendo   *bool   `json:"nintendo"`    // encrypted Nunchuk init
	KeypadMode string  `json:"keypad_mode"` // hex or char
	Tasks      Periods `json:"tasks"`
	Range      Range   `json:"range"`
}

// Periods are task periods in milliseconds.
type Periods struct {
	KeypadMS  uint32 `json:"keypad_ms"`
	NunchukMS uint32 `json:"nunchuk_ms"`
	RangeMS   uint32 `json:"range_ms"`
	DisplayMS uint32 `json:"display_ms"`
}

// Range configures the HC-SR04 readings.
type Range struct {
	Prescaler    uint32  `json:"prescaler"` // 1, 8, 64, 256 or 1024
	Unit         string  `json:"unit"`      // mm, cm, dm, m, in, ft, yd
	SpeedOfSound float64 `json:"speed_of_sound"`
	Correction   *int8   `json:"correction_mm"`
}

// Default returns the reference board: an ATmega32 at 8 MHz with a
// genuine Nunchuk on a 5 V bus.
func Default() *Board {
	b := &Board{}
	applyDefaults(b)
	return b
}

// applyDefaults fills zero fields.
func applyDefaults(b *Board) {
	if b.MCU == "" {
		b.MCU = "atmega32"
	}
	if b.CPUHz == 0 {
		b.CPUHz = 8000000
	}
	if b.Baud == 0 {
		b.Baud = 38400
	}
	if b.TWIVoltage == "" {
		b.TWIVoltage = "5v"
	}
	if b.Nintendo == nil {
		genuine := true
		b.Nintendo = &genuine
	}
	if b.KeypadMode == "" {
		b.KeypadMode = "hex"
	}
	if b.Tasks.KeypadMS == 0 {
		b.Tasks.KeypadMS = 100
	}
	if b.Tasks.NunchukMS == 0 {
		b.Tasks.NunchukMS = 50
	}
	if b.Tasks.RangeMS == 0 {
		b.Tasks.RangeMS = 100
	}
	if b.Tasks.DisplayMS == 0 {
		b.Tasks.DisplayMS = 250
	}
	if b.Range.Prescaler == 0 {
		b.Range.Prescaler = 64
	}
	if b.Range.Unit == "" {
		b.Range.Unit = "mm"
	}
	if b.Range.SpeedOfSound == 0 {
		b.Range.SpeedOfSound = rangefinder.SpeedOfSoundDefault
	}
	if b.Range.Correction == nil {
		c := rangefinder.DefaultCorrection
		b.Range.Correction = &c
	}
}

// Validate checks every named setting.
func (b *Board) Validate() error {
	if _, err := b.Is1284(); err != nil {
		return err
	}
	if _, err := b.NunchukClock(); err != nil {
		return err
	}
	if _, err := b.NunchukVoltage(); err != nil {
		return err
	}
	if _, err := b.Keypad(); err != nil {
		return err
	}
	if _, err := b.RangePrescaler(); err != nil {
		return err
	}
	if _, err := b.RangeUnit(); err != nil {
		return err
	}
	if time.Duration(b.Tasks.RangeMS)*time.Millisecond < rangefinder.MinReadInterval {
		return ErrRangeTooFast
	}
	return nil
}

// Is1284 reports whether the board uses the ATmega1284 register layout.
func (b *Board) Is1284() (bool, error) {
	switch b.MCU {
	case "atmega32":
		return false, nil
	case "atmega1284", "atmega1284p":
		return true, nil
	}
	return false, ErrUnknownMCU
}

var clocks = map[uint32]nunchuk.ClockFreq{
	8000000:  nunchuk.Clock8MHz,
	16000000: nunchuk.Clock16MHz,
	20000000: nunchuk.Clock20MHz,
}

// NunchukClock maps CPUHz onto a supported bus setting.
func (b *Board) NunchukClock() (nunchuk.ClockFreq, error) {
	c, ok := clocks[b.CPUHz]
	if !ok {
		return 0, nunchuk.ErrUnsupportedClock
	}
	return c, nil
}

var voltages = map[string]nunchuk.Voltage{
	"5v":  nunchuk.Volts5,
	"3v3": nunchuk.Volts3V3,
}

func (b *Board) NunchukVoltage() (nunchuk.Voltage, error) {
	v, ok := voltages[b.TWIVoltage]
	if !ok {
		return 0, ErrUnknownVoltage
	}
	return v, nil
}

var keypadModes = map[string]keypad.Mode{
	"hex":  keypad.Hex,
	"char": keypad.Char,
}

func (b *Board) Keypad() (keypad.Mode, error) {
	m, ok := keypadModes[b.KeypadMode]
	if !ok {
		return 0, ErrUnknownKeypad
	}
	return m, nil
}

var prescalers = map[uint32]timer.Prescaler{
	1:    timer.PrescaleNone,
	8:    timer.Prescale8,
	64:   timer.Prescale64,
	256:  timer.Prescale256,
	1024: timer.Prescale1024,
}

func (b *Board) RangePrescaler() (timer.Prescaler, error) {
	p, ok := prescalers[b.Range.Prescaler]
	if !ok {
		return 0, ErrUnknownPrescale
	}
	return p, nil
}

var units = map[string]rangefinder.Unit{
	"mm": rangefinder.Millimeter,
	"cm": rangefinder.Centimeter,
	"dm": rangefinder.Decimeter,
	"m":  rangefinder.Meter,
	"in": rangefinder.Inch,
	"ft": rangefinder.Foot,
	"yd": rangefinder.Yard,
}

func (b *Board) RangeUnit() (rangefinder.Unit, error) {
	u, ok := units[b.Range.Unit]
	if !ok {
		return 0, ErrUnknownUnit
	}
	return u, nil
}

// Period converts a millisecond period to microseconds for core.Task.
func Period(ms uint32) uint32 {
	return ms * 1000
}
