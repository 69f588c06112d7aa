// Package nunchuk reads a Wii Nunchuk over the TWI bus.
//
// A sample is six bytes: joystick X and Y, the top eight bits of the
// three accelerometer axes, and a byte packing the two buttons with the
// accelerometer low bits. Getters are pure functions of the last good
// sample and the calibration offsets.
package nunchuk

import (
	"errors"
	"math"

	"avrkit/core"
	"avrkit/twi"
)

// Address is the Nunchuk's fixed 7-bit bus address.
const Address = 0x52

const (
	decodeKey = 0x17

	initCode1    = 0x40
	initCode2    = 0x00
	altInitCode1 = 0xF0
	altInitCode2 = 0x55
	altInitCode3 = 0xFB
	altInitCode4 = 0x00
	readCode     = 0x00
)

// Neutral and full-deflection readings of a typical controller.
const (
	MidAccelX       = 512
	AccelXFullLeft  = 300
	AccelXFullRight = 740

	MidAccelY         = 512
	AccelYFullBack    = 280
	AccelYFullForward = 720

	MidAccelZ      = 512
	AccelZFullUp   = 760
	AccelZFullDown = 320

	MidJoyX       = 128
	JoyXFullLeft  = 35
	JoyXFullRight = 228

	MidJoyY      = 128
	JoyYFullUp   = 220
	JoyYFullDown = 27
)

// ClockFreq is the CPU clock the bus is being configured for.
type ClockFreq uint8

const (
	Clock8MHz ClockFreq = iota
	Clock16MHz
	Clock20MHz
)

// Voltage is the supply the controller runs at.
type Voltage uint8

const (
	Volts5 Voltage = iota
	Volts3V3
)

var ErrUnsupportedClock = errors.New("nunchuk: unsupported clock or voltage")

type busSetting struct {
	prescaler twi.Prescaler
	bitRate   uint8
}

// Found by trial on real controllers rather than from the SCL formula.
var busSettings = [3][2]busSetting{
	Clock8MHz:  {Volts5: {twi.PrescaleOne, 152}, Volts3V3: {twi.Prescale4, 158}},
	Clock16MHz: {Volts5: {twi.Prescale4, 76}, Volts3V3: {twi.Prescale16, 79}},
	Clock20MHz: {Volts5: {twi.Prescale4, 95}, Volts3V3: {twi.Prescale64, 25}},
}

// ConfigureBus sets a bit rate the controller tolerates.
func ConfigureBus(bus *twi.Bus, clock ClockFreq, v Voltage) error {
	if int(clock) >= len(busSettings) || v > Volts3V3 {
		return ErrUnsupportedClock
	}
	s := busSettings[clock][v]
	bus.Init(s.prescaler, s.bitRate)
	return nil
}

// Sample is one raw (decoded) report.
type Sample [6]byte

// Offsets are the readings subtracted by the getters.
type Offsets struct {
	JoyX, JoyY             uint8
	AccelX, AccelY, AccelZ uint16
}

// NeutralOffsets centers every axis on its nominal midpoint.
var NeutralOffsets = Offsets{
	JoyX:   MidJoyX,
	JoyY:   MidJoyY,
	AccelX: MidAccelX,
	AccelY: MidAccelY,
	AccelZ: MidAccelZ,
}

// Device is one controller on a bus.
type Device struct {
	bus      *twi.Bus
	nintendo bool
	raw      Sample
	zero     Offsets
}

// New returns a device with neutral offsets, assuming Nintendo hardware
// until Init says otherwise.
func New(bus *twi.Bus) *Device {
	return &Device{
		bus:      bus,
		nintendo: true,
		zero:     NeutralOffsets,
	}
}

// Init wakes the controller. Nintendo units take the classic init
// sequence and send obfuscated data; third-party units take the
// two-write sequence and send plain data.
func (d *Device) Init(nintendo bool) error {
	d.nintendo = nintendo
	if nintendo {
		return d.bus.Write(Address, initCode1, initCode2)
	}
	if err := d.bus.Write(Address, altInitCode1, altInitCode2); err != nil {
		return err
	}
	return d.bus.Write(Address, altInitCode3, altInitCode4)
}

// StartRead asks the controller to latch a report. The first request
// after Init takes longer than later ones.
func (d *Device) StartRead() error {
	return d.bus.Write(Address, readCode)
}

// Update reads the latched report. The sample is replaced only when
// every bus step succeeds; on error the getters keep returning the
// previous values.
func (d *Device) Update() error {
	var buf Sample
	tx := twi.Transaction{Address: Address, Dir: twi.Read, Data: buf[:]}
	if err := d.bus.Exec(&tx); err != nil {
		return err
	}
	if d.nintendo {
		for i := range buf {
			buf[i] = decrypt(buf[i])
		}
	}
	d.raw = buf
	core.RecordEvent(core.EvtNunchuk, 0, uint32(buf[0])<<8|uint32(buf[1]), uint32(buf[5]))
	return nil
}

// Calibrate reads a fresh sample and takes it as the neutral position.
func (d *Device) Calibrate() error {
	if err := d.Update(); err != nil {
		return err
	}
	d.zero = Offsets{
		JoyX:   d.raw[0],
		JoyY:   d.raw[1],
		AccelX: d.rawAccel(2, 2),
		AccelY: d.rawAccel(3, 4),
		AccelZ: d.rawAccel(4, 6),
	}
	return nil
}

func decrypt(b byte) byte {
	return (b ^ decodeKey) + decodeKey
}

// SetSample replaces the stored report, for replaying captured data.
func (d *Device) SetSample(s Sample) {
	d.raw = s
}

// Raw returns the last good report.
func (d *Device) Raw() Sample {
	return d.raw
}

// Offsets returns the current calibration.
func (d *Device) Offsets() Offsets {
	return d.zero
}

// SetOffsets installs a calibration captured earlier.
func (d *Device) SetOffsets(o Offsets) {
	d.zero = o
}

// rawAccel joins the high byte at idx with the two low bits of byte 5
// starting at shift.
func (d *Device) rawAccel(idx int, shift uint8) uint16 {
	return uint16(d.raw[idx])<<2 | uint16(d.raw[5]>>shift)&0x03
}

// JoyX returns the joystick X deflection from the calibrated center.
func (d *Device) JoyX() int8 {
	return int8(d.raw[0] - d.zero.JoyX)
}

// JoyY returns the joystick Y deflection from the calibrated center.
func (d *Device) JoyY() int8 {
	return int8(d.raw[1] - d.zero.JoyY)
}

// ButtonC reports whether C is held. The bit is active low.
func (d *Device) ButtonC() bool {
	return d.raw[5]&0x02 == 0
}

// ButtonZ reports whether Z is held. The bit is active low.
func (d *Device) ButtonZ() bool {
	return d.raw[5]&0x01 == 0
}

func (d *Device) AccelX() int16 {
	return int16(d.rawAccel(2, 2)) - int16(d.zero.AccelX)
}

func (d *Device) AccelY() int16 {
	return int16(d.rawAccel(3, 4)) - int16(d.zero.AccelY)
}

func (d *Device) AccelZ() int16 {
	return int16(d.rawAccel(4, 6)) - int16(d.zero.AccelZ)
}

// Roll returns the tilt around the Y axis in degrees.
func (d *Device) Roll() float32 {
	return float32(math.Atan2(float64(d.AccelX()), float64(d.AccelZ())) / math.Pi * 180)
}

// Pitch returns the tilt around the X axis in degrees.
func (d *Device) Pitch() float32 {
	return float32(math.Atan2(float64(d.AccelY()), float64(d.AccelZ())) / math.Pi * 180)
}
