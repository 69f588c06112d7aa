package nunchuk

import "tinygo.org/x/drivers"

// Sensor adapts a Device to drivers.Sensor for code that polls a set of
// sensors generically.
type Sensor struct {
	dev *Device
}

var _ drivers.Sensor = Sensor{}

// AsSensor wraps d.
func (d *Device) AsSensor() Sensor {
	return Sensor{dev: d}
}

// Update implements drivers.Sensor. Acceleration is the only measurement;
// the buttons and joystick arrive in the same report.
func (s Sensor) Update(which drivers.Measurement) error {
	if which&drivers.Acceleration == 0 {
		return nil
	}
	return s.dev.Update()
}

// Acceleration returns the calibrated axes in raw sensor counts.
func (s Sensor) Acceleration() (x, y, z int16) {
	return s.dev.AccelX(), s.dev.AccelY(), s.dev.AccelZ()
}
