// Package rangefinder measures distance with an HC-SR04 sonic sensor.
//
// The echo line must be wired to Timer1's input capture pin. The echo
// pulse width is measured in Timer1 ticks and converted with the speed
// of sound.
package rangefinder

import (
	"time"

	"avrkit/core"
	"avrkit/timer"
)

// Unit selects the distance unit returned by Distance and Convert.
type Unit uint8

const (
	Millimeter Unit = iota
	Centimeter
	Decimeter
	Meter
	Inch
	Foot
	Yard
)

// unitScale[u] multiplies millimeters into u.
var unitScale = [...]float64{
	Millimeter: 1,
	Centimeter: 1.0 / 10,
	Decimeter:  1.0 / 100,
	Meter:      1.0 / 1000,
	Inch:       0.0393701,
	Foot:       0.00328084,
	Yard:       0.00109361,
}

const (
	// SpeedOfSoundDefault is the speed of sound in dry air at about
	// 15 C, in meters per second.
	SpeedOfSoundDefault = 340.29

	// MinReadInterval must pass between two readings or the previous
	// ping's echo can be picked up.
	MinReadInterval = 60 * time.Millisecond

	// TriggerPulse is the minimum trigger width.
	TriggerPulse = 10 * time.Microsecond

	// DefaultCorrection is added to every reading until Calibrate runs.
	DefaultCorrection int8 = 5

	// DefaultEchoTimeout bounds each edge wait. The sensor drops the
	// echo line after about 38 ms when nothing is in range.
	DefaultEchoTimeout = 40 * time.Millisecond
)

// Config describes the wiring.
type Config struct {
	Trigger     timer.Pin
	CPUHz       uint32
	EchoTimeout time.Duration
}

// DefaultConfig triggers on PD7 at 8 MHz.
var DefaultConfig = Config{
	Trigger:     timer.Pin{Port: core.PD, Mask: 1 << 7},
	CPUHz:       8000000,
	EchoTimeout: DefaultEchoTimeout,
}

// Finder is one sensor on Timer1.
type Finder struct {
	rf         core.RegisterFile
	t1         *timer.Timer1
	trig       core.Port
	cfg        Config
	clock      core.Clock
	delay      core.Delay
	correction int8
}

// New returns a Finder. Configure must be called before Distance.
func New(rf core.RegisterFile, regs timer.Registers, clock core.Clock, delay core.Delay, cfg Config) *Finder {
	if cfg.CPUHz == 0 {
		cfg.CPUHz = DefaultConfig.CPUHz
	}
	if delay == nil {
		delay = core.Sleep
	}
	return &Finder{
		rf:         rf,
		t1:         timer.NewTimer1(rf, regs),
		trig:       core.NewPort(rf, cfg.Trigger.Port),
		cfg:        cfg,
		clock:      clock,
		delay:      delay,
		correction: DefaultCorrection,
	}
}

// Configure sets up the trigger pin, the capture pin and Timer1.
func (f *Finder) Configure() {
	f.trig.ConfigureOutput(f.cfg.Trigger.Mask)
	f.trig.Low(f.cfg.Trigger.Mask)
	f.t1.ConfigureCapturePin()
	f.t1.SetMode(timer.Normal1, timer.CompareNormal, timer.CompareNormal)
	f.t1.SetNoiseFilter(true)
}

// Distance pings once and returns the range in unit. speed is in
// meters per second. Timer1 is stopped on return, also on timeout.
func (f *Finder) Distance(speed float64, p timer.Prescaler, unit Unit) (uint16, error) {
	f.t1.ClearCapture()
	f.t1.SetEdge(timer.Rising)
	f.t1.SetCounter(0)
	f.t1.SetPrescaler(p)

	f.trig.High(f.cfg.Trigger.Mask)
	f.delay(TriggerPulse)
	f.trig.Low(f.cfg.Trigger.Mask)

	if err := f.waitCapture(1); err != nil {
		return 0, err
	}
	start := f.t1.InputCapture()
	f.t1.ClearCapture()
	f.t1.SetEdge(timer.Falling)

	if err := f.waitCapture(2); err != nil {
		return 0, err
	}
	end := f.t1.InputCapture()
	f.t1.Stop()

	d := Convert(end-start, speed, p, unit, f.cfg.CPUHz, f.correction)
	core.RecordEvent(core.EvtRange, uint8(unit), uint32(end-start), uint32(d))
	return d, nil
}

func (f *Finder) waitCapture(edge uint8) error {
	err := core.Poll(f.clock, f.cfg.EchoTimeout, f.t1.Captured)
	if err != nil {
		f.t1.Stop()
		core.RecordEvent(core.EvtTimeout, edge, uint32(f.cfg.EchoTimeout/time.Microsecond), 0)
	}
	return err
}

// Calibrate sets the correction to actual-measured, both in millimeters,
// and returns it. The result is truncated to int8.
func (f *Finder) Calibrate(measured, actual uint16) int8 {
	f.correction = int8(actual - measured)
	return f.correction
}

// Correction returns the current correction in millimeters.
func (f *Finder) Correction() int8 {
	return f.correction
}

// SetCorrection replaces the correction.
func (f *Finder) SetCorrection(mm int8) {
	f.correction = mm
}

// Convert turns an echo width in timer ticks into a one-way distance.
// External clock prescalers have no known rate and are treated as the
// undivided CPU clock. Unknown units give centimeters.
func Convert(ticks uint16, speed float64, p timer.Prescaler, unit Unit, cpuHz uint32, correctionMM int8) uint16 {
	div := p.Divisor()
	if div == 0 {
		div = 1
	}
	ms := float64(ticks) * 1000 / float64(cpuHz/div)
	mm := ms*speed*0.5 + float64(correctionMM)

	return unit.fromMM(mm)
}

func (u Unit) fromMM(mm float64) uint16 {
	scale := unitScale[Centimeter]
	if int(u) < len(unitScale) {
		scale = unitScale[u]
	}
	v := mm * scale
	if v < 0 {
		return 0
	}
	return uint16(v)
}

// FromMillimeters converts a millimeter reading to u, truncating.
// Unknown units give centimeters.
func (u Unit) FromMillimeters(mm uint16) uint16 {
	return u.fromMM(float64(mm))
}

var unitNames = [...]string{
	Millimeter: "mm",
	Centimeter: "cm",
	Decimeter:  "dm",
	Meter:      "m",
	Inch:       "in",
	Foot:       "ft",
	Yard:       "yd",
}

// String returns the unit symbol.
func (u Unit) String() string {
	if int(u) < len(unitNames) {
		return unitNames[u]
	}
	return "?"
}

// SpeedOfSound approximates the speed of sound in dry air at one
// atmosphere, in meters per second.
func SpeedOfSound(celsius float64) float64 {
	return 331.3 + 0.606*celsius
}
