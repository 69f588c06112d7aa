package rangefinder

import (
	"errors"
	"testing"
	"time"

	"avrkit/core"
	"avrkit/timer"
)

// echo simulates the sensor: after the trigger falls it raises ICF1 once
// for the rising edge and once for the falling edge, latching the given
// capture values.
type echo struct {
	rf         *core.SimRegisters
	start, end uint16
	silent     bool

	triggered bool
	phase     int
	pulses    int
}

func newEcho(start, end uint16) *echo {
	e := &echo{rf: core.NewSimRegisters(), start: start, end: end}
	regs := timer.ATmega32
	trig := DefaultConfig.Trigger
	e.rf.OnWrite = func(r core.Reg, v uint8) {
		switch r {
		case trig.Port.PORT:
			if v&trig.Mask != 0 {
				e.triggered = true
			} else if e.triggered {
				e.triggered = false
				e.pulses++
				if e.phase == 0 {
					e.phase = 1
				}
			}
		case regs.TIFR:
			if v&timer.ICF1 != 0 && e.phase == 1 {
				e.phase = 2
			}
		}
	}
	e.rf.OnRead = func(r core.Reg, stored uint8) uint8 {
		if r != regs.TIFR {
			return stored
		}
		if e.silent {
			return 0
		}
		rising := e.rf.Peek(regs.TCCR1B)&timer.ICES1 != 0
		switch {
		case e.phase == 1 && rising:
			e.latch(e.start)
			return timer.ICF1
		case e.phase == 2 && !rising:
			e.latch(e.end)
			return timer.ICF1
		}
		return 0
	}
	return e
}

func (e *echo) latch(v uint16) {
	e.rf.Poke(timer.ATmega32.ICR1H, uint8(v>>8))
	e.rf.Poke(timer.ATmega32.ICR1L, uint8(v))
}

func newFinder(e *echo) (*Finder, *[]time.Duration) {
	var delays []time.Duration
	f := New(e.rf, timer.ATmega32, &core.FakeClock{Step: 1000}, func(d time.Duration) {
		delays = append(delays, d)
	}, DefaultConfig)
	f.Configure()
	return f, &delays
}

func TestConvert(t *testing.T) {
	tests := []struct {
		name string
		p    timer.Prescaler
		unit Unit
		want uint16
	}{
		{"mm", timer.Prescale64, Millimeter, 1366},
		{"cm", timer.Prescale64, Centimeter, 136},
		{"dm", timer.Prescale64, Decimeter, 13},
		{"m", timer.Prescale64, Meter, 1},
		{"inch", timer.Prescale64, Inch, 53},
		{"foot", timer.Prescale64, Foot, 4},
		{"yard", timer.Prescale64, Yard, 1},
		{"unknown unit is cm", timer.Prescale64, Unit(20), 136},
		{"undivided", timer.PrescaleNone, Millimeter, 26},
		{"external uses cpu clock", timer.ExternalRising, Millimeter, 26},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Convert(1000, SpeedOfSoundDefault, tt.p, tt.unit, 8000000, DefaultCorrection)
			if got != tt.want {
				t.Errorf("Convert = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestConvertNegativeClampsToZero(t *testing.T) {
	if got := Convert(0, SpeedOfSoundDefault, timer.Prescale8, Millimeter, 8000000, -20); got != 0 {
		t.Errorf("Convert = %d, want 0", got)
	}
}

func TestSpeedOfSound(t *testing.T) {
	if got := SpeedOfSound(0); got != 331.3 {
		t.Errorf("SpeedOfSound(0) = %v", got)
	}
	if got := SpeedOfSound(20); got < 343.41 || got > 343.43 {
		t.Errorf("SpeedOfSound(20) = %v, want ~343.42", got)
	}
}

func TestConfigure(t *testing.T) {
	e := newEcho(0, 0)
	e.rf.Poke(core.PD.PORT, 1<<7|1<<6)
	e.rf.Poke(core.PD.DDR, 1<<6)
	newFinder(e)

	regs := timer.ATmega32
	if got := e.rf.Peek(core.PD.DDR); got != 1<<7 {
		t.Errorf("DDRD = %08b, want trigger out, capture in", got)
	}
	if got := e.rf.Peek(core.PD.PORT); got != 0 {
		t.Errorf("PORTD = %08b, want trigger low and no pull-up", got)
	}
	if got := e.rf.Peek(regs.TCCR1B); got != timer.ICNC1 {
		t.Errorf("TCCR1B = %08b, want normal mode with noise filter", got)
	}
}

func TestDistance(t *testing.T) {
	e := newEcho(100, 1100)
	f, delays := newFinder(e)

	got, err := f.Distance(SpeedOfSoundDefault, timer.Prescale64, Millimeter)
	if err != nil {
		t.Fatalf("Distance: %v", err)
	}
	if got != 1366 {
		t.Errorf("Distance = %d mm, want 1366", got)
	}
	if e.pulses != 1 {
		t.Errorf("trigger pulses = %d, want 1", e.pulses)
	}
	if len(*delays) != 1 || (*delays)[0] < TriggerPulse {
		t.Errorf("trigger delays = %v", *delays)
	}
	if e.rf.Peek(timer.ATmega32.TCCR1B)&timer.CS0 != 0 {
		t.Error("timer left running")
	}
}

func TestDistanceCounterWrap(t *testing.T) {
	e := newEcho(65000, 464) // 1000 ticks across the wrap
	f, _ := newFinder(e)
	got, err := f.Distance(SpeedOfSoundDefault, timer.Prescale64, Millimeter)
	if err != nil || got != 1366 {
		t.Errorf("Distance = %d, %v; want 1366", got, err)
	}
}

func TestDistanceTimeout(t *testing.T) {
	e := newEcho(0, 0)
	e.silent = true
	f, _ := newFinder(e)

	_, err := f.Distance(SpeedOfSoundDefault, timer.Prescale64, Centimeter)
	if !errors.Is(err, core.ErrTimeout) {
		t.Fatalf("err = %v, want timeout", err)
	}
	if e.rf.Peek(timer.ATmega32.TCCR1B)&(timer.CS0|timer.CS1|timer.CS2) != 0 {
		t.Error("timer left running after timeout")
	}
}

func TestCalibrate(t *testing.T) {
	f := New(core.NewSimRegisters(), timer.ATmega32, &core.FakeClock{}, nil, DefaultConfig)
	if f.Correction() != DefaultCorrection {
		t.Fatalf("default correction = %d", f.Correction())
	}
	if got := f.Calibrate(1366, 1350); got != -16 {
		t.Errorf("Calibrate = %d, want -16", got)
	}
	if got := Convert(1000, SpeedOfSoundDefault, timer.Prescale64, Millimeter, 8000000, f.Correction()); got != 1345 {
		t.Errorf("corrected Convert = %d, want 1345", got)
	}
}

func TestUnitFromMillimeters(t *testing.T) {
	tests := []struct {
		unit Unit
		want uint16
		name string
	}{
		{Millimeter, 1366, "mm"},
		{Centimeter, 136, "cm"},
		{Meter, 1, "m"},
		{Inch, 53, "in"},
		{Unit(42), 136, "?"},
	}
	for _, tt := range tests {
		if got := tt.unit.FromMillimeters(1366); got != tt.want {
			t.Errorf("%v.FromMillimeters(1366) = %d, want %d", tt.unit, got, tt.want)
		}
		if tt.unit.String() != tt.name {
			t.Errorf("String() = %q, want %q", tt.unit.String(), tt.name)
		}
	}
}
