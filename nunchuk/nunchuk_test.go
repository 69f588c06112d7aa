package nunchuk

import (
	"bytes"
	"errors"
	"testing"

	"avrkit/core"
	"avrkit/twi"
	"avrkit/twi/twitest"

	"tinygo.org/x/drivers"
)

func encrypt(b byte) byte {
	return (b - decodeKey) ^ decodeKey
}

func encryptAll(s Sample) []byte {
	out := make([]byte, len(s))
	for i, b := range s {
		out[i] = encrypt(b)
	}
	return out
}

func newDevice(t *testing.T) (*Device, *twitest.Fake) {
	t.Helper()
	fake := twitest.New(twi.ATmega32, Address)
	bus := twi.New(fake.Regs, twi.ATmega32, &core.FakeClock{Step: 10})
	return New(bus), fake
}

func TestDecryptRoundTrip(t *testing.T) {
	for b := 0; b < 256; b++ {
		if got := decrypt(encrypt(byte(b))); got != byte(b) {
			t.Fatalf("decrypt(encrypt(%d)) = %d", b, got)
		}
	}
	if decrypt(0x17) != 0x17 {
		t.Errorf("decrypt(0x17) = 0x%02X", decrypt(0x17))
	}
}

func TestConfigureBus(t *testing.T) {
	tests := []struct {
		name    string
		clock   ClockFreq
		voltage Voltage
		twsr    uint8
		twbr    uint8
	}{
		{"8MHz 5V", Clock8MHz, Volts5, 0, 152},
		{"8MHz 3.3V", Clock8MHz, Volts3V3, twi.TWPS0, 158},
		{"16MHz 5V", Clock16MHz, Volts5, twi.TWPS0, 76},
		{"16MHz 3.3V", Clock16MHz, Volts3V3, twi.TWPS1, 79},
		{"20MHz 5V", Clock20MHz, Volts5, twi.TWPS0, 95},
		{"20MHz 3.3V", Clock20MHz, Volts3V3, twi.TWPS0 | twi.TWPS1, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rf := core.NewSimRegisters()
			bus := twi.New(rf, twi.ATmega32, &core.FakeClock{})
			if err := ConfigureBus(bus, tt.clock, tt.voltage); err != nil {
				t.Fatalf("ConfigureBus: %v", err)
			}
			if got := rf.Peek(twi.ATmega32.TWSR); got != tt.twsr {
				t.Errorf("TWSR = 0x%02X, want 0x%02X", got, tt.twsr)
			}
			if got := rf.Peek(twi.ATmega32.TWBR); got != tt.twbr {
				t.Errorf("TWBR = %d, want %d", got, tt.twbr)
			}
		})
	}
}

func TestConfigureBusUnsupported(t *testing.T) {
	rf := core.NewSimRegisters()
	bus := twi.New(rf, twi.ATmega32, &core.FakeClock{})

	if err := ConfigureBus(bus, ClockFreq(3), Volts5); !errors.Is(err, ErrUnsupportedClock) {
		t.Errorf("unknown clock: %v", err)
	}
	if err := ConfigureBus(bus, Clock16MHz, Voltage(2)); !errors.Is(err, ErrUnsupportedClock) {
		t.Errorf("unknown voltage: %v", err)
	}
	if len(rf.Writes(twi.ATmega32.TWBR)) != 0 {
		t.Error("bit rate written for an unsupported setting")
	}
}

func TestInitSequences(t *testing.T) {
	t.Run("nintendo", func(t *testing.T) {
		dev, fake := newDevice(t)
		if err := dev.Init(true); err != nil {
			t.Fatalf("Init: %v", err)
		}
		if len(fake.Writes) != 1 || !bytes.Equal(fake.Writes[0], []byte{0x40, 0x00}) {
			t.Errorf("writes = %X", fake.Writes)
		}
	})

	t.Run("third party", func(t *testing.T) {
		dev, fake := newDevice(t)
		if err := dev.Init(false); err != nil {
			t.Fatalf("Init: %v", err)
		}
		if len(fake.Writes) != 2 ||
			!bytes.Equal(fake.Writes[0], []byte{0xF0, 0x55}) ||
			!bytes.Equal(fake.Writes[1], []byte{0xFB, 0x00}) {
			t.Errorf("writes = %X", fake.Writes)
		}
	})

	t.Run("third party second write fails", func(t *testing.T) {
		dev, fake := newDevice(t)
		// START, SLA+W, two bytes and STOP, then the second START
		fake.FailStep = 6
		if err := dev.Init(false); !errors.Is(err, twi.ErrUnexpectedStatus) {
			t.Fatalf("Init returned %v", err)
		}
	})
}

func TestStartRead(t *testing.T) {
	dev, fake := newDevice(t)
	if err := dev.StartRead(); err != nil {
		t.Fatalf("StartRead: %v", err)
	}
	if len(fake.Writes) != 1 || !bytes.Equal(fake.Writes[0], []byte{0x00}) {
		t.Errorf("writes = %X", fake.Writes)
	}
}

func TestUpdateDecodesNintendoData(t *testing.T) {
	dev, fake := newDevice(t)
	want := Sample{200, 30, 150, 100, 140, 0xB6}
	fake.ReadData = encryptAll(want)

	if err := dev.Update(); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if dev.Raw() != want {
		t.Errorf("Raw = %v, want %v", dev.Raw(), want)
	}
}

func TestUpdateThirdPartyIsPlain(t *testing.T) {
	dev, fake := newDevice(t)
	if err := dev.Init(false); err != nil {
		t.Fatal(err)
	}
	want := Sample{1, 2, 3, 4, 5, 6}
	fake.ReadData = want[:]

	if err := dev.Update(); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if dev.Raw() != want {
		t.Errorf("Raw = %v, want %v", dev.Raw(), want)
	}
}

func TestNeutralSample(t *testing.T) {
	dev, _ := newDevice(t)
	dev.SetSample(Sample{128, 128, 128, 128, 128, 0})

	if dev.JoyX() != 0 || dev.JoyY() != 0 {
		t.Errorf("joystick = (%d,%d), want (0,0)", dev.JoyX(), dev.JoyY())
	}
	if !dev.ButtonC() || !dev.ButtonZ() {
		t.Errorf("buttons C=%v Z=%v, want both pressed", dev.ButtonC(), dev.ButtonZ())
	}
	if dev.AccelX() != 0 || dev.AccelY() != 0 || dev.AccelZ() != 0 {
		t.Errorf("accel = (%d,%d,%d)", dev.AccelX(), dev.AccelY(), dev.AccelZ())
	}
}

func TestGetters(t *testing.T) {
	dev, _ := newDevice(t)
	// low bits: X=01, Y=10, Z=11; C released, Z pressed
	dev.SetSample(Sample{JoyXFullRight, JoyYFullDown, 185, 70, 190, 0b11_10_01_10})

	if got := dev.JoyX(); got != JoyXFullRight-MidJoyX {
		t.Errorf("JoyX = %d", got)
	}
	if got := dev.JoyY(); got != JoyYFullDown-MidJoyY {
		t.Errorf("JoyY = %d", got)
	}
	if dev.ButtonC() {
		t.Error("C should be released")
	}
	if !dev.ButtonZ() {
		t.Error("Z should be pressed")
	}
	if got := dev.AccelX(); got != 185<<2|1-MidAccelX {
		t.Errorf("AccelX = %d", got)
	}
	if got := dev.AccelY(); got != 70<<2|2-MidAccelY {
		t.Errorf("AccelY = %d", got)
	}
	if got := dev.AccelZ(); got != 190<<2|3-MidAccelZ {
		t.Errorf("AccelZ = %d", got)
	}
}

func TestCalibrateZeroesEveryAxis(t *testing.T) {
	dev, fake := newDevice(t)
	sample := Sample{140, 110, 130, 120, 190, 0b10_01_11_00}
	fake.ReadData = encryptAll(sample)

	if err := dev.Calibrate(); err != nil {
		t.Fatalf("Calibrate: %v", err)
	}
	if err := dev.Update(); err != nil {
		t.Fatalf("Update: %v", err)
	}

	if dev.JoyX() != 0 || dev.JoyY() != 0 {
		t.Errorf("joystick = (%d,%d)", dev.JoyX(), dev.JoyY())
	}
	if dev.AccelX() != 0 || dev.AccelY() != 0 || dev.AccelZ() != 0 {
		t.Errorf("accel = (%d,%d,%d)", dev.AccelX(), dev.AccelY(), dev.AccelZ())
	}
	if got := dev.Offsets(); got.JoyX != 140 || got.AccelZ != 190<<2|2 {
		t.Errorf("Offsets = %+v", got)
	}
}

func TestUpdateFailureKeepsPreviousSample(t *testing.T) {
	good := Sample{128, 128, 128, 128, 128, 0}

	// Steps: 1 START, 2 SLA+R, 3..8 the six receives.
	for step := 1; step <= 8; step++ {
		dev, fake := newDevice(t)
		dev.SetSample(good)
		fake.ReadData = encryptAll(Sample{1, 2, 3, 4, 5, 0xFF})
		fake.FailStep = step

		if err := dev.Update(); !errors.Is(err, twi.ErrUnexpectedStatus) {
			t.Fatalf("step %d: Update returned %v", step, err)
		}
		if dev.Raw() != good {
			t.Errorf("step %d: sample changed to %v", step, dev.Raw())
		}
		if dev.JoyX() != 0 || !dev.ButtonC() || dev.AccelZ() != 0 {
			t.Errorf("step %d: getters moved", step)
		}
		if fake.Stops != 0 {
			t.Errorf("step %d: STOP sent after failure", step)
		}
	}
}

func TestCalibrateFailureKeepsOffsets(t *testing.T) {
	dev, fake := newDevice(t)
	fake.FailStep = 2

	if err := dev.Calibrate(); err == nil {
		t.Fatal("Calibrate succeeded on a failing bus")
	}
	if dev.Offsets() != NeutralOffsets {
		t.Errorf("Offsets = %+v", dev.Offsets())
	}
}

func TestUpdateTimeout(t *testing.T) {
	dev, fake := newDevice(t)
	fake.Stuck = true

	if err := dev.Update(); !errors.Is(err, core.ErrTimeout) {
		t.Errorf("Update returned %v", err)
	}
}

func TestRollPitch(t *testing.T) {
	dev, _ := newDevice(t)
	// level: X and Y centered, Z pulled by gravity
	dev.SetSample(Sample{128, 128, 128, 128, AccelZFullUp >> 2, 0})

	if r := dev.Roll(); r != 0 {
		t.Errorf("Roll = %v", r)
	}
	if p := dev.Pitch(); p != 0 {
		t.Errorf("Pitch = %v", p)
	}

	dev.SetSample(Sample{128, 128, (MidAccelX + 248) >> 2, 128, AccelZFullUp >> 2, 0})
	if r := dev.Roll(); r < 44.9 || r > 45.1 {
		t.Errorf("Roll = %v, want 45", r)
	}
}

func TestSensorAdapter(t *testing.T) {
	dev, fake := newDevice(t)
	fake.ReadData = encryptAll(Sample{128, 128, 130, 128, 128, 0})
	s := dev.AsSensor()

	if err := s.Update(drivers.Temperature); err != nil {
		t.Fatalf("Update(Temperature): %v", err)
	}
	if fake.Steps != 0 {
		t.Error("non-acceleration update touched the bus")
	}

	if err := s.Update(drivers.Acceleration); err != nil {
		t.Fatalf("Update(Acceleration): %v", err)
	}
	if x, _, _ := s.Acceleration(); x != 8 {
		t.Errorf("x = %d, want 8", x)
	}
}
