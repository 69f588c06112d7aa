// Package firmware composes the drivers into the board application.
//
// The App runs from a plain loop: Poll drains received telemetry bytes,
// dispatches complete command frames and then runs every scheduler task
// that is due. All hardware access goes through one register file, so
// the same App runs on the chip and against a simulated bank in tests.
package firmware

import (
	"errors"

	"avrkit/config"
	"avrkit/core"
	"avrkit/keypad"
	"avrkit/lcd"
	"avrkit/nunchuk"
	"avrkit/protocol"
	"avrkit/rangefinder"
	"avrkit/sevenseg"
	"avrkit/timer"
	"avrkit/twi"
	"avrkit/usart"
)

// Layout selects the register presets for one part.
type Layout struct {
	TWI   twi.Registers
	USART usart.Registers
	// Timer is nil on parts without a Timer1 preset; the range task is
	// then not scheduled.
	Timer *timer.Registers
	// Pins is the default wiring at this part's port addresses.
	Pins Pins
}

var (
	ATmega32   = Layout{TWI: twi.ATmega32, USART: usart.ATmega32, Timer: &timer.ATmega32, Pins: DefaultPins}
	ATmega1284 = Layout{TWI: twi.ATmega1284, USART: usart.ATmega1284, Pins: Pins1284}
)

// LayoutFor returns the presets for the board's MCU.
func LayoutFor(board *config.Board) (Layout, error) {
	is1284, err := board.Is1284()
	if err != nil {
		return Layout{}, err
	}
	if is1284 {
		return ATmega1284, nil
	}
	return ATmega32, nil
}

// Pins is the board wiring.
type Pins struct {
	Keypad   keypad.Config
	LCD      lcd.Config
	Segments core.PortRegs
	Range    rangefinder.Config
}

// DefaultPins is the ATmega32 wiring: keypad on PORTA, 7-segment on PORTB, LCD on PORTC above
// the TWI pins, range finder trigger on PD7.
var DefaultPins = Pins{
	Keypad:   keypad.DefaultConfig,
	LCD:      lcd.DefaultConfig,
	Segments: core.PB,
	Range:    rangefinder.DefaultConfig,
}

// Pins1284 is DefaultPins at the ATmega1284 port addresses.
var Pins1284 = Pins{
	Keypad:   onPort(keypad.DefaultConfig, core.PA1284),
	LCD:      onLCDPorts(lcd.DefaultConfig, core.PC1284),
	Segments: core.PB1284,
	Range:    onTrigger(rangefinder.DefaultConfig, core.PD1284),
}

func onPort(c keypad.Config, p core.PortRegs) keypad.Config {
	c.Port = p
	return c
}

func onLCDPorts(c lcd.Config, p core.PortRegs) lcd.Config {
	c.Data, c.Ctrl = p, p
	return c
}

func onTrigger(c rangefinder.Config, p core.PortRegs) rangefinder.Config {
	c.Trigger.Port = p
	return c
}

// Status codes sent in bus_error when the failure was not a status
// mismatch.
const (
	StepInit    = 0x00
	StatusStuck = 0xF8 // TWINT never set
	StatusOther = 0xFF
)

// Telemetry ranges are always millimeters; the board unit is only for
// the LCD.
const rangeUnitMM = rangefinder.Millimeter

var errNoRangeFinder = errors.New("firmware: no range finder on this part")

// App owns every driver on the board.
type App struct {
	board *config.Board
	rf    core.RegisterFile
	clock core.Clock

	sched *core.Scheduler
	reg   *core.CommandRegistry
	dict  *core.Dictionary

	keypad  *keypad.Keypad
	bus     *twi.Bus
	nunchuk *nunchuk.Device
	finder  *rangefinder.Finder
	lcd     *lcd.LCD
	seg     *sevenseg.Display
	serial  *usart.Port
	enc     *protocol.Encoder
	dec     *protocol.Decoder

	keypadTask  core.Task
	nunchukTask core.Task
	rangeTask   core.Task
	displayTask core.Task

	nintendo  bool
	prescaler timer.Prescaler
	unit      rangefinder.Unit

	lastKey   byte
	lastRange uint16
	haveRange bool
	dirty     bool
	chunk     [protocol.IdentifyChunk]byte
}

// New builds the application for board. delay is used for the LCD and
// the range finder trigger pulse. A nil pins uses the layout's default
// wiring.
func New(rf core.RegisterFile, clock core.Clock, delay core.Delay, board *config.Board, pins *Pins) (*App, error) {
	if err := board.Validate(); err != nil {
		return nil, err
	}
	layout, _ := LayoutFor(board)
	if pins == nil {
		pins = &layout.Pins
	}
	mode, _ := board.Keypad()
	prescaler, _ := board.RangePrescaler()
	unit, _ := board.RangeUnit()

	a := &App{
		board:     board,
		rf:        rf,
		clock:     clock,
		sched:     core.NewScheduler(clock),
		reg:       core.NewCommandRegistry(),
		nintendo:  *board.Nintendo,
		prescaler: prescaler,
		unit:      unit,
	}

	kcfg := pins.Keypad
	kcfg.Mode = mode
	a.keypad = keypad.New(rf, kcfg)
	a.lastKey = a.keypad.NoKey()

	a.bus = twi.New(rf, layout.TWI, clock)
	a.nunchuk = nunchuk.New(a.bus)
	a.lcd = lcd.New(rf, pins.LCD, delay)
	a.seg = sevenseg.NewDisplay(rf, pins.Segments, sevenseg.Default)
	a.serial = usart.New(rf, layout.USART, clock)
	a.enc = protocol.NewEncoder(a.serial)
	a.dec = protocol.NewDecoder()

	if layout.Timer != nil {
		rcfg := pins.Range
		rcfg.CPUHz = board.CPUHz
		a.finder = rangefinder.New(rf, *layout.Timer, clock, delay, rcfg)
		a.finder.SetCorrection(*board.Range.Correction)
	}

	protocol.Register(a.reg)
	a.registerHandlers()

	a.dict = core.NewDictionary(a.reg, protocol.Version)
	a.dict.AddConstant("MCU", board.MCU)
	a.dict.AddConstant("CLOCK_FREQ", core.Utoa(board.CPUHz))
	a.dict.AddConstant("SERIAL_BAUD", core.Utoa(board.Baud))
	a.dict.AddConstant("KEYPAD_MODE", board.KeypadMode)
	a.dict.AddConstant("RANGE_UNIT", board.Range.Unit)

	a.keypadTask = core.Task{Name: "keypad", Period: config.Period(board.Tasks.KeypadMS), Tick: a.tickKeypad}
	a.nunchukTask = core.Task{Name: "nunchuk", Period: config.Period(board.Tasks.NunchukMS), Tick: a.tickNunchuk}
	a.rangeTask = core.Task{Name: "range", Period: config.Period(board.Tasks.RangeMS), Tick: a.tickRange}
	a.displayTask = core.Task{Name: "display", Period: config.Period(board.Tasks.DisplayMS), Tick: a.tickDisplay}
	return a, nil
}

// Start configures the peripherals and schedules the tasks. The
// Nunchuk is initialized by its task, so a missing controller does not
// stop the board from starting.
func (a *App) Start() error {
	a.serial.SetFrame(usart.Async, usart.ParityNone, usart.Bits8, false, false)
	a.serial.Start(usart.UBRR(a.board.CPUHz, a.board.Baud), true, true)

	a.keypad.Init()
	a.seg.Init()
	a.seg.Clear()
	a.lcd.Init()
	a.lcd.Clear()
	a.lcd.WriteString(protocol.Version, lcd.Center, 0)

	clock, _ := a.board.NunchukClock()
	voltage, _ := a.board.NunchukVoltage()
	if err := nunchuk.ConfigureBus(a.bus, clock, voltage); err != nil {
		return err
	}
	if a.finder != nil {
		a.finder.Configure()
	}
	if err := a.dict.Build(); err != nil {
		return err
	}

	a.sched.Add(&a.keypadTask)
	a.sched.Add(&a.nunchukTask)
	if a.finder != nil {
		a.sched.Add(&a.rangeTask)
	}
	a.sched.Add(&a.displayTask)
	core.DebugPrintln("[APP] started, " + core.Itoa(a.sched.Len()) + " tasks")
	return nil
}

// Poll handles received bytes and runs due tasks. It returns the number
// of task ticks that ran.
func (a *App) Poll() int {
	for a.serial.Available() {
		b, err := a.serial.ReadByte()
		if err != nil {
			break
		}
		if f, ok := a.dec.Feed(b); ok {
			a.handleFrame(f.Payload)
		}
	}
	return a.sched.Dispatch()
}

// Run polls forever.
func (a *App) Run() {
	for {
		a.Poll()
	}
}

func (a *App) handleFrame(payload []byte) {
	id, err := protocol.ReadUint(&payload)
	if err != nil {
		core.RecordEvent(core.EvtCommandErr, 0, 0, 0)
		return
	}
	if err := a.reg.Dispatch(uint16(id), &payload); err != nil {
		core.DebugPrintln("[APP] command " + core.Utoa(id) + ": " + err.Error())
	}
}

// send drops the message when the link is stuck; telemetry is best
// effort.
func (a *App) send(m protocol.Message) {
	if err := a.enc.Send(m); err != nil {
		core.DebugPrintln("[APP] send " + protocol.Name(m.ID()) + ": " + err.Error())
	}
}

// reportBusError turns a TWI failure into a bus_error message.
func (a *App) reportBusError(err error) {
	m := protocol.BusError{Step: StepInit, Status: StatusOther}
	var se *twi.StatusError
	switch {
	case errors.As(err, &se):
		m.Step, m.Status = uint8(se.Want), uint8(se.Got)
	case errors.Is(err, core.ErrTimeout):
		m.Status = StatusStuck
	}
	a.send(m)
}

// Scheduler exposes the task list for tests and diagnostics.
func (a *App) Scheduler() *core.Scheduler {
	return a.sched
}

// Registry exposes the command table.
func (a *App) Registry() *core.CommandRegistry {
	return a.reg
}

// Nunchuk returns the controller driver.
func (a *App) Nunchuk() *nunchuk.Device {
	return a.nunchuk
}

// RangeFinder returns the HC-SR04 driver, or nil when the part has none.
func (a *App) RangeFinder() *rangefinder.Finder {
	return a.finder
}
