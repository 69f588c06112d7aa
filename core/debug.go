package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// Event captures a driver event for post-mortem analysis
type Event struct {
	Type   uint8  // Event type code
	Source uint8  // Driver-specific identifier (TWI step, task index)
	Clock  uint32 // System time at event
	Value1 uint32 // Context-dependent value
	Value2 uint32 // Context-dependent value
}

// Event type codes
const (
	EvtKeyPress   = 1 // keypad latched a new press (Value1 = key)
	EvtBusAbort   = 2 // TWI step saw an unexpected status (Value1 = want, Value2 = got)
	EvtTimeout    = 3 // hardware flag poll timed out (Value1 = register)
	EvtRange      = 4 // range reading (Value1 = ticks, Value2 = converted)
	EvtNunchuk    = 5 // nunchuk sample committed
	EvtCommand    = 6 // host command dispatched (Value1 = id)
	EvtCommandErr = 7 // host command failed (Value1 = id)
)

const (
	EventRingSize = 32 // Keep last 32 events for post-mortem
)

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled controls whether debug output is active
	debugEnabled bool = false

	eventRing     [EventRingSize]Event
	eventRingHead uint8
	eventsEnabled bool = true

	// Async debug output channel
	debugChan chan string
)

// SetDebugWriter sets the platform-specific debug output function
// This allows platforms to redirect debug output to UART, a host log, etc.
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// SetEventsEnabled turns event capture on or off.
func SetEventsEnabled(enabled bool) {
	eventsEnabled = enabled
}

// InitAsyncDebug starts the async debug output goroutine
// Call this from main() after SetDebugWriter
func InitAsyncDebug() {
	debugChan = make(chan string, 8)
	go debugOutputWorker()
}

func debugOutputWorker() {
	for msg := range debugChan {
		if debugPrintln != nil {
			debugPrintln(msg)
		}
	}
}

// DebugPrintln writes a debug message using the platform-specific writer
// Blocks if debug is enabled (use DebugAsync for non-blocking)
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// DebugAsync queues a debug message for async output (non-blocking)
// Returns immediately even if channel is full (drops message)
func DebugAsync(msg string) {
	if debugChan != nil && debugEnabled {
		select {
		case debugChan <- msg:
		default:
		}
	}
}

// RecordEvent captures an event in the ring buffer. It never blocks.
func RecordEvent(eventType, source uint8, value1, value2 uint32) {
	if !eventsEnabled {
		return
	}
	idx := eventRingHead
	eventRing[idx] = Event{
		Type:   eventType,
		Source: source,
		Clock:  GetTime(),
		Value1: value1,
		Value2: value2,
	}
	eventRingHead = (idx + 1) % EventRingSize
}

// Events returns the captured events, oldest first.
func Events() []Event {
	out := make([]Event, 0, EventRingSize)
	start := eventRingHead
	for i := uint8(0); i < EventRingSize; i++ {
		evt := eventRing[(start+i)%EventRingSize]
		if evt.Type == 0 {
			continue
		}
		out = append(out, evt)
	}
	return out
}

// EventName returns a short label for an event type.
func EventName(eventType uint8) string {
	switch eventType {
	case EvtKeyPress:
		return "KEY"
	case EvtBusAbort:
		return "BUS_ABORT!"
	case EvtTimeout:
		return "TIMEOUT!"
	case EvtRange:
		return "RANGE"
	case EvtNunchuk:
		return "NUNCHUK"
	case EvtCommand:
		return "CMD"
	case EvtCommandErr:
		return "CMD_ERR!"
	default:
		return "UNKNOWN"
	}
}

// DumpEvents writes the ring to the debug writer, oldest first.
func DumpEvents() {
	if debugPrintln == nil {
		return
	}

	debugPrintln("[EVENTS] === Event Ring Dump ===")
	for _, evt := range Events() {
		debugPrintln("[EVENTS] " + EventName(evt.Type) +
			" src=" + Itoa(int(evt.Source)) +
			" clock=" + Utoa(evt.Clock) +
			" v1=" + Utoa(evt.Value1) +
			" v2=" + Utoa(evt.Value2))
	}
	debugPrintln("[EVENTS] === End Dump ===")
}

// ClearEvents empties the ring
func ClearEvents() {
	for i := range eventRing {
		eventRing[i] = Event{}
	}
	eventRingHead = 0
}
