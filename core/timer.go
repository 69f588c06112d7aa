package core

// TimerFreq is the rate of the system tick: one tick per microsecond.
const TimerFreq = 1000000

var (
	systemTicks uint32
	bootTime    uint64

	// timeSource, when set by platform code, is read live on every GetTime.
	timeSource func() uint32
)

// GetTime returns the current system time in timer ticks
func GetTime() uint32 {
	if timeSource != nil {
		return timeSource()
	}
	return getSystemTicks()
}

// SetTime sets the current system time (for testing/hardware integration)
func SetTime(ticks uint32) {
	setSystemTicks(ticks)
}

// SetTimeSource installs a live tick counter. Pass nil to fall back to SetTime.
func SetTimeSource(src func() uint32) {
	timeSource = src
}

// GetUptime returns ticks since TimerInit.
func GetUptime() uint64 {
	return uint64(GetTime()) - bootTime
}

// TimerFromUS converts microseconds to timer ticks
func TimerFromUS(us uint32) uint32 {
	return us * (TimerFreq / 1000000)
}

// TimerToUS converts timer ticks to microseconds
func TimerToUS(ticks uint32) uint32 {
	return ticks / (TimerFreq / 1000000)
}

// TimerInit records the boot time.
func TimerInit() {
	bootTime = uint64(GetTime())
}
