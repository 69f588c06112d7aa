//go:build tinygo

package core

// getSystemTicks returns the current system ticks. The 32-bit load is not
// atomic on AVR, so it runs with interrupts masked.
func getSystemTicks() uint32 {
	state := disableInterrupts()
	t := systemTicks
	restoreInterrupts(state)
	return t
}

// setSystemTicks sets the system ticks
func setSystemTicks(ticks uint32) {
	state := disableInterrupts()
	systemTicks = ticks
	restoreInterrupts(state)
}
