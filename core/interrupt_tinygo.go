//go:build tinygo

package core

import "runtime/interrupt"

// disableInterrupts clears the global interrupt flag and returns the
// previous SREG state
func disableInterrupts() interrupt.State {
	return interrupt.Disable()
}

// restoreInterrupts restores the interrupt state
func restoreInterrupts(state interrupt.State) {
	interrupt.Restore(state)
}
