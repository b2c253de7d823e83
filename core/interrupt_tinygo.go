//go:build tinygo

package core

import "runtime/interrupt"

// irqState is the PRIMASK saved on entry to a critical section
type irqState = interrupt.State

// disableInterrupts masks every pipeline interrupt, including the pulse timer
func disableInterrupts() irqState {
	return interrupt.Disable()
}

func restoreInterrupts(state irqState) {
	interrupt.Restore(state)
}
