//go:build !tinygo

package core

// irqState is the saved interrupt mask. The host has no interrupt
// controller: handlers run on the goroutine driving the SoftTimerBank,
// so a critical section has nothing to mask.
type irqState struct{}

func disableInterrupts() irqState {
	return irqState{}
}

func restoreInterrupts(irqState) {}
