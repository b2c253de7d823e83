//go:build rp2040

package main

import (
	"ddastep/core"
	"device/rp"
)

// The RP2040 timer counts microseconds, which is the pipeline's timer
// clock

// GetHardwareTime reads the low 32 bits of the microsecond counter
func GetHardwareTime() uint32 {
	return rp.TIMER.TIMERAWL.Get()
}

// UpdateSystemTime updates the core event clock with hardware time
func UpdateSystemTime() {
	core.SetTime(GetHardwareTime())
}
