//go:build tinygo

package core

import "sync/atomic"

var eventClock uint32

// getEventClock returns the event clock; updated from interrupt context
func getEventClock() uint32 {
	return atomic.LoadUint32(&eventClock)
}

// setEventClock sets the event clock
func setEventClock(ticks uint32) {
	atomic.StoreUint32(&eventClock, ticks)
}
