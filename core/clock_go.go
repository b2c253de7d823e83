//go:build !tinygo

package core

var eventClock uint32

// getEventClock returns the event clock (regular Go implementation)
func getEventClock() uint32 {
	return eventClock
}

// setEventClock sets the event clock (regular Go implementation)
func setEventClock(ticks uint32) {
	eventClock = ticks
}
