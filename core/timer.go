package core

import "math"

// TimerID identifies one of the four timers driving the step pipeline
type TimerID uint8

const (
	TimerPulse TimerID = iota // DDA tick, periodic
	TimerDwell                // dwell down-counter, periodic
	TimerLoad                 // software trigger for the loader
	TimerExec                 // software trigger for exec/prep
	NumTimers
)

// String returns the timer name used in diagnostics
func (id TimerID) String() string {
	switch id {
	case TimerPulse:
		return "pulse"
	case TimerDwell:
		return "dwell"
	case TimerLoad:
		return "load"
	case TimerExec:
		return "exec"
	default:
		return "unknown"
	}
}

// Priority is an interrupt priority level. Lower values are more urgent,
// following the NVIC convention.
type Priority uint8

const (
	PriorityHighest Priority = 0    // pulse and dwell
	PriorityLoad    Priority = 1    // loader software interrupt
	PriorityExec    Priority = 2    // exec software interrupt
	PriorityThread  Priority = 0xFF // ordinary (non-interrupt) code
)

// TimerMode selects what raises a timer's interrupt
type TimerMode uint8

const (
	TimerPeriodic TimerMode = iota // interrupt on every period expiry while started
	TimerSoftware                  // interrupt only when SetInterruptPending is called
)

// Default timer rates
const (
	TimerClock     = 1000000 // 1MHz timer clock (RP2040 microsecond timer)
	PulseFrequency = 50000   // DDA tick rate
	DwellFrequency = 10000   // dwell tick rate
)

// HardwareTimer is the timer capability the pipeline consumes.
// Handlers are bound once by Configure and must not block.
type HardwareTimer interface {
	// Configure sets mode, period (in timer clock counts), priority and handler
	Configure(mode TimerMode, period uint16, prio Priority, handler func()) error

	// SetPeriod changes the period used the next time the timer is started
	SetPeriod(period uint16)

	// Start begins periodic interrupts. No-op for software timers.
	Start()

	// Stop halts periodic interrupts. Safe to call on a stopped timer.
	Stop()

	// SetInterruptPending raises the timer's interrupt. Raising an
	// interrupt that is already pending has no further effect.
	SetInterruptPending()

	// ClearInterruptPending drops a raised but not yet serviced interrupt
	ClearInterruptPending()
}

// Timers is the table of pipeline timers indexed by TimerID
type Timers [NumTimers]HardwareTimer

// GetTime returns the clock used to stamp timing events
func GetTime() uint32 {
	return getEventClock()
}

// SetTime sets the event clock (called by the timer implementation)
func SetTime(ticks uint32) {
	setEventClock(ticks)
}

// PeriodFromFrequency converts a tick frequency to a timer period in clock
// counts. Returns 0 if the period does not fit the 16-bit period register.
func PeriodFromFrequency(clock, freq uint32) uint16 {
	if freq == 0 {
		return 0
	}
	period := clock / freq
	if period == 0 || period > math.MaxUint16 {
		return 0
	}
	return uint16(period)
}

// ticksFromUS converts a duration to a whole number of ticks at freq,
// rounding to nearest
func ticksFromUS(microseconds float64, freq uint32) float64 {
	return math.Round((microseconds / 1000000) * float64(freq))
}
