//go:build rp2040

package main

import (
	"ddastep/core"
	"device/rp"
	"runtime/interrupt"
	"runtime/volatile"
)

// alarmTimer is one of the four RP2040 timer alarms. Periodic timers
// rearm the alarm on every interrupt. Software timers never arm the
// alarm and are raised by forcing their interrupt through INTF.
type alarmTimer struct {
	mask    uint32
	alarm   *volatile.Register32
	irq     interrupt.Interrupt
	mode    core.TimerMode
	period  uint16
	next    uint32
	handler func()
	running bool
}

var alarms [core.NumTimers]alarmTimer

// newAlarmTimers binds the four alarm interrupts. IRQ numbers must be
// constants, so each is registered separately.
func newAlarmTimers() core.Timers {
	regs := [core.NumTimers]*volatile.Register32{
		&rp.TIMER.ALARM0, &rp.TIMER.ALARM1, &rp.TIMER.ALARM2, &rp.TIMER.ALARM3,
	}
	for i := range alarms {
		alarms[i].mask = 1 << i
		alarms[i].alarm = regs[i]
	}

	alarms[0].irq = interrupt.New(rp.IRQ_TIMER_IRQ_0, func(interrupt.Interrupt) { alarms[0].service() })
	alarms[1].irq = interrupt.New(rp.IRQ_TIMER_IRQ_1, func(interrupt.Interrupt) { alarms[1].service() })
	alarms[2].irq = interrupt.New(rp.IRQ_TIMER_IRQ_2, func(interrupt.Interrupt) { alarms[2].service() })
	alarms[3].irq = interrupt.New(rp.IRQ_TIMER_IRQ_3, func(interrupt.Interrupt) { alarms[3].service() })

	var t core.Timers
	for i := range alarms {
		t[i] = &alarms[i]
	}
	return t
}

func (t *alarmTimer) service() {
	if t.mode == core.TimerSoftware {
		rp.TIMER.INTF.ClearBits(t.mask)
		UpdateSystemTime()
		t.handler()
		return
	}

	rp.TIMER.INTR.Set(t.mask)
	if !t.running {
		return
	}
	// Rearm first so a handler that stops the timer wins
	t.next += uint32(t.period)
	t.alarm.Set(t.next)
	UpdateSystemTime()
	t.handler()
}

// Configure sets the mode and handler. The two priority bits of the
// Cortex-M0+ are the top bits of the byte.
func (t *alarmTimer) Configure(mode core.TimerMode, period uint16, prio core.Priority, handler func()) error {
	if handler == nil || (mode == core.TimerPeriodic && period == 0) {
		return core.ErrTimerConfig
	}
	t.Stop()
	t.mode = mode
	t.period = period
	t.handler = handler

	t.irq.SetPriority(uint8(prio) << 6)
	rp.TIMER.INTF.ClearBits(t.mask)
	rp.TIMER.INTE.SetBits(t.mask)
	t.irq.Enable()
	return nil
}

func (t *alarmTimer) SetPeriod(period uint16) {
	if period == 0 {
		return
	}
	t.period = period
}

func (t *alarmTimer) Start() {
	if t.mode != core.TimerPeriodic || t.handler == nil {
		return
	}
	t.running = true
	t.next = rp.TIMER.TIMERAWL.Get() + uint32(t.period)
	t.alarm.Set(t.next)
}

func (t *alarmTimer) Stop() {
	t.running = false
	// Writing a 1 to ARMED disarms the alarm
	rp.TIMER.ARMED.Set(t.mask)
	rp.TIMER.INTR.Set(t.mask)
}

func (t *alarmTimer) SetInterruptPending() {
	rp.TIMER.INTF.SetBits(t.mask)
}

func (t *alarmTimer) ClearInterruptPending() {
	rp.TIMER.INTF.ClearBits(t.mask)
}
