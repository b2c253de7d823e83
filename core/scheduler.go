package core

// SoftTimerBank simulates the four pipeline timers and a priority
// interrupt controller on a virtual clock counted in timer clock ticks.
//
// Periodic timers are kept in a list sorted by wake time. Software
// timers are serviced as soon as their priority is more urgent than the
// level currently executing, which models nested preemption: a handler
// that raises a more urgent interrupt is preempted on the spot, a less
// urgent one runs after the current handler returns.
//
// A bank is driven by a single goroutine and is not safe for concurrent use.
type SoftTimerBank struct {
	timers [NumTimers]softTimer
	list   *softTimer // started periodic timers, ordered by wake time
	now    uint64
	level  Priority
}

type softTimer struct {
	bank     *SoftTimerBank
	id       TimerID
	mode     TimerMode
	period   uint16
	prio     Priority
	handler  func()
	running  bool
	pending  bool
	wakeTime uint64
	fires    uint32
	next     *softTimer
}

// NewSoftTimerBank creates a bank with all timers unconfigured
func NewSoftTimerBank() *SoftTimerBank {
	b := &SoftTimerBank{level: PriorityThread}
	for i := range b.timers {
		b.timers[i].bank = b
		b.timers[i].id = TimerID(i)
	}
	return b
}

// Timers returns the bank's timers as a table for New
func (b *SoftTimerBank) Timers() Timers {
	var t Timers
	for i := range b.timers {
		t[i] = &b.timers[i]
	}
	return t
}

// Now returns the virtual clock in timer clock ticks
func (b *SoftTimerBank) Now() uint64 {
	return b.now
}

// Fires returns how many times the timer's handler has run
func (b *SoftTimerBank) Fires(id TimerID) uint32 {
	return b.timers[id].fires
}

// Running reports whether a periodic timer is started
func (b *SoftTimerBank) Running(id TimerID) bool {
	return b.timers[id].running
}

// Pending reports whether a software interrupt is raised and not yet serviced
func (b *SoftTimerBank) Pending(id TimerID) bool {
	return b.timers[id].pending
}

// Advance moves the clock forward, firing every periodic timer that
// comes due in wake time order
func (b *SoftTimerBank) Advance(ticks uint64) {
	end := b.now + ticks
	for b.list != nil && b.list.wakeTime <= end {
		b.fireNext()
	}
	b.now = end
	SetTime(uint32(b.now))
}

// RunUntil fires timers until done returns true. Returns false if no
// timer is due within limit ticks while done is still false.
func (b *SoftTimerBank) RunUntil(done func() bool, limit uint64) bool {
	end := b.now + limit
	for !done() {
		if b.list == nil || b.list.wakeTime > end {
			return false
		}
		b.fireNext()
	}
	return true
}

// RunAt executes fn as if it were an interrupt handler at prio.
// Software interrupts raised by fn that are less urgent than prio are
// deferred until fn returns.
func (b *SoftTimerBank) RunAt(prio Priority, fn func()) {
	saved := b.level
	b.level = prio
	fn()
	b.level = saved
	b.servicePending()
}

// fireNext pops the earliest periodic timer, reschedules it and runs it
func (b *SoftTimerBank) fireNext() {
	t := b.list
	b.list = t.next
	t.next = nil

	b.now = t.wakeTime
	SetTime(uint32(b.now))

	t.wakeTime += uint64(t.period)
	b.insert(t)
	b.dispatch(t)
}

func (b *SoftTimerBank) dispatch(t *softTimer) {
	saved := b.level
	b.level = t.prio
	t.fires++
	t.handler()
	b.level = saved
	b.servicePending()
}

// servicePending runs raised software interrupts, most urgent first,
// while they outrank the current level
func (b *SoftTimerBank) servicePending() {
	for {
		var best *softTimer
		for i := range b.timers {
			t := &b.timers[i]
			if !t.pending || t.prio >= b.level {
				continue
			}
			if best == nil || t.prio < best.prio {
				best = t
			}
		}
		if best == nil {
			return
		}
		best.pending = false
		b.dispatch(best)
	}
}

// insert places a started timer in wake time order. Equal wake times
// keep insertion order.
func (b *SoftTimerBank) insert(t *softTimer) {
	if b.list == nil || t.wakeTime < b.list.wakeTime {
		t.next = b.list
		b.list = t
		return
	}

	current := b.list
	for current.next != nil && current.next.wakeTime <= t.wakeTime {
		current = current.next
	}

	t.next = current.next
	current.next = t
}

func (b *SoftTimerBank) remove(t *softTimer) {
	if b.list == t {
		b.list = t.next
		t.next = nil
		return
	}
	for current := b.list; current != nil; current = current.next {
		if current.next == t {
			current.next = t.next
			t.next = nil
			return
		}
	}
}

func (t *softTimer) Configure(mode TimerMode, period uint16, prio Priority, handler func()) error {
	if handler == nil || (mode == TimerPeriodic && period == 0) {
		return ErrTimerConfig
	}
	t.Stop()
	t.mode = mode
	t.period = period
	t.prio = prio
	t.handler = handler
	t.pending = false
	return nil
}

func (t *softTimer) SetPeriod(period uint16) {
	if period == 0 {
		return
	}
	t.period = period
}

func (t *softTimer) Start() {
	if t.mode != TimerPeriodic || t.handler == nil {
		return
	}
	if t.running {
		t.bank.remove(t)
	}
	t.running = true
	t.wakeTime = t.bank.now + uint64(t.period)
	t.bank.insert(t)
}

func (t *softTimer) Stop() {
	if !t.running {
		return
	}
	t.running = false
	t.bank.remove(t)
}

func (t *softTimer) SetInterruptPending() {
	if t.pending || t.handler == nil {
		return
	}
	t.pending = true
	t.bank.servicePending()
}

func (t *softTimer) ClearInterruptPending() {
	t.pending = false
}
