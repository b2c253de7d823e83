package core

import "sync/atomic"

// RequestExec asks for the next segment to be prepared. Callable from
// any context. Does nothing while the Prep Buffer is waiting for load.
func (s *Stepper) RequestExec() {
	if !s.initialized || !s.sps.ownedBy(OwnedByExec) {
		return
	}
	s.timers[TimerExec].SetInterruptPending()
}

// execMove is the exec software interrupt handler. It pulls one segment
// from the source and prepares it.
func (s *Stepper) execMove() {
	if !s.sps.ownedBy(OwnedByExec) {
		return
	}

	var seg Segment
	if s.source == nil || !s.source.NextSegment(&seg) {
		RecordTiming(EvtExecEmpty, 0, GetTime(), 0, 0)
		return
	}

	var err error
	switch seg.Kind {
	case MoveLine:
		err = s.PrepareLine(seg.Steps, seg.Microseconds)
	case MoveDwell:
		err = s.PrepareDwell(seg.Microseconds)
	default:
		err = s.PrepareNull()
	}
	if err != nil {
		// Keep the pipeline cycling
		s.rejected++
		RecordTiming(EvtExecReject, uint8(seg.Kind), GetTime(), s.rejected, 0)
		if IsDebugEnabled() {
			DebugAsync("exec: " + seg.Kind.String() + " rejected: " + err.Error())
		}
		s.PrepareNull()
	}

	s.execs++
	RecordTiming(EvtExecMove, uint8(s.sps.moveType), GetTime(), s.sps.ticks, s.execs)

	s.sps.handTo(OwnedByLoader)
	s.requestLoad()
}

// requestLoad raises the load interrupt if nothing is running. When a
// move is running the pulse or dwell handler loads on completion.
func (s *Stepper) requestLoad() {
	if s.ticksRemaining() != 0 {
		return
	}
	s.timers[TimerLoad].SetInterruptPending()
}

// loadMove commits the Prep Buffer into Run State and starts the move.
// Runs as the load interrupt handler or directly from the pulse and
// dwell handlers when a move completes.
func (s *Stepper) loadMove() {
	if s.ticksRemaining() != 0 {
		return
	}
	p := &s.sps
	if !p.ownedBy(OwnedByLoader) {
		return
	}

	switch p.moveType {
	case MoveLine:
		s.st.ticksScaled = int32(p.ticksScaled)
		for i := range s.st.axes {
			a := &s.st.axes[i]
			a.stepTotal = int32(p.axes[i].steps)
			if p.resetCounter {
				a.counter = -int32(p.ticks)
			}
			m := s.motors[i]
			if m == nil {
				continue
			}
			if a.stepTotal != 0 {
				m.SetDirection(p.axes[i].reverse)
				m.Enable()
			}
		}
		atomic.StoreInt32(&s.st.ticksRemaining, int32(p.ticks))
		s.timers[TimerPulse].SetPeriod(p.timerPeriod)
		s.timers[TimerPulse].Start()
		RecordTiming(EvtLoadLine, 0, GetTime(), p.ticks, p.ticksScaled)

	case MoveDwell:
		atomic.StoreInt32(&s.st.ticksRemaining, int32(p.ticks))
		s.timers[TimerDwell].SetPeriod(p.timerPeriod)
		s.timers[TimerDwell].Start()
		RecordTiming(EvtLoadDwell, 0, GetTime(), p.ticks, 0)

	default:
		RecordTiming(EvtLoadNull, 0, GetTime(), 0, 0)
	}

	s.loads++
	p.handTo(OwnedByExec)
	s.RequestExec()
}
