package core

import "sync/atomic"

// Status is a consistent copy of the pipeline state for diagnostics
type Status struct {
	RunMagic       uint16
	PrepMagic      uint16
	Busy           bool
	TicksRemaining int32
	TicksScaled    int32
	Owner          Ownership
	MoveType       MoveType
	StepTotal      [MotorCount]int32
	Counter        [MotorCount]int32
	Loads          uint32
	Execs          uint32
	Rejected       uint32
}

// Corrupt reports whether either integrity marker was overwritten
func (st *Status) Corrupt() bool {
	return st.RunMagic != Magic || st.PrepMagic != Magic
}

// Snapshot captures the pipeline state with interrupts disabled
func (s *Stepper) Snapshot() Status {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	st := Status{
		RunMagic:       s.st.magic,
		PrepMagic:      s.sps.magic,
		TicksRemaining: atomic.LoadInt32(&s.st.ticksRemaining),
		TicksScaled:    s.st.ticksScaled,
		Owner:          Ownership(atomic.LoadUint32(&s.sps.owner)),
		MoveType:       s.sps.moveType,
		Loads:          s.loads,
		Execs:          s.execs,
		Rejected:       s.rejected,
	}
	st.Busy = st.TicksRemaining != 0
	for i, a := range s.st.axes {
		st.StepTotal[i] = a.stepTotal
		st.Counter[i] = a.counter
	}
	return st
}
