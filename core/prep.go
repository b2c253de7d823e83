package core

import (
	"math"
	"sync/atomic"
)

// MoveType is the kind of move held in the Prep Buffer
type MoveType uint8

const (
	MoveNull  MoveType = iota // nothing to run
	MoveLine                  // DDA line
	MoveDwell                 // timed pause
)

// String returns the move type name
func (t MoveType) String() string {
	switch t {
	case MoveNull:
		return "null"
	case MoveLine:
		return "line"
	case MoveDwell:
		return "dwell"
	default:
		return "unknown"
	}
}

// Ownership says which stage may touch the Prep Buffer
type Ownership uint32

const (
	OwnedByExec   Ownership = iota // exec may write the buffer
	OwnedByLoader                  // buffer holds a move waiting for load
)

// String returns the owner name
func (o Ownership) String() string {
	if o == OwnedByLoader {
		return "loader"
	}
	return "exec"
}

type prepAxis struct {
	steps   uint32 // substeps, always non-negative
	reverse bool
}

// prepBuffer is the single handoff slot between exec and load.
// Only the stage named by owner may read or write the other fields.
type prepBuffer struct {
	magic        uint16
	owner        uint32 // Ownership, accessed atomically
	moveType     MoveType
	resetCounter bool
	prevTicks    uint32
	timerPeriod  uint16
	ticks        uint32
	ticksScaled  uint32
	axes         [MotorCount]prepAxis
}

func (p *prepBuffer) ownedBy(o Ownership) bool {
	return Ownership(atomic.LoadUint32(&p.owner)) == o
}

// handTo passes the buffer to the other stage. Field writes made before
// the handoff are visible to the new owner.
func (p *prepBuffer) handTo(o Ownership) {
	atomic.StoreUint32(&p.owner, uint32(o))
}

// PrepareLine converts a segment into a Line move in the Prep Buffer.
// steps are signed per-motor step counts, which may be fractional.
// Only valid while exec owns the buffer.
func (s *Stepper) PrepareLine(steps [MotorCount]float64, microseconds float64) error {
	p := &s.sps
	if !p.ownedBy(OwnedByExec) {
		return ErrInternal
	}
	if math.IsNaN(microseconds) || math.IsInf(microseconds, 0) || microseconds < s.cfg.Epsilon {
		return ErrZeroLengthMove
	}

	ticks := ticksFromUS(microseconds, s.cfg.PulseFrequency)
	if ticks < 1 {
		return ErrZeroLengthMove
	}
	if ticks*float64(s.cfg.Substeps) > math.MaxInt32 {
		return ErrSegmentTooLong
	}

	ticksScaled := uint32(ticks) * s.cfg.Substeps

	var axes [MotorCount]prepAxis
	for i, v := range steps {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return ErrZeroLengthMove
		}
		scaled := math.Round(math.Abs(v) * float64(s.cfg.Substeps))
		if scaled > math.MaxInt32 {
			return ErrSegmentTooLong
		}
		// At most one pulse per tick, or the accumulator ends the
		// segment positive and fires into the next one
		if scaled > float64(ticksScaled) {
			return ErrStepRateTooHigh
		}
		axes[i] = prepAxis{
			steps:   uint32(scaled),
			reverse: (v < 0) != s.motorCfg[i].polarity,
		}
	}

	p.axes = axes
	p.ticks = uint32(ticks)
	p.ticksScaled = ticksScaled
	p.timerPeriod = s.pulsePeriod

	// A much shorter segment than the last one would leave the carried
	// accumulator too far from zero
	p.resetCounter = p.ticks*s.cfg.CounterResetFactor < p.prevTicks
	p.prevTicks = p.ticks

	p.moveType = MoveLine
	return nil
}

// PrepareNull loads a move that does nothing and only keeps the pipeline
// cycling. Only valid while exec owns the buffer.
func (s *Stepper) PrepareNull() error {
	if !s.sps.ownedBy(OwnedByExec) {
		return ErrInternal
	}
	s.sps.moveType = MoveNull
	return nil
}

// PrepareDwell loads a timed pause. A dwell that rounds to no ticks is
// prepared as a Null move. Only valid while exec owns the buffer.
func (s *Stepper) PrepareDwell(microseconds float64) error {
	p := &s.sps
	if !p.ownedBy(OwnedByExec) {
		return ErrInternal
	}
	if math.IsNaN(microseconds) || math.IsInf(microseconds, 0) || microseconds < 0 {
		return ErrZeroLengthMove
	}

	ticks := ticksFromUS(microseconds, s.cfg.DwellFrequency)
	if ticks > math.MaxInt32 {
		return ErrSegmentTooLong
	}
	if ticks < 1 {
		p.moveType = MoveNull
		return nil
	}

	p.ticks = uint32(ticks)
	p.timerPeriod = s.dwellPeriod
	p.moveType = MoveDwell
	return nil
}
