package core

import "sync/atomic"

// SegmentQueueSize is the capacity of a SegmentQueue (one slot is kept
// free to tell full from empty)
const SegmentQueueSize = 16

// Segment is one planned move. Steps are signed per-motor step counts
// and may be fractional. Microseconds is the move or dwell duration.
type Segment struct {
	Kind         MoveType
	Steps        [MotorCount]float64
	Microseconds float64
}

// Line returns a line segment
func Line(steps [MotorCount]float64, microseconds float64) Segment {
	return Segment{Kind: MoveLine, Steps: steps, Microseconds: microseconds}
}

// Dwell returns a dwell segment
func Dwell(microseconds float64) Segment {
	return Segment{Kind: MoveDwell, Microseconds: microseconds}
}

// SegmentSource yields planned segments to the exec stage.
// NextSegment fills seg and returns true, or returns false when nothing
// is available. Called from interrupt context and must not block.
type SegmentSource interface {
	NextSegment(seg *Segment) bool
}

// SegmentQueue is a single-producer single-consumer ring of segments.
// Push is called from ordinary code, NextSegment from the exec handler.
type SegmentQueue struct {
	buf  [SegmentQueueSize]Segment
	head uint32 // next segment to pop, written by the consumer
	tail uint32 // next slot to fill, written by the producer

	stepper *Stepper
}

// Bind makes Push wake the pipeline's exec stage
func (q *SegmentQueue) Bind(s *Stepper) {
	q.stepper = s
}

// Push adds a segment. Returns ErrQueueFull if there is no room.
func (q *SegmentQueue) Push(seg Segment) error {
	tail := atomic.LoadUint32(&q.tail)
	next := (tail + 1) % SegmentQueueSize
	if next == atomic.LoadUint32(&q.head) {
		return ErrQueueFull
	}

	q.buf[tail] = seg
	atomic.StoreUint32(&q.tail, next)

	if q.stepper != nil {
		q.stepper.RequestExec()
	}
	return nil
}

// NextSegment pops the oldest segment
func (q *SegmentQueue) NextSegment(seg *Segment) bool {
	head := atomic.LoadUint32(&q.head)
	if head == atomic.LoadUint32(&q.tail) {
		return false
	}

	*seg = q.buf[head]
	atomic.StoreUint32(&q.head, (head+1)%SegmentQueueSize)
	return true
}

// Len returns the number of queued segments
func (q *SegmentQueue) Len() int {
	head := atomic.LoadUint32(&q.head)
	tail := atomic.LoadUint32(&q.tail)
	if tail >= head {
		return int(tail - head)
	}
	return int(SegmentQueueSize - head + tail)
}

// Reset drops every queued segment. Exec cannot run in between the two
// stores.
func (q *SegmentQueue) Reset() {
	state := disableInterrupts()
	defer restoreInterrupts(state)

	atomic.StoreUint32(&q.head, 0)
	atomic.StoreUint32(&q.tail, 0)
}
