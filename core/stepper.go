package core

import (
	"errors"
	"strconv"
	"sync/atomic"
)

// MotorCount is the number of motor channels the pipeline drives
const MotorCount = 6

// Magic marks intact Run State and Prep Buffer structures
const Magic uint16 = 0x12EF

// Errors returned by the pipeline
var (
	ErrZeroLengthMove  = errors.New("zero length move")
	ErrInternal        = errors.New("prep buffer not owned by exec")
	ErrSegmentTooLong  = errors.New("segment too long")
	ErrStepRateTooHigh = errors.New("more than one step per tick")
	ErrBadMotor        = errors.New("invalid motor")
	ErrBadMicrosteps   = errors.New("invalid microstep mode")
	ErrNotInitialized  = errors.New("stepper not initialized")
	ErrTimerConfig     = errors.New("invalid timer configuration")
	ErrQueueFull       = errors.New("segment queue full")
)

// Config holds the static pipeline parameters
type Config struct {
	PulseFrequency     uint32  // DDA tick rate (Hz)
	DwellFrequency     uint32  // dwell tick rate (Hz)
	TimerClock         uint32  // timer counter clock (Hz)
	Substeps           uint32  // fixed-point fraction of a step
	CounterResetFactor uint32  // anti-stall threshold
	Epsilon            float64 // shortest accepted duration (us)
}

// DefaultConfig returns the standard pipeline parameters
func DefaultConfig() Config {
	return Config{
		PulseFrequency:     PulseFrequency,
		DwellFrequency:     DwellFrequency,
		TimerClock:         TimerClock,
		Substeps:           1000,
		CounterResetFactor: 2,
		Epsilon:            0.0001,
	}
}

// axisRun is the live DDA state of one motor
type axisRun struct {
	stepTotal int32 // substeps to emit this segment
	counter   int32 // DDA accumulator
}

// runState is owned by the pulse and dwell handlers while a move is active
type runState struct {
	magic          uint16
	ticksRemaining int32 // 0 means idle; accessed atomically
	ticksScaled    int32
	axes           [MotorCount]axisRun
}

// motorConfig is static per-motor configuration
type motorConfig struct {
	polarity   bool
	microsteps uint16
}

// Stepper is the exec, prep, load and pulse pipeline for up to MotorCount motors
type Stepper struct {
	cfg    Config
	timers Timers
	motors Motors
	source SegmentSource
	micro  MicrostepDriver

	pulsePeriod uint16
	dwellPeriod uint16

	st       runState
	sps      prepBuffer
	motorCfg [MotorCount]motorConfig

	// Counters for diagnostics
	loads    uint32
	execs    uint32
	rejected uint32

	initialized bool
}

// New creates a pipeline. Every timer must be present; motors may have
// nil entries for unwired channels.
func New(cfg Config, timers Timers, motors Motors, source SegmentSource) *Stepper {
	s := &Stepper{
		cfg:    cfg,
		timers: timers,
		motors: motors,
		source: source,
	}
	for i := range s.motorCfg {
		s.motorCfg[i].microsteps = 1
	}
	return s
}

// SetMicrostepDriver installs the hook used by SetMicrosteps
func (s *Stepper) SetMicrostepDriver(d MicrostepDriver) {
	s.micro = d
}

// Config returns the pipeline parameters
func (s *Stepper) Config() Config {
	return s.cfg
}

// Init resets Run State and the Prep Buffer, binds the timer handlers
// and asks Exec for the first segment
func (s *Stepper) Init() error {
	for _, t := range s.timers {
		if t == nil {
			return ErrTimerConfig
		}
	}
	s.pulsePeriod = PeriodFromFrequency(s.cfg.TimerClock, s.cfg.PulseFrequency)
	s.dwellPeriod = PeriodFromFrequency(s.cfg.TimerClock, s.cfg.DwellFrequency)
	if s.pulsePeriod == 0 || s.dwellPeriod == 0 || s.cfg.Substeps == 0 {
		return ErrTimerConfig
	}

	s.timers[TimerPulse].Stop()
	s.timers[TimerDwell].Stop()

	s.st = runState{magic: Magic}
	s.sps = prepBuffer{magic: Magic, moveType: MoveNull, timerPeriod: s.pulsePeriod}
	s.sps.handTo(OwnedByExec)
	s.loads, s.execs, s.rejected = 0, 0, 0

	if err := s.timers[TimerPulse].Configure(TimerPeriodic, s.pulsePeriod, PriorityHighest, s.pulseISR); err != nil {
		return err
	}
	if err := s.timers[TimerDwell].Configure(TimerPeriodic, s.dwellPeriod, PriorityHighest, s.dwellISR); err != nil {
		return err
	}
	if err := s.timers[TimerLoad].Configure(TimerSoftware, 0, PriorityLoad, s.loadMove); err != nil {
		return err
	}
	if err := s.timers[TimerExec].Configure(TimerSoftware, 0, PriorityExec, s.execMove); err != nil {
		return err
	}

	for _, m := range s.motors {
		if m != nil {
			m.Disable()
		}
	}

	if q, ok := s.source.(*SegmentQueue); ok {
		q.Bind(s)
	}

	DebugPrintln("stepper: init pulse period " + strconv.Itoa(int(s.pulsePeriod)) +
		" dwell period " + strconv.Itoa(int(s.dwellPeriod)) +
		" substeps " + strconv.FormatUint(uint64(s.cfg.Substeps), 10))

	s.initialized = true
	s.RequestExec()
	return nil
}

// Disable stops the pulse timer unconditionally. The move in progress is
// abandoned with its remaining ticks still in Run State.
func (s *Stepper) Disable() {
	if s.timers[TimerPulse] != nil {
		s.timers[TimerPulse].Stop()
	}
	RecordTiming(EvtDisable, 0, GetTime(), uint32(s.ticksRemaining()), 0)
}

// IsBusy reports whether a move or dwell is executing
func (s *Stepper) IsBusy() bool {
	return s.ticksRemaining() != 0
}

func (s *Stepper) ticksRemaining() int32 {
	return atomic.LoadInt32(&s.st.ticksRemaining)
}

// SetPolarity sets whether positive steps drive a motor in reverse.
// Takes effect from the next prepared segment.
func (s *Stepper) SetPolarity(motor uint8, reverse bool) error {
	if motor >= MotorCount {
		return ErrBadMotor
	}
	s.motorCfg[motor].polarity = reverse
	return nil
}

// Polarity returns a motor's polarity setting
func (s *Stepper) Polarity(motor uint8) bool {
	if motor >= MotorCount {
		return false
	}
	return s.motorCfg[motor].polarity
}

// SetMicrosteps records a motor's microstep mode and forwards it to the
// microstep driver, if one is installed. Step scaling is unchanged: the
// planner already emits steps in microsteps.
func (s *Stepper) SetMicrosteps(motor uint8, microsteps uint16) error {
	if motor >= MotorCount {
		return ErrBadMotor
	}
	if microsteps == 0 || microsteps > 256 || microsteps&(microsteps-1) != 0 {
		return ErrBadMicrosteps
	}
	if s.micro != nil {
		if err := s.micro.SetMicrosteps(motor, microsteps); err != nil {
			return err
		}
	}
	s.motorCfg[motor].microsteps = microsteps
	return nil
}

// Microsteps returns a motor's microstep mode
func (s *Stepper) Microsteps(motor uint8) uint16 {
	if motor >= MotorCount {
		return 0
	}
	return s.motorCfg[motor].microsteps
}

// pulseISR runs once per DDA tick while a line is loaded
func (s *Stepper) pulseISR() {
	for i := range s.st.axes {
		m := s.motors[i]
		if m == nil {
			continue
		}
		a := &s.st.axes[i]
		a.counter += a.stepTotal
		if a.counter > 0 {
			m.Step()
			a.counter -= s.st.ticksScaled
		}
	}

	if atomic.AddInt32(&s.st.ticksRemaining, -1) != 0 {
		return
	}

	s.timers[TimerPulse].Stop()
	for _, m := range s.motors {
		if m != nil {
			m.Disable()
		}
	}
	RecordTiming(EvtMoveEnd, 0, GetTime(), 0, 0)
	s.loadMove()
}

// dwellISR counts down a dwell
func (s *Stepper) dwellISR() {
	if s.ticksRemaining() <= 0 {
		s.timers[TimerDwell].Stop()
		return
	}
	if atomic.AddInt32(&s.st.ticksRemaining, -1) != 0 {
		return
	}

	s.timers[TimerDwell].Stop()
	RecordTiming(EvtDwellEnd, 0, GetTime(), 0, 0)
	s.loadMove()
}
