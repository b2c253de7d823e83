// Package sim runs segments through the step pipeline on simulated
// timers and GPIO
package sim

import (
	"fmt"
	"time"

	"ddastep/config"
	"ddastep/core"
)

// MotorResult summarizes what one motor's pins did
type MotorResult struct {
	Name          string
	Forward       int           // step pulses with the direction pin forward
	Reverse       int           // step pulses with the direction pin reverse
	DirChanges    int           // direction pin transitions
	StepsDisabled int           // step pulses while the enable pin was inactive
	FirstStep     uint64        // clock of the first pulse
	LastStep      uint64        // clock of the last pulse
	Active        time.Duration // first to last pulse
}

// Steps returns the signed net step count
func (m MotorResult) Steps() int {
	return m.Forward - m.Reverse
}

// Result is the outcome of a simulation run
type Result struct {
	Motors  []MotorResult
	Ticks   uint64        // timer clock ticks elapsed
	Elapsed time.Duration // Ticks at the configured timer clock
	Status  core.Status
	Events  []core.TimingEvent
}

// gpio is a GPIODriver that tracks pin levels and reports step edges
type gpio struct {
	levels map[core.GPIOPin]bool
	onEdge func(pin core.GPIOPin, level bool)
}

func (g *gpio) ConfigureOutput(pin core.GPIOPin) error {
	g.levels[pin] = false
	return nil
}

func (g *gpio) SetPin(pin core.GPIOPin, value bool) error {
	old, ok := g.levels[pin]
	if !ok {
		return fmt.Errorf("pin %d not configured", pin)
	}
	g.levels[pin] = value
	if old != value && g.onEdge != nil {
		g.onEdge(pin, value)
	}
	return nil
}

func (g *gpio) GetPin(pin core.GPIOPin) (bool, error) {
	return g.levels[pin], nil
}

// Run feeds segs through a pipeline built from cfg and runs it until idle.
// limit bounds the simulated time.
func Run(cfg *config.MachineConfig, segs []core.Segment, limit time.Duration) (*Result, error) {
	bank := core.NewSoftTimerBank()
	io := &gpio{levels: make(map[core.GPIOPin]bool)}

	var motors core.Motors
	res := &Result{Motors: make([]MotorResult, len(cfg.Motors))}
	pins := make([]core.MotorPins, len(cfg.Motors))
	for i := range cfg.Motors {
		if i >= core.MotorCount {
			break
		}
		p, err := cfg.MotorPins(i)
		if err != nil {
			return nil, fmt.Errorf("motor %s: %w", cfg.Motors[i].Name, err)
		}
		m := core.NewGPIOMotor(cfg.Motors[i].Name, io)
		if err := m.Init(p); err != nil {
			return nil, fmt.Errorf("motor %s: %w", cfg.Motors[i].Name, err)
		}
		motors[i] = m
		pins[i] = p
		res.Motors[i].Name = cfg.Motors[i].Name
	}

	io.onEdge = func(pin core.GPIOPin, level bool) {
		for i, p := range pins {
			r := &res.Motors[i]
			switch {
			case pin == p.Step && level != p.InvertStep:
				reverse := io.levels[p.Dir] != p.InvertDir
				if reverse {
					r.Reverse++
				} else {
					r.Forward++
				}
				if p.HasEnable && io.levels[p.Enable] != p.EnableActiveHigh {
					r.StepsDisabled++
				}
				if r.Forward+r.Reverse == 1 {
					r.FirstStep = bank.Now()
				}
				r.LastStep = bank.Now()
			case pin == p.Dir:
				r.DirChanges++
			}
		}
	}

	queue := &core.SegmentQueue{}
	s := core.New(cfg.StepperConfig(), bank.Timers(), motors, queue)
	core.ClearTimingRing()
	if err := s.Init(); err != nil {
		return nil, err
	}
	if err := cfg.Apply(s); err != nil {
		return nil, err
	}

	limitTicks := uint64(limit.Seconds() * float64(cfg.TimerClock))
	for _, seg := range segs {
		for queue.Push(seg) == core.ErrQueueFull {
			room := func() bool { return queue.Len() < core.SegmentQueueSize-1 }
			if !bank.RunUntil(room, limitTicks-min(bank.Now(), limitTicks)) {
				return nil, fmt.Errorf("simulation exceeded %v", limit)
			}
		}
	}

	idle := func() bool { return !s.IsBusy() && queue.Len() == 0 }
	if !bank.RunUntil(idle, limitTicks-min(bank.Now(), limitTicks)) {
		return nil, fmt.Errorf("simulation exceeded %v", limit)
	}

	res.Ticks = bank.Now()
	res.Elapsed = ticksToDuration(res.Ticks, cfg.TimerClock)
	for i := range res.Motors {
		m := &res.Motors[i]
		m.Active = ticksToDuration(m.LastStep-m.FirstStep, cfg.TimerClock)
	}
	res.Status = s.Snapshot()
	res.Events = core.TimingEvents()
	return res, nil
}

func ticksToDuration(ticks uint64, clock uint32) time.Duration {
	c := uint64(clock)
	return time.Duration(ticks/c)*time.Second + time.Duration(ticks%c)*time.Second/time.Duration(c)
}
