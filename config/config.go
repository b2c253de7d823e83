package config

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/multierr"

	"ddastep/core"
)

// MachineConfig is the static configuration of the step pipeline and its motors
type MachineConfig struct {
	PulseFrequency     uint32  // DDA tick rate (Hz)
	DwellFrequency     uint32  // Dwell tick rate (Hz)
	TimerClock         uint32  // Timer counter clock (Hz)
	Substeps           uint32  // Fixed-point fraction of a step
	CounterResetFactor uint32  // Anti-stall threshold
	Epsilon            float64 // Shortest accepted segment (us)

	Motors []MotorConfig // Motor channels in order, at most core.MotorCount
}

// MotorConfig represents configuration for a single motor channel
type MotorConfig struct {
	Name             string // Axis label for reports
	Backend          string // "gpio" or "pio"
	StepPin          string // GPIO pin for step pulses
	DirPin           string // GPIO pin for direction
	EnablePin        string // GPIO pin for enable (optional, may be shared)
	Polarity         bool   // Positive steps turn the motor in reverse
	Microsteps       uint16 // Driver microstep mode (1-256, power of two)
	InvertStep       bool   // Step pulse is active low
	InvertDir        bool   // Swap the direction pin level
	EnableActiveHigh bool   // Driver enables on a high level
	TMCAddress       *uint8 // TMC2209 UART address, nil if no smart driver
}

// LoadConfig parses a JSON configuration and returns a validated MachineConfig
func LoadConfig(jsonData []byte) (*MachineConfig, error) {
	var config MachineConfig

	err := json.Unmarshal(jsonData, &config)
	if err != nil {
		return nil, err
	}

	// Apply defaults
	applyDefaults(&config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// applyDefaults fills in missing configuration values with sensible defaults
func applyDefaults(config *MachineConfig) {
	def := core.DefaultConfig()

	if config.PulseFrequency == 0 {
		config.PulseFrequency = def.PulseFrequency
	}
	if config.DwellFrequency == 0 {
		config.DwellFrequency = def.DwellFrequency
	}
	if config.TimerClock == 0 {
		config.TimerClock = def.TimerClock
	}
	if config.Substeps == 0 {
		config.Substeps = def.Substeps
	}
	if config.CounterResetFactor == 0 {
		config.CounterResetFactor = def.CounterResetFactor
	}
	if config.Epsilon == 0 {
		config.Epsilon = def.Epsilon
	}

	for i := range config.Motors {
		m := &config.Motors[i]
		if m.Name == "" {
			m.Name = "m" + strconv.Itoa(i+1)
		}
		if m.Backend == "" {
			m.Backend = "gpio"
		}
		if m.Microsteps == 0 {
			m.Microsteps = 1
		}
	}
}

// Validate checks the whole configuration and reports every problem found
func (c *MachineConfig) Validate() error {
	var err error

	if len(c.Motors) > core.MotorCount {
		err = multierr.Append(err, fmt.Errorf("%d motors configured, at most %d supported", len(c.Motors), core.MotorCount))
	}

	err = multierr.Append(err, checkFrequency("pulse", c.TimerClock, c.PulseFrequency))
	err = multierr.Append(err, checkFrequency("dwell", c.TimerClock, c.DwellFrequency))

	if c.Substeps == 0 {
		err = multierr.Append(err, fmt.Errorf("substeps must be positive"))
	}
	if uint64(c.Substeps)*uint64(c.PulseFrequency) > 1<<31 {
		err = multierr.Append(err, fmt.Errorf("substeps %d too large for a one second segment at %d Hz", c.Substeps, c.PulseFrequency))
	}
	if c.Epsilon < 0 {
		err = multierr.Append(err, fmt.Errorf("epsilon must not be negative"))
	}

	used := make(map[core.GPIOPin]string)
	claim := func(motor, role, name string) {
		pin, perr := ParsePin(name)
		if perr != nil {
			err = multierr.Append(err, fmt.Errorf("motor %s: %s pin: %w", motor, role, perr))
			return
		}
		if owner, ok := used[pin]; ok {
			err = multierr.Append(err, fmt.Errorf("motor %s: %s pin %s already used by %s", motor, role, name, owner))
			return
		}
		used[pin] = motor + " " + role
	}

	for _, m := range c.Motors {
		claim(m.Name, "step", m.StepPin)
		claim(m.Name, "dir", m.DirPin)

		if m.Backend != "gpio" && m.Backend != "pio" {
			err = multierr.Append(err, fmt.Errorf("motor %s: unknown backend %q", m.Name, m.Backend))
		}
		if m.Microsteps == 0 || m.Microsteps > 256 || m.Microsteps&(m.Microsteps-1) != 0 {
			err = multierr.Append(err, fmt.Errorf("motor %s: microsteps %d is not a power of two up to 256", m.Name, m.Microsteps))
		}
		if m.TMCAddress != nil && *m.TMCAddress > 3 {
			err = multierr.Append(err, fmt.Errorf("motor %s: TMC address %d out of range 0-3", m.Name, *m.TMCAddress))
		}
	}

	// Enable pins are commonly shared between drivers
	for _, m := range c.Motors {
		if m.EnablePin == "" {
			continue
		}
		pin, perr := ParsePin(m.EnablePin)
		if perr != nil {
			err = multierr.Append(err, fmt.Errorf("motor %s: enable pin: %w", m.Name, perr))
			continue
		}
		if owner, ok := used[pin]; ok {
			err = multierr.Append(err, fmt.Errorf("motor %s: enable pin %s already used by %s", m.Name, m.EnablePin, owner))
		}
	}

	return err
}

func checkFrequency(name string, clock, freq uint32) error {
	if freq == 0 {
		return fmt.Errorf("%s frequency must be positive", name)
	}
	if clock%freq != 0 {
		return fmt.Errorf("%s frequency %d Hz does not divide the %d Hz timer clock", name, freq, clock)
	}
	if core.PeriodFromFrequency(clock, freq) == 0 {
		return fmt.Errorf("%s frequency %d Hz gives a period outside the 16-bit timer", name, freq)
	}
	return nil
}

// ParsePin converts a pin name like "gpio12" (or a bare "12") to a pin number
func ParsePin(name string) (core.GPIOPin, error) {
	s := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(name)), "gpio")
	if s == "" {
		return 0, fmt.Errorf("empty pin name %q", name)
	}
	n, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid pin name %q", name)
	}
	return core.GPIOPin(n), nil
}

// StepperConfig returns the pipeline parameters
func (c *MachineConfig) StepperConfig() core.Config {
	return core.Config{
		PulseFrequency:     c.PulseFrequency,
		DwellFrequency:     c.DwellFrequency,
		TimerClock:         c.TimerClock,
		Substeps:           c.Substeps,
		CounterResetFactor: c.CounterResetFactor,
		Epsilon:            c.Epsilon,
	}
}

// MotorPins returns the pin wiring of motor i
func (c *MachineConfig) MotorPins(i int) (core.MotorPins, error) {
	if i < 0 || i >= len(c.Motors) {
		return core.MotorPins{}, core.ErrBadMotor
	}
	m := c.Motors[i]

	step, err := ParsePin(m.StepPin)
	if err != nil {
		return core.MotorPins{}, err
	}
	dir, err := ParsePin(m.DirPin)
	if err != nil {
		return core.MotorPins{}, err
	}
	pins := core.MotorPins{
		Step:             step,
		Dir:              dir,
		InvertStep:       m.InvertStep,
		InvertDir:        m.InvertDir,
		EnableActiveHigh: m.EnableActiveHigh,
	}
	if m.EnablePin != "" {
		pins.Enable, err = ParsePin(m.EnablePin)
		if err != nil {
			return core.MotorPins{}, err
		}
		pins.HasEnable = true
	}
	return pins, nil
}

// Apply pushes per-motor polarity and microstep settings into the pipeline
func (c *MachineConfig) Apply(s *core.Stepper) error {
	var err error
	for i, m := range c.Motors {
		if i >= core.MotorCount {
			break
		}
		err = multierr.Append(err, s.SetPolarity(uint8(i), m.Polarity))
		if serr := s.SetMicrosteps(uint8(i), m.Microsteps); serr != nil {
			err = multierr.Append(err, fmt.Errorf("motor %s: %w", m.Name, serr))
		}
	}
	return err
}

// DefaultConfig returns the configuration of a six-motor RP2040 board
func DefaultConfig() *MachineConfig {
	def := core.DefaultConfig()
	config := &MachineConfig{
		PulseFrequency:     def.PulseFrequency,
		DwellFrequency:     def.DwellFrequency,
		TimerClock:         def.TimerClock,
		Substeps:           def.Substeps,
		CounterResetFactor: def.CounterResetFactor,
		Epsilon:            def.Epsilon,
	}
	names := []string{"x", "y", "z", "a", "b", "c"}
	for i, name := range names {
		config.Motors = append(config.Motors, MotorConfig{
			Name:       name,
			Backend:    "gpio",
			StepPin:    "gpio" + strconv.Itoa(2*i),
			DirPin:     "gpio" + strconv.Itoa(2*i+1),
			EnablePin:  "gpio12",
			Microsteps: 16,
		})
	}
	return config
}
