//go:build rp2040

package pio

// PIO motor backend using the tinygo-org/pio package.
// The state machine times the step pulse, so the pulse handler only
// pushes one FIFO word per step.

import (
	"ddastep/core"
	"errors"
	"machine"

	rp2pio "github.com/tinygo-org/pio/rp2-pio"
)

// ErrInvertedStep is returned for a PIO motor with an active low step pulse
var ErrInvertedStep = errors.New("pio backend does not support inverted step")

// PIO program for step pulse generation
// Command word format:
//
//	Bits 0-15:  pulse count minus one
//	Bits 16-23: delay cycles (inter-pulse spacing)
//	Bit 24:     direction (0=forward, 1=reverse)
//
// Program flow:
//  1. Pull 32-bit command from FIFO
//  2. Extract pulse count into X register
//  3. Extract delay cycles into Y register
//  4. Set direction pin
//  5. Generate X+1 pulses with Y cycle delays between them
//
// buildStepProgram creates the step PIO program using AssemblerV0
func buildStepProgram() []uint16 {
	asm := rp2pio.AssemblerV0{SidesetBits: 0}
	return []uint16{
		// .wrap_target
		asm.Pull(false, true).Encode(),          // 0: pull block
		asm.Out(rp2pio.OutDestX, 16).Encode(),   // 1: out x, 16 (pulse count)
		asm.Out(rp2pio.OutDestY, 8).Encode(),    // 2: out y, 8 (delay cycles)
		asm.Out(rp2pio.OutDestPins, 1).Encode(), // 3: out pins, 1 (direction)
		// step_loop:
		asm.Set(rp2pio.SetDestPins, 1).Delay(7).Encode(), // 4: set pins, 1 [7]
		asm.Set(rp2pio.SetDestPins, 0).Encode(),          // 5: set pins, 0
		// delay_loop:
		asm.Jmp(6, rp2pio.JmpYNZeroDec).Encode(), // 6: jmp y--, 6
		asm.Jmp(4, rp2pio.JmpXNZeroDec).Encode(), // 7: jmp x--, 4
		// .wrap
	}
}

const (
	stepProgramOrigin = 0 // Load at offset 0 for correct jump addresses

	// 125MHz / 25 = 5MHz, an 8 cycle pulse is 1.6us
	stepClockDiv = 25

	cmdDirBit = 1 << 24
)

// PIOMotor generates step pulses on a PIO state machine. Direction is
// shifted out with every command, enable goes through a GPIO driver.
type PIOMotor struct {
	name    string
	pio     *rp2pio.PIO
	sm      rp2pio.StateMachine
	gpio    core.GPIODriver
	pins    core.MotorPins
	reverse bool
	offset  uint8
}

// NewPIOMotor creates a motor on PIO block pioNum (0 or 1), state
// machine smNum (0-3)
func NewPIOMotor(name string, pioNum, smNum uint8, gpio core.GPIODriver) *PIOMotor {
	pioHW := rp2pio.PIO0
	if pioNum != 0 {
		pioHW = rp2pio.PIO1
	}
	return &PIOMotor{
		name: name,
		pio:  pioHW,
		sm:   pioHW.StateMachine(smNum),
		gpio: gpio,
	}
}

// loadedPrograms tracks the program offset per PIO block
var loadedPrograms = map[*rp2pio.PIO]uint8{}

// Init claims the state machine, loads the program and leaves the motor
// disabled
func (m *PIOMotor) Init(pins core.MotorPins) error {
	if pins.InvertStep {
		return ErrInvertedStep
	}
	m.pins = pins

	m.sm.TryClaim()

	// One copy of the program serves all four state machines of a block
	offset, ok := loadedPrograms[m.pio]
	if !ok {
		program := buildStepProgram()
		var err error
		offset, err = m.pio.AddProgram(program, stepProgramOrigin)
		if err != nil {
			return err
		}
		loadedPrograms[m.pio] = offset
	}
	m.offset = offset

	stepPin := machine.Pin(pins.Step)
	dirPin := machine.Pin(pins.Dir)
	stepPin.Configure(machine.PinConfig{Mode: m.pio.PinMode()})
	dirPin.Configure(machine.PinConfig{Mode: m.pio.PinMode()})

	cfg := rp2pio.DefaultStateMachineConfig()
	cfg.SetSetPins(stepPin, 1)
	cfg.SetOutPins(dirPin, 1)
	// Shift right, explicit PULL, 32-bit threshold
	cfg.SetOutShift(true, false, 32)
	cfg.SetWrap(offset+uint8(len(buildStepProgram()))-1, offset)
	cfg.SetClkDivIntFrac(stepClockDiv, 0)

	// Pin directions must be set after Init
	m.sm.Init(offset, cfg)
	m.sm.SetPindirsConsecutive(stepPin, 1, true)
	m.sm.SetPindirsConsecutive(dirPin, 1, true)
	m.sm.SetPinsConsecutive(stepPin, 1, false)
	m.sm.SetPinsConsecutive(dirPin, 1, pins.InvertDir)
	m.sm.SetEnabled(true)

	if pins.HasEnable {
		if err := m.gpio.ConfigureOutput(pins.Enable); err != nil {
			return err
		}
	}
	m.Disable()
	return nil
}

// Step queues a single step pulse
func (m *PIOMotor) Step() {
	var cmd uint32 // one pulse, no delay
	if m.reverse != m.pins.InvertDir {
		cmd |= cmdDirBit
	}
	for m.sm.IsTxFIFOFull() {
	}
	m.sm.TxPut(cmd)
}

// SetDirection sets the direction sent with the next step
func (m *PIOMotor) SetDirection(reverse bool) {
	m.reverse = reverse
}

// Enable energizes the driver
func (m *PIOMotor) Enable() {
	if m.pins.HasEnable {
		m.gpio.SetPin(m.pins.Enable, m.pins.EnableActiveHigh)
	}
}

// Disable de-energizes the driver
func (m *PIOMotor) Disable() {
	if m.pins.HasEnable {
		m.gpio.SetPin(m.pins.Enable, !m.pins.EnableActiveHigh)
	}
}

// Stop halts the state machine and drops queued pulses
func (m *PIOMotor) Stop() {
	m.sm.SetEnabled(false)
	m.sm.ClearFIFOs()
	m.sm.Restart()
	m.sm.SetEnabled(true)
}

// GetName returns the motor name
func (m *PIOMotor) GetName() string {
	return m.name
}
