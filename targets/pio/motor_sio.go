//go:build rp2040 || rp2350

package pio

import (
	"ddastep/core"
	"device/arm"
	"device/rp"
	"machine"
)

// SIOMotor drives step, direction and enable through the single-cycle
// IO block. Performance: ~200kHz max step rate, ~100ns pulse width.
type SIOMotor struct {
	name string
	pins core.MotorPins

	stepMask   uint32
	dirMask    uint32
	enableMask uint32
}

// NewSIOMotor creates an SIO backed motor
func NewSIOMotor(name string) *SIOMotor {
	return &SIOMotor{name: name}
}

// Init configures the pins and leaves the motor disabled
func (m *SIOMotor) Init(pins core.MotorPins) error {
	m.pins = pins
	m.stepMask = 1 << pins.Step
	m.dirMask = 1 << pins.Dir

	machine.Pin(pins.Step).Configure(machine.PinConfig{Mode: machine.PinOutput})
	machine.Pin(pins.Dir).Configure(machine.PinConfig{Mode: machine.PinOutput})
	m.Stop()
	m.SetDirection(false)

	if pins.HasEnable {
		m.enableMask = 1 << pins.Enable
		machine.Pin(pins.Enable).Configure(machine.PinConfig{Mode: machine.PinOutput})
	}
	m.Disable()
	return nil
}

// Step generates a single step pulse
func (m *SIOMotor) Step() {
	if m.pins.InvertStep {
		rp.SIO.GPIO_OUT_CLR.Set(m.stepMask)
		pulseDelay()
		rp.SIO.GPIO_OUT_SET.Set(m.stepMask)
		return
	}
	rp.SIO.GPIO_OUT_SET.Set(m.stepMask)
	pulseDelay()
	rp.SIO.GPIO_OUT_CLR.Set(m.stepMask)
}

// pulseDelay holds the step pin for ~100ns at 125MHz, the minimum for
// Trinamic drivers
func pulseDelay() {
	arm.Asm("nop\nnop\nnop\nnop\nnop\nnop\nnop\nnop\nnop\nnop\nnop\nnop\nnop")
}

// SetDirection sets the direction output
func (m *SIOMotor) SetDirection(reverse bool) {
	if reverse != m.pins.InvertDir {
		rp.SIO.GPIO_OUT_SET.Set(m.dirMask)
	} else {
		rp.SIO.GPIO_OUT_CLR.Set(m.dirMask)
	}
	// Dir-to-step setup time: 20ns minimum for TMC2209
	arm.Asm("nop\nnop\nnop")
}

// Enable energizes the driver
func (m *SIOMotor) Enable() {
	m.driveEnable(true)
}

// Disable de-energizes the driver
func (m *SIOMotor) Disable() {
	m.driveEnable(false)
}

func (m *SIOMotor) driveEnable(on bool) {
	if m.enableMask == 0 {
		return
	}
	if on == m.pins.EnableActiveHigh {
		rp.SIO.GPIO_OUT_SET.Set(m.enableMask)
	} else {
		rp.SIO.GPIO_OUT_CLR.Set(m.enableMask)
	}
}

// Stop returns the step pin to its idle level
func (m *SIOMotor) Stop() {
	if m.pins.InvertStep {
		rp.SIO.GPIO_OUT_SET.Set(m.stepMask)
	} else {
		rp.SIO.GPIO_OUT_CLR.Set(m.stepMask)
	}
}

// GetName returns the backend name
func (m *SIOMotor) GetName() string {
	return m.name
}
