//go:build rp2040

package pio

import (
	"ddastep/config"
	"ddastep/core"
	"fmt"
)

var (
	// PIO allocation tracking
	// RP2040 has 2 PIO blocks (PIO0, PIO1) with 4 state machines each
	pioAllocations = [2][4]bool{} // [pioNum][smNum]
	nextPIONum     = uint8(0)
	nextSMNum      = uint8(0)
)

// BuildMotors creates and initializes the configured motor backends.
// Motors without configuration are left nil.
func BuildMotors(cfg *config.MachineConfig, gpio core.GPIODriver) (core.Motors, error) {
	var motors core.Motors
	for i, mc := range cfg.Motors {
		if i >= core.MotorCount {
			break
		}
		pins, err := cfg.MotorPins(i)
		if err != nil {
			return motors, err
		}

		var m core.MotorBackend
		switch mc.Backend {
		case "pio":
			pioNum, smNum, ok := allocatePIO()
			if !ok {
				return motors, fmt.Errorf("motor %s: no free PIO state machine", mc.Name)
			}
			m = NewPIOMotor(mc.Name, pioNum, smNum, gpio)
		default:
			m = NewSIOMotor(mc.Name)
		}

		if err := m.Init(pins); err != nil {
			return motors, fmt.Errorf("motor %s: %w", mc.Name, err)
		}
		motors[i] = m
	}
	return motors, nil
}

// allocatePIO allocates a PIO state machine
// Returns (pioNum, smNum, ok)
func allocatePIO() (uint8, uint8, bool) {
	// Round-robin allocation across PIO blocks and state machines
	for i := 0; i < 8; i++ { // 2 PIO × 4 SM = 8 total
		pioNum := nextPIONum
		smNum := nextSMNum

		nextSMNum++
		if nextSMNum >= 4 {
			nextSMNum = 0
			nextPIONum = (nextPIONum + 1) % 2
		}

		if !pioAllocations[pioNum][smNum] {
			pioAllocations[pioNum][smNum] = true
			return pioNum, smNum, true
		}
	}

	// All PIO resources exhausted
	return 0, 0, false
}
