package core

// MotorPins describes how a motor is wired
type MotorPins struct {
	Step   GPIOPin
	Dir    GPIOPin
	Enable GPIOPin

	HasEnable        bool // Enable pin is wired
	InvertStep       bool // Step pulse is active low
	InvertDir        bool // Swap the electrical level of the direction pin
	EnableActiveHigh bool // Driver enables on a high level (most drivers are active low)
}

// MotorBackend defines the hardware abstraction for one motor's
// step/direction/enable outputs. Implementations can use GPIO, PIO, or
// other methods.
type MotorBackend interface {
	// Init configures the pins and leaves the motor disabled
	Init(pins MotorPins) error

	// Step generates a single step pulse
	// Must handle pulse width timing internally
	// Should be fast (called from timer interrupt)
	Step()

	// SetDirection sets the direction output
	// reverse: true = reverse, false = forward
	// Must ensure proper dir-to-step setup time
	SetDirection(reverse bool)

	// Enable energizes the motor driver
	Enable()

	// Disable de-energizes the motor driver
	Disable()

	// Stop immediately halts stepping
	Stop()

	// GetName returns backend implementation name
	GetName() string
}

// Motors is the table of motor backends indexed by motor number.
// A nil entry means the motor is not wired and is skipped.
type Motors [MotorCount]MotorBackend
