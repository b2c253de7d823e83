package core

// MicrostepDriver applies a microstep mode to a motor's driver chip
type MicrostepDriver interface {
	SetMicrosteps(motor uint8, microsteps uint16) error
}
