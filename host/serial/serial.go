package serial

import (
	"io"
)

// Port is an open link to a board's status stream
type Port interface {
	io.ReadWriteCloser

	// Flush discards input the board sent before the port was opened
	Flush() error

	// Device returns the path the port was opened on
	Device() string
}

// Config selects the device and line settings
type Config struct {
	Device      string // "/dev/ttyACM0", "COM3"
	Baud        int    // ignored by USB CDC
	ReadTimeout int    // milliseconds, 0 blocks
}

// DefaultConfig returns a default configuration for the firmware's USB port
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        115200,
		ReadTimeout: 100, // 100ms read timeout
	}
}
