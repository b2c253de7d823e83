//go:build rp2040 || rp2350

package pio

import (
	"ddastep/core"
	"machine"
)

// MachineGPIO implements core.GPIODriver on the machine package
type MachineGPIO struct {
	// Track configured pins to prevent reconfiguring shared pins
	configuredPins map[core.GPIOPin]machine.Pin
}

// NewMachineGPIO creates a GPIO driver
func NewMachineGPIO() *MachineGPIO {
	return &MachineGPIO{
		configuredPins: make(map[core.GPIOPin]machine.Pin),
	}
}

// ConfigureOutput configures a pin as a digital output
func (d *MachineGPIO) ConfigureOutput(pin core.GPIOPin) error {
	if _, exists := d.configuredPins[pin]; exists {
		// Enable pins are often shared between drivers
		return nil
	}
	p := machine.Pin(pin)
	p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	d.configuredPins[pin] = p
	return nil
}

// SetPin drives a configured output
func (d *MachineGPIO) SetPin(pin core.GPIOPin, value bool) error {
	p, ok := d.configuredPins[pin]
	if !ok {
		return core.ErrPinNotConfigured
	}
	p.Set(value)
	return nil
}

// GetPin reads a pin level
func (d *MachineGPIO) GetPin(pin core.GPIOPin) (bool, error) {
	p, ok := d.configuredPins[pin]
	if !ok {
		p = machine.Pin(pin)
	}
	return p.Get(), nil
}
