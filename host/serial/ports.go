//go:build !wasm

package serial

import (
	"strings"

	"go.bug.st/serial/enumerator"
)

// RP2040 USB vendor ID
const RaspberryPiVID = "2E8A"

// PortInfo describes a serial port found on the host
type PortInfo struct {
	Name    string
	IsUSB   bool
	VID     string
	PID     string
	Serial  string
	Product string
}

// IsRP2040 reports whether the port belongs to a Raspberry Pi RP2040 device
func (p PortInfo) IsRP2040() bool {
	return p.IsUSB && strings.EqualFold(p.VID, RaspberryPiVID)
}

// ListPorts enumerates serial ports with their USB details
func ListPorts() ([]PortInfo, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, err
	}

	ports := make([]PortInfo, 0, len(details))
	for _, d := range details {
		ports = append(ports, PortInfo{
			Name:    d.Name,
			IsUSB:   d.IsUSB,
			VID:     d.VID,
			PID:     d.PID,
			Serial:  d.SerialNumber,
			Product: d.Product,
		})
	}
	return ports, nil
}

// FindRP2040 returns the first RP2040 port, or "" if none is attached
func FindRP2040() (string, error) {
	ports, err := ListPorts()
	if err != nil {
		return "", err
	}
	for _, p := range ports {
		if p.IsRP2040() {
			return p.Name, nil
		}
	}
	return "", nil
}
