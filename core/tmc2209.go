package core

import (
	"strconv"

	"tinygo.org/x/drivers/tmc2209"
)

// TMC2209Microstepper sets microstep resolution on TMC2209 drivers over
// their single-wire UART. Each motor maps to a driver address on a
// shared bus; motors without a driver are left alone.
type TMC2209Microstepper struct {
	comm    tmc2209.RegisterComm
	address [MotorCount]uint8
	present [MotorCount]bool
}

// NewTMC2209Microstepper creates a microstepper on the given bus
func NewTMC2209Microstepper(comm tmc2209.RegisterComm) *TMC2209Microstepper {
	return &TMC2209Microstepper{comm: comm}
}

// Attach maps a motor to a driver address (0-3) and switches the driver
// to register-selected microstepping
func (t *TMC2209Microstepper) Attach(motor uint8, address uint8) error {
	if motor >= MotorCount || address > 3 {
		return ErrBadMotor
	}

	gconf := tmc2209.NewGconf()
	value, err := tmc2209.ReadRegister(t.comm, address, tmc2209.GCONF)
	if err != nil {
		return err
	}
	gconf.Bytes = value
	gconf.Unpack(value)
	gconf.MstepRegSelect = 1
	gconf.PdnDisable = 1
	if err := tmc2209.WriteRegister(t.comm, tmc2209.GCONF, address, gconf.Pack()); err != nil {
		return err
	}

	t.address[motor] = address
	t.present[motor] = true
	DebugPrintln("tmc2209: motor " + strconv.Itoa(int(motor)) + " at address " + strconv.Itoa(int(address)))
	return nil
}

// SetMicrosteps rewrites the MRES field of CHOPCONF
func (t *TMC2209Microstepper) SetMicrosteps(motor uint8, microsteps uint16) error {
	if motor >= MotorCount {
		return ErrBadMotor
	}
	if !t.present[motor] {
		return nil
	}
	address := t.address[motor]

	chopconf := tmc2209.NewChopconf()
	value, err := tmc2209.ReadRegister(t.comm, address, tmc2209.CHOPCONF)
	if err != nil {
		return err
	}
	chopconf.Bytes = value
	chopconf.Unpack(value)
	chopconf.Mres = mresFromMicrosteps(microsteps)
	return tmc2209.WriteRegister(t.comm, tmc2209.CHOPCONF, address, chopconf.Pack())
}

// mresFromMicrosteps encodes a microstep count: 256 is 0, full step is 8
func mresFromMicrosteps(microsteps uint16) uint32 {
	exponent := tmc2209.SetMicrostepsPerStep(microsteps)
	if exponent > 8 {
		exponent = 8
	}
	return uint32(8 - exponent)
}
