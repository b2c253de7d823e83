package core

import (
	"testing"

	"tinygo.org/x/drivers/tmc2209"
)

// fakeComm stores registers per driver address
type fakeComm struct {
	regs map[uint8]map[uint8]uint32
}

func newFakeComm() *fakeComm {
	return &fakeComm{regs: make(map[uint8]map[uint8]uint32)}
}

func (f *fakeComm) ReadRegister(register uint8, driverIndex uint8) (uint32, error) {
	return f.regs[driverIndex][register], nil
}

func (f *fakeComm) WriteRegister(register uint8, value uint32, driverIndex uint8) error {
	if f.regs[driverIndex] == nil {
		f.regs[driverIndex] = make(map[uint8]uint32)
	}
	f.regs[driverIndex][register] = value
	return nil
}

func TestMresEncoding(t *testing.T) {
	tests := []struct {
		microsteps uint16
		mres       uint32
	}{
		{1, 8},
		{2, 7},
		{16, 4},
		{64, 2},
		{256, 0},
	}
	for _, tt := range tests {
		if got := mresFromMicrosteps(tt.microsteps); got != tt.mres {
			t.Errorf("mresFromMicrosteps(%d) = %d, want %d", tt.microsteps, got, tt.mres)
		}
	}
}

func TestTMC2209SetMicrosteps(t *testing.T) {
	comm := newFakeComm()
	// Toff and intpol must survive the rewrite
	comm.WriteRegister(tmc2209.CHOPCONF, 0x10000053, 1)

	ms := NewTMC2209Microstepper(comm)
	if err := ms.Attach(2, 1); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	if comm.regs[1][tmc2209.GCONF]&(1<<7) == 0 {
		t.Error("mstep_reg_select not set")
	}

	if err := ms.SetMicrosteps(2, 16); err != nil {
		t.Fatalf("SetMicrosteps failed: %v", err)
	}
	got := comm.regs[1][tmc2209.CHOPCONF]
	if mres := (got >> 24) & 0x0F; mres != 4 {
		t.Errorf("Expected MRES 4, got %d", mres)
	}
	if got&0x0F != 3 {
		t.Errorf("Toff clobbered: %#x", got)
	}

	// Motor with no driver attached is ignored
	if err := ms.SetMicrosteps(0, 16); err != nil {
		t.Errorf("Unattached motor returned %v", err)
	}
	if err := ms.Attach(1, 4); err != ErrBadMotor {
		t.Errorf("Expected ErrBadMotor for address 4, got %v", err)
	}
}

func TestStepperForwardsMicrosteps(t *testing.T) {
	comm := newFakeComm()
	ms := NewTMC2209Microstepper(comm)
	ms.Attach(0, 0)

	rig := newTestRig(t)
	rig.s.SetMicrostepDriver(ms)
	if err := rig.s.SetMicrosteps(0, 256); err != nil {
		t.Fatalf("SetMicrosteps failed: %v", err)
	}
	if mres := (comm.regs[0][tmc2209.CHOPCONF] >> 24) & 0x0F; mres != 0 {
		t.Errorf("Expected MRES 0 for 256 microsteps, got %d", mres)
	}
}
