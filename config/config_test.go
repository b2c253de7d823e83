package config

import (
	"strings"
	"testing"

	"go.uber.org/multierr"

	"ddastep/core"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig([]byte(`{"Motors":[{"StepPin":"gpio0","DirPin":"gpio1"}]}`))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.PulseFrequency != core.PulseFrequency || cfg.DwellFrequency != core.DwellFrequency {
		t.Errorf("Frequencies not defaulted: %d %d", cfg.PulseFrequency, cfg.DwellFrequency)
	}
	if cfg.Substeps != 1000 || cfg.CounterResetFactor != 2 {
		t.Errorf("DDA parameters not defaulted: %d %d", cfg.Substeps, cfg.CounterResetFactor)
	}
	m := cfg.Motors[0]
	if m.Name != "m1" || m.Backend != "gpio" || m.Microsteps != 1 {
		t.Errorf("Motor defaults not applied: %+v", m)
	}

	if got := cfg.StepperConfig(); got != core.DefaultConfig() {
		t.Errorf("StepperConfig = %+v, want %+v", got, core.DefaultConfig())
	}
}

func TestLoadConfigInvalidJSON(t *testing.T) {
	if _, err := LoadConfig([]byte(`{"Motors":`)); err == nil {
		t.Error("Expected error for truncated JSON")
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	addr := uint8(7)
	cfg := &MachineConfig{
		PulseFrequency:     30000, // does not divide 1MHz
		DwellFrequency:     10000,
		TimerClock:         1000000,
		Substeps:           1000,
		CounterResetFactor: 2,
		Motors: []MotorConfig{
			{Name: "x", Backend: "gpio", StepPin: "gpio0", DirPin: "gpio0", Microsteps: 16},
			{Name: "y", Backend: "laser", StepPin: "pin2", DirPin: "gpio3", Microsteps: 12, TMCAddress: &addr},
		},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Expected validation errors")
	}

	errs := multierr.Errors(err)
	// frequency, duplicate pin, bad pin name, backend, microsteps, address
	if len(errs) != 6 {
		t.Errorf("Expected 6 errors, got %d: %v", len(errs), err)
	}
	for _, want := range []string{"pulse frequency", "already used", "invalid pin", "unknown backend", "microsteps 12", "TMC address"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Missing %q in %v", want, err)
		}
	}
}

func TestValidateTooManyMotors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Motors = append(cfg.Motors, MotorConfig{Name: "extra", Backend: "gpio", StepPin: "gpio20", DirPin: "gpio21", Microsteps: 1})
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "at most") {
		t.Errorf("Expected motor count error, got %v", err)
	}
}

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default config invalid: %v", err)
	}
	if len(cfg.Motors) != core.MotorCount {
		t.Errorf("Expected %d motors, got %d", core.MotorCount, len(cfg.Motors))
	}
}

func TestParsePin(t *testing.T) {
	tests := []struct {
		name    string
		want    core.GPIOPin
		wantErr bool
	}{
		{"gpio0", 0, false},
		{"GPIO25", 25, false},
		{" 7 ", 7, false},
		{"gpio", 0, true},
		{"pa5", 0, true},
		{"gpio300", 0, true},
	}
	for _, tt := range tests {
		got, err := ParsePin(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParsePin(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParsePin(%q) = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestMotorPins(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Motors[1].InvertStep = true

	pins, err := cfg.MotorPins(1)
	if err != nil {
		t.Fatalf("MotorPins failed: %v", err)
	}
	want := core.MotorPins{Step: 2, Dir: 3, Enable: 12, HasEnable: true, InvertStep: true}
	if pins != want {
		t.Errorf("MotorPins = %+v, want %+v", pins, want)
	}

	if _, err := cfg.MotorPins(6); err != core.ErrBadMotor {
		t.Errorf("Expected ErrBadMotor, got %v", err)
	}
}

func TestApply(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Motors[2].Polarity = true
	cfg.Motors[2].Microsteps = 32

	bank := core.NewSoftTimerBank()
	s := core.New(cfg.StepperConfig(), bank.Timers(), core.Motors{}, nil)
	if err := s.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if err := cfg.Apply(s); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if !s.Polarity(2) || s.Polarity(1) {
		t.Error("Polarity not applied")
	}
	if s.Microsteps(2) != 32 || s.Microsteps(0) != 16 {
		t.Errorf("Microsteps not applied: %d %d", s.Microsteps(2), s.Microsteps(0))
	}
}

func TestLoadSegments(t *testing.T) {
	segs, err := LoadSegments([]byte(`[
		{"Steps":[100,-20],"Microseconds":4000},
		{"Kind":"dwell","Microseconds":1000},
		{"Kind":"null"}
	]`))
	if err != nil {
		t.Fatalf("LoadSegments failed: %v", err)
	}
	if len(segs) != 3 {
		t.Fatalf("Expected 3 segments, got %d", len(segs))
	}
	if segs[0].Kind != core.MoveLine || segs[0].Steps[1] != -20 || segs[0].Steps[2] != 0 {
		t.Errorf("Unexpected line: %+v", segs[0])
	}
	if segs[1].Kind != core.MoveDwell || segs[1].Microseconds != 1000 {
		t.Errorf("Unexpected dwell: %+v", segs[1])
	}
	if segs[2].Kind != core.MoveNull {
		t.Errorf("Unexpected null: %+v", segs[2])
	}

	if _, err := LoadSegments([]byte(`[{"Kind":"arc"}]`)); err == nil {
		t.Error("Expected error for unknown kind")
	}
	if _, err := LoadSegments([]byte(`[{"Steps":[1,2,3,4,5,6,7]}]`)); err == nil {
		t.Error("Expected error for too many motors")
	}
}
