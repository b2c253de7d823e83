package core

import (
	"testing"
)

func TestSoftTimerPeriodicOrder(t *testing.T) {
	bank := NewSoftTimerBank()
	timers := bank.Timers()

	var order []TimerID
	timers[TimerPulse].Configure(TimerPeriodic, 30, PriorityHighest, func() { order = append(order, TimerPulse) })
	timers[TimerDwell].Configure(TimerPeriodic, 50, PriorityHighest, func() { order = append(order, TimerDwell) })
	timers[TimerPulse].Start()
	timers[TimerDwell].Start()

	bank.Advance(150)

	// 30 50 60 90 100 120 150 150: on a tie the timer rescheduled first fires first
	want := []TimerID{TimerPulse, TimerDwell, TimerPulse, TimerPulse, TimerDwell, TimerPulse, TimerDwell, TimerPulse}
	if len(order) != len(want) {
		t.Fatalf("Expected %d fires, got %d: %v", len(want), len(order), order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("Fire %d: expected %v, got %v", i, want[i], order[i])
		}
	}
	if bank.Now() != 150 {
		t.Errorf("Expected clock at 150, got %d", bank.Now())
	}
	if GetTime() != 150 {
		t.Errorf("Expected event clock at 150, got %d", GetTime())
	}
}

func TestSoftTimerStop(t *testing.T) {
	bank := NewSoftTimerBank()
	timers := bank.Timers()

	count := 0
	timers[TimerPulse].Configure(TimerPeriodic, 10, PriorityHighest, func() {
		count++
		if count == 3 {
			timers[TimerPulse].Stop()
		}
	})
	timers[TimerPulse].Start()
	bank.Advance(1000)

	if count != 3 {
		t.Errorf("Expected 3 fires before stop, got %d", count)
	}
	if bank.Running(TimerPulse) {
		t.Error("Timer still running")
	}

	// Stopping twice is harmless
	timers[TimerPulse].Stop()
}

func TestSoftTimerSetPeriod(t *testing.T) {
	bank := NewSoftTimerBank()
	timers := bank.Timers()

	timers[TimerDwell].Configure(TimerPeriodic, 10, PriorityHighest, func() {})
	timers[TimerDwell].SetPeriod(25)
	timers[TimerDwell].Start()
	bank.Advance(100)

	if bank.Fires(TimerDwell) != 4 {
		t.Errorf("Expected 4 fires at period 25, got %d", bank.Fires(TimerDwell))
	}
}

func TestSoftInterruptPreemption(t *testing.T) {
	bank := NewSoftTimerBank()
	timers := bank.Timers()

	var trace []string
	timers[TimerLoad].Configure(TimerSoftware, 0, PriorityLoad, func() {
		trace = append(trace, "load")
	})
	timers[TimerExec].Configure(TimerSoftware, 0, PriorityExec, func() {
		trace = append(trace, "exec-start")
		// More urgent: runs on the spot
		timers[TimerLoad].SetInterruptPending()
		trace = append(trace, "exec-end")
	})
	timers[TimerPulse].Configure(TimerPeriodic, 10, PriorityHighest, func() {
		trace = append(trace, "pulse-start")
		// Less urgent: deferred until the pulse handler returns
		timers[TimerExec].SetInterruptPending()
		trace = append(trace, "pulse-end")
		timers[TimerPulse].Stop()
	})
	timers[TimerPulse].Start()
	bank.Advance(10)

	want := []string{"pulse-start", "pulse-end", "exec-start", "load", "exec-end"}
	if len(trace) != len(want) {
		t.Fatalf("Expected %v, got %v", want, trace)
	}
	for i := range want {
		if trace[i] != want[i] {
			t.Errorf("Step %d: expected %s, got %s", i, want[i], trace[i])
		}
	}
}

func TestSoftInterruptPendingOnce(t *testing.T) {
	bank := NewSoftTimerBank()
	timers := bank.Timers()

	count := 0
	timers[TimerExec].Configure(TimerSoftware, 0, PriorityExec, func() { count++ })

	bank.RunAt(PriorityLoad, func() {
		timers[TimerExec].SetInterruptPending()
		timers[TimerExec].SetInterruptPending()
		timers[TimerExec].SetInterruptPending()
	})
	if count != 1 {
		t.Errorf("Expected one service, got %d", count)
	}

	bank.RunAt(PriorityHighest, func() {
		timers[TimerExec].SetInterruptPending()
		timers[TimerExec].ClearInterruptPending()
	})
	if count != 1 {
		t.Errorf("Cleared interrupt was serviced (count=%d)", count)
	}
}

func TestSoftTimerConfigureErrors(t *testing.T) {
	bank := NewSoftTimerBank()
	timers := bank.Timers()

	if err := timers[TimerPulse].Configure(TimerPeriodic, 0, PriorityHighest, func() {}); err != ErrTimerConfig {
		t.Errorf("Expected ErrTimerConfig for zero period, got %v", err)
	}
	if err := timers[TimerExec].Configure(TimerSoftware, 0, PriorityExec, nil); err != ErrTimerConfig {
		t.Errorf("Expected ErrTimerConfig for nil handler, got %v", err)
	}
}

func TestPeriodFromFrequency(t *testing.T) {
	tests := []struct {
		clock, freq uint32
		want        uint16
	}{
		{1000000, 50000, 20},
		{1000000, 10000, 100},
		{1000000, 0, 0},
		{1000000, 2000000, 0},
		{125000000, 1000, 0}, // does not fit 16 bits
	}
	for _, tt := range tests {
		if got := PeriodFromFrequency(tt.clock, tt.freq); got != tt.want {
			t.Errorf("PeriodFromFrequency(%d, %d) = %d, want %d", tt.clock, tt.freq, got, tt.want)
		}
	}
}
