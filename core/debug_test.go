package core

import (
	"strings"
	"testing"
)

func TestTimingRingWraps(t *testing.T) {
	ClearTimingRing()
	defer ClearTimingRing()

	for i := 0; i < TimingRingSize+5; i++ {
		RecordTiming(EvtLoadLine, 0, uint32(i), uint32(i), 0)
	}

	events := TimingEvents()
	if len(events) != TimingRingSize {
		t.Fatalf("Expected %d events, got %d", TimingRingSize, len(events))
	}
	if events[0].Clock != 5 {
		t.Errorf("Expected oldest event at clock 5, got %d", events[0].Clock)
	}
	if events[len(events)-1].Clock != TimingRingSize+4 {
		t.Errorf("Expected newest event at clock %d, got %d", TimingRingSize+4, events[len(events)-1].Clock)
	}
}

func TestDumpTimingRing(t *testing.T) {
	ClearTimingRing()
	defer ClearTimingRing()

	var lines []string
	SetDebugWriter(func(s string) { lines = append(lines, s) })
	defer SetDebugWriter(func(string) {})

	RecordTiming(EvtExecReject, uint8(MoveLine), 42, 1, 0)
	DumpTimingRing()

	if len(lines) != 3 {
		t.Fatalf("Expected header, one event and footer, got %v", lines)
	}
	if !strings.Contains(lines[1], "EXEC_REJECT!") || !strings.Contains(lines[1], "clock=42") {
		t.Errorf("Unexpected dump line: %s", lines[1])
	}
}

func TestDebugPrintlnGated(t *testing.T) {
	var got []string
	SetDebugWriter(func(s string) { got = append(got, s) })
	defer SetDebugWriter(func(string) {})

	SetDebugEnabled(false)
	DebugPrintln("hidden")
	SetDebugEnabled(true)
	DebugPrintln("shown")
	SetDebugEnabled(false)

	if len(got) != 1 || got[0] != "shown" {
		t.Errorf("Expected only the enabled message, got %v", got)
	}
}
