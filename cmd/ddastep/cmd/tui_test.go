package cmd

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"ddastep/core"
)

func testModel() monitorModel {
	return newMonitorModel("Serial: /dev/null @ 115200 baud", func() (uint32, uint32, uint32) {
		return 7, 1, 0
	})
}

func TestMonitorModelWaiting(t *testing.T) {
	m := testModel()
	if view := m.View(); !strings.Contains(view, "Waiting for status") {
		t.Errorf("view before first report:\n%s", view)
	}
}

func TestMonitorModelStatus(t *testing.T) {
	st := core.Status{
		RunMagic:       core.Magic,
		PrepMagic:      core.Magic,
		Busy:           true,
		TicksRemaining: 42,
		Loads:          3,
		Execs:          4,
	}
	next, _ := testModel().Update(statusMsg(st))
	m := next.(monitorModel)
	if m.status == nil || m.status.TicksRemaining != 42 {
		t.Fatalf("status not stored: %+v", m.status)
	}
	if m.reports != 1 {
		t.Errorf("reports = %d, want 1", m.reports)
	}
	view := m.View()
	for _, want := range []string{"busy", "42", "Frames:"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
	if strings.Contains(view, "CORRUPT") {
		t.Errorf("intact status shown as corrupt:\n%s", view)
	}
}

func TestMonitorModelEventLogBounded(t *testing.T) {
	var model tea.Model = testModel()
	for i := 0; i < 20; i++ {
		model, _ = model.Update(timingMsg(core.TimingEvent{EventType: core.EvtMoveEnd, Clock: uint32(i)}))
	}
	m := model.(monitorModel)
	if len(m.events) != m.maxEvents {
		t.Fatalf("events = %d, want %d", len(m.events), m.maxEvents)
	}
	if m.events[len(m.events)-1].Clock != 19 {
		t.Errorf("newest event clock = %d, want 19", m.events[len(m.events)-1].Clock)
	}
}

func TestMonitorModelQuit(t *testing.T) {
	next, cmd := testModel().Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q did not return a command")
	}
	if !next.(monitorModel).quitting {
		t.Error("q did not mark the model as quitting")
	}
}

func TestMonitorModelDone(t *testing.T) {
	errLost := errors.New("link lost")
	next, cmd := testModel().Update(doneMsg{err: errLost})
	if cmd == nil {
		t.Fatal("done did not return a command")
	}
	if !errors.Is(next.(monitorModel).err, errLost) {
		t.Errorf("err = %v, want %v", next.(monitorModel).err, errLost)
	}
}
