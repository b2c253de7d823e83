package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"ddastep/core"
)

// Messages
type statusMsg core.Status
type timingMsg core.TimingEvent
type doneMsg struct{ err error }

// TUI model
type monitorModel struct {
	connInfo  string
	spinner   spinner.Model
	status    *core.Status
	statusAt  time.Time
	reports   int
	events    []core.TimingEvent
	maxEvents int
	frames    func() (frames, dropped, corrupt uint32)
	err       error
	width     int
	quitting  bool
}

func newMonitorModel(connInfo string, frames func() (uint32, uint32, uint32)) monitorModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = warnStyle
	return monitorModel{
		connInfo:  connInfo,
		spinner:   s,
		maxEvents: 12,
		frames:    frames,
		width:     80,
	}
}

func (m monitorModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case statusMsg:
		st := core.Status(msg)
		m.status = &st
		m.statusAt = time.Now()
		m.reports++

	case timingMsg:
		m.events = append(m.events, core.TimingEvent(msg))
		if len(m.events) > m.maxEvents {
			m.events = m.events[len(m.events)-m.maxEvents:]
		}

	case doneMsg:
		m.err = msg.err
		return m, tea.Quit
	}
	return m, nil
}

func (m monitorModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	var s strings.Builder
	s.WriteString(titleStyle.Render("DDASTEP MONITOR"))
	s.WriteString("\n")
	s.WriteString(labelStyle.Render(fmt.Sprintf("%s | Press 'q' to quit", m.connInfo)))
	s.WriteString("\n\n")

	if m.status == nil {
		s.WriteString(m.spinner.View() + " Waiting for status...")
		s.WriteString("\n")
		return s.String()
	}

	st := m.status
	var body strings.Builder
	state := okStyle.Render("idle")
	if st.Busy {
		state = warnStyle.Render("busy")
	}
	fmt.Fprintf(&body, "%s %s  %s %d  %s %s  %s %s\n",
		labelStyle.Render("State:"), state,
		labelStyle.Render("Ticks:"), st.TicksRemaining,
		labelStyle.Render("Owner:"), st.Owner,
		labelStyle.Render("Prep:"), st.MoveType)
	fmt.Fprintf(&body, "%s %d  %s %d  %s %d\n",
		labelStyle.Render("Loads:"), st.Loads,
		labelStyle.Render("Execs:"), st.Execs,
		labelStyle.Render("Rejected:"), st.Rejected)

	fmt.Fprintf(&body, "\n%-6s %10s %12s\n", "MOTOR", "STEPTOTAL", "COUNTER")
	for i := range st.StepTotal {
		fmt.Fprintf(&body, "%-6d %10d %12d\n", i, st.StepTotal[i], st.Counter[i])
	}
	if st.Corrupt() {
		body.WriteString(errorStyle.Render(
			fmt.Sprintf("\nCORRUPT run=0x%04X prep=0x%04X", st.RunMagic, st.PrepMagic)))
	}
	s.WriteString(boxStyle.Width(m.width - 4).Render(strings.TrimRight(body.String(), "\n")))
	s.WriteString("\n")

	frames, dropped, corrupt := m.frames()
	s.WriteString(fmt.Sprintf("%s %d  %s %d  %s %d  %s %d  %s %s\n",
		labelStyle.Render("Reports:"), m.reports,
		labelStyle.Render("Frames:"), frames,
		labelStyle.Render("Dropped:"), dropped,
		labelStyle.Render("Corrupt:"), corrupt,
		labelStyle.Render("Last report:"), m.statusAt.Format("15:04:05.000")))

	if len(m.events) > 0 {
		s.WriteString("\n")
		s.WriteString(labelStyle.Render("EVENTS"))
		s.WriteString("\n")
		for _, evt := range m.events {
			s.WriteString(formatTiming(true, evt))
			s.WriteString("\n")
		}
	}
	return s.String()
}
