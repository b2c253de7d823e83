package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"ddastep/core"
	"ddastep/host/monitor"
	"ddastep/host/wslink"
)

var (
	monitorTiming bool
	monitorTUI    bool
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Decode status and timing frames from a board",
	Long: `Continuously decode the diagnostic frames a running board sends.

Each status report shows the pipeline's busy state, the Prep Buffer owner
and move type, and the load and exec counters. A report whose integrity
markers are wrong is flagged as corrupt. With --timing the board's timing
events are printed as they arrive. --tui shows a live dashboard instead.`,
	RunE: runMonitor,
}

func init() {
	monitorCmd.Flags().BoolVarP(&monitorTiming, "timing", "t", false, "Print timing events")
	monitorCmd.Flags().BoolVar(&monitorTUI, "tui", false, "Live dashboard")
	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	port, info, err := OpenConnection()
	if err != nil {
		return err
	}
	defer port.Close()

	if monitorTUI {
		return runMonitorTUI(cmd.Context(), port, info)
	}

	out := cmd.OutOrStdout()
	on := styled(out)

	fmt.Fprintln(out, paint(on, titleStyle, "ddastep monitor"))
	fmt.Fprintf(out, "Connection: %s\n", info)
	fmt.Fprintf(out, "Press Ctrl+C to exit\n\n")

	m := monitor.New(port)
	m.OnStatus = func(st core.Status) {
		fmt.Fprintln(out, formatStatus(on, time.Now(), &st))
	}
	if monitorTiming {
		m.OnTiming = func(evt core.TimingEvent) {
			fmt.Fprintln(out, formatTiming(on, evt))
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	err = m.Run(ctx)
	frames, dropped, corrupt := m.Stats()
	fmt.Fprintf(out, "\n%s %d  %s %d  %s %d\n",
		paint(on, labelStyle, "Frames:"), frames,
		paint(on, labelStyle, "Dropped:"), dropped,
		paint(on, labelStyle, "Corrupt:"), corrupt)

	if errors.Is(err, context.Canceled) || errors.Is(err, wslink.ErrClosed) {
		return nil
	}
	return err
}

func runMonitorTUI(parent context.Context, port io.Reader, info string) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	m := monitor.New(port)
	p := tea.NewProgram(newMonitorModel(info, m.Stats), tea.WithAltScreen())
	m.OnStatus = func(st core.Status) {
		p.Send(statusMsg(st))
	}
	m.OnTiming = func(evt core.TimingEvent) {
		p.Send(timingMsg(evt))
	}

	go func() {
		p.Send(doneMsg{err: m.Run(ctx)})
	}()

	final, err := p.Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(monitorModel); ok && fm.err != nil &&
		!errors.Is(fm.err, context.Canceled) && !errors.Is(fm.err, wslink.ErrClosed) {
		return fm.err
	}
	return nil
}

func formatStatus(on bool, at time.Time, st *core.Status) string {
	state := paint(on, okStyle, "idle")
	if st.Busy {
		state = paint(on, warnStyle, "busy")
	}
	line := fmt.Sprintf("[%s] %s ticks=%d owner=%s prep=%s loads=%d execs=%d",
		at.Format("15:04:05.000"), state, st.TicksRemaining,
		st.Owner, st.MoveType, st.Loads, st.Execs)
	if st.Rejected > 0 {
		line += " " + paint(on, warnStyle, fmt.Sprintf("rejected=%d", st.Rejected))
	}
	if st.Corrupt() {
		line += " " + paint(on, errorStyle,
			fmt.Sprintf("CORRUPT run=0x%04X prep=0x%04X", st.RunMagic, st.PrepMagic))
	}
	return line
}

func formatTiming(on bool, evt core.TimingEvent) string {
	return fmt.Sprintf("  %s %10d %-12s arg=%d v1=%d v2=%d",
		paint(on, labelStyle, "evt"), evt.Clock, core.EventName(evt.EventType),
		evt.Arg, evt.Value1, evt.Value2)
}
