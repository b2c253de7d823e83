package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"ddastep/config"
	"ddastep/core"
	"ddastep/host/sim"
)

var (
	simConfigFile   string
	simSegmentsFile string
	simLimit        time.Duration
	simTrace        bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run segments through the pipeline on virtual timers",
	Long: `Run a segment file through the exec, prep, load and pulse pipeline.

The pipeline runs on simulated timers and GPIO, so pulses are counted at
the pin level exactly as the firmware would emit them. Segments are JSON:

  [{"kind": "line", "steps": [100, -20], "microseconds": 4000},
   {"kind": "dwell", "microseconds": 1000}]

Without --config the built-in six motor machine is used.`,
	RunE: runSimulate,
}

func init() {
	simulateCmd.Flags().StringVarP(&simConfigFile, "config", "c", "", "Machine config (JSON)")
	simulateCmd.Flags().StringVarP(&simSegmentsFile, "segments", "s", "", "Segment file (JSON)")
	simulateCmd.Flags().DurationVar(&simLimit, "limit", time.Minute, "Longest simulated run")
	simulateCmd.Flags().BoolVar(&simTrace, "trace", false, "Dump the timing ring to stderr")
	simulateCmd.MarkFlagRequired("segments")
	rootCmd.AddCommand(simulateCmd)
}

func runSimulate(cmd *cobra.Command, args []string) error {
	cfg, err := loadMachineConfig(simConfigFile)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(simSegmentsFile)
	if err != nil {
		return fmt.Errorf("read segments: %w", err)
	}
	segs, err := config.LoadSegments(data)
	if err != nil {
		return err
	}

	core.SetTimingEnabled(simTrace)
	res, err := sim.Run(cfg, segs, simLimit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	renderResult(out, styled(out), len(segs), res)

	if simTrace {
		core.DumpTimingRing()
	}
	return nil
}

func loadMachineConfig(path string) (*config.MachineConfig, error) {
	if path == "" {
		return config.DefaultConfig(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return config.LoadConfig(data)
}

func renderResult(w io.Writer, on bool, segments int, res *sim.Result) {
	var s strings.Builder

	s.WriteString(paint(on, titleStyle, "Simulation"))
	s.WriteString("\n")
	fmt.Fprintf(&s, "%s %d  %s %v  %s %d\n",
		paint(on, labelStyle, "Segments:"), segments,
		paint(on, labelStyle, "Elapsed:"), res.Elapsed,
		paint(on, labelStyle, "Loads:"), res.Status.Loads)
	if res.Status.Rejected > 0 {
		s.WriteString(paint(on, warnStyle, fmt.Sprintf("Rejected: %d", res.Status.Rejected)))
		s.WriteString("\n")
	}
	s.WriteString("\n")

	fmt.Fprintf(&s, "%-8s %10s %10s %10s %8s %12s\n",
		"MOTOR", "NET", "FORWARD", "REVERSE", "DIR", "ACTIVE")
	for _, m := range res.Motors {
		active := "-"
		if m.Forward+m.Reverse > 0 {
			active = m.Active.String()
		}
		line := fmt.Sprintf("%-8s %10d %10d %10d %8d %12s",
			m.Name, m.Steps(), m.Forward, m.Reverse, m.DirChanges, active)
		if m.StepsDisabled > 0 {
			line += " " + paint(on, errorStyle, fmt.Sprintf("%d steps while disabled", m.StepsDisabled))
		}
		s.WriteString(line)
		s.WriteString("\n")
	}

	if res.Status.Corrupt() {
		s.WriteString(paint(on, errorStyle, "\nintegrity markers overwritten"))
	}

	if on {
		fmt.Fprintln(w, boxStyle.Render(strings.TrimRight(s.String(), "\n")))
		return
	}
	fmt.Fprint(w, s.String())
}
