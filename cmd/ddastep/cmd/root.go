package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ddastep/core"
	"ddastep/protocol"
)

var (
	// Serial connection flags
	portName string
	baudRate int

	// WebSocket connection flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool

	// Output flags
	noColor bool
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "ddastep",
	Short: "DDA step pipeline simulator and monitor",
	Long: `ddastep - tools for the exec, prep, load and pulse step pipeline.

Simulate runs planned segments through the pipeline on virtual timers and
reports the pulses each motor would receive. Monitor decodes the status
and timing frames a running board sends over USB.

Connection modes:
  Serial:    --port /dev/ttyACM0 [--baud 115200]
  WebSocket: --url ws://host/path [--username user]
  With neither flag the first attached RP2040 is used.

For WebSocket authentication the password is read from DDASTEP_PASSWORD,
or prompted for if that is not set.`,
	Version:      protocol.Version,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		core.SetDebugWriter(func(s string) {
			fmt.Fprintln(os.Stderr, s)
		})
		if verbose {
			core.SetDebugEnabled(true)
			core.InitAsyncDebug()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port device")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", 115200, "Baud rate (serial only)")

	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "WebSocket URL (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable styled output")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Print pipeline debug messages to stderr")
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
