package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"ddastep/host/serial"
)

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List serial ports",
	RunE: func(cmd *cobra.Command, args []string) error {
		ports, err := serial.ListPorts()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		on := styled(out)
		if len(ports) == 0 {
			fmt.Fprintln(out, "No serial ports found")
			return nil
		}
		for _, p := range ports {
			line := p.Name
			if p.IsUSB {
				line += fmt.Sprintf("  %s:%s %s", p.VID, p.PID, p.Product)
			}
			if p.IsRP2040() {
				line += "  " + paint(on, okStyle, "rp2040")
			}
			fmt.Fprintln(out, line)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(portsCmd)
}
