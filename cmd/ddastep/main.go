// ddastep - step pipeline simulator and firmware monitor
//
// Runs planned segments through the step pipeline on the host and
// decodes the firmware's diagnostic frames from a serial port.

package main

import (
	"os"

	"ddastep/cmd/ddastep/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
