//go:build rp2040

package main

import (
	_ "embed"
	"time"

	"ddastep/config"
	"ddastep/core"
	"ddastep/protocol"
	"ddastep/targets/pio"
	"machine"

	"tinygo.org/x/drivers/tmc2209"
)

//go:embed machine.json
var machineJSON []byte

const (
	// Interval between status reports
	statusInterval = 100 * time.Millisecond

	// Timing frames per USB write, sized to fit the scratch buffer
	timingBatch = 16
)

var (
	stepper *core.Stepper
	queue   = &core.SegmentQueue{}

	outputBuffer *protocol.FrameBuffer
	reporter     *protocol.Reporter

	// Debug counters
	msgerrors                uint32
	consecutiveWriteFailures uint32
)

func main() {
	// Disable watchdog on boot to clear any previous state
	err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0})
	if err != nil {
		return
	}

	InitUSB()
	UpdateSystemTime()

	cfg, err := config.LoadConfig(machineJSON)
	if err != nil {
		// Keep running on the built-in machine so the error is visible
		msgerrors++
		cfg = config.DefaultConfig()
	}

	gpio := pio.NewMachineGPIO()
	core.SetGPIODriver(gpio)

	motors, err := pio.BuildMotors(cfg, gpio)
	if err != nil {
		msgerrors++
	}

	stepper = core.New(cfg.StepperConfig(), newAlarmTimers(), motors, queue)
	if micro := initTMC(cfg); micro != nil {
		stepper.SetMicrostepDriver(micro)
	}
	if err := stepper.Init(); err != nil {
		msgerrors++
	}
	if err := cfg.Apply(stepper); err != nil {
		msgerrors++
	}

	outputBuffer = protocol.NewFrameBuffer()
	reporter = protocol.NewReporter(outputBuffer)
	core.SetTimingEnabled(true)

	for {
		// Recover from panics in the main loop to prevent a firmware crash
		func() {
			defer func() {
				if r := recover(); r != nil {
					msgerrors++
					outputBuffer.Reset()
				}
			}()

			UpdateSystemTime()

			st := stepper.Snapshot()
			reporter.SendStatus(&st)
			writeUSB()

			events := core.TimingEvents()
			core.ClearTimingRing()
			for len(events) > 0 {
				n := min(len(events), timingBatch)
				reporter.SendTiming(events[:n])
				writeUSB()
				events = events[n:]
			}
		}()

		time.Sleep(statusInterval)
	}
}

// initTMC attaches the motors that have a TMC2209 address on UART1.
// Returns nil when no motor has one.
func initTMC(cfg *config.MachineConfig) core.MicrostepDriver {
	var micro *core.TMC2209Microstepper
	for i, m := range cfg.Motors {
		if m.TMCAddress == nil || i >= core.MotorCount {
			continue
		}
		if micro == nil {
			uart := machine.UART1
			uart.Configure(machine.UARTConfig{BaudRate: 115200, TX: machine.UART1_TX_PIN, RX: machine.UART1_RX_PIN})
			micro = core.NewTMC2209Microstepper(tmc2209.NewUARTComm(*uart, 0))
		}
		if err := micro.Attach(uint8(i), *m.TMCAddress); err != nil {
			msgerrors++
		}
	}
	if micro == nil {
		// A typed nil would look like an installed driver
		return nil
	}
	return micro
}

// writeUSB writes available data from the output buffer to USB
func writeUSB() {
	if outputBuffer.Overflowed != 0 {
		msgerrors++
		outputBuffer.Overflowed = 0
	}
	result := outputBuffer.Bytes()
	written := 0
	for written < len(result) {
		n, err := USBWriteBytes(result[written:])
		if err != nil || n == 0 {
			// Likely disconnected, drop stale reports
			consecutiveWriteFailures++
			if consecutiveWriteFailures > 10 {
				consecutiveWriteFailures = 0
				outputBuffer.Reset()
			}
			return
		}
		written += n
	}
	consecutiveWriteFailures = 0
	outputBuffer.Reset()
}
