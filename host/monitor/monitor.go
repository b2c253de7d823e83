// Package monitor decodes the firmware's diagnostic frames on the host
package monitor

import (
	"context"
	"errors"
	"io"

	"ddastep/core"
	"ddastep/protocol"
)

// Monitor reads status and timing frames from a byte stream
type Monitor struct {
	port io.Reader
	in   *protocol.StreamBuffer
	rx   *protocol.Receiver

	// OnStatus is called for each decoded status report
	OnStatus func(st core.Status)
	// OnTiming is called for each decoded timing event
	OnTiming func(evt core.TimingEvent)
}

// New creates a monitor on port
func New(port io.Reader) *Monitor {
	m := &Monitor{
		port: port,
		in:   protocol.NewStreamBuffer(1024),
	}
	m.rx = protocol.NewReceiver(m.handle)
	return m
}

// Run reads until ctx is cancelled or the port fails. Empty reads and
// io.EOF are treated as read timeouts.
func (m *Monitor) Run(ctx context.Context) error {
	buf := make([]byte, 256)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, err := m.port.Read(buf)
		if n > 0 {
			m.Feed(buf[:n])
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
	}
}

// Feed decodes a chunk of received bytes
func (m *Monitor) Feed(data []byte) {
	for len(data) > 0 {
		n := m.in.Write(data)
		data = data[n:]
		m.rx.Receive(m.in)
		if n == 0 && len(data) > 0 {
			// Buffer full of undecodable bytes
			m.in.Reset()
		}
	}
}

// Stats returns receiver counters: good frames, dropped and corrupt frames
func (m *Monitor) Stats() (frames, dropped, corrupt uint32) {
	return m.rx.Frames, m.rx.Dropped, m.rx.Corrupt
}

func (m *Monitor) handle(msgID uint8, data *[]byte) error {
	switch msgID {
	case protocol.MsgStatus:
		st, err := protocol.DecodeStatus(data)
		if err != nil {
			return err
		}
		if m.OnStatus != nil {
			m.OnStatus(st)
		}
	case protocol.MsgTiming:
		evt, err := protocol.DecodeTiming(data)
		if err != nil {
			return err
		}
		if m.OnTiming != nil {
			m.OnTiming(evt)
		}
	default:
		return protocol.ErrUnknownMessage
	}
	return nil
}
