package monitor

import (
	"context"
	"testing"
	"time"

	"ddastep/core"
	"ddastep/protocol"
)

func encodeReports(t *testing.T, n int) []byte {
	t.Helper()
	out := protocol.NewFrameBuffer()
	rep := protocol.NewReporter(out)
	for i := 0; i < n; i++ {
		st := core.Status{RunMagic: core.Magic, PrepMagic: core.Magic, Loads: uint32(i)}
		rep.SendStatus(&st)
	}
	rep.SendTiming([]core.TimingEvent{{EventType: core.EvtMoveEnd, Clock: 99}})
	return append([]byte(nil), out.Bytes()...)
}

func TestMonitorFeedInChunks(t *testing.T) {
	stream := encodeReports(t, 3)

	m := New(nil)
	var loads []uint32
	var events []core.TimingEvent
	m.OnStatus = func(st core.Status) { loads = append(loads, st.Loads) }
	m.OnTiming = func(evt core.TimingEvent) { events = append(events, evt) }

	// Feed a few bytes at a time
	for i := 0; i < len(stream); i += 7 {
		end := i + 7
		if end > len(stream) {
			end = len(stream)
		}
		m.Feed(stream[i:end])
	}

	if len(loads) != 3 || loads[0] != 0 || loads[2] != 2 {
		t.Errorf("Unexpected statuses: %v", loads)
	}
	if len(events) != 1 || events[0].EventType != core.EvtMoveEnd || events[0].Clock != 99 {
		t.Errorf("Unexpected timing events: %+v", events)
	}

	frames, dropped, corrupt := m.Stats()
	if frames != 4 || dropped != 0 || corrupt != 0 {
		t.Errorf("Stats = %d/%d/%d, want 4/0/0", frames, dropped, corrupt)
	}
}

// chunkReader hands out a stream then reports timeouts
type chunkReader struct {
	data []byte
}

func (c *chunkReader) Read(p []byte) (int, error) {
	if len(c.data) == 0 {
		time.Sleep(time.Millisecond)
		return 0, nil
	}
	n := copy(p, c.data)
	c.data = c.data[n:]
	return n, nil
}

func TestMonitorRunStopsOnCancel(t *testing.T) {
	m := New(&chunkReader{data: encodeReports(t, 2)})

	ctx, cancel := context.WithCancel(context.Background())
	count := 0
	m.OnStatus = func(st core.Status) {
		count++
		if count == 2 {
			cancel()
		}
	}

	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		cancel()
		t.Fatal("Run did not stop")
	}
	if count != 2 {
		t.Errorf("Expected 2 statuses, got %d", count)
	}
}
