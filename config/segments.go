package config

import (
	"encoding/json"
	"fmt"

	"ddastep/core"
)

// SegmentConfig is one segment in a segment file
type SegmentConfig struct {
	Kind         string    // "line" (default), "dwell" or "null"
	Steps        []float64 // Signed steps per motor, missing motors are 0
	Microseconds float64   // Duration
}

// LoadSegments parses a JSON array of segments
func LoadSegments(jsonData []byte) ([]core.Segment, error) {
	var raw []SegmentConfig
	if err := json.Unmarshal(jsonData, &raw); err != nil {
		return nil, err
	}

	segs := make([]core.Segment, 0, len(raw))
	for i, r := range raw {
		seg, err := r.Segment()
		if err != nil {
			return nil, fmt.Errorf("segment %d: %w", i, err)
		}
		segs = append(segs, seg)
	}
	return segs, nil
}

// Segment converts the entry to a pipeline segment
func (r SegmentConfig) Segment() (core.Segment, error) {
	if len(r.Steps) > core.MotorCount {
		return core.Segment{}, fmt.Errorf("%d step counts, at most %d motors", len(r.Steps), core.MotorCount)
	}

	var steps [core.MotorCount]float64
	copy(steps[:], r.Steps)

	switch r.Kind {
	case "", "line":
		return core.Line(steps, r.Microseconds), nil
	case "dwell":
		return core.Dwell(r.Microseconds), nil
	case "null":
		return core.Segment{Kind: core.MoveNull}, nil
	default:
		return core.Segment{}, fmt.Errorf("unknown segment kind %q", r.Kind)
	}
}
