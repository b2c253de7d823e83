package protocol

import (
	"errors"

	"ddastep/core"
)

// ErrUnknownMessage is returned for message IDs this version can't decode
var ErrUnknownMessage = errors.New("unknown message")

// Status flag bits
const (
	statusBusy        = 1 << 0
	statusOwnerLoader = 1 << 1
	statusMoveShift   = 2
	statusMoveMask    = 0x03
)

// EncodeStatus writes a pipeline snapshot
func EncodeStatus(output OutputBuffer, st *core.Status) {
	EncodeVLQUint(output, uint32(st.RunMagic))
	EncodeVLQUint(output, uint32(st.PrepMagic))

	flags := uint32(st.MoveType&statusMoveMask) << statusMoveShift
	if st.Busy {
		flags |= statusBusy
	}
	if st.Owner == core.OwnedByLoader {
		flags |= statusOwnerLoader
	}
	EncodeVLQUint(output, flags)

	EncodeVLQInt(output, st.TicksRemaining)
	EncodeVLQInt(output, st.TicksScaled)
	EncodeVLQInts(output, st.StepTotal[:])
	EncodeVLQInts(output, st.Counter[:])
	EncodeVLQUint(output, st.Loads)
	EncodeVLQUint(output, st.Execs)
	EncodeVLQUint(output, st.Rejected)
}

// DecodeStatus reads a pipeline snapshot written by EncodeStatus
func DecodeStatus(data *[]byte) (core.Status, error) {
	var st core.Status

	runMagic, err := DecodeVLQUint(data)
	if err != nil {
		return st, err
	}
	prepMagic, err := DecodeVLQUint(data)
	if err != nil {
		return st, err
	}
	flags, err := DecodeVLQUint(data)
	if err != nil {
		return st, err
	}
	st.RunMagic = uint16(runMagic)
	st.PrepMagic = uint16(prepMagic)
	st.Busy = flags&statusBusy != 0
	st.Owner = core.OwnedByExec
	if flags&statusOwnerLoader != 0 {
		st.Owner = core.OwnedByLoader
	}
	st.MoveType = core.MoveType((flags >> statusMoveShift) & statusMoveMask)

	if st.TicksRemaining, err = DecodeVLQInt(data); err != nil {
		return st, err
	}
	if st.TicksScaled, err = DecodeVLQInt(data); err != nil {
		return st, err
	}
	if err := DecodeVLQInts(data, st.StepTotal[:]); err != nil {
		return st, err
	}
	if err := DecodeVLQInts(data, st.Counter[:]); err != nil {
		return st, err
	}
	if st.Loads, err = DecodeVLQUint(data); err != nil {
		return st, err
	}
	if st.Execs, err = DecodeVLQUint(data); err != nil {
		return st, err
	}
	if st.Rejected, err = DecodeVLQUint(data); err != nil {
		return st, err
	}
	return st, nil
}

// EncodeTiming writes one timing ring event
func EncodeTiming(output OutputBuffer, evt core.TimingEvent) {
	EncodeVLQUint(output, uint32(evt.EventType))
	EncodeVLQUint(output, uint32(evt.Arg))
	EncodeVLQUint(output, evt.Clock)
	EncodeVLQUint(output, evt.Value1)
	EncodeVLQUint(output, evt.Value2)
}

// DecodeTiming reads an event written by EncodeTiming
func DecodeTiming(data *[]byte) (core.TimingEvent, error) {
	var vals [5]uint32
	for i := range vals {
		v, err := DecodeVLQUint(data)
		if err != nil {
			return core.TimingEvent{}, err
		}
		vals[i] = v
	}
	return core.TimingEvent{
		EventType: uint8(vals[0]),
		Arg:       uint8(vals[1]),
		Clock:     vals[2],
		Value1:    vals[3],
		Value2:    vals[4],
	}, nil
}

// SendStatus frames a status snapshot
func (r *Reporter) SendStatus(st *core.Status) {
	r.Send(MsgStatus, func(output OutputBuffer) {
		EncodeStatus(output, st)
	})
}

// SendTiming frames the captured timing events, one per frame
func (r *Reporter) SendTiming(events []core.TimingEvent) {
	for _, evt := range events {
		r.Send(MsgTiming, func(output OutputBuffer) {
			EncodeTiming(output, evt)
		})
	}
}
