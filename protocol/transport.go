package protocol

import "sync/atomic"

// Reporter frames outgoing messages on the firmware side. The link is
// one way: frames carry a rolling sequence so the host can count gaps.
type Reporter struct {
	output   OutputBuffer
	sequence uint32 // atomic, low 4 bits used
}

// NewReporter creates a Reporter writing to output
func NewReporter(output OutputBuffer) *Reporter {
	return &Reporter{output: output}
}

// EncodeFrame encodes a frame around the data written by frameData
func (r *Reporter) EncodeFrame(frameData func(output OutputBuffer)) {
	mark := r.output.Mark()

	seq := uint8(atomic.AddUint32(&r.sequence, 1)-1)&MessageSeqMask | MessageDest
	r.output.Output([]byte{0, seq})

	frameData(r.output)

	frame := r.output.Since(mark)
	if len(frame) < MessageHeaderSize {
		// No room left for even the header
		return
	}
	// Length covers the whole frame including the trailer
	frame[MessagePositionLen] = uint8(len(frame) + MessageTrailerSize)

	crc := CRC16(frame)
	r.output.Output([]byte{
		uint8((crc & 0xFF00) >> 8),
		uint8(crc & 0xFF),
		MessageValueSync,
	})
}

// Send encodes a message with the given ID and arguments
func (r *Reporter) Send(msgID uint8, args func(output OutputBuffer)) {
	r.EncodeFrame(func(output OutputBuffer) {
		EncodeVLQUint(output, uint32(msgID))
		if args != nil {
			args(output)
		}
	})
}

// MessageHandler is called for each decoded message. data holds the
// arguments following the message ID.
type MessageHandler func(msgID uint8, data *[]byte) error

// Receiver decodes frames on the host side
type Receiver struct {
	synchronized bool
	haveSeq      bool
	nextSeq      uint8
	handler      MessageHandler

	Frames  uint32 // good frames
	Dropped uint32 // frames missing from the sequence
	Corrupt uint32 // frames discarded by length, sync or CRC checks
	Errors  uint32 // handler errors
}

// NewReceiver creates a Receiver that passes messages to handler
func NewReceiver(handler MessageHandler) *Receiver {
	return &Receiver{synchronized: true, handler: handler}
}

// Receive processes incoming data from the input buffer, consuming
// every complete frame and any garbage before it
func (r *Receiver) Receive(input InputBuffer) {
	data := input.Data()
	total := len(data)

	for len(data) > 0 {
		if !r.synchronized {
			// Look for sync byte to resynchronize
			syncPos := -1
			for i, b := range data {
				if b == MessageValueSync {
					syncPos = i
					break
				}
			}

			if syncPos >= 0 {
				data = data[syncPos+1:]
				r.synchronized = true
			} else {
				data = nil
			}
			continue
		}

		// Skip leading sync bytes
		if data[0] == MessageValueSync {
			data = data[1:]
			continue
		}

		if len(data) < MessageLengthMin {
			break
		}

		msgLen := int(data[MessagePositionLen])
		if msgLen < MessageLengthMin || msgLen > MessageLengthMax {
			r.desync()
			continue
		}

		seq := data[MessagePositionSeq]
		if seq&^MessageSeqMask != MessageDest {
			r.desync()
			continue
		}

		// Wait for full message
		if len(data) < msgLen {
			break
		}

		if data[msgLen-MessageTrailerSync] != MessageValueSync {
			r.desync()
			continue
		}

		frameCRC := uint16(data[msgLen-MessageTrailerCRC])<<8 |
			uint16(data[msgLen-MessageTrailerCRC+1])
		if frameCRC != CRC16(data[:msgLen-MessageTrailerSize]) {
			r.desync()
			continue
		}

		frame := data[MessageHeaderSize : msgLen-MessageTrailerSize]
		data = data[msgLen:]

		if r.haveSeq && seq != r.nextSeq {
			r.Dropped += uint32((seq - r.nextSeq) & MessageSeqMask)
		}
		r.haveSeq = true
		r.nextSeq = ((seq + 1) & MessageSeqMask) | MessageDest
		r.Frames++

		r.parseFrame(frame)
	}

	consumed := total - len(data)
	if consumed > 0 {
		input.Pop(consumed)
	}
}

func (r *Receiver) desync() {
	r.synchronized = false
	r.Corrupt++
}

// parseFrame dispatches every message in a frame
func (r *Receiver) parseFrame(frame []byte) {
	for len(frame) > 0 {
		msgID, err := DecodeVLQUint(&frame)
		if err != nil {
			r.Errors++
			return
		}
		if r.handler == nil {
			return
		}
		if err := r.handler(uint8(msgID), &frame); err != nil {
			r.Errors++
			return
		}
	}
}
