// Package protocol implements the framed diagnostic link between the
// firmware and host tools
package protocol

// Version represents the firmware version
const Version = "0.1.0"

// Frame layout: len | seq | payload | crc16 | sync
const (
	MessageMax         = 512 // FrameBuffer size (several frames)
	MessageHeaderSize  = 2
	MessageTrailerSize = 3
	MessageLengthMin   = MessageHeaderSize + MessageTrailerSize
	MessageLengthMax   = 128
	MessagePositionLen = 0
	MessagePositionSeq = 1
	MessageTrailerCRC  = 3
	MessageTrailerSync = 1
	MessageValueSync   = 0x7E
	MessageDest        = 0x10

	// Message sequence masks
	MessageSeqMask = 0x0F
)

// Message IDs, the first VLQ of every payload
const (
	MsgStatus = 1 // pipeline snapshot
	MsgTiming = 2 // one timing ring event
)

// CRC16 calculates the frame checksum (CCITT, as used by Klipper)
func CRC16(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range data {
		b = b ^ uint8(crc&0xFF)
		b = b ^ (b << 4)
		b16 := uint16(b)
		crc = (b16<<8 | crc>>8) ^ (b16 >> 4) ^ (b16 << 3)
	}
	return crc
}
