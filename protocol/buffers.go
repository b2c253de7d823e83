package protocol

// OutputBuffer collects encoded bytes for outgoing frames
type OutputBuffer interface {
	Output(data []byte)

	// Mark returns the current write offset
	Mark() int

	// Since returns the bytes written after mark. The slice shares the
	// buffer, so writing through it patches encoded output.
	Since(mark int) []byte
}

// InputBuffer holds received bytes until the Receiver consumes them
type InputBuffer interface {
	Data() []byte
	Pop(n int)
}

// FrameBuffer is a fixed-size OutputBuffer holding frames until they are
// written out. Bytes that do not fit are dropped and counted.
type FrameBuffer struct {
	buf [MessageMax]byte
	n   int

	Overflowed uint32
}

// NewFrameBuffer creates an empty FrameBuffer
func NewFrameBuffer() *FrameBuffer {
	return &FrameBuffer{}
}

func (b *FrameBuffer) Output(data []byte) {
	c := copy(b.buf[b.n:], data)
	b.n += c
	if c < len(data) {
		b.Overflowed += uint32(len(data) - c)
	}
}

func (b *FrameBuffer) Mark() int {
	return b.n
}

func (b *FrameBuffer) Since(mark int) []byte {
	if mark > b.n {
		return nil
	}
	return b.buf[mark:b.n]
}

// Bytes returns everything written since the last Reset
func (b *FrameBuffer) Bytes() []byte {
	return b.buf[:b.n]
}

// Reset empties the buffer once its frames are sent
func (b *FrameBuffer) Reset() {
	b.n = 0
}

// StreamBuffer accumulates received bytes. Unconsumed data always starts
// at the front, so Data never copies.
type StreamBuffer struct {
	buf []byte
	n   int
}

// NewStreamBuffer creates a StreamBuffer holding up to capacity bytes
func NewStreamBuffer(capacity int) *StreamBuffer {
	return &StreamBuffer{buf: make([]byte, capacity)}
}

// Write appends as much of data as fits and returns how much that was
func (b *StreamBuffer) Write(data []byte) int {
	c := copy(b.buf[b.n:], data)
	b.n += c
	return c
}

func (b *StreamBuffer) Data() []byte {
	return b.buf[:b.n]
}

// Pop drops n bytes from the front and moves the rest down
func (b *StreamBuffer) Pop(n int) {
	if n >= b.n {
		b.n = 0
		return
	}
	b.n = copy(b.buf, b.buf[n:b.n])
}

// Len returns the number of unconsumed bytes
func (b *StreamBuffer) Len() int {
	return b.n
}

// Reset drops every unconsumed byte
func (b *StreamBuffer) Reset() {
	b.n = 0
}
