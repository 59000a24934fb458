package proto

import "encoding/binary"

// MessageWriter builds outbound packets. StartMessage/EndMessage handle
// the length framing: the length field is reserved up front and patched
// once the message is closed, so messages can nest arbitrarily.
type MessageWriter struct {
	buf []byte
	// Offsets of the length fields for currently open messages.
	open []int
}

func NewMessageWriter() *MessageWriter {
	return &MessageWriter{buf: make([]byte, 0, 64)}
}

// StartMessage opens a length-framed message with the given tag.
func (w *MessageWriter) StartMessage(tag byte) {
	w.open = append(w.open, len(w.buf))
	w.buf = append(w.buf, 0, 0, tag)
}

// EndMessage closes the innermost open message, writing its payload
// length back into the reserved field. Panics if no message is open
// since that is always a programming error on the server side.
func (w *MessageWriter) EndMessage() {
	if len(w.open) == 0 {
		panic("EndMessage() called with no open message")
	}
	offset := w.open[len(w.open)-1]
	w.open = w.open[:len(w.open)-1]

	length := len(w.buf) - offset - 3
	binary.LittleEndian.PutUint16(w.buf[offset:], uint16(length))
}

func (w *MessageWriter) WriteUint8(v uint8) {
	w.buf = append(w.buf, v)
}

func (w *MessageWriter) WriteBool(v bool) {
	if v {
		w.buf = append(w.buf, 1)
	} else {
		w.buf = append(w.buf, 0)
	}
}

func (w *MessageWriter) WriteUint16(v uint16) {
	w.buf = binary.LittleEndian.AppendUint16(w.buf, v)
}

func (w *MessageWriter) WriteUint32(v uint32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

func (w *MessageWriter) WriteInt32(v int32) {
	w.WriteUint32(uint32(v))
}

// WritePackedUint32 writes v in the 7-bit variable length encoding.
func (w *MessageWriter) WritePackedUint32(v uint32) {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		w.buf = append(w.buf, b)
		if v == 0 {
			return
		}
	}
}

func (w *MessageWriter) WritePackedInt32(v int32) {
	w.WritePackedUint32(uint32(v))
}

func (w *MessageWriter) WriteString(s string) {
	w.WritePackedUint32(uint32(len(s)))
	w.buf = append(w.buf, s...)
}

func (w *MessageWriter) WriteBytes(b []byte) {
	w.buf = append(w.buf, b...)
}

// Bytes returns the accumulated packet contents.
func (w *MessageWriter) Bytes() []byte { return w.buf }

func (w *MessageWriter) Len() int { return len(w.buf) }
