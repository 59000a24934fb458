package proto

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrTruncated is returned by all MessageReader methods when a read would
// run past the end of the message. Client input is untrusted so this is
// an expected condition, not a bug.
var ErrTruncated = errors.New("message truncated")

// MessageReader is a positional cursor over one length-framed message.
// Nested messages produced by ReadMessage share the underlying buffer but
// are bounded by their own declared length, so a malformed inner payload
// can never desynchronize the outer cursor.
type MessageReader struct {
	// Tag identifies the message type. Zero for the root reader.
	Tag byte

	data []byte
	pos  int
}

// NewMessageReader wraps raw bytes in an untagged root reader.
func NewMessageReader(data []byte) *MessageReader {
	return &MessageReader{data: data}
}

func (r *MessageReader) Position() int  { return r.pos }
func (r *MessageReader) Length() int    { return len(r.data) }
func (r *MessageReader) Remaining() int { return len(r.data) - r.pos }

// Bytes returns the full contents of the message regardless of cursor
// position. Used to copy an inbound message verbatim into an outbound one.
func (r *MessageReader) Bytes() []byte { return r.data }

func (r *MessageReader) ReadByte() (byte, error) {
	if r.pos+1 > len(r.data) {
		return 0, ErrTruncated
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

func (r *MessageReader) ReadBool() (bool, error) {
	b, err := r.ReadByte()
	return b != 0, err
}

func (r *MessageReader) ReadUint16() (uint16, error) {
	if r.pos+2 > len(r.data) {
		return 0, ErrTruncated
	}
	v := binary.LittleEndian.Uint16(r.data[r.pos:])
	r.pos += 2
	return v, nil
}

func (r *MessageReader) ReadUint32() (uint32, error) {
	if r.pos+4 > len(r.data) {
		return 0, ErrTruncated
	}
	v := binary.LittleEndian.Uint32(r.data[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *MessageReader) ReadInt32() (int32, error) {
	v, err := r.ReadUint32()
	return int32(v), err
}

// ReadPackedUint32 reads a 7-bit variable length encoded integer. The high
// bit of each byte indicates whether another byte follows.
func (r *MessageReader) ReadPackedUint32() (uint32, error) {
	var value uint32
	var shift uint

	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		value |= uint32(b&0x7f) << shift
		if b&0x80 == 0 {
			return value, nil
		}

		shift += 7
		if shift >= 35 {
			return 0, fmt.Errorf("packed integer longer than 5 bytes")
		}
	}
}

func (r *MessageReader) ReadPackedInt32() (int32, error) {
	v, err := r.ReadPackedUint32()
	return int32(v), err
}

// ReadString reads a packed length followed by that many bytes of UTF-8.
func (r *MessageReader) ReadString() (string, error) {
	length, err := r.ReadPackedUint32()
	if err != nil {
		return "", err
	}
	b, err := r.ReadBytes(int(length))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *MessageReader) ReadBytes(n int) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.data) {
		return nil, ErrTruncated
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// ReadMessage consumes one nested length-framed message (uint16 length
// followed by a tag byte) and returns a reader bounded to its payload.
func (r *MessageReader) ReadMessage() (*MessageReader, error) {
	length, err := r.ReadUint16()
	if err != nil {
		return nil, err
	}
	tag, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	payload, err := r.ReadBytes(int(length))
	if err != nil {
		return nil, err
	}
	return &MessageReader{Tag: tag, data: payload}, nil
}
