package packet

import (
	"encoding/binary"
	"errors"
	"fmt"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// ErrTruncated is reported when a field read runs past the frame boundary.
var ErrTruncated = errors.New("packet truncated")

// Reader reads big-endian packet fields from one clamped frame.
// The first failed read latches; every later read is a no-op returning the
// zero value, so a packet's Read can simply return r.OK() at the end.
type Reader struct {
	data []byte
	off  int
	err  error
}

// NewReader wraps a complete frame. The cursor starts after the header
// (opcode, plus the length prefix for dynamic frames).
func NewReader(frame []byte, dynamic bool) *Reader {
	r := &Reader{data: frame, off: 1}
	if dynamic {
		r.off = 3
	}
	if r.off > len(frame) {
		r.fail(r.off - len(frame))
	}
	return r
}

// NewPayloadReader wraps raw payload bytes with the cursor at zero.
func NewPayloadReader(payload []byte) *Reader {
	return &Reader{data: payload}
}

func (r *Reader) Opcode() byte {
	if len(r.data) == 0 {
		return 0
	}
	return r.data[0]
}

// OK reports whether every read so far stayed inside the frame.
func (r *Reader) OK() bool { return r.err == nil }

// Err returns the latched underrun error, if any.
func (r *Reader) Err() error { return r.err }

// Offset returns the cursor position within the frame.
func (r *Reader) Offset() int { return r.off }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	if r.off >= len(r.data) {
		return 0
	}
	return len(r.data) - r.off
}

func (r *Reader) fail(need int) {
	if r.err == nil {
		r.err = fmt.Errorf("%w: offset %d needs %d more bytes (frame %d)", ErrTruncated, r.off, need, len(r.data))
	}
}

// take returns the next n bytes or nil after latching a failure.
func (r *Reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.off+n > len(r.data) {
		r.fail(r.off + n - len(r.data))
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

// U8 reads 1 unsigned byte.
func (r *Reader) U8() byte {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

// I8 reads 1 signed byte (z coordinates).
func (r *Reader) I8() int8 {
	return int8(r.U8())
}

// U16 reads 2 bytes big-endian.
func (r *Reader) U16() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint16(b)
}

// I16 reads 2 bytes big-endian, signed.
func (r *Reader) I16() int16 {
	return int16(r.U16())
}

// U32 reads 4 bytes big-endian. Serials are read with this.
func (r *Reader) U32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint32(b)
}

// Skip advances the cursor by n bytes.
func (r *Reader) Skip(n int) bool {
	r.take(n)
	return r.err == nil
}

// Bytes reads n raw bytes into a fresh slice.
func (r *Reader) Bytes(n int) []byte {
	b := r.take(n)
	if b == nil {
		return nil
	}
	out := make([]byte, n)
	copy(out, b)
	return out
}

// FixedASCII reads an n-byte, null-padded cp1252 string.
func (r *Reader) FixedASCII(n int) string {
	b := r.take(n)
	if b == nil {
		return ""
	}
	for i, c := range b {
		if c == 0 {
			b = b[:i]
			break
		}
	}
	return decodeCP1252(b)
}

// ASCIIZ reads a null-terminated cp1252 string. A missing terminator at the
// end of the frame is tolerated.
func (r *Reader) ASCIIZ() string {
	if r.err != nil {
		return ""
	}
	start := r.off
	for r.off < len(r.data) {
		if r.data[r.off] == 0 {
			s := decodeCP1252(r.data[start:r.off])
			r.off++
			return s
		}
		r.off++
	}
	return decodeCP1252(r.data[start:r.off])
}

// FixedUnicode reads n UTF-16BE code units, stopping at the first null.
func (r *Reader) FixedUnicode(n int) string {
	b := r.take(n * 2)
	if b == nil {
		return ""
	}
	return decodeUTF16BE(b)
}

// UnicodeZ reads UTF-16BE code units up to a null unit or the frame end.
func (r *Reader) UnicodeZ() string {
	if r.err != nil {
		return ""
	}
	start := r.off
	for r.off+2 <= len(r.data) {
		if r.data[r.off] == 0 && r.data[r.off+1] == 0 {
			s := decodeUTF16BE(r.data[start:r.off])
			r.off += 2
			return s
		}
		r.off += 2
	}
	s := decodeUTF16BE(r.data[start:r.off])
	r.off = len(r.data)
	return s
}

// PString reads a u16 length-prefixed cp1252 string.
func (r *Reader) PString() string {
	n := int(r.U16())
	return r.FixedASCII(n)
}

func decodeCP1252(raw []byte) string {
	ascii := true
	for _, c := range raw {
		if c >= 0x80 {
			ascii = false
			break
		}
	}
	if ascii {
		return string(raw)
	}
	out, err := charmap.Windows1252.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return string(out)
}

var utf16BE = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)

func decodeUTF16BE(raw []byte) string {
	end := len(raw) &^ 1
	for i := 0; i+1 < end; i += 2 {
		if raw[i] == 0 && raw[i+1] == 0 {
			end = i
			break
		}
	}
	out, err := utf16BE.NewDecoder().Bytes(raw[:end])
	if err != nil {
		return ""
	}
	return string(out)
}
