package packet

import (
	"encoding/binary"

	"golang.org/x/text/encoding/charmap"
)

// Writer builds a packet frame. All multi-byte writes are big-endian.
// Dynamic frames reserve two bytes after the opcode that Bytes() patches with
// the final length; fixed frames are zero-padded to their declared length.
type Writer struct {
	buf     []byte
	dynamic bool
	fixed   int
}

// NewWriter starts a fixed-length frame. length is the whole frame size
// including the opcode byte.
func NewWriter(opcode byte, length int) *Writer {
	w := &Writer{buf: make([]byte, 0, length), fixed: length}
	w.U8(opcode)
	return w
}

// NewDynamicWriter starts a length-prefixed frame.
func NewDynamicWriter(opcode byte) *Writer {
	w := &Writer{buf: make([]byte, 0, 64), dynamic: true}
	w.U8(opcode)
	w.U16(0)
	return w
}

// U8 writes 1 byte.
func (w *Writer) U8(v byte) {
	w.buf = append(w.buf, v)
}

// I8 writes 1 signed byte.
func (w *Writer) I8(v int8) {
	w.buf = append(w.buf, byte(v))
}

// U16 writes 2 bytes big-endian.
func (w *Writer) U16(v uint16) {
	w.buf = binary.BigEndian.AppendUint16(w.buf, v)
}

// I16 writes 2 bytes big-endian, signed.
func (w *Writer) I16(v int16) {
	w.U16(uint16(v))
}

// U32 writes 4 bytes big-endian.
func (w *Writer) U32(v uint32) {
	w.buf = binary.BigEndian.AppendUint32(w.buf, v)
}

// Zero writes n zero bytes.
func (w *Writer) Zero(n int) {
	for i := 0; i < n; i++ {
		w.buf = append(w.buf, 0)
	}
}

// Raw writes bytes verbatim.
func (w *Writer) Raw(b []byte) {
	w.buf = append(w.buf, b...)
}

// FixedASCII writes s as cp1252, truncated or null-padded to exactly n bytes.
func (w *Writer) FixedASCII(s string, n int) {
	enc, err := charmap.Windows1252.NewEncoder().Bytes([]byte(s))
	if err != nil {
		enc = []byte(s)
	}
	if len(enc) > n {
		enc = enc[:n]
	}
	w.buf = append(w.buf, enc...)
	w.Zero(n - len(enc))
}

// ASCIIZ writes s as cp1252 followed by a null terminator.
func (w *Writer) ASCIIZ(s string) {
	enc, err := charmap.Windows1252.NewEncoder().Bytes([]byte(s))
	if err != nil {
		enc = []byte(s)
	}
	w.buf = append(w.buf, enc...)
	w.U8(0)
}

// UnicodeZ writes s as UTF-16BE followed by a null code unit.
func (w *Writer) UnicodeZ(s string) {
	enc, err := utf16BE.NewEncoder().Bytes([]byte(s))
	if err == nil {
		w.buf = append(w.buf, enc...)
	}
	w.U16(0)
}

// FixedUnicode writes s as UTF-16BE, truncated or null-padded to n code units.
func (w *Writer) FixedUnicode(s string, n int) {
	enc, err := utf16BE.NewEncoder().Bytes([]byte(s))
	if err != nil {
		enc = nil
	}
	if len(enc) > n*2 {
		enc = enc[:n*2]
	}
	w.buf = append(w.buf, enc...)
	w.Zero(n*2 - len(enc))
}

// Len returns the current length including the header.
func (w *Writer) Len() int {
	return len(w.buf)
}

// Bytes finalizes the frame: dynamic frames get their length patched in,
// fixed frames are padded (or cut) to the declared length.
func (w *Writer) Bytes() []byte {
	if w.dynamic {
		binary.BigEndian.PutUint16(w.buf[1:3], uint16(len(w.buf)))
		return w.buf
	}
	if w.fixed > 0 {
		if len(w.buf) < w.fixed {
			w.Zero(w.fixed - len(w.buf))
		}
		return w.buf[:w.fixed]
	}
	return w.buf
}
