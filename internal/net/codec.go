package net

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrDesync means the stream can no longer be split into frames: a dynamic
// frame declared a length shorter than its own header.
var ErrDesync = errors.New("stream desynchronized")

// maxFrame is the largest frame a u16 length prefix can describe.
const maxFrame = 0xFFFF

// FrameSizer reports the declared size of a frame by its opcode.
// packet.Registry implements it.
type FrameSizer interface {
	FrameLength(opcode byte) (n int, dynamic bool)
}

// FrameSplitter returns a bufio.SplitFunc that cuts the inbound stream into
// frames. Wire format: [opcode][payload] for fixed opcodes, or
// [opcode][2 bytes BE: total length including header][payload].
//
// At EOF an incomplete trailing frame is returned as-is so the decoder can
// report it as truncated.
func FrameSplitter(sizes FrameSizer) bufio.SplitFunc {
	return func(data []byte, atEOF bool) (int, []byte, error) {
		if len(data) == 0 {
			return 0, nil, nil
		}
		n, dynamic := sizes.FrameLength(data[0])
		if dynamic {
			if len(data) < 3 {
				if atEOF {
					return len(data), data, nil
				}
				return 0, nil, nil
			}
			n = int(binary.BigEndian.Uint16(data[1:3]))
			if n < 3 {
				return 0, nil, fmt.Errorf("opcode 0x%02X declares length %d: %w", data[0], n, ErrDesync)
			}
		}
		if len(data) < n {
			if atEOF {
				return len(data), data, nil
			}
			return 0, nil, nil
		}
		return n, data[:n], nil
	}
}

// NewFrameScanner wraps r in a scanner yielding one frame per Scan.
func NewFrameScanner(r io.Reader, sizes FrameSizer) *bufio.Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), maxFrame+1)
	sc.Split(FrameSplitter(sizes))
	return sc
}
