package packet

import (
	"encoding/binary"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ErrUnknownOpcode is returned by Decode for opcodes without a registered
// packet type. The frame itself is still well delimited and can be skipped.
var ErrUnknownOpcode = errors.New("unknown opcode")

// SessionState represents the session's current protocol phase.
type SessionState int

const (
	StateDisconnected SessionState = iota
	StateConnecting
	StateLoginHandshake // seed + account sent, awaiting server list
	StateAuthenticated  // shard/character selection, including the relay hop
	StateInWorld
)

func (s SessionState) String() string {
	switch s {
	case StateDisconnected:
		return "Disconnected"
	case StateConnecting:
		return "Connecting"
	case StateLoginHandshake:
		return "LoginHandshake"
	case StateAuthenticated:
		return "Authenticated"
	case StateInWorld:
		return "InWorld"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// Packet is a decoded server frame. Read consumes the fields after the
// header (and after the sub-opcode for extended packets) and returns false
// if any field ran past the frame.
type Packet interface {
	Opcode() byte
	Read(r *Reader) bool
}

// Extended is implemented by 0xBF sub-packets.
type Extended interface {
	Packet
	SubOpcode() uint16
}

// Encoder is implemented by packets that can be serialized to a frame.
type Encoder interface {
	Encode() []byte
}

// Factory produces an empty packet of the registered concrete type.
type Factory func() Packet

// HandlerFunc is the receive callback for a decoded packet.
// The session pointer is passed as an opaque interface to avoid import cycles.
type HandlerFunc func(sess any, p Packet)

type handlerEntry struct {
	factory       Factory
	fn            HandlerFunc
	allowedStates map[SessionState]bool
}

// Registry maps opcodes to packet factories and receive handlers with
// state-based access control. It also owns the frame length table used by
// the framer.
type Registry struct {
	lengths       [256]int
	defaultLength int
	handlers      [256]*handlerEntry
	extended      map[uint16]*handlerEntry
	log           *zap.Logger
}

// NewRegistry creates a registry. defaultLength is the frame size assumed for
// opcodes missing from the length table; 0 treats them as length-prefixed.
func NewRegistry(defaultLength int, log *zap.Logger) *Registry {
	return &Registry{
		lengths:       serverLengths,
		defaultLength: defaultLength,
		extended:      make(map[uint16]*handlerEntry),
		log:           log,
	}
}

// Register maps an opcode to a packet factory and handler, restricted to the
// given session states. Registering the same opcode twice panics.
func (reg *Registry) Register(opcode byte, states []SessionState, factory Factory, fn HandlerFunc) {
	if opcode == OPCODE_EXTENDED {
		panic("packet: register 0xBF sub-packets with RegisterExtended")
	}
	if reg.handlers[opcode] != nil {
		panic(fmt.Sprintf("packet: opcode 0x%02X registered twice", opcode))
	}
	reg.handlers[opcode] = newEntry(states, factory, fn)
}

// RegisterExtended maps a 0xBF sub-opcode to a packet factory and handler.
func (reg *Registry) RegisterExtended(sub uint16, states []SessionState, factory Factory, fn HandlerFunc) {
	if reg.extended[sub] != nil {
		panic(fmt.Sprintf("packet: extended sub-opcode 0x%04X registered twice", sub))
	}
	reg.extended[sub] = newEntry(states, factory, fn)
}

func newEntry(states []SessionState, factory Factory, fn HandlerFunc) *handlerEntry {
	allowed := make(map[SessionState]bool, len(states))
	for _, s := range states {
		allowed[s] = true
	}
	return &handlerEntry{factory: factory, fn: fn, allowedStates: allowed}
}

// FrameLength returns the declared frame size for an opcode. dynamic means
// the size follows the opcode as a big-endian u16.
func (reg *Registry) FrameLength(opcode byte) (n int, dynamic bool) {
	n = reg.lengths[opcode]
	if n == lengthUnknown {
		n = reg.defaultLength
	}
	return n, n == lengthDynamic
}

// Decode parses one frame into its packet type. A frame shorter than its
// declared length, or any field underrun, yields an ErrTruncated error and
// no packet; the caller has already advanced past the declared length.
func (reg *Registry) Decode(frame []byte) (Packet, error) {
	if len(frame) == 0 {
		return nil, fmt.Errorf("empty frame: %w", ErrTruncated)
	}
	opcode := frame[0]
	declared, dynamic := reg.FrameLength(opcode)
	if dynamic {
		if len(frame) < 3 {
			return nil, fmt.Errorf("decode 0x%02X: %w: missing length prefix", opcode, ErrTruncated)
		}
		declared = int(binary.BigEndian.Uint16(frame[1:3]))
	}
	clamped := frame
	if len(clamped) > declared {
		clamped = clamped[:declared]
	}

	r := NewReader(clamped, dynamic)
	var entry *handlerEntry
	if opcode == OPCODE_EXTENDED {
		sub := r.U16()
		if !r.OK() {
			return nil, fmt.Errorf("decode 0xBF: %w", r.Err())
		}
		entry = reg.extended[sub]
		if entry == nil {
			return nil, fmt.Errorf("0xBF/0x%04X: %w", sub, ErrUnknownOpcode)
		}
	} else {
		entry = reg.handlers[opcode]
		if entry == nil {
			return nil, fmt.Errorf("0x%02X: %w", opcode, ErrUnknownOpcode)
		}
	}

	p := entry.factory()
	if !p.Read(r) {
		return nil, fmt.Errorf("decode 0x%02X: %w", opcode, r.Err())
	}
	if len(frame) < declared {
		return nil, fmt.Errorf("decode 0x%02X: %w: have %d of %d bytes", opcode, ErrTruncated, len(frame), declared)
	}
	return p, nil
}

// Dispatch validates the session state and calls the packet's handler.
// Returns an error if the state is not allowed or the handler panicked.
func (reg *Registry) Dispatch(sess any, state SessionState, p Packet) error {
	var entry *handlerEntry
	name := fmt.Sprintf("0x%02X", p.Opcode())
	if ext, ok := p.(Extended); ok {
		entry = reg.extended[ext.SubOpcode()]
		name = fmt.Sprintf("0xBF/0x%04X", ext.SubOpcode())
	} else {
		entry = reg.handlers[p.Opcode()]
	}
	if entry == nil {
		return fmt.Errorf("%s: %w", name, ErrUnknownOpcode)
	}

	reg.log.Debug("dispatch",
		zap.String("opcode", name),
		zap.String("state", state.String()),
	)

	if !entry.allowedStates[state] {
		reg.log.Warn("opcode not allowed in this state",
			zap.String("opcode", name),
			zap.String("state", state.String()),
		)
		return fmt.Errorf("opcode %s not allowed in state %s", name, state)
	}
	return reg.safeCall(entry.fn, sess, p, name)
}

// safeCall executes a handler with panic recovery so one bad packet cannot
// take down the tick loop.
func (reg *Registry) safeCall(fn HandlerFunc, sess any, p Packet, name string) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			reg.log.Error("handler panic recovered",
				zap.String("opcode", name),
				zap.Any("panic", rec),
			)
			err = fmt.Errorf("handler panic for opcode %s: %v", name, rec)
		}
	}()
	fn(sess, p)
	return nil
}
