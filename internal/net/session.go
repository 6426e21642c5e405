package net

import (
	"context"
	"crypto/cipher"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/uogo/client/internal/net/packet"
	"go.uber.org/zap"
)

// ErrNotConnected is returned by Send while no connection is up.
var ErrNotConnected = errors.New("not connected")

// Options tune a Session.
type Options struct {
	InQueueSize  int
	OutQueueSize int
	WriteTimeout time.Duration
	Encryption   string    // none | xor | twofish
	Version      [4]uint32 // major, minor, revision, prototype
	Recorder     Recorder  // optional packet capture
}

// Session is the client's connection to the login server and, after the
// relay, to the game server. Network I/O runs in per-connection goroutines;
// everything else (Pump, Send, Disconnect, handler callbacks) belongs to the
// game loop goroutine.
type Session struct {
	reg    *packet.Registry
	dialer Dialer
	opts   Options
	log    *zap.Logger

	state atomic.Int32 // packet.SessionState stored as int32

	ctx        context.Context
	gen        uint64 // bumps on every dial and disconnect; stale dials are dropped
	cancelDial context.CancelFunc
	dialed     chan dialResult
	link       *link

	AccountName string
	password    string

	onDisconnect []func(reason string)
}

type dialResult struct {
	gen   uint64
	conn  net.Conn
	err   error
	relay bool
	key   uint32
}

type inbound struct {
	pkt packet.Packet
	err error
}

func NewSession(reg *packet.Registry, dialer Dialer, opts Options, log *zap.Logger) *Session {
	if opts.InQueueSize <= 0 {
		opts.InQueueSize = 256
	}
	if opts.OutQueueSize <= 0 {
		opts.OutQueueSize = 256
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 10 * time.Second
	}
	s := &Session{
		reg:    reg,
		dialer: dialer,
		opts:   opts,
		log:    log,
		ctx:    context.Background(),
		dialed: make(chan dialResult, 8),
	}
	s.state.Store(int32(packet.StateDisconnected))
	return s
}

func (s *Session) State() packet.SessionState {
	return packet.SessionState(s.state.Load())
}

func (s *Session) SetState(st packet.SessionState) {
	old := packet.SessionState(s.state.Swap(int32(st)))
	if old != st {
		s.log.Debug("session state", zap.Stringer("from", old), zap.Stringer("to", st))
	}
}

func (s *Session) Account() string { return s.AccountName }

// Password returns the account password for the game login on the relayed
// connection.
func (s *Session) Password() string { return s.password }

// OnDisconnect registers a callback run synchronously by Disconnect, after
// the connection is torn down and the state is Disconnected.
func (s *Session) OnDisconnect(fn func(reason string)) {
	s.onDisconnect = append(s.onDisconnect, fn)
}

// Connect starts dialing the login server. It returns immediately; the
// outcome shows up through Pump as a state change or a disconnect.
func (s *Session) Connect(ctx context.Context, host string, port int, account, password string) error {
	if st := s.State(); st != packet.StateDisconnected {
		return fmt.Errorf("connect: session is %s", st)
	}
	s.ctx = ctx
	s.AccountName = account
	s.password = password
	s.SetState(packet.StateConnecting)
	s.dial(net.JoinHostPort(host, fmt.Sprint(port)), false, 0)
	return nil
}

// Relay drops the login connection and dials the game server. The session
// stays Authenticated; the relay key opens the new connection.
func (s *Session) Relay(addr string, key uint32) {
	if s.link != nil {
		s.link.close()
		s.link = nil
	}
	s.log.Info("relaying to game server", zap.String("addr", addr))
	s.dial(addr, true, key)
}

func (s *Session) dial(addr string, relay bool, key uint32) {
	s.gen++
	gen := s.gen
	if s.cancelDial != nil {
		s.cancelDial()
	}
	ctx, cancel := context.WithCancel(s.ctx)
	s.cancelDial = cancel
	go func() {
		conn, err := s.dialer.DialContext(ctx, addr)
		s.dialed <- dialResult{gen: gen, conn: conn, err: err, relay: relay, key: key}
	}()
}

// Pump completes pending dials and dispatches up to max decoded packets
// (max <= 0 means all that are ready). It never blocks. Returns the number of
// packets dispatched.
func (s *Session) Pump(max int) int {
	s.drainDials()

	n := 0
	for s.link != nil && (max <= 0 || n < max) {
		l := s.link
		select {
		case in := <-l.in:
			if in.err != nil {
				s.fail(in.err)
				return n
			}
			n++
			if err := s.reg.Dispatch(s, s.State(), in.pkt); err != nil {
				s.log.Debug("packet ignored", zap.Error(err))
			}
		default:
			return n
		}
	}
	return n
}

func (s *Session) drainDials() {
	for {
		select {
		case res := <-s.dialed:
			s.onDialed(res)
		default:
			return
		}
	}
}

func (s *Session) onDialed(res dialResult) {
	if res.gen != s.gen {
		if res.conn != nil {
			res.conn.Close()
		}
		return
	}
	s.cancelDial = nil
	if res.err != nil {
		s.fail(fmt.Errorf("connect: %w", res.err))
		return
	}

	var (
		preamble []byte
		seed     uint32
		first    packet.Encoder
	)
	if res.relay {
		seed = res.key
		preamble = binary.BigEndian.AppendUint32(nil, res.key)
		first = &packet.GameLogin{Key: res.key, Name: s.AccountName, Password: s.password}
	} else {
		seed = rand.Uint32()
		v := s.opts.Version
		preamble = (&packet.LoginSeed{Seed: seed, Major: v[0], Minor: v[1], Revision: v[2], Prototype: v[3]}).Encode()
		first = &packet.AccountLogin{Name: s.AccountName, Password: s.password, NextKey: 0x5D}
	}

	tx, err := NewTransform(s.opts.Encryption, seed)
	if err != nil {
		res.conn.Close()
		s.fail(err)
		return
	}

	s.link = newLink(res.conn, s.reg, preamble, tx, s.opts, s.log)
	s.link.start()
	if !res.relay {
		s.SetState(packet.StateLoginHandshake)
	}
	s.log.Info("connected", zap.String("remote", res.conn.RemoteAddr().String()), zap.Bool("relay", res.relay))
	_ = s.Send(first)
}

// Send encodes a packet onto the send queue. A full queue means the server
// stopped reading; the session is dropped rather than blocking the game loop.
func (s *Session) Send(p packet.Encoder) error {
	if s.link == nil {
		return ErrNotConnected
	}
	if !s.link.enqueue(p.Encode()) {
		err := errors.New("send queue full")
		s.fail(err)
		return err
	}
	return nil
}

// Disconnect tears down the connection, cancels any pending dial and runs
// the disconnect callbacks. Safe to call in any state, including from inside
// a packet handler.
func (s *Session) Disconnect(reason string) {
	if s.link == nil && s.State() == packet.StateDisconnected {
		return
	}
	s.gen++
	if s.cancelDial != nil {
		s.cancelDial()
		s.cancelDial = nil
	}
	if s.link != nil {
		s.link.close()
		s.link = nil
	}
	s.SetState(packet.StateDisconnected)
	s.log.Info("disconnected", zap.String("reason", reason))
	for _, fn := range s.onDisconnect {
		fn(reason)
	}
}

func (s *Session) fail(err error) {
	s.log.Warn("session error", zap.Error(err))
	s.Disconnect(err.Error())
}

// link is one TCP (or websocket) connection with its reader and writer
// goroutines.
type link struct {
	conn     net.Conn
	reg      *packet.Registry
	preamble []byte
	tx       cipher.Stream
	rec      Recorder
	timeout  time.Duration

	in  chan inbound
	out chan []byte

	closeCh   chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool

	log *zap.Logger
}

func newLink(conn net.Conn, reg *packet.Registry, preamble []byte, tx cipher.Stream, opts Options, log *zap.Logger) *link {
	return &link{
		conn:     conn,
		reg:      reg,
		preamble: preamble,
		tx:       tx,
		rec:      opts.Recorder,
		timeout:  opts.WriteTimeout,
		in:       make(chan inbound, opts.InQueueSize),
		out:      make(chan []byte, opts.OutQueueSize),
		closeCh:  make(chan struct{}),
		log:      log.With(zap.String("remote", conn.RemoteAddr().String())),
	}
}

func (l *link) start() {
	go l.readLoop()
	go l.writeLoop()
}

func (l *link) enqueue(frame []byte) bool {
	if l.closed.Load() {
		return false
	}
	select {
	case l.out <- frame:
		return true
	default:
		return false
	}
}

func (l *link) close() {
	l.closeOnce.Do(func() {
		l.closed.Store(true)
		close(l.closeCh)
		l.conn.Close()
	})
}

// readLoop frames and decodes the inbound stream and hands packets to the
// game loop. Malformed or unknown packets are dropped here; only a broken
// stream ends the loop.
func (l *link) readLoop() {
	sc := NewFrameScanner(l.conn, l.reg)
	for sc.Scan() {
		frame := sc.Bytes()
		if l.rec != nil {
			l.rec.Record(DirIn, frame)
		}
		pkt, err := l.reg.Decode(frame)
		if err != nil {
			if errors.Is(err, packet.ErrUnknownOpcode) {
				l.log.Debug("unknown packet skipped", zap.Error(err), zap.Int("len", len(frame)))
			} else {
				l.log.Warn("malformed packet dropped", zap.Error(err))
			}
			continue
		}
		// Block until the game loop catches up: dropping packets would
		// desynchronize the world state.
		select {
		case l.in <- inbound{pkt: pkt}:
		case <-l.closeCh:
			return
		}
	}

	if l.closed.Load() {
		return
	}
	err := sc.Err()
	if err == nil {
		err = io.EOF
	}
	select {
	case l.in <- inbound{err: fmt.Errorf("connection lost: %w", err)}:
	case <-l.closeCh:
	}
}

// writeLoop writes the plaintext preamble, then encrypts and writes queued
// frames. On a write error it closes the socket, which surfaces through the
// reader as a lost connection.
func (l *link) writeLoop() {
	if len(l.preamble) > 0 {
		if !l.write(l.preamble) {
			return
		}
	}
	for {
		select {
		case data := <-l.out:
			if l.rec != nil {
				l.rec.Record(DirOut, data)
			}
			if l.tx != nil {
				enc := make([]byte, len(data))
				l.tx.XORKeyStream(enc, data)
				data = enc
			}
			if !l.write(data) {
				return
			}
		case <-l.closeCh:
			return
		}
	}
}

func (l *link) write(data []byte) bool {
	l.log.Debug("TX",
		zap.String("op", fmt.Sprintf("0x%02X", data[0])),
		zap.Int("len", len(data)),
	)
	l.conn.SetWriteDeadline(time.Now().Add(l.timeout))
	if _, err := l.conn.Write(data); err != nil {
		if !l.closed.Load() {
			l.log.Debug("write error", zap.Error(err))
			l.conn.Close()
		}
		return false
	}
	return true
}
