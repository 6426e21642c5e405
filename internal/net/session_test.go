package net

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/uogo/client/internal/net/packet"
)

// pipeDialer hands out in-memory connections; the server ends are delivered
// on servers in dial order.
type pipeDialer struct {
	servers chan net.Conn
	err     error
}

func newPipeDialer() *pipeDialer {
	return &pipeDialer{servers: make(chan net.Conn, 4)}
}

func (d *pipeDialer) DialContext(ctx context.Context, addr string) (net.Conn, error) {
	if d.err != nil {
		return nil, d.err
	}
	client, server := net.Pipe()
	d.servers <- server
	return client, nil
}

func (d *pipeDialer) next(t *testing.T) net.Conn {
	t.Helper()
	select {
	case c := <-d.servers:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("no dial")
		return nil
	}
}

func readN(conn net.Conn, n int) ([]byte, error) {
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, n)
	_, err := io.ReadFull(conn, buf)
	return buf, err
}

func pumpUntil(t *testing.T, s *Session, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		s.Pump(0)
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("condition not met, session %s", s.State())
}

// loginRegistry wires the minimal login flow: pick the first shard, follow
// the relay, pick the first character, enter the world.
func loginRegistry() *packet.Registry {
	reg := packet.NewRegistry(0, zap.NewNop())
	reg.Register(packet.S_OPCODE_SERVER_LIST, []packet.SessionState{packet.StateLoginHandshake},
		func() packet.Packet { return &packet.ServerList{} },
		func(sess any, p packet.Packet) {
			s := sess.(*Session)
			s.SetState(packet.StateAuthenticated)
			_ = s.Send(&packet.SelectServer{Index: p.(*packet.ServerList).Shards[0].Index})
		})
	reg.Register(packet.S_OPCODE_RELAY, []packet.SessionState{packet.StateAuthenticated},
		func() packet.Packet { return &packet.Relay{} },
		func(sess any, p packet.Packet) {
			r := p.(*packet.Relay)
			sess.(*Session).Relay(fmt.Sprintf("%d.%d.%d.%d:%d", r.Address[0], r.Address[1], r.Address[2], r.Address[3], r.Port), r.Key)
		})
	reg.Register(packet.S_OPCODE_CHARACTER_LIST, []packet.SessionState{packet.StateAuthenticated},
		func() packet.Packet { return &packet.CharacterList{} },
		func(sess any, p packet.Packet) {
			_ = sess.(*Session).Send(&packet.CharacterSelect{Name: p.(*packet.CharacterList).Characters[0]})
		})
	reg.Register(packet.S_OPCODE_LOGIN_COMPLETE, []packet.SessionState{packet.StateAuthenticated},
		func() packet.Packet { return &packet.LoginComplete{} },
		func(sess any, _ packet.Packet) { sess.(*Session).SetState(packet.StateInWorld) })
	return reg
}

func TestSessionLoginThroughRelay(t *testing.T) {
	dialer := newPipeDialer()
	sess := NewSession(loginRegistry(), dialer, Options{Version: [4]uint32{7, 0, 15, 1}}, zap.NewNop())
	require.NoError(t, sess.Connect(context.Background(), "127.0.0.1", 2593, "avatar", "virtue"))
	assert.Equal(t, packet.StateConnecting, sess.State())

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- func() error {
			login := dialer.next(t)
			defer login.Close()
			seed, err := readN(login, 21)
			if err != nil {
				return err
			}
			if seed[0] != packet.C_OPCODE_LOGIN_SEED || binary.BigEndian.Uint32(seed[5:9]) != 7 {
				return fmt.Errorf("bad seed packet % X", seed)
			}
			acct, err := readN(login, 62)
			if err != nil {
				return err
			}
			if acct[0] != packet.C_OPCODE_ACCOUNT_LOGIN || !strings.HasPrefix(string(acct[1:31]), "avatar") {
				return fmt.Errorf("bad account login % X", acct)
			}
			list := &packet.ServerList{Shards: []packet.ShardEntry{{Index: 3, Name: "Test"}}}
			if _, err := login.Write(list.Encode()); err != nil {
				return err
			}
			sel, err := readN(login, 3)
			if err != nil {
				return err
			}
			if sel[0] != packet.C_OPCODE_SELECT_SERVER || sel[2] != 3 {
				return fmt.Errorf("bad select % X", sel)
			}
			relay := &packet.Relay{Address: [4]byte{127, 0, 0, 1}, Port: 2594, Key: 0xC0FFEE}
			if _, err := login.Write(relay.Encode()); err != nil {
				return err
			}

			game := dialer.next(t)
			defer game.Close()
			key, err := readN(game, 4)
			if err != nil {
				return err
			}
			if binary.BigEndian.Uint32(key) != 0xC0FFEE {
				return fmt.Errorf("bad relay key % X", key)
			}
			gl, err := readN(game, 65)
			if err != nil {
				return err
			}
			if gl[0] != packet.C_OPCODE_GAME_LOGIN {
				return fmt.Errorf("bad game login % X", gl[:5])
			}
			if _, err := game.Write((&packet.CharacterList{Characters: []string{"Avatar"}}).Encode()); err != nil {
				return err
			}
			cs, err := readN(game, 73)
			if err != nil {
				return err
			}
			if cs[0] != packet.C_OPCODE_CHARACTER_SELECT {
				return fmt.Errorf("bad character select % X", cs[:5])
			}
			_, err = game.Write((&packet.LoginComplete{}).Encode())
			if err != nil {
				return err
			}
			// hold the connection until the client is done
			_, _ = readN(game, 1)
			return nil
		}()
	}()

	pumpUntil(t, sess, func() bool { return sess.State() == packet.StateInWorld })
	sess.Disconnect("test done")
	require.NoError(t, <-serverErr)
}

func TestSessionEncryptsAfterSeed(t *testing.T) {
	dialer := newPipeDialer()
	sess := NewSession(loginRegistry(), dialer, Options{Encryption: EncryptionXOR}, zap.NewNop())
	require.NoError(t, sess.Connect(context.Background(), "localhost", 2593, "avatar", "virtue"))

	got := make(chan []byte, 1)
	go func() {
		login := dialer.next(t)
		defer login.Close()
		seed, err := readN(login, 21)
		if err != nil {
			got <- nil
			return
		}
		wire, err := readN(login, 62)
		if err != nil {
			got <- nil
			return
		}
		plain := make([]byte, len(wire))
		NewLoginCipher(binary.BigEndian.Uint32(seed[1:5])).XORKeyStream(plain, wire)
		got <- plain
	}()

	pumpUntil(t, sess, func() bool { return sess.State() == packet.StateLoginHandshake })
	plain := <-got
	require.NotNil(t, plain)
	assert.Equal(t, packet.C_OPCODE_ACCOUNT_LOGIN, plain[0])
	assert.Equal(t, "avatar", strings.TrimRight(string(plain[1:31]), "\x00"))
	sess.Disconnect("test done")
}

func TestSessionServerCloseDisconnects(t *testing.T) {
	dialer := newPipeDialer()
	sess := NewSession(loginRegistry(), dialer, Options{}, zap.NewNop())
	var reasons []string
	sess.OnDisconnect(func(reason string) { reasons = append(reasons, reason) })
	require.NoError(t, sess.Connect(context.Background(), "localhost", 2593, "a", "b"))

	go func() {
		login := dialer.next(t)
		_, _ = readN(login, 21+62)
		login.Close()
	}()

	pumpUntil(t, sess, func() bool { return len(reasons) > 0 })
	assert.Equal(t, packet.StateDisconnected, sess.State())
	assert.Contains(t, reasons[0], "connection lost")
	assert.ErrorIs(t, sess.Send(&packet.Ping{}), ErrNotConnected)

	// a second disconnect is a no-op
	sess.Disconnect("again")
	assert.Len(t, reasons, 1)
}

func TestSessionDialFailure(t *testing.T) {
	dialer := newPipeDialer()
	dialer.err = errors.New("refused")
	sess := NewSession(loginRegistry(), dialer, Options{}, zap.NewNop())
	var reason string
	sess.OnDisconnect(func(r string) { reason = r })

	require.NoError(t, sess.Connect(context.Background(), "localhost", 2593, "a", "b"))
	pumpUntil(t, sess, func() bool { return reason != "" })
	assert.Contains(t, reason, "refused")
	assert.Equal(t, packet.StateDisconnected, sess.State())
}

func TestSessionConnectTwiceFails(t *testing.T) {
	sess := NewSession(loginRegistry(), newPipeDialer(), Options{}, zap.NewNop())
	require.NoError(t, sess.Connect(context.Background(), "localhost", 1, "a", "b"))
	assert.Error(t, sess.Connect(context.Background(), "localhost", 1, "a", "b"))
	sess.Disconnect("test done")
}

func TestSessionDisconnectDropsPendingDial(t *testing.T) {
	dialer := newPipeDialer()
	sess := NewSession(loginRegistry(), dialer, Options{}, zap.NewNop())
	require.NoError(t, sess.Connect(context.Background(), "localhost", 2593, "a", "b"))
	sess.Disconnect("user cancelled")

	server := dialer.next(t)
	defer server.Close()
	time.Sleep(10 * time.Millisecond)
	sess.Pump(0)
	assert.Equal(t, packet.StateDisconnected, sess.State())
	assert.ErrorIs(t, sess.Send(&packet.Ping{}), ErrNotConnected)
}
