package client

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	gonet "net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/uogo/client/internal/config"
	"github.com/uogo/client/internal/core/event"
	"github.com/uogo/client/internal/net/packet"
	"github.com/uogo/client/internal/persist"
)

type pipeDialer struct {
	servers chan gonet.Conn
	err     error
}

func newPipeDialer() *pipeDialer {
	return &pipeDialer{servers: make(chan gonet.Conn, 4)}
}

func (d *pipeDialer) DialContext(ctx context.Context, addr string) (gonet.Conn, error) {
	if d.err != nil {
		return nil, d.err
	}
	client, server := gonet.Pipe()
	d.servers <- server
	return client, nil
}

func readFrame(conn gonet.Conn) ([]byte, error) {
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	head := make([]byte, 3)
	if _, err := io.ReadFull(conn, head); err != nil {
		return nil, err
	}
	n := int(binary.BigEndian.Uint16(head[1:3]))
	if n < 3 {
		return nil, errors.New("short frame")
	}
	frame := make([]byte, n)
	copy(frame, head)
	_, err := io.ReadFull(conn, frame[3:])
	return frame, err
}

func testConfig() *config.Config {
	cfg := config.Defaults()
	cfg.Account.Name = "avatar"
	cfg.Account.Password = "virtue"
	return cfg
}

func newClient(t *testing.T, opts Options) *Client {
	t.Helper()
	c, err := New(testConfig(), opts, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func tickUntil(t *testing.T, c *Client, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		c.Tick(10 * time.Millisecond)
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("condition not met, session %s", c.Session().State())
}

func sysLog(c *Client) []string {
	var out []string
	for _, e := range c.World().SystemLog().Entries() {
		out = append(out, e.Text)
	}
	return out
}

func TestSpeechAndPromptGoOut(t *testing.T) {
	dialer := newPipeDialer()
	c := newClient(t, Options{Dialer: dialer})
	require.NoError(t, c.Connect(context.Background()))

	frames := make(chan []byte, 2)
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- func() error {
			var login gonet.Conn
			select {
			case login = <-dialer.servers:
			case <-time.After(2 * time.Second):
				return errors.New("no dial")
			}
			defer login.Close()
			login.SetReadDeadline(time.Now().Add(2 * time.Second))
			if _, err := io.ReadFull(login, make([]byte, 21+62)); err != nil {
				return err
			}
			for i := 0; i < 2; i++ {
				f, err := readFrame(login)
				if err != nil {
					return err
				}
				frames <- f
			}
			return nil
		}()
	}()

	tickUntil(t, c, func() bool { return c.Session().State() == packet.StateLoginHandshake })

	c.Lines() <- "hello"
	c.Tick(10 * time.Millisecond)

	event.Emit(c.Events(), event.PromptRequested{PlayerSerial: 0x11, PromptSerial: 0x22})
	c.Tick(10 * time.Millisecond)
	require.True(t, c.PromptPending())
	c.Submit("my answer")
	assert.False(t, c.PromptPending())

	require.NoError(t, <-serverErr)
	speech := <-frames
	assert.Equal(t, packet.C_OPCODE_UNICODE_SPEECH, speech[0])
	r := packet.NewReader(speech, true)
	assert.Equal(t, packet.SpeechRegular, r.U8())
	assert.Equal(t, uint16(speechHue), r.U16())
	assert.Equal(t, uint16(speechFont), r.U16())
	r.U32()
	assert.Equal(t, "hello", r.UnicodeZ())

	prompt := <-frames
	assert.Equal(t, packet.C_OPCODE_PROMPT_RESPONSE, prompt[0])
	r = packet.NewReader(prompt, true)
	assert.Equal(t, uint32(0x11), r.U32())
	assert.Equal(t, uint32(0x22), r.U32())
	assert.Equal(t, uint32(1), r.U32())
	r.U32()
	assert.Equal(t, "my answer", r.UnicodeZ())
	assert.True(t, r.OK())
}

func TestDialFailureClearsWorld(t *testing.T) {
	dialer := newPipeDialer()
	dialer.err = errors.New("refused")
	c := newClient(t, Options{Dialer: dialer})

	var reasons []string
	event.Subscribe(c.Events(), func(e event.Disconnected) { reasons = append(reasons, e.Reason) })

	c.World().InitPlayer(0x01)
	require.NoError(t, c.Connect(context.Background()))
	tickUntil(t, c, func() bool { return len(reasons) > 0 })

	assert.Contains(t, reasons[0], "refused")
	_, ok := c.World().Player()
	assert.False(t, ok)
	logs := sysLog(c)
	require.NotEmpty(t, logs)
	assert.Contains(t, logs[len(logs)-1], "Disconnected: connect:")
}

type memProfiles struct {
	profile persist.Profile
	saved   []persist.Profile
}

func (m *memProfiles) Load(_ context.Context, account string) (persist.Profile, bool, error) {
	if account != m.profile.Account {
		return persist.Profile{}, false, nil
	}
	return m.profile, true, nil
}

func (m *memProfiles) Save(_ context.Context, p persist.Profile) error {
	m.saved = append(m.saved, p)
	return nil
}

func TestConnectFillsLoginFromProfile(t *testing.T) {
	profiles := &memProfiles{profile: persist.Profile{Account: "avatar", Shard: "Atlantic", Character: "Alia"}}
	cfg := testConfig()
	cfg.Account.Character = "Bob"
	c, err := New(cfg, Options{Dialer: newPipeDialer(), Profiles: profiles}, zap.NewNop())
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Connect(context.Background()))
	assert.Equal(t, "Atlantic", c.login.Shard)
	assert.Equal(t, "Bob", c.login.Character, "configured names win")
}

func TestConnectNeedsAccount(t *testing.T) {
	cfg := testConfig()
	cfg.Account.Name = ""
	c, err := New(cfg, Options{Dialer: newPipeDialer()}, zap.NewNop())
	require.NoError(t, err)
	defer c.Close()
	assert.Error(t, c.Connect(context.Background()))
}

func TestCommandsReachSystemLog(t *testing.T) {
	c := newClient(t, Options{Dialer: newPipeDialer()})
	c.Lines() <- "?weather"
	c.Lines() <- "?nosuch"
	c.Tick(10 * time.Millisecond)
	assert.Equal(t, []string{
		"Weather: type 0, 0 particles, temperature 0",
		"Unknown client command: nosuch",
	}, sysLog(c))
}

func TestRunStopsOnCancel(t *testing.T) {
	c := newClient(t, Options{Dialer: newPipeDialer()})
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	assert.NoError(t, c.Run(ctx))
}
