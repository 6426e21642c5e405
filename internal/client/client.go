package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/uogo/client/internal/config"
	"github.com/uogo/client/internal/core/event"
	coresys "github.com/uogo/client/internal/core/system"
	"github.com/uogo/client/internal/handler"
	"github.com/uogo/client/internal/net"
	"github.com/uogo/client/internal/net/packet"
	"github.com/uogo/client/internal/persist"
	"github.com/uogo/client/internal/scripting"
	"github.com/uogo/client/internal/system"
	"github.com/uogo/client/internal/world"
)

const (
	speechHue       = 0x03B2
	speechFont      = 3
	speechLanguage  = "ENU"
	lineBufferSize  = 64
	slowTickWarning = 200 * time.Millisecond
	profileTimeout  = 2 * time.Second
)

// Profiles remembers the last shard and character per account.
type Profiles interface {
	Load(ctx context.Context, account string) (persist.Profile, bool, error)
	Save(ctx context.Context, p persist.Profile) error
}

// Options carries the optional collaborators. Nil fields are skipped.
type Options struct {
	Assets   world.Assets
	Engine   *scripting.Engine
	Journal  system.JournalWriter
	Profiles Profiles
	Renderer system.Renderer
	Dialer   net.Dialer // overrides the configured transport
}

// Client ties the session, the world store and the command layer to one
// game loop. Everything except Lines belongs to the loop goroutine.
type Client struct {
	cfg *config.Config
	log *zap.Logger

	reg      *packet.Registry
	session  *net.Session
	store    *world.Store
	events   *event.Bus
	commands *scripting.CommandManager
	runner   *coresys.Runner
	profiles Profiles
	login    *handler.LoginPrefs
	capture  *net.Capture
	engine   *scripting.Engine

	lines  chan string
	prompt *event.PromptRequested
}

// New builds a disconnected client from the configuration.
func New(cfg *config.Config, opts Options, log *zap.Logger) (*Client, error) {
	c := &Client{
		cfg:      cfg,
		log:      log,
		events:   event.NewBus(),
		profiles: opts.Profiles,
		engine:   opts.Engine,
		login:    &handler.LoginPrefs{Shard: cfg.Account.Shard, Character: cfg.Account.Character},
		lines:    make(chan string, lineBufferSize),
	}

	dialer := opts.Dialer
	if dialer == nil {
		d, err := net.NewDialer(cfg.Network.Transport, cfg.Network.DialTimeout)
		if err != nil {
			return nil, fmt.Errorf("dialer: %w", err)
		}
		dialer = d
	}

	sessOpts := net.Options{
		InQueueSize:  cfg.Network.InQueueSize,
		OutQueueSize: cfg.Network.OutQueueSize,
		WriteTimeout: cfg.Network.WriteTimeout,
		Encryption:   cfg.Network.Encryption,
		Version:      cfg.Network.ClientVersion,
	}
	if cfg.Capture.Enabled {
		capture, err := net.OpenCapture(cfg.Capture.Dir)
		if err != nil {
			return nil, fmt.Errorf("packet capture: %w", err)
		}
		c.capture = capture
		sessOpts.Recorder = capture
	}

	c.reg = packet.NewRegistry(cfg.Network.DefaultLength, log.Named("packet"))
	c.session = net.NewSession(c.reg, dialer, sessOpts, log.Named("session"))

	store, err := world.NewStore(world.Options{
		AutoDeleteRange:   cfg.World.AutoDeleteRange,
		SectorCacheRadius: cfg.World.SectorCacheRadius,
		MapWidth:          cfg.World.MapWidth,
		MapHeight:         cfg.World.MapHeight,
		SpeechDuration:    cfg.World.SpeechDuration,
		SystemLogLimit:    cfg.World.SystemLogLimit,
		SystemLogTTL:      cfg.World.SystemLogTTL,
	}, opts.Assets, c.session, log.Named("world"))
	if err != nil {
		c.closeCapture()
		return nil, err
	}
	c.store = store
	store.OnSystemMessage(func(text string) {
		event.Emit(c.events, event.SystemMessage{Text: text})
	})

	handler.RegisterAll(c.reg, &handler.Deps{
		Log:    log.Named("handler"),
		World:  store,
		Events: c.events,
		Login:  c.login,
	})

	c.session.OnDisconnect(c.onDisconnect)
	event.Subscribe(c.events, func(e event.PromptRequested) {
		c.prompt = &e
	})

	c.commands = scripting.NewCommandManager(c, opts.Engine, log.Named("commands"))

	c.runner = coresys.NewRunner(slowTickWarning, log)
	c.runner.Register(system.NewInputSystem(c.session, cfg.Network.MaxPacketsPerTick, c.lines, c.Submit, log.Named("input")))
	c.runner.Register(system.NewEventSystem(c.events))
	c.runner.Register(system.NewWorldSystem(store))
	c.runner.Register(system.NewRenderSyncSystem(opts.Renderer, store.Queue()))
	if opts.Journal != nil || opts.Profiles != nil {
		c.runner.Register(system.NewPersistenceSystem(c.events, opts.Journal, opts.Profiles, c.session.Account, log.Named("persist")))
	}
	return c, nil
}

func (c *Client) World() *world.Store                 { return c.store }
func (c *Client) Session() *net.Session               { return c.session }
func (c *Client) Events() *event.Bus                  { return c.events }
func (c *Client) Commands() *scripting.CommandManager { return c.commands }

// Lines accepts typed input from any goroutine. The game loop drains it
// every tick.
func (c *Client) Lines() chan<- string { return c.lines }

// Connect starts the login. Shard and character left empty in the config
// fall back to the ones used last time on this account.
func (c *Client) Connect(ctx context.Context) error {
	account := c.cfg.Account.Name
	if account == "" {
		return errors.New("connect: no account name configured")
	}
	c.login.Shard = c.cfg.Account.Shard
	c.login.Character = c.cfg.Account.Character
	if c.profiles != nil && (c.login.Shard == "" || c.login.Character == "") {
		lctx, cancel := context.WithTimeout(ctx, profileTimeout)
		p, ok, err := c.profiles.Load(lctx, account)
		cancel()
		switch {
		case err != nil:
			c.log.Warn("load login profile", zap.String("account", account), zap.Error(err))
		case ok:
			if c.login.Shard == "" {
				c.login.Shard = p.Shard
			}
			if c.login.Character == "" {
				c.login.Character = p.Character
			}
			c.log.Info("using last login", zap.String("shard", c.login.Shard), zap.String("character", c.login.Character))
		}
	}

	c.log.Info("connecting",
		zap.String("host", c.cfg.Network.Host),
		zap.Int("port", c.cfg.Network.Port),
		zap.String("account", account))
	return c.session.Connect(ctx, c.cfg.Network.Host, c.cfg.Network.Port, account, c.cfg.Account.Password)
}

// Submit handles one line of input. A pending prompt takes the line as its
// answer; an empty line cancels it. Otherwise the line goes to the command
// manager.
func (c *Client) Submit(line string) {
	if c.prompt != nil {
		p := c.prompt
		c.prompt = nil
		resp := &packet.PromptResponse{
			PlayerSerial: p.PlayerSerial,
			PromptSerial: p.PromptSerial,
			Cancel:       line == "",
			Language:     speechLanguage,
			Text:         line,
		}
		if err := c.session.Send(resp); err != nil {
			c.log.Warn("prompt response", zap.Error(err))
		}
		return
	}
	if err := c.commands.HandleInput(line); err != nil {
		c.log.Warn("input", zap.String("line", line), zap.Error(err))
	}
}

// PromptPending reports whether the next line answers a server prompt.
func (c *Client) PromptPending() bool { return c.prompt != nil }

// Tick runs one frame of the game loop.
func (c *Client) Tick(dt time.Duration) {
	c.runner.Tick(dt)
}

// Run ticks at the configured rate until ctx is done, then disconnects.
func (c *Client) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.cfg.Network.TickRate)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			c.session.Disconnect("shutdown")
			// one last frame so the disconnect reaches the journal
			c.Tick(0)
			return nil
		case now := <-ticker.C:
			c.Tick(now.Sub(last))
			last = now
		}
	}
}

// Close drops the connection and releases the capture file and the script
// engine.
func (c *Client) Close() {
	c.session.Disconnect("closed")
	if c.engine != nil {
		c.engine.Close()
	}
	c.closeCapture()
}

func (c *Client) closeCapture() {
	if c.capture == nil {
		return
	}
	if err := c.capture.Close(); err != nil {
		c.log.Warn("close packet capture", zap.Error(err))
	}
	c.capture = nil
}

func (c *Client) onDisconnect(reason string) {
	c.prompt = nil
	c.store.Clear()
	event.Emit(c.events, event.Disconnected{Reason: reason})
	c.store.SystemMessage("Disconnected: " + reason)
}

// Speak sends typed speech as the player.
func (c *Client) Speak(typ byte, text string) error {
	return c.session.Send(&packet.SpeechRequest{
		Type:     typ,
		Hue:      speechHue,
		Font:     speechFont,
		Language: speechLanguage,
		Text:     text,
	})
}

func (c *Client) Disconnect(reason string)  { c.session.Disconnect(reason) }
func (c *Client) SystemMessage(text string) { c.store.SystemMessage(text) }
func (c *Client) Weather() world.Weather    { return c.store.Weather() }
