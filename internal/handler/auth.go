package handler

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/uogo/client/internal/core/event"
	"github.com/uogo/client/internal/net/packet"
	"github.com/uogo/client/internal/world"
)

// HandleLoginDenied processes 0x82. The rejection is shown to the user and
// the session is dropped.
func HandleLoginDenied(sess Conn, p *packet.LoginDenied, deps *Deps) {
	reason := p.ReasonText()
	deps.Log.Warn("login denied", zap.Uint8("reason", p.Reason), zap.String("account", sess.Account()))
	systemMessage(deps, reason)
	sess.Disconnect("login denied: " + reason)
}

// HandleServerList processes 0xA8: pick the preferred shard, or the first.
func HandleServerList(sess Conn, p *packet.ServerList, deps *Deps) {
	if len(p.Shards) == 0 {
		systemMessage(deps, "The login server offered no shards.")
		sess.Disconnect("empty server list")
		return
	}
	shard := p.Shards[0]
	if want := deps.Login.Shard; want != "" {
		found := false
		for _, s := range p.Shards {
			if strings.EqualFold(s.Name, want) {
				shard, found = s, true
				break
			}
		}
		if !found {
			deps.Log.Warn("preferred shard not listed, using first", zap.String("shard", want))
		}
	}
	deps.Login.Shard = shard.Name
	sess.SetState(packet.StateAuthenticated)
	deps.Log.Info("shard selected", zap.String("shard", shard.Name), zap.Uint16("index", shard.Index))
	_ = sess.Send(&packet.SelectServer{Index: shard.Index})
}

// HandleRelay processes 0x8C: reconnect to the game server with the key.
func HandleRelay(sess Conn, p *packet.Relay, deps *Deps) {
	ip := net.IPv4(p.Address[0], p.Address[1], p.Address[2], p.Address[3])
	addr := net.JoinHostPort(ip.String(), strconv.Itoa(int(p.Port)))
	deps.Log.Debug("relay", zap.String("addr", addr), zap.Uint32("key", p.Key))
	sess.Relay(addr, p.Key)
}

// HandleCharacterList processes 0xA9: select the preferred character, or the
// first occupied slot.
func HandleCharacterList(sess Conn, p *packet.CharacterList, deps *Deps) {
	slot := -1
	want := deps.Login.Character
	for i, name := range p.Characters {
		if name == "" {
			continue
		}
		if slot < 0 {
			slot = i
		}
		if want != "" && strings.EqualFold(name, want) {
			slot = i
			break
		}
	}
	if slot < 0 {
		systemMessage(deps, "This account has no characters.")
		sess.Disconnect("no characters")
		return
	}
	name := p.Characters[slot]
	if want != "" && !strings.EqualFold(name, want) {
		deps.Log.Warn("preferred character not found", zap.String("character", want))
	}
	deps.Login.Character = name
	deps.Log.Info("character selected", zap.String("character", name), zap.Int("slot", slot))
	_ = sess.Send(&packet.CharacterSelect{Name: name, Slot: uint32(slot)})
}

// HandleLoginConfirm processes 0x1B: create and place the player mobile.
func HandleLoginConfirm(sess Conn, p *packet.LoginConfirm, deps *Deps) {
	ws := deps.World
	ws.Clear()
	if p.MapWidth > 0 && p.MapHeight > 0 {
		ws.SetMapSize(int(p.MapWidth), int(p.MapHeight))
	}
	player := ws.InitPlayer(world.Serial(p.Serial))
	ws.SetArt(player, p.Body, 0)
	ws.Teleport(player, world.Location{X: float64(p.X), Y: float64(p.Y), Z: float64(p.Z)}, p.Direction)
	deps.Log.Info("login confirmed",
		zap.Stringer("serial", world.Serial(p.Serial)),
		zap.Uint16("x", p.X), zap.Uint16("y", p.Y), zap.Int16("z", p.Z))
}

// HandleLoginComplete processes 0x55: the scene is complete.
func HandleLoginComplete(sess Conn, _ *packet.LoginComplete, deps *Deps) {
	player, ok := deps.World.Player()
	if !ok {
		deps.Log.Warn("login complete without login confirm")
		return
	}
	sess.SetState(packet.StateInWorld)
	event.Emit(deps.Events, event.EnteredWorld{
		Serial:    uint32(player.Serial()),
		Account:   sess.Account(),
		Shard:     deps.Login.Shard,
		Character: deps.Login.Character,
	})
	systemMessage(deps, fmt.Sprintf("Welcome to %s.", deps.Login.Shard))
}

// HandlePing processes 0x73 by echoing it.
func HandlePing(sess Conn, p *packet.Ping, deps *Deps) {
	_ = sess.Send(&packet.Ping{Seq: p.Seq})
}

// systemMessage goes through the store, whose hook forwards it to the bus.
func systemMessage(deps *Deps, text string) {
	deps.World.SystemMessage(text)
}
