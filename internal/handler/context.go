package handler

import (
	"go.uber.org/zap"

	"github.com/uogo/client/internal/core/event"
	"github.com/uogo/client/internal/net/packet"
	"github.com/uogo/client/internal/world"
)

// Conn is the part of the session the handlers drive. *net.Session
// implements it.
type Conn interface {
	State() packet.SessionState
	SetState(st packet.SessionState)
	Send(p packet.Encoder) error
	Relay(addr string, key uint32)
	Disconnect(reason string)
	Account() string
}

// LoginPrefs picks the shard and character during login. Empty fields fall
// back to the first entry offered by the server. Shard and Character are
// updated with the names actually chosen.
type LoginPrefs struct {
	Shard     string
	Character string
}

// Deps holds shared dependencies injected into all packet handlers.
type Deps struct {
	Log    *zap.Logger
	World  *world.Store
	Events *event.Bus
	Login  *LoginPrefs
}

var (
	handshakeStates = []packet.SessionState{packet.StateLoginHandshake}
	authStates      = []packet.SessionState{packet.StateAuthenticated}
	connectedStates = []packet.SessionState{packet.StateLoginHandshake, packet.StateAuthenticated, packet.StateInWorld}
)

// The server streams the scene between the login confirm and the login
// complete packet, so world updates are accepted before InWorld.
var worldStates = []packet.SessionState{packet.StateAuthenticated, packet.StateInWorld}

// RegisterAll registers all packet handlers into the registry.
func RegisterAll(reg *packet.Registry, deps *Deps) {
	// Login server
	reg.Register(packet.S_OPCODE_LOGIN_DENIED, connectedStates,
		func() packet.Packet { return &packet.LoginDenied{} },
		func(sess any, p packet.Packet) {
			HandleLoginDenied(sess.(Conn), p.(*packet.LoginDenied), deps)
		},
	)
	reg.Register(packet.S_OPCODE_SERVER_LIST, handshakeStates,
		func() packet.Packet { return &packet.ServerList{} },
		func(sess any, p packet.Packet) {
			HandleServerList(sess.(Conn), p.(*packet.ServerList), deps)
		},
	)
	reg.Register(packet.S_OPCODE_RELAY, authStates,
		func() packet.Packet { return &packet.Relay{} },
		func(sess any, p packet.Packet) {
			HandleRelay(sess.(Conn), p.(*packet.Relay), deps)
		},
	)

	// Game server login
	reg.Register(packet.S_OPCODE_CHARACTER_LIST, authStates,
		func() packet.Packet { return &packet.CharacterList{} },
		func(sess any, p packet.Packet) {
			HandleCharacterList(sess.(Conn), p.(*packet.CharacterList), deps)
		},
	)
	reg.Register(packet.S_OPCODE_LOGIN_CONFIRM, authStates,
		func() packet.Packet { return &packet.LoginConfirm{} },
		func(sess any, p packet.Packet) {
			HandleLoginConfirm(sess.(Conn), p.(*packet.LoginConfirm), deps)
		},
	)
	reg.Register(packet.S_OPCODE_LOGIN_COMPLETE, authStates,
		func() packet.Packet { return &packet.LoginComplete{} },
		func(sess any, p packet.Packet) {
			HandleLoginComplete(sess.(Conn), p.(*packet.LoginComplete), deps)
		},
	)
	reg.Register(packet.OPCODE_PING, connectedStates,
		func() packet.Packet { return &packet.Ping{} },
		func(sess any, p packet.Packet) {
			HandlePing(sess.(Conn), p.(*packet.Ping), deps)
		},
	)

	// Scene
	reg.Register(packet.S_OPCODE_WORLD_ITEM, worldStates,
		func() packet.Packet { return &packet.WorldItem{} },
		func(sess any, p packet.Packet) {
			HandleWorldItem(sess.(Conn), p.(*packet.WorldItem), deps)
		},
	)
	reg.Register(packet.S_OPCODE_DELETE_OBJECT, worldStates,
		func() packet.Packet { return &packet.DeleteObject{} },
		func(sess any, p packet.Packet) {
			HandleDeleteObject(sess.(Conn), p.(*packet.DeleteObject), deps)
		},
	)
	reg.Register(packet.S_OPCODE_DRAW_PLAYER, worldStates,
		func() packet.Packet { return &packet.DrawPlayer{} },
		func(sess any, p packet.Packet) {
			HandleDrawPlayer(sess.(Conn), p.(*packet.DrawPlayer), deps)
		},
	)
	reg.Register(packet.S_OPCODE_DRAW_OBJECT, worldStates,
		func() packet.Packet { return &packet.DrawObject{} },
		func(sess any, p packet.Packet) {
			HandleDrawObject(sess.(Conn), p.(*packet.DrawObject), deps)
		},
	)
	reg.Register(packet.S_OPCODE_MOBILE_MOVING, worldStates,
		func() packet.Packet { return &packet.MobileMoving{} },
		func(sess any, p packet.Packet) {
			HandleMobileMoving(sess.(Conn), p.(*packet.MobileMoving), deps)
		},
	)
	reg.Register(packet.S_OPCODE_WORN_ITEM, worldStates,
		func() packet.Packet { return &packet.WornItem{} },
		func(sess any, p packet.Packet) {
			HandleWornItem(sess.(Conn), p.(*packet.WornItem), deps)
		},
	)
	reg.Register(packet.S_OPCODE_ADD_TO_CONTAINER, worldStates,
		func() packet.Packet { return &packet.AddToContainer{} },
		func(sess any, p packet.Packet) {
			HandleAddToContainer(sess.(Conn), p.(*packet.AddToContainer), deps)
		},
	)

	// Player movement
	reg.Register(packet.S_OPCODE_MOVEMENT_ACK, worldStates,
		func() packet.Packet { return &packet.MovementAck{} },
		func(sess any, p packet.Packet) {
			HandleMovementAck(sess.(Conn), p.(*packet.MovementAck), deps)
		},
	)
	reg.Register(packet.S_OPCODE_MOVEMENT_DENY, worldStates,
		func() packet.Packet { return &packet.MovementDeny{} },
		func(sess any, p packet.Packet) {
			HandleMovementDeny(sess.(Conn), p.(*packet.MovementDeny), deps)
		},
	)

	// Messages and effects
	reg.Register(packet.S_OPCODE_ASCII_SPEECH, worldStates,
		func() packet.Packet { return &packet.AsciiSpeech{} },
		func(sess any, p packet.Packet) {
			HandleAsciiSpeech(sess.(Conn), p.(*packet.AsciiSpeech), deps)
		},
	)
	reg.Register(packet.S_OPCODE_UNICODE_SPEECH, worldStates,
		func() packet.Packet { return &packet.UnicodeSpeech{} },
		func(sess any, p packet.Packet) {
			HandleUnicodeSpeech(sess.(Conn), p.(*packet.UnicodeSpeech), deps)
		},
	)
	reg.Register(packet.S_OPCODE_WEATHER, worldStates,
		func() packet.Packet { return &packet.Weather{} },
		func(sess any, p packet.Packet) {
			HandleWeather(sess.(Conn), p.(*packet.Weather), deps)
		},
	)
	reg.Register(packet.S_OPCODE_GRAPHICAL_EFFECT, worldStates,
		func() packet.Packet { return &packet.GraphicalEffect{} },
		func(sess any, p packet.Packet) {
			HandleGraphicalEffect(sess.(Conn), p.(*packet.GraphicalEffect), deps)
		},
	)
	reg.Register(packet.S_OPCODE_UNICODE_PROMPT, worldStates,
		func() packet.Packet { return &packet.UnicodePrompt{} },
		func(sess any, p packet.Packet) {
			HandleUnicodePrompt(sess.(Conn), p.(*packet.UnicodePrompt), deps)
		},
	)

	// 0xBF sub-commands
	reg.RegisterExtended(packet.EXT_CLOSE_GUMP, worldStates,
		func() packet.Packet { return &packet.CloseGump{} },
		func(sess any, p packet.Packet) {
			HandleCloseGump(sess.(Conn), p.(*packet.CloseGump), deps)
		},
	)
	reg.RegisterExtended(packet.EXT_MAP_CHANGE, worldStates,
		func() packet.Packet { return &packet.MapChange{} },
		func(sess any, p packet.Packet) {
			HandleMapChange(sess.(Conn), p.(*packet.MapChange), deps)
		},
	)
}
