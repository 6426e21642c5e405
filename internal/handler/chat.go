package handler

import (
	"github.com/uogo/client/internal/core/event"
	"github.com/uogo/client/internal/net/packet"
	"github.com/uogo/client/internal/world"
)

// systemSerial marks speech that has no speaker.
const systemSerial = 0xFFFFFFFF

// HandleAsciiSpeech processes 0x1C.
func HandleAsciiSpeech(sess Conn, p *packet.AsciiSpeech, deps *Deps) {
	hearSpeech(deps, p.Serial, p.Name, p.Text, p.Type, p.Hue)
}

// HandleUnicodeSpeech processes 0xAE.
func HandleUnicodeSpeech(sess Conn, p *packet.UnicodeSpeech, deps *Deps) {
	hearSpeech(deps, p.Serial, p.Name, p.Text, p.Type, p.Hue)
}

func hearSpeech(deps *Deps, serial uint32, name, text string, typ byte, hue uint16) {
	if text == "" {
		return
	}
	event.Emit(deps.Events, event.SpeechHeard{Serial: serial, Name: name, Text: text, Type: typ})

	switch {
	case serial == systemSerial || serial == 0 || typ == packet.SpeechSystem:
		deps.World.SystemMessage(text)
	case typ == packet.SpeechBroadcast:
		deps.World.SystemMessage(name + ": " + text)
	default:
		deps.World.AddSpeech(world.Serial(serial), name, text, typ, hue)
	}
}
