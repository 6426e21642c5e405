package handler

import (
	"time"

	"go.uber.org/zap"

	"github.com/uogo/client/internal/core/event"
	"github.com/uogo/client/internal/net/packet"
	"github.com/uogo/client/internal/world"
)

// Effect durations arrive in tenths of a second.
const (
	effectUnit        = 100 * time.Millisecond
	minEffectLifetime = 500 * time.Millisecond
)

// HandleWeather processes 0x65.
func HandleWeather(sess Conn, p *packet.Weather, deps *Deps) {
	w := world.Weather{Type: p.Type, Count: p.Count, Temperature: p.Temperature}
	if deps.World.Weather() == w {
		return
	}
	deps.World.SetWeather(w)
	event.Emit(deps.Events, event.WeatherChanged{Type: p.Type, Count: p.Count, Temperature: p.Temperature})
}

// HandleGraphicalEffect processes 0x70.
func HandleGraphicalEffect(sess Conn, p *packet.GraphicalEffect, deps *Deps) {
	ws := deps.World
	from := world.Location{X: float64(p.SourceX), Y: float64(p.SourceY), Z: float64(p.SourceZ)}
	to := world.Location{X: float64(p.TargetX), Y: float64(p.TargetY), Z: float64(p.TargetZ)}

	// Source-bound effects follow the current source position.
	if p.Type == packet.EffectOnSource {
		if src, ok := ws.BySerial(world.Serial(p.Source)); ok && src.Placed() {
			from = src.Location()
			to = from
		}
	}

	lifetime := time.Duration(p.Duration) * effectUnit
	if lifetime < minEffectLifetime {
		lifetime = minEffectLifetime
	}
	e := world.EffectState{Type: p.Type, From: from, To: to, Explode: p.Explode}
	if ws.AddEffect(e, p.Art, 0, lifetime) == nil {
		deps.Log.Debug("effect dropped", zap.Uint8("type", p.Type))
	}
}

// HandleMapChange processes 0xBF/0x08.
func HandleMapChange(sess Conn, p *packet.MapChange, deps *Deps) {
	deps.Log.Info("map change", zap.Uint8("map", p.MapID))
	deps.World.OnMapChange(p.MapID)
}
