package handler

import (
	"go.uber.org/zap"

	"github.com/uogo/client/internal/net/packet"
	"github.com/uogo/client/internal/world"
)

// Mobile status flags carried by 0x20, 0x77 and 0x78.
const (
	mobileFlagHidden byte = 0x80
)

// HandleWorldItem processes 0x1A: an item lying in the world.
func HandleWorldItem(sess Conn, p *packet.WorldItem, deps *Deps) {
	ws := deps.World
	item := ws.GetOrCreateDynamicItem(world.Serial(p.Serial))
	ws.SetArt(item, p.Art+uint16(p.Increment), p.Hue)
	item.Item.Amount = p.Amount
	item.Item.Flags = p.Flags
	item.Direction = p.Direction
	if !ws.PlaceItem(item, world.Location{X: float64(p.X), Y: float64(p.Y), Z: float64(p.Z)}) {
		deps.Log.Debug("world item ignored", zap.Stringer("serial", item.Serial()))
	}
}

// HandleDeleteObject processes 0x1D.
func HandleDeleteObject(sess Conn, p *packet.DeleteObject, deps *Deps) {
	serial := world.Serial(p.Serial)
	if player, ok := deps.World.Player(); ok && player.Serial() == serial {
		deps.Log.Warn("server tried to delete the player", zap.Stringer("serial", serial))
		return
	}
	deps.World.DeleteObject(serial)
}

// HandleDrawPlayer processes 0x20: the player teleports or changes body.
func HandleDrawPlayer(sess Conn, p *packet.DrawPlayer, deps *Deps) {
	ws := deps.World
	player, ok := ws.Player()
	if !ok || player.Serial() != world.Serial(p.Serial) {
		deps.Log.Warn("draw player for unknown serial", zap.Stringer("serial", world.Serial(p.Serial)))
		return
	}
	ws.SetArt(player, p.Body, p.Hue)
	player.Mobile.Flags = p.Flags
	ws.SetVisible(player, true)
	ws.Teleport(player, world.Location{X: float64(p.X), Y: float64(p.Y), Z: float64(p.Z)}, p.Direction)
}

// HandleMobileMoving processes 0x77.
func HandleMobileMoving(sess Conn, p *packet.MobileMoving, deps *Deps) {
	ws := deps.World
	mob := updateMobile(ws, p)
	loc := world.Location{X: float64(p.X), Y: float64(p.Y), Z: float64(p.Z)}
	if ws.IsPlayer(mob) {
		ws.Teleport(mob, loc, p.Direction)
		return
	}
	ws.MoveMobile(mob, loc, p.Direction, p.Direction&world.DirRun != 0)
}

// HandleDrawObject processes 0x78: a mobile comes into view with its
// equipment.
func HandleDrawObject(sess Conn, p *packet.DrawObject, deps *Deps) {
	ws := deps.World
	mob := updateMobile(ws, &p.MobileMoving)
	loc := world.Location{X: float64(p.X), Y: float64(p.Y), Z: float64(p.Z)}
	ws.Teleport(mob, loc, p.Direction)

	for _, eq := range p.Equipment {
		item := ws.GetOrCreateDynamicItem(world.Serial(eq.Serial))
		ws.SetArt(item, eq.Art, eq.Hue)
		ws.Equip(item, mob, eq.Layer)
	}
}

func updateMobile(ws *world.Store, p *packet.MobileMoving) *world.Object {
	mob := ws.GetOrCreateMobile(world.Serial(p.Serial))
	ws.SetArt(mob, p.Body, p.Hue)
	mob.Mobile.Flags = p.Flags
	mob.Mobile.Notoriety = p.Notoriety
	ws.SetVisible(mob, p.Flags&mobileFlagHidden == 0)
	return mob
}

// HandleWornItem processes 0x2E.
func HandleWornItem(sess Conn, p *packet.WornItem, deps *Deps) {
	ws := deps.World
	mob, ok := ws.Mobile(world.Serial(p.Mobile))
	if !ok {
		// The wearer arrives later; keep the item so the draw object can
		// claim it.
		mob = ws.GetOrCreateMobile(world.Serial(p.Mobile))
	}
	item := ws.GetOrCreateDynamicItem(world.Serial(p.Serial))
	ws.SetArt(item, p.Art, p.Hue)
	ws.Equip(item, mob, p.Layer)
}

// HandleAddToContainer processes 0x25.
func HandleAddToContainer(sess Conn, p *packet.AddToContainer, deps *Deps) {
	ws := deps.World
	container, ok := ws.BySerial(world.Serial(p.Container))
	if !ok {
		container = ws.GetOrCreateDynamicItem(world.Serial(p.Container))
	}
	item := ws.GetOrCreateDynamicItem(world.Serial(p.Serial))
	ws.SetArt(item, p.Art+uint16(p.ArtOffset), p.Hue)
	item.Item.Amount = p.Amount
	ws.AddToContainer(item, container, int(p.X), int(p.Y))
}
