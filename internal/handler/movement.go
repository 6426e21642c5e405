package handler

import (
	"github.com/uogo/client/internal/net/packet"
	"github.com/uogo/client/internal/world"
)

// HandleMovementAck processes 0x22.
func HandleMovementAck(sess Conn, p *packet.MovementAck, deps *Deps) {
	deps.World.Walk().OnAck(p.Seq)
	if player, ok := deps.World.Player(); ok {
		player.Mobile.Notoriety = p.Notoriety
	}
}

// HandleMovementDeny processes 0x21: every pending step is void and the
// player snaps back to the server position.
func HandleMovementDeny(sess Conn, p *packet.MovementDeny, deps *Deps) {
	loc := world.Location{X: float64(p.X), Y: float64(p.Y), Z: float64(p.Z)}
	deps.World.Walk().OnDeny(p.Seq, loc, p.Direction)
}
