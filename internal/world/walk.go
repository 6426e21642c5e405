package world

import (
	"go.uber.org/zap"

	"github.com/uogo/client/internal/net/packet"
)

// Directions as sent on the wire. The run bit is OR'd into the move request.
const (
	DirNorth uint8 = iota
	DirNorthEast
	DirEast
	DirSouthEast
	DirSouth
	DirSouthWest
	DirWest
	DirNorthWest

	dirMask uint8 = 0x07
	DirRun  uint8 = 0x80
)

var dirOffsets = [8][2]int{
	{0, -1}, {1, -1}, {1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1},
}

const (
	maxPendingSteps = 4
	turnDelayMs     = 100
	maxClimb        = 8
)

// PendingStep is a move request the server has not acknowledged yet.
type PendingStep struct {
	Seq byte
	Dir uint8
	To  Location
}

// DeniedStep records the server correction of the last denied move.
type DeniedStep struct {
	Seq byte
	To  Location
	Dir uint8
}

// WalkManager turns the local walk intent into sequenced move requests and
// reconciles them with server acks and denials.
type WalkManager struct {
	store *Store
	log   *zap.Logger

	seq     byte
	pending []PendingStep

	wantDir uint8
	wantRun bool
	walking bool

	cooldown int64
	denied   *DeniedStep
}

func newWalkManager(store *Store, log *zap.Logger) *WalkManager {
	return &WalkManager{store: store, log: log}
}

// Request sets the direction the player wants to move in until Stop.
func (w *WalkManager) Request(dir uint8, run bool) {
	w.wantDir = dir & dirMask
	w.wantRun = run
	w.walking = true
}

func (w *WalkManager) Stop() { w.walking = false }

func (w *WalkManager) Walking() bool { return w.walking }

// NextSeq is the sequence number the next request will carry.
func (w *WalkManager) NextSeq() byte { return w.seq }

func (w *WalkManager) Pending() []PendingStep {
	out := make([]PendingStep, len(w.pending))
	copy(out, w.pending)
	return out
}

// LastDenied returns the most recent server correction, if any.
func (w *WalkManager) LastDenied() (DeniedStep, bool) {
	if w.denied == nil {
		return DeniedStep{}, false
	}
	return *w.denied, true
}

func (w *WalkManager) Reset() {
	w.seq = 0
	w.pending = w.pending[:0]
	w.walking = false
	w.cooldown = 0
	w.denied = nil
}

// advanceSeq wraps 255 back to 1; zero is only used for the first request
// and after a denial.
func (w *WalkManager) advanceSeq() {
	if w.seq == 255 {
		w.seq = 1
		return
	}
	w.seq++
}

// Update issues at most one request per call once the step cooldown ran out.
func (w *WalkManager) Update(elapsed int64) {
	if w.cooldown > 0 {
		w.cooldown -= elapsed
	}
	if !w.walking || w.cooldown > 0 || len(w.pending) >= maxPendingSteps {
		return
	}
	p, ok := w.store.Player()
	if !ok || !p.placed {
		return
	}

	from := p.loc
	if last, ok := w.store.smooth.Last(p.serial); ok {
		from = last
	}
	dir := w.wantDir
	wire := dir
	if w.wantRun {
		wire |= DirRun
	}

	if p.Direction&dirMask != dir {
		w.send(wire, dir, from)
		p.Direction = dir
		w.cooldown = turnDelayMs
		return
	}

	fx, fy, fz := from.Tile()
	tx, ty := fx+dirOffsets[dir][0], fy+dirOffsets[dir][1]
	tz, ok := w.store.standHeight(tx, ty, fz)
	if !ok {
		w.walking = false
		return
	}
	to := Location{X: float64(tx), Y: float64(ty), Z: float64(tz)}
	w.send(wire, dir, to)
	w.store.smooth.Add(p.serial, from, to, dir, w.wantRun)
	w.cooldown = walkStepMs
	if w.wantRun {
		w.cooldown = runStepMs
	}
}

func (w *WalkManager) send(wire, dir uint8, to Location) {
	seq := w.seq
	if err := w.store.send(&packet.MoveRequest{Direction: wire, Seq: seq}); err != nil {
		w.log.Debug("move request dropped", zap.Error(err))
		return
	}
	w.pending = append(w.pending, PendingStep{Seq: seq, Dir: dir, To: to})
	w.advanceSeq()
}

// OnAck pops the acknowledged step. Steps ahead of it were implicitly
// accepted.
func (w *WalkManager) OnAck(seq byte) {
	for i, st := range w.pending {
		if st.Seq == seq {
			w.pending = append(w.pending[:0], w.pending[i+1:]...)
			return
		}
	}
	w.log.Debug("ack for unknown step", zap.Uint8("seq", seq))
}

// OnDeny drops every pending step and snaps the player to the server
// location. The sequence restarts at zero.
func (w *WalkManager) OnDeny(seq byte, to Location, dir uint8) {
	w.pending = w.pending[:0]
	w.seq = 0
	w.cooldown = 0
	w.denied = &DeniedStep{Seq: seq, To: to, Dir: dir}

	p, ok := w.store.Player()
	if !ok {
		return
	}
	w.store.smooth.Clear(p.serial)
	p.Direction = dir & dirMask
	w.store.SetLocation(p, to)
}
