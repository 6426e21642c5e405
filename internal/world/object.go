package world

import (
	"fmt"
	"math"

	"github.com/uogo/client/internal/core/ecs"
	"github.com/uogo/client/internal/render"
)

// Serial identifies a server-side object. Mobiles live below 0x40000000,
// items above.
type Serial uint32

func (s Serial) IsMobile() bool { return s != 0 && s < 0x40000000 }
func (s Serial) IsItem() bool   { return s >= 0x40000000 && s < 0x80000000 }
func (s Serial) String() string { return fmt.Sprintf("0x%08X", uint32(s)) }

// Kind tags the object variant.
type Kind uint8

const (
	KindMap Kind = iota
	KindStatic
	KindDynamicItem
	KindMobile
	KindSpeech
	KindParticleEffect
	KindOsiEffect
)

func (k Kind) String() string {
	switch k {
	case KindMap:
		return "map"
	case KindStatic:
		return "static"
	case KindDynamicItem:
		return "item"
	case KindMobile:
		return "mobile"
	case KindSpeech:
		return "speech"
	case KindParticleEffect:
		return "particle-effect"
	case KindOsiEffect:
		return "osi-effect"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Tier breaks depth ties: terrain under statics under items under mobiles
// under effects under speech. Worn items sit between their mobile and the
// effects tier, ordered by layer.
func (k Kind) Tier() uint8 {
	switch k {
	case KindMap:
		return 0
	case KindStatic:
		return 10
	case KindDynamicItem:
		return 20
	case KindMobile:
		return 30
	case KindParticleEffect, KindOsiEffect:
		return 60
	case KindSpeech:
		return 70
	default:
		panic(fmt.Sprintf("world: no tier for %s", k))
	}
}

// Location is a world position. Smooth movement produces fractional
// coordinates; the game tile is the ceiling of each axis.
type Location struct {
	X, Y, Z float64
}

func (l Location) Tile() (x, y, z int) {
	return int(math.Ceil(l.X)), int(math.Ceil(l.Y)), int(math.Ceil(l.Z))
}

func (l Location) finite() bool {
	for _, v := range [3]float64{l.X, l.Y, l.Z} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (l Location) String() string {
	x, y, z := l.Tile()
	return fmt.Sprintf("(%d,%d,%d)", x, y, z)
}

// Rect is a screen-space rectangle.
type Rect struct {
	X, Y, W, H float64
}

// RenderData is the lazily recomputed render cache.
type RenderData struct {
	Texture  Texture
	Vertices Rect
	Depth    int64
}

type invalid uint8

const (
	invalidTexture invalid = 1 << iota
	invalidVertices
	invalidDepth

	invalidAll = invalidTexture | invalidVertices | invalidDepth
)

type MobileState struct {
	Name      string
	Notoriety uint8
	Flags     uint8
}

type ItemState struct {
	Amount uint16
	Layer  uint8 // non-zero when worn
	Flags  uint8
}

type SpeechState struct {
	Speaker Serial
	Name    string
	Text    string
	Type    byte
}

type EffectState struct {
	Type    byte
	From    Location
	To      Location
	Explode bool
}

// Object is one entry of the world arena. Common fields apply to every kind;
// the kind-specific state blocks are only meaningful for their kind.
type Object struct {
	id     ecs.EntityID
	kind   Kind
	serial Serial

	Art       uint16 // body id for mobiles
	Hue       uint16
	Direction uint8

	loc     Location
	placed  bool
	visible bool
	ignored bool
	deleted bool

	parent   ecs.EntityID
	children []ecs.EntityID

	sector *Sector
	queues []*render.Queue

	render  RenderData
	invalid invalid

	age, lifetime int64 // ms, transient kinds only

	Mobile MobileState
	Item   ItemState
	Speech SpeechState
	Effect EffectState
}

func (o *Object) ID() ecs.EntityID   { return o.id }
func (o *Object) Kind() Kind         { return o.kind }
func (o *Object) Serial() Serial     { return o.serial }
func (o *Object) Location() Location { return o.loc }
func (o *Object) Placed() bool       { return o.placed }
func (o *Object) Parent() ecs.EntityID {
	return o.parent
}

// Children returns the owned child handles in insertion order.
func (o *Object) Children() []ecs.EntityID { return o.children }

// Sector returns the sector the object is registered in, if any.
func (o *Object) Sector() *Sector { return o.sector }

// Visible reports whether the renderer should draw the object.
func (o *Object) Visible() bool { return o.visible && !o.ignored }

func (o *Object) Ignored() bool { return o.ignored }

func (o *Object) RenderData() RenderData { return o.render }

// InQueue reports membership in q.
func (o *Object) InQueue(q *render.Queue) bool {
	for _, m := range o.queues {
		if m == q {
			return true
		}
	}
	return false
}

func (o *Object) worn() bool {
	return o.kind == KindDynamicItem && o.Item.Layer != 0
}

// tier includes the worn-item layer offset.
func (o *Object) tier() uint8 {
	t := o.kind.Tier()
	if o.worn() {
		t = KindMobile.Tier() + o.Item.Layer
	}
	return t
}

// computeDepth orders by screen row: tiles further down-right draw later,
// higher z draws later within a tile.
func (o *Object) computeDepth() int64 {
	x, y, z := o.loc.Tile()
	return int64(x+y)*256 + int64(z+128)
}

const tileHalf = 22

// computeVertices projects the object onto the isometric screen plane.
func (o *Object) computeVertices() Rect {
	x, y, z := o.loc.Tile()
	sx := float64((x - y) * tileHalf)
	sy := float64((x+y)*tileHalf - z*4)
	w, h := float64(2*tileHalf), float64(2*tileHalf)
	if o.render.Texture != nil {
		w, h = float64(o.render.Texture.Width()), float64(o.render.Texture.Height())
	}
	switch o.kind {
	case KindMap:
		return Rect{X: sx, Y: sy, W: w, H: h}
	case KindStatic, KindDynamicItem, KindMobile, KindParticleEffect, KindOsiEffect:
		return Rect{X: sx + tileHalf - w/2, Y: sy + 2*tileHalf - h, W: w, H: h}
	case KindSpeech:
		return Rect{X: sx + tileHalf - w/2, Y: sy - h - 60, W: w, H: h}
	default:
		panic(fmt.Sprintf("world: no projection for %s", o.kind))
	}
}

func (o *Object) detachQueue(q *render.Queue) {
	for i, m := range o.queues {
		if m == q {
			o.queues = append(o.queues[:i], o.queues[i+1:]...)
			return
		}
	}
}

func (o *Object) removeChild(id ecs.EntityID) {
	for i, c := range o.children {
		if c == id {
			o.children = append(o.children[:i], o.children[i+1:]...)
			return
		}
	}
}
