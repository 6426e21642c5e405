package world

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/uogo/client/internal/core/ecs"
	"github.com/uogo/client/internal/net/packet"
	"github.com/uogo/client/internal/render"
)

// NoRoof is the roof height reported when nothing covers the player.
const NoRoof = 127

// Objects further than the view range plus this margin are evicted.
const evictionMargin = 2

const personHeight = 16

var errNoSender = errors.New("world: no packet sender")

// Sender is the outbound half of the session.
type Sender interface {
	Send(p packet.Encoder) error
}

// Options tune the store. Zero map size disables the bounds check until the
// login confirm reports it.
type Options struct {
	AutoDeleteRange   int
	SectorCacheRadius int
	MapWidth          int
	MapHeight         int
	SpeechDuration    time.Duration
	SystemLogLimit    int
	SystemLogTTL      time.Duration
}

func (o Options) validate() error {
	if o.AutoDeleteRange <= 0 {
		return fmt.Errorf("auto delete range must be positive, got %d", o.AutoDeleteRange)
	}
	if o.SectorCacheRadius <= 0 {
		return fmt.Errorf("sector cache radius must be positive, got %d", o.SectorCacheRadius)
	}
	if o.SectorCacheRadius*SectorSize < o.AutoDeleteRange+evictionMargin {
		return fmt.Errorf("sector cache radius %d does not cover auto delete range %d",
			o.SectorCacheRadius, o.AutoDeleteRange)
	}
	return nil
}

// Assets bundles the asset-layer collaborators. Any of them may be nil.
type Assets struct {
	Textures TextureProvider
	Tiles    TileData
	Maps     MapSource
}

// Weather is the last weather report.
type Weather struct {
	Type        byte
	Count       byte
	Temperature byte
}

// Store is the client-side world state. It is owned by the game loop
// goroutine; only the render queue pending lists are shared.
type Store struct {
	opts Options
	log  *zap.Logger

	objects *ecs.Arena[Object]
	mobiles map[Serial]ecs.EntityID
	items   map[Serial]ecs.EntityID
	player  ecs.EntityID

	transient []ecs.EntityID // speech and effects
	doomed    []Serial       // range evictions of the current step

	sectors *SectorManager
	smooth  *SmoothMovement
	walk    *WalkManager
	syslog  *SystemLog
	queue   *render.Queue

	textures TextureProvider
	tiles    TileData
	sender   Sender

	mapWidth  int
	mapHeight int
	weather   Weather

	lastCell SectorKey
	haveCell bool

	onSystemMessage func(text string)
}

// NewStore builds an empty store. Invalid options are a startup error.
func NewStore(opts Options, assets Assets, sender Sender, log *zap.Logger) (*Store, error) {
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("world options: %w", err)
	}
	if opts.SpeechDuration <= 0 {
		opts.SpeechDuration = 5 * time.Second
	}
	if opts.SystemLogLimit <= 0 {
		opts.SystemLogLimit = 64
	}
	s := &Store{
		opts:      opts,
		log:       log,
		objects:   ecs.NewArena[Object](),
		mobiles:   make(map[Serial]ecs.EntityID),
		items:     make(map[Serial]ecs.EntityID),
		smooth:    NewSmoothMovement(),
		syslog:    NewSystemLog(opts.SystemLogLimit, opts.SystemLogTTL),
		textures:  assets.Textures,
		tiles:     assets.Tiles,
		sender:    sender,
		mapWidth:  opts.MapWidth,
		mapHeight: opts.MapHeight,
	}
	s.sectors = newSectorManager(s, assets.Maps, opts.SectorCacheRadius, log.Named("sectors"))
	s.walk = newWalkManager(s, log.Named("walk"))
	s.queue = render.NewQueue("world", s)
	return s, nil
}

func (s *Store) Queue() *render.Queue    { return s.queue }
func (s *Store) Sectors() *SectorManager { return s.sectors }
func (s *Store) Walk() *WalkManager      { return s.walk }
func (s *Store) Smooth() *SmoothMovement { return s.smooth }
func (s *Store) SystemLog() *SystemLog   { return s.syslog }
func (s *Store) Weather() Weather        { return s.weather }
func (s *Store) SetWeather(w Weather)    { s.weather = w }
func (s *Store) EvictionRange() int      { return s.opts.AutoDeleteRange + evictionMargin }

// OnSystemMessage installs the UI hook for SystemMessage.
func (s *Store) OnSystemMessage(fn func(text string)) {
	s.onSystemMessage = fn
}

// SetMapSize enables the location bounds check.
func (s *Store) SetMapSize(w, h int) {
	s.mapWidth, s.mapHeight = w, h
}

func (s *Store) send(p packet.Encoder) error {
	if s.sender == nil {
		return errNoSender
	}
	return s.sender.Send(p)
}

func (s *Store) spawn(kind Kind, serial Serial) *Object {
	o := &Object{kind: kind, serial: serial, visible: true, invalid: invalidAll}
	o.id = s.objects.Insert(o)
	return o
}

// GetOrCreateMobile returns the mobile for serial, creating an unplaced one
// on first reference.
func (s *Store) GetOrCreateMobile(serial Serial) *Object {
	if o, ok := s.Mobile(serial); ok {
		return o
	}
	if o, ok := s.DynamicItem(serial); ok {
		s.log.Debug("serial reused as mobile", zap.Stringer("serial", serial))
		s.teardown(o)
	}
	o := s.spawn(KindMobile, serial)
	s.mobiles[serial] = o.id
	return o
}

// GetOrCreateDynamicItem returns the item for serial, creating an unplaced
// one on first reference.
func (s *Store) GetOrCreateDynamicItem(serial Serial) *Object {
	if o, ok := s.DynamicItem(serial); ok {
		return o
	}
	if o, ok := s.Mobile(serial); ok {
		if o.id == s.player {
			s.log.Warn("item serial collides with the player", zap.Stringer("serial", serial))
		} else {
			s.log.Debug("serial reused as item", zap.Stringer("serial", serial))
		}
		s.teardown(o)
	}
	o := s.spawn(KindDynamicItem, serial)
	o.Item.Amount = 1
	s.items[serial] = o.id
	return o
}

func (s *Store) Mobile(serial Serial) (*Object, bool) {
	id, ok := s.mobiles[serial]
	if !ok {
		return nil, false
	}
	return s.objects.Get(id)
}

func (s *Store) DynamicItem(serial Serial) (*Object, bool) {
	id, ok := s.items[serial]
	if !ok {
		return nil, false
	}
	return s.objects.Get(id)
}

// BySerial checks mobiles first, then items.
func (s *Store) BySerial(serial Serial) (*Object, bool) {
	if o, ok := s.Mobile(serial); ok {
		return o, true
	}
	return s.DynamicItem(serial)
}

func (s *Store) Object(id ecs.EntityID) (*Object, bool) {
	o, ok := s.objects.Get(id)
	if !ok || o.deleted {
		return nil, false
	}
	return o, true
}

func (s *Store) MobileCount() int { return len(s.mobiles) }
func (s *Store) ItemCount() int   { return len(s.items) }

// InitPlayer creates the player mobile and asks the server for its stats.
func (s *Store) InitPlayer(serial Serial) *Object {
	o := s.GetOrCreateMobile(serial)
	s.player = o.id
	if err := s.send(&packet.StatSkillQuery{Type: packet.QueryStats, Serial: uint32(serial)}); err != nil {
		s.log.Warn("stat query not sent", zap.Stringer("serial", serial), zap.Error(err))
	}
	return o
}

func (s *Store) Player() (*Object, bool) {
	if s.player.IsZero() {
		return nil, false
	}
	return s.Object(s.player)
}

func (s *Store) IsPlayer(o *Object) bool { return o != nil && o.id == s.player }

func (s *Store) inBounds(loc Location) bool {
	x, y, z := loc.Tile()
	if z < -128 || z > 127 || x < 0 || y < 0 {
		return false
	}
	if s.mapWidth > 0 && x >= s.mapWidth {
		return false
	}
	if s.mapHeight > 0 && y >= s.mapHeight {
		return false
	}
	return true
}

// SetLocation moves a top-level object. Worn items and overhead speech follow
// their parent. Returns false for malformed locations, which are ignored.
func (s *Store) SetLocation(o *Object, loc Location) bool {
	if !loc.finite() || !s.inBounds(loc) {
		s.log.Warn("rejected location",
			zap.Stringer("serial", o.serial), zap.Stringer("kind", o.kind),
			zap.Float64("x", loc.X), zap.Float64("y", loc.Y), zap.Float64("z", loc.Z))
		return false
	}
	s.moveTree(o, loc)
	if o.parent.IsZero() && (o.kind == KindMobile || o.kind == KindDynamicItem) {
		s.sectors.place(o)
	}
	return true
}

func (s *Store) moveTree(o *Object, loc Location) {
	ox, oy, oz := o.loc.Tile()
	first := !o.placed
	o.loc = loc
	o.placed = true

	flags := invalidVertices
	if nx, ny, nz := loc.Tile(); first || nx != ox || ny != oy || nz != oz {
		flags |= invalidDepth
	}
	o.invalid |= flags
	if first {
		s.addToQueue(o)
	}
	for _, cid := range o.children {
		c, ok := s.objects.Get(cid)
		if !ok {
			continue
		}
		if c.worn() || c.kind == KindSpeech {
			s.moveTree(c, loc)
		} else {
			s.invalidate(c, flags)
		}
	}
}

// invalidate marks o and its whole subtree.
func (s *Store) invalidate(o *Object, flags invalid) {
	o.invalid |= flags
	for _, cid := range o.children {
		if c, ok := s.objects.Get(cid); ok {
			s.invalidate(c, flags)
		}
	}
}

// SetArt changes the graphic and hue, invalidating the texture if needed.
func (s *Store) SetArt(o *Object, art, hue uint16) {
	if o.Art != art || o.Hue != hue {
		o.Art, o.Hue = art, hue
		o.invalid |= invalidTexture
	}
}

// SetVisible toggles the server-driven visibility flag.
func (s *Store) SetVisible(o *Object, v bool) { o.visible = v }

// SetIgnored toggles the local ignore flag.
func (s *Store) SetIgnored(o *Object, v bool) { o.ignored = v }

// MoveMobile applies a server position update. One-tile moves are smoothed;
// anything else teleports.
func (s *Store) MoveMobile(o *Object, loc Location, dir uint8, run bool) {
	if !loc.finite() || !s.inBounds(loc) {
		s.SetLocation(o, loc)
		return
	}
	from := o.loc
	if last, ok := s.smooth.Last(o.serial); ok {
		from = last
	}
	fx, fy, _ := from.Tile()
	tx, ty, _ := loc.Tile()
	if o.placed && abs(tx-fx) <= 1 && abs(ty-fy) <= 1 && (tx != fx || ty != fy) {
		s.smooth.Add(o.serial, from, loc, dir&dirMask, run)
		return
	}
	s.smooth.Clear(o.serial)
	o.Direction = dir & dirMask
	s.SetLocation(o, loc)
}

// Teleport snaps the player to loc and forgets walk state.
func (s *Store) Teleport(o *Object, loc Location, dir uint8) {
	s.smooth.Clear(o.serial)
	if s.IsPlayer(o) {
		s.walk.Reset()
	}
	o.Direction = dir & dirMask
	s.SetLocation(o, loc)
}

func (s *Store) applyStep(serial Serial, loc Location, dir uint8) {
	o, ok := s.BySerial(serial)
	if !ok {
		return
	}
	o.Direction = dir
	s.SetLocation(o, loc)
}

// setParent rejects self-parenting and cycles; the server's packet is then
// ignored.
func (s *Store) setParent(child, parent *Object) bool {
	if parent.deleted || s.isAncestor(child, parent) {
		s.log.Warn("rejected parent cycle",
			zap.Stringer("child", child.serial), zap.Stringer("parent", parent.serial))
		return false
	}
	s.detach(child)
	s.sectors.remove(child)
	child.parent = parent.id
	parent.children = append(parent.children, child.id)
	return true
}

// isAncestor reports whether a is o or one of o's parents.
func (s *Store) isAncestor(a, o *Object) bool {
	for cur := o; ; {
		if cur.id == a.id {
			return true
		}
		if cur.parent.IsZero() {
			return false
		}
		p, ok := s.objects.Get(cur.parent)
		if !ok {
			return false
		}
		cur = p
	}
}

func (s *Store) detach(o *Object) {
	if o.parent.IsZero() {
		return
	}
	if p, ok := s.objects.Get(o.parent); ok {
		p.removeChild(o.id)
	}
	o.parent = 0
}

// Equip puts an item on a mobile at the given layer. The item draws with
// its wearer. Returns false if the pairing would form a cycle.
func (s *Store) Equip(item, mobile *Object, layer uint8) bool {
	if !s.setParent(item, mobile) {
		return false
	}
	item.Item.Layer = layer
	item.invalid |= invalidAll
	if mobile.placed {
		s.moveTree(item, mobile.loc)
	}
	return true
}

// AddToContainer stores an item inside a container. Contained items are not
// part of the world scene. Returns false if the item is the container or
// one of its parents.
func (s *Store) AddToContainer(item, container *Object, x, y int) bool {
	if !s.setParent(item, container) {
		return false
	}
	s.removeFromQueues(item)
	item.Item.Layer = 0
	item.placed = false
	item.loc = Location{X: float64(x), Y: float64(y)}
	return true
}

// PlaceItem drops an item into the world, detaching it from any parent.
func (s *Store) PlaceItem(item *Object, loc Location) bool {
	if !item.parent.IsZero() {
		s.detach(item)
		item.Item.Layer = 0
		s.removeFromQueues(item)
		item.placed = false
	}
	return s.SetLocation(item, loc)
}

func (s *Store) addToQueue(o *Object) {
	if o.InQueue(s.queue) {
		return
	}
	o.queues = append(o.queues, s.queue)
	s.queue.Add(o.id)
}

func (s *Store) removeFromQueues(o *Object) {
	for _, q := range o.queues {
		q.Remove(o.id)
	}
	o.queues = nil
}

// DeleteObject removes the object with the given serial and everything it
// owns. Unknown serials are ignored.
func (s *Store) DeleteObject(serial Serial) bool {
	o, ok := s.BySerial(serial)
	if !ok {
		return false
	}
	s.teardown(o)
	return true
}

func (s *Store) teardown(o *Object) {
	if o.deleted {
		return
	}
	o.deleted = true
	s.detach(o)

	children := o.children
	o.children = nil
	for _, cid := range children {
		if c, ok := s.objects.Get(cid); ok {
			c.parent = 0
			s.teardown(c)
		}
	}

	s.removeFromQueues(o)
	s.sectors.remove(o)
	if o.serial != 0 {
		switch o.kind {
		case KindMobile:
			if s.mobiles[o.serial] == o.id {
				delete(s.mobiles, o.serial)
			}
		case KindDynamicItem:
			if s.items[o.serial] == o.id {
				delete(s.items, o.serial)
			}
		}
		s.smooth.Clear(o.serial)
	}
	if o.id == s.player {
		s.player = 0
	}
	s.objects.MarkForDestruction(o.id)
}

func (s *Store) spawnTerrain(kind Kind, art, hue uint16, loc Location, sec *Sector) ecs.EntityID {
	o := s.spawn(kind, 0)
	o.Art, o.Hue = art, hue
	o.loc = loc
	o.placed = true
	o.sector = sec
	s.updateRenderData(o)
	s.addToQueue(o)
	return o.id
}

// destroyNow frees sector geometry immediately.
func (s *Store) destroyNow(id ecs.EntityID) {
	if o, ok := s.objects.Get(id); ok {
		s.removeFromQueues(o)
		s.objects.Remove(id)
	}
}

// RenderKey implements render.Source.
func (s *Store) RenderKey(id ecs.EntityID) (int64, uint8, bool) {
	o, ok := s.objects.Get(id)
	if !ok || o.deleted {
		return 0, 0, false
	}
	if o.invalid&invalidDepth != 0 {
		o.render.Depth = o.computeDepth()
		o.invalid &^= invalidDepth
	}
	return o.render.Depth, o.tier(), true
}

// DetachQueue implements render.Source.
func (s *Store) DetachQueue(id ecs.EntityID, q *render.Queue) {
	if o, ok := s.objects.Get(id); ok {
		o.detachQueue(q)
	}
}

func (s *Store) updateRenderData(o *Object) {
	if o.invalid == 0 {
		return
	}
	var f render.Flags
	if o.invalid&invalidTexture != 0 {
		if s.textures == nil {
			o.invalid &^= invalidTexture
		} else if t := s.textures.Texture(o.kind, o.Art); t != nil {
			o.render.Texture = t
			o.invalid &^= invalidTexture
			o.invalid |= invalidVertices
			f |= render.WorldTextureChanged
		}
	}
	if o.invalid&invalidVertices != 0 {
		o.render.Vertices = o.computeVertices()
		o.invalid &^= invalidVertices
		f |= render.WorldCoordinatesChanged
	}
	if o.invalid&invalidDepth != 0 {
		if d := o.computeDepth(); d != o.render.Depth {
			o.render.Depth = d
			f |= render.WorldPriorityChanged
			s.sectors.RequestSort(o.sector)
		}
		o.invalid &^= invalidDepth
	}
	if f != 0 {
		for _, q := range o.queues {
			q.SetFlags(f)
		}
	}
}

func (s *Store) outOfRange(o *Object, px, py int) bool {
	x, y, _ := o.loc.Tile()
	r := s.EvictionRange()
	return abs(x-px) > r || abs(y-py) > r
}

// Step advances the world by elapsed milliseconds.
func (s *Store) Step(elapsed int64) {
	s.smooth.Update(elapsed, s.applyStep)

	p, hasPlayer := s.Player()
	hasPlayer = hasPlayer && p.placed
	var px, py int
	if hasPlayer {
		px, py, _ = p.loc.Tile()
		cell := sectorKeyOf(s.sectors.mapID, px, py)
		if !s.haveCell || cell != s.lastCell || s.sectors.HasStrays() {
			s.sectors.UpdateSectorList(px, py)
			s.lastCell, s.haveCell = cell, true
		}
	}

	s.objects.Each(func(id ecs.EntityID, o *Object) {
		if o.deleted {
			return
		}
		switch o.kind {
		case KindMobile, KindDynamicItem:
			if hasPlayer && o.placed && o.parent.IsZero() && id != s.player && s.outOfRange(o, px, py) {
				s.doomed = append(s.doomed, o.serial)
				return
			}
			s.updateRenderData(o)
		case KindMap, KindStatic:
			s.updateRenderData(o)
		case KindSpeech, KindParticleEffect, KindOsiEffect:
		default:
			panic(fmt.Sprintf("world: unhandled kind %s", o.kind))
		}
	})

	s.stepTransient(elapsed)
	s.syslog.Update(time.Duration(elapsed) * time.Millisecond)

	for _, serial := range s.doomed {
		s.DeleteObject(serial)
	}
	s.doomed = s.doomed[:0]
	s.objects.FlushDestroyQueue()

	s.sectors.SortDirty()
	s.walk.Update(elapsed)
}

func (s *Store) stepTransient(elapsed int64) {
	kept := s.transient[:0]
	for _, id := range s.transient {
		o, ok := s.objects.Get(id)
		if !ok || o.deleted {
			continue
		}
		o.age += elapsed
		if o.age >= o.lifetime {
			s.teardown(o)
			continue
		}
		if o.Effect.Type == packet.EffectMoving && o.kind != KindSpeech {
			f := float64(o.age) / float64(o.lifetime)
			from, to := o.Effect.From, o.Effect.To
			o.loc = Location{
				X: from.X + (to.X-from.X)*f,
				Y: from.Y + (to.Y-from.Y)*f,
				Z: from.Z + (to.Z-from.Z)*f,
			}
			o.invalid |= invalidVertices | invalidDepth
		}
		s.updateRenderData(o)
		kept = append(kept, id)
	}
	s.transient = kept
}

// AddSpeech shows text above its speaker. Speech from unknown or unplaced
// speakers goes to the system log instead.
func (s *Store) AddSpeech(speaker Serial, name, text string, typ byte, hue uint16) *Object {
	parent, ok := s.BySerial(speaker)
	if !ok || !parent.placed || parent.deleted {
		if name != "" && typ != packet.SpeechSystem {
			text = name + ": " + text
		}
		s.SystemMessage(text)
		return nil
	}
	o := s.spawn(KindSpeech, 0)
	o.Hue = hue
	o.Speech = SpeechState{Speaker: speaker, Name: name, Text: text, Type: typ}
	o.lifetime = s.opts.SpeechDuration.Milliseconds()
	s.setParent(o, parent)
	s.moveTree(o, parent.loc)
	s.updateRenderData(o)
	s.transient = append(s.transient, o.id)
	return o
}

// AddEffect spawns a short-lived graphical effect.
func (s *Store) AddEffect(e EffectState, art, hue uint16, lifetime time.Duration) *Object {
	if !e.From.finite() || !s.inBounds(e.From) {
		s.log.Warn("rejected effect location", zap.Stringer("from", e.From))
		return nil
	}
	kind := KindOsiEffect
	if e.Type == packet.EffectLightning {
		kind = KindParticleEffect
	}
	o := s.spawn(kind, 0)
	o.Art, o.Hue = art, hue
	o.Effect = e
	o.lifetime = lifetime.Milliseconds()
	if o.lifetime <= 0 {
		o.lifetime = 1
	}
	s.moveTree(o, e.From)
	s.updateRenderData(o)
	s.transient = append(s.transient, o.id)
	return o
}

// TransientCount reports live speech and effects.
func (s *Store) TransientCount() int { return len(s.transient) }

// SystemMessage records a client-side message and notifies the UI hook.
func (s *Store) SystemMessage(text string) {
	s.log.Info("system message", zap.String("text", text))
	s.syslog.Add(text)
	if s.onSystemMessage != nil {
		s.onSystemMessage(text)
	}
}

// WalkObjectsOn returns everything standing on world tile (x, y).
func (s *Store) WalkObjectsOn(x, y int) []*Object {
	return s.sectors.SectorForCoordinates(x, y).WalkObjectsOn(x, y)
}

func (s *Store) tileInfo(o *Object) TileInfo {
	if s.tiles == nil {
		return nil
	}
	if o.kind == KindMap {
		return s.tiles.Land(o.Art)
	}
	return s.tiles.Info(o.Art)
}

// RoofHeight returns the z of the lowest roof or surface above the player's
// head, or NoRoof.
func (s *Store) RoofHeight() int {
	p, ok := s.Player()
	if !ok || !p.placed || s.tiles == nil {
		return NoRoof
	}
	x, y, z := p.loc.Tile()
	roof := NoRoof
	for _, o := range s.WalkObjectsOn(x, y) {
		if o.kind != KindStatic && o.kind != KindDynamicItem {
			continue
		}
		info := s.tileInfo(o)
		if info == nil || !(info.Roof() || info.Surface()) {
			continue
		}
		if _, _, oz := o.loc.Tile(); oz >= z+personHeight && oz < roof {
			roof = oz
		}
	}
	return roof
}

// standHeight resolves the z a walker coming from fromZ would stand on at
// tile (x, y). Without tile data every tile is walkable at the same height.
func (s *Store) standHeight(x, y, fromZ int) (int, bool) {
	if !s.inBounds(Location{X: float64(x), Y: float64(y), Z: float64(fromZ)}) {
		return 0, false
	}
	if s.tiles == nil {
		return fromZ, true
	}
	objs := s.WalkObjectsOn(x, y)
	if len(objs) == 0 {
		return fromZ, true
	}
	best, found := 0, false
	for _, o := range objs {
		_, _, oz := o.loc.Tile()
		if o.kind == KindMobile {
			if oz+personHeight > fromZ && oz < fromZ+personHeight {
				return 0, false
			}
			continue
		}
		info := s.tileInfo(o)
		if info == nil {
			continue
		}
		top := oz + info.Height()
		if info.Impassable() {
			if oz < fromZ+personHeight && top > fromZ+maxClimb {
				return 0, false
			}
			continue
		}
		if o.kind != KindMap && !info.Surface() {
			continue
		}
		if top <= fromZ+maxClimb && (!found || top > best) {
			best, found = top, true
		}
	}
	if !found {
		return 0, false
	}
	return best, true
}

// OnMapChange switches maps: every object except the player's tree is
// dropped and the sector window reloads on the next step.
func (s *Store) OnMapChange(mapID uint8) {
	if mapID == s.sectors.mapID && s.haveCell {
		return
	}
	for _, ids := range []map[Serial]ecs.EntityID{s.mobiles, s.items} {
		for _, id := range ids {
			o, ok := s.objects.Get(id)
			if !ok || id == s.player || s.ownedByPlayer(o) {
				continue
			}
			s.teardown(o)
		}
	}
	s.smooth.Reset()
	s.walk.Reset()
	s.sectors.OnMapChange(mapID)
	s.haveCell = false
	if p, ok := s.Player(); ok {
		s.sectors.remove(p)
		if p.placed {
			s.sectors.place(p)
		}
	}
}

func (s *Store) ownedByPlayer(o *Object) bool {
	for id := o.parent; !id.IsZero(); {
		if id == s.player {
			return true
		}
		p, ok := s.objects.Get(id)
		if !ok {
			return false
		}
		id = p.parent
	}
	return false
}

// Clear drops the whole scene. The system log survives so the disconnect
// reason stays visible.
func (s *Store) Clear() {
	s.sectors.Clear()
	s.queue.Clear()
	s.objects.Clear()
	clear(s.mobiles)
	clear(s.items)
	s.player = 0
	s.transient = s.transient[:0]
	s.doomed = s.doomed[:0]
	s.smooth.Reset()
	s.walk.Reset()
	s.haveCell = false
	s.weather = Weather{}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
