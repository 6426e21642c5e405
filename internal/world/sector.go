package world

import (
	"sort"

	"go.uber.org/zap"

	"github.com/uogo/client/internal/core/ecs"
)

// SectorSize is the edge length of a sector in tiles. A sector is exactly
// one map block.
const SectorSize = 8

// SectorKey addresses a sector by map and sector coordinates.
type SectorKey struct {
	MapID uint8
	X, Y  int
}

func toSectorCoord(v int) int {
	if v < 0 {
		return (v - SectorSize + 1) / SectorSize
	}
	return v / SectorSize
}

func sectorKeyOf(mapID uint8, x, y int) SectorKey {
	return SectorKey{MapID: mapID, X: toSectorCoord(x), Y: toSectorCoord(y)}
}

// Sector holds the terrain and statics of one block plus back-references to
// the dynamic objects currently standing in it.
type Sector struct {
	Key SectorKey

	store    *Store
	mapTiles []ecs.EntityID
	statics  []ecs.EntityID
	dynamics map[ecs.EntityID]struct{}
	order    []ecs.EntityID // draw order after the last sort
	dirty    bool
}

func newSector(key SectorKey, store *Store) *Sector {
	return &Sector{
		Key:      key,
		store:    store,
		dynamics: make(map[ecs.EntityID]struct{}),
	}
}

func (s *Sector) addDynamic(id ecs.EntityID) {
	if _, ok := s.dynamics[id]; ok {
		return
	}
	s.dynamics[id] = struct{}{}
	s.order = append(s.order, id)
	s.dirty = true
}

func (s *Sector) removeDynamic(id ecs.EntityID) {
	if _, ok := s.dynamics[id]; !ok {
		return
	}
	delete(s.dynamics, id)
	for i, o := range s.order {
		if o == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// HasDynamic reports whether a dynamic object is registered here.
func (s *Sector) HasDynamic(id ecs.EntityID) bool {
	_, ok := s.dynamics[id]
	return ok
}

func (s *Sector) DynamicCount() int { return len(s.dynamics) }

// Objects returns every object of the sector in draw order.
func (s *Sector) Objects() []*Object {
	out := make([]*Object, 0, len(s.order))
	for _, id := range s.order {
		if o, ok := s.store.objects.Get(id); ok {
			out = append(out, o)
		}
	}
	return out
}

// WalkObjectsOn returns the terrain tile, statics and dynamics standing on
// world tile (x, y), in draw order.
func (s *Sector) WalkObjectsOn(x, y int) []*Object {
	var out []*Object
	for _, id := range s.order {
		o, ok := s.store.objects.Get(id)
		if !ok {
			continue
		}
		if ox, oy, _ := o.loc.Tile(); ox == x && oy == y {
			out = append(out, o)
		}
	}
	return out
}

func (s *Sector) sort() {
	objs := s.store.objects
	keys := make(map[ecs.EntityID]int64, len(s.order))
	tiers := make(map[ecs.EntityID]uint8, len(s.order))
	for _, id := range s.order {
		if o, ok := objs.Get(id); ok {
			keys[id] = o.computeDepth()
			tiers[id] = o.tier()
		}
	}
	sort.SliceStable(s.order, func(i, j int) bool {
		a, b := s.order[i], s.order[j]
		if keys[a] != keys[b] {
			return keys[a] < keys[b]
		}
		return tiers[a] < tiers[b]
	})
	s.dirty = false
}

// SectorManager owns the loaded sectors around the player. Sectors load
// lazily on first access and unload when they leave the cache window.
// Accessed only from the game loop goroutine.
type SectorManager struct {
	store  *Store
	source MapSource
	radius int
	mapID  uint8

	sectors map[SectorKey]*Sector
	window  struct {
		set        bool
		minX, minY int
		maxX, maxY int
	}
	strays   bool
	sortList []*Sector

	log *zap.Logger
}

func newSectorManager(store *Store, source MapSource, radius int, log *zap.Logger) *SectorManager {
	return &SectorManager{
		store:   store,
		source:  source,
		radius:  radius,
		sectors: make(map[SectorKey]*Sector),
		log:     log,
	}
}

func (m *SectorManager) MapID() uint8 { return m.mapID }

func (m *SectorManager) inWindow(k SectorKey) bool {
	w := &m.window
	return w.set && k.MapID == m.mapID &&
		k.X >= w.minX && k.X <= w.maxX && k.Y >= w.minY && k.Y <= w.maxY
}

// Sector returns a loaded sector without loading it.
func (m *SectorManager) Sector(k SectorKey) (*Sector, bool) {
	s, ok := m.sectors[k]
	return s, ok
}

// SectorForCoordinates returns the sector containing world tile (x, y),
// loading it if needed. A sector loaded outside the cache window is a stray
// and is pruned by the next UpdateSectorList.
func (m *SectorManager) SectorForCoordinates(x, y int) *Sector {
	k := sectorKeyOf(m.mapID, x, y)
	if s, ok := m.sectors[k]; ok {
		return s
	}
	s := m.load(k)
	if !m.inWindow(k) {
		m.strays = true
	}
	return s
}

// HasStrays reports loaded sectors outside the window.
func (m *SectorManager) HasStrays() bool { return m.strays }

func (m *SectorManager) load(k SectorKey) *Sector {
	s := newSector(k, m.store)
	m.sectors[k] = s
	if m.source == nil || k.X < 0 || k.Y < 0 {
		return s
	}
	block, err := m.source.LoadBlock(k.MapID, k.X, k.Y)
	if err != nil {
		m.log.Warn("map block unavailable",
			zap.Uint8("map", k.MapID), zap.Int("bx", k.X), zap.Int("by", k.Y), zap.Error(err))
		return s
	}

	baseX, baseY := k.X*SectorSize, k.Y*SectorSize
	s.mapTiles = make([]ecs.EntityID, 0, len(block.Tiles))
	for i, t := range block.Tiles {
		loc := Location{X: float64(baseX + i%SectorSize), Y: float64(baseY + i/SectorSize), Z: float64(t.Z)}
		id := m.store.spawnTerrain(KindMap, t.Art, 0, loc, s)
		s.mapTiles = append(s.mapTiles, id)
		s.order = append(s.order, id)
	}
	s.statics = make([]ecs.EntityID, 0, len(block.Statics))
	for _, st := range block.Statics {
		loc := Location{X: float64(baseX + int(st.X)), Y: float64(baseY + int(st.Y)), Z: float64(st.Z)}
		id := m.store.spawnTerrain(KindStatic, st.Art, st.Hue, loc, s)
		s.statics = append(s.statics, id)
		s.order = append(s.order, id)
	}
	m.RequestSort(s)
	return s
}

func (m *SectorManager) unload(s *Sector) {
	for id := range s.dynamics {
		if o, ok := m.store.objects.Get(id); ok && o.sector == s {
			o.sector = nil
		}
	}
	clear(s.dynamics)
	for _, id := range s.mapTiles {
		m.store.destroyNow(id)
	}
	for _, id := range s.statics {
		m.store.destroyNow(id)
	}
	s.mapTiles, s.statics, s.order = nil, nil, nil
	delete(m.sectors, s.Key)
}

// UpdateSectorList recomputes the window around world tile (x, y), loads the
// missing sectors and unloads the ones outside it.
func (m *SectorManager) UpdateSectorList(x, y int) {
	c := sectorKeyOf(m.mapID, x, y)
	w := &m.window
	w.set = true
	w.minX, w.maxX = c.X-m.radius, c.X+m.radius
	w.minY, w.maxY = c.Y-m.radius, c.Y+m.radius

	for k, s := range m.sectors {
		if !m.inWindow(k) {
			m.unload(s)
		}
	}
	for sy := w.minY; sy <= w.maxY; sy++ {
		for sx := w.minX; sx <= w.maxX; sx++ {
			if sx < 0 || sy < 0 {
				continue
			}
			k := SectorKey{MapID: m.mapID, X: sx, Y: sy}
			if _, ok := m.sectors[k]; !ok {
				m.load(k)
			}
		}
	}
	m.strays = false
}

// ActiveSectors returns the loaded sectors ordered by row, then column.
func (m *SectorManager) ActiveSectors() []*Sector {
	out := make([]*Sector, 0, len(m.sectors))
	for _, s := range m.sectors {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Key.Y != out[j].Key.Y {
			return out[i].Key.Y < out[j].Key.Y
		}
		return out[i].Key.X < out[j].Key.X
	})
	return out
}

// RequestSort marks a sector for the next batched sort pass.
func (m *SectorManager) RequestSort(s *Sector) {
	if s == nil || m.queued(s) {
		return
	}
	s.dirty = true
	m.sortList = append(m.sortList, s)
}

func (m *SectorManager) queued(s *Sector) bool {
	for _, q := range m.sortList {
		if q == s {
			return true
		}
	}
	return false
}

// SortDirty runs the batched sort pass.
func (m *SectorManager) SortDirty() int {
	n := 0
	for _, s := range m.sortList {
		if _, live := m.sectors[s.Key]; live && s.dirty {
			s.sort()
			n++
		}
	}
	m.sortList = m.sortList[:0]
	return n
}

// place registers a dynamic object in the sector under its tile, moving it
// out of its previous sector.
func (m *SectorManager) place(o *Object) {
	x, y, _ := o.loc.Tile()
	k := sectorKeyOf(m.mapID, x, y)
	if o.sector != nil && o.sector.Key == k {
		m.RequestSort(o.sector)
		return
	}
	m.remove(o)
	s := m.SectorForCoordinates(x, y)
	s.addDynamic(o.id)
	o.sector = s
	m.RequestSort(s)
}

func (m *SectorManager) remove(o *Object) {
	if o.sector != nil {
		o.sector.removeDynamic(o.id)
		o.sector = nil
	}
}

// OnMapChange drops every sector; the next update loads the new map.
func (m *SectorManager) OnMapChange(mapID uint8) {
	m.Clear()
	m.mapID = mapID
}

// Clear unloads every sector.
func (m *SectorManager) Clear() {
	for _, s := range m.sectors {
		m.unload(s)
	}
	m.window.set = false
	m.strays = false
	m.sortList = m.sortList[:0]
}

func (m *SectorManager) Len() int { return len(m.sectors) }
