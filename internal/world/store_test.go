package world

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/uogo/client/internal/core/ecs"
	"github.com/uogo/client/internal/net/packet"
	"github.com/uogo/client/internal/render"
)

type sentPackets struct {
	list []packet.Encoder
}

func (s *sentPackets) Send(p packet.Encoder) error {
	s.list = append(s.list, p)
	return nil
}

func (s *sentPackets) moves() []*packet.MoveRequest {
	var out []*packet.MoveRequest
	for _, p := range s.list {
		if m, ok := p.(*packet.MoveRequest); ok {
			out = append(out, m)
		}
	}
	return out
}

type tileInfo struct {
	roof, surface, impassable bool
	height                    int
}

func (t tileInfo) Roof() bool       { return t.roof }
func (t tileInfo) Surface() bool    { return t.surface }
func (t tileInfo) Impassable() bool { return t.impassable }
func (t tileInfo) Height() int      { return t.height }

type fakeTiles map[uint16]tileInfo

func (f fakeTiles) Info(art uint16) TileInfo {
	if t, ok := f[art]; ok {
		return t
	}
	return nil
}

func (f fakeTiles) Land(uint16) TileInfo { return tileInfo{} }

// flatMap returns grass at z 0 everywhere plus the given statics, keyed by
// block coordinates.
type flatMap struct {
	statics map[[2]int][]StaticTile
	loads   int
}

func (m *flatMap) LoadBlock(_ uint8, bx, by int) (MapBlock, error) {
	m.loads++
	var b MapBlock
	for i := range b.Tiles {
		b.Tiles[i] = MapTile{Art: 3}
	}
	b.Statics = m.statics[[2]int{bx, by}]
	return b, nil
}

type brokenMap struct{}

func (brokenMap) LoadBlock(uint8, int, int) (MapBlock, error) {
	return MapBlock{}, errors.New("no such block")
}

func newTestStore(t *testing.T, assets Assets) (*Store, *sentPackets) {
	t.Helper()
	out := &sentPackets{}
	s, err := NewStore(Options{
		AutoDeleteRange:   18,
		SectorCacheRadius: 3,
		SpeechDuration:    time.Second,
	}, assets, out, zap.NewNop())
	require.NoError(t, err)
	return s, out
}

func syncQueue(q *render.Queue) {
	q.ProcessRemoveList()
	q.ProcessAddList()
	q.Sort()
}

func at(x, y, z float64) Location { return Location{X: x, Y: y, Z: z} }

func placePlayer(t *testing.T, s *Store, serial Serial, loc Location) *Object {
	t.Helper()
	p := s.InitPlayer(serial)
	require.True(t, s.SetLocation(p, loc))
	return p
}

func TestNewStoreRejectsSmallCacheRadius(t *testing.T) {
	_, err := NewStore(Options{AutoDeleteRange: 18, SectorCacheRadius: 2}, Assets{}, nil, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not cover")

	_, err = NewStore(Options{AutoDeleteRange: 0, SectorCacheRadius: 3}, Assets{}, nil, zap.NewNop())
	assert.Error(t, err)
}

func TestGetOrCreateIsIdempotent(t *testing.T) {
	s, _ := newTestStore(t, Assets{})

	m1 := s.GetOrCreateMobile(0x10)
	m2 := s.GetOrCreateMobile(0x10)
	assert.Same(t, m1, m2)
	assert.Equal(t, KindMobile, m1.Kind())

	i1 := s.GetOrCreateDynamicItem(0x40000001)
	assert.Same(t, i1, s.GetOrCreateDynamicItem(0x40000001))
	assert.Equal(t, uint16(1), i1.Item.Amount)

	_, ok := s.Mobile(0x11)
	assert.False(t, ok)
	_, ok = s.DynamicItem(0x10)
	assert.False(t, ok, "maps are separate")
	assert.Equal(t, 1, s.MobileCount())
	assert.Equal(t, 1, s.ItemCount())
}

func TestInitPlayerSendsStatQuery(t *testing.T) {
	s, out := newTestStore(t, Assets{})
	p := s.InitPlayer(0x1234)

	got, ok := s.Player()
	require.True(t, ok)
	assert.Same(t, p, got)
	require.Len(t, out.list, 1)
	q, ok := out.list[0].(*packet.StatSkillQuery)
	require.True(t, ok)
	assert.Equal(t, packet.QueryStats, q.Type)
	assert.Equal(t, uint32(0x1234), q.Serial)
}

func TestDeleteObjectScenario(t *testing.T) {
	s, _ := newTestStore(t, Assets{})
	placePlayer(t, s, 1, at(100, 100, 0))

	m := s.GetOrCreateMobile(0x100)
	require.True(t, s.SetLocation(m, at(105, 100, 0)))
	robe := s.GetOrCreateDynamicItem(0x40000010)
	s.Equip(robe, m, 0x16)
	speech := s.AddSpeech(0x100, "Bob", "hail", packet.SpeechRegular, 0)
	require.NotNil(t, speech)
	s.MoveMobile(m, at(106, 100, 0), DirEast, false)
	require.True(t, s.Smooth().Has(0x100))

	s.Step(0)
	syncQueue(s.Queue())
	q := s.Queue()
	require.True(t, q.Contains(m.ID()))
	require.True(t, q.Contains(robe.ID()))
	sec := m.Sector()
	require.NotNil(t, sec)
	require.True(t, sec.HasDynamic(m.ID()))

	assert.True(t, s.DeleteObject(0x100))

	_, ok := s.Mobile(0x100)
	assert.False(t, ok)
	_, ok = s.DynamicItem(0x40000010)
	assert.False(t, ok, "worn items go with their wearer")
	assert.False(t, sec.HasDynamic(m.ID()))
	assert.False(t, s.Smooth().Has(0x100))

	syncQueue(q)
	assert.False(t, q.Contains(m.ID()))
	assert.False(t, q.Contains(robe.ID()))
	assert.False(t, q.Contains(speech.ID()))

	s.Step(0)
	_, ok = s.Object(m.ID())
	assert.False(t, ok)
	assert.Zero(t, s.TransientCount())
}

func TestDeleteObjectIdempotent(t *testing.T) {
	s, _ := newTestStore(t, Assets{})
	item := s.GetOrCreateDynamicItem(0x40000001)
	require.True(t, s.SetLocation(item, at(5, 5, 0)))

	assert.True(t, s.DeleteObject(0x40000001))
	assert.False(t, s.DeleteObject(0x40000001))
	assert.False(t, s.DeleteObject(0xDEAD), "unknown serial is a no-op")
	s.Step(0)
	assert.False(t, s.DeleteObject(0x40000001))
	assert.Zero(t, s.ItemCount())

	again := s.GetOrCreateDynamicItem(0x40000001)
	assert.NotEqual(t, item.ID(), again.ID(), "serials may be reused with a fresh handle")
}

func TestStepEvictsOutOfRange(t *testing.T) {
	s, _ := newTestStore(t, Assets{})
	placePlayer(t, s, 1, at(200, 200, 0))
	r := s.EvictionRange()
	require.Equal(t, 20, r)

	for i, dx := range []int{0, 5, r, r + 1, 40} {
		m := s.GetOrCreateMobile(Serial(0x100 + i))
		require.True(t, s.SetLocation(m, at(float64(200+dx), 200, 0)))
		it := s.GetOrCreateDynamicItem(Serial(0x40000100 + i))
		require.True(t, s.SetLocation(it, at(200, float64(200-dx), 0)))
	}
	far := s.GetOrCreateMobile(0x300)
	require.True(t, s.SetLocation(far, at(260, 260, 0)))
	bag := s.GetOrCreateDynamicItem(0x40000300)
	s.AddToContainer(bag, far, 10, 10)
	carried := s.GetOrCreateDynamicItem(0x40000301)
	s.AddToContainer(carried, s.GetOrCreateDynamicItem(0x40000302), 1, 1)

	s.Step(16)

	p, _ := s.Player()
	px, py, _ := p.Location().Tile()
	for serial := range s.mobiles {
		o, _ := s.Mobile(serial)
		x, y, _ := o.Location().Tile()
		assert.LessOrEqual(t, abs(x-px), r, "mobile %s", serial)
		assert.LessOrEqual(t, abs(y-py), r, "mobile %s", serial)
	}
	for serial := range s.items {
		o, _ := s.DynamicItem(serial)
		if !o.Parent().IsZero() {
			continue
		}
		if !o.Placed() {
			continue
		}
		x, y, _ := o.Location().Tile()
		assert.LessOrEqual(t, abs(x-px), r, "item %s", serial)
		assert.LessOrEqual(t, abs(y-py), r, "item %s", serial)
	}

	_, ok := s.Mobile(0x102)
	assert.True(t, ok, "exactly at range stays")
	_, ok = s.Mobile(0x103)
	assert.False(t, ok)
	_, ok = s.Mobile(0x300)
	assert.False(t, ok)
	_, ok = s.DynamicItem(0x40000300)
	assert.False(t, ok, "contents go with an evicted owner")
	_, ok = s.DynamicItem(0x40000301)
	assert.True(t, ok, "parented items are exempt")
	_, ok = s.Player()
	assert.True(t, ok)
}

func TestActiveWindowInvariant(t *testing.T) {
	maps := &flatMap{}
	s, _ := newTestStore(t, Assets{Maps: maps})
	p := placePlayer(t, s, 1, at(100, 100, 0))

	check := func() {
		t.Helper()
		x, y, _ := p.Location().Tile()
		c := sectorKeyOf(0, x, y)
		sectors := s.Sectors().ActiveSectors()
		assert.Len(t, sectors, 49)
		for _, sec := range sectors {
			assert.LessOrEqual(t, abs(sec.Key.X-c.X), 3)
			assert.LessOrEqual(t, abs(sec.Key.Y-c.Y), 3)
		}
		assert.False(t, s.Sectors().HasStrays())
	}

	s.Step(0)
	check()

	require.True(t, s.SetLocation(p, at(400, 380, 0)))
	s.Step(0)
	check()

	s.Sectors().SectorForCoordinates(2000, 2000)
	assert.True(t, s.Sectors().HasStrays())
	s.Step(0)
	check()
	_, ok := s.Sectors().Sector(sectorKeyOf(0, 2000, 2000))
	assert.False(t, ok)
}

func TestWindowClipsAtMapEdge(t *testing.T) {
	s, _ := newTestStore(t, Assets{Maps: &flatMap{}})
	placePlayer(t, s, 1, at(3, 3, 0))
	s.Step(0)
	for _, sec := range s.Sectors().ActiveSectors() {
		assert.GreaterOrEqual(t, sec.Key.X, 0)
		assert.GreaterOrEqual(t, sec.Key.Y, 0)
	}
	assert.Len(t, s.Sectors().ActiveSectors(), 16)
}

func TestUnloadKeepsDynamics(t *testing.T) {
	maps := &flatMap{}
	s, _ := newTestStore(t, Assets{Maps: maps})
	p := placePlayer(t, s, 1, at(100, 100, 0))
	m := s.GetOrCreateMobile(0x20)
	require.True(t, s.SetLocation(m, at(110, 100, 0)))
	s.Step(0)
	old := m.Sector()
	require.NotNil(t, old)

	// Player jumps far enough that the mobile's sector leaves the window but
	// the mobile has not been evicted yet.
	require.True(t, s.SetLocation(p, at(100, 140, 0)))
	s.Sectors().UpdateSectorList(100, 140)
	assert.Nil(t, m.Sector(), "back-reference cleared on unload")
	_, ok := s.Mobile(0x20)
	assert.True(t, ok, "dynamic objects survive sector unload")
}

func TestBrokenMapSourceYieldsEmptySectors(t *testing.T) {
	s, _ := newTestStore(t, Assets{Maps: brokenMap{}})
	placePlayer(t, s, 1, at(100, 100, 0))
	s.Step(0)
	assert.Len(t, s.Sectors().ActiveSectors(), 49)
}

func TestSectorSortByDepth(t *testing.T) {
	s, _ := newTestStore(t, Assets{})
	high := s.GetOrCreateDynamicItem(0x40000001)
	require.True(t, s.SetLocation(high, at(3, 3, 7)))
	low := s.GetOrCreateDynamicItem(0x40000002)
	require.True(t, s.SetLocation(low, at(3, 3, 5)))
	mob := s.GetOrCreateMobile(0x05)
	require.True(t, s.SetLocation(mob, at(3, 3, 5)))

	sec := low.Sector()
	require.Same(t, sec, high.Sector())

	s.Step(0)
	var order []Serial
	for _, o := range sec.Objects() {
		order = append(order, o.Serial())
	}
	assert.Equal(t, []Serial{0x40000002, 0x05, 0x40000001}, order)

	syncQueue(s.Queue())
	assert.Equal(t, []Serial{0x40000002, 0x05, 0x40000001}, queueSerials(s))
	assert.Equal(t, low.computeDepth()+2, high.computeDepth())
}

func queueSerials(s *Store) []Serial {
	var out []Serial
	s.Queue().Each(func(id ecs.EntityID) bool {
		if o, ok := s.Object(id); ok && o.Serial() != 0 {
			out = append(out, o.Serial())
		}
		return true
	})
	return out
}

func TestQueueSortedAndUniqueAfterStep(t *testing.T) {
	s, _ := newTestStore(t, Assets{Maps: &flatMap{}})
	p := placePlayer(t, s, 1, at(50, 50, 0))
	for i := 0; i < 30; i++ {
		m := s.GetOrCreateMobile(Serial(0x100 + i))
		require.True(t, s.SetLocation(m, at(float64(40+i%15), float64(45+i%7), float64(i%3))))
	}
	s.Step(0)
	s.MoveMobile(p, at(51, 50, 0), DirEast, false)
	s.Step(50)
	syncQueue(s.Queue())

	keys := s.Queue().Keys()
	for i := 1; i < len(keys); i++ {
		require.True(t, keys[i-1].Less(keys[i]), "strict order at %d", i)
	}
	seen := map[ecs.EntityID]bool{}
	for _, id := range s.Queue().Items() {
		require.False(t, seen[id], "duplicate %s", id)
		seen[id] = true
	}
}

func TestRejectsMalformedLocations(t *testing.T) {
	s, _ := newTestStore(t, Assets{})
	s.SetMapSize(100, 100)
	m := s.GetOrCreateMobile(0x10)

	for _, loc := range []Location{
		at(math.NaN(), 1, 0),
		at(1, math.Inf(1), 0),
		at(1, 1, math.Inf(-1)),
		at(150, 10, 0),
		at(-1, 10, 0),
		at(10, 10, 200),
	} {
		assert.False(t, s.SetLocation(m, loc), "%v", loc)
	}
	assert.False(t, m.Placed())
	assert.Nil(t, m.Sector())
	assert.False(t, m.InQueue(s.Queue()))

	require.True(t, s.SetLocation(m, at(10, 10, 0)))
	assert.False(t, s.SetLocation(m, at(math.NaN(), 10, 0)))
	x, y, _ := m.Location().Tile()
	assert.Equal(t, [2]int{10, 10}, [2]int{x, y}, "previous location kept")
}

func TestWornItemFollowsWearer(t *testing.T) {
	s, _ := newTestStore(t, Assets{})
	m := s.GetOrCreateMobile(0x10)
	require.True(t, s.SetLocation(m, at(10, 10, 0)))
	helm := s.GetOrCreateDynamicItem(0x40000001)
	require.True(t, s.Equip(helm, m, 0x06))
	s.Step(16)
	syncQueue(s.Queue())
	assert.True(t, s.Queue().Contains(helm.ID()))

	assert.Equal(t, m.ID(), helm.Parent())
	assert.Equal(t, []ecs.EntityID{helm.ID()}, m.Children())
	assert.Nil(t, helm.Sector(), "worn items are not in sectors")
	assert.Equal(t, KindMobile.Tier()+0x06, helm.tier())

	require.True(t, s.SetLocation(m, at(12, 11, 0)))
	assert.Equal(t, m.Location(), helm.Location())
	assert.NotZero(t, helm.invalid&invalidDepth)

	require.True(t, s.PlaceItem(helm, at(20, 20, 0)))
	assert.True(t, helm.Parent().IsZero())
	assert.Empty(t, m.Children())
	assert.NotNil(t, helm.Sector())
	s.Step(16)
	syncQueue(s.Queue())
	assert.True(t, helm.InQueue(s.Queue()))
	assert.True(t, s.Queue().Contains(helm.ID()), "dropped item stays in the scene")

	require.True(t, s.SetLocation(helm, at(21, 20, 0)))
	s.Step(16)
	syncQueue(s.Queue())
	assert.True(t, s.Queue().Contains(helm.ID()))
}

func TestSerialBelongsToOneCategory(t *testing.T) {
	s, _ := newTestStore(t, Assets{})
	m := s.GetOrCreateMobile(0x12345)
	require.True(t, s.SetLocation(m, at(10, 10, 0)))

	it := s.GetOrCreateDynamicItem(0x12345)
	assert.Equal(t, KindDynamicItem, it.Kind())
	assert.Zero(t, s.MobileCount())
	assert.Equal(t, 1, s.ItemCount())
	assert.Nil(t, m.Sector(), "the mobile was torn down")

	assert.True(t, s.DeleteObject(0x12345))
	assert.False(t, s.DeleteObject(0x12345))
	assert.Zero(t, s.MobileCount()+s.ItemCount())

	s.GetOrCreateDynamicItem(0x777)
	s.GetOrCreateMobile(0x777)
	assert.Equal(t, 1, s.MobileCount())
	assert.Zero(t, s.ItemCount())
}

func TestParentCyclesAreRejected(t *testing.T) {
	s, _ := newTestStore(t, Assets{})
	placePlayer(t, s, 0x01, at(10, 10, 0))
	a := s.GetOrCreateDynamicItem(0x40000001)
	b := s.GetOrCreateDynamicItem(0x40000002)
	c := s.GetOrCreateDynamicItem(0x40000003)

	assert.False(t, s.AddToContainer(a, a, 0, 0), "self container")
	assert.True(t, a.Parent().IsZero())

	require.True(t, s.AddToContainer(a, b, 0, 0))
	require.True(t, s.AddToContainer(b, c, 0, 0))
	assert.False(t, s.AddToContainer(c, a, 0, 0), "c holds a through b")
	assert.True(t, c.Parent().IsZero())
	assert.False(t, s.Equip(b, a, 0x15), "b already holds a")

	done := make(chan struct{})
	go func() {
		s.OnMapChange(1)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("map change did not finish")
	}
	_, ok := s.DynamicItem(0x40000001)
	assert.False(t, ok)
}

func TestMoveMobileSmoothsSingleSteps(t *testing.T) {
	s, _ := newTestStore(t, Assets{})
	m := s.GetOrCreateMobile(0x10)
	require.True(t, s.SetLocation(m, at(10, 10, 0)))

	s.MoveMobile(m, at(11, 10, 0), DirEast, false)
	assert.True(t, s.Smooth().Has(0x10))
	s.Step(100)
	assert.InDelta(t, 10.5, m.Location().X, 1e-9)
	x, _, _ := m.Location().Tile()
	assert.Equal(t, 11, x, "game tile is the ceiling")
	s.Step(100)
	assert.Equal(t, at(11, 10, 0), m.Location())
	assert.False(t, s.Smooth().Has(0x10))

	s.MoveMobile(m, at(30, 30, 0), DirSouth, true)
	assert.False(t, s.Smooth().Has(0x10))
	assert.Equal(t, at(30, 30, 0), m.Location())
	assert.Equal(t, DirSouth, m.Direction)
}

func TestSpeechLifecycle(t *testing.T) {
	s, _ := newTestStore(t, Assets{})
	var hooked []string
	s.OnSystemMessage(func(text string) { hooked = append(hooked, text) })

	m := s.GetOrCreateMobile(0x10)
	require.True(t, s.SetLocation(m, at(10, 10, 0)))
	sp := s.AddSpeech(0x10, "Bob", "hello", packet.SpeechRegular, 0x3B2)
	require.NotNil(t, sp)
	assert.Equal(t, m.ID(), sp.Parent())
	assert.Equal(t, 1, s.TransientCount())

	s.Step(500)
	assert.Equal(t, 1, s.TransientCount())
	s.Step(600)
	assert.Zero(t, s.TransientCount())
	assert.Empty(t, m.Children())

	assert.Nil(t, s.AddSpeech(0x99, "Ghost", "boo", packet.SpeechRegular, 0))
	assert.Equal(t, []string{"Ghost: boo"}, hooked)
	require.Equal(t, 1, s.SystemLog().Len())
}

func TestEffectsExpireAndMove(t *testing.T) {
	s, _ := newTestStore(t, Assets{})
	e := s.AddEffect(EffectState{Type: packet.EffectMoving, From: at(0, 0, 0), To: at(10, 0, 0)}, 0x36D4, 0, time.Second)
	require.NotNil(t, e)
	assert.Equal(t, KindOsiEffect, e.Kind())

	s.Step(500)
	assert.InDelta(t, 5, e.Location().X, 1e-9)
	s.Step(500)
	assert.Zero(t, s.TransientCount())

	l := s.AddEffect(EffectState{Type: packet.EffectLightning, From: at(1, 1, 0)}, 0, 0, 0)
	require.NotNil(t, l)
	assert.Equal(t, KindParticleEffect, l.Kind())
	assert.Nil(t, s.AddEffect(EffectState{From: at(math.NaN(), 0, 0)}, 0, 0, time.Second))
}

func TestRoofHeight(t *testing.T) {
	maps := &flatMap{statics: map[[2]int][]StaticTile{
		{1, 1}: {{Art: 0x100, X: 2, Y: 2, Z: 20}, {Art: 0x101, X: 2, Y: 2, Z: 40}, {Art: 0x200, X: 3, Y: 2, Z: 10}},
	}}
	tiles := fakeTiles{
		0x100: {roof: true},
		0x101: {roof: true},
		0x200: {roof: true},
	}
	s, _ := newTestStore(t, Assets{Maps: maps, Tiles: tiles})
	assert.Equal(t, NoRoof, s.RoofHeight())

	p := placePlayer(t, s, 1, at(10, 10, 0))
	s.Step(0)
	assert.Equal(t, 20, s.RoofHeight())

	require.True(t, s.SetLocation(p, at(11, 10, 0)))
	assert.Equal(t, NoRoof, s.RoofHeight(), "roof below head height is ignored")
}

func TestClearDropsScene(t *testing.T) {
	s, _ := newTestStore(t, Assets{Maps: &flatMap{}})
	placePlayer(t, s, 1, at(100, 100, 0))
	m := s.GetOrCreateMobile(0x10)
	require.True(t, s.SetLocation(m, at(101, 100, 0)))
	s.SystemMessage("still here")
	s.Step(0)
	syncQueue(s.Queue())
	require.NotZero(t, s.Queue().Len())

	s.Clear()
	syncQueue(s.Queue())
	assert.Zero(t, s.Queue().Len())
	assert.Zero(t, s.MobileCount())
	assert.Zero(t, s.Sectors().Len())
	_, ok := s.Player()
	assert.False(t, ok)
	_, ok = s.Object(m.ID())
	assert.False(t, ok)
	assert.Equal(t, 1, s.SystemLog().Len())
	assert.True(t, s.Queue().RequireWorldRepaint())
}

func TestMapChangeKeepsPlayerTree(t *testing.T) {
	s, _ := newTestStore(t, Assets{Maps: &flatMap{}})
	p := placePlayer(t, s, 1, at(100, 100, 0))
	pack := s.GetOrCreateDynamicItem(0x40000001)
	s.Equip(pack, p, 0x15)
	other := s.GetOrCreateMobile(0x10)
	require.True(t, s.SetLocation(other, at(101, 100, 0)))
	s.Step(0)

	s.OnMapChange(1)
	assert.Equal(t, uint8(1), s.Sectors().MapID())
	_, ok := s.Mobile(0x10)
	assert.False(t, ok)
	_, ok = s.DynamicItem(0x40000001)
	assert.True(t, ok)
	require.NotNil(t, p.Sector())
	assert.Equal(t, uint8(1), p.Sector().Key.MapID)
	s.Step(0)
	for _, sec := range s.Sectors().ActiveSectors() {
		assert.Equal(t, uint8(1), sec.Key.MapID)
	}
}

func TestRenderDataFlags(t *testing.T) {
	s, _ := newTestStore(t, Assets{Textures: fixedTextures{w: 44, h: 60}})
	m := s.GetOrCreateMobile(0x10)
	require.True(t, s.SetLocation(m, at(10, 10, 0)))
	s.Step(0)
	syncQueue(s.Queue())

	f := s.Queue().Flags()
	assert.NotZero(t, f&render.WorldTextureChanged)
	assert.NotZero(t, f&render.WorldCoordinatesChanged)
	require.NotNil(t, m.RenderData().Texture)
	assert.Equal(t, float64(60), m.RenderData().Vertices.H)
	s.Queue().ResetWorldRepaintIndicators()

	s.Step(0)
	assert.False(t, s.Queue().RequireWorldRepaint(), "nothing changed")

	require.True(t, s.SetLocation(m, at(11, 10, 0)))
	s.Step(0)
	assert.NotZero(t, s.Queue().Flags()&render.WorldPriorityChanged)
}

type fixedTextures struct{ w, h int }

func (f fixedTextures) Texture(Kind, uint16) Texture { return f }
func (f fixedTextures) Width() int                   { return f.w }
func (f fixedTextures) Height() int                  { return f.h }

func TestVisibleHonoursIgnore(t *testing.T) {
	s, _ := newTestStore(t, Assets{})
	m := s.GetOrCreateMobile(0x10)
	assert.True(t, m.Visible())
	s.SetIgnored(m, true)
	assert.False(t, m.Visible())
	s.SetIgnored(m, false)
	s.SetVisible(m, false)
	assert.False(t, m.Visible())
}
