package render

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uogo/client/internal/core/ecs"
)

type fakeObject struct {
	depth int64
	tier  uint8
}

type fakeSource struct {
	objects  map[ecs.EntityID]*fakeObject
	detached []ecs.EntityID
}

func newFakeSource() *fakeSource {
	return &fakeSource{objects: make(map[ecs.EntityID]*fakeObject)}
}

func (s *fakeSource) add(id ecs.EntityID, depth int64, tier uint8) {
	s.objects[id] = &fakeObject{depth: depth, tier: tier}
}

func (s *fakeSource) RenderKey(id ecs.EntityID) (int64, uint8, bool) {
	o, ok := s.objects[id]
	if !ok {
		return 0, 0, false
	}
	return o.depth, o.tier, true
}

func (s *fakeSource) DetachQueue(id ecs.EntityID, _ *Queue) {
	s.detached = append(s.detached, id)
}

func id(n uint32) ecs.EntityID { return ecs.NewEntityID(n, 1) }

func sync3(q *Queue) {
	q.ProcessRemoveList()
	q.ProcessAddList()
	q.Sort()
}

func TestQueueOrdersByDepthTierRecency(t *testing.T) {
	src := newFakeSource()
	src.add(id(1), 7, 0)
	src.add(id(2), 5, 3) // mobile
	src.add(id(3), 5, 2) // item on the same depth
	src.add(id(4), 5, 2) // later item on the same depth

	q := NewQueue("world", src)
	for _, n := range []uint32{1, 2, 3, 4} {
		q.Add(id(n))
	}
	sync3(q)

	assert.Equal(t, []ecs.EntityID{id(3), id(4), id(2), id(1)}, q.Items())
	keys := q.Keys()
	for i := 1; i < len(keys); i++ {
		assert.True(t, keys[i-1].Less(keys[i]), "strict order at %d", i)
	}
}

func TestQueueDeduplicates(t *testing.T) {
	src := newFakeSource()
	src.add(id(1), 1, 0)
	q := NewQueue("world", src)
	q.Add(id(1))
	q.Add(id(1))
	sync3(q)
	q.Add(id(1))
	sync3(q)
	assert.Equal(t, 1, q.Len())
}

func TestQueueRemoveCancelsPendingAdd(t *testing.T) {
	src := newFakeSource()
	src.add(id(1), 1, 0)
	src.add(id(2), 2, 0)
	q := NewQueue("world", src)
	q.Add(id(1))
	sync3(q)

	q.Add(id(2))
	q.Remove(id(2))
	q.Remove(id(1))
	sync3(q)
	assert.Zero(t, q.Len())
	assert.False(t, q.Contains(id(1)))
}

func TestQueueAddAfterRemoveWins(t *testing.T) {
	src := newFakeSource()
	src.add(id(1), 1, 0)
	src.add(id(2), 2, 0)
	q := NewQueue("world", src)
	q.Add(id(1))
	sync3(q)

	// a member taken out and put back in the same tick stays
	q.Remove(id(1))
	q.Add(id(1))
	// a newcomer removed and re-added is admitted
	q.Add(id(2))
	q.Remove(id(2))
	q.Add(id(2))
	sync3(q)

	assert.True(t, q.Contains(id(1)))
	assert.True(t, q.Contains(id(2)))
	assert.Equal(t, 2, q.Len())
}

func TestQueueSortDropsStaleHandles(t *testing.T) {
	src := newFakeSource()
	src.add(id(1), 1, 0)
	src.add(id(2), 2, 0)
	q := NewQueue("world", src)
	q.Add(id(1))
	q.Add(id(2))
	sync3(q)

	delete(src.objects, id(1))
	src.objects[id(2)].depth = -10
	q.Sort()
	assert.Equal(t, []ecs.EntityID{id(2)}, q.Items())
	assert.False(t, q.Contains(id(1)))
}

func TestQueueSkipsUnresolvableAdds(t *testing.T) {
	q := NewQueue("world", newFakeSource())
	q.Add(id(9))
	assert.False(t, q.ProcessAddList())
	assert.Zero(t, q.Len())
}

func TestQueueFlags(t *testing.T) {
	src := newFakeSource()
	src.add(id(1), 1, 0)
	q := NewQueue("world", src)
	assert.False(t, q.RequireWorldRepaint())

	q.SetFlags(WorldTextureChanged)
	q.SetFlags(WorldCoordinatesChanged)
	assert.Equal(t, WorldTextureChanged|WorldCoordinatesChanged, q.Flags())

	q.Add(id(1))
	require.True(t, q.ProcessAddList())
	assert.NotZero(t, q.Flags()&WorldPriorityChanged)

	q.ResetWorldRepaintIndicators()
	assert.False(t, q.RequireWorldRepaint())
}

func TestQueueClearDetachesMembers(t *testing.T) {
	src := newFakeSource()
	src.add(id(1), 1, 0)
	src.add(id(2), 2, 0)
	src.add(id(3), 3, 0)
	q := NewQueue("world", src)
	q.Add(id(1))
	q.Add(id(2))
	sync3(q)
	q.Add(id(3))

	q.Clear()
	assert.Zero(t, q.Len())
	assert.ElementsMatch(t, []ecs.EntityID{id(1), id(2), id(3)}, src.detached)
	assert.False(t, q.ProcessAddList())
}

func TestQueueConcurrentAdds(t *testing.T) {
	src := newFakeSource()
	for n := uint32(1); n <= 400; n++ {
		src.add(id(n), int64(n%17), uint8(n%5))
	}
	q := NewQueue("world", src)

	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for n := uint32(1); n <= 400; n++ {
				if int(n)%4 == g {
					q.Add(id(n))
				}
			}
		}(g)
	}
	wg.Wait()
	sync3(q)
	assert.Equal(t, 400, q.Len())
}
