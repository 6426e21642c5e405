package render

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/uogo/client/internal/core/ecs"
)

// Flags tell the renderer what changed since it last consumed the queue.
// Mutation code only ORs flags in; the consumer resets them.
type Flags uint32

const (
	WorldTextureChanged Flags = 1 << iota
	WorldCoordinatesChanged
	WorldPriorityChanged
	ForceRepaint
)

// Source resolves queue members. RenderKey returns ok=false for handles that
// no longer resolve; such members are dropped on the next Sort.
type Source interface {
	RenderKey(id ecs.EntityID) (depth int64, tier uint8, ok bool)
	DetachQueue(id ecs.EntityID, q *Queue)
}

// Key orders queue members: depth ascending, then type tier, then insertion
// order (later insertions draw on top).
type Key struct {
	Depth int64
	Tier  uint8
	Seq   uint64
}

func (a Key) Less(b Key) bool {
	if a.Depth != b.Depth {
		return a.Depth < b.Depth
	}
	if a.Tier != b.Tier {
		return a.Tier < b.Tier
	}
	return a.Seq < b.Seq
}

type entry struct {
	id  ecs.EntityID
	key Key
}

// Queue is the ordered draw list. Add and Remove only append to pending
// lists and may be called from any goroutine; everything else belongs to the
// owning goroutine.
type Queue struct {
	name string
	src  Source

	mu         sync.Mutex
	addList    []ecs.EntityID
	removeList []ecs.EntityID

	items   []entry
	members map[ecs.EntityID]uint64 // id -> insertion seq
	nextSeq uint64

	flags atomic.Uint32
}

func NewQueue(name string, src Source) *Queue {
	return &Queue{
		name:    name,
		src:     src,
		members: make(map[ecs.EntityID]uint64, 1024),
	}
}

func (q *Queue) Name() string { return q.name }

// Add queues id for admission. It cancels an earlier pending Remove of the
// same id, so the latest call wins.
func (q *Queue) Add(id ecs.EntityID) {
	q.mu.Lock()
	q.removeList = without(q.removeList, id)
	q.addList = append(q.addList, id)
	q.mu.Unlock()
}

// Remove queues id for removal and cancels any earlier pending Add.
func (q *Queue) Remove(id ecs.EntityID) {
	q.mu.Lock()
	q.addList = without(q.addList, id)
	q.removeList = append(q.removeList, id)
	q.mu.Unlock()
}

func without(list []ecs.EntityID, id ecs.EntityID) []ecs.EntityID {
	kept := list[:0]
	for _, v := range list {
		if v != id {
			kept = append(kept, v)
		}
	}
	return kept
}

// ProcessRemoveList drops every pending removal. Returns true if any member
// left the queue.
func (q *Queue) ProcessRemoveList() bool {
	q.mu.Lock()
	removed := q.removeList
	q.removeList = nil
	q.mu.Unlock()

	changed := false
	for _, id := range removed {
		if _, ok := q.members[id]; ok {
			delete(q.members, id)
			changed = true
		}
	}
	if changed {
		q.compact()
		q.SetFlags(ForceRepaint)
	}
	return changed
}

// ProcessAddList admits pending additions. Duplicates and handles that no
// longer resolve are skipped. Returns true if the queue needs a sort.
func (q *Queue) ProcessAddList() bool {
	q.mu.Lock()
	added := q.addList
	q.addList = nil
	q.mu.Unlock()

	changed := false
	for _, id := range added {
		if _, dup := q.members[id]; dup {
			continue
		}
		depth, tier, ok := q.src.RenderKey(id)
		if !ok {
			continue
		}
		q.nextSeq++
		q.members[id] = q.nextSeq
		q.items = append(q.items, entry{id: id, key: Key{Depth: depth, Tier: tier, Seq: q.nextSeq}})
		changed = true
	}
	if changed {
		q.SetFlags(WorldPriorityChanged)
	}
	return changed
}

// Sort refreshes every member's key and restores the order.
func (q *Queue) Sort() {
	stale := false
	for i := range q.items {
		e := &q.items[i]
		depth, tier, ok := q.src.RenderKey(e.id)
		if !ok {
			delete(q.members, e.id)
			stale = true
			continue
		}
		e.key.Depth, e.key.Tier = depth, tier
	}
	if stale {
		q.compact()
	}
	sort.Slice(q.items, func(i, j int) bool {
		return q.items[i].key.Less(q.items[j].key)
	})
}

// compact drops items that are no longer members.
func (q *Queue) compact() {
	kept := q.items[:0]
	for _, e := range q.items {
		if seq, ok := q.members[e.id]; ok && seq == e.key.Seq {
			kept = append(kept, e)
		}
	}
	for i := len(kept); i < len(q.items); i++ {
		q.items[i] = entry{}
	}
	q.items = kept
}

func (q *Queue) Contains(id ecs.EntityID) bool {
	_, ok := q.members[id]
	return ok
}

func (q *Queue) Len() int { return len(q.items) }

// Each visits members in draw order. Stop early by returning false.
func (q *Queue) Each(fn func(id ecs.EntityID) bool) {
	for _, e := range q.items {
		if !fn(e.id) {
			return
		}
	}
}

// Items returns a copy of the members in draw order.
func (q *Queue) Items() []ecs.EntityID {
	out := make([]ecs.EntityID, len(q.items))
	for i, e := range q.items {
		out[i] = e.id
	}
	return out
}

// Keys returns a copy of the member keys in draw order.
func (q *Queue) Keys() []Key {
	out := make([]Key, len(q.items))
	for i, e := range q.items {
		out[i] = e.key
	}
	return out
}

func (q *Queue) SetFlags(f Flags) {
	for {
		old := q.flags.Load()
		if q.flags.CompareAndSwap(old, old|uint32(f)) {
			return
		}
	}
}

func (q *Queue) Flags() Flags { return Flags(q.flags.Load()) }

// RequireWorldRepaint reports whether anything changed since the last reset.
func (q *Queue) RequireWorldRepaint() bool { return q.flags.Load() != 0 }

func (q *Queue) ResetWorldRepaintIndicators() { q.flags.Store(0) }

// Clear detaches every member (and every pending addition) from this queue
// and empties it.
func (q *Queue) Clear() {
	q.mu.Lock()
	pending := q.addList
	q.addList = nil
	q.removeList = nil
	q.mu.Unlock()

	for _, e := range q.items {
		q.src.DetachQueue(e.id, q)
	}
	for _, id := range pending {
		if _, member := q.members[id]; !member {
			q.src.DetachQueue(id, q)
		}
	}
	q.items = q.items[:0]
	clear(q.members)
	q.SetFlags(ForceRepaint)
}
