package ecs

// Arena owns values of one type in index-addressed slots with generational
// handles and a free list. Removal can be immediate or deferred through a
// destroy queue flushed once per tick.
type Arena[T any] struct {
	slots        []slot[T]
	freeList     []uint32
	destroyQueue []EntityID
	queued       map[EntityID]struct{}
	live         int
}

type slot[T any] struct {
	generation uint32
	value      *T
}

func NewArena[T any]() *Arena[T] {
	return &Arena[T]{
		slots:        make([]slot[T], 0, 1024),
		freeList:     make([]uint32, 0, 256),
		destroyQueue: make([]EntityID, 0, 64),
		queued:       make(map[EntityID]struct{}),
	}
}

// Insert stores v and returns its handle.
func (a *Arena[T]) Insert(v *T) EntityID {
	a.live++
	if n := len(a.freeList); n > 0 {
		idx := a.freeList[n-1]
		a.freeList = a.freeList[:n-1]
		a.slots[idx].value = v
		return NewEntityID(idx, a.slots[idx].generation)
	}
	idx := uint32(len(a.slots))
	a.slots = append(a.slots, slot[T]{generation: 1, value: v})
	return NewEntityID(idx, 1)
}

// Get resolves a handle. Stale or zero handles return false.
func (a *Arena[T]) Get(id EntityID) (*T, bool) {
	idx := id.Index()
	if id.IsZero() || int(idx) >= len(a.slots) {
		return nil, false
	}
	s := &a.slots[idx]
	if s.generation != id.Generation() || s.value == nil {
		return nil, false
	}
	return s.value, true
}

func (a *Arena[T]) Alive(id EntityID) bool {
	_, ok := a.Get(id)
	return ok
}

// Remove frees the slot immediately. Removing a stale handle is a no-op.
func (a *Arena[T]) Remove(id EntityID) bool {
	if !a.Alive(id) {
		return false
	}
	s := &a.slots[id.Index()]
	s.value = nil
	s.generation++
	a.freeList = append(a.freeList, id.Index())
	a.live--
	return true
}

// MarkForDestruction queues a handle for FlushDestroyQueue. Queuing the same
// handle twice is harmless.
func (a *Arena[T]) MarkForDestruction(id EntityID) {
	if _, dup := a.queued[id]; dup {
		return
	}
	a.queued[id] = struct{}{}
	a.destroyQueue = append(a.destroyQueue, id)
}

// Pending reports whether a handle is queued for destruction.
func (a *Arena[T]) Pending(id EntityID) bool {
	_, ok := a.queued[id]
	return ok
}

// FlushDestroyQueue frees every queued handle that is still alive.
func (a *Arena[T]) FlushDestroyQueue() int {
	n := 0
	for _, id := range a.destroyQueue {
		if a.Remove(id) {
			n++
		}
	}
	a.destroyQueue = a.destroyQueue[:0]
	clear(a.queued)
	return n
}

// Each visits live values in slot order.
func (a *Arena[T]) Each(fn func(EntityID, *T)) {
	for i := range a.slots {
		s := &a.slots[i]
		if s.value != nil {
			fn(NewEntityID(uint32(i), s.generation), s.value)
		}
	}
}

func (a *Arena[T]) Len() int { return a.live }

// Clear frees every slot. Outstanding handles become stale.
func (a *Arena[T]) Clear() {
	for i := range a.slots {
		s := &a.slots[i]
		if s.value != nil {
			s.value = nil
			s.generation++
			a.freeList = append(a.freeList, uint32(i))
		}
	}
	a.destroyQueue = a.destroyQueue[:0]
	clear(a.queued)
	a.live = 0
}
