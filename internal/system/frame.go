package system

import (
	"time"

	"github.com/uogo/client/internal/core/event"
	coresys "github.com/uogo/client/internal/core/system"
	"github.com/uogo/client/internal/render"
	"github.com/uogo/client/internal/world"
)

// EventSystem delivers the events emitted during the previous frame.
// Phase 1 (PreUpdate).
type EventSystem struct {
	bus *event.Bus
}

func NewEventSystem(bus *event.Bus) *EventSystem {
	return &EventSystem{bus: bus}
}

func (s *EventSystem) Phase() coresys.Phase { return coresys.PhasePreUpdate }

func (s *EventSystem) Update(_ time.Duration) {
	s.bus.SwapBuffers()
	s.bus.DispatchAll()
}

// WorldSystem advances the world store. Phase 2 (Update).
type WorldSystem struct {
	store *world.Store
}

func NewWorldSystem(store *world.Store) *WorldSystem {
	return &WorldSystem{store: store}
}

func (s *WorldSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *WorldSystem) Update(dt time.Duration) {
	s.store.Step(dt.Milliseconds())
}

// Renderer consumes the sorted render queue after a change.
type Renderer interface {
	Render(q *render.Queue)
}

// RenderSyncSystem applies the queue's pending adds and removes, sorts it,
// and hands it to the renderer when a repaint is due. Phase 3 (PostUpdate).
type RenderSyncSystem struct {
	queues   []*render.Queue
	renderer Renderer
	repaints int
}

// NewRenderSyncSystem syncs the given queues. renderer may be nil for a
// headless client; repaint flags are still consumed.
func NewRenderSyncSystem(renderer Renderer, queues ...*render.Queue) *RenderSyncSystem {
	return &RenderSyncSystem{queues: queues, renderer: renderer}
}

func (s *RenderSyncSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *RenderSyncSystem) Update(_ time.Duration) {
	for _, q := range s.queues {
		q.ProcessRemoveList()
		q.ProcessAddList()
		q.Sort()

		if !q.RequireWorldRepaint() {
			continue
		}
		s.repaints++
		if s.renderer != nil {
			s.renderer.Render(q)
		}
		q.ResetWorldRepaintIndicators()
	}
}

// Repaints counts frames that needed a repaint.
func (s *RenderSyncSystem) Repaints() int { return s.repaints }
