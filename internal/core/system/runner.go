package system

import (
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
)

// Runner executes systems in phase order each frame. Systems registered in
// the same phase keep their registration order.
type Runner struct {
	systems []System
	sorted  bool
	slow    time.Duration // 0 disables the slow-system warning
	log     *zap.Logger
}

func NewRunner(slow time.Duration, log *zap.Logger) *Runner {
	return &Runner{
		systems: make([]System, 0, 8),
		slow:    slow,
		log:     log,
	}
}

func (r *Runner) Register(s System) {
	r.systems = append(r.systems, s)
	r.sorted = false
}

func (r *Runner) Tick(dt time.Duration) {
	r.ensureSorted()
	for _, s := range r.systems {
		r.run(s, dt)
	}
}

// TickPhase runs only the systems of one phase.
func (r *Runner) TickPhase(phase Phase, dt time.Duration) {
	r.ensureSorted()
	for _, s := range r.systems {
		if s.Phase() == phase {
			r.run(s, dt)
		}
	}
}

func (r *Runner) run(s System, dt time.Duration) {
	if r.slow <= 0 {
		s.Update(dt)
		return
	}
	start := time.Now()
	s.Update(dt)
	if took := time.Since(start); took > r.slow {
		r.log.Warn("slow system",
			zap.String("system", fmt.Sprintf("%T", s)),
			zap.Stringer("phase", s.Phase()),
			zap.Duration("took", took),
		)
	}
}

func (r *Runner) ensureSorted() {
	if !r.sorted {
		sort.SliceStable(r.systems, func(i, j int) bool {
			return r.systems[i].Phase() < r.systems[j].Phase()
		})
		r.sorted = true
	}
}
