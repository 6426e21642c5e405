package system

import (
	"time"

	"go.uber.org/zap"

	coresys "github.com/uogo/client/internal/core/system"
)

// Pumper delivers decoded packets to their handlers. *net.Session
// implements it.
type Pumper interface {
	Pump(max int) int
}

// InputSystem dispatches received packets and drains typed input lines.
// Phase 0 (Input).
type InputSystem struct {
	session    Pumper
	maxPerTick int
	lines      <-chan string
	submit     func(line string)
	log        *zap.Logger
}

func NewInputSystem(session Pumper, maxPerTick int, lines <-chan string, submit func(line string), log *zap.Logger) *InputSystem {
	return &InputSystem{
		session:    session,
		maxPerTick: maxPerTick,
		lines:      lines,
		submit:     submit,
		log:        log,
	}
}

func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *InputSystem) Update(_ time.Duration) {
	if n := s.session.Pump(s.maxPerTick); n > 0 && n == s.maxPerTick {
		s.log.Debug("packet budget exhausted", zap.Int("packets", n))
	}

	for {
		select {
		case line, ok := <-s.lines:
			if !ok {
				s.lines = nil
				return
			}
			s.submit(line)
		default:
			return
		}
	}
}
