package system

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/uogo/client/internal/core/event"
	coresys "github.com/uogo/client/internal/core/system"
	"github.com/uogo/client/internal/persist"
)

// JournalWriter takes journal lines without blocking.
type JournalWriter interface {
	Record(e persist.JournalEntry)
}

// ProfileSaver stores the login profile.
type ProfileSaver interface {
	Save(ctx context.Context, p persist.Profile) error
}

const profileSaveTimeout = 2 * time.Second

// PersistenceSystem writes the message journal and the login profile from
// the events of the frame. Phase 4 (Persist).
type PersistenceSystem struct {
	journal  JournalWriter
	profiles ProfileSaver
	account  func() string
	log      *zap.Logger

	lines   []persist.JournalEntry
	profile *persist.Profile
}

// NewPersistenceSystem subscribes to the bus. journal or profiles may be nil
// to skip that half.
func NewPersistenceSystem(bus *event.Bus, journal JournalWriter, profiles ProfileSaver, account func() string, log *zap.Logger) *PersistenceSystem {
	s := &PersistenceSystem{
		journal:  journal,
		profiles: profiles,
		account:  account,
		log:      log,
	}
	event.Subscribe(bus, func(e event.SpeechHeard) {
		s.lines = append(s.lines, persist.JournalEntry{
			Serial:  e.Serial,
			Speaker: e.Name,
			Kind:    persist.JournalSpeech,
			Type:    e.Type,
			Text:    e.Text,
		})
	})
	event.Subscribe(bus, func(e event.SystemMessage) {
		s.lines = append(s.lines, persist.JournalEntry{Kind: persist.JournalSystem, Text: e.Text})
	})
	event.Subscribe(bus, func(e event.EnteredWorld) {
		s.profile = &persist.Profile{
			Account:   e.Account,
			Shard:     e.Shard,
			Character: e.Character,
			Serial:    e.Serial,
		}
	})
	return s
}

func (s *PersistenceSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *PersistenceSystem) Update(_ time.Duration) {
	if len(s.lines) > 0 {
		if s.journal != nil {
			account := s.account()
			now := time.Now()
			for _, line := range s.lines {
				line.Account = account
				line.At = now
				s.journal.Record(line)
			}
		}
		s.lines = s.lines[:0]
	}

	if s.profile != nil {
		p := *s.profile
		s.profile = nil
		if s.profiles == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), profileSaveTimeout)
		defer cancel()
		if err := s.profiles.Save(ctx, p); err != nil {
			s.log.Error("save login profile", zap.String("account", p.Account), zap.Error(err))
			return
		}
		s.log.Info("login profile saved", zap.String("account", p.Account),
			zap.String("shard", p.Shard), zap.String("character", p.Character))
	}
}
