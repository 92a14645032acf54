package syncer

import (
	"context"
	"fmt"
	"sync"

	apperrors "github.com/jrsteele09/viserion/internal/errors"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Scheduler periodically re-syncs every provider from its stored token.
type Scheduler struct {
	orchestrator *Orchestrator
	schedule     string
	cron         *cron.Cron

	mu      sync.Mutex
	running bool
	entryID cron.EntryID
	cancel  context.CancelFunc
}

// NewScheduler validates schedule (standard cron or a descriptor such as
// "@every 30m"). An empty schedule yields a scheduler that never runs.
func NewScheduler(o *Orchestrator, schedule string) (*Scheduler, error) {
	if schedule != "" {
		if _, err := cron.ParseStandard(schedule); err != nil {
			return nil, fmt.Errorf("%w %q: %v", apperrors.ErrInvalidSchedule, schedule, err)
		}
	}
	return &Scheduler{
		orchestrator: o,
		schedule:     schedule,
		cron:         cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
	}, nil
}

func (s *Scheduler) Enabled() bool {
	return s.schedule != ""
}

// Start begins periodic syncs. Runs use a context derived from ctx that is
// cancelled by Stop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}
	if !s.Enabled() {
		log.Info().Msg("Background sync disabled")
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	id, err := s.cron.AddFunc(s.schedule, func() {
		s.orchestrator.SyncAll(runCtx, TriggerScheduled)
	})
	if err != nil {
		cancel()
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	s.entryID = id
	s.cancel = cancel
	s.cron.Start()
	s.running = true

	log.Info().Str("schedule", s.schedule).Msg("Background sync scheduled")
	return nil
}

// Stop halts the scheduler, cancels a running sync and waits for it to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.cancel()
	<-s.cron.Stop().Done()
	s.cron.Remove(s.entryID)
	s.running = false
	log.Info().Msg("Background sync stopped")
}
