package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Sweeper is the minimal interface the scheduler needs from a maintenance
// job. Sweep returns how many entries it removed.
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// Scheduler periodically runs a Sweeper. Used for quota counter garbage
// collection; stale windows are never read again, so the sweep is pure
// hygiene and can run at a relaxed interval.
type Scheduler struct {
	interval time.Duration
	sweeper  Sweeper
	log      *zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func NewScheduler(interval time.Duration, sweeper Sweeper, logger *zerolog.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Scheduler{
		interval: interval,
		sweeper:  sweeper,
		log:      logger,
		done:     make(chan struct{}),
	}
}

// Start begins the loop in a background goroutine. Calling Start twice has
// no effect.
func (s *Scheduler) Start(parentCtx context.Context) {
	if s.ctx != nil {
		return
	}
	ctx, cancel := context.WithCancel(parentCtx)
	s.ctx = ctx
	s.cancel = cancel

	go s.loop()
}

func (s *Scheduler) loop() {
	ticker := time.NewTicker(s.interval)
	defer func() {
		ticker.Stop()
		close(s.done)
	}()

	s.log.Info().Dur("interval", s.interval).Msg("quota gc scheduler started")
	for {
		select {
		case <-s.ctx.Done():
			s.log.Info().Msg("quota gc scheduler stopping")
			return
		case <-ticker.C:
			runCtx, cancel := context.WithTimeout(s.ctx, 30*time.Second)
			func() {
				defer cancel()
				removed, err := s.sweeper.Sweep(runCtx)
				if err != nil {
					s.log.Error().Err(err).Msg("quota gc sweep failed")
					return
				}
				if removed > 0 {
					s.log.Info().Int("removed", removed).Msg("quota gc sweep")
				}
			}()
		}
	}
}

// Stop cancels the scheduler and waits for the loop to finish. Idempotent.
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.ctx = nil
	s.cancel = nil
	s.done = make(chan struct{})
}
