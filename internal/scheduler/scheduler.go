// Package scheduler drives the block indexer on a re-arming ticker: tick,
// drain every height the node has caught up on, sleep, repeat. No
// concurrent ticks — one indexing step always finishes before the next
// is considered, so there is never more than one writer touching the
// store.
package scheduler

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/klingon-tech/runeindex/internal/indexer"
	"github.com/klingon-tech/runeindex/internal/log"
)

// DefaultInterval is how often the scheduler checks for a new block when
// the caller doesn't configure one.
const DefaultInterval = 10 * time.Second

// Scheduler ticks an Indexer forward until stopped.
type Scheduler struct {
	ix       *indexer.Indexer
	interval time.Duration

	group  *errgroup.Group
	cancel context.CancelFunc
}

// New builds a Scheduler over ix, ticking every interval. A non-positive
// interval falls back to DefaultInterval.
func New(ix *indexer.Indexer, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{ix: ix, interval: interval}
}

// Start launches the ticking loop in a background goroutine and returns
// immediately. Calling Start twice without an intervening Stop is a
// programming error and panics.
func (s *Scheduler) Start(ctx context.Context) {
	if s.cancel != nil {
		panic("scheduler: Start called while already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	group, groupCtx := errgroup.WithContext(runCtx)
	s.group = group
	group.Go(func() error {
		s.run(groupCtx)
		return nil
	})
}

// Stop cancels the loop and waits for it to return.
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	_ = s.group.Wait()
	s.cancel = nil
}

func (s *Scheduler) run(ctx context.Context) {
	log.Scheduler.Info().Dur("interval", s.interval).Msg("indexer scheduler started")

	s.drain(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Scheduler.Info().Msg("indexer scheduler stopped")
			return
		case <-ticker.C:
			s.drain(ctx)
		}
	}
}

// drain calls ProcessNext repeatedly until the node runs out of new
// blocks to offer, so a scheduler that fell behind (or is catching up
// from a cold start) doesn't wait a full interval between every block.
func (s *Scheduler) drain(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		err := s.ix.ProcessNext(ctx)
		if err == nil {
			continue
		}
		if errors.Is(err, indexer.ErrNodeNotCaughtUp) {
			return
		}
		log.Scheduler.Error().Err(err).Uint64("height", s.ix.NextHeight()).Msg("indexing step failed")
		return
	}
}
