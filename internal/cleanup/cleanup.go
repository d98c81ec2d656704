// Package cleanup prunes expired session and blacklist rows on a fixed
// schedule, independent of request handling.
package cleanup

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/filekeep/server/internal/repo"
)

// Scheduler runs the expired-token sweep on a fixed interval. Failures are
// logged and swallowed; the next tick re-evaluates the same condition, so
// a missed sweep heals itself.
type Scheduler struct {
	refreshRepo   repo.RefreshTokenRepo
	blacklistRepo repo.BlacklistRepo
	interval      time.Duration
	cron          *cron.Cron
}

// New creates a scheduler sweeping every interval
func New(refreshRepo repo.RefreshTokenRepo, blacklistRepo repo.BlacklistRepo, interval time.Duration) *Scheduler {
	return &Scheduler{
		refreshRepo:   refreshRepo,
		blacklistRepo: blacklistRepo,
		interval:      interval,
		cron:          cron.New(),
	}
}

// Start begins the periodic sweep. Call Stop to halt it.
func (s *Scheduler) Start() error {
	spec := fmt.Sprintf("@every %s", s.interval)
	_, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := s.Sweep(ctx); err != nil {
			log.Printf("Token cleanup failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule cleanup: %w", err)
	}
	s.cron.Start()
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// Sweep deletes all expired blacklist and refresh token rows. Running it
// twice in a row with no new expirations is a no-op.
func (s *Scheduler) Sweep(ctx context.Context) error {
	now := time.Now()

	revoked, err := s.blacklistRepo.DeleteExpired(ctx, now)
	if err != nil {
		return fmt.Errorf("sweep blacklisted tokens: %w", err)
	}

	sessions, err := s.refreshRepo.DeleteExpired(ctx, now)
	if err != nil {
		return fmt.Errorf("sweep refresh tokens: %w", err)
	}

	if revoked > 0 || sessions > 0 {
		log.Printf("Expired tokens cleaned up: %d blacklisted, %d refresh", revoked, sessions)
	}
	return nil
}
