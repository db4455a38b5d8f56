package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// GuestPurger deletes guest accounts idle since before cutoff.
type GuestPurger interface {
	DeleteInactiveGuests(ctx context.Context, cutoff time.Time) (int64, error)
}

// CleanupService periodically drops expired demo sessions and stale guest
// accounts.
type CleanupService struct {
	demos     *DemoRegistry
	guests    GuestPurger
	retention time.Duration
	interval  time.Duration
	log       *zap.Logger
	now       func() time.Time

	stop chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// NewCleanupService accepts a nil purger, in which case only demo sessions
// are swept.
func NewCleanupService(demos *DemoRegistry, guests GuestPurger, retention, interval time.Duration, log *zap.Logger) *CleanupService {
	return &CleanupService{
		demos:     demos,
		guests:    guests,
		retention: retention,
		interval:  interval,
		log:       log,
		now:       time.Now,
		stop:      make(chan struct{}),
	}
}

// Start runs the worker until Stop is called.
func (s *CleanupService) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.RunOnce(context.Background())
			case <-s.stop:
				return
			}
		}
	}()
	s.log.Info("Cleanup service started", zap.Duration("interval", s.interval))
}

// Stop halts the worker and waits for an in-flight sweep to finish.
func (s *CleanupService) Stop() {
	s.once.Do(func() { close(s.stop) })
	s.wg.Wait()
}

// RunOnce performs a single sweep.
func (s *CleanupService) RunOnce(ctx context.Context) {
	if n := s.demos.Sweep(); n > 0 {
		s.log.Info("Expired demo sessions removed", zap.Int("count", n))
	}

	if s.guests == nil {
		return
	}
	cutoff := s.now().Add(-s.retention)
	n, err := s.guests.DeleteInactiveGuests(ctx, cutoff)
	if err != nil {
		s.log.Error("Guest cleanup failed", zap.Error(err))
		return
	}
	if n > 0 {
		s.log.Info("Inactive guests removed", zap.Int64("count", n), zap.Time("cutoff", cutoff))
	}
}
