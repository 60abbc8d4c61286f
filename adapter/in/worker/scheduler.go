package worker

import (
	"context"
	"fmt"
	"time"

	"mailagent/core/domain"
	"mailagent/pkg/logger"
)

// DigestScheduler enqueues a digest.generate job once a day at a fixed
// wall-clock time (UTC). The generated digest covers the previous
// calendar day, which is complete by the time the job runs.
type DigestScheduler struct {
	pool   *Pool
	fireAt string // HH:MM
	now    func() time.Time
	ctx    context.Context
	cancel context.CancelFunc
	log    *logger.Logger
}

func NewDigestScheduler(p *Pool, fireAt string) *DigestScheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &DigestScheduler{
		pool:   p,
		fireAt: fireAt,
		now:    time.Now,
		ctx:    ctx,
		cancel: cancel,
		log:    logger.WithField("component", "digest_scheduler"),
	}
}

// Start starts the scheduler loop.
func (s *DigestScheduler) Start() error {
	if _, err := parseClock(s.fireAt); err != nil {
		return err
	}
	s.log.Info("[DigestScheduler] Starting, fires daily at %s UTC", s.fireAt)
	go s.run()
	return nil
}

// Stop stops the scheduler.
func (s *DigestScheduler) Stop() {
	s.log.Info("[DigestScheduler] Stopping...")
	s.cancel()
}

func (s *DigestScheduler) run() {
	for {
		wait := s.untilNextFire()
		timer := time.NewTimer(wait)

		select {
		case <-s.ctx.Done():
			timer.Stop()
			s.log.Info("[DigestScheduler] Stopped")
			return
		case <-timer.C:
			s.enqueueDigest()
		}
	}
}

// untilNextFire returns the duration until the next HH:MM UTC.
func (s *DigestScheduler) untilNextFire() time.Duration {
	clock, _ := parseClock(s.fireAt)
	now := s.now().UTC()

	next := time.Date(now.Year(), now.Month(), now.Day(), clock.hour, clock.minute, 0, 0, time.UTC)
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next.Sub(now)
}

func (s *DigestScheduler) enqueueDigest() {
	yesterday := s.now().UTC().Add(-24 * time.Hour).Format(domain.DateLayout)

	msg := NewMessage(JobDigestGenerate, map[string]any{
		"date":   yesterday,
		"notify": true,
	})
	if !s.pool.Submit(msg) {
		s.log.Error("[DigestScheduler] Failed to enqueue digest job for %s", yesterday)
		return
	}
	s.log.Info("[DigestScheduler] Enqueued digest job for %s", yesterday)
}

type clockTime struct {
	hour   int
	minute int
}

func parseClock(v string) (clockTime, error) {
	var c clockTime
	if _, err := fmt.Sscanf(v, "%d:%d", &c.hour, &c.minute); err != nil {
		return c, fmt.Errorf("invalid clock time %q: %w", v, err)
	}
	if c.hour < 0 || c.hour > 23 || c.minute < 0 || c.minute > 59 {
		return c, fmt.Errorf("invalid clock time %q", v)
	}
	return c, nil
}
