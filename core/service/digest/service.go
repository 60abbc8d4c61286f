package digest

import (
	"context"
	"time"

	"mailagent/core/domain"
	"mailagent/core/port/out"
	"mailagent/pkg/apperr"
	"mailagent/pkg/logger"
)

// Service produces daily summaries on demand. Summaries are always
// recomputed from the stored emails — the cache and archive are
// write-through sinks for downstream consumers, never read on the
// aggregation path, because reminder eligibility shifts with the clock.
type Service struct {
	emails  out.EmailRepository
	cache   out.DigestCache
	archive out.DigestArchive

	reminderThreshold time.Duration
	cacheTTL          time.Duration
	now               func() time.Time
	log               *logger.Logger
}

type ServiceOption func(*Service)

func WithCache(cache out.DigestCache, ttl time.Duration) ServiceOption {
	return func(s *Service) {
		s.cache = cache
		if ttl > 0 {
			s.cacheTTL = ttl
		}
	}
}

func WithArchive(archive out.DigestArchive) ServiceOption {
	return func(s *Service) { s.archive = archive }
}

func WithReminderThreshold(d time.Duration) ServiceOption {
	return func(s *Service) {
		if d > 0 {
			s.reminderThreshold = d
		}
	}
}

// WithClock injects a clock for tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(emails out.EmailRepository, opts ...ServiceOption) *Service {
	s := &Service{
		emails:            emails,
		reminderThreshold: DefaultReminderThreshold,
		cacheTTL:          time.Hour,
		now:               time.Now,
		log:               logger.Default().WithField("component", "digest"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Aggregate builds the DailySummary for a calendar date. Returns
// apperr.InvalidDate when the date does not parse as YYYY-MM-DD. Either a
// complete summary comes back or a single error — never a partial view.
func (s *Service) Aggregate(ctx context.Context, date string) (*domain.DailySummary, error) {
	dayStart, err := time.Parse(domain.DateLayout, date)
	if err != nil {
		return nil, apperr.InvalidDate(date)
	}

	emails, err := s.emails.GetByDay(ctx, dayStart.UTC())
	if err != nil {
		return nil, apperr.DatabaseError("load emails for date", err)
	}

	summary := BuildDailySummary(date, emails, s.now(), s.reminderThreshold)

	// Sinks are best effort; aggregation never fails on their account.
	if s.cache != nil {
		if err := s.cache.SetLatest(ctx, summary, s.cacheTTL); err != nil {
			s.log.WithError(err).Warn("digest cache write failed")
		}
	}
	if s.archive != nil {
		if err := s.archive.Put(ctx, summary); err != nil {
			s.log.WithError(err).Warn("digest archive write failed")
		}
	}

	s.log.WithFields(map[string]any{
		"date":      date,
		"total":     summary.TotalEmails,
		"urgent":    len(summary.UrgentEmails),
		"unread":    len(summary.UnreadEmails),
		"reminders": len(summary.ResponseReminders),
	}).Info("daily summary generated")

	return summary, nil
}

// Archived returns a previously generated summary from the archive.
func (s *Service) Archived(ctx context.Context, date string) (*domain.DailySummary, error) {
	if _, err := time.Parse(domain.DateLayout, date); err != nil {
		return nil, apperr.InvalidDate(date)
	}
	if s.archive == nil {
		return nil, apperr.NotFound("archived digest")
	}
	return s.archive.Get(ctx, date)
}
