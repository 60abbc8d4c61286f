package classification

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"mailagent/core/domain"
	"mailagent/core/port/out"
	"mailagent/core/service/ingest"
	"mailagent/pkg/apperr"
	"mailagent/pkg/logger"
)

// Service orchestrates the full classification pipeline for raw messages:
// canonicalize, extract signals, annotate, merge, apply VIP floors, persist.
type Service struct {
	canonicalizer *ingest.Canonicalizer
	classifier    *Classifier
	emails        out.EmailRepository
	vips          out.VIPRepository
	notifier      out.Notifier

	workers  int
	maxBatch int
	log      *logger.Logger

	notifyWG sync.WaitGroup
}

// notifyTimeout bounds background urgent-notification delivery.
const notifyTimeout = 30 * time.Second

type ServiceOption func(*Service)

// WithWorkers bounds batch concurrency. Sized against the annotation
// provider's requests-per-minute budget.
func WithWorkers(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithMaxBatch caps the number of raw messages accepted per call.
func WithMaxBatch(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.maxBatch = n
		}
	}
}

// WithNotifier enables urgent-email notifications after persistence.
func WithNotifier(n out.Notifier) ServiceOption {
	return func(s *Service) { s.notifier = n }
}

func NewService(
	classifier *Classifier,
	emails out.EmailRepository,
	vips out.VIPRepository,
	opts ...ServiceOption,
) *Service {
	s := &Service{
		canonicalizer: ingest.NewCanonicalizer(),
		classifier:    classifier,
		emails:        emails,
		vips:          vips,
		workers:       8,
		maxBatch:      100,
		log:           logger.Default().WithField("component", "classification"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ClassifyBatch classifies raw messages concurrently and persists the
// results. All per-email annotation calls run under a bounded worker
// limit and the call returns only after every email has either been
// classified or recorded as a per-item error — partial results plus an
// error list, never a wholesale batch failure.
func (s *Service) ClassifyBatch(ctx context.Context, raws []*domain.RawMessage) (*domain.BatchResult, error) {
	if len(raws) == 0 {
		return &domain.BatchResult{Classified: []*domain.Email{}, Errors: []domain.BatchError{}}, nil
	}
	if len(raws) > s.maxBatch {
		return nil, apperr.BadRequest("batch too large").WithDetail("max", s.maxBatch).WithDetail("got", len(raws))
	}

	prioritizer := s.loadVIPSnapshot(ctx)

	// Each goroutine writes only its own slot, so no locking is needed.
	type slot struct {
		email    *domain.Email
		err      *domain.BatchError
		fellBack bool
	}
	slots := make([]slot, len(raws))

	started := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i, raw := range raws {
		i, raw := i, raw
		g.Go(func() error {
			email, err := s.canonicalizer.Canonicalize(raw)
			if err != nil {
				slots[i].err = &domain.BatchError{RawID: rawID(raw), Reason: err.Error()}
				return nil
			}

			annErr := s.classifier.Classify(gctx, email)
			if annErr != nil {
				slots[i].fellBack = true
			}

			prioritizer.Apply(email)
			slots[i].email = email
			return nil
		})
	}

	// Barrier: every email lands in a slot before the batch completes.
	if err := g.Wait(); err != nil {
		return nil, apperr.InternalWithError(err)
	}

	result := &domain.BatchResult{
		Classified: make([]*domain.Email, 0, len(raws)),
		Errors:     []domain.BatchError{},
	}
	for _, sl := range slots {
		switch {
		case sl.email != nil:
			result.Classified = append(result.Classified, sl.email)
			if sl.fellBack {
				result.AnnotationFailures++
			}
		case sl.err != nil:
			result.Errors = append(result.Errors, *sl.err)
		}
	}

	if len(result.Classified) > 0 {
		if err := s.emails.SaveBatch(ctx, result.Classified); err != nil {
			return nil, apperr.DatabaseError("save classified batch", err)
		}
	}

	s.notifyUrgent(result.Classified)

	s.log.WithDuration(time.Since(started)).
		WithFields(map[string]any{
			"total":      len(raws),
			"classified": len(result.Classified),
			"errors":     len(result.Errors),
			"fallbacks":  result.AnnotationFailures,
		}).Info("batch classified")

	return result, nil
}

// ClassifyOne runs the pipeline for a single raw message.
func (s *Service) ClassifyOne(ctx context.Context, raw *domain.RawMessage) (*domain.Email, error) {
	email, err := s.canonicalizer.Canonicalize(raw)
	if err != nil {
		return nil, err
	}
	_ = s.classifier.Classify(ctx, email)
	s.loadVIPSnapshot(ctx).Apply(email)

	if err := s.emails.Save(ctx, email); err != nil {
		return nil, apperr.DatabaseError("save classified email", err)
	}
	s.notifyUrgent([]*domain.Email{email})
	return email, nil
}

// loadVIPSnapshot fetches the registry once per batch. A registry outage
// degrades to pass-through prioritization rather than failing the batch.
func (s *Service) loadVIPSnapshot(ctx context.Context) *VIPPrioritizer {
	if s.vips == nil {
		return NewVIPPrioritizer(nil)
	}
	contacts, err := s.vips.List(ctx)
	if err != nil {
		s.log.WithError(err).Warn("vip registry unavailable, skipping priority floors")
		return NewVIPPrioritizer(nil)
	}
	return NewVIPPrioritizer(contacts)
}

// notifyUrgent hands urgent emails to the notifier in the background.
// Delivery never holds up the classify response: the goroutine runs on a
// detached, bounded context so a dead receiver costs nothing but a warning.
func (s *Service) notifyUrgent(emails []*domain.Email) {
	if s.notifier == nil {
		return
	}
	var urgent []*domain.Email
	for _, e := range emails {
		if e.Priority == domain.PriorityHigh || e.Category == domain.CategoryUrgent {
			urgent = append(urgent, e)
		}
	}
	if len(urgent) == 0 {
		return
	}

	s.notifyWG.Add(1)
	go func() {
		defer s.notifyWG.Done()
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		for _, e := range urgent {
			if err := s.notifier.NotifyUrgent(ctx, e); err != nil {
				s.log.WithError(err).WithField("email_id", e.ID).Warn("urgent notification failed")
			}
		}
	}()
}

// WaitNotifications blocks until all in-flight notification dispatches
// finish. Used on shutdown so pending alerts are not dropped.
func (s *Service) WaitNotifications() {
	s.notifyWG.Wait()
}

func rawID(raw *domain.RawMessage) string {
	if raw == nil {
		return ""
	}
	return raw.ID
}
