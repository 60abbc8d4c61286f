package digest

import (
	"context"
	"sync"
	"testing"
	"time"

	"mailagent/core/domain"
	"mailagent/pkg/apperr"
)

// fakeEmailRepo serves a fixed slice for any day.
type fakeEmailRepo struct {
	emails  []*domain.Email
	lastDay time.Time
	err     error
}

func (r *fakeEmailRepo) Save(ctx context.Context, email *domain.Email) error          { return nil }
func (r *fakeEmailRepo) SaveBatch(ctx context.Context, emails []*domain.Email) error  { return nil }
func (r *fakeEmailRepo) GetByID(ctx context.Context, id string) (*domain.Email, error) {
	return nil, apperr.NotFound("email")
}
func (r *fakeEmailRepo) UpdateFlags(ctx context.Context, id string, isRead, isReplied bool) error {
	return nil
}

func (r *fakeEmailRepo) GetByDay(ctx context.Context, dayStart time.Time) ([]*domain.Email, error) {
	r.lastDay = dayStart
	if r.err != nil {
		return nil, r.err
	}
	return r.emails, nil
}

// recordingSink captures cache and archive writes.
type recordingSink struct {
	mu        sync.Mutex
	cached    []*domain.DailySummary
	archived  []*domain.DailySummary
	failure   error
}

func (s *recordingSink) SetLatest(ctx context.Context, summary *domain.DailySummary, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failure != nil {
		return s.failure
	}
	s.cached = append(s.cached, summary)
	return nil
}

func (s *recordingSink) GetLatest(ctx context.Context, date string) (*domain.DailySummary, error) {
	return nil, apperr.NotFound("digest")
}

func (s *recordingSink) Put(ctx context.Context, summary *domain.DailySummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failure != nil {
		return s.failure
	}
	s.archived = append(s.archived, summary)
	return nil
}

func (s *recordingSink) Get(ctx context.Context, date string) (*domain.DailySummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sum := range s.archived {
		if sum.Date == date {
			return sum, nil
		}
	}
	return nil, apperr.NotFound("digest")
}

func TestAggregateInvalidDate(t *testing.T) {
	svc := NewService(&fakeEmailRepo{})

	for _, raw := range []string{"", "03-10-2025", "2025/03/10", "2025-13-45", "yesterday"} {
		t.Run(raw, func(t *testing.T) {
			_, err := svc.Aggregate(context.Background(), raw)
			if !apperr.IsCode(err, apperr.CodeInvalidDate) {
				t.Errorf("Aggregate(%q) error = %v, want InvalidDate", raw, err)
			}
		})
	}
}

func TestAggregateQueriesUTCDayStart(t *testing.T) {
	repo := &fakeEmailRepo{}
	svc := NewService(repo)

	if _, err := svc.Aggregate(context.Background(), "2025-03-10"); err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}

	want := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	if !repo.lastDay.Equal(want) {
		t.Errorf("GetByDay called with %v, want %v", repo.lastDay, want)
	}
}

func TestAggregateWritesThroughSinks(t *testing.T) {
	repo := &fakeEmailRepo{emails: []*domain.Email{
		mkEmail("a", testDay.Add(time.Hour)),
	}}
	sink := &recordingSink{}
	svc := NewService(repo,
		WithCache(sink, time.Minute),
		WithArchive(sink),
		WithClock(func() time.Time { return testDay.Add(2 * time.Hour) }),
	)

	got, err := svc.Aggregate(context.Background(), "2025-03-10")
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}
	if got.TotalEmails != 1 {
		t.Errorf("TotalEmails = %d, want 1", got.TotalEmails)
	}
	if len(sink.cached) != 1 || len(sink.archived) != 1 {
		t.Errorf("sink writes = cache:%d archive:%d, want 1 each", len(sink.cached), len(sink.archived))
	}

	// Second call recomputes and writes again: the cache is never a source.
	if _, err := svc.Aggregate(context.Background(), "2025-03-10"); err != nil {
		t.Fatalf("second Aggregate() error = %v", err)
	}
	if len(sink.cached) != 2 {
		t.Errorf("cache writes = %d, want 2 (always recomputed)", len(sink.cached))
	}
}

func TestAggregateSurvivesSinkFailure(t *testing.T) {
	repo := &fakeEmailRepo{emails: []*domain.Email{mkEmail("a", testDay.Add(time.Hour))}}
	sink := &recordingSink{failure: apperr.ExternalError("redis", nil)}
	svc := NewService(repo, WithCache(sink, time.Minute), WithArchive(sink))

	got, err := svc.Aggregate(context.Background(), "2025-03-10")
	if err != nil {
		t.Fatalf("Aggregate() error = %v, want success despite sink failure", err)
	}
	if got == nil || got.TotalEmails != 1 {
		t.Errorf("summary = %+v, want complete summary", got)
	}
}

func TestAggregateRepositoryFailure(t *testing.T) {
	repo := &fakeEmailRepo{err: apperr.DatabaseError("boom", nil)}
	svc := NewService(repo)

	_, err := svc.Aggregate(context.Background(), "2025-03-10")
	if !apperr.IsCode(err, apperr.CodeDatabaseError) {
		t.Errorf("error = %v, want DatabaseError", err)
	}
}

func TestArchivedLookup(t *testing.T) {
	sink := &recordingSink{}
	repo := &fakeEmailRepo{emails: []*domain.Email{mkEmail("a", testDay.Add(time.Hour))}}
	svc := NewService(repo, WithArchive(sink))

	if _, err := svc.Aggregate(context.Background(), "2025-03-10"); err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}

	got, err := svc.Archived(context.Background(), "2025-03-10")
	if err != nil {
		t.Fatalf("Archived() error = %v", err)
	}
	if got.Date != "2025-03-10" {
		t.Errorf("Date = %q, want 2025-03-10", got.Date)
	}

	_, err = svc.Archived(context.Background(), "2024-01-01")
	if !apperr.IsCode(err, apperr.CodeNotFound) {
		t.Errorf("missing date error = %v, want NotFound", err)
	}
}
