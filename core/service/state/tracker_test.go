package state

import (
	"context"
	"sync"
	"testing"
	"time"

	"mailagent/core/domain"
	"mailagent/pkg/apperr"
)

// fakeRepo is an in-memory EmailRepository tracking update calls.
type fakeRepo struct {
	mu      sync.Mutex
	emails  map[string]*domain.Email
	updates int
}

func newFakeRepo(emails ...*domain.Email) *fakeRepo {
	r := &fakeRepo{emails: make(map[string]*domain.Email)}
	for _, e := range emails {
		r.emails[e.ID] = e
	}
	return r
}

func (r *fakeRepo) Save(ctx context.Context, email *domain.Email) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.emails[email.ID] = email.Clone()
	return nil
}

func (r *fakeRepo) SaveBatch(ctx context.Context, emails []*domain.Email) error {
	for _, e := range emails {
		if err := r.Save(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeRepo) GetByID(ctx context.Context, id string) (*domain.Email, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.emails[id]
	if !ok {
		return nil, apperr.NotFound("email")
	}
	return e.Clone(), nil
}

func (r *fakeRepo) GetByDay(ctx context.Context, dayStart time.Time) ([]*domain.Email, error) {
	return nil, nil
}

func (r *fakeRepo) UpdateFlags(ctx context.Context, id string, isRead, isReplied bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.emails[id]
	if !ok {
		return apperr.NotFound("email")
	}
	e.IsRead = isRead
	e.IsReplied = isReplied
	r.updates++
	return nil
}

func (r *fakeRepo) updateCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.updates
}

func email(id string) *domain.Email {
	return &domain.Email{ID: id, SenderEmail: "a@example.com", ReceivedAt: time.Now().UTC()}
}

func TestMarkRead(t *testing.T) {
	repo := newFakeRepo(email("e1"))
	tracker := NewTracker(repo)

	got, err := tracker.MarkRead(context.Background(), "e1")
	if err != nil {
		t.Fatalf("MarkRead() error = %v", err)
	}
	if !got.IsRead || got.IsReplied {
		t.Errorf("state = read:%v replied:%v, want read only", got.IsRead, got.IsReplied)
	}

	// Idempotent: second call changes nothing and skips the write.
	if _, err := tracker.MarkRead(context.Background(), "e1"); err != nil {
		t.Fatalf("second MarkRead() error = %v", err)
	}
	if repo.updateCount() != 1 {
		t.Errorf("updates = %d, want 1", repo.updateCount())
	}
}

func TestMarkRepliedImpliesRead(t *testing.T) {
	repo := newFakeRepo(email("e1"))
	tracker := NewTracker(repo)

	got, err := tracker.MarkReplied(context.Background(), "e1")
	if err != nil {
		t.Fatalf("MarkReplied() error = %v", err)
	}
	if !got.IsReplied || !got.IsRead {
		t.Errorf("state = read:%v replied:%v, want both", got.IsRead, got.IsReplied)
	}
}

func TestMarkReadAfterRepliedKeepsReplied(t *testing.T) {
	repo := newFakeRepo(email("e1"))
	tracker := NewTracker(repo)

	if _, err := tracker.MarkReplied(context.Background(), "e1"); err != nil {
		t.Fatalf("MarkReplied() error = %v", err)
	}
	got, err := tracker.MarkRead(context.Background(), "e1")
	if err != nil {
		t.Fatalf("MarkRead() error = %v", err)
	}
	if !got.IsReplied {
		t.Error("replied flag regressed after MarkRead")
	}
	if repo.updateCount() != 1 {
		t.Errorf("updates = %d, want 1 (MarkRead after replied is a no-op)", repo.updateCount())
	}
}

func TestTransitionUnknownID(t *testing.T) {
	tracker := NewTracker(newFakeRepo())

	_, err := tracker.MarkRead(context.Background(), "ghost")
	if !apperr.IsCode(err, apperr.CodeNotFound) {
		t.Errorf("error = %v, want NotFound", err)
	}

	_, err = tracker.MarkReplied(context.Background(), "ghost")
	if !apperr.IsCode(err, apperr.CodeNotFound) {
		t.Errorf("error = %v, want NotFound", err)
	}
}

func TestTransitionEmptyID(t *testing.T) {
	tracker := NewTracker(newFakeRepo())

	_, err := tracker.MarkRead(context.Background(), "")
	if !apperr.IsCode(err, apperr.CodeMissingField) {
		t.Errorf("error = %v, want MissingField", err)
	}
}

func TestConcurrentTransitionsSameID(t *testing.T) {
	repo := newFakeRepo(email("e1"))
	tracker := NewTracker(repo)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			tracker.MarkRead(context.Background(), "e1")
		}()
		go func() {
			defer wg.Done()
			tracker.MarkReplied(context.Background(), "e1")
		}()
	}
	wg.Wait()

	got, err := tracker.MarkRead(context.Background(), "e1")
	if err != nil {
		t.Fatalf("final MarkRead() error = %v", err)
	}
	if !got.IsRead || !got.IsReplied {
		t.Errorf("final state = read:%v replied:%v, want both after a replied transition", got.IsRead, got.IsReplied)
	}
}

func TestConcurrentTransitionsDistinctIDs(t *testing.T) {
	emails := make([]*domain.Email, 20)
	for i := range emails {
		emails[i] = email(string(rune('a' + i)))
	}
	repo := newFakeRepo(emails...)
	tracker := NewTracker(repo)

	var wg sync.WaitGroup
	for _, e := range emails {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if _, err := tracker.MarkReplied(context.Background(), id); err != nil {
				t.Errorf("MarkReplied(%q) error = %v", id, err)
			}
		}(e.ID)
	}
	wg.Wait()

	for _, e := range emails {
		got, err := tracker.MarkRead(context.Background(), e.ID)
		if err != nil {
			t.Fatalf("MarkRead(%q) error = %v", e.ID, err)
		}
		if !got.IsReplied {
			t.Errorf("email %q not replied", e.ID)
		}
	}
}
