package classification

import (
	"context"
	"sync"
	"testing"
	"time"

	"mailagent/core/domain"
	"mailagent/core/port/out"
	"mailagent/pkg/apperr"
)

// fakeEmailRepo is an in-memory EmailRepository.
type fakeEmailRepo struct {
	mu     sync.Mutex
	emails map[string]*domain.Email
}

func newFakeEmailRepo() *fakeEmailRepo {
	return &fakeEmailRepo{emails: make(map[string]*domain.Email)}
}

func (r *fakeEmailRepo) Save(ctx context.Context, email *domain.Email) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.emails[email.ID] = email.Clone()
	return nil
}

func (r *fakeEmailRepo) SaveBatch(ctx context.Context, emails []*domain.Email) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range emails {
		r.emails[e.ID] = e.Clone()
	}
	return nil
}

func (r *fakeEmailRepo) GetByID(ctx context.Context, id string) (*domain.Email, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.emails[id]
	if !ok {
		return nil, apperr.NotFound("email")
	}
	return e.Clone(), nil
}

func (r *fakeEmailRepo) GetByDay(ctx context.Context, dayStart time.Time) ([]*domain.Email, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	dayEnd := dayStart.Add(24 * time.Hour)
	var result []*domain.Email
	for _, e := range r.emails {
		if !e.ReceivedAt.Before(dayStart) && e.ReceivedAt.Before(dayEnd) {
			result = append(result, e.Clone())
		}
	}
	return result, nil
}

func (r *fakeEmailRepo) UpdateFlags(ctx context.Context, id string, isRead, isReplied bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.emails[id]
	if !ok {
		return apperr.NotFound("email")
	}
	e.IsRead = isRead
	e.IsReplied = isReplied
	return nil
}

func (r *fakeEmailRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.emails)
}

// fakeVIPRepo serves a fixed contact list.
type fakeVIPRepo struct {
	contacts []*domain.VIPContact
	listErr  error
}

func (r *fakeVIPRepo) List(ctx context.Context) ([]*domain.VIPContact, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	return r.contacts, nil
}

func (r *fakeVIPRepo) GetByEmail(ctx context.Context, email string) (*domain.VIPContact, error) {
	for _, c := range r.contacts {
		if domain.NormalizeVIPEmail(c.Email) == domain.NormalizeVIPEmail(email) {
			return c, nil
		}
	}
	return nil, apperr.NotFound("vip contact")
}

func (r *fakeVIPRepo) Upsert(ctx context.Context, contact *domain.VIPContact) error { return nil }
func (r *fakeVIPRepo) Remove(ctx context.Context, email string) error               { return nil }

// countingNotifier records urgent notifications.
type countingNotifier struct {
	mu     sync.Mutex
	urgent []string
}

func (n *countingNotifier) NotifyUrgent(ctx context.Context, email *domain.Email) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.urgent = append(n.urgent, email.ID)
	return nil
}

func (n *countingNotifier) NotifyDigest(ctx context.Context, summary *domain.DailySummary, text string) error {
	return nil
}

func (n *countingNotifier) NotifyReminders(ctx context.Context, date string, emails []*domain.Email) error {
	return nil
}

func newTestService(ann out.Annotator, vips out.VIPRepository, opts ...ServiceOption) (*Service, *fakeEmailRepo) {
	repo := newFakeEmailRepo()
	svc := NewService(NewClassifier(ann, time.Second), repo, vips, opts...)
	return svc, repo
}

func rawMsg(id, subject, body, sender string) *domain.RawMessage {
	return &domain.RawMessage{
		ID:          id,
		Subject:     subject,
		Body:        body,
		Sender:      "Sender",
		SenderEmail: sender,
		ReceivedAt:  time.Now().UTC(),
	}
}

func TestClassifyBatchPartialErrors(t *testing.T) {
	ann := &stubAnnotator{ann: &out.Annotation{Category: "work", UrgencyHint: 0.3, Summary: "s"}}
	svc, repo := newTestService(ann, &fakeVIPRepo{})

	raws := []*domain.RawMessage{
		rawMsg("a", "Project report", "review attached", "alice@example.com"),
		rawMsg("b", "hello", "body", "not-an-address"),
		rawMsg("c", "hello", "body", "carol@example.com"),
	}

	result, err := svc.ClassifyBatch(context.Background(), raws)
	if err != nil {
		t.Fatalf("ClassifyBatch() error = %v", err)
	}

	if len(result.Classified) != 2 {
		t.Errorf("Classified = %d, want 2", len(result.Classified))
	}
	if len(result.Errors) != 1 {
		t.Fatalf("Errors = %d, want 1", len(result.Errors))
	}
	if result.Errors[0].RawID != "b" {
		t.Errorf("Errors[0].RawID = %q, want b", result.Errors[0].RawID)
	}
	if repo.count() != 2 {
		t.Errorf("persisted = %d, want 2", repo.count())
	}
}

func TestClassifyBatchAllFallback(t *testing.T) {
	ann := &stubAnnotator{err: apperr.AnnotationUnavailable("stub outage", nil)}
	svc, repo := newTestService(ann, &fakeVIPRepo{})

	raws := []*domain.RawMessage{
		rawMsg("a", "Project report", "review attached", "alice@example.com"),
		rawMsg("b", "hello", "body", "bob@example.com"),
		rawMsg("c", "Dinner plans", "family birthday this weekend", "carol@example.com"),
	}

	result, err := svc.ClassifyBatch(context.Background(), raws)
	if err != nil {
		t.Fatalf("ClassifyBatch() error = %v, want no fatal error on annotator outage", err)
	}

	if len(result.Classified) != 3 {
		t.Errorf("Classified = %d, want all 3 despite annotator outage", len(result.Classified))
	}
	if result.AnnotationFailures != 3 {
		t.Errorf("AnnotationFailures = %d, want 3", result.AnnotationFailures)
	}
	if len(result.Errors) != 0 {
		t.Errorf("Errors = %v, want none", result.Errors)
	}
	if repo.count() != 3 {
		t.Errorf("persisted = %d, want 3", repo.count())
	}
}

func TestClassifyBatchVIPFloor(t *testing.T) {
	ann := &stubAnnotator{ann: &out.Annotation{Category: "personal", UrgencyHint: 0.1, Summary: "s"}}
	vips := &fakeVIPRepo{contacts: []*domain.VIPContact{
		{Email: "ceo@corp.com", PriorityLevel: domain.PriorityHigh},
	}}
	notifier := &countingNotifier{}
	svc, _ := newTestService(ann, vips, WithNotifier(notifier))

	raws := []*domain.RawMessage{
		rawMsg("vip", "lunch?", "free today?", "ceo@corp.com"),
		rawMsg("plain", "lunch?", "free today?", "friend@example.com"),
	}

	result, err := svc.ClassifyBatch(context.Background(), raws)
	if err != nil {
		t.Fatalf("ClassifyBatch() error = %v", err)
	}

	byID := make(map[string]*domain.Email)
	for _, e := range result.Classified {
		byID[e.ID] = e
	}

	vipMail := byID["vip"]
	if vipMail == nil {
		t.Fatal("vip email missing from result")
	}
	if vipMail.Priority != domain.PriorityHigh {
		t.Errorf("vip Priority = %v, want high", vipMail.Priority)
	}
	if vipMail.UrgencyScore < domain.HighUrgencyThreshold {
		t.Errorf("vip UrgencyScore = %.2f, want >= %.2f", vipMail.UrgencyScore, domain.HighUrgencyThreshold)
	}

	plain := byID["plain"]
	if plain == nil {
		t.Fatal("plain email missing from result")
	}
	if plain.Priority == domain.PriorityHigh {
		t.Error("plain email raised to high without VIP sender")
	}

	// Only the VIP email crossed the urgent notification bar.
	svc.WaitNotifications()
	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	if len(notifier.urgent) != 1 || notifier.urgent[0] != "vip" {
		t.Errorf("urgent notifications = %v, want [vip]", notifier.urgent)
	}
}

// blockingNotifier holds every NotifyUrgent call until released.
type blockingNotifier struct {
	release chan struct{}
	mu      sync.Mutex
	urgent  []string
}

func newBlockingNotifier() *blockingNotifier {
	return &blockingNotifier{release: make(chan struct{})}
}

func (n *blockingNotifier) NotifyUrgent(ctx context.Context, email *domain.Email) error {
	select {
	case <-n.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.urgent = append(n.urgent, email.ID)
	return nil
}

func (n *blockingNotifier) NotifyDigest(ctx context.Context, summary *domain.DailySummary, text string) error {
	return nil
}

func (n *blockingNotifier) NotifyReminders(ctx context.Context, date string, emails []*domain.Email) error {
	return nil
}

func TestClassifyBatchDoesNotBlockOnNotifier(t *testing.T) {
	ann := &stubAnnotator{ann: &out.Annotation{Category: "urgent", UrgencyHint: 0.9, Summary: "s"}}
	notifier := newBlockingNotifier()
	svc, _ := newTestService(ann, &fakeVIPRepo{}, WithNotifier(notifier))

	raws := []*domain.RawMessage{
		rawMsg("a", "URGENT: server down", "production outage", "ops@example.com"),
	}

	// The batch must complete while the notifier is still stuck.
	result, err := svc.ClassifyBatch(context.Background(), raws)
	if err != nil {
		t.Fatalf("ClassifyBatch() error = %v", err)
	}
	if len(result.Classified) != 1 {
		t.Fatalf("Classified = %d, want 1", len(result.Classified))
	}

	// Delivery still happens once the receiver comes back.
	close(notifier.release)
	svc.WaitNotifications()
	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	if len(notifier.urgent) != 1 || notifier.urgent[0] != "a" {
		t.Errorf("urgent notifications = %v, want [a]", notifier.urgent)
	}
}

func TestClassifyBatchVIPOutageDegrades(t *testing.T) {
	ann := &stubAnnotator{ann: &out.Annotation{Category: "personal", UrgencyHint: 0.1, Summary: "s"}}
	vips := &fakeVIPRepo{listErr: apperr.DatabaseError("list vips", nil)}
	svc, _ := newTestService(ann, vips)

	result, err := svc.ClassifyBatch(context.Background(), []*domain.RawMessage{
		rawMsg("a", "lunch?", "free today?", "ceo@corp.com"),
	})
	if err != nil {
		t.Fatalf("ClassifyBatch() error = %v, want pass-through on registry outage", err)
	}
	if len(result.Classified) != 1 {
		t.Fatalf("Classified = %d, want 1", len(result.Classified))
	}
	if result.Classified[0].Priority == domain.PriorityHigh {
		t.Error("priority floored despite registry outage")
	}
}

func TestClassifyBatchEmpty(t *testing.T) {
	svc, _ := newTestService(&stubAnnotator{}, &fakeVIPRepo{})

	result, err := svc.ClassifyBatch(context.Background(), nil)
	if err != nil {
		t.Fatalf("ClassifyBatch() error = %v", err)
	}
	if len(result.Classified) != 0 || len(result.Errors) != 0 {
		t.Errorf("result = %+v, want empty", result)
	}
}

func TestClassifyBatchOversized(t *testing.T) {
	svc, _ := newTestService(&stubAnnotator{}, &fakeVIPRepo{}, WithMaxBatch(2))

	raws := []*domain.RawMessage{
		rawMsg("a", "s", "b", "a@example.com"),
		rawMsg("b", "s", "b", "b@example.com"),
		rawMsg("c", "s", "b", "c@example.com"),
	}

	_, err := svc.ClassifyBatch(context.Background(), raws)
	if !apperr.IsCode(err, apperr.CodeBadRequest) {
		t.Errorf("error = %v, want BadRequest for oversized batch", err)
	}
}

func TestClassifyBatchBoundedConcurrency(t *testing.T) {
	var mu sync.Mutex
	inFlight, peak := 0, 0

	ann := annotatorFunc(func(ctx context.Context, subject, body, sender string) (*out.Annotation, error) {
		mu.Lock()
		inFlight++
		if inFlight > peak {
			peak = inFlight
		}
		mu.Unlock()

		time.Sleep(5 * time.Millisecond)

		mu.Lock()
		inFlight--
		mu.Unlock()
		return &out.Annotation{Category: "work", UrgencyHint: 0.2, Summary: "s"}, nil
	})

	svc, _ := newTestService(ann, &fakeVIPRepo{}, WithWorkers(2))

	raws := make([]*domain.RawMessage, 10)
	for i := range raws {
		raws[i] = rawMsg("", "s", "b", "someone@example.com")
	}

	result, err := svc.ClassifyBatch(context.Background(), raws)
	if err != nil {
		t.Fatalf("ClassifyBatch() error = %v", err)
	}
	if len(result.Classified) != 10 {
		t.Errorf("Classified = %d, want 10", len(result.Classified))
	}
	if peak > 2 {
		t.Errorf("peak concurrent annotations = %d, want <= 2", peak)
	}
}

// annotatorFunc adapts a function to out.Annotator.
type annotatorFunc func(ctx context.Context, subject, body, sender string) (*out.Annotation, error)

func (f annotatorFunc) Annotate(ctx context.Context, subject, body, sender string) (*out.Annotation, error) {
	return f(ctx, subject, body, sender)
}
