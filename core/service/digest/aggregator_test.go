package digest

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"mailagent/core/domain"
)

var testDay = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

func mkEmail(id string, receivedAt time.Time, mut ...func(*domain.Email)) *domain.Email {
	e := &domain.Email{
		ID:          id,
		SenderEmail: "sender@example.com",
		ReceivedAt:  receivedAt,
		Category:    domain.CategoryWork,
		Priority:    domain.PriorityLow,
	}
	for _, m := range mut {
		m(e)
	}
	return e
}

func TestBuildDailySummaryCounts(t *testing.T) {
	now := testDay.Add(30 * time.Hour)
	emails := []*domain.Email{
		mkEmail("a", testDay.Add(1*time.Hour)),
		mkEmail("b", testDay.Add(2*time.Hour), func(e *domain.Email) {
			e.Category = domain.CategoryUrgent
			e.Priority = domain.PriorityHigh
		}),
		mkEmail("c", testDay.Add(3*time.Hour), func(e *domain.Email) {
			e.Category = domain.CategoryPersonal
			e.IsRead = true
		}),
		mkEmail("d", testDay.Add(4*time.Hour), func(e *domain.Email) {
			e.Priority = domain.PriorityMedium
		}),
	}

	s := BuildDailySummary("2025-03-10", emails, now, DefaultReminderThreshold)

	if s.TotalEmails != 4 {
		t.Errorf("TotalEmails = %d, want 4", s.TotalEmails)
	}

	wantCategories := map[domain.EmailCategory]int{
		domain.CategoryWork:     2,
		domain.CategoryUrgent:   1,
		domain.CategoryPersonal: 1,
	}
	if diff := cmp.Diff(wantCategories, s.Categories); diff != "" {
		t.Errorf("Categories mismatch (-want +got):\n%s", diff)
	}

	wantPriorities := map[domain.PriorityLevel]int{
		domain.PriorityLow:    2,
		domain.PriorityMedium: 1,
		domain.PriorityHigh:   1,
	}
	if diff := cmp.Diff(wantPriorities, s.PriorityBreakdown); diff != "" {
		t.Errorf("PriorityBreakdown mismatch (-want +got):\n%s", diff)
	}

	// Count maps must sum back to the total.
	catSum, prioSum := 0, 0
	for _, n := range s.Categories {
		catSum += n
	}
	for _, n := range s.PriorityBreakdown {
		prioSum += n
	}
	if catSum != s.TotalEmails || prioSum != s.TotalEmails {
		t.Errorf("count sums = %d/%d, want both %d", catSum, prioSum, s.TotalEmails)
	}

	if len(s.UrgentEmails) != 1 || s.UrgentEmails[0].ID != "b" {
		t.Errorf("UrgentEmails = %v, want [b]", ids(s.UrgentEmails))
	}
	if got := ids(s.UnreadEmails); len(got) != 3 {
		t.Errorf("UnreadEmails = %v, want 3 entries", got)
	}
}

func TestBuildDailySummaryObservedKeysOnly(t *testing.T) {
	s := BuildDailySummary("2025-03-10", []*domain.Email{
		mkEmail("a", testDay.Add(time.Hour)),
	}, testDay.Add(2*time.Hour), DefaultReminderThreshold)

	if len(s.Categories) != 1 {
		t.Errorf("Categories has %d keys, want only observed values", len(s.Categories))
	}
	if _, ok := s.Categories[domain.CategoryPromotions]; ok {
		t.Error("Categories contains an unobserved zero-count key")
	}
}

func TestBuildDailySummaryOrdering(t *testing.T) {
	emails := []*domain.Email{
		mkEmail("oldest", testDay.Add(1*time.Hour)),
		mkEmail("newest", testDay.Add(9*time.Hour)),
		mkEmail("middle", testDay.Add(5*time.Hour)),
	}

	s := BuildDailySummary("2025-03-10", emails, testDay.Add(12*time.Hour), DefaultReminderThreshold)

	want := []string{"newest", "middle", "oldest"}
	if diff := cmp.Diff(want, ids(s.UnreadEmails)); diff != "" {
		t.Errorf("UnreadEmails order (-want +got):\n%s", diff)
	}
}

func TestBuildDailySummaryReminderBoundary(t *testing.T) {
	receivedAt := testDay.Add(2 * time.Hour)
	actionable := func(e *domain.Email) { e.ActionRequired = true }

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"just under threshold", receivedAt.Add(24*time.Hour - time.Second), false},
		{"exactly at threshold", receivedAt.Add(24 * time.Hour), true},
		{"just past threshold", receivedAt.Add(24*time.Hour + time.Second), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := BuildDailySummary("2025-03-10",
				[]*domain.Email{mkEmail("a", receivedAt, actionable)},
				tt.now, DefaultReminderThreshold)

			got := len(s.ResponseReminders) == 1
			if got != tt.want {
				t.Errorf("reminder = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBuildDailySummaryReminderExclusions(t *testing.T) {
	now := testDay.Add(48 * time.Hour)

	tests := []struct {
		name string
		mut  func(*domain.Email)
		want bool
	}{
		{"actionable unreplied qualifies", func(e *domain.Email) {
			e.ActionRequired = true
		}, true},
		{"replied never reminds", func(e *domain.Email) {
			e.ActionRequired = true
			e.IsReplied = true
			e.IsRead = true
		}, false},
		{"read but unreplied still reminds", func(e *domain.Email) {
			e.ActionRequired = true
			e.IsRead = true
		}, true},
		{"non-actionable never reminds", func(e *domain.Email) {}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := BuildDailySummary("2025-03-10",
				[]*domain.Email{mkEmail("a", testDay.Add(time.Hour), tt.mut)},
				now, DefaultReminderThreshold)

			got := len(s.ResponseReminders) == 1
			if got != tt.want {
				t.Errorf("reminder = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBuildDailySummaryDoesNotMutateInput(t *testing.T) {
	e := mkEmail("a", testDay.Add(time.Hour))
	original := *e

	s := BuildDailySummary("2025-03-10", []*domain.Email{e}, testDay.Add(2*time.Hour), DefaultReminderThreshold)

	// Mutating the summary's copy must not leak back.
	s.UnreadEmails[0].IsRead = true
	if e.IsRead {
		t.Error("summary shares memory with input email")
	}
	if diff := cmp.Diff(original, *e); diff != "" {
		t.Errorf("input mutated (-want +got):\n%s", diff)
	}
}

func TestBuildDailySummaryEmpty(t *testing.T) {
	s := BuildDailySummary("2025-03-10", nil, testDay, DefaultReminderThreshold)

	if s.TotalEmails != 0 {
		t.Errorf("TotalEmails = %d, want 0", s.TotalEmails)
	}
	if s.UrgentEmails == nil || s.UnreadEmails == nil || s.ResponseReminders == nil {
		t.Error("subsequences are nil, want empty slices")
	}
	if len(s.Categories) != 0 {
		t.Errorf("Categories = %v, want empty", s.Categories)
	}
}

func TestBuildDailySummarySkipsNilEntries(t *testing.T) {
	s := BuildDailySummary("2025-03-10",
		[]*domain.Email{nil, mkEmail("a", testDay.Add(time.Hour)), nil},
		testDay.Add(2*time.Hour), DefaultReminderThreshold)

	if s.TotalEmails != 1 {
		t.Errorf("TotalEmails = %d, want 1", s.TotalEmails)
	}
}

func ids(emails []*domain.Email) []string {
	out := make([]string, 0, len(emails))
	for _, e := range emails {
		out = append(out, e.ID)
	}
	return out
}
