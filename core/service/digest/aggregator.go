// Package digest folds a day's classified emails into a DailySummary.
package digest

import (
	"sort"
	"time"

	"mailagent/core/domain"
)

// DefaultReminderThreshold is how long an actionable email may sit without
// a reply before it qualifies for a response reminder.
const DefaultReminderThreshold = 24 * time.Hour

// BuildDailySummary folds emails received on the given date into a summary.
// Pure function over (emails, now, threshold): it never mutates the inputs
// and is deterministic for a fixed clock. Breakdown maps carry keys only
// for values observed that day; subsequences are ordered received_at
// descending.
func BuildDailySummary(date string, emails []*domain.Email, now time.Time, reminderThreshold time.Duration) *domain.DailySummary {
	if reminderThreshold <= 0 {
		reminderThreshold = DefaultReminderThreshold
	}

	summary := &domain.DailySummary{
		Date:              date,
		GeneratedAt:       now.UTC(),
		TotalEmails:       len(emails),
		Categories:        make(map[domain.EmailCategory]int),
		PriorityBreakdown: make(map[domain.PriorityLevel]int),
		UrgentEmails:      []*domain.Email{},
		UnreadEmails:      []*domain.Email{},
		ResponseReminders: []*domain.Email{},
	}

	// Snapshot copies so callers can never observe later flag mutations
	// through the summary.
	ordered := make([]*domain.Email, 0, len(emails))
	for _, e := range emails {
		if e == nil {
			continue
		}
		ordered = append(ordered, e.Clone())
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].ReceivedAt.After(ordered[j].ReceivedAt)
	})
	summary.TotalEmails = len(ordered)

	for _, e := range ordered {
		summary.Categories[e.Category]++
		summary.PriorityBreakdown[e.Priority]++

		if e.Category == domain.CategoryUrgent || e.Priority == domain.PriorityHigh {
			summary.UrgentEmails = append(summary.UrgentEmails, e)
		}
		if !e.IsRead {
			summary.UnreadEmails = append(summary.UnreadEmails, e)
		}
		if needsReminder(e, now, reminderThreshold) {
			summary.ResponseReminders = append(summary.ResponseReminders, e)
		}
	}

	return summary
}

// needsReminder is evaluated fresh on every aggregation call since
// eligibility changes purely with elapsed time. The threshold boundary is
// inclusive: an email exactly threshold old qualifies.
func needsReminder(e *domain.Email, now time.Time, threshold time.Duration) bool {
	return e.ActionRequired && !e.IsReplied && now.Sub(e.ReceivedAt) >= threshold
}
