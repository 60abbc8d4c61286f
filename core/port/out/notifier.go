package out

import (
	"context"

	"mailagent/core/domain"
)

// Notifier delivers outbound notifications about classified mail.
type Notifier interface {
	// NotifyUrgent fires once per email that lands in the high priority band.
	NotifyUrgent(ctx context.Context, email *domain.Email) error
	// NotifyDigest delivers the daily summary line.
	NotifyDigest(ctx context.Context, summary *domain.DailySummary, text string) error
	// NotifyReminders delivers the day's unanswered actionable emails.
	NotifyReminders(ctx context.Context, date string, emails []*domain.Email) error
}
