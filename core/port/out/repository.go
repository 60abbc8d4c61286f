// Package out defines outbound ports (driven ports) for the application.
// These interfaces represent dependencies that the application needs.
package out

import (
	"context"
	"time"

	"mailagent/core/domain"
)

// EmailRepository defines the outbound port for classified email persistence.
type EmailRepository interface {
	Save(ctx context.Context, email *domain.Email) error
	SaveBatch(ctx context.Context, emails []*domain.Email) error
	GetByID(ctx context.Context, id string) (*domain.Email, error)
	// GetByDay returns every email received within [dayStart, dayStart+24h),
	// ordered by received_at descending.
	GetByDay(ctx context.Context, dayStart time.Time) ([]*domain.Email, error)
	UpdateFlags(ctx context.Context, id string, isRead, isReplied bool) error
}

// VIPRepository defines the outbound port for the VIP contact list.
type VIPRepository interface {
	List(ctx context.Context) ([]*domain.VIPContact, error)
	GetByEmail(ctx context.Context, email string) (*domain.VIPContact, error)
	Upsert(ctx context.Context, contact *domain.VIPContact) error
	Remove(ctx context.Context, email string) error
}

// DigestArchive stores generated daily summaries for later retrieval.
type DigestArchive interface {
	Put(ctx context.Context, summary *domain.DailySummary) error
	Get(ctx context.Context, date string) (*domain.DailySummary, error)
}

// DigestCache holds the most recently generated summary per date.
// Write-through only: summaries are always recomputed on demand.
type DigestCache interface {
	SetLatest(ctx context.Context, summary *domain.DailySummary, ttl time.Duration) error
	GetLatest(ctx context.Context, date string) (*domain.DailySummary, error)
}
