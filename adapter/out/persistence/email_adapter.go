// Package persistence provides database adapters implementing outbound ports.
package persistence

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"mailagent/core/domain"
)

// EmailAdapter implements out.EmailRepository using PostgreSQL.
type EmailAdapter struct {
	db *sqlx.DB
}

func NewEmailAdapter(db *sqlx.DB) *EmailAdapter {
	return &EmailAdapter{db: db}
}

const emailSelectColumns = `
	id, subject, sender, sender_email, body, received_at,
	category, priority, urgency_score, summary,
	is_read, is_replied, action_required, follow_ups,
	created_at, updated_at`

// emailRow represents the database row for classified emails.
type emailRow struct {
	ID          string `db:"id"`
	Subject     string `db:"subject"`
	Sender      string `db:"sender"`
	SenderEmail string `db:"sender_email"`
	Body        string `db:"body"`

	Category     string  `db:"category"`
	Priority     string  `db:"priority"`
	UrgencyScore float64 `db:"urgency_score"`
	Summary      string  `db:"summary"`

	IsRead         bool           `db:"is_read"`
	IsReplied      bool           `db:"is_replied"`
	ActionRequired bool           `db:"action_required"`
	FollowUps      pq.StringArray `db:"follow_ups"`

	ReceivedAt time.Time `db:"received_at"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

func (r *emailRow) toEntity() *domain.Email {
	return &domain.Email{
		ID:             r.ID,
		Subject:        r.Subject,
		Sender:         r.Sender,
		SenderEmail:    r.SenderEmail,
		Body:           r.Body,
		ReceivedAt:     r.ReceivedAt,
		Category:       domain.ParseCategory(r.Category),
		Priority:       prioritized(r.Priority),
		UrgencyScore:   r.UrgencyScore,
		Summary:        r.Summary,
		IsRead:         r.IsRead,
		IsReplied:      r.IsReplied,
		ActionRequired: r.ActionRequired,
		FollowUps:      r.FollowUps,
	}
}

func prioritized(raw string) domain.PriorityLevel {
	if p, ok := domain.ParsePriorityLevel(raw); ok {
		return p
	}
	return domain.PriorityLow
}

const upsertEmailQuery = `
	INSERT INTO emails (
		id, subject, sender, sender_email, body, received_at,
		category, priority, urgency_score, summary,
		is_read, is_replied, action_required, follow_ups,
		created_at, updated_at
	) VALUES (
		:id, :subject, :sender, :sender_email, :body, :received_at,
		:category, :priority, :urgency_score, :summary,
		:is_read, :is_replied, :action_required, :follow_ups,
		NOW(), NOW()
	)
	ON CONFLICT (id) DO UPDATE SET
		subject = EXCLUDED.subject,
		sender = EXCLUDED.sender,
		sender_email = EXCLUDED.sender_email,
		body = EXCLUDED.body,
		received_at = EXCLUDED.received_at,
		category = EXCLUDED.category,
		priority = EXCLUDED.priority,
		urgency_score = EXCLUDED.urgency_score,
		summary = EXCLUDED.summary,
		action_required = EXCLUDED.action_required,
		follow_ups = EXCLUDED.follow_ups,
		updated_at = NOW()`

// Save upserts a single classified email. Read/reply flags are preserved on
// conflict: the state tracker is their only mutator after creation.
func (a *EmailAdapter) Save(ctx context.Context, email *domain.Email) error {
	_, err := a.db.NamedExecContext(ctx, upsertEmailQuery, toRow(email))
	return err
}

// SaveBatch upserts classified emails inside one transaction.
func (a *EmailAdapter) SaveBatch(ctx context.Context, emails []*domain.Email) error {
	if len(emails) == 0 {
		return nil
	}

	tx, err := a.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, email := range emails {
		if _, err := tx.NamedExecContext(ctx, upsertEmailQuery, toRow(email)); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func toRow(e *domain.Email) *emailRow {
	return &emailRow{
		ID:             e.ID,
		Subject:        e.Subject,
		Sender:         e.Sender,
		SenderEmail:    e.SenderEmail,
		Body:           e.Body,
		ReceivedAt:     e.ReceivedAt,
		Category:       string(e.Category),
		Priority:       string(e.Priority),
		UrgencyScore:   e.UrgencyScore,
		Summary:        e.Summary,
		IsRead:         e.IsRead,
		IsReplied:      e.IsReplied,
		ActionRequired: e.ActionRequired,
		FollowUps:      pq.StringArray(e.FollowUps),
	}
}

// GetByID returns one email or apperr.NotFound.
func (a *EmailAdapter) GetByID(ctx context.Context, id string) (*domain.Email, error) {
	var row emailRow
	query := `SELECT ` + emailSelectColumns + ` FROM emails WHERE id = $1`
	if err := a.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, mapDBError(err, "email")
	}
	return row.toEntity(), nil
}

// GetByDay returns emails received within [dayStart, dayStart+24h), newest
// first.
func (a *EmailAdapter) GetByDay(ctx context.Context, dayStart time.Time) ([]*domain.Email, error) {
	var rows []emailRow
	query := `SELECT ` + emailSelectColumns + `
		FROM emails
		WHERE received_at >= $1 AND received_at < $2
		ORDER BY received_at DESC`
	if err := a.db.SelectContext(ctx, &rows, query, dayStart, dayStart.Add(24*time.Hour)); err != nil {
		return nil, err
	}

	emails := make([]*domain.Email, len(rows))
	for i := range rows {
		emails[i] = rows[i].toEntity()
	}
	return emails, nil
}

// UpdateFlags persists a read/reply state transition.
func (a *EmailAdapter) UpdateFlags(ctx context.Context, id string, isRead, isReplied bool) error {
	result, err := a.db.ExecContext(ctx,
		`UPDATE emails SET is_read = $2, is_replied = $3, updated_at = NOW() WHERE id = $1`,
		id, isRead, isReplied)
	if err != nil {
		return err
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return mapNoRows("email")
	}
	return nil
}
