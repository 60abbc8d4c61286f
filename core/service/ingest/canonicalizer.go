// Package ingest normalizes raw inbound messages into Email records.
package ingest

import (
	"strings"
	"time"

	"github.com/badoux/checkmail"
	"github.com/google/uuid"

	"mailagent/core/domain"
	"mailagent/pkg/apperr"
)

// Canonicalizer turns raw message fields into a normalized Email.
// Sender address validation is the only hard failure in the pipeline;
// everything downstream tolerates empty strings.
type Canonicalizer struct {
	now func() time.Time
}

func NewCanonicalizer() *Canonicalizer {
	return &Canonicalizer{now: time.Now}
}

// NewCanonicalizerWithClock injects a clock for tests.
func NewCanonicalizerWithClock(now func() time.Time) *Canonicalizer {
	if now == nil {
		now = time.Now
	}
	return &Canonicalizer{now: now}
}

// Canonicalize validates and normalizes a raw message. Returns
// apperr.MalformedInput when sender_email is missing or not a
// syntactically valid address.
func (c *Canonicalizer) Canonicalize(raw *domain.RawMessage) (*domain.Email, error) {
	if raw == nil {
		return nil, apperr.MalformedInput("empty message")
	}

	senderEmail := domain.NormalizeVIPEmail(raw.SenderEmail)
	if senderEmail == "" {
		return nil, apperr.MalformedInput("sender_email is required")
	}
	if err := checkmail.ValidateFormat(senderEmail); err != nil {
		return nil, apperr.MalformedInput("sender_email is not a valid address").WithError(err).
			WithDetail("sender_email", raw.SenderEmail)
	}

	id := strings.TrimSpace(raw.ID)
	if id == "" {
		id = uuid.NewString()
	}

	receivedAt := raw.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = c.now()
	}

	return &domain.Email{
		ID:          id,
		Subject:     strings.TrimSpace(raw.Subject),
		Sender:      strings.TrimSpace(raw.Sender),
		SenderEmail: senderEmail,
		Body:        strings.TrimSpace(raw.Body),
		ReceivedAt:  receivedAt.UTC(),
		Category:    domain.CategoryOther,
		Priority:    domain.PriorityLow,
	}, nil
}
