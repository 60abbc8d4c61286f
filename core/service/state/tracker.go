// Package state owns read/reply transitions for stored emails.
package state

import (
	"context"
	"hash/fnv"
	"sync"

	"mailagent/core/domain"
	"mailagent/core/port/out"
	"mailagent/pkg/apperr"
	"mailagent/pkg/logger"
)

const lockStripes = 64

// Tracker is the sole mutator of is_read/is_replied after classification.
// Transitions move forward only: Unread → Read → Replied, with Replied
// terminal and implying Read. Mutations on the same id are serialized via
// striped locks; different ids proceed concurrently.
type Tracker struct {
	repo  out.EmailRepository
	locks [lockStripes]sync.Mutex
	log   *logger.Logger
}

func NewTracker(repo out.EmailRepository) *Tracker {
	return &Tracker{
		repo: repo,
		log:  logger.Default().WithField("component", "state"),
	}
}

func (t *Tracker) lockFor(id string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(id))
	return &t.locks[h.Sum32()%lockStripes]
}

// MarkRead moves Unread → Read. No-op when already Read or Replied.
// Returns apperr.NotFound for an unknown id.
func (t *Tracker) MarkRead(ctx context.Context, id string) (*domain.Email, error) {
	return t.transition(ctx, id, func(e *domain.Email) bool {
		if e.IsRead {
			return false
		}
		e.IsRead = true
		return true
	})
}

// MarkReplied moves any state to Replied, which also sets is_read.
// Idempotent when already Replied. Returns apperr.NotFound for an
// unknown id.
func (t *Tracker) MarkReplied(ctx context.Context, id string) (*domain.Email, error) {
	return t.transition(ctx, id, func(e *domain.Email) bool {
		if e.IsReplied {
			return false
		}
		e.IsReplied = true
		e.IsRead = true
		return true
	})
}

func (t *Tracker) transition(ctx context.Context, id string, apply func(*domain.Email) bool) (*domain.Email, error) {
	if id == "" {
		return nil, apperr.MissingField("id")
	}

	mu := t.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	email, err := t.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !apply(email) {
		return email, nil
	}

	if err := t.repo.UpdateFlags(ctx, id, email.IsRead, email.IsReplied); err != nil {
		return nil, apperr.DatabaseError("update email flags", err)
	}

	t.log.WithFields(map[string]any{
		"email_id": id,
		"is_read":  email.IsRead,
		"replied":  email.IsReplied,
	}).Debug("state transition applied")

	return email, nil
}
