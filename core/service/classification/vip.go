package classification

import (
	"mailagent/core/domain"
)

// VIPPrioritizer raises an email's priority and urgency floor when the
// sender is a registered VIP contact. Built from a per-call snapshot of
// the registry so classification holds no shared mutable state.
type VIPPrioritizer struct {
	byEmail map[string]*domain.VIPContact
}

// NewVIPPrioritizer snapshots the given contact list.
func NewVIPPrioritizer(contacts []*domain.VIPContact) *VIPPrioritizer {
	byEmail := make(map[string]*domain.VIPContact, len(contacts))
	for _, c := range contacts {
		if c == nil {
			continue
		}
		byEmail[domain.NormalizeVIPEmail(c.Email)] = c
	}
	return &VIPPrioritizer{byEmail: byEmail}
}

// Apply floors e.Priority at the contact's level and e.UrgencyScore at that
// level's urgency floor. Never lowers either value; unknown senders pass
// through unchanged. Idempotent.
func (p *VIPPrioritizer) Apply(e *domain.Email) {
	contact, ok := p.byEmail[domain.NormalizeVIPEmail(e.SenderEmail)]
	if !ok {
		return
	}

	if contact.PriorityLevel.Rank() > e.Priority.Rank() {
		e.Priority = contact.PriorityLevel
	}
	if floor := contact.PriorityLevel.UrgencyFloor(); e.UrgencyScore < floor {
		e.UrgencyScore = floor
	}
}
