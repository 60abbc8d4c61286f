// Package domain contains the core email intelligence entities.
package domain

import (
	"strings"
	"time"
)

// EmailCategory is the closed category enum. The string literals are part of
// the external contract and must not change.
type EmailCategory string

const (
	CategoryWork       EmailCategory = "work"
	CategoryPersonal   EmailCategory = "personal"
	CategoryPromotions EmailCategory = "promotions"
	CategorySocial     EmailCategory = "social"
	CategoryUrgent     EmailCategory = "urgent"
	CategoryMeetings   EmailCategory = "meetings"
	CategoryDeadlines  EmailCategory = "deadlines"
	CategoryOther      EmailCategory = "other"
)

// AllCategories lists every category in a fixed order.
var AllCategories = []EmailCategory{
	CategoryWork,
	CategoryPersonal,
	CategoryPromotions,
	CategorySocial,
	CategoryUrgent,
	CategoryMeetings,
	CategoryDeadlines,
	CategoryOther,
}

// Valid reports whether c is a member of the closed enum.
func (c EmailCategory) Valid() bool {
	for _, known := range AllCategories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory maps a raw string onto the closed enum, defaulting to other.
// Case-insensitive: annotation providers are not trusted to preserve casing.
func ParseCategory(s string) EmailCategory {
	c := EmailCategory(strings.ToLower(strings.TrimSpace(s)))
	if c.Valid() {
		return c
	}
	return CategoryOther
}

// PriorityLevel is the closed priority enum. "urgent" is a category, not a
// priority value.
type PriorityLevel string

const (
	PriorityLow    PriorityLevel = "low"
	PriorityMedium PriorityLevel = "medium"
	PriorityHigh   PriorityLevel = "high"
)

// Urgency score thresholds used to derive a priority tier.
const (
	HighUrgencyThreshold   = 0.75
	MediumUrgencyThreshold = 0.40
)

// PriorityForScore derives the priority tier from an urgency score.
func PriorityForScore(score float64) PriorityLevel {
	switch {
	case score >= HighUrgencyThreshold:
		return PriorityHigh
	case score >= MediumUrgencyThreshold:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// ParsePriorityLevel validates a raw priority string.
func ParsePriorityLevel(s string) (PriorityLevel, bool) {
	switch PriorityLevel(s) {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return PriorityLevel(s), true
	}
	return "", false
}

// Valid reports whether p is a member of the closed priority enum.
func (p PriorityLevel) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Rank orders priority levels so they can be compared (low < medium < high).
func (p PriorityLevel) Rank() int {
	switch p {
	case PriorityHigh:
		return 2
	case PriorityMedium:
		return 1
	default:
		return 0
	}
}

// UrgencyFloor returns the minimum urgency score consistent with a priority
// tier. Flooring an email's score at this value keeps score and tier aligned
// after a VIP override.
func (p PriorityLevel) UrgencyFloor() float64 {
	switch p {
	case PriorityHigh:
		return HighUrgencyThreshold
	case PriorityMedium:
		return MediumUrgencyThreshold
	default:
		return 0
	}
}

// ClampScore clamps an urgency score into the closed interval [0,1].
func ClampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// RawMessage is an inbound message as handed over by the mail source
// collaborator. Any field except SenderEmail may be empty.
type RawMessage struct {
	ID          string    `json:"id"`
	Subject     string    `json:"subject"`
	Sender      string    `json:"sender"`
	SenderEmail string    `json:"sender_email"`
	Body        string    `json:"body"`
	ReceivedAt  time.Time `json:"received_at"`
}

// Email is a fully classified email record.
//
// Invariants: UrgencyScore ∈ [0,1]; IsReplied implies IsRead; Category and
// Priority are members of their closed enums.
type Email struct {
	ID          string    `json:"id"`
	Subject     string    `json:"subject"`
	Sender      string    `json:"sender"`
	SenderEmail string    `json:"sender_email"`
	Body        string    `json:"body,omitempty"`
	ReceivedAt  time.Time `json:"received_at"`

	Category     EmailCategory `json:"category"`
	Priority     PriorityLevel `json:"priority"`
	UrgencyScore float64       `json:"urgency_score"`
	Summary      string        `json:"summary"`

	IsRead         bool     `json:"is_read"`
	IsReplied      bool     `json:"is_replied"`
	ActionRequired bool     `json:"action_required"`
	FollowUps      []string `json:"follow_up_suggestions"`
}

// Clone returns a deep copy so readers never observe in-place mutation.
func (e *Email) Clone() *Email {
	cp := *e
	if e.FollowUps != nil {
		cp.FollowUps = make([]string, len(e.FollowUps))
		copy(cp.FollowUps, e.FollowUps)
	}
	return &cp
}
