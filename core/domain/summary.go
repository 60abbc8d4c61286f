package domain

import "time"

// DateLayout is the calendar-day key format used for aggregation.
const DateLayout = "2006-01-02"

// DailySummary is a derived, recomputable view over one calendar day's
// emails. It owns no state of its own: it is rebuilt on every aggregation
// call from the stored emails plus the current wall clock (response reminders
// are time-relative).
type DailySummary struct {
	Date        string    `json:"date"`
	GeneratedAt time.Time `json:"generated_at"`
	TotalEmails int       `json:"total_emails"`

	// Breakdown maps hold keys only for values observed that day.
	Categories        map[EmailCategory]int `json:"categories"`
	PriorityBreakdown map[PriorityLevel]int `json:"priority_breakdown"`

	// Subsequences are ordered by received_at descending (newest first).
	UrgentEmails      []*Email `json:"urgent_emails"`
	UnreadEmails      []*Email `json:"unread_emails"`
	ResponseReminders []*Email `json:"response_reminders"`
}

// BatchError records a single raw message that could not be classified.
type BatchError struct {
	RawID  string `json:"raw_id"`
	Reason string `json:"reason"`
}

// BatchResult is the outcome of classifying a batch of raw messages.
// Classified and Errors together account for every input; a batch never
// fails wholesale because one message did.
type BatchResult struct {
	Classified []*Email     `json:"classified"`
	Errors     []BatchError `json:"errors"`

	// AnnotationFailures counts emails that fell back to heuristic-only
	// classification because the annotator was unavailable. These are
	// warnings, not errors: the emails still appear in Classified.
	AnnotationFailures int `json:"annotation_failures"`
}
