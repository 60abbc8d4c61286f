package out

import (
	"context"
)

// Annotation is the AI-generated view of a single email.
type Annotation struct {
	Category    string   `json:"category"`
	UrgencyHint float64  `json:"urgency_hint"`
	Summary     string   `json:"summary"`
	Suggestions []string `json:"suggestions"`
}

// Annotator produces semantic annotations for an email. Implementations
// return apperr.AnnotationUnavailable on timeout, quota exhaustion, or a
// malformed provider response; callers treat that as a recoverable signal
// and fall back to heuristic-only classification.
type Annotator interface {
	Annotate(ctx context.Context, subject, body, sender string) (*Annotation, error)
}
