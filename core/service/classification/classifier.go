package classification

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"mailagent/core/domain"
	"mailagent/core/port/out"
	"mailagent/pkg/apperr"
	"mailagent/pkg/logger"
)

const (
	// Merge weights when the annotator succeeds.
	heuristicWeight = 0.4
	annotatorWeight = 0.6

	// Heuristic urgent hint at or above this score overrides the AI category.
	urgentOverrideFloor = 0.8

	// Urgency at or above this score implies action_required.
	actionScoreFloor = 0.5

	fallbackSummaryLen = 160
)

// Classifier fills in category, priority, urgency and summary for a
// canonicalized email. The annotator is best-effort: on failure the
// heuristic branch alone decides, and the failure is reported back so a
// batch can record it without aborting.
type Classifier struct {
	annotator out.Annotator
	timeout   time.Duration
	log       *logger.Logger
}

func NewClassifier(annotator out.Annotator, timeout time.Duration) *Classifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Classifier{
		annotator: annotator,
		timeout:   timeout,
		log:       logger.Default().WithField("component", "classifier"),
	}
}

// Classify mutates e in place with the merged classification. The returned
// error is non-nil only when annotation failed; the email is still fully
// classified via the heuristic fallback in that case.
func (c *Classifier) Classify(ctx context.Context, e *domain.Email) error {
	sig := ExtractSignals(e.Subject, e.Body)

	ann, annErr := c.annotate(ctx, e)
	if annErr != nil {
		c.applyFallback(e, sig)
		c.finish(e, sig, nil)
		return annErr
	}

	e.UrgencyScore = domain.ClampScore(heuristicWeight*sig.Urgency + annotatorWeight*domain.ClampScore(ann.UrgencyHint))

	// Explicit urgent keywords beat a blander AI category.
	if sig.CategoryHint == domain.CategoryUrgent && sig.Urgency >= urgentOverrideFloor {
		e.Category = domain.CategoryUrgent
	} else {
		e.Category = domain.ParseCategory(ann.Category)
	}

	e.Summary = ann.Summary
	if e.Summary == "" {
		e.Summary = excerpt(e.Body, e.Subject)
	}
	e.FollowUps = append([]string(nil), ann.Suggestions...)

	c.finish(e, sig, ann)
	return nil
}

func (c *Classifier) annotate(ctx context.Context, e *domain.Email) (*out.Annotation, error) {
	if c.annotator == nil {
		return nil, apperr.AnnotationUnavailable("no annotator configured", nil)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ann, err := c.annotator.Annotate(ctx, e.Subject, e.Body, e.SenderEmail)
	if err != nil {
		c.log.WithError(err).WithField("email_id", e.ID).Warn("annotation failed, using heuristic fallback")
		if apperr.IsCode(err, apperr.CodeAnnotationUnavailable) {
			return nil, err
		}
		return nil, apperr.AnnotationUnavailable("annotator call failed", err)
	}
	if ann == nil {
		return nil, apperr.AnnotationUnavailable("annotator returned empty result", nil)
	}
	return ann, nil
}

func (c *Classifier) applyFallback(e *domain.Email, sig HeuristicSignal) {
	e.UrgencyScore = sig.Urgency
	e.Category = sig.CategoryHint
	e.Summary = excerpt(e.Body, e.Subject)
	e.FollowUps = nil
}

func (c *Classifier) finish(e *domain.Email, sig HeuristicSignal, ann *out.Annotation) {
	e.Priority = domain.PriorityForScore(e.UrgencyScore)
	e.ActionRequired = sig.ActionHint ||
		e.UrgencyScore >= actionScoreFloor ||
		(ann != nil && len(ann.Suggestions) > 0)
}

// excerpt returns a truncated body excerpt, falling back to the subject.
// The cut never splits a multi-byte rune.
func excerpt(body, subject string) string {
	s := strings.TrimSpace(body)
	if s == "" {
		s = strings.TrimSpace(subject)
	}
	if len(s) <= fallbackSummaryLen {
		return s
	}
	end := fallbackSummaryLen
	for end > 0 && !utf8.RuneStart(s[end]) {
		end--
	}
	cut := s[:end]
	if idx := strings.LastIndexByte(cut, ' '); idx > fallbackSummaryLen/2 {
		cut = cut[:idx]
	}
	return cut + "..."
}
