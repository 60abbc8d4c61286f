package worker

import (
	"context"
	"time"

	"mailagent/core/domain"
	"mailagent/core/port/out"
	"mailagent/core/service/classification"
	"mailagent/core/service/digest"
	"mailagent/core/service/state"
	"mailagent/pkg/apperr"
	"mailagent/pkg/logger"
)

// Handler dispatches queued jobs to the owning service.
type Handler struct {
	classifier *classification.Service
	tracker    *state.Tracker
	digests    *digest.Service
	notifier   out.Notifier
	log        *logger.Logger
}

func NewHandler(
	classifier *classification.Service,
	tracker *state.Tracker,
	digests *digest.Service,
	notifier out.Notifier,
) *Handler {
	return &Handler{
		classifier: classifier,
		tracker:    tracker,
		digests:    digests,
		notifier:   notifier,
		log:        logger.WithField("component", "worker_handler"),
	}
}

func (h *Handler) Process(ctx context.Context, msg *Message) error {
	h.log.Debug("Processing message: %s", msg.Type)

	switch msg.Type {
	case JobClassify:
		return h.processClassify(ctx, msg)
	case JobMarkRead:
		return h.processMarkRead(ctx, msg)
	case JobMarkReplied:
		return h.processMarkReplied(ctx, msg)
	case JobDigestGenerate:
		return h.processDigestGenerate(ctx, msg)
	default:
		h.log.Warn("Unknown job type: %s", msg.Type)
		return nil
	}
}

func (h *Handler) processClassify(ctx context.Context, msg *Message) error {
	payload, err := ParsePayload[ClassifyPayload](msg)
	if err != nil {
		return apperr.MalformedInput("invalid classify payload").WithError(err)
	}

	result, err := h.classifier.ClassifyBatch(ctx, payload.Messages)
	if err != nil {
		return err
	}

	h.log.WithFields(map[string]interface{}{
		"job_id":     msg.ID,
		"classified": len(result.Classified),
		"rejected":   len(result.Errors),
		"fallbacks":  result.AnnotationFailures,
	}).Info("Classify job completed")
	return nil
}

func (h *Handler) processMarkRead(ctx context.Context, msg *Message) error {
	payload, err := ParsePayload[StatePayload](msg)
	if err != nil {
		return apperr.MalformedInput("invalid state payload").WithError(err)
	}
	_, err = h.tracker.MarkRead(ctx, payload.EmailID)
	return err
}

func (h *Handler) processMarkReplied(ctx context.Context, msg *Message) error {
	payload, err := ParsePayload[StatePayload](msg)
	if err != nil {
		return apperr.MalformedInput("invalid state payload").WithError(err)
	}
	_, err = h.tracker.MarkReplied(ctx, payload.EmailID)
	return err
}

func (h *Handler) processDigestGenerate(ctx context.Context, msg *Message) error {
	payload, err := ParsePayload[DigestGeneratePayload](msg)
	if err != nil {
		return apperr.MalformedInput("invalid digest payload").WithError(err)
	}

	date := payload.Date
	if date == "" {
		date = time.Now().UTC().Format(domain.DateLayout)
	}

	summary, err := h.digests.Aggregate(ctx, date)
	if err != nil {
		return err
	}

	if payload.Notify && h.notifier != nil {
		if err := h.notifier.NotifyDigest(ctx, summary, digest.FormatSummaryLine(summary)); err != nil {
			// Digest is already stored; delivery failures are not retried here.
			h.log.WithError(err).Warn("Digest notification failed")
		}
		for _, email := range summary.UrgentEmails {
			if err := h.notifier.NotifyUrgent(ctx, email); err != nil {
				h.log.WithError(err).WithField("email_id", email.ID).Warn("Urgent alert failed")
			}
		}
		if len(summary.ResponseReminders) > 0 {
			if err := h.notifier.NotifyReminders(ctx, date, summary.ResponseReminders); err != nil {
				h.log.WithError(err).Warn("Reminder notification failed")
			}
		}
	}

	h.log.WithFields(map[string]interface{}{
		"job_id": msg.ID,
		"date":   date,
		"total":  summary.TotalEmails,
	}).Info("Digest job completed")
	return nil
}
