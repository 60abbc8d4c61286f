// Package http provides the inbound HTTP adapter.
package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"mailagent/core/domain"
	"mailagent/core/service/classification"
	"mailagent/pkg/apperr"
	"mailagent/pkg/response"
)

// ClassifyHandler handles classification requests.
type ClassifyHandler struct {
	service *classification.Service
}

func NewClassifyHandler(service *classification.Service) *ClassifyHandler {
	return &ClassifyHandler{service: service}
}

// Register registers classification routes.
func (h *ClassifyHandler) Register(router fiber.Router) {
	router.Post("/classify", h.ClassifyBatch)
}

// RawMessageRequest is the wire format of one inbound message.
type RawMessageRequest struct {
	ID          string    `json:"id"`
	Subject     string    `json:"subject"`
	Sender      string    `json:"sender"`
	SenderEmail string    `json:"sender_email"`
	Body        string    `json:"body"`
	ReceivedAt  time.Time `json:"received_at"`
}

type classifyBatchRequest struct {
	Messages []RawMessageRequest `json:"messages"`
}

// ClassifyBatch classifies a batch of raw messages.
// @Summary Classify a batch of raw messages
// @Tags Classification
// @Accept json
// @Produce json
// @Param request body classifyBatchRequest true "Raw messages"
// @Success 200 {object} domain.BatchResult
// @Router /api/v1/classify [post]
func (h *ClassifyHandler) ClassifyBatch(c *fiber.Ctx) error {
	var req classifyBatchRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("invalid request body").WithError(err)
	}
	if len(req.Messages) == 0 {
		return apperr.MissingField("messages")
	}

	raws := make([]*domain.RawMessage, len(req.Messages))
	for i, m := range req.Messages {
		raws[i] = &domain.RawMessage{
			ID:          m.ID,
			Subject:     m.Subject,
			Sender:      m.Sender,
			SenderEmail: m.SenderEmail,
			Body:        m.Body,
			ReceivedAt:  m.ReceivedAt,
		}
	}

	result, err := h.service.ClassifyBatch(c.Context(), raws)
	if err != nil {
		return err
	}

	return response.OKWithMeta(c, result, &response.Meta{
		Total:     len(raws),
		Failed:    len(result.Errors),
		Fallbacks: result.AnnotationFailures,
	})
}
