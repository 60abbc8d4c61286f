package http

import (
	"github.com/gofiber/fiber/v2"

	"mailagent/core/service/state"
	"mailagent/pkg/response"
)

// StateHandler exposes read/reply state transitions.
type StateHandler struct {
	tracker *state.Tracker
}

func NewStateHandler(tracker *state.Tracker) *StateHandler {
	return &StateHandler{tracker: tracker}
}

// Register registers state routes.
func (h *StateHandler) Register(router fiber.Router) {
	emails := router.Group("/emails")
	emails.Patch("/:id/read", h.MarkRead)
	emails.Patch("/:id/replied", h.MarkReplied)
}

// MarkRead marks an email as read.
// @Summary Mark an email as read
// @Tags State
// @Produce json
// @Param id path string true "Email ID"
// @Success 200 {object} domain.Email
// @Router /api/v1/emails/{id}/read [patch]
func (h *StateHandler) MarkRead(c *fiber.Ctx) error {
	email, err := h.tracker.MarkRead(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return response.OK(c, email)
}

// MarkReplied marks an email as replied (and read).
// @Summary Mark an email as replied
// @Tags State
// @Produce json
// @Param id path string true "Email ID"
// @Success 200 {object} domain.Email
// @Router /api/v1/emails/{id}/replied [patch]
func (h *StateHandler) MarkReplied(c *fiber.Ctx) error {
	email, err := h.tracker.MarkReplied(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return response.OK(c, email)
}
