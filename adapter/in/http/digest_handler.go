package http

import (
	"github.com/gofiber/fiber/v2"

	"mailagent/core/service/digest"
	"mailagent/pkg/response"
)

// DigestHandler serves daily summaries.
type DigestHandler struct {
	service *digest.Service
}

func NewDigestHandler(service *digest.Service) *DigestHandler {
	return &DigestHandler{service: service}
}

// Register registers digest routes.
func (h *DigestHandler) Register(router fiber.Router) {
	router.Get("/digest/:date", h.Get)
	router.Get("/digest/:date/archived", h.GetArchived)
}

// Get aggregates the daily summary for a date.
// @Summary Aggregate the daily summary for a date
// @Tags Digest
// @Produce json
// @Param date path string true "Date (YYYY-MM-DD)"
// @Success 200 {object} domain.DailySummary
// @Router /api/v1/digest/{date} [get]
func (h *DigestHandler) Get(c *fiber.Ctx) error {
	summary, err := h.service.Aggregate(c.Context(), c.Params("date"))
	if err != nil {
		return err
	}
	return response.OK(c, summary)
}

// GetArchived returns the last archived summary for a date.
// @Summary Return the archived summary for a date
// @Tags Digest
// @Produce json
// @Param date path string true "Date (YYYY-MM-DD)"
// @Success 200 {object} domain.DailySummary
// @Router /api/v1/digest/{date}/archived [get]
func (h *DigestHandler) GetArchived(c *fiber.Ctx) error {
	summary, err := h.service.Archived(c.Context(), c.Params("date"))
	if err != nil {
		return err
	}
	return response.OK(c, summary)
}
