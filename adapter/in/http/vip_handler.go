package http

import (
	"github.com/gofiber/fiber/v2"

	"mailagent/core/domain"
	"mailagent/core/service/vip"
	"mailagent/pkg/apperr"
	"mailagent/pkg/response"
)

// VIPHandler manages VIP contacts.
type VIPHandler struct {
	service *vip.Service
}

func NewVIPHandler(service *vip.Service) *VIPHandler {
	return &VIPHandler{service: service}
}

// Register registers VIP routes.
func (h *VIPHandler) Register(router fiber.Router) {
	vips := router.Group("/vips")
	vips.Get("/", h.List)
	vips.Put("/", h.Upsert)
	vips.Get("/:email", h.Get)
	vips.Delete("/:email", h.Remove)
}

type vipRequest struct {
	Email         string `json:"email"`
	Name          string `json:"name"`
	PriorityLevel string `json:"priority_level"`
}

// List lists all VIP contacts.
// @Summary List VIP contacts
// @Tags VIP
// @Produce json
// @Success 200 {array} domain.VIPContact
// @Router /api/v1/vips [get]
func (h *VIPHandler) List(c *fiber.Ctx) error {
	contacts, err := h.service.List(c.Context())
	if err != nil {
		return err
	}
	return response.OKWithMeta(c, contacts, &response.Meta{Total: len(contacts)})
}

// Get returns one VIP contact by address.
// @Summary Get a VIP contact
// @Tags VIP
// @Produce json
// @Param email path string true "Contact email"
// @Success 200 {object} domain.VIPContact
// @Router /api/v1/vips/{email} [get]
func (h *VIPHandler) Get(c *fiber.Ctx) error {
	contact, err := h.service.Get(c.Context(), c.Params("email"))
	if err != nil {
		return err
	}
	return response.OK(c, contact)
}

// Upsert creates or updates a VIP contact.
// @Summary Create or update a VIP contact
// @Tags VIP
// @Accept json
// @Produce json
// @Param request body vipRequest true "Contact"
// @Success 201 {object} domain.VIPContact
// @Router /api/v1/vips [put]
func (h *VIPHandler) Upsert(c *fiber.Ctx) error {
	var req vipRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.BadRequest("invalid request body").WithError(err)
	}

	level, ok := domain.ParsePriorityLevel(req.PriorityLevel)
	if !ok {
		return apperr.BadRequest("priority_level must be one of low, medium, high")
	}

	contact, err := h.service.Upsert(c.Context(), &domain.VIPContact{
		Email:         req.Email,
		Name:          req.Name,
		PriorityLevel: level,
	})
	if err != nil {
		return err
	}
	return response.Created(c, contact)
}

// Remove deletes a VIP contact.
// @Summary Remove a VIP contact
// @Tags VIP
// @Param email path string true "Contact email"
// @Success 204
// @Router /api/v1/vips/{email} [delete]
func (h *VIPHandler) Remove(c *fiber.Ctx) error {
	if err := h.service.Remove(c.Context(), c.Params("email")); err != nil {
		return err
	}
	return response.NoContent(c)
}
