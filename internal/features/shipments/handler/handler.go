package handler

import (
	"freight-booking/internal/core/auth"
	"freight-booking/internal/core/query"
	"freight-booking/internal/core/server"
	"freight-booking/internal/features/shipments/domain"
	"freight-booking/internal/features/shipments/ports"

	"github.com/gofiber/fiber/v2"
)

// ShipmentHandler handles HTTP requests for shipments.
type ShipmentHandler struct {
	service ports.ShipmentService
}

// NewShipmentHandler creates a new ShipmentHandler.
func NewShipmentHandler(service ports.ShipmentService) *ShipmentHandler {
	return &ShipmentHandler{
		service: service,
	}
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

type assignRequest struct {
	AssignedTo string `json:"assigned_to"`
}

type packagesRequest struct {
	Packages []domain.Package `json:"packages"`
}

type countResponse struct {
	Removed int64 `json:"removed"`
}

// Register mounts the shipment routes on r.
func (h *ShipmentHandler) Register(r fiber.Router) {
	g := r.Group("/shipments")
	g.Post("/", h.Create)
	g.Get("/", h.List)
	g.Get("/stats", h.Statistics)
	g.Get("/trash", h.Trash)
	g.Delete("/trash", h.EmptyTrash)
	g.Get("/:id", h.Get)
	g.Post("/:id/transitions", h.Transition)
	g.Post("/:id/cancel", h.Cancel)
	g.Put("/:id/assignee", h.Assign)
	g.Put("/:id/packages", h.UpdatePackages)
	g.Delete("/:id", h.SoftDelete)
	g.Post("/:id/restore", h.Restore)
	g.Delete("/:id/permanent", h.HardDelete)
}

// Create handles POST /shipments.
// @Summary Create a shipment
// @Description Staff only. With booking_id the missing fields are taken from that booking.
// @Tags Shipments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param shipment body domain.CreateRequest true "Shipment"
// @Success 201 {object} domain.Payload
// @Failure 400 {object} server.ErrorResponse
// @Failure 403 {object} server.ErrorResponse
// @Router /api/v1/shipments [post]
func (h *ShipmentHandler) Create(c *fiber.Ctx) error {
	actor, ok := auth.ActorFrom(c)
	if !ok {
		return server.WriteError(c, fiber.ErrUnauthorized)
	}

	var req domain.CreateRequest
	if err := c.BodyParser(&req); err != nil {
		return server.WriteError(c, server.ErrInvalidBody)
	}

	sh, err := h.service.Create(c.UserContext(), actor, req)
	if err != nil {
		return server.WriteError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(domain.NewPayload(sh))
}

// List handles GET /shipments.
// @Summary List shipments
// @Tags Shipments
// @Produce json
// @Security BearerAuth
// @Param status query string false "Comma separated statuses"
// @Param q query string false "Shipment number substring"
// @Param booking_id query string false "Booking"
// @Param mode query string false "Transport mode"
// @Success 200 {object} query.Page[domain.Payload]
// @Router /api/v1/shipments [get]
func (h *ShipmentHandler) List(c *fiber.Ctx) error {
	actor, ok := auth.ActorFrom(c)
	if !ok {
		return server.WriteError(c, fiber.ErrUnauthorized)
	}
	filter, err := parseFilter(c)
	if err != nil {
		return server.WriteError(c, err)
	}

	page, err := h.service.List(c.UserContext(), actor, filter)
	if err != nil {
		return server.WriteError(c, err)
	}
	return c.JSON(query.Map(page, domain.NewPayload))
}

// Statistics handles GET /shipments/stats.
// @Summary Shipment statistics
// @Tags Shipments
// @Produce json
// @Security BearerAuth
// @Success 200 {object} lifecycle.Stats
// @Router /api/v1/shipments/stats [get]
func (h *ShipmentHandler) Statistics(c *fiber.Ctx) error {
	actor, ok := auth.ActorFrom(c)
	if !ok {
		return server.WriteError(c, fiber.ErrUnauthorized)
	}
	filter, err := parseFilter(c)
	if err != nil {
		return server.WriteError(c, err)
	}

	stats, err := h.service.Statistics(c.UserContext(), actor, filter)
	if err != nil {
		return server.WriteError(c, err)
	}
	return c.JSON(stats)
}

// Trash handles GET /shipments/trash.
// @Summary List trashed shipments
// @Tags Shipments
// @Produce json
// @Security BearerAuth
// @Success 200 {object} query.Page[domain.Payload]
// @Router /api/v1/shipments/trash [get]
func (h *ShipmentHandler) Trash(c *fiber.Ctx) error {
	actor, ok := auth.ActorFrom(c)
	if !ok {
		return server.WriteError(c, fiber.ErrUnauthorized)
	}
	filter, err := parseFilter(c)
	if err != nil {
		return server.WriteError(c, err)
	}

	page, err := h.service.Trash(c.UserContext(), actor, filter)
	if err != nil {
		return server.WriteError(c, err)
	}
	return c.JSON(query.Map(page, domain.NewPayload))
}

// EmptyTrash handles DELETE /shipments/trash.
// @Summary Empty the shipment trash
// @Tags Shipments
// @Produce json
// @Security BearerAuth
// @Param confirm query bool true "Must be true"
// @Success 200 {object} countResponse
// @Router /api/v1/shipments/trash [delete]
func (h *ShipmentHandler) EmptyTrash(c *fiber.Ctx) error {
	actor, ok := auth.ActorFrom(c)
	if !ok {
		return server.WriteError(c, fiber.ErrUnauthorized)
	}

	removed, err := h.service.EmptyTrash(c.UserContext(), actor, c.QueryBool("confirm", false))
	if err != nil {
		return server.WriteError(c, err)
	}
	return c.JSON(countResponse{Removed: removed})
}

// Get handles GET /shipments/:id.
// @Summary Get a shipment
// @Tags Shipments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Shipment ID"
// @Success 200 {object} domain.Payload
// @Failure 404 {object} server.ErrorResponse
// @Router /api/v1/shipments/{id} [get]
func (h *ShipmentHandler) Get(c *fiber.Ctx) error {
	actor, ok := auth.ActorFrom(c)
	if !ok {
		return server.WriteError(c, fiber.ErrUnauthorized)
	}

	sh, err := h.service.Get(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return server.WriteError(c, err)
	}
	return c.JSON(domain.NewPayload(sh))
}

// Transition handles POST /shipments/:id/transitions.
// @Summary Change a shipment's status
// @Tags Shipments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Shipment ID"
// @Param transition body domain.TransitionRequest true "Target status"
// @Success 200 {object} domain.Payload
// @Failure 409 {object} server.ErrorResponse
// @Router /api/v1/shipments/{id}/transitions [post]
func (h *ShipmentHandler) Transition(c *fiber.Ctx) error {
	actor, ok := auth.ActorFrom(c)
	if !ok {
		return server.WriteError(c, fiber.ErrUnauthorized)
	}

	var req domain.TransitionRequest
	if err := c.BodyParser(&req); err != nil {
		return server.WriteError(c, server.ErrInvalidBody)
	}

	sh, err := h.service.Transition(c.UserContext(), actor, c.Params("id"), req)
	if err != nil {
		return server.WriteError(c, err)
	}
	return c.JSON(domain.NewPayload(sh))
}

// Cancel handles POST /shipments/:id/cancel.
// @Summary Cancel a shipment
// @Tags Shipments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Shipment ID"
// @Success 200 {object} domain.Payload
// @Router /api/v1/shipments/{id}/cancel [post]
func (h *ShipmentHandler) Cancel(c *fiber.Ctx) error {
	actor, ok := auth.ActorFrom(c)
	if !ok {
		return server.WriteError(c, fiber.ErrUnauthorized)
	}

	req, err := parseReason(c)
	if err != nil {
		return server.WriteError(c, err)
	}

	sh, err := h.service.Cancel(c.UserContext(), actor, c.Params("id"), req.Reason)
	if err != nil {
		return server.WriteError(c, err)
	}
	return c.JSON(domain.NewPayload(sh))
}

// Assign handles PUT /shipments/:id/assignee.
// @Summary Assign a shipment
// @Tags Shipments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Shipment ID"
// @Success 200 {object} domain.Payload
// @Router /api/v1/shipments/{id}/assignee [put]
func (h *ShipmentHandler) Assign(c *fiber.Ctx) error {
	actor, ok := auth.ActorFrom(c)
	if !ok {
		return server.WriteError(c, fiber.ErrUnauthorized)
	}

	var req assignRequest
	if err := c.BodyParser(&req); err != nil {
		return server.WriteError(c, server.ErrInvalidBody)
	}

	sh, err := h.service.Assign(c.UserContext(), actor, c.Params("id"), req.AssignedTo)
	if err != nil {
		return server.WriteError(c, err)
	}
	return c.JSON(domain.NewPayload(sh))
}

// UpdatePackages handles PUT /shipments/:id/packages.
// @Summary Replace the packing list
// @Tags Shipments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Shipment ID"
// @Success 200 {object} domain.Payload
// @Router /api/v1/shipments/{id}/packages [put]
func (h *ShipmentHandler) UpdatePackages(c *fiber.Ctx) error {
	actor, ok := auth.ActorFrom(c)
	if !ok {
		return server.WriteError(c, fiber.ErrUnauthorized)
	}

	var req packagesRequest
	if err := c.BodyParser(&req); err != nil {
		return server.WriteError(c, server.ErrInvalidBody)
	}

	sh, err := h.service.UpdatePackages(c.UserContext(), actor, c.Params("id"), req.Packages)
	if err != nil {
		return server.WriteError(c, err)
	}
	return c.JSON(domain.NewPayload(sh))
}

// SoftDelete handles DELETE /shipments/:id.
// @Summary Move a shipment to the trash
// @Tags Shipments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Shipment ID"
// @Success 200 {object} domain.Payload
// @Router /api/v1/shipments/{id} [delete]
func (h *ShipmentHandler) SoftDelete(c *fiber.Ctx) error {
	actor, ok := auth.ActorFrom(c)
	if !ok {
		return server.WriteError(c, fiber.ErrUnauthorized)
	}

	req, err := parseReason(c)
	if err != nil {
		return server.WriteError(c, err)
	}

	sh, err := h.service.SoftDelete(c.UserContext(), actor, c.Params("id"), req.Reason)
	if err != nil {
		return server.WriteError(c, err)
	}
	return c.JSON(domain.NewPayload(sh))
}

// Restore handles POST /shipments/:id/restore.
// @Summary Restore a trashed shipment
// @Tags Shipments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Shipment ID"
// @Success 200 {object} domain.Payload
// @Router /api/v1/shipments/{id}/restore [post]
func (h *ShipmentHandler) Restore(c *fiber.Ctx) error {
	actor, ok := auth.ActorFrom(c)
	if !ok {
		return server.WriteError(c, fiber.ErrUnauthorized)
	}

	sh, err := h.service.Restore(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return server.WriteError(c, err)
	}
	return c.JSON(domain.NewPayload(sh))
}

// HardDelete handles DELETE /shipments/:id/permanent.
// @Summary Permanently delete a shipment
// @Tags Shipments
// @Security BearerAuth
// @Param id path string true "Shipment ID"
// @Param confirm query bool true "Must be true"
// @Success 204
// @Router /api/v1/shipments/{id}/permanent [delete]
func (h *ShipmentHandler) HardDelete(c *fiber.Ctx) error {
	actor, ok := auth.ActorFrom(c)
	if !ok {
		return server.WriteError(c, fiber.ErrUnauthorized)
	}

	if err := h.service.HardDelete(c.UserContext(), actor, c.Params("id"), c.QueryBool("confirm", false)); err != nil {
		return server.WriteError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func parseFilter(c *fiber.Ctx) (domain.Filter, error) {
	p, err := server.ParseList(c)
	if err != nil {
		return domain.Filter{}, err
	}
	return domain.Filter{
		Statuses:    p.Statuses,
		CustomerID:  c.Query("customer_id"),
		BookingID:   c.Query("booking_id"),
		Mode:        c.Query("mode"),
		Number:      p.Search,
		CreatedFrom: p.CreatedFrom,
		CreatedTo:   p.CreatedTo,
		SortBy:      p.SortBy,
		Desc:        p.Desc,
		Skip:        p.Skip,
		Limit:       p.Limit,
	}, nil
}

func parseReason(c *fiber.Ctx) (reasonRequest, error) {
	req := reasonRequest{Reason: c.Query("reason")}
	if len(c.Body()) == 0 {
		return req, nil
	}
	if err := c.BodyParser(&req); err != nil {
		return reasonRequest{}, server.ErrInvalidBody
	}
	return req, nil
}
