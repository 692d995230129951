package handler

import (
	"freight-booking/internal/core/auth"
	"freight-booking/internal/core/query"
	"freight-booking/internal/core/server"
	"freight-booking/internal/features/bookings/domain"
	"freight-booking/internal/features/bookings/ports"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// BookingHandler handles HTTP requests for bookings.
type BookingHandler struct {
	service ports.BookingService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(service ports.BookingService) *BookingHandler {
	return &BookingHandler{
		service: service,
	}
}

// ReasonRequest carries an optional free text reason.
type ReasonRequest struct {
	Reason string `json:"reason"`
}

// AssignRequest names the staff member taking over a booking.
type AssignRequest struct {
	AssignedTo string `json:"assigned_to"`
}

// NoteRequest is the body of a new note.
type NoteRequest struct {
	Text string `json:"text"`
}

// ChargeRequest is the body of an extra cost.
type ChargeRequest struct {
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
}

// CargoRequest replaces the cargo manifest.
type CargoRequest struct {
	CargoDetails []domain.CargoItem `json:"cargo_details"`
}

// CountResponse reports how many bookings an operation removed.
type CountResponse struct {
	Removed int64 `json:"removed"`
}

// Register mounts the booking routes on r. Fixed paths come before /:id.
func (h *BookingHandler) Register(r fiber.Router) {
	g := r.Group("/bookings")
	g.Post("/", h.Create)
	g.Get("/", h.List)
	g.Get("/stats", h.Statistics)
	g.Get("/trash", h.Trash)
	g.Delete("/trash", h.EmptyTrash)
	g.Get("/:id", h.Get)
	g.Post("/:id/transitions", h.Transition)
	g.Post("/:id/cancel", h.Cancel)
	g.Put("/:id/assignee", h.Assign)
	g.Post("/:id/notes", h.AddNote)
	g.Post("/:id/charges", h.AddCharge)
	g.Put("/:id/cargo", h.UpdateCargo)
	g.Post("/:id/invoice", h.IssueInvoice)
	g.Delete("/:id", h.SoftDelete)
	g.Post("/:id/restore", h.Restore)
	g.Delete("/:id/permanent", h.HardDelete)
}

// Create handles POST /bookings.
// @Summary Create a booking
// @Description Validates and prices the request and stores it as booking_requested.
// @Tags Bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param booking body domain.CreateRequest true "Booking request"
// @Success 201 {object} domain.Payload
// @Failure 400 {object} server.ErrorResponse
// @Router /api/v1/bookings [post]
func (h *BookingHandler) Create(c *fiber.Ctx) error {
	actor, ok := auth.ActorFrom(c)
	if !ok {
		return server.WriteError(c, fiber.ErrUnauthorized)
	}

	var req domain.CreateRequest
	if err := c.BodyParser(&req); err != nil {
		return server.WriteError(c, server.ErrInvalidBody)
	}

	b, err := h.service.Create(c.UserContext(), actor, req)
	if err != nil {
		return server.WriteError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(domain.NewPayload(b))
}

// List handles GET /bookings.
// @Summary List bookings
// @Description Live bookings, newest first unless sorted. Customers only see their own.
// @Tags Bookings
// @Produce json
// @Security BearerAuth
// @Param status query string false "Comma separated statuses"
// @Param q query string false "Booking number substring"
// @Param customer_id query string false "Customer"
// @Param shipment_category query string false "Shipment category"
// @Param created_from query string false "RFC 3339 or YYYY-MM-DD"
// @Param created_to query string false "RFC 3339 or YYYY-MM-DD"
// @Param sort_by query string false "created_at, updated_at, number, status or quoted_amount"
// @Param order query string false "asc or desc"
// @Param skip query int false "Offset"
// @Param limit query int false "Page size"
// @Success 200 {object} query.Page[domain.Payload]
// @Failure 400 {object} server.ErrorResponse
// @Router /api/v1/bookings [get]
func (h *BookingHandler) List(c *fiber.Ctx) error {
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

// Statistics handles GET /bookings/stats.
// @Summary Booking statistics
// @Description Live bookings per status, plus the trash size for staff.
// @Tags Bookings
// @Produce json
// @Security BearerAuth
// @Success 200 {object} lifecycle.Stats
// @Router /api/v1/bookings/stats [get]
func (h *BookingHandler) Statistics(c *fiber.Ctx) error {
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

// Trash handles GET /bookings/trash.
// @Summary List trashed bookings
// @Tags Bookings
// @Produce json
// @Security BearerAuth
// @Success 200 {object} query.Page[domain.Payload]
// @Failure 403 {object} server.ErrorResponse
// @Router /api/v1/bookings/trash [get]
func (h *BookingHandler) Trash(c *fiber.Ctx) error {
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

// EmptyTrash handles DELETE /bookings/trash.
// @Summary Empty the booking trash
// @Description Permanently removes every trashed booking. Admin only.
// @Tags Bookings
// @Produce json
// @Security BearerAuth
// @Param confirm query bool true "Must be true"
// @Success 200 {object} CountResponse
// @Failure 400 {object} server.ErrorResponse
// @Failure 403 {object} server.ErrorResponse
// @Router /api/v1/bookings/trash [delete]
func (h *BookingHandler) EmptyTrash(c *fiber.Ctx) error {
	actor, ok := auth.ActorFrom(c)
	if !ok {
		return server.WriteError(c, fiber.ErrUnauthorized)
	}

	removed, err := h.service.EmptyTrash(c.UserContext(), actor, c.QueryBool("confirm", false))
	if err != nil {
		return server.WriteError(c, err)
	}
	return c.JSON(CountResponse{Removed: removed})
}

// Get handles GET /bookings/:id.
// @Summary Get a booking
// @Tags Bookings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Success 200 {object} domain.Payload
// @Failure 403 {object} server.ErrorResponse
// @Failure 404 {object} server.ErrorResponse
// @Router /api/v1/bookings/{id} [get]
func (h *BookingHandler) Get(c *fiber.Ctx) error {
	actor, ok := auth.ActorFrom(c)
	if !ok {
		return server.WriteError(c, fiber.ErrUnauthorized)
	}

	b, err := h.service.Get(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return server.WriteError(c, err)
	}
	return c.JSON(domain.NewPayload(b))
}

// Transition handles POST /bookings/:id/transitions.
// @Summary Change a booking's status
// @Tags Bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Param transition body domain.TransitionRequest true "Target status"
// @Success 200 {object} domain.Payload
// @Failure 403 {object} server.ErrorResponse
// @Failure 409 {object} server.ErrorResponse
// @Router /api/v1/bookings/{id}/transitions [post]
func (h *BookingHandler) Transition(c *fiber.Ctx) error {
	actor, ok := auth.ActorFrom(c)
	if !ok {
		return server.WriteError(c, fiber.ErrUnauthorized)
	}

	var req domain.TransitionRequest
	if err := c.BodyParser(&req); err != nil {
		return server.WriteError(c, server.ErrInvalidBody)
	}

	b, err := h.service.Transition(c.UserContext(), actor, c.Params("id"), req)
	if err != nil {
		return server.WriteError(c, err)
	}
	return c.JSON(domain.NewPayload(b))
}

// Cancel handles POST /bookings/:id/cancel.
// @Summary Cancel a booking
// @Tags Bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Param reason body ReasonRequest false "Cancellation reason"
// @Success 200 {object} domain.Payload
// @Failure 409 {object} server.ErrorResponse
// @Router /api/v1/bookings/{id}/cancel [post]
func (h *BookingHandler) Cancel(c *fiber.Ctx) error {
	actor, ok := auth.ActorFrom(c)
	if !ok {
		return server.WriteError(c, fiber.ErrUnauthorized)
	}

	req, err := parseReason(c)
	if err != nil {
		return server.WriteError(c, err)
	}

	b, err := h.service.Cancel(c.UserContext(), actor, c.Params("id"), req.Reason)
	if err != nil {
		return server.WriteError(c, err)
	}
	return c.JSON(domain.NewPayload(b))
}

// Assign handles PUT /bookings/:id/assignee.
// @Summary Assign a booking to a staff member
// @Tags Bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Param assignee body AssignRequest true "Assignee"
// @Success 200 {object} domain.Payload
// @Router /api/v1/bookings/{id}/assignee [put]
func (h *BookingHandler) Assign(c *fiber.Ctx) error {
	actor, ok := auth.ActorFrom(c)
	if !ok {
		return server.WriteError(c, fiber.ErrUnauthorized)
	}

	var req AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return server.WriteError(c, server.ErrInvalidBody)
	}

	b, err := h.service.Assign(c.UserContext(), actor, c.Params("id"), req.AssignedTo)
	if err != nil {
		return server.WriteError(c, err)
	}
	return c.JSON(domain.NewPayload(b))
}

// AddNote handles POST /bookings/:id/notes.
// @Summary Add a note
// @Tags Bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Param note body NoteRequest true "Note"
// @Success 201 {object} domain.Payload
// @Router /api/v1/bookings/{id}/notes [post]
func (h *BookingHandler) AddNote(c *fiber.Ctx) error {
	actor, ok := auth.ActorFrom(c)
	if !ok {
		return server.WriteError(c, fiber.ErrUnauthorized)
	}

	var req NoteRequest
	if err := c.BodyParser(&req); err != nil {
		return server.WriteError(c, server.ErrInvalidBody)
	}

	b, err := h.service.AddNote(c.UserContext(), actor, c.Params("id"), req.Text)
	if err != nil {
		return server.WriteError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(domain.NewPayload(b))
}

// AddCharge handles POST /bookings/:id/charges.
// @Summary Add an extra charge
// @Tags Bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Param charge body ChargeRequest true "Charge"
// @Success 201 {object} domain.Payload
// @Router /api/v1/bookings/{id}/charges [post]
func (h *BookingHandler) AddCharge(c *fiber.Ctx) error {
	actor, ok := auth.ActorFrom(c)
	if !ok {
		return server.WriteError(c, fiber.ErrUnauthorized)
	}

	var req ChargeRequest
	if err := c.BodyParser(&req); err != nil {
		return server.WriteError(c, server.ErrInvalidBody)
	}

	b, err := h.service.AddCharge(c.UserContext(), actor, c.Params("id"), req.Label, req.Amount)
	if err != nil {
		return server.WriteError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(domain.NewPayload(b))
}

// UpdateCargo handles PUT /bookings/:id/cargo.
// @Summary Replace the cargo manifest
// @Tags Bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Param cargo body CargoRequest true "Cargo"
// @Success 200 {object} domain.Payload
// @Router /api/v1/bookings/{id}/cargo [put]
func (h *BookingHandler) UpdateCargo(c *fiber.Ctx) error {
	actor, ok := auth.ActorFrom(c)
	if !ok {
		return server.WriteError(c, fiber.ErrUnauthorized)
	}

	var req CargoRequest
	if err := c.BodyParser(&req); err != nil {
		return server.WriteError(c, server.ErrInvalidBody)
	}

	b, err := h.service.UpdateCargo(c.UserContext(), actor, c.Params("id"), req.CargoDetails)
	if err != nil {
		return server.WriteError(c, err)
	}
	return c.JSON(domain.NewPayload(b))
}

// IssueInvoice handles POST /bookings/:id/invoice.
// @Summary Invoice a booking
// @Tags Bookings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Success 201 {object} domain.Payload
// @Failure 409 {object} server.ErrorResponse
// @Router /api/v1/bookings/{id}/invoice [post]
func (h *BookingHandler) IssueInvoice(c *fiber.Ctx) error {
	actor, ok := auth.ActorFrom(c)
	if !ok {
		return server.WriteError(c, fiber.ErrUnauthorized)
	}

	b, err := h.service.IssueInvoice(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return server.WriteError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(domain.NewPayload(b))
}

// SoftDelete handles DELETE /bookings/:id.
// @Summary Move a booking to the trash
// @Tags Bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Param reason body ReasonRequest false "Deletion reason"
// @Success 200 {object} domain.Payload
// @Failure 403 {object} server.ErrorResponse
// @Router /api/v1/bookings/{id} [delete]
func (h *BookingHandler) SoftDelete(c *fiber.Ctx) error {
	actor, ok := auth.ActorFrom(c)
	if !ok {
		return server.WriteError(c, fiber.ErrUnauthorized)
	}

	req, err := parseReason(c)
	if err != nil {
		return server.WriteError(c, err)
	}

	b, err := h.service.SoftDelete(c.UserContext(), actor, c.Params("id"), req.Reason)
	if err != nil {
		return server.WriteError(c, err)
	}
	return c.JSON(domain.NewPayload(b))
}

// Restore handles POST /bookings/:id/restore.
// @Summary Restore a trashed booking
// @Tags Bookings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Success 200 {object} domain.Payload
// @Failure 400 {object} server.ErrorResponse
// @Router /api/v1/bookings/{id}/restore [post]
func (h *BookingHandler) Restore(c *fiber.Ctx) error {
	actor, ok := auth.ActorFrom(c)
	if !ok {
		return server.WriteError(c, fiber.ErrUnauthorized)
	}

	b, err := h.service.Restore(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return server.WriteError(c, err)
	}
	return c.JSON(domain.NewPayload(b))
}

// HardDelete handles DELETE /bookings/:id/permanent.
// @Summary Permanently delete a booking
// @Tags Bookings
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Param confirm query bool true "Must be true"
// @Success 204
// @Failure 400 {object} server.ErrorResponse
// @Failure 403 {object} server.ErrorResponse
// @Router /api/v1/bookings/{id}/permanent [delete]
func (h *BookingHandler) HardDelete(c *fiber.Ctx) error {
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
		Statuses:         p.Statuses,
		CustomerID:       c.Query("customer_id"),
		ShipmentCategory: c.Query("shipment_category"),
		Number:           p.Search,
		CreatedFrom:      p.CreatedFrom,
		CreatedTo:        p.CreatedTo,
		SortBy:           p.SortBy,
		Desc:             p.Desc,
		Skip:             p.Skip,
		Limit:            p.Limit,
	}, nil
}

// parseReason accepts an empty body, a JSON body or a ?reason= parameter.
func parseReason(c *fiber.Ctx) (ReasonRequest, error) {
	req := ReasonRequest{Reason: c.Query("reason")}
	if len(c.Body()) == 0 {
		return req, nil
	}
	if err := c.BodyParser(&req); err != nil {
		return ReasonRequest{}, server.ErrInvalidBody
	}
	return req, nil
}
