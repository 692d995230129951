package handler

import (
	"freight-booking/internal/core/auth"
	"freight-booking/internal/core/server"
	"freight-booking/internal/features/quotes/domain"
	"freight-booking/internal/features/quotes/ports"

	"github.com/gofiber/fiber/v2"
)

// QuoteHandler handles HTTP requests for quotes.
type QuoteHandler struct {
	service ports.QuoteService
}

// NewQuoteHandler creates a new QuoteHandler.
func NewQuoteHandler(service ports.QuoteService) *QuoteHandler {
	return &QuoteHandler{
		service: service,
	}
}

// CreateQuote handles POST /quotes.
// @Summary Price a shipment
// @Description Runs the charge calculator and keeps the result for a limited time.
// @Tags Quotes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param quote body domain.Request true "Cargo and route"
// @Success 201 {object} domain.Quote
// @Failure 400 {object} server.ErrorResponse
// @Failure 401 {object} server.ErrorResponse
// @Router /api/v1/quotes [post]
func (h *QuoteHandler) CreateQuote(c *fiber.Ctx) error {
	actor, ok := auth.ActorFrom(c)
	if !ok {
		return server.WriteError(c, fiber.ErrUnauthorized)
	}

	var req domain.Request
	if err := c.BodyParser(&req); err != nil {
		return server.WriteError(c, fiber.NewError(fiber.StatusBadRequest, "Invalid request body"))
	}

	quote, err := h.service.CreateQuote(c.UserContext(), actor, req)
	if err != nil {
		return server.WriteError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(quote)
}

// GetQuote handles GET /quotes/:id.
// @Summary Get a quote
// @Description Returns a quote until it expires.
// @Tags Quotes
// @Produce json
// @Security BearerAuth
// @Param id path string true "Quote ID"
// @Success 200 {object} domain.Quote
// @Failure 403 {object} server.ErrorResponse
// @Failure 404 {object} server.ErrorResponse
// @Router /api/v1/quotes/{id} [get]
func (h *QuoteHandler) GetQuote(c *fiber.Ctx) error {
	actor, ok := auth.ActorFrom(c)
	if !ok {
		return server.WriteError(c, fiber.ErrUnauthorized)
	}

	quote, err := h.service.GetQuote(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return server.WriteError(c, err)
	}

	return c.JSON(quote)
}

// Register mounts the quote routes on r.
func (h *QuoteHandler) Register(r fiber.Router) {
	r.Post("/quotes", h.CreateQuote)
	r.Get("/quotes/:id", h.GetQuote)
}
