package server

import (
	"errors"

	"freight-booking/internal/core/apperror"
	"freight-booking/internal/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ErrorResponse represents an error response with Ray ID.
type ErrorResponse struct {
	// Message is the error description.
	Message string `json:"message"`
	// Kind is the error category, e.g. INVALID_TRANSITION.
	Kind string `json:"kind,omitempty"`
	// Details carries structured context such as current and requested status.
	Details map[string]any `json:"details,omitempty"`
	// RayID is the unique request identifier for tracing.
	RayID string `json:"ray_id,omitempty"`
}

var kindStatus = map[apperror.Kind]int{
	apperror.KindNotFound:            fiber.StatusNotFound,
	apperror.KindInvalidTransition:   fiber.StatusConflict,
	apperror.KindUnauthorized:        fiber.StatusForbidden,
	apperror.KindValidation:          fiber.StatusBadRequest,
	apperror.KindNotDeleted:          fiber.StatusConflict,
	apperror.KindDuplicateIdentifier: fiber.StatusInternalServerError,
	apperror.KindUnknownTemplate:     fiber.StatusBadRequest,
	apperror.KindConflict:            fiber.StatusConflict,
}

// StatusFor returns the HTTP status for err.
func StatusFor(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	if status, ok := kindStatus[apperror.KindOf(err)]; ok {
		return status
	}
	return fiber.StatusInternalServerError
}

// RayID returns the request id set by the requestid middleware.
func RayID(c *fiber.Ctx) string {
	id, _ := c.Locals("requestid").(string)
	return id
}

// WriteError renders err as an ErrorResponse. Errors outside the app taxonomy are
// logged and reported without their internal message.
func WriteError(c *fiber.Ctx, err error) error {
	status := StatusFor(err)
	resp := ErrorResponse{RayID: RayID(c)}

	var appErr *apperror.Error
	var fe *fiber.Error
	switch {
	case errors.As(err, &appErr):
		resp.Message = appErr.Message
		resp.Kind = string(appErr.Kind)
		resp.Details = appErr.Details
		if status >= fiber.StatusInternalServerError {
			logger.Get().Error("request failed", zap.String("ray_id", resp.RayID), zap.Error(err))
		}
	case errors.As(err, &fe):
		resp.Message = fe.Message
	default:
		resp.Message = "internal server error"
		logger.Get().Error("request failed", zap.String("ray_id", resp.RayID), zap.Error(err))
	}

	return c.Status(status).JSON(resp)
}

// ErrorHandler is the fiber error handler. Handlers may simply return an error.
func ErrorHandler(c *fiber.Ctx, err error) error {
	return WriteError(c, err)
}
