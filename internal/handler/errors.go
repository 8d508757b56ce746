package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/ehdro06/EuroLoo/euroloo-go/internal/domain"
	"github.com/ehdro06/EuroLoo/euroloo-go/internal/middleware"
)

// respondError maps a service error to the API envelope. It is the only
// place domain errors become status codes.
func respondError(c fiber.Ctx, err error) error {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", verr.Error())
	case errors.Is(err, domain.ErrValidation):
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", err.Error())
	case errors.Is(err, domain.ErrTooFar):
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "TOO_FAR", domain.ErrTooFar.Error())
	case errors.Is(err, domain.ErrDuplicate):
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "ALREADY_EXISTS", domain.ErrDuplicate.Error())
	case errors.Is(err, domain.ErrAlreadyVoted):
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "ALREADY_VOTED", domain.ErrAlreadyVoted.Error())
	case errors.Is(err, domain.ErrInvalidGeometry):
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_GEOMETRY", domain.ErrInvalidGeometry.Error())
	case errors.Is(err, domain.ErrNotFound):
		return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Not found")
	case errors.Is(err, domain.ErrUnauthorized):
		return middleware.ErrorResponse(c, fiber.StatusUnauthorized, "UNAUTHORIZED", domain.ErrUnauthorized.Error())
	case errors.Is(err, domain.ErrForbidden):
		return middleware.ErrorResponse(c, fiber.StatusForbidden, "FORBIDDEN", domain.ErrForbidden.Error())
	case errors.Is(err, domain.ErrInvariant):
		log.Error().Err(err).Str("path", c.Path()).Msg("invariant violation")
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Internal error")
	}

	log.Warn().Err(err).Str("path", c.Path()).Msg("storage unavailable")
	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"error": fiber.Map{
			"code":      "UNAVAILABLE",
			"message":   "Service temporarily unavailable, please retry",
			"retryable": true,
		},
	})
}

// caller returns the authenticated external id, or "" when anonymous.
func caller(c fiber.Ctx) string {
	id, _ := middleware.IdentityFrom(c)
	return id.ExternalID
}
