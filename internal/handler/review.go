package handler

import (
	"net/url"

	"github.com/gofiber/fiber/v3"

	"github.com/ehdro06/EuroLoo/euroloo-go/internal/middleware"
	"github.com/ehdro06/EuroLoo/euroloo-go/internal/model"
	"github.com/ehdro06/EuroLoo/euroloo-go/internal/service"
)

type ReviewHandler struct {
	svc *service.ReviewService
}

func NewReviewHandler(svc *service.ReviewService) *ReviewHandler {
	return &ReviewHandler{svc: svc}
}

// Create handles POST /api/reviews. Authentication is optional.
func (h *ReviewHandler) Create(c fiber.Ctx) error {
	var req model.CreateReviewRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}
	externalID, errMsg := middleware.ValidateExternalID(req.ExternalID)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}
	req.ExternalID = externalID
	// length is enforced by the service, so no truncation here
	req.Content = middleware.NormalizeText(req.Content, 0)

	var author *model.Identity
	if id, ok := middleware.IdentityFrom(c); ok {
		author = &id
	}

	review, err := h.svc.Create(c.Context(), req, author)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(review)
}

// ListByToilet handles GET /api/reviews/toilet/:externalId. The external id
// may contain a slash, so it is taken from the wildcard.
func (h *ReviewHandler) ListByToilet(c fiber.Ctx) error {
	raw, err := url.PathUnescape(c.Params("*"))
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", "externalId is malformed")
	}
	externalID, errMsg := middleware.ValidateExternalID(raw)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	reviews, err := h.svc.ListByToilet(c.Context(), externalID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(reviews)
}
