package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/ehdro06/EuroLoo/euroloo-go/internal/domain"
	"github.com/ehdro06/EuroLoo/euroloo-go/internal/middleware"
	"github.com/ehdro06/EuroLoo/euroloo-go/internal/model"
	"github.com/ehdro06/EuroLoo/euroloo-go/internal/service"
)

type ToiletHandler struct {
	svc *service.ToiletService
}

func NewToiletHandler(svc *service.ToiletService) *ToiletHandler {
	return &ToiletHandler{svc: svc}
}

// Search handles GET /api/toilets?lat=&lng=&radius=
func (h *ToiletHandler) Search(c fiber.Ctx) error {
	lat, errMsg := middleware.ParseCoordinate("lat", c.Query("lat"), 90)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}
	lng, errMsg := middleware.ParseCoordinate("lng", c.Query("lng"), 180)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}
	radius, errMsg := middleware.ParseRadius(c.Query("radius"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	toilets, err := h.svc.Search(c.Context(), lat, lng, radius)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toilets)
}

// Submit handles POST /api/toilets
func (h *ToiletHandler) Submit(c fiber.Ctx) error {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return respondError(c, domain.ErrUnauthorized)
	}

	var req model.SubmitToiletRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}
	in, errMsg := middleware.ValidateSubmitRequest(req)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	toilet, err := h.svc.Submit(c.Context(), in, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toilet)
}

// ListHidden handles GET /api/toilets/hidden (admin)
func (h *ToiletHandler) ListHidden(c fiber.Ctx) error {
	toilets, err := h.svc.ListHidden(c.Context(), caller(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toilets)
}

// Restore handles POST /api/toilets/:id/restore (admin)
func (h *ToiletHandler) Restore(c fiber.Ctx) error {
	toiletID, errMsg := middleware.ParseToiletID(c.Params("id"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}
	toilet, err := h.svc.Restore(c.Context(), caller(c), toiletID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toilet)
}

// Delete handles DELETE /api/toilets/:id (admin)
func (h *ToiletHandler) Delete(c fiber.Ctx) error {
	toiletID, errMsg := middleware.ParseToiletID(c.Params("id"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}
	if err := h.svc.Delete(c.Context(), caller(c), toiletID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// CacheInfo handles GET /api/debug/cache (admin)
func (h *ToiletHandler) CacheInfo(c fiber.Ctx) error {
	info, err := h.svc.CacheInfo(c.Context(), caller(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(info)
}
