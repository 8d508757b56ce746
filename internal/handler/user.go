package handler

import (
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/ehdro06/EuroLoo/euroloo-go/internal/domain"
	"github.com/ehdro06/EuroLoo/euroloo-go/internal/middleware"
	"github.com/ehdro06/EuroLoo/euroloo-go/internal/model"
	"github.com/ehdro06/EuroLoo/euroloo-go/internal/service"
)

type UserHandler struct {
	svc *service.UserService
}

func NewUserHandler(svc *service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// Me handles GET /api/users/me
func (h *UserHandler) Me(c fiber.Ctx) error {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return respondError(c, domain.ErrUnauthorized)
	}
	u, err := h.svc.Me(c.Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(u)
}

// List handles GET /api/users (admin)
func (h *UserHandler) List(c fiber.Ctx) error {
	users, err := h.svc.List(c.Context(), caller(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(users)
}

// SetRole handles POST /api/users/:externalId/role (admin)
func (h *UserHandler) SetRole(c fiber.Ctx) error {
	target, errMsg := middleware.ValidateExternalID(c.Params("externalId"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}
	var req model.SetRoleRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}

	u, err := h.svc.SetRole(c.Context(), caller(c), target, strings.ToUpper(strings.TrimSpace(req.Role)))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(u)
}
