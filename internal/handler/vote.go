package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/ehdro06/EuroLoo/euroloo-go/internal/domain"
	"github.com/ehdro06/EuroLoo/euroloo-go/internal/middleware"
	"github.com/ehdro06/EuroLoo/euroloo-go/internal/service"
)

type VoteHandler struct {
	svc *service.VoteService
}

func NewVoteHandler(svc *service.VoteService) *VoteHandler {
	return &VoteHandler{svc: svc}
}

// Report handles POST /api/toilets/:id/report
func (h *VoteHandler) Report(c fiber.Ctx) error {
	return h.vote(c, domain.VoteReport)
}

// Verify handles POST /api/toilets/:id/verify
func (h *VoteHandler) Verify(c fiber.Ctx) error {
	return h.vote(c, domain.VoteVerify)
}

func (h *VoteHandler) vote(c fiber.Ctx, vt domain.VoteType) error {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return respondError(c, domain.ErrUnauthorized)
	}
	toiletID, errMsg := middleware.ParseToiletID(c.Params("id"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	toilet, err := h.svc.Vote(c.Context(), toiletID, id, vt)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toilet)
}
