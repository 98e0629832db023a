package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/mercado-backend/internal/model"
	"github.com/shinyyama/mercado-backend/internal/pricing"
	"github.com/shinyyama/mercado-backend/internal/service"
)

type RevenueHandler struct {
	svc service.RevenueService
}

func NewRevenueHandler(svc service.RevenueService) *RevenueHandler {
	return &RevenueHandler{svc: svc}
}

type RevenueResponse struct {
	BalanceCents int64  `json:"balanceCents"`
	EarnedCents  int64  `json:"earnedCents"`
	Balance      string `json:"balance"`
}

type WithdrawRequest struct {
	AmountCents int64 `json:"amountCents" form:"amountCents" query:"amountCents"`
}

func toRevenueResponse(r *model.UserRevenue) RevenueResponse {
	return RevenueResponse{
		BalanceCents: r.BalanceCents,
		EarnedCents:  r.EarnedCents,
		Balance:      pricing.FormatAmount(r.BalanceCents),
	}
}

func (h *RevenueHandler) Get(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return missingUID(c)
	}
	rev, err := h.svc.Get(c.Request().Context(), uid)
	if err != nil {
		return serviceError(c, err, "revenue")
	}
	return c.JSON(http.StatusOK, toRevenueResponse(rev))
}

func (h *RevenueHandler) Withdraw(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return missingUID(c)
	}
	var req WithdrawRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid amount")
	}
	if req.AmountCents == 0 {
		if amt, err := strconv.ParseInt(c.QueryParam("amountCents"), 10, 64); err == nil {
			req.AmountCents = amt
		}
	}
	if req.AmountCents <= 0 {
		return badRequest(c, "invalid amount")
	}
	rev, err := h.svc.Withdraw(c.Request().Context(), uid, req.AmountCents)
	if err != nil {
		return serviceError(c, err, "revenue")
	}
	return c.JSON(http.StatusOK, toRevenueResponse(rev))
}
