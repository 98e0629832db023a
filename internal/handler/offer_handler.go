package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/mercado-backend/internal/model"
	"github.com/shinyyama/mercado-backend/internal/pricing"
	"github.com/shinyyama/mercado-backend/internal/service"
)

type OfferHandler struct {
	svc service.OfferService
}

func NewOfferHandler(svc service.OfferService) *OfferHandler {
	return &OfferHandler{svc: svc}
}

type OfferOptionsResponse struct {
	ProductID       uint64  `json:"productId"`
	Price           int64   `json:"price"`
	DefaultOffer    int64   `json:"defaultOffer"`
	Suggestions     []int64 `json:"suggestions"`
	MinOfferPrice   *int64  `json:"minOfferPrice,omitempty"`
	AutomaticOffers bool    `json:"automaticOffers"`
}

type OfferResponse struct {
	ID              uint64          `json:"id"`
	ProductID       uint64          `json:"productId"`
	BuyerUID        string          `json:"buyerId"`
	SellerUID       string          `json:"sellerId"`
	Amount          int64           `json:"amount"`
	DiscountPercent int             `json:"discountPercent"`
	Message         string          `json:"message,omitempty"`
	Status          string          `json:"status"`
	AutoHandled     bool            `json:"autoHandled"`
	Response        string          `json:"response,omitempty"`
	DecidedAt       *string         `json:"decidedAt,omitempty"`
	CreatedAt       string          `json:"createdAt"`
	Product         *ProductSummary `json:"product,omitempty"`
}

func toOfferResponse(o *model.Offer, p *model.Product) OfferResponse {
	resp := OfferResponse{
		ID:          o.ID,
		ProductID:   o.ProductID,
		BuyerUID:    o.BuyerUID,
		SellerUID:   o.SellerUID,
		Amount:      o.Amount,
		Message:     o.Message,
		Status:      string(o.Status),
		AutoHandled: o.AutoHandled,
		Response:    o.Response,
		DecidedAt:   formatTimePtr(o.DecidedAt),
		CreatedAt:   formatTime(o.CreatedAt),
		Product:     toProductSummary(p),
	}
	if p != nil {
		resp.DiscountPercent = pricing.DiscountPercent(p.Price, o.Amount)
	}
	return resp
}

func (h *OfferHandler) Options(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid product id")
	}
	opts, err := h.svc.Prepare(c.Request().Context(), id)
	if err != nil {
		return serviceError(c, err, "product")
	}
	return c.JSON(http.StatusOK, OfferOptionsResponse{
		ProductID:       opts.ProductID,
		Price:           opts.Price,
		DefaultOffer:    opts.DefaultOffer,
		Suggestions:     opts.Suggestions,
		MinOfferPrice:   opts.MinOfferPrice,
		AutomaticOffers: opts.AutoOffers,
	})
}

func (h *OfferHandler) Create(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return missingUID(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid product id")
	}
	var body struct {
		Amount  int64  `json:"amount"`
		Message string `json:"message"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid json")
	}
	v, err := h.svc.Submit(c.Request().Context(), uid, id, body.Amount, body.Message)
	if err != nil {
		return serviceError(c, err, "product")
	}
	return c.JSON(http.StatusCreated, toOfferResponse(&v.Offer, v.Product))
}

func (h *OfferHandler) List(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return missingUID(c)
	}
	list, err := h.svc.List(c.Request().Context(), uid, c.QueryParam("box"), c.QueryParam("status"))
	if err != nil {
		return serviceError(c, err, "offer")
	}
	items := make([]OfferResponse, 0, len(list))
	for i := range list {
		items = append(items, toOfferResponse(&list[i].Offer, list[i].Product))
	}
	return c.JSON(http.StatusOK, ListResponse[OfferResponse]{Items: items, Total: len(items)})
}

func (h *OfferHandler) Get(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return missingUID(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid offer id")
	}
	v, err := h.svc.Get(c.Request().Context(), uid, id)
	if err != nil {
		return serviceError(c, err, "offer")
	}
	return c.JSON(http.StatusOK, toOfferResponse(&v.Offer, v.Product))
}

func (h *OfferHandler) Accept(c echo.Context) error {
	return h.decide(c, func(uid string, id uint64) (*model.Offer, error) {
		return h.svc.Accept(c.Request().Context(), uid, id)
	})
}

func (h *OfferHandler) Reject(c echo.Context) error {
	var body struct {
		Reason string `json:"reason"`
	}
	// an empty body is a rejection without a reason
	_ = c.Bind(&body)
	return h.decide(c, func(uid string, id uint64) (*model.Offer, error) {
		return h.svc.Reject(c.Request().Context(), uid, id, body.Reason)
	})
}

func (h *OfferHandler) Cancel(c echo.Context) error {
	return h.decide(c, func(uid string, id uint64) (*model.Offer, error) {
		return h.svc.Cancel(c.Request().Context(), uid, id)
	})
}

func (h *OfferHandler) decide(c echo.Context, fn func(uid string, id uint64) (*model.Offer, error)) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return missingUID(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid offer id")
	}
	o, err := fn(uid, id)
	if err != nil {
		return serviceError(c, err, "offer")
	}
	return c.JSON(http.StatusOK, toOfferResponse(o, nil))
}
