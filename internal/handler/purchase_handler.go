package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/mercado-backend/internal/model"
	"github.com/shinyyama/mercado-backend/internal/service"
)

type PurchaseHandler struct {
	svc service.CheckoutService
}

func NewPurchaseHandler(svc service.CheckoutService) *PurchaseHandler {
	return &PurchaseHandler{svc: svc}
}

type QuoteResponse struct {
	ProductID      uint64   `json:"productId"`
	ItemPrice      int64    `json:"itemPrice"`
	ShippingMethod string   `json:"shippingMethod"`
	ShippingCost   int64    `json:"shippingCost"`
	FreeShipping   bool     `json:"freeShipping"`
	FirstPurchase  bool     `json:"firstPurchase"`
	Total          int64    `json:"total"`
	OfferID        *uint64  `json:"offerId,omitempty"`
	PaymentMethods []string `json:"paymentMethods"`
}

type PurchaseRequest struct {
	PaymentMethod  string `json:"paymentMethod"`
	ShippingMethod string `json:"shippingMethod"`
}

type PurchaseResponse struct {
	ID             uint64          `json:"id"`
	ProductID      uint64          `json:"productId"`
	BuyerUID       string          `json:"buyerId"`
	SellerUID      string          `json:"sellerId"`
	OfferID        *uint64         `json:"offerId,omitempty"`
	ConversationID uint64          `json:"conversationId"`
	PaymentMethod  string          `json:"paymentMethod"`
	ShippingMethod string          `json:"shippingMethod"`
	ItemPrice      int64           `json:"itemPrice"`
	ShippingCost   int64           `json:"shippingCost"`
	Total          int64           `json:"total"`
	FreeShipping   bool            `json:"freeShipping"`
	Status         string          `json:"status"`
	ShippedAt      *string         `json:"shippedAt,omitempty"`
	DeliveredAt    *string         `json:"deliveredAt,omitempty"`
	CreatedAt      string          `json:"createdAt"`
	UpdatedAt      string          `json:"updatedAt"`
	Product        *ProductSummary `json:"product,omitempty"`
}

func toPurchaseResponse(p *model.Purchase, prod *model.Product) PurchaseResponse {
	return PurchaseResponse{
		ID:             p.ID,
		ProductID:      p.ProductID,
		BuyerUID:       p.BuyerUID,
		SellerUID:      p.SellerUID,
		OfferID:        p.OfferID,
		ConversationID: p.ConversationID,
		PaymentMethod:  p.PaymentMethod,
		ShippingMethod: p.ShippingMethod,
		ItemPrice:      p.ItemPrice,
		ShippingCost:   p.ShippingCost,
		Total:          p.Total,
		FreeShipping:   p.FreeShipping,
		Status:         string(p.Status),
		ShippedAt:      formatTimePtr(p.ShippedAt),
		DeliveredAt:    formatTimePtr(p.DeliveredAt),
		CreatedAt:      formatTime(p.CreatedAt),
		UpdatedAt:      formatTime(p.UpdatedAt),
		Product:        toProductSummary(prod),
	}
}

func (h *PurchaseHandler) Quote(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return missingUID(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid product id")
	}
	q, err := h.svc.Quote(c.Request().Context(), uid, id, c.QueryParam("shipping"))
	if err != nil {
		return serviceError(c, err, "product")
	}
	return c.JSON(http.StatusOK, QuoteResponse{
		ProductID:      q.ProductID,
		ItemPrice:      q.ItemPrice,
		ShippingMethod: q.ShippingMethod,
		ShippingCost:   q.ShippingCost,
		FreeShipping:   q.FreeShipping,
		FirstPurchase:  q.FirstPurchase,
		Total:          q.Total,
		OfferID:        q.OfferID,
		PaymentMethods: q.PaymentMethods,
	})
}

func (h *PurchaseHandler) Purchase(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return missingUID(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid product id")
	}
	var req PurchaseRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid json")
	}
	p, err := h.svc.Purchase(c.Request().Context(), uid, id, service.PurchaseInput{
		PaymentMethod:  req.PaymentMethod,
		ShippingMethod: req.ShippingMethod,
	})
	if err != nil {
		return serviceError(c, err, "product")
	}
	return c.JSON(http.StatusCreated, toPurchaseResponse(p, nil))
}

func (h *PurchaseHandler) GetByProduct(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return missingUID(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid product id")
	}
	p, err := h.svc.GetByProduct(c.Request().Context(), uid, id)
	if err != nil {
		return serviceError(c, err, "purchase")
	}
	return c.JSON(http.StatusOK, toPurchaseResponse(p, nil))
}

func (h *PurchaseHandler) MarkShipped(c echo.Context) error {
	return h.transition(c, h.svc.MarkShipped)
}

func (h *PurchaseHandler) MarkDelivered(c echo.Context) error {
	return h.transition(c, h.svc.MarkDelivered)
}

func (h *PurchaseHandler) Cancel(c echo.Context) error {
	return h.transition(c, h.svc.Cancel)
}

type purchaseTransition func(ctx context.Context, uid string, id uint64) (*model.Purchase, error)

func (h *PurchaseHandler) transition(c echo.Context, fn purchaseTransition) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return missingUID(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid purchase id")
	}
	p, err := fn(c.Request().Context(), uid, id)
	if err != nil {
		return serviceError(c, err, "purchase")
	}
	return c.JSON(http.StatusOK, toPurchaseResponse(p, nil))
}

func (h *PurchaseHandler) MyPurchases(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return missingUID(c)
	}
	list, err := h.svc.ListPurchases(c.Request().Context(), uid)
	if err != nil {
		return serviceError(c, err, "purchase")
	}
	return c.JSON(http.StatusOK, purchaseList(list))
}

func (h *PurchaseHandler) MySales(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return missingUID(c)
	}
	list, err := h.svc.ListSales(c.Request().Context(), uid)
	if err != nil {
		return serviceError(c, err, "purchase")
	}
	return c.JSON(http.StatusOK, purchaseList(list))
}

func purchaseList(list []service.PurchaseView) ListResponse[PurchaseResponse] {
	items := make([]PurchaseResponse, 0, len(list))
	for i := range list {
		items = append(items, toPurchaseResponse(&list[i].Purchase, list[i].Product))
	}
	return ListResponse[PurchaseResponse]{Items: items, Total: len(items)}
}
