package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/mercado-backend/internal/model"
	"github.com/shinyyama/mercado-backend/internal/service"
)

type NotificationHandler struct {
	svc service.NotificationService
}

func NewNotificationHandler(svc service.NotificationService) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

type NotificationResponse struct {
	ID             uint64  `json:"id"`
	Type           string  `json:"type"`
	Title          string  `json:"title"`
	Body           string  `json:"body"`
	FromUID        string  `json:"fromUid,omitempty"`
	ProductID      *uint64 `json:"productId,omitempty"`
	ConversationID *uint64 `json:"conversationId,omitempty"`
	OfferID        *uint64 `json:"offerId,omitempty"`
	PurchaseID     *uint64 `json:"purchaseId,omitempty"`
	Read           bool    `json:"read"`
	CreatedAt      string  `json:"createdAt"`
}

func toNotificationResponse(n model.Notification) NotificationResponse {
	return NotificationResponse{
		ID:             n.ID,
		Type:           n.Type,
		Title:          n.Title,
		Body:           n.Body,
		FromUID:        n.FromUID,
		ProductID:      n.ProductID,
		ConversationID: n.ConversationID,
		OfferID:        n.OfferID,
		PurchaseID:     n.PurchaseID,
		Read:           n.ReadAt != nil,
		CreatedAt:      formatTime(n.CreatedAt),
	}
}

func (h *NotificationHandler) List(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return missingUID(c)
	}
	unreadOnly := c.QueryParam("unread_only") == "true"
	limit := 20
	if lStr := c.QueryParam("limit"); lStr != "" {
		if lParsed, err := strconv.Atoi(lStr); err == nil && lParsed > 0 {
			limit = lParsed
		}
	}
	list, unreadCount, err := h.svc.List(c.Request().Context(), uid, unreadOnly, limit)
	if err != nil {
		return serviceError(c, err, "notification")
	}
	resp := make([]NotificationResponse, 0, len(list))
	for _, n := range list {
		resp = append(resp, toNotificationResponse(n))
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"notifications": resp,
		"unreadCount":   unreadCount,
	})
}

func (h *NotificationHandler) MarkRead(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return missingUID(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid notification id")
	}
	if err := h.svc.MarkRead(c.Request().Context(), uid, id); err != nil {
		return serviceError(c, err, "notification")
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return missingUID(c)
	}
	if err := h.svc.MarkAllRead(c.Request().Context(), uid); err != nil {
		return serviceError(c, err, "notification")
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
