package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/mercado-backend/internal/model"
	"github.com/shinyyama/mercado-backend/internal/service"
)

type ConversationHandler struct {
	svc service.ChatService
}

func NewConversationHandler(svc service.ChatService) *ConversationHandler {
	return &ConversationHandler{svc: svc}
}

type ConversationResponse struct {
	ID             uint64           `json:"id"`
	ProductID      uint64           `json:"productId"`
	SellerUID      string           `json:"sellerId"`
	BuyerUID       string           `json:"buyerId"`
	CounterpartUID string           `json:"counterpartId,omitempty"`
	Counterpart    *UserSummary     `json:"counterpart,omitempty"`
	Product        *ProductSummary  `json:"product,omitempty"`
	LastMessage    *MessageResponse `json:"lastMessage,omitempty"`
	UnreadCount    int64            `json:"unreadCount"`
	LastMessageAt  string           `json:"lastMessageAt"`
}

type MessageResponse struct {
	ID             uint64 `json:"id"`
	ConversationID uint64 `json:"conversationId"`
	SenderUID      string `json:"senderId"`
	Body           string `json:"body"`
	System         bool   `json:"system"`
	Read           bool   `json:"read"`
	CreatedAt      string `json:"createdAt"`
}

type MessageRequest struct {
	Body string `json:"body"`
}

func toMessageResponse(m *model.Message, read bool) MessageResponse {
	return MessageResponse{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderUID:      m.SenderUID,
		Body:           m.Body,
		System:         m.SenderUID == model.SystemSenderUID,
		Read:           read,
		CreatedAt:      formatTime(m.CreatedAt),
	}
}

func toConversationResponse(uid string, v *service.ConversationView) ConversationResponse {
	resp := ConversationResponse{
		ID:             v.Conversation.ID,
		ProductID:      v.Conversation.ProductID,
		SellerUID:      v.Conversation.SellerUID,
		BuyerUID:       v.Conversation.BuyerUID,
		CounterpartUID: v.CounterpartUID,
		Counterpart:    toUserSummary(v.Counterpart),
		Product:        toProductSummary(v.Product),
		UnreadCount:    v.Unread,
		LastMessageAt:  formatTime(v.Conversation.LastMessageAt),
	}
	if v.LastMessage != nil {
		// the newest message is read exactly when nothing is unread
		lm := toMessageResponse(v.LastMessage, v.LastMessage.SenderUID == uid || v.Unread == 0)
		resp.LastMessage = &lm
	}
	return resp
}

func (h *ConversationHandler) Start(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return missingUID(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid product id")
	}
	var req MessageRequest
	_ = c.Bind(&req)
	cv, err := h.svc.Start(c.Request().Context(), uid, id, req.Body)
	if err != nil {
		return serviceError(c, err, "product")
	}
	return c.JSON(http.StatusOK, ConversationResponse{
		ID:            cv.ID,
		ProductID:     cv.ProductID,
		SellerUID:     cv.SellerUID,
		BuyerUID:      cv.BuyerUID,
		LastMessageAt: formatTime(cv.LastMessageAt),
	})
}

func (h *ConversationHandler) List(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return missingUID(c)
	}
	list, err := h.svc.List(c.Request().Context(), uid)
	if err != nil {
		return serviceError(c, err, "conversation")
	}
	items := make([]ConversationResponse, 0, len(list))
	for i := range list {
		items = append(items, toConversationResponse(uid, &list[i]))
	}
	return c.JSON(http.StatusOK, ListResponse[ConversationResponse]{Items: items, Total: len(items)})
}

func (h *ConversationHandler) Get(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return missingUID(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid conversation id")
	}
	v, err := h.svc.Get(c.Request().Context(), uid, id)
	if err != nil {
		return serviceError(c, err, "conversation")
	}
	return c.JSON(http.StatusOK, toConversationResponse(uid, v))
}

func (h *ConversationHandler) ListMessages(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return missingUID(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid conversation id")
	}
	msgs, err := h.svc.Messages(c.Request().Context(), uid, id)
	if err != nil {
		return serviceError(c, err, "conversation")
	}
	items := make([]MessageResponse, 0, len(msgs))
	for i := range msgs {
		items = append(items, toMessageResponse(&msgs[i].Message, msgs[i].Read))
	}
	return c.JSON(http.StatusOK, ListResponse[MessageResponse]{Items: items, Total: len(items)})
}

func (h *ConversationHandler) PostMessage(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return missingUID(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid conversation id")
	}
	var req MessageRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid json")
	}
	msg, err := h.svc.Send(c.Request().Context(), uid, id, req.Body)
	if err != nil {
		return serviceError(c, err, "conversation")
	}
	return c.JSON(http.StatusCreated, toMessageResponse(msg, true))
}

func (h *ConversationHandler) MarkRead(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return missingUID(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid conversation id")
	}
	if err := h.svc.MarkRead(c.Request().Context(), uid, id); err != nil {
		return serviceError(c, err, "conversation")
	}
	return c.NoContent(http.StatusNoContent)
}
