package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shinyyama/mercado-backend/internal/events"
	"github.com/shinyyama/mercado-backend/internal/model"
	"github.com/shinyyama/mercado-backend/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	maxMessageLen  = 2000
	previewRuneLen = 140
)

type ConversationView struct {
	Conversation   model.Conversation
	CounterpartUID string
	Counterpart    *model.User
	Product        *model.Product
	LastMessage    *model.Message
	Unread         int64
}

type MessageView struct {
	Message model.Message
	Read    bool
}

// MessageEvent is published on messages.<conversationID>.
type MessageEvent struct {
	MessageID      uint64    `json:"messageId"`
	ConversationID uint64    `json:"conversationId"`
	SenderUID      string    `json:"senderUid"`
	RecipientUID   string    `json:"recipientUid"`
	Body           string    `json:"body"`
	CreatedAt      time.Time `json:"createdAt"`
}

type ChatService interface {
	Start(ctx context.Context, buyerUID string, productID uint64, firstMessage string) (*model.Conversation, error)
	List(ctx context.Context, uid string) ([]ConversationView, error)
	Get(ctx context.Context, uid string, convID uint64) (*ConversationView, error)
	Messages(ctx context.Context, uid string, convID uint64) ([]MessageView, error)
	Send(ctx context.Context, uid string, convID uint64, body string) (*model.Message, error)
	MarkRead(ctx context.Context, uid string, convID uint64) error
}

type chatService struct {
	convs    repository.ConversationRepository
	products repository.ProductRepository
	users    repository.UserRepository
	notify   NotificationService
	events   events.Publisher
	log      *zap.Logger
	now      func() time.Time
}

func NewChatService(
	convs repository.ConversationRepository,
	products repository.ProductRepository,
	users repository.UserRepository,
	notify NotificationService,
	pub events.Publisher,
	log *zap.Logger,
) ChatService {
	return &chatService{
		convs:    convs,
		products: products,
		users:    users,
		notify:   notify,
		events:   pub,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *chatService) Start(ctx context.Context, buyerUID string, productID uint64, firstMessage string) (*model.Conversation, error) {
	p, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, notFound(err)
	}
	if p.SellerUID == "" {
		return nil, errors.New("product has no seller")
	}
	if p.SellerUID == buyerUID {
		return nil, ErrOwnProduct
	}
	first := strings.TrimSpace(firstMessage)
	if utf8.RuneCountInString(first) > maxMessageLen {
		return nil, invalid("message must be at most %d characters", maxMessageLen)
	}
	cv, err := s.convs.FindOrCreate(ctx, productID, p.SellerUID, buyerUID)
	if err != nil {
		return nil, err
	}
	if first != "" {
		if _, err := s.post(ctx, cv, buyerUID, first); err != nil {
			return nil, err
		}
	}
	return cv, nil
}

func (s *chatService) List(ctx context.Context, uid string) ([]ConversationView, error) {
	list, err := s.convs.FindByUser(ctx, uid)
	if err != nil {
		return nil, err
	}
	productIDs := make([]uint64, 0, len(list))
	uids := make([]string, 0, len(list))
	for _, cv := range list {
		productIDs = append(productIDs, cv.ProductID)
		uids = append(uids, cv.Counterpart(uid))
	}
	products, err := s.products.FindByIDs(ctx, productIDs)
	if err != nil {
		return nil, err
	}
	users, err := s.users.FindByUIDs(ctx, uids)
	if err != nil {
		return nil, err
	}

	out := make([]ConversationView, 0, len(list))
	for _, cv := range list {
		v, err := s.view(ctx, uid, cv)
		if err != nil {
			return nil, err
		}
		if p, ok := products[cv.ProductID]; ok {
			v.Product = &p
		}
		if u, ok := users[v.CounterpartUID]; ok {
			v.Counterpart = &u
		}
		out = append(out, *v)
	}
	return out, nil
}

func (s *chatService) Get(ctx context.Context, uid string, convID uint64) (*ConversationView, error) {
	cv, err := s.participant(ctx, uid, convID)
	if err != nil {
		return nil, err
	}
	v, err := s.view(ctx, uid, *cv)
	if err != nil {
		return nil, err
	}
	if p, err := s.products.FindByID(ctx, cv.ProductID); err == nil {
		v.Product = p
	}
	if u, err := s.users.FindByUID(ctx, v.CounterpartUID); err == nil {
		v.Counterpart = u
	}
	return v, nil
}

// view fills in the per-caller fields: last message and unread count.
func (s *chatService) view(ctx context.Context, uid string, cv model.Conversation) (*ConversationView, error) {
	v := &ConversationView{Conversation: cv, CounterpartUID: cv.Counterpart(uid)}
	last, err := s.convs.LastMessage(ctx, cv.ID)
	switch {
	case err == nil:
		v.LastMessage = last
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}
	readAt, err := s.convs.LastReadAt(ctx, cv.ID, uid)
	if err != nil {
		return nil, err
	}
	if v.Unread, err = s.convs.CountUnread(ctx, cv.ID, uid, readAt); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *chatService) Messages(ctx context.Context, uid string, convID uint64) ([]MessageView, error) {
	if _, err := s.participant(ctx, uid, convID); err != nil {
		return nil, err
	}
	msgs, err := s.convs.ListMessages(ctx, convID)
	if err != nil {
		return nil, err
	}
	readAt, err := s.convs.LastReadAt(ctx, convID, uid)
	if err != nil {
		return nil, err
	}
	out := make([]MessageView, 0, len(msgs))
	for i := range msgs {
		out = append(out, MessageView{Message: msgs[i], Read: msgs[i].ReadBy(uid, readAt)})
	}
	return out, nil
}

func (s *chatService) Send(ctx context.Context, uid string, convID uint64, body string) (*model.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, invalid("body is required")
	}
	if utf8.RuneCountInString(body) > maxMessageLen {
		return nil, invalid("message must be at most %d characters", maxMessageLen)
	}
	cv, err := s.participant(ctx, uid, convID)
	if err != nil {
		return nil, err
	}
	return s.post(ctx, cv, uid, body)
}

func (s *chatService) MarkRead(ctx context.Context, uid string, convID uint64) error {
	if _, err := s.participant(ctx, uid, convID); err != nil {
		return err
	}
	return s.convs.MarkRead(ctx, convID, uid, s.now())
}

func (s *chatService) participant(ctx context.Context, uid string, convID uint64) (*model.Conversation, error) {
	cv, err := s.convs.FindByID(ctx, convID)
	if err != nil {
		return nil, notFound(err)
	}
	if !cv.HasParticipant(uid) {
		return nil, ErrForbidden
	}
	return cv, nil
}

func (s *chatService) post(ctx context.Context, cv *model.Conversation, uid, body string) (*model.Message, error) {
	msg := &model.Message{
		ConversationID: cv.ID,
		SenderUID:      uid,
		Body:           body,
		CreatedAt:      s.now(),
	}
	if err := s.convs.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}
	cv.LastMessageAt = msg.CreatedAt

	to := cv.Counterpart(uid)
	preview := truncate(body, previewRuneLen)
	if u, err := s.users.FindByUID(ctx, uid); err == nil && u.Name != "" {
		preview = fmt.Sprintf("%s: %s", u.Name, preview)
	}
	s.notify.Notify(ctx, model.Notification{
		UserUID:        to,
		Type:           model.NotificationMessage,
		Title:          "Nuevo mensaje",
		Body:           preview,
		FromUID:        uid,
		ProductID:      uint64Ptr(cv.ProductID),
		ConversationID: uint64Ptr(cv.ID),
	})
	publish(ctx, s.log, s.events, events.Subject(events.SubjectMessages, cv.ID), MessageEvent{
		MessageID:      msg.ID,
		ConversationID: cv.ID,
		SenderUID:      uid,
		RecipientUID:   to,
		Body:           body,
		CreatedAt:      msg.CreatedAt,
	})
	return msg, nil
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + "…"
}
