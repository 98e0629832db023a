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
	"github.com/shinyyama/mercado-backend/internal/pricing"
	"github.com/shinyyama/mercado-backend/internal/repository"
	"go.uber.org/zap"
)

const maxOfferMessageLen = 500

// OfferOptions feeds the make-an-offer screen.
type OfferOptions struct {
	ProductID     uint64
	Price         int64
	DefaultOffer  int64
	Suggestions   []int64
	MinOfferPrice *int64
	AutoOffers    bool
}

type OfferView struct {
	model.Offer
	Product *model.Product
}

// OfferEvent is published on offers.<status>.
type OfferEvent struct {
	OfferID     uint64            `json:"offerId"`
	ProductID   uint64            `json:"productId"`
	BuyerUID    string            `json:"buyerUid"`
	SellerUID   string            `json:"sellerUid"`
	Amount      int64             `json:"amount"`
	Status      model.OfferStatus `json:"status"`
	AutoHandled bool              `json:"autoHandled"`
}

type OfferService interface {
	Prepare(ctx context.Context, productID uint64) (*OfferOptions, error)
	Submit(ctx context.Context, buyerUID string, productID uint64, amount int64, message string) (*OfferView, error)
	Accept(ctx context.Context, sellerUID string, offerID uint64) (*model.Offer, error)
	Reject(ctx context.Context, sellerUID string, offerID uint64, reason string) (*model.Offer, error)
	Cancel(ctx context.Context, buyerUID string, offerID uint64) (*model.Offer, error)
	Get(ctx context.Context, uid string, offerID uint64) (*OfferView, error)
	List(ctx context.Context, uid, box, status string) ([]OfferView, error)
}

type offerService struct {
	offers   repository.OfferRepository
	products repository.ProductRepository
	notify   NotificationService
	events   events.Publisher
	log      *zap.Logger
	now      func() time.Time
}

func NewOfferService(
	offers repository.OfferRepository,
	products repository.ProductRepository,
	notify NotificationService,
	pub events.Publisher,
	log *zap.Logger,
) OfferService {
	return &offerService{
		offers:   offers,
		products: products,
		notify:   notify,
		events:   pub,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *offerService) Prepare(ctx context.Context, productID uint64) (*OfferOptions, error) {
	p, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, notFound(err)
	}
	if p.Status != model.ProductStatusActive {
		return nil, ErrProductUnavailable
	}
	return &OfferOptions{
		ProductID:     p.ID,
		Price:         p.Price,
		DefaultOffer:  pricing.DefaultOffer(p.Price),
		Suggestions:   pricing.SuggestedOffers(p.Price),
		MinOfferPrice: p.MinOfferPrice,
		AutoOffers:    p.AutoOffers(),
	}, nil
}

func (s *offerService) Submit(ctx context.Context, buyerUID string, productID uint64, amount int64, message string) (*OfferView, error) {
	message = strings.TrimSpace(message)
	if utf8.RuneCountInString(message) > maxOfferMessageLen {
		return nil, invalid("message must be at most %d characters", maxOfferMessageLen)
	}
	p, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, notFound(err)
	}
	if p.Status != model.ProductStatusActive {
		return nil, ErrProductUnavailable
	}
	if p.SellerUID == buyerUID {
		return nil, ErrOwnProduct
	}
	decision, err := pricing.EvaluateOffer(p.Price, p.MinOfferPrice, amount)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOffer, err)
	}

	o := &model.Offer{
		ProductID: p.ID,
		BuyerUID:  buyerUID,
		SellerUID: p.SellerUID,
		Amount:    amount,
		Message:   message,
		Status:    model.OfferStatusPending,
	}
	switch decision {
	case pricing.DecisionAccepted:
		o.Status = model.OfferStatusAccepted
		o.Response = p.AutoAcceptMessage
	case pricing.DecisionRejected:
		o.Status = model.OfferStatusRejected
		o.Response = p.AutoRejectMessage
	}
	if o.Status != model.OfferStatusPending {
		now := s.now()
		o.AutoHandled = true
		o.DecidedAt = &now
	}
	if err := s.offers.Create(ctx, o); err != nil {
		return nil, err
	}

	s.notify.Notify(ctx, model.Notification{
		UserUID:   p.SellerUID,
		Type:      model.NotificationOffer,
		Title:     "Nueva oferta recibida",
		Body:      fmt.Sprintf("Has recibido una oferta de %s por tu %s", pricing.FormatAmount(amount), p.Title),
		FromUID:   buyerUID,
		ProductID: uint64Ptr(p.ID),
		OfferID:   uint64Ptr(o.ID),
	})
	if o.AutoHandled {
		s.notifyDecision(ctx, o, p.Title)
	}
	s.publish(ctx, o)
	return &OfferView{Offer: *o, Product: p}, nil
}

func (s *offerService) Accept(ctx context.Context, sellerUID string, offerID uint64) (*model.Offer, error) {
	o, err := s.sellerOffer(ctx, sellerUID, offerID)
	if err != nil {
		return nil, err
	}
	p, err := s.products.FindByID(ctx, o.ProductID)
	if err != nil {
		return nil, notFound(err)
	}
	if p.Status != model.ProductStatusActive {
		return nil, ErrProductUnavailable
	}
	return s.decide(ctx, o, model.OfferStatusAccepted, "", p.Title)
}

func (s *offerService) Reject(ctx context.Context, sellerUID string, offerID uint64, reason string) (*model.Offer, error) {
	o, err := s.sellerOffer(ctx, sellerUID, offerID)
	if err != nil {
		return nil, err
	}
	title := ""
	if p, err := s.products.FindByID(ctx, o.ProductID); err == nil {
		title = p.Title
	}
	return s.decide(ctx, o, model.OfferStatusRejected, strings.TrimSpace(reason), title)
}

func (s *offerService) Cancel(ctx context.Context, buyerUID string, offerID uint64) (*model.Offer, error) {
	o, err := s.offers.FindByID(ctx, offerID)
	if err != nil {
		return nil, notFound(err)
	}
	if o.BuyerUID != buyerUID {
		return nil, ErrForbidden
	}
	if o.Status != model.OfferStatusPending {
		return nil, ErrOfferNotPending
	}
	now := s.now()
	if err := s.offers.Decide(ctx, o.ID, model.OfferStatusCanceled, "", now); err != nil {
		return nil, conflictAs(err, ErrOfferNotPending)
	}
	o.Status = model.OfferStatusCanceled
	o.DecidedAt = &now
	s.publish(ctx, o)
	return o, nil
}

func (s *offerService) Get(ctx context.Context, uid string, offerID uint64) (*OfferView, error) {
	o, err := s.offers.FindByID(ctx, offerID)
	if err != nil {
		return nil, notFound(err)
	}
	if o.BuyerUID != uid && o.SellerUID != uid {
		return nil, ErrForbidden
	}
	v := &OfferView{Offer: *o}
	if p, err := s.products.FindByID(ctx, o.ProductID); err == nil {
		v.Product = p
	}
	return v, nil
}

func (s *offerService) List(ctx context.Context, uid, box, status string) ([]OfferView, error) {
	switch box {
	case "", "all":
		box = ""
	case repository.OfferBoxSent, repository.OfferBoxReceived:
	default:
		return nil, invalid("box must be all, sent or received")
	}
	var st model.OfferStatus
	if status != "" && status != "all" {
		st = model.OfferStatus(status)
		if !st.Valid() {
			return nil, invalid("unknown status %q", status)
		}
	}
	list, err := s.offers.List(ctx, uid, box, st)
	if err != nil {
		return nil, err
	}
	ids := make([]uint64, 0, len(list))
	for _, o := range list {
		ids = append(ids, o.ProductID)
	}
	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]OfferView, 0, len(list))
	for _, o := range list {
		v := OfferView{Offer: o}
		if p, ok := products[o.ProductID]; ok {
			v.Product = &p
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *offerService) sellerOffer(ctx context.Context, sellerUID string, offerID uint64) (*model.Offer, error) {
	o, err := s.offers.FindByID(ctx, offerID)
	if err != nil {
		return nil, notFound(err)
	}
	if o.SellerUID != sellerUID {
		return nil, ErrForbidden
	}
	if o.Status != model.OfferStatusPending {
		return nil, ErrOfferNotPending
	}
	return o, nil
}

func (s *offerService) decide(ctx context.Context, o *model.Offer, status model.OfferStatus, response, productTitle string) (*model.Offer, error) {
	now := s.now()
	if err := s.offers.Decide(ctx, o.ID, status, response, now); err != nil {
		return nil, conflictAs(err, ErrOfferNotPending)
	}
	o.Status = status
	o.Response = response
	o.DecidedAt = &now
	s.notifyDecision(ctx, o, productTitle)
	s.publish(ctx, o)
	return o, nil
}

func (s *offerService) notifyDecision(ctx context.Context, o *model.Offer, productTitle string) {
	n := model.Notification{
		UserUID:   o.BuyerUID,
		FromUID:   o.SellerUID,
		ProductID: uint64Ptr(o.ProductID),
		OfferID:   uint64Ptr(o.ID),
		Body:      o.Response,
	}
	switch o.Status {
	case model.OfferStatusAccepted:
		n.Type = model.NotificationOfferAccepted
		n.Title = "Oferta aceptada"
		if n.Body == "" {
			n.Body = fmt.Sprintf("Tu oferta de %s por %s fue aceptada", pricing.FormatAmount(o.Amount), productTitle)
		}
	case model.OfferStatusRejected:
		n.Type = model.NotificationOfferRejected
		n.Title = "Oferta rechazada"
		if n.Body == "" {
			n.Body = fmt.Sprintf("Tu oferta de %s por %s fue rechazada", pricing.FormatAmount(o.Amount), productTitle)
		}
	default:
		return
	}
	s.notify.Notify(ctx, n)
}

func (s *offerService) publish(ctx context.Context, o *model.Offer) {
	publish(ctx, s.log, s.events, events.Subject(events.SubjectOffers, o.Status), OfferEvent{
		OfferID:     o.ID,
		ProductID:   o.ProductID,
		BuyerUID:    o.BuyerUID,
		SellerUID:   o.SellerUID,
		Amount:      o.Amount,
		Status:      o.Status,
		AutoHandled: o.AutoHandled,
	})
}

// conflictAs translates a lost conditional update into target.
func conflictAs(err, target error) error {
	if errors.Is(err, repository.ErrConflict) {
		return target
	}
	return err
}
