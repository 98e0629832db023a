package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shinyyama/mercado-backend/internal/events"
	"github.com/shinyyama/mercado-backend/internal/logging"
	"github.com/shinyyama/mercado-backend/internal/model"
	"github.com/shinyyama/mercado-backend/internal/pricing"
	"github.com/shinyyama/mercado-backend/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// QuoteView is what the checkout screen shows before paying.
type QuoteView struct {
	pricing.Quote
	ProductID      uint64
	ShippingMethod string
	FirstPurchase  bool
	OfferID        *uint64
	PaymentMethods []string
}

type PurchaseInput struct {
	PaymentMethod  string
	ShippingMethod string
}

type PurchaseView struct {
	Purchase model.Purchase
	Product  *model.Product
}

// PurchaseEvent is published on purchases.<status>.
type PurchaseEvent struct {
	PurchaseID uint64               `json:"purchaseId"`
	ProductID  uint64               `json:"productId"`
	BuyerUID   string               `json:"buyerUid"`
	SellerUID  string               `json:"sellerUid"`
	Total      int64                `json:"total"`
	Status     model.PurchaseStatus `json:"status"`
}

var paymentMethods = []string{model.PaymentSalamePay, model.PaymentCreditCard}

type CheckoutService interface {
	Quote(ctx context.Context, buyerUID string, productID uint64, shippingMethod string) (*QuoteView, error)
	Purchase(ctx context.Context, buyerUID string, productID uint64, in PurchaseInput) (*model.Purchase, error)
	MarkShipped(ctx context.Context, sellerUID string, purchaseID uint64) (*model.Purchase, error)
	MarkDelivered(ctx context.Context, buyerUID string, purchaseID uint64) (*model.Purchase, error)
	Cancel(ctx context.Context, buyerUID string, purchaseID uint64) (*model.Purchase, error)
	ListPurchases(ctx context.Context, buyerUID string) ([]PurchaseView, error)
	ListSales(ctx context.Context, sellerUID string) ([]PurchaseView, error)
	GetByProduct(ctx context.Context, uid string, productID uint64) (*model.Purchase, error)
}

type checkoutService struct {
	purchases repository.PurchaseRepository
	products  repository.ProductRepository
	offers    repository.OfferRepository
	convs     repository.ConversationRepository
	users     repository.UserRepository
	revenue   RevenueService
	notify    NotificationService
	cache     *ProductCache
	events    events.Publisher
	log       *zap.Logger
	now       func() time.Time
}

type CheckoutDeps struct {
	Purchases     repository.PurchaseRepository
	Products      repository.ProductRepository
	Offers        repository.OfferRepository
	Conversations repository.ConversationRepository
	Users         repository.UserRepository
	Revenue       RevenueService
	Notify        NotificationService
	Cache         *ProductCache
	Events        events.Publisher
	Log           *zap.Logger
}

func NewCheckoutService(d CheckoutDeps) CheckoutService {
	if d.Cache == nil {
		d.Cache = NewProductCache(nil, 0, d.Log)
	}
	return &checkoutService{
		purchases: d.Purchases,
		products:  d.Products,
		offers:    d.Offers,
		convs:     d.Conversations,
		users:     d.Users,
		revenue:   d.Revenue,
		notify:    d.Notify,
		cache:     d.Cache,
		events:    d.Events,
		log:       d.Log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *checkoutService) Quote(ctx context.Context, buyerUID string, productID uint64, shippingMethod string) (*QuoteView, error) {
	p, err := s.buyable(ctx, buyerUID, productID)
	if err != nil {
		return nil, err
	}
	return s.quote(ctx, buyerUID, p, shippingMethod)
}

func (s *checkoutService) buyable(ctx context.Context, buyerUID string, productID uint64) (*model.Product, error) {
	p, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, notFound(err)
	}
	if p.SellerUID == buyerUID {
		return nil, ErrOwnProduct
	}
	if p.Status != model.ProductStatusActive {
		return nil, ErrProductUnavailable
	}
	return p, nil
}

func (s *checkoutService) quote(ctx context.Context, buyerUID string, p *model.Product, shippingMethod string) (*QuoteView, error) {
	if shippingMethod == "" {
		shippingMethod = pricing.ShippingExpress
	}
	price := p.Price
	var offerID *uint64
	o, err := s.offers.LatestAccepted(ctx, p.ID, buyerUID)
	switch {
	case err == nil:
		price = o.Amount
		offerID = uint64Ptr(o.ID)
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}
	prior, err := s.purchases.CountByBuyer(ctx, buyerUID)
	if err != nil {
		return nil, err
	}
	first := prior == 0
	q, err := pricing.NewQuote(price, shippingMethod, first, p.FreeFirstShipping)
	if err != nil {
		return nil, invalid("%v", err)
	}
	return &QuoteView{
		Quote:          q,
		ProductID:      p.ID,
		ShippingMethod: shippingMethod,
		FirstPurchase:  first,
		OfferID:        offerID,
		PaymentMethods: paymentMethods,
	}, nil
}

func (s *checkoutService) Purchase(ctx context.Context, buyerUID string, productID uint64, in PurchaseInput) (*model.Purchase, error) {
	if buyerUID == "" {
		return nil, ErrForbidden
	}
	payment := in.PaymentMethod
	if payment == "" {
		payment = model.PaymentSalamePay
	}
	if !model.ValidPaymentMethod(payment) {
		return nil, invalid("unknown payment method %q", payment)
	}
	p, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, notFound(err)
	}
	if p.SellerUID == buyerUID {
		return nil, ErrOwnProduct
	}
	live, err := s.purchases.CountLiveByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if live > 0 {
		return nil, ErrAlreadyPurchased
	}
	if p.Status != model.ProductStatusActive {
		return nil, ErrProductUnavailable
	}
	q, err := s.quote(ctx, buyerUID, p, in.ShippingMethod)
	if err != nil {
		return nil, err
	}

	if err := s.products.SetStatusIf(ctx, p.ID, model.ProductStatusActive, model.ProductStatusSold); err != nil {
		return nil, conflictAs(err, ErrAlreadyPurchased)
	}
	cv, err := s.convs.FindOrCreate(ctx, p.ID, p.SellerUID, buyerUID)
	if err != nil {
		s.relist(ctx, p.ID)
		return nil, err
	}
	purchase := &model.Purchase{
		ProductID:      p.ID,
		BuyerUID:       buyerUID,
		SellerUID:      p.SellerUID,
		OfferID:        q.OfferID,
		ConversationID: cv.ID,
		PaymentMethod:  payment,
		ShippingMethod: q.ShippingMethod,
		ItemPrice:      q.ItemPrice,
		ShippingCost:   q.ShippingCost,
		Total:          q.Total,
		FreeShipping:   q.FreeShipping,
		Status:         model.PurchaseStatusPendingShipment,
	}
	if err := s.purchases.Create(ctx, purchase); err != nil {
		s.relist(ctx, p.ID)
		return nil, err
	}
	s.cache.drop(ctx, p.ID)

	s.systemMessage(ctx, cv.ID, fmt.Sprintf("Compra realizada por %s. El vendedor preparará el envío.", pricing.FormatAmount(purchase.Total)))
	s.notify.Notify(ctx, model.Notification{
		UserUID:        p.SellerUID,
		Type:           model.NotificationSale,
		Title:          "¡Venta completada!",
		Body:           fmt.Sprintf("Tu producto \"%s\" ha sido vendido por %s", p.Title, pricing.FormatAmount(purchase.ItemPrice)),
		FromUID:        buyerUID,
		ProductID:      uint64Ptr(p.ID),
		ConversationID: uint64Ptr(cv.ID),
		PurchaseID:     uint64Ptr(purchase.ID),
	})
	s.publish(ctx, purchase)
	return purchase, nil
}

// relist undoes the sold flag after a failed purchase.
func (s *checkoutService) relist(ctx context.Context, productID uint64) {
	if err := s.products.SetStatusIf(ctx, productID, model.ProductStatusSold, model.ProductStatusActive); err != nil {
		logging.FromContext(ctx, s.log).Error("relist product failed", zap.Uint64("product_id", productID), zap.Error(err))
	}
	s.cache.drop(ctx, productID)
}

func (s *checkoutService) MarkShipped(ctx context.Context, sellerUID string, purchaseID uint64) (*model.Purchase, error) {
	p, err := s.purchases.FindByID(ctx, purchaseID)
	if err != nil {
		return nil, notFound(err)
	}
	if p.SellerUID != sellerUID {
		return nil, ErrForbidden
	}
	if p.Status != model.PurchaseStatusPendingShipment {
		return nil, ErrInvalidState
	}
	now := s.now()
	if err := s.purchases.Transition(ctx, p.ID, []model.PurchaseStatus{model.PurchaseStatusPendingShipment}, model.PurchaseStatusShipped, now); err != nil {
		return nil, conflictAs(err, ErrInvalidState)
	}
	p.Status = model.PurchaseStatusShipped
	p.ShippedAt = &now

	s.systemMessage(ctx, p.ConversationID, "El vendedor despachó el producto.")
	s.notify.Notify(ctx, model.Notification{
		UserUID:    p.BuyerUID,
		Type:       model.NotificationSystem,
		Title:      "Tu compra fue enviada",
		Body:       "El vendedor despachó tu producto.",
		FromUID:    sellerUID,
		ProductID:  uint64Ptr(p.ProductID),
		PurchaseID: uint64Ptr(p.ID),
	})
	s.publish(ctx, p)
	return p, nil
}

func (s *checkoutService) MarkDelivered(ctx context.Context, buyerUID string, purchaseID uint64) (*model.Purchase, error) {
	p, err := s.purchases.FindByID(ctx, purchaseID)
	if err != nil {
		return nil, notFound(err)
	}
	if p.BuyerUID != buyerUID {
		return nil, ErrForbidden
	}
	if p.Status == model.PurchaseStatusDelivered {
		return p, nil
	}
	if p.Status == model.PurchaseStatusCanceled {
		return nil, ErrInvalidState
	}
	now := s.now()
	from := []model.PurchaseStatus{model.PurchaseStatusPendingShipment, model.PurchaseStatusShipped}
	if err := s.purchases.Transition(ctx, p.ID, from, model.PurchaseStatusDelivered, now); err != nil {
		if !errors.Is(err, repository.ErrConflict) {
			return nil, err
		}
		// someone else finished it first
		cur, ferr := s.purchases.FindByID(ctx, p.ID)
		if ferr == nil && cur.Status == model.PurchaseStatusDelivered {
			return cur, nil
		}
		return nil, ErrInvalidState
	}
	p.Status = model.PurchaseStatusDelivered
	p.DeliveredAt = &now

	log := logging.FromContext(ctx, s.log)
	if err := s.revenue.Credit(ctx, p.SellerUID, p.ItemPrice); err != nil {
		log.Error("credit seller revenue failed", zap.Uint64("purchase_id", p.ID), zap.String("seller", p.SellerUID), zap.Error(err))
	}
	if err := s.users.IncrementSales(ctx, p.SellerUID); err != nil {
		log.Warn("increment total sales failed", zap.String("seller", p.SellerUID), zap.Error(err))
	}

	s.systemMessage(ctx, p.ConversationID, "El comprador confirmó la recepción del producto.")
	s.notify.Notify(ctx, model.Notification{
		UserUID:    p.SellerUID,
		Type:       model.NotificationSale,
		Title:      "Entrega confirmada",
		Body:       fmt.Sprintf("Se acreditaron %s en tu saldo", pricing.FormatAmount(p.ItemPrice)),
		FromUID:    buyerUID,
		ProductID:  uint64Ptr(p.ProductID),
		PurchaseID: uint64Ptr(p.ID),
	})
	s.publish(ctx, p)
	return p, nil
}

func (s *checkoutService) Cancel(ctx context.Context, buyerUID string, purchaseID uint64) (*model.Purchase, error) {
	p, err := s.purchases.FindByID(ctx, purchaseID)
	if err != nil {
		return nil, notFound(err)
	}
	if p.BuyerUID != buyerUID {
		return nil, ErrForbidden
	}
	if p.Status != model.PurchaseStatusPendingShipment {
		return nil, ErrInvalidState
	}
	now := s.now()
	if err := s.purchases.Transition(ctx, p.ID, []model.PurchaseStatus{model.PurchaseStatusPendingShipment}, model.PurchaseStatusCanceled, now); err != nil {
		return nil, conflictAs(err, ErrInvalidState)
	}
	p.Status = model.PurchaseStatusCanceled
	s.relist(ctx, p.ProductID)

	s.systemMessage(ctx, p.ConversationID, "El comprador canceló la compra.")
	s.notify.Notify(ctx, model.Notification{
		UserUID:    p.SellerUID,
		Type:       model.NotificationSystem,
		Title:      "Compra cancelada",
		Body:       "El comprador canceló la compra. Tu producto vuelve a estar publicado.",
		FromUID:    buyerUID,
		ProductID:  uint64Ptr(p.ProductID),
		PurchaseID: uint64Ptr(p.ID),
	})
	s.publish(ctx, p)
	return p, nil
}

func (s *checkoutService) ListPurchases(ctx context.Context, buyerUID string) ([]PurchaseView, error) {
	list, err := s.purchases.ListByBuyer(ctx, buyerUID)
	if err != nil {
		return nil, err
	}
	return s.withProducts(ctx, list)
}

func (s *checkoutService) ListSales(ctx context.Context, sellerUID string) ([]PurchaseView, error) {
	list, err := s.purchases.ListBySeller(ctx, sellerUID)
	if err != nil {
		return nil, err
	}
	return s.withProducts(ctx, list)
}

func (s *checkoutService) withProducts(ctx context.Context, list []model.Purchase) ([]PurchaseView, error) {
	ids := make([]uint64, 0, len(list))
	for _, p := range list {
		ids = append(ids, p.ProductID)
	}
	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]PurchaseView, 0, len(list))
	for _, p := range list {
		v := PurchaseView{Purchase: p}
		if prod, ok := products[p.ProductID]; ok {
			v.Product = &prod
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *checkoutService) GetByProduct(ctx context.Context, uid string, productID uint64) (*model.Purchase, error) {
	p, err := s.purchases.FindByProduct(ctx, productID)
	if err != nil {
		return nil, notFound(err)
	}
	if uid != p.BuyerUID && uid != p.SellerUID {
		return nil, ErrForbidden
	}
	return p, nil
}

func (s *checkoutService) systemMessage(ctx context.Context, convID uint64, body string) {
	if convID == 0 {
		return
	}
	err := s.convs.CreateMessage(ctx, &model.Message{
		ConversationID: convID,
		SenderUID:      model.SystemSenderUID,
		Body:           body,
		CreatedAt:      s.now(),
	})
	if err != nil {
		logging.FromContext(ctx, s.log).Warn("post system message failed", zap.Uint64("conversation_id", convID), zap.Error(err))
	}
}

func (s *checkoutService) publish(ctx context.Context, p *model.Purchase) {
	publish(ctx, s.log, s.events, events.Subject(events.SubjectPurchases, p.Status), PurchaseEvent{
		PurchaseID: p.ID,
		ProductID:  p.ProductID,
		BuyerUID:   p.BuyerUID,
		SellerUID:  p.SellerUID,
		Total:      p.Total,
		Status:     p.Status,
	})
}
