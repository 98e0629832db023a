package handler

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/mercado-backend/internal/model"
	"github.com/shinyyama/mercado-backend/internal/service"
)

// Stubs embed the service interface; calling a method that is not
// overridden panics, which flags an unexpected call.

type stubCatalog struct {
	service.CatalogService
	filter  service.ProductFilter
	input   service.ProductInput
	list    []service.ProductView
	total   int
	getErr  error
	product *model.Product
}

func (s *stubCatalog) Categories(context.Context) ([]model.Category, error) {
	return []model.Category{{Slug: "clothing", Name: "Ropa"}}, nil
}

func (s *stubCatalog) List(_ context.Context, f service.ProductFilter) ([]service.ProductView, int, error) {
	s.filter = f
	return s.list, s.total, nil
}

func (s *stubCatalog) Get(_ context.Context, id uint64) (*service.ProductView, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return &service.ProductView{Product: model.Product{ID: id, Price: 1000}}, nil
}

func (s *stubCatalog) Publish(_ context.Context, uid string, in service.ProductInput) (*model.Product, error) {
	s.input = in
	return &model.Product{ID: 1, SellerUID: uid, Title: in.Title, Price: in.Price}, nil
}

type stubOffers struct {
	service.OfferService
	amount int64
	reason string
	err    error
}

func (s *stubOffers) Submit(_ context.Context, buyer string, productID uint64, amount int64, msg string) (*service.OfferView, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.amount = amount
	return &service.OfferView{
		Offer:   model.Offer{ID: 9, ProductID: productID, BuyerUID: buyer, Amount: amount, Message: msg, Status: model.OfferStatusPending},
		Product: &model.Product{ID: productID, Title: "Bicicleta", Price: 25000000, SellerUID: "seller"},
	}, nil
}

func (s *stubOffers) Reject(_ context.Context, seller string, id uint64, reason string) (*model.Offer, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.reason = reason
	return &model.Offer{ID: id, SellerUID: seller, Status: model.OfferStatusRejected, Response: reason}, nil
}

type stubChat struct {
	service.ChatService
	messages []service.MessageView
	sent     string
	err      error
}

func (s *stubChat) Messages(context.Context, string, uint64) ([]service.MessageView, error) {
	return s.messages, s.err
}

func (s *stubChat) Send(_ context.Context, uid string, id uint64, body string) (*model.Message, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.sent = body
	return &model.Message{ID: 1, ConversationID: id, SenderUID: uid, Body: body}, nil
}

type stubCheckout struct {
	service.CheckoutService
	shipping string
	input    service.PurchaseInput
	err      error
}

func (s *stubCheckout) Quote(_ context.Context, _ string, productID uint64, shipping string) (*service.QuoteView, error) {
	s.shipping = shipping
	q := &service.QuoteView{ProductID: productID, ShippingMethod: shipping}
	q.ItemPrice, q.ShippingCost, q.Total = 1000, 899, 1899
	return q, nil
}

func (s *stubCheckout) Purchase(_ context.Context, buyer string, productID uint64, in service.PurchaseInput) (*model.Purchase, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.input = in
	return &model.Purchase{ID: 3, ProductID: productID, BuyerUID: buyer, Status: model.PurchaseStatusPendingShipment}, nil
}

func (s *stubCheckout) MarkShipped(_ context.Context, _ string, id uint64) (*model.Purchase, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &model.Purchase{ID: id, Status: model.PurchaseStatusShipped}, nil
}

type stubNotifications struct {
	service.NotificationService
	unreadOnly bool
	limit      int
}

func (s *stubNotifications) List(_ context.Context, _ string, unreadOnly bool, limit int) ([]model.Notification, int64, error) {
	s.unreadOnly, s.limit = unreadOnly, limit
	return []model.Notification{{ID: 1, Type: model.NotificationSale}}, 1, nil
}

func (s *stubNotifications) MarkRead(_ context.Context, _ string, id uint64) error {
	if id != 1 {
		return service.ErrNotFound
	}
	return nil
}

type stubUsers struct {
	service.UserService
	user *model.User
}

func (s *stubUsers) Public(_ context.Context, uid string) (*model.User, error) {
	if s.user == nil || s.user.UID != uid {
		return nil, service.ErrNotFound
	}
	return s.user, nil
}

type stubRevenue struct {
	service.RevenueService
	balance int64
}

func (s *stubRevenue) Withdraw(_ context.Context, uid string, cents int64) (*model.UserRevenue, error) {
	if cents > s.balance {
		return nil, service.ErrInsufficientFunds
	}
	s.balance -= cents
	return &model.UserRevenue{UID: uid, BalanceCents: s.balance}, nil
}

type stubUploader struct {
	contentType string
	err         error
}

func (s *stubUploader) Upload(_ context.Context, contentType string, r io.Reader) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.contentType = contentType
	_, _ = io.Copy(io.Discard, r)
	return "https://storage.googleapis.com/b/products/a.png", nil
}

// newTestEcho trusts X-User-Id so handlers see an authenticated uid.
func newTestEcho() *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = HTTPErrorHandler
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if uid := c.Request().Header.Get("X-User-Id"); uid != "" {
				c.Set("uid", uid)
			}
			return next(c)
		}
	})
	return e
}

func serve(t *testing.T, e *echo.Echo, method, target, uid, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if uid != "" {
		req.Header.Set("X-User-Id", uid)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

