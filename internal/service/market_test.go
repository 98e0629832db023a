package service

import (
	"context"
	"testing"
	"time"

	"github.com/shinyyama/mercado-backend/internal/cache"
	"github.com/shinyyama/mercado-backend/internal/model"
	"go.uber.org/zap"
)

// market wires every service over the in-memory fakes.
type market struct {
	products  *fakeProducts
	users     *fakeUsers
	convs     *fakeConversations
	offers    *fakeOffers
	purchases *fakePurchases
	notes     *fakeNotifications
	revenue   *fakeRevenue
	favorites *fakeFavorites
	events    *recordingPublisher
	cache     *memCache

	catalog  CatalogService
	offerSvc OfferService
	chat     ChatService
	checkout CheckoutService
	notify   NotificationService
}

func newMarket(t *testing.T, products ...model.Product) *market {
	t.Helper()
	log := zap.NewNop()
	m := &market{
		products:  newFakeProducts(products...),
		users:     newFakeUsers(model.User{UID: "seller", Name: "Martín"}, model.User{UID: "buyer", Name: "Ana"}),
		convs:     newFakeConversations(),
		offers:    newFakeOffers(),
		purchases: newFakePurchases(),
		notes:     &fakeNotifications{},
		revenue:   newFakeRevenue(),
		favorites: newFakeFavorites(),
		events:    &recordingPublisher{},
		cache:     newMemCache(),
	}
	pc := NewProductCache(m.cache, time.Minute, log)
	m.notify = NewNotificationService(m.notes, log)
	m.catalog = NewCatalogService(m.products, newFakeCategories("clothing", "electronics", "sports"), m.favorites, m.users, pc, log)

	offers := NewOfferService(m.offers, m.products, m.notify, m.events, log)
	offers.(*offerService).now = fixedClock()
	m.offerSvc = offers

	chat := NewChatService(m.convs, m.products, m.users, m.notify, m.events, log)
	chat.(*chatService).now = fixedClock()
	m.chat = chat

	checkout := NewCheckoutService(CheckoutDeps{
		Purchases:     m.purchases,
		Products:      m.products,
		Offers:        m.offers,
		Conversations: m.convs,
		Users:         m.users,
		Revenue:       NewRevenueService(m.revenue),
		Notify:        m.notify,
		Cache:         pc,
		Events:        m.events,
		Log:           log,
	})
	checkout.(*checkoutService).now = fixedClock()
	m.checkout = checkout
	return m
}

func sampleProduct(id uint64, price int64) model.Product {
	return model.Product{
		ID:                id,
		Title:             "Bicicleta Montaña",
		Description:       "Rodado 29, poco uso",
		Price:             price,
		CategorySlug:      "sports",
		Location:          "Palermo, Buenos Aires",
		SellerUID:         "seller",
		FreeFirstShipping: true,
		Status:            model.ProductStatusActive,
		Images:            []model.ProductImage{{ImageURL: "https://img.example/bike.jpg"}},
	}
}

// memCache is a map-backed cache.Cache.
type memCache struct {
	data map[string]string
	hits int
}

var _ cache.Cache = (*memCache)(nil)

func newMemCache() *memCache {
	return &memCache{data: map[string]string{}}
}

func (c *memCache) Get(_ context.Context, key string) (string, error) {
	v, ok := c.data[key]
	if !ok {
		return "", cache.ErrMiss
	}
	c.hits++
	return v, nil
}

func (c *memCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	c.data[key] = value
	return nil
}

func (c *memCache) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func (c *memCache) Close() error { return nil }
