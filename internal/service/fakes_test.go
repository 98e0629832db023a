package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shinyyama/mercado-backend/internal/geo"
	"github.com/shinyyama/mercado-backend/internal/model"
	"github.com/shinyyama/mercado-backend/internal/repository"
	"gorm.io/gorm"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type fakeProducts struct {
	rows     map[uint64]*model.Product
	nextID   uint64
	searches []repository.ProductQuery
}

func newFakeProducts(list ...model.Product) *fakeProducts {
	f := &fakeProducts{rows: map[uint64]*model.Product{}}
	for i := range list {
		p := list[i]
		if p.ID == 0 {
			f.nextID++
			p.ID = f.nextID
		} else if p.ID > f.nextID {
			f.nextID = p.ID
		}
		if p.Status == "" {
			p.Status = model.ProductStatusActive
		}
		f.rows[p.ID] = &p
	}
	return f
}

func (f *fakeProducts) Create(_ context.Context, p *model.Product) error {
	f.nextID++
	p.ID = f.nextID
	p.CreatedAt = testNow
	cp := *p
	f.rows[p.ID] = &cp
	return nil
}

func (f *fakeProducts) Update(_ context.Context, p *model.Product) error {
	if _, ok := f.rows[p.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *p
	f.rows[p.ID] = &cp
	return nil
}

func (f *fakeProducts) FindByID(_ context.Context, id uint64) (*model.Product, error) {
	p, ok := f.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProducts) FindByIDs(_ context.Context, ids []uint64) (map[uint64]model.Product, error) {
	out := map[uint64]model.Product{}
	for _, id := range ids {
		if p, ok := f.rows[id]; ok {
			out[id] = *p
		}
	}
	return out, nil
}

func (f *fakeProducts) Search(_ context.Context, q repository.ProductQuery) ([]model.Product, error) {
	f.searches = append(f.searches, q)
	out := f.match(q)
	if q.Limit > 0 {
		if q.Offset >= len(out) {
			return nil, nil
		}
		out = out[q.Offset:min(q.Offset+q.Limit, len(out))]
	}
	return out, nil
}

func (f *fakeProducts) match(q repository.ProductQuery) []model.Product {
	var out []model.Product
	text := strings.ToLower(strings.TrimSpace(q.Text))
	for _, p := range f.rows {
		if q.CategorySlug != "" && q.CategorySlug != model.CategoryAll && p.CategorySlug != q.CategorySlug {
			continue
		}
		if q.Status != "" && p.Status != q.Status {
			continue
		}
		if q.SellerUID != "" && p.SellerUID != q.SellerUID {
			continue
		}
		if text != "" && !strings.Contains(strings.ToLower(p.Title), text) && !strings.Contains(strings.ToLower(p.Description), text) {
			continue
		}
		if pt := geo.NewPoint(p.Latitude, p.Longitude); q.Near != nil && pt != nil && !q.Near.Contains(*pt) {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (f *fakeProducts) SetStatusIf(_ context.Context, id uint64, from, to model.ProductStatus) error {
	p, ok := f.rows[id]
	if !ok || p.Status != from {
		return repository.ErrConflict
	}
	p.Status = to
	return nil
}

func (f *fakeProducts) Count(_ context.Context, q repository.ProductQuery) (int64, error) {
	return int64(len(f.match(q))), nil
}

type fakeCategories struct {
	list []model.Category
}

func newFakeCategories(slugs ...string) *fakeCategories {
	f := &fakeCategories{}
	for i, s := range slugs {
		f.list = append(f.list, model.Category{ID: uint64(i + 1), Slug: s, Name: s, Position: i})
	}
	return f
}

func (f *fakeCategories) List(context.Context) ([]model.Category, error) {
	return f.list, nil
}

func (f *fakeCategories) FindBySlug(_ context.Context, slug string) (*model.Category, error) {
	for i := range f.list {
		if f.list[i].Slug == slug {
			c := f.list[i]
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeCategories) Upsert(_ context.Context, c *model.Category) error {
	f.list = append(f.list, *c)
	return nil
}

type fakeFavorites struct {
	ids map[string][]uint64
}

func newFakeFavorites() *fakeFavorites {
	return &fakeFavorites{ids: map[string][]uint64{}}
}

func (f *fakeFavorites) Toggle(_ context.Context, uid string, productID uint64) (bool, error) {
	list := f.ids[uid]
	for i, id := range list {
		if id == productID {
			f.ids[uid] = append(list[:i], list[i+1:]...)
			return false, nil
		}
	}
	f.ids[uid] = append([]uint64{productID}, list...)
	return true, nil
}

func (f *fakeFavorites) Exists(_ context.Context, uid string, productID uint64) (bool, error) {
	for _, id := range f.ids[uid] {
		if id == productID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeFavorites) ListProductIDs(_ context.Context, uid string) ([]uint64, error) {
	return f.ids[uid], nil
}

type fakeUsers struct {
	rows  map[string]*model.User
	saved int
}

func newFakeUsers(list ...model.User) *fakeUsers {
	f := &fakeUsers{rows: map[string]*model.User{}}
	for i := range list {
		u := list[i]
		f.rows[u.UID] = &u
	}
	return f
}

func (f *fakeUsers) FindByUID(_ context.Context, uid string) (*model.User, error) {
	u, ok := f.rows[uid]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) FindByUIDs(_ context.Context, uids []string) (map[string]model.User, error) {
	out := map[string]model.User{}
	for _, uid := range uids {
		if u, ok := f.rows[uid]; ok {
			out[uid] = *u
		}
	}
	return out, nil
}

func (f *fakeUsers) FirstOrCreate(ctx context.Context, uid string) (*model.User, error) {
	if _, ok := f.rows[uid]; !ok {
		f.rows[uid] = &model.User{UID: uid}
	}
	return f.FindByUID(ctx, uid)
}

func (f *fakeUsers) Save(_ context.Context, u *model.User) error {
	cp := *u
	f.rows[u.UID] = &cp
	f.saved++
	return nil
}

func (f *fakeUsers) IncrementSales(_ context.Context, uid string) error {
	if u, ok := f.rows[uid]; ok {
		u.TotalSales++
	}
	return nil
}

type fakeConversations struct {
	convs  map[uint64]*model.Conversation
	msgs   []model.Message
	reads  map[string]time.Time
	nextID uint64
}

func newFakeConversations() *fakeConversations {
	return &fakeConversations{convs: map[uint64]*model.Conversation{}, reads: map[string]time.Time{}}
}

func readKey(convID uint64, uid string) string {
	return fmt.Sprintf("%d/%s", convID, uid)
}

func (f *fakeConversations) FindOrCreate(_ context.Context, productID uint64, sellerUID, buyerUID string) (*model.Conversation, error) {
	for _, cv := range f.convs {
		if cv.ProductID == productID && cv.BuyerUID == buyerUID {
			cp := *cv
			return &cp, nil
		}
	}
	f.nextID++
	cv := &model.Conversation{ID: f.nextID, ProductID: productID, SellerUID: sellerUID, BuyerUID: buyerUID, LastMessageAt: testNow}
	f.convs[cv.ID] = cv
	cp := *cv
	return &cp, nil
}

func (f *fakeConversations) FindByUser(_ context.Context, uid string) ([]model.Conversation, error) {
	var out []model.Conversation
	for _, cv := range f.convs {
		if cv.HasParticipant(uid) {
			out = append(out, *cv)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastMessageAt.Equal(out[j].LastMessageAt) {
			return out[i].LastMessageAt.After(out[j].LastMessageAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (f *fakeConversations) FindByID(_ context.Context, id uint64) (*model.Conversation, error) {
	cv, ok := f.convs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *cv
	return &cp, nil
}

func (f *fakeConversations) CreateMessage(_ context.Context, msg *model.Message) error {
	msg.ID = uint64(len(f.msgs) + 1)
	f.msgs = append(f.msgs, *msg)
	if cv, ok := f.convs[msg.ConversationID]; ok {
		cv.LastMessageAt = msg.CreatedAt
	}
	return nil
}

func (f *fakeConversations) ListMessages(_ context.Context, convID uint64) ([]model.Message, error) {
	var out []model.Message
	for _, m := range f.msgs {
		if m.ConversationID == convID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeConversations) LastMessage(ctx context.Context, convID uint64) (*model.Message, error) {
	list, _ := f.ListMessages(ctx, convID)
	if len(list) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	m := list[len(list)-1]
	return &m, nil
}

func (f *fakeConversations) CountUnread(ctx context.Context, convID uint64, uid string, since *time.Time) (int64, error) {
	list, _ := f.ListMessages(ctx, convID)
	var n int64
	for i := range list {
		if !list[i].ReadBy(uid, since) {
			n++
		}
	}
	return n, nil
}

func (f *fakeConversations) LastReadAt(_ context.Context, convID uint64, uid string) (*time.Time, error) {
	t, ok := f.reads[readKey(convID, uid)]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (f *fakeConversations) MarkRead(_ context.Context, convID uint64, uid string, at time.Time) error {
	f.reads[readKey(convID, uid)] = at
	return nil
}

type fakeOffers struct {
	rows   map[uint64]*model.Offer
	nextID uint64
}

func newFakeOffers() *fakeOffers {
	return &fakeOffers{rows: map[uint64]*model.Offer{}}
}

func (f *fakeOffers) Create(_ context.Context, o *model.Offer) error {
	f.nextID++
	o.ID = f.nextID
	o.CreatedAt = testNow.Add(time.Duration(o.ID) * time.Second)
	cp := *o
	f.rows[o.ID] = &cp
	return nil
}

func (f *fakeOffers) FindByID(_ context.Context, id uint64) (*model.Offer, error) {
	o, ok := f.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOffers) List(_ context.Context, uid, box string, status model.OfferStatus) ([]model.Offer, error) {
	var out []model.Offer
	for _, o := range f.rows {
		switch box {
		case repository.OfferBoxSent:
			if o.BuyerUID != uid {
				continue
			}
		case repository.OfferBoxReceived:
			if o.SellerUID != uid {
				continue
			}
		default:
			if o.BuyerUID != uid && o.SellerUID != uid {
				continue
			}
		}
		if status != "" && o.Status != status {
			continue
		}
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeOffers) LatestAccepted(_ context.Context, productID uint64, buyerUID string) (*model.Offer, error) {
	var best *model.Offer
	for _, o := range f.rows {
		if o.ProductID == productID && o.BuyerUID == buyerUID && o.Status == model.OfferStatusAccepted {
			if best == nil || o.ID > best.ID {
				best = o
			}
		}
	}
	if best == nil {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *best
	return &cp, nil
}

func (f *fakeOffers) Decide(_ context.Context, id uint64, status model.OfferStatus, response string, at time.Time) error {
	o, ok := f.rows[id]
	if !ok || o.Status != model.OfferStatusPending {
		return repository.ErrConflict
	}
	o.Status = status
	o.Response = response
	o.DecidedAt = &at
	return nil
}

type fakePurchases struct {
	rows   map[uint64]*model.Purchase
	nextID uint64
}

func newFakePurchases() *fakePurchases {
	return &fakePurchases{rows: map[uint64]*model.Purchase{}}
}

func (f *fakePurchases) Create(_ context.Context, p *model.Purchase) error {
	f.nextID++
	p.ID = f.nextID
	cp := *p
	f.rows[p.ID] = &cp
	return nil
}

func (f *fakePurchases) FindByID(_ context.Context, id uint64) (*model.Purchase, error) {
	p, ok := f.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakePurchases) FindByProduct(_ context.Context, productID uint64) (*model.Purchase, error) {
	var best *model.Purchase
	for _, p := range f.rows {
		if p.ProductID == productID && (best == nil || p.ID > best.ID) {
			best = p
		}
	}
	if best == nil {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *best
	return &cp, nil
}

func (f *fakePurchases) CountLiveByProduct(_ context.Context, productID uint64) (int64, error) {
	var n int64
	for _, p := range f.rows {
		if p.ProductID == productID && p.Status != model.PurchaseStatusCanceled {
			n++
		}
	}
	return n, nil
}

func (f *fakePurchases) CountByBuyer(_ context.Context, buyerUID string) (int64, error) {
	var n int64
	for _, p := range f.rows {
		if p.BuyerUID == buyerUID && p.Status != model.PurchaseStatusCanceled {
			n++
		}
	}
	return n, nil
}

func (f *fakePurchases) Transition(_ context.Context, id uint64, from []model.PurchaseStatus, to model.PurchaseStatus, at time.Time) error {
	p, ok := f.rows[id]
	if !ok {
		return repository.ErrConflict
	}
	for _, st := range from {
		if p.Status == st {
			p.Status = to
			switch to {
			case model.PurchaseStatusShipped:
				p.ShippedAt = &at
			case model.PurchaseStatusDelivered:
				p.DeliveredAt = &at
			}
			return nil
		}
	}
	return repository.ErrConflict
}

func (f *fakePurchases) list(match func(*model.Purchase) bool) []model.Purchase {
	var out []model.Purchase
	for _, p := range f.rows {
		if match(p) {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (f *fakePurchases) ListByBuyer(_ context.Context, buyerUID string) ([]model.Purchase, error) {
	return f.list(func(p *model.Purchase) bool { return p.BuyerUID == buyerUID }), nil
}

func (f *fakePurchases) ListBySeller(_ context.Context, sellerUID string) ([]model.Purchase, error) {
	return f.list(func(p *model.Purchase) bool { return p.SellerUID == sellerUID }), nil
}

type fakeNotifications struct {
	rows []model.Notification
}

func (f *fakeNotifications) Create(_ context.Context, n *model.Notification) error {
	n.ID = uint64(len(f.rows) + 1)
	f.rows = append(f.rows, *n)
	return nil
}

func (f *fakeNotifications) ListByUser(_ context.Context, userUID string, unreadOnly bool, limit int) ([]model.Notification, error) {
	var out []model.Notification
	for i := len(f.rows) - 1; i >= 0; i-- {
		n := f.rows[i]
		if n.UserUID != userUID || (unreadOnly && n.ReadAt != nil) {
			continue
		}
		out = append(out, n)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeNotifications) MarkRead(_ context.Context, userUID string, id uint64) (int64, error) {
	for i := range f.rows {
		if f.rows[i].ID == id && f.rows[i].UserUID == userUID {
			if f.rows[i].ReadAt == nil {
				at := testNow
				f.rows[i].ReadAt = &at
			}
			return 1, nil
		}
	}
	return 0, nil
}

func (f *fakeNotifications) MarkAllRead(_ context.Context, userUID string) error {
	at := testNow
	for i := range f.rows {
		if f.rows[i].UserUID == userUID && f.rows[i].ReadAt == nil {
			f.rows[i].ReadAt = &at
		}
	}
	return nil
}

func (f *fakeNotifications) CountUnread(_ context.Context, userUID string) (int64, error) {
	var n int64
	for _, row := range f.rows {
		if row.UserUID == userUID && row.ReadAt == nil {
			n++
		}
	}
	return n, nil
}

// forUser returns the types of the notifications addressed to uid, oldest first.
func (f *fakeNotifications) forUser(uid string) []string {
	var out []string
	for _, n := range f.rows {
		if n.UserUID == uid {
			out = append(out, n.Type)
		}
	}
	return out
}

type fakeRevenue struct {
	rows map[string]*model.UserRevenue
}

func newFakeRevenue() *fakeRevenue {
	return &fakeRevenue{rows: map[string]*model.UserRevenue{}}
}

func (f *fakeRevenue) Credit(_ context.Context, uid string, cents int64) error {
	r, ok := f.rows[uid]
	if !ok {
		r = &model.UserRevenue{UID: uid}
		f.rows[uid] = r
	}
	r.BalanceCents += cents
	r.EarnedCents += cents
	return nil
}

func (f *fakeRevenue) Deduct(_ context.Context, uid string, cents int64) error {
	r, ok := f.rows[uid]
	if !ok || r.BalanceCents < cents {
		return repository.ErrInsufficientBalance
	}
	r.BalanceCents -= cents
	return nil
}

func (f *fakeRevenue) Get(_ context.Context, uid string) (*model.UserRevenue, error) {
	r, ok := f.rows[uid]
	if !ok {
		return &model.UserRevenue{UID: uid}, nil
	}
	cp := *r
	return &cp, nil
}

type recordingPublisher struct {
	subjects []string
}

func (p *recordingPublisher) Publish(_ context.Context, subject string, _ any) error {
	p.subjects = append(p.subjects, subject)
	return nil
}

func (p *recordingPublisher) Close() {}

func fixedClock() func() time.Time {
	return func() time.Time { return testNow }
}

func int64Ptr(v int64) *int64 {
	return &v
}

func float64Ptr(v float64) *float64 {
	return &v
}
