package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/shinyyama/mercado-backend/internal/geo"
	"github.com/shinyyama/mercado-backend/internal/model"
	"github.com/shinyyama/mercado-backend/internal/pricing"
	"github.com/shinyyama/mercado-backend/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	DefaultAutoAcceptMessage = "¡Gracias por tu oferta! Ha sido aceptada automáticamente. Procede con el pago para completar la compra."
	DefaultAutoRejectMessage = "Lo sentimos, tu oferta está por debajo del mínimo aceptable. Intenta con una cantidad mayor."

	maxTitleLen    = 120
	maxImages      = 10
	defaultPageLen = 20
	maxPageLen     = 100
)

type ProductFilter struct {
	Category string
	Query    string
	Radius   int
	Lat      *float64
	Lng      *float64
	Location string
	Limit    int
	Offset   int
}

// ProductInput is the publish/edit form.
type ProductInput struct {
	Title             string
	Description       string
	Price             int64
	CategorySlug      string
	Condition         string
	Location          string
	Latitude          *float64
	Longitude         *float64
	FastShipping      bool
	SecurePayment     bool
	FreeFirstShipping bool
	AutoOffers        bool
	MinOfferPrice     *int64
	AutoAcceptMessage string
	AutoRejectMessage string
	ImageURLs         []string
}

// ProductView is a product with its seller profile and, when the caller
// gave an origin, the distance to it in metres.
type ProductView struct {
	Product  model.Product
	Seller   *model.User
	Distance *float64
}

type CatalogService interface {
	Categories(ctx context.Context) ([]model.Category, error)
	List(ctx context.Context, f ProductFilter) ([]ProductView, int, error)
	Get(ctx context.Context, id uint64) (*ProductView, error)
	Publish(ctx context.Context, sellerUID string, in ProductInput) (*model.Product, error)
	Update(ctx context.Context, sellerUID string, id uint64, in ProductInput) (*model.Product, error)
	ListBySeller(ctx context.Context, sellerUID string) ([]model.Product, error)
	ToggleFavorite(ctx context.Context, uid string, productID uint64) (bool, error)
	ListFavorites(ctx context.Context, uid string) ([]model.Product, error)
}

type catalogService struct {
	products   repository.ProductRepository
	categories repository.CategoryRepository
	favorites  repository.FavoriteRepository
	users      repository.UserRepository
	cache      *ProductCache
	log        *zap.Logger
}

func NewCatalogService(
	products repository.ProductRepository,
	categories repository.CategoryRepository,
	favorites repository.FavoriteRepository,
	users repository.UserRepository,
	cache *ProductCache,
	log *zap.Logger,
) CatalogService {
	if cache == nil {
		cache = NewProductCache(nil, 0, log)
	}
	return &catalogService{
		products:   products,
		categories: categories,
		favorites:  favorites,
		users:      users,
		cache:      cache,
		log:        log,
	}
}

func (s *catalogService) Categories(ctx context.Context) ([]model.Category, error) {
	return s.categories.List(ctx)
}

func (s *catalogService) List(ctx context.Context, f ProductFilter) ([]ProductView, int, error) {
	if err := geo.ValidRadius(f.Radius); err != nil {
		return nil, 0, invalid("%v", err)
	}
	limit := f.Limit
	if limit <= 0 {
		limit = defaultPageLen
	}
	if limit > maxPageLen {
		limit = maxPageLen
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	q := repository.ProductQuery{
		CategorySlug: strings.TrimSpace(f.Category),
		Text:         f.Query,
		Status:       model.ProductStatusActive,
	}
	origin := geo.NewPoint(f.Lat, f.Lng)

	var (
		list  []model.Product
		page  []geo.Ranked
		total int
	)
	if f.Radius == geo.AnyDistance {
		// plain listing pages in the database
		cnt, err := s.products.Count(ctx, q)
		if err != nil {
			return nil, 0, err
		}
		total = int(cnt)
		if offset >= total {
			return []ProductView{}, total, nil
		}
		q.Limit, q.Offset = limit, offset
		if list, err = s.products.Search(ctx, q); err != nil {
			return nil, 0, err
		}
		page = geo.Rank(origin, f.Location, geo.AnyDistance, candidatesOf(list))
	} else {
		// proximity ranking needs every candidate in range; the box only trims far rows
		if origin != nil {
			box := geo.Around(*origin, f.Radius)
			q.Near = &box
		}
		var err error
		if list, err = s.products.Search(ctx, q); err != nil {
			return nil, 0, err
		}
		ranked := geo.Rank(origin, f.Location, f.Radius, candidatesOf(list))
		total = len(ranked)
		if offset >= total {
			return []ProductView{}, total, nil
		}
		page = ranked[offset:min(offset+limit, total)]
	}

	uids := make([]string, 0, len(page))
	for _, r := range page {
		uids = append(uids, list[r.Index].SellerUID)
	}
	sellers, err := s.users.FindByUIDs(ctx, uids)
	if err != nil {
		return nil, 0, err
	}

	out := make([]ProductView, 0, len(page))
	for _, r := range page {
		v := ProductView{Product: list[r.Index], Distance: r.Distance}
		if u, ok := sellers[v.Product.SellerUID]; ok {
			v.Seller = &u
		}
		out = append(out, v)
	}
	return out, total, nil
}

func candidatesOf(list []model.Product) []geo.Candidate {
	out := make([]geo.Candidate, len(list))
	for i, p := range list {
		out[i] = geo.Candidate{Index: i, Point: geo.NewPoint(p.Latitude, p.Longitude), Location: p.Location}
	}
	return out
}

func (s *catalogService) Get(ctx context.Context, id uint64) (*ProductView, error) {
	p, err := s.product(ctx, id)
	if err != nil {
		return nil, err
	}
	v := &ProductView{Product: *p}
	seller, err := s.users.FindByUID(ctx, p.SellerUID)
	switch {
	case err == nil:
		v.Seller = seller
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, err
	}
	return v, nil
}

// product reads through the cache.
func (s *catalogService) product(ctx context.Context, id uint64) (*model.Product, error) {
	if p, ok := s.cache.get(ctx, id); ok {
		return p, nil
	}
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	s.cache.put(ctx, p)
	return p, nil
}

func (s *catalogService) Publish(ctx context.Context, sellerUID string, in ProductInput) (*model.Product, error) {
	if sellerUID == "" {
		return nil, ErrForbidden
	}
	p := &model.Product{SellerUID: sellerUID, Status: model.ProductStatusActive}
	if err := s.apply(ctx, p, in); err != nil {
		return nil, err
	}
	if err := s.products.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *catalogService) Update(ctx context.Context, sellerUID string, id uint64, in ProductInput) (*model.Product, error) {
	p, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	if p.SellerUID != sellerUID {
		return nil, ErrForbidden
	}
	if p.Status != model.ProductStatusActive {
		return nil, ErrProductUnavailable
	}
	if err := s.apply(ctx, p, in); err != nil {
		return nil, err
	}
	if err := s.products.Update(ctx, p); err != nil {
		return nil, err
	}
	s.cache.drop(ctx, id)
	return p, nil
}

// apply validates in and copies it onto p.
func (s *catalogService) apply(ctx context.Context, p *model.Product, in ProductInput) error {
	title := strings.TrimSpace(in.Title)
	if title == "" || utf8.RuneCountInString(title) > maxTitleLen {
		return invalid("title must be 1-%d characters", maxTitleLen)
	}
	description := strings.TrimSpace(in.Description)
	if description == "" {
		return invalid("description is required")
	}
	if in.Price <= 0 {
		return invalid("price must be positive")
	}
	slug := strings.TrimSpace(in.CategorySlug)
	if slug == "" || slug == model.CategoryAll {
		return invalid("category is required")
	}
	if _, err := s.categories.FindBySlug(ctx, slug); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return invalid("unknown category %q", slug)
		}
		return err
	}

	images := make([]model.ProductImage, 0, len(in.ImageURLs))
	for _, raw := range in.ImageURLs {
		u := strings.TrimSpace(raw)
		if u == "" {
			continue
		}
		if strings.HasPrefix(u, "data:") {
			return invalid("imageUrls must be URLs, not data URIs")
		}
		images = append(images, model.ProductImage{ImageURL: u, Position: len(images)})
	}
	if len(images) == 0 {
		return invalid("at least one image is required")
	}
	if len(images) > maxImages {
		return invalid("at most %d images", maxImages)
	}

	var minOffer *int64
	acceptMsg, rejectMsg := "", ""
	if in.AutoOffers {
		if in.MinOfferPrice == nil {
			return invalid("minOfferPrice is required when automatic offers are enabled")
		}
		if _, err := pricing.EvaluateOffer(in.Price, nil, *in.MinOfferPrice); err != nil {
			return invalid("minOfferPrice must be greater than zero and below the price")
		}
		v := *in.MinOfferPrice
		minOffer = &v
		acceptMsg = strings.TrimSpace(in.AutoAcceptMessage)
		if acceptMsg == "" {
			acceptMsg = DefaultAutoAcceptMessage
		}
		rejectMsg = strings.TrimSpace(in.AutoRejectMessage)
		if rejectMsg == "" {
			rejectMsg = DefaultAutoRejectMessage
		}
	}

	p.Title = title
	p.Description = description
	p.Price = in.Price
	p.CategorySlug = slug
	p.Condition = strings.TrimSpace(in.Condition)
	p.Location = strings.TrimSpace(in.Location)
	p.Latitude = in.Latitude
	p.Longitude = in.Longitude
	p.FastShipping = in.FastShipping
	p.SecurePayment = in.SecurePayment
	p.FreeFirstShipping = in.FreeFirstShipping
	p.MinOfferPrice = minOffer
	p.AutoAcceptMessage = acceptMsg
	p.AutoRejectMessage = rejectMsg
	p.Images = images
	return nil
}

func (s *catalogService) ListBySeller(ctx context.Context, sellerUID string) ([]model.Product, error) {
	if sellerUID == "" {
		return nil, ErrForbidden
	}
	return s.products.Search(ctx, repository.ProductQuery{SellerUID: sellerUID})
}

func (s *catalogService) ToggleFavorite(ctx context.Context, uid string, productID uint64) (bool, error) {
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		return false, notFound(err)
	}
	return s.favorites.Toggle(ctx, uid, productID)
}

func (s *catalogService) ListFavorites(ctx context.Context, uid string) ([]model.Product, error) {
	ids, err := s.favorites.ListProductIDs(ctx, uid)
	if err != nil {
		return nil, err
	}
	byID, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]model.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}
