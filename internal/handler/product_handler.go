package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/mercado-backend/internal/model"
	"github.com/shinyyama/mercado-backend/internal/service"
)

type ProductHandler struct {
	svc service.CatalogService
	now func() time.Time
}

func NewProductHandler(svc service.CatalogService) *ProductHandler {
	return &ProductHandler{svc: svc, now: time.Now}
}

type CategoryResponse struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

type ProductRequest struct {
	Title             string   `json:"title"`
	Description       string   `json:"description"`
	Price             int64    `json:"price"`
	Category          string   `json:"category"`
	Condition         string   `json:"condition"`
	Location          string   `json:"location"`
	Latitude          *float64 `json:"latitude"`
	Longitude         *float64 `json:"longitude"`
	FastShipping      bool     `json:"fastShipping"`
	SecurePayment     *bool    `json:"securePayment"`
	FreeFirstShipping *bool    `json:"freeFirstShipping"`
	AutomaticOffers   bool     `json:"automaticOffers"`
	MinOfferPrice     *int64   `json:"minOfferPrice"`
	AutoAcceptMessage string   `json:"autoAcceptMessage"`
	AutoRejectMessage string   `json:"autoRejectMessage"`
	Images            []string `json:"images"`
}

func (r ProductRequest) toInput() service.ProductInput {
	in := service.ProductInput{
		Title:             r.Title,
		Description:       r.Description,
		Price:             r.Price,
		CategorySlug:      r.Category,
		Condition:         r.Condition,
		Location:          r.Location,
		Latitude:          r.Latitude,
		Longitude:         r.Longitude,
		FastShipping:      r.FastShipping,
		SecurePayment:     true,
		FreeFirstShipping: true,
		AutoOffers:        r.AutomaticOffers,
		MinOfferPrice:     r.MinOfferPrice,
		AutoAcceptMessage: r.AutoAcceptMessage,
		AutoRejectMessage: r.AutoRejectMessage,
		ImageURLs:         r.Images,
	}
	if r.SecurePayment != nil {
		in.SecurePayment = *r.SecurePayment
	}
	if r.FreeFirstShipping != nil {
		in.FreeFirstShipping = *r.FreeFirstShipping
	}
	return in
}

func (h *ProductHandler) Categories(c echo.Context) error {
	list, err := h.svc.Categories(c.Request().Context())
	if err != nil {
		return err
	}
	resp := []CategoryResponse{{Slug: model.CategoryAll, Name: "Todo"}}
	for _, cat := range list {
		resp = append(resp, CategoryResponse{Slug: cat.Slug, Name: cat.Name})
	}
	return c.JSON(http.StatusOK, resp)
}

func queryFloat(c echo.Context, name string) (*float64, bool) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, false
	}
	return &v, true
}

func queryInt(c echo.Context, name string, def int) (int, bool) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func (h *ProductHandler) List(c echo.Context) error {
	f := service.ProductFilter{
		Category: c.QueryParam("category"),
		Query:    c.QueryParam("q"),
		Location: c.QueryParam("location"),
	}
	var ok bool
	if f.Radius, ok = queryInt(c, "radius", 0); !ok {
		return badRequest(c, "invalid radius")
	}
	if f.Limit, ok = queryInt(c, "limit", 20); !ok {
		return badRequest(c, "invalid limit")
	}
	if f.Offset, ok = queryInt(c, "offset", 0); !ok {
		return badRequest(c, "invalid offset")
	}
	if f.Lat, ok = queryFloat(c, "lat"); !ok {
		return badRequest(c, "invalid lat")
	}
	if f.Lng, ok = queryFloat(c, "lng"); !ok {
		return badRequest(c, "invalid lng")
	}

	list, total, err := h.svc.List(c.Request().Context(), f)
	if err != nil {
		return serviceError(c, err, "product")
	}
	now := h.now()
	items := make([]ProductResponse, 0, len(list))
	for i := range list {
		items = append(items, toProductResponse(&list[i].Product, list[i].Seller, list[i].Distance, now))
	}
	return c.JSON(http.StatusOK, ListResponse[ProductResponse]{Items: items, Total: total})
}

func (h *ProductHandler) Get(c echo.Context) error {
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid product id")
	}
	v, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return serviceError(c, err, "product")
	}
	return c.JSON(http.StatusOK, toProductResponse(&v.Product, v.Seller, nil, h.now()))
}

func (h *ProductHandler) Create(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return missingUID(c)
	}
	var req ProductRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid json")
	}
	p, err := h.svc.Publish(c.Request().Context(), uid, req.toInput())
	if err != nil {
		return serviceError(c, err, "product")
	}
	return c.JSON(http.StatusCreated, toProductResponse(p, nil, nil, h.now()))
}

func (h *ProductHandler) Update(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return missingUID(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid product id")
	}
	var req ProductRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid json")
	}
	p, err := h.svc.Update(c.Request().Context(), uid, id, req.toInput())
	if err != nil {
		return serviceError(c, err, "product")
	}
	return c.JSON(http.StatusOK, toProductResponse(p, nil, nil, h.now()))
}

func (h *ProductHandler) ToggleFavorite(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return missingUID(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid product id")
	}
	on, err := h.svc.ToggleFavorite(c.Request().Context(), uid, id)
	if err != nil {
		return serviceError(c, err, "product")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"productId": id, "favorite": on})
}

func (h *ProductHandler) Mine(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return missingUID(c)
	}
	list, err := h.svc.ListBySeller(c.Request().Context(), uid)
	if err != nil {
		return serviceError(c, err, "product")
	}
	return c.JSON(http.StatusOK, h.products(list))
}

func (h *ProductHandler) Favorites(c echo.Context) error {
	uid, _ := c.Get("uid").(string)
	if uid == "" {
		return missingUID(c)
	}
	list, err := h.svc.ListFavorites(c.Request().Context(), uid)
	if err != nil {
		return serviceError(c, err, "product")
	}
	return c.JSON(http.StatusOK, h.products(list))
}

func (h *ProductHandler) products(list []model.Product) ListResponse[ProductResponse] {
	now := h.now()
	items := make([]ProductResponse, 0, len(list))
	for i := range list {
		items = append(items, toProductResponse(&list[i], nil, nil, now))
	}
	return ListResponse[ProductResponse]{Items: items, Total: len(items)}
}
