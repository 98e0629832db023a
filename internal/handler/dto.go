package handler

import (
	"time"

	"github.com/shinyyama/mercado-backend/internal/model"
	"github.com/shinyyama/mercado-backend/internal/pricing"
)

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

type UserSummary struct {
	UID             string  `json:"uid"`
	Name            string  `json:"name"`
	AvatarURL       string  `json:"avatarUrl"`
	Location        string  `json:"location,omitempty"`
	Rating          float64 `json:"rating"`
	TotalSales      int     `json:"totalSales"`
	ReputationBadge string  `json:"reputationBadge,omitempty"`
}

func toUserSummary(u *model.User) *UserSummary {
	if u == nil {
		return nil
	}
	return &UserSummary{
		UID:             u.UID,
		Name:            u.Name,
		AvatarURL:       u.AvatarURL,
		Location:        u.Location,
		Rating:          u.Rating,
		TotalSales:      u.TotalSales,
		ReputationBadge: u.ReputationBadge,
	}
}

type ProductSummary struct {
	ID     uint64 `json:"id"`
	Title  string `json:"title"`
	Price  int64  `json:"price"`
	Image  string `json:"image"`
	Status string `json:"status"`
}

func toProductSummary(p *model.Product) *ProductSummary {
	if p == nil {
		return nil
	}
	return &ProductSummary{
		ID:     p.ID,
		Title:  p.Title,
		Price:  p.Price,
		Image:  p.CoverImage(),
		Status: string(p.Status),
	}
}

type ProductResponse struct {
	ID                uint64       `json:"id"`
	Title             string       `json:"title"`
	Description       string       `json:"description"`
	Price             int64        `json:"price"`
	Images            []string     `json:"images"`
	Category          string       `json:"category"`
	Condition         string       `json:"condition,omitempty"`
	Location          string       `json:"location"`
	Latitude          *float64     `json:"latitude,omitempty"`
	Longitude         *float64     `json:"longitude,omitempty"`
	DistanceMeters    *float64     `json:"distanceMeters,omitempty"`
	SellerUID         string       `json:"sellerId"`
	Seller            *UserSummary `json:"seller,omitempty"`
	FastShipping      bool         `json:"fastShipping"`
	SecurePayment     bool         `json:"securePayment"`
	FreeFirstShipping bool         `json:"freeFirstShipping"`
	AutomaticOffers   bool         `json:"automaticOffers"`
	MinOfferPrice     *int64       `json:"minOfferPrice,omitempty"`
	MinOfferPercent   *int         `json:"minOfferPercent,omitempty"`
	AutoAcceptMessage string       `json:"autoAcceptMessage,omitempty"`
	AutoRejectMessage string       `json:"autoRejectMessage,omitempty"`
	Status            string       `json:"status"`
	IsNew             bool         `json:"isNew"`
	CreatedAt         string       `json:"createdAt"`
	UpdatedAt         string       `json:"updatedAt"`
}

func toProductResponse(p *model.Product, seller *model.User, distance *float64, now time.Time) ProductResponse {
	images := make([]string, 0, len(p.Images))
	for _, img := range p.Images {
		images = append(images, img.ImageURL)
	}
	resp := ProductResponse{
		ID:                p.ID,
		Title:             p.Title,
		Description:       p.Description,
		Price:             p.Price,
		Images:            images,
		Category:          p.CategorySlug,
		Condition:         p.Condition,
		Location:          p.Location,
		Latitude:          p.Latitude,
		Longitude:         p.Longitude,
		DistanceMeters:    distance,
		SellerUID:         p.SellerUID,
		Seller:            toUserSummary(seller),
		FastShipping:      p.FastShipping,
		SecurePayment:     p.SecurePayment,
		FreeFirstShipping: p.FreeFirstShipping,
		AutomaticOffers:   p.AutoOffers(),
		MinOfferPrice:     p.MinOfferPrice,
		AutoAcceptMessage: p.AutoAcceptMessage,
		AutoRejectMessage: p.AutoRejectMessage,
		Status:            string(p.Status),
		IsNew:             p.IsNew(now),
		CreatedAt:         formatTime(p.CreatedAt),
		UpdatedAt:         formatTime(p.UpdatedAt),
	}
	if p.MinOfferPrice != nil {
		pct := pricing.MinOfferPercent(p.Price, *p.MinOfferPrice)
		resp.MinOfferPercent = &pct
	}
	return resp
}
