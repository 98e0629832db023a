package model

import "time"

type ProductStatus string

const (
	ProductStatusActive ProductStatus = "active"
	ProductStatusSold   ProductStatus = "sold"
)

// NewProductWindow is how long a listing is advertised as new.
const NewProductWindow = 72 * time.Hour

type Product struct {
	ID                uint64         `gorm:"primaryKey;autoIncrement"`
	Title             string         `gorm:"size:120;not null"`
	Description       string         `gorm:"type:text;not null"`
	Price             int64          `gorm:"not null"`
	CategorySlug      string         `gorm:"column:category_slug;size:64;not null;index"`
	Location          string         `gorm:"size:255"`
	Latitude          *float64       `gorm:"column:latitude"`
	Longitude         *float64       `gorm:"column:longitude"`
	SellerUID         string         `gorm:"column:seller_uid;size:128;not null;index"`
	Condition         string         `gorm:"size:64"`
	FastShipping      bool           `gorm:"column:fast_shipping;not null;default:false"`
	SecurePayment     bool           `gorm:"column:secure_payment;not null"`
	FreeFirstShipping bool           `gorm:"column:free_first_shipping;not null"`
	MinOfferPrice     *int64         `gorm:"column:min_offer_price"`
	AutoAcceptMessage string         `gorm:"column:auto_accept_message;type:text"`
	AutoRejectMessage string         `gorm:"column:auto_reject_message;type:text"`
	Status            ProductStatus  `gorm:"column:status;size:16;not null;default:active;index"`
	Images            []ProductImage `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time      `gorm:"autoCreateTime;index"`
	UpdatedAt         time.Time      `gorm:"autoUpdateTime"`
}

func (Product) TableName() string {
	return "products"
}

// AutoOffers reports whether offers on this product are decided without the seller.
func (p *Product) AutoOffers() bool {
	return p.MinOfferPrice != nil
}

func (p *Product) IsNew(now time.Time) bool {
	return now.Sub(p.CreatedAt) < NewProductWindow
}

// CoverImage returns the first image URL, or "" when the product has none.
func (p *Product) CoverImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0].ImageURL
}
