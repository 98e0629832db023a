package model

import "time"

type OfferStatus string

const (
	OfferStatusPending  OfferStatus = "pending"
	OfferStatusAccepted OfferStatus = "accepted"
	OfferStatusRejected OfferStatus = "rejected"
	OfferStatusCanceled OfferStatus = "canceled"
)

func (s OfferStatus) Valid() bool {
	switch s {
	case OfferStatusPending, OfferStatusAccepted, OfferStatusRejected, OfferStatusCanceled:
		return true
	}
	return false
}

type Offer struct {
	ID          uint64      `gorm:"primaryKey;autoIncrement"`
	ProductID   uint64      `gorm:"column:product_id;not null;index"`
	BuyerUID    string      `gorm:"column:buyer_uid;size:128;not null;index"`
	SellerUID   string      `gorm:"column:seller_uid;size:128;not null;index"`
	Amount      int64       `gorm:"column:amount;not null"`
	Message     string      `gorm:"column:message;type:text"`
	Status      OfferStatus `gorm:"column:status;size:16;not null;index"`
	AutoHandled bool        `gorm:"column:auto_handled;not null;default:false"`
	Response    string      `gorm:"column:response;type:text"`
	DecidedAt   *time.Time  `gorm:"column:decided_at"`
	CreatedAt   time.Time   `gorm:"autoCreateTime"`
	UpdatedAt   time.Time   `gorm:"autoUpdateTime"`
}

func (Offer) TableName() string {
	return "offers"
}
