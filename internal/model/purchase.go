package model

import "time"

type PurchaseStatus string

const (
	PurchaseStatusPendingShipment PurchaseStatus = "pending_shipment"
	PurchaseStatusShipped         PurchaseStatus = "shipped"
	PurchaseStatusDelivered       PurchaseStatus = "delivered"
	PurchaseStatusCanceled        PurchaseStatus = "canceled"
)

const (
	PaymentSalamePay  = "salame_pay"
	PaymentCreditCard = "credit_card"
)

type Purchase struct {
	ID             uint64         `gorm:"primaryKey;autoIncrement"`
	ProductID      uint64         `gorm:"column:product_id;index;not null"`
	BuyerUID       string         `gorm:"column:buyer_uid;size:128;index;not null"`
	SellerUID      string         `gorm:"column:seller_uid;size:128;index;not null"`
	OfferID        *uint64        `gorm:"column:offer_id;index"`
	ConversationID uint64         `gorm:"column:conversation_id;index"`
	PaymentMethod  string         `gorm:"column:payment_method;size:32;not null"`
	ShippingMethod string         `gorm:"column:shipping_method;size:32;not null"`
	ItemPrice      int64          `gorm:"column:item_price;not null"`
	ShippingCost   int64          `gorm:"column:shipping_cost;not null"`
	Total          int64          `gorm:"column:total;not null"`
	FreeShipping   bool           `gorm:"column:free_shipping;not null;default:false"`
	Status         PurchaseStatus `gorm:"column:status;size:32;not null"`
	ShippedAt      *time.Time     `gorm:"column:shipped_at"`
	DeliveredAt    *time.Time     `gorm:"column:delivered_at"`
	CreatedAt      time.Time      `gorm:"autoCreateTime"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime"`
}

func (Purchase) TableName() string {
	return "purchases"
}

func ValidPaymentMethod(m string) bool {
	return m == PaymentSalamePay || m == PaymentCreditCard
}
