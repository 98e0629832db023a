package model

import "time"

type Conversation struct {
	ID            uint64    `gorm:"primaryKey;autoIncrement"`
	ProductID     uint64    `gorm:"column:product_id;index:idx_product_buyer,unique"`
	SellerUID     string    `gorm:"column:seller_uid;size:128;index"`
	BuyerUID      string    `gorm:"column:buyer_uid;size:128;index:idx_product_buyer,unique"`
	LastMessageAt time.Time `gorm:"column:last_message_at;index"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`
}

func (Conversation) TableName() string {
	return "conversations"
}

func (c *Conversation) HasParticipant(uid string) bool {
	return uid != "" && (c.BuyerUID == uid || c.SellerUID == uid)
}

// Counterpart returns the other participant's uid.
func (c *Conversation) Counterpart(uid string) string {
	if c.BuyerUID == uid {
		return c.SellerUID
	}
	return c.BuyerUID
}
