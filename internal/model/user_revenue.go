package model

import "time"

// UserRevenue is a seller's balance. Earned only grows; Balance shrinks on withdrawal.
type UserRevenue struct {
	UID          string    `gorm:"column:uid;primaryKey;size:128"`
	BalanceCents int64     `gorm:"column:balance_cents;not null;default:0"`
	EarnedCents  int64     `gorm:"column:earned_cents;not null;default:0"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}

func (UserRevenue) TableName() string {
	return "user_revenues"
}
