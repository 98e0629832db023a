package model

import "time"

type Favorite struct {
	UID       string    `gorm:"column:uid;size:128;primaryKey"`
	ProductID uint64    `gorm:"column:product_id;primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (Favorite) TableName() string {
	return "favorites"
}
