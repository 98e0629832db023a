package model

import "time"

type User struct {
	UID             string    `gorm:"column:uid;primaryKey;size:128"`
	Name            string    `gorm:"size:120"`
	Email           string    `gorm:"size:255"`
	AvatarURL       string    `gorm:"column:avatar_url;size:512"`
	Location        string    `gorm:"size:255"`
	Latitude        *float64  `gorm:"column:latitude"`
	Longitude       *float64  `gorm:"column:longitude"`
	Rating          float64   `gorm:"not null;default:0"`
	TotalSales      int       `gorm:"column:total_sales;not null;default:0"`
	ReputationBadge string    `gorm:"column:reputation_badge;size:64"`
	CreatedAt       time.Time `gorm:"autoCreateTime"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}
