package model

import "time"

// CategoryAll is the pseudo category meaning "no category filter".
const CategoryAll = "all"

type Category struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	Slug      string    `gorm:"size:64;not null;uniqueIndex:uk_categories_slug"`
	Name      string    `gorm:"size:120;not null"`
	Position  int       `gorm:"not null;default:0"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Category) TableName() string {
	return "categories"
}
