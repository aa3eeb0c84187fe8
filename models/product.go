package models

import (
	"time"
)

// Product categories offered by the boutique
const (
	CategoryWeddingDresses    = "Wedding Dresses"
	CategoryFlowerGirlDresses = "Flower Girl Dresses"
	CategoryBelts             = "Belts"
	CategoryVeils             = "Veils"
	CategoryJewelry           = "Jewelry"
	CategoryHairPieces        = "Hair Pieces"
)

// Categories lists every category in display order
var Categories = []string{
	CategoryWeddingDresses,
	CategoryFlowerGirlDresses,
	CategoryBelts,
	CategoryVeils,
	CategoryJewelry,
	CategoryHairPieces,
}

// IsValidCategory reports whether category is one of the fixed categories
func IsValidCategory(category string) bool {
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}

// Product represents an item in the showcase (dress or accessory)
type Product struct {
	ID               string    `gorm:"primaryKey;size:128" json:"id"`
	Name             string    `gorm:"not null" json:"name"`
	Category         string    `gorm:"not null;index" json:"category"`
	Description      string    `gorm:"type:text;not null" json:"description"`
	Price            string    `gorm:"not null" json:"price"` // display string, e.g. "$1,999"
	Sold             bool      `gorm:"not null" json:"sold"`
	ImageURL         *string   `json:"imageUrl,omitempty"`         // nullable, hosted image
	ImagePlaceholder *string   `json:"imagePlaceholder,omitempty"` // nullable, label shown without an image
	CreatedAt        time.Time `json:"-"`
	UpdatedAt        time.Time `json:"-"`
}

// TableName specifies the table name for the Product model
func (Product) TableName() string {
	return "products"
}

// Available reports whether the public site may offer the product for purchase
func (p Product) Available() bool {
	return !p.Sold
}

// SameContent reports whether two products carry the same field values,
// ignoring bookkeeping timestamps
func (p Product) SameContent(other Product) bool {
	return p.ID == other.ID &&
		p.Name == other.Name &&
		p.Category == other.Category &&
		p.Description == other.Description &&
		p.Price == other.Price &&
		p.Sold == other.Sold &&
		equalOptional(p.ImageURL, other.ImageURL) &&
		equalOptional(p.ImagePlaceholder, other.ImagePlaceholder)
}

func equalOptional(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
