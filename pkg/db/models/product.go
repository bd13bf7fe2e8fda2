package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/mercadito-backend/pkg/enums"
)

// Product represents a store's catalog listing.
type Product struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	StoreID     uuid.UUID           `gorm:"column:store_id;type:uuid;not null;index"`
	Name        string              `gorm:"column:name;not null"`
	Description string              `gorm:"column:description;not null;default:''"`
	Price       decimal.Decimal     `gorm:"column:price;type:numeric(12,2);not null"`
	Stock       int                 `gorm:"column:stock;not null;default:0"`
	Images      pq.StringArray      `gorm:"column:images;type:text[];not null"`
	Category    string              `gorm:"column:category;not null"`
	AdminNote   *string             `gorm:"column:admin_note"`
	Status      enums.ListingStatus `gorm:"column:status;not null;default:'active'"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// FirstImage is the thumbnail used in cart snapshots.
func (p *Product) FirstImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}
