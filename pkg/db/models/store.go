package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/angelmondragon/mercadito-backend/pkg/enums"
	"github.com/angelmondragon/mercadito-backend/pkg/types"
)

// Store represents one tenant storefront owned by an administrator.
type Store struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	OwnerID         uuid.UUID           `gorm:"column:owner_id;type:uuid;not null;index"`
	Name            string              `gorm:"column:name;not null"`
	ResponsibleName string              `gorm:"column:responsible_name;not null;default:''"`
	Phone           string              `gorm:"column:phone;not null"`
	Categories      pq.StringArray      `gorm:"column:categories;type:text[];not null"`
	Description     string              `gorm:"column:description;not null;default:''"`
	Images          pq.StringArray      `gorm:"column:images;type:text[];not null"`
	Schedule        types.Schedule      `gorm:"column:schedule;type:jsonb;not null"`
	Location        types.StoreLocation `gorm:"column:location;type:jsonb;not null"`
	Address         string              `gorm:"column:address;not null;default:''"`
	Social          *types.Social       `gorm:"column:social;type:jsonb"`
	Status          enums.ListingStatus `gorm:"column:status;not null;default:'active'"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// HasCategory reports whether the store declares category.
func (s *Store) HasCategory(category string) bool {
	for _, c := range s.Categories {
		if c == category {
			return true
		}
	}
	return false
}
