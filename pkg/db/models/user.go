package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/mercadito-backend/pkg/enums"
	"github.com/angelmondragon/mercadito-backend/pkg/types"
)

// User represents the canonical identity entity.
type User struct {
	ID                   uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	Name                 string              `gorm:"column:name;not null"`
	Email                string              `gorm:"column:email;not null;uniqueIndex"`
	PasswordHash         string              `gorm:"column:password_hash;not null"`
	Phone                string              `gorm:"column:phone;not null"`
	ProfileImageURL      *string             `gorm:"column:profile_image_url"`
	Role                 enums.Role          `gorm:"column:role;not null;default:'client'"`
	Locations            types.UserLocations `gorm:"column:locations;type:jsonb;not null"`
	CurrentLocationIndex int                 `gorm:"column:current_location_index;not null;default:0"`
	LastLoginAt          *time.Time          `gorm:"column:last_login_at"`
	CreatedAt            time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// CurrentLocation returns the selected location, if any.
func (u *User) CurrentLocation() (types.UserLocation, bool) {
	if u == nil || u.CurrentLocationIndex < 0 || u.CurrentLocationIndex >= len(u.Locations) {
		return types.UserLocation{}, false
	}
	return u.Locations[u.CurrentLocationIndex], true
}
