package users

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/mercadito-backend/pkg/db/models"
	"github.com/angelmondragon/mercadito-backend/pkg/enums"
	"github.com/angelmondragon/mercadito-backend/pkg/pagination"
	"github.com/angelmondragon/mercadito-backend/pkg/types"
	"github.com/angelmondragon/mercadito-backend/pkg/validation"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID                   uuid.UUID            `json:"id"`
	Name                 string               `json:"name"`
	Email                string               `json:"email"`
	Phone                string               `json:"phone"`
	ProfileImageURL      *string              `json:"profileImageUrl,omitempty"`
	Role                 enums.Role           `json:"role"`
	Locations            []types.UserLocation `json:"locations"`
	CurrentLocationIndex int                  `json:"currentLocationIndex"`
	CurrentLocation      *types.UserLocation  `json:"currentLocation,omitempty"`
	LastLoginAt          *time.Time           `json:"lastLoginAt,omitempty"`
	CreatedAt            time.Time            `json:"createdAt"`
	UpdatedAt            time.Time            `json:"updatedAt"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Name            string
	Email           string
	PasswordHash    string
	Phone           string
	ProfileImageURL *string
	Role            enums.Role
	Locations       []LocationInput
}

// LocationInput is a location as supplied by a client.
type LocationInput struct {
	Alias         string `json:"alias" validate:"required,max=100"`
	GoogleMapsURL string `json:"googleMapsUrl" validate:"required,url"`
	IsDefault     bool   `json:"isDefault"`
}

// LocationPatch updates any subset of a saved location.
type LocationPatch struct {
	Alias         *string `json:"alias,omitempty" validate:"omitempty,max=100"`
	GoogleMapsURL *string `json:"googleMapsUrl,omitempty" validate:"omitempty,url"`
	IsDefault     *bool   `json:"isDefault,omitempty"`
}

// ProfilePatch is the self-service profile update.
type ProfilePatch struct {
	Name            *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Phone           *string `json:"phone,omitempty" validate:"omitempty,e164phone"`
	ProfileImageURL *string `json:"profileImageUrl,omitempty" validate:"omitempty,url"`
}

// AdminCreateRequest is the platform-admin user creation payload.
type AdminCreateRequest struct {
	Name      string          `json:"name" validate:"required,max=100"`
	Email     string          `json:"email" validate:"required,email"`
	Password  string          `json:"password" validate:"required,min=6"`
	Phone     string          `json:"phone" validate:"required,e164phone"`
	Role      enums.Role      `json:"role" validate:"required"`
	Locations []LocationInput `json:"locations" validate:"required,min=1,dive"`
}

// AdminUpdateRequest lets a platform admin edit any user, role included.
type AdminUpdateRequest struct {
	ProfilePatch
	Email *string     `json:"email,omitempty" validate:"omitempty,email"`
	Role  *enums.Role `json:"role,omitempty"`
}

// ListParams filters the admin user listing.
type ListParams struct {
	pagination.Params
	Role   *enums.Role
	Search string
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	locations := make([]types.UserLocation, len(u.Locations))
	copy(locations, u.Locations)

	dto := &UserDTO{
		ID:                   u.ID,
		Name:                 u.Name,
		Email:                u.Email,
		Phone:                u.Phone,
		ProfileImageURL:      u.ProfileImageURL,
		Role:                 u.Role,
		Locations:            locations,
		CurrentLocationIndex: u.CurrentLocationIndex,
		LastLoginAt:          u.LastLoginAt,
		CreatedAt:            u.CreatedAt,
		UpdatedAt:            u.UpdatedAt,
	}
	if current, ok := u.CurrentLocation(); ok {
		dto.CurrentLocation = &current
	}
	return dto
}

// ToModel builds the row, assigning ids to the supplied locations. Callers
// validate the locations first with NewLocations.
func (c CreateUserDTO) ToModel() (*models.User, error) {
	locations, current, err := NewLocations(c.Locations)
	if err != nil {
		return nil, err
	}
	role := c.Role
	if role == "" {
		role = enums.RoleClient
	}
	return &models.User{
		ID:                   uuid.New(),
		Name:                 strings.TrimSpace(c.Name),
		Email:                validation.NormalizeEmail(c.Email),
		PasswordHash:         c.PasswordHash,
		Phone:                strings.TrimSpace(c.Phone),
		ProfileImageURL:      c.ProfileImageURL,
		Role:                 role,
		Locations:            locations,
		CurrentLocationIndex: current,
	}, nil
}
