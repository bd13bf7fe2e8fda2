package stores

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/mercadito-backend/pkg/db/models"
	"github.com/angelmondragon/mercadito-backend/pkg/enums"
	"github.com/angelmondragon/mercadito-backend/pkg/pagination"
	"github.com/angelmondragon/mercadito-backend/pkg/types"
)

// StoreDTO is the public representation of a store.
type StoreDTO struct {
	ID              uuid.UUID           `json:"id"`
	OwnerID         uuid.UUID           `json:"ownerId"`
	Name            string              `json:"name"`
	ResponsibleName string              `json:"responsibleName,omitempty"`
	Phone           string              `json:"phone"`
	Categories      []string            `json:"categories"`
	Description     string              `json:"description"`
	Images          []string            `json:"images"`
	Schedule        types.Schedule      `json:"schedule"`
	Location        types.StoreLocation `json:"location"`
	Address         string              `json:"address,omitempty"`
	Social          *types.Social       `json:"social,omitempty"`
	Status          enums.ListingStatus `json:"status"`
	CreatedAt       time.Time           `json:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt"`
}

// CreateStoreInput is the payload for a new store, also embedded in admin
// registration.
type CreateStoreInput struct {
	Name            string              `json:"name" validate:"required,max=100"`
	ResponsibleName string              `json:"responsibleName" validate:"omitempty,max=100"`
	Phone           string              `json:"phone" validate:"required,e164phone"`
	Categories      []string            `json:"categories" validate:"required,min=1"`
	Description     string              `json:"description" validate:"omitempty,max=500"`
	Images          []string            `json:"images" validate:"omitempty,dive,url"`
	Schedule        types.Schedule      `json:"schedule" validate:"required,len=7"`
	Location        types.StoreLocation `json:"location"`
	Address         string              `json:"address" validate:"omitempty,max=300"`
	Social          *types.Social       `json:"social,omitempty"`
}

// UpdateStoreInput captures the allowed store fields for mutation.
type UpdateStoreInput struct {
	Name            *string              `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	ResponsibleName *string              `json:"responsibleName,omitempty" validate:"omitempty,max=100"`
	Phone           *string              `json:"phone,omitempty" validate:"omitempty,e164phone"`
	Categories      *[]string            `json:"categories,omitempty"`
	Description     *string              `json:"description,omitempty" validate:"omitempty,max=500"`
	Images          *[]string            `json:"images,omitempty"`
	Schedule        *types.Schedule      `json:"schedule,omitempty"`
	Location        *types.StoreLocation `json:"location,omitempty"`
	Address         *string              `json:"address,omitempty" validate:"omitempty,max=300"`
	Social          *types.Social        `json:"social,omitempty"`
	Status          *enums.ListingStatus `json:"status,omitempty"`
}

// ListParams filters the public store directory.
type ListParams struct {
	pagination.Params
	Category        string
	Search          string
	IncludeInactive bool
}

// FromModel maps a store model to its DTO.
func FromModel(m *models.Store) *StoreDTO {
	if m == nil {
		return nil
	}
	return &StoreDTO{
		ID:              m.ID,
		OwnerID:         m.OwnerID,
		Name:            m.Name,
		ResponsibleName: m.ResponsibleName,
		Phone:           m.Phone,
		Categories:      append([]string{}, m.Categories...),
		Description:     m.Description,
		Images:          append([]string{}, m.Images...),
		Schedule:        append(types.Schedule{}, m.Schedule...),
		Location:        m.Location,
		Address:         m.Address,
		Social:          m.Social,
		Status:          m.Status,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}
