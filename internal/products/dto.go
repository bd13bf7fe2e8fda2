package product

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/mercadito-backend/pkg/db/models"
	"github.com/angelmondragon/mercadito-backend/pkg/enums"
	"github.com/angelmondragon/mercadito-backend/pkg/pagination"
)

// ProductDTO is the catalog representation of a product.
type ProductDTO struct {
	ID          uuid.UUID           `json:"id"`
	StoreID     uuid.UUID           `json:"storeId"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Price       decimal.Decimal     `json:"price"`
	Stock       int                 `json:"stock"`
	Images      []string            `json:"images"`
	Category    string              `json:"category"`
	AdminNote   *string             `json:"adminNote,omitempty"`
	Status      enums.ListingStatus `json:"status"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	Name        string               `json:"name" validate:"required,max=100"`
	Description string               `json:"description" validate:"omitempty,max=500"`
	Price       decimal.Decimal      `json:"price"`
	Stock       int                  `json:"stock" validate:"gte=0"`
	Images      []string             `json:"images" validate:"required,min=1,dive,url"`
	Category    string               `json:"category" validate:"required"`
	AdminNote   *string              `json:"adminNote,omitempty" validate:"omitempty,max=200"`
	Status      *enums.ListingStatus `json:"status,omitempty"`
}

// UpdateProductInput holds optional mutation values for a product.
type UpdateProductInput struct {
	Name        *string              `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Description *string              `json:"description,omitempty" validate:"omitempty,max=500"`
	Price       *decimal.Decimal     `json:"price,omitempty"`
	Stock       *int                 `json:"stock,omitempty" validate:"omitempty,gte=0"`
	Images      *[]string            `json:"images,omitempty"`
	Category    *string              `json:"category,omitempty"`
	AdminNote   *string              `json:"adminNote,omitempty" validate:"omitempty,max=200"`
	Status      *enums.ListingStatus `json:"status,omitempty"`
}

// ListProductsInput filters a store's catalog.
type ListProductsInput struct {
	pagination.Params
	StoreID  uuid.UUID
	Category string
	Search   string
}

// listQuery is what the repository filters on.
type listQuery struct {
	ListProductsInput
	ActiveOnly bool
}

// FromModel maps a product model to its DTO.
func FromModel(m *models.Product) *ProductDTO {
	if m == nil {
		return nil
	}
	return &ProductDTO{
		ID:          m.ID,
		StoreID:     m.StoreID,
		Name:        m.Name,
		Description: m.Description,
		Price:       m.Price,
		Stock:       m.Stock,
		Images:      append([]string{}, m.Images...),
		Category:    m.Category,
		AdminNote:   m.AdminNote,
		Status:      m.Status,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}
