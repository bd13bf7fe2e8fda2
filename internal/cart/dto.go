package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/mercadito-backend/pkg/db/models"
	"github.com/angelmondragon/mercadito-backend/pkg/types"
)

// CartDTO is the cart as returned to clients.
type CartDTO struct {
	ID         uuid.UUID        `json:"id"`
	SessionID  string           `json:"sessionId"`
	StoreID    uuid.UUID        `json:"storeId"`
	Items      []types.CartLine `json:"items"`
	TotalItems int              `json:"totalItems"`
	Subtotal   decimal.Decimal  `json:"subtotal"`
	UpdatedAt  time.Time        `json:"updatedAt"`
}

// AddItemInput adds a product to a cart. Quantity defaults to 1.
type AddItemInput struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	StoreID   uuid.UUID `json:"storeId" validate:"required"`
	Quantity  int       `json:"quantity" validate:"omitempty,gte=1"`
	Note      *string   `json:"note,omitempty" validate:"omitempty,max=200"`
}

// UpdateItemInput changes the quantity or note of an existing line.
type UpdateItemInput struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	StoreID   uuid.UUID `json:"storeId" validate:"required"`
	Quantity  *int      `json:"quantity,omitempty" validate:"omitempty,gte=1"`
	Note      *string   `json:"note,omitempty" validate:"omitempty,max=200"`
}

// RemoveItemInput drops one line from a cart.
type RemoveItemInput struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	StoreID   uuid.UUID `json:"storeId" validate:"required"`
}

// ClearInput empties a cart.
type ClearInput struct {
	StoreID uuid.UUID `json:"storeId" validate:"required"`
}

// FromModel maps a cart model to its DTO.
func FromModel(m *models.Cart) *CartDTO {
	if m == nil {
		return nil
	}
	items := make([]types.CartLine, len(m.Items))
	copy(items, m.Items)
	return &CartDTO{
		ID:         m.ID,
		SessionID:  m.SessionID,
		StoreID:    m.StoreID,
		Items:      items,
		TotalItems: m.TotalItems,
		Subtotal:   m.Subtotal,
		UpdatedAt:  m.UpdatedAt,
	}
}
