package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/mercadito-backend/pkg/db/models"
	"github.com/angelmondragon/mercadito-backend/pkg/enums"
	"github.com/angelmondragon/mercadito-backend/pkg/pagination"
)

// CustomerInput is the buyer snapshot sent at checkout.
type CustomerInput struct {
	Name            string `json:"name" validate:"required,max=100"`
	Email           string `json:"email" validate:"required,email"`
	Phone           string `json:"phone" validate:"required"`
	ShippingAddress string `json:"shippingAddress" validate:"required,max=500"`
}

// ItemInput is one requested line. Name and Price are informational only;
// the server always prices from the product row.
type ItemInput struct {
	ProductID uuid.UUID        `json:"productId" validate:"required"`
	Name      string           `json:"name,omitempty"`
	Quantity  int              `json:"quantity" validate:"gte=1"`
	Price     *decimal.Decimal `json:"price,omitempty"`
	Note      *string          `json:"note,omitempty" validate:"omitempty,max=200"`
}

// PaymentInput selects how the customer pays.
type PaymentInput struct {
	Method  enums.PaymentMethod `json:"method" validate:"required"`
	Details string              `json:"details" validate:"required,max=500"`
}

// TotalsInput carries client-computed totals, which are only compared and logged.
type TotalsInput struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Shipping decimal.Decimal `json:"shipping"`
	Total    decimal.Decimal `json:"total"`
}

// CreateOrderInput is the checkout payload.
type CreateOrderInput struct {
	StoreID  uuid.UUID     `json:"storeId" validate:"required"`
	Customer CustomerInput `json:"customer" validate:"required"`
	Items    []ItemInput   `json:"items" validate:"required,min=1,dive"`
	Payment  PaymentInput  `json:"payment" validate:"required"`
	Totals   *TotalsInput  `json:"totals,omitempty"`
	Notes    string        `json:"notes,omitempty" validate:"omitempty,max=500"`
}

// Totals are the server-computed order amounts.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Shipping decimal.Decimal `json:"shipping"`
	Total    decimal.Decimal `json:"total"`
}

// CreateOrderResult is returned after a successful checkout.
type CreateOrderResult struct {
	OrderID     uuid.UUID         `json:"orderId"`
	OrderNumber string            `json:"orderNumber"`
	Status      enums.OrderStatus `json:"status"`
	CreatedAt   time.Time         `json:"createdAt"`
	Totals      Totals            `json:"totals"`
}

// CustomerDTO is the stored buyer snapshot.
type CustomerDTO struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	ShippingAddress string `json:"shippingAddress"`
}

// OrderItemDTO is one denormalized order line.
type OrderItemDTO struct {
	ProductID uuid.UUID       `json:"productId"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Note      *string         `json:"note,omitempty"`
}

// PaymentDTO is the payment block of an order.
type PaymentDTO struct {
	Method  enums.PaymentMethod `json:"method"`
	Details string              `json:"details"`
	Status  enums.PaymentStatus `json:"status"`
}

// OrderDTO is the full order representation.
type OrderDTO struct {
	ID          uuid.UUID         `json:"id"`
	OrderNumber string            `json:"orderNumber"`
	StoreID     uuid.UUID         `json:"storeId"`
	Customer    CustomerDTO       `json:"customer"`
	Items       []OrderItemDTO    `json:"items"`
	Totals      Totals            `json:"totals"`
	Payment     PaymentDTO        `json:"payment"`
	Status      enums.OrderStatus `json:"status"`
	Notes       string            `json:"notes"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// ListFilters narrows order listings.
type ListFilters struct {
	pagination.Params
	Status  *enums.OrderStatus
	Date    *time.Time
	StoreID *uuid.UUID
}

// UpdateStatusInput moves an order through its lifecycle.
type UpdateStatusInput struct {
	Status enums.OrderStatus `json:"status" validate:"required"`
	Notes  *string           `json:"notes,omitempty" validate:"omitempty,max=500"`
}

// UpdatePaymentInput records the payment outcome.
type UpdatePaymentInput struct {
	Status enums.PaymentStatus `json:"status" validate:"required"`
}

// Revenue sums non-cancelled order totals over rolling windows.
type Revenue struct {
	Today decimal.Decimal `json:"today"`
	Week  decimal.Decimal `json:"week"`
	Month decimal.Decimal `json:"month"`
}

// StatsDTO is the admin dashboard summary.
type StatsDTO struct {
	TotalProducts  int64   `json:"totalProducts"`
	ActiveProducts int64   `json:"activeProducts"`
	TotalOrders    int64   `json:"totalOrders"`
	PendingOrders  int64   `json:"pendingOrders"`
	Revenue        Revenue `json:"revenue"`
}

// FromModel maps an order with its items to the DTO.
func FromModel(m *models.Order) *OrderDTO {
	if m == nil {
		return nil
	}
	items := make([]OrderItemDTO, 0, len(m.Items))
	for _, item := range m.Items {
		items = append(items, OrderItemDTO{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			Price:     item.Price,
			Note:      item.Note,
		})
	}
	return &OrderDTO{
		ID:          m.ID,
		OrderNumber: m.OrderNumber,
		StoreID:     m.StoreID,
		Customer: CustomerDTO{
			Name:            m.CustomerName,
			Email:           m.CustomerEmail,
			Phone:           m.CustomerPhone,
			ShippingAddress: m.ShippingAddress,
		},
		Items:  items,
		Totals: Totals{Subtotal: m.Subtotal, Shipping: m.Shipping, Total: m.Total},
		Payment: PaymentDTO{
			Method:  m.PaymentMethod,
			Details: m.PaymentDetails,
			Status:  m.PaymentStatus,
		},
		Status:    m.Status,
		Notes:     m.Notes,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// ParseDate reads a YYYY-MM-DD filter as a UTC day.
func ParseDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	day, err := time.ParseInLocation("2006-01-02", raw, time.UTC)
	if err != nil {
		return nil, err
	}
	return &day, nil
}
