package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/mercadito-backend/pkg/enums"
)

// Order is an immutable purchase snapshot; only status, notes and payment
// status change after creation.
type Order struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	OrderNumber     string              `gorm:"column:order_number;not null;uniqueIndex"`
	StoreID         uuid.UUID           `gorm:"column:store_id;type:uuid;not null;index"`
	CustomerName    string              `gorm:"column:customer_name;not null"`
	CustomerEmail   string              `gorm:"column:customer_email;not null;index"`
	CustomerPhone   string              `gorm:"column:customer_phone;not null"`
	ShippingAddress string              `gorm:"column:shipping_address;not null"`
	Subtotal        decimal.Decimal     `gorm:"column:subtotal;type:numeric(12,2);not null"`
	Shipping        decimal.Decimal     `gorm:"column:shipping;type:numeric(12,2);not null"`
	Total           decimal.Decimal     `gorm:"column:total;type:numeric(12,2);not null"`
	PaymentMethod   enums.PaymentMethod `gorm:"column:payment_method;not null"`
	PaymentDetails  string              `gorm:"column:payment_details;not null;default:''"`
	PaymentStatus   enums.PaymentStatus `gorm:"column:payment_status;not null;default:'pendiente'"`
	Status          enums.OrderStatus   `gorm:"column:status;not null;default:'pendiente'"`
	Notes           string              `gorm:"column:notes;not null;default:''"`
	Items           []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderItem is a denormalized order line.
type OrderItem struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID   uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	Name      string          `gorm:"column:name;not null"`
	Quantity  int             `gorm:"column:quantity;not null"`
	Price     decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Note      *string         `gorm:"column:note"`
	Position  int             `gorm:"column:position;not null;default:0"`
}
