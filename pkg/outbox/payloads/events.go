package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/mercadito-backend/pkg/enums"
)

// OrderLine is the per-product part of an order event.
type OrderLine struct {
	ProductID uuid.UUID       `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// OrderCreatedEvent is emitted once an order and its stock decrement commit.
type OrderCreatedEvent struct {
	OrderID       uuid.UUID           `json:"orderId"`
	OrderNumber   string              `json:"orderNumber"`
	StoreID       uuid.UUID           `json:"storeId"`
	CustomerEmail string              `json:"customerEmail"`
	PaymentMethod enums.PaymentMethod `json:"paymentMethod"`
	Total         decimal.Decimal     `json:"total"`
	Items         []OrderLine         `json:"items"`
}

// OrderStatusChangedEvent records one FSM transition.
type OrderStatusChangedEvent struct {
	OrderID       uuid.UUID         `json:"orderId"`
	OrderNumber   string            `json:"orderNumber"`
	StoreID       uuid.UUID         `json:"storeId"`
	From          enums.OrderStatus `json:"from"`
	To            enums.OrderStatus `json:"to"`
	StockRestored bool              `json:"stockRestored"`
}

// StoreDeletedEvent reports a store removal and what went with it.
type StoreDeletedEvent struct {
	StoreID         uuid.UUID `json:"storeId"`
	OwnerID         uuid.UUID `json:"ownerId"`
	ProductsDeleted int64     `json:"productsDeleted"`
	CartsDeleted    int64     `json:"cartsDeleted"`
	DeletedAt       time.Time `json:"deletedAt"`
}
