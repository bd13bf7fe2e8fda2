package types

import (
	"database/sql/driver"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartLine is a product snapshot taken when it was added to a cart.
type CartLine struct {
	ProductID   uuid.UUID       `json:"productId"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image"`
	Quantity    int             `json:"quantity"`
	Note        *string         `json:"note,omitempty"`
}

// CartLines is persisted as a JSON array.
type CartLines []CartLine

func (c CartLines) Value() (driver.Value, error) {
	if c == nil {
		return "[]", nil
	}
	return jsonValue(c)
}

func (c *CartLines) Scan(value interface{}) error {
	if value == nil {
		*c = nil
		return nil
	}
	var decoded CartLines
	if err := scanJSON(value, &decoded); err != nil {
		return err
	}
	*c = decoded
	return nil
}
