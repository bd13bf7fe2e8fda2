package orders

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/mercadito-backend/pkg/config"
	"github.com/angelmondragon/mercadito-backend/pkg/db/models"
)

// ShippingQuoter prices delivery for an order.
type ShippingQuoter interface {
	Quote(store *models.Store, subtotal decimal.Decimal, items []models.OrderItem) decimal.Decimal
}

// FlatRateShipping charges Fee per order, waived when the subtotal reaches
// FreeOver. A zero FreeOver never waives.
type FlatRateShipping struct {
	Fee      decimal.Decimal
	FreeOver decimal.Decimal
}

// NewFlatRateShipping reads the fee and threshold from config.
func NewFlatRateShipping(cfg config.OrdersConfig) (FlatRateShipping, error) {
	fee, err := parseAmount(cfg.ShippingFee)
	if err != nil {
		return FlatRateShipping{}, fmt.Errorf("shipping fee: %w", err)
	}
	freeOver, err := parseAmount(cfg.FreeShippingOver)
	if err != nil {
		return FlatRateShipping{}, fmt.Errorf("free shipping threshold: %w", err)
	}
	return FlatRateShipping{Fee: fee, FreeOver: freeOver}, nil
}

func (f FlatRateShipping) Quote(store *models.Store, subtotal decimal.Decimal, items []models.OrderItem) decimal.Decimal {
	if f.Fee.IsZero() {
		return decimal.Zero
	}
	if f.FreeOver.IsPositive() && subtotal.GreaterThanOrEqual(f.FreeOver) {
		return decimal.Zero
	}
	return f.Fee.Round(2)
}

func parseAmount(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, nil
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, err
	}
	if amount.IsNegative() {
		return decimal.Zero, fmt.Errorf("must not be negative")
	}
	return amount, nil
}
