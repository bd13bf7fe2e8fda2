package cart

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/mercadito-backend/pkg/db/models"
)

// Recompute derives TotalItems and Subtotal from the cart's lines. Every
// mutation calls it before saving; stored totals are never trusted.
func Recompute(cart *models.Cart) {
	total := 0
	subtotal := decimal.Zero
	for _, line := range cart.Items {
		total += line.Quantity
		subtotal = subtotal.Add(line.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	cart.TotalItems = total
	cart.Subtotal = subtotal.Round(2)
}
