package orders

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/mercadito-backend/pkg/config"
)

func TestFlatRateShippingQuote(t *testing.T) {
	quoter, err := NewFlatRateShipping(config.OrdersConfig{ShippingFee: "49.90", FreeShippingOver: "500"})
	if err != nil {
		t.Fatalf("new quoter: %v", err)
	}
	cases := []struct {
		subtotal string
		want     string
	}{
		{"100", "49.90"},
		{"499.99", "49.90"},
		{"500", "0"},
		{"900", "0"},
	}
	for _, tc := range cases {
		got := quoter.Quote(nil, decimal.RequireFromString(tc.subtotal), nil)
		if !got.Equal(decimal.RequireFromString(tc.want)) {
			t.Fatalf("subtotal %s: expected %s got %s", tc.subtotal, tc.want, got)
		}
	}
}

func TestFlatRateShippingWithoutThreshold(t *testing.T) {
	quoter, err := NewFlatRateShipping(config.OrdersConfig{ShippingFee: "30"})
	if err != nil {
		t.Fatalf("new quoter: %v", err)
	}
	if got := quoter.Quote(nil, decimal.NewFromInt(10000), nil); !got.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("expected fee without free threshold, got %s", got)
	}
}

func TestNewFlatRateShippingRejectsBadConfig(t *testing.T) {
	if _, err := NewFlatRateShipping(config.OrdersConfig{ShippingFee: "abc"}); err == nil {
		t.Fatal("expected parse error")
	}
	if _, err := NewFlatRateShipping(config.OrdersConfig{ShippingFee: "-1"}); err == nil {
		t.Fatal("expected negative error")
	}
}
