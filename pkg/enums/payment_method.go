package enums

import "fmt"

// PaymentMethod is how the customer intends to pay.
type PaymentMethod string

const (
	PaymentMethodEfectivo      PaymentMethod = "efectivo"
	PaymentMethodTransferencia PaymentMethod = "transferencia"
	PaymentMethodTarjeta       PaymentMethod = "tarjeta"
)

var validPaymentMethods = []PaymentMethod{
	PaymentMethodEfectivo,
	PaymentMethodTransferencia,
	PaymentMethodTarjeta,
}

// String implements fmt.Stringer.
func (m PaymentMethod) String() string {
	return string(m)
}

// IsValid reports whether the value is a known PaymentMethod.
func (m PaymentMethod) IsValid() bool {
	for _, candidate := range validPaymentMethods {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParsePaymentMethod converts raw input into a PaymentMethod.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	for _, candidate := range validPaymentMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment method %q", value)
}
