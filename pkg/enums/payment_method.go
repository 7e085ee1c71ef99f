package enums

import "slices"

// PaymentMethodKind discriminates the stored payment instrument.
type PaymentMethodKind string

const (
	PaymentMethodCreditCard  PaymentMethodKind = "credit_card"
	PaymentMethodBankAccount PaymentMethodKind = "bank_account"
)

var validPaymentMethodKinds = []PaymentMethodKind{
	PaymentMethodCreditCard,
	PaymentMethodBankAccount,
}

// String implements fmt.Stringer.
func (p PaymentMethodKind) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentMethodKind.
func (p PaymentMethodKind) IsValid() bool {
	return slices.Contains(validPaymentMethodKinds, p)
}

// ParsePaymentMethodKind converts raw input into a PaymentMethodKind.
func ParsePaymentMethodKind(value string) (PaymentMethodKind, error) {
	return parse(validPaymentMethodKinds, value, "payment method")
}
