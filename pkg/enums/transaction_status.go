package enums

import "slices"

// TransactionStatus records the outcome of a ledger entry. Only success is
// ever written today; the column exists for future settlement states.
type TransactionStatus string

const (
	TransactionStatusSuccess TransactionStatus = "success"
)

var validTransactionStatuses = []TransactionStatus{
	TransactionStatusSuccess,
}

// String implements fmt.Stringer.
func (s TransactionStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known TransactionStatus.
func (s TransactionStatus) IsValid() bool {
	return slices.Contains(validTransactionStatuses, s)
}

// ParseTransactionStatus converts raw input into a TransactionStatus.
func ParseTransactionStatus(value string) (TransactionStatus, error) {
	return parse(validTransactionStatuses, value, "transaction status")
}
