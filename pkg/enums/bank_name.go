package enums

import "slices"

// BankName lists the banks accepted for bank_account payment methods.
type BankName string

const (
	BankKBank    BankName = "KBank"
	BankSCB      BankName = "SCB"
	BankBBL      BankName = "BBL"
	BankKrungsri BankName = "Krungsri"
	BankKTB      BankName = "KTB"
	BankTTB      BankName = "TTB"
	BankBAAC     BankName = "BAAC"
	BankGSB      BankName = "GSB"
	BankCIMB     BankName = "CIMB"
	BankUOB      BankName = "UOB"
)

var validBankNames = []BankName{
	BankKBank,
	BankSCB,
	BankBBL,
	BankKrungsri,
	BankKTB,
	BankTTB,
	BankBAAC,
	BankGSB,
	BankCIMB,
	BankUOB,
}

// String implements fmt.Stringer.
func (b BankName) String() string {
	return string(b)
}

// IsValid reports whether the value is a recognized bank.
func (b BankName) IsValid() bool {
	return slices.Contains(validBankNames, b)
}

// ParseBankName converts raw input into a BankName.
func ParseBankName(value string) (BankName, error) {
	return parse(validBankNames, value, "bank name")
}
