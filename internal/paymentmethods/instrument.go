package paymentmethods

import (
	"regexp"

	"github.com/angelmondragon/campground-backend/pkg/db/models"
	"github.com/angelmondragon/campground-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/campground-backend/pkg/errors"
	"github.com/angelmondragon/campground-backend/pkg/security"
)

var (
	cardNumberPattern  = regexp.MustCompile(`^\d{13,19}$`)
	bankAccountPattern = regexp.MustCompile(`^\d{10,12}$`)
)

// Instrument is the payment instrument stored on a record. It is either a
// CreditCard or a BankAccount.
type Instrument interface {
	Kind() enums.PaymentMethodKind
	Fingerprint() string
	validate(requireLuhn bool) error
	apply(pm *models.PaymentMethod)
}

// CreditCard carries a card number.
type CreditCard struct {
	Number string
}

// BankAccount carries a Thai bank account.
type BankAccount struct {
	Number string
	Bank   enums.BankName
}

func (CreditCard) Kind() enums.PaymentMethodKind  { return enums.PaymentMethodCreditCard }
func (BankAccount) Kind() enums.PaymentMethodKind { return enums.PaymentMethodBankAccount }

func (c CreditCard) Fingerprint() string  { return security.Fingerprint(c.Number) }
func (b BankAccount) Fingerprint() string { return security.Fingerprint(b.Number) }

func (c CreditCard) validate(requireLuhn bool) error {
	if c.Number == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "Please add a card number").
			WithDetails(map[string]string{"cardNumber": "is required"})
	}
	if !cardNumberPattern.MatchString(c.Number) {
		return pkgerrors.New(pkgerrors.CodeValidation, "Card number must be 13 to 19 digits").
			WithDetails(map[string]string{"cardNumber": "is invalid"})
	}
	if requireLuhn && !security.ValidLuhn(c.Number) {
		return pkgerrors.New(pkgerrors.CodeValidation, "Card number failed checksum").
			WithDetails(map[string]string{"cardNumber": "is invalid"})
	}
	return nil
}

func (b BankAccount) validate(bool) error {
	details := map[string]string{}
	if b.Number == "" {
		details["bankAccountNumber"] = "is required"
	} else if !bankAccountPattern.MatchString(b.Number) {
		details["bankAccountNumber"] = "is invalid"
	}
	if b.Bank == "" {
		details["bankName"] = "is required"
	} else if !b.Bank.IsValid() {
		details["bankName"] = "is invalid"
	}
	if len(details) == 0 {
		return nil
	}
	msg := "Please provide a valid Thai bank account number (10-12 digits)"
	if _, ok := details["bankAccountNumber"]; !ok {
		msg = "Please select a supported bank"
	}
	return pkgerrors.New(pkgerrors.CodeValidation, msg).WithDetails(details)
}

// apply writes the card onto the record and clears every bank field.
func (c CreditCard) apply(pm *models.PaymentMethod) {
	masked := security.MaskNumber(c.Number)
	fingerprint := c.Fingerprint()
	pm.Method = enums.PaymentMethodCreditCard
	pm.CardNumber = &masked
	pm.CardFingerprint = &fingerprint
	pm.BankAccountNumber = nil
	pm.BankName = nil
	pm.BankAccountFingerprint = nil
}

// apply writes the account onto the record and clears every card field.
func (b BankAccount) apply(pm *models.PaymentMethod) {
	masked := security.MaskNumber(b.Number)
	fingerprint := b.Fingerprint()
	bank := b.Bank
	pm.Method = enums.PaymentMethodBankAccount
	pm.BankAccountNumber = &masked
	pm.BankName = &bank
	pm.BankAccountFingerprint = &fingerprint
	pm.CardNumber = nil
	pm.CardFingerprint = nil
}

// instrumentNumber returns the raw number of the instrument.
func instrumentNumber(in Instrument) string {
	switch v := in.(type) {
	case CreditCard:
		return v.Number
	case BankAccount:
		return v.Number
	}
	return ""
}
