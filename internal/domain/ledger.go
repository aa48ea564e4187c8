package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntryKind represents the direction of a ledger entry
type EntryKind string

const (
	EntryKindIncome  EntryKind = "income"
	EntryKindExpense EntryKind = "expense"
)

// EntryOrder selects how a ledger listing is sorted
type EntryOrder string

const (
	EntryOrderDate      EntryOrder = "date"
	EntryOrderCreatedAt EntryOrder = "created_at"
)

// Valid reports whether the order is a known one
func (o EntryOrder) Valid() bool {
	return o == EntryOrderDate || o == EntryOrderCreatedAt
}

// Well-known labels shared by the repayment, correction and analytics usecases.
const (
	// PaymentMethodBankTransfer is recorded on every repayment audit entry.
	PaymentMethodBankTransfer = "bank_transfer"

	// DebtPaymentCategoryName is the category audit entries link to when it exists.
	DebtPaymentCategoryName = "Debt payment"

	// FacilityRepaymentPrefix starts the description of a facility repayment.
	// Analytics matches it case-insensitively.
	FacilityRepaymentPrefix = "Credit card payment"
)

// creditPaymentMethods are the payment method labels that mean "paid with a credit facility".
var creditPaymentMethods = []string{"credit_card", "Credit Card", "Cartão de crédito"}

// CreditPaymentMethods returns the labels recognised as credit facility spending.
func CreditPaymentMethods() []string {
	out := make([]string, len(creditPaymentMethods))
	copy(out, creditPaymentMethods)
	return out
}

// IsCreditPaymentMethod reports whether a payment method label denotes a credit facility.
func IsCreditPaymentMethod(method string) bool {
	for _, m := range creditPaymentMethods {
		if m == method {
			return true
		}
	}
	return false
}

// LedgerEntry represents a recorded transaction (income or expense).
// CategoryName is resolved by the repository on reads; it is empty when the
// entry has no category.
type LedgerEntry struct {
	ID            uuid.UUID
	OwnerID       uuid.UUID
	Description   string
	Amount        decimal.Decimal // ABSOLUTE VALUE (Always Positive)
	Kind          EntryKind
	PaymentMethod string
	CategoryID    *uuid.UUID
	CategoryName  string
	Date          time.Time
	CreatedAt     time.Time
	DeletedAt     *time.Time
}

// Validate ensures the ledger entry adheres to domain rules
func (e *LedgerEntry) Validate() error {
	if e.Amount.LessThanOrEqual(decimal.Zero) {
		return errors.New("entry amount must be positive")
	}
	if e.Kind != EntryKindIncome && e.Kind != EntryKindExpense {
		return errors.New("entry kind must be income or expense")
	}
	if e.PaymentMethod == "" {
		return errors.New("entry payment method cannot be empty")
	}
	if e.Date.IsZero() {
		return errors.New("entry must have a date")
	}
	return nil
}

// IsCardSpending reports whether the entry is an expense paid through a credit facility.
func (e *LedgerEntry) IsCardSpending() bool {
	return e.Kind == EntryKindExpense && IsCreditPaymentMethod(e.PaymentMethod)
}

// IsCardRepayment reports whether the entry is a facility repayment audit record.
func (e *LedgerEntry) IsCardRepayment() bool {
	return strings.HasPrefix(strings.ToLower(e.Description), strings.ToLower(FacilityRepaymentPrefix)) &&
		e.CategoryName == DebtPaymentCategoryName
}

// Category classifies ledger entries. Categories are shared across owners.
type Category struct {
	ID   uuid.UUID
	Name string
	Kind EntryKind
}
