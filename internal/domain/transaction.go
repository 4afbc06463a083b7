// internal/domain/transaction.go
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal" // For precise monetary calculations
)

// TransactionType determines the sign of a transaction's balance contribution.
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeExpense TransactionType = "expense"
)

// PaymentMethod is how the money moved. Metadata only.
type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "cash"
	PaymentMethodCard   PaymentMethod = "card"
	PaymentMethodUPI    PaymentMethod = "upi"
	PaymentMethodOnline PaymentMethod = "online"
)

// Mood is the user's self-reported mood at spend time. Metadata only, no
// invariant attached.
type Mood string

const (
	MoodHappy    Mood = "happy"
	MoodStressed Mood = "stressed"
	MoodBored    Mood = "bored"
	MoodSad      Mood = "sad"
	MoodCalm     Mood = "calm"
	MoodNeutral  Mood = "neutral"
)

// RecurringInterval is the cadence of a recurring template.
type RecurringInterval string

const (
	IntervalDaily   RecurringInterval = "daily"
	IntervalWeekly  RecurringInterval = "weekly"
	IntervalMonthly RecurringInterval = "monthly"
)

// Transaction represents one financial event owned by exactly one user.
// When IsRecurring is true the row doubles as a recurring template and
// RecurringInterval/NextExecutionDate are meaningful.
type Transaction struct {
	ID                uuid.UUID          `db:"id" json:"id"`
	UserID            uuid.UUID          `db:"user_id" json:"userId"`
	Type              TransactionType    `db:"type" json:"type"`
	Amount            decimal.Decimal    `db:"amount" json:"amount"` // NUMERIC(20, 4) in DB, always > 0
	Category          string             `db:"category" json:"category"`
	Description       string             `db:"description" json:"description"`
	PaymentMethod     PaymentMethod      `db:"payment_method" json:"paymentMethod"`
	Mood              Mood               `db:"mood" json:"mood"`
	Date              time.Time          `db:"date" json:"date"` // effective date, independent of CreatedAt
	IsRecurring       bool               `db:"is_recurring" json:"isRecurring"`
	RecurringInterval *RecurringInterval `db:"recurring_interval" json:"recurringInterval"`
	NextExecutionDate *time.Time         `db:"next_execution_date" json:"nextExecutionDate,omitempty"`
	CreatedAt         time.Time          `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time          `db:"updated_at" json:"updatedAt"`
}

// SignedAmount returns the transaction's contribution to the wallet balance:
// +Amount for income, -Amount for expense.
func (t *Transaction) SignedAmount() decimal.Decimal {
	if t.Type == TransactionTypeIncome {
		return t.Amount
	}
	return t.Amount.Neg()
}

// ValidType reports whether v is a known transaction type.
func ValidType(v TransactionType) bool {
	return v == TransactionTypeIncome || v == TransactionTypeExpense
}

// ValidPaymentMethod reports whether v is a known payment method.
func ValidPaymentMethod(v PaymentMethod) bool {
	switch v {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodUPI, PaymentMethodOnline:
		return true
	}
	return false
}

// ValidMood reports whether v is a known mood.
func ValidMood(v Mood) bool {
	switch v {
	case MoodHappy, MoodStressed, MoodBored, MoodSad, MoodCalm, MoodNeutral:
		return true
	}
	return false
}

// ValidInterval reports whether v is a known recurring interval.
func ValidInterval(v RecurringInterval) bool {
	return v == IntervalDaily || v == IntervalWeekly || v == IntervalMonthly
}

// NormalizeCategory lowercases and trims a raw category label.
func NormalizeCategory(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// NewTransaction creates a Transaction with normalized fields and defaults
// applied (cash payment method, neutral mood, date defaulting to now).
func NewTransaction(
	userID uuid.UUID,
	txType TransactionType,
	amount decimal.Decimal,
	category string,
	description string,
	paymentMethod PaymentMethod,
	mood Mood,
	date time.Time,
) *Transaction {
	now := time.Now().UTC()
	if date.IsZero() {
		date = now
	}
	if paymentMethod == "" {
		paymentMethod = PaymentMethodCash
	}
	if mood == "" {
		mood = MoodNeutral
	}
	return &Transaction{
		ID:            uuid.New(),
		UserID:        userID,
		Type:          txType,
		Amount:        amount,
		Category:      NormalizeCategory(category),
		Description:   strings.TrimSpace(description),
		PaymentMethod: paymentMethod,
		Mood:          mood,
		Date:          date,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// MaterializedCopy returns a plain non-recurring transaction carrying the
// template's financial fields, dated at the given instant. Used by the
// recurrence engine when a template comes due.
func (t *Transaction) MaterializedCopy(at time.Time) *Transaction {
	copy := NewTransaction(t.UserID, t.Type, t.Amount, t.Category, t.Description, t.PaymentMethod, t.Mood, at)
	return copy
}
