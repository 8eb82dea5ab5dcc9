package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Income frequencies
const (
	FrequencyWeekly      = "weekly"
	FrequencyBiWeekly    = "bi-weekly"
	FrequencySemiMonthly = "semi-monthly"
	FrequencyMonthly     = "monthly"
)

// Income represents one recorded pay event or income source. PlaidIncomeID
// marks incomes derived by the income detector; derived incomes refuse
// direct deletion.
type Income struct {
	ID            int64            `json:"id"`
	UserID        int64            `json:"user_id"`
	PlaidIncomeID *string          `json:"plaid_income_id,omitempty"`
	Source        string           `json:"source"`
	GrossAmount   decimal.Decimal  `json:"gross_amount"`
	NetAmount     *decimal.Decimal `json:"net_amount,omitempty"`
	Frequency     string           `json:"frequency"`
	Date          time.Time        `json:"date"`
	Notes         *string          `json:"notes,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// Derived reports whether the income was produced by the income detector.
func (i *Income) Derived() bool {
	return i.PlaidIncomeID != nil && *i.PlaidIncomeID != ""
}

// TakeHome returns the net amount, falling back to gross when net is absent.
func (i *Income) TakeHome() decimal.Decimal {
	if i.NetAmount != nil {
		return *i.NetAmount
	}
	return i.GrossAmount
}
