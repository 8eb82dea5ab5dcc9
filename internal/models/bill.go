package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bill statuses
const (
	BillStatusUnpaid  = "unpaid"
	BillStatusPaid    = "paid"
	BillStatusPending = "pending"
)

// Bill represents a recurring or one-off obligation. PlaidBillID is set only
// for bills derived from liability sync or recurring detection and acts as
// the idempotency key for re-runs; derived bills refuse direct deletion.
type Bill struct {
	ID          int64           `json:"id"`
	UserID      int64           `json:"user_id"`
	PlaidBillID *string         `json:"plaid_bill_id,omitempty"`
	Name        string          `json:"name"`
	Amount      decimal.Decimal `json:"amount"`
	DueDate     time.Time       `json:"due_date"`
	Frequency   string          `json:"frequency"`
	Category    *string         `json:"category,omitempty"`
	Status      string          `json:"status"`
	Autopay     bool            `json:"autopay"`
	Notes       *string         `json:"notes,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Derived reports whether the bill originates from detection or liability
// sync rather than manual entry.
func (b *Bill) Derived() bool {
	return b.PlaidBillID != nil && *b.PlaidBillID != ""
}
