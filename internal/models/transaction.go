package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction represents a financial transaction. Amounts are signed with
// outgoing money negative (see config.Config.DepositMinAmount).
type Transaction struct {
	ID                 int64           `json:"id"`
	UserID             int64           `json:"user_id"`
	AccountID          int64           `json:"account_id"`
	PlaidTransactionID string          `json:"plaid_transaction_id"`
	Name               string          `json:"name"`
	Amount             decimal.Decimal `json:"amount"`
	Date               time.Time       `json:"date"`
	Pending            bool            `json:"pending"`
	Category           *string         `json:"category,omitempty"`
	CategoryID         *string         `json:"category_id,omitempty"`
	PaymentChannel     *string         `json:"payment_channel,omitempty"`
	MerchantName       *string         `json:"merchant_name,omitempty"`
	Location           *string         `json:"location,omitempty"`
	Notes              *string         `json:"notes,omitempty"`
	IsRecurring        bool            `json:"is_recurring"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}
