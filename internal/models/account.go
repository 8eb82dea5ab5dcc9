package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account represents a linked or manually created bank account
type Account struct {
	ID               int64            `json:"id"`
	UserID           int64            `json:"user_id"`
	PlaidAccountID   string           `json:"plaid_account_id"`
	Name             string           `json:"name"`
	OfficialName     *string          `json:"official_name,omitempty"`
	Type             string           `json:"type"`
	Subtype          *string          `json:"subtype,omitempty"`
	Mask             *string          `json:"mask,omitempty"`
	CurrentBalance   decimal.Decimal  `json:"current_balance"`
	AvailableBalance *decimal.Decimal `json:"available_balance,omitempty"`
	ISOCurrencyCode  string           `json:"iso_currency_code"`
	LastSynced       time.Time        `json:"last_synced"`
}
