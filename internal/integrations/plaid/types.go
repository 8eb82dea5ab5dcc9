package plaid

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// API is the aggregation client contract the services depend on. An explicit
// instance is passed into every consumer so tests can substitute a fake.
type API interface {
	CreateLinkToken(ctx context.Context, userID int64, products []string) (string, error)
	ExchangePublicToken(ctx context.Context, publicToken string) (ExchangeResult, error)
	GetAccounts(ctx context.Context, accessToken string) ([]AccountData, error)
	GetTransactions(ctx context.Context, accessToken string, start, end time.Time) ([]TransactionData, error)
	GetLiabilities(ctx context.Context, accessToken string) (LiabilitySnapshot, error)
}

// ExchangeResult carries the credentials returned by a public-token exchange.
type ExchangeResult struct {
	AccessToken string
	ItemID      string
}

// AccountData is the normalized shape of one upstream account.
type AccountData struct {
	AccountID        string
	Name             string
	OfficialName     *string
	Type             string
	Subtype          *string
	Mask             *string
	CurrentBalance   *decimal.Decimal
	AvailableBalance *decimal.Decimal
	ISOCurrencyCode  string
}

// TransactionData is the normalized shape of one upstream transaction.
// Location is pre-joined into a single display string.
type TransactionData struct {
	TransactionID  string
	AccountID      string
	Name           string
	Amount         decimal.Decimal
	Date           time.Time
	Pending        bool
	Category       *string
	CategoryID     *string
	PaymentChannel *string
	MerchantName   *string
	Location       *string
}

// CreditLiability is a credit-card liability record.
type CreditLiability struct {
	AccountID            string
	MinimumPaymentAmount *decimal.Decimal
	LastStatementBalance *decimal.Decimal
	NextPaymentDueDate   *time.Time
}

// StudentLiability is a student-loan liability record.
type StudentLiability struct {
	AccountID            string
	LoanName             *string
	MinimumPaymentAmount *decimal.Decimal
	NextPaymentDueDate   *time.Time
}

// MortgageLiability is a mortgage liability record.
type MortgageLiability struct {
	AccountID          string
	NextMonthlyPayment *decimal.Decimal
	NextPaymentDueDate *time.Time
}

// LiabilitySnapshot is the normalized liabilities response: the three
// liability sub-lists plus display names for the accounts they reference.
type LiabilitySnapshot struct {
	AccountNames map[string]string
	Credit       []CreditLiability
	Student      []StudentLiability
	Mortgage     []MortgageLiability
}
