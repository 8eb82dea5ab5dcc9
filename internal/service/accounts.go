package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/billpayhq/billpay-service/internal/models"
	"github.com/billpayhq/billpay-service/internal/repository"
)

const accountDetailTransactions = 10

// ManualAccountInput carries the fields for a manually entered account.
type ManualAccountInput struct {
	Name           string          `json:"name" validate:"required"`
	Type           string          `json:"type" validate:"required,oneof=depository credit loan investment other"`
	Subtype        *string         `json:"subtype,omitempty"`
	CurrentBalance decimal.Decimal `json:"current_balance"`
	CurrencyCode   string          `json:"iso_currency_code,omitempty"`
}

// CreateManualAccount records an account the user tracks by hand. Manual
// accounts carry a synthetic upstream id so sync runs never touch them.
func (s *Service) CreateManualAccount(ctx context.Context, userID int64, input ManualAccountInput) (*models.Account, error) {
	currency := input.CurrencyCode
	if currency == "" {
		currency = "USD"
	}
	account := &models.Account{
		UserID:          userID,
		PlaidAccountID:  ManualUpstreamID(),
		Name:            input.Name,
		Type:            input.Type,
		Subtype:         input.Subtype,
		CurrentBalance:  input.CurrentBalance,
		ISOCurrencyCode: currency,
		LastSynced:      s.now(),
	}
	if err := s.store.CreateAccount(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// AccountGroup is a set of accounts sharing a type, as the overview page
// renders them.
type AccountGroup struct {
	Type     string           `json:"type"`
	Accounts []models.Account `json:"accounts"`
}

// ListAccounts returns the user's accounts grouped by type, groups ordered by
// first appearance.
func (s *Service) ListAccounts(ctx context.Context, userID int64) ([]AccountGroup, error) {
	accounts, err := s.store.ListAccountsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	groups := make([]AccountGroup, 0, 4)
	index := make(map[string]int)
	for _, acct := range accounts {
		i, ok := index[acct.Type]
		if !ok {
			i = len(groups)
			index[acct.Type] = i
			groups = append(groups, AccountGroup{Type: acct.Type})
		}
		groups[i].Accounts = append(groups[i].Accounts, acct)
	}
	return groups, nil
}

// AccountDetail pairs an account with its most recent transactions.
type AccountDetail struct {
	Account            *models.Account      `json:"account"`
	RecentTransactions []models.Transaction `json:"recent_transactions"`
}

// Account returns one account owned by the user along with its latest
// transactions.
func (s *Service) Account(ctx context.Context, userID, accountID int64) (*AccountDetail, error) {
	account, err := s.store.FindAccountByID(ctx, userID, accountID)
	if err != nil {
		return nil, err
	}
	recent, err := s.store.ListTransactions(ctx, repository.TransactionFilter{
		UserID:    userID,
		AccountID: account.ID,
		Limit:     accountDetailTransactions,
	})
	if err != nil {
		return nil, err
	}
	return &AccountDetail{Account: account, RecentTransactions: recent}, nil
}

// UpdateAccountBalance sets the current balance of a manual account.
func (s *Service) UpdateAccountBalance(ctx context.Context, userID, accountID int64, balance decimal.Decimal) (*models.Account, error) {
	account, err := s.store.FindAccountByID(ctx, userID, accountID)
	if err != nil {
		return nil, err
	}
	syncedAt := s.now()
	if err := s.store.UpdateAccountBalances(ctx, account.ID, balance,
		account.AvailableBalance, account.ISOCurrencyCode, syncedAt); err != nil {
		return nil, err
	}
	account.CurrentBalance = balance
	account.LastSynced = syncedAt
	return account, nil
}

// NetWorth sums current balances across the user's accounts.
func (s *Service) NetWorth(ctx context.Context, userID int64) (decimal.Decimal, error) {
	return s.store.SumAccountBalances(ctx, userID)
}
