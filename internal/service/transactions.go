package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/billpayhq/billpay-service/internal/models"
	"github.com/billpayhq/billpay-service/internal/repository"
)

// TransactionQuery is the handler-facing filter for transaction listings.
type TransactionQuery struct {
	Start     time.Time
	End       time.Time
	Category  string
	AccountID int64
	Search    string
	Limit     int
}

const defaultTransactionLimit = 100

// ListTransactions returns the user's transactions matching the query,
// newest first.
func (s *Service) ListTransactions(ctx context.Context, userID int64, query TransactionQuery) ([]models.Transaction, error) {
	limit := query.Limit
	if limit <= 0 {
		limit = defaultTransactionLimit
	}
	return s.store.ListTransactions(ctx, repository.TransactionFilter{
		UserID:    userID,
		Start:     query.Start,
		End:       query.End,
		Category:  query.Category,
		AccountID: query.AccountID,
		Search:    query.Search,
		Limit:     limit,
	})
}

// Transaction returns one transaction owned by the user.
func (s *Service) Transaction(ctx context.Context, userID, transactionID int64) (*models.Transaction, error) {
	return s.store.FindTransactionByID(ctx, userID, transactionID)
}

// UpdateTransactionNotes sets the user note on a transaction.
func (s *Service) UpdateTransactionNotes(ctx context.Context, userID, transactionID int64, notes string) error {
	return s.store.UpdateTransactionNotes(ctx, userID, transactionID, notes)
}

// ManualTransactionInput carries the fields for a manually recorded
// transaction. Amount follows the ledger convention: outgoing money is
// negative.
type ManualTransactionInput struct {
	AccountID int64           `json:"account_id" validate:"required"`
	Name      string          `json:"name" validate:"required"`
	Amount    decimal.Decimal `json:"amount" validate:"required"`
	Date      time.Time       `json:"date" validate:"required"`
	Category  *string         `json:"category,omitempty"`
	Notes     *string         `json:"notes,omitempty"`
}

// CreateManualTransaction records a hand-entered transaction against one of
// the user's accounts.
func (s *Service) CreateManualTransaction(ctx context.Context, userID int64, input ManualTransactionInput) (*models.Transaction, error) {
	account, err := s.store.FindAccountByID(ctx, userID, input.AccountID)
	if err != nil {
		return nil, err
	}
	txn := &models.Transaction{
		UserID:             userID,
		AccountID:          account.ID,
		PlaidTransactionID: ManualUpstreamID(),
		Name:               input.Name,
		Amount:             input.Amount,
		Date:               input.Date,
		Category:           input.Category,
		Notes:              input.Notes,
	}
	if err := s.store.CreateTransaction(ctx, txn); err != nil {
		return nil, err
	}
	return txn, nil
}
