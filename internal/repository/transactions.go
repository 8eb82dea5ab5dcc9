package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/billpayhq/billpay-service/internal/models"
)

const transactionColumns = `id, user_id, account_id, plaid_transaction_id, name, amount, date,
	pending, category, category_id, payment_channel, merchant_name, location, notes,
	is_recurring, created_at, updated_at`

func scanTransaction(scan func(dest ...any) error) (*models.Transaction, error) {
	txn := &models.Transaction{}
	err := scan(&txn.ID, &txn.UserID, &txn.AccountID, &txn.PlaidTransactionID, &txn.Name,
		&txn.Amount, &txn.Date, &txn.Pending, &txn.Category, &txn.CategoryID,
		&txn.PaymentChannel, &txn.MerchantName, &txn.Location, &txn.Notes,
		&txn.IsRecurring, &txn.CreatedAt, &txn.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return txn, nil
}

func (r *Repository) queryTransactions(ctx context.Context, query string, args ...any) ([]models.Transaction, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txns []models.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, *txn)
	}
	return txns, rows.Err()
}

// CreateTransaction creates a new transaction in the database
func (r *Repository) CreateTransaction(ctx context.Context, txn *models.Transaction) error {
	query := `
		INSERT INTO billpay.transactions (user_id, account_id, plaid_transaction_id, name,
			amount, date, pending, category, category_id, payment_channel, merchant_name,
			location, notes, is_recurring, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, created_at, updated_at`
	err := r.q.QueryRowContext(ctx, query, txn.UserID, txn.AccountID, txn.PlaidTransactionID,
		txn.Name, txn.Amount, txn.Date, txn.Pending, txn.Category, txn.CategoryID,
		txn.PaymentChannel, txn.MerchantName, txn.Location, txn.Notes, txn.IsRecurring).
		Scan(&txn.ID, &txn.CreatedAt, &txn.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// FindTransactionByPlaidID retrieves a transaction by its upstream identifier
func (r *Repository) FindTransactionByPlaidID(ctx context.Context, plaidTransactionID string) (*models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM billpay.transactions WHERE plaid_transaction_id = $1`
	txn, err := scanTransaction(r.q.QueryRowContext(ctx, query, plaidTransactionID).Scan)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find transaction: %w", err)
	}
	return txn, nil
}

// FindTransactionByID retrieves a transaction scoped to its owner
func (r *Repository) FindTransactionByID(ctx context.Context, userID, id int64) (*models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM billpay.transactions WHERE id = $1 AND user_id = $2`
	txn, err := scanTransaction(r.q.QueryRowContext(ctx, query, id, userID).Scan)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find transaction: %w", err)
	}
	return txn, nil
}

// UpdateTransactionDetails refreshes the fields a sync may change
func (r *Repository) UpdateTransactionDetails(ctx context.Context, txn *models.Transaction) error {
	query := `
		UPDATE billpay.transactions
		SET name = $2, amount = $3, date = $4, pending = $5, category = $6, category_id = $7,
			payment_channel = $8, merchant_name = $9, location = $10, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1`
	if _, err := r.q.ExecContext(ctx, query, txn.ID, txn.Name, txn.Amount, txn.Date,
		txn.Pending, txn.Category, txn.CategoryID, txn.PaymentChannel, txn.MerchantName,
		txn.Location); err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	return nil
}

// UpdateTransactionNotes replaces the user note on a transaction
func (r *Repository) UpdateTransactionNotes(ctx context.Context, userID, id int64, notes string) error {
	query := `
		UPDATE billpay.transactions SET notes = $3, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND user_id = $2`
	res, err := r.q.ExecContext(ctx, query, id, userID, notes)
	if err != nil {
		return fmt.Errorf("failed to update transaction notes: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListTransactionsByUser returns every transaction a user has, no date bound.
// The recurring-bill detector scans the full history.
func (r *Repository) ListTransactionsByUser(ctx context.Context, userID int64) ([]models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM billpay.transactions WHERE user_id = $1 ORDER BY date`
	return r.queryTransactions(ctx, query, userID)
}

// ListRecentNegativeTransactions returns the most recent negatively signed
// transactions, the income detector's candidate window.
func (r *Repository) ListRecentNegativeTransactions(ctx context.Context, userID int64, limit int) ([]models.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + ` FROM billpay.transactions
		WHERE user_id = $1 AND amount < 0
		ORDER BY date DESC
		LIMIT $2`
	return r.queryTransactions(ctx, query, userID, limit)
}

// ListTransactions returns transactions matching the filter, newest first
func (r *Repository) ListTransactions(ctx context.Context, filter TransactionFilter) ([]models.Transaction, error) {
	var (
		conditions = []string{"user_id = $1"}
		args       = []any{filter.UserID}
	)
	if !filter.Start.IsZero() {
		args = append(args, filter.Start)
		conditions = append(conditions, "date >= $"+strconv.Itoa(len(args)))
	}
	if !filter.End.IsZero() {
		args = append(args, filter.End)
		conditions = append(conditions, "date <= $"+strconv.Itoa(len(args)))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		conditions = append(conditions, "category = $"+strconv.Itoa(len(args)))
	}
	if filter.AccountID != 0 {
		args = append(args, filter.AccountID)
		conditions = append(conditions, "account_id = $"+strconv.Itoa(len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		conditions = append(conditions, "name ILIKE $"+strconv.Itoa(len(args)))
	}

	query := `SELECT ` + transactionColumns + ` FROM billpay.transactions WHERE ` +
		strings.Join(conditions, " AND ") + ` ORDER BY date DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += " LIMIT $" + strconv.Itoa(len(args))
	}
	return r.queryTransactions(ctx, query, args...)
}

// MarkTransactionRecurring sets the monotonic is_recurring flag
func (r *Repository) MarkTransactionRecurring(ctx context.Context, id int64) error {
	query := `
		UPDATE billpay.transactions SET is_recurring = TRUE, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1`
	if _, err := r.q.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to mark transaction recurring: %w", err)
	}
	return nil
}

// DeleteTransactionsByUser removes all transactions for a user (unlink with reset)
func (r *Repository) DeleteTransactionsByUser(ctx context.Context, userID int64) error {
	if _, err := r.q.ExecContext(ctx, `DELETE FROM billpay.transactions WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to delete transactions: %w", err)
	}
	return nil
}
