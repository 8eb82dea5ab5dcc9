package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/billpayhq/billpay-service/internal/models"
)

const accountColumns = `id, user_id, plaid_account_id, name, official_name, type, subtype,
	mask, current_balance, available_balance, iso_currency_code, last_synced`

func scanAccount(scan func(dest ...any) error) (*models.Account, error) {
	account := &models.Account{}
	var available decimal.NullDecimal
	err := scan(&account.ID, &account.UserID, &account.PlaidAccountID, &account.Name,
		&account.OfficialName, &account.Type, &account.Subtype, &account.Mask,
		&account.CurrentBalance, &available, &account.ISOCurrencyCode, &account.LastSynced)
	if err != nil {
		return nil, err
	}
	if available.Valid {
		account.AvailableBalance = &available.Decimal
	}
	return account, nil
}

// CreateAccount creates a new account in the database
func (r *Repository) CreateAccount(ctx context.Context, account *models.Account) error {
	query := `
		INSERT INTO billpay.accounts (user_id, plaid_account_id, name, official_name, type,
			subtype, mask, current_balance, available_balance, iso_currency_code, last_synced)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`
	var available decimal.NullDecimal
	if account.AvailableBalance != nil {
		available = decimal.NullDecimal{Decimal: *account.AvailableBalance, Valid: true}
	}
	err := r.q.QueryRowContext(ctx, query, account.UserID, account.PlaidAccountID,
		account.Name, account.OfficialName, account.Type, account.Subtype, account.Mask,
		account.CurrentBalance, available, account.ISOCurrencyCode, account.LastSynced).
		Scan(&account.ID)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// FindAccountByID retrieves an account scoped to its owner
func (r *Repository) FindAccountByID(ctx context.Context, userID, id int64) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM billpay.accounts WHERE id = $1 AND user_id = $2`
	account, err := scanAccount(r.q.QueryRowContext(ctx, query, id, userID).Scan)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find account: %w", err)
	}
	return account, nil
}

// FindAccountByPlaidID retrieves an account by its upstream identifier
func (r *Repository) FindAccountByPlaidID(ctx context.Context, userID int64, plaidAccountID string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM billpay.accounts WHERE user_id = $1 AND plaid_account_id = $2`
	account, err := scanAccount(r.q.QueryRowContext(ctx, query, userID, plaidAccountID).Scan)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find account: %w", err)
	}
	return account, nil
}

// ListAccountsByUser returns all accounts for a user
func (r *Repository) ListAccountsByUser(ctx context.Context, userID int64) ([]models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM billpay.accounts WHERE user_id = $1 ORDER BY name`
	rows, err := r.q.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		account, err := scanAccount(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, *account)
	}
	return accounts, rows.Err()
}

// UpdateAccountBalances refreshes the synced balance fields
func (r *Repository) UpdateAccountBalances(ctx context.Context, id int64, current decimal.Decimal, available *decimal.Decimal, currency string, syncedAt time.Time) error {
	query := `
		UPDATE billpay.accounts
		SET current_balance = $2, available_balance = $3, iso_currency_code = $4, last_synced = $5
		WHERE id = $1`
	var availableVal decimal.NullDecimal
	if available != nil {
		availableVal = decimal.NullDecimal{Decimal: *available, Valid: true}
	}
	if _, err := r.q.ExecContext(ctx, query, id, current, availableVal, currency, syncedAt); err != nil {
		return fmt.Errorf("failed to update account balances: %w", err)
	}
	return nil
}

// SumAccountBalances totals current balances for the dashboard net worth figure
func (r *Repository) SumAccountBalances(ctx context.Context, userID int64) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(current_balance), 0) FROM billpay.accounts WHERE user_id = $1`
	var total decimal.Decimal
	if err := r.q.QueryRowContext(ctx, query, userID).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum balances: %w", err)
	}
	return total, nil
}

// DeleteAccountsByUser removes all accounts for a user (unlink with reset)
func (r *Repository) DeleteAccountsByUser(ctx context.Context, userID int64) error {
	if _, err := r.q.ExecContext(ctx, `DELETE FROM billpay.accounts WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to delete accounts: %w", err)
	}
	return nil
}
