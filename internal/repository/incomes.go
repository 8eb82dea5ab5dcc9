package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/billpayhq/billpay-service/internal/models"
)

const incomeColumns = `id, user_id, plaid_income_id, source, gross_amount, net_amount,
	frequency, date, notes, created_at, updated_at`

func scanIncome(scan func(dest ...any) error) (*models.Income, error) {
	income := &models.Income{}
	var net decimal.NullDecimal
	err := scan(&income.ID, &income.UserID, &income.PlaidIncomeID, &income.Source,
		&income.GrossAmount, &net, &income.Frequency, &income.Date, &income.Notes,
		&income.CreatedAt, &income.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if net.Valid {
		income.NetAmount = &net.Decimal
	}
	return income, nil
}

func (r *Repository) queryIncomes(ctx context.Context, query string, args ...any) ([]models.Income, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query incomes: %w", err)
	}
	defer rows.Close()

	var incomes []models.Income
	for rows.Next() {
		income, err := scanIncome(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan income: %w", err)
		}
		incomes = append(incomes, *income)
	}
	return incomes, rows.Err()
}

func nullNet(income *models.Income) decimal.NullDecimal {
	if income.NetAmount != nil {
		return decimal.NullDecimal{Decimal: *income.NetAmount, Valid: true}
	}
	return decimal.NullDecimal{}
}

// CreateIncome creates a new income record in the database
func (r *Repository) CreateIncome(ctx context.Context, income *models.Income) error {
	query := `
		INSERT INTO billpay.incomes (user_id, plaid_income_id, source, gross_amount,
			net_amount, frequency, date, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, created_at, updated_at`
	err := r.q.QueryRowContext(ctx, query, income.UserID, income.PlaidIncomeID,
		income.Source, income.GrossAmount, nullNet(income), income.Frequency,
		income.Date, income.Notes).
		Scan(&income.ID, &income.CreatedAt, &income.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create income: %w", err)
	}
	return nil
}

// FindIncomeByID retrieves an income record scoped to its owner
func (r *Repository) FindIncomeByID(ctx context.Context, userID, id int64) (*models.Income, error) {
	query := `SELECT ` + incomeColumns + ` FROM billpay.incomes WHERE id = $1 AND user_id = $2`
	income, err := scanIncome(r.q.QueryRowContext(ctx, query, id, userID).Scan)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find income: %w", err)
	}
	return income, nil
}

// FindIncomeBySource retrieves an income record by its source name
func (r *Repository) FindIncomeBySource(ctx context.Context, userID int64, source string) (*models.Income, error) {
	query := `SELECT ` + incomeColumns + ` FROM billpay.incomes WHERE user_id = $1 AND source = $2 LIMIT 1`
	income, err := scanIncome(r.q.QueryRowContext(ctx, query, userID, source).Scan)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find income: %w", err)
	}
	return income, nil
}

// ListIncomesByUser returns all income records for a user, newest first
func (r *Repository) ListIncomesByUser(ctx context.Context, userID int64) ([]models.Income, error) {
	query := `SELECT ` + incomeColumns + ` FROM billpay.incomes WHERE user_id = $1 ORDER BY date DESC`
	return r.queryIncomes(ctx, query, userID)
}

// ListIncomesInRange returns income records dated in [start, end)
func (r *Repository) ListIncomesInRange(ctx context.Context, userID int64, start, end time.Time) ([]models.Income, error) {
	query := `
		SELECT ` + incomeColumns + ` FROM billpay.incomes
		WHERE user_id = $1 AND date >= $2 AND date < $3
		ORDER BY date`
	return r.queryIncomes(ctx, query, userID, start, end)
}

// UpdateIncome replaces the editable fields of an income record
func (r *Repository) UpdateIncome(ctx context.Context, income *models.Income) error {
	query := `
		UPDATE billpay.incomes
		SET source = $3, gross_amount = $4, net_amount = $5, frequency = $6, date = $7,
			notes = $8, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND user_id = $2`
	res, err := r.q.ExecContext(ctx, query, income.ID, income.UserID, income.Source,
		income.GrossAmount, nullNet(income), income.Frequency, income.Date, income.Notes)
	if err != nil {
		return fmt.Errorf("failed to update income: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateIncomeDetected refreshes the detector-owned fields on a derived income
func (r *Repository) UpdateIncomeDetected(ctx context.Context, id int64, gross, net decimal.Decimal, date time.Time) error {
	query := `
		UPDATE billpay.incomes
		SET gross_amount = $2, net_amount = $3, date = $4, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1`
	if _, err := r.q.ExecContext(ctx, query, id, gross, net, date); err != nil {
		return fmt.Errorf("failed to update detected income: %w", err)
	}
	return nil
}

// DeleteIncome removes an income record scoped to its owner
func (r *Repository) DeleteIncome(ctx context.Context, userID, id int64) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM billpay.incomes WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete income: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteDerivedIncomesByUser removes incomes carrying an upstream identifier
func (r *Repository) DeleteDerivedIncomesByUser(ctx context.Context, userID int64) error {
	query := `DELETE FROM billpay.incomes WHERE user_id = $1 AND plaid_income_id IS NOT NULL`
	if _, err := r.q.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to delete derived incomes: %w", err)
	}
	return nil
}
