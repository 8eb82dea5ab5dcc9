package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/billpayhq/billpay-service/internal/models"
)

const billColumns = `id, user_id, plaid_bill_id, name, amount, due_date, frequency, category,
	status, autopay, notes, created_at, updated_at`

func scanBill(scan func(dest ...any) error) (*models.Bill, error) {
	bill := &models.Bill{}
	err := scan(&bill.ID, &bill.UserID, &bill.PlaidBillID, &bill.Name, &bill.Amount,
		&bill.DueDate, &bill.Frequency, &bill.Category, &bill.Status, &bill.Autopay,
		&bill.Notes, &bill.CreatedAt, &bill.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return bill, nil
}

func (r *Repository) queryBills(ctx context.Context, query string, args ...any) ([]models.Bill, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bills: %w", err)
	}
	defer rows.Close()

	var bills []models.Bill
	for rows.Next() {
		bill, err := scanBill(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bill: %w", err)
		}
		bills = append(bills, *bill)
	}
	return bills, rows.Err()
}

func prefixColumns(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, part := range parts {
		parts[i] = alias + "." + strings.TrimSpace(part)
	}
	return strings.Join(parts, ", ")
}

// CreateBill creates a new bill in the database
func (r *Repository) CreateBill(ctx context.Context, bill *models.Bill) error {
	query := `
		INSERT INTO billpay.bills (user_id, plaid_bill_id, name, amount, due_date, frequency,
			category, status, autopay, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id, created_at, updated_at`
	err := r.q.QueryRowContext(ctx, query, bill.UserID, bill.PlaidBillID, bill.Name,
		bill.Amount, bill.DueDate, bill.Frequency, bill.Category, bill.Status,
		bill.Autopay, bill.Notes).
		Scan(&bill.ID, &bill.CreatedAt, &bill.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create bill: %w", err)
	}
	return nil
}

// FindBillByID retrieves a bill scoped to its owner
func (r *Repository) FindBillByID(ctx context.Context, userID, id int64) (*models.Bill, error) {
	query := `SELECT ` + billColumns + ` FROM billpay.bills WHERE id = $1 AND user_id = $2`
	bill, err := scanBill(r.q.QueryRowContext(ctx, query, id, userID).Scan)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find bill: %w", err)
	}
	return bill, nil
}

// FindBillByNormalizedName matches on lower-cased name so the recurring
// detector's group key finds the bill it created on an earlier run.
func (r *Repository) FindBillByNormalizedName(ctx context.Context, userID int64, name string) (*models.Bill, error) {
	query := `SELECT ` + billColumns + ` FROM billpay.bills WHERE user_id = $1 AND LOWER(name) = LOWER($2) LIMIT 1`
	bill, err := scanBill(r.q.QueryRowContext(ctx, query, userID, name).Scan)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find bill: %w", err)
	}
	return bill, nil
}

// FindBillByPlaidBillID retrieves a derived bill by its upstream identifier
func (r *Repository) FindBillByPlaidBillID(ctx context.Context, userID int64, plaidBillID string) (*models.Bill, error) {
	query := `SELECT ` + billColumns + ` FROM billpay.bills WHERE user_id = $1 AND plaid_bill_id = $2`
	bill, err := scanBill(r.q.QueryRowContext(ctx, query, userID, plaidBillID).Scan)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find bill: %w", err)
	}
	return bill, nil
}

// ListBillsByUser returns all bills for a user ordered by due date
func (r *Repository) ListBillsByUser(ctx context.Context, userID int64) ([]models.Bill, error) {
	query := `SELECT ` + billColumns + ` FROM billpay.bills WHERE user_id = $1 ORDER BY due_date`
	return r.queryBills(ctx, query, userID)
}

// ListUpcomingUnpaidBills returns not-yet-paid bills due inside the window
func (r *Repository) ListUpcomingUnpaidBills(ctx context.Context, userID int64, from, to time.Time) ([]models.Bill, error) {
	query := `
		SELECT ` + billColumns + ` FROM billpay.bills
		WHERE user_id = $1 AND due_date BETWEEN $2 AND $3 AND status <> 'paid'
		ORDER BY due_date`
	return r.queryBills(ctx, query, userID, from, to)
}

// ListDueBillReminders returns unpaid bills due in the window together with
// the owning user's email, for the reminder job.
func (r *Repository) ListDueBillReminders(ctx context.Context, from, to time.Time) ([]BillReminder, error) {
	query := `
		SELECT u.email, ` + prefixColumns("b", billColumns) + `
		FROM billpay.bills b
		JOIN billpay.users u ON u.id = b.user_id
		WHERE b.due_date BETWEEN $1 AND $2 AND b.status <> 'paid'
		ORDER BY b.due_date`
	rows, err := r.q.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query bill reminders: %w", err)
	}
	defer rows.Close()

	var reminders []BillReminder
	for rows.Next() {
		var rem BillReminder
		err := rows.Scan(&rem.Email, &rem.Bill.ID, &rem.Bill.UserID, &rem.Bill.PlaidBillID,
			&rem.Bill.Name, &rem.Bill.Amount, &rem.Bill.DueDate, &rem.Bill.Frequency,
			&rem.Bill.Category, &rem.Bill.Status, &rem.Bill.Autopay, &rem.Bill.Notes,
			&rem.Bill.CreatedAt, &rem.Bill.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bill reminder: %w", err)
		}
		reminders = append(reminders, rem)
	}
	return reminders, rows.Err()
}

// UpdateBill replaces the editable fields of a bill
func (r *Repository) UpdateBill(ctx context.Context, bill *models.Bill) error {
	query := `
		UPDATE billpay.bills
		SET name = $3, amount = $4, due_date = $5, frequency = $6, category = $7,
			status = $8, autopay = $9, notes = $10, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND user_id = $2`
	res, err := r.q.ExecContext(ctx, query, bill.ID, bill.UserID, bill.Name, bill.Amount,
		bill.DueDate, bill.Frequency, bill.Category, bill.Status, bill.Autopay, bill.Notes)
	if err != nil {
		return fmt.Errorf("failed to update bill: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateBillStatus sets a bill's status
func (r *Repository) UpdateBillStatus(ctx context.Context, userID, id int64, status string) error {
	query := `
		UPDATE billpay.bills SET status = $3, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND user_id = $2`
	res, err := r.q.ExecContext(ctx, query, id, userID, status)
	if err != nil {
		return fmt.Errorf("failed to update bill status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateBillPayment refreshes amount and due date on a liability-derived bill
func (r *Repository) UpdateBillPayment(ctx context.Context, id int64, amount decimal.Decimal, dueDate time.Time) error {
	query := `
		UPDATE billpay.bills SET amount = $2, due_date = $3, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1`
	if _, err := r.q.ExecContext(ctx, query, id, amount, dueDate); err != nil {
		return fmt.Errorf("failed to update bill payment: %w", err)
	}
	return nil
}

// SumBillAmounts totals all bill amounts for the dashboard
func (r *Repository) SumBillAmounts(ctx context.Context, userID int64) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM billpay.bills WHERE user_id = $1`
	var total decimal.Decimal
	if err := r.q.QueryRowContext(ctx, query, userID).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum bills: %w", err)
	}
	return total, nil
}

// DeleteBill removes a bill scoped to its owner
func (r *Repository) DeleteBill(ctx context.Context, userID, id int64) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM billpay.bills WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete bill: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteDerivedBillsByUser removes bills carrying an upstream identifier
func (r *Repository) DeleteDerivedBillsByUser(ctx context.Context, userID int64) error {
	query := `DELETE FROM billpay.bills WHERE user_id = $1 AND plaid_bill_id IS NOT NULL`
	if _, err := r.q.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to delete derived bills: %w", err)
	}
	return nil
}
